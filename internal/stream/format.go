package stream

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"golang.org/x/text/cases"
)

// Format is the resolution tier a stream variant belongs to.
type Format int

const (
	Unknown Format = iota
	Tier8K
	Tier4K
	TierHD
	Tier3D
)

type formatInfo struct {
	format    Format
	name      string
	extension string
	aliases   []string
}

// formatTable maps each tier to its container extension. Order matters: it is
// the order Formats reports and the order listings group by.
var formatTable = []formatInfo{
	{Tier8K, "8k", ".EVO8", []string{"8k", "tier8k", "evo8", "uhd8k"}},
	{Tier4K, "4k", ".EVO4", []string{"4k", "tier4k", "evo4", "uhd"}},
	{TierHD, "hd", ".EVOH", []string{"hd", "tierhd", "evoh", "1080p"}},
	{Tier3D, "3d", ".3D4", []string{"3d", "tier3d", "3d4"}},
}

// fold applies Unicode case folding. Casers carry state, so each call gets
// its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// Formats returns the known tiers in table order.
func Formats() []Format {
	out := make([]Format, 0, len(formatTable))
	for _, info := range formatTable {
		out = append(out, info.format)
	}
	return out
}

// Classify maps a filename (or bare extension) to its tier. Anything that is
// not one of the four container extensions is Unknown.
func Classify(name string) Format {
	ext := path.Ext(strings.TrimSpace(name))
	if ext == "" {
		return Unknown
	}
	folded := fold(ext)
	for _, info := range formatTable {
		if folded == fold(info.extension) {
			return info.format
		}
	}
	return Unknown
}

// ParseFormat resolves user input such as "8k", "EVO4" or ".evoh".
func ParseFormat(value string) (Format, error) {
	key := fold(strings.TrimPrefix(strings.TrimSpace(value), "."))
	if key == "" {
		return Unknown, errors.New("empty stream format")
	}
	for _, info := range formatTable {
		for _, alias := range info.aliases {
			if key == alias {
				return info.format, nil
			}
		}
	}
	return Unknown, fmt.Errorf("unknown stream format %q (want 8k, 4k, hd, or 3d)", value)
}

func (f Format) info() (formatInfo, bool) {
	for _, info := range formatTable {
		if info.format == f {
			return info, true
		}
	}
	return formatInfo{}, false
}

func (f Format) String() string {
	if info, ok := f.info(); ok {
		return info.name
	}
	return "unknown"
}

// Extension returns the container extension for the tier, or "" for Unknown.
func (f Format) Extension() string {
	if info, ok := f.info(); ok {
		return info.extension
	}
	return ""
}

// Known reports whether f is one of the four catalogued tiers.
func (f Format) Known() bool {
	_, ok := f.info()
	return ok
}

func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(data []byte) error {
	if strings.EqualFold(strings.TrimSpace(string(data)), "unknown") {
		*f = Unknown
		return nil
	}
	parsed, err := ParseFormat(string(data))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
