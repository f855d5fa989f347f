package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"kdvd/internal/logging"
	"kdvd/internal/stream"
)

// DefaultLimit is the number of recognized entries the disc reference player
// catalogues, one per tier.
const DefaultLimit = 4

// maxLineBytes bounds a single manifest line. Longer lines are skipped.
const maxLineBytes = 1 << 20

var (
	// ErrNotFound reports a manifest that could not be opened.
	ErrNotFound = errors.New("manifest not found")
	// ErrRead reports a manifest whose content could not be fully read.
	ErrRead = errors.New("manifest read failed")
)

// Scanner turns an HLS-style playlist into stream descriptors.
type Scanner struct {
	// Limit stops scanning once this many descriptors are collected. Zero
	// means no limit.
	Limit int
	// TierDefaultsOnly ignores EXT-X-STREAM-INF attributes.
	TierDefaultsOnly bool
	Logger           *slog.Logger
}

// NewScanner returns a scanner with the reference stream limit.
func NewScanner(logger *slog.Logger) *Scanner {
	return &Scanner{Limit: DefaultLimit, Logger: logger}
}

// Parse reads the manifest at path.
func (s *Scanner) Parse(path string) ([]stream.Descriptor, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	}
	defer file.Close()

	descriptors, err := s.ParseReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return descriptors, nil
}

// ParseReader scans manifest content in order. Comment and directive lines
// never produce descriptors; entries with unrecognized extensions and repeated
// filenames are skipped.
func (s *Scanner) ParseReader(r io.Reader) ([]stream.Descriptor, error) {
	logger := logging.NewComponentLogger(s.logger(), "manifest")

	var (
		out     []stream.Descriptor
		seen    = make(map[string]struct{})
		pending variantAttributes
		lineNo  int
		skipped int
	)

	lines := newLineReader(r)
	for lines.next() {
		lineNo++
		if lines.oversized {
			skipped++
			logger.Debug("skipping oversized manifest line",
				logging.Int("line", lineNo),
				logging.Int("limit_bytes", maxLineBytes))
			continue
		}
		line := strings.TrimSpace(lines.text)
		if lineNo == 1 {
			line = strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if !s.TierDefaultsOnly && hasPrefixFold(line, streamInfTag) {
				pending = parseStreamInf(line[len(streamInfTag):])
			}
			continue
		}

		attrs := pending
		pending = variantAttributes{}

		name := basename(line)
		format := stream.Classify(name)
		if name == "" || format == stream.Unknown {
			skipped++
			logger.Debug("skipping unrecognized manifest entry",
				logging.Int("line", lineNo),
				logging.String("entry", line))
			continue
		}
		if _, dup := seen[name]; dup {
			skipped++
			logger.Debug("skipping duplicate manifest entry",
				logging.Int("line", lineNo),
				logging.String("filename", name))
			continue
		}
		seen[name] = struct{}{}

		out = append(out, describe(name, format, attrs))
		if s.Limit > 0 && len(out) >= s.Limit {
			logger.Debug("manifest stream limit reached",
				logging.Int("limit", s.Limit),
				logging.Int("line", lineNo))
			break
		}
	}
	if lines.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, lines.err)
	}

	logger.Debug("manifest scanned",
		logging.Int("streams", len(out)),
		logging.Int("skipped", skipped))
	return out, nil
}

// lineReader yields newline-terminated lines of any length. Lines over
// maxLineBytes are reported as oversized with their content dropped.
type lineReader struct {
	r         *bufio.Reader
	text      string
	oversized bool
	err       error
	done      bool
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024)}
}

func (l *lineReader) next() bool {
	if l.done {
		return false
	}
	var buf []byte
	l.text, l.oversized = "", false
	for {
		chunk, err := l.r.ReadSlice('\n')
		if !l.oversized {
			if len(buf)+len(chunk) > maxLineBytes {
				l.oversized = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil {
			l.done = true
			if !errors.Is(err, io.EOF) {
				l.err = err
				return false
			}
			if len(buf) == 0 && !l.oversized {
				return false
			}
		}
		l.text = string(buf)
		return true
	}
}

func (s *Scanner) logger() *slog.Logger {
	if s == nil || s.Logger == nil {
		return logging.NewNop()
	}
	return s.Logger
}

func describe(name string, format stream.Format, attrs variantAttributes) stream.Descriptor {
	d := stream.NewDescriptor(name, format)
	if attrs.bandwidth > 0 {
		d.BandwidthBps = attrs.bandwidth
		d.Declared = true
	}
	if attrs.width > 0 && attrs.height > 0 {
		d.Width, d.Height = attrs.width, attrs.height
		d.Declared = true
	}
	d.Codecs = attrs.codecs
	return d
}

// basename returns the text after the final '/'. URI entries lose their query
// string and fragment first.
func basename(entry string) string {
	if strings.Contains(entry, "://") {
		if i := strings.IndexAny(entry, "?#"); i >= 0 {
			entry = entry[:i]
		}
	}
	if i := strings.LastIndexByte(entry, '/'); i >= 0 {
		entry = entry[i+1:]
	}
	return strings.TrimSpace(entry)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
