package manifest

import (
	"strconv"
	"strings"
)

const streamInfTag = "#EXT-X-STREAM-INF:"

// variantAttributes holds the EXT-X-STREAM-INF values that apply to the next
// URI line.
type variantAttributes struct {
	bandwidth int64
	width     int
	height    int
	codecs    string
}

// parseStreamInf decodes the attribute list following an EXT-X-STREAM-INF
// tag. Malformed values are ignored individually so the tier defaults fill in.
func parseStreamInf(list string) variantAttributes {
	attrs := parseAttributeList(list)

	var out variantAttributes
	bandwidth := attrs["BANDWIDTH"]
	if bandwidth == "" {
		bandwidth = attrs["AVERAGE-BANDWIDTH"]
	}
	if v, err := strconv.ParseInt(bandwidth, 10, 64); err == nil && v > 0 {
		out.bandwidth = v
	}
	if w, h, ok := parseResolution(attrs["RESOLUTION"]); ok {
		out.width, out.height = w, h
	}
	out.codecs = attrs["CODECS"]
	return out
}

// parseAttributeList splits an HLS attribute list (KEY=VALUE pairs separated
// by commas). Quoted values may contain commas and are returned unquoted.
// Keys are upper-cased; the first occurrence of a key wins.
func parseAttributeList(s string) map[string]string {
	out := make(map[string]string)
	for i := 0; i < len(s); {
		for i < len(s) && (s[i] == ',' || s[i] == ' ' || s[i] == '\t') {
			i++
		}
		keyStart := i
		for i < len(s) && s[i] != '=' && s[i] != ',' {
			i++
		}
		key := strings.ToUpper(strings.TrimSpace(s[keyStart:i]))
		if i >= len(s) || s[i] == ',' {
			// Bare token without a value.
			continue
		}
		i++ // '='

		var value string
		if i < len(s) && s[i] == '"' {
			i++
			valueStart := i
			for i < len(s) && s[i] != '"' {
				i++
			}
			value = s[valueStart:i]
			if i < len(s) {
				i++ // closing quote
			}
			for i < len(s) && s[i] != ',' {
				i++
			}
		} else {
			valueStart := i
			for i < len(s) && s[i] != ',' {
				i++
			}
			value = strings.TrimSpace(s[valueStart:i])
		}

		if key == "" {
			continue
		}
		if _, seen := out[key]; !seen {
			out[key] = value
		}
	}
	return out
}

func parseResolution(value string) (int, int, bool) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(value)), "x")
	if !ok {
		return 0, 0, false
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, false
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}
