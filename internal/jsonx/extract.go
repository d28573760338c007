// Package jsonx extracts JSON values from noisy text. AI providers are
// asked for structured output but routinely wrap it in prose or code
// fences; every call site parses through here instead of trusting the
// raw response.
package jsonx

import (
	"encoding/json"
	"strings"
)

// Extract returns the first balanced JSON object or array found in s,
// and whether one was found. Code-fence markers are stripped first.
// The returned value is validated with json.Valid before being reported
// as found.
func Extract(s string) (string, bool) {
	s = stripFences(s)

	start := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '{' || s[i] == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return "", false
	}

	end := balancedEnd(s, start)
	if end < 0 {
		return "", false
	}

	candidate := s[start : end+1]
	if !json.Valid([]byte(candidate)) {
		return "", false
	}
	return candidate, true
}

// ExtractInto extracts the first JSON value and unmarshals it into out
func ExtractInto(s string, out any) bool {
	raw, ok := Extract(s)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}

// stripFences removes markdown code-fence lines (``` or ```json)
func stripFences(s string) string {
	if !strings.Contains(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

// balancedEnd scans from the opening bracket at start and returns the
// index of the matching close bracket, or -1. String literals and
// escapes are honored so brackets inside strings don't count.
func balancedEnd(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
