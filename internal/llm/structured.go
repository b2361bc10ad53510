package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaValidator validates a parsed struct after JSON extraction.
// Returns nil if valid, or a descriptive error if invalid.
type SchemaValidator[T any] func(T) error

// ExtractJSON extracts a JSON object of type T from raw model output.
// It tolerates markdown code fences, chatter around the object, comments,
// trailing commas and leading-dot decimals.
func ExtractJSON[T any](raw string, validator SchemaValidator[T]) (T, error) {
	var zero T

	block := extractJSONBlock(stripCodeFences(raw))
	if block == "" {
		return zero, fmt.Errorf("%w: no JSON object found in response", ErrInvalidOutput)
	}

	var result T
	if err := json.Unmarshal([]byte(repairJSON(block)), &result); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}

	if validator != nil {
		if err := validator(result); err != nil {
			return zero, fmt.Errorf("%w: validation failed: %v", ErrInvalidOutput, err)
		}
	}

	return result, nil
}

// HasJSONObject reports whether raw contains a balanced JSON object.
func HasJSONObject(raw string) bool {
	return extractJSONBlock(stripCodeFences(raw)) != ""
}

func repairJSON(s string) string {
	s = stripJSONComments(s)
	s = stripTrailingCommas(s)
	return normalizeLeadingDecimalNumbers(s)
}

// stripCodeFences drops markdown fence lines (```json, ```) and keeps their contents.
func stripCodeFences(s string) string {
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

// extractJSONBlock finds the first balanced { ... } block in the text.
func extractJSONBlock(s string) string {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return ""
	}

	depth := 0
	end := -1
	walkOutsideStrings(s[start:], func(i int, c byte) int {
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				end = start + i + 1
				return -1
			}
		}
		return 0
	})
	if end == -1 {
		return ""
	}
	return s[start:end]
}

// walkOutsideStrings calls fn for each byte of s that lies outside a JSON
// string literal. fn returns how many extra bytes to skip, or -1 to stop.
func walkOutsideStrings(s string, fn func(i int, c byte) int) {
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
			continue
		case inString && c == '\\':
			escaped = true
			continue
		case c == '"':
			inString = !inString
			continue
		case inString:
			continue
		}
		skip := fn(i, c)
		if skip < 0 {
			return
		}
		i += skip
	}
}

// stripJSONComments removes // and /* */ comments outside string values.
func stripJSONComments(s string) string {
	var drop [][2]int
	walkOutsideStrings(s, func(i int, c byte) int {
		if c != '/' || i+1 >= len(s) {
			return 0
		}
		switch s[i+1] {
		case '/':
			end := strings.IndexByte(s[i:], '\n')
			if end == -1 {
				end = len(s) - i
			}
			drop = append(drop, [2]int{i, i + end})
			return end - 1
		case '*':
			end := strings.Index(s[i+2:], "*/")
			if end == -1 {
				drop = append(drop, [2]int{i, len(s)})
				return len(s)
			}
			drop = append(drop, [2]int{i, i + 2 + end + 2})
			return end + 3
		}
		return 0
	})
	return cut(s, drop)
}

// stripTrailingCommas removes commas that directly precede } or ].
func stripTrailingCommas(s string) string {
	var drop [][2]int
	walkOutsideStrings(s, func(i int, c byte) int {
		if c != ',' {
			return 0
		}
		if next := nextNonSpace(s, i+1); next == '}' || next == ']' {
			drop = append(drop, [2]int{i, i + 1})
		}
		return 0
	})
	return cut(s, drop)
}

// normalizeLeadingDecimalNumbers rewrites ".8" or "-.3" into "0.8" and "-0.3"
// outside string values.
func normalizeLeadingDecimalNumbers(s string) string {
	var at []int
	walkOutsideStrings(s, func(i int, c byte) int {
		if c == '.' && i+1 < len(s) && isDigit(s[i+1]) && isNumericBoundary(prevNonSpace(s, i-1)) {
			at = append(at, i)
		}
		return 0
	})
	if len(at) == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + len(at))
	prev := 0
	for _, i := range at {
		b.WriteString(s[prev:i])
		b.WriteByte('0')
		prev = i
	}
	b.WriteString(s[prev:])
	return b.String()
}

// cut removes the given ascending, non-overlapping [start,end) ranges from s.
func cut(s string, ranges [][2]int) string {
	if len(ranges) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	prev := 0
	for _, r := range ranges {
		b.WriteString(s[prev:r[0]])
		prev = r[1]
	}
	b.WriteString(s[prev:])
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\r' || c == '\t'
}

func prevNonSpace(s string, i int) byte {
	for ; i >= 0; i-- {
		if !isSpace(s[i]) {
			return s[i]
		}
	}
	return 0
}

func nextNonSpace(s string, i int) byte {
	for ; i < len(s); i++ {
		if !isSpace(s[i]) {
			return s[i]
		}
	}
	return 0
}

func isNumericBoundary(c byte) bool {
	switch c {
	case 0, ':', ',', '[', '{', '-':
		return true
	default:
		return false
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
