package classifier

import "errors"

var ErrNoJSONObject = errors.New("no json object in content")

// ExtractJSONObject returns the first balanced {...} block in content.
// Models wrap JSON in markdown fences or prose prefixes often enough that
// plain unmarshalling is not an option.
func ExtractJSONObject(content string) (string, error) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			if start >= 0 {
				inString = true
			}
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return content[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSONObject
}
