package guard

import "strings"

// normalizeSource rewrites authored expression text into HCL native syntax:
//
//   - single-quoted string literals become double-quoted
//   - a '-' outside a string is surrounded by spaces, because HCL allows
//     '-' inside identifiers and would read "c-1" as one name
//
// The exponent sign of a numeric literal such as 1e-3 is left alone.
func normalizeSource(src string) string {
	var b strings.Builder
	b.Grow(len(src) + 8)

	var quote rune // 0 outside strings, '"' or '\'' inside
	escaped := false
	runes := []rune(src)
	for i, r := range runes {
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
				if quote == '\'' && r == '\'' {
					b.WriteRune('\'')
					continue
				}
				b.WriteRune('\\')
				b.WriteRune(r)
			case r == '\\':
				escaped = true
			case r == quote:
				quote = 0
				b.WriteRune('"')
			case quote == '\'' && r == '"':
				b.WriteString(`\"`)
			default:
				b.WriteRune(r)
			}
			continue
		}

		switch r {
		case '"', '\'':
			quote = r
			b.WriteRune('"')
		case '-':
			if isExponentSign(runes, i) {
				b.WriteRune(r)
			} else {
				b.WriteString(" - ")
			}
		default:
			b.WriteRune(r)
		}
	}
	if escaped {
		b.WriteRune('\\')
	}
	// An unterminated string stays unterminated so the parser reports it.
	return b.String()
}

// isExponentSign reports whether the '-' at runes[i] belongs to a numeric
// literal like 2.5e-3.
func isExponentSign(runes []rune, i int) bool {
	if i == 0 || (runes[i-1] != 'e' && runes[i-1] != 'E') {
		return false
	}
	if i+1 >= len(runes) || runes[i+1] < '0' || runes[i+1] > '9' {
		return false
	}
	// Walk back over the mantissa; it must start with a digit.
	j := i - 2
	for j >= 0 && (isDigit(runes[j]) || runes[j] == '.') {
		j--
	}
	if j == i-2 {
		return false
	}
	start := j + 1
	if !isDigit(runes[start]) {
		return false
	}
	return j < 0 || !isIdentRune(runes[j])
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentRune(r rune) bool {
	return r == '_' || isDigit(r) || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
