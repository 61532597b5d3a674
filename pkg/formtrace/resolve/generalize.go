package resolve

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// RowPlaceholder replaces row numbers in generalized patterns.
const RowPlaceholder = "{row}"

// Generalize replaces the trailing row number of every reference-like
// token with RowPlaceholder, so "=A2+B2" and "=A57+B57" share the pattern
// "=A{row}+B{row}". It works on raw and translated text alike. Function
// names, sheet prefixes, numbers, string literals and names whose digits
// follow a lower-case letter are left alone, which makes a second pass a
// no-op.
func Generalize(formula string) string {
	var b strings.Builder
	b.Grow(len(formula) + 8)

	i := 0
	for i < len(formula) {
		c := formula[i]
		switch {
		case c == '"' || c == '\'':
			j := skipQuoted(formula, i)
			b.WriteString(formula[i:j])
			i = j
		case c >= '0' && c <= '9':
			j := tokenEnd(formula, i)
			b.WriteString(formula[i:j])
			i = j
		default:
			r, size := utf8.DecodeRuneInString(formula[i:])
			if !isTokenStart(r) {
				b.WriteString(formula[i : i+size])
				i += size
				continue
			}
			j := tokenEnd(formula, i)
			b.WriteString(generalizeToken(formula, i, j))
			i = j
		}
	}
	return b.String()
}

func generalizeToken(formula string, start, end int) string {
	token := formula[start:end]
	next := end
	for next < len(formula) && formula[next] == ' ' {
		next++
	}
	if next < len(formula) && (formula[next] == '(' || formula[next] == '!') {
		return token
	}

	k := len(token)
	for k > 0 && token[k-1] >= '0' && token[k-1] <= '9' {
		k--
	}
	if k == len(token) {
		return token
	}
	// Only digits following an upper-case column letter are rows, so
	// named ranges such as Rate2024 stay intact.
	prefix := strings.TrimSuffix(token[:k], "$")
	if prefix == "" || prefix[len(prefix)-1] < 'A' || prefix[len(prefix)-1] > 'Z' {
		return token
	}
	return token[:k] + RowPlaceholder
}

func skipQuoted(s string, i int) int {
	quote := s[i]
	j := i + 1
	for j < len(s) {
		if s[j] == quote {
			if j+1 < len(s) && s[j+1] == quote {
				j += 2
				continue
			}
			return j + 1
		}
		j++
	}
	return len(s)
}

func tokenEnd(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isTokenStart(r) && r != '.' && !unicode.IsDigit(r) {
			break
		}
		i += size
	}
	return i
}

func isTokenStart(r rune) bool {
	return r == '_' || r == '$' || r == '\\' || unicode.IsLetter(r)
}
