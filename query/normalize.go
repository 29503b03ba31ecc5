// Package query normalizes Lua EVAL expressions and CALL function names so
// that invocations differing only in literal arguments collapse to the
// same shape for detect's burst detection.
package query

import "strings"

// Normalize replaces literal values in a Lua expression with placeholders,
// so that structurally identical CALL/EVAL expressions can be grouped
// together.
//
// String literals ('...' or "...") are replaced with '?', standalone
// numeric literals are replaced with ?. Consecutive whitespace is
// collapsed to a single space.
func Normalize(expr string) string {
	if expr == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(expr))

	i := 0
	prevSpace := false
	for i < len(expr) {
		ch := expr[i]

		if ch == '\'' || ch == '"' {
			i = normalizeString(&b, expr, i, ch)
			prevSpace = false
			continue
		}

		if isDigit(ch) && (i == 0 || isNumBoundary(expr[i-1])) {
			if next, ok := normalizeNumber(&b, expr, i); ok {
				i = next
				prevSpace = false
				continue
			}
		}

		if isSpace(ch) {
			if !prevSpace && b.Len() > 0 {
				b.WriteByte(' ')
				prevSpace = true
			}
			i++
			continue
		}

		b.WriteByte(ch)
		i++
		prevSpace = false
	}

	return strings.TrimRight(b.String(), " ")
}

// normalizeString replaces a string literal starting at pos with '?'.
// quote is the opening quote character, ' or ".
func normalizeString(b *strings.Builder, expr string, pos int, quote byte) int {
	j := pos + 1
	for j < len(expr) {
		if expr[j] == '\\' && j+1 < len(expr) {
			j += 2
			continue
		}
		if expr[j] == quote {
			j++
			break
		}
		j++
	}
	b.WriteString("'?'")
	return j
}

// normalizeNumber replaces a numeric literal at pos with a bare ?.
// Returns (newPos, true) if replaced, or (0, false) if not a standalone number.
func normalizeNumber(b *strings.Builder, expr string, pos int) (int, bool) {
	j := pos + 1
	for j < len(expr) && (isDigit(expr[j]) || expr[j] == '.') {
		j++
	}
	if j >= len(expr) || isNumBoundary(expr[j]) {
		b.WriteByte('?')
		return j, true
	}
	return 0, false
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isNumBoundary(c byte) bool {
	return isSpace(c) ||
		c == ',' || c == '(' || c == ')' || c == '{' || c == '}' || c == '=' ||
		c == '<' || c == '>' || c == '+' || c == '-' ||
		c == '*' || c == '/' || c == ';'
}
