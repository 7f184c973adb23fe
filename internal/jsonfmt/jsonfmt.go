// Package jsonfmt re-indents JSON text in a single pass without decoding it.
//
// The formatter only looks at structural characters outside string literals,
// so malformed or truncated input still comes out as best-effort text.
package jsonfmt

import "strings"

// IndentUnit is written once per nesting level.
const IndentUnit = "    "

var stripper = strings.NewReplacer("\r\n", "", "\n", "", "\t", "")

// Format returns text with a newline and indentation inserted after every
// opening bracket and comma, before every closing bracket, and a space after
// every colon that sits outside a quoted string. Existing newlines and tabs
// are removed first. An empty string formats to an empty string.
//
// Unbalanced closers drive the depth below zero. The depth is not clamped:
// a negative depth writes no indentation and later openers count up from it.
func Format(text string) string {
	if text == "" {
		return ""
	}
	text = stripper.Replace(text)

	var (
		b      strings.Builder
		depth  int
		quoted bool
	)
	b.Grow(len(text) * 2)

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch ch {
		case '{', '[':
			b.WriteByte(ch)
			if !quoted {
				depth++
				newline(&b, depth)
			}
		case '}', ']':
			if !quoted {
				depth--
				newline(&b, depth)
			}
			b.WriteByte(ch)
		case '"':
			b.WriteByte(ch)
			if !escaped(text, i) {
				quoted = !quoted
			}
		case ',':
			b.WriteByte(ch)
			if !quoted {
				newline(&b, depth)
			}
		case ':':
			b.WriteByte(ch)
			if !quoted {
				b.WriteByte(' ')
			}
		default:
			b.WriteByte(ch)
		}
	}

	return b.String()
}

func newline(b *strings.Builder, depth int) {
	b.WriteByte('\n')
	for i := 0; i < depth; i++ {
		b.WriteString(IndentUnit)
	}
}

// escaped reports whether the quote at text[i] is preceded by an odd run of
// backslashes.
func escaped(text string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && text[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}
