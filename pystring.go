package pkl

import (
	"strconv"
	"unicode/utf8"
)

// decodeStringEscape decodes the body of a STRING opcode argument
// according to Python's "string-escape" codec, the same codec CPython
// implements here:
// https://github.com/python/cpython/blob/v2.7.15-198-g69d0bc1430d/Objects/stringobject.c#L600
func decodeStringEscape(s string) (string, error) {
	out := make([]byte, 0, len(s))

loop:
	for {
		r, width := utf8.DecodeRuneInString(s)
		if width == 0 {
			break
		}

		if r != '\\' {
			out = append(out, s[:width]...)
			s = s[width:]
			continue
		}

		if len(s) < 2 {
			return "", strconv.ErrSyntax
		}

		switch c := s[1]; c {
		case '\n':
			s = s[2:]
			continue loop
		case '\\':
			out = append(out, '\\')
			s = s[2:]
			continue loop
		case '\'', '"':
			out = append(out, c)
			s = s[2:]
			continue loop
		default:
			out = append(out, '\\')
			s = s[1:]
			continue loop
		case 'b', 'f', 't', 'n', 'r', 'v', 'a':
		case '0', '1', '2', '3', '4', '5', '6', '7':
		case 'x':
		}

		r, _, tail, err := strconv.UnquoteChar(s, 0)
		if err != nil {
			return "", err
		}
		c := byte(r)
		if r != rune(c) {
			return "", strconv.ErrSyntax
		}
		out = append(out, c)
		s = tail
	}

	return string(out), nil
}
