package blackbox

// shouldEscape mirrors encodeURIComponent: everything except ASCII
// alphanumerics and -_.!~*'() is escaped.
func shouldEscape(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return false
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return false
	}
	return true
}

const upperHex = "0123456789ABCDEF"

func escapeURIComponent(s []byte) []byte {
	n := 0
	for _, c := range s {
		if shouldEscape(c) {
			n++
		}
	}
	if n == 0 {
		return append([]byte(nil), s...)
	}

	out := make([]byte, 0, len(s)+2*n)
	for _, c := range s {
		if shouldEscape(c) {
			out = append(out, '%', upperHex[c>>4], upperHex[c&15])
			continue
		}
		out = append(out, c)
	}
	return out
}

// unescapeURIComponent decodes %XX sequences. A '%' that does not start a
// valid escape is kept as is.
func unescapeURIComponent(s []byte) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && i+2 < len(s) {
			hi, okHi := unhex(s[i+1])
			lo, okLo := unhex(s[i+2])
			if okHi && okLo {
				out = append(out, hi<<4|lo)
				i += 2
				continue
			}
		}
		out = append(out, s[i])
	}
	return out
}

func unhex(c byte) (byte, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
