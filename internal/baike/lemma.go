package baike

import (
	"net/url"
	"strings"
)

// LemmaIDParam is the query parameter that carries a lemma id, both in
// shareable Baike URLs and in discussion API requests.
const LemmaIDParam = "lemmaId"

// ResolveLemmaID extracts the lemma id to query from input, which may be a
// bare id, a URL with a lemmaId query parameter, or a URL with the id as a
// path segment. Anything it cannot resolve yields defaultID.
//
// The lemmaId query parameter is returned verbatim, without checking that it
// is numeric. Path segments and bare input must be all digits.
func ResolveLemmaID(input, defaultID string) string {
	if strings.HasPrefix(input, "http") {
		if u, ok := parseAbsoluteURL(input); ok {
			if id := queryValue(u.RawQuery, LemmaIDParam); id != "" {
				return id
			}
			for part := range strings.SplitSeq(u.EscapedPath(), "/") {
				if isDigits(part) {
					return part
				}
			}
		}
	} else if isDigits(input) {
		return input
	}
	return defaultID
}

// parseAbsoluteURL accepts only URLs with both a scheme and a host, so that
// strings like "httpfoo" or "http:/123" count as unparseable. Input is
// cleaned up the way browsers do before parsing: see [cleanURL].
func parseAbsoluteURL(s string) (*url.URL, bool) {
	u, err := url.Parse(cleanURL(s))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, false
	}
	return u, true
}

// cleanURL trims trailing spaces and control characters, drops tabs and
// newlines anywhere, and percent-encodes stray '%' signs and the remaining
// control characters, which url.Parse would otherwise reject.
func cleanURL(s string) string {
	s = strings.TrimRightFunc(s, func(r rune) bool { return r <= ' ' })

	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\t' || c == '\n' || c == '\r':
		case c == '%' && !(i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2])):
			sb.WriteString("%25")
		case c < ' ' || c == 0x7f:
			sb.WriteByte('%')
			sb.WriteByte(upperHex[c>>4])
			sb.WriteByte(upperHex[c&0xf])
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

const upperHex = "0123456789ABCDEF"

// queryValue returns the first value of key in rawQuery. Pairs are split on
// '&' only; names and values are form-decoded, and a value that fails to
// decode is kept as written.
func queryValue(rawQuery, key string) string {
	for pair := range strings.SplitSeq(rawQuery, "&") {
		name, value, _ := strings.Cut(pair, "=")
		if unescapeQuery(name) == key {
			return unescapeQuery(value)
		}
	}
	return ""
}

func unescapeQuery(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return strings.ReplaceAll(s, "+", " ")
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

// isDigits reports whether s is a non-empty string of ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
