package datasource

import (
	"regexp"
	"strings"
)

// SQLLike turns a search pattern into a LIKE pattern for use with
// ESCAPE '\'. Underscores are literal, as signal names are full of them,
// and * is accepted as an alias of %.
func SQLLike(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '\\', '_':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '*':
			b.WriteByte('%')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PatternRegexp compiles a search pattern into an anchored regular
// expression matching the same names as SQLLike.
func PatternRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		if r == '%' || r == '*' {
			b.WriteString(".*")
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
