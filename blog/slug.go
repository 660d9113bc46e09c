package blog

import (
	"net/url"
	"strings"
)

// MaxSlugLength caps generated slugs.
const MaxSlugLength = 80

// quotes are removed before slugifying so "don't" becomes "dont", not "don-t".
var quotes = strings.NewReplacer(`'`, "", `"`, "", "’", "", "‘", "", "“", "", "”", "", "`", "")

// Slugify converts s to a URL-safe slug: lower case, quotes stripped, runs of
// anything other than [a-z0-9] collapsed to one hyphen, no leading or trailing
// hyphen, at most MaxSlugLength bytes.
func Slugify(s string) string {
	s = quotes.Replace(strings.ToLower(strings.TrimSpace(s)))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if len(out) > MaxSlugLength {
		out = strings.TrimRight(out[:MaxSlugLength], "-")
	}
	return out
}

// TitleCase renders an id such as "iot-realtime" as "Iot Realtime".
func TitleCase(id string) string {
	parts := strings.FieldsFunc(id, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

// PostPath is the detail page address of slug. The slug travels as a query
// parameter.
func PostPath(slug string) string {
	return "/blog/post/?slug=" + url.QueryEscape(slug)
}
