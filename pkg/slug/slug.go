package slug

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Letters that do not decompose into an ASCII base plus combining marks.
var letterReplacer = strings.NewReplacer(
	"ı", "i", "ß", "ss", "æ", "ae", "œ", "oe", "ø", "o", "ł", "l", "đ", "d", "þ", "th",
)

// Generate creates a URL-friendly slug from a title or name. Accented letters
// are folded to their ASCII base ("Café Crème" -> "cafe-creme").
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = letterReplacer.Replace(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// WithID prefixes the slug of title with id, e.g. "1-the-art-of-web-development".
// A title that slugs to nothing yields the bare id.
func WithID(id int64, title string) string {
	prefix := strconv.FormatInt(id, 10)
	if s := Generate(title); s != "" {
		return prefix + "-" + s
	}
	return prefix
}
