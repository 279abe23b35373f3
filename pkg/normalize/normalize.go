// Package normalize converts free-text event names into comparable keys so
// cosmetic differences between providers ("Core CPI m/m" vs "CORE CPI M-O-M")
// do not create false non-matches. All functions are pure and total.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// trademarkReplacer strips glyphs some providers attach to index names.
var trademarkReplacer = strings.NewReplacer("™", "", "®", "", "©", "")

// repeatedHyphens collapses runs of hyphens left by sloppy feeds.
var repeatedHyphens = regexp.MustCompile(`-{2,}`)

// periodAliases canonicalizes period-over-period abbreviations so the
// month-over-month, quarter-over-quarter, and year-over-year spellings used
// by different providers tokenize identically.
var periodAliases = map[string]string{
	"m/m":   "mom",
	"m-o-m": "mom",
	"q/q":   "qoq",
	"q-o-q": "qoq",
	"y/y":   "yoy",
	"y-o-y": "yoy",
}

// Key normalizes a raw event name into its matching key: trimmed, lowercased,
// trademark glyphs stripped, whitespace and repeated hyphens collapsed, and
// period abbreviations canonicalized.
func Key(raw string) string {
	s := cases.Lower(language.English).String(strings.TrimSpace(raw))
	s = trademarkReplacer.Replace(s)
	s = repeatedHyphens.ReplaceAllString(s, "-")

	fields := strings.Fields(s)
	for i, f := range fields {
		if alias, ok := periodAliases[f]; ok {
			fields[i] = alias
		}
	}
	return strings.Join(fields, " ")
}

// Tokens splits a normalized key into its token set parts. Both whitespace
// and hyphens separate tokens, so "non-farm payrolls" and "non farm payrolls"
// compare equal.
func Tokens(key string) []string {
	return strings.FieldsFunc(key, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '-'
	})
}
