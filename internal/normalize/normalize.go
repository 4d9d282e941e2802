// Package normalize provides canonical forms for entity names.
//
// Names arrive from two worlds that never quite agree: CSV cells typed by
// humans and row labels rendered by the LMS. The same assignment shows up
// as "Quiz 1 - Key", "Quiz 1 – Key", or "Quiz 1 — Key 🎉" depending on
// which editor touched it last. This package centralizes the folding rules
// so the resolver and the duplicate checks cannot drift apart:
//   - Fold: the canonical display form (dashes, commas, emoji, whitespace).
//   - Key: the comparison key (Fold plus Unicode case folding).
//   - SlugKey: the storage key (gosimple/slug), used for duplicate
//     detection and cache filenames.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	goslug "github.com/gosimple/slug"
	"golang.org/x/text/cases"
)

var (
	// Hyphen-minus, en dash, em dash, and minus sign. Copy-pasted names
	// carry all four interchangeably.
	dashRe = regexp.MustCompile(`[-\x{2013}\x{2014}\x{2212}]`)

	commaRe = regexp.MustCompile(`\s*,\s*`)
	spaceRe = regexp.MustCompile(`\s+`)

	quoteReplacer = strings.NewReplacer(
		`"`, "", "'", "",
		"‘", "", "’", "", // curly single
		"“", "", "”", "", // curly double
	)
)

// Fold returns the canonical form of a name. The transform order is fixed
// and idempotent: dash variants become spaces, comma spacing becomes ", ",
// emoji and pictographs are stripped, and whitespace runs collapse. Case
// is preserved; fold it at comparison time with Key.
func Fold(s string) string {
	s = dashRe.ReplaceAllString(s, " ")
	s = commaRe.ReplaceAllString(s, ", ")
	s = stripSymbols(s)
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Key returns the comparison key for a name: the canonical form under
// Unicode case folding. Two names refer to the same row iff their Keys are
// equal.
func Key(s string) string {
	return cases.Fold().String(Fold(s))
}

// StripQuotes removes straight and curly quote characters. Quoted titles
// ("Essay" Draft) often lose their quotes when rendered.
func StripQuotes(s string) string {
	return quoteReplacer.Replace(s)
}

// StripFiller removes the first filler token that appears as a standalone
// word (case-insensitive) and reports whether anything was removed. Filler
// tokens are suffixes like "key" that instructors append to CSV names but
// not to the rows themselves.
func StripFiller(s string, tokens []string) (string, bool) {
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\s+` + regexp.QuoteMeta(tok) + `\b`)
		if err != nil {
			continue
		}
		if out := re.ReplaceAllString(s, ""); out != s {
			return strings.TrimSpace(out), true
		}
	}
	return s, false
}

// SlugKey returns the slug form of a name, suitable as a map key or a
// filename component. Distinct names can collide here; that collision is
// exactly what the duplicate check reports.
func SlugKey(s string) string {
	return goslug.Make(Fold(s))
}

// stripSymbols drops emoji and other pictographic runes. The LMS renders
// them in row labels but CSV authors almost never type them.
func stripSymbols(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.Is(unicode.So, r): // symbol, other: emoji, dingbats, arrows
			return -1
		case r == '︎' || r == '️': // variation selectors
			return -1
		case r == '‍': // zero-width joiner
			return -1
		}
		return r
	}, s)
}
