// Package match decides whether a catalog hit is the song that was asked for.
//
// Everything here is pure: no I/O, no shared state.
package match

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/samber/lo"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Mode selects how tolerant the predicates are.
type Mode int

const (
	// Loose: prefix either way, any artist overlap.
	Loose Mode = iota
	// Strict: substring either way, artist sets of equal size.
	Strict
)

func (m Mode) String() string {
	if m == Strict {
		return "strict"
	}
	return "loose"
}

// Normalize lower-cases s, folds diacritics and compatibility forms (ligatures,
// circled and roman numerals) and drops punctuation.
// Loose keeps spaces, Strict drops them as well.
func Normalize(s string, mode Mode) string {
	// transform.Chain carries state, so build one per call.
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(fold, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case mode == Loose && unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

// TitleMatches reports whether two titles denote the same song.
func TitleMatches(a, b string, mode Mode) bool {
	return related(Normalize(a, mode), Normalize(b, mode), mode)
}

// ArtistSetMatches compares the requested artist names against a candidate's credits.
//
// Loose accepts a candidate with no usable credits. Strict rejects any difference
// in the number of distinct artists.
func ArtistSetMatches(requested, candidate []string, mode Mode) bool {
	req := normalizeSet(requested, mode)
	cand := normalizeSet(candidate, mode)

	if mode == Loose {
		// credits made only of punctuation count as none
		if len(cand) == 0 {
			return true
		}
		for _, r := range req {
			for _, c := range cand {
				if related(r, c, Loose) {
					return true
				}
			}
		}
		return false
	}

	if len(req) != len(cand) {
		return false
	}
	return lo.EveryBy(req, func(r string) bool {
		return lo.SomeBy(cand, func(c string) bool { return related(r, c, Strict) })
	})
}

// SplitArtists turns a raw "A, B" parameter into names. Percent escapes are
// decoded first since clients sometimes double-encode the separator.
func SplitArtists(raw string) []string {
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	parts := lo.Map(strings.Split(raw, ","), func(p string, _ int) string { return strings.TrimSpace(p) })
	return lo.Compact(parts)
}

func related(a, b string, mode Mode) bool {
	if a == "" || b == "" {
		return false
	}
	if mode == Strict {
		return strings.Contains(a, b) || strings.Contains(b, a)
	}
	return strings.HasPrefix(a, b) || strings.HasPrefix(b, a)
}

func normalizeSet(names []string, mode Mode) []string {
	out := lo.Map(names, func(n string, _ int) string { return Normalize(n, mode) })
	return lo.Uniq(lo.Compact(out))
}
