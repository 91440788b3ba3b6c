// Package textnorm canonicalizes raw verse text before word-level comparison.
//
// A Profile is pure data: a variant-letter substitution table plus the range
// of combining marks to remove for one script. The pipeline order is fixed
// (substitute, strip marks, collapse whitespace, case-fold, tokenize) and
// every step is total; there is no failure mode for any input string.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// Profile describes script-specific canonicalization. The zero value performs
// no substitutions and strips nothing.
type Profile struct {
	Name string

	// Substitutions maps variant code points to their base letter,
	// e.g. Alef Wasla to plain Alif.
	Substitutions map[rune]rune

	// Marks holds the combining marks removed from the text. Marks carry
	// recitation detail, not word identity, so typed text without them must
	// compare equal to fully-marked source text.
	Marks *unicode.RangeTable
}

// Arabic matches common Quranic orthography: Alef Wasla folds into Alif and
// the harakat/tanwin block U+064B..U+0655 is removed. Code points outside
// that block (e.g. superscript Alef U+0670) are kept.
var Arabic = Profile{
	Name:          "arabic",
	Substitutions: map[rune]rune{'ٱ': 'ا'},
	Marks: &unicode.RangeTable{
		R16: []unicode.Range16{{Lo: 0x064B, Hi: 0x0655, Stride: 1}},
	},
}

// Plain suits scripts that need no canonicalization beyond case folding and
// whitespace collapsing.
var Plain = Profile{Name: "plain"}

// ByName resolves a profile from configuration. Unknown names fall back to
// Arabic, the default script of the shipped content.
func ByName(name string) Profile {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "plain":
		return Plain
	default:
		return Arabic
	}
}

// Clean applies the substitution table and removes combining marks. Case and
// whitespace are left untouched.
func (p Profile) Clean(raw string) string {
	var chain []transform.Transformer
	if len(p.Substitutions) > 0 {
		subs := p.Substitutions
		chain = append(chain, runes.Map(func(r rune) rune {
			if base, ok := subs[r]; ok {
				return base
			}
			return r
		}))
	}
	if p.Marks != nil && (len(p.Marks.R16) > 0 || len(p.Marks.R32) > 0) {
		chain = append(chain, runes.Remove(runes.In(p.Marks)))
	}
	if len(chain) == 0 {
		return raw
	}
	out, _, _ := transform.String(transform.Chain(chain...), raw)
	return out
}

// Tokens splits cleaned text into words, preserving case for display. Runs of
// whitespace and leading/trailing whitespace never affect the result.
func (p Profile) Tokens(raw string) []string {
	return strings.Fields(p.Clean(raw))
}

// Normalize returns the canonical lowercase token sequence compared during
// scoring. Empty and whitespace-only input yield an empty slice.
func (p Profile) Normalize(raw string) []string {
	return strings.Fields(strings.ToLower(p.Clean(raw)))
}
