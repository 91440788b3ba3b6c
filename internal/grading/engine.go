// Package grading turns a memorized-verse attempt into a similarity ratio, a
// word-level diff, and ultimately a letter grade. All entry points are pure
// functions over their arguments; the package holds no mutable state and is
// safe for concurrent use from request handlers.
package grading

import (
	"strings"

	"github.com/tasmee/tasmee/internal/textnorm"
)

// Engine scores typed attempts against expected verse text using one
// normalization profile.
type Engine struct {
	profile textnorm.Profile
}

// Option configures an Engine.
type Option func(*Engine)

// WithProfile selects the normalization profile (default: textnorm.Arabic).
func WithProfile(p textnorm.Profile) Option {
	return func(e *Engine) { e.profile = p }
}

// NewEngine builds an Engine with the default Arabic profile unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{profile: textnorm.Arabic}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Alignment pairs the similarity ratio with the opcodes that produced it,
// plus the display-cased token sequences the opcode indices refer to.
type Alignment struct {
	Ratio    float64
	Opcodes  []Opcode
	Expected []string
	Actual   []string
}

// Score returns the word-level similarity of actual against expected in
// [0,1]. An empty expected text is trivially satisfied and scores 1.0 no
// matter what was typed; an empty attempt against non-empty expected text
// scores 0.0.
func (e *Engine) Score(expected, actual string) float64 {
	a := e.profile.Normalize(expected)
	if len(a) == 0 {
		return 1.0
	}
	b := e.profile.Normalize(actual)
	return newMatcher(a, b).Ratio()
}

// Align normalizes both texts and aligns them word by word. Matching runs on
// case-folded tokens while the returned token sequences keep display case.
func (e *Engine) Align(expected, actual string) Alignment {
	dispA := e.profile.Tokens(expected)
	dispB := e.profile.Tokens(actual)
	m := newMatcher(foldTokens(dispA), foldTokens(dispB))
	al := Alignment{Opcodes: m.Opcodes(), Expected: dispA, Actual: dispB}
	if len(dispA) == 0 {
		al.Ratio = 1.0
	} else {
		al.Ratio = m.Ratio()
	}
	return al
}

// DiffClass labels a diff segment for downstream styling.
type DiffClass string

const (
	DiffOK      DiffClass = "ok"      // typed correctly
	DiffMissing DiffClass = "missing" // expected but not typed
	DiffExtra   DiffClass = "extra"   // typed but not expected
)

// DiffSegment is one classified token in reading order.
type DiffSegment struct {
	Token string    `json:"token"`
	Class DiffClass `json:"class"`
}

// Diff classifies every token of both texts left to right: matched source
// words come out ok, source words absent from the attempt missing, typed
// words absent from the source extra. A replaced region lists all its missing
// source words before its extra typed words.
func (e *Engine) Diff(expected, actual string) []DiffSegment {
	al := e.Align(expected, actual)
	segs := make([]DiffSegment, 0, len(al.Expected)+len(al.Actual))
	for _, op := range al.Opcodes {
		switch op.Tag {
		case OpEqual:
			for _, tok := range al.Expected[op.I1:op.I2] {
				segs = append(segs, DiffSegment{Token: tok, Class: DiffOK})
			}
		case OpReplace:
			for _, tok := range al.Expected[op.I1:op.I2] {
				segs = append(segs, DiffSegment{Token: tok, Class: DiffMissing})
			}
			for _, tok := range al.Actual[op.J1:op.J2] {
				segs = append(segs, DiffSegment{Token: tok, Class: DiffExtra})
			}
		case OpDelete:
			for _, tok := range al.Expected[op.I1:op.I2] {
				segs = append(segs, DiffSegment{Token: tok, Class: DiffMissing})
			}
		case OpInsert:
			for _, tok := range al.Actual[op.J1:op.J2] {
				segs = append(segs, DiffSegment{Token: tok, Class: DiffExtra})
			}
		}
	}
	return segs
}

// foldTokens lowercases per token. Case folding never adds or removes
// whitespace, so the folded sequence lines up index-for-index with the
// display tokens.
func foldTokens(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = strings.ToLower(t)
	}
	return out
}
