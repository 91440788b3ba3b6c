package grading

import (
	"errors"
	"math"
	"strings"
)

// Grade is the letter grade shown on a session report. The minus variants use
// U+2212, matching how the grades are rendered.
type Grade string

const (
	GradeAPlus  Grade = "A+"
	GradeA      Grade = "A"
	GradeAMinus Grade = "A−"
	GradeBPlus  Grade = "B+"
	GradeB      Grade = "B"
	GradeBMinus Grade = "B−"
	GradeCPlus  Grade = "C+"
	GradeC      Grade = "C"
	GradeCMinus Grade = "C−"
	GradeD      Grade = "D"
	GradeF      Grade = "F"
)

// ErrNoRatios reports an Aggregate call over zero attempts. An empty session
// has no meaningful average, so the caller must guarantee at least one ratio.
var ErrNoRatios = errors.New("grading: no ratios to aggregate")

// gradeBands is checked top-down; each entry is an inclusive lower bound.
var gradeBands = []struct {
	min   float64
	grade Grade
}{
	{97, GradeAPlus},
	{93, GradeA},
	{90, GradeAMinus},
	{87, GradeBPlus},
	{83, GradeB},
	{80, GradeBMinus},
	{77, GradeCPlus},
	{73, GradeC},
	{70, GradeCMinus},
	{60, GradeD},
}

// Percentage converts a similarity ratio into a 0-100 score rounded to one
// decimal place.
func Percentage(ratio float64) float64 {
	return round1(ratio * 100)
}

// Aggregate averages per-verse similarity ratios into a session percentage,
// rounded to one decimal place. Returns ErrNoRatios for an empty slice rather
// than a silent 0 or NaN.
func Aggregate(ratios []float64) (float64, error) {
	if len(ratios) == 0 {
		return 0, ErrNoRatios
	}
	sum := 0.0
	for _, r := range ratios {
		sum += r
	}
	return round1(sum / float64(len(ratios)) * 100), nil
}

// GradeFor maps a percentage to its letter grade. Bounds are inclusive and
// checked highest-first: 93.0 is an A, 92.999 an A−. Input outside [0,100]
// is clamped first (above 100 to 100, below 0 and NaN to 0), keeping the
// function total.
func GradeFor(pct float64) Grade {
	if math.IsNaN(pct) || pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	for _, b := range gradeBands {
		if pct >= b.min {
			return b.grade
		}
	}
	return GradeF
}

// GradeColorClass buckets a grade into the styling category used by the
// report view: success for the A range, primary for B, warning for C, danger
// for everything below.
func GradeColorClass(g Grade) string {
	switch {
	case strings.HasPrefix(string(g), "A"):
		return "success"
	case strings.HasPrefix(string(g), "B"):
		return "primary"
	case strings.HasPrefix(string(g), "C"):
		return "warning"
	default:
		return "danger"
	}
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
