package grading_test

import (
	"errors"
	"math"
	"testing"

	"github.com/tasmee/tasmee/internal/grading"
)

func TestPercentage(t *testing.T) {
	cases := []struct {
		ratio float64
		want  float64
	}{
		{1.0, 100.0},
		{0.0, 0.0},
		{0.756, 75.6},
		{2.0 / 3.0, 66.7},
		{0.875, 87.5},
	}
	for _, c := range cases {
		if got := grading.Percentage(c.ratio); got != c.want {
			t.Fatalf("Percentage(%v) = %v, want %v", c.ratio, got, c.want)
		}
	}
}

func TestAggregate(t *testing.T) {
	got, err := grading.Aggregate([]float64{0.9, 0.8, 1.0})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got != 90.0 {
		t.Fatalf("Aggregate = %v, want 90.0", got)
	}
}

func TestAggregateSingle(t *testing.T) {
	got, err := grading.Aggregate([]float64{0.75})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if got != 75.0 {
		t.Fatalf("Aggregate = %v, want 75.0", got)
	}
}

func TestAggregateEmpty(t *testing.T) {
	_, err := grading.Aggregate(nil)
	if !errors.Is(err, grading.ErrNoRatios) {
		t.Fatalf("err = %v, want ErrNoRatios", err)
	}
}

func TestGradeForBands(t *testing.T) {
	cases := []struct {
		pct  float64
		want grading.Grade
	}{
		{100, grading.GradeAPlus},
		{97, grading.GradeAPlus},
		{96.9, grading.GradeA},
		{93, grading.GradeA},
		{92.999, grading.GradeAMinus},
		{90, grading.GradeAMinus},
		{89.9, grading.GradeBPlus},
		{87, grading.GradeBPlus},
		{83, grading.GradeB},
		{80, grading.GradeBMinus},
		{79.9, grading.GradeCPlus},
		{77, grading.GradeCPlus},
		{73, grading.GradeC},
		{70, grading.GradeCMinus},
		{69.9, grading.GradeD},
		{60, grading.GradeD},
		{59.9, grading.GradeF},
		{0, grading.GradeF},
	}
	for _, c := range cases {
		if got := grading.GradeFor(c.pct); got != c.want {
			t.Fatalf("GradeFor(%v) = %q, want %q", c.pct, got, c.want)
		}
	}
}

func TestGradeForClampsOutOfRange(t *testing.T) {
	if got := grading.GradeFor(-5); got != grading.GradeF {
		t.Fatalf("GradeFor(-5) = %q, want F", got)
	}
	if got := grading.GradeFor(120); got != grading.GradeAPlus {
		t.Fatalf("GradeFor(120) = %q, want A+", got)
	}
	if got := grading.GradeFor(math.NaN()); got != grading.GradeF {
		t.Fatalf("GradeFor(NaN) = %q, want F", got)
	}
}

func TestGradeColorClass(t *testing.T) {
	cases := []struct {
		g    grading.Grade
		want string
	}{
		{grading.GradeAPlus, "success"},
		{grading.GradeAMinus, "success"},
		{grading.GradeBPlus, "primary"},
		{grading.GradeBMinus, "primary"},
		{grading.GradeC, "warning"},
		{grading.GradeD, "danger"},
		{grading.GradeF, "danger"},
	}
	for _, c := range cases {
		if got := grading.GradeColorClass(c.g); got != c.want {
			t.Fatalf("GradeColorClass(%q) = %q, want %q", c.g, got, c.want)
		}
	}
}
