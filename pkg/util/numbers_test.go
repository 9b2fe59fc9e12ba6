package util

import (
	"math"
	"testing"
)

func TestCleanFloat(t *testing.T) {
	for _, x := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if got := CleanFloat(x); got != 0 {
			t.Fatalf("CleanFloat(%v) = %v", x, got)
		}
	}
	if got := CleanFloat(1.5); got != 1.5 {
		t.Fatalf("finite value changed: %v", got)
	}
}

func TestRound(t *testing.T) {
	cases := []struct {
		in     float64
		places int
		want   float64
	}{
		{0.666666, 2, 0.67},
		{123.456, 2, 123.46},
		{0.0123456, 4, 0.0123},
		{-1.005, 0, -1},
		{1.005, 2, 1.01},
		{math.NaN(), 2, 0},
	}
	for _, c := range cases {
		if got := Round(c.in, c.places); got != c.want {
			t.Fatalf("Round(%v, %d) = %v, want %v", c.in, c.places, got, c.want)
		}
	}
}

func TestNormalizeSymbol(t *testing.T) {
	if got := NormalizeSymbol("  aapl "); got != "AAPL" {
		t.Fatalf("unexpected symbol %q", got)
	}
}
