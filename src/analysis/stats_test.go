package analysis

import (
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	if got := Mean(nil); got != 0 {
		t.Fatalf("mean of empty = %v want 0", got)
	}
	if got := Mean([]float64{2, 4, 6}); !almostEqual(got, 4) {
		t.Fatalf("mean = %v want 4", got)
	}
}

func TestStandardError(t *testing.T) {
	if got := StandardError(nil); got != 0 {
		t.Fatalf("se of empty = %v want 0", got)
	}
	if got := StandardError([]float64{42}); got != 0 {
		t.Fatalf("se of single = %v want 0", got)
	}
	// variance of {2,4,6} with n-1 divisor is 4, sd 2, se 2/sqrt(3).
	want := 2.0 / math.Sqrt(3.0)
	if got := StandardError([]float64{2, 4, 6}); math.Abs(got-want) > 1e-9 {
		t.Fatalf("se = %v want %v", got, want)
	}
}

func TestRatioPolicy(t *testing.T) {
	cases := []struct {
		nuclear, cytoplasm, want float64
	}{
		{5, 0, 0},
		{0, 0, 0},
		{10, 4, 2.5},
		{0, 4, 0},
	}
	for _, c := range cases {
		if got := Ratio(c.nuclear, c.cytoplasm); !almostEqual(got, c.want) {
			t.Fatalf("ratio(%v, %v) = %v want %v", c.nuclear, c.cytoplasm, got, c.want)
		}
	}
}
