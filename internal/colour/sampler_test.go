package colour

import (
	"math/rand/v2"
	"testing"
)

func newTestRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func TestSamplePassThrough(t *testing.T) {
	points := gradientSamples(100)

	tests := []struct {
		name  string
		limit int
	}{
		{name: "below cap", limit: 150},
		{name: "at cap", limit: 100},
		{name: "disabled", limit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sample(points, tt.limit, rand.NewPCG(1, 2))
			if len(got) != len(points) {
				t.Fatalf("Sample() returned %d points, want %d", len(got), len(points))
			}
			if &got[0] != &points[0] {
				t.Error("Expected input slice to be returned unchanged")
			}
		})
	}
}

func TestSampleWithoutReplacement(t *testing.T) {
	// Every point is unique so duplicates in the output would mean replacement.
	points := make([]RGB, 4096)
	for i := range points {
		points[i] = RGB{R: uint8(i >> 8), G: uint8(i), B: 7}
	}

	got := Sample(points, 1000, rand.NewPCG(42, 1))

	if len(got) != 1000 {
		t.Fatalf("Sample() returned %d points, want 1000", len(got))
	}

	seen := make(map[RGB]bool, len(got))
	prev := -1
	for _, p := range got {
		if seen[p] {
			t.Fatalf("point %v sampled twice", p)
		}
		seen[p] = true

		idx := int(p.R)<<8 | int(p.G)
		if idx <= prev {
			t.Fatalf("sample out of original order: index %d after %d", idx, prev)
		}
		prev = idx
	}
}

func TestSampleDeterministic(t *testing.T) {
	points := gradientSamples(5000)

	a := Sample(points, 500, rand.NewPCG(9, 9))
	b := Sample(points, 500, rand.NewPCG(9, 9))
	c := Sample(points, 500, rand.NewPCG(10, 9))

	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed differs at %d: %v vs %v", i, a[i], b[i])
		}
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Error("different seeds produced identical samples")
	}
}
