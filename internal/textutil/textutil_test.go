package textutil

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "Inception", "Inception", 1.0},
		{"case and spacing", "  the  MATRIX ", "The Matrix", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "Alien", "", 0.0},
		{"one edit", "Alien", "Aliens", 1.0 - 1.0/6.0},
		{"disjoint", "abc", "xyz", 0.0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Similarity(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("Similarity(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestSimilaritySymmetric(t *testing.T) {
	pairs := [][2]string{{"Breaking Bad", "Breaking"}, {"Amélie", "Amelie"}, {"Se7en", "Seven"}}
	for _, pair := range pairs {
		if Similarity(pair[0], pair[1]) != Similarity(pair[1], pair[0]) {
			t.Fatalf("similarity not symmetric for %q / %q", pair[0], pair[1])
		}
	}
}

func TestSanitizeDisplayName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mission: Impossible", "Mission Impossible"},
		{`What If...? <Special> "Cut"`, "What If... Special Cut"},
		{"  AC/DC   Live\t at  River Plate ", "ACDC Live at River Plate"},
		{"a|b*c\\d", "abcd"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := SanitizeDisplayName(tc.in); got != tc.want {
			t.Fatalf("SanitizeDisplayName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
