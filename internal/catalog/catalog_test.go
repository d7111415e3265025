package catalog

import "testing"

func TestCandidateYear(t *testing.T) {
	tests := []struct {
		date string
		want int
	}{
		{"2010-07-16", 2010},
		{"1999", 1999},
		{"", 0},
		{"20", 0},
		{"abcd-01-01", 0},
	}
	for _, tc := range tests {
		if got := (Candidate{ReleaseDate: tc.date}).Year(); got != tc.want {
			t.Fatalf("Year(%q) = %d, want %d", tc.date, got, tc.want)
		}
	}
}
