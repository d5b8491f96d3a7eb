package summary

import (
	"strings"
	"testing"
)

func TestConfidenceScore(t *testing.T) {
	cases := []struct {
		name       string
		transcript string
		want       float64
	}{
		{"short", "brief note", 0.4},
		{"medium", strings.Repeat("a", 100), 0.7},
		{"long", strings.Repeat("a", 200), 0.9},
		{"empty", "", 0.4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := confidenceScore(tc.transcript); got != tc.want {
				t.Errorf("confidenceScore(len %d) = %v, want %v", len(tc.transcript), got, tc.want)
			}
		})
	}
}

func TestConfidenceScore_Deterministic(t *testing.T) {
	transcript := strings.Repeat("patient reports mild cough ", 10)
	first := confidenceScore(transcript)
	for n := 0; n < 5; n++ {
		if confidenceScore(transcript) != first {
			t.Fatal("score must be identical for identical input")
		}
	}
}
