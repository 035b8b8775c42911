package medical

import (
	"math"
	"testing"
)

func TestScoreEmptyDocs(t *testing.T) {
	if got := Score(nil); got != 0.1 {
		t.Fatalf("Score(nil) = %v, want 0.1", got)
	}
	if got := Score([]RetrievedDocument{}); got != 0.1 {
		t.Fatalf("Score(empty) = %v, want 0.1", got)
	}
}

func TestScoreAveragesSimilarity(t *testing.T) {
	docs := []RetrievedDocument{
		{Similarity: 0.9},
		{Similarity: 0.7},
		{Similarity: 0.8},
	}
	got := Score(docs)
	if math.Abs(got-0.8) > 1e-9 {
		t.Fatalf("Score = %v, want 0.8", got)
	}
}

func TestScoreClampsToUnitInterval(t *testing.T) {
	if got := Score([]RetrievedDocument{{Similarity: 1.7}}); got != 1.0 {
		t.Fatalf("Score above range = %v, want 1.0", got)
	}
	if got := Score([]RetrievedDocument{{Similarity: -0.3}}); got != 0.0 {
		t.Fatalf("Score below range = %v, want 0.0", got)
	}
}

func TestScoreAlwaysInRange(t *testing.T) {
	for _, docs := range [][]RetrievedDocument{
		nil,
		{{Similarity: 0.5}},
		{{Similarity: 0}, {Similarity: 1}},
		{{Similarity: 2.5}, {Similarity: -1}},
	} {
		got := Score(docs)
		if got < 0 || got > 1 {
			t.Fatalf("Score(%v) = %v out of [0,1]", docs, got)
		}
	}
}
