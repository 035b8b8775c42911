package medical

// Policy constants for confidence scoring. Tunable, not load-bearing: the
// floor applies when retrieval found nothing, the fallback value when
// retrieval or generation was unavailable.
const (
	scoreFloorNoContext = 0.1
	fallbackConfidence  = 0.5

	// defaultSimilarity stands in when a retrieved document carries no
	// usable similarity score.
	defaultSimilarity = 0.5
)

// Score derives a confidence estimate from retrieved-document similarity:
// the arithmetic mean of the per-document scores, clamped to [0,1]. An
// empty result set scores the low-confidence floor.
func Score(docs []RetrievedDocument) float64 {
	if len(docs) == 0 {
		return scoreFloorNoContext
	}
	var sum float64
	for _, d := range docs {
		sum += d.Similarity
	}
	avg := sum / float64(len(docs))
	if avg < 0 {
		return 0
	}
	if avg > 1 {
		return 1
	}
	return avg
}
