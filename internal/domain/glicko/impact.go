package glicko

import "math"

// ReduceImpact damps the weight of an opponent by its internal-scale
// deviation. The result is in (0,1] and reaches 1 at zero deviation.
func ReduceImpact(deviation float64) float64 {
	return 1 / math.Sqrt(1+3*deviation*deviation/(math.Pi*math.Pi))
}

// ExpectScore is the logistic win probability of a over b on the internal scale.
func ExpectScore(ratingA, ratingB, impact float64) float64 {
	return 1 / (1 + math.Exp(-impact*(ratingA-ratingB)))
}
