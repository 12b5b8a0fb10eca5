package match

import "math"

// Distance models for comparing embedding vectors.
const (
	ModelCosine    = "cosine"
	ModelEuclidean = "euclidean"
)

// euclideanScale maps raw Euclidean distances into [0, 1]: a distance of 0
// scores 1, anything at or beyond the scale scores 0.
const euclideanScale = 0.3

// Cosine returns the cosine similarity of two vectors, or 0 when either has
// zero magnitude or the lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// InverseEuclidean converts the Euclidean distance between two vectors into
// a similarity in [0, 1].
func InverseEuclidean(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	dist := math.Sqrt(sum)
	return math.Max(0, 1-dist/euclideanScale)
}

// Similarity applies the configured distance model.
func Similarity(model string, a, b []float64) float64 {
	if model == ModelCosine {
		return Cosine(a, b)
	}
	return InverseEuclidean(a, b)
}
