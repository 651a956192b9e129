package index

import "math"

// Dot computes the dot product of two vectors of equal length. For unit-norm
// vectors this is their cosine similarity.
func Dot(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrVectorLengthMismatch
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot, nil
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// NormalizeL2 returns a new vector normalized to unit L2 norm. A zero vector
// is returned as a zero copy; callers check Norm when that matters.
func NormalizeL2(v []float32) []float32 {
	n := Norm(v)
	out := make([]float32, len(v))
	if n == 0 {
		copy(out, v)
		return out
	}
	for i := range v {
		out[i] = float32(float64(v[i]) / n)
	}
	return out
}
