package testutil

import "math/rand"

// SeededNormals returns the normal deviates a seeded evaluation draws, in
// draw order. Each entry of sds is the standard deviation applied to the
// corresponding draw.
//
// A nonzero evaluation seed pins the deviate stream to a private
// rand.New(rand.NewSource(seed)) source, so tests can predict the exact
// values an IID component substitutes for unknown group keys.
func SeededNormals(seed int64, sds ...float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, len(sds))
	for i, sd := range sds {
		out[i] = rng.NormFloat64() * sd
	}
	return out
}
