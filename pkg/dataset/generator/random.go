package generator

import (
	"math/rand"

	"github.com/brianvoe/gofakeit/v6"
)

// weighted picks values from a fixed categorical distribution
type weighted[T any] struct {
	values     []T
	cumulative []float64
}

func newWeighted[T any](values []T, weights []float64) weighted[T] {
	if len(values) != len(weights) {
		panic("generator: values and weights differ in length")
	}

	cumulative := make([]float64, len(weights))
	var total float64
	for i, w := range weights {
		total += w
		cumulative[i] = total
	}
	// Normalise so the last bucket always closes at 1
	for i := range cumulative {
		cumulative[i] /= total
	}

	return weighted[T]{values: values, cumulative: cumulative}
}

// pick consumes exactly one draw from r
func (w weighted[T]) pick(r *rand.Rand) T {
	u := r.Float64()
	for i, c := range w.cumulative {
		if u < c {
			return w.values[i]
		}
	}
	return w.values[len(w.values)-1]
}

// pickOne draws uniformly from values
func pickOne[T any](r *rand.Rand, values []T) T {
	return values[r.Intn(len(values))]
}

// uniform draws from [low, high)
func uniform(r *rand.Rand, low, high float64) float64 {
	return low + (high-low)*r.Float64()
}

// samplePositions selects k distinct row positions out of n
func samplePositions(f *gofakeit.Faker, n, k int) []int {
	if k > n {
		k = n
	}
	if k <= 0 {
		return nil
	}

	positions := make([]int, n)
	for i := range positions {
		positions[i] = i
	}
	// Partial Fisher-Yates: the first k slots end up as the sample
	for i := 0; i < k; i++ {
		j := i + f.Number(0, n-1-i)
		positions[i], positions[j] = positions[j], positions[i]
	}
	return positions[:k]
}
