package nn

import "math/rand"

// CountParameters returns the number of scalar weights v visits
func CountParameters(v WeightVisitor) int {
	n := 0
	v.VisitWeights(func(*float32) { n++ })
	return n
}

// Randomize sets every weight to a uniform value in [-scale, scale).
// rng is only used here; the rest of the engine is deterministic.
func Randomize(v WeightVisitor, rng *rand.Rand, scale float32) {
	v.VisitWeights(func(w *float32) {
		*w = (rng.Float32()*2 - 1) * scale
	})
}

// GatherWeights appends every weight of v to dst in visiting order
func GatherWeights(dst []float32, v WeightVisitor) []float32 {
	v.VisitWeights(func(w *float32) { dst = append(dst, *w) })
	return dst
}

// ScatterWeights overwrites the weights of v from src in visiting order.
// src must hold at least CountParameters(v) values.
func ScatterWeights(v WeightVisitor, src []float32) {
	i := 0
	v.VisitWeights(func(w *float32) {
		*w = src[i]
		i++
	})
}

// CopyWeights copies every weight of src into dst. Both must have the same shape.
func CopyWeights(dst, src WeightVisitor) {
	ScatterWeights(dst, GatherWeights(nil, src))
}

// GatherGradients appends the accumulated gradient of v to dst in visiting order
func GatherGradients(dst []float32, v Visitable) []float32 {
	v.VisitGradients(func(g *float32) { dst = append(dst, *g) })
	return dst
}

// ScatterGradients overwrites the accumulated gradient of v from src in visiting order
func ScatterGradients(v Visitable, src []float32) {
	i := 0
	v.VisitGradients(func(g *float32) {
		*g = src[i]
		i++
	})
}

// AddGradients adds the accumulated gradient of v into dst positionally
func AddGradients(dst []float32, v Visitable) {
	i := 0
	v.VisitGradients(func(g *float32) {
		dst[i] += *g
		i++
	})
}
