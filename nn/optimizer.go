package nn

import (
	"github.com/chewxy/math32"
)

// ============================================================================
// Per-unit Adam
// ============================================================================
//
// The first moment is kept per parameter, the second moment is a single scalar
// per output unit: the decayed squared norm of that unit's gradient row (bias,
// input weights and state weights together). Every parameter of a unit therefore
// shares one effective learning rate. There is no bias correction.

const (
	AdamBeta1   float32 = 0.9
	AdamBeta2   float32 = 0.999
	AdamEpsilon float32 = 1e-8
)

// Update applies the accumulated gradient with the per-unit Adam rule and
// clears the accumulator.
func (t *TrainableLayer) Update(rate float32) {
	wb := &t.layer.Weights
	g := &t.total
	m := &t.moment1

	for o := 0; o < wb.Out; o++ {
		s := g.unitSquares(o)
		t.moment2[o] = AdamBeta2*t.moment2[o] + (1-AdamBeta2)*s
		step := rate / (math32.Sqrt(t.moment2[o]) + AdamEpsilon)

		m.Bias[o] = AdamBeta1*m.Bias[o] + (1-AdamBeta1)*g.Bias[o]
		wb.Bias[o] -= step * m.Bias[o]

		lo, hi := o*wb.In, (o+1)*wb.In
		updateRow(wb.Input[lo:hi], m.Input[lo:hi], g.Input[lo:hi], step)

		if wb.State != nil {
			lo, hi = o*wb.Out, (o+1)*wb.Out
			updateRow(wb.State[lo:hi], m.State[lo:hi], g.State[lo:hi], step)
		}
	}

	g.Zero()
}

func updateRow(w, m, g []float32, step float32) {
	for j := range w {
		m[j] = AdamBeta1*m[j] + (1-AdamBeta1)*g[j]
		w[j] -= step * m[j]
	}
}

// ResetMoments forgets the optimizer history
func (t *TrainableLayer) ResetMoments() {
	t.moment1.Zero()
	for i := range t.moment2 {
		t.moment2[i] = 0
	}
}
