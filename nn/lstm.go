package nn

import (
	"math"
	"math/rand"
)

// RecurrentCell is a gated memory cell with four stateful gates:
// main (m), forget (f), input (i) and output (o).
//
//	m = softsign(Wm·x + Sm·s + bm)
//	f = sigmoid(Wf·x + Sf·s + bf)
//	i = sigmoid(Wi·x + Si·s + bi)
//	o = sigmoid(Wo·x + So·s + bo)
//	s' = f ⊙ s + i ⊙ m
//	y  = o ⊙ softsign(s')
//
// The state s doubles as the recurrent input of every gate, so the cell has
// a single Out-sized state vector.
type RecurrentCell struct {
	Main       *Layer
	Forget     *Layer
	InputGate  *Layer
	OutputGate *Layer
}

// NewRecurrentCell creates a zero-weighted cell reading in inputs with an out-sized state
func NewRecurrentCell(in, out int) *RecurrentCell {
	return &RecurrentCell{
		Main:       NewLayer(in, out, ActivationSoftSign, true),
		Forget:     NewLayer(in, out, ActivationSigmoid, true),
		InputGate:  NewLayer(in, out, ActivationSigmoid, true),
		OutputGate: NewLayer(in, out, ActivationSigmoid, true),
	}
}

// InitRecurrentCell creates a cell with Xavier/Glorot initialization.
// The forget gate bias starts at 1.0 so the cell remembers by default.
func InitRecurrentCell(in, out int, rng *rand.Rand) *RecurrentCell {
	c := NewRecurrentCell(in, out)

	stdIH := math.Sqrt(2.0 / float64(in+out))
	stdHH := math.Sqrt(2.0 / float64(out+out))

	for _, g := range c.gates() {
		for i := range g.Weights.Input {
			g.Weights.Input[i] = float32(rng.NormFloat64() * stdIH)
		}
		for i := range g.Weights.State {
			g.Weights.State[i] = float32(rng.NormFloat64() * stdHH)
		}
	}
	for i := range c.Forget.Weights.Bias {
		c.Forget.Weights.Bias[i] = 1.0
	}
	return c
}

func (c *RecurrentCell) gates() [4]*Layer {
	return [4]*Layer{c.Main, c.Forget, c.InputGate, c.OutputGate}
}

// InputSize returns the number of inputs per step
func (c *RecurrentCell) InputSize() int { return c.Main.InputSize() }

// StateSize returns the size of the state and of the output
func (c *RecurrentCell) StateSize() int { return c.Main.OutputSize() }

// CalcState advances the state by one input without computing the output.
// A nil state reads as zero.
func (c *RecurrentCell) CalcState(input, state Vector) Vector {
	if state == nil {
		state = NewVector(c.StateSize())
	}
	m := c.Main.Calc(input, state)
	f := c.Forget.Calc(input, state)
	i := c.InputGate.Calc(input, state)

	next := NewVector(len(state))
	for k := range next {
		next[k] = f[k]*state[k] + i[k]*m[k]
	}
	return next
}

// Calc advances the state and computes the cell output. A nil state reads as zero.
func (c *RecurrentCell) Calc(input, state Vector) (next, output Vector) {
	if state == nil {
		state = NewVector(c.StateSize())
	}
	next = c.CalcState(input, state)
	o := c.OutputGate.Calc(input, state)

	output = NewVector(len(next))
	for k := range output {
		output[k] = o[k] * softSign(next[k])
	}
	return next, output
}

// VisitWeights walks Main, Forget, InputGate and OutputGate
func (c *RecurrentCell) VisitWeights(fn func(w *float32)) {
	for _, g := range c.gates() {
		g.VisitWeights(fn)
	}
}
