package nn

// Decoder emits a sequence from one fixed input: every step re-runs the cell
// with the same input and the evolving state, then maps the cell output
// through OutputLayer.
type Decoder struct {
	Cell        *RecurrentCell
	OutputLayer *Layer

	input Vector
	state Vector
}

// NewDecoder creates a zero-weighted decoder: in-sized input, hidden-sized state, out-sized outputs
func NewDecoder(in, hidden, out int, outputActivation ActivationType) *Decoder {
	return ComposeDecoder(NewRecurrentCell(in, hidden), NewLayer(hidden, out, outputActivation, false))
}

// ComposeDecoder joins an existing cell and output layer, checking their shapes
func ComposeDecoder(cell *RecurrentCell, output *Layer) *Decoder {
	sameLen("decoder cell → output", cell.StateSize(), output.InputSize())
	if output.Stateful() {
		shapePanic("decoder output layer must be stateless")
	}
	return &Decoder{
		Cell:        cell,
		OutputLayer: output,
		input:       NewVector(cell.InputSize()),
		state:       NewVector(cell.StateSize()),
	}
}

// Reset fixes the input and the initial state (nil means zero) of a new sequence
func (d *Decoder) Reset(input, state Vector) {
	d.input.CopyFrom(input)
	if state == nil {
		d.state.Zero()
	} else {
		d.state.CopyFrom(state)
	}
}

// OutputNext emits the next sequence element
func (d *Decoder) OutputNext() Vector {
	next, y := d.Cell.Calc(d.input, d.state)
	d.state.CopyFrom(next)
	return d.OutputLayer.Calc(y, nil)
}

// State returns a copy of the carried state
func (d *Decoder) State() Vector {
	return d.state.Clone()
}

// Calc resets the decoder and emits length elements
func (d *Decoder) Calc(input, state Vector, length int) []Vector {
	d.Reset(input, state)
	out := make([]Vector, length)
	for i := range out {
		out[i] = d.OutputNext()
	}
	return out
}

// VisitWeights walks Cell then OutputLayer
func (d *Decoder) VisitWeights(fn func(w *float32)) {
	d.Cell.VisitWeights(fn)
	d.OutputLayer.VisitWeights(fn)
}

// TrainableDecoder trains a Decoder with BPTT
type TrainableDecoder struct {
	decoder *Decoder
	cell    *TrainableRecurrentCell
	output  *TrainableLayer

	inputErr Vector
	stateErr Vector
}

// NewTrainableDecoder takes ownership of d
func NewTrainableDecoder(d *Decoder) *TrainableDecoder {
	return &TrainableDecoder{
		decoder:  d,
		cell:     NewTrainableRecurrentCell(d.Cell),
		output:   NewTrainableLayer(d.OutputLayer),
		inputErr: NewVector(d.Cell.InputSize()),
		stateErr: NewVector(d.Cell.StateSize()),
	}
}

// Decoder returns the decoder being trained
func (t *TrainableDecoder) Decoder() *Decoder {
	return t.decoder
}

// Drop releases the decoder. The trainable wrapper must not be used afterwards.
func (t *TrainableDecoder) Drop() *Decoder {
	d := t.decoder
	t.decoder, t.cell, t.output = nil, nil, nil
	return d
}

// Ready emits length elements from input and state (nil means zero).
// The returned vectors alias cache.
func (t *TrainableDecoder) Ready(input, state Vector, length int, cache *DecoderCache) []Vector {
	return readyDecode(t.cell, t.output, input, state, length, cache)
}

// Study accumulates the gradient for one error per emitted element and returns
// the summed input error and the initial state error, both owned by t.
// len(outputErrors) must equal the length of the matching Ready.
func (t *TrainableDecoder) Study(outputErrors []Vector, cache *DecoderCache) (inputError, stateError Vector) {
	ds := studyDecode(t.cell, t.output, outputErrors, cache, t.inputErr)
	t.stateErr.CopyFrom(ds)
	return t.inputErr, t.stateErr
}

// Update applies and clears the accumulated gradient
func (t *TrainableDecoder) Update(rate float32) {
	t.cell.Update(rate)
	t.output.Update(rate)
}

// ClearGradients zeroes the accumulated gradient
func (t *TrainableDecoder) ClearGradients() {
	t.cell.ClearGradients()
	t.output.ClearGradients()
}

// VisitWeights walks Cell then OutputLayer
func (t *TrainableDecoder) VisitWeights(fn func(w *float32)) {
	t.cell.VisitWeights(fn)
	t.output.VisitWeights(fn)
}

// VisitGradients walks the accumulators of Cell then OutputLayer
func (t *TrainableDecoder) VisitGradients(fn func(g *float32)) {
	t.cell.VisitGradients(fn)
	t.output.VisitGradients(fn)
}
