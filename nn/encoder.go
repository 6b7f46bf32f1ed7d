package nn

// Encoder reads a sequence one element at a time into a recurrent state and
// emits a single output on demand.
//
// InputNext only advances the state. Output re-runs the full cell step (state
// and output) for the last input, starting from the state held before that
// input was applied, and passes the cell output through OutputLayer.
type Encoder struct {
	Cell        *RecurrentCell
	OutputLayer *Layer

	state     Vector
	prevState Vector
	lastInput Vector
}

// NewEncoder creates a zero-weighted encoder: in-sized inputs, hidden-sized state, out-sized output
func NewEncoder(in, hidden, out int, outputActivation ActivationType) *Encoder {
	return ComposeEncoder(NewRecurrentCell(in, hidden), NewLayer(hidden, out, outputActivation, false))
}

// ComposeEncoder joins an existing cell and output layer, checking their shapes
func ComposeEncoder(cell *RecurrentCell, output *Layer) *Encoder {
	sameLen("encoder cell → output", cell.StateSize(), output.InputSize())
	if output.Stateful() {
		shapePanic("encoder output layer must be stateless")
	}
	return &Encoder{
		Cell:        cell,
		OutputLayer: output,
		state:       NewVector(cell.StateSize()),
		prevState:   NewVector(cell.StateSize()),
		lastInput:   NewVector(cell.InputSize()),
	}
}

// Reset starts a new sequence from state, or from zero when state is nil
func (e *Encoder) Reset(state Vector) {
	if state == nil {
		e.state.Zero()
	} else {
		e.state.CopyFrom(state)
	}
	e.prevState.CopyFrom(e.state)
	e.lastInput.Zero()
}

// InputNext consumes one sequence element
func (e *Encoder) InputNext(input Vector) {
	e.prevState.CopyFrom(e.state)
	e.lastInput.CopyFrom(input)
	e.state.CopyFrom(e.Cell.CalcState(input, e.state))
}

// Output computes the encoder output for the sequence consumed so far.
// At least one InputNext must precede it.
func (e *Encoder) Output() Vector {
	_, y := e.Cell.Calc(e.lastInput, e.prevState)
	return e.OutputLayer.Calc(y, nil)
}

// State returns a copy of the carried state
func (e *Encoder) State() Vector {
	return e.state.Clone()
}

// Calc resets the encoder, consumes inputs and returns the output
func (e *Encoder) Calc(inputs []Vector, state Vector) Vector {
	e.Reset(state)
	for _, x := range inputs {
		e.InputNext(x)
	}
	return e.Output()
}

// VisitWeights walks Cell then OutputLayer
func (e *Encoder) VisitWeights(fn func(w *float32)) {
	e.Cell.VisitWeights(fn)
	e.OutputLayer.VisitWeights(fn)
}

// EncoderCache records a TrainableEncoder.Ready call
type EncoderCache struct {
	encodeCache
	Layer *ForwardCache
}

// NewEncoderCache allocates a cache for sequences of up to capacity steps;
// longer sequences grow it.
func NewEncoderCache(e *Encoder, capacity int) *EncoderCache {
	return &EncoderCache{
		encodeCache: newEncodeCache(e.Cell, capacity),
		Layer:       NewForwardCache(e.OutputLayer),
	}
}

// TrainableEncoder trains an Encoder with BPTT
type TrainableEncoder struct {
	encoder *Encoder
	cell    *TrainableRecurrentCell
	output  *TrainableLayer

	stateErr Vector
}

// NewTrainableEncoder takes ownership of e
func NewTrainableEncoder(e *Encoder) *TrainableEncoder {
	return &TrainableEncoder{
		encoder:  e,
		cell:     NewTrainableRecurrentCell(e.Cell),
		output:   NewTrainableLayer(e.OutputLayer),
		stateErr: NewVector(e.Cell.StateSize()),
	}
}

// Encoder returns the encoder being trained
func (t *TrainableEncoder) Encoder() *Encoder {
	return t.encoder
}

// Drop releases the encoder. The trainable wrapper must not be used afterwards.
func (t *TrainableEncoder) Drop() *Encoder {
	e := t.encoder
	t.encoder, t.cell, t.output = nil, nil, nil
	return e
}

// Ready encodes a non-empty sequence from state (nil means zero) and returns the
// output, which aliases cache.
func (t *TrainableEncoder) Ready(inputs []Vector, state Vector, cache *EncoderCache) Vector {
	y := readyEncode(t.cell, inputs, state, &cache.encodeCache)
	return t.output.Ready(y, nil, cache.Layer)
}

// Study accumulates the gradient for outputError and returns the error on the
// initial state. Per-step input errors are left in cache.InputErrors.
// cache must hold the sequence of the matching Ready.
func (t *TrainableEncoder) Study(outputError Vector, cache *EncoderCache) Vector {
	cellErr, _ := t.output.Study(outputError, nil, cache.Layer)
	return t.stateErr.CopyFrom(studyEncode(t.cell, cellErr, nil, &cache.encodeCache))
}

// Update applies and clears the accumulated gradient
func (t *TrainableEncoder) Update(rate float32) {
	t.cell.Update(rate)
	t.output.Update(rate)
}

// ClearGradients zeroes the accumulated gradient
func (t *TrainableEncoder) ClearGradients() {
	t.cell.ClearGradients()
	t.output.ClearGradients()
}

// VisitWeights walks Cell then OutputLayer
func (t *TrainableEncoder) VisitWeights(fn func(w *float32)) {
	t.cell.VisitWeights(fn)
	t.output.VisitWeights(fn)
}

// VisitGradients walks the accumulators of Cell then Output
func (t *TrainableEncoder) VisitGradients(fn func(g *float32)) {
	t.cell.VisitGradients(fn)
	t.output.VisitGradients(fn)
}
