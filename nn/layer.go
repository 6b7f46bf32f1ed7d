package nn

// Layer is a WeightBlock followed by an elementwise activation
type Layer struct {
	Weights    WeightBlock
	Activation ActivationType
}

// NewLayer creates a zero-weighted layer with out units reading in inputs.
// A stateful layer also reads an out-sized recurrent state.
func NewLayer(in, out int, activation ActivationType, stateful bool) *Layer {
	return &Layer{
		Weights:    NewWeightBlock(out, in, stateful),
		Activation: activation,
	}
}

// InputSize returns the number of inputs
func (l *Layer) InputSize() int { return l.Weights.In }

// OutputSize returns the number of outputs
func (l *Layer) OutputSize() int { return l.Weights.Out }

// Stateful reports whether the layer reads recurrent state
func (l *Layer) Stateful() bool { return l.Weights.Stateful() }

// CalcInto evaluates the layer into dst. state is ignored by stateless layers
// and nil reads as zero.
func (l *Layer) CalcInto(dst, input, state Vector) Vector {
	l.Weights.Forward(dst, input, state)
	for i, v := range dst {
		dst[i] = activateCPU(v, l.Activation)
	}
	return dst
}

// Calc evaluates the layer into a new vector
func (l *Layer) Calc(input, state Vector) Vector {
	return l.CalcInto(NewVector(l.Weights.Out), input, state)
}

// VisitWeights walks the layer's weight block
func (l *Layer) VisitWeights(fn func(w *float32)) {
	l.Weights.VisitWeights(fn)
}

// ForwardCache records what one Ready call computed, for the matching Study call
type ForwardCache struct {
	Input         Vector
	State         Vector // nil for stateless layers
	PreActivation Vector
	Derivative    Vector
	Output        Vector
}

// NewForwardCache allocates a cache shaped for l
func NewForwardCache(l *Layer) *ForwardCache {
	c := &ForwardCache{
		Input:         NewVector(l.Weights.In),
		PreActivation: NewVector(l.Weights.Out),
		Derivative:    NewVector(l.Weights.Out),
		Output:        NewVector(l.Weights.Out),
	}
	if l.Stateful() {
		c.State = NewVector(l.Weights.Out)
	}
	return c
}

// TrainableLayer owns a Layer while it is being trained.
//
// Gradients accumulate across any number of Study calls and are applied and
// cleared by Update.
type TrainableLayer struct {
	layer *Layer

	total   WeightBlock // accumulated gradient
	moment1 WeightBlock // first moment, per parameter
	moment2 []float32   // second moment, per output unit

	local    Vector // per-unit error of the last Study
	inputErr Vector
	stateErr Vector
}

// NewTrainableLayer takes ownership of l
func NewTrainableLayer(l *Layer) *TrainableLayer {
	t := &TrainableLayer{
		layer:    l,
		total:    l.Weights.ShapeOf(),
		moment1:  l.Weights.ShapeOf(),
		moment2:  make([]float32, l.Weights.Out),
		local:    NewVector(l.Weights.Out),
		inputErr: NewVector(l.Weights.In),
	}
	if l.Stateful() {
		t.stateErr = NewVector(l.Weights.Out)
	}
	return t
}

// Layer returns the layer being trained
func (t *TrainableLayer) Layer() *Layer {
	return t.layer
}

// Drop releases the layer. The trainable wrapper must not be used afterwards.
func (t *TrainableLayer) Drop() *Layer {
	l := t.layer
	t.layer = nil
	return l
}

// Ready runs the layer forward, recording everything Study needs into cache.
// A nil state reads as zero. It returns cache.Output.
func (t *TrainableLayer) Ready(input, state Vector, cache *ForwardCache) Vector {
	l := t.layer
	cache.Input.CopyFrom(input)
	if cache.State != nil {
		if state == nil {
			cache.State.Zero()
		} else {
			cache.State.CopyFrom(state)
		}
	}
	l.Weights.Forward(cache.PreActivation, cache.Input, cache.State)
	for i, v := range cache.PreActivation {
		cache.Output[i] = activateCPU(v, l.Activation)
		cache.Derivative[i] = activateDerivativeCPU(v, l.Activation)
	}
	return cache.Output
}

// Study backpropagates outputError through the step recorded in cache.
//
// nextStateError is an error already expressed at the pre-activation and may be nil.
// The weight gradient is added to the accumulator. The returned input and previous
// state errors are owned by t and stay valid until the next Study; prevStateError
// is nil for stateless layers.
func (t *TrainableLayer) Study(outputError, nextStateError Vector, cache *ForwardCache) (inputError, prevStateError Vector) {
	wb := &t.layer.Weights
	for i := range t.local {
		e := outputError[i] * cache.Derivative[i]
		if nextStateError != nil {
			e += nextStateError[i]
		}
		t.local[i] = e
	}
	wb.AccumulateGradient(&t.total, t.local, cache.Input, cache.State)
	wb.InputGradient(t.inputErr, t.local)
	if t.stateErr != nil {
		wb.StateGradient(t.stateErr, t.local)
	}
	return t.inputErr, t.stateErr
}

// Gradient exposes the accumulated gradient
func (t *TrainableLayer) Gradient() *WeightBlock {
	return &t.total
}

// ClearGradients zeroes the accumulator without touching the weights
func (t *TrainableLayer) ClearGradients() {
	t.total.Zero()
}

// VisitWeights walks the layer weights
func (t *TrainableLayer) VisitWeights(fn func(w *float32)) {
	t.layer.Weights.VisitWeights(fn)
}

// VisitGradients walks the accumulated gradient in weight order
func (t *TrainableLayer) VisitGradients(fn func(g *float32)) {
	t.total.VisitWeights(fn)
}
