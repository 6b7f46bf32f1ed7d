package nn

// StateCache records one ReadyState step of a recurrent cell
type StateCache struct {
	Input     Vector
	PrevState Vector
	Main      *ForwardCache
	Forget    *ForwardCache
	InputGate *ForwardCache
	Next      Vector
}

// NewStateCache allocates a state cache shaped for c
func NewStateCache(c *RecurrentCell) *StateCache {
	return &StateCache{
		Input:     NewVector(c.InputSize()),
		PrevState: NewVector(c.StateSize()),
		Main:      NewForwardCache(c.Main),
		Forget:    NewForwardCache(c.Forget),
		InputGate: NewForwardCache(c.InputGate),
		Next:      NewVector(c.StateSize()),
	}
}

// OutputCache records one ReadyOutput step: the output gate and softsign(next state)
type OutputCache struct {
	Gate               *ForwardCache
	Squashed           Vector
	SquashedDerivative Vector
	Output             Vector
}

// NewOutputCache allocates an output cache shaped for c
func NewOutputCache(c *RecurrentCell) *OutputCache {
	return &OutputCache{
		Gate:               NewForwardCache(c.OutputGate),
		Squashed:           NewVector(c.StateSize()),
		SquashedDerivative: NewVector(c.StateSize()),
		Output:             NewVector(c.StateSize()),
	}
}

// TrainableRecurrentCell trains the four gates of a RecurrentCell with BPTT.
//
// A step is split in two because a later step may need the next state before
// anybody asks for this step's output:
//
//	next := t.ReadyState(x, s, sc)   // state only
//	y := t.ReadyOutput(sc, oc)       // optional output of the same step
//
// Backward, steps that produced an output are studied with Study, the others
// with StudyState, walking the steps in reverse order.
type TrainableRecurrentCell struct {
	cell *RecurrentCell

	main   *TrainableLayer
	forget *TrainableLayer
	input  *TrainableLayer
	output *TrainableLayer

	effective Vector // state error including the output contribution
	mainErr   Vector
	forgetErr Vector
	inErr     Vector
	outErr    Vector
	inputErr  Vector
	prevErr   Vector
}

// NewTrainableRecurrentCell takes ownership of c
func NewTrainableRecurrentCell(c *RecurrentCell) *TrainableRecurrentCell {
	n := c.StateSize()
	return &TrainableRecurrentCell{
		cell:      c,
		main:      NewTrainableLayer(c.Main),
		forget:    NewTrainableLayer(c.Forget),
		input:     NewTrainableLayer(c.InputGate),
		output:    NewTrainableLayer(c.OutputGate),
		effective: NewVector(n),
		mainErr:   NewVector(n),
		forgetErr: NewVector(n),
		inErr:     NewVector(n),
		outErr:    NewVector(n),
		inputErr:  NewVector(c.InputSize()),
		prevErr:   NewVector(n),
	}
}

// Cell returns the cell being trained
func (t *TrainableRecurrentCell) Cell() *RecurrentCell {
	return t.cell
}

// Drop releases the cell. The trainable wrapper must not be used afterwards.
func (t *TrainableRecurrentCell) Drop() *RecurrentCell {
	c := t.cell
	t.cell = nil
	t.main, t.forget, t.input, t.output = nil, nil, nil, nil
	return c
}

func (t *TrainableRecurrentCell) gates() [4]*TrainableLayer {
	return [4]*TrainableLayer{t.main, t.forget, t.input, t.output}
}

// ReadyState runs the main, forget and input gates and returns the next state (sc.Next).
// A nil prevState reads as zero.
func (t *TrainableRecurrentCell) ReadyState(input, prevState Vector, sc *StateCache) Vector {
	sc.Input.CopyFrom(input)
	if prevState == nil {
		sc.PrevState.Zero()
	} else {
		sc.PrevState.CopyFrom(prevState)
	}

	m := t.main.Ready(sc.Input, sc.PrevState, sc.Main)
	f := t.forget.Ready(sc.Input, sc.PrevState, sc.Forget)
	i := t.input.Ready(sc.Input, sc.PrevState, sc.InputGate)

	for k := range sc.Next {
		sc.Next[k] = f[k]*sc.PrevState[k] + i[k]*m[k]
	}
	return sc.Next
}

// ReadyOutput runs the output gate for the step recorded in sc and returns the output (oc.Output)
func (t *TrainableRecurrentCell) ReadyOutput(sc *StateCache, oc *OutputCache) Vector {
	o := t.output.Ready(sc.Input, sc.PrevState, oc.Gate)
	for k, s := range sc.Next {
		oc.Squashed[k] = softSign(s)
		oc.SquashedDerivative[k] = softSignDerivative(s)
		oc.Output[k] = o[k] * oc.Squashed[k]
	}
	return oc.Output
}

// studyGates backpropagates t.effective through s' = f ⊙ s + i ⊙ m
func (t *TrainableRecurrentCell) studyGates(sc *StateCache) {
	for k, e := range t.effective {
		t.mainErr[k] = e * sc.InputGate.Output[k]
		t.forgetErr[k] = e * sc.PrevState[k]
		t.inErr[k] = e * sc.Main.Output[k]
	}

	dx, ds := t.main.Study(t.mainErr, nil, sc.Main)
	t.inputErr.CopyFrom(dx)
	t.prevErr.CopyFrom(ds)

	dx, ds = t.forget.Study(t.forgetErr, nil, sc.Forget)
	t.inputErr.Add(dx)
	t.prevErr.Add(ds)

	dx, ds = t.input.Study(t.inErr, nil, sc.InputGate)
	t.inputErr.Add(dx)
	t.prevErr.Add(ds)

	// direct path through the forget gate
	t.prevErr.MulAdd(t.effective, sc.Forget.Output)
}

// StudyState backpropagates an error on the next state of a step that produced no output.
// The returned vectors are owned by t and valid until its next Study or StudyState;
// passing the previous prevStateError back in as stateError is allowed.
func (t *TrainableRecurrentCell) StudyState(stateError Vector, sc *StateCache) (inputError, prevStateError Vector) {
	t.effective.CopyFrom(stateError)
	t.studyGates(sc)
	return t.inputErr, t.prevErr
}

// Study backpropagates an output error and a next state error (nil means zero)
// through a step that went through both ReadyState and ReadyOutput.
// The same ownership rules as StudyState apply.
func (t *TrainableRecurrentCell) Study(outputError, stateError Vector, sc *StateCache, oc *OutputCache) (inputError, prevStateError Vector) {
	for k, e := range outputError {
		se := float32(0)
		if stateError != nil {
			se = stateError[k]
		}
		t.effective[k] = se + e*oc.Gate.Output[k]*oc.SquashedDerivative[k]
		t.outErr[k] = e * oc.Squashed[k]
	}
	t.studyGates(sc)

	dx, ds := t.output.Study(t.outErr, nil, oc.Gate)
	t.inputErr.Add(dx)
	t.prevErr.Add(ds)
	return t.inputErr, t.prevErr
}

// Update applies the accumulated gradient of every gate
func (t *TrainableRecurrentCell) Update(rate float32) {
	for _, g := range t.gates() {
		g.Update(rate)
	}
}

// ClearGradients zeroes every gate's accumulator
func (t *TrainableRecurrentCell) ClearGradients() {
	for _, g := range t.gates() {
		g.ClearGradients()
	}
}

// VisitWeights walks Main, Forget, InputGate and OutputGate
func (t *TrainableRecurrentCell) VisitWeights(fn func(w *float32)) {
	for _, g := range t.gates() {
		g.VisitWeights(fn)
	}
}

// VisitGradients walks the gate accumulators in weight order
func (t *TrainableRecurrentCell) VisitGradients(fn func(g *float32)) {
	for _, g := range t.gates() {
		g.VisitGradients(fn)
	}
}
