package nn

// encodeCache holds the per-step caches of a cell consuming a sequence,
// plus the output cache of its last step.
//
// Capacity only grows: a longer sequence appends freshly allocated steps,
// a shorter one just lowers the logical length.
type encodeCache struct {
	cell        *RecurrentCell
	Steps       []*StateCache
	Final       *OutputCache
	InputErrors []Vector
	zero        Vector
	length      int
}

func newEncodeCache(c *RecurrentCell, capacity int) encodeCache {
	ec := encodeCache{
		cell:  c,
		Final: NewOutputCache(c),
		zero:  NewVector(c.StateSize()),
	}
	ec.grow(capacity)
	return ec
}

func (ec *encodeCache) grow(n int) {
	for len(ec.Steps) < n {
		ec.Steps = append(ec.Steps, NewStateCache(ec.cell))
		ec.InputErrors = append(ec.InputErrors, NewVector(ec.cell.InputSize()))
	}
}

// Len returns the number of steps recorded by the last Ready
func (ec *encodeCache) Len() int {
	return ec.length
}

// Cap returns the number of steps allocated
func (ec *encodeCache) Cap() int {
	return len(ec.Steps)
}

// readyEncode feeds inputs through the cell, then readies the last step's output
func readyEncode(cell *TrainableRecurrentCell, inputs []Vector, state Vector, ec *encodeCache) Vector {
	n := len(inputs)
	if n == 0 {
		shapePanic("encoding an empty sequence")
	}
	ec.grow(n)
	ec.length = n
	if state == nil {
		state = ec.zero
	}
	for i, x := range inputs {
		state = cell.ReadyState(x, state, ec.Steps[i])
	}
	return cell.ReadyOutput(ec.Steps[n-1], ec.Final)
}

// studyEncode walks the recorded steps in reverse: the last step gets the output
// error and the final state error (nil means zero), earlier steps only the
// state error threaded back. Per-step input errors land in ec.InputErrors.
// The returned initial state error is owned by cell.
func studyEncode(cell *TrainableRecurrentCell, outputError, stateError Vector, ec *encodeCache) Vector {
	n := ec.length
	dx, ds := cell.Study(outputError, stateError, ec.Steps[n-1], ec.Final)
	ec.InputErrors[n-1].CopyFrom(dx)
	for i := n - 2; i >= 0; i-- {
		dx, ds = cell.StudyState(ds, ec.Steps[i])
		ec.InputErrors[i].CopyFrom(dx)
	}
	return ds
}

// DecoderCache records a TrainableDecoder.Ready call, one entry per emitted step
type DecoderCache struct {
	cell    *RecurrentCell
	output  *Layer
	States  []*StateCache
	Outputs []*OutputCache
	Layers  []*ForwardCache
	results []Vector
	zero    Vector
	length  int
}

// NewDecoderCache allocates a cache for sequences of up to capacity steps;
// longer sequences grow it.
func NewDecoderCache(d *Decoder, capacity int) *DecoderCache {
	return newDecoderCache(d.Cell, d.OutputLayer, capacity)
}

func newDecoderCache(c *RecurrentCell, output *Layer, capacity int) *DecoderCache {
	dc := &DecoderCache{
		cell:   c,
		output: output,
		zero:   NewVector(c.StateSize()),
	}
	dc.grow(capacity)
	return dc
}

func (dc *DecoderCache) grow(n int) {
	for len(dc.States) < n {
		dc.States = append(dc.States, NewStateCache(dc.cell))
		dc.Outputs = append(dc.Outputs, NewOutputCache(dc.cell))
		l := NewForwardCache(dc.output)
		dc.Layers = append(dc.Layers, l)
		dc.results = append(dc.results, l.Output)
	}
}

// Len returns the number of steps recorded by the last Ready
func (dc *DecoderCache) Len() int {
	return dc.length
}

// Cap returns the number of steps allocated
func (dc *DecoderCache) Cap() int {
	return len(dc.States)
}

// readyDecode feeds the same input length times while the state evolves.
// The returned vectors alias the cache.
func readyDecode(cell *TrainableRecurrentCell, out *TrainableLayer, input, state Vector, length int, dc *DecoderCache) []Vector {
	dc.grow(length)
	dc.length = length
	if state == nil {
		state = dc.zero
	}
	for i := 0; i < length; i++ {
		state = cell.ReadyState(input, state, dc.States[i])
		y := cell.ReadyOutput(dc.States[i], dc.Outputs[i])
		out.Ready(y, nil, dc.Layers[i])
	}
	return dc.results[:length]
}

// studyDecode walks the steps in reverse, threading the state error and summing
// each step's input error into inputError. The returned initial state error is owned by cell.
func studyDecode(cell *TrainableRecurrentCell, out *TrainableLayer, outputErrors []Vector, dc *DecoderCache, inputError Vector) Vector {
	inputError.Zero()
	var ds Vector
	for i := dc.length - 1; i >= 0; i-- {
		cellErr, _ := out.Study(outputErrors[i], nil, dc.Layers[i])
		var dx Vector
		dx, ds = cell.Study(cellErr, ds, dc.States[i], dc.Outputs[i])
		inputError.Add(dx)
	}
	if ds == nil {
		return dc.zero
	}
	return ds
}
