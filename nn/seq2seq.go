package nn

// SeqToSeq encodes a sequence with one cell and decodes it with another.
//
// The encoder cell consumes the inputs; its last step's output becomes the
// fixed input of every decoder step and its final state the decoder's initial
// state. Each decoder step's output goes through OutputLayer.
type SeqToSeq struct {
	EncoderCell *RecurrentCell
	DecoderCell *RecurrentCell
	OutputLayer *Layer
}

// NewSeqToSeq creates a zero-weighted model: in-sized inputs, hidden-sized states, out-sized outputs
func NewSeqToSeq(in, hidden, out int, outputActivation ActivationType) *SeqToSeq {
	return ComposeSeqToSeq(
		NewRecurrentCell(in, hidden),
		NewRecurrentCell(hidden, hidden),
		NewLayer(hidden, out, outputActivation, false),
	)
}

// ComposeSeqToSeq joins existing cells and output layer, checking their shapes
func ComposeSeqToSeq(encoder, decoder *RecurrentCell, output *Layer) *SeqToSeq {
	sameLen("seq2seq encoder output → decoder input", encoder.StateSize(), decoder.InputSize())
	sameLen("seq2seq encoder state → decoder state", encoder.StateSize(), decoder.StateSize())
	sameLen("seq2seq decoder → output", decoder.StateSize(), output.InputSize())
	if output.Stateful() {
		shapePanic("seq2seq output layer must be stateless")
	}
	return &SeqToSeq{EncoderCell: encoder, DecoderCell: decoder, OutputLayer: output}
}

// Calc encodes a non-empty input sequence from state (nil means zero) and decodes length elements
func (s *SeqToSeq) Calc(inputs []Vector, state Vector, length int) []Vector {
	if state == nil {
		state = NewVector(s.EncoderCell.StateSize())
	}
	last := len(inputs) - 1
	for _, x := range inputs[:last] {
		state = s.EncoderCell.CalcState(x, state)
	}
	state, encoded := s.EncoderCell.Calc(inputs[last], state)

	out := make([]Vector, length)
	for i := range out {
		var y Vector
		state, y = s.DecoderCell.Calc(encoded, state)
		out[i] = s.OutputLayer.Calc(y, nil)
	}
	return out
}

// VisitWeights walks EncoderCell, DecoderCell, then OutputLayer
func (s *SeqToSeq) VisitWeights(fn func(w *float32)) {
	s.EncoderCell.VisitWeights(fn)
	s.DecoderCell.VisitWeights(fn)
	s.OutputLayer.VisitWeights(fn)
}

// SeqToSeqCache records a TrainableSeqToSeq.Ready call
type SeqToSeqCache struct {
	Encode encodeCache
	Decode *DecoderCache
}

// NewSeqToSeqCache allocates a cache for up to inputCap input and outputCap output steps;
// longer sequences grow it.
func NewSeqToSeqCache(s *SeqToSeq, inputCap, outputCap int) *SeqToSeqCache {
	return &SeqToSeqCache{
		Encode: newEncodeCache(s.EncoderCell, inputCap),
		Decode: newDecoderCache(s.DecoderCell, s.OutputLayer, outputCap),
	}
}

// InputErrors returns the per-step input errors of the last Study
func (c *SeqToSeqCache) InputErrors() []Vector {
	return c.Encode.InputErrors[:c.Encode.length]
}

// TrainableSeqToSeq trains a SeqToSeq with BPTT through both cells
type TrainableSeqToSeq struct {
	model   *SeqToSeq
	encoder *TrainableRecurrentCell
	decoder *TrainableRecurrentCell
	output  *TrainableLayer

	encodedErr Vector
	stateErr   Vector
}

// NewTrainableSeqToSeq takes ownership of s
func NewTrainableSeqToSeq(s *SeqToSeq) *TrainableSeqToSeq {
	return &TrainableSeqToSeq{
		model:      s,
		encoder:    NewTrainableRecurrentCell(s.EncoderCell),
		decoder:    NewTrainableRecurrentCell(s.DecoderCell),
		output:     NewTrainableLayer(s.OutputLayer),
		encodedErr: NewVector(s.DecoderCell.InputSize()),
		stateErr:   NewVector(s.EncoderCell.StateSize()),
	}
}

// Model returns the model being trained
func (t *TrainableSeqToSeq) Model() *SeqToSeq {
	return t.model
}

// Drop releases the model. The trainable wrapper must not be used afterwards.
func (t *TrainableSeqToSeq) Drop() *SeqToSeq {
	s := t.model
	t.model, t.encoder, t.decoder, t.output = nil, nil, nil, nil
	return s
}

// Ready encodes inputs from state (nil means zero) and decodes length elements.
// The returned vectors alias cache.
func (t *TrainableSeqToSeq) Ready(inputs []Vector, state Vector, length int, cache *SeqToSeqCache) []Vector {
	encoded := readyEncode(t.encoder, inputs, state, &cache.Encode)
	final := cache.Encode.Steps[len(inputs)-1].Next
	return readyDecode(t.decoder, t.output, encoded, final, length, cache.Decode)
}

// Study accumulates the gradient for one error per decoded element and returns
// the error on the initial encoder state, owned by t. Per-step input errors
// are left in cache.
func (t *TrainableSeqToSeq) Study(outputErrors []Vector, cache *SeqToSeqCache) Vector {
	finalErr := studyDecode(t.decoder, t.output, outputErrors, cache.Decode, t.encodedErr)
	return t.stateErr.CopyFrom(studyEncode(t.encoder, t.encodedErr, finalErr, &cache.Encode))
}

// Update applies and clears the accumulated gradient
func (t *TrainableSeqToSeq) Update(rate float32) {
	t.encoder.Update(rate)
	t.decoder.Update(rate)
	t.output.Update(rate)
}

// ClearGradients zeroes the accumulated gradient
func (t *TrainableSeqToSeq) ClearGradients() {
	t.encoder.ClearGradients()
	t.decoder.ClearGradients()
	t.output.ClearGradients()
}

// VisitWeights walks EncoderCell, DecoderCell, then OutputLayer
func (t *TrainableSeqToSeq) VisitWeights(fn func(w *float32)) {
	t.encoder.VisitWeights(fn)
	t.decoder.VisitWeights(fn)
	t.output.VisitWeights(fn)
}

// VisitGradients walks the accumulators in weight order
func (t *TrainableSeqToSeq) VisitGradients(fn func(g *float32)) {
	t.encoder.VisitGradients(fn)
	t.decoder.VisitGradients(fn)
	t.output.VisitGradients(fn)
}
