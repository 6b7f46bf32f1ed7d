package nn

// Classifier is a ReLU hidden layer followed by an output layer
type Classifier struct {
	Middle      *Layer
	OutputLayer *Layer
}

// NewClassifier creates a zero-weighted in → middle → out classifier
func NewClassifier(in, middle, out int, outputActivation ActivationType) *Classifier {
	return &Classifier{
		Middle:      NewLayer(in, middle, ActivationReLU, false),
		OutputLayer: NewLayer(middle, out, outputActivation, false),
	}
}

// ComposeClassifier joins two existing stateless layers, checking their shapes
func ComposeClassifier(middle, output *Layer) *Classifier {
	if middle.Stateful() || output.Stateful() {
		shapePanic("classifier layers must be stateless")
	}
	sameLen("classifier middle → output", middle.OutputSize(), output.InputSize())
	return &Classifier{Middle: middle, OutputLayer: output}
}

// Calc classifies one input
func (c *Classifier) Calc(input Vector) Vector {
	return c.OutputLayer.Calc(c.Middle.Calc(input, nil), nil)
}

// VisitWeights walks Middle then Output
func (c *Classifier) VisitWeights(fn func(w *float32)) {
	c.Middle.VisitWeights(fn)
	c.OutputLayer.VisitWeights(fn)
}

// ClassifierCache records one TrainableClassifier.Ready call
type ClassifierCache struct {
	Middle *ForwardCache
	Output *ForwardCache
}

// NewClassifierCache allocates a cache shaped for c
func NewClassifierCache(c *Classifier) *ClassifierCache {
	return &ClassifierCache{
		Middle: NewForwardCache(c.Middle),
		Output: NewForwardCache(c.OutputLayer),
	}
}

// TrainableClassifier trains a Classifier with two-layer backpropagation
type TrainableClassifier struct {
	classifier *Classifier
	middle     *TrainableLayer
	output     *TrainableLayer
}

// NewTrainableClassifier takes ownership of c
func NewTrainableClassifier(c *Classifier) *TrainableClassifier {
	return &TrainableClassifier{
		classifier: c,
		middle:     NewTrainableLayer(c.Middle),
		output:     NewTrainableLayer(c.OutputLayer),
	}
}

// Classifier returns the classifier being trained
func (t *TrainableClassifier) Classifier() *Classifier {
	return t.classifier
}

// Drop releases the classifier. The trainable wrapper must not be used afterwards.
func (t *TrainableClassifier) Drop() *Classifier {
	c := t.classifier
	t.classifier, t.middle, t.output = nil, nil, nil
	return c
}

// Ready runs the classifier forward and returns the output (cache.Output.Output)
func (t *TrainableClassifier) Ready(input Vector, cache *ClassifierCache) Vector {
	middle := t.middle.Ready(input, nil, cache.Middle)
	return t.output.Ready(middle, nil, cache.Output)
}

// Study accumulates the gradient for outputError and returns the input error,
// owned by t until the next Study.
func (t *TrainableClassifier) Study(outputError Vector, cache *ClassifierCache) Vector {
	middleErr, _ := t.output.Study(outputError, nil, cache.Output)
	inputErr, _ := t.middle.Study(middleErr, nil, cache.Middle)
	return inputErr
}

// Update applies and clears the accumulated gradient
func (t *TrainableClassifier) Update(rate float32) {
	t.middle.Update(rate)
	t.output.Update(rate)
}

// ClearGradients zeroes the accumulated gradient
func (t *TrainableClassifier) ClearGradients() {
	t.middle.ClearGradients()
	t.output.ClearGradients()
}

// VisitWeights walks Middle then Output
func (t *TrainableClassifier) VisitWeights(fn func(w *float32)) {
	t.middle.VisitWeights(fn)
	t.output.VisitWeights(fn)
}

// VisitGradients walks the accumulators of Middle then Output
func (t *TrainableClassifier) VisitGradients(fn func(g *float32)) {
	t.middle.VisitGradients(fn)
	t.output.VisitGradients(fn)
}
