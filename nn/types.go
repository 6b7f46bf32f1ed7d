package nn

import "fmt"

// ActivationType defines the activation function used in a layer
type ActivationType int

const (
	ActivationLinear   ActivationType = 0 // v
	ActivationReLU     ActivationType = 1 // max(0, v)
	ActivationSoftSign ActivationType = 2 // v / (1 + |v|)
	ActivationSigmoid  ActivationType = 3 // (SoftSign(v) + 1) / 2
)

// String returns the activation name
func (a ActivationType) String() string {
	switch a {
	case ActivationLinear:
		return "linear"
	case ActivationReLU:
		return "relu"
	case ActivationSoftSign:
		return "softsign"
	case ActivationSigmoid:
		return "sigmoid"
	default:
		return fmt.Sprintf("activation(%d)", int(a))
	}
}

// Visitable is implemented by every weighted component.
//
// VisitWeights and VisitGradients walk every scalar parameter and every scalar of
// the accumulated gradient. Both walks use the same fixed order on every call:
//   - WeightBlock: Bias, Input (row-major), State (row-major, if present)
//   - RecurrentCell: Main, Forget, InputGate, OutputGate
//   - Classifier: Middle, Output
//   - Encoder, Decoder: Cell, Output
//   - SeqToSeq: Encoder cell, Decoder cell, Output
//
// Data-parallel training copies weights and gradients positionally between
// workers, so this order is part of the API.
type Visitable interface {
	VisitWeights(fn func(w *float32))
	VisitGradients(fn func(g *float32))
}

// WeightVisitor is implemented by inference-only components that expose their weights
type WeightVisitor interface {
	VisitWeights(fn func(w *float32))
}

// shapePanic reports a dimension mismatch found while composing components
func shapePanic(format string, args ...interface{}) {
	panic("nn: " + fmt.Sprintf(format, args...))
}
