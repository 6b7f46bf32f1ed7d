// Package nn provides a hand-differentiated recurrent network engine with CPU execution.
//
// Every component owns fixed-size float32 buffers decided at construction time.
// Gradients are derived by hand per component, there is no computation graph:
//   - Vector: a fixed length float32 buffer with elementwise arithmetic and a label codec
//   - WeightBlock: bias + input weights + optional recurrent state weights
//   - Layer: WeightBlock + activation, TrainableLayer adds gradient accumulation and the optimizer
//   - RecurrentCell: four gated layers (main, forget, input, output) sharing one state vector
//   - Classifier, Encoder, Decoder, SeqToSeq: composed architectures with trainable forms
//
// Activations use SoftSign as the bounded squashing primitive:
//   - Linear: v
//   - ReLU: max(0, v)
//   - SoftSign: v / (1 + |v|)
//   - Sigmoid: (SoftSign(v) + 1) / 2
//
// Training follows a ready → study → update protocol:
//
//	cls := nn.NewClassifier(32, 16, 8, nn.ActivationLinear)
//	nn.Randomize(cls, rand.New(rand.NewSource(1)), 0.5)
//	tc := nn.NewTrainableClassifier(cls)
//	cache := nn.NewClassifierCache(cls)
//
//	out := tc.Ready(input, cache)
//	tc.Study(outputError, cache) // accumulates, may be repeated
//	tc.Update(0.01)              // applies and clears the accumulated gradient
//
// The core is single threaded. Parameters and gradients can be visited in a fixed
// order (see Visitable) so that data-parallel training can copy them positionally.
package nn
