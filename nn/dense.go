package nn

// WeightBlock holds the parameters of one fully-connected unit group.
// Out outputs read In inputs, and optionally Out recurrent state values.
type WeightBlock struct {
	Out   int
	In    int
	Bias  []float32 // [Out]
	Input []float32 // [Out][In], row-major
	State []float32 // [Out][Out], row-major; nil when the block takes no state
}

// NewWeightBlock allocates a zeroed block
func NewWeightBlock(out, in int, stateful bool) WeightBlock {
	if out <= 0 || in <= 0 {
		shapePanic("weight block %dx%d must have positive dimensions", out, in)
	}
	wb := WeightBlock{
		Out:   out,
		In:    in,
		Bias:  make([]float32, out),
		Input: make([]float32, out*in),
	}
	if stateful {
		wb.State = make([]float32, out*out)
	}
	return wb
}

// Stateful reports whether the block carries recurrent state weights
func (wb *WeightBlock) Stateful() bool {
	return wb.State != nil
}

// ShapeOf allocates a zeroed block with the same shape as wb
func (wb *WeightBlock) ShapeOf() WeightBlock {
	return NewWeightBlock(wb.Out, wb.In, wb.Stateful())
}

// denseForwardCPU computes dst[i] = bias[i] + Σ_j W[i][j]·input[j] + Σ_k S[i][k]·state[k].
// state is ignored when the block is stateless or state is nil.
func denseForwardCPU(wb *WeightBlock, dst, input, state []float32) {
	for o := 0; o < wb.Out; o++ {
		sum := wb.Bias[o]
		row := wb.Input[o*wb.In : (o+1)*wb.In]
		for i, w := range row {
			sum += w * input[i]
		}
		if wb.State != nil && state != nil {
			srow := wb.State[o*wb.Out : (o+1)*wb.Out]
			for k, w := range srow {
				sum += w * state[k]
			}
		}
		dst[o] = sum
	}
}

// Forward evaluates the affine part of the block into dst
func (wb *WeightBlock) Forward(dst, input, state Vector) Vector {
	denseForwardCPU(wb, dst, input, state)
	return dst
}

// InputGradient computes dst[j] = Σ_i coef[i]·W[i][j]
func (wb *WeightBlock) InputGradient(dst, coef Vector) Vector {
	dst.Zero()
	for o := 0; o < wb.Out; o++ {
		c := coef[o]
		row := wb.Input[o*wb.In : (o+1)*wb.In]
		for i, w := range row {
			dst[i] += c * w
		}
	}
	return dst
}

// StateGradient computes dst[k] = Σ_i coef[i]·S[i][k], or zeroes dst for stateless blocks
func (wb *WeightBlock) StateGradient(dst, coef Vector) Vector {
	dst.Zero()
	if wb.State == nil {
		return dst
	}
	for o := 0; o < wb.Out; o++ {
		c := coef[o]
		srow := wb.State[o*wb.Out : (o+1)*wb.Out]
		for k, w := range srow {
			dst[k] += c * w
		}
	}
	return dst
}

// AccumulateGradient adds the weight gradient for coef into acc:
// ∂bias[i] = coef[i], ∂W[i][j] = coef[i]·input[j], ∂S[i][k] = coef[i]·state[k].
// acc must have the same shape as wb.
func (wb *WeightBlock) AccumulateGradient(acc *WeightBlock, coef, input, state Vector) {
	for o := 0; o < wb.Out; o++ {
		c := coef[o]
		acc.Bias[o] += c
		row := acc.Input[o*wb.In : (o+1)*wb.In]
		for i := range row {
			row[i] += c * input[i]
		}
		if acc.State != nil {
			srow := acc.State[o*wb.Out : (o+1)*wb.Out]
			for k := range srow {
				srow[k] += c * state[k]
			}
		}
	}
}

// VisitWeights walks Bias, Input and State in that order
func (wb *WeightBlock) VisitWeights(fn func(w *float32)) {
	for i := range wb.Bias {
		fn(&wb.Bias[i])
	}
	for i := range wb.Input {
		fn(&wb.Input[i])
	}
	for i := range wb.State {
		fn(&wb.State[i])
	}
}

// Zero clears every parameter
func (wb *WeightBlock) Zero() {
	wb.VisitWeights(func(w *float32) { *w = 0 })
}

// unitSquares returns the squared norm of unit o across bias, input row and state row
func (wb *WeightBlock) unitSquares(o int) float32 {
	s := wb.Bias[o] * wb.Bias[o]
	for _, g := range wb.Input[o*wb.In : (o+1)*wb.In] {
		s += g * g
	}
	if wb.State != nil {
		for _, g := range wb.State[o*wb.Out : (o+1)*wb.Out] {
			s += g * g
		}
	}
	return s
}
