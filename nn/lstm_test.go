package nn

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/diff/fd"
)

var gradientCheck = &fd.Settings{Formula: fd.Central, Step: 1e-3}

// closeEnough compares an analytic and a numeric derivative computed in float32
func closeEnough(analytic, numeric float64) bool {
	return math.Abs(analytic-numeric) <= 2e-3+0.05*math.Abs(numeric)
}

func sequence(rng *rand.Rand, n, width int) []Vector {
	seq := make([]Vector, n)
	for i := range seq {
		seq[i] = randomVector(rng, width)
	}
	return seq
}

func halfSquared(out, target Vector) float64 {
	loss := 0.0
	for i := range out {
		d := float64(out[i] - target[i])
		loss += d * d
	}
	return loss / 2
}

// checkWeightGradients perturbs every stride-th weight of m and compares the
// loss slope with the gradient accumulated in analytic.
func checkWeightGradients(t *testing.T, m WeightVisitor, analytic []float32, stride int, loss func() float64) {
	t.Helper()
	weights := GatherWeights(nil, m)
	if len(weights) != len(analytic) {
		t.Fatalf("weights %d, gradients %d", len(weights), len(analytic))
	}
	checked := 0
	for i := 0; i < len(weights); i += stride {
		orig := weights[i]
		numeric := fd.Derivative(func(x float64) float64 {
			weights[i] = float32(x)
			ScatterWeights(m, weights)
			return loss()
		}, float64(orig), gradientCheck)
		weights[i] = orig
		ScatterWeights(m, weights)

		if !closeEnough(float64(analytic[i]), numeric) {
			t.Errorf("weight %d: analytic %g, numeric %g", i, analytic[i], numeric)
		}
		checked++
	}
	if checked == 0 {
		t.Fatal("no weights checked")
	}
}

// TestRecurrentCellForward pins the gate equations on a hand-made cell
func TestRecurrentCellForward(t *testing.T) {
	c := NewRecurrentCell(1, 1)
	c.Main.Weights.Input[0] = 1
	c.Forget.Weights.Bias[0] = 1
	c.InputGate.Weights.State[0] = 1
	c.OutputGate.Weights.Input[0] = -1

	next, out := c.Calc(VectorOf(1), VectorOf(1))
	m, f, i, o := float32(0.5), float32(0.75), float32(0.75), float32(0.25)
	expectedNext := f*1 + i*m
	if math.Abs(float64(next[0]-expectedNext)) > 1e-6 {
		t.Errorf("next state: expected %g, got %g", expectedNext, next[0])
	}
	expectedOut := o * softSign(expectedNext)
	if math.Abs(float64(out[0]-expectedOut)) > 1e-6 {
		t.Errorf("output: expected %g, got %g", expectedOut, out[0])
	}
	if s := c.CalcState(VectorOf(1), VectorOf(1)); s[0] != next[0] {
		t.Errorf("CalcState %g differs from Calc %g", s[0], next[0])
	}
}

// TestTrainableCellMatchesInference verifies ReadyState/ReadyOutput reproduce Calc
func TestTrainableCellMatchesInference(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	c := InitRecurrentCell(3, 4, rng)
	x, s := randomVector(rng, 3), randomVector(rng, 4)
	next, out := c.Calc(x, s)

	tc := NewTrainableRecurrentCell(c)
	sc, oc := NewStateCache(c), NewOutputCache(c)
	if got := tc.ReadyState(x, s, sc); MaxAbsDiff(got, next) != 0 {
		t.Errorf("ReadyState differs from Calc")
	}
	if got := tc.ReadyOutput(sc, oc); MaxAbsDiff(got, out) != 0 {
		t.Errorf("ReadyOutput differs from Calc")
	}
}

// TestRecurrentCellBPTT unrolls a cell over several steps and compares the
// analytic gradient of every weight, input and initial state with finite differences.
func TestRecurrentCellBPTT(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	const in, hidden, steps = 3, 4, 4
	c := NewRecurrentCell(in, hidden)
	Randomize(c, rng, 0.6)
	inputs := sequence(rng, steps, in)
	init := randomVector(rng, hidden)
	target := randomVector(rng, hidden)

	// loss on the last step's output, every earlier step only advances the state
	loss := func() float64 {
		s := init.Clone()
		for _, x := range inputs[:steps-1] {
			s = c.CalcState(x, s)
		}
		_, y := c.Calc(inputs[steps-1], s)
		return halfSquared(y, target)
	}

	tc := NewTrainableRecurrentCell(c)
	scs := make([]*StateCache, steps)
	s := init
	for i := range scs {
		scs[i] = NewStateCache(c)
		s = tc.ReadyState(inputs[i], s, scs[i])
	}
	oc := NewOutputCache(c)
	y := tc.ReadyOutput(scs[steps-1], oc)
	outErr := NewVector(hidden)
	SquaredError(outErr, y, target)

	inputErrs := make([]Vector, steps)
	dx, ds := tc.Study(outErr, nil, scs[steps-1], oc)
	inputErrs[steps-1] = dx.Clone()
	for i := steps - 2; i >= 0; i-- {
		dx, ds = tc.StudyState(ds, scs[i])
		inputErrs[i] = dx.Clone()
	}
	initErr := ds.Clone()

	checkWeightGradients(t, c, GatherGradients(nil, tc), 1, loss)

	for k := range init {
		orig := init[k]
		numeric := fd.Derivative(func(v float64) float64 {
			init[k] = float32(v)
			return loss()
		}, float64(orig), gradientCheck)
		init[k] = orig
		if !closeEnough(float64(initErr[k]), numeric) {
			t.Errorf("initial state %d: analytic %g, numeric %g", k, initErr[k], numeric)
		}
	}
	for step := range inputs {
		for j := range inputs[step] {
			orig := inputs[step][j]
			numeric := fd.Derivative(func(v float64) float64 {
				inputs[step][j] = float32(v)
				return loss()
			}, float64(orig), gradientCheck)
			inputs[step][j] = orig
			if !closeEnough(float64(inputErrs[step][j]), numeric) {
				t.Errorf("input %d/%d: analytic %g, numeric %g", step, j, inputErrs[step][j], numeric)
			}
		}
	}
}

// TestCellUpdateDelegates verifies Update steps every gate and clears the gradient
func TestCellUpdateDelegates(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	c := NewRecurrentCell(2, 3)
	Randomize(c, rng, 0.5)
	tc := NewTrainableRecurrentCell(c)
	sc, oc := NewStateCache(c), NewOutputCache(c)
	tc.ReadyState(randomVector(rng, 2), randomVector(rng, 3), sc)
	tc.ReadyOutput(sc, oc)
	tc.Study(VectorOf(1, 1, 1), nil, sc, oc)

	gates := []*Layer{c.Main, c.Forget, c.InputGate, c.OutputGate}
	before := make([][]float32, len(gates))
	for i, g := range gates {
		before[i] = GatherWeights(nil, g)
	}
	tc.Update(0.05)
	for i, g := range gates {
		if MaxAbsDiff(before[i], GatherWeights(nil, g)) == 0 {
			t.Errorf("Update did not change gate %d", i)
		}
	}
	for i, g := range GatherGradients(nil, tc) {
		if g != 0 {
			t.Fatalf("gradient %d not cleared: %g", i, g)
		}
	}
	if CountParameters(c) != 4*(3+3*2+3*3) {
		t.Errorf("unexpected parameter count %d", CountParameters(c))
	}
}

// TestCellNilStateReadsAsZero alternates nil and non-nil states on one reused cache
func TestCellNilStateReadsAsZero(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	c := NewRecurrentCell(3, 2)
	Randomize(c, rng, 0.8)
	tc := NewTrainableRecurrentCell(c)
	sc := NewStateCache(c)
	oc := NewOutputCache(c)
	x := randomVector(rng, 3)

	expectedNext, expectedOut := c.Calc(x, NewVector(2))

	first := tc.ReadyState(x, nil, sc).Clone()
	tc.ReadyState(x, VectorOf(5, 5), sc)
	tc.ReadyOutput(sc, oc)
	second := tc.ReadyState(x, nil, sc).Clone()
	out := tc.ReadyOutput(sc, oc)

	for name, got := range map[string]Vector{"first": first, "second": second} {
		if d := MaxAbsDiff(got, expectedNext); d > 1e-6 {
			t.Errorf("%s nil-state step: expected %v, got %v", name, expectedNext, got)
		}
	}
	if d := MaxAbsDiff(out, expectedOut); d > 1e-6 {
		t.Errorf("output after nil state: expected %v, got %v", expectedOut, out)
	}

	next, y := c.Calc(x, nil)
	if MaxAbsDiff(next, expectedNext) != 0 || MaxAbsDiff(y, expectedOut) != 0 {
		t.Errorf("Calc with nil state: expected %v %v, got %v %v", expectedNext, expectedOut, next, y)
	}
	if d := MaxAbsDiff(c.CalcState(x, nil), expectedNext); d != 0 {
		t.Errorf("CalcState with nil state differs from zero state by %g", d)
	}
}
