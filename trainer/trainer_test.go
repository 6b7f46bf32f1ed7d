package trainer

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/openfluke/seqnet/nn"
)

// regression holds one trainable copy of a classifier per worker, fitted to a
// fixed linear map
type regression struct {
	models []*nn.TrainableClassifier
	caches []*nn.ClassifierCache
	errs   []nn.Vector
}

func newRegression(workers int, seed int64) *regression {
	rng := rand.New(rand.NewSource(seed))
	base := nn.NewClassifier(3, 6, 2, nn.ActivationLinear)
	nn.Randomize(base, rng, 0.5)

	r := &regression{}
	for w := 0; w < workers; w++ {
		c := nn.NewClassifier(3, 6, 2, nn.ActivationLinear)
		nn.CopyWeights(c, base)
		r.models = append(r.models, nn.NewTrainableClassifier(c))
		r.caches = append(r.caches, nn.NewClassifierCache(c))
		r.errs = append(r.errs, nn.NewVector(2))
	}
	return r
}

func (r *regression) sample(worker int, rng *rand.Rand) float32 {
	x := nn.VectorOf(rng.Float32(), rng.Float32(), rng.Float32())
	target := nn.VectorOf(x[0]-x[1], 0.5*x[2]+0.25)
	out := r.models[worker].Ready(x, r.caches[worker])
	loss := nn.SquaredError(r.errs[worker], out, target)
	r.models[worker].Study(r.errs[worker], r.caches[worker])
	return loss
}

func (r *regression) asModels() []Model {
	out := make([]Model, len(r.models))
	for i, m := range r.models {
		out[i] = m
	}
	return out
}

func quietConfig() *TrainingConfig {
	cfg := DefaultTrainingConfig()
	cfg.Epochs = 200
	cfg.SamplesPerEpoch = 20
	cfg.Threads = 2
	cfg.Verbose = false
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *TrainingConfig)
		ok     bool
	}{
		{"defaults", func(c *TrainingConfig) {}, true},
		{"zero epochs", func(c *TrainingConfig) { c.Epochs = 0 }, false},
		{"zero samples", func(c *TrainingConfig) { c.SamplesPerEpoch = 0 }, false},
		{"negative rate", func(c *TrainingConfig) { c.LearningRate = -1 }, false},
		{"negative threads", func(c *TrainingConfig) { c.Threads = -2 }, false},
		{"auto threads", func(c *TrainingConfig) { c.Threads = 0 }, true},
		{"negative log interval", func(c *TrainingConfig) { c.LogEvery = -1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTrainingConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadTrainingConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.json")
	if err := os.WriteFile(path, []byte(`{"epochs": 5, "learning_rate": 0.5}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadTrainingConfig(path)
	if err != nil {
		t.Fatalf("LoadTrainingConfig: %v", err)
	}
	if cfg.Epochs != 5 || cfg.LearningRate != 0.5 {
		t.Errorf("Expected epochs 5 and rate 0.5, got %d and %g", cfg.Epochs, cfg.LearningRate)
	}
	if cfg.SamplesPerEpoch != DefaultTrainingConfig().SamplesPerEpoch {
		t.Errorf("Expected default samples per epoch, got %d", cfg.SamplesPerEpoch)
	}

	if _, err := LoadTrainingConfig(filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a wrapped not-exist error, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"epochs": 0}`), 0o644)
	if _, err := LoadTrainingConfig(bad); err == nil {
		t.Error("Expected zero epochs to be rejected")
	}
}

func TestSharedGradients(t *testing.T) {
	a := nn.NewTrainableLayer(nn.NewLayer(2, 2, nn.ActivationLinear, true))
	b := nn.NewTrainableLayer(nn.NewLayer(2, 2, nn.ActivationLinear, true))
	shared := NewSharedGradients(a)
	if shared.Len() != 2+4+4 {
		t.Fatalf("Expected 10 gradient scalars, got %d", shared.Len())
	}

	ga := make([]float32, shared.Len())
	gb := make([]float32, shared.Len())
	for i := range ga {
		ga[i] = float32(i)
		gb[i] = float32(100 * i)
	}
	nn.ScatterGradients(a, ga)
	nn.ScatterGradients(b, gb)

	shared.Contribute(a)
	shared.Contribute(b)
	if n := shared.Publish(); n != 2 {
		t.Errorf("Expected 2 contributions, got %d", n)
	}

	nn.ScatterGradients(a, make([]float32, shared.Len()))
	shared.Apply(a)
	got := nn.GatherGradients(nil, a)
	for i, g := range got {
		if g != float32(101*i) {
			t.Errorf("gradient %d: expected %d, got %g", i, 101*i, g)
		}
	}

	// the next round starts empty
	if n := shared.Publish(); n != 0 {
		t.Errorf("Expected an empty round, got %d contributions", n)
	}
	for i, g := range shared.Combined() {
		if g != 0 {
			t.Errorf("gradient %d: expected 0 after an empty round, got %g", i, g)
		}
	}
}

func TestSingleWorkerMatchesTrain(t *testing.T) {
	cfg := quietConfig()

	serial := newRegression(1, 7)
	r1, err := Train(serial.models[0], serial.sample, cfg)
	if err != nil {
		t.Fatal(err)
	}

	parallel := newRegression(1, 7)
	r2, err := TrainParallel(parallel.asModels(), parallel.sample, cfg)
	if err != nil {
		t.Fatal(err)
	}

	if d := nn.MaxAbsDiff(nn.GatherWeights(nil, serial.models[0]), nn.GatherWeights(nil, parallel.models[0])); d != 0 {
		t.Errorf("weights differ by %g", d)
	}
	if r1.FinalLoss != r2.FinalLoss {
		t.Errorf("Expected final loss %g, got %g", r1.FinalLoss, r2.FinalLoss)
	}
}

func TestParallelWorkersStayIdentical(t *testing.T) {
	cfg := quietConfig()
	r := newRegression(3, 11)
	result, err := TrainParallel(r.asModels(), r.sample, cfg)
	if err != nil {
		t.Fatal(err)
	}

	first := nn.GatherWeights(nil, r.models[0])
	for w, m := range r.models[1:] {
		if d := nn.MaxAbsDiff(first, nn.GatherWeights(nil, m)); d != 0 {
			t.Errorf("worker %d differs from worker 0 by %g", w+1, d)
		}
	}

	if len(result.LossHistory) != cfg.Epochs {
		t.Fatalf("Expected %d epochs of history, got %d", cfg.Epochs, len(result.LossHistory))
	}
	early := nn.Mean(toFloat32(result.LossHistory[:10]))
	late := nn.Mean(toFloat32(result.LossHistory[cfg.Epochs-10:]))
	if late >= early {
		t.Errorf("loss did not decrease: first epochs %g, last epochs %g", early, late)
	}
}

func TestTrainParallelRejectsMismatchedWorkers(t *testing.T) {
	a := nn.NewTrainableLayer(nn.NewLayer(2, 2, nn.ActivationLinear, false))
	b := nn.NewTrainableLayer(nn.NewLayer(2, 3, nn.ActivationLinear, false))
	noop := func(int, *rand.Rand) float32 { return 0 }
	if _, err := TrainParallel([]Model{a, b}, noop, quietConfig()); err == nil {
		t.Error("Expected mismatched workers to be rejected")
	}
	if _, err := TrainParallel(nil, noop, quietConfig()); err == nil {
		t.Error("Expected an empty worker list to be rejected")
	}
}

func TestTrainRejectsUnknownSchedule(t *testing.T) {
	cfg := quietConfig()
	cfg.Schedule = "exponential"
	m := nn.NewTrainableLayer(nn.NewLayer(2, 2, nn.ActivationLinear, false))
	calls := 0
	count := func(int, *rand.Rand) float32 { calls++; return 0 }
	if _, err := Train(m, count, cfg); err == nil {
		t.Error("Expected Train to reject an unknown schedule")
	}
	if _, err := TrainParallel([]Model{m}, count, cfg); err == nil {
		t.Error("Expected TrainParallel to reject an unknown schedule")
	}
	if calls != 0 {
		t.Errorf("Expected no samples before the config is accepted, got %d", calls)
	}
}

func TestForEach(t *testing.T) {
	hits := make([]int, 50)
	ForEach(len(hits), 4, func(i int) { hits[i]++ })
	for i, h := range hits {
		if h != 1 {
			t.Errorf("index %d ran %d times", i, h)
		}
	}
	ForEach(0, 4, func(int) { t.Error("body ran for an empty range") })
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func TestParseFlags(t *testing.T) {
	cfg := DefaultTrainingConfig()
	if err := ParseFlags("test", []string{"-epochs", "7", "-rate", "0.25", "-v=false"}, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Epochs != 7 || cfg.LearningRate != 0.25 || cfg.Verbose {
		t.Errorf("flags not applied: %+v", cfg)
	}

	path := filepath.Join(t.TempDir(), "train.json")
	os.WriteFile(path, []byte(`{"epochs": 3, "samples_per_epoch": 9}`), 0o644)
	cfg = DefaultTrainingConfig()
	if err := ParseFlags("test", []string{"-config", path, "-samples", "11"}, cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Epochs != 3 {
		t.Errorf("Expected epochs 3 from the file, got %d", cfg.Epochs)
	}
	if cfg.SamplesPerEpoch != 11 {
		t.Errorf("Expected the flag to override samples, got %d", cfg.SamplesPerEpoch)
	}

	if err := ParseFlags("test", []string{"-rate", "fast"}, DefaultTrainingConfig()); err == nil {
		t.Error("Expected an invalid rate to fail")
	}
	if err := ParseFlags("test", []string{"-epochs", "0"}, DefaultTrainingConfig()); err == nil {
		t.Error("Expected zero epochs to fail validation")
	}
}
