package trainer

import (
	"fmt"

	"github.com/chewxy/math32"
)

// LRScheduler yields the learning rate passed to Update at the end of each epoch
type LRScheduler interface {
	GetLR(epoch int) float32
	Name() string
}

// ConstantScheduler keeps the configured rate for every epoch
type ConstantScheduler struct {
	rate float32
}

func NewConstantScheduler(rate float32) *ConstantScheduler {
	return &ConstantScheduler{rate: rate}
}

func (s *ConstantScheduler) GetLR(int) float32 { return s.rate }

func (s *ConstantScheduler) Name() string { return "Constant" }

// DecayScheduler moves from one rate to another over a number of epochs along
// a curve mapping training progress in [0, 1] to the fraction of the rate
// still left, then holds the final rate.
type DecayScheduler struct {
	name   string
	from   float32
	to     float32
	epochs int
	curve  func(progress float32) float32
}

// NewLinearDecayScheduler decays linearly from initial to final over epochs
func NewLinearDecayScheduler(initial, final float32, epochs int) *DecayScheduler {
	return &DecayScheduler{
		name: "LinearDecay", from: initial, to: final, epochs: epochs,
		curve: func(p float32) float32 { return 1 - p },
	}
}

// NewCosineAnnealingScheduler follows half a cosine from initial down to floor over epochs
func NewCosineAnnealingScheduler(initial, floor float32, epochs int) *DecayScheduler {
	return &DecayScheduler{
		name: "CosineAnnealing", from: initial, to: floor, epochs: epochs,
		curve: func(p float32) float32 { return (1 + math32.Cos(math32.Pi*p)) / 2 },
	}
}

func (s *DecayScheduler) GetLR(epoch int) float32 {
	if epoch >= s.epochs {
		return s.to
	}
	left := s.curve(float32(epoch) / float32(s.epochs))
	return s.to + (s.from-s.to)*left
}

func (s *DecayScheduler) Name() string { return s.name }

// WarmupScheduler ramps linearly from a low rate to the base rate during the
// first epochs, then hands over to another schedule counting from zero again
type WarmupScheduler struct {
	epochs int
	low    float32
	base   float32
	after  LRScheduler
}

func NewWarmupScheduler(epochs int, low, base float32, after LRScheduler) *WarmupScheduler {
	return &WarmupScheduler{epochs: epochs, low: low, base: base, after: after}
}

func (s *WarmupScheduler) GetLR(epoch int) float32 {
	if epoch < s.epochs {
		return s.low + (s.base-s.low)*float32(epoch)/float32(s.epochs)
	}
	if s.after != nil {
		return s.after.GetLR(epoch - s.epochs)
	}
	return s.base
}

func (s *WarmupScheduler) Name() string {
	if s.after != nil {
		return "Warmup+" + s.after.Name()
	}
	return "Warmup"
}

// NewScheduler builds the schedule named by cfg.Schedule. Decaying schedules
// reach cfg.MinLearningRate at the last epoch; cfg.WarmupEpochs prepends a ramp
// from MinLearningRate.
func NewScheduler(cfg *TrainingConfig) (LRScheduler, error) {
	decay := cfg.Epochs - cfg.WarmupEpochs
	var s LRScheduler
	switch cfg.Schedule {
	case "", "constant":
		s = NewConstantScheduler(cfg.LearningRate)
	case "linear":
		s = NewLinearDecayScheduler(cfg.LearningRate, cfg.MinLearningRate, decay)
	case "cosine":
		s = NewCosineAnnealingScheduler(cfg.LearningRate, cfg.MinLearningRate, decay)
	default:
		return nil, fmt.Errorf("unknown learning rate schedule %q", cfg.Schedule)
	}
	if cfg.WarmupEpochs > 0 {
		s = NewWarmupScheduler(cfg.WarmupEpochs, cfg.MinLearningRate, cfg.LearningRate, s)
	}
	return s, nil
}
