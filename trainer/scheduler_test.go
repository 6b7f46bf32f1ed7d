package trainer

import (
	"math"
	"testing"
)

func TestSchedulers(t *testing.T) {
	tests := []struct {
		name  string
		sched LRScheduler
		epoch int
		want  float32
	}{
		{"constant", NewConstantScheduler(0.1), 50, 0.1},
		{"linear start", NewLinearDecayScheduler(0.1, 0, 100), 0, 0.1},
		{"linear middle", NewLinearDecayScheduler(0.1, 0, 100), 50, 0.05},
		{"linear end", NewLinearDecayScheduler(0.1, 0, 100), 200, 0},
		{"cosine start", NewCosineAnnealingScheduler(0.1, 0.01, 100), 0, 0.1},
		{"cosine middle", NewCosineAnnealingScheduler(0.1, 0.01, 100), 50, 0.055},
		{"cosine end", NewCosineAnnealingScheduler(0.1, 0.01, 100), 100, 0.01},
		{"warmup start", NewWarmupScheduler(10, 0, 0.1, nil), 0, 0},
		{"warmup middle", NewWarmupScheduler(10, 0, 0.1, nil), 5, 0.05},
		{"warmup then decay", NewWarmupScheduler(10, 0, 0.1, NewLinearDecayScheduler(0.1, 0, 100)), 60, 0.05},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.sched.GetLR(tt.epoch)
			if math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("Expected %g, got %g", tt.want, got)
			}
		})
	}
}

func TestNewScheduler(t *testing.T) {
	cfg := DefaultTrainingConfig()
	cfg.Epochs = 110
	cfg.Schedule = "cosine"
	cfg.WarmupEpochs = 10
	s, err := NewScheduler(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if s.Name() != "Warmup+CosineAnnealing" {
		t.Errorf("Expected Warmup+CosineAnnealing, got %s", s.Name())
	}
	if got := s.GetLR(10); got != cfg.LearningRate {
		t.Errorf("Expected the full rate after warmup, got %g", got)
	}

	cfg.Schedule = "exponential"
	if _, err := NewScheduler(cfg); err == nil {
		t.Error("Expected an unknown schedule to fail")
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected Validate to reject an unknown schedule")
	}
}

func TestDecayStaysWithinBounds(t *testing.T) {
	for _, s := range []LRScheduler{
		NewLinearDecayScheduler(0.2, 0.02, 30),
		NewCosineAnnealingScheduler(0.2, 0.02, 30),
	} {
		prev := s.GetLR(0)
		for epoch := 1; epoch <= 40; epoch++ {
			got := s.GetLR(epoch)
			if got > prev+1e-7 {
				t.Errorf("%s: expected a non-increasing rate, epoch %d went from %g to %g", s.Name(), epoch, prev, got)
			}
			if got < 0.02-1e-7 {
				t.Errorf("%s: expected the rate to stay above the floor, got %g at epoch %d", s.Name(), got, epoch)
			}
			prev = got
		}
	}

	// a single decay epoch after warmup lands on the floor
	cfg := DefaultTrainingConfig()
	cfg.Epochs = 6
	cfg.WarmupEpochs = 5
	cfg.Schedule = "linear"
	cfg.MinLearningRate = 0.01
	s, err := NewScheduler(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if got := s.GetLR(5); got != cfg.LearningRate {
		t.Errorf("Expected the full rate once warmup ends, got %g", got)
	}
	if got := s.GetLR(6); got != 0.01 {
		t.Errorf("Expected the floor after the last decay epoch, got %g", got)
	}
}
