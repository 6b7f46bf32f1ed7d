package trainer

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/klauspost/cpuid/v2"
	"github.com/sirupsen/logrus"
)

// TrainingConfig holds configuration for a training run
type TrainingConfig struct {
	Epochs          int     `json:"epochs"`
	SamplesPerEpoch int     `json:"samples_per_epoch"`
	LearningRate    float32 `json:"learning_rate"`
	Threads         int     `json:"threads"`   // Workers for TrainParallel (0 = one per logical core)
	Seed            int64   `json:"seed"`      // Worker w draws samples from rand.NewSource(Seed + w)
	LogEvery        int     `json:"log_every"` // Log the epoch loss every N epochs (0 = only the summary)
	Verbose         bool    `json:"verbose"`

	// Learning rate schedule
	Schedule        string  `json:"schedule"`          // "constant", "linear" or "cosine"
	MinLearningRate float32 `json:"min_learning_rate"` // Rate reached by decaying schedules (default: 0)
	WarmupEpochs    int     `json:"warmup_epochs"`     // Epochs ramping up from MinLearningRate (default: 0)

	Logger *logrus.Logger `json:"-"` // nil = logrus.New()
}

// DefaultTrainingConfig returns the settings used by the letter scenarios
func DefaultTrainingConfig() *TrainingConfig {
	return &TrainingConfig{
		Epochs:          1000,
		SamplesPerEpoch: 100,
		LearningRate:    0.01,
		Threads:         DefaultThreads(),
		Seed:            1,
		LogEvery:        100,
		Verbose:         true,
		Schedule:        "constant",
	}
}

// DefaultThreads returns the number of logical cores
func DefaultThreads() int {
	if n := cpuid.CPU.LogicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// LoadTrainingConfig reads a JSON config file. Fields missing from the file keep
// their DefaultTrainingConfig values.
func LoadTrainingConfig(path string) (*TrainingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read training config: %w", err)
	}
	cfg := DefaultTrainingConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse training config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that cannot run
func (c *TrainingConfig) Validate() error {
	switch {
	case c.Epochs <= 0:
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	case c.SamplesPerEpoch <= 0:
		return fmt.Errorf("samples per epoch must be positive, got %d", c.SamplesPerEpoch)
	case c.LearningRate <= 0:
		return fmt.Errorf("learning rate must be positive, got %g", c.LearningRate)
	case c.Threads < 0:
		return fmt.Errorf("threads must not be negative, got %d", c.Threads)
	case c.LogEvery < 0:
		return fmt.Errorf("log interval must not be negative, got %d", c.LogEvery)
	case c.MinLearningRate < 0:
		return fmt.Errorf("minimum learning rate must not be negative, got %g", c.MinLearningRate)
	case c.WarmupEpochs < 0 || c.WarmupEpochs >= c.Epochs:
		return fmt.Errorf("warmup epochs must be in [0, %d), got %d", c.Epochs, c.WarmupEpochs)
	}
	if _, err := NewScheduler(c); err != nil {
		return err
	}
	return nil
}

func (c *TrainingConfig) logger() *logrus.Logger {
	if c.Logger == nil {
		c.Logger = logrus.New()
	}
	return c.Logger
}

func (c *TrainingConfig) threads() int {
	if c.Threads == 0 {
		return DefaultThreads()
	}
	return c.Threads
}
