package trainer

import (
	"flag"
	"fmt"
)

func newFlagSet(name string, cfg *TrainingConfig) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	path := fs.String("config", "", "JSON training config; explicit flags override it")
	fs.IntVar(&cfg.Epochs, "epochs", cfg.Epochs, "training epochs")
	fs.IntVar(&cfg.SamplesPerEpoch, "samples", cfg.SamplesPerEpoch, "samples studied per epoch")
	fs.IntVar(&cfg.Threads, "threads", cfg.Threads, "parallel workers (0 = one per logical core)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	fs.IntVar(&cfg.LogEvery, "log-every", cfg.LogEvery, "log the loss every N epochs")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "log training progress")
	fs.StringVar(&cfg.Schedule, "schedule", cfg.Schedule, "learning rate schedule: constant, linear or cosine")
	fs.IntVar(&cfg.WarmupEpochs, "warmup", cfg.WarmupEpochs, "warmup epochs")
	fs.Func("rate", fmt.Sprintf("learning rate (default %g)", cfg.LearningRate), func(s string) error {
		var rate float32
		if _, err := fmt.Sscan(s, &rate); err != nil {
			return fmt.Errorf("invalid learning rate %q: %w", s, err)
		}
		cfg.LearningRate = rate
		return nil
	})
	return fs, path
}

// ParseFlags fills cfg from command line arguments. When -config names a
// file, it replaces cfg first and the remaining flags are applied on top.
// A zero thread count is resolved to DefaultThreads.
func ParseFlags(name string, args []string, cfg *TrainingConfig) error {
	scratch := *cfg
	fs, path := newFlagSet(name, &scratch)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *path != "" {
		loaded, err := LoadTrainingConfig(*path)
		if err != nil {
			return err
		}
		loaded.Logger = cfg.Logger
		*cfg = *loaded
	}
	fs, _ = newFlagSet(name, cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Threads = cfg.threads()
	return nil
}
