package trainer

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openfluke/seqnet/nn"
)

// Model is a trainable component: it walks its weights and accumulated
// gradient, and Update applies then clears that gradient.
type Model interface {
	nn.Visitable
	Update(rate float32)
	ClearGradients()
}

// SampleFunc draws one sample with rng, runs ready and study on the model owned
// by worker, and returns the sample loss. Train always passes worker 0.
type SampleFunc func(worker int, rng *rand.Rand) float32

// TrainingResult contains training statistics
type TrainingResult struct {
	FinalLoss     float64
	BestLoss      float64
	TotalTime     time.Duration
	AvgThroughput float64   // samples per second
	LossHistory   []float64 // mean sample loss per epoch
}

// Train runs cfg.Epochs epochs on one model. Every epoch studies
// cfg.SamplesPerEpoch samples and then updates once at the scheduled rate.
func Train(model Model, sample SampleFunc, cfg *TrainingConfig) (*TrainingResult, error) {
	if cfg == nil {
		cfg = DefaultTrainingConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training config: %w", err)
	}
	log := cfg.logger()
	sched, err := NewScheduler(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid training config: %w", err)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	logStart(log, cfg, sched, nn.CountParameters(model), 1)
	result := newResult(cfg)
	start := time.Now()

	model.ClearGradients()
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		total := float32(0)
		for i := 0; i < cfg.SamplesPerEpoch; i++ {
			total += sample(0, rng)
		}
		model.Update(sched.GetLR(epoch))
		result.record(log, cfg, epoch, total, start)
	}

	return result.finish(log, cfg, start), nil
}

// TrainParallel trains identical copies of one model, one per worker. Samples
// of an epoch are dealt round-robin to the workers, at most cfg.Threads of
// which run at once. The workers' gradients are summed through a
// SharedGradients and every copy applies the same sum, so the copies stay
// identical. Callers synchronise the initial weights, e.g. with nn.CopyWeights.
func TrainParallel(models []Model, sample SampleFunc, cfg *TrainingConfig) (*TrainingResult, error) {
	if cfg == nil {
		cfg = DefaultTrainingConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training config: %w", err)
	}
	if len(models) == 0 {
		return nil, fmt.Errorf("no models to train")
	}
	n := nn.CountParameters(models[0])
	for w, m := range models[1:] {
		if got := nn.CountParameters(m); got != n {
			return nil, fmt.Errorf("worker %d has %d parameters, worker 0 has %d", w+1, got, n)
		}
	}
	log := cfg.logger()
	sched, err := NewScheduler(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid training config: %w", err)
	}
	threads := cfg.threads()

	workers := len(models)
	rngs := make([]*rand.Rand, workers)
	for w := range rngs {
		rngs[w] = rand.New(rand.NewSource(cfg.Seed + int64(w)))
	}
	losses := make([]float32, workers)
	shared := NewSharedGradients(models[0])

	logStart(log, cfg, sched, n, threads)
	result := newResult(cfg)
	start := time.Now()

	for _, m := range models {
		m.ClearGradients()
	}
	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		ForEach(workers, threads, func(w int) {
			loss := float32(0)
			for i := w; i < cfg.SamplesPerEpoch; i += workers {
				loss += sample(w, rngs[w])
			}
			losses[w] = loss
			shared.Contribute(models[w])
		})
		shared.Publish()

		rate := sched.GetLR(epoch)
		ForEach(workers, threads, func(w int) {
			shared.Apply(models[w])
			models[w].Update(rate)
		})

		total := float32(0)
		for _, l := range losses {
			total += l
		}
		result.record(log, cfg, epoch, total, start)
	}

	return result.finish(log, cfg, start), nil
}

func logStart(log *logrus.Logger, cfg *TrainingConfig, sched LRScheduler, params, threads int) {
	if !cfg.Verbose {
		return
	}
	log.WithFields(logrus.Fields{
		"epochs":            cfg.Epochs,
		"samples_per_epoch": cfg.SamplesPerEpoch,
		"learning_rate":     cfg.LearningRate,
		"schedule":          sched.Name(),
		"parameters":        params,
		"threads":           threads,
	}).Info("Starting training")
}

func newResult(cfg *TrainingConfig) *TrainingResult {
	return &TrainingResult{
		BestLoss:    math.MaxFloat64,
		LossHistory: make([]float64, 0, cfg.Epochs),
	}
}

func (r *TrainingResult) record(log *logrus.Logger, cfg *TrainingConfig, epoch int, total float32, start time.Time) {
	avg := float64(total) / float64(cfg.SamplesPerEpoch)
	r.LossHistory = append(r.LossHistory, avg)
	if avg < r.BestLoss {
		r.BestLoss = avg
	}
	if cfg.Verbose && cfg.LogEvery > 0 && (epoch+1)%cfg.LogEvery == 0 {
		log.WithFields(logrus.Fields{
			"epoch":   epoch + 1,
			"loss":    avg,
			"elapsed": time.Since(start).Round(time.Millisecond),
		}).Info("Epoch complete")
	}
}

func (r *TrainingResult) finish(log *logrus.Logger, cfg *TrainingConfig, start time.Time) *TrainingResult {
	r.FinalLoss = r.LossHistory[len(r.LossHistory)-1]
	r.TotalTime = time.Since(start)
	if secs := r.TotalTime.Seconds(); secs > 0 {
		r.AvgThroughput = float64(cfg.Epochs*cfg.SamplesPerEpoch) / secs
	}
	if cfg.Verbose {
		log.WithFields(logrus.Fields{
			"final_loss": r.FinalLoss,
			"best_loss":  r.BestLoss,
			"duration":   r.TotalTime.Round(time.Millisecond),
		}).Info("Training complete")
	}
	return r
}
