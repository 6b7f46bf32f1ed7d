package trainer

import (
	"sync"

	"github.com/openfluke/seqnet/nn"
)

// ForEach runs body(0) … body(length-1) with at most limit running at once
func ForEach(length, limit int, body func(i int)) {
	if limit <= 0 {
		limit = 1
	}
	if length <= 0 {
		return
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	wg.Add(length)

	for i := 0; i < length; i++ {
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			body(i)
		}(i)
	}

	wg.Wait()
}

// SharedGradients combines the gradients of workers that hold identical copies
// of one model.
//
// Workers Contribute their accumulated gradient into the pending buffer. Once
// all have contributed, Publish makes the sum visible and starts a new round,
// and each worker Applies the combined gradient to its own accumulator before
// calling Update. Gradients are matched positionally in visiting order.
type SharedGradients struct {
	mu       sync.RWMutex
	pending  []float32
	combined []float32
	count    int
}

// NewSharedGradients sizes the buffers for models shaped like m
func NewSharedGradients(m nn.WeightVisitor) *SharedGradients {
	n := nn.CountParameters(m)
	return &SharedGradients{
		pending:  make([]float32, n),
		combined: make([]float32, n),
	}
}

// Len returns the number of gradient scalars per model
func (s *SharedGradients) Len() int {
	return len(s.pending)
}

// Contribute adds the accumulated gradient of m to the pending round
func (s *SharedGradients) Contribute(m nn.Visitable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nn.AddGradients(s.pending, m)
	s.count++
}

// Publish moves the pending sum into the combined buffer, clears the pending
// buffer and returns how many models contributed to it
func (s *SharedGradients) Publish() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending, s.combined = s.combined, s.pending
	for i := range s.pending {
		s.pending[i] = 0
	}
	n := s.count
	s.count = 0
	return n
}

// Apply overwrites the accumulated gradient of m with the combined gradient
func (s *SharedGradients) Apply(m nn.Visitable) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nn.ScatterGradients(m, s.combined)
}

// Combined returns a copy of the last published gradient
func (s *SharedGradients) Combined() []float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]float32(nil), s.combined...)
}
