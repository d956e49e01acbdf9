// Package settlement simulates the bank-side settlement of a payment.
// It produces a processing delay and a success/failure outcome, either from
// forced test configuration or from a random draw weighted per method.
package settlement

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Delay bounds for randomized mode.
const (
	MinDelay = 5 * time.Second
	MaxDelay = 10 * time.Second
)

// Method-dependent success probabilities for randomized mode.
const (
	upiSuccessRate  = 0.90
	cardSuccessRate = 0.95
)

// Config controls the simulator mode. When TestMode is off, or a forced
// value is nil, the corresponding value is drawn randomly.
type Config struct {
	TestMode      bool
	ForcedDelay   *time.Duration
	ForcedOutcome *bool
}

// Outcome is the settlement verdict for a single payment.
type Outcome struct {
	Delay   time.Duration
	Success bool
}

// Simulator decides settlement outcomes. It holds no persistence and no
// knowledge of orders or payments. Safe for concurrent use: one Simulator is
// shared by every in-flight payment request, and rand.Rand is not, so draws
// are serialized under mu.
type Simulator struct {
	cfg Config
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Simulator. rng may be nil, in which case a PCG source seeded
// from the global generator is used; tests inject a seeded source for
// reproducible draws.
func New(cfg Config, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Simulator{cfg: cfg, rng: rng}
}

// Settle returns the delay and outcome for a payment using the given method
// ("upi" or "card"). In randomized mode exactly one uniform draw decides
// success; it is never re-sampled.
func (s *Simulator) Settle(method string) Outcome {
	return Outcome{
		Delay:   s.delay(),
		Success: s.success(method),
	}
}

func (s *Simulator) delay() time.Duration {
	if s.cfg.TestMode && s.cfg.ForcedDelay != nil {
		return *s.cfg.ForcedDelay
	}

	s.mu.Lock()
	n := s.rng.Int64N(int64(MaxDelay - MinDelay))
	s.mu.Unlock()

	return MinDelay + time.Duration(n)
}

func (s *Simulator) success(method string) bool {
	if s.cfg.TestMode && s.cfg.ForcedOutcome != nil {
		return *s.cfg.ForcedOutcome
	}

	rate := cardSuccessRate
	if method == "upi" {
		rate = upiSuccessRate
	}

	s.mu.Lock()
	draw := s.rng.Float64()
	s.mu.Unlock()

	return draw < rate
}
