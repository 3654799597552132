package reward

import (
	"math/rand"
	"time"

	"github.com/grindstone/activity-engine/engine"
)

// secondsPerMinute is the reward granularity: only whole tracked minutes
// earn XP.
const secondsPerMinute = 60

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator computes XP earned for a completed session. It is not safe
// for concurrent use; the session tracker serializes calls.
type Calculator struct {
	rng *rand.Rand
}

type Option func(*Calculator)

// WithRand injects a deterministic random source. Tests only.
func WithRand(rng *rand.Rand) Option {
	return func(c *Calculator) { c.rng = rng }
}

func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Earn returns the XP for a session of the given duration at the given
// rate. Sessions shorter than a minute earn nothing. Ranged rates roll
// every whole minute independently, so variance grows with session
// length; a single multiply would not reproduce that distribution.
func (c *Calculator) Earn(durationSeconds int64, spec RateSpec) engine.XP {
	if durationSeconds < secondsPerMinute {
		return engine.XPFromInt(0)
	}

	minutes := durationSeconds / secondsPerMinute

	if !spec.Ranged() {
		return engine.XPFromInt(minutes * int64(spec.Rate()))
	}

	min, max := spec.Range()
	var earned int64
	for i := int64(0); i < minutes; i++ {
		earned += int64(c.rng.Intn(max-min+1) + min)
	}
	return engine.XPFromInt(earned)
}
