/*
Package reward converts completed session time into earned XP.

PURPOSE:
  A session earns XP per whole tracked minute, at a rate determined by the
  reward tier the user selected. Tiers mimic creature XP drops: a chicken
  is a small random trickle, a blaze a rich fixed rate.

KEY CONCEPTS:
  - Tier: a named reward-rate configuration (this file)
  - RateSpec: fixed-or-ranged per-minute rate, a tagged variant resolved
    once at lookup time (no runtime type inspection)
  - Calculator: applies a RateSpec to a duration (calculator.go)

TIER CATALOG:
  chicken  1-3 XP/min, rolled independently per minute
  zombie   5 XP/min fixed
  blaze    10 XP/min fixed

SEE ALSO:
  - calculator.go: the earn computation
  - progression: what the earned XP feeds into
*/
package reward

// Tier is a named reward-rate configuration selected by the user.
type Tier string

const (
	TierChicken Tier = "chicken"
	TierZombie  Tier = "zombie"
	TierBlaze   Tier = "blaze"
)

// =============================================================================
// RATE SPEC - Fixed(rate) | Ranged(min, max)
// =============================================================================

// RateSpec is the per-minute XP rate of a tier. Exactly one variant is
// set; construct via FixedRate or RangedRate.
type RateSpec struct {
	ranged   bool
	rate     int
	min, max int
}

// FixedRate earns the same XP every minute.
func FixedRate(perMinute int) RateSpec {
	return RateSpec{rate: perMinute}
}

// RangedRate earns a uniform random amount in [min, max] per minute, each
// minute rolled independently.
func RangedRate(min, max int) RateSpec {
	return RateSpec{ranged: true, min: min, max: max}
}

func (r RateSpec) Ranged() bool { return r.ranged }

func (r RateSpec) Rate() int { return r.rate }

func (r RateSpec) Range() (min, max int) { return r.min, r.max }

// =============================================================================
// CATALOG
// =============================================================================

var rates = map[Tier]RateSpec{
	TierChicken: RangedRate(1, 3),
	TierZombie:  FixedRate(5),
	TierBlaze:   FixedRate(10),
}

// RateFor resolves a tier to its rate. An unknown tier is a caller
// contract violation; ok is false so boundaries can reject it early.
func RateFor(tier Tier) (RateSpec, bool) {
	spec, ok := rates[tier]
	return spec, ok
}

// Tiers returns the catalog in a stable order.
func Tiers() []Tier {
	return []Tier{TierChicken, TierZombie, TierBlaze}
}
