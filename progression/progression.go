/*
Package progression provides the pure level curve math: total XP to level,
level to cumulative XP, and XP distances between levels.

PURPOSE:
  Maps accumulated XP onto a leveling progression. The curve is piecewise
  inverse-quadratic: cheap early levels, then two steeper segments after
  levels 16 and 31. All functions are stateless and total over their
  domains.

THE CURVE:
  Cumulative XP required to have reached a level:
    level <= 16:  level^2 + 6*level
    level <= 31:  2.5*level^2 - 40.5*level + 360
    level  > 31:  4.5*level^2 - 162.5*level + 2220
  LevelForXP is the floor of the inverse of that curve. The segment
  boundaries fall at 352 XP (level 16) and 1507 XP (level 31).

BOUNDARY PRECISION:
  The inverse is evaluated in float64 with the curve's exact rational
  constants written as quotients (7839/40, 54215/72, 325/18, 2/9, 2/5,
  81/10). Boundary inputs produce exact perfect squares under those
  constants, so a 1e-9 epsilon is added before flooring to keep a
  one-ulp-low sqrt from dropping a level at the seams.

SEE ALSO:
  - reward: converts session time into the XP fed to this curve
  - tracker: recomputes the cached level on every reward grant
*/
package progression

import (
	"math"

	"github.com/grindstone/activity-engine/engine"
)

// Exact rational constants of the inverse curve.
const (
	midOffset  = 7839.0 / 40.0  // 195.975
	midScale   = 2.0 / 5.0      // 0.4
	midBase    = 81.0 / 10.0    // 8.1
	highOffset = 54215.0 / 72.0 // 752.986...
	highScale  = 2.0 / 9.0      // 0.222...
	highBase   = 325.0 / 18.0   // 18.0555...

	// Cumulative XP at the segment boundaries (levels 16 and 31).
	midThresholdXP  = 352
	highThresholdXP = 1507

	// Level boundaries of the forward curve segments.
	lowMaxLevel = 16
	midMaxLevel = 31
)

// floorEps guards exact-boundary inputs against a downward-rounded sqrt.
const floorEps = 1e-9

// =============================================================================
// INVERSE: total XP -> level
// =============================================================================

// LevelForXP maps total accumulated XP to a level. Non-positive XP is
// level 0. Monotonic non-decreasing in total XP.
func LevelForXP(total engine.XP) int {
	x := total.Value.InexactFloat64()
	if x <= 0 {
		return 0
	}

	var lvl float64
	switch {
	case x <= midThresholdXP:
		lvl = math.Sqrt(x+9) - 3
	case x <= highThresholdXP:
		lvl = midBase + math.Sqrt(midScale*(x-midOffset))
	default:
		lvl = highBase + math.Sqrt(highScale*(x-highOffset))
	}

	return int(math.Floor(lvl + floorEps))
}

// =============================================================================
// FORWARD: level -> cumulative XP
// =============================================================================

// XPCollectedForLevel returns the cumulative XP required to have reached
// the given level, truncated to an integer. Levels at or below zero
// require no XP.
func XPCollectedForLevel(level int) int64 {
	if level <= 0 {
		return 0
	}

	l := float64(level)
	var xp float64
	switch {
	case level <= lowMaxLevel:
		xp = l*l + 6*l
	case level <= midMaxLevel:
		xp = 2.5*l*l - 40.5*l + 360
	default:
		xp = 4.5*l*l - 162.5*l + 2220
	}
	return int64(xp)
}

// XPLeftoverForLevel returns the XP distance from the start of level to
// the start of level+1. Negative levels yield 0.
func XPLeftoverForLevel(level int) int64 {
	if level < 0 {
		return 0
	}

	l := int64(level)
	switch {
	case level <= lowMaxLevel-1:
		return 2*l + 7
	case level <= midMaxLevel-1:
		return 5*l - 38
	default:
		return 9*l - 158
	}
}

// XPNeededForNextLevel returns the cumulative XP threshold at which the
// next level is reached. Used as the progress-bar denominator.
func XPNeededForNextLevel(level int) int64 {
	return XPCollectedForLevel(level) + XPLeftoverForLevel(level)
}

// =============================================================================
// PROGRESS - Display-ready position within the current level
// =============================================================================

// Progress describes a user's position within their current level.
type Progress struct {
	Level       int       // current level
	TotalXP     engine.XP // the total the view was derived from
	LevelFloor  int64     // cumulative XP at the start of the current level
	NextLevelAt int64     // cumulative XP threshold for the next level
	Fraction    float64   // position within the level, clamped to [0,1]
}

// ProgressFor computes the progress-bar view for a total XP amount.
func ProgressFor(total engine.XP) Progress {
	level := LevelForXP(total)
	floor := XPCollectedForLevel(level)
	next := XPNeededForNextLevel(level)

	frac := 0.0
	if next > floor {
		frac = (total.Value.InexactFloat64() - float64(floor)) / float64(next-floor)
	}
	frac = math.Min(math.Max(frac, 0), 1)

	return Progress{
		Level:       level,
		TotalXP:     total,
		LevelFloor:  floor,
		NextLevelAt: next,
		Fraction:    frac,
	}
}
