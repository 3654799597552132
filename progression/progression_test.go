package progression_test

import (
	"testing"

	"github.com/grindstone/activity-engine/engine"
	"github.com/grindstone/activity-engine/progression"
)

// =============================================================================
// INVERSE CURVE
// =============================================================================

func TestLevelForXP_NonPositive(t *testing.T) {
	// GIVEN: Zero or negative total XP
	// WHEN: Computing the level
	// THEN: Level is 0

	if got := progression.LevelForXP(engine.XPFromInt(0)); got != 0 {
		t.Errorf("LevelForXP(0) = %d, want 0", got)
	}
	if got := progression.LevelForXP(engine.XPFromInt(-10)); got != 0 {
		t.Errorf("LevelForXP(-10) = %d, want 0", got)
	}
}

func TestLevelForXP_SpotValues(t *testing.T) {
	// GIVEN: Known points on the curve, including the segment boundaries
	// WHEN: Computing levels
	// THEN: Values match the curve's exact thresholds

	cases := []struct {
		xp   int64
		want int
	}{
		{1, 0},
		{6, 0},
		{7, 1}, // level 1 needs 7 XP
		{15, 1},
		{16, 2},
		{351, 15},
		{352, 16},   // low/mid boundary
		{353, 16},
		{393, 16},
		{394, 17},
		{1506, 30},
		{1507, 31},  // mid/high boundary
		{1508, 31},
		{1627, 31},
		{1628, 32},
	}

	for _, tc := range cases {
		if got := progression.LevelForXP(engine.XPFromInt(tc.xp)); got != tc.want {
			t.Errorf("LevelForXP(%d) = %d, want %d", tc.xp, got, tc.want)
		}
	}
}

func TestLevelForXP_Monotonic(t *testing.T) {
	// GIVEN: Every XP total from 0 to well past both segment boundaries
	// WHEN: Sweeping the inverse curve
	// THEN: The level never decreases as XP increases

	prev := 0
	for x := int64(0); x <= 5000; x++ {
		lvl := progression.LevelForXP(engine.XPFromInt(x))
		if lvl < prev {
			t.Fatalf("level decreased at %d XP: %d -> %d", x, prev, lvl)
		}
		prev = lvl
	}
}

// =============================================================================
// FORWARD CURVE AND ROUND-TRIPS
// =============================================================================

func TestXPCollectedForLevel_SpotValues(t *testing.T) {
	// GIVEN: Levels across all three curve segments
	// WHEN: Computing cumulative XP
	// THEN: Values match the piecewise quadratic

	cases := []struct {
		level int
		want  int64
	}{
		{0, 0},
		{-3, 0},
		{1, 7},
		{2, 16},
		{15, 315},
		{16, 352},
		{17, 394},
		{30, 1395},
		{31, 1507},
		{32, 1628},
		{50, 5345},
	}

	for _, tc := range cases {
		if got := progression.XPCollectedForLevel(tc.level); got != tc.want {
			t.Errorf("XPCollectedForLevel(%d) = %d, want %d", tc.level, got, tc.want)
		}
	}
}

func TestCurve_RoundTrip(t *testing.T) {
	// GIVEN: Levels spanning all segments and both boundaries
	// WHEN: Mapping level -> threshold XP -> level
	// THEN: Reaching the threshold gives exactly that level, and one XP
	//       short of the next threshold stays at it

	for _, level := range []int{0, 1, 2, 15, 16, 17, 30, 31, 32, 50} {
		floor := progression.XPCollectedForLevel(level)
		if got := progression.LevelForXP(engine.XPFromInt(floor)); got != level {
			t.Errorf("LevelForXP(collected(%d)=%d) = %d, want %d", level, floor, got, level)
		}

		next := progression.XPNeededForNextLevel(level)
		if got := progression.LevelForXP(engine.XPFromInt(next - 1)); got != level {
			t.Errorf("LevelForXP(%d) = %d, want %d (one short of level %d)", next-1, got, level, level+1)
		}
		if got := progression.LevelForXP(engine.XPFromInt(next)); got != level+1 {
			t.Errorf("LevelForXP(%d) = %d, want %d", next, got, level+1)
		}
	}
}

func TestXPLeftoverForLevel(t *testing.T) {
	// GIVEN: Levels in each per-level cost segment
	// WHEN: Computing the XP distance to the next level
	// THEN: The linear per-segment formulas hold and agree with the
	//       cumulative curve's differences

	cases := []struct {
		level int
		want  int64
	}{
		{-1, 0},
		{0, 7},
		{1, 9},
		{15, 37},
		{16, 42},
		{30, 112},
		{31, 121},
		{40, 202},
	}

	for _, tc := range cases {
		if got := progression.XPLeftoverForLevel(tc.level); got != tc.want {
			t.Errorf("XPLeftoverForLevel(%d) = %d, want %d", tc.level, got, tc.want)
		}
	}

	for level := 0; level <= 60; level++ {
		diff := progression.XPCollectedForLevel(level+1) - progression.XPCollectedForLevel(level)
		if got := progression.XPLeftoverForLevel(level); got != diff {
			t.Errorf("leftover(%d) = %d, but collected diff is %d", level, got, diff)
		}
	}
}

// =============================================================================
// PROGRESS VIEW
// =============================================================================

func TestProgressFor(t *testing.T) {
	// GIVEN: A total halfway between two level thresholds
	// WHEN: Computing the progress view
	// THEN: Fraction reflects the position within the level, clamped to [0,1]

	// Level 1 spans 7..16, so 11.5 XP is exactly halfway.
	p := progression.ProgressFor(engine.XPFromFloat(11.5))
	if p.Level != 1 {
		t.Fatalf("level = %d, want 1", p.Level)
	}
	if p.LevelFloor != 7 || p.NextLevelAt != 16 {
		t.Errorf("bounds = [%d, %d], want [7, 16]", p.LevelFloor, p.NextLevelAt)
	}
	if p.Fraction < 0.49 || p.Fraction > 0.51 {
		t.Errorf("fraction = %f, want ~0.5", p.Fraction)
	}

	// Zero XP sits at the start of level 0.
	p = progression.ProgressFor(engine.XPFromInt(0))
	if p.Level != 0 || p.Fraction != 0 {
		t.Errorf("zero XP: level=%d fraction=%f, want 0 and 0", p.Level, p.Fraction)
	}
}
