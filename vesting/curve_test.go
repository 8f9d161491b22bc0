package vesting_test

import (
	"testing"

	"github.com/warp/vesting-engine/vesting"
)

// =============================================================================
// BOUNDARY VALUES
// =============================================================================

func TestUnlockCurve_Boundaries(t *testing.T) {
	// GIVEN: cliff=300s, vesting=1200s, no TGE unlock
	// THEN: nothing unlocks until the cliff, the linear segment starts at
	//       exactly the cliff, and everything is unlocked from vesting end on.
	cases := []struct {
		elapsed int64
		want    vesting.Fraction
	}{
		{-10, 0},
		{0, 0},
		{299, 0},
		{300, 0}, // linear start: zero progressed seconds
		{750, 5000},
		{1199, 9988}, // floor(10000*899/900)
		{1200, vesting.Denominator},
		{5000, vesting.Denominator},
	}
	for _, c := range cases {
		got := vesting.UnlockedBps(c.elapsed, 300, 1200, 0)
		if got != c.want {
			t.Errorf("UnlockedBps(%d) = %d, want %d", c.elapsed, got, c.want)
		}
	}
}

func TestUnlockCurve_TGEUnlocksBeforeCliff(t *testing.T) {
	// GIVEN: 10% TGE, cliff=300s, vesting=1200s
	// THEN: the TGE fraction is available from t=0, the cliff only blocks
	//       the linear portion.
	tge := vesting.Fraction(1000)

	if got := vesting.UnlockedBps(0, 300, 1200, tge); got != tge {
		t.Errorf("at t=0 got %d, want %d", got, tge)
	}
	if got := vesting.UnlockedBps(299, 300, 1200, tge); got != tge {
		t.Errorf("just before cliff got %d, want %d", got, tge)
	}

	// Midway through the linear window: 1000 + 9000*450/900 = 5500.
	if got := vesting.UnlockedBps(750, 300, 1200, tge); got != 5500 {
		t.Errorf("midway got %d, want 5500", got)
	}
}

func TestUnlockCurve_FloorDivision(t *testing.T) {
	// GIVEN: a 7-second vesting window with no cliff
	// THEN: interpolation floors, it never rounds up.
	if got := vesting.UnlockedBps(1, 0, 7, 0); got != 1428 {
		t.Errorf("got %d, want 1428 (floor of 10000/7)", got)
	}
}

// =============================================================================
// MONOTONICITY
// =============================================================================

func TestUnlockCurve_Monotonic(t *testing.T) {
	// GIVEN: any two times t1 < t2
	// THEN: unlocked(t1) <= unlocked(t2), for several tge/cliff combos.
	configs := []struct {
		cliff, vest int64
		tge         vesting.Fraction
	}{
		{0, 1000, 0},
		{300, 1200, 0},
		{300, 1200, 1000},
		{0, 86400, 2500},
	}
	for _, cfg := range configs {
		prev := vesting.Fraction(0)
		for elapsed := int64(-5); elapsed <= cfg.vest+100; elapsed += 7 {
			got := vesting.UnlockedBps(elapsed, cfg.cliff, cfg.vest, cfg.tge)
			if got < prev {
				t.Fatalf("curve decreased at elapsed=%d: %d < %d (cfg %+v)", elapsed, got, prev, cfg)
			}
			if got > vesting.Denominator {
				t.Fatalf("curve exceeded denominator at elapsed=%d: %d", elapsed, got)
			}
			prev = got
		}
	}
}
