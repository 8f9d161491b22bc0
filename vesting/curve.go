/*
curve.go - Time-based unlock curve

PURPOSE:
  Maps elapsed time since funding to the unlocked fraction of the total
  grant. The curve has three segments:

    t < cliff            : TGE fraction only (the TGE portion unlocks at
                           t=0; the cliff blocks the linear portion only)
    cliff <= t < vesting : TGE + linear interpolation of the remainder
                           over the cliff-to-vesting window
    t >= vesting         : fully unlocked

  The function is pure and total - no state, no error conditions. All
  interpolation uses integer floor division so the curve never rounds
  tokens into existence.
*/
package vesting

// UnlockedBps returns the unlocked fraction (in basis points) of the
// total grant after elapsed seconds. Negative elapsed returns 0: it
// cannot occur given StartTime semantics, but the curve is defensive.
func UnlockedBps(elapsed, cliffSeconds, vestingSeconds int64, tge Fraction) Fraction {
	if elapsed < 0 {
		return 0
	}
	if elapsed >= vestingSeconds {
		return Denominator
	}
	if elapsed < cliffSeconds {
		return tge
	}

	// Linear segment. Window is non-empty because Configure enforces
	// cliff < vesting. Intermediate values fit comfortably in int64:
	// Denominator * MaxVestingDuration < 2^49.
	window := vestingSeconds - cliffSeconds
	progressed := elapsed - cliffSeconds
	linear := int64(Denominator-tge) * progressed / window
	return tge + Fraction(linear)
}
