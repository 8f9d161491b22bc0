package vesting

import "math/bits"

// =============================================================================
// CHECKED INTEGER MONEY MATH
// =============================================================================
// All fractions are integer, all division floors, all accumulators are
// unsigned with explicit overflow checks. Rounding therefore always favors
// the pool: the sum of floored per-recipient amounts never exceeds the
// exact pool amount.

// mulDivFloor computes floor(a * num / den) with a 128-bit intermediate.
// Returns ErrArithmeticOverflow if the quotient does not fit in uint64,
// and ErrInvariantViolation for a zero denominator (callers only ever
// pass fixed non-zero denominators).
func mulDivFloor(a, num, den uint64) (uint64, error) {
	if den == 0 {
		return 0, &InvariantError{Detail: "division by zero"}
	}
	hi, lo := bits.Mul64(a, num)
	if hi >= den {
		return 0, ErrArithmeticOverflow
	}
	quo, _ := bits.Div64(hi, lo, den)
	return quo, nil
}

// checkedAdd returns a+b or ErrArithmeticOverflow on wrap.
func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, ErrArithmeticOverflow
	}
	return sum, nil
}

// checkedSub returns a-b, or ErrInvariantViolation if b > a. By
// construction claimable amounts are never negative, so a shortfall here
// means committed state is corrupt.
func checkedSub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, &InvariantError{Detail: "negative claimable"}
	}
	return diff, nil
}
