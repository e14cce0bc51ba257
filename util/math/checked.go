package math

import (
	"math/bits"

	"github.com/pkg/errors"
)

// ErrOverflow is returned whenever a checked operation would wrap around.
// It is never a business-rule failure: callers treat it as fatal.
var ErrOverflow = errors.New("arithmetic overflow")

// AddUint64 returns x+y, or ErrOverflow if the sum does not fit in a uint64.
func AddUint64(x, y uint64) (uint64, error) {
	sum, carry := bits.Add64(x, y, 0)
	if carry != 0 {
		return 0, errors.Wrapf(ErrOverflow, "%d + %d", x, y)
	}
	return sum, nil
}

// SubUint64 returns x-y, or ErrOverflow if y is greater than x.
func SubUint64(x, y uint64) (uint64, error) {
	difference, borrow := bits.Sub64(x, y, 0)
	if borrow != 0 {
		return 0, errors.Wrapf(ErrOverflow, "%d - %d", x, y)
	}
	return difference, nil
}

// MulUint64 returns x*y, or ErrOverflow if the product does not fit in a uint64.
func MulUint64(x, y uint64) (uint64, error) {
	high, low := bits.Mul64(x, y)
	if high != 0 {
		return 0, errors.Wrapf(ErrOverflow, "%d * %d", x, y)
	}
	return low, nil
}

// SumUint64 returns the checked sum of all the given values.
func SumUint64(values ...uint64) (uint64, error) {
	sum := uint64(0)
	for _, value := range values {
		var err error
		sum, err = AddUint64(sum, value)
		if err != nil {
			return 0, err
		}
	}
	return sum, nil
}

// MulDivUint64 returns floor(x*y/z) computed over 128 bits, so that the
// intermediate product never wraps. It returns ErrOverflow if z is zero or if
// the result does not fit in a uint64.
func MulDivUint64(x, y, z uint64) (uint64, error) {
	if z == 0 {
		return 0, errors.Wrapf(ErrOverflow, "%d * %d / 0", x, y)
	}
	high, low := bits.Mul64(x, y)
	if high >= z {
		return 0, errors.Wrapf(ErrOverflow, "%d * %d / %d", x, y, z)
	}
	quotient, _ := bits.Div64(high, low, z)
	return quotient, nil
}

// MinUint64 returns the smaller of x or y.
func MinUint64(x, y uint64) uint64 {
	if x < y {
		return x
	}
	return y
}
