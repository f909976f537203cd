// Package safeconv provides integer conversions that either panic or fail on
// overflow instead of silently truncating.
package safeconv

import (
	"errors"
	"math"
)

// MaxInt is the maximum value for int type (platform-dependent).
const MaxInt = int(^uint(0) >> 1)

// MaxUint32 is the maximum value for uint32 type.
const MaxUint32 = uint32(math.MaxUint32)

// ErrOutOfBounds is returned when a value does not fit the target type.
var ErrOutOfBounds = errors.New("safeconv: value out of bounds")

// MustIntToUint32 converts int to uint32, panics on bounds violation.
// Use only when bounds violations are logically impossible.
func MustIntToUint32(v int) uint32 {
	if v < 0 || v > int(MaxUint32) {
		panic("safeconv: int to uint32 out of bounds")
	}

	return uint32(v)
}

// IntToUint32 converts int to uint32.
func IntToUint32(v int) (uint32, error) {
	if v < 0 || v > int(MaxUint32) {
		return 0, ErrOutOfBounds
	}

	return uint32(v), nil
}

// Uint64ToInt converts uint64 to int.
func Uint64ToInt(v uint64) (int, error) {
	if v > uint64(MaxInt) {
		return 0, ErrOutOfBounds
	}

	return int(v), nil
}
