// Package steamid implements the 64-bit account identity used across the
// platform's social graph, and its wide-integer form for host boundaries.
package steamid

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// ID is an opaque 64-bit account identifier. It carries no validation beyond
// being a 64-bit value; resolving it to an account is the native client's job.
type ID uint64

// Zero is the empty identity.
const Zero ID = 0

// Uint64 returns the raw identifier.
func (id ID) Uint64() uint64 {
	return uint64(id)
}

// BigInt returns the identifier as an arbitrary-precision integer so that
// hosts backed by float64 numbers never see a rounded value.
func (id ID) BigInt() *big.Int {
	return new(big.Int).SetUint64(uint64(id))
}

// String returns the decimal form.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// FromBigInt converts a boundary integer to an ID.
// The low 64 bits of the magnitude are kept and the sign is dropped. lossless
// reports whether the value fit exactly; a lossy conversion is not an error.
// A nil input yields Zero.
func FromBigInt(v *big.Int) (id ID, lossless bool) {
	if v == nil {
		return Zero, true
	}

	mag := new(big.Int).Abs(v)
	lossless = v.Sign() >= 0 && mag.IsUint64()

	low := new(big.Int).And(mag, new(big.Int).SetUint64(^uint64(0)))
	return ID(low.Uint64()), lossless
}

// Parse reads a decimal identifier, as printed by String.
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, fmt.Errorf("steam id is empty")
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Zero, fmt.Errorf("invalid steam id %q: %w", s, err)
	}

	return ID(v), nil
}
