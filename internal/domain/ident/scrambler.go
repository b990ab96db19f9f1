// Package ident mints the external identifiers embedded in customer-facing
// URLs. Internally every entity has a sequential integer key; exposing those
// directly would leak how many invoices or tickets exist, so each entity type
// gets a Scrambler that maps its keys onto opaque 4-character hex tokens.
package ident

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	domainBits = 16
	domainSize = 1 << domainBits
	domainMask = domainSize - 1

	// Multiplier with every third bit set (0b1001001001001001). It is odd,
	// so it is coprime with 2^16 and the mapping is a bijection.
	multiplier = 0x9249
)

// ErrOutOfRange is returned for inputs outside [0, 2^16) and for strings
// that are not well-formed tokens. Callers treat it as "not found".
var ErrOutOfRange = errors.New("identifier out of range")

// Per-entity-type offsets, so the same internal key yields different tokens
// for different entity types.
var (
	Tickets      = NewScrambler(2000)
	ChildTickets = NewScrambler(7000)
	Invoices     = NewScrambler(10000)
	Payments     = NewScrambler(20000)
	CreditNotes  = NewScrambler(30000)
)

// Scrambler is a keyed, invertible permutation of [0, 2^16) rendered as
// fixed-width uppercase hex. Forward and Backward are exact inverses over
// the whole domain.
type Scrambler struct {
	offset  int64
	inverse int64
}

func NewScrambler(offset int64) Scrambler {
	return Scrambler{
		offset:  offset & domainMask,
		inverse: modInverse(multiplier, domainSize),
	}
}

// Forward maps an internal key onto its external token.
func (s Scrambler) Forward(id int64) (string, error) {
	if id < 0 || id >= domainSize {
		return "", fmt.Errorf("%w: %d", ErrOutOfRange, id)
	}
	out := (multiplier*id + s.offset) & domainMask
	return fmt.Sprintf("%04X", out), nil
}

// Backward maps an external token back onto its internal key. Only exactly
// four uppercase hex digits are accepted; in particular the signs ParseUint
// would tolerate are not.
func (s Scrambler) Backward(token string) (int64, error) {
	if len(token) != 4 || !isUpperHex(token) {
		return 0, fmt.Errorf("%w: %q", ErrOutOfRange, token)
	}
	out, err := strconv.ParseUint(token, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrOutOfRange, token)
	}
	return (s.inverse * (int64(out) - s.offset)) & domainMask, nil
}

func isUpperHex(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
			return false
		}
	}
	return true
}

// modInverse computes the multiplicative inverse of a modulo m, where m is a
// power of two and a is odd, by Newton iteration (each step doubles the
// number of correct low bits).
func modInverse(a, m int64) int64 {
	mask := m - 1
	inv := a // correct modulo 8 for odd a
	for i := 0; i < 4; i++ {
		inv = inv * (2 - a*inv) & mask
	}
	if a*inv&mask != 1 {
		panic("ident: multiplier has no inverse")
	}
	return inv
}
