package primitives

import (
	"fmt"
	"math/big"
)

// Balance is an unsigned 128-bit account balance. Go has no native u128, so
// it is backed by math/big constrained to stay non-negative; every mutator
// returns an error rather than silently wrapping on underflow.
type Balance struct {
	v big.Int
}

// NewBalance constructs a Balance from a non-negative int64, for tests and
// literals.
func NewBalance(n int64) Balance {
	if n < 0 {
		panic("primitives: negative balance literal")
	}
	var b Balance
	b.v.SetInt64(n)
	return b
}

// ZeroBalance is the zero-value Balance (0).
var ZeroBalance = Balance{}

// BalanceFromString parses a base-10 unsigned integer string.
func BalanceFromString(s string) (Balance, error) {
	var b Balance
	if _, ok := b.v.SetString(s, 10); !ok {
		return Balance{}, fmt.Errorf("primitives: invalid balance %q", s)
	}
	if b.v.Sign() < 0 {
		return Balance{}, fmt.Errorf("primitives: balance must be non-negative, got %q", s)
	}
	return b, nil
}

// String returns the base-10 representation.
func (b Balance) String() string {
	return b.v.String()
}

// MarshalJSON encodes the balance as a quoted JSON string: u128 exceeds the
// range of float64-safe integers a bare JSON number can carry, so the wire
// contract uses a decimal string instead.
func (b Balance) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("%q", b.v.String())), nil
}

// UnmarshalJSON decodes a bare JSON number or numeric string.
func (b *Balance) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := BalanceFromString(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Add returns b+delta. delta may be negative (a debit); the result is an
// error if it would underflow below zero.
func (b Balance) Add(delta *big.Int) (Balance, error) {
	var out Balance
	out.v.Add(&b.v, delta)
	if out.v.Sign() < 0 {
		return Balance{}, fmt.Errorf("primitives: balance underflow: %s + %s < 0", b.v.String(), delta.String())
	}
	return out, nil
}

// Int returns the underlying big.Int, read-only by convention (callers must
// not mutate the returned pointer's referent).
func (b *Balance) Int() *big.Int {
	return &b.v
}

// Cmp compares b to other.
func (b Balance) Cmp(other Balance) int {
	return b.v.Cmp(&other.v)
}
