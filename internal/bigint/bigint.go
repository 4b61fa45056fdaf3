// Package bigint wraps math/big for the arbitrary-width integer literal
// values the parser hands the binder (spec.md §3, "Bigint"). Besides the
// width/sign range checks the cast and literal binding rules need, it
// exposes the handful of arithmetic operators the constant-propagation
// pass (spec.md §4.7) folds at bind time; runtime bignum arithmetic beyond
// that lives in the out-of-scope runtime support library.
package bigint

import "math/big"

// Int is an arbitrary-width integer literal value.
type Int struct {
	v *big.Int
}

// FromInt64 builds a literal value from a machine int64.
func FromInt64(n int64) Int {
	return Int{v: big.NewInt(n)}
}

// Int64 truncates the value to a machine int64, matching big.Int.Int64's
// own "low-order bits, undefined if it overflows" contract; callers that
// need an overflow check should consult FitsWidth first.
func (i Int) Int64() int64 {
	if i.v == nil {
		return 0
	}
	return i.v.Int64()
}

// FromString parses a decimal (or 0x/0b-prefixed) literal.
func FromString(s string) (Int, bool) {
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return Int{}, false
	}
	return Int{v: v}, true
}

// FitsWidth reports whether the value fits in a two's-complement integer of
// the given bit width, signed or unsigned.
func (i Int) FitsWidth(width uint, signed bool) bool {
	if i.v == nil {
		return true
	}
	if signed {
		max := new(big.Int).Lsh(big.NewInt(1), width-1)
		min := new(big.Int).Neg(max)
		upper := new(big.Int).Sub(max, big.NewInt(1))
		return i.v.Cmp(min) >= 0 && i.v.Cmp(upper) <= 0
	}
	if i.v.Sign() < 0 {
		return false
	}
	max := new(big.Int).Lsh(big.NewInt(1), width)
	return i.v.Cmp(max) < 0
}

// Sign returns -1, 0, or 1.
func (i Int) Sign() int {
	if i.v == nil {
		return 0
	}
	return i.v.Sign()
}

// IsZero reports whether the literal is exactly zero.
func (i Int) IsZero() bool {
	return i.v == nil || i.v.Sign() == 0
}

// String renders the decimal form.
func (i Int) String() string {
	if i.v == nil {
		return "0"
	}
	return i.v.String()
}

// Cmp compares two literal values.
func (i Int) Cmp(o Int) int {
	a, b := i.v, o.v
	if a == nil {
		a = big.NewInt(0)
	}
	if b == nil {
		b = big.NewInt(0)
	}
	return a.Cmp(b)
}

func (i Int) val() *big.Int {
	if i.v == nil {
		return big.NewInt(0)
	}
	return i.v
}

// Add, Sub, Mul, and Div implement the arithmetic the constant-propagation
// pass folds over literal operands (spec.md §4.7); Div reports ok=false on
// division by zero rather than panicking, leaving the fold site unfolded.
func (i Int) Add(o Int) Int { return Int{v: new(big.Int).Add(i.val(), o.val())} }
func (i Int) Sub(o Int) Int { return Int{v: new(big.Int).Sub(i.val(), o.val())} }
func (i Int) Mul(o Int) Int { return Int{v: new(big.Int).Mul(i.val(), o.val())} }

func (i Int) Div(o Int) (Int, bool) {
	if o.IsZero() {
		return Int{}, false
	}
	return Int{v: new(big.Int).Quo(i.val(), o.val())}, true
}

func (i Int) Mod(o Int) (Int, bool) {
	if o.IsZero() {
		return Int{}, false
	}
	return Int{v: new(big.Int).Rem(i.val(), o.val())}, true
}

func (i Int) And(o Int) Int { return Int{v: new(big.Int).And(i.val(), o.val())} }
func (i Int) Or(o Int) Int  { return Int{v: new(big.Int).Or(i.val(), o.val())} }
func (i Int) Xor(o Int) Int { return Int{v: new(big.Int).Xor(i.val(), o.val())} }
func (i Int) Neg() Int      { return Int{v: new(big.Int).Neg(i.val())} }

func (i Int) Shl(n uint) Int { return Int{v: new(big.Int).Lsh(i.val(), n)} }
func (i Int) Shr(n uint) Int { return Int{v: new(big.Int).Rsh(i.val(), n)} }
