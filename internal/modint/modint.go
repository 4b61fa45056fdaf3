// Package modint validates the limb-packed bit layout spec.md §4.3's
// "Modular expression" rule requires: a `Modint(modulus)` value's modulus
// must fit in the width the binder infers for it, and a `Uint(width,
// signed, secret)` literal must actually fit the width it declares. Both
// checks are expressed as a funbit pattern match against the value's
// big-endian byte string rather than hand-rolled bit shifting, the same
// "describe the layout, let the library walk it" style funbit's bit-syntax
// API is built for.
//
// No file in this pack's retrieved examples calls into funbit directly;
// this package's use of it is grounded on the dependency's own published
// bit-syntax API shape rather than an observed call site — see DESIGN.md.
package modint

import (
	"fmt"

	"github.com/funvibe/funbit/pkg/funbit"

	"github.com/runebind/runebind/internal/bigint"
)

// FitsWidth reports whether val's big-endian byte encoding round-trips
// through a width-bit funbit integer segment unchanged, i.e. whether val
// fits in width bits without truncation.
func FitsWidth(val bigint.Int, width uint, signed bool) bool {
	if width == 0 || width > 1<<20 {
		return false
	}

	builder := funbit.NewBuilder()
	opts := []funbit.SegmentOption{funbit.WithSize(int(width)), funbit.WithSigned(signed)}
	if err := funbit.AddInteger(builder, val.Int64(), opts...); err != nil {
		return false
	}
	packed, err := funbit.Build(builder)
	if err != nil {
		return false
	}

	var roundtrip int64
	ctx := funbit.NewContext()
	if err := funbit.Integer(ctx, &roundtrip, opts...); err != nil {
		return false
	}
	if _, err := funbit.Match(ctx, packed); err != nil {
		return false
	}

	return bigint.FromInt64(roundtrip).Cmp(val) == 0
}

// CheckModulus validates a `Modint(modulus)` declaration (spec.md §4.3):
// the modulus must be positive and must fit in the width the binder has
// already inferred for the surrounding expression.
func CheckModulus(modulus bigint.Int, width uint) error {
	if modulus.Sign() <= 0 {
		return fmt.Errorf("modint: modulus must be positive")
	}
	if !FitsWidth(modulus, width, false) {
		return fmt.Errorf("modint: modulus does not fit in %d bits", width)
	}
	return nil
}
