package typesystem_test

import (
	"testing"

	"github.com/runebind/runebind/internal/typesystem"
)

func TestCheckCastNumericWiden(t *testing.T) {
	in := typesystem.NewInterner()
	from := in.Integer(32, true, false, false)
	to := in.Integer(64, true, false, false)
	if _, ok := typesystem.CheckCast(from, to, false); !ok {
		t.Fatalf("widening numeric cast should be legal")
	}
}

func TestCheckCastNumericNarrowRequiresTrunc(t *testing.T) {
	in := typesystem.NewInterner()
	from := in.Integer(64, true, false, false)
	to := in.Integer(32, true, false, false)
	if _, ok := typesystem.CheckCast(from, to, false); ok {
		t.Fatalf("narrowing numeric cast should require <T:trunc>")
	}
	if _, ok := typesystem.CheckCast(from, to, true); !ok {
		t.Fatalf("narrowing numeric cast should be legal with trunc")
	}
}

func TestCheckCastStringArray(t *testing.T) {
	in := typesystem.NewInterner()
	str := in.String(false)
	byteArr := in.Array(in.Integer(8, false, false, false))
	if _, ok := typesystem.CheckCast(str, byteArr, false); !ok {
		t.Fatalf("String<->Array(Uint8) cast should be legal (spec.md §4.1 (b))")
	}
	if _, ok := typesystem.CheckCast(byteArr, str, false); !ok {
		t.Fatalf("Array(Uint8)<->String cast should be legal in the reverse direction too")
	}

	signedArr := in.Array(in.Integer(8, true, false, false))
	if _, ok := typesystem.CheckCast(str, signedArr, false); ok {
		t.Fatalf("String<->Array(Int8) should not be legal: spec requires Uint8")
	}
}

func TestCheckCastClassToIntegerRequiresMatchingRefWidth(t *testing.T) {
	in := typesystem.NewInterner()
	class := in.Class("Point", 1, false, 64)
	matching := in.Integer(64, false, false, false)
	mismatched := in.Integer(32, false, false, false)

	if _, ok := typesystem.CheckCast(class, matching, false); !ok {
		t.Fatalf("Class<->Integer cast should be legal when widths match (spec.md §4.1 (c))")
	}
	if _, ok := typesystem.CheckCast(class, mismatched, false); ok {
		t.Fatalf("Class<->Integer cast should be illegal when widths differ")
	}
}

func TestCheckCastClassNullability(t *testing.T) {
	in := typesystem.NewInterner()
	class := in.Class("Point", 1, false, 64)
	null := in.Null("Point")
	if _, ok := typesystem.CheckCast(class, null, false); !ok {
		t.Fatalf("Class(T)<->Null(T) cast should be legal (spec.md §4.1 (d))")
	}

	wrongNull := in.Null("Other")
	if _, ok := typesystem.CheckCast(class, wrongNull, false); ok {
		t.Fatalf("Class(Point)<->Null(Other) cast should be illegal")
	}
}

func TestCheckCastNoLegalCast(t *testing.T) {
	in := typesystem.NewInterner()
	b := in.Bool(false)
	class := in.Class("Point", 1, false, 64)
	if _, ok := typesystem.CheckCast(b, class, false); ok {
		t.Fatalf("Bool<->Class should never be a legal cast")
	}
}
