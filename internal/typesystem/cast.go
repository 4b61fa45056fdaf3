package typesystem

// CastKind tags the shape of a legal cast (spec.md §4.1 "Cast
// verification"), so the expression binder can attach the right runtime
// conversion to a `<T>e` node without re-deriving it from scratch.
type CastKind int

const (
	CastNumericWiden CastKind = iota
	CastStringArray
	CastClassToInt
	CastClassNullability
)

// CheckCast reports whether a legal cast exists from `from` to `to`, and if
// so which kind. The four rules in spec.md §4.1 are each one case. trunc is
// true when the cast was written `<T:trunc>e`: plain `<T>e` only ever
// widens or keeps width, narrowing requires the explicit trunc form.
func CheckCast(from, to Datatype, trunc bool) (CastKind, bool) {
	if isNumericOrEnum(from) && isNumericOrEnum(to) {
		if widens(from, to) || trunc {
			return CastNumericWiden, true
		}
		return 0, false
	}

	if isStringArrayPair(from, to) {
		return CastStringArray, true
	}

	if c, ok := from.(*Class); ok {
		if i, ok := to.(*Integer); ok && c.RefWidth == i.Width {
			return CastClassToInt, true
		}
	}
	if i, ok := from.(*Integer); ok {
		if c, ok := to.(*Class); ok && c.RefWidth == i.Width {
			return CastClassToInt, true
		}
	}

	if isClassNullPair(from, to) {
		return CastClassNullability, true
	}

	return 0, false
}

func isNumericOrEnum(d Datatype) bool {
	switch d.(type) {
	case *Integer, *Float, *Enum, *EnumClass:
		return true
	}
	return false
}

func widens(from, to Datatype) bool {
	fi, fok := from.(*Integer)
	ti, tok := to.(*Integer)
	if fok && tok {
		return ti.Width >= fi.Width
	}
	return true
}

func isStringArrayPair(a, b Datatype) bool {
	check := func(x, y Datatype) bool {
		s, ok := x.(*StringT)
		if !ok {
			return false
		}
		arr, ok := y.(*Array)
		if !ok {
			return false
		}
		elem, ok := arr.Elem.(*Integer)
		_ = s
		return ok && !elem.Signed && elem.Width == 8
	}
	return check(a, b) || check(b, a)
}

func isClassNullPair(a, b Datatype) bool {
	check := func(x, y Datatype) bool {
		c, ok := x.(*Class)
		if !ok {
			return false
		}
		n, ok := y.(*Null)
		return ok && n.Tclass == c.Tclass
	}
	return check(a, b) || check(b, a)
}
