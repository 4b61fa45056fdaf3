package typesystem

import "fmt"

// UnifyError reports two datatypes that could not be unified, carrying both
// sides so the caller can render a type-mismatch diagnostic (spec.md §4.1
// "Failure returns a sentinel that the caller reports as a type error with
// both source datatypes rendered").
//
// Grounded on funvibe-funxy/internal/typesystem/unify.go's errUnifyMsg,
// which renders both operand types into a single error value rather than
// returning a bare sentinel.
type UnifyError struct {
	A, B Datatype
	Why  string
}

func (e *UnifyError) Error() string {
	return fmt.Sprintf("cannot unify %s with %s: %s", e.A.String(), e.B.String(), e.Why)
}

func mismatch(a, b Datatype, why string) error {
	return &UnifyError{A: a, B: b, Why: why}
}

// Unify computes the least common refinement of a and b with neither side
// marked autocast (spec.md §4.1). It is reflexive, and secrecy is
// symmetric: if either operand is secret the result is secret.
func (in *Interner) Unify(a, b Datatype) (Datatype, error) {
	return in.unify(a, false, b, false)
}

// UnifyAutocast is Unify but lets the caller flag either side as an
// autocast integer literal, whose width is then adopted from the other
// operand (spec.md §4.1 "integer widths").
func (in *Interner) UnifyAutocast(a Datatype, aAuto bool, b Datatype, bAuto bool) (Datatype, error) {
	return in.unify(a, aAuto, b, bAuto)
}

func (in *Interner) unify(a Datatype, aAuto bool, b Datatype, bAuto bool) (Datatype, error) {
	if a == b {
		return a, nil
	}

	switch av := a.(type) {
	case *Integer:
		bv, ok := b.(*Integer)
		if !ok {
			return nil, mismatch(a, b, "not an integer type")
		}
		return in.unifyIntegers(av, aAuto, bv, bAuto)

	case *Float:
		bv, ok := b.(*Float)
		if !ok {
			return nil, mismatch(a, b, "not a float type")
		}
		secret := av.Secret || bv.Secret
		if av.Width != bv.Width {
			return nil, mismatch(a, b, "float widths differ")
		}
		return in.Float(av.Width, secret), nil

	case *Bool:
		bv, ok := b.(*Bool)
		if !ok {
			return nil, mismatch(a, b, "not bool")
		}
		return in.Bool(av.Secret || bv.Secret), nil

	case *StringT:
		bv, ok := b.(*StringT)
		if !ok {
			return nil, mismatch(a, b, "not string")
		}
		return in.String(av.Secret || bv.Secret), nil

	case *Array:
		bv, ok := b.(*Array)
		if !ok {
			return nil, mismatch(a, b, "not an array type")
		}
		elem, err := in.unify(av.Elem, false, bv.Elem, false)
		if err != nil {
			return nil, mismatch(a, b, "element types differ: "+err.Error())
		}
		return in.Array(elem), nil

	case *Tuple:
		bv, ok := b.(*Tuple)
		if !ok || len(av.Elems) != len(bv.Elems) {
			return nil, mismatch(a, b, "tuple arity differs")
		}
		elems := make([]Datatype, len(av.Elems))
		for i := range av.Elems {
			u, err := in.unify(av.Elems[i], false, bv.Elems[i], false)
			if err != nil {
				return nil, mismatch(a, b, fmt.Sprintf("tuple element %d: %s", i, err))
			}
			elems[i] = u
		}
		return in.Tuple(elems), nil

	case *Struct:
		bv, ok := b.(*Struct)
		if !ok || len(av.Fields) != len(bv.Fields) {
			return nil, mismatch(a, b, "struct shape differs")
		}
		fields := make([]StructField, len(av.Fields))
		for i := range av.Fields {
			if av.Fields[i].Name != bv.Fields[i].Name {
				return nil, mismatch(a, b, "struct field names differ")
			}
			u, err := in.unify(av.Fields[i].Type, false, bv.Fields[i].Type, false)
			if err != nil {
				return nil, mismatch(a, b, fmt.Sprintf("field %s: %s", av.Fields[i].Name, err))
			}
			fields[i] = StructField{Name: av.Fields[i].Name, Type: u}
		}
		return in.Struct(av.Name, fields), nil

	case *Class:
		return in.unifyClassLike(av, b)

	case *Null:
		return in.unifyClassLike(av, b)

	case *Funcptr:
		bv, ok := b.(*Funcptr)
		if !ok || len(av.Params) != len(bv.Params) {
			return nil, mismatch(a, b, "funcptr shape differs")
		}
		params := make([]Datatype, len(av.Params))
		for i := range av.Params {
			u, err := in.unify(av.Params[i], false, bv.Params[i], false)
			if err != nil {
				return nil, mismatch(a, b, fmt.Sprintf("param %d: %s", i, err))
			}
			params[i] = u
		}
		ret, err := in.unify(av.Return, false, bv.Return, false)
		if err != nil {
			return nil, mismatch(a, b, "return type: "+err.Error())
		}
		return in.Funcptr(ret, params), nil

	default:
		if a.key() == b.key() {
			return a, nil
		}
		return nil, mismatch(a, b, "incompatible types")
	}
}

func (in *Interner) unifyIntegers(a *Integer, aAuto bool, b *Integer, bAuto bool) (Datatype, error) {
	secret := a.Secret || b.Secret
	switch {
	case aAuto && !bAuto:
		return in.Integer(b.Width, b.Signed, secret, false), nil
	case bAuto && !aAuto:
		return in.Integer(a.Width, a.Signed, secret, false), nil
	case aAuto && bAuto:
		return in.Integer(a.Width, a.Signed, secret, true), nil
	default:
		if a.Width != b.Width || a.Signed != b.Signed {
			return nil, mismatch(a, b, "integer width/signedness differ")
		}
		return in.Integer(a.Width, a.Signed, secret, false), nil
	}
}

// unifyClassLike implements the Class/Null sub-lattice described in
// spec.md §4.1: Null acts as the bottom element, refined upward by any
// concrete Class of the same tclass; two concrete classes of the same
// tclass only unify if they name the same instantiation.
func (in *Interner) unifyClassLike(a Datatype, b Datatype) (Datatype, error) {
	tclassOf := func(d Datatype) string {
		switch t := d.(type) {
		case *Class:
			return t.Tclass
		case *Null:
			return t.Tclass
		}
		return ""
	}
	if tclassOf(a) != tclassOf(b) {
		return nil, mismatch(a, b, "different tclasses")
	}

	aClass, aIsClass := a.(*Class)
	bClass, bIsClass := b.(*Class)

	switch {
	case aIsClass && bIsClass:
		if aClass.Handle != bClass.Handle {
			return nil, mismatch(a, b, "distinct class instantiations of the same tclass")
		}
		return in.Class(aClass.Tclass, aClass.Handle, aClass.Nullable || bClass.Nullable, aClass.RefWidth), nil
	case aIsClass && !bIsClass:
		return aClass, nil
	case !aIsClass && bIsClass:
		return bClass, nil
	default:
		return in.Null(tclassOf(a)), nil
	}
}
