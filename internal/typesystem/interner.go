package typesystem

// Interner is the single source of truth for datatype identity (spec.md
// §4.1 "Construction rules"). All factory methods take already-interned
// components and return the canonical instance for their key, so that
// `a == b` exactly when a and b are structurally equal. It is single-writer
// (spec.md §5): the binder is its only mutator and no locking is used.
type Interner struct {
	pool map[string]Datatype
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{pool: make(map[string]Datatype)}
}

func (in *Interner) intern(d Datatype) Datatype {
	k := d.key()
	if existing, ok := in.pool[k]; ok {
		return existing
	}
	in.pool[k] = d
	return d
}

func (in *Interner) Bool(secret bool) *Bool {
	return in.intern(&Bool{Secret: secret}).(*Bool)
}

func (in *Interner) Integer(width uint, signed, secret, autocast bool) *Integer {
	return in.intern(&Integer{Width: width, Signed: signed, Secret: secret, Autocast: autocast}).(*Integer)
}

func (in *Interner) Float(width uint, secret bool) *Float {
	return in.intern(&Float{Width: width, Secret: secret}).(*Float)
}

func (in *Interner) String(secret bool) *StringT {
	return in.intern(&StringT{Secret: secret}).(*StringT)
}

func (in *Interner) Array(elem Datatype) *Array {
	return in.intern(&Array{Elem: elem}).(*Array)
}

func (in *Interner) Tuple(elems []Datatype) *Tuple {
	cp := append([]Datatype(nil), elems...)
	return in.intern(&Tuple{Elems: cp}).(*Tuple)
}

func (in *Interner) Struct(name string, fields []StructField) *Struct {
	cp := append([]StructField(nil), fields...)
	return in.intern(&Struct{Name: name, Fields: cp}).(*Struct)
}

func (in *Interner) Class(tclass string, handle ClassHandle, nullable bool, refWidth uint) *Class {
	return in.intern(&Class{Tclass: tclass, Handle: handle, Nullable: nullable, RefWidth: refWidth}).(*Class)
}

func (in *Interner) Null(tclass string) *Null {
	return in.intern(&Null{Tclass: tclass}).(*Null)
}

func (in *Interner) Tclass(name string) *TclassT {
	return in.intern(&TclassT{Name: name}).(*TclassT)
}

func (in *Interner) FunctionRef(name string) *FunctionRef {
	return in.intern(&FunctionRef{Name: name}).(*FunctionRef)
}

func (in *Interner) Funcptr(ret Datatype, params []Datatype) *Funcptr {
	cp := append([]Datatype(nil), params...)
	return in.intern(&Funcptr{Return: ret, Params: cp}).(*Funcptr)
}

func (in *Interner) Enum(fn string) *Enum {
	return in.intern(&Enum{FuncName: fn}).(*Enum)
}

func (in *Interner) EnumClass(fn string) *EnumClass {
	return in.intern(&EnumClass{FuncName: fn}).(*EnumClass)
}

func (in *Interner) Modint(modKey string, width uint) *Modint {
	return in.intern(&Modint{ModKey: modKey, Width: width}).(*Modint)
}

func (in *Interner) None() *None {
	return in.intern(&None{}).(*None)
}

func (in *Interner) Type(of Datatype) *TType {
	return in.intern(&TType{Of: of}).(*TType)
}

// WithSecret returns the interned datatype equal to d but with its secrecy
// flag set (or, for compound types, propagated to its leaves). Returns an
// error-free no-op (original value) if d is not Markable; callers must
// check Markable before calling WithSecret when the source allows
// secret()/reveal() only on markable operands (spec.md §4.3).
func (in *Interner) WithSecret(d Datatype, secret bool) Datatype {
	switch t := d.(type) {
	case *Bool:
		return in.Bool(secret)
	case *Integer:
		return in.Integer(t.Width, t.Signed, secret, t.Autocast)
	case *Float:
		return in.Float(t.Width, secret)
	case *StringT:
		return in.String(secret)
	case *Array:
		return in.Array(in.WithSecret(t.Elem, secret))
	case *Tuple:
		elems := make([]Datatype, len(t.Elems))
		for i, e := range t.Elems {
			elems[i] = in.WithSecret(e, secret)
		}
		return in.Tuple(elems)
	case *Struct:
		if t.HasClassField() {
			return d
		}
		fields := make([]StructField, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = StructField{Name: f.Name, Type: in.WithSecret(f.Type, secret)}
		}
		return in.Struct(t.Name, fields)
	default:
		return d
	}
}

// Resize returns the interned datatype equal to d but with its bit width
// changed, used by signed/unsigned conversions and width-resolving casts.
func (in *Interner) Resize(d Datatype, width uint) Datatype {
	switch t := d.(type) {
	case *Integer:
		return in.Integer(width, t.Signed, t.Secret, false)
	case *Float:
		return in.Float(width, t.Secret)
	default:
		return d
	}
}

// FlipSigned returns the interned datatype equal to an Integer but with its
// signedness flipped, used by the signed/unsigned operators (spec.md §4.3).
func (in *Interner) FlipSigned(d Datatype, signed bool) Datatype {
	if i, ok := d.(*Integer); ok {
		return in.Integer(i.Width, signed, i.Secret, i.Autocast)
	}
	return d
}

// ClearAutocast returns d with its autocast flag cleared, used once an
// autocast literal has adopted a concrete width from unification.
func (in *Interner) ClearAutocast(d Datatype) Datatype {
	if i, ok := d.(*Integer); ok && i.Autocast {
		return in.Integer(i.Width, i.Signed, i.Secret, false)
	}
	return d
}
