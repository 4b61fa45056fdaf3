// Package typesystem implements the datatype interner & unifier (spec.md
// §4.1): a tagged-variant Datatype, constructed exclusively through a
// hash-consed Interner so identity comparison implies structural equality,
// plus Unify (the least-common-refinement operator) and cast verification.
//
// Grounded on funvibe-funxy/internal/typesystem/types.go: a Type interface
// implemented by small variant structs (TVar, TCon, TApp, ...), each with a
// String() method used both for display and as its own hash key. We keep
// that shape but replace funxy's Hindley-Milner type-variable lattice with
// spec.md's tagged variant set (Bool, Uint, Class, Null, Modint, ...), since
// this binder instantiates signatures monomorphically per call site rather
// than generalizing type schemes.
package typesystem

import (
	"fmt"
	"sort"
	"strings"
)

// Datatype is the interface every interned type variant implements.
// Values are only ever obtained from an Interner, so == compares identity
// and identity implies structural equality (spec.md §3 "Datatype" invariant).
type Datatype interface {
	String() string
	key() string
}

// Secretable is implemented by variants whose secrecy flag can be
// inspected and toggled. Class, Null, Tclass, Function, Funcptr, Enum,
// EnumClass, and Modint do not implement it — secret()/reveal() on those
// is a compile error (spec.md §4.3, §9 Open Questions).
type Secretable interface {
	Datatype
	IsSecret() bool
}

// ---- Bool ----

type Bool struct{ Secret bool }

func (b *Bool) String() string {
	if b.Secret {
		return "secret bool"
	}
	return "bool"
}
func (b *Bool) key() string      { return b.String() }
func (b *Bool) IsSecret() bool   { return b.Secret }

// ---- Integer (unifies spec.md's "Uint(width, signed, secret)" and
// "Int(width, secret)" into one variant; see DESIGN.md for why). ----

type Integer struct {
	Width    uint
	Signed   bool
	Secret   bool
	Autocast bool // unconstrained literal; see Unify and the expression binder
}

func (i *Integer) String() string {
	sign := "u"
	if i.Signed {
		sign = "i"
	}
	s := fmt.Sprintf("%s%d", sign, i.Width)
	if i.Secret {
		s = "secret " + s
	}
	return s
}
func (i *Integer) key() string {
	return fmt.Sprintf("int:%d:%v:%v:%v", i.Width, i.Signed, i.Secret, i.Autocast)
}
func (i *Integer) IsSecret() bool { return i.Secret }

// ---- Float ----

type Float struct {
	Width  uint // 32 or 64
	Secret bool
}

func (f *Float) String() string {
	s := fmt.Sprintf("f%d", f.Width)
	if f.Secret {
		s = "secret " + s
	}
	return s
}
func (f *Float) key() string    { return f.String() }
func (f *Float) IsSecret() bool { return f.Secret }

// ---- String ----

type StringT struct{ Secret bool }

func (s *StringT) String() string {
	if s.Secret {
		return "secret string"
	}
	return "string"
}
func (s *StringT) key() string    { return s.String() }
func (s *StringT) IsSecret() bool { return s.Secret }

// ---- Array ----

type Array struct{ Elem Datatype }

func (a *Array) String() string { return "[" + a.Elem.String() + "]" }
func (a *Array) key() string    { return "array:" + a.Elem.key() }
func (a *Array) IsSecret() bool {
	if s, ok := a.Elem.(Secretable); ok {
		return s.IsSecret()
	}
	return false
}

// ---- Tuple ----

type Tuple struct{ Elems []Datatype }

func (t *Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (t *Tuple) key() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.key()
	}
	return "tuple:" + strings.Join(parts, ",")
}
func (t *Tuple) IsSecret() bool {
	for _, e := range t.Elems {
		if s, ok := e.(Secretable); ok && s.IsSecret() {
			return true
		}
	}
	return false
}

// ---- Struct ----

type StructField struct {
	Name string
	Type Datatype
}

type Struct struct {
	Name   string
	Fields []StructField
}

func (s *Struct) String() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = f.Name + ": " + f.Type.String()
	}
	name := s.Name
	if name == "" {
		name = "struct"
	}
	return name + "{" + strings.Join(parts, ", ") + "}"
}
func (s *Struct) key() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = f.Name + ":" + f.Type.key()
	}
	return "struct:" + s.Name + ":" + strings.Join(parts, ",")
}

// HasClassField reports whether any field (transitively) is a Class, which
// makes the whole struct unsecretable (spec.md §9 Open Questions: "treat
// any struct containing a Class field as unsecretable").
func (s *Struct) HasClassField() bool {
	for _, f := range s.Fields {
		switch ft := f.Type.(type) {
		case *Class:
			return true
		case *Struct:
			if ft.HasClassField() {
				return true
			}
		}
	}
	return false
}

func (s *Struct) IsSecret() bool {
	if s.HasClassField() {
		return false
	}
	for _, f := range s.Fields {
		if sec, ok := f.Type.(Secretable); ok && sec.IsSecret() {
			return true
		}
	}
	return false
}

// ---- Class / Null / Tclass ----

// ClassHandle is a stable, non-owning reference into the binder's class
// pool (spec.md §9 "store classes in a central pool and reference them by
// stable handles"). typesystem never dereferences it.
type ClassHandle uint64

// Class is a concrete instantiation of a tclass for one specific
// constructor signature (spec.md §3 "Class(tclass, signature)"). RefWidth
// carries the tclass's declared reference width (ast.Tclass.RefWidth) so
// CheckCast can validate a Class<->integer cast without needing a Tclass
// pool lookup of its own; Handle is only ever an opaque pool index and must
// never be compared against a bit width.
type Class struct {
	Tclass    string
	Handle    ClassHandle
	Nullable  bool
	RefWidth  uint
}

func (c *Class) String() string {
	s := fmt.Sprintf("%s#%d", c.Tclass, c.Handle)
	if c.Nullable {
		s += "?"
	}
	return s
}
func (c *Class) key() string { return fmt.Sprintf("class:%s:%d:%v", c.Tclass, c.Handle, c.Nullable) }

// Null is "some instantiation of tclass T, not yet chosen" (spec.md
// glossary). It is the bottom of the class sub-lattice for tclass T.
type Null struct{ Tclass string }

func (n *Null) String() string { return "null(" + n.Tclass + ")" }
func (n *Null) key() string    { return "null:" + n.Tclass }

// TclassT is a tclass used only as a type expression (e.g. the argument of
// null(Point) before evaluation).
type TclassT struct{ Name string }

func (t *TclassT) String() string { return "tclass:" + t.Name }
func (t *TclassT) key() string    { return t.String() }

// ---- Function / Funcptr ----

// FunctionRef denotes "this expression names a function", used when a
// function identifier is used as a value rather than called.
type FunctionRef struct{ Name string }

func (f *FunctionRef) String() string { return "func:" + f.Name }
func (f *FunctionRef) key() string    { return f.String() }

type Funcptr struct {
	Return Datatype
	Params []Datatype
}

func (f *Funcptr) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	ret := "none"
	if f.Return != nil {
		ret = f.Return.String()
	}
	return "&(" + strings.Join(parts, ", ") + ") -> " + ret
}
func (f *Funcptr) key() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.key()
	}
	ret := ""
	if f.Return != nil {
		ret = f.Return.key()
	}
	return "funcptr:(" + strings.Join(parts, ",") + "):" + ret
}

// ---- Enum / EnumClass ----

type Enum struct{ FuncName string }

func (e *Enum) String() string { return "enum:" + e.FuncName }
func (e *Enum) key() string    { return e.String() }

type EnumClass struct{ FuncName string }

func (e *EnumClass) String() string { return "enumclass:" + e.FuncName }
func (e *EnumClass) key() string    { return e.String() }

// ---- Modint ----

// Modint is an integer operated on modulo a given expression (spec.md
// glossary "Modint"). ModKey canonically identifies the modulus
// sub-expression (e.g. its rendered source or constant value) so that two
// occurrences of `e mod m` with the same m intern to the same Modint.
type Modint struct {
	ModKey string
	Width  uint
}

func (m *Modint) String() string { return fmt.Sprintf("mod<%s>(%d)", m.ModKey, m.Width) }
func (m *Modint) key() string    { return m.String() }

// ---- None ----

type None struct{}

func (n *None) String() string { return "none" }
func (n *None) key() string    { return "none" }

// TType wraps a Datatype used as a value (the result of `typeof e` or a
// bare type expression), mirroring Variable.isType.
type TType struct{ Of Datatype }

func (t *TType) String() string { return "type<" + t.Of.String() + ">" }
func (t *TType) key() string    { return "type:" + t.Of.key() }

// Markable reports whether secret()/reveal() may be applied to d.
func Markable(d Datatype) bool {
	switch t := d.(type) {
	case *Struct:
		return !t.HasClassField()
	case Secretable:
		return true
	default:
		return false
	}
}

// IsSecret reports the secrecy of d, false for non-Secretable variants.
func IsSecret(d Datatype) bool {
	if s, ok := d.(Secretable); ok {
		return s.IsSecret()
	}
	return false
}

// sortedKeys is a small helper shared by call sites that need a
// deterministic iteration order over a parameter-type map.
func sortedKeys(m map[string]Datatype) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
