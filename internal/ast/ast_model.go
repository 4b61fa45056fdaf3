package ast

import (
	"github.com/runebind/runebind/internal/token"
	"github.com/runebind/runebind/internal/typesystem"
)

// VariableKind distinguishes parameters, locals, and members (spec.md §3
// "Variable").
type VariableKind int

const (
	ParamVar VariableKind = iota
	LocalVar
	MemberVar
)

// Variable is created at parse time (parameters, locals) or during
// member-discovery in a constructor body (spec.md §3 "Variable" lifetime).
// It is mutated only by the binder.
type Variable struct {
	Name             string
	Kind             VariableKind
	Const            bool
	TypeConstraint   Expression // optional declared type-constraint expression
	Initializer      Expression // optional, for defaults
	Datatype         typesystem.Datatype
	IsType           bool
	Instantiated     bool
	DeclToken        token.Token
}

// FunctionKind is spec.md §3's Function.Kind enumeration.
type FunctionKind int

const (
	PlainFunc FunctionKind = iota
	ConstructorFunc
	DestructorFunc
	IteratorFunc
	OperatorFunc
	ModuleFunc
	PackageFunc
	EnumFunc
	StructFunc
	FinalizerFunc
	UnittestFunc
	GeneratorFunc
)

// Param is a declared function parameter, before canonicalization.
type Param struct {
	Var         *Variable
	Name        string
	Default     Expression // optional initializer
	Constraint  Expression // optional type constraint expression
}

// Function is a reusable declaration: a body block plus every signature
// bound for it so far (spec.md §3 "Function").
type Function struct {
	Name             string
	Kind             FunctionKind
	Params           []*Param
	ReturnConstraint Expression // optional declared return-type constraint
	Body             *Block
	OperatorName     string // set when Kind == OperatorFunc, e.g. "+"
	Token            token.Token

	// Synthesized marks a function the binder generated itself (spec.md
	// §4.4 foreach: a default `values()` iterator conjured when the
	// callee's class declares none) rather than one the parser handed in.
	// Exempt from the "iterator never yields" reachability check, since an
	// empty default body is the deliberately chosen fallback, not a bug.
	Synthesized bool

	Signatures map[string]*Signature // keyed by canonicalized parameter-type vector
}

// NewFunction allocates an empty function declaration.
func NewFunction(name string, kind FunctionKind) *Function {
	return &Function{Name: name, Kind: kind, Signatures: make(map[string]*Signature)}
}

// Tclass is a reusable constructor template (spec.md §3 "Tclass"),
// parametric over the types of its non-self parameters.
type Tclass struct {
	Name           string
	Params         []*Param
	Body           *Block
	RefWidth       uint
	RefCounted     bool
	DefaultChild   *Class // set if instantiable with zero arguments
	Token          token.Token

	Classes map[typesystem.ClassHandle]*Class

	// CtorFn lets the binder's signature table cache constructor
	// instantiations the same way it caches plain function calls.
	CtorFn *Function
}

// NewTclass allocates an empty tclass declaration.
func NewTclass(name string) *Tclass {
	return &Tclass{Name: name, Classes: make(map[typesystem.ClassHandle]*Class)}
}

// ChildRelation records one child class a Class is responsible for
// releasing, declared via a `relation` statement (spec.md §3
// "reference-counted/cascade-delete object relations").
type ChildRelation struct {
	Kind    string
	Child   typesystem.ClassHandle
	Cascade bool
}

// Class is a concrete instantiation of a tclass for one specific
// constructor signature (spec.md §3 "Class"). Two constructor signatures
// with identical parameter types yield the same Class (hash-consed on the
// tclass plus the rendered parameter datatype vector; see internal/binder's
// class pool). No null-type resolution is applied to the key, so a Null(T)
// argument and a Class(T) argument give different Classes.
type Class struct {
	Handle   typesystem.ClassHandle
	StableID string // random uuid drawn per run ("class-<handle>" under config.IsTestMode)
	Tclass   *Tclass
	Sig      *Signature
	Members  *Block // block of members discovered from self.x = ... assignments
	Bound    bool
	Children []ChildRelation
}

// Signature is a concrete (function or tclass, parameter-datatype-vector)
// instantiation (spec.md §3 "Signature"). Signatures are interned on
// (function, parameter-types); see internal/binder's signature table.
type Signature struct {
	Handle  typesystem.SignatureHandle
	DebugID string // random uuid drawn per run ("sig-<handle>" under config.IsTestMode)
	Fn      *Function // nil when Tc is set (constructor signature)
	Tc      *Tclass

	Params       []typesystem.Datatype
	ParamNames   []string
	Instantiated []bool // per-parameter instantiation flag

	Return typesystem.Datatype

	IsInstantiated  bool // reachable at run time from some caller
	CalledByFuncPtr bool
	Bound           bool
	Partial         bool // temporary signature naming a pending class

	Class *Class // set once the owning Class is resolved (constructor signatures)
}
