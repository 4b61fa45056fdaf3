// Package ast holds the program tree the binder consumes from the parser
// (spec.md §3, §6): blocks containing statements containing expressions,
// plus the tables of functions, tclasses, variables, and identifiers they
// reference. No datatype fields are populated by the parser; the binder
// fills them in by mutating the embedded metadata structs below.
//
// Grounded on funvibe-funxy/internal/ast/ast_core.go: a Node/Statement/
// Expression interface family with Accept(Visitor) double dispatch and a
// GetToken() accessor for diagnostics. We keep that shape for statements
// (the statement binder needs double dispatch to thread reachability
// state through compound forms) but bind expressions via type switch, the
// way internal/checker/infer_expr.go does it in the escalier-lang example
// in this pack's other_examples/ — see DESIGN.md.
package ast

import (
	"github.com/runebind/runebind/internal/token"
	"github.com/runebind/runebind/internal/typesystem"
)

// Node is the base interface for every AST node.
type Node interface {
	TokenLiteral() string
	GetToken() token.Token
}

// Expression is a Node that yields a value. ExprInfo exposes the
// post-binding annotation fields spec.md §3 attaches to every expression.
type Expression interface {
	Node
	exprNode()
	ExprInfo() *ExprMeta
}

// Statement is a Node that the statement binder visits via Visitor double
// dispatch (spec.md §3 "Statement").
type Statement interface {
	Node
	stmtNode()
	Accept(v Visitor)
	Meta() *StmtMeta
}

// ExprMeta holds the fields the expression binder (spec.md §4.3) attaches
// to every expression node after binding. Each concrete expression struct
// embeds ExprMeta by value; since AST nodes are only ever referenced
// through pointers, promoted pointer-receiver methods satisfy Expression.
type ExprMeta struct {
	Token token.Token

	Datatype typesystem.Datatype // resolved datatype
	IsType   bool                // expression denotes a type value, not a runtime value
	Autocast bool                // integer literal with no declared width
	Const    bool                // reads from a const variable

	HasSignature bool
	Signature    typesystem.SignatureHandle // resolved signature for calls / operator overloads

	Referent Referent // linked identifier referent, set on IdentifierExpr
}

func (m *ExprMeta) ExprInfo() *ExprMeta   { return m }
func (m *ExprMeta) GetToken() token.Token { return m.Token }
func (m *ExprMeta) TokenLiteral() string  { return m.Token.Lexeme }

// StmtMeta holds the fields spec.md §3 "Statement" attaches to every
// statement node: reachability and first-assignment bookkeeping.
type StmtMeta struct {
	Token         token.Token
	Instantiated  bool // reachable under the signature currently being bound
	IsFirstAssign bool
}

func (m *StmtMeta) Meta() *StmtMeta       { return m }
func (m *StmtMeta) GetToken() token.Token { return m.Token }
func (m *StmtMeta) TokenLiteral() string  { return m.Token.Lexeme }

// Referent is what an identifier resolves to (spec.md §4.2): a variable, a
// function, a tclass, or nothing yet.
type Referent interface{ isReferent() }

// VariableReferent is returned once an identifier resolves to a Variable.
type VariableReferent struct{ Var *Variable }

func (VariableReferent) isReferent() {}

// FunctionReferent is returned once an identifier resolves to a Function.
type FunctionReferent struct{ Fn *Function }

func (FunctionReferent) isReferent() {}

// TclassReferent is returned once an identifier resolves to a Tclass, used
// when the tclass name itself is read as a value — a type constraint, a
// typeswitch pattern, a cast target (spec.md §4.3 "typeof"/cast rules).
type TclassReferent struct{ Tc *Tclass }

func (TclassReferent) isReferent() {}

// Program is the root node handed to the binder by the parser.
type Program struct {
	File       string
	Functions  []*Function
	Tclasses   []*Tclass
	Globals    *Block
	Statements []Statement
}

func (p *Program) TokenLiteral() string { return "" }
func (p *Program) GetToken() token.Token {
	if len(p.Statements) > 0 {
		return p.Statements[0].GetToken()
	}
	return token.Token{}
}

// Block is a lexical scope: an ordered list of statements plus a symbol
// table of identifiers (spec.md §3 "Block"). Scope resolution walks Outer
// chains up to the root; see internal/symbols.
type Block struct {
	Outer      *Block
	Statements []Statement
	Identifiers map[string]*Identifier

	CanContinue bool
	CanReturn   bool

	OwnerFunc *Function  // non-nil if this is a function body block
	OwnerStmt Statement  // non-nil if this is a sub-block of a compound statement
}

// NewBlock allocates a block enclosed by outer (nil for the root).
func NewBlock(outer *Block) *Block {
	return &Block{Outer: outer, Identifiers: make(map[string]*Identifier)}
}

// Identifier is a name looked up along the static scope chain (spec.md §3
// "Identifier"). Per-block symbol tables are keyed by Name.
type Identifier struct {
	Name     string
	Referent Referent
	// Blocked holds statement-binding tasks parked on this identifier while
	// it is still undefined (spec.md §4.2, event-driven variant). Tasks are
	// opaque closures owned by internal/binder's event queue.
	Blocked []func()
}
