// Package wire decodes the JSON program graph the driver reads from disk
// (spec.md §6's external interface contract: the binder consumes an
// already-parsed program, never source text) into an ast.Program. JSON is
// a natural fit here since ast.Expression/ast.Statement are Go interfaces
// with no single concrete shape; each wire node carries an explicit "kind"
// tag and the decoder switches on it, the same discriminated-union
// approach funvibe-funxy's own serialized module cache
// (internal/modules) uses for its on-disk representation.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/runebind/runebind/internal/ast"
	"github.com/runebind/runebind/internal/bigint"
	"github.com/runebind/runebind/internal/token"
)

// Program is the top-level wire shape.
type Program struct {
	File      string     `json:"file"`
	Functions []Function `json:"functions"`
	Tclasses  []Tclass   `json:"tclasses"`
	Globals   []Stmt     `json:"globals"`
}

type Function struct {
	Name   string  `json:"name"`
	Kind   string  `json:"kind"` // "plain", "constructor", "iterator", "operator", ...
	Params []Param `json:"params"`
	Body   []Stmt  `json:"body"`
}

type Tclass struct {
	Name     string  `json:"name"`
	Params   []Param `json:"params"`
	RefWidth uint    `json:"ref_width"`
	Body     []Stmt  `json:"body"`
}

type Param struct {
	Name    string `json:"name"`
	Default *Expr  `json:"default,omitempty"`
}

// Stmt is a discriminated union over ast.Statement kinds; only the fields
// relevant to Kind are populated.
type Stmt struct {
	Kind string `json:"kind"`
	Line int    `json:"line,omitempty"`

	// assign
	Target *Expr `json:"target,omitempty"`
	Value  *Expr `json:"value,omitempty"`
	Op     string `json:"op,omitempty"` // compound-assign operator, empty for plain "="

	// expr (bare call statement)
	Expr *Expr `json:"expr,omitempty"`

	// if
	Clauses []IfClause `json:"clauses,omitempty"`
	Else    []Stmt     `json:"else,omitempty"`

	// while reuses Value as the condition
	Body []Stmt `json:"body,omitempty"`

	// foreach
	Var      string `json:"var,omitempty"`
	Iterable *Expr  `json:"iterable,omitempty"`

	// return / yield / throw reuse Value
}

type IfClause struct {
	Cond Expr   `json:"cond"`
	Body []Stmt `json:"body"`
}

// Expr is a discriminated union over ast.Expression kinds.
type Expr struct {
	Kind  string `json:"kind"`
	Line  int    `json:"line,omitempty"`

	// literals
	IntValue  string `json:"int_value,omitempty"`
	Width     uint   `json:"width,omitempty"`
	Signed    bool   `json:"signed,omitempty"`
	HasWidth  bool   `json:"has_width,omitempty"`
	FloatVal  float64 `json:"float_value,omitempty"`
	BoolVal   bool    `json:"bool_value,omitempty"`
	StringVal string  `json:"string_value,omitempty"`

	// identifier / member
	Name   string `json:"name,omitempty"`
	Member string `json:"member,omitempty"`
	Left   *Expr  `json:"left,omitempty"`
	Right  *Expr  `json:"right,omitempty"`
	Op     string `json:"op,omitempty"`

	// call
	Callee     *Expr   `json:"callee,omitempty"`
	Positional []Expr  `json:"positional,omitempty"`
	Named      []NamedArg `json:"named,omitempty"`

	Elements []Expr `json:"elements,omitempty"`
	Operand  *Expr  `json:"operand,omitempty"`
}

type NamedArg struct {
	Name  string `json:"name"`
	Value Expr   `json:"value"`
}

// Decode parses JSON bytes into a wire.Program.
func Decode(data []byte) (*Program, error) {
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("wire: decode program: %w", err)
	}
	return &p, nil
}

// Build converts a wire.Program into the ast.Program the binder consumes.
func Build(p *Program) *ast.Program {
	prog := &ast.Program{File: p.File, Globals: ast.NewBlock(nil)}
	for _, t := range p.Tclasses {
		prog.Tclasses = append(prog.Tclasses, buildTclass(t))
	}
	for _, f := range p.Functions {
		prog.Functions = append(prog.Functions, buildFunction(f))
	}
	for _, s := range p.Globals {
		st := buildStmt(s)
		prog.Statements = append(prog.Statements, st)
		prog.Globals.Statements = append(prog.Globals.Statements, st)
	}
	return prog
}

func buildFunction(f Function) *ast.Function {
	kind := functionKind(f.Kind)
	fn := ast.NewFunction(f.Name, kind)
	fn.Params = buildParams(f.Params)
	body := ast.NewBlock(nil)
	for _, s := range f.Body {
		body.Statements = append(body.Statements, buildStmt(s))
	}
	fn.Body = body
	return fn
}

func functionKind(k string) ast.FunctionKind {
	switch k {
	case "constructor":
		return ast.ConstructorFunc
	case "destructor":
		return ast.DestructorFunc
	case "iterator":
		return ast.IteratorFunc
	case "operator":
		return ast.OperatorFunc
	case "module":
		return ast.ModuleFunc
	case "package":
		return ast.PackageFunc
	case "enum":
		return ast.EnumFunc
	case "struct":
		return ast.StructFunc
	case "finalizer":
		return ast.FinalizerFunc
	case "unittest":
		return ast.UnittestFunc
	case "generator":
		return ast.GeneratorFunc
	default:
		return ast.PlainFunc
	}
}

func buildTclass(t Tclass) *ast.Tclass {
	tc := ast.NewTclass(t.Name)
	tc.Params = buildParams(t.Params)
	tc.RefWidth = t.RefWidth
	tc.RefCounted = t.RefWidth > 0
	body := ast.NewBlock(nil)
	for _, s := range t.Body {
		body.Statements = append(body.Statements, buildStmt(s))
	}
	tc.Body = body
	return tc
}

func buildParams(ps []Param) []*ast.Param {
	out := make([]*ast.Param, len(ps))
	for i, p := range ps {
		var def ast.Expression
		if p.Default != nil {
			def = buildExpr(*p.Default)
		}
		out[i] = &ast.Param{
			Name:    p.Name,
			Default: def,
			Var:     &ast.Variable{Name: p.Name, Kind: ast.ParamVar},
		}
	}
	return out
}

func tok(line int) token.Token { return token.Token{Line: line} }

func buildStmt(s Stmt) ast.Statement {
	meta := ast.StmtMeta{Token: tok(s.Line)}
	switch s.Kind {
	case "assign":
		var compound *ast.BinOp
		if s.Op != "" {
			op := parseBinOp(s.Op)
			compound = &op
		}
		return &ast.AssignStatement{StmtMeta: meta, Target: buildExpr(*s.Target), Value: buildExpr(*s.Value), CompoundOp: compound}
	case "expr":
		return &ast.ExpressionStatement{StmtMeta: meta, Expr: buildExpr(*s.Expr)}
	case "if":
		st := &ast.IfStatement{StmtMeta: meta}
		for _, c := range s.Clauses {
			body := ast.NewBlock(nil)
			for _, bs := range c.Body {
				body.Statements = append(body.Statements, buildStmt(bs))
			}
			st.Clauses = append(st.Clauses, ast.IfClause{Cond: buildExpr(c.Cond), Body: body})
		}
		if s.Else != nil {
			body := ast.NewBlock(nil)
			for _, bs := range s.Else {
				body.Statements = append(body.Statements, buildStmt(bs))
			}
			st.Else = body
		}
		return st
	case "while":
		body := ast.NewBlock(nil)
		for _, bs := range s.Body {
			body.Statements = append(body.Statements, buildStmt(bs))
		}
		return &ast.WhileStatement{StmtMeta: meta, Cond: buildExpr(*s.Value), Body: body}
	case "foreach":
		body := ast.NewBlock(nil)
		for _, bs := range s.Body {
			body.Statements = append(body.Statements, buildStmt(bs))
		}
		return &ast.ForeachStatement{StmtMeta: meta, VarName: s.Var, Iterable: buildExpr(*s.Iterable), Body: body}
	case "return":
		var v ast.Expression
		if s.Value != nil {
			v = buildExpr(*s.Value)
		}
		return &ast.ReturnStatement{StmtMeta: meta, Value: v}
	case "yield":
		return &ast.YieldStatement{StmtMeta: meta, Value: buildExpr(*s.Value)}
	case "throw":
		return &ast.ThrowStatement{StmtMeta: meta, Value: buildExpr(*s.Value)}
	default:
		return &ast.ExpressionStatement{StmtMeta: meta, Expr: &ast.BoolLiteral{ExprMeta: ast.ExprMeta{Token: tok(s.Line)}, Value: true}}
	}
}

func parseBinOp(s string) ast.BinOp {
	switch s {
	case "+":
		return ast.OpAdd
	case "-":
		return ast.OpSub
	case "*":
		return ast.OpMul
	case "/":
		return ast.OpDiv
	case "%":
		return ast.OpMod
	case "&":
		return ast.OpBitAnd
	case "|":
		return ast.OpBitOr
	case "^":
		return ast.OpBitXor
	case "<<":
		return ast.OpShl
	case ">>":
		return ast.OpShr
	case "==":
		return ast.OpEq
	case "!=":
		return ast.OpNe
	case "<":
		return ast.OpLt
	case "<=":
		return ast.OpLe
	case ">":
		return ast.OpGt
	case ">=":
		return ast.OpGe
	case "..":
		return ast.OpRange
	case "in":
		return ast.OpIn
	default:
		return ast.OpAdd
	}
}

func buildExpr(e Expr) ast.Expression {
	meta := ast.ExprMeta{Token: tok(e.Line)}
	switch e.Kind {
	case "int":
		v, _ := bigint.FromString(e.IntValue)
		return &ast.IntLiteral{ExprMeta: meta, Value: v, Width: e.Width, Signed: e.Signed, HasW: e.HasWidth}
	case "float":
		return &ast.FloatLiteral{ExprMeta: meta, Value: e.FloatVal, Width: e.Width}
	case "bool":
		return &ast.BoolLiteral{ExprMeta: meta, Value: e.BoolVal}
	case "string":
		return &ast.StringLiteral{ExprMeta: meta, Value: e.StringVal}
	case "ident":
		return &ast.IdentifierExpr{ExprMeta: meta, Name: e.Name}
	case "array":
		elems := make([]ast.Expression, len(e.Elements))
		for i, el := range e.Elements {
			elems[i] = buildExpr(el)
		}
		return &ast.ArrayLiteral{ExprMeta: meta, Elements: elems}
	case "member":
		return &ast.MemberExpr{ExprMeta: meta, Left: buildExpr(*e.Left), Member: e.Member}
	case "call":
		positional := make([]ast.Expression, len(e.Positional))
		for i, a := range e.Positional {
			positional[i] = buildExpr(a)
		}
		named := make([]ast.NamedArg, len(e.Named))
		for i, a := range e.Named {
			named[i] = ast.NamedArg{Name: a.Name, Value: buildExpr(a.Value)}
		}
		return &ast.CallExpr{ExprMeta: meta, Callee: buildExpr(*e.Callee), Positional: positional, Named: named}
	case "binary":
		return &ast.BinaryExpr{ExprMeta: meta, Op: parseBinOp(e.Op), Left: buildExpr(*e.Left), Right: buildExpr(*e.Right)}
	case "secret":
		return &ast.SecretExpr{ExprMeta: meta, Operand: buildExpr(*e.Operand)}
	case "reveal":
		return &ast.RevealExpr{ExprMeta: meta, Operand: buildExpr(*e.Operand)}
	default:
		return &ast.BoolLiteral{ExprMeta: meta, Value: false}
	}
}
