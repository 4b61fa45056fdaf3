package wire_test

import (
	"testing"

	"github.com/runebind/runebind/internal/ast"
	"github.com/runebind/runebind/internal/wire"
)

func TestDecodeThenBuildRoundTripsAProgram(t *testing.T) {
	src := []byte(`{
		"file": "example.rn",
		"functions": [
			{"name": "add", "kind": "plain", "params": [{"name": "a"}, {"name": "b"}],
			 "body": [{"kind": "return", "value": {"kind": "binary", "op": "+",
			   "left": {"kind": "ident", "name": "a"}, "right": {"kind": "ident", "name": "b"}}}]}
		],
		"tclasses": [
			{"name": "Point", "ref_width": 32, "params": [{"name": "x"}],
			 "body": [{"kind": "assign",
			   "target": {"kind": "member", "left": {"kind": "ident", "name": "self"}, "member": "x"},
			   "value": {"kind": "ident", "name": "x"}}]}
		],
		"globals": [
			{"kind": "assign", "target": {"kind": "ident", "name": "n"},
			 "value": {"kind": "call", "callee": {"kind": "ident", "name": "add"},
			   "positional": [{"kind": "int", "int_value": "1", "width": 8, "has_width": true},
			                  {"kind": "int", "int_value": "2", "width": 8, "has_width": true}]}}
		]
	}`)

	p, err := wire.Decode(src)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	prog := wire.Build(p)

	if prog.File != "example.rn" {
		t.Fatalf("File not carried through, got %q", prog.File)
	}
	if len(prog.Functions) != 1 || prog.Functions[0].Name != "add" {
		t.Fatalf("expected one function named add, got %+v", prog.Functions)
	}
	if len(prog.Tclasses) != 1 || prog.Tclasses[0].Name != "Point" {
		t.Fatalf("expected one tclass named Point, got %+v", prog.Tclasses)
	}
	if prog.Tclasses[0].RefWidth != 32 || !prog.Tclasses[0].RefCounted {
		t.Fatalf("Point should carry ref_width 32 and be ref-counted, got %+v", prog.Tclasses[0])
	}
	if len(prog.Statements) != 1 {
		t.Fatalf("expected one top-level statement, got %d", len(prog.Statements))
	}
	if len(prog.Globals.Statements) != len(prog.Statements) {
		t.Fatalf("Globals.Statements must mirror Statements so global-scope passes see top-level code")
	}

	addFn := prog.Functions[0]
	if len(addFn.Params) != 2 || addFn.Params[0].Name != "a" || addFn.Params[1].Name != "b" {
		t.Fatalf("add's parameters not decoded correctly: %+v", addFn.Params)
	}
	ret, ok := addFn.Body.Statements[0].(*ast.ReturnStatement)
	if !ok {
		t.Fatalf("add's body should be a single return statement, got %T", addFn.Body.Statements[0])
	}
	bin, ok := ret.Value.(*ast.BinaryExpr)
	if !ok || bin.Op != ast.OpAdd {
		t.Fatalf("expected a '+' binary expression, got %+v", ret.Value)
	}
}

func TestBuildDecodesFunctionKindsAndFallback(t *testing.T) {
	src := []byte(`{
		"functions": [
			{"name": "ctor", "kind": "constructor"},
			{"name": "destroy", "kind": "destructor"},
			{"name": "iter", "kind": "iterator"},
			{"name": "plus", "kind": "operator"},
			{"name": "plain", "kind": "bogus"}
		]
	}`)
	p, err := wire.Decode(src)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	prog := wire.Build(p)
	want := map[string]ast.FunctionKind{
		"ctor":    ast.ConstructorFunc,
		"destroy": ast.DestructorFunc,
		"iter":    ast.IteratorFunc,
		"plus":    ast.OperatorFunc,
		"plain":   ast.PlainFunc, // unrecognized kind falls back to PlainFunc
	}
	for _, fn := range prog.Functions {
		if fn.Kind != want[fn.Name] {
			t.Fatalf("%s: expected kind %v, got %v", fn.Name, want[fn.Name], fn.Kind)
		}
	}
}

func TestBuildDecodesIfWhileForeachControlFlow(t *testing.T) {
	src := []byte(`{
		"globals": [
			{"kind": "if", "clauses": [
				{"cond": {"kind": "bool", "bool_value": true},
				 "body": [{"kind": "expr", "expr": {"kind": "ident", "name": "a"}}]}
			], "else": [{"kind": "expr", "expr": {"kind": "ident", "name": "b"}}]},
			{"kind": "while", "value": {"kind": "bool", "bool_value": false}, "body": []},
			{"kind": "foreach", "var": "v", "iterable": {"kind": "ident", "name": "xs"},
			 "body": [{"kind": "yield", "value": {"kind": "ident", "name": "v"}}]}
		]
	}`)
	p, err := wire.Decode(src)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	prog := wire.Build(p)
	if len(prog.Statements) != 3 {
		t.Fatalf("expected 3 top-level statements, got %d", len(prog.Statements))
	}
	ifStmt, ok := prog.Statements[0].(*ast.IfStatement)
	if !ok || len(ifStmt.Clauses) != 1 || ifStmt.Else == nil {
		t.Fatalf("if statement not decoded correctly: %+v", prog.Statements[0])
	}
	if _, ok := prog.Statements[1].(*ast.WhileStatement); !ok {
		t.Fatalf("expected a while statement, got %T", prog.Statements[1])
	}
	fe, ok := prog.Statements[2].(*ast.ForeachStatement)
	if !ok || fe.VarName != "v" {
		t.Fatalf("foreach statement not decoded correctly: %+v", prog.Statements[2])
	}
}

func TestBuildDefaultsUnknownStatementToTrueLiteral(t *testing.T) {
	src := []byte(`{"globals": [{"kind": "nonsense"}]}`)
	p, err := wire.Decode(src)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	prog := wire.Build(p)
	es, ok := prog.Statements[0].(*ast.ExpressionStatement)
	if !ok {
		t.Fatalf("expected an ExpressionStatement fallback, got %T", prog.Statements[0])
	}
	lit, ok := es.Expr.(*ast.BoolLiteral)
	if !ok || !lit.Value {
		t.Fatalf("unrecognized statement kind should decode to a bare `true`, got %+v", es.Expr)
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	if _, err := wire.Decode([]byte("{not json")); err == nil {
		t.Fatalf("Decode should reject malformed JSON")
	}
}
