package binder_test

import (
	"testing"

	"github.com/runebind/runebind/internal/ast"
	"github.com/runebind/runebind/internal/binder"
	"github.com/runebind/runebind/internal/bigint"
	"github.com/runebind/runebind/internal/diagnostics"
	"github.com/runebind/runebind/internal/token"
	"github.com/runebind/runebind/internal/typesystem"
)

func mustInt(s string) bigint.Int {
	v, ok := bigint.FromString(s)
	if !ok {
		panic("bad literal " + s)
	}
	return v
}

func ident(name string) *ast.IdentifierExpr {
	return &ast.IdentifierExpr{Name: name}
}

func intLit(val string, width uint, hasW bool) *ast.IntLiteral {
	return &ast.IntLiteral{Value: mustInt(val), Width: width, HasW: hasW}
}

func assignStmt(name string, value ast.Expression) *ast.AssignStatement {
	return &ast.AssignStatement{Target: ident(name), Value: value}
}

func exprStmt(e ast.Expression) *ast.ExpressionStatement {
	return &ast.ExpressionStatement{Expr: e}
}

// newProgram mirrors stmts into Globals.Statements the way internal/wire's
// Build does, since the constant-folding and iterator-inlining passes walk
// Globals.Statements rather than Program.Statements directly.
func newProgram(functions []*ast.Function, tclasses []*ast.Tclass, stmts []ast.Statement) *ast.Program {
	globals := ast.NewBlock(nil)
	globals.Statements = append(globals.Statements, stmts...)
	return &ast.Program{
		Functions:  functions,
		Tclasses:   tclasses,
		Globals:    globals,
		Statements: stmts,
	}
}

// Scenario: an autocast integer literal narrows to the width of whatever it
// is first combined with, and a second assignment that disagrees on width
// is a type-mismatch (spec.md §8 scenario 1, "autocast success/failure").
func TestAutocastNarrowsThenRejectsWidthMismatch(t *testing.T) {
	prog := newProgram(nil, nil, []ast.Statement{
		assignStmt("x", intLit("3", 8, true)), // u8, explicit width
		assignStmt("y", intLit("5", 0, false)), // autocast literal
		assignStmt("y", intLit("7", 16, true)), // disagreeing explicit width
	})
	b := binder.New(prog)
	errs := b.Bind()
	if !errs.HasErrors() {
		t.Fatalf("expected a type-mismatch when a variable's width is narrowed after autocast settles it")
	}
	found := false
	for _, e := range errs.Errors() {
		if e.Code == diagnostics.ErrTypeMismatch {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ErrTypeMismatch, got %+v", errs.Errors())
	}
}

func TestPlainAutocastAssignmentSucceeds(t *testing.T) {
	prog := newProgram(nil, nil, []ast.Statement{
		assignStmt("y", intLit("5", 0, false)),
	})
	b := binder.New(prog)
	errs := b.Bind()
	if errs.HasErrors() {
		t.Fatalf("plain autocast assignment should not error, got %+v", errs.Errors())
	}
}

// Scenario: two constructor calls with identical argument datatypes hash-
// cons to the same Class (identity equality), while a call with a
// different argument datatype gets its own Class (spec.md §8 scenario 2).
func TestConstructorCallsHashConsByArgumentDatatype(t *testing.T) {
	tc := ast.NewTclass("Point")
	xParam := &ast.Variable{Name: "x", Kind: ast.ParamVar}
	tc.Params = []*ast.Param{{Var: xParam, Name: "x"}}
	tc.Body = ast.NewBlock(nil)

	callA := &ast.CallExpr{Callee: ident("Point"), Positional: []ast.Expression{intLit("1", 8, true)}}
	callB := &ast.CallExpr{Callee: ident("Point"), Positional: []ast.Expression{intLit("2", 8, true)}}
	callC := &ast.CallExpr{Callee: ident("Point"), Positional: []ast.Expression{intLit("1", 16, true)}}

	prog := newProgram(nil, []*ast.Tclass{tc}, []ast.Statement{
		exprStmt(callA),
		exprStmt(callB),
		exprStmt(callC),
	})
	b := binder.New(prog)
	errs := b.Bind()
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %+v", errs.Errors())
	}
	if callA.ExprInfo().Datatype != callB.ExprInfo().Datatype {
		t.Fatalf("Point(u8) calls with the same argument type should hash-cons to the identical Class, got %s vs %s",
			callA.ExprInfo().Datatype, callB.ExprInfo().Datatype)
	}
	if callA.ExprInfo().Datatype == callC.ExprInfo().Datatype {
		t.Fatalf("Point(u8) and Point(u16) must be distinct classes, both resolved to %s", callA.ExprInfo().Datatype)
	}
}

// Scenario: null(T) unifies with a Class(T) instance to refine to the
// concrete class, the null-type sub-lattice bottom (spec.md §8 scenario 3).
func TestNullRefinesToConcreteClassOnUnify(t *testing.T) {
	tc := ast.NewTclass("Node")
	tc.Body = ast.NewBlock(nil)

	ctorCall := &ast.CallExpr{Callee: ident("Node")}
	prog := newProgram(nil, []*ast.Tclass{tc}, []ast.Statement{
		assignStmt("n", &ast.NullExpr{Type: ident("Node")}),
		assignStmt("n", ctorCall),
	})
	b := binder.New(prog)
	errs := b.Bind()
	if errs.HasErrors() {
		t.Fatalf("unexpected errors refining null(Node) to Node(): %+v", errs.Errors())
	}
	if _, ok := ctorCall.ExprInfo().Datatype.(*typesystem.Class); !ok {
		t.Fatalf("constructor call should resolve to a concrete Class, got %T", ctorCall.ExprInfo().Datatype)
	}
}

// Scenario: a foreach loop over an iterator-kind function call gets its
// iterator body spliced in and every yield rewritten, instead of staying a
// call to an uninlined coroutine (spec.md §8 scenario 4, §4.6).
func TestForeachOverIteratorInlinesYields(t *testing.T) {
	iter := ast.NewFunction("count", ast.IteratorFunc)
	iter.Body = ast.NewBlock(nil)
	iter.Body.Statements = []ast.Statement{
		&ast.YieldStatement{Value: intLit("1", 8, true)},
		&ast.YieldStatement{Value: intLit("2", 8, true)},
	}

	loopBody := ast.NewBlock(nil)
	loopBody.Statements = []ast.Statement{
		exprStmt(ident("v")),
	}
	foreach := &ast.ForeachStatement{
		VarName:  "v",
		Iterable: &ast.CallExpr{Callee: ident("count")},
		Body:     loopBody,
	}

	prog := newProgram([]*ast.Function{iter}, nil, []ast.Statement{foreach})
	b := binder.New(prog)
	errs := b.Bind()
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %+v", errs.Errors())
	}
	if !foreach.Inlined {
		t.Fatalf("foreach over an IteratorFunc call should be marked Inlined")
	}
	if len(foreach.Body.Statements) != 2 {
		t.Fatalf("expected one spliced block per yield, got %d statements", len(foreach.Body.Statements))
	}
}

// Scenario: a secret comparison is legal as a bare expression — the result
// simply carries Secret=true, same as any other secret value. It only
// becomes an error once something reads it back as control flow, which is
// what TestSecretIfConditionReportsSecretViolation below covers.
func TestSecretComparisonResultIsMarkedSecret(t *testing.T) {
	cmp := &ast.BinaryExpr{
		Op:   ast.OpEq,
		Left: &ast.SecretExpr{Operand: intLit("0", 32, true)},
		Right: intLit("0", 32, true),
	}
	prog := newProgram(nil, nil, []ast.Statement{exprStmt(cmp)})
	b := binder.New(prog)
	errs := b.Bind()
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %+v", errs.Errors())
	}
	type secretable interface{ IsSecret() bool }
	sec, ok := cmp.ExprInfo().Datatype.(secretable)
	if !ok || !sec.IsSecret() {
		t.Fatalf("comparing a secret operand should produce a secret bool, got %s", cmp.ExprInfo().Datatype)
	}
}

func TestSecretCannotBeAppliedToClass(t *testing.T) {
	tc := ast.NewTclass("Widget")
	tc.Body = ast.NewBlock(nil)
	ctorCall := &ast.CallExpr{Callee: ident("Widget")}
	secretExpr := &ast.SecretExpr{Operand: ctorCall}
	prog := newProgram(nil, []*ast.Tclass{tc}, []ast.Statement{exprStmt(secretExpr)})
	b := binder.New(prog)
	errs := b.Bind()
	if !errs.HasErrors() {
		t.Fatalf("secret() on a class instance should be rejected")
	}
	if errs.Errors()[0].Code != diagnostics.ErrSecretViolation {
		t.Fatalf("expected ErrSecretViolation, got %s", errs.Errors()[0].Code)
	}
}

// Scenario: two operator overloads for `+` both accepting the call's
// operand types is an ambiguous-overload diagnostic, B009 (spec.md §8
// scenario 6, §4.5).
func TestAmbiguousOperatorOverloadReportsB009(t *testing.T) {
	tc := ast.NewTclass("Vec")
	tc.Body = ast.NewBlock(nil)

	selfParam := func() *ast.Param {
		return &ast.Param{Var: &ast.Variable{Name: "self"}, Name: "self"}
	}
	otherParam := func() *ast.Param {
		return &ast.Param{Var: &ast.Variable{Name: "other"}, Name: "other"}
	}

	opA := ast.NewFunction("+:Vec:1", ast.OperatorFunc)
	opA.OperatorName = "+"
	opA.Params = []*ast.Param{selfParam(), otherParam()}
	opA.Body = ast.NewBlock(nil)

	opB := ast.NewFunction("+:Vec:2", ast.OperatorFunc)
	opB.OperatorName = "+"
	opB.Params = []*ast.Param{selfParam(), otherParam()}
	opB.Body = ast.NewBlock(nil)

	lhs := &ast.CallExpr{Callee: ident("Vec")}
	rhs := &ast.CallExpr{Callee: ident("Vec")}
	plus := &ast.BinaryExpr{Op: ast.OpAdd, Left: lhs, Right: rhs}

	prog := newProgram([]*ast.Function{opA, opB}, []*ast.Tclass{tc}, []ast.Statement{exprStmt(plus)})
	b := binder.New(prog)
	errs := b.Bind()
	if !errs.HasErrors() {
		t.Fatalf("expected ambiguous-overload diagnostic")
	}
	found := false
	for _, e := range errs.Errors() {
		if e.Code == diagnostics.ErrAmbiguousOverload {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected B009 ambiguous-overload, got %+v", errs.Errors())
	}
}

func TestUnambiguousOperatorOverloadResolves(t *testing.T) {
	tc := ast.NewTclass("Vec")
	tc.Body = ast.NewBlock(nil)

	op := ast.NewFunction("+:Vec", ast.OperatorFunc)
	op.OperatorName = "+"
	op.Params = []*ast.Param{
		{Var: &ast.Variable{Name: "self"}, Name: "self"},
		{Var: &ast.Variable{Name: "other"}, Name: "other"},
	}
	op.Body = ast.NewBlock(nil)
	op.Body.Statements = []ast.Statement{
		&ast.ReturnStatement{Value: intLit("1", 8, true)},
	}

	lhs := &ast.CallExpr{Callee: ident("Vec")}
	rhs := &ast.CallExpr{Callee: ident("Vec")}
	plus := &ast.BinaryExpr{Op: ast.OpAdd, Left: lhs, Right: rhs}

	prog := newProgram([]*ast.Function{op}, []*ast.Tclass{tc}, []ast.Statement{exprStmt(plus)})
	b := binder.New(prog)
	errs := b.Bind()
	if errs.HasErrors() {
		t.Fatalf("unexpected errors resolving the sole overload candidate: %+v", errs.Errors())
	}
	if !plus.ExprInfo().HasSignature {
		t.Fatalf("a resolved operator overload should record a Signature on the BinaryExpr")
	}
}

// A top-level function calling another top-level function by name must
// resolve through Program.Globals (spec.md §3 "Block... Scope resolution
// walks outer blocks up to the root"); this exercises the scope-chaining
// fix in Binder.registerGlobals.
func TestTopLevelFunctionsSeeEachOtherThroughGlobals(t *testing.T) {
	callee := ast.NewFunction("helper", ast.PlainFunc)
	callee.Body = ast.NewBlock(nil)
	callee.Body.Statements = []ast.Statement{
		&ast.ReturnStatement{Value: intLit("1", 8, true)},
	}

	callExpr := &ast.CallExpr{Callee: ident("helper")}
	caller := ast.NewFunction("caller", ast.PlainFunc)
	caller.Body = ast.NewBlock(nil)
	caller.Body.Statements = []ast.Statement{
		&ast.ReturnStatement{Value: callExpr},
	}

	// Force a call through caller's body by invoking it from top level too.
	topCall := &ast.CallExpr{Callee: ident("caller")}
	prog := newProgram([]*ast.Function{callee, caller}, nil, []ast.Statement{
		exprStmt(topCall),
	})
	b := binder.New(prog)
	errs := b.Bind()
	if errs.HasErrors() {
		t.Fatalf("unexpected errors: %+v", errs.Errors())
	}
	if callExpr.ExprInfo().Datatype == nil {
		t.Fatalf("caller's call to helper should have resolved a datatype through the global scope")
	}
}

func TestUndefinedIdentifierReportsB001(t *testing.T) {
	prog := newProgram(nil, nil, []ast.Statement{
		exprStmt(ident("ghost")),
	})
	b := binder.New(prog)
	errs := b.Bind()
	if !errs.HasErrors() {
		t.Fatalf("referencing an undefined identifier should report an error")
	}
	if errs.Errors()[0].Code != diagnostics.ErrUndefinedIdentifier {
		t.Fatalf("expected B001, got %s", errs.Errors()[0].Code)
	}
}

func TestConstReassignmentRejected(t *testing.T) {
	constVar := &ast.Variable{Name: "c", Kind: ast.LocalVar, Const: true}
	prog := newProgram(nil, nil, nil)
	first := assignStmt("c", intLit("1", 8, true))
	first.Meta().IsFirstAssign = true
	second := assignStmt("c", intLit("2", 8, true))
	prog.Statements = []ast.Statement{first, second}
	prog.Globals.Statements = prog.Statements

	b := binder.New(prog)
	// Pre-declare c as const the way a parser would, so the first
	// assignment path treats it as an existing binding rather than a fresh
	// local (bindIdentifierAssign only checks Const on an already-resolved
	// identifier).
	prog.Globals.Identifiers["c"] = &ast.Identifier{Name: "c", Referent: ast.VariableReferent{Var: constVar}}
	errs := b.Bind()
	if !errs.HasErrors() {
		t.Fatalf("reassigning a const variable after its first assignment should error")
	}
	if errs.Errors()[0].Code != diagnostics.ErrConstReassignment {
		t.Fatalf("expected ErrConstReassignment, got %s", errs.Errors()[0].Code)
	}
}

// Scenario: `if secret(x == 0) { ... }` must fail with secret-violation
// (spec.md §8 scenario 5) — a secret value driving a branch is the classic
// constant-time leak, so the binder rejects it directly at the condition
// rather than leaving it to a downstream pass.
func TestSecretIfConditionReportsSecretViolation(t *testing.T) {
	cond := &ast.BinaryExpr{
		Op:    ast.OpEq,
		Left:  &ast.SecretExpr{Operand: intLit("0", 32, true)},
		Right: intLit("0", 32, true),
	}
	ifStmt := &ast.IfStatement{Clauses: []ast.IfClause{{Cond: cond, Body: ast.NewBlock(nil)}}}
	prog := newProgram(nil, nil, []ast.Statement{ifStmt})
	b := binder.New(prog)
	errs := b.Bind()
	if !errs.HasErrors() {
		t.Fatalf("branching on a secret condition should report an error")
	}
	found := false
	for _, e := range errs.Errors() {
		if e.Code == diagnostics.ErrSecretViolation {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ErrSecretViolation, got %+v", errs.Errors())
	}
}

// Scenario: a yield outside an iterator is an error (spec.md §4.4, B013).
func TestYieldOutsidePlainFunctionReportsB013(t *testing.T) {
	plain := ast.NewFunction("notAnIterator", ast.PlainFunc)
	plain.Body = ast.NewBlock(nil)
	plain.Body.Statements = []ast.Statement{
		&ast.YieldStatement{Value: intLit("1", 8, true)},
		&ast.ReturnStatement{Value: intLit("1", 8, true)},
	}
	call := &ast.CallExpr{Callee: ident("notAnIterator")}
	prog := newProgram([]*ast.Function{plain}, nil, []ast.Statement{exprStmt(call)})
	b := binder.New(prog)
	errs := b.Bind()
	found := false
	for _, e := range errs.Errors() {
		if e.Code == diagnostics.ErrYieldOutsideIterator {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ErrYieldOutsideIterator, got %+v", errs.Errors())
	}
}

// Scenario: a function that can fall off its end without a terminating
// return is an error rather than a silently synthesized return (spec.md
// §4.4 "Reachability analysis", §8 "Reachability correctness").
func TestFunctionFallingThroughReportsMissingReturn(t *testing.T) {
	fn := ast.NewFunction("noReturn", ast.PlainFunc)
	fn.Body = ast.NewBlock(nil)
	fn.Body.Statements = []ast.Statement{
		assignStmt("x", intLit("1", 8, true)),
	}
	call := &ast.CallExpr{Callee: ident("noReturn")}
	prog := newProgram([]*ast.Function{fn}, nil, []ast.Statement{exprStmt(call)})
	b := binder.New(prog)
	errs := b.Bind()
	found := false
	for _, e := range errs.Errors() {
		if e.Code == diagnostics.ErrNoTerminatingReturn {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ErrNoTerminatingReturn, got %+v", errs.Errors())
	}
}

// Scenario: an iterator whose body never reaches a yield is an error
// (spec.md §4.4).
func TestIteratorNeverYieldsReportsReachabilityError(t *testing.T) {
	iter := ast.NewFunction("silent", ast.IteratorFunc)
	iter.Body = ast.NewBlock(nil)
	iter.Body.Statements = []ast.Statement{
		assignStmt("x", intLit("1", 8, true)),
	}
	loopBody := ast.NewBlock(nil)
	foreach := &ast.ForeachStatement{
		VarName:  "v",
		Iterable: &ast.CallExpr{Callee: ident("silent")},
		Body:     loopBody,
	}
	prog := newProgram([]*ast.Function{iter}, nil, []ast.Statement{foreach})
	b := binder.New(prog)
	errs := b.Bind()
	found := false
	for _, e := range errs.Errors() {
		if e.Code == diagnostics.ErrReachability {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ErrReachability for an iterator that never yields, got %+v", errs.Errors())
	}
}

// Scenario: a shift distance that is secret, or a constant at or beyond
// the operand's bit width, is rejected (spec.md §4.3).
func TestShiftDistanceRules(t *testing.T) {
	secretDistance := &ast.BinaryExpr{
		Op:    ast.OpShl,
		Left:  intLit("1", 32, true),
		Right: &ast.SecretExpr{Operand: intLit("2", 32, true)},
	}
	tooWide := &ast.BinaryExpr{
		Op:    ast.OpShl,
		Left:  intLit("1", 32, true),
		Right: intLit("32", 32, true),
	}
	ok := &ast.BinaryExpr{
		Op:    ast.OpShl,
		Left:  intLit("1", 32, true),
		Right: intLit("4", 32, true),
	}
	prog := newProgram(nil, nil, []ast.Statement{
		exprStmt(secretDistance),
		exprStmt(tooWide),
		exprStmt(ok),
	})
	b := binder.New(prog)
	errs := b.Bind()
	var codes []diagnostics.ErrorCode
	for _, e := range errs.Errors() {
		codes = append(codes, e.Code)
	}
	hasSecret, hasOverflow := false, false
	for _, c := range codes {
		if c == diagnostics.ErrSecretViolation {
			hasSecret = true
		}
		if c == diagnostics.ErrOverflowWouldOccur {
			hasOverflow = true
		}
	}
	if !hasSecret {
		t.Fatalf("secret shift distance should report ErrSecretViolation, got %+v", codes)
	}
	if !hasOverflow {
		t.Fatalf("constant shift distance >= bit width should report ErrOverflowWouldOccur, got %+v", codes)
	}
}

// Scenario: print validates its format against the bound argument
// datatypes, rewriting it to embed the argument's width, and rejects
// printing a secret value (spec.md §4.4 "print", §6 "Print format grammar").
func TestPrintFormatValidatesArgsAndRejectsSecret(t *testing.T) {
	good := &ast.PrintStatement{
		Format: &ast.StringLiteral{Value: "x = %u"},
		Args:   []ast.Expression{intLit("5", 32, true)}, // unsigned by default (Signed unset)
	}
	secretArg := &ast.PrintStatement{
		Format: &ast.StringLiteral{Value: "s = %u"},
		Args:   []ast.Expression{&ast.SecretExpr{Operand: intLit("5", 32, true)}},
	}
	prog := newProgram(nil, nil, []ast.Statement{good, secretArg})
	b := binder.New(prog)
	errs := b.Bind()
	if good.Format.(*ast.StringLiteral).Value != "x = %u32" {
		t.Fatalf("print format should be rewritten to embed the argument's width, got %q",
			good.Format.(*ast.StringLiteral).Value)
	}
	found := false
	for _, e := range errs.Errors() {
		if e.Code == diagnostics.ErrSecretViolation {
			found = true
		}
	}
	if !found {
		t.Fatalf("printing a secret value should report ErrSecretViolation, got %+v", errs.Errors())
	}
}

// Regression check for DESIGN.md's token-position sort documentation:
// diagnostics from a real Bind come back ordered by source line, not by
// the order their statements were bound.
func TestDiagnosticBagFromRealBindOrdersBySourcePosition(t *testing.T) {
	first := &ast.ExpressionStatement{StmtMeta: ast.StmtMeta{Token: token.Token{Line: 5}}, Expr: ident("later")}
	second := &ast.ExpressionStatement{StmtMeta: ast.StmtMeta{Token: token.Token{Line: 1}}, Expr: ident("earlier")}
	first.Expr.(*ast.IdentifierExpr).ExprMeta.Token = token.Token{Line: 5}
	second.Expr.(*ast.IdentifierExpr).ExprMeta.Token = token.Token{Line: 1}

	prog := newProgram(nil, nil, []ast.Statement{first, second})
	b := binder.New(prog)
	errs := b.Bind()
	if len(errs.Errors()) != 2 {
		t.Fatalf("expected 2 undefined-identifier errors, got %d", len(errs.Errors()))
	}
	if errs.Errors()[0].Token.Line != 1 || errs.Errors()[1].Token.Line != 5 {
		t.Fatalf("errors should be sorted by source line, got lines %d then %d",
			errs.Errors()[0].Token.Line, errs.Errors()[1].Token.Line)
	}
}
