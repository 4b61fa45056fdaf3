package binder

import (
	"github.com/runebind/runebind/internal/ast"
	"github.com/runebind/runebind/internal/diagnostics"
	"github.com/runebind/runebind/internal/typesystem"
)

// operatorSymbol renders a BinOp the way `operator+`-style declarations
// name themselves in source (spec.md §4.3 "Overloaded operators"). Range
// and membership tests are never user-overloadable (spec.md §6 says `in`
// is "always via overload" but this binder's scope stops at the built-in
// array/string iteration protocol), so they aren't listed.
func operatorSymbol(op ast.BinOp) (string, bool) {
	switch op {
	case ast.OpAdd:
		return "+", true
	case ast.OpSub:
		return "-", true
	case ast.OpMul:
		return "*", true
	case ast.OpDiv:
		return "/", true
	case ast.OpMod:
		return "%", true
	case ast.OpBitAnd:
		return "&", true
	case ast.OpBitOr:
		return "|", true
	case ast.OpBitXor:
		return "^", true
	case ast.OpEq:
		return "==", true
	case ast.OpNe:
		return "!=", true
	case ast.OpLt:
		return "<", true
	case ast.OpLe:
		return "<=", true
	case ast.OpGt:
		return ">", true
	case ast.OpGe:
		return ">=", true
	default:
		return "", false
	}
}

// isOverloadCandidate reports whether d is a type that can only combine via
// a user-declared operator, never the built-in arithmetic/relational rules
// (spec.md §4.3: classes have no primitive `+`; everything else does).
func isOverloadCandidate(d typesystem.Datatype) bool {
	switch d.(type) {
	case *typesystem.Class, *typesystem.Null, *typesystem.Struct, *typesystem.Tuple:
		return true
	default:
		return false
	}
}

// bindOperatorOverload implements spec.md §4.5's "Overload resolution for
// operators": probe every operator-kind function registered for op in
// declaration order, keep the ones whose parameter constraints accept
// (left, right), and require exactly one match. ok is false when no
// overload for this operator accepts (left, right), letting bindBinary fall
// back to the builtin rules (which report a type-mismatch for a class,
// null, struct or tuple operand of an arithmetic or bitwise operator).
func (eb *exprBinder) bindOperatorOverload(x *ast.BinaryExpr, left, right typesystem.Datatype, scope *ast.Block) (typesystem.Datatype, bool) {
	symbol, known := operatorSymbol(x.Op)
	if !known {
		return nil, false
	}
	candidates := eb.b.operatorCandidates(symbol)
	if len(candidates) == 0 {
		return nil, false
	}

	var matches []*ast.Function
	for _, fn := range candidates {
		if len(fn.Params) != 2 {
			continue
		}
		if eb.constraintAccepts(fn.Params[0], left, scope) && eb.constraintAccepts(fn.Params[1], right, scope) {
			matches = append(matches, fn)
		}
	}

	switch len(matches) {
	case 0:
		return nil, false
	case 1:
		return eb.callOperatorOverload(x, matches[0], left, right), true
	default:
		eb.b.Errors.Add(diagnostics.New(diagnostics.ErrAmbiguousOverload, x.GetToken(),
			"ambiguous operator overload for \""+symbol+"\": "+fmtCandidateCount(len(matches))))
		return left, true
	}
}

// constraintAccepts reports whether param's declared type constraint
// (absent means "accepts anything") unifies with arg.
func (eb *exprBinder) constraintAccepts(param *ast.Param, arg typesystem.Datatype, scope *ast.Block) bool {
	if param.Constraint == nil {
		return true
	}
	want := eb.bindTypeExpr(param.Constraint, scope)
	if want == nil {
		return true
	}
	_, err := eb.b.Types.Unify(want, arg)
	return err == nil
}

// callOperatorOverload hash-conses and binds fn's signature at (left,
// right) the same way an ordinary call does, recording the resolved
// signature on the BinaryExpr itself (spec.md §3 "Expression": "resolved
// signature for calls and operator overloads").
func (eb *exprBinder) callOperatorOverload(x *ast.BinaryExpr, fn *ast.Function, left, right typesystem.Datatype) typesystem.Datatype {
	params := []typesystem.Datatype{left, right}
	names := []string{fn.Params[0].Name, fn.Params[1].Name}
	sig, created := eb.b.sigs.Lookup(fn, params, names)
	sig.IsInstantiated = true
	x.ExprInfo().HasSignature = true
	x.ExprInfo().Signature = sig.Handle

	if created {
		sb := newStmtBinder(eb.b, eb)
		sig.Return = sb.bindFunctionBody(fn, sig)
		sig.Bound = true
		eb.b.queue.Ready(eb.b.sigs.key(sig.Handle))
		return sig.Return
	}
	if sig.Bound {
		return sig.Return
	}
	eb.b.queue.Park(eb.b.sigs.key(sig.Handle), x.GetToken(), func() bool {
		if !sig.Bound {
			return false
		}
		x.ExprInfo().Datatype = sig.Return
		return true
	})
	return nil
}

func fmtCandidateCount(n int) string {
	if n == 2 {
		return "2 candidates match"
	}
	return "multiple candidates match"
}
