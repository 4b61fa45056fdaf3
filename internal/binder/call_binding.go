package binder

import (
	"github.com/runebind/runebind/internal/ast"
	"github.com/runebind/runebind/internal/config"
	"github.com/runebind/runebind/internal/diagnostics"
	"github.com/runebind/runebind/internal/symbols"
	"github.com/runebind/runebind/internal/typesystem"
)

// bindCall is the signature/class instantiation engine's entry point
// (spec.md §4.5): it canonicalizes a call's arguments against the callee's
// declared parameters, hash-conses the resulting Signature or Class, and —
// the first time that exact parameter vector is seen — binds the callee's
// body under it.
func (eb *exprBinder) bindCall(x *ast.CallExpr, scope *ast.Block) typesystem.Datatype {
	switch callee := x.Callee.(type) {
	case *ast.IdentifierExpr:
		if tc, ok := eb.b.tclassByName(callee.Name); ok {
			callee.ExprInfo().Referent = ast.TclassReferent{Tc: tc}
			callee.ExprInfo().IsType = true
			return eb.bindConstructorCall(x, tc, scope)
		}
		if fn, ok := eb.b.fnByName(callee.Name); ok {
			callee.ExprInfo().Referent = ast.FunctionReferent{Fn: fn}
			callee.ExprInfo().Datatype = eb.b.Types.FunctionRef(fn.Name)
			return eb.bindFunctionCall(x, fn, nil, scope)
		}
		if id, _, ok := symbols.Lookup(scope, callee.Name); ok {
			if fr, ok := id.Referent.(ast.FunctionReferent); ok {
				return eb.bindFunctionCall(x, fr.Fn, nil, scope)
			}
		}
		eb.b.queue.Park(callee.Name, x.GetToken(), func() bool { return false })
		return nil

	case *ast.MemberExpr:
		left := eb.Bind(callee.Left, scope)
		class, ok := classOf(eb.b, left)
		if !ok || class.Members == nil {
			return nil
		}
		id, ok := class.Members.Identifiers[callee.Member]
		if !ok || id.Referent == nil {
			return nil
		}
		fr, ok := id.Referent.(ast.FunctionReferent)
		if !ok {
			return nil
		}
		callee.ExprInfo().Datatype = eb.b.Types.FunctionRef(fr.Fn.Name)
		return eb.bindFunctionCall(x, fr.Fn, class, scope)

	default:
		eb.Bind(x.Callee, scope)
		return nil
	}
}

func classOf(b *Binder, d typesystem.Datatype) (*ast.Class, bool) {
	c, ok := d.(*typesystem.Class)
	if !ok {
		return nil, false
	}
	return b.classes.ByHandle(c.Handle)
}

// canonicalizeArgs binds every call argument and orders them to match
// params, applying declared defaults for omitted trailing/named parameters
// (spec.md §4.3 "named parameter", §4.5 "canonicalization"). Reports
// wrong-arity if a required parameter has neither an argument nor a
// default.
func (eb *exprBinder) canonicalizeArgs(x *ast.CallExpr, params []*ast.Param, scope *ast.Block) ([]typesystem.Datatype, []string, bool) {
	bound := make([]typesystem.Datatype, len(params))
	names := make([]string, len(params))
	have := make([]bool, len(params))

	for i, p := range params {
		names[i] = p.Name
		if i < len(x.Positional) {
			bound[i] = eb.Bind(x.Positional[i], scope)
			have[i] = true
		}
	}
	for _, na := range x.Named {
		for i, p := range params {
			if p.Name == na.Name {
				bound[i] = eb.Bind(na.Value, scope)
				have[i] = true
			}
		}
	}
	for i, p := range params {
		if have[i] {
			continue
		}
		if p.Default != nil {
			bound[i] = eb.Bind(p.Default, scope)
			continue
		}
		eb.b.Errors.Add(diagnostics.New(diagnostics.ErrWrongArity, x.GetToken(),
			"missing required argument "+p.Name))
		return nil, nil, false
	}
	return bound, names, true
}

func (eb *exprBinder) bindFunctionCall(x *ast.CallExpr, fn *ast.Function, owner *ast.Class, scope *ast.Block) typesystem.Datatype {
	params, names, ok := eb.canonicalizeArgs(x, fn.Params, scope)
	if !ok {
		return nil
	}
	sig, created := eb.b.sigs.Lookup(fn, params, names)
	sig.Class = owner
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

func (eb *exprBinder) bindConstructorCall(x *ast.CallExpr, tc *ast.Tclass, scope *ast.Block) typesystem.Datatype {
	params, names, ok := eb.canonicalizeArgs(x, tc.Params, scope)
	if !ok {
		return nil
	}
	class, created := eb.b.classes.Lookup(tc, params)
	dt := eb.b.Types.Class(tc.Name, class.Handle, false, tc.RefWidth)

	if created {
		sig, _ := eb.b.sigs.Lookup(ctorFunc(tc), params, names)
		sig.Class = class
		sig.Tc = tc
		class.Sig = sig
		sb := newStmtBinder(eb.b, eb)
		selfVar := &ast.Variable{Name: config.SelfParamName, Kind: ast.ParamVar, Datatype: dt, Instantiated: true}
		symbols.Define(tc.Body, config.SelfParamName, ast.VariableReferent{Var: selfVar})
		for i, p := range tc.Params {
			if i < len(params) {
				p.Var.Datatype = params[i]
				symbols.Define(tc.Body, p.Var.Name, ast.VariableReferent{Var: p.Var})
			}
		}
		sb.pushScope(tc.Body)
		for _, st := range tc.Body.Statements {
			st.Meta().Instantiated = true
			st.Accept(sb)
		}
		sb.popScope()
		markUnreachable(eb.b, tc.Body)
		class.Bound = true
		sig.Bound = true
		eb.b.queue.Ready(eb.b.classes.key(class.Handle))
	}
	return dt
}

// ctorFunc wraps a tclass's constructor body as a synthetic Function so it
// can share the signature table's (function, params) cache key, mirroring
// how spec.md §3 treats "Signature(tclass, ctor-params)" as the same shape
// of object as "Signature(function, params)".
func ctorFunc(tc *ast.Tclass) *ast.Function {
	if tc.CtorFn == nil {
		tc.CtorFn = ast.NewFunction(config.NewCtorName+":"+tc.Name, ast.ConstructorFunc)
	}
	return tc.CtorFn
}
