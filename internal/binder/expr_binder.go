package binder

import (
	"github.com/runebind/runebind/internal/ast"
	"github.com/runebind/runebind/internal/bigint"
	"github.com/runebind/runebind/internal/config"
	"github.com/runebind/runebind/internal/diagnostics"
	"github.com/runebind/runebind/internal/modint"
	"github.com/runebind/runebind/internal/symbols"
	"github.com/runebind/runebind/internal/typesystem"
)

// exprBinder binds expressions by type switch (spec.md §4.3), the shape
// used by the escalier-lang infer_expr.go example in this pack rather than
// funvibe-funxy's Visitor double dispatch — statements need double dispatch
// to thread reachability state through compound forms, but expressions
// don't carry that kind of state, so a switch reads more directly. See
// DESIGN.md.
type exprBinder struct {
	b *Binder
}

func newExprBinder(b *Binder) *exprBinder {
	return &exprBinder{b: b}
}

// Bind resolves e's ExprMeta in place and returns its datatype. scope is
// the innermost block visible at e's source location.
func (eb *exprBinder) Bind(e ast.Expression, scope *ast.Block) typesystem.Datatype {
	if e == nil {
		return nil
	}
	dt := eb.bind(e, scope)
	e.ExprInfo().Datatype = dt
	return dt
}

func (eb *exprBinder) bind(e ast.Expression, scope *ast.Block) typesystem.Datatype {
	switch x := e.(type) {
	case *ast.IntLiteral:
		width := x.Width
		if !x.HasW {
			width = config.DefaultIntWidth
		} else if !modint.FitsWidth(x.Value, width, x.Signed) {
			eb.b.Errors.Add(diagnostics.Newf(diagnostics.ErrOverflowWouldOccur, x.Token,
				"literal %s does not fit in a %d-bit %s integer", x.Value.String(), width, signedness(x.Signed)))
		}
		return eb.b.Types.Integer(width, x.Signed, false, !x.HasW)

	case *ast.FloatLiteral:
		return eb.b.Types.Float(x.Width, false)

	case *ast.BoolLiteral:
		return eb.b.Types.Bool(false)

	case *ast.StringLiteral:
		return eb.b.Types.String(false)

	case *ast.IdentifierExpr:
		return eb.bindIdentifier(x, scope)

	case *ast.ArrayLiteral:
		return eb.bindArrayLiteral(x, scope)

	case *ast.TupleLiteral:
		elems := make([]typesystem.Datatype, len(x.Elements))
		for i, el := range x.Elements {
			elems[i] = eb.Bind(el, scope)
		}
		return eb.b.Types.Tuple(elems)

	case *ast.BinaryExpr:
		return eb.bindBinary(x, scope)

	case *ast.UnaryExpr:
		operand := eb.Bind(x.Operand, scope)
		return operand

	case *ast.MemberExpr:
		return eb.bindMember(x, scope)

	case *ast.IndexExpr:
		left := eb.Bind(x.Left, scope)
		eb.Bind(x.Index, scope)
		if arr, ok := left.(*typesystem.Array); ok {
			return arr.Elem
		}
		return nil

	case *ast.SliceExpr:
		left := eb.Bind(x.Left, scope)
		if x.Lo != nil {
			eb.Bind(x.Lo, scope)
		}
		if x.Hi != nil {
			eb.Bind(x.Hi, scope)
		}
		return left

	case *ast.CallExpr:
		return eb.bindCall(x, scope)

	case *ast.CastExpr:
		return eb.bindCast(x, scope)

	case *ast.SelectExpr:
		eb.Bind(x.Cond, scope)
		then := eb.Bind(x.Then, scope)
		els := eb.Bind(x.Else, scope)
		u, err := eb.b.Types.Unify(then, els)
		if err != nil {
			eb.b.Errors.Add(diagnostics.NewMismatch(diagnostics.ErrTypeMismatch, x.GetToken(),
				"select branches disagree", then.String(), els.String()))
			return then
		}
		return u

	case *ast.SecretExpr:
		operand := eb.Bind(x.Operand, scope)
		if !typesystem.Markable(operand) {
			eb.b.Errors.Add(diagnostics.New(diagnostics.ErrSecretViolation, x.GetToken(),
				"secret() cannot be applied to "+operand.String()))
			return operand
		}
		return eb.b.Types.WithSecret(operand, true)

	case *ast.RevealExpr:
		operand := eb.Bind(x.Operand, scope)
		if !typesystem.Markable(operand) {
			eb.b.Errors.Add(diagnostics.New(diagnostics.ErrSecretViolation, x.GetToken(),
				"reveal() cannot be applied to "+operand.String()))
			return operand
		}
		return eb.b.Types.WithSecret(operand, false)

	case *ast.SignConvExpr:
		operand := eb.Bind(x.Operand, scope)
		return eb.b.Types.FlipSigned(operand, x.Signed)

	case *ast.TypeofExpr:
		operand := eb.Bind(x.Operand, scope)
		return eb.b.Types.Type(operand)

	case *ast.ArrayofExpr:
		operand := eb.Bind(x.Operand, scope)
		return eb.b.Types.Array(operand)

	case *ast.WidthofExpr:
		eb.Bind(x.Operand, scope)
		return eb.b.Types.Integer(config.DefaultUintWidth, false, false, false)

	case *ast.IsnullExpr:
		eb.Bind(x.Operand, scope)
		return eb.b.Types.Bool(false)

	case *ast.NullExpr:
		name := typeExprName(x.Type)
		return eb.b.Types.Null(name)

	case *ast.ModExpr:
		val := eb.Bind(x.Value, scope)
		eb.Bind(x.Modulus, scope)
		vi, ok := val.(*typesystem.Integer)
		if !ok {
			eb.b.Errors.Add(diagnostics.New(diagnostics.ErrInvalidModularExpr, x.GetToken(),
				"mod requires an integer operand"))
			return val
		}
		if lit, ok := x.Modulus.(*ast.IntLiteral); ok {
			if err := modint.CheckModulus(lit.Value, vi.Width); err != nil {
				eb.b.Errors.Add(diagnostics.Newf(diagnostics.ErrInvalidModularExpr, x.GetToken(), "%s", err))
			}
		}
		return eb.b.Types.Modint(modKeyOf(x.Modulus), vi.Width)

	case *ast.FuncAddrExpr:
		return eb.bindFuncAddr(x, scope)

	default:
		return nil
	}
}

func (eb *exprBinder) bindIdentifier(x *ast.IdentifierExpr, scope *ast.Block) typesystem.Datatype {
	id, _, ok := symbols.Lookup(scope, x.Name)
	if !ok {
		id = symbols.Placeholder(scope, x.Name)
	}
	if id.Referent == nil {
		eb.b.queue.Park(x.Name, x.GetToken(), func() bool {
			if id.Referent == nil {
				return false
			}
			eb.resolveIdentRef(x, id.Referent)
			return true
		})
		return nil
	}
	eb.resolveIdentRef(x, id.Referent)
	return x.ExprInfo().Datatype
}

func (eb *exprBinder) resolveIdentRef(x *ast.IdentifierExpr, ref ast.Referent) {
	x.ExprInfo().Referent = ref
	switch r := ref.(type) {
	case ast.VariableReferent:
		x.ExprInfo().Datatype = r.Var.Datatype
		x.ExprInfo().Const = r.Var.Const
		x.ExprInfo().Autocast = false
	case ast.FunctionReferent:
		x.ExprInfo().Datatype = eb.b.Types.FunctionRef(r.Fn.Name)
	case ast.TclassReferent:
		x.ExprInfo().Datatype = eb.b.Types.Tclass(r.Tc.Name)
		x.ExprInfo().IsType = true
	}
}

func (eb *exprBinder) bindArrayLiteral(x *ast.ArrayLiteral, scope *ast.Block) typesystem.Datatype {
	if len(x.Elements) == 0 {
		return eb.b.Types.Array(eb.b.Types.None())
	}
	elem := eb.Bind(x.Elements[0], scope)
	for _, e := range x.Elements[1:] {
		t := eb.Bind(e, scope)
		u, err := eb.b.Types.Unify(elem, t)
		if err != nil {
			eb.b.Errors.Add(diagnostics.NewMismatch(diagnostics.ErrTypeMismatch, e.GetToken(),
				"array elements disagree", elem.String(), t.String()))
			continue
		}
		elem = u
	}
	return eb.b.Types.Array(elem)
}

func (eb *exprBinder) bindBinary(x *ast.BinaryExpr, scope *ast.Block) typesystem.Datatype {
	left := eb.Bind(x.Left, scope)
	right := eb.Bind(x.Right, scope)
	if left == nil || right == nil {
		return left
	}
	if isOverloadCandidate(left) || isOverloadCandidate(right) {
		if dt, ok := eb.bindOperatorOverload(x, left, right, scope); ok {
			return dt
		}
	}
	if x.Op.IsShift() {
		return eb.bindShift(x, left, right)
	}
	if x.Op.IsRelational() {
		if _, err := eb.b.Types.UnifyAutocast(left, x.Left.ExprInfo().Autocast, right, x.Right.ExprInfo().Autocast); err != nil {
			eb.b.Errors.Add(diagnostics.NewMismatch(diagnostics.ErrTypeMismatch, x.GetToken(),
				"comparison operands disagree", left.String(), right.String()))
		}
		return eb.b.Types.Bool(typesystem.IsSecret(left) || typesystem.IsSecret(right))
	}
	if x.Op == ast.OpIn {
		return eb.b.Types.Bool(false)
	}
	if x.Op == ast.OpRange {
		return eb.b.Types.Array(left)
	}
	if isOverloadCandidate(left) || isOverloadCandidate(right) {
		eb.b.Errors.Add(diagnostics.NewMismatch(diagnostics.ErrTypeMismatch, x.GetToken(),
			"no operator overload or builtin rule applies", left.String(), right.String()))
		return left
	}
	u, err := eb.b.Types.UnifyAutocast(left, x.Left.ExprInfo().Autocast, right, x.Right.ExprInfo().Autocast)
	if err != nil {
		eb.b.Errors.Add(diagnostics.NewMismatch(diagnostics.ErrTypeMismatch, x.GetToken(),
			"operands disagree", left.String(), right.String()))
		return left
	}
	if ui, ok := u.(*typesystem.Integer); ok && ui.Autocast {
		x.ExprInfo().Autocast = true
	}
	return u
}

// bindShift enforces spec.md §4.3's shift/rotate distance rules: the
// distance operand must be unsigned and non-secret, and a constant distance
// at or beyond the left operand's bit-width is a compile error. The result
// takes the left operand's type unchanged; shifting doesn't widen or
// re-sign a value.
func (eb *exprBinder) bindShift(x *ast.BinaryExpr, left, right typesystem.Datatype) typesystem.Datatype {
	li, ok := left.(*typesystem.Integer)
	if !ok {
		eb.b.Errors.Add(diagnostics.New(diagnostics.ErrTypeMismatch, x.GetToken(),
			"shift/rotate requires an integer left operand, got "+left.String()))
		return left
	}
	ri, ok := right.(*typesystem.Integer)
	if !ok {
		eb.b.Errors.Add(diagnostics.New(diagnostics.ErrTypeMismatch, x.Right.GetToken(),
			"shift/rotate distance must be an integer, got "+right.String()))
		return li
	}
	if ri.Secret {
		eb.b.Errors.Add(diagnostics.New(diagnostics.ErrSecretViolation, x.Right.GetToken(),
			"shift/rotate distance may not be secret"))
	}
	if ri.Signed {
		eb.b.Errors.Add(diagnostics.New(diagnostics.ErrTypeMismatch, x.Right.GetToken(),
			"shift/rotate distance must be unsigned"))
	}
	if lit, ok := x.Right.(*ast.IntLiteral); ok {
		if lit.Value.Cmp(bigint.FromInt64(int64(li.Width))) >= 0 {
			eb.b.Errors.Add(diagnostics.Newf(diagnostics.ErrOverflowWouldOccur, x.Right.GetToken(),
				"shift/rotate distance %s is not less than the %d-bit operand width", lit.Value.String(), li.Width))
		}
	}
	return li
}

func (eb *exprBinder) bindMember(x *ast.MemberExpr, scope *ast.Block) typesystem.Datatype {
	left := eb.Bind(x.Left, scope)
	if left == nil {
		return nil
	}
	switch t := left.(type) {
	case *typesystem.Class:
		class, ok := eb.b.classes.ByHandle(t.Handle)
		if !ok || class.Members == nil {
			return nil
		}
		table := symbols.MemberTable{Members: class.Members}
		ref, ok := table.Resolve(x.Member)
		if !ok {
			return nil
		}
		if v, ok := ref.(ast.VariableReferent); ok {
			return v.Var.Datatype
		}
		if f, ok := ref.(ast.FunctionReferent); ok {
			return eb.b.Types.FunctionRef(f.Fn.Name)
		}
	case *typesystem.Array:
		switch x.Member {
		case "len":
			return eb.b.Types.FunctionRef("len")
		case config.ValuesMethodName:
			return eb.b.Types.FunctionRef(config.ValuesMethodName)
		}
	}
	return nil
}

func (eb *exprBinder) bindCast(x *ast.CastExpr, scope *ast.Block) typesystem.Datatype {
	target := eb.bindTypeExpr(x.Target, scope)
	operand := eb.Bind(x.Operand, scope)
	if target == nil || operand == nil {
		return target
	}
	if _, ok := typesystem.CheckCast(operand, target, x.Trunc); !ok {
		eb.b.Errors.Add(diagnostics.NewMismatch(diagnostics.ErrInvalidCast, x.GetToken(),
			"no cast exists", operand.String(), target.String()))
	}
	return target
}

// bindTypeExpr evaluates e as a type expression (spec.md §4.3: type
// expressions reuse the value grammar, tagged IsType on their ExprMeta).
func (eb *exprBinder) bindTypeExpr(e ast.Expression, scope *ast.Block) typesystem.Datatype {
	dt := eb.Bind(e, scope)
	e.ExprInfo().IsType = true
	if tt, ok := dt.(*typesystem.TType); ok {
		return tt.Of
	}
	return dt
}

func (eb *exprBinder) bindFuncAddr(x *ast.FuncAddrExpr, scope *ast.Block) typesystem.Datatype {
	params := make([]typesystem.Datatype, len(x.Call.Positional))
	for i, a := range x.Call.Positional {
		params[i] = eb.bindTypeExpr(a, scope)
	}
	callee := x.Call.Callee
	var ret typesystem.Datatype
	if ident, ok := callee.(*ast.IdentifierExpr); ok {
		if id, _, ok := symbols.Lookup(scope, ident.Name); ok {
			if fr, ok := id.Referent.(ast.FunctionReferent); ok {
				sig, created := eb.b.sigs.Lookup(fr.Fn, params, nil)
				x.ExprInfo().HasSignature = true
				x.ExprInfo().Signature = sig.Handle
				if created {
					eb.b.queue.Park(eb.b.sigs.key(sig.Handle), x.GetToken(), func() bool {
						return sig.Bound
					})
				}
				ret = sig.Return
			}
		}
	}
	return eb.b.Types.Funcptr(ret, params)
}

// typeExprName extracts the bare tclass name from a type expression that
// names a tclass (spec.md's null(T) only ever takes a plain identifier).
func typeExprName(e ast.Expression) string {
	if id, ok := e.(*ast.IdentifierExpr); ok {
		return id.Name
	}
	return ""
}

func signedness(signed bool) string {
	if signed {
		return "signed"
	}
	return "unsigned"
}

// modKeyOf canonicalizes a modulus sub-expression into the ModKey a Modint
// interns on (spec.md glossary "Modint"): constants key on their literal
// text, everything else on its source token lexeme, which is stable enough
// to tell apart distinct moduli within one function body.
func modKeyOf(e ast.Expression) string {
	switch m := e.(type) {
	case *ast.IntLiteral:
		return m.Value.String()
	default:
		return e.GetToken().Lexeme
	}
}
