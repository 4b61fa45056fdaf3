package binder

import (
	"github.com/runebind/runebind/internal/ast"
	"github.com/runebind/runebind/internal/config"
	"github.com/runebind/runebind/internal/diagnostics"
	"github.com/runebind/runebind/internal/symbols"
	"github.com/runebind/runebind/internal/typesystem"
)

// stmtBinder walks statements with Visitor double dispatch (spec.md §4.4),
// threading reachability (StmtMeta.Instantiated) and the enclosing
// function's return-type accumulator through compound forms. Grounded on
// funvibe-funxy/internal/analyzer's walker: a struct holding mutable
// cross-statement state (inLoop, a return-type slot) that every Visit*
// method reads and updates.
type stmtBinder struct {
	b  *Binder
	eb *exprBinder

	inLoop     bool
	returns    []typesystem.Datatype // return-statement types seen in the function currently being bound
	retTok     []ast.Statement
	scopeStack []*ast.Block
	curFn      *ast.Function // enclosing function, for the "yield outside iterator" check; nil at the program root
}

func newStmtBinder(b *Binder, eb *exprBinder) *stmtBinder {
	return &stmtBinder{b: b, eb: eb}
}

func (sb *stmtBinder) scope() *ast.Block {
	if len(sb.scopeStack) == 0 {
		return nil
	}
	return sb.scopeStack[len(sb.scopeStack)-1]
}

func (sb *stmtBinder) pushScope(s *ast.Block) { sb.scopeStack = append(sb.scopeStack, s) }
func (sb *stmtBinder) popScope()              { sb.scopeStack = sb.scopeStack[:len(sb.scopeStack)-1] }

// bindTop binds a top-level statement against the program's global block.
func (sb *stmtBinder) bindTop(s ast.Statement) {
	sb.pushScope(sb.b.Program.Globals)
	defer sb.popScope()
	s.Meta().Instantiated = true
	s.Accept(sb)
}

// bindFunctionBody binds fn's body under sig's parameter bindings and
// returns the unified return datatype (spec.md §4.4 "return", §4.5
// "signature instantiation"). Each parameter Variable gets its
// per-signature Datatype for the duration of this body's binding and gets
// its previous Datatype back on return, so recursive/overloaded calls to
// the same function with different argument types don't clobber each
// other — the Variable objects belong to the Function's declared Params
// and are reused by value binding per call, matching the
// monomorphic-per-signature model.
func (sb *stmtBinder) bindFunctionBody(fn *ast.Function, sig *ast.Signature) typesystem.Datatype {
	saveLoop, saveReturns, saveTok, saveFn := sb.inLoop, sb.returns, sb.retTok, sb.curFn
	sb.inLoop, sb.returns, sb.retTok, sb.curFn = false, nil, nil, fn
	defer func() { sb.inLoop, sb.returns, sb.retTok, sb.curFn = saveLoop, saveReturns, saveTok, saveFn }()

	body := fn.Body
	if body == nil {
		body = ast.NewBlock(sb.b.Program.Globals)
		fn.Body = body
	}
	prevTypes := make([]typesystem.Datatype, len(fn.Params))
	for i, p := range fn.Params {
		prevTypes[i] = p.Var.Datatype
	}
	defer func() {
		for i, p := range fn.Params {
			p.Var.Datatype = prevTypes[i]
		}
	}()
	for i, p := range fn.Params {
		if i < len(sig.Params) {
			p.Var.Datatype = sig.Params[i]
			p.Var.Instantiated = true
			symbols.Define(body, p.Var.Name, ast.VariableReferent{Var: p.Var})
		}
	}

	sb.pushScope(body)
	for _, st := range body.Statements {
		st.Meta().Instantiated = true
		st.Accept(sb)
	}
	sb.popScope()

	var ret typesystem.Datatype
	if len(sb.returns) == 0 {
		ret = sb.b.Types.None()
	} else {
		ret = sb.returns[0]
		for i := 1; i < len(sb.returns); i++ {
			u, err := sb.b.Types.Unify(ret, sb.returns[i])
			if err != nil {
				sb.b.Errors.Add(diagnostics.NewMismatch(diagnostics.ErrTypeMismatch, sb.retTok[i].GetToken(),
					"return statements disagree", ret.String(), sb.returns[i].String()))
				continue
			}
			ret = u
		}
	}
	checkFunctionReachability(sb.b, fn, body, ret)
	return ret
}

// checkBoolCondition enforces spec.md §4.4's "condition must be non-secret
// Bool" rule shared by if/elseif, while, do-while, and the lowered for-loop
// test.
func (sb *stmtBinder) checkBoolCondition(cond ast.Expression, dt typesystem.Datatype) {
	if dt == nil {
		return
	}
	b, ok := dt.(*typesystem.Bool)
	if !ok {
		sb.b.Errors.Add(diagnostics.New(diagnostics.ErrTypeMismatch, cond.GetToken(),
			"condition must be bool, got "+dt.String()))
		return
	}
	if b.Secret {
		sb.b.Errors.Add(diagnostics.New(diagnostics.ErrSecretViolation, cond.GetToken(),
			"branch condition may not be secret"))
	}
}

// checkNotSecretBranch is the weaker secrecy-only rule for a switch
// subject, which (unlike if/while) may be any unifiable type, not just Bool.
func (sb *stmtBinder) checkNotSecretBranch(subject ast.Expression, dt typesystem.Datatype) {
	if dt == nil {
		return
	}
	if typesystem.IsSecret(dt) {
		sb.b.Errors.Add(diagnostics.New(diagnostics.ErrSecretViolation, subject.GetToken(),
			"switch may not branch on a secret value"))
	}
}

// --- Visitor implementation ---

func (sb *stmtBinder) VisitBlock(block *ast.Block) {
	sb.pushScope(block)
	for _, s := range block.Statements {
		s.Accept(sb)
	}
	sb.popScope()
}

func (sb *stmtBinder) VisitExpressionStatement(s *ast.ExpressionStatement) {
	sb.eb.Bind(s.Expr, sb.scope())
}

func (sb *stmtBinder) VisitAssignStatement(s *ast.AssignStatement) {
	value := sb.eb.Bind(s.Value, sb.scope())

	if ident, ok := s.Target.(*ast.IdentifierExpr); ok {
		sb.bindIdentifierAssign(s, ident, value)
		return
	}
	if mem, ok := s.Target.(*ast.MemberExpr); ok {
		sb.bindMemberAssign(s, mem, value)
		return
	}
	sb.eb.Bind(s.Target, sb.scope())
}

func (sb *stmtBinder) bindIdentifierAssign(s *ast.AssignStatement, ident *ast.IdentifierExpr, value typesystem.Datatype) {
	scope := sb.scope()
	id, _, exists := symbols.Lookup(scope, ident.Name)
	if !exists {
		v := &ast.Variable{Name: ident.Name, Kind: ast.LocalVar, Datatype: value, DeclToken: s.GetToken()}
		symbols.Define(scope, ident.Name, ast.VariableReferent{Var: v})
		s.Meta().IsFirstAssign = true
		ident.ExprInfo().Datatype = value
		return
	}
	vr, ok := id.Referent.(ast.VariableReferent)
	if !ok {
		return
	}
	if vr.Var.Const && !s.Meta().IsFirstAssign {
		sb.b.Errors.Add(diagnostics.New(diagnostics.ErrConstReassignment, s.GetToken(),
			"cannot assign to const "+ident.Name))
		return
	}
	if s.CompoundOp != nil {
		u, err := sb.b.Types.Unify(vr.Var.Datatype, value)
		if err != nil {
			sb.b.Errors.Add(diagnostics.NewMismatch(diagnostics.ErrTypeMismatch, s.GetToken(),
				"operator-assign operand disagrees", vr.Var.Datatype.String(), value.String()))
			return
		}
		vr.Var.Datatype = u
		return
	}
	if vr.Var.Datatype == nil {
		vr.Var.Datatype = value
		return
	}
	u, err := sb.b.Types.UnifyAutocast(vr.Var.Datatype, false, value, s.Value.ExprInfo().Autocast)
	if err != nil {
		sb.b.Errors.Add(diagnostics.NewMismatch(diagnostics.ErrTypeMismatch, s.GetToken(),
			"assignment narrows or changes the variable's type", vr.Var.Datatype.String(), value.String()))
		return
	}
	vr.Var.Datatype = u
}

// bindMemberAssign handles both ordinary member assignment and the
// constructor-time `self.x = e` member-discovery form (spec.md §4.2):
// the first time self.x is assigned inside a tclass body, it declares a
// new member on the enclosing Class.
func (sb *stmtBinder) bindMemberAssign(s *ast.AssignStatement, mem *ast.MemberExpr, value typesystem.Datatype) {
	selfIdent, ok := mem.Left.(*ast.IdentifierExpr)
	if ok && selfIdent.Name == config.SelfParamName {
		scope := sb.scope()
		selfID, _, exists := symbols.Lookup(scope, config.SelfParamName)
		if !exists {
			return
		}
		vr, ok := selfID.Referent.(ast.VariableReferent)
		if !ok {
			return
		}
		class, ok := sb.selfClass(vr)
		if !ok {
			return
		}
		if _, exists := class.Members.Identifiers[mem.Member]; !exists {
			member := &ast.Variable{Name: mem.Member, Kind: ast.MemberVar, Datatype: value, DeclToken: s.GetToken()}
			symbols.Define(class.Members, mem.Member, ast.VariableReferent{Var: member})
			return
		}
		id := class.Members.Identifiers[mem.Member]
		vr2 := id.Referent.(ast.VariableReferent)
		u, err := sb.b.Types.Unify(vr2.Var.Datatype, value)
		if err == nil {
			vr2.Var.Datatype = u
		}
		return
	}
	sb.eb.Bind(mem, sb.scope())
}

func (sb *stmtBinder) selfClass(vr ast.VariableReferent) (*ast.Class, bool) {
	c, ok := vr.Var.Datatype.(*typesystem.Class)
	if !ok {
		return nil, false
	}
	return sb.b.classes.ByHandle(c.Handle)
}

func (sb *stmtBinder) VisitIfStatement(s *ast.IfStatement) {
	for _, clause := range s.Clauses {
		dt := sb.eb.Bind(clause.Cond, sb.scope())
		sb.checkBoolCondition(clause.Cond, dt)
		sb.VisitBlock(clause.Body)
	}
	if s.Else != nil {
		sb.VisitBlock(s.Else)
	}
}

func (sb *stmtBinder) VisitSwitchStatement(s *ast.SwitchStatement) {
	subject := sb.eb.Bind(s.Subject, sb.scope())
	sb.checkNotSecretBranch(s.Subject, subject)
	for _, c := range s.Cases {
		for _, v := range c.Values {
			vt := sb.eb.Bind(v, sb.scope())
			if subject != nil && vt != nil {
				if _, err := sb.b.Types.Unify(subject, vt); err != nil {
					sb.b.Errors.Add(diagnostics.NewMismatch(diagnostics.ErrTypeMismatch, v.GetToken(),
						"case value disagrees with switch subject", subject.String(), vt.String()))
				}
			}
		}
		sb.VisitBlock(c.Body)
	}
	if s.Default == nil {
		// spec.md §4.4: a missing default is auto-synthesized to throw at
		// run time, not to silently fall through.
		s.Default = ast.NewBlock(sb.scope())
		s.Default.Statements = []ast.Statement{&ast.ThrowStatement{StmtMeta: ast.StmtMeta{Instantiated: true, Token: s.GetToken()}}}
		s.DefaultSynthd = true
	}
	sb.VisitBlock(s.Default)
}

func (sb *stmtBinder) VisitTypeSwitchStatement(s *ast.TypeSwitchStatement) {
	subject := sb.eb.Bind(s.Subject, sb.scope())
	s.Selected = -1
	for i, c := range s.Cases {
		pattern := sb.eb.bindTypeExpr(c.TypePattern, sb.scope())
		if _, err := sb.b.Types.Unify(subject, pattern); err == nil && s.Selected == -1 {
			s.Selected = i
			sb.VisitBlock(c.Body)
		}
	}
}

func (sb *stmtBinder) VisitWhileStatement(s *ast.WhileStatement) {
	dt := sb.eb.Bind(s.Cond, sb.scope())
	sb.checkBoolCondition(s.Cond, dt)
	saveLoop := sb.inLoop
	sb.inLoop = true
	sb.VisitBlock(s.Body)
	sb.inLoop = saveLoop
}

func (sb *stmtBinder) VisitForStatement(s *ast.ForStatement) {
	inner := ast.NewBlock(sb.scope())
	sb.pushScope(inner)
	if s.Init != nil {
		s.Init.Accept(sb)
	}
	if s.Cond != nil {
		dt := sb.eb.Bind(s.Cond, sb.scope())
		sb.checkBoolCondition(s.Cond, dt)
	}
	saveLoop := sb.inLoop
	sb.inLoop = true
	sb.VisitBlock(s.Body)
	if s.Update != nil {
		s.Update.Accept(sb)
	}
	sb.inLoop = saveLoop
	sb.popScope()
}

func (sb *stmtBinder) VisitForeachStatement(s *ast.ForeachStatement) {
	iterType := sb.eb.Bind(s.Iterable, sb.scope())
	inner := ast.NewBlock(sb.scope())
	var elem typesystem.Datatype
	if arr, ok := iterType.(*typesystem.Array); ok {
		elem = arr.Elem
	}
	v := &ast.Variable{Name: s.VarName, Kind: ast.LocalVar, Datatype: elem, DeclToken: s.GetToken()}
	symbols.Define(inner, s.VarName, ast.VariableReferent{Var: v})
	sb.pushScope(inner)
	saveLoop := sb.inLoop
	sb.inLoop = true
	sb.VisitBlock(s.Body)
	sb.inLoop = saveLoop
	sb.popScope()
}

func (sb *stmtBinder) VisitReturnStatement(s *ast.ReturnStatement) {
	var t typesystem.Datatype
	if s.Value != nil {
		t = sb.eb.Bind(s.Value, sb.scope())
	} else {
		t = sb.b.Types.None()
	}
	sb.returns = append(sb.returns, t)
	sb.retTok = append(sb.retTok, s)
}

func (sb *stmtBinder) VisitYieldStatement(s *ast.YieldStatement) {
	sb.eb.Bind(s.Value, sb.scope())
	if sb.curFn == nil || sb.curFn.Kind != ast.IteratorFunc {
		sb.b.Errors.Add(diagnostics.New(diagnostics.ErrYieldOutsideIterator, s.GetToken(),
			"yield is only valid inside an iterator"))
	}
}

func (sb *stmtBinder) VisitThrowStatement(s *ast.ThrowStatement) {
	sb.eb.Bind(s.Value, sb.scope())
}

func (sb *stmtBinder) VisitPrintStatement(s *ast.PrintStatement) {
	sb.eb.Bind(s.Format, sb.scope())
	argTypes := make([]typesystem.Datatype, len(s.Args))
	unresolved := false
	for i, a := range s.Args {
		argTypes[i] = sb.eb.Bind(a, sb.scope())
		if argTypes[i] == nil {
			unresolved = true
		}
	}
	lit, ok := s.Format.(*ast.StringLiteral)
	if !ok {
		sb.b.Errors.Add(diagnostics.New(diagnostics.ErrTypeMismatch, s.Format.GetToken(),
			"print format must be a constant string literal"))
		return
	}
	if unresolved {
		return
	}
	lit.Value = validatePrintFormat(lit.Value, argTypes, s.GetToken(), sb.b.Errors)
}

func (sb *stmtBinder) VisitRefStatement(s *ast.RefStatement) {
	operand := sb.eb.Bind(s.Operand, sb.scope())
	c, ok := operand.(*typesystem.Class)
	if !ok {
		return
	}
	class, ok := sb.b.classes.ByHandle(c.Handle)
	if !ok || !class.Tclass.RefCounted {
		if s.Unref {
			sb.b.Errors.Add(diagnostics.New(diagnostics.ErrUnrefNotRefCounted, s.GetToken(),
				"unref target's tclass is not reference-counted"))
		}
	}
}

func (sb *stmtBinder) VisitImportStatement(s *ast.ImportStatement) {}

func (sb *stmtBinder) VisitRelationStatement(s *ast.RelationStatement) {
	parent := sb.eb.Bind(s.Parent, sb.scope())
	child := sb.eb.Bind(s.Child, sb.scope())
	_, parentOK := parent.(*typesystem.Class)
	_, childOK := child.(*typesystem.Class)
	if !parentOK || !childOK {
		sb.b.Errors.Add(diagnostics.New(diagnostics.ErrRelationTargetNotClass, s.GetToken(),
			"relation statement requires two class-typed operands"))
		return
	}
	sb.b.relations = append(sb.b.relations, relationEdge{
		kind: s.Kind, parent: parent.(*typesystem.Class), child: child.(*typesystem.Class), cascade: s.Cascade,
	})
}

func (sb *stmtBinder) VisitGenerateStatement(s *ast.GenerateStatement) {
	sb.eb.Bind(s.Target, sb.scope())
}
