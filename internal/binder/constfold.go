package binder

import (
	"github.com/runebind/runebind/internal/ast"
	"github.com/runebind/runebind/internal/bigint"
)

// foldConstants runs spec.md §4.7's post-binding constant-propagation
// pass over the right-hand side of every assignment statement: arithmetic
// over integer literals there is reduced to a single IntLiteral in place,
// and a read of a const-qualified variable whose initializer folded to a
// literal is replaced by that literal. Expressions outside assignment
// right-hand sides (conditions, call statements, returns, print
// arguments) are not folded. This
// runs strictly after binding so it never has to guess at a still-
// unresolved datatype, the same ordering funvibe-funxy uses for its own
// constant folding in internal/evaluator (binder/analyzer first, folding
// as a separate later stage) — though funxy folds at evaluation time over
// an already-typed tree, while this binder folds once, statically, since
// it never runs the program.
func foldConstants(b *Binder, prog *ast.Program) {
	consts := make(map[*ast.Variable]*ast.IntLiteral)
	walkBlocks(prog.Globals, func(block *ast.Block) {
		foldBlock(block, consts)
	})
	for _, fn := range prog.Functions {
		if fn.Body != nil {
			walkBlocks(fn.Body, func(block *ast.Block) { foldBlock(block, consts) })
		}
	}
}

func foldBlock(block *ast.Block, consts map[*ast.Variable]*ast.IntLiteral) {
	for i, st := range block.Statements {
		assign, ok := st.(*ast.AssignStatement)
		if !ok {
			continue
		}
		assign.Value = foldExpr(assign.Value, consts)
		block.Statements[i] = assign
		ident, ok := assign.Target.(*ast.IdentifierExpr)
		if !ok {
			continue
		}
		lit, ok := assign.Value.(*ast.IntLiteral)
		if !ok {
			continue
		}
		id, ok := block.Identifiers[ident.Name]
		if !ok {
			continue
		}
		vr, ok := id.Referent.(ast.VariableReferent)
		if ok && vr.Var.Const {
			consts[vr.Var] = lit
		}
	}
}

// foldExpr reduces e to a literal when every sub-expression is already a
// literal or a reference to a folded const, otherwise returns e unchanged.
func foldExpr(e ast.Expression, consts map[*ast.Variable]*ast.IntLiteral) ast.Expression {
	switch x := e.(type) {
	case *ast.IntLiteral:
		return x

	case *ast.IdentifierExpr:
		if vr, ok := x.ExprInfo().Referent.(ast.VariableReferent); ok {
			if lit, ok := consts[vr.Var]; ok {
				return lit
			}
		}
		return x

	case *ast.UnaryExpr:
		x.Operand = foldExpr(x.Operand, consts)
		lit, ok := x.Operand.(*ast.IntLiteral)
		if !ok || x.Op != ast.OpNeg {
			return x
		}
		return &ast.IntLiteral{ExprMeta: x.ExprMeta, Value: lit.Value.Neg(), Width: lit.Width, Signed: lit.Signed, HasW: lit.HasW}

	case *ast.BinaryExpr:
		x.Left = foldExpr(x.Left, consts)
		x.Right = foldExpr(x.Right, consts)
		ll, lok := x.Left.(*ast.IntLiteral)
		rl, rok := x.Right.(*ast.IntLiteral)
		if !lok || !rok {
			return x
		}
		v, ok := foldIntOp(x.Op, ll.Value, rl.Value)
		if !ok {
			return x
		}
		return &ast.IntLiteral{ExprMeta: x.ExprMeta, Value: v, Width: ll.Width, Signed: ll.Signed, HasW: ll.HasW || rl.HasW}

	default:
		return e
	}
}

// foldIntOp evaluates one arithmetic/bitwise operator over two literal
// values. Relational and logical operators are left unfolded: their result
// is a Bool, not an Integer, so there's no IntLiteral node to fold into
// here (the expression binder still types them correctly either way).
func foldIntOp(op ast.BinOp, a, b bigint.Int) (bigint.Int, bool) {
	switch op {
	case ast.OpAdd:
		return a.Add(b), true
	case ast.OpSub:
		return a.Sub(b), true
	case ast.OpMul:
		return a.Mul(b), true
	case ast.OpDiv:
		return a.Div(b)
	case ast.OpMod:
		return a.Mod(b)
	case ast.OpBitAnd:
		return a.And(b), true
	case ast.OpBitOr:
		return a.Or(b), true
	case ast.OpBitXor:
		return a.Xor(b), true
	case ast.OpShl:
		if b.Sign() < 0 || shiftAmount(b) >= 1<<20 {
			return bigint.Int{}, false
		}
		return a.Shl(uint(shiftAmount(b))), true
	case ast.OpShr:
		if b.Sign() < 0 || shiftAmount(b) >= 1<<20 {
			return bigint.Int{}, false
		}
		return a.Shr(uint(shiftAmount(b))), true
	default:
		return bigint.Int{}, false
	}
}

// shiftAmount clamps an arbitrary-precision shift count to a machine uint,
// which is safe since a shift count wider than a few hundred bits is
// already a program error the binder reports elsewhere (overflow-would-
// occur); folding just refuses to guess at such a value.
func shiftAmount(b bigint.Int) uint64 {
	s := b.String()
	var n uint64
	for _, r := range s {
		if r < '0' || r > '9' {
			return 1 << 20 // deliberately absurd: caller's width check will reject it
		}
		n = n*10 + uint64(r-'0')
		if n > 1<<20 {
			return 1 << 20
		}
	}
	return n
}
