package binder

import (
	"github.com/runebind/runebind/internal/ast"
	"github.com/runebind/runebind/internal/bigint"
	"github.com/runebind/runebind/internal/config"
	"github.com/runebind/runebind/internal/diagnostics"
	"github.com/runebind/runebind/internal/token"
	"github.com/runebind/runebind/internal/typesystem"
)

// computeBlockFlow runs spec.md §4.4's "reachability analysis runs per
// block after statement binding": it walks block's statements in order,
// populating every nested ast.Block's CanContinue/CanReturn flags (spec.md
// §3 "Block"), and reports the first statement following an unconditional
// return/throw as unreachable. canContinue reports whether control can
// fall off the end of block; canReturn reports whether some path through
// it hits a return or throw.
func computeBlockFlow(b *Binder, block *ast.Block) (canContinue, canReturn bool) {
	if block == nil {
		return true, false
	}
	canContinue = true
	reported := false
	for _, st := range block.Statements {
		if !canContinue && !reported {
			b.Errors.Add(diagnostics.New(diagnostics.ErrReachability, st.GetToken(), "unreachable statement"))
			reported = true
		}
		sc, sr := computeStmtFlow(b, st)
		if sr {
			canReturn = true
		}
		canContinue = canContinue && sc
	}
	block.CanContinue = canContinue
	block.CanReturn = canReturn
	return canContinue, canReturn
}

// computeStmtFlow is computeBlockFlow's per-statement dispatch. Compound
// forms follow spec.md §4.4's explicit fall-through rules: an if/elseif/
// else chain or a switch can-fall-through iff any branch can, or (for if)
// no else is present; a loop can always fall through to the statement
// after it, regardless of its body's own flow, since the loop may execute
// zero times.
func computeStmtFlow(b *Binder, st ast.Statement) (canContinue, canReturn bool) {
	switch s := st.(type) {
	case *ast.ReturnStatement:
		return false, true

	case *ast.ThrowStatement:
		return false, true

	case *ast.IfStatement:
		anyContinue := s.Else == nil
		for _, c := range s.Clauses {
			cc, cr := computeBlockFlow(b, c.Body)
			canReturn = canReturn || cr
			anyContinue = anyContinue || cc
		}
		if s.Else != nil {
			cc, cr := computeBlockFlow(b, s.Else)
			canReturn = canReturn || cr
			anyContinue = anyContinue || cc
		}
		return anyContinue, canReturn

	case *ast.SwitchStatement:
		anyContinue := s.Default == nil
		for _, c := range s.Cases {
			cc, cr := computeBlockFlow(b, c.Body)
			canReturn = canReturn || cr
			anyContinue = anyContinue || cc
		}
		if s.Default != nil {
			cc, cr := computeBlockFlow(b, s.Default)
			canReturn = canReturn || cr
			anyContinue = anyContinue || cc
		}
		return anyContinue, canReturn

	case *ast.TypeSwitchStatement:
		if s.Selected < 0 || s.Selected >= len(s.Cases) {
			return true, false
		}
		return computeBlockFlow(b, s.Cases[s.Selected].Body)

	case *ast.WhileStatement:
		_, cr := computeBlockFlow(b, s.Body)
		return true, cr

	case *ast.ForStatement:
		_, cr := computeBlockFlow(b, s.Body)
		return true, cr

	case *ast.ForeachStatement:
		_, cr := computeBlockFlow(b, s.Body)
		return true, cr

	case *inlinedYieldBlock:
		return computeBlockFlow(b, s.Body)

	default:
		return true, false
	}
}

// containsYield reports whether block, or any block nested under it,
// reaches a yield statement — spec.md §4.4's "a function body that never
// executes a yield but is declared an iterator is an error".
func containsYield(block *ast.Block) bool {
	if block == nil {
		return false
	}
	for _, st := range block.Statements {
		if _, ok := st.(*ast.YieldStatement); ok {
			return true
		}
		for _, nb := range subBlocks(st) {
			if containsYield(nb) {
				return true
			}
		}
	}
	return false
}

// lastToken anchors a synthesized or reported statement to a source
// position: the last statement's token when body is non-empty, else
// fallback.
func lastToken(body *ast.Block, fallback token.Token) token.Token {
	if body != nil && len(body.Statements) > 0 {
		return body.Statements[len(body.Statements)-1].GetToken()
	}
	return fallback
}

// checkFunctionReachability is computeBlockFlow's function-level close-out
// (spec.md §4.4's closing paragraph, §8 "Reachability correctness"). An
// iterator that never yields is always an error. For an ordinary function,
// falling off the end without a terminating return is reported as an
// error rather than silently patched — only the program root gets the
// spec's "(or return 0; at the program root)" silent synthesis, since §8's
// testable-properties wording restricts that to "the outer root block
// only" (see DESIGN.md for this Open Question resolution).
func checkFunctionReachability(b *Binder, fn *ast.Function, body *ast.Block, ret typesystem.Datatype) {
	canContinue, _ := computeBlockFlow(b, body)
	if fn.Kind == ast.IteratorFunc {
		if fn.Synthesized {
			return
		}
		if !containsYield(body) {
			b.Errors.Add(diagnostics.New(diagnostics.ErrReachability, lastToken(body, fn.Token),
				"iterator "+fn.Name+" never yields"))
		}
		return
	}
	if canContinue {
		b.Errors.Add(diagnostics.New(diagnostics.ErrNoTerminatingReturn, lastToken(body, fn.Token),
			"function "+fn.Name+" can fall off its end without a terminating return"))
	}
}

// markUnreachable runs only the fall-through/unreachable-code computation,
// for bodies without an ordinary function's return contract: constructor
// bodies (which implicitly return the constructed self) and the program
// root, whose own close-out is checkRootReachability.
func markUnreachable(b *Binder, block *ast.Block) bool {
	canContinue, _ := computeBlockFlow(b, block)
	return canContinue
}

// checkRootReachability is the program root's close-out: the one place
// spec.md §4.4's "synthesize ... return 0; at the program root" applies
// literally, since the root isn't an ast.Function and has no declared
// return type to unify against — it is always treated as returning an
// int exit code.
func checkRootReachability(b *Binder, eb *exprBinder) {
	if markUnreachable(b, b.Program.Globals) {
		tok := lastToken(b.Program.Globals, token.Token{})
		zero := &ast.IntLiteral{Value: bigint.FromInt64(0), Width: config.DefaultIntWidth, Signed: true, HasW: false}
		eb.Bind(zero, b.Program.Globals)
		ret := &ast.ReturnStatement{StmtMeta: ast.StmtMeta{Instantiated: true, Token: tok}, Value: zero}
		b.Program.Globals.Statements = append(b.Program.Globals.Statements, ret)
		b.Program.Statements = append(b.Program.Statements, ret)
	}
}
