package binder

import "github.com/runebind/runebind/internal/ast"

// tclassByName and fnByName index the program's top-level declarations by
// name; ast.Program stores them as plain slices since the parser never
// needs random access, but the binder looks them up by name constantly
// (spec.md §4.5 "class/function instantiation").
func (b *Binder) tclassByName(name string) (*ast.Tclass, bool) {
	if b.tclassIdx == nil {
		b.tclassIdx = make(map[string]*ast.Tclass, len(b.Program.Tclasses))
		for _, tc := range b.Program.Tclasses {
			b.tclassIdx[tc.Name] = tc
		}
	}
	tc, ok := b.tclassIdx[name]
	return tc, ok
}

func (b *Binder) fnByName(name string) (*ast.Function, bool) {
	if b.fnIdx == nil {
		b.fnIdx = make(map[string]*ast.Function, len(b.Program.Functions))
		for _, fn := range b.Program.Functions {
			b.fnIdx[fn.Name] = fn
		}
	}
	fn, ok := b.fnIdx[name]
	return fn, ok
}

// operatorCandidates returns every OperatorFunc declared for symbol, in
// declaration order (spec.md §4.5 "the set of operator overloads
// registered for the given operator is probed in declaration order").
func (b *Binder) operatorCandidates(symbol string) []*ast.Function {
	if b.operatorIdx == nil {
		b.operatorIdx = make(map[string][]*ast.Function)
		for _, fn := range b.Program.Functions {
			if fn.Kind == ast.OperatorFunc {
				b.operatorIdx[fn.OperatorName] = append(b.operatorIdx[fn.OperatorName], fn)
			}
		}
	}
	return b.operatorIdx[symbol]
}
