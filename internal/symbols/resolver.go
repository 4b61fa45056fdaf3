// Package symbols resolves identifiers and dotted member access against the
// block chain and class/tclass/enum tables built by the parser (spec.md
// §4.2). Unlike funvibe-funxy/internal/symbols, which keeps a separate
// SymbolTable parallel to the AST, here the scope chain already lives on
// ast.Block (spec.md §3 "Block" carries its own Identifiers map), so this
// package is a thin resolution and bookkeeping layer over it rather than a
// second symbol table — see DESIGN.md.
//
// Grounded on funvibe-funxy/internal/symbols/symbol_table_resolution.go's
// outer-chain walk and symbol_table_core.go's IsPending forward-declaration
// flag, adapted to the monomorphic model: a Pending identifier here means
// "referenced before its declaring statement bound", not "cyclic type alias".
package symbols

import "github.com/runebind/runebind/internal/ast"

// Define installs name in block, overwriting any prior Referent, and wakes
// any tasks parked on it by WhenDefined.
func Define(block *ast.Block, name string, ref ast.Referent) *ast.Identifier {
	if id, ok := block.Identifiers[name]; ok {
		id.Referent = ref
		wake(id)
		return id
	}
	id := &ast.Identifier{Name: name, Referent: ref}
	block.Identifiers[name] = id
	return id
}

// Lookup walks the block chain outward, returning the first Identifier
// bound to name and the block that owns it.
func Lookup(block *ast.Block, name string) (*ast.Identifier, *ast.Block, bool) {
	for b := block; b != nil; b = b.Outer {
		if id, ok := b.Identifiers[name]; ok {
			return id, b, true
		}
	}
	return nil, nil, false
}

// Declared reports whether name is visible from block without registering
// a placeholder, the read-only counterpart to Lookup used by diagnostics.
func Declared(block *ast.Block, name string) bool {
	_, _, ok := Lookup(block, name)
	return ok
}

// Placeholder returns the Identifier for name, creating an unresolved one in
// block (the innermost scope) if none exists yet anywhere on the chain. The
// binder calls this for forward references and parks a continuation under
// the name on its own event queue (spec.md §4.2, §5 event-driven variant);
// WhenDefined is the standalone alternative for callers without one.
func Placeholder(block *ast.Block, name string) *ast.Identifier {
	if id, _, ok := Lookup(block, name); ok {
		return id
	}
	id := &ast.Identifier{Name: name}
	block.Identifiers[name] = id
	return id
}

// WhenDefined runs task immediately if id already has a Referent, otherwise
// parks it to run the moment Define resolves id.
func WhenDefined(id *ast.Identifier, task func()) {
	if id.Referent != nil {
		task()
		return
	}
	id.Blocked = append(id.Blocked, task)
}

func wake(id *ast.Identifier) {
	tasks := id.Blocked
	id.Blocked = nil
	for _, t := range tasks {
		t()
	}
}

// MemberTable is the dotted-access scope for a value of some datatype:
// class instance members, tclass static functions, enum variants, or a
// builtin method set (spec.md §4.2 "a.b" resolution). Any of the sources
// may be nil; when several are set, Resolve checks them in field order.
type MemberTable struct {
	Members *ast.Block          // class instance members (self.x = ... discovery)
	Statics map[string]*ast.Function
	Builtin map[string]BuiltinMethod
}

// BuiltinMethod describes a method supplied by the runtime rather than user
// source, e.g. array.len(), string.values() (spec.md §4.3 "builtin methods").
type BuiltinMethod struct {
	Name   string
	Params int
}

// Resolve looks up member in t, preferring instance members, then statics,
// then builtins, matching spec.md §4.2's resolution order for "a.b".
func (t MemberTable) Resolve(member string) (ast.Referent, bool) {
	if t.Members != nil {
		if id, ok := t.Members.Identifiers[member]; ok && id.Referent != nil {
			return id.Referent, true
		}
	}
	if fn, ok := t.Statics[member]; ok {
		return ast.FunctionReferent{Fn: fn}, true
	}
	if _, ok := t.Builtin[member]; ok {
		return nil, false // builtins carry no Referent; caller checks Builtin directly
	}
	return nil, false
}
