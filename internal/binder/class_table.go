package binder

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/runebind/runebind/internal/ast"
	"github.com/runebind/runebind/internal/config"
	"github.com/runebind/runebind/internal/typesystem"
)

// classTable hash-conses ast.Class instances on (tclass, constructor
// parameter datatype vector), so two constructor calls with identical
// argument types share the member layout and destructor (spec.md §3
// "Class", §4.5). Classes are referenced everywhere else only through
// their stable typesystem.ClassHandle, never by pointer, so rebinding a
// tclass body never invalidates a caller's already-bound reference.
type classTable struct {
	b       *Binder
	byKey   map[string]*ast.Class
	handles map[typesystem.ClassHandle]*ast.Class
	next    typesystem.ClassHandle
}

func newClassTable(b *Binder) *classTable {
	return &classTable{
		byKey:   make(map[string]*ast.Class),
		handles: make(map[typesystem.ClassHandle]*ast.Class),
		next:    1,
	}
}

// Lookup returns the existing Class for (tc, params) or allocates a new,
// unbound one with a fresh handle.
func (t *classTable) Lookup(tc *ast.Tclass, params []typesystem.Datatype) (*ast.Class, bool) {
	key := canonKey(tc.Name, params)
	if c, ok := t.byKey[key]; ok {
		return c, false
	}
	h := t.next
	t.next++
	c := &ast.Class{Handle: h, StableID: newClassStableID(h), Tclass: tc, Members: ast.NewBlock(nil)}
	t.byKey[key] = c
	t.handles[h] = c
	if tc.Classes == nil {
		tc.Classes = make(map[typesystem.ClassHandle]*ast.Class)
	}
	tc.Classes[h] = c
	return c, true
}

func (t *classTable) ByHandle(h typesystem.ClassHandle) (*ast.Class, bool) {
	c, ok := t.handles[h]
	return c, ok
}

func (t *classTable) key(h typesystem.ClassHandle) string {
	return "class:" + strconv.FormatUint(uint64(h), 10)
}

// newClassStableID mints a debug identifier for a Class the way
// signatureTable mints one for a Signature, switching to a deterministic
// form under config.IsTestMode so golden diagnostic output stays stable.
func newClassStableID(handle typesystem.ClassHandle) string {
	if config.IsTestMode {
		return fmtHandle(handle)
	}
	return uuid.NewString()
}

func fmtHandle(h typesystem.ClassHandle) string {
	return "class-" + strconv.FormatUint(uint64(h), 10)
}
