package binder

import (
	"github.com/runebind/runebind/internal/ast"
	"github.com/runebind/runebind/internal/typesystem"
)

// relationEdge records one `relation Kind Parent Child [cascade];`
// statement (SPEC_FULL.md "SUPPLEMENTED FEATURES #1: relation
// transformers"): a declared ownership edge between two classes that the
// binder lowers into reference-count bookkeeping on the parent class.
type relationEdge struct {
	kind    string
	parent  *typesystem.Class
	child   *typesystem.Class
	cascade bool
}

// applyRelations walks every relation statement bound during the body pass
// and records each as a ChildRelation on the parent's ast.Class, so a
// downstream consumer of the bound program knows which
// child references a parent is responsible for releasing, cascading the
// child's own destructor when Cascade is set (spec.md §3
// "reference-counted/cascade-delete object relations"). Grounded on the
// object-graph ownership note in spec.md §9 "Design Notes": recorded
// during statement binding, applied once in a final pass so ordering
// between the relation statement and the classes' own binding doesn't
// matter.
func applyRelations(b *Binder) {
	for _, edge := range b.relations {
		parent, ok := b.classes.ByHandle(edge.parent.Handle)
		if !ok {
			continue
		}
		parent.Children = append(parent.Children, ast.ChildRelation{
			Kind:    edge.kind,
			Child:   edge.child.Handle,
			Cascade: edge.cascade,
		})
	}
}
