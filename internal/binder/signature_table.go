package binder

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/runebind/runebind/internal/ast"
	"github.com/runebind/runebind/internal/config"
	"github.com/runebind/runebind/internal/typesystem"
)

// signatureTable canonicalizes and hash-conses (function, parameter-type
// vector) pairs into Signatures (spec.md §4.5, §3 "Signature"). Two call
// sites with the same function and the same canonicalized parameter
// datatypes share one Signature, so their bodies are bound exactly once.
//
// Grounded on funvibe-funxy's TVar/TCon type-scheme cache in
// internal/typesystem (one scheme instantiated afresh per call under HM);
// here there is no generalization step, so the cache key is simply the
// concrete parameter datatype vector itself.
type signatureTable struct {
	b       *Binder
	byKey   map[string]*ast.Signature
	handles map[typesystem.SignatureHandle]*ast.Signature
	next    typesystem.SignatureHandle
}

func newSignatureTable(b *Binder) *signatureTable {
	return &signatureTable{
		byKey:   make(map[string]*ast.Signature),
		handles: make(map[typesystem.SignatureHandle]*ast.Signature),
		next:    1,
	}
}

// canonKey builds the cache key for fn instantiated at params from the
// name and each parameter's rendered datatype (Datatype.String()). No null
// resolution is applied: a Null(T) parameter and a Class(T) parameter
// render differently, so call sites differing only in null-refinement get
// distinct signatures (and, through classTable, distinct Classes).
func canonKey(fnName string, params []typesystem.Datatype) string {
	var sb strings.Builder
	sb.WriteString(fnName)
	for _, p := range params {
		sb.WriteByte('|')
		sb.WriteString(p.String())
	}
	return sb.String()
}

// Lookup returns the existing Signature for (fn, params) or creates a new,
// unbound one. The debug id uses uuid.NewString the way funxy stamps fresh
// module instance ids, so each newly created Signature also carries a
// globally-unique debug id independent of its handle. A fresh uuid is drawn
// on every run, so the id differs between runs; under config.IsTestMode it
// is the deterministic "sig-<handle>" instead, for golden-file output.
func (t *signatureTable) Lookup(fn *ast.Function, params []typesystem.Datatype, names []string) (*ast.Signature, bool) {
	key := canonKey(fn.Name, params)
	if sig, ok := t.byKey[key]; ok {
		return sig, false
	}
	h := t.next
	t.next++
	debugID := uuid.NewString()
	if config.IsTestMode {
		debugID = fmt.Sprintf("sig-%d", h)
	}
	sig := &ast.Signature{
		Handle:     h,
		DebugID:    debugID,
		Fn:         fn,
		Params:     params,
		ParamNames: names,
	}
	t.byKey[key] = sig
	t.handles[h] = sig
	if fn.Signatures == nil {
		fn.Signatures = make(map[string]*ast.Signature)
	}
	fn.Signatures[key] = sig
	return sig, true
}

func (t *signatureTable) ByHandle(h typesystem.SignatureHandle) (*ast.Signature, bool) {
	sig, ok := t.handles[h]
	return sig, ok
}

func (t *signatureTable) key(h typesystem.SignatureHandle) string {
	return fmt.Sprintf("sig:%d", h)
}
