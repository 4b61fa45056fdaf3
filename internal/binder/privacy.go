package binder

import (
	"github.com/runebind/runebind/internal/ast"
	"github.com/runebind/runebind/internal/typesystem"
)

// PrivacyHook lets a downstream privacy analyzer observe every signature
// the binder finishes instantiating, without the binder itself depending
// on any such analysis (SPEC_FULL.md SUPPLEMENTED FEATURES #2: spec.md §1
// mentions "an optional privacy-analysis pass" but never specifies it
// further). The hook sees exactly the secrecy-tagged parameter and return
// datatypes already computed for ordinary binding; it cannot influence
// binding itself.
type PrivacyHook interface {
	ObserveSignature(sig *ast.Signature)
}

// InstallPrivacyHook registers hook to run after every top-level Bind.
// Passing nil disables the pass (the default).
func (b *Binder) InstallPrivacyHook(hook PrivacyHook) {
	b.privacy = hook
}

// runPrivacyPass calls the installed hook, if any, once per bound
// signature, in the order they were created.
func runPrivacyPass(b *Binder) {
	if b.privacy == nil {
		return
	}
	for h := typesystem.SignatureHandle(1); h < b.sigs.next; h++ {
		if sig, ok := b.sigs.handles[h]; ok && sig.Bound {
			b.privacy.ObserveSignature(sig)
		}
	}
}
