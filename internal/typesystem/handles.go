package typesystem

// SignatureHandle is a stable, non-owning reference into the binder's
// signature table (spec.md §9: "components hold non-owning references via
// stable keys... so that rebinding a function's body under a new signature
// does not invalidate older bound signatures").
type SignatureHandle uint64

// NoSignature is the zero value, meaning "no signature resolved yet".
const NoSignature SignatureHandle = 0
