// Package config holds process-wide ambient flags and builtin names consulted
// while binding. Mirrors a compiler's global mode-flag package: small,
// mutable, set once near startup, read everywhere.
package config

// Version is the runebind binder version.
var Version = "0.1.0"

const SourceFileExt = ".rn"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".rn", ".rune"}

// TrimSourceExt removes any recognized source extension from a filename.
// Returns the original string if no extension matches.
func TrimSourceExt(name string) string {
	for _, ext := range SourceFileExtensions {
		if len(name) >= len(ext) && name[len(name)-len(ext):] == ext {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// HasSourceExt returns true if the path ends with any recognized source extension.
func HasSourceExt(path string) bool {
	for _, ext := range SourceFileExtensions {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// IsTestMode normalizes generated names (signature and class debug ids,
// inlined-iterator rename suffixes) for deterministic golden-file tests.
var IsTestMode = false

// UnsafeMode is the process-wide unsafe-mode flag, set by ext.Options.Apply.
// No binder pass reads it: overflow and bounds diagnostics are reported the
// same way whether it is set or not.
var UnsafeMode = false

// Builtin identifiers the binder treats specially.
const (
	SelfParamName    = "self"
	ValuesMethodName = "values"
	NewCtorName      = "new"
)

// Builtin relation-transformer names (spec.md §9, "relation statements").
const (
	ArrayListRelationName = "ArrayList"
	CascadeRelationName   = "cascade"
)

// Default widths used when a literal or cast omits one.
const (
	DefaultIntWidth  = 32
	DefaultUintWidth = 32
)
