// Package ext loads binder options from a runebind.yaml file.
//
// Grounded on funvibe-funxy/internal/ext/config.go's Config/Dep pair
// (a yaml.v3-tagged struct loaded with yaml.Unmarshal and validated field
// by field); this package is far smaller since the binder has no Go-ext
// binding generation to configure, only the handful of mode flags
// internal/config exposes as process-wide switches.
package ext

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/runebind/runebind/internal/config"
)

// Options is the top-level runebind.yaml shape.
type Options struct {
	// Unsafe is copied into config.UnsafeMode by Apply; the binder does not
	// consult that flag.
	Unsafe bool `yaml:"unsafe,omitempty"`

	// Verbose is decoded from the file only: Apply does not act on it, and
	// the event queue's telemetry.Tracer stays silent whatever its value.
	Verbose bool `yaml:"verbose,omitempty"`

	// GoldenMode normalizes generated signature/class debug ids for
	// deterministic snapshot tests (config.IsTestMode).
	GoldenMode bool `yaml:"golden_mode,omitempty"`

	// Relations lists extra relation-transformer kinds besides the builtin
	// ArrayList/cascade pair (config.ArrayListRelationName). Load checks that
	// each entry has a name; Apply does not pass the list to the binder.
	Relations []RelationKind `yaml:"relations,omitempty"`
}

// RelationKind names one additional relation-transformer kind a project
// can declare, mirroring how funxy's ext.Dep entries are themselves a
// list of declared extensions under one yaml key.
type RelationKind struct {
	Name    string `yaml:"name"`
	Cascade bool   `yaml:"cascade,omitempty"`
}

// Load reads and validates a runebind.yaml file at path.
func Load(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ext: read %s: %w", path, err)
	}
	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("ext: parse %s: %w", path, err)
	}
	for _, r := range opts.Relations {
		if r.Name == "" {
			return nil, fmt.Errorf("ext: %s: relation entry missing name", path)
		}
	}
	return &opts, nil
}

// Apply pushes Options onto the process-wide config flags internal/config
// exposes, the same "load once, mutate package globals" pattern
// config.go itself documents.
func (o *Options) Apply() {
	if o == nil {
		return
	}
	config.UnsafeMode = o.Unsafe
	config.IsTestMode = o.GoldenMode
}
