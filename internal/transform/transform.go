// Package transform defines the content transform contract used by pipeline
// stages, plus the thin built-in transforms for markup, styles, scripts and
// images. Every transform is tagged with the build modes it applies in.
package transform

import (
	"context"

	"git.home.luguber.info/inful/bindery/internal/config"
)

// File is one piece of content flowing through a stage's transform chain.
// Rel is the file's path relative to the source content root.
type File struct {
	Rel  string
	Data []byte
}

// ModeSet tags a transform with the modes it applies in. An empty set means
// the transform applies in every mode.
type ModeSet []config.Mode

// Applies reports whether the transform should run under the given mode.
func (m ModeSet) Applies(mode config.Mode) bool {
	if len(m) == 0 {
		return true
	}
	for _, candidate := range m {
		if candidate == mode {
			return true
		}
	}
	return false
}

// AllModes applies in every mode.
var AllModes = ModeSet(nil)

// DevelopmentOnly applies only in the development/preview mode.
var DevelopmentOnly = ModeSet{config.ModeDevelopment}

// ProductionOnly applies in every non-development mode.
var ProductionOnly = ModeSet{config.ModeProduction}

// Transform rewrites a file's content in place. A returned error means the
// transform could not produce output for this file and fails the owning
// stage; recoverable diagnostics are logged instead and the transform
// continues with best-effort output.
type Transform interface {
	Name() string
	Modes() ModeSet
	Apply(ctx context.Context, f *File) error
}
