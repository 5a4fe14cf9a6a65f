package stage

import (
	"context"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"git.home.luguber.info/inful/bindery/internal/config"
	"git.home.luguber.info/inful/bindery/internal/errors"
	"git.home.luguber.info/inful/bindery/internal/observability"
	"git.home.luguber.info/inful/bindery/internal/task"
	"git.home.luguber.info/inful/bindery/internal/transform"
)

// ExtRule rewrites an output file extension in the modes it is tagged with.
// An empty ModeSet applies in every mode.
type ExtRule struct {
	From  string
	To    string
	Modes transform.ModeSet
}

// Stage describes one content kind: an input match pattern, an ordered
// mode-conditional transform chain, and an output path mapping. A Stage is
// stateless configuration, reusable across invocations.
type Stage struct {
	Name       string
	Pattern    Pattern
	Transforms []transform.Transform

	// SubDir relocates every output into this directory directly under the
	// build content root, regardless of source location. Empty keeps the
	// source-relative path.
	SubDir string

	// Renames rewrites output extensions, first matching rule wins.
	Renames []ExtRule
}

// DestRel maps a matched source-relative path to its build-relative
// destination under the given mode.
func (s *Stage) DestRel(rel string, mode config.Mode) string {
	out := rel
	if s.SubDir != "" {
		out = path.Join(s.SubDir, path.Base(rel))
	}
	ext := path.Ext(out)
	for _, rule := range s.Renames {
		if rule.From == ext && rule.Modes.Applies(mode) {
			out = out[:len(out)-len(ext)] + rule.To
			break
		}
	}
	return out
}

// Run executes the stage: enumerate matches under srcRoot, apply the
// transform chain for the mode, write results under dstRoot. Zero matches
// is an empty run, not an error. A transform failure aborts this stage only;
// the error propagates as the stage's completion failure.
func (s *Stage) Run(ctx context.Context, srcRoot, dstRoot string, mode config.Mode) error {
	matches, err := s.Pattern.Glob(srcRoot)
	if err != nil {
		return errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityError, "failed to enumerate sources").
			WithContext("stage", s.Name)
	}
	if len(matches) == 0 {
		observability.DebugContext(ctx, "No matching sources", slog.String("stage", s.Name))
		return nil
	}

	for _, rel := range matches {
		if err := s.processFile(ctx, srcRoot, dstRoot, rel, mode); err != nil {
			return err
		}
	}
	observability.InfoContext(ctx, "Stage completed", slog.Int("files", len(matches)))
	return nil
}

func (s *Stage) processFile(ctx context.Context, srcRoot, dstRoot, rel string, mode config.Mode) error {
	data, err := os.ReadFile(filepath.Join(srcRoot, filepath.FromSlash(rel)))
	if err != nil {
		return errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityError, "failed to read source").
			WithContext("file", rel)
	}

	f := &transform.File{Rel: rel, Data: data}
	for _, tr := range s.Transforms {
		if !tr.Modes().Applies(mode) {
			continue
		}
		if err := tr.Apply(ctx, f); err != nil {
			return errors.Wrap(err, errors.CategoryTransform, errors.SeverityError, "transform failed").
				WithContext("file", rel).
				WithContext("transform", tr.Name())
		}
	}

	dest := filepath.Join(dstRoot, filepath.FromSlash(s.DestRel(rel, mode)))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityError, "failed to create output directory").
			WithContext("file", rel)
	}
	if err := os.WriteFile(dest, f.Data, 0o644); err != nil {
		return errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityError, "failed to write output").
			WithContext("file", rel)
	}
	return nil
}

// Task adapts the stage to a leaf task bound to resolved paths and a mode.
func (s *Stage) Task(paths config.Paths, mode config.Mode) task.Task {
	return task.Func(s.Name, func(ctx context.Context) error {
		return s.Run(ctx, paths.SourceContent, paths.BuildContent, mode)
	})
}
