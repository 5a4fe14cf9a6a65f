// Package pipeline defines the default stage set for an EPUB source tree and
// assembles the task registry the CLI commands run against. It is the one
// place where stages, composites, packaging, validation and watch bindings
// are wired together.
package pipeline

import (
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/bindery/internal/check"
	"git.home.luguber.info/inful/bindery/internal/config"
	"git.home.luguber.info/inful/bindery/internal/epub"
	"git.home.luguber.info/inful/bindery/internal/errors"
	"git.home.luguber.info/inful/bindery/internal/metrics"
	"git.home.luguber.info/inful/bindery/internal/stage"
	"git.home.luguber.info/inful/bindery/internal/task"
	"git.home.luguber.info/inful/bindery/internal/transform"
	"git.home.luguber.info/inful/bindery/internal/util"
	"git.home.luguber.info/inful/bindery/internal/watch"
)

// Stage and top-level task names. Watch bindings and CLI commands refer to
// tasks by these names.
const (
	TaskMarkup   = "markup"
	TaskMarkdown = "markdown"
	TaskStyles   = "styles"
	TaskScripts  = "scripts"
	TaskImages   = "images"
	TaskCopy     = "copy"
	TaskBuild    = "build"
	TaskDist     = "dist"
	TaskCheck    = "check"
)

var (
	markupGlobs   = []string{"**/*.html"}
	markdownGlobs = []string{"**/*.md"}
	stylesGlobs   = []string{"**/*.scss", "**/*.css"}
	scriptsGlobs  = []string{"**/*.js"}
	imagesGlobs   = []string{"**/*.png", "**/*.jpg", "**/*.jpeg", "**/*.gif", "**/*.svg"}
)

// Stages returns the default stage set for a source content tree. Together
// the stages cover every source file exactly once: the copy stage's excludes
// are the union of all other stages' includes.
func Stages(sourceContent string) []*stage.Stage {
	var claimed []string
	for _, globs := range [][]string{markupGlobs, markdownGlobs, stylesGlobs, scriptsGlobs, imagesGlobs} {
		claimed = append(claimed, globs...)
	}

	return []*stage.Stage{
		{
			Name:       TaskMarkup,
			Pattern:    stage.Pattern{Include: markupGlobs},
			Transforms: []transform.Transform{transform.XHTML()},
			SubDir:     "xhtml",
			Renames: []stage.ExtRule{
				{From: ".html", To: ".xhtml", Modes: transform.ProductionOnly},
			},
		},
		{
			Name:       TaskMarkdown,
			Pattern:    stage.Pattern{Include: markdownGlobs},
			Transforms: []transform.Transform{transform.Markdown()},
			SubDir:     "xhtml",
			Renames: []stage.ExtRule{
				{From: ".md", To: ".xhtml", Modes: transform.ProductionOnly},
				{From: ".md", To: ".html", Modes: transform.DevelopmentOnly},
			},
		},
		{
			Name:    TaskStyles,
			Pattern: stage.Pattern{Include: stylesGlobs},
			Transforms: []transform.Transform{
				transform.SCSS(sourceContent),
				transform.Prefixer(),
				transform.MinifyCSS(),
			},
			SubDir: "css",
			Renames: []stage.ExtRule{
				{From: ".scss", To: ".css"},
			},
		},
		{
			Name:    TaskScripts,
			Pattern: stage.Pattern{Include: scriptsGlobs},
			Transforms: []transform.Transform{
				transform.DebugMap(),
				transform.MinifyJS(),
			},
			SubDir: "js",
		},
		{
			Name:    TaskImages,
			Pattern: stage.Pattern{Include: imagesGlobs},
			Transforms: []transform.Transform{
				transform.OptimizeImages(),
				transform.MinifySVG(),
			},
			SubDir: "images",
		},
		{
			Name:    TaskCopy,
			Pattern: stage.Pattern{Include: []string{"**/*"}, Exclude: claimed},
		},
	}
}

// ArchivePath derives the output archive location from the configured title:
// a kebab-case slug next to the build directory.
func ArchivePath(cfg *config.Config, baseDir string) string {
	return filepath.Join(baseDir, util.Slug(cfg.Title)+".epub")
}

// Plan is the assembled execution surface for one mode: the registry of
// runnable tasks, the resolved paths, and the watch bindings a development
// session subscribes with.
type Plan struct {
	Registry *task.Registry
	Paths    config.Paths
	Archive  string
	Bindings []watch.Binding
}

// New resolves paths, verifies the stage set against the source tree, and
// registers every named task. Coverage gaps are reported as warnings;
// overlapping stage claims and output-path collisions refuse to build.
func New(cfg *config.Config, mode config.Mode, baseDir string, rec metrics.Recorder) (*Plan, error) {
	paths := config.Resolve(cfg, mode, baseDir)
	stages := Stages(paths.SourceContent)

	cov, err := stage.CheckCoverage(stages, paths.SourceContent)
	if err != nil {
		return nil, err
	}
	if len(cov.Unmatched) > 0 {
		slog.Warn("Source files matched by no stage", "files", cov.Unmatched)
	}
	if len(cov.Duplicated) > 0 {
		return nil, errors.New(errors.CategoryConfig, errors.SeverityFatal, "source files claimed by multiple stages").
			WithContext("files", cov.Duplicated)
	}
	if err := stage.CheckOutputCollisions(stages, paths.SourceContent, mode); err != nil {
		return nil, err
	}

	reg := task.NewRegistry(rec)

	stageTasks := make([]task.Task, 0, len(stages))
	for _, s := range stages {
		t := s.Task(paths, mode)
		if err := reg.Register(t); err != nil {
			return nil, err
		}
		stageTasks = append(stageTasks, t)
	}

	archive := ArchivePath(cfg, baseDir)
	invoker := check.NewInvoker(cfg.Checker.Command)

	build := task.Series(TaskBuild,
		stage.CleanTask(paths.BuildRoot),
		task.Parallel("content", stageTasks...),
		epub.ScaffoldTask(paths.ServeRoot, cfg.ContentDir),
	)
	dist := task.Series(TaskDist,
		build,
		epub.PackTask(paths.ServeRoot, archive),
	)
	checkTask := task.Series(TaskCheck,
		dist,
		invoker.Task(archive),
	)
	for _, t := range []task.Task{build, dist, checkTask} {
		if err := reg.Register(t); err != nil {
			return nil, err
		}
	}

	bindings := make([]watch.Binding, 0, len(stages))
	for _, s := range stages {
		bindings = append(bindings, watch.Binding{
			Pattern:  s.Pattern,
			TaskName: s.Name,
			Reload:   true,
		})
	}

	return &Plan{
		Registry: reg,
		Paths:    paths,
		Archive:  archive,
		Bindings: bindings,
	}, nil
}
