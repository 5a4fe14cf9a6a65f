package stage

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bindery/internal/config"
	"git.home.luguber.info/inful/bindery/internal/transform"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func TestPatternMatch(t *testing.T) {
	p := Pattern{
		Include: []string{"**/*"},
		Exclude: []string{"html/**", "scss/**"},
	}
	assert.True(t, p.Match("images/cover.png"))
	assert.True(t, p.Match("package.opf"))
	assert.False(t, p.Match("html/ch1.html"))
	assert.False(t, p.Match("scss/parts/_colors.scss"))
}

func TestPatternDoubleStarSpansSegments(t *testing.T) {
	p := Pattern{Include: []string{"**/*.html"}}
	assert.True(t, p.Match("ch1.html"))
	assert.True(t, p.Match("html/ch1.html"))
	assert.True(t, p.Match("html/part1/ch2.html"))
	assert.False(t, p.Match("html/ch1.xhtml"))
}

func TestGlobMissingRootIsEmptyRun(t *testing.T) {
	matches, err := (Pattern{Include: []string{"**/*"}}).Glob(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestDestRelRelocationAndRename(t *testing.T) {
	s := &Stage{
		Name:    "markup",
		SubDir:  "xhtml",
		Renames: []ExtRule{{From: ".html", To: ".xhtml", Modes: transform.ProductionOnly}},
	}
	assert.Equal(t, "xhtml/ch1.xhtml", s.DestRel("html/ch1.html", config.ModeProduction))
	assert.Equal(t, "xhtml/ch1.html", s.DestRel("html/ch1.html", config.ModeDevelopment))
	assert.Equal(t, "xhtml/ch2.xhtml", s.DestRel("html/part1/ch2.html", config.ModeProduction),
		"relocation flattens regardless of source location")
}

type upperTransform struct{ modes transform.ModeSet }

func (u *upperTransform) Name() string             { return "upper" }
func (u *upperTransform) Modes() transform.ModeSet { return u.modes }
func (u *upperTransform) Apply(_ context.Context, f *transform.File) error {
	f.Data = []byte(string(f.Data) + " UPPER")
	return nil
}

type failTransform struct{ err error }

func (ft *failTransform) Name() string             { return "boom" }
func (ft *failTransform) Modes() transform.ModeSet { return transform.AllModes }
func (ft *failTransform) Apply(context.Context, *transform.File) error {
	return ft.err
}

func TestStageRunAppliesModeConditionalTransforms(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"js/book.js": "code"})

	s := &Stage{
		Name:       "scripts",
		Pattern:    Pattern{Include: []string{"**/*.js"}},
		Transforms: []transform.Transform{&upperTransform{modes: transform.ProductionOnly}},
	}

	devOut := t.TempDir()
	require.NoError(t, s.Run(context.Background(), src, devOut, config.ModeDevelopment))
	dev, err := os.ReadFile(filepath.Join(devOut, "js", "book.js"))
	require.NoError(t, err)
	assert.Equal(t, "code", string(dev))

	prodOut := t.TempDir()
	require.NoError(t, s.Run(context.Background(), src, prodOut, config.ModeProduction))
	prod, err := os.ReadFile(filepath.Join(prodOut, "js", "book.js"))
	require.NoError(t, err)
	assert.Equal(t, "code UPPER", string(prod))
}

func TestStageRunZeroMatchesIsNoError(t *testing.T) {
	s := &Stage{Name: "images", Pattern: Pattern{Include: []string{"**/*.png"}}}
	require.NoError(t, s.Run(context.Background(), t.TempDir(), t.TempDir(), config.ModeProduction))
}

func TestStageRunPropagatesTransformFailure(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"html/ch1.html": "<p>hi</p>"})

	boom := stderrors.New("no output")
	s := &Stage{
		Name:       "markup",
		Pattern:    Pattern{Include: []string{"**/*.html"}},
		Transforms: []transform.Transform{&failTransform{err: boom}},
	}
	err := s.Run(context.Background(), src, t.TempDir(), config.ModeProduction)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestCheckCoverageExactlyOnce(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"html/ch1.html":   "<p/>",
		"scss/main.scss":  "body{}",
		"images/a.png":    "x",
		"fonts/serif.otf": "x",
		"package.opf":     "x",
	})

	markup := &Stage{Name: "markup", Pattern: Pattern{Include: []string{"**/*.html"}}}
	styles := &Stage{Name: "styles", Pattern: Pattern{Include: []string{"**/*.scss"}}}
	images := &Stage{Name: "images", Pattern: Pattern{Include: []string{"**/*.png"}}}
	copyRest := &Stage{Name: "copy", Pattern: Pattern{
		Include: []string{"**/*"},
		Exclude: []string{"**/*.html", "**/*.scss", "**/*.png"},
	}}

	cov, err := CheckCoverage([]*Stage{markup, styles, images, copyRest}, src)
	require.NoError(t, err)
	assert.True(t, cov.Ok(), "unmatched=%v duplicated=%v", cov.Unmatched, cov.Duplicated)
}

func TestCheckCoverageFindsGapsAndOverlaps(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"html/ch1.html": "<p/>",
		"notes.txt":     "x",
	})

	markup := &Stage{Name: "markup", Pattern: Pattern{Include: []string{"**/*.html"}}}
	greedy := &Stage{Name: "greedy", Pattern: Pattern{Include: []string{"html/**"}}}

	cov, err := CheckCoverage([]*Stage{markup, greedy}, src)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt"}, cov.Unmatched)
	assert.Equal(t, []string{"html/ch1.html"}, cov.Duplicated)
}

func TestCheckOutputCollisions(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"html/ch1.html": "<p/>",
		"md/ch1.md":     "# ch1",
	})

	markup := &Stage{
		Name:    "markup",
		Pattern: Pattern{Include: []string{"**/*.html"}},
		SubDir:  "xhtml",
		Renames: []ExtRule{{From: ".html", To: ".xhtml"}},
	}
	markdown := &Stage{
		Name:    "markdown",
		Pattern: Pattern{Include: []string{"**/*.md"}},
		SubDir:  "xhtml",
		Renames: []ExtRule{{From: ".md", To: ".xhtml"}},
	}

	err := CheckOutputCollisions([]*Stage{markup, markdown}, src, config.ModeProduction)
	require.Error(t, err, "ch1.html and ch1.md collide on xhtml/ch1.xhtml")
	assert.Contains(t, err.Error(), "output collision")
}

func TestCleanTaskResetsBuildRoot(t *testing.T) {
	build := filepath.Join(t.TempDir(), "build")
	writeTree(t, build, map[string]string{"stale.txt": "old"})

	require.NoError(t, CleanTask(build).Run(context.Background()))

	entries, err := os.ReadDir(build)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
