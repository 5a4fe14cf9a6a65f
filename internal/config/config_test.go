package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bindery/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bindery.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "title: \"My Book\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "My Book", cfg.Title)
	assert.Equal(t, "src", cfg.Source)
	assert.Equal(t, "build", cfg.Build)
	assert.Equal(t, "EPUB", cfg.ContentDir)
	assert.Equal(t, 8080, cfg.Preview.Port)
	assert.Equal(t, "epubcheck", cfg.Checker.Command)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfig))
}

func TestValidateRejectsMissingTitle(t *testing.T) {
	path := writeConfig(t, "source: src\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfig))
}

func TestValidateRejectsSameSourceAndBuild(t *testing.T) {
	cfg := &Config{Title: "X", Source: "out", Build: "out"}
	cfg.ApplyDefaults()
	require.Error(t, cfg.Validate())
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("BINDERY_TEST_TITLE", "Expanded")
	path := writeConfig(t, "title: \"${BINDERY_TEST_TITLE}\"\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Expanded", cfg.Title)
}

func TestResolveIsDeterministic(t *testing.T) {
	cfg := &Config{Title: "My Book"}
	cfg.ApplyDefaults()

	for _, mode := range []Mode{ModeDevelopment, ModeProduction} {
		first := Resolve(cfg, mode, "/work")
		second := Resolve(cfg, mode, "/work")
		assert.Equal(t, first, second, "mode %s", mode)
	}
}

func TestResolveModeNesting(t *testing.T) {
	cfg := &Config{Title: "My Book", Source: "src", Build: "build", ContentDir: "EPUB"}

	dev := Resolve(cfg, ModeDevelopment, "/work")
	prod := Resolve(cfg, ModeProduction, "/work")

	assert.Equal(t, filepath.Join("/work", "src", "EPUB"), dev.SourceContent)
	assert.Equal(t, filepath.Join("/work", "build", "unpacked", "EPUB"), dev.BuildContent)
	assert.Equal(t, filepath.Join("/work", "build", "EPUB"), prod.BuildContent)

	// Both modes serve the directory that contains the content dir, so the
	// served relative layout equals the archive's internal layout.
	assert.Equal(t, dev.BuildContent, filepath.Join(dev.ServeRoot, cfg.ContentDir))
	assert.Equal(t, prod.BuildContent, filepath.Join(prod.ServeRoot, cfg.ContentDir))
}

func TestInitRefusesOverwrite(t *testing.T) {
	path := writeConfig(t, "title: existing\n")
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "My Book", cfg.Title)
}
