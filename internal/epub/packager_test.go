package epub

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bindery/internal/errors"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}

func entryNames(t *testing.T, archivePath string) []string {
	t.Helper()
	zr, err := zip.OpenReader(archivePath)
	require.NoError(t, err)
	defer func() { _ = zr.Close() }()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestPackRoundTripPreservesTree(t *testing.T) {
	src := t.TempDir()
	files := map[string]string{
		"EPUB/xhtml/ch1.xhtml": "<html/>",
		"EPUB/css/styles.css":  "body{}",
		"EPUB/images/cover.png": "png-bytes",
	}
	writeTree(t, src, files)

	archive := filepath.Join(t.TempDir(), "my-book.epub")
	require.NoError(t, Pack(context.Background(), src, archive))

	names := entryNames(t, archive)
	sort.Strings(names)
	want := []string{"EPUB/css/styles.css", "EPUB/images/cover.png", "EPUB/xhtml/ch1.xhtml", "mimetype"}
	assert.Equal(t, want, names)
}

func TestPackMimetypeFirstAndStored(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"EPUB/xhtml/ch1.xhtml": "<html/>"})

	archive := filepath.Join(t.TempDir(), "book.epub")
	require.NoError(t, Pack(context.Background(), src, archive))

	zr, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer func() { _ = zr.Close() }()

	require.NotEmpty(t, zr.File)
	first := zr.File[0]
	assert.Equal(t, MimetypeEntry, first.Name)
	assert.Equal(t, zip.Store, first.Method)

	rc, err := first.Open()
	require.NoError(t, err)
	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "application/epub+zip", string(content))
}

func TestPackPrefersExistingMimetypeFile(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"mimetype":             "application/epub+zip",
		"EPUB/xhtml/ch1.xhtml": "<html/>",
	})

	archive := filepath.Join(t.TempDir(), "book.epub")
	require.NoError(t, Pack(context.Background(), src, archive))

	names := entryNames(t, archive)
	count := 0
	for _, name := range names {
		if name == MimetypeEntry {
			count++
		}
	}
	assert.Equal(t, 1, count, "mimetype written exactly once")
}

func TestPackAbsentTreeFails(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "book.epub")
	err := Pack(context.Background(), filepath.Join(t.TempDir(), "absent"), archive)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryPackaging))
}

func TestPackEmptyTreeIsVacuous(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "book.epub")
	require.NoError(t, Pack(context.Background(), t.TempDir(), archive))
	assert.Equal(t, []string{MimetypeEntry}, entryNames(t, archive))
}
