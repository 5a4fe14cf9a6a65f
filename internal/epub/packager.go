// Package epub serializes a build output tree into a single EPUB archive.
package epub

import (
	"archive/zip"
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/bindery/internal/errors"
	"git.home.luguber.info/inful/bindery/internal/observability"
	"git.home.luguber.info/inful/bindery/internal/task"
)

// MimetypeEntry is the OCF-mandated first archive entry. It must be stored
// uncompressed so reading systems can sniff it at a fixed offset.
const (
	MimetypeEntry   = "mimetype"
	mimetypeContent = "application/epub+zip"
)

// Pack walks the build tree rooted at srcRoot and writes archivePath, every
// file under its relative path. An absent or unreadable tree is a packaging
// error; an empty tree packs vacuously.
func Pack(ctx context.Context, srcRoot, archivePath string) error {
	if _, err := os.Stat(srcRoot); err != nil {
		return errors.Wrap(err, errors.CategoryPackaging, errors.SeverityError, "build tree not readable").
			WithContext("dir", srcRoot)
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return errors.Wrap(err, errors.CategoryPackaging, errors.SeverityError, "failed to create archive").
			WithContext("archive", archivePath)
	}
	defer func() { _ = out.Close() }()

	zw := zip.NewWriter(out)

	if err := writeMimetype(zw, srcRoot); err != nil {
		return err
	}

	count := 0
	walkErr := filepath.WalkDir(srcRoot, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcRoot, fullPath)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == MimetypeEntry {
			return nil // already written first
		}
		if err := addFile(zw, fullPath, rel); err != nil {
			return err
		}
		count++
		return nil
	})
	if walkErr != nil {
		return errors.Wrap(walkErr, errors.CategoryPackaging, errors.SeverityError, "failed to archive build tree").
			WithContext("dir", srcRoot)
	}

	if err := zw.Close(); err != nil {
		return errors.Wrap(err, errors.CategoryPackaging, errors.SeverityError, "failed to finalize archive").
			WithContext("archive", archivePath)
	}
	observability.InfoContext(ctx, "Archive written",
		slog.String("archive", archivePath), slog.Int("files", count))
	return nil
}

// writeMimetype emits the mimetype entry first and uncompressed, preferring
// a mimetype file present in the tree over the synthesized default.
func writeMimetype(zw *zip.Writer, srcRoot string) error {
	content := []byte(mimetypeContent)
	if data, err := os.ReadFile(filepath.Join(srcRoot, MimetypeEntry)); err == nil {
		content = data
	}
	w, err := zw.CreateHeader(&zip.FileHeader{Name: MimetypeEntry, Method: zip.Store})
	if err != nil {
		return errors.Wrap(err, errors.CategoryPackaging, errors.SeverityError, "failed to write mimetype entry")
	}
	_, err = w.Write(content)
	if err != nil {
		return errors.Wrap(err, errors.CategoryPackaging, errors.SeverityError, "failed to write mimetype entry")
	}
	return nil
}

func addFile(zw *zip.Writer, fullPath, rel string) error {
	in, err := os.Open(fullPath)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: rel, Method: zip.Deflate})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}

// PackTask adapts Pack to a leaf task.
func PackTask(srcRoot, archivePath string) task.Task {
	return task.Func("pack", func(ctx context.Context) error {
		return Pack(ctx, srcRoot, archivePath)
	})
}
