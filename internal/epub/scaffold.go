package epub

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/bindery/internal/errors"
	"git.home.luguber.info/inful/bindery/internal/task"
)

// ContainerEntry is the OCF container descriptor reading systems open first
// to locate the package document.
const ContainerEntry = "META-INF/container.xml"

const containerTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="%s/package.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
`

// Scaffold ensures the OCF container files exist in the serve root: the
// mimetype file and META-INF/container.xml pointing at the content dir's
// package document. Files the source tree already provided win.
func Scaffold(serveRoot, contentDir string) error {
	mimetypePath := filepath.Join(serveRoot, MimetypeEntry)
	if _, err := os.Stat(mimetypePath); os.IsNotExist(err) {
		if err := os.WriteFile(mimetypePath, []byte(mimetypeContent), 0o644); err != nil {
			return errors.Wrap(err, errors.CategoryPackaging, errors.SeverityError, "failed to write mimetype").
				WithContext("path", mimetypePath)
		}
	}

	containerPath := filepath.Join(serveRoot, filepath.FromSlash(ContainerEntry))
	if _, err := os.Stat(containerPath); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(containerPath), 0o755); err != nil {
		return errors.Wrap(err, errors.CategoryPackaging, errors.SeverityError, "failed to create META-INF").
			WithContext("path", containerPath)
	}
	content := fmt.Sprintf(containerTemplate, contentDir)
	if err := os.WriteFile(containerPath, []byte(content), 0o644); err != nil {
		return errors.Wrap(err, errors.CategoryPackaging, errors.SeverityError, "failed to write container descriptor").
			WithContext("path", containerPath)
	}
	return nil
}

// ScaffoldTask adapts Scaffold to a leaf task.
func ScaffoldTask(serveRoot, contentDir string) task.Task {
	return task.Func("scaffold", func(_ context.Context) error {
		return Scaffold(serveRoot, contentDir)
	})
}
