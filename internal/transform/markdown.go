package transform

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/bindery/internal/errors"
)

type markdownTransform struct {
	md goldmark.Markdown
}

// Markdown compiles a Markdown chapter into a complete XHTML document so
// hand-written HTML and Markdown sources can sit side by side in the markup
// tree.
func Markdown() Transform {
	return &markdownTransform{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Typographer),
			goldmark.WithRendererOptions(ghtml.WithXHTML()),
		),
	}
}

func (t *markdownTransform) Name() string   { return "markdown" }
func (t *markdownTransform) Modes() ModeSet { return AllModes }

func (t *markdownTransform) Apply(_ context.Context, f *File) error {
	var body bytes.Buffer
	if err := t.md.Convert(f.Data, &body); err != nil {
		return errors.Wrap(err, errors.CategoryTransform, errors.SeverityError, "failed to convert markdown").
			WithContext("file", f.Rel)
	}

	title := chapterTitle(f)
	var doc bytes.Buffer
	doc.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	doc.WriteString("<!DOCTYPE html>\n")
	fmt.Fprintf(&doc, "<html xmlns=%q>\n<head>\n<title>%s</title>\n</head>\n<body>\n", xhtmlNamespace, title)
	doc.Write(body.Bytes())
	doc.WriteString("</body>\n</html>\n")

	f.Data = doc.Bytes()
	return nil
}

// chapterTitle takes the first ATX heading, falling back to the file name.
func chapterTitle(f *File) string {
	for _, line := range strings.Split(string(f.Data), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
		}
	}
	base := path.Base(f.Rel)
	return strings.TrimSuffix(base, path.Ext(base))
}
