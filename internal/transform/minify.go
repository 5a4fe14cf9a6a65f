package transform

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"

	"git.home.luguber.info/inful/bindery/internal/observability"
)

var minifier = func() *minify.M {
	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("application/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	return m
}()

type minifyTransform struct {
	name      string
	mediatype string
	exts      []string
}

// MinifyCSS compresses stylesheets for packaged builds.
func MinifyCSS() Transform {
	return &minifyTransform{name: "minify-css", mediatype: "text/css", exts: []string{".css", ".scss"}}
}

// MinifyJS compresses scripts for packaged builds.
func MinifyJS() Transform {
	return &minifyTransform{name: "minify-js", mediatype: "application/javascript", exts: []string{".js"}}
}

// MinifySVG compresses vector images for packaged builds.
func MinifySVG() Transform {
	return &minifyTransform{name: "minify-svg", mediatype: "image/svg+xml", exts: []string{".svg"}}
}

func (t *minifyTransform) Name() string   { return t.name }
func (t *minifyTransform) Modes() ModeSet { return ProductionOnly }

func (t *minifyTransform) Apply(ctx context.Context, f *File) error {
	ext := strings.ToLower(filepath.Ext(f.Rel))
	applies := false
	for _, candidate := range t.exts {
		if ext == candidate {
			applies = true
			break
		}
	}
	if !applies {
		return nil
	}

	var buf bytes.Buffer
	if err := minifier.Minify(t.mediatype, &buf, bytes.NewReader(f.Data)); err != nil {
		// Syntax problems are advisory; keep the unminified content.
		observability.WarnContext(ctx, "Minification failed, keeping original",
			slog.String("file", f.Rel), slog.Any("error", err))
		return nil
	}
	f.Data = buf.Bytes()
	return nil
}
