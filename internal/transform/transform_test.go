package transform

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bindery/internal/config"
)

func TestModeSetApplies(t *testing.T) {
	assert.True(t, AllModes.Applies(config.ModeDevelopment))
	assert.True(t, AllModes.Applies(config.ModeProduction))
	assert.True(t, DevelopmentOnly.Applies(config.ModeDevelopment))
	assert.False(t, DevelopmentOnly.Applies(config.ModeProduction))
	assert.True(t, ProductionOnly.Applies(config.ModeProduction))
	assert.False(t, ProductionOnly.Applies(config.ModeDevelopment))
}

func TestXHTMLRewritesLinksAndNamespace(t *testing.T) {
	f := &File{
		Rel: "html/ch1.html",
		Data: []byte(`<!DOCTYPE html><html><head><title>Ch1</title></head>` +
			`<body><a href="ch2.html#sec">next</a><a href="https://example.com/a.html">ext</a></body></html>`),
	}
	require.NoError(t, XHTML().Apply(context.Background(), f))

	out := string(f.Data)
	assert.True(t, strings.HasPrefix(out, "<?xml version=\"1.0\" encoding=\"utf-8\"?>"))
	assert.Contains(t, out, `xmlns="http://www.w3.org/1999/xhtml"`)
	assert.Contains(t, out, `href="ch2.xhtml#sec"`)
	assert.Contains(t, out, `href="https://example.com/a.html"`, "absolute URLs untouched")
}

func TestRewriteInternalLink(t *testing.T) {
	tests := map[string]string{
		"ch1.html":           "ch1.xhtml",
		"ch1.html#frag":      "ch1.xhtml#frag",
		"ch1.html?v=2#frag":  "ch1.xhtml?v=2#frag",
		"../html/ch1.html":   "../html/ch1.xhtml",
		"http://x/ch1.html":  "http://x/ch1.html",
		"styles.css":         "styles.css",
		"//cdn.example/a.html": "//cdn.example/a.html",
	}
	for in, want := range tests {
		assert.Equal(t, want, rewriteInternalLink(in), "rewriteInternalLink(%q)", in)
	}
}

func TestMarkdownProducesXHTMLChapter(t *testing.T) {
	f := &File{Rel: "html/intro.md", Data: []byte("# Introduction\n\nSome *emphasis*.\n")}
	require.NoError(t, Markdown().Apply(context.Background(), f))

	out := string(f.Data)
	assert.Contains(t, out, "<title>Introduction</title>")
	assert.Contains(t, out, `xmlns="http://www.w3.org/1999/xhtml"`)
	assert.Contains(t, out, "<em>emphasis</em>")
}

func TestMarkdownTitleFallsBackToFilename(t *testing.T) {
	f := &File{Rel: "html/notes.md", Data: []byte("plain text, no heading\n")}
	require.NoError(t, Markdown().Apply(context.Background(), f))
	assert.Contains(t, string(f.Data), "<title>notes</title>")
}

func TestSCSSVariablesAndComments(t *testing.T) {
	f := &File{
		Rel: "scss/styles.scss",
		Data: []byte(`// page styles
$ink: #222;
/* block
   comment */
body { color: $ink; }
`),
	}
	require.NoError(t, SCSS(t.TempDir()).Apply(context.Background(), f))

	out := string(f.Data)
	assert.Contains(t, out, "color: #222;")
	assert.NotContains(t, out, "$ink:")
	assert.NotContains(t, out, "comment")
}

func TestSCSSInlinesImports(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "scss"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "scss", "_colors.scss"),
		[]byte("$paper: #fffdf7;\n"), 0o644))

	f := &File{
		Rel:  "scss/styles.scss",
		Data: []byte("@import \"colors\";\nbody { background: $paper; }\n"),
	}
	require.NoError(t, SCSS(root).Apply(context.Background(), f))
	assert.Contains(t, string(f.Data), "background: #fffdf7;")
}

func TestSCSSUnresolvableImportIsRecoverable(t *testing.T) {
	f := &File{Rel: "scss/styles.scss", Data: []byte("@import \"missing\";\nbody { margin: 0; }\n")}
	require.NoError(t, SCSS(t.TempDir()).Apply(context.Background(), f))
	assert.Contains(t, string(f.Data), "margin: 0;")
}

func TestSCSSPassesThroughPlainCSS(t *testing.T) {
	orig := []byte("body { color: red; } /* kept */")
	f := &File{Rel: "scss/legacy.css", Data: orig}
	require.NoError(t, SCSS(t.TempDir()).Apply(context.Background(), f))
	assert.Equal(t, orig, f.Data)
}

func TestPrefixerAddsVendorCopies(t *testing.T) {
	f := &File{Rel: "css/styles.css", Data: []byte("p {\n  hyphens: auto;\n  color: black;\n}\n")}
	require.NoError(t, Prefixer().Apply(context.Background(), f))

	out := string(f.Data)
	assert.Contains(t, out, "-webkit-hyphens: auto;")
	assert.Contains(t, out, "-ms-hyphens: auto;")
	assert.Contains(t, out, "hyphens: auto;")
	assert.Equal(t, 1, strings.Count(out, "color: black;"), "unprefixable declarations untouched")
}

func TestDebugMapAppendsInlineSourceMap(t *testing.T) {
	f := &File{Rel: "js/book.js", Data: []byte("console.log('hi');")}
	require.NoError(t, DebugMap().Apply(context.Background(), f))

	out := string(f.Data)
	assert.True(t, strings.HasPrefix(out, "console.log('hi');"))
	assert.Contains(t, out, "//# sourceMappingURL=data:application/json;base64,")
}

func TestMinifyCSSShrinksOutput(t *testing.T) {
	f := &File{Rel: "css/styles.css", Data: []byte("body {\n  color: #ffffff;\n  margin: 0px;\n}\n")}
	require.NoError(t, MinifyCSS().Apply(context.Background(), f))
	assert.Less(t, len(f.Data), len("body {\n  color: #ffffff;\n  margin: 0px;\n}\n"))
	assert.NotContains(t, string(f.Data), "\n ")
}

func TestMinifyJSSkipsOtherExtensions(t *testing.T) {
	orig := []byte("body { color: red }")
	f := &File{Rel: "css/styles.css", Data: orig}
	require.NoError(t, MinifyJS().Apply(context.Background(), f))
	assert.Equal(t, orig, f.Data)
}

func TestOptimizeImagesReencodesPNG(t *testing.T) {
	// Encode a flat image at fastest compression so best-compression wins.
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	require.NoError(t, enc.Encode(&buf, img))

	f := &File{Rel: "images/cover.png", Data: buf.Bytes()}
	require.NoError(t, OptimizeImages().Apply(context.Background(), f))
	assert.Less(t, len(f.Data), buf.Len())

	_, err := png.Decode(bytes.NewReader(f.Data))
	require.NoError(t, err, "optimized output still decodes")
}

func TestOptimizeImagesKeepsUndecodableFile(t *testing.T) {
	orig := []byte("not a png")
	f := &File{Rel: "images/broken.png", Data: orig}
	require.NoError(t, OptimizeImages().Apply(context.Background(), f))
	assert.Equal(t, orig, f.Data)
}
