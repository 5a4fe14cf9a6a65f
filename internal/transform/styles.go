package transform

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/bindery/internal/observability"
)

// The stylesheet dialect support here is deliberately thin: variables,
// imports, and comments cover the source trees this tool builds. The
// Transform contract keeps it swappable for a full compiler.
type scssTransform struct {
	sourceRoot string
}

// SCSS compiles the SCSS subset used by book stylesheets down to plain CSS:
// strips comments, inlines @import statements resolved against the source
// tree, and substitutes $variable declarations. Unresolvable imports and
// unknown variables are recoverable diagnostics: logged, then compilation
// continues with best-effort output.
func SCSS(sourceRoot string) Transform {
	return &scssTransform{sourceRoot: sourceRoot}
}

func (t *scssTransform) Name() string   { return "scss" }
func (t *scssTransform) Modes() ModeSet { return AllModes }

var (
	lineCommentRe  = regexp.MustCompile(`(?m)//[^\n]*$`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	importRe       = regexp.MustCompile(`(?m)^\s*@import\s+["']([^"']+)["']\s*;\s*$`)
	variableDeclRe = regexp.MustCompile(`(?m)^\s*(\$[A-Za-z][\w-]*)\s*:\s*([^;]+);\s*$`)
	variableUseRe  = regexp.MustCompile(`\$[A-Za-z][\w-]*`)
)

func (t *scssTransform) Apply(ctx context.Context, f *File) error {
	if strings.ToLower(filepath.Ext(f.Rel)) != ".scss" {
		return nil // plain CSS passes through
	}

	src := string(f.Data)
	src = t.inlineImports(ctx, src, filepath.Dir(f.Rel), 0)
	src = blockCommentRe.ReplaceAllString(src, "")
	src = lineCommentRe.ReplaceAllString(src, "")

	vars := map[string]string{}
	src = variableDeclRe.ReplaceAllStringFunc(src, func(decl string) string {
		m := variableDeclRe.FindStringSubmatch(decl)
		vars[m[1]] = strings.TrimSpace(m[2])
		return ""
	})
	src = variableUseRe.ReplaceAllStringFunc(src, func(name string) string {
		if value, ok := vars[name]; ok {
			return value
		}
		observability.WarnContext(ctx, "Unknown stylesheet variable",
			slog.String("file", f.Rel), slog.String("variable", name))
		return name
	})

	f.Data = []byte(strings.TrimLeft(src, "\n"))
	return nil
}

// inlineImports splices imported partials into the source. relDir is the
// importing file's directory relative to the source root.
func (t *scssTransform) inlineImports(ctx context.Context, src, relDir string, depth int) string {
	if depth > 10 {
		observability.WarnContext(ctx, "Stylesheet import depth exceeded", slog.String("dir", relDir))
		return src
	}
	return importRe.ReplaceAllStringFunc(src, func(stmt string) string {
		name := importRe.FindStringSubmatch(stmt)[1]
		data, importedRel, ok := t.readImport(relDir, name)
		if !ok {
			observability.WarnContext(ctx, "Unresolvable stylesheet import",
				slog.String("dir", relDir), slog.String("import", name))
			return ""
		}
		return t.inlineImports(ctx, string(data), filepath.Dir(importedRel), depth+1)
	})
}

// readImport tries the sass partial naming conventions in order.
func (t *scssTransform) readImport(relDir, name string) ([]byte, string, bool) {
	candidates := []string{name}
	if filepath.Ext(name) == "" {
		candidates = []string{
			name + ".scss",
			filepath.Join(filepath.Dir(name), "_"+filepath.Base(name)+".scss"),
		}
	}
	for _, candidate := range candidates {
		rel := filepath.Join(relDir, candidate)
		data, err := os.ReadFile(filepath.Join(t.sourceRoot, rel))
		if err == nil {
			return data, rel, true
		}
	}
	return nil, "", false
}
