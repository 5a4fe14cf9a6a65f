package transform

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// prefixable maps CSS properties to the vendor prefixes readers still need.
var prefixable = map[string][]string{
	"hyphens":          {"-webkit-", "-ms-"},
	"user-select":      {"-webkit-", "-moz-", "-ms-"},
	"column-count":     {"-webkit-", "-moz-"},
	"column-gap":       {"-webkit-", "-moz-"},
	"text-size-adjust": {"-webkit-", "-ms-"},
	"appearance":       {"-webkit-", "-moz-"},
}

var declRe = regexp.MustCompile(`(?m)^(\s*)([a-z-]+)(\s*:\s*[^;{}]+;)`)

type prefixerTransform struct{}

// Prefixer inserts vendor-prefixed copies of declarations for properties
// that reading systems still require prefixes for. Idempotent: already
// prefixed declarations are left alone.
func Prefixer() Transform {
	return &prefixerTransform{}
}

func (t *prefixerTransform) Name() string   { return "prefixer" }
func (t *prefixerTransform) Modes() ModeSet { return AllModes }

func (t *prefixerTransform) Apply(_ context.Context, f *File) error {
	out := declRe.ReplaceAllStringFunc(string(f.Data), func(decl string) string {
		m := declRe.FindStringSubmatch(decl)
		indent, prop, rest := m[1], m[2], m[3]
		prefixes, ok := prefixable[prop]
		if !ok || strings.HasPrefix(prop, "-") {
			return decl
		}
		var b strings.Builder
		for _, prefix := range prefixes {
			fmt.Fprintf(&b, "%s%s%s%s\n", indent, prefix, prop, rest)
		}
		b.WriteString(decl)
		return b.String()
	})
	f.Data = []byte(out)
	return nil
}
