package transform

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

type debugMapTransform struct{}

// DebugMap embeds an inline identity source map into scripts so browser
// devtools show original file names during preview. Never applied to
// packaged builds.
func DebugMap() Transform {
	return &debugMapTransform{}
}

func (t *debugMapTransform) Name() string   { return "debug-map" }
func (t *debugMapTransform) Modes() ModeSet { return DevelopmentOnly }

func (t *debugMapTransform) Apply(_ context.Context, f *File) error {
	sourceMap := map[string]any{
		"version":        3,
		"file":           f.Rel,
		"sources":        []string{f.Rel},
		"sourcesContent": []string{string(f.Data)},
		"names":          []string{},
		"mappings":       "AAAA",
	}
	encoded, err := json.Marshal(sourceMap)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.Write(f.Data)
	if !strings.HasSuffix(string(f.Data), "\n") {
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "//# sourceMappingURL=data:application/json;base64,%s\n",
		base64.StdEncoding.EncodeToString(encoded))
	f.Data = []byte(b.String())
	return nil
}
