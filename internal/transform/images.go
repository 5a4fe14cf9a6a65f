package transform

import (
	"bytes"
	"context"
	"image/jpeg"
	"image/png"
	"log/slog"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/bindery/internal/observability"
)

const jpegQuality = 85

type imageOptimizeTransform struct{}

// OptimizeImages re-encodes raster images for packaged builds: PNG at best
// compression, JPEG at a fixed quality. The smaller of original and
// re-encoded wins; undecodable images pass through with a diagnostic.
func OptimizeImages() Transform {
	return &imageOptimizeTransform{}
}

func (t *imageOptimizeTransform) Name() string   { return "image-optimize" }
func (t *imageOptimizeTransform) Modes() ModeSet { return ProductionOnly }

func (t *imageOptimizeTransform) Apply(ctx context.Context, f *File) error {
	var reencoded []byte

	switch strings.ToLower(filepath.Ext(f.Rel)) {
	case ".png":
		img, err := png.Decode(bytes.NewReader(f.Data))
		if err != nil {
			observability.WarnContext(ctx, "Undecodable PNG, copying as-is",
				slog.String("file", f.Rel), slog.Any("error", err))
			return nil
		}
		var buf bytes.Buffer
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return err
		}
		reencoded = buf.Bytes()
	case ".jpg", ".jpeg":
		img, err := jpeg.Decode(bytes.NewReader(f.Data))
		if err != nil {
			observability.WarnContext(ctx, "Undecodable JPEG, copying as-is",
				slog.String("file", f.Rel), slog.Any("error", err))
			return nil
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return err
		}
		reencoded = buf.Bytes()
	default:
		return nil
	}

	if len(reencoded) < len(f.Data) {
		f.Data = reencoded
	}
	return nil
}
