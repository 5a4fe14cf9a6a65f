package config

import "path/filepath"

// UnpackedDir is the intermediate directory segment development builds nest
// under, so the preview serves the same relative layout a packaged archive
// exposes internally.
const UnpackedDir = "unpacked"

// Paths holds the absolute locations derived from a Config and a Mode.
type Paths struct {
	// SourceContent is the content tree the pipeline stages read from.
	SourceContent string
	// BuildRoot is the directory the clean task resets and the packaging
	// stage archives (production) or the preview serves (development).
	BuildRoot string
	// BuildContent is where stages write their outputs.
	BuildContent string
	// ServeRoot is the directory the preview server exposes. Its layout
	// relative to BuildContent matches the inside of a packaged archive.
	ServeRoot string
}

// Resolve derives Paths from cfg, mode, and a base directory. It is a pure
// function: same inputs, same outputs, no filesystem access.
func Resolve(cfg *Config, mode Mode, baseDir string) Paths {
	source := filepath.Join(baseDir, cfg.Source)
	build := filepath.Join(baseDir, cfg.Build)

	p := Paths{
		SourceContent: filepath.Join(source, cfg.ContentDir),
		BuildRoot:     build,
	}
	if mode.IsDevelopment() {
		p.ServeRoot = filepath.Join(build, UnpackedDir)
	} else {
		p.ServeRoot = build
	}
	p.BuildContent = filepath.Join(p.ServeRoot, cfg.ContentDir)
	return p
}
