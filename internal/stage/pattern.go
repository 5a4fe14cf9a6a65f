// Package stage implements the generic content pipeline stage: select files
// matching a pattern, run them through a mode-conditional transform chain,
// and write the results to a mapped destination.
package stage

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
)

// Pattern selects files by slash-separated glob patterns relative to a
// content root. A path matches when any Include pattern matches and no
// Exclude pattern does. Patterns support `*` within a segment and `**`
// spanning any number of segments.
type Pattern struct {
	Include []string
	Exclude []string
}

// Match reports whether the slash-separated relative path is selected.
func (p Pattern) Match(rel string) bool {
	included := false
	for _, pattern := range p.Include {
		if matchGlob(pattern, rel) {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, pattern := range p.Exclude {
		if matchGlob(pattern, rel) {
			return false
		}
	}
	return true
}

// Glob walks root and returns the sorted relative paths of matching files.
// A missing root yields zero matches, not an error: an empty pipeline run.
func (p Pattern) Glob(root string) ([]string, error) {
	var matches []string
	err := filepath.WalkDir(root, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, fullPath)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if p.Match(rel) {
			matches = append(matches, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func matchGlob(pattern, rel string) bool {
	return matchSegments(splitSegments(pattern), splitSegments(rel))
}

func splitSegments(s string) []string {
	if s == "" {
		return nil
	}
	var segs []string
	for _, seg := range splitSlash(s) {
		if seg != "" {
			segs = append(segs, seg)
		}
	}
	return segs
}

func splitSlash(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

func matchSegments(pattern, segs []string) bool {
	if len(pattern) == 0 {
		return len(segs) == 0
	}
	if pattern[0] == "**" {
		if matchSegments(pattern[1:], segs) {
			return true
		}
		if len(segs) > 0 {
			return matchSegments(pattern, segs[1:])
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], segs[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], segs[1:])
}
