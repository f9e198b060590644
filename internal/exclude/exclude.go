// Package exclude matches paths against the glob patterns an archive spec
// carries for directories and files, so the generator can skip them during
// a walk.
package exclude

import (
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"

	"github.com/snapsync/snapsync/internal/ergiberr"
)

// Matcher holds a compiled glob set. An empty pattern list matches nothing
// — callers don't need to special-case "no exclusions configured".
type Matcher struct {
	globs []glob.Glob
}

// Compile builds a Matcher from a list of glob patterns. Patterns use
// shell-style globbing (`*`, `?`, `[...]`); a malformed pattern is reported
// with its index so the caller can point at the offending config entry.
func Compile(patterns []string) (*Matcher, error) {
	m := &Matcher{globs: make([]glob.Glob, 0, len(patterns))}
	for i, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, ergiberr.Wrap(ergiberr.Glob, fmt.Sprintf("pattern %d (%q)", i, p), err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Matches reports whether path is excluded: a pattern matching the full
// path, or a pattern matching just the base name, either excludes it.
func (m *Matcher) Matches(path string) bool {
	if m == nil || len(m.globs) == 0 {
		return false
	}
	base := filepath.Base(path)
	for _, g := range m.globs {
		if g.Match(path) || g.Match(base) {
			return true
		}
	}
	return false
}
