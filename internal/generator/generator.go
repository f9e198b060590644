// Package generator walks an archive's included directories and builds a
// snapshot tree, storing every regular file's body in the content
// repository as it goes.
package generator

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/snapsync/snapsync/internal/attributes"
	"github.com/snapsync/snapsync/internal/content"
	"github.com/snapsync/snapsync/internal/exclude"
	"github.com/snapsync/snapsync/internal/snapshot"
	"github.com/snapsync/snapsync/pkg/models"
)

// Generator produces one snapshot tree from an archive's configured
// inclusions, honoring its directory and file exclusion patterns.
type Generator struct {
	mgr      *content.Manager
	dirExcl  *exclude.Matcher
	fileExcl *exclude.Matcher
}

// New creates a Generator bound to an open, Mutable content.Manager
// session — every file it encounters is stored through that session.
func New(mgr *content.Manager, dirExcl, fileExcl *exclude.Matcher) *Generator {
	return &Generator{mgr: mgr, dirExcl: dirExcl, fileExcl: fileExcl}
}

// Result is everything Generate produces about one run.
type Result struct {
	Root          *snapshot.Node
	Duration      time.Duration
	Files         models.FileStats
	Links         models.SymLinkStats
	DeltaRepoSize int64
}

// Generate walks every path in inclusions and assembles them as children
// of a single synthetic root node. Descent into an excluded directory is
// cut before it starts; an excluded file is skipped without being
// opened. Result is returned even when an error aborts the walk partway
// through, so the caller can release whatever tokens were already
// stored (§4.8's drop/cleanup requirement).
func (g *Generator) Generate(inclusions []string) (*Result, error) {
	start := time.Now()
	res := &Result{Root: snapshot.NewDirectory("", models.Attributes{})}

	var firstErr error
	for _, inclusion := range inclusions {
		abs, err := filepath.Abs(inclusion)
		if err != nil {
			firstErr = err
			break
		}
		node, err := g.buildNode(abs, filepath.Base(abs), res)
		if err != nil {
			firstErr = err
			break
		}
		if node != nil {
			res.Root.AddChild(node)
		}
	}

	res.Duration = time.Since(start)
	return res, firstErr
}

// buildNode recursively builds the tree for path, named name within its
// parent. A path that has gone missing, a directory that can't be
// listed, or a symlink that can't be read or whose target no longer
// exists are all recoverable
// per-entry conditions: they're logged as warnings and the entry is
// skipped rather than aborting the whole walk. Only a failure to store a
// file's body (a repository-level problem) is surfaced as a hard error.
func (g *Generator) buildNode(path, name string, res *Result) (*snapshot.Node, error) {
	info, err := os.Lstat(path)
	if err != nil {
		log.Warn().Str("path", path).Err(err).Msg("skipping missing or unreadable path")
		return nil, nil
	}
	attrs := attributes.FromFileInfo(info)

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(path)
		if err != nil {
			log.Warn().Str("path", path).Err(err).Msg("skipping broken symlink")
			return nil, nil
		}
		st, err := os.Stat(path)
		if err != nil {
			log.Warn().Str("path", path).Err(err).Msg("skipping broken symlink")
			return nil, nil
		}
		isDir := st.IsDir()
		res.Links.Add(models.SymLinkStats{Count: 1})
		return snapshot.NewSymLink(name, attrs, target, isDir), nil

	case info.IsDir():
		if g.dirExcl.Matches(path) {
			return nil, nil
		}
		dir := snapshot.NewDirectory(name, attrs)
		entries, err := os.ReadDir(path)
		if err != nil {
			log.Warn().Str("path", path).Err(err).Msg("skipping unreadable directory")
			return nil, nil
		}
		for _, e := range entries {
			child, err := g.buildNode(filepath.Join(path, e.Name()), e.Name(), res)
			if err != nil {
				return nil, err
			}
			if child != nil {
				dir.AddChild(child)
			}
		}
		return dir, nil

	default:
		if g.fileExcl.Matches(path) {
			return nil, nil
		}
		f, err := os.Open(path)
		if err != nil {
			log.Warn().Str("path", path).Err(err).Msg("skipping unreadable file")
			return nil, nil
		}
		token, _, delta, err := g.mgr.StoreContents(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		res.Files.Add(models.FileStats{Count: 1, Bytes: attrs.Size})
		res.DeltaRepoSize += delta
		return snapshot.NewFile(name, attrs, token), nil
	}
}
