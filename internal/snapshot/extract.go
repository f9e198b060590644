package snapshot

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/snapsync/snapsync/internal/attributes"
	"github.com/snapsync/snapsync/internal/content"
	"github.com/snapsync/snapsync/pkg/models"
)

// asideSuffixFormat produces the "-ema-YYYY-MM-DD-HH-MM-SS" suffix used to
// rename a file out of the way before it is overwritten.
const asideSuffixFormat = "2006-01-02-15-04-05"

// ExtractFile writes node's content body to destPath and reapplies its
// captured attributes, returning the number of bytes written. node must
// be a KindFile node.
//
// If destPath already exists as a regular file whose bytes already hash
// to node.Token, nothing is rewritten and the existing file's size is
// returned. Otherwise, unless overwrite is set, the existing file (if
// any) is renamed aside with an "-ema-<timestamp>" suffix before the new
// body is written.
func ExtractFile(mgr *content.Manager, node *Node, destPath string, overwrite bool, warn attributes.WarnSink) (int64, error) {
	if info, err := os.Lstat(destPath); err == nil && info.Mode().IsRegular() {
		existing, err := os.Open(destPath)
		if err != nil {
			return 0, err
		}
		matches, err := mgr.CheckContentToken(existing, node.Token)
		existing.Close()
		if err != nil {
			return 0, err
		}
		if matches {
			return info.Size(), nil
		}
		if !overwrite {
			aside := destPath + "-ema-" + time.Now().Format(asideSuffixFormat)
			if err := os.Rename(destPath, aside); err != nil {
				return 0, err
			}
		}
	}

	f, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	n, err := mgr.WriteContentsForToken(node.Token, f)
	if err != nil {
		f.Close()
		return n, err
	}
	if err := f.Close(); err != nil {
		return n, err
	}
	if err := attributes.ApplyTo(node.Attrs, destPath, warn); err != nil {
		return n, err
	}
	return n, nil
}

// ExtractDir reconstructs the directory tree rooted at root under
// destRoot, using a single content.Manager session for every file body.
// Creation happens in four phases so link targets always exist before the
// symlinks that reference them: directories, then dir-symlinks, then
// files, then file-symlinks. Directory attributes are reapplied in a
// final post-order pass, since creating children bumps a directory's own
// mtime.
func ExtractDir(mgr *content.Manager, root *Node, destRoot string, overwrite bool, warn attributes.WarnSink) (models.ExtractionStats, error) {
	var stats models.ExtractionStats
	var dirs []string // destPath for every directory, pre-order
	var dirNodes []*Node

	root.Walk(func(relPath string, node *Node) {
		destPath := filepath.Join(destRoot, relPath)
		switch node.Kind {
		case KindDirectory:
			dirs = append(dirs, destPath)
			dirNodes = append(dirNodes, node)
		}
	})

	// Phase 1: directories, pre-order (Walk already guarantees parent
	// before child).
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return stats, err
		}
		stats.DirCount++
	}

	// Phase 2: symlinks to directories.
	if err := walkSymLinks(root, destRoot, true, func(destPath string, node *Node) error {
		if err := os.Symlink(node.LinkTarget, destPath); err != nil {
			return err
		}
		stats.DirSymLinkCount++
		return nil
	}); err != nil {
		return stats, err
	}

	// Phase 3: regular files.
	var extractErr error
	root.Walk(func(relPath string, node *Node) {
		if extractErr != nil || node.Kind != KindFile {
			return
		}
		destPath := filepath.Join(destRoot, relPath)
		n, err := ExtractFile(mgr, node, destPath, overwrite, warn)
		if err != nil {
			extractErr = err
			return
		}
		stats.FileCount++
		stats.BytesCount += n
	})
	if extractErr != nil {
		return stats, extractErr
	}

	// Phase 4: symlinks to files.
	if err := walkSymLinks(root, destRoot, false, func(destPath string, node *Node) error {
		if err := os.Symlink(node.LinkTarget, destPath); err != nil {
			return err
		}
		stats.FileSymLinkCount++
		return nil
	}); err != nil {
		return stats, err
	}

	// Final pass: reapply directory attributes, deepest first, so a
	// child's creation can't clobber its parent's restored mtime.
	order := make([]int, len(dirs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return len(dirs[order[i]]) > len(dirs[order[j]]) })
	for _, i := range order {
		if err := attributes.ApplyTo(dirNodes[i].Attrs, dirs[i], warn); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

func walkSymLinks(root *Node, destRoot string, wantDir bool, fn func(destPath string, node *Node) error) error {
	var err error
	root.Walk(func(relPath string, node *Node) {
		if err != nil || node.Kind != KindSymLink || node.LinkIsDir != wantDir {
			return
		}
		err = fn(filepath.Join(destRoot, relPath), node)
	})
	return err
}
