// Package archive implements the archive registry: listing, indexing and
// pruning the snapshot files a single named archive has accumulated on
// disk.
package archive

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/snapsync/snapsync/internal/content"
	"github.com/snapsync/snapsync/internal/ergiberr"
	"github.com/snapsync/snapsync/internal/snapshot"
	"github.com/snapsync/snapsync/pkg/models"
)

// snapshotNamePattern is the only filename shape that counts as a
// snapshot within an archive's directory; anything else is ignored.
var snapshotNamePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-\d{2}-\d{2}-\d{2}[+-]\d{4}$`)

// Registry operates on one archive's snapshot directory. Snapshot file
// names sort lexically in time order (see snapshot.Name), so listing is
// just a directory read plus a string sort — no metadata needs parsing.
type Registry struct {
	Name string
	Spec models.ArchiveSpec
}

// Open wraps an archive spec for registry operations.
func Open(name string, spec models.ArchiveSpec) *Registry {
	return &Registry{Name: name, Spec: spec}
}

// ListSnapshotFiles returns every snapshot file name in the archive,
// oldest first. Entries whose name doesn't match the snapshot timestamp
// pattern are not snapshots and are ignored.
func (r *Registry) ListSnapshotFiles() ([]string, error) {
	entries, err := os.ReadDir(r.Spec.SnapshotDirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ergiberr.IOErr(r.Spec.SnapshotDirPath, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !snapshotNamePattern.MatchString(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// NthBack returns the snapshot file n positions back from the newest: 0
// is the newest snapshot, 1 the one before it, and so on. A negative n
// indexes from the oldest instead: -1 is the oldest, -2 the one after
// it, and so on.
func (r *Registry) NthBack(n int) (string, error) {
	names, err := r.ListSnapshotFiles()
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", ergiberr.New(ergiberr.ArchiveEmpty, r.Name)
	}
	idx := len(names) - 1 - n
	if n < 0 {
		idx = -n - 1
	}
	if idx < 0 || idx >= len(names) {
		return "", ergiberr.IndexOutOfRangeErr(r.Name, int64(n))
	}
	return names[idx], nil
}

// Path returns the full path to a snapshot file name within this
// archive's directory.
func (r *Registry) Path(name string) string {
	return filepath.Join(r.Spec.SnapshotDirPath, name)
}

// DeleteSnapshotFile loads the named snapshot, releases every content
// token it holds through mgr, then removes the file. If the load fails
// the file is left untouched (fail-safe); if the removal fails after the
// tokens were already released, the I/O error is reported but the
// release has already happened. Refuses with LastSnapshot if it is the
// only snapshot the archive has, unless force is set — callers doing
// routine retention pruning pass force=false so an archive is never
// silently emptied.
func (r *Registry) DeleteSnapshotFile(mgr *content.Manager, name string, force bool) error {
	names, err := r.ListSnapshotFiles()
	if err != nil {
		return err
	}
	if !force && len(names) <= 1 {
		return ergiberr.New(ergiberr.LastSnapshot, r.Name)
	}

	path := r.Path(name)
	data, err := snapshot.Load(path)
	if err != nil {
		return err
	}
	if err := data.ReleaseContents(mgr); err != nil {
		return err
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ergiberr.New(ergiberr.UnknownFile, name)
		}
		return ergiberr.IOErr(path, err)
	}
	return nil
}

// DeleteBackN deletes the snapshot n positions back from newest (see
// NthBack), subject to the same last-snapshot protection.
func (r *Registry) DeleteBackN(mgr *content.Manager, n int, force bool) error {
	name, err := r.NthBack(n)
	if err != nil {
		return err
	}
	return r.DeleteSnapshotFile(mgr, name, force)
}

// DeleteAllButNewest removes every snapshot except the keepN newest
// ones. Refuses with LastSnapshot when keepN==0 and allowEmpty is false.
// A no-op if the archive already has keepN or fewer snapshots.
func (r *Registry) DeleteAllButNewest(mgr *content.Manager, keepN int, allowEmpty bool) (int, error) {
	if keepN == 0 && !allowEmpty {
		return 0, ergiberr.New(ergiberr.LastSnapshot, r.Name)
	}

	names, err := r.ListSnapshotFiles()
	if err != nil {
		return 0, err
	}
	if len(names) <= keepN {
		return 0, nil
	}

	removed := 0
	for _, name := range names[:len(names)-keepN] {
		if err := r.DeleteSnapshotFile(mgr, name, true); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
