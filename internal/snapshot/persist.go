package snapshot

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/golang/snappy"

	"github.com/snapsync/snapsync/internal/content"
	"github.com/snapsync/snapsync/internal/ergiberr"
	"github.com/snapsync/snapsync/pkg/models"
)

// PersistentData is the whole on-disk form of one snapshot: its root tree
// plus the metadata needed to list and extract it without re-reading the
// source directory.
type PersistentData struct {
	ArchiveName   string              `json:"archive_name"`
	Taken         time.Time           `json:"taken"`
	HashAlgorithm models.HashAlgorithm `json:"hash_algorithm"`
	Root          *Node               `json:"root"`
	Files         models.FileStats    `json:"files"`
	SymLinks      models.SymLinkStats `json:"sym_links"`
}

// Name formats the snapshot's file name: local time, fixed width, with a
// numeric UTC offset suffix — matching the archive's on-disk listing order
// when sorted lexically.
func Name(t time.Time) string {
	return t.Format("2006-01-02-15-04-05-0700")
}

// Save serializes data as JSON, frames it with Snappy, and writes it whole
// to path — no temp file, per the format's own write-then-verify
// discipline. It reads the file back immediately; on any mismatch the bad
// file is removed and a SnapshotMismatch error is returned, or
// SnapshotMismatchDirty if the removal itself also failed.
func Save(path string, data *PersistentData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return ergiberr.Wrap(ergiberr.Serialization, path, err)
	}

	var buf bytes.Buffer
	w := snappy.NewBufferedWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return ergiberr.Wrap(ergiberr.Serialization, path, err)
	}
	if err := w.Close(); err != nil {
		return ergiberr.Wrap(ergiberr.Serialization, path, err)
	}
	framed := buf.Bytes()

	if err := os.WriteFile(path, framed, 0o644); err != nil {
		return ergiberr.IOErr(path, err)
	}

	back, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(back, framed) {
		if rmErr := os.Remove(path); rmErr != nil {
			return ergiberr.New(ergiberr.SnapshotMismatchDirty, path)
		}
		return ergiberr.New(ergiberr.SnapshotMismatch, path)
	}

	return nil
}

// ReleaseTree decrements the reference for every File node in root's
// tree, recursively. Used to discard a generated-but-unpersisted
// snapshot, and when a persisted snapshot file is deleted.
func ReleaseTree(mgr *content.Manager, root *Node) error {
	var firstErr error
	root.Walk(func(_ string, node *Node) {
		if node.Kind != KindFile {
			return
		}
		if err := mgr.ReleaseContents(node.Token); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	return firstErr
}

// ReleaseContents decrements the reference for every File node in data's
// tree via an already-open Mutable ContentManager.
func (data *PersistentData) ReleaseContents(mgr *content.Manager) error {
	return ReleaseTree(mgr, data.Root)
}

// Load reads a Snappy-framed snapshot file and decodes its JSON payload.
func Load(path string) (*PersistentData, error) {
	framed, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ergiberr.New(ergiberr.NoSnapshotAvailable, path)
		}
		return nil, ergiberr.IOErr(path, err)
	}

	raw, err := io.ReadAll(snappy.NewReader(bytes.NewReader(framed)))
	if err != nil {
		return nil, ergiberr.Wrap(ergiberr.Serialization, path, err)
	}

	var data PersistentData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, ergiberr.Wrap(ergiberr.Serialization, path, err)
	}
	return &data, nil
}
