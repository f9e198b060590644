// Package refcount maintains the persistent reference count and stored
// size for every token in a content repository. One RefCounter is loaded
// once per ContentManager session and flushed back to disk, atomically,
// only when a mutable session closes.
package refcount

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/snapsync/snapsync/internal/ergiberr"
	"github.com/snapsync/snapsync/pkg/models"
)

// RefCounter is the in-memory form of the persisted Token -> RefCountEntry
// map. It is not safe for concurrent use from multiple goroutines; callers
// serialize access the same way they serialize ContentManager sessions.
type RefCounter struct {
	path    string
	entries map[models.Token]models.RefCountEntry
	dirty   bool
}

// Load reads the ref-count file at path. A missing file is not an error —
// it means an empty, freshly created repository — and yields an empty
// RefCounter.
func Load(path string) (*RefCounter, error) {
	rc := &RefCounter{path: path, entries: make(map[models.Token]models.RefCountEntry)}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return rc, nil
	}
	if err != nil {
		return nil, ergiberr.IOErr(path, err)
	}
	if len(data) == 0 {
		return rc, nil
	}
	if err := json.Unmarshal(data, &rc.entries); err != nil {
		return nil, ergiberr.Wrap(ergiberr.Serialization, path, err)
	}
	return rc, nil
}

// Get returns the entry for token and whether it exists.
func (rc *RefCounter) Get(token models.Token) (models.RefCountEntry, bool) {
	e, ok := rc.entries[token]
	return e, ok
}

// Incr adds one reference to token. storedSize is recorded only the first
// time the token is seen; later calls never touch it, matching the
// resolution that stored size is fixed at first insertion.
func (rc *RefCounter) Incr(token models.Token, storedSize int64) models.RefCountEntry {
	e, ok := rc.entries[token]
	if !ok {
		e = models.RefCountEntry{StoredSize: storedSize}
	}
	e.RefCount++
	rc.entries[token] = e
	rc.dirty = true
	return e
}

// Decr removes one reference from token. Returns the resulting entry and
// true if the token is known; a token already at zero references, or
// unknown, is reported via ok=false.
func (rc *RefCounter) Decr(token models.Token) (models.RefCountEntry, bool) {
	e, ok := rc.entries[token]
	if !ok || e.RefCount == 0 {
		return models.RefCountEntry{}, false
	}
	e.RefCount--
	rc.entries[token] = e
	rc.dirty = true
	return e, true
}

// Zero calls fn for every token currently at zero references, in
// unspecified order. Used by prune to find reclaimable blobs.
func (rc *RefCounter) Zero(fn func(models.Token, models.RefCountEntry)) {
	for tok, e := range rc.entries {
		if e.RefCount == 0 {
			fn(tok, e)
		}
	}
}

// Range calls fn for every tracked token, in unspecified order.
func (rc *RefCounter) Range(fn func(models.Token, models.RefCountEntry)) {
	for tok, e := range rc.entries {
		fn(tok, e)
	}
}

// Delete removes token's entry entirely, used by prune after its blob body
// has been removed from disk.
func (rc *RefCounter) Delete(token models.Token) {
	delete(rc.entries, token)
	rc.dirty = true
}

// Dirty reports whether any mutation happened since Load (or since the
// last Flush).
func (rc *RefCounter) Dirty() bool {
	return rc.dirty
}

// Flush persists the current entries to disk via a temp-file-then-rename,
// so a crash mid-write never corrupts the previous, valid file. A no-op if
// nothing changed since the last Flush.
func (rc *RefCounter) Flush() error {
	if !rc.dirty {
		return nil
	}

	data, err := json.Marshal(rc.entries)
	if err != nil {
		return ergiberr.Wrap(ergiberr.Serialization, rc.path, err)
	}

	dir := filepath.Dir(rc.path)
	tmp, err := os.CreateTemp(dir, ".refcount-*.tmp")
	if err != nil {
		return ergiberr.IOErr(dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return ergiberr.IOErr(tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return ergiberr.IOErr(tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return ergiberr.IOErr(tmpName, err)
	}
	if err := os.Rename(tmpName, rc.path); err != nil {
		return ergiberr.IOErr(rc.path, err)
	}

	rc.dirty = false
	return nil
}

// Len reports the number of distinct tokens tracked.
func (rc *RefCounter) Len() int {
	return len(rc.entries)
}
