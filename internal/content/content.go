// Package content implements the content-addressed blob store: a
// Repository rooted at a directory on disk, and the Manager sessions
// (Mutable or Immutable) that read and write it under an advisory lock.
package content

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/snapsync/snapsync/internal/compress"
	"github.com/snapsync/snapsync/internal/ergiberr"
	"github.com/snapsync/snapsync/internal/hasher"
	"github.com/snapsync/snapsync/internal/refcount"
	"github.com/snapsync/snapsync/pkg/models"
)

const (
	dataDirName  = "data"
	lockFileName = "lock"
	refCountFile = "refcount.json"
	tempPrefix   = ".incoming-"
)

// Mode selects how a Repository is opened: Mutable sessions may store new
// blobs and release references; Immutable sessions may only read.
type Mode int

const (
	Mutable Mode = iota
	Immutable
)

// Repository is a content-addressed blob store rooted at BasePath.
// It holds no open file handles itself — Open starts a session that does.
type Repository struct {
	BasePath string
	HashAlgo models.HashAlgorithm
}

// New wraps an already-created repository directory for use.
func New(spec models.RepoSpec) *Repository {
	return &Repository{BasePath: spec.BaseDirectoryPath, HashAlgo: spec.HashAlgorithm}
}

// Create lays out a fresh, empty repository directory: the data fan-out
// root, an empty ref-count file and a lock file. Fails if the directory
// already exists and is non-empty.
func Create(spec models.RepoSpec) (*Repository, error) {
	base := spec.BaseDirectoryPath
	if info, err := os.Stat(base); err == nil {
		if !info.IsDir() {
			return nil, ergiberr.New(ergiberr.RepoDirExists, base)
		}
		entries, err := os.ReadDir(base)
		if err != nil {
			return nil, ergiberr.IOErr(base, err)
		}
		if len(entries) > 0 {
			return nil, ergiberr.New(ergiberr.RepoExists, base)
		}
	} else if !os.IsNotExist(err) {
		return nil, ergiberr.IOErr(base, err)
	}

	if err := os.MkdirAll(filepath.Join(base, dataDirName), 0o755); err != nil {
		return nil, ergiberr.IOErr(base, err)
	}
	lockPath := filepath.Join(base, lockFileName)
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, ergiberr.IOErr(lockPath, err)
	}
	f.Close()

	rcPath := filepath.Join(base, refCountFile)
	if err := os.WriteFile(rcPath, []byte("{}"), 0o644); err != nil {
		return nil, ergiberr.IOErr(rcPath, err)
	}

	return &Repository{BasePath: base, HashAlgo: spec.HashAlgorithm}, nil
}

// Delete removes the repository directory entirely. Refuses with
// StillReferenced if any token still has live references; callers are
// expected to have already checked archives don't point at this
// repository.
func (r *Repository) Delete() error {
	mgr, err := r.Open(Mutable)
	if err != nil {
		return err
	}

	numRefs, numItems := 0, 0
	mgr.rc.Range(func(_ models.Token, e models.RefCountEntry) {
		if e.RefCount > 0 {
			numItems++
			numRefs += int(e.RefCount)
		}
	})
	if numItems > 0 {
		mgr.Close()
		return ergiberr.StillReferencedErr(numRefs, numItems)
	}

	mgr.abandon = true
	if err := mgr.Close(); err != nil {
		return err
	}
	if err := os.RemoveAll(r.BasePath); err != nil {
		return ergiberr.IOErr(r.BasePath, err)
	}
	return nil
}

// Prune removes every zero-reference blob body, the ref-count entries that
// track them, and any now-empty fan-out directories. Individual removal
// failures are recorded but do not stop the sweep; the call only returns
// an error if the ref-count file itself can't be persisted afterward.
func (r *Repository) Prune() (models.UnreferencedContentData, []error, error) {
	var result models.UnreferencedContentData
	var errs []error

	mgr, err := r.Open(Mutable)
	if err != nil {
		return result, nil, err
	}
	defer mgr.Close()

	var zero []models.Token
	mgr.rc.Zero(func(tok models.Token, _ models.RefCountEntry) {
		zero = append(zero, tok)
	})

	for _, tok := range zero {
		e, _ := mgr.rc.Get(tok)
		path := mgr.blobPath(tok)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, ergiberr.IOErr(path, err))
			continue
		}
		mgr.rc.Delete(tok)
		result.BodiesRemoved++
		result.BytesReclaimed += e.StoredSize
		removeEmptyPrefixDirs(filepath.Dir(path), filepath.Join(r.BasePath, dataDirName))
	}

	if err := mgr.rc.Flush(); err != nil {
		return result, errs, err
	}
	return result, errs, nil
}

func removeEmptyPrefixDirs(dir, stopAt string) {
	for dir != stopAt && len(dir) > len(stopAt) {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		if os.Remove(dir) != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

// Manager is an open session against a Repository: either Mutable
// (exclusive lock, may store/release/flush) or Immutable (shared lock,
// read-only).
type Manager struct {
	repo     *Repository
	mode     Mode
	lockFile *os.File
	rc       *refcount.RefCounter
	comp     *compress.Compressor
	abandon  bool
}

// Open acquires the repository's advisory lock — exclusive for Mutable,
// shared for Immutable — and loads the ref-count table. Acquisition
// blocks indefinitely; no timeout is imposed.
func (r *Repository) Open(mode Mode) (*Manager, error) {
	lockPath := filepath.Join(r.BasePath, lockFileName)
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, ergiberr.IOErr(lockPath, err)
	}

	flag := syscall.LOCK_SH
	if mode == Mutable {
		flag = syscall.LOCK_EX
	}
	if err := syscall.Flock(int(f.Fd()), flag); err != nil {
		f.Close()
		return nil, ergiberr.IOErr(lockPath, err)
	}

	rc, err := refcount.Load(filepath.Join(r.BasePath, refCountFile))
	if err != nil {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
		return nil, err
	}

	comp, err := compress.NewDefault()
	if err != nil {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
		return nil, err
	}

	return &Manager{repo: r, mode: mode, lockFile: f, rc: rc, comp: comp}, nil
}

// Close flushes the ref-count table (Mutable sessions only, and only if
// anything changed) and releases the lock. Safe to call on every exit
// path, including after an error.
func (m *Manager) Close() error {
	return m.closeLocked()
}

func (m *Manager) closeLocked() error {
	var flushErr error
	if m.mode == Mutable && !m.abandon {
		flushErr = m.rc.Flush()
	}
	m.comp.Close()
	syscall.Flock(int(m.lockFile.Fd()), syscall.LOCK_UN)
	m.lockFile.Close()
	return flushErr
}

// blobPath returns the two-level hex fan-out path for a token:
// data/<first 2 hex>/<next 2 hex>/<remaining hex>.
func (m *Manager) blobPath(token models.Token) string {
	s := string(token)
	base := filepath.Join(m.repo.BasePath, dataDirName)
	if len(s) < 4 {
		return filepath.Join(base, s)
	}
	return filepath.Join(base, s[0:2], s[2:4], s[4:])
}

// CheckContentToken streams r through the repository's hash algorithm and
// reports whether the digest equals token. Extraction uses this to skip
// rewriting a destination file whose contents already match.
func (m *Manager) CheckContentToken(r io.Reader, token models.Token) (bool, error) {
	sum, err := hasher.Sum(m.repo.HashAlgo, r)
	if err != nil {
		return false, err
	}
	return sum == token, nil
}

// RefCountForToken reports the live reference count for token.
func (m *Manager) RefCountForToken(token models.Token) (uint64, error) {
	e, ok := m.rc.Get(token)
	if !ok {
		return 0, ergiberr.UnknownTokenErr(string(token))
	}
	return e.RefCount, nil
}

// StoreContents streams src through the repository's hash algorithm and
// zstd compressor simultaneously, writes the compressed body to a temp
// file, and renames it into place under its content token. If a blob
// already exists for that token the temp file is discarded instead —
// content-addressing gives deduplication for free, and delta_repo_size is
// 0 since nothing new was written to disk. Either way the token's
// reference count is incremented. Mutable sessions only. Returns the
// token, the blob's stored (compressed) size, and the change in on-disk
// repository size attributable to this call.
func (m *Manager) StoreContents(src io.Reader) (models.Token, int64, int64, error) {
	if m.mode != Mutable {
		return "", 0, 0, fmt.Errorf("content: StoreContents requires a Mutable session")
	}

	dataDir := filepath.Join(m.repo.BasePath, dataDirName)
	tmp, err := os.CreateTemp(dataDir, tempPrefix+"*")
	if err != nil {
		return "", 0, 0, ergiberr.IOErr(dataDir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	enc, err := m.comp.Writer(tmp)
	if err != nil {
		tmp.Close()
		return "", 0, 0, err
	}
	tee, err := hasher.NewTeeSum(m.repo.HashAlgo, enc)
	if err != nil {
		tmp.Close()
		return "", 0, 0, err
	}

	if _, err := io.Copy(tee, src); err != nil {
		tmp.Close()
		return "", 0, 0, ergiberr.IOErr(tmpName, err)
	}
	if err := enc.Close(); err != nil {
		tmp.Close()
		return "", 0, 0, ergiberr.IOErr(tmpName, err)
	}

	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		return "", 0, 0, ergiberr.IOErr(tmpName, err)
	}
	storedSize := info.Size()
	if err := tmp.Close(); err != nil {
		return "", 0, 0, ergiberr.IOErr(tmpName, err)
	}

	token := tee.Token()
	blobPath := m.blobPath(token)

	if e, ok := m.rc.Get(token); ok {
		m.rc.Incr(token, storedSize)
		return token, e.StoredSize, 0, nil
	}

	if err := os.MkdirAll(filepath.Dir(blobPath), 0o755); err != nil {
		return "", 0, 0, ergiberr.IOErr(filepath.Dir(blobPath), err)
	}
	if err := os.Rename(tmpName, blobPath); err != nil {
		return "", 0, 0, ergiberr.IOErr(blobPath, err)
	}

	m.rc.Incr(token, storedSize)
	return token, storedSize, storedSize, nil
}

// WriteContentsForToken decompresses the blob body for token and writes
// it to dst, returning the number of bytes written. Works in either
// session mode.
func (m *Manager) WriteContentsForToken(token models.Token, dst io.Writer) (int64, error) {
	path := m.blobPath(token)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ergiberr.UnknownTokenErr(string(token))
		}
		return 0, ergiberr.IOErr(path, err)
	}
	defer f.Close()

	compressed, err := io.ReadAll(f)
	if err != nil {
		return 0, ergiberr.IOErr(path, err)
	}
	raw, err := m.comp.Decompress(compressed)
	if err != nil {
		return 0, ergiberr.Wrap(ergiberr.Serialization, path, err)
	}
	n, err := io.Copy(dst, bytes.NewReader(raw))
	if err != nil {
		return n, err
	}
	return n, nil
}

// ReleaseContents drops one reference to token. Mutable sessions only;
// the blob body itself is reclaimed later by Prune, not here.
func (m *Manager) ReleaseContents(token models.Token) error {
	if m.mode != Mutable {
		return fmt.Errorf("content: ReleaseContents requires a Mutable session")
	}
	if _, ok := m.rc.Decr(token); !ok {
		return ergiberr.UnknownTokenErr(string(token))
	}
	return nil
}
