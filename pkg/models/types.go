// Package models holds the plain data types shared across the snapshot
// engine: tokens, specs, attributes and the small stat structs returned
// by the core operations.
package models

import "time"

// Token identifies a unique blob within a repository. It is a lowercase-hex
// digest whose length is fixed by the repository's HashAlgorithm.
type Token string

// HashAlgorithm is the closed set of digest algorithms a repository may use.
// Chosen at repository creation and immutable thereafter.
type HashAlgorithm string

const (
	Sha1   HashAlgorithm = "Sha1"
	Sha256 HashAlgorithm = "Sha256"
	Sha512 HashAlgorithm = "Sha512"
)

// RepoSpec is the persisted identity of a content repository: where its
// blobs live on disk and which hash algorithm addresses them.
type RepoSpec struct {
	BaseDirectoryPath string        `yaml:"base_directory_path" json:"base_directory_path"`
	HashAlgorithm     HashAlgorithm `yaml:"hash_algorithm" json:"hash_algorithm"`
}

// ArchiveSpec is the persisted configuration of a named archive: which
// repository it stores into, where its snapshot files live, and what it
// includes/excludes on each backup.
type ArchiveSpec struct {
	ContentRepoName string   `yaml:"content_repo_name" json:"content_repo_name"`
	SnapshotDirPath string   `yaml:"snapshot_dir_path" json:"snapshot_dir_path"`
	Inclusions      []string `yaml:"inclusions" json:"inclusions"`
	DirExclusions   []string `yaml:"dir_exclusions" json:"dir_exclusions"`
	FileExclusions  []string `yaml:"file_exclusions" json:"file_exclusions"`
}

// Attributes is a POSIX stat projection, captured on backup and reapplied
// on restore. Nanosecond-resolution time fields round-trip exactly.
type Attributes struct {
	Dev   uint64 `json:"dev"`
	Ino   uint64 `json:"ino"`
	Nlink uint64 `json:"nlink"`
	Mode  uint32 `json:"mode"`
	Uid   uint32 `json:"uid"`
	Gid   uint32 `json:"gid"`
	Size  int64  `json:"size"`
	Atime int64  `json:"atime"`
	ANsec int64  `json:"atime_nsec"`
	Mtime int64  `json:"mtime"`
	MNsec int64  `json:"mtime_nsec"`
	Ctime int64  `json:"ctime"`
	CNsec int64  `json:"ctime_nsec"`
}

// ModTime returns the captured modification time as a time.Time.
func (a Attributes) ModTime() time.Time {
	return time.Unix(a.Mtime, a.MNsec)
}

// AccessTime returns the captured access time as a time.Time.
func (a Attributes) AccessTime() time.Time {
	return time.Unix(a.Atime, a.ANsec)
}

// RefCountEntry is the persisted value for one token in the RefCounter:
// how many live references it has, and the size it occupied on disk the
// one time it was written (never re-examined on subsequent stores).
type RefCountEntry struct {
	RefCount   uint64 `json:"ref_count"`
	StoredSize int64  `json:"stored_size"`
}

// FileStats accumulates counts/bytes for regular files processed during a
// snapshot generation or restore.
type FileStats struct {
	Count int64 `json:"count"`
	Bytes int64 `json:"bytes"`
}

// Add folds another FileStats into this one.
func (s *FileStats) Add(o FileStats) {
	s.Count += o.Count
	s.Bytes += o.Bytes
}

// SymLinkStats accumulates counts for symlinks processed during generation.
type SymLinkStats struct {
	Count int64 `json:"count"`
}

// Add folds another SymLinkStats into this one.
func (s *SymLinkStats) Add(o SymLinkStats) {
	s.Count += o.Count
}

// ExtractionStats summarizes a copy_dir_to extraction.
type ExtractionStats struct {
	DirCount         int   `json:"dir_count"`
	FileCount        int   `json:"file_count"`
	BytesCount       int64 `json:"bytes_count"`
	DirSymLinkCount  int   `json:"dir_sym_link_count"`
	FileSymLinkCount int   `json:"file_sym_link_count"`
}

// UnreferencedContentData is the result of a prune: bodies removed and
// bytes reclaimed from the content repository.
type UnreferencedContentData struct {
	BodiesRemoved  int   `json:"bodies_removed"`
	BytesReclaimed int64 `json:"bytes_reclaimed"`
}
