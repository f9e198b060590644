package snapshot

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/snapsync/snapsync/internal/ergiberr"
	"github.com/snapsync/snapsync/pkg/models"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	root := NewDirectory("", models.Attributes{})
	root.AddChild(NewFile("a.txt", models.Attributes{Size: 3}, "tok-a"))

	data := &PersistentData{
		ArchiveName:   "home",
		Taken:         time.Unix(1700000000, 0).UTC(),
		HashAlgorithm: models.Sha256,
		Root:          root,
		Files:         models.FileStats{Count: 1, Bytes: 3},
	}

	path := filepath.Join(t.TempDir(), Name(data.Taken))
	if err := Save(path, data); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ArchiveName != data.ArchiveName {
		t.Errorf("ArchiveName = %q, want %q", loaded.ArchiveName, data.ArchiveName)
	}
	if loaded.Root.Find("a.txt") == nil {
		t.Error("expected a.txt to survive the round trip")
	}
}

func TestNameIsLexicallySortableByTime(t *testing.T) {
	earlier := Name(time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC))
	later := Name(time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC))
	if earlier >= later {
		t.Errorf("Name(earlier)=%q should sort before Name(later)=%q", earlier, later)
	}
}

func TestLoadMissingFileIsNoSnapshotAvailable(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent"))
	if !errors.Is(err, ergiberr.New(ergiberr.NoSnapshotAvailable, "")) {
		t.Fatalf("Load of a missing snapshot file: err = %v, want NoSnapshotAvailable", err)
	}
}
