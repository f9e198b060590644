package refcount

import (
	"path/filepath"
	"testing"

	"github.com/snapsync/snapsync/pkg/models"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	rc, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("Load missing: %v", err)
	}
	if rc.Len() != 0 {
		t.Errorf("expected empty RefCounter, got %d entries", rc.Len())
	}
}

func TestStoredSizeFixedAtFirstInsertion(t *testing.T) {
	rc, _ := Load(filepath.Join(t.TempDir(), "rc.json"))

	rc.Incr("tok1", 100)
	rc.Incr("tok1", 999) // must not overwrite StoredSize
	rc.Incr("tok1", 1)

	e, ok := rc.Get("tok1")
	if !ok {
		t.Fatal("expected tok1 present")
	}
	if e.RefCount != 3 {
		t.Errorf("RefCount = %d, want 3", e.RefCount)
	}
	if e.StoredSize != 100 {
		t.Errorf("StoredSize = %d, want 100 (fixed at first insertion)", e.StoredSize)
	}
}

func TestDecrToZeroThenUnknown(t *testing.T) {
	rc, _ := Load(filepath.Join(t.TempDir(), "rc.json"))
	rc.Incr("tok1", 10)

	if _, ok := rc.Decr("tok1"); !ok {
		t.Fatal("expected Decr to succeed")
	}
	e, _ := rc.Get("tok1")
	if e.RefCount != 0 {
		t.Errorf("RefCount after single decr of single ref = %d, want 0", e.RefCount)
	}
	if _, ok := rc.Decr("tok1"); ok {
		t.Error("expected Decr on an already-zero entry to fail")
	}
	if _, ok := rc.Decr("unknown"); ok {
		t.Error("expected Decr on unknown token to fail")
	}
}

func TestFlushRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rc.json")
	rc, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	rc.Incr("tok1", 50)
	rc.Incr("tok2", 75)
	if err := rc.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	e, ok := reloaded.Get("tok1")
	if !ok || e.RefCount != 1 || e.StoredSize != 50 {
		t.Errorf("reloaded tok1 = %+v, ok=%v", e, ok)
	}
}

func TestZeroIteratesOnlyZeroEntries(t *testing.T) {
	rc, _ := Load(filepath.Join(t.TempDir(), "rc.json"))
	rc.Incr("live", 1)
	rc.Incr("dead", 1)
	rc.Decr("dead")

	var zeroed []models.Token
	rc.Zero(func(tok models.Token, _ models.RefCountEntry) {
		zeroed = append(zeroed, tok)
	})
	if len(zeroed) != 1 || zeroed[0] != "dead" {
		t.Errorf("Zero() = %v, want [dead]", zeroed)
	}
}
