package content

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/snapsync/snapsync/internal/ergiberr"
	"github.com/snapsync/snapsync/pkg/models"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	spec := models.RepoSpec{
		BaseDirectoryPath: filepath.Join(t.TempDir(), "repo"),
		HashAlgorithm:     models.Sha256,
	}
	repo, err := Create(spec)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return repo
}

func TestStoreAndRetrieveRoundTrip(t *testing.T) {
	repo := newRepo(t)
	mgr, err := repo.Open(Mutable)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer mgr.Close()

	want := []byte("hello, content-addressed world")
	token, storedSize, delta, err := mgr.StoreContents(bytes.NewReader(want))
	if err != nil {
		t.Fatalf("StoreContents: %v", err)
	}
	if storedSize != delta || delta == 0 {
		t.Errorf("first store: storedSize=%d delta=%d, want equal and nonzero", storedSize, delta)
	}

	var got bytes.Buffer
	n, err := mgr.WriteContentsForToken(token, &got)
	if err != nil {
		t.Fatalf("WriteContentsForToken: %v", err)
	}
	if n != int64(got.Len()) {
		t.Errorf("WriteContentsForToken returned %d bytes, buffer has %d", n, got.Len())
	}
	if !bytes.Equal(got.Bytes(), want) {
		t.Errorf("round trip = %q, want %q", got.Bytes(), want)
	}

	match, err := mgr.CheckContentToken(bytes.NewReader(want), token)
	if err != nil {
		t.Fatalf("CheckContentToken: %v", err)
	}
	if !match {
		t.Error("CheckContentToken = false for matching content")
	}
	match, err = mgr.CheckContentToken(strings.NewReader("something else entirely"), token)
	if err != nil {
		t.Fatalf("CheckContentToken: %v", err)
	}
	if match {
		t.Error("CheckContentToken = true for mismatching content")
	}
}

func TestIdenticalContentDeduplicates(t *testing.T) {
	repo := newRepo(t)
	mgr, err := repo.Open(Mutable)
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	data := strings.Repeat("same bytes, stored twice\n", 10)
	tok1, size1, delta1, err := mgr.StoreContents(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	tok2, size2, delta2, err := mgr.StoreContents(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if tok1 != tok2 {
		t.Fatalf("identical content produced different tokens: %s vs %s", tok1, tok2)
	}
	if delta1 == 0 {
		t.Errorf("first store: delta_repo_size = 0, want nonzero")
	}
	if delta2 != 0 {
		t.Errorf("second store of identical content: delta_repo_size = %d, want 0", delta2)
	}
	if size1 != size2 {
		t.Errorf("stored_size mismatch between identical stores: %d vs %d", size1, size2)
	}

	count, err := mgr.RefCountForToken(tok1)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("RefCount after storing identical content twice = %d, want 2", count)
	}
}

func TestUnknownTokenErrors(t *testing.T) {
	repo := newRepo(t)
	mgr, err := repo.Open(Mutable)
	if err != nil {
		t.Fatal(err)
	}
	defer mgr.Close()

	var buf bytes.Buffer
	err = mgr.WriteContentsForToken("deadbeef", &buf)
	var e *ergiberr.Error
	if !errors.As(err, &e) || e.Kind != ergiberr.UnknownToken {
		t.Errorf("expected UnknownToken error, got %v", err)
	}
}

func TestDeleteRefusesWhileReferenced(t *testing.T) {
	repo := newRepo(t)
	mgr, err := repo.Open(Mutable)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := mgr.StoreContents(strings.NewReader("still referenced")); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatal(err)
	}

	err = repo.Delete()
	var e *ergiberr.Error
	if !errors.As(err, &e) || e.Kind != ergiberr.StillReferenced {
		t.Errorf("expected StillReferenced error, got %v", err)
	}
}

func TestPruneReclaimsZeroRefBlobs(t *testing.T) {
	repo := newRepo(t)
	mgr, err := repo.Open(Mutable)
	if err != nil {
		t.Fatal(err)
	}
	token, _, _, err := mgr.StoreContents(strings.NewReader("to be pruned"))
	if err != nil {
		t.Fatal(err)
	}
	if err := mgr.ReleaseContents(token); err != nil {
		t.Fatal(err)
	}
	if err := mgr.Close(); err != nil {
		t.Fatal(err)
	}

	result, errs, err := repo.Prune()
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if len(errs) != 0 {
		t.Errorf("unexpected prune errors: %v", errs)
	}
	if result.BodiesRemoved != 1 {
		t.Errorf("BodiesRemoved = %d, want 1", result.BodiesRemoved)
	}
}
