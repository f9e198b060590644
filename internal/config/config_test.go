package config

import (
	"path/filepath"
	"testing"

	"github.com/snapsync/snapsync/pkg/models"
)

func TestRootHonorsEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envConfigDir, dir)

	root, err := Root()
	if err != nil {
		t.Fatal(err)
	}
	if root != dir {
		t.Errorf("Root() = %q, want %q", root, dir)
	}
}

func TestRootEmptyEnvFallsThroughToDefault(t *testing.T) {
	t.Setenv(envConfigDir, "")

	root, err := Root()
	if err != nil {
		t.Fatal(err)
	}
	if root == "" {
		t.Error("expected a non-empty default config root")
	}
}

func TestRepoSpecSaveLoadDelete(t *testing.T) {
	t.Setenv(envConfigDir, t.TempDir())

	spec := models.RepoSpec{BaseDirectoryPath: "/tmp/some-repo", HashAlgorithm: models.Sha256}
	if err := SaveRepoSpec("home", spec); err != nil {
		t.Fatalf("SaveRepoSpec: %v", err)
	}
	if err := SaveRepoSpec("home", spec); err == nil {
		t.Error("expected RepoExists error on duplicate save")
	}

	loaded, err := LoadRepoSpec("home")
	if err != nil {
		t.Fatalf("LoadRepoSpec: %v", err)
	}
	if loaded != spec {
		t.Errorf("loaded spec = %+v, want %+v", loaded, spec)
	}

	names, err := ListRepoNames()
	if err != nil || len(names) != 1 || names[0] != "home" {
		t.Errorf("ListRepoNames() = %v, %v", names, err)
	}

	if err := DeleteRepoSpec("home"); err != nil {
		t.Fatalf("DeleteRepoSpec: %v", err)
	}
	if _, err := LoadRepoSpec("home"); err == nil {
		t.Error("expected UnknownRepo after delete")
	}
}

func TestSaveArchiveSpecRejectsRelativeInclusions(t *testing.T) {
	t.Setenv(envConfigDir, t.TempDir())

	spec := models.ArchiveSpec{
		ContentRepoName: "home",
		Inclusions:      []string{"relative/path"},
		SnapshotDirPath: "/tmp/some-repo/snapshots/docs",
	}
	if err := SaveArchiveSpec("docs", spec); err == nil {
		t.Fatal("expected an error for a relative inclusion path")
	}

	if _, err := LoadArchiveSpec("docs"); err == nil {
		t.Error("archive should not have been saved")
	}
}

func TestSaveArchiveSpecAcceptsAbsoluteInclusions(t *testing.T) {
	t.Setenv(envConfigDir, t.TempDir())

	spec := models.ArchiveSpec{
		ContentRepoName: "home",
		Inclusions:      []string{"/home/user/docs"},
		SnapshotDirPath: "/tmp/some-repo/snapshots/docs",
	}
	if err := SaveArchiveSpec("docs", spec); err != nil {
		t.Fatalf("SaveArchiveSpec: %v", err)
	}

	loaded, err := LoadArchiveSpec("docs")
	if err != nil {
		t.Fatalf("LoadArchiveSpec: %v", err)
	}
	if loaded.Inclusions[0] != "/home/user/docs" {
		t.Errorf("loaded inclusion = %q", loaded.Inclusions[0])
	}
}

func TestRootTildeExpansion(t *testing.T) {
	t.Setenv(envConfigDir, "~/ergictl-test-config")

	root, err := Root()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(root) != "ergictl-test-config" {
		t.Errorf("Root() = %q, expected it to end in ergictl-test-config", root)
	}
}
