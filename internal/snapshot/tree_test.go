package snapshot

import (
	"testing"

	"github.com/snapsync/snapsync/pkg/models"
)

func TestAddChildKeepsChildrenSorted(t *testing.T) {
	dir := NewDirectory("root", models.Attributes{})
	dir.AddChild(NewFile("zebra.txt", models.Attributes{}, "tok-z"))
	dir.AddChild(NewFile("apple.txt", models.Attributes{}, "tok-a"))
	dir.AddChild(NewFile("mango.txt", models.Attributes{}, "tok-m"))

	names := make([]string, len(dir.Children))
	for i, c := range dir.Children {
		names[i] = c.Name
	}
	want := []string{"apple.txt", "mango.txt", "zebra.txt"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("Children order = %v, want %v", names, want)
		}
	}
}

func TestFindLocatesChild(t *testing.T) {
	dir := NewDirectory("root", models.Attributes{})
	dir.AddChild(NewFile("a.txt", models.Attributes{}, "tok-a"))

	if dir.Find("a.txt") == nil {
		t.Error("expected to find a.txt")
	}
	if dir.Find("missing.txt") != nil {
		t.Error("expected nil for missing child")
	}
}

func TestStatsCountsFilesAndLinksNotDirs(t *testing.T) {
	root := NewDirectory("root", models.Attributes{})
	sub := NewDirectory("sub", models.Attributes{})
	sub.AddChild(NewFile("f.txt", models.Attributes{Size: 42}, "tok"))
	sub.AddChild(NewSymLink("l", models.Attributes{}, "target", false))
	root.AddChild(sub)

	files, links := root.Stats()
	if files.Count != 1 || files.Bytes != 42 {
		t.Errorf("files = %+v, want Count=1 Bytes=42", files)
	}
	if links.Count != 1 {
		t.Errorf("links = %+v, want Count=1", links)
	}
}
