// Package snapshot implements the snapshot tree (an ordered, in-memory
// directory/file/symlink structure), its persistent on-disk form, and the
// extraction logic that reconstructs a directory tree from it.
package snapshot

import (
	"sort"

	"github.com/snapsync/snapsync/pkg/models"
)

// Kind is the tagged variant a Node holds.
type Kind int

const (
	KindDirectory Kind = iota
	KindFile
	KindSymLink
)

// Node is one entry in a snapshot tree: a directory (with ordered
// children), a regular file (addressed by content token) or a symlink
// (by target string). Children are always kept sorted by Name so two
// trees built from the same directory serialize identically.
type Node struct {
	Name  string            `json:"name"`
	Kind  Kind              `json:"kind"`
	Attrs models.Attributes `json:"attrs"`

	// File only.
	Token models.Token `json:"token,omitempty"`

	// SymLink only. LinkIsDir records whether the link pointed at a
	// directory at capture time, so extraction can recreate dir-symlinks
	// before regular files and file-symlinks after them.
	LinkTarget string `json:"link_target,omitempty"`
	LinkIsDir  bool   `json:"link_is_dir,omitempty"`

	// Directory only, sorted by Name ascending.
	Children []*Node `json:"children,omitempty"`
}

// NewDirectory creates an empty directory node.
func NewDirectory(name string, attrs models.Attributes) *Node {
	return &Node{Name: name, Kind: KindDirectory, Attrs: attrs}
}

// NewFile creates a file node addressed by its content token.
func NewFile(name string, attrs models.Attributes, token models.Token) *Node {
	return &Node{Name: name, Kind: KindFile, Attrs: attrs, Token: token}
}

// NewSymLink creates a symlink node pointing at target. isDir records
// whether target resolved to a directory when the symlink was captured.
func NewSymLink(name string, attrs models.Attributes, target string, isDir bool) *Node {
	return &Node{Name: name, Kind: KindSymLink, Attrs: attrs, LinkTarget: target, LinkIsDir: isDir}
}

// AddChild inserts child into a directory node, keeping Children sorted by
// Name. Panics if called on a non-directory node — that would be a bug in
// the generator, not a runtime condition callers need to handle.
func (n *Node) AddChild(child *Node) {
	if n.Kind != KindDirectory {
		panic("snapshot: AddChild on a non-directory node")
	}
	i := sort.Search(len(n.Children), func(i int) bool { return n.Children[i].Name >= child.Name })
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = child
}

// Find looks up an immediate child by name; nil if absent or n is not a
// directory.
func (n *Node) Find(name string) *Node {
	if n.Kind != KindDirectory {
		return nil
	}
	i := sort.Search(len(n.Children), func(i int) bool { return n.Children[i].Name >= name })
	if i < len(n.Children) && n.Children[i].Name == name {
		return n.Children[i]
	}
	return nil
}

// Walk visits n and, recursively, every descendant in sorted order,
// pre-order (a directory before its children).
func (n *Node) Walk(fn func(path string, node *Node)) {
	n.walk("", fn)
}

func (n *Node) walk(prefix string, fn func(string, *Node)) {
	path := prefix
	if path == "" {
		path = n.Name
	} else if n.Name != "" {
		path = prefix + "/" + n.Name
	}
	fn(path, n)
	for _, c := range n.Children {
		c.walk(path, fn)
	}
}

// Stats tallies the node and its descendants into FileStats/SymLinkStats
// (directories themselves aren't counted — only the leaves).
func (n *Node) Stats() (files models.FileStats, links models.SymLinkStats) {
	n.Walk(func(_ string, node *Node) {
		switch node.Kind {
		case KindFile:
			files.Count++
			files.Bytes += node.Attrs.Size
		case KindSymLink:
			links.Count++
		}
	})
	return
}
