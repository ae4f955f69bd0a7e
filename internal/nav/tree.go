// Package nav maintains the lazily-expanded navigation tree mixing
// file-system directories with virtual query leaves.
package nav

import (
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"tagdeck/internal/query"
)

// Kind discriminates tree nodes.
type Kind int

const (
	// KindBranch is a fixed, non-selectable section header.
	KindBranch Kind = iota
	// KindDir is a file-system directory, expandable on demand.
	KindDir
	// KindQueryAll is the virtual "all tagged files" leaf.
	KindQueryAll
	// KindQueryUntagged is the virtual "untagged files" leaf.
	KindQueryUntagged
	// KindError is a synthetic leaf standing in for a failed expansion.
	KindError
)

// Node is one tree entry. Directory nodes are populated at most once per
// process lifetime; files never become nodes.
type Node struct {
	Kind     Kind
	Label    string
	Path     string // directories only
	Parent   *Node
	Children []*Node
	Expanded bool

	populated bool
}

// Expandable reports whether the node can hold children.
func (n *Node) Expandable() bool {
	return n.Kind == KindBranch || n.Kind == KindDir
}

// Depth returns the node's distance from its root branch.
func (n *Node) Depth() int {
	d := 0
	for p := n.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

// Descriptor maps a selected node to the query it denotes. Branch headers
// and error leaves denote nothing.
func (n *Node) Descriptor() (query.Descriptor, bool) {
	switch n.Kind {
	case KindDir:
		return query.DirectoryOf(n.Path), true
	case KindQueryAll:
		return query.Descriptor{Kind: query.AllTagged}, true
	case KindQueryUntagged:
		return query.Descriptor{Kind: query.Untagged}, true
	default:
		return query.Descriptor{}, false
	}
}

// ListFunc enumerates a directory; injected for tests.
type ListFunc func(dir string) ([]query.Entry, error)

// Tree owns the navigation nodes. The root structure is fixed at
// construction: a File System branch seeded with the home directory (plus
// the working directory when distinct) and a Queries branch with the two
// virtual leaves.
type Tree struct {
	Roots []*Node

	list ListFunc
}

// New builds a tree listing directories from the real file system.
func New(home, cwd string) *Tree {
	return NewWithLister(home, cwd, func(dir string) ([]query.Entry, error) {
		return query.ListDir(dir)
	})
}

// NewWithLister builds a tree with a custom directory lister.
func NewWithLister(home, cwd string, list ListFunc) *Tree {
	fsBranch := &Node{Kind: KindBranch, Label: "File System", Expanded: true}
	addDir(fsBranch, home)
	if cwd != "" && cwd != home {
		addDir(fsBranch, cwd)
	}

	queries := &Node{Kind: KindBranch, Label: "Queries", Expanded: true}
	queries.Children = []*Node{
		{Kind: KindQueryAll, Label: "All Tagged Files", Parent: queries},
		{Kind: KindQueryUntagged, Label: "Untagged Files", Parent: queries},
	}

	return &Tree{Roots: []*Node{fsBranch, queries}, list: list}
}

func addDir(parent *Node, path string) *Node {
	label := filepath.Base(path)
	if label == "." || label == string(filepath.Separator) || label == "" {
		label = path
	}
	n := &Node{Kind: KindDir, Label: label, Path: path, Parent: parent}
	parent.Children = append(parent.Children, n)
	return n
}

// Expand marks a node expanded, populating a directory node's children on
// first expansion only. Re-expansion is an idempotent lookup: the directory
// is never scanned a second time, even after an error.
func (t *Tree) Expand(n *Node) {
	if !n.Expandable() {
		return
	}
	n.Expanded = true
	if n.Kind != KindDir || n.populated {
		return
	}
	n.populated = true

	entries, err := t.list(n.Path)
	if err != nil {
		zap.S().Warnw("directory expansion failed", "path", n.Path, "err", err)
		n.Children = []*Node{{Kind: KindError, Label: errorLabel(err), Parent: n}}
		return
	}

	var dirs []query.Entry
	for _, e := range entries {
		if e.IsDir && !strings.HasPrefix(e.Name, ".") {
			dirs = append(dirs, e)
		}
	}
	sort.Slice(dirs, func(i, j int) bool {
		return strings.ToLower(dirs[i].Name) < strings.ToLower(dirs[j].Name)
	})
	for _, d := range dirs {
		addDir(n, d.Path)
	}
}

// Collapse hides a node's children without discarding them.
func (t *Tree) Collapse(n *Node) {
	if n.Expandable() {
		n.Expanded = false
	}
}

// Toggle flips a node between expanded and collapsed.
func (t *Tree) Toggle(n *Node) {
	if n.Expanded {
		t.Collapse(n)
	} else {
		t.Expand(n)
	}
}

// Visible returns the flattened list of nodes currently shown, in display
// order.
func (t *Tree) Visible() []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		out = append(out, n)
		if n.Expanded {
			for _, c := range n.Children {
				walk(c)
			}
		}
	}
	for _, r := range t.Roots {
		walk(r)
	}
	return out
}

func errorLabel(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "permission denied") {
		return "Permission denied"
	}
	return "Error: " + msg
}
