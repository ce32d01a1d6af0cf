/*
Package outline holds the hierarchical course outline produced by outline
generation and edited by the user.

A Tree is immutable. Every edit returns a new Tree that copies only the nodes
on the edited path; untouched subtrees are shared with the previous version,
so an edit costs O(depth * fan-out) instead of a deep copy of the outline.
*/
package outline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned when a path does not address a node
var ErrInvalidPath = errors.New("invalid outline path")

// Node is one topic of the outline. Treat nodes obtained from a Tree as read-only.
type Node struct {
	Title       string
	Description string
	Children    []Node
}

// Path addresses a node by child index at each level, starting from the
// top-level topics. The empty path addresses the (virtual) root.
type Path []int

// String renders the path with 1-based numbering, e.g. "2.1.3".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, idx := range p {
		parts[i] = strconv.Itoa(idx + 1)
	}
	return strings.Join(parts, ".")
}

// ParsePath parses the 1-based dotted form produced by Path.String.
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Path{}, nil
	}
	parts := strings.Split(s, ".")
	path := make(Path, len(parts))
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, s)
		}
		path[i] = n - 1
	}
	return path, nil
}

// Tree is an immutable outline
type Tree struct {
	nodes []Node
}

// New builds a tree from top-level nodes. The slice is copied; the nodes'
// children are not.
func New(nodes ...Node) Tree {
	return Tree{nodes: append([]Node(nil), nodes...)}
}

// Nodes returns the top-level topics. Do not mutate the result.
func (t Tree) Nodes() []Node {
	return t.nodes
}

// Len returns the number of top-level topics
func (t Tree) Len() int {
	return len(t.nodes)
}

// Count returns the total number of nodes in the tree
func (t Tree) Count() int {
	n := 0
	t.Walk(func(Path, Node) bool {
		n++
		return true
	})
	return n
}

// Get returns the node at path
func (t Tree) Get(path Path) (Node, error) {
	if len(path) == 0 {
		return Node{Children: t.nodes}, nil
	}
	level := t.nodes
	var node Node
	for depth, idx := range path {
		if idx < 0 || idx >= len(level) {
			return Node{}, fmt.Errorf("%w: %s (depth %d)", ErrInvalidPath, path, depth)
		}
		node = level[idx]
		level = node.Children
	}
	return node, nil
}

// Update replaces the node at path with fn(node). Only the nodes on path are
// copied.
func (t Tree) Update(path Path, fn func(Node) Node) (Tree, error) {
	if len(path) == 0 {
		return t, fmt.Errorf("%w: root cannot be updated", ErrInvalidPath)
	}
	nodes, err := updateLevel(t.nodes, path, fn)
	if err != nil {
		return t, err
	}
	return Tree{nodes: nodes}, nil
}

func updateLevel(level []Node, path Path, fn func(Node) Node) ([]Node, error) {
	idx := path[0]
	if idx < 0 || idx >= len(level) {
		return nil, fmt.Errorf("%w: index %d out of range", ErrInvalidPath, idx+1)
	}
	out := make([]Node, len(level))
	copy(out, level)
	if len(path) == 1 {
		out[idx] = fn(level[idx])
		return out, nil
	}
	children, err := updateLevel(level[idx].Children, path[1:], fn)
	if err != nil {
		return nil, err
	}
	out[idx].Children = children
	return out, nil
}

// updateChildren applies fn to the child list of the node at parent (or to
// the top level when parent is empty).
func (t Tree) updateChildren(parent Path, fn func([]Node) ([]Node, error)) (Tree, error) {
	if len(parent) == 0 {
		nodes, err := fn(t.nodes)
		if err != nil {
			return t, err
		}
		return Tree{nodes: nodes}, nil
	}
	var inner error
	next, err := t.Update(parent, func(n Node) Node {
		children, err := fn(n.Children)
		if err != nil {
			inner = err
			return n
		}
		n.Children = children
		return n
	})
	if err != nil {
		return t, err
	}
	if inner != nil {
		return t, inner
	}
	return next, nil
}

// SetTitle sets the title of the node at path
func (t Tree) SetTitle(path Path, title string) (Tree, error) {
	return t.Update(path, func(n Node) Node {
		n.Title = title
		return n
	})
}

// SetDescription sets the description of the node at path
func (t Tree) SetDescription(path Path, description string) (Tree, error) {
	return t.Update(path, func(n Node) Node {
		n.Description = description
		return n
	})
}

// Insert inserts node as child number index of parent. index may equal the
// number of children to append.
func (t Tree) Insert(parent Path, index int, node Node) (Tree, error) {
	return t.updateChildren(parent, func(children []Node) ([]Node, error) {
		if index < 0 || index > len(children) {
			return nil, fmt.Errorf("%w: insert position %d out of range", ErrInvalidPath, index+1)
		}
		out := make([]Node, 0, len(children)+1)
		out = append(out, children[:index]...)
		out = append(out, node)
		out = append(out, children[index:]...)
		return out, nil
	})
}

// Append adds node as the last child of parent
func (t Tree) Append(parent Path, node Node) (Tree, error) {
	return t.updateChildren(parent, func(children []Node) ([]Node, error) {
		out := make([]Node, 0, len(children)+1)
		out = append(out, children...)
		return append(out, node), nil
	})
}

// Remove deletes the node at path together with its subtree
func (t Tree) Remove(path Path) (Tree, error) {
	if len(path) == 0 {
		return t, fmt.Errorf("%w: root cannot be removed", ErrInvalidPath)
	}
	parent, idx := path[:len(path)-1], path[len(path)-1]
	return t.updateChildren(parent, func(children []Node) ([]Node, error) {
		if idx < 0 || idx >= len(children) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPath, path)
		}
		out := make([]Node, 0, len(children)-1)
		out = append(out, children[:idx]...)
		return append(out, children[idx+1:]...), nil
	})
}

// Move shifts the node at path by delta positions among its siblings
// (negative moves up). The result is clamped to the sibling range.
func (t Tree) Move(path Path, delta int) (Tree, error) {
	if len(path) == 0 {
		return t, fmt.Errorf("%w: root cannot be moved", ErrInvalidPath)
	}
	parent, idx := path[:len(path)-1], path[len(path)-1]
	return t.updateChildren(parent, func(children []Node) ([]Node, error) {
		if idx < 0 || idx >= len(children) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPath, path)
		}
		// Bound delta first so idx+delta cannot overflow
		if n := len(children); delta > n {
			delta = n
		} else if delta < -n {
			delta = -n
		}
		target := idx + delta
		if target < 0 {
			target = 0
		}
		if target >= len(children) {
			target = len(children) - 1
		}
		out := make([]Node, len(children))
		copy(out, children)
		moved := out[idx]
		if target < idx {
			copy(out[target+1:idx+1], out[target:idx])
		} else {
			copy(out[idx:target], out[idx+1:target+1])
		}
		out[target] = moved
		return out, nil
	})
}

// Walk visits every node depth-first in document order. Returning false from
// fn skips the node's children.
func (t Tree) Walk(fn func(Path, Node) bool) {
	walk(t.nodes, nil, fn)
}

func walk(level []Node, prefix Path, fn func(Path, Node) bool) {
	for i, n := range level {
		p := make(Path, len(prefix)+1)
		copy(p, prefix)
		p[len(prefix)] = i
		if fn(p, n) {
			walk(n.Children, p, fn)
		}
	}
}

// Text renders the outline as an indented numbered list
func (t Tree) Text() string {
	var b strings.Builder
	t.Walk(func(p Path, n Node) bool {
		b.WriteString(strings.Repeat("  ", len(p)-1))
		b.WriteString(p.String())
		b.WriteString(" ")
		b.WriteString(n.Title)
		b.WriteString("\n")
		return true
	})
	return b.String()
}
