package i18n

import (
	"fmt"
)

// Registry is a set of named language string trees. A registry returned by
// Initialize is read-only and safe for concurrent readers.
type Registry struct {
	root *Tree
}

// NewRegistry wraps root. root must not be modified afterwards.
func NewRegistry(root *Tree) *Registry {
	if root == nil {
		root = NewTree()
	}
	return &Registry{root: root}
}

// Root returns the top-level tree. Callers must treat it as read-only.
func (r *Registry) Root() *Tree {
	return r.root
}

// Keys returns the names of the top-level trees.
func (r *Registry) Keys() []string {
	return r.root.Keys()
}

// Lookup returns the node at a dotted path.
func (r *Registry) Lookup(path string) (Node, bool) {
	return r.root.Lookup(path)
}

// String returns the leaf at path, or path itself when there is no such leaf.
func (r *Registry) String(path string) string {
	if node, ok := r.root.Lookup(path); ok {
		if leaf, isLeaf := node.(Leaf); isLeaf {
			return string(leaf)
		}
	}
	return path
}

// Sizes returns the size bucket stored at path.
func (r *Registry) Sizes(path string) (Sizes, error) {
	node, ok := r.root.Lookup(path)
	if !ok {
		return Sizes{}, fmt.Errorf("size bucket %q not found", path)
	}
	sizes, err := SizesFromTree(node)
	if err != nil {
		return Sizes{}, fmt.Errorf("size bucket %q: %w", path, err)
	}
	return sizes, nil
}

// Format applies FormatSize to the size bucket at path.
func (r *Registry) Format(path string, size int) (string, error) {
	sizes, err := r.Sizes(path)
	if err != nil {
		return "", err
	}
	return FormatSize(size, sizes), nil
}

// Paths lists the dotted path of every leaf in document order.
func (r *Registry) Paths() []string {
	var paths []string
	r.root.Leaves("", func(path string, _ Leaf) {
		paths = append(paths, path)
	})
	return paths
}

// MarshalJSON writes the registry as a JSON object in insertion order.
func (r *Registry) MarshalJSON() ([]byte, error) {
	return MarshalTree(r.root)
}
