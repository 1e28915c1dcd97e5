package i18n

import (
	"strings"

	"github.com/elliotchance/orderedmap/v3"
)

// PathSeparator joins keys into a dotted path.
const PathSeparator = "."

// Node is an entry of a language string tree. It is either a Leaf or a *Tree.
type Node interface {
	node()
}

// Leaf is a terminal format string, possibly holding a printf-style placeholder.
type Leaf string

func (Leaf) node() {}

// Tree maps keys to further nodes and keeps insertion order.
type Tree struct {
	children *orderedmap.OrderedMap[string, Node]
}

func (*Tree) node() {}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{children: orderedmap.NewOrderedMap[string, Node]()}
}

// Set stores child under key. An existing key keeps its position.
func (t *Tree) Set(key string, child Node) *Tree {
	t.children.Set(key, child)
	return t
}

// Get returns the direct child stored under key.
func (t *Tree) Get(key string) (Node, bool) {
	return t.children.Get(key)
}

// Len returns the number of direct children.
func (t *Tree) Len() int {
	return t.children.Len()
}

// Keys returns the direct child keys in insertion order.
func (t *Tree) Keys() []string {
	keys := make([]string, 0, t.children.Len())
	for el := t.children.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Key)
	}
	return keys
}

// Each calls fn for every direct child in insertion order until fn returns false.
func (t *Tree) Each(fn func(key string, child Node) bool) {
	for el := t.children.Front(); el != nil; el = el.Next() {
		if !fn(el.Key, el.Value) {
			return
		}
	}
}

// Lookup walks a dotted path relative to t. Keys may contain the separator
// themselves, so the longest key matching the head of the path wins and
// shorter keys are tried when the rest of the path does not resolve.
func (t *Tree) Lookup(path string) (Node, bool) {
	if path == "" {
		return t, true
	}
	return t.lookup(strings.Split(path, PathSeparator))
}

func (t *Tree) lookup(parts []string) (Node, bool) {
	for n := len(parts); n > 0; n-- {
		child, exists := t.Get(strings.Join(parts[:n], PathSeparator))
		if !exists {
			continue
		}
		if n == len(parts) {
			return child, true
		}
		if tree, ok := child.(*Tree); ok {
			if node, found := tree.lookup(parts[n:]); found {
				return node, true
			}
		}
	}
	return nil, false
}

// Leaves calls fn with the dotted path and value of every leaf below t, in
// document order. prefix is prepended to every path when not empty.
func (t *Tree) Leaves(prefix string, fn func(path string, value Leaf)) {
	t.Each(func(key string, child Node) bool {
		path := JoinPath(prefix, key)
		switch n := child.(type) {
		case Leaf:
			fn(path, n)
		case *Tree:
			n.Leaves(path, fn)
		}
		return true
	})
}

// JoinPath appends key to prefix with the path separator.
func JoinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + PathSeparator + key
}
