package i18n

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Overrides maps a full dotted path to a replacement leaf. A nil Overrides
// means no bundle was supplied.
type Overrides map[string]string

// Resolve returns node with every leaf whose dotted path has an entry in
// overrides replaced by that entry. Trees are copied, never modified, and keep
// their keys and key order. With nil overrides node itself is returned.
func Resolve(prefix string, node Node, overrides Overrides) Node {
	if overrides == nil {
		return node
	}
	return resolveNode(prefix, node, overrides)
}

func resolveNode(prefix string, node Node, overrides Overrides) Node {
	switch n := node.(type) {
	case Leaf:
		if overridden, exists := overrides[prefix]; exists {
			return Leaf(overridden)
		}
		return n
	case *Tree:
		out := NewTree()
		n.Each(func(key string, child Node) bool {
			out.Set(key, resolveNode(prefix+PathSeparator+key, child, overrides))
			return true
		})
		return out
	default:
		return node
	}
}

// Initialize resolves every top-level entry of base against overrides, using
// the entry key as prefix, and returns the result as a new registry. Entries
// are resolved concurrently and reassembled in their original order.
// Resolution cannot fail, so the errgroup only bounds the number of workers.
func Initialize(base *Registry, overrides Overrides) *Registry {
	if overrides == nil {
		return base
	}

	keys := base.root.Keys()
	resolved := make([]Node, len(keys))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, key := range keys {
		g.Go(func() error {
			child, _ := base.root.Get(key)
			resolved[i] = Resolve(key, child, overrides)
			return nil
		})
	}
	_ = g.Wait()

	root := NewTree()
	for i, key := range keys {
		root.Set(key, resolved[i])
	}
	return NewRegistry(root)
}
