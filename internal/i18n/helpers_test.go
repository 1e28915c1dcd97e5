package i18n

import (
	"sort"
)

// leafPairs flattens node into "path=value" entries in document order.
func leafPairs(prefix string, node Node) []string {
	var pairs []string
	switch n := node.(type) {
	case Leaf:
		pairs = append(pairs, prefix+"="+string(n))
	case *Tree:
		n.Leaves(prefix, func(path string, value Leaf) {
			pairs = append(pairs, path+"="+string(value))
		})
	}
	return pairs
}

// shape lists every key path of node, trees included, sorted.
func shape(prefix string, node Node) []string {
	var paths []string
	tree, ok := node.(*Tree)
	if !ok {
		return paths
	}
	tree.Each(func(key string, child Node) bool {
		path := JoinPath(prefix, key)
		paths = append(paths, path)
		paths = append(paths, shape(path, child)...)
		return true
	})
	sort.Strings(paths)
	return paths
}
