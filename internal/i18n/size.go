package i18n

import (
	"fmt"
	"strconv"
	"strings"
)

// Keys of a size bucket inside a language string tree.
const (
	SizeZeroKey = "zero"
	SizeOneKey  = "one"
	SizeMoreKey = "more"
)

// Sizes holds the pluralization templates for a count.
type Sizes struct {
	Zero string
	One  string
	More string
}

// FormatSize picks the template for size and substitutes size into its first
// numeric placeholder. Anything other than 0 and 1, negatives included, uses More.
func FormatSize(size int, templates Sizes) string {
	var format string
	switch size {
	case 0:
		format = templates.Zero
	case 1:
		format = templates.One
	default:
		format = templates.More
	}
	return interpolateCount(format, size)
}

// interpolateCount replaces the first %d, %i or %s verb with n and unescapes %%.
// Later verbs are kept as written and a template without verbs is returned as is.
func interpolateCount(format string, n int) string {
	if !strings.Contains(format, "%") {
		return format
	}

	var b strings.Builder
	b.Grow(len(format) + 4)
	substituted := false

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 == len(format) {
			b.WriteByte(c)
			continue
		}

		verb := format[i+1]
		switch {
		case verb == '%':
			b.WriteByte('%')
			i++
		case !substituted && (verb == 'd' || verb == 'i' || verb == 's'):
			b.WriteString(strconv.Itoa(n))
			substituted = true
			i++
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

// SizesFromTree reads a zero/one/more bucket out of node.
func SizesFromTree(node Node) (Sizes, error) {
	tree, ok := node.(*Tree)
	if !ok {
		return Sizes{}, fmt.Errorf("%w: size bucket must be a mapping", ErrMalformedTree)
	}

	var sizes Sizes
	for key, dst := range map[string]*string{
		SizeZeroKey: &sizes.Zero,
		SizeOneKey:  &sizes.One,
		SizeMoreKey: &sizes.More,
	} {
		child, exists := tree.Get(key)
		if !exists {
			return Sizes{}, fmt.Errorf("%w: size bucket is missing %q", ErrMalformedTree, key)
		}
		leaf, isLeaf := child.(Leaf)
		if !isLeaf {
			return Sizes{}, fmt.Errorf("%w: size bucket entry %q is not a string", ErrMalformedTree, key)
		}
		*dst = string(leaf)
	}

	return sizes, nil
}

// IsSizeBucket reports whether node looks like a zero/one/more bucket.
func IsSizeBucket(node Node) bool {
	_, err := SizesFromTree(node)
	return err == nil
}
