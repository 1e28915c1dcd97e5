package i18n

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"golang.org/x/text/unicode/norm"
)

// ParseTree decodes a JSON object into a tree, keeping the document key order.
// Every value must be a string or an object.
func ParseTree(data []byte) (*Tree, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrMalformedTree)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: document root must be an object", ErrMalformedTree)
	}

	return parseObject("", doc)
}

func parseObject(prefix string, obj gjson.Result) (*Tree, error) {
	tree := NewTree()
	var err error

	obj.ForEach(func(key, value gjson.Result) bool {
		path := JoinPath(prefix, key.Str)
		switch {
		case value.Type == gjson.String:
			tree.Set(key.Str, Leaf(value.Str))
		case value.IsObject():
			var child *Tree
			child, err = parseObject(path, value)
			if err != nil {
				return false
			}
			tree.Set(key.Str, child)
		default:
			err = fmt.Errorf("%w: %q holds %s", ErrMalformedTree, path, describe(value))
			return false
		}
		return true
	})

	if err != nil {
		return nil, err
	}
	return tree, nil
}

// ParseOverrides decodes a flat JSON object of dotted path to replacement string.
// Values are normalized to NFC.
func ParseOverrides(data []byte) (Overrides, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON override bundle", ErrOverrideTypeMismatch)
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: override bundle must be an object", ErrOverrideTypeMismatch)
	}

	overrides := make(Overrides)
	var err error
	doc.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.String {
			err = fmt.Errorf("%w: %q holds %s", ErrOverrideTypeMismatch, key.Str, describe(value))
			return false
		}
		overrides[key.Str] = norm.NFC.String(value.Str)
		return true
	})

	if err != nil {
		return nil, err
	}
	return overrides, nil
}

func describe(value gjson.Result) string {
	switch {
	case value.IsArray():
		return "an array"
	case value.Type == gjson.Number:
		return "a number"
	case value.Type == gjson.True || value.Type == gjson.False:
		return "a boolean"
	case value.Type == gjson.Null:
		return "null"
	default:
		return value.Type.String()
	}
}

// MarshalTree encodes tree as a JSON object in insertion order.
func MarshalTree(tree *Tree) ([]byte, error) {
	out := []byte("{}")
	var err error

	tree.Each(func(key string, child Node) bool {
		var raw []byte
		raw, err = MarshalNode(child)
		if err != nil {
			return false
		}
		out, err = sjson.SetRawBytes(out, escapePathComponent(key), raw)
		return err == nil
	})

	if err != nil {
		return nil, fmt.Errorf("encode tree: %w", err)
	}
	return out, nil
}

// MarshalNode encodes a leaf as a JSON string and a tree as a JSON object.
func MarshalNode(node Node) ([]byte, error) {
	switch n := node.(type) {
	case Leaf:
		return json.Marshal(string(n))
	case *Tree:
		return MarshalTree(n)
	default:
		return nil, ErrMalformedTree
	}
}

var pathEscaper = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`*`, `\*`,
	`?`, `\?`,
	`#`, `\#`,
	`|`, `\|`,
	`@`, `\@`,
	`:`, `\:`,
)

func escapePathComponent(key string) string {
	return pathEscaper.Replace(key)
}
