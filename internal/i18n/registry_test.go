package i18n

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleRegistry() *Registry {
	return NewRegistry(NewTree().
		Set("cp", sampleTree()).
		Set("common", NewTree().Set("action", NewTree().Set("save", Leaf("Save")))))
}

func TestRegistry_Lookup(t *testing.T) {
	registry := sampleRegistry()

	tests := []struct {
		name   string
		path   string
		found  bool
		isLeaf bool
	}{
		{name: "top level tree", path: "cp", found: true},
		{name: "leaf", path: "cp.title", found: true, isLeaf: true},
		{name: "nested leaf", path: "common.action.save", found: true, isLeaf: true},
		{name: "nested tree", path: "cp.cloudprovideravailable", found: true},
		{name: "missing", path: "cp.missing", found: false},
		{name: "below a leaf", path: "cp.title.more", found: false},
		{name: "empty path is the root", path: "", found: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node, found := registry.Lookup(tt.path)
			if found != tt.found {
				t.Fatalf("Lookup(%q) found = %v, expected %v", tt.path, found, tt.found)
			}
			if !found {
				return
			}
			if _, isLeaf := node.(Leaf); isLeaf != tt.isLeaf {
				t.Errorf("Lookup(%q) leaf = %v, expected %v", tt.path, isLeaf, tt.isLeaf)
			}
		})
	}
}

func TestRegistry_StringFallsBackToPath(t *testing.T) {
	registry := sampleRegistry()

	if got := registry.String("cp.title"); got != "Cloud providers" {
		t.Errorf("String(cp.title) = %q", got)
	}
	if got := registry.String("cp.nope"); got != "cp.nope" {
		t.Errorf("String() for a missing key = %q, expected the key", got)
	}
	if got := registry.String("cp.cloudprovideravailable"); got != "cp.cloudprovideravailable" {
		t.Errorf("String() for a tree = %q, expected the key", got)
	}
}

func TestRegistry_Format(t *testing.T) {
	registry := sampleRegistry()

	tests := []struct {
		size     int
		expected string
	}{
		{size: 0, expected: "No cloud providers available"},
		{size: 1, expected: "1 cloud provider"},
		{size: 4, expected: "4 cloud providers"},
		{size: -2, expected: "-2 cloud providers"},
	}
	for _, tt := range tests {
		got, err := registry.Format("cp.cloudprovideravailable", tt.size)
		if err != nil {
			t.Fatalf("Format(%d) error = %v", tt.size, err)
		}
		if got != tt.expected {
			t.Errorf("Format(%d) = %q, expected %q", tt.size, got, tt.expected)
		}
	}

	if _, err := registry.Format("cp.title", 2); err == nil {
		t.Error("Format() on a leaf should fail")
	}
	if _, err := registry.Format("cp.missing", 2); err == nil {
		t.Error("Format() on a missing path should fail")
	}
}

func TestRegistry_Paths(t *testing.T) {
	expected := []string{
		"cp.title",
		"cp.cloudprovideravailable.zero",
		"cp.cloudprovideravailable.one",
		"cp.cloudprovideravailable.more",
		"cp.deletecloudprovider.title",
		"cp.deletecloudprovider.message",
		"common.action.save",
	}
	if diff := cmp.Diff(expected, sampleRegistry().Paths()); diff != "" {
		t.Errorf("Paths() mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_MarshalJSON(t *testing.T) {
	registry := NewRegistry(NewTree().Set("cp", NewTree().Set("title", Leaf("Cloud providers"))))

	data, err := registry.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	parsed, err := ParseTree(data)
	if err != nil {
		t.Fatalf("ParseTree() error = %v", err)
	}
	if diff := cmp.Diff([]string{"cp.title=Cloud providers"}, leafPairs("", parsed)); diff != "" {
		t.Errorf("MarshalJSON() mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_LookupDottedKeys(t *testing.T) {
	registry := NewRegistry(NewTree().
		Set("com.equella.core", NewTree().Set("title", Leaf("Settings"))).
		Set("com.equella.core.comments", NewTree().Set("anonymous", Leaf("Anonymous"))).
		Set("com", NewTree().Set("equella", NewTree().Set("other", Leaf("Nested")))))

	tests := map[string]string{
		"com.equella.core.title":              "Settings",
		"com.equella.core.comments.anonymous": "Anonymous",
		"com.equella.other":                   "Nested",
	}
	for path, expected := range tests {
		if got := registry.String(path); got != expected {
			t.Errorf("String(%q) = %q, expected %q", path, got, expected)
		}
	}

	resolved := Initialize(registry, Overrides{"com.equella.core.comments.anonymous": "Anonyme"})
	if got := resolved.String("com.equella.core.comments.anonymous"); got != "Anonyme" {
		t.Errorf("resolved dotted key = %q, expected %q", got, "Anonyme")
	}
}

func TestNewRegistry_Nil(t *testing.T) {
	registry := NewRegistry(nil)
	if len(registry.Keys()) != 0 {
		t.Errorf("NewRegistry(nil) should be empty, got keys %v", registry.Keys())
	}
}
