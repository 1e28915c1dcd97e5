package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"langstrings/internal/i18n"
)

func openTestStore(t *testing.T) *OverrideStore {
	t.Helper()

	store, err := OpenOverrideStore(context.Background(), filepath.Join(t.TempDir(), "overrides.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("OpenOverrideStore() error = %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return store
}

func TestOverrideStore_SetAndLoad(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.Set(ctx, "fr", "cp.title", "Fournisseurs"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, "fr", "cp.title", "Fournisseurs cloud"); err != nil {
		t.Fatalf("Set() replace error = %v", err)
	}
	if err := store.Set(ctx, "de", "cp.title", "Cloud-Anbieter"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	overrides, err := store.Load(ctx, "fr")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(i18n.Overrides{"cp.title": "Fournisseurs cloud"}, overrides); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestOverrideStore_LoadEmptyLanguageIsAbsent(t *testing.T) {
	store := openTestStore(t)

	overrides, err := store.Load(context.Background(), "fr")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if overrides != nil {
		t.Errorf("Load() for a language without overrides = %v, expected nil", overrides)
	}
}

func TestOverrideStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.Set(ctx, "fr", "cp.title", "Fournisseurs cloud"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	deleted, err := store.Delete(ctx, "fr", "cp.title")
	if err != nil || !deleted {
		t.Fatalf("Delete() = %v, %v; expected true, nil", deleted, err)
	}

	deleted, err = store.Delete(ctx, "fr", "cp.title")
	if err != nil || deleted {
		t.Errorf("Delete() of a missing key = %v, %v; expected false, nil", deleted, err)
	}
}

func TestOverrideStore_ImportAndList(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	count, err := store.Import(ctx, "fr", i18n.Overrides{
		"cp.title":     "Fournisseurs cloud",
		"cp.refreshed": "Actualisation terminée",
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if count != 2 {
		t.Errorf("Import() count = %d, expected 2", count)
	}

	entries, err := store.List(ctx, "fr")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	var keys []string
	for _, e := range entries {
		keys = append(keys, e.Key)
		if e.UpdatedAt.IsZero() {
			t.Errorf("entry %s has no update time", e.Key)
		}
	}
	if diff := cmp.Diff([]string{"cp.refreshed", "cp.title"}, keys); diff != "" {
		t.Errorf("List() keys mismatch (-want +got):\n%s", diff)
	}
}

func TestOverrideStore_EmptyKey(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.Set(ctx, "fr", "", "x"); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("Set() error = %v, expected ErrEmptyKey", err)
	}
	if _, err := store.Import(ctx, "fr", i18n.Overrides{"": "x"}); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("Import() error = %v, expected ErrEmptyKey", err)
	}

	overrides, err := store.Load(ctx, "fr")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if overrides != nil {
		t.Errorf("failed import should roll back, got %v", overrides)
	}
}
