package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"langstrings/internal/i18n"
	"langstrings/internal/store"
)

// ErrNotInitialized is returned when the registry is read before Init.
var ErrNotInitialized = errors.New("string catalog is not initialized")

// OverrideSource supplies stored overrides for a language.
type OverrideSource interface {
	Load(ctx context.Context, language string) (i18n.Overrides, error)
}

// CatalogStats describes the outcome of initialization.
type CatalogStats struct {
	Language           string
	Leaves             int
	OverridesSupplied  bool
	OverridesApplied   int
	OverridesUnmatched []string
}

// Catalog builds the resolved string registry and publishes it once.
type Catalog struct {
	config *StringsConfig
	source OverrideSource
	logger *zap.Logger
	index  *store.PathIndex

	once     sync.Once
	initDone chan struct{}
	registry *i18n.Registry
	stats    CatalogStats
	err      error
}

// NewCatalog creates a catalog. source may be nil when no override store is configured.
func NewCatalog(config *StringsConfig, source OverrideSource, index *store.PathIndex, logger *zap.Logger) *Catalog {
	return &Catalog{
		config:   config,
		source:   source,
		logger:   logger,
		index:    index,
		initDone: make(chan struct{}),
	}
}

// Init loads the base registry and the override bundle and resolves them. It
// runs at most once; later calls return the first result.
func (c *Catalog) Init(ctx context.Context) error {
	c.once.Do(func() {
		defer close(c.initDone)
		c.registry, c.stats, c.err = c.build(ctx)
	})
	return c.err
}

// Registry returns the resolved registry after a successful Init.
func (c *Catalog) Registry() (*i18n.Registry, error) {
	select {
	case <-c.initDone:
	default:
		return nil, ErrNotInitialized
	}
	if c.err != nil {
		return nil, c.err
	}
	return c.registry, nil
}

// Stats returns initialization statistics. It is empty before Init.
func (c *Catalog) Stats() CatalogStats {
	select {
	case <-c.initDone:
		return c.stats
	default:
		return CatalogStats{}
	}
}

// Index returns the leaf path index of the base registry.
func (c *Catalog) Index() *store.PathIndex {
	return c.index
}

func (c *Catalog) build(ctx context.Context) (*i18n.Registry, CatalogStats, error) {
	base, err := c.loadBase()
	if err != nil {
		return nil, CatalogStats{}, err
	}

	lang, overrides, err := c.loadOverrides(ctx)
	if err != nil {
		return nil, CatalogStats{}, err
	}

	paths := base.Paths()
	c.index.Load(paths)

	stats := CatalogStats{
		Language:          lang,
		Leaves:            len(paths),
		OverridesSupplied: overrides != nil,
	}

	if overrides != nil {
		keys := make([]string, 0, len(overrides))
		for key := range overrides {
			keys = append(keys, key)
		}
		stats.OverridesUnmatched = c.index.Unknown(keys)
		stats.OverridesApplied = len(keys) - len(stats.OverridesUnmatched)

		for _, key := range stats.OverridesUnmatched {
			c.logger.Warn("Override does not match any string", zap.String("key", key))
		}
	}

	registry := i18n.Initialize(base, overrides)

	c.logger.Info("String catalog initialized",
		zap.String("language", stats.Language),
		zap.Int("leaves", stats.Leaves),
		zap.Bool("overrides_supplied", stats.OverridesSupplied),
		zap.Int("overrides_applied", stats.OverridesApplied),
		zap.Int("overrides_unmatched", len(stats.OverridesUnmatched)))

	return registry, stats, nil
}

func (c *Catalog) loadBase() (*i18n.Registry, error) {
	if c.config.BaseFile == "" {
		return i18n.DefaultRegistry()
	}

	data, err := os.ReadFile(c.config.BaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read strings file: %w", err)
	}
	root, err := i18n.ParseTree(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse strings file %s: %w", c.config.BaseFile, err)
	}
	return i18n.NewRegistry(root), nil
}

// loadOverrides merges the embedded language bundle, the overrides file and the
// override store, later sources winning. The result is nil when no source
// supplies a bundle.
func (c *Catalog) loadOverrides(ctx context.Context) (string, i18n.Overrides, error) {
	lang, embedded, err := c.languageBundle()
	if err != nil {
		return "", nil, err
	}

	var fromFile i18n.Overrides
	if c.config.OverridesFile != "" {
		data, readErr := os.ReadFile(c.config.OverridesFile)
		if readErr != nil {
			return "", nil, fmt.Errorf("failed to read overrides file: %w", readErr)
		}
		fromFile, err = i18n.ParseOverrides(data)
		if err != nil {
			return "", nil, fmt.Errorf("failed to parse overrides file %s: %w", c.config.OverridesFile, err)
		}
	}

	var fromStore i18n.Overrides
	if c.source != nil {
		fromStore, err = c.source.Load(ctx, lang)
		if err != nil {
			return "", nil, fmt.Errorf("failed to load stored overrides: %w", err)
		}
	}

	return lang, mergeOverrides(embedded, fromFile, fromStore), nil
}

func (c *Catalog) languageBundle() (string, i18n.Overrides, error) {
	code, bundled, err := i18n.LanguageCode(c.config.Language)
	if err != nil {
		return "", nil, err
	}
	if bundled {
		overrides, loadErr := i18n.LanguageOverrides(code)
		return code, overrides, loadErr
	}

	// No embedded bundle, but file or stored overrides may still apply.
	c.logger.Warn("No embedded bundle for language",
		zap.String("language", code),
		zap.Strings("supported", i18n.GetSupportedLanguages()))
	return code, nil, nil
}

func mergeOverrides(sources ...i18n.Overrides) i18n.Overrides {
	var merged i18n.Overrides
	for _, source := range sources {
		if source == nil {
			continue
		}
		if merged == nil {
			merged = make(i18n.Overrides, len(source))
		}
		for key, value := range source {
			merged[key] = value
		}
	}
	return merged
}
