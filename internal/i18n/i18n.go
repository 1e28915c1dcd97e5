// Package i18n provides the localized string bundle and its override resolution
package i18n

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

const (
	// DefaultLanguage is the language of the embedded base bundle
	DefaultLanguage = "en"
	// French ships as an embedded override bundle
	French = "fr"

	baseBundleFile     = "locales/en.json"
	overrideFileSuffix = ".overrides.json"
)

//go:embed locales/*.json
var localeFS embed.FS

// ErrUnsupportedLanguage is returned for a language without an embedded bundle.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// DefaultRegistry parses the embedded base bundle.
func DefaultRegistry() (*Registry, error) {
	data, err := localeFS.ReadFile(baseBundleFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", baseBundleFile, err)
	}
	root, err := ParseTree(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", baseBundleFile, err)
	}
	return NewRegistry(root), nil
}

// LanguageOverrides returns the embedded override bundle for lang. The default
// language has no bundle and yields nil overrides.
func LanguageOverrides(lang string) (Overrides, error) {
	code, err := NormalizeLanguage(lang)
	if err != nil {
		return nil, err
	}
	if code == DefaultLanguage {
		return nil, nil
	}

	name := path.Join("locales", code+overrideFileSuffix)
	data, err := localeFS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
	}
	overrides, err := ParseOverrides(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return overrides, nil
}

// NormalizeLanguage maps a BCP 47 tag onto a supported language code, falling
// back from a regional tag to its base language.
func NormalizeLanguage(lang string) (string, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrUnsupportedLanguage, lang, err)
	}

	supported := GetSupportedLanguages()
	candidates := []string{tag.String()}
	if base, confidence := tag.Base(); confidence != language.No {
		candidates = append(candidates, base.String())
	}

	for _, candidate := range candidates {
		for _, code := range supported {
			if strings.EqualFold(candidate, code) {
				return code, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, lang)
}

// LanguageCode returns the code overrides for lang are keyed under. Supported
// languages map onto their bundle code; other valid tags keep their canonical
// BCP 47 form and report bundled as false. An empty lang means DefaultLanguage.
func LanguageCode(lang string) (code string, bundled bool, err error) {
	if lang == "" {
		lang = DefaultLanguage
	}

	code, err = NormalizeLanguage(lang)
	if err == nil {
		return code, true, nil
	}

	tag, parseErr := language.Parse(lang)
	if parseErr != nil {
		return "", false, err
	}
	return tag.String(), false, nil
}

// GetSupportedLanguages returns list of supported language codes
func GetSupportedLanguages() []string {
	languages := []string{DefaultLanguage}

	entries, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return languages
	}

	var extra []string
	for _, entry := range entries {
		if code, ok := strings.CutSuffix(entry.Name(), overrideFileSuffix); ok && code != DefaultLanguage {
			extra = append(extra, code)
		}
	}
	sort.Strings(extra)

	return append(languages, extra...)
}

// Localizer provides translation functionality over a resolved registry
type Localizer struct {
	language string
	registry *Registry
}

// NewLocalizer creates a localizer for the specified language from the
// embedded bundles. Unsupported languages fall back to the default language.
func NewLocalizer(lang string) (*Localizer, error) {
	base, err := DefaultRegistry()
	if err != nil {
		return nil, err
	}

	code, err := NormalizeLanguage(lang)
	if err != nil {
		code = DefaultLanguage
	}
	overrides, err := LanguageOverrides(code)
	if err != nil {
		return nil, err
	}

	return NewRegistryLocalizer(code, Initialize(base, overrides)), nil
}

// NewRegistryLocalizer creates a localizer over an already resolved registry.
func NewRegistryLocalizer(lang string, registry *Registry) *Localizer {
	return &Localizer{language: lang, registry: registry}
}

// Language returns the language code of the localizer.
func (l *Localizer) Language() string {
	return l.language
}

// Registry returns the resolved registry backing the localizer.
func (l *Localizer) Registry() *Registry {
	return l.registry
}

// T translates a message key, with optional parameters for formatting
func (l *Localizer) T(key string, args ...interface{}) string {
	node, ok := l.registry.Lookup(key)
	if !ok {
		return key
	}
	leaf, isLeaf := node.(Leaf)
	if !isLeaf {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(string(leaf), args...)
	}
	return string(leaf)
}

// N renders the size bucket at key for size. A key without a valid bucket
// returns the key itself.
func (l *Localizer) N(key string, size int) string {
	formatted, err := l.registry.Format(key, size)
	if err != nil {
		return key
	}
	return formatted
}
