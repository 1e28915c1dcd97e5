package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"langstrings/internal/i18n"
	"langstrings/internal/store"
	"langstrings/pkg/fuzzy"
)

func addInspectCommands(root *cobra.Command) {
	root.AddCommand(&cobra.Command{
		Use:   "lookup <path>",
		Short: "Print the resolved string or subtree at a dotted path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, cleanup, err := resolvedRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			node, ok := registry.Lookup(args[0])
			if !ok {
				return notFound(registry, args[0])
			}
			if leaf, isLeaf := node.(i18n.Leaf); isLeaf {
				fmt.Fprintln(cmd.OutOrStdout(), string(leaf))
				return nil
			}
			data, err := i18n.MarshalNode(node)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "format <path> <size>",
		Short: "Format the size bucket at a dotted path for a count",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid size %q: %w", args[1], err)
			}

			registry, cleanup, err := resolvedRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			text, err := registry.Format(args[0], size)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the resolved registry as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, cleanup, err := resolvedRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			data, err := registry.MarshalJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "paths",
		Short: "List the dotted path and value of every resolved string",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, cleanup, err := resolvedRegistry(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			registry.Root().Leaves("", func(path string, value i18n.Leaf) {
				fmt.Fprintf(w, "%s\t%s\n", path, strconv.Quote(string(value)))
			})
			return w.Flush()
		},
	})
}

func notFound(registry *i18n.Registry, path string) error {
	suggestions := fuzzy.NewSuggester(fuzzy.DefaultThreshold).Suggest(path, registry.Paths(), 3)
	if len(suggestions) == 0 {
		return fmt.Errorf("no string at %q", path)
	}
	return fmt.Errorf("no string at %q, did you mean %s?", path, strings.Join(suggestions, ", "))
}

func resolvedRegistry(ctx context.Context) (*i18n.Registry, func(), error) {
	if ctx == nil {
		ctx = context.Background()
	}
	catalog, cleanup, err := openCatalog(ctx)
	if err != nil {
		return nil, cleanup, err
	}
	registry, err := catalog.Registry()
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return registry, cleanup, nil
}

func addOverrideCommands(root *cobra.Command) {
	overridesCmd := &cobra.Command{
		Use:   "overrides",
		Short: "Manage overrides stored in the overrides database",
	}

	overridesCmd.AddCommand(&cobra.Command{
		Use:   "set <path> <value>",
		Short: "Store an override for the configured language",
		Args:  cobra.ExactArgs(2),
		RunE: withStore(func(cmd *cobra.Command, s *store.OverrideStore, lang string, args []string) error {
			warnUnknown(args[:1])
			if err := s.Set(cmd.Context(), lang, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored override %s for %s\n", args[0], lang)
			return nil
		}),
	})

	overridesCmd.AddCommand(&cobra.Command{
		Use:   "delete <path>",
		Short: "Remove a stored override for the configured language",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, s *store.OverrideStore, lang string, args []string) error {
			deleted, err := s.Delete(cmd.Context(), lang, args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return fmt.Errorf("no stored override %q for %s", args[0], lang)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted override %s for %s\n", args[0], lang)
			return nil
		}),
	})

	overridesCmd.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Store every override of a JSON override bundle",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, s *store.OverrideStore, lang string, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read override bundle: %w", err)
			}
			overrides, err := i18n.ParseOverrides(data)
			if err != nil {
				return err
			}

			keys := make([]string, 0, len(overrides))
			for key := range overrides {
				keys = append(keys, key)
			}
			warnUnknown(keys)

			count, err := s.Import(cmd.Context(), lang, overrides)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d overrides for %s\n", count, lang)
			return nil
		}),
	})

	overridesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored overrides for the configured language",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, s *store.OverrideStore, lang string, _ []string) error {
			entries, err := s.List(cmd.Context(), lang)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, entry := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Key, strconv.Quote(entry.Value),
					entry.UpdatedAt.UTC().Format("2006-01-02 15:04:05"))
			}
			return w.Flush()
		}),
	})

	root.AddCommand(overridesCmd)
}

// storeRunner receives the language code the catalog reads stored overrides under.
type storeRunner func(cmd *cobra.Command, s *store.OverrideStore, lang string, args []string) error

func withStore(run storeRunner) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if config.Strings.OverridesDB == "" {
			return fmt.Errorf("--overrides-db is required")
		}

		lang, _, err := i18n.LanguageCode(config.Strings.Language)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
			cmd.SetContext(ctx)
		}

		s, err := store.OpenOverrideStore(ctx, config.Strings.OverridesDB, logger.Named("store"))
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := s.Close(); closeErr != nil {
				logger.Debug("Failed to close override store", zap.Error(closeErr))
			}
		}()

		return run(cmd, s, lang, args)
	}
}

// warnUnknown logs keys that no string of the base bundle answers to.
func warnUnknown(keys []string) {
	base, err := baseRegistry()
	if err != nil {
		logger.Warn("Could not load base strings to check override keys", zap.Error(err))
		return
	}

	index := store.NewPathIndex(uint(len(base.Paths())), config.App.BloomFalsePositiveRate)
	index.Load(base.Paths())
	for _, key := range index.Unknown(keys) {
		logger.Warn("Override does not match any string", zap.String("key", key))
	}
}

func baseRegistry() (*i18n.Registry, error) {
	if config.Strings.BaseFile == "" {
		return i18n.DefaultRegistry()
	}
	data, err := os.ReadFile(config.Strings.BaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read strings file: %w", err)
	}
	root, err := i18n.ParseTree(data)
	if err != nil {
		return nil, err
	}
	return i18n.NewRegistry(root), nil
}
