// Package main provides the langstrings CLI application entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"langstrings/internal/core"
	"langstrings/internal/flood"
	httpserver "langstrings/internal/http"
	"langstrings/internal/i18n"
	"langstrings/internal/store"
)

const (
	envPrefix = "LANGSTRINGS"
	version   = "1.0.0"
)

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "langstrings",
	Short: "langstrings - localized string bundle service",
	Long: `langstrings resolves the localized string bundle of the content management UI against
override bundles and serves the result over HTTP, or inspects it from the command line.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resolved string registry over HTTP",
	RunE:  runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := core.DefaultConfig()
	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", defaults.Log.Format, "log encoding (json, console)")
	rootCmd.PersistentFlags().String("strings-file", "", "JSON string bundle replacing the embedded one")
	rootCmd.PersistentFlags().String("language", defaults.Strings.Language,
		fmt.Sprintf("Language of the override bundle (%s)", supportedLangs))
	rootCmd.PersistentFlags().String("overrides-file", "", "JSON override bundle of dotted path to string")
	rootCmd.PersistentFlags().String("overrides-db", "", "SQLite database holding stored overrides")
	rootCmd.PersistentFlags().String("server-host", defaults.Server.Host, "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", defaults.Server.Port, "HTTP server port")
	rootCmd.PersistentFlags().Int("rate-limit-per-minute", defaults.App.RateLimitPerMinute,
		"Maximum API requests per client per minute (0 disables)")
	rootCmd.PersistentFlags().Int("cache-size", defaults.App.CacheSize, "Number of rendered subtrees kept in memory")
	rootCmd.PersistentFlags().Bool("generate-env-example", false, "Generate .env.example file from current configuration and exit")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(serveCmd)
	addInspectCommands(rootCmd)
	addOverrideCommands(rootCmd)
}

func initConfig() {
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level, config.Log.Format)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureStrings(cfg)
	configureServer(cfg)
	configureApp(cfg)

	return cfg
}

func configureStrings(cfg *core.Config) {
	cfg.Strings.BaseFile = viper.GetString("strings-file")
	cfg.Strings.OverridesFile = viper.GetString("overrides-file")
	cfg.Strings.OverridesDB = viper.GetString("overrides-db")

	cfg.Strings.Language = viper.GetString("language")
	if cfg.Strings.Language == "" {
		cfg.Strings.Language = i18n.DefaultLanguage
	}
}

func configureServer(cfg *core.Config) {
	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = core.DefaultServerHost
	}
	cfg.Server.Port = viper.GetInt("server-port")
	cfg.Log.Level = viper.GetString("log-level")
	cfg.Log.Format = viper.GetString("log-format")
}

func configureApp(cfg *core.Config) {
	cfg.App.RateLimitPerMinute = viper.GetInt("rate-limit-per-minute")
	if cfg.App.RateLimitPerMinute < 0 {
		cfg.App.RateLimitPerMinute = 0
	}

	cfg.App.CacheSize = viper.GetInt("cache-size")
	if cfg.App.CacheSize <= 0 {
		fmt.Fprintf(os.Stderr, "Warning: Invalid cache size (%d), using default (%d)\n",
			cfg.App.CacheSize, core.DefaultCacheSize)
		cfg.App.CacheSize = core.DefaultCacheSize
	}
}

func buildLogger(level, format string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	if strings.EqualFold(format, "console") {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

// openCatalog builds and initializes the catalog. The returned cleanup closes
// the override store when one is configured.
func openCatalog(ctx context.Context) (*core.Catalog, func(), error) {
	cleanup := func() {}

	var source core.OverrideSource
	if config.Strings.OverridesDB != "" {
		overrideStore, err := store.OpenOverrideStore(ctx, config.Strings.OverridesDB, logger.Named("store"))
		if err != nil {
			return nil, cleanup, err
		}
		source = overrideStore
		cleanup = func() {
			if err := overrideStore.Close(); err != nil {
				logger.Debug("Failed to close override store", zap.Error(err))
			}
		}
	}

	index := store.NewPathIndex(core.DefaultIndexCapacity, config.App.BloomFalsePositiveRate)
	catalog := core.NewCatalog(&config.Strings, source, index, logger.Named("catalog"))
	if err := catalog.Init(ctx); err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("failed to initialize strings: %w", err)
	}

	return catalog, cleanup, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	if viper.GetBool("generate-env-example") {
		return generateEnvExample(cmd)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("Starting langstrings",
		zap.String("version", version),
		zap.String("language", config.Strings.Language),
		zap.String("strings_file", config.Strings.BaseFile),
		zap.String("overrides_file", config.Strings.OverridesFile),
		zap.String("overrides_db", config.Strings.OverridesDB))

	catalog, cleanup, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	registry, err := catalog.Registry()
	if err != nil {
		return err
	}

	limiter := flood.New(config.App.RateLimitPerMinute)
	defer limiter.Stop()

	server, err := httpserver.NewServer(&config.Server, httpserver.Options{
		Registry:  registry,
		Index:     catalog.Index(),
		Limiter:   limiter,
		Stats:     catalog.Stats(),
		CacheSize: config.App.CacheSize,
	}, logger.Named("http"))
	if err != nil {
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(gCtx)
	})

	logger.Info("langstrings started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("langstrings stopped with error", zap.Error(err))
		return err
	}

	// Give in-flight log writes a moment before exit
	time.Sleep(100 * time.Millisecond)
	logger.Info("langstrings stopped")
	return nil
}
