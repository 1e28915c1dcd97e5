package core

import (
	"time"

	"langstrings/internal/i18n"
)

const (
	DefaultServerHost             = "0.0.0.0"
	DefaultServerPort             = 8080
	DefaultServerTimeout          = 10 * time.Second
	DefaultRateLimitPerMinute     = 120
	DefaultCacheSize              = 256
	DefaultBloomFalsePositiveRate = 0.001
	DefaultIndexCapacity          = 1024
)

type Config struct {
	Strings StringsConfig
	Server  ServerConfig
	Log     LogConfig
	App     AppConfig
}

// StringsConfig selects the base bundle and the override sources.
type StringsConfig struct {
	BaseFile      string // empty uses the embedded bundle
	Language      string
	OverridesFile string
	OverridesDB   string
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	RateLimitPerMinute     int
	CacheSize              int
	BloomFalsePositiveRate float64
}

func DefaultConfig() *Config {
	return &Config{
		Strings: StringsConfig{
			Language: i18n.DefaultLanguage,
		},
		Server: ServerConfig{
			Host:         DefaultServerHost,
			Port:         DefaultServerPort,
			ReadTimeout:  DefaultServerTimeout,
			WriteTimeout: DefaultServerTimeout,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			RateLimitPerMinute:     DefaultRateLimitPerMinute,
			CacheSize:              DefaultCacheSize,
			BloomFalsePositiveRate: DefaultBloomFalsePositiveRate,
		},
	}
}
