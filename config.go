package connector

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// EnvPrefix is prepended to every variable read by LoadConfig.
const EnvPrefix = "CONNECTOR_"

// Config holds client defaults that can be supplied through the environment.
type Config struct {
	DefaultTimeout  time.Duration     `env:"DEFAULT_TIMEOUT"`
	DefaultCacheTTL time.Duration     `env:"DEFAULT_CACHE_TTL"`
	DefaultHeaders  map[string]string `env:"DEFAULT_HEADERS"`
	DefaultMode     string            `env:"DEFAULT_MODE" envDefault:"cors"`
	Debug           bool              `env:"DEBUG"`
	LogLevel        string            `env:"LOG_LEVEL"`
	DownloadDir     string            `env:"DOWNLOAD_DIR" envDefault:"."`
	CacheDir        string            `env:"CACHE_DIR"`
}

// LoadConfig reads the CONNECTOR_* variables from the process environment.
func LoadConfig() (*Config, error) {
	return loadConfig(nil)
}

// LoadConfigFrom reads the CONNECTOR_* variables from environ instead of the
// process environment.
func LoadConfigFrom(environ map[string]string) (*Config, error) {
	if environ == nil {
		environ = map[string]string{}
	}
	return loadConfig(environ)
}

func loadConfig(environ map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that the parser cannot.
func (cfg *Config) Validate() error {
	if cfg.DefaultTimeout < 0 {
		return fmt.Errorf("%sDEFAULT_TIMEOUT must be non-negative, got %v", EnvPrefix, cfg.DefaultTimeout)
	}
	if cfg.DefaultCacheTTL < 0 {
		return fmt.Errorf("%sDEFAULT_CACHE_TTL must be non-negative, got %v", EnvPrefix, cfg.DefaultCacheTTL)
	}
	if cfg.DefaultMode != "" && !RequestMode(cfg.DefaultMode).Valid() {
		return fmt.Errorf("%sDEFAULT_MODE must be one of cors, no-cors, same-origin, got %q", EnvPrefix, cfg.DefaultMode)
	}
	if _, err := cfg.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel, defaulting to info.
func (cfg *Config) Level() (zerolog.Level, error) {
	if cfg.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("%sLOG_LEVEL: %w", EnvPrefix, err)
	}
	return level, nil
}

// WithConfig applies cfg. A CacheDir switches the client to a FileCache; a
// DownloadDir directs downloads there.
func WithConfig(cfg *Config) Option {
	return func(c *Client) {
		if cfg == nil {
			return
		}
		if cfg.DefaultTimeout > 0 {
			c.defaultTimeout = cfg.DefaultTimeout
		}
		if cfg.DefaultCacheTTL > 0 {
			c.defaultCacheTTL = cfg.DefaultCacheTTL
		}
		if len(cfg.DefaultHeaders) > 0 {
			c.defaultHeaders = copyHeaders(cfg.DefaultHeaders)
		}
		if cfg.DefaultMode != "" {
			c.defaultMode = RequestMode(cfg.DefaultMode)
		}
		if cfg.DownloadDir != "" {
			c.downloader = NewDirDownloader(cfg.DownloadDir)
		}
		if cfg.CacheDir != "" {
			fc, err := NewFileCache(cfg.CacheDir)
			if err != nil {
				c.optionErrors = append(c.optionErrors, fmt.Sprintf("cache dir: %v", err))
			} else {
				c.cache = fc
			}
		}
		if cfg.Debug {
			if c.debug == nil {
				c.debug = DefaultDebugConfig()
			}
			c.debug.Enabled = true
			if c.logger == nil {
				level := zerolog.DebugLevel
				if cfg.LogLevel != "" {
					if l, err := cfg.Level(); err == nil {
						level = l
					}
				}
				c.logger = NewConsoleLogger(os.Stderr, level)
			}
		}
	}
}
