// Package config resolves jptest settings from flags, JPTEST_* environment
// variables, an optional .env file and an optional jptest.toml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/moamenhredeen/jptest/internal/logging"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix is prepended to every key when read from the environment
	EnvPrefix = "JPTEST"
	// FileName is the config file looked up in the working directory
	FileName = "jptest"

	DefaultBaseURL = "https://jsonplaceholder.typicode.com"
	DefaultTimeout = 30 * time.Second
)

// Keys
const (
	KeyBaseURL           = "base_url"
	KeyTimeout           = "timeout"
	KeyUserAgent         = "user_agent"
	KeyHTML              = "html"
	KeySelfContainedHTML = "self_contained_html"
	KeyLogLevel          = "log_level"
)

// Config holds the resolved settings
type Config struct {
	BaseURL           string        `mapstructure:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	HTML              string        `mapstructure:"html"`
	SelfContainedHTML bool          `mapstructure:"self_contained_html"`
	LogLevel          string        `mapstructure:"log_level"`
}

// SetDefaults registers every key so environment lookups find them
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyBaseURL, DefaultBaseURL)
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyUserAgent, "")
	v.SetDefault(KeyHTML, "")
	v.SetDefault(KeySelfContainedHTML, false)
	v.SetDefault(KeyLogLevel, "warn")
}

// LoadDotEnv loads path into the process environment. A missing file is not
// an error and variables already set are left alone.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load reads configFile, or jptest.toml from the working directory when
// configFile is empty, and resolves the final settings. Flags must already
// be bound to v.
func Load(v *viper.Viper, configFile string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the runner cannot use
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s %q: must be an absolute http(s) URL", KeyBaseURL, c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid %s %s: must be positive", KeyTimeout, c.Timeout)
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("invalid %s %q: use debug, info, warn or error", KeyLogLevel, c.LogLevel)
	}
	return nil
}
