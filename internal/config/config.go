// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (DOCSAGE_* runtime override)
//  2. Config file (~/.docsage/config.yaml)
//  3. Default values
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrMissingSupabaseURL indicates the Supabase project URL is not set.
	ErrMissingSupabaseURL = errors.New("missing supabase_url")

	// ErrInvalidSupabaseURL indicates the Supabase project URL is malformed.
	ErrInvalidSupabaseURL = errors.New("invalid supabase_url")

	// ErrMissingAnonKey indicates the Supabase anonymous API key is not set.
	ErrMissingAnonKey = errors.New("missing supabase_anon_key")

	// ErrMissingBackendURL indicates the retrieval backend URL is not set.
	ErrMissingBackendURL = errors.New("missing backend_url")

	// ErrInvalidBackendURL indicates the retrieval backend URL is malformed.
	ErrInvalidBackendURL = errors.New("invalid backend_url")

	// ErrInvalidTopK indicates the retrieval count is out of range.
	ErrInvalidTopK = errors.New("invalid top_k")
)

const (
	// DefaultTopK is the number of chunks requested from the backend per query.
	DefaultTopK = 3

	// MaxTopK bounds top_k to keep backend load predictable.
	MaxTopK = 20
)

// Config stores application configuration.
type Config struct {
	// Identity provider and metadata store (one Supabase project serves both)
	SupabaseURL     string `mapstructure:"supabase_url"`
	SupabaseAnonKey string `mapstructure:"supabase_anon_key"`

	// Retrieval backend
	BackendURL string `mapstructure:"backend_url"`
	TopK       int    `mapstructure:"top_k"`

	// StateDir holds the on-disk session file. Defaults to the config
	// directory; overridable for tests.
	StateDir string `mapstructure:"state_dir"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".docsage")

	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v, configDir)

	v.SetEnvPrefix("DOCSAGE")
	v.AutomaticEnv()
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine, env and defaults still apply
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper, configDir string) {
	v.SetDefault("backend_url", "http://127.0.0.1:5000")
	v.SetDefault("top_k", DefaultTopK)
	v.SetDefault("state_dir", configDir)
}

// bindEnvVariables binds environment variables explicitly so they work
// without a config file entry of the same name.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("supabase_url", "DOCSAGE_SUPABASE_URL")
	mustBind("supabase_anon_key", "DOCSAGE_SUPABASE_ANON_KEY")
	mustBind("backend_url", "DOCSAGE_BACKEND_URL")
	mustBind("top_k", "DOCSAGE_TOP_K")
	mustBind("state_dir", "DOCSAGE_STATE_DIR")
}

// Validate checks the configuration for missing or out-of-range values.
// Called by Load(); exported so tests and callers with hand-built configs
// can fail fast too.
func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return ErrMissingSupabaseURL
	}
	if err := validateHTTPURL(c.SupabaseURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSupabaseURL, err)
	}
	if c.SupabaseAnonKey == "" {
		return ErrMissingAnonKey
	}
	if c.BackendURL == "" {
		return ErrMissingBackendURL
	}
	if err := validateHTTPURL(c.BackendURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBackendURL, err)
	}
	if c.TopK < 1 || c.TopK > MaxTopK {
		return fmt.Errorf("%w: %d (must be 1-%d)", ErrInvalidTopK, c.TopK, MaxTopK)
	}
	return nil
}

// validateHTTPURL checks that s parses as an absolute http(s) URL.
func validateHTTPURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
