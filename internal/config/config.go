// Package config loads the cv_builder configuration from the environment and an
// optional JSON file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonathan/cv-builder/internal/llm"
	"github.com/jonathan/cv-builder/internal/storage"
)

// DefaultStoreURL is used when no store is configured.
const DefaultStoreURL = "sqlite://./data/cv_builder.db"

// Config holds every setting of the CLI and the HTTP server.
// Zero values mean "not set" and are filled by MergeWithDefaults.
type Config struct {
	StoreURL  string `json:"store_url,omitempty"`  // memory://, sqlite://, postgres:// or redis://
	APIKey    string `json:"api_key,omitempty"`    // Gemini API key
	ModelTier string `json:"model_tier,omitempty"` // lite, standard or advanced
	ExportDir string `json:"export_dir,omitempty"` // Where the CLI writes exports
	Port      int    `json:"port,omitempty"`
	LogMode   string `json:"log_mode,omitempty"` // dev or prod

	EnhanceMaxAttempts int    `json:"enhance_max_attempts,omitempty"`
	ChromePath         string `json:"chrome_path,omitempty"`
	ChromeTimeout      string `json:"chrome_timeout,omitempty"` // Go duration, e.g. "45s"

	JWTSecret          string `json:"jwt_secret,omitempty"`
	JWTExpirationHours int    `json:"jwt_expiration_hours,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		StoreURL:           DefaultStoreURL,
		ModelTier:          string(llm.TierStandard),
		ExportDir:          ".",
		Port:               8080,
		LogMode:            "dev",
		EnhanceMaxAttempts: 3,
		ChromeTimeout:      "30s",
		JWTExpirationHours: 24,
	}
}

// FromEnv reads the configuration from environment variables. Unset variables
// stay zero.
func FromEnv() (Config, error) {
	cfg := Config{
		StoreURL:   os.Getenv("CV_STORE_URL"),
		APIKey:     os.Getenv("GEMINI_API_KEY"),
		ModelTier:  os.Getenv("CV_MODEL_TIER"),
		ExportDir:  os.Getenv("CV_EXPORT_DIR"),
		LogMode:    os.Getenv("LOG_MODE"),
		ChromePath: os.Getenv("CV_CHROME_PATH"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"CV_PORT", &cfg.Port},
		{"CV_ENHANCE_MAX_ATTEMPTS", &cfg.EnhanceMaxAttempts},
		{"JWT_EXPIRATION_HOURS", &cfg.JWTExpirationHours},
	}
	for _, v := range ints {
		raw := os.Getenv(v.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", v.name, err)
		}
		*v.dst = n
	}

	cfg.ChromeTimeout = os.Getenv("CV_CHROME_TIMEOUT")
	return cfg, nil
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load resolves the configuration: the file at path (optional) over the
// environment over Defaults.
func Load(path string) (Config, error) {
	env, err := FromEnv()
	if err != nil {
		return Config{}, err
	}
	cfg := env.MergeWithDefaults(Defaults())

	if path != "" {
		file, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = file.MergeWithDefaults(cfg)
	}
	return cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.StoreURL != "" && !storage.SupportedScheme(c.StoreURL) {
		return fmt.Errorf("config error: unsupported store_url %q", c.StoreURL)
	}
	if _, err := llm.ParseModelTier(c.ModelTier); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535 (0 uses the default), got %d", c.Port)
	}
	switch c.LogMode {
	case "", "dev", "prod":
	default:
		return fmt.Errorf("config error: 'log_mode' must be dev or prod, got %q", c.LogMode)
	}
	if c.EnhanceMaxAttempts < 0 || c.EnhanceMaxAttempts > 10 {
		return fmt.Errorf("config error: 'enhance_max_attempts' must be between 0 and 10 (0 uses the default), got %d", c.EnhanceMaxAttempts)
	}
	if c.ChromeTimeout != "" {
		d, err := time.ParseDuration(c.ChromeTimeout)
		if err != nil {
			return fmt.Errorf("config error: invalid 'chrome_timeout': %w", err)
		}
		if d <= 0 {
			return fmt.Errorf("config error: 'chrome_timeout' must be positive")
		}
	}
	if c.JWTExpirationHours < 0 {
		return fmt.Errorf("config error: 'jwt_expiration_hours' must be non-negative")
	}
	return nil
}

// ChromeTimeoutDuration returns the browser timeout, or zero when unset or invalid.
func (c *Config) ChromeTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.ChromeTimeout)
	if err != nil {
		return 0
	}
	return d
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	strs := []struct{ dst, def *string }{
		{&result.StoreURL, &defaults.StoreURL},
		{&result.APIKey, &defaults.APIKey},
		{&result.ModelTier, &defaults.ModelTier},
		{&result.ExportDir, &defaults.ExportDir},
		{&result.LogMode, &defaults.LogMode},
		{&result.ChromePath, &defaults.ChromePath},
		{&result.ChromeTimeout, &defaults.ChromeTimeout},
		{&result.JWTSecret, &defaults.JWTSecret},
	}
	for _, f := range strs {
		if *f.dst == "" {
			*f.dst = *f.def
		}
	}

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.EnhanceMaxAttempts == 0 {
		result.EnhanceMaxAttempts = defaults.EnhanceMaxAttempts
	}
	if result.JWTExpirationHours == 0 {
		result.JWTExpirationHours = defaults.JWTExpirationHours
	}

	return result
}
