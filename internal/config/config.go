package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultCatalogURL is the IOOS CKAN catalog API.
const DefaultCatalogURL = "https://data.ioos.us/api/3"

// Config holds the catalog-query configuration.
type Config struct {
	Catalog CatalogConfig `yaml:"catalog"`
	Checker CheckerConfig `yaml:"checker"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	History HistoryConfig `yaml:"history"`
}

// CatalogConfig holds catalog API settings.
type CatalogConfig struct {
	BaseURL           string `yaml:"base_url"`
	PageSize          int    `yaml:"page_size"`
	RequestTimeoutSec int    `yaml:"request_timeout_sec"`
	Operator          string `yaml:"operator"` // AND | OR (default: AND)
}

// CheckerConfig holds compliance checker settings.
type CheckerConfig struct {
	Binary       string   `yaml:"binary"`
	DefaultTests []string `yaml:"default_tests"`
	TimeoutSec   int      `yaml:"timeout_sec"`
	PauseMS      int      `yaml:"pause_ms"` // delay between URLs; 0 keeps the default, negative disables
}

// OutputConfig holds report settings.
type OutputConfig struct {
	Format string `yaml:"format"` // csv | xlsx
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

// HistoryConfig holds the Valkey history sink settings.
type HistoryConfig struct {
	Addrs     []string `yaml:"addrs"` // empty disables the sink
	Password  string   `yaml:"password"`
	KeyPrefix string   `yaml:"key_prefix"`
	TTLHours  int      `yaml:"ttl_hours"`
}

// Enabled reports whether run summaries should be stored.
func (h HistoryConfig) Enabled() bool { return len(h.Addrs) > 0 }

// TTL returns the retention of stored run summaries.
func (h HistoryConfig) TTL() time.Duration { return time.Duration(h.TTLHours) * time.Hour }

// RequestTimeout returns the catalog HTTP timeout.
func (c CatalogConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// Timeout returns the per-invocation checker deadline.
func (c CheckerConfig) Timeout() time.Duration { return time.Duration(c.TimeoutSec) * time.Second }

// Pause returns the delay between URLs.
func (c CheckerConfig) Pause() time.Duration {
	if c.PauseMS < 0 {
		return 0
	}
	return time.Duration(c.PauseMS) * time.Millisecond
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadOrDefault is Load, falling back to defaults when no config file exists.
func LoadOrDefault(env string) (Config, error) {
	cfg, err := Load(env)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFile reads configuration from an explicit path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with every default applied.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = DefaultCatalogURL
	}
	if c.Catalog.PageSize <= 0 {
		c.Catalog.PageSize = 100
	}
	if c.Catalog.RequestTimeoutSec <= 0 {
		c.Catalog.RequestTimeoutSec = 60
	}
	if c.Catalog.Operator == "" {
		c.Catalog.Operator = "AND"
	}
	if c.Checker.Binary == "" {
		c.Checker.Binary = "compliance-checker"
	}
	if len(c.Checker.DefaultTests) == 0 {
		c.Checker.DefaultTests = []string{"cf", "acdd", "ioos"}
	}
	if c.Checker.TimeoutSec <= 0 {
		c.Checker.TimeoutSec = 600
	}
	if c.Checker.PauseMS == 0 {
		c.Checker.PauseMS = 2000
	}
	if c.Output.Format == "" {
		c.Output.Format = "csv"
	}
	if c.History.KeyPrefix == "" {
		c.History.KeyPrefix = "catalog-query:"
	}
	if c.History.TTLHours <= 0 {
		c.History.TTLHours = 720
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if err := ValidateCatalogURL(c.Catalog.BaseURL); err != nil {
		return fmt.Errorf("catalog.base_url: %w", err)
	}
	switch strings.ToUpper(c.Catalog.Operator) {
	case "AND", "OR":
	default:
		return fmt.Errorf("catalog.operator must be \"AND\" or \"OR\", got %q", c.Catalog.Operator)
	}
	switch c.Output.Format {
	case "csv", "xlsx":
	default:
		return fmt.Errorf("output.format must be \"csv\" or \"xlsx\", got %q", c.Output.Format)
	}
	for i, test := range c.Checker.DefaultTests {
		if strings.TrimSpace(test) == "" {
			return fmt.Errorf("checker.default_tests[%d] is empty", i)
		}
	}
	return nil
}

// ValidateCatalogURL requires an absolute endpoint URL without query parameters.
func ValidateCatalogURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("must contain a valid URL, got %q", raw)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("should not contain query parameters (%q), include only the service endpoint", u.RawQuery)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
