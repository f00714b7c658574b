package models

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for a paulgraham.com style essay site.
const (
	DefaultListingURL   = "http://paulgraham.com/articles.html"
	DefaultDataDir      = "data"
	DefaultUserAgent    = "Mozilla/5.0 (compatible; EssayIngest/1.0)"
	DefaultRequestDelay = 200 * time.Millisecond
	DefaultTimeout      = 30 * time.Second
	DefaultMaxAttempts  = 2
	DefaultBackoff      = time.Second
	DefaultLedgerName   = "essay-ingest.db"
)

// Config holds runtime configuration. File values are loaded from YAML; CLI flags override them.
type Config struct {
	ListingURL   string        `yaml:"listing_url"`
	DataDir      string        `yaml:"data_dir"`
	ExcludePages []string      `yaml:"exclude_pages"`
	UserAgent    string        `yaml:"user_agent"`
	RequestDelay time.Duration `yaml:"request_delay"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxAttempts  int           `yaml:"max_attempts"`
	Backoff      time.Duration `yaml:"backoff"`
	TouchOnEmpty bool          `yaml:"touch_on_empty"`
	DetectLang   bool          `yaml:"detect_language"`
	LedgerPath   string        `yaml:"ledger_path"`
	MetricsFile  string        `yaml:"metrics_file"`
	ReportDir    string        `yaml:"report_dir"`
	Enrich       EnrichConfig  `yaml:"enrich"`
}

// EnrichConfig configures the external classifier used by `enrich`.
type EnrichConfig struct {
	Classifier  string        `yaml:"classifier"` // cli | openai
	Command     string        `yaml:"command"`
	Model       string        `yaml:"model"`
	OpenAIModel string        `yaml:"openai_model"`
	BaseURL     string        `yaml:"base_url"` // OpenAI-compatible endpoint, empty for the default
	Timeout     time.Duration `yaml:"timeout"`
	Delay       time.Duration `yaml:"delay"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		ListingURL:   DefaultListingURL,
		DataDir:      DefaultDataDir,
		ExcludePages: []string{"index.html", "articles.html"},
		UserAgent:    DefaultUserAgent,
		RequestDelay: DefaultRequestDelay,
		Timeout:      DefaultTimeout,
		MaxAttempts:  DefaultMaxAttempts,
		Backoff:      DefaultBackoff,
		DetectLang:   true,
		Enrich: EnrichConfig{
			Classifier:  "cli",
			Command:     "claude",
			Model:       "opus",
			OpenAIModel: "gpt-3.5-turbo",
			Timeout:     5 * time.Minute,
			Delay:       2 * time.Second,
		},
	}
}

// LoadConfig reads a YAML config file on top of the defaults.
// An empty path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills zero values left by a partial file.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.ListingURL == "" {
		c.ListingURL = d.ListingURL
	}
	if c.DataDir == "" {
		c.DataDir = d.DataDir
	}
	if c.ExcludePages == nil {
		c.ExcludePages = d.ExcludePages
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.Timeout == 0 {
		c.Timeout = d.Timeout
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.Backoff == 0 {
		c.Backoff = d.Backoff
	}
	if c.Enrich.Classifier == "" {
		c.Enrich.Classifier = d.Enrich.Classifier
	}
	if c.Enrich.Command == "" {
		c.Enrich.Command = d.Enrich.Command
	}
	if c.Enrich.Model == "" {
		c.Enrich.Model = d.Enrich.Model
	}
	if c.Enrich.OpenAIModel == "" {
		c.Enrich.OpenAIModel = d.Enrich.OpenAIModel
	}
	if c.Enrich.Timeout == 0 {
		c.Enrich.Timeout = d.Enrich.Timeout
	}
	if c.Enrich.Delay == 0 {
		c.Enrich.Delay = d.Enrich.Delay
	}
}

// Validate rejects settings that would break the politeness or retry contracts.
func (c *Config) Validate() error {
	if c.RequestDelay < 0 {
		return fmt.Errorf("request_delay must not be negative, got %s", c.RequestDelay)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	switch c.Enrich.Classifier {
	case "cli", "openai":
	default:
		return fmt.Errorf("unknown classifier %q (want cli or openai)", c.Enrich.Classifier)
	}
	return nil
}

// Ledger returns the run ledger path, defaulting to a file inside the data dir.
func (c *Config) Ledger() string {
	if c.LedgerPath != "" {
		return c.LedgerPath
	}
	return filepath.Join(c.DataDir, DefaultLedgerName)
}
