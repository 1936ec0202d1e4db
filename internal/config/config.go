// Package config loads novelreview settings.
//
// Values come from, in increasing precedence: built-in defaults, a YAML
// file, environment variables (a .env file is loaded first when present)
// and command-line overrides. The result is validated before use.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spetersoncode/novelreview"
	"github.com/spetersoncode/novelreview/client"
	"github.com/spetersoncode/novelreview/internal/retry"
	"github.com/spetersoncode/novelreview/pipeline"
)

// EnvPrefix prefixes every novelreview environment variable.
const EnvPrefix = "NOVELREVIEW_"

// Config is the complete application configuration.
type Config struct {
	AI       AIConfig       `yaml:"ai"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
}

// AIConfig selects and tunes the model provider.
type AIConfig struct {
	Provider          string        `yaml:"provider" validate:"oneof=openai anthropic google"`
	Model             string        `yaml:"model"`
	BaseURL           string        `yaml:"base_url" validate:"omitempty,url"`
	Timeout           time.Duration `yaml:"timeout" validate:"gte=0"`
	RequestsPerMinute float64       `yaml:"requests_per_minute" validate:"gte=0"`
	Burst             int           `yaml:"burst" validate:"gte=0"`
	Retry             retry.Config  `yaml:"retry"`

	// API keys are read from the environment only.
	OpenAIKey    string `yaml:"-"`
	AnthropicKey string `yaml:"-"`
	GoogleKey    string `yaml:"-"`
}

// AnalysisConfig tunes the pipeline.
type AnalysisConfig struct {
	ScoreThreshold           float64 `yaml:"score_threshold" validate:"gte=0,lte=100"`
	GenreConfidenceThreshold float64 `yaml:"genre_confidence_threshold" validate:"gte=0,lte=1"`
	Concurrency              int     `yaml:"concurrency" validate:"gte=1,lte=64"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

// StoreConfig configures the run archive.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		AI: AIConfig{
			Provider:          string(novelreview.ProviderOpenAI),
			Timeout:           2 * time.Minute,
			RequestsPerMinute: 60,
			Burst:             5,
			Retry:             retry.DefaultConfig(),
		},
		Analysis: AnalysisConfig{
			ScoreThreshold:           pipeline.DefaultScoreThreshold,
			GenreConfidenceThreshold: pipeline.DefaultGenreConfidenceThreshold,
			Concurrency:              2,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Path: defaultStorePath(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Override adjusts a loaded configuration, typically from command-line flags.
type Override func(*Config)

// Load builds the configuration from defaults, the YAML file at path, the
// environment and overrides, then validates it. An empty path falls back to
// NOVELREVIEW_CONFIG and then to the user config directory; a missing
// default file is not an error.
func Load(path string, overrides ...Override) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path, explicit = os.LookupEnv(EnvPrefix + "CONFIG")
	}
	if !explicit {
		path = defaultConfigPath()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	for _, o := range overrides {
		o(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays environment variables read through lookup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *float64) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = f
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	str("OPENAI_API_KEY", &c.AI.OpenAIKey)
	str("ANTHROPIC_API_KEY", &c.AI.AnthropicKey)
	str("GOOGLE_API_KEY", &c.AI.GoogleKey)

	str(EnvPrefix+"PROVIDER", &c.AI.Provider)
	str(EnvPrefix+"MODEL", &c.AI.Model)
	str(EnvPrefix+"BASE_URL", &c.AI.BaseURL)
	duration("TIMEOUT", &c.AI.Timeout)
	num("REQUESTS_PER_MINUTE", &c.AI.RequestsPerMinute)
	integer("BURST", &c.AI.Burst)
	integer("MAX_ATTEMPTS", &c.AI.Retry.MaxAttempts)

	num("SCORE_THRESHOLD", &c.Analysis.ScoreThreshold)
	num("GENRE_CONFIDENCE_THRESHOLD", &c.Analysis.GenreConfidenceThreshold)
	integer("CONCURRENCY", &c.Analysis.Concurrency)

	str(EnvPrefix+"ADDR", &c.Server.Addr)
	str(EnvPrefix+"DB", &c.Store.Path)
	str(EnvPrefix+"LOG_LEVEL", &c.Log.Level)
	str(EnvPrefix+"LOG_FORMAT", &c.Log.Format)

	c.AI.Provider = strings.ToLower(c.AI.Provider)
	c.Log.Level = strings.ToLower(c.Log.Level)
	return errors.Join(errs...)
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// Client returns the provider client configuration.
func (c *Config) Client() client.Config {
	r := c.AI.Retry
	return client.Config{
		Provider: novelreview.Provider(c.AI.Provider),
		APIKeys: client.APIKeys{
			OpenAI:    c.AI.OpenAIKey,
			Anthropic: c.AI.AnthropicKey,
			Google:    c.AI.GoogleKey,
		},
		Model:             c.AI.Model,
		BaseURL:           c.AI.BaseURL,
		RetryConfig:       &r,
		RequestsPerMinute: c.AI.RequestsPerMinute,
		Burst:             c.AI.Burst,
		Timeout:           c.AI.Timeout,
	}
}

// PipelineOptions returns the pipeline options for the analysis settings.
func (c *Config) PipelineOptions() []pipeline.Option {
	return []pipeline.Option{
		pipeline.WithScoreThreshold(c.Analysis.ScoreThreshold),
		pipeline.WithGenreConfidenceThreshold(c.Analysis.GenreConfidenceThreshold),
	}
}

// Logger builds a logger writing to w at the configured level and format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "novelreview", "config.yaml")
}

func defaultStorePath() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "novelreview", "runs.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "novelreview.db"
	}
	return filepath.Join(home, ".local", "share", "novelreview", "runs.db")
}
