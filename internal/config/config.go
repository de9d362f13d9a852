package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dshills/docgen-mcp/internal/chunker"
	"github.com/dshills/docgen-mcp/internal/ingestion"
	"github.com/dshills/docgen-mcp/internal/llm"
	"github.com/dshills/docgen-mcp/internal/tokens"
)

// Environment variables read by Load
const (
	EnvConfigFile    = "DOCGEN_CONFIG"
	EnvDBPath        = "DOCGEN_DB_PATH"
	EnvLogLevel      = "LOG_LEVEL"
	EnvLogFormat     = "DOCGEN_LOG_FORMAT"
	EnvGitHubToken   = "GITHUB_TOKEN"
	EnvTokenEncoding = "DOCGEN_TOKEN_ENCODING"
	EnvMaxFileSize   = "DOCGEN_MAX_FILE_SIZE"
)

// DefaultDBPath is relative to the user's home directory
const DefaultDBPath = "~/.docgen/docgen.db"

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the process configuration
type Config struct {
	DBPath        string     `yaml:"db_path"`
	LogLevel      string     `yaml:"log_level"`
	LogFormat     string     `yaml:"log_format"` // json or console
	GitHubToken   string     `yaml:"github_token"`
	TokenEncoding string     `yaml:"token_encoding"`
	MaxFileSize   int64      `yaml:"max_file_size"`
	Chunk         Chunk      `yaml:"chunk"`
	LLM           llm.Config `yaml:"llm"`
}

// Chunk holds chunking defaults applied when a request leaves them unset
type Chunk struct {
	MaxTokens     int    `yaml:"max_tokens"`
	OverlapTokens int    `yaml:"overlap_tokens"`
	Strategy      string `yaml:"strategy"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		DBPath:        DefaultDBPath,
		LogLevel:      "info",
		LogFormat:     "json",
		TokenEncoding: tokens.DefaultEncoding,
		MaxFileSize:   ingestion.DefaultMaxFileSize,
		Chunk: Chunk{
			MaxTokens:     chunker.DefaultMaxTokens,
			OverlapTokens: chunker.DefaultOverlapTokens,
			Strategy:      "hybrid",
		},
	}
}

// Load builds the configuration from, in increasing priority: defaults,
// the YAML file named by DOCGEN_CONFIG, and the environment. A .env file
// in the working directory is loaded into the environment first without
// overriding variables that are already set.
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := Default()
	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	path, err := ExpandHome(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	cfg.DBPath = path

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.DBPath, EnvDBPath)
	setString(&c.LogLevel, EnvLogLevel)
	setString(&c.LogFormat, EnvLogFormat)
	setString(&c.GitHubToken, EnvGitHubToken)
	setString(&c.TokenEncoding, EnvTokenEncoding)

	if v := os.Getenv(EnvMaxFileSize); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, EnvMaxFileSize, v)
		}
		c.MaxFileSize = n
	}

	setString(&c.LLM.Provider, llm.EnvProvider)
	setString(&c.LLM.AnthropicAPIKey, llm.EnvAnthropicAPIKey)
	setString(&c.LLM.AnthropicModel, llm.EnvAnthropicModel)
	setString(&c.LLM.OpenAIAPIKey, llm.EnvOpenAIAPIKey)
	setString(&c.LLM.OpenAIModel, llm.EnvOpenAIModel)
	setString(&c.LLM.OpenAIBaseURL, llm.EnvOpenAIBaseURL)
	setString(&c.LLM.OllamaHost, llm.EnvOllamaHost)
	setString(&c.LLM.OllamaModel, llm.EnvOllamaModel)
	return nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

// Validate checks value ranges
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("%w: max file size must be positive", ErrInvalidConfig)
	}
	if c.Chunk.MaxTokens <= 0 {
		return fmt.Errorf("%w: chunk max tokens must be positive", ErrInvalidConfig)
	}
	if c.Chunk.OverlapTokens < 0 {
		return fmt.Errorf("%w: chunk overlap cannot be negative", ErrInvalidConfig)
	}
	if c.DBPath == "" {
		return fmt.Errorf("%w: database path is required", ErrInvalidConfig)
	}
	return nil
}

// ExpandHome replaces a leading ~/ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
