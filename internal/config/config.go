package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/byteowlz/diffbot/pkg/diffbot"
)

// Config mirrors config.toml.
type Config struct {
	API         APIConfig         `mapstructure:"api"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Output      OutputConfig      `mapstructure:"output"`
	Parallel    ParallelConfig    `mapstructure:"parallel"`
	Poll        PollConfig        `mapstructure:"poll"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// APIConfig is the [api] section. Timeout is in seconds.
type APIConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	Version   int    `mapstructure:"version"`
	Timeout   int    `mapstructure:"timeout"`
	Profile   string `mapstructure:"profile"`
	UserAgent string `mapstructure:"user_agent"`
}

// CredentialsConfig locates the profile file and the optional .env file.
type CredentialsConfig struct {
	File   string `mapstructure:"file"`
	DotEnv string `mapstructure:"dotenv"`
}

// OutputConfig controls rendering and file output.
type OutputConfig struct {
	DefaultFormat   string `mapstructure:"default_format"`
	IncludeMetadata bool   `mapstructure:"include_metadata"`
	LineWidth       int    `mapstructure:"line_width"`
	Separator       string `mapstructure:"separator"`
}

// ParallelConfig bounds concurrent single-URL extraction.
type ParallelConfig struct {
	MaxConcurrency int  `mapstructure:"max_concurrency"`
	FailFast       bool `mapstructure:"fail_fast"`
}

// PollConfig is used by the wait commands. Both values are seconds.
type PollConfig struct {
	Interval int `mapstructure:"interval"`
	MaxWait  int `mapstructure:"max_wait"`
}

// LoggingConfig sets the slog level and an optional log file.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   diffbot.DefaultBaseURL,
			Version:   diffbot.DefaultVersion,
			Timeout:   int(diffbot.DefaultTimeout / time.Second),
			Profile:   "default",
			UserAgent: diffbot.DefaultUserAgent,
		},
		Credentials: CredentialsConfig{
			File:   "",
			DotEnv: ".env",
		},
		Output: OutputConfig{
			DefaultFormat:   "text",
			IncludeMetadata: false,
			LineWidth:       80,
			Separator:       "---",
		},
		Parallel: ParallelConfig{
			MaxConcurrency: 5,
			FailFast:       false,
		},
		Poll: PollConfig{
			Interval: 10,
			MaxWait:  3600,
		},
		Logging: LoggingConfig{
			Level: "warn",
			File:  "",
		},
	}
}

// Dir returns $XDG_CONFIG_HOME/diffbot.
func Dir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("error finding home directory: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "diffbot"), nil
}

// DefaultPath returns the config file used when none is given.
func DefaultPath() string {
	dir, err := Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

// Load reads configFile, or config.toml from the default directory when
// configFile is empty. A missing default file is not an error. Every key
// can be overridden by DIFFBOT_<SECTION>_<KEY>.
func Load(configFile string) (*Config, error) {
	cfg := Default()
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		configDir, err := Dir()
		if err != nil {
			return cfg, err
		}
		v.AddConfigPath(configDir)
		v.SetConfigType("toml")
		v.SetConfigName("config")
	}

	setDefaults(v, cfg)
	v.SetEnvPrefix("DIFFBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not an error, we'll use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return cfg, cfg.Validate()
}

// setDefaults registers every key so AutomaticEnv can see it during
// Unmarshal.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.version", cfg.API.Version)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.profile", cfg.API.Profile)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)
	v.SetDefault("credentials.file", cfg.Credentials.File)
	v.SetDefault("credentials.dotenv", cfg.Credentials.DotEnv)
	v.SetDefault("output.default_format", cfg.Output.DefaultFormat)
	v.SetDefault("output.include_metadata", cfg.Output.IncludeMetadata)
	v.SetDefault("output.line_width", cfg.Output.LineWidth)
	v.SetDefault("output.separator", cfg.Output.Separator)
	v.SetDefault("parallel.max_concurrency", cfg.Parallel.MaxConcurrency)
	v.SetDefault("parallel.fail_fast", cfg.Parallel.FailFast)
	v.SetDefault("poll.interval", cfg.Poll.Interval)
	v.SetDefault("poll.max_wait", cfg.Poll.MaxWait)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.file", cfg.Logging.File)
}

// Validate checks the values viper cannot check by type alone.
func (c *Config) Validate() error {
	switch c.Output.DefaultFormat {
	case "text", "markdown", "json", "html":
	default:
		return fmt.Errorf("output.default_format: unknown format %q", c.Output.DefaultFormat)
	}
	if c.API.Version < 1 {
		return fmt.Errorf("api.version must be positive, got %d", c.API.Version)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative, got %d", c.API.Timeout)
	}
	if c.Parallel.MaxConcurrency < 1 {
		return fmt.Errorf("parallel.max_concurrency must be at least 1, got %d", c.Parallel.MaxConcurrency)
	}
	return nil
}

// ClientOptions converts the [api] section for diffbot.New.
func (c *Config) ClientOptions(logger *slog.Logger) diffbot.Options {
	return diffbot.Options{
		Profile:   c.API.Profile,
		BaseURL:   c.API.BaseURL,
		Version:   c.API.Version,
		Timeout:   time.Duration(c.API.Timeout) * time.Second,
		UserAgent: c.API.UserAgent,
		Logger:    logger,
	}
}

// CredentialsFile returns the configured profile file or the default one
// next to config.toml.
func (c *Config) CredentialsFile() string {
	if c.Credentials.File != "" {
		return c.Credentials.File
	}
	dir, err := Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "credentials.toml")
}

// CreateExampleConfig writes a commented config file holding the
// defaults, creating the directory if needed.
func (c *Config) CreateExampleConfig(configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	exampleContent := `# diffbot configuration file

[api]
base_url = "https://api.diffbot.com"
version = 3               # API version used in request paths (/v3/...)
timeout = 30              # seconds, applied to every request; no retries
profile = "default"       # credentials profile
user_agent = "diffbot-go"

[credentials]
file = ""                 # profile file (empty = credentials.toml next to this file)
dotenv = ".env"           # optional .env file checked for DIFFBOT_TOKEN

[output]
default_format = "text"   # text, markdown, json, html
include_metadata = false
line_width = 80           # Max line width for text output (0 = unlimited)
separator = "---"         # Separator between multiple results

[parallel]
max_concurrency = 5       # Concurrent single-URL extractions
fail_fast = false         # Stop on first error

[poll]
interval = 10             # seconds between job status checks
max_wait = 3600           # give up waiting after N seconds (0 = forever)

[logging]
level = "warn"            # debug, info, warn, error
file = ""                 # Log file path (empty = stderr only)
`

	return os.WriteFile(configPath, []byte(exampleContent), 0644)
}
