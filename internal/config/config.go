package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	ferrors "github.com/vflow-stack/flowcat/internal/errors"
)

// FileName is the default config file looked up in the working directory.
const FileName = "flowcat.toml"

// LogLevel specifies the logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat specifies the log output format.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// CatalogConfig controls where the catalog is written and how entries link back.
type CatalogConfig struct {
	// FileName is the catalog written inside the scanned directory.
	// It is also excluded from the scan.
	FileName string `toml:"file_name"`

	// FormatVersion is stamped into the catalog's "version" field.
	FormatVersion string `toml:"format_version"`

	// DownloadBaseURL is prefixed to each workflow's filename to build download_url.
	DownloadBaseURL string `toml:"download_base_url"`

	// DefaultDir is scanned when no directory argument is given.
	DefaultDir string `toml:"default_dir"`
}

// WatchConfig holds watch mode settings.
type WatchConfig struct {
	Debounce time.Duration `toml:"debounce"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  LogLevel  `toml:"level"`
	Format LogFormat `toml:"format"`
	File   string    `toml:"file"`
}

// Config is the main configuration struct for flowcat.
type Config struct {
	Catalog CatalogConfig `toml:"catalog"`
	Watch   WatchConfig   `toml:"watch"`
	Logging LoggingConfig `toml:"logging"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Catalog: CatalogConfig{
			FileName:        "index.json",
			FormatVersion:   "1.0",
			DownloadBaseURL: "https://raw.githubusercontent.com/ChaoMixian/vFlow-Repos/main/workflows/",
			DefaultDir:      "workflows",
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  LogLevelWarn,
			Format: LogFormatText,
			File:   "",
		},
	}
}

// Load loads configuration from file, merging with defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if no config file
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid. Errors carry the
// CONFIG_001 or CONFIG_002 code.
func (c *Config) Validate() error {
	if c.Catalog.FileName == "" {
		return ferrors.ConfigMissingField("catalog.file_name")
	}
	if strings.ContainsRune(c.Catalog.FileName, filepath.Separator) || strings.Contains(c.Catalog.FileName, "/") {
		return ferrors.ConfigInvalidValue("catalog.file_name", c.Catalog.FileName, "must be a bare file name")
	}
	if !strings.HasSuffix(c.Catalog.FileName, ".json") {
		return ferrors.ConfigInvalidValue("catalog.file_name", c.Catalog.FileName, "must end in .json")
	}
	if c.Catalog.FormatVersion == "" {
		return ferrors.ConfigMissingField("catalog.format_version")
	}
	if c.Catalog.DownloadBaseURL == "" {
		return ferrors.ConfigMissingField("catalog.download_base_url")
	}
	if c.Watch.Debounce <= 0 {
		return ferrors.ConfigInvalidValue("watch.debounce", c.Watch.Debounce.String(), "must be positive")
	}
	switch c.Logging.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
	default:
		return ferrors.ConfigInvalidValue("logging.level", string(c.Logging.Level), "must be one of debug, info, warn, error")
	}
	return nil
}

// LogFile returns the absolute log file path, or "" when file logging is off.
func (c *Config) LogFile(baseDir string) string {
	if c.Logging.File == "" {
		return ""
	}
	if filepath.IsAbs(c.Logging.File) {
		return c.Logging.File
	}
	return filepath.Join(baseDir, c.Logging.File)
}

// ScanDir returns the directory to scan: args[0] if present, else the configured default.
func (c *Config) ScanDir(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return c.Catalog.DefaultDir
}
