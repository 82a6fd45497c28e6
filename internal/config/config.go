// Package config loads settings for the sgf command line tool.
//
// Settings come from a single file named by the --config flag or the
// SGF_CONFIG environment variable. YAML (.yaml, .yml) and JSON with comments
// (.json, .jsonc) are accepted. Command line flags given explicitly override
// values from the file.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/BenjamenMeyer/saved-game-format/internal/archive"
	"github.com/BenjamenMeyer/saved-game-format/internal/filter"
)

// AutoFilter is the InputFilter value that keeps filter detection.
const AutoFilter = "auto"

// EnvVar names the environment variable holding the config file path.
const EnvVar = "SGF_CONFIG"

var (
	// ErrFormat is returned for config files with an unsupported extension.
	ErrFormat = errors.New("unsupported config format")

	// ErrInvalid is returned when a config value is out of range.
	ErrInvalid = errors.New("invalid config")
)

// Config holds tool settings.
type Config struct {
	// BlockSize is the streaming block size in bytes. Zero uses the default.
	BlockSize int `yaml:"block_size" json:"block_size"`

	// CompressionLevel is the bzip2 level (1-9) for rewritten containers.
	// Zero uses the codec default.
	CompressionLevel int `yaml:"compression_level" json:"compression_level"`

	// ShortWritePolicy is "lenient" or "strict".
	ShortWritePolicy string `yaml:"short_write_policy" json:"short_write_policy"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// InputFilter forces the input compression filter. "auto" detects it.
	InputFilter string `yaml:"input_filter" json:"input_filter"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		BlockSize:        archive.DefaultBlockSize,
		ShortWritePolicy: archive.ShortWriteLenient.String(),
		LogLevel:         "warn",
		InputFilter:      AutoFilter,
	}
}

// Resolve returns the config file path to load. The flag value wins over the
// environment. An empty result means no file.
func Resolve(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	return os.Getenv(EnvVar)
}

// Load reads the file at path over the defaults and validates the result.
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = decodeYAML(data, cfg)
	case ".json", ".jsonc":
		err = decodeJSON(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeJSON(data []byte, cfg *Config) error {
	stripped := jsonc.ToJSON(data)
	if len(bytes.TrimSpace(stripped)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(stripped))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.BlockSize < 0 {
		return fmt.Errorf("%w: block_size %d is negative", ErrInvalid, c.BlockSize)
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 9 {
		return fmt.Errorf("%w: compression_level %d outside 0-9", ErrInvalid, c.CompressionLevel)
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.checkFilter(); err != nil {
		return fmt.Errorf("%w: input_filter: %w", ErrInvalid, err)
	}
	return nil
}

func (c *Config) checkFilter() error {
	if c.InputFilter == "" || strings.EqualFold(c.InputFilter, AutoFilter) {
		return nil
	}
	_, err := filter.Parse(c.InputFilter)
	return err
}

// Policy returns the parsed short write policy.
func (c *Config) Policy() (archive.ShortWritePolicy, error) {
	if c.ShortWritePolicy == "" {
		return archive.ShortWriteLenient, nil
	}
	return archive.ParseShortWritePolicy(c.ShortWritePolicy)
}

// Level returns the parsed log level.
func (c *Config) Level() (slog.Level, error) {
	return ParseLevel(c.LogLevel)
}

// ParseLevel parses a log level name. An empty name is warn.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}
