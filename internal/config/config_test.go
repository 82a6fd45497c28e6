package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BenjamenMeyer/saved-game-format/internal/archive"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "sgf.yaml", `
block_size: 4096
compression_level: 9
short_write_policy: strict
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4096, cfg.BlockSize)
	assert.Equal(t, 9, cfg.CompressionLevel)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, archive.ShortWriteStrict, policy)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadYAMLPartialKeepsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeFile(t, "sgf.yml", "compression_level: 3\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.CompressionLevel)
	assert.Equal(t, archive.DefaultBlockSize, cfg.BlockSize)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadEmptyYAML(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeFile(t, "sgf.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadJSONC(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "sgf.jsonc", `{
  // stream in small blocks
  "block_size": 512,
  "log_level": "INFO", /* trailing comma below */
}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 512, cfg.BlockSize)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	_, err := Load(writeFile(t, "sgf.yaml", "blocksize: 12\n"))
	require.Error(t, err)

	_, err = Load(writeFile(t, "sgf.json", `{"blocksize": 12}`))
	require.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeFile(t, "sgf.toml", "block_size = 1"))
	require.ErrorIs(t, err, ErrFormat)

	_, err = Load(writeFile(t, "sgf.yaml", "compression_level: 10\n"))
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeFile(t, "sgf.yaml", "short_write_policy: maybe\n"))
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeFile(t, "sgf.yaml", "log_level: loud\n"))
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeFile(t, "sgf.yaml", "block_size: -1\n"))
	require.ErrorIs(t, err, ErrInvalid)

	_, err = Load(writeFile(t, "sgf.yaml", "input_filter: rar\n"))
	require.ErrorIs(t, err, ErrInvalid)
}

func TestResolve(t *testing.T) {
	t.Setenv(EnvVar, "/etc/sgf.yaml")

	assert.Equal(t, "/etc/sgf.yaml", Resolve(""))
	assert.Equal(t, "local.yaml", Resolve("local.yaml"))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	level, err = ParseLevel("error")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, level)
}

func TestLoadInputFilter(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeFile(t, "sgf.yaml", "input_filter: Bzip2\n"))
	require.NoError(t, err)
	assert.Equal(t, "Bzip2", cfg.InputFilter)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, AutoFilter, cfg.InputFilter)
}
