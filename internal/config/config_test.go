package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/trackgen/internal/signature"
)

// isolate points the config search paths at an empty temp directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Chdir(dir)
	return dir
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.True(t, cfg.Generator.RandomPayload)
	assert.Equal(t, 1, cfg.Generator.Count)
	assert.Equal(t, signature.DefaultTime, cfg.Signing.Time)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoad_ExplicitFile(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, `
generator:
  random_payload: false
  seed: 42
  count: 10
signing:
  shared_secret: topsecret
  time: 1700000000
logging:
  level: debug
  format: json
output:
  format: yaml
  dir: ./out
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.False(t, cfg.Generator.RandomPayload)
	assert.Equal(t, int64(42), cfg.Generator.Seed)
	assert.Equal(t, 10, cfg.Generator.Count)
	assert.Equal(t, "topsecret", cfg.Signing.SharedSecret)
	assert.Equal(t, int64(1700000000), cfg.Signing.Time)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.Equal(t, "./out", cfg.Output.Dir)
}

func TestLoad_SearchPathInWorkingDirectory(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trackgen.yaml"), []byte("generator:\n  count: 3\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Generator.Count)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "signing:\n  shared_secret: from-file\n")

	t.Setenv("TRACKGEN_SIGNING_SHARED_SECRET", "from-env")
	t.Setenv("TRACKGEN_GENERATOR_COUNT", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Signing.SharedSecret)
	assert.Equal(t, 7, cfg.Generator.Count)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "generator: [unclosed\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoad_ValidationFailure(t *testing.T) {
	dir := isolate(t)
	path := writeConfig(t, dir, "output:\n  format: xml\n")

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "zero count", mutate: func(c *Config) { c.Generator.Count = 0 }, wantErr: true},
		{name: "negative time", mutate: func(c *Config) { c.Signing.Time = -1 }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "trace" }, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "xml" }, wantErr: true},
		{name: "bad output format", mutate: func(c *Config) { c.Output.Format = "csv" }, wantErr: true},
		{name: "table output", mutate: func(c *Config) { c.Output.Format = "table" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			assert.NoError(t, err)
		})
	}
}
