package cli

import (
	"flag"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/typeshape/internal/errors"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("typeshape", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(EnvFile, filepath.Join(t.TempDir(), "missing.env"))

	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadConfig(newFlagSet(), []string{"-model", "shop.yaml"})
		require.NoError(t, err)

		assert.Equal(t, []string{"shop.yaml"}, cfg.ModelFiles)
		assert.Empty(t, cfg.Operations)
		assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
		assert.Equal(t, DefaultPackageName, cfg.PackageName)
		assert.Empty(t, cfg.SchemaDir)
		assert.False(t, cfg.Verbose)
	})

	t.Run("flags and positional models", func(t *testing.T) {
		cfg, err := LoadConfig(newFlagSet(), []string{
			"-model", "a.yaml, b.yaml",
			"-operation", "Publish,Shop.Link",
			"-out", "internal/params",
			"-package", "params",
			"-schema", "schemas",
			"-module", "github.com/acme/shop",
			"-verbose",
			"-watch",
			"c.yaml",
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"a.yaml", "b.yaml", "c.yaml"}, cfg.ModelFiles)
		assert.Equal(t, []string{"Publish", "Shop.Link"}, cfg.Operations)
		assert.Equal(t, "internal/params", cfg.OutputDir)
		assert.Equal(t, "schemas", cfg.SchemaDir)
		assert.Equal(t, "github.com/acme/shop", cfg.ModuleName)
		assert.True(t, cfg.Verbose)
		assert.True(t, cfg.Watch)
	})

	t.Run("environment supplies defaults", func(t *testing.T) {
		t.Setenv(EnvModel, "env.yaml")
		t.Setenv(EnvPackage, "shop")
		t.Setenv(EnvVerbose, "true")

		cfg, err := LoadConfig(newFlagSet(), nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"env.yaml"}, cfg.ModelFiles)
		assert.Equal(t, "shop", cfg.PackageName)
		assert.True(t, cfg.Verbose)

		cfg, err = LoadConfig(newFlagSet(), []string{"-package", "other", "-verbose=false"})
		require.NoError(t, err)
		assert.Equal(t, "other", cfg.PackageName)
		assert.False(t, cfg.Verbose)
	})

	t.Run("invalid verbose environment", func(t *testing.T) {
		t.Setenv(EnvVerbose, "sometimes")

		_, err := LoadConfig(newFlagSet(), []string{"-model", "shop.yaml"})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ConfigurationErrorCode))
	})

	t.Run("unknown flag", func(t *testing.T) {
		_, err := LoadConfig(newFlagSet(), []string{"-bogus"})
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, errors.ConfigurationErrorCode))
	})

	t.Run("missing model", func(t *testing.T) {
		_, err := LoadConfig(newFlagSet(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one model file")
	})
}

func TestLoadConfig_EnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "typeshape.env")
	require.NoError(t, os.WriteFile(envFile, []byte("TYPESHAPE_SCHEMA_DIR=from-env-file\n"), 0644))
	t.Setenv(EnvFile, envFile)
	t.Cleanup(func() { os.Unsetenv(EnvSchemaDir) })

	cfg, err := LoadConfig(newFlagSet(), []string{"-model", "shop.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "from-env-file", cfg.SchemaDir)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{ModelFiles: []string{"shop.yaml"}, OutputDir: "gen", PackageName: "params"}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "verbose and quiet", mutate: func(c *Config) { c.Verbose, c.Quiet = true, true }, wantErr: "mutually exclusive"},
		{name: "empty output", mutate: func(c *Config) { c.OutputDir = "" }, wantErr: "output directory"},
		{name: "no models", mutate: func(c *Config) { c.ModelFiles = nil }, wantErr: "at least one model file"},
		{name: "clean needs no models", mutate: func(c *Config) { c.ModelFiles, c.Clean = nil, true }},
		{name: "clean and watch", mutate: func(c *Config) { c.Clean, c.Watch = true, true }, wantErr: "mutually exclusive"},
		{name: "invalid package", mutate: func(c *Config) { c.PackageName = "my-params" }, wantErr: "not a valid package name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
