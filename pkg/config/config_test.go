package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jupierce/lcov-summary/pkg/coverage"
)

func TestDecodeExplicitList(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
lcov: build/lcov.info
format: csv
filter:
  match: exact
  targets:
    - lib/map/map_screen.dart
    - lib/login_page.dart
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "build/lcov.info", cfg.LCOVPath)
	assert.Equal(t, "csv", cfg.Format)
	assert.Equal(t, 45, cfg.Width)

	spec, err := cfg.FilterSpec()
	require.NoError(t, err)
	list, ok := spec.(*coverage.ExplicitList)
	require.True(t, ok)
	assert.Equal(t, coverage.MatchExact, list.Mode)
	assert.Len(t, list.Targets, 2)
}

func TestDecodePrefix(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
filter:
  prefix: lib/services/
  extra: lib/main_testable.dart
`))
	require.NoError(t, err)

	spec, err := cfg.FilterSpec()
	require.NoError(t, err)
	assert.Equal(t, &coverage.PrefixDirectoryPlusExtra{
		Prefix:    "lib/services/",
		Extension: ".dart",
		Extra:     "lib/main_testable.dart",
	}, spec)
	assert.Equal(t, DefaultLCOVPath, cfg.LCOVPath)
}

func TestDecodeEmpty(t *testing.T) {
	cfg, err := Decode(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Decode(strings.NewReader("# nothing configured yet\n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecodeRejectsUnknownKeys(t *testing.T) {
	_, err := Decode(strings.NewReader("lcov_path: x\n"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestValidate(t *testing.T) {
	withTargets := func(mutate func(*Config)) *Config {
		c := Default()
		c.Filter.Targets = []string{"lib/a.dart"}
		mutate(c)
		return c
	}
	withPrefix := func(mutate func(*Config)) *Config {
		c := Default()
		c.Filter.Prefix = "lib/"
		mutate(c)
		return c
	}

	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{"valid", withTargets(func(*Config) {}), ""},
		{"no filter", Default(), "no filter configured"},
		{"both filters", withTargets(func(c *Config) { c.Filter.Prefix = "lib/" }), "mutually exclusive"},
		{"blank targets", withTargets(func(c *Config) { c.Filter.Targets = []string{" "} }), "blank"},
		{"bad match", withTargets(func(c *Config) { c.Filter.Match = "glob" }), "invalid match mode"},
		{"bad match with prefix", withPrefix(func(c *Config) { c.Filter.Match = "glob" }), "invalid match mode"},
		{"prefix", withPrefix(func(*Config) {}), ""},
		{"bad format", withTargets(func(c *Config) { c.Format = "xml" }), "invalid output format"},
		{"bad input format", withTargets(func(c *Config) { c.InputFormat = "gcov" }), "invalid input format"},
		{"bad width", withTargets(func(c *Config) { c.Width = 0 }), "width"},
		{"bad threshold", withTargets(func(c *Config) { c.FailUnder = 101 }), "fail_under"},
		{"empty path", withTargets(func(c *Config) { c.LCOVPath = "" }), "lcov path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFilterSpecValidates(t *testing.T) {
	cfg := Default()
	cfg.Filter.Prefix = "lib/"
	cfg.Filter.Match = "glob"
	_, err := cfg.FilterSpec()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg.Filter.Match = "segment"
	cfg.Width = 0
	_, err = cfg.FilterSpec()
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg.Width = 45
	spec, err := cfg.FilterSpec()
	require.NoError(t, err)
	assert.IsType(t, &coverage.PrefixDirectoryPlusExtra{}, spec)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lcov-summary.yaml")
	require.NoError(t, os.WriteFile(path, []byte("width: 60\nfilter:\n  targets: [lib/a.dart]\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Width)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
