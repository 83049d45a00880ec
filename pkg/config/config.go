package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jupierce/lcov-summary/pkg/coverage"
	"github.com/jupierce/lcov-summary/pkg/lcov"
	"github.com/jupierce/lcov-summary/pkg/report"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

const (
	DefaultLCOVPath  = "coverage/lcov.info"
	DefaultExtension = ".dart"
)

// Filter is the filter section of the config file.
type Filter struct {
	Match     string   `yaml:"match"`
	Targets   []string `yaml:"targets"`
	Prefix    string   `yaml:"prefix"`
	Extension string   `yaml:"extension"`
	Extra     string   `yaml:"extra"`
}

// Config is everything needed for one report run.
type Config struct {
	LCOVPath    string  `yaml:"lcov"`
	InputFormat string  `yaml:"input_format"`
	Format      string  `yaml:"format"`
	Width       int     `yaml:"width"`
	FailUnder   float64 `yaml:"fail_under"`
	Filter      Filter  `yaml:"filter"`
}

// Default returns a config with every default filled in and no filter.
func Default() *Config {
	return &Config{
		LCOVPath:    DefaultLCOVPath,
		InputFormat: string(lcov.FormatAuto),
		Format:      string(report.FormatText),
		Width:       report.DefaultWidth,
		Filter: Filter{
			Match:     string(coverage.MatchSuffix),
			Extension: DefaultExtension,
		},
	}
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses YAML on top of the defaults. Unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Validate checks the config without building anything.
func (c *Config) Validate() error {
	if err := c.validateFilter(); err != nil {
		return err
	}
	if c.LCOVPath == "" {
		return fmt.Errorf("%w: lcov path is empty", ErrInvalidConfig)
	}
	if _, err := lcov.ParseFormat(c.InputFormat); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := report.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Width <= 0 {
		return fmt.Errorf("%w: width must be positive, got %d", ErrInvalidConfig, c.Width)
	}
	if c.FailUnder < 0 || c.FailUnder > 100 {
		return fmt.Errorf("%w: fail_under must be within [0, 100], got %g", ErrInvalidConfig, c.FailUnder)
	}
	return nil
}

// validateFilter checks that exactly one of targets and prefix/extra is
// configured. The match mode is checked whichever one it is.
func (c *Config) validateFilter() error {
	if _, err := coverage.ParseMatchMode(c.Filter.Match); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	hasTargets := len(c.Filter.Targets) > 0
	hasPrefix := c.Filter.Prefix != "" || c.Filter.Extra != ""

	switch {
	case hasTargets && hasPrefix:
		return fmt.Errorf("%w: targets and prefix/extra are mutually exclusive", ErrInvalidConfig)
	case hasTargets:
		for _, t := range c.Filter.Targets {
			if strings.TrimSpace(t) != "" {
				return nil
			}
		}
		return fmt.Errorf("%w: every target is blank", ErrInvalidConfig)
	case hasPrefix:
		return nil
	default:
		return fmt.Errorf("%w: no filter configured, set targets or prefix", ErrInvalidConfig)
	}
}

// FilterSpec validates the config and builds the single active filter.
func (c *Config) FilterSpec() (coverage.FilterSpec, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if len(c.Filter.Targets) > 0 {
		mode, _ := coverage.ParseMatchMode(c.Filter.Match)
		return coverage.NewExplicitList(c.Filter.Targets, mode), nil
	}
	return coverage.NewPrefixDirectory(c.Filter.Prefix, c.Filter.Extension, c.Filter.Extra), nil
}
