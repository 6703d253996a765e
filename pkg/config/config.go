// Package config loads profiler settings from a YAML file.
package config

import (
	"os"
	"time"

	"emperror.dev/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/danpilch/stackprof/pkg/calltree"
	"github.com/danpilch/stackprof/pkg/output"
	"github.com/danpilch/stackprof/pkg/profiler"
	"github.com/danpilch/stackprof/pkg/store"
)

// Capture sources selectable from the configuration.
const (
	SourceProbe     = "probe"
	SourceGoroutine = "goroutine"
)

// Config holds the settings shared by the CLI commands.
type Config struct {
	Interval   time.Duration `yaml:"interval"`
	Program    string        `yaml:"program,omitempty"`
	Source     string        `yaml:"source"`
	Format     string        `yaml:"format"`
	Mode       string        `yaml:"mode"`
	Limit      int           `yaml:"limit"`
	MinPercent float64       `yaml:"min_percent"`
	SessionDir string        `yaml:"session_dir"`
	LogLevel   string        `yaml:"log_level"`

	// Deprecated: accepted for old configuration files and ignored.
	UseSignal *bool `yaml:"use_signal,omitempty"`
	// Deprecated: accepted for old configuration files and ignored.
	Recorder string `yaml:"recorder,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Interval:   profiler.DefaultInterval,
		Source:     SourceProbe,
		Format:     string(output.FormatTable),
		Mode:       calltree.ModeRoot.String(),
		Limit:      output.DefaultLimit,
		SessionDir: store.DefaultDir(),
		LogLevel:   logrus.WarnLevel.String(),
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.WrapIff(err, "failed to read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.WrapIff(err, "failed to parse config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.WrapIff(err, "invalid config %s", path)
	}
	return cfg, nil
}

// Validate checks every field that has a fixed set of values.
func (c Config) Validate() error {
	if c.Interval < 0 {
		return errors.Errorf("interval must not be negative, got %v", c.Interval)
	}
	if c.Source != SourceProbe && c.Source != SourceGoroutine {
		return errors.Errorf("unknown source %q (valid: %s, %s)", c.Source, SourceProbe, SourceGoroutine)
	}
	if _, err := output.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := calltree.ParseMode(c.Mode); err != nil {
		return err
	}
	if c.Limit < 0 {
		return errors.Errorf("limit must not be negative, got %d", c.Limit)
	}
	if c.MinPercent < 0 || c.MinPercent > 100 {
		return errors.Errorf("min_percent must be within [0, 100], got %v", c.MinPercent)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.WrapIf(err, "invalid log_level")
	}
	return nil
}

// ProfilerOptions converts the configuration into profiler options.
// Deprecated fields are passed through so the profiler can warn about them.
func (c Config) ProfilerOptions(logger *logrus.Logger) profiler.Options {
	opts := profiler.DefaultOptions()
	opts.Interval = c.Interval
	if c.Program != "" {
		opts.Program = c.Program
	}
	opts.Logger = logger
	opts.UseSignal = c.UseSignal
	if c.Recorder != "" {
		opts.Recorder = c.Recorder
	}
	return opts
}
