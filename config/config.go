// Package config loads capture settings from a YAML file and GGSHOT_*
// environment variables.
//
// Example file:
//
//	verify: true
//	resize_scale: 0.5
//	change_threshold: 0.01
//	output_dir: build/screenshots
//	result_dir: build/screenshots/results
//	failure_policy: deferred
//	naming: class_method
//	context_data:
//	  device: pixel-7
//	gif:
//	  delay: 100ms
//	  repeat: 0
//	  quality: 10
//
// Environment variables override the file, so CI can switch a suite from
// verifying to recording without editing it.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/ggshot"
	"github.com/gogpu/ggshot/capture"
	"github.com/gogpu/ggshot/compare"
	"github.com/gogpu/ggshot/gif"
	"github.com/gogpu/ggshot/naming"
)

// Config holds the capture settings.
type Config struct {
	Record  bool `yaml:"record"`
	Compare bool `yaml:"compare"`
	Verify  bool `yaml:"verify"`

	ResizeScale     float64 `yaml:"resize_scale"`
	ChangeThreshold float64 `yaml:"change_threshold"`
	// Tolerance is the per-pixel color distance treated as equal. 0 uses
	// compare.DefaultTolerance.
	Tolerance float64 `yaml:"tolerance"`

	GoldenDir string `yaml:"golden_dir"`
	OutputDir string `yaml:"output_dir"`
	ResultDir string `yaml:"result_dir"`

	FailurePolicy string            `yaml:"failure_policy"` // immediate | deferred
	Naming        string            `yaml:"naming"`         // package_class_method | class_method | escaped
	ContextData   map[string]string `yaml:"context_data"`

	GIF GIFConfig `yaml:"gif"`
}

// GIFConfig controls animated captures.
type GIFConfig struct {
	Delay   time.Duration `yaml:"delay"`
	Repeat  int           `yaml:"repeat"`
	Quality int           `yaml:"quality"`
}

// Default returns the settings used when nothing is configured. No task
// facet is set, so captures are disabled until one is.
func Default() *Config {
	return &Config{
		ResizeScale:   1,
		GoldenDir:     capture.DefaultGoldenDir,
		FailurePolicy: capture.FailImmediately.String(),
		Naming:        naming.PackageClassMethod.String(),
		GIF: GIFConfig{
			Delay:   100 * time.Millisecond,
			Quality: gif.DefaultSample,
		},
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ggshot.Logger().Debug("config: loaded", "path", path, "task", cfg.TaskType())
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if c.ResizeScale <= 0 || math.IsNaN(c.ResizeScale) || math.IsInf(c.ResizeScale, 0) {
		return fmt.Errorf("%w: config: resize_scale must be > 0, got %v", ggshot.ErrInvalidArgument, c.ResizeScale)
	}
	if _, err := compare.NewThresholdValidator(c.ChangeThreshold); err != nil {
		return fmt.Errorf("config: change_threshold: %w", err)
	}
	if c.Tolerance < 0 || c.Tolerance > 1 {
		return fmt.Errorf("%w: config: tolerance must be in [0, 1], got %v", ggshot.ErrInvalidArgument, c.Tolerance)
	}
	if _, err := capture.ParseFailurePolicy(c.FailurePolicy); err != nil {
		return fmt.Errorf("config: failure_policy: %w", err)
	}
	if _, err := naming.ParseStrategy(c.Naming); err != nil {
		return fmt.Errorf("config: naming: %w", err)
	}
	if c.GIF.Delay < 0 {
		return fmt.Errorf("%w: config: gif.delay must not be negative", ggshot.ErrInvalidArgument)
	}
	return nil
}

// TaskType derives the task type from the record, compare and verify
// flags.
func (c *Config) TaskType() capture.TaskType {
	return capture.TaskTypeFrom(c.Record, c.Compare, c.Verify)
}

// Options returns pipeline options for the configuration.
func (c *Config) Options() ([]capture.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	validator, _ := compare.NewThresholdValidator(c.ChangeThreshold)
	policy, _ := capture.ParseFailurePolicy(c.FailurePolicy)
	strategy, _ := naming.ParseStrategy(c.Naming)

	opts := []capture.Option{
		capture.WithTaskType(c.TaskType()),
		capture.WithValidator(validator),
		capture.WithComparator(compare.Comparator{Tolerance: c.Tolerance}),
		capture.WithResizeScale(c.ResizeScale),
		capture.WithFailurePolicy(policy),
		capture.WithNamingStrategy(strategy),
		capture.WithContextData(c.ContextData),
	}
	if c.GoldenDir != "" {
		opts = append(opts, capture.WithGoldenDir(c.GoldenDir))
	}
	if c.OutputDir != "" {
		opts = append(opts, capture.WithOutputDir(c.OutputDir))
	}
	if c.ResultDir != "" {
		opts = append(opts, capture.WithResultDir(c.ResultDir))
	}
	return opts, nil
}

// GIFOptions returns encoder options for animated captures.
func (c *Config) GIFOptions() []gif.Option {
	return []gif.Option{
		gif.WithDelay(c.GIF.Delay),
		gif.WithRepeat(c.GIF.Repeat),
		gif.WithQuality(c.GIF.Quality),
	}
}

// Pipeline builds a capture pipeline from the configuration.
func (c *Config) Pipeline(extra ...capture.Option) (*capture.Pipeline, error) {
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}
	return capture.New(append(opts, extra...)...), nil
}
