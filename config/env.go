package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gogpu/ggshot"
)

// Environment variables read by FromEnv.
const (
	EnvRecord          = "GGSHOT_TEST_RECORD"
	EnvCompare         = "GGSHOT_TEST_COMPARE"
	EnvVerify          = "GGSHOT_TEST_VERIFY"
	EnvResizeScale     = "GGSHOT_RESIZE_SCALE"
	EnvChangeThreshold = "GGSHOT_CHANGE_THRESHOLD"
	EnvGoldenDir       = "GGSHOT_GOLDEN_DIR"
	EnvOutputDir       = "GGSHOT_OUTPUT_DIR"
	EnvResultDir       = "GGSHOT_RESULT_DIR"
	EnvFailurePolicy   = "GGSHOT_FAILURE_POLICY"
	EnvNaming          = "GGSHOT_NAMING"
)

// FromEnv overrides c with the GGSHOT_* variables that are set and
// validates the result.
func (c *Config) FromEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	bools := []struct {
		key string
		dst *bool
	}{
		{EnvRecord, &c.Record},
		{EnvCompare, &c.Compare},
		{EnvVerify, &c.Verify},
	}
	for _, b := range bools {
		v, ok := lookup(b.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: config: %s=%q", ggshot.ErrInvalidArgument, b.key, v)
		}
		*b.dst = parsed
	}

	floats := []struct {
		key string
		dst *float64
	}{
		{EnvResizeScale, &c.ResizeScale},
		{EnvChangeThreshold, &c.ChangeThreshold},
	}
	for _, f := range floats {
		v, ok := lookup(f.key)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: config: %s=%q", ggshot.ErrInvalidArgument, f.key, v)
		}
		*f.dst = parsed
	}

	strs := []struct {
		key string
		dst *string
	}{
		{EnvGoldenDir, &c.GoldenDir},
		{EnvOutputDir, &c.OutputDir},
		{EnvResultDir, &c.ResultDir},
		{EnvFailurePolicy, &c.FailurePolicy},
		{EnvNaming, &c.Naming},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok && v != "" {
			*s.dst = v
		}
	}
	return c.Validate()
}
