package config

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/cutflow/internal/domain/analysis"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CUTFLOW_"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if CUTFLOW_CONFIG is set
//  3. env (prefix CUTFLOW_)
func Load(ctx context.Context) (*Config, error) {
	return LoadFile(ctx, os.Getenv(EnvPrefix+"CONFIG"))
}

// LoadFile is Load with an explicit file path. An empty path skips the file.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	// CUTFLOW_WORKER_COUNT -> worker_count, CUTFLOW_PROCESSES.ggH -> processes.ggH
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		key, sub, _ := strings.Cut(strings.TrimPrefix(s, EnvPrefix), ".")
		key = strings.ToLower(key)
		if sub != "" {
			return key + "." + sub
		}
		return key
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}
	k.Delete("config")

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.RegisterValidation("analysis", validateAnalysis); err != nil {
		return fmt.Errorf("register analysis validator: %w", err)
	}
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.RenderPlots && c.OutputDir == "" {
		return fmt.Errorf("%w: render_plots needs output_dir", ErrInvalidConfig)
	}
	return nil
}

func validateAnalysis(fl validator.FieldLevel) bool {
	return slices.Contains(analysis.Names(), fl.Field().String())
}
