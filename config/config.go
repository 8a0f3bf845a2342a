// Package config provides YAML-backed configuration for promptfit's
// engine, tokenizer selection and storage backends.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/promptfit/store"
)

// EngineConfig configures the fit engine.
type EngineConfig struct {
	// MaxIterations bounds the measure/reduce loop. 0 means the engine
	// default.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
}

// TokenizerConfig selects the token counting implementation.
type TokenizerConfig struct {
	// Model keys the tokenizer registry; unregistered models fall back to
	// the character-ratio estimator.
	Model string `json:"model" yaml:"model"`
}

// Config is the root configuration.
type Config struct {
	Engine    EngineConfig    `json:"engine" yaml:"engine"`
	Tokenizer TokenizerConfig `json:"tokenizer" yaml:"tokenizer"`
	Store     store.Config    `json:"store" yaml:"store"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Engine:    EngineConfig{MaxIterations: 100},
		Tokenizer: TokenizerConfig{Model: "gpt-4o"},
		Store:     store.DefaultConfig(),
	}
}

// Load reads a YAML file over the defaults and applies environment
// overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overrides a handful of deployment-sensitive fields from the
// environment, so containerized deployments need no file edits.
func (c *Config) applyEnv() {
	if v := os.Getenv("PROMPTFIT_REDIS_ADDR"); v != "" {
		c.Store.Redis.Addr = v
	}
	if v := os.Getenv("PROMPTFIT_REDIS_PASSWORD"); v != "" {
		c.Store.Redis.Password = v
	}
	if v := os.Getenv("PROMPTFIT_STORE_BACKEND"); v != "" {
		c.Store.Backend = store.Backend(v)
	}
	if v := os.Getenv("PROMPTFIT_TOKENIZER_MODEL"); v != "" {
		c.Tokenizer.Model = v
	}
	if v := os.Getenv("PROMPTFIT_MAX_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Engine.MaxIterations = n
		}
	}
}
