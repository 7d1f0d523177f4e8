// Package config loads simplecoder settings from a YAML file with
// SIMPLECODER_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/martinemde/simplecoder/coder"
	"github.com/martinemde/simplecoder/llm"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SIMPLECODER_"

// Config holds all runtime configuration for a run.
type Config struct {
	WorkingDir string    `yaml:"working_dir"` // SIMPLECODER_WORKING_DIR
	RoleConfig string    `yaml:"role_config"` // SIMPLECODER_ROLE_CONFIG
	SystemLog  string    `yaml:"system_log"`  // SIMPLECODER_SYSTEM_LOG, relative to WorkingDir
	StopToken  string    `yaml:"stop_token"`  // SIMPLECODER_STOP_TOKEN
	MaxEpoch   int       `yaml:"max_epoch"`   // SIMPLECODER_MAX_EPOCH
	ForceCode  bool      `yaml:"force_code"`  // SIMPLECODER_FORCE_CODE
	LLM        LLMConfig `yaml:"llm"`
}

// LLMConfig selects and tunes the model provider.
type LLMConfig struct {
	Provider    string  `yaml:"provider"`    // SIMPLECODER_PROVIDER
	Model       string  `yaml:"model"`       // SIMPLECODER_MODEL
	APIKey      string  `yaml:"api_key"`     // SIMPLECODER_API_KEY, then <PROVIDER>_API_KEY
	MaxTokens   int     `yaml:"max_tokens"`  // SIMPLECODER_MAX_TOKENS
	Temperature float64 `yaml:"temperature"` // SIMPLECODER_TEMPERATURE
	MaxRetries  int     `yaml:"max_retries"` // SIMPLECODER_MAX_RETRIES
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		WorkingDir: "~/temp/simple_coder",
		RoleConfig: "config/simple-coder.txt",
		SystemLog:  "system-log.txt",
		StopToken:  coder.DefaultStopToken,
		MaxEpoch:   coder.DefaultMaxEpoch,
		ForceCode:  true,
		LLM: LLMConfig{
			Provider:    "openai",
			MaxTokens:   4096,
			Temperature: 0.7,
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path or a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	envString(&c.WorkingDir, "WORKING_DIR")
	envString(&c.RoleConfig, "ROLE_CONFIG")
	envString(&c.SystemLog, "SYSTEM_LOG")
	envString(&c.StopToken, "STOP_TOKEN")
	envString(&c.LLM.Provider, "PROVIDER")
	envString(&c.LLM.Model, "MODEL")

	var err error
	if c.MaxEpoch, err = envInt("MAX_EPOCH", c.MaxEpoch); err != nil {
		return err
	}
	if c.LLM.MaxTokens, err = envInt("MAX_TOKENS", c.LLM.MaxTokens); err != nil {
		return err
	}
	if c.LLM.MaxRetries, err = envInt("MAX_RETRIES", c.LLM.MaxRetries); err != nil {
		return err
	}
	if c.ForceCode, err = envBool("FORCE_CODE", c.ForceCode); err != nil {
		return err
	}
	if v := os.Getenv(EnvPrefix + "TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sTEMPERATURE=%q: %w", EnvPrefix, v, err)
		}
		c.LLM.Temperature = t
	}

	// Provider-specific keys only fill a key that is not already set.
	envString(&c.LLM.APIKey, "API_KEY")
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case "openai":
			c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
	return nil
}

// Validate reports the first setting that cannot drive a run.
func (c *Config) Validate() error {
	if c.StopToken == "" {
		return errors.New("stop_token must not be empty")
	}
	if c.MaxEpoch < 0 {
		return fmt.Errorf("max_epoch must be >= 0, got %d", c.MaxEpoch)
	}
	if !llm.KnownProvider(c.LLM.Provider) {
		return fmt.Errorf("unknown llm.provider %q (supported: %v)", c.LLM.Provider, llm.Providers)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must be >= 0, got %d", c.LLM.MaxRetries)
	}
	return nil
}

// RetryPolicy returns the model retry policy for these settings.
func (c *Config) RetryPolicy() llm.RetryPolicy {
	p := llm.DefaultRetryPolicy()
	p.MaxRetries = c.LLM.MaxRetries
	return p
}

func envString(dst *string, key string) {
	if v := os.Getenv(EnvPrefix + key); v != "" {
		*dst = v
	}
}

// envInt reads an integer environment variable, returning def if unset.
func envInt(key string, def int) (int, error) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, key, v, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(EnvPrefix + key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s%s=%q: %w", EnvPrefix, key, v, err)
	}
	return b, nil
}
