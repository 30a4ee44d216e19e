package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// memorydYAMLConfig represents the complete memoryd.yaml file structure.
// Every section is optional; omitted sections fall back entirely to
// built-in defaults.
type memorydYAMLConfig struct {
	Consolidation *ConsolidationConfig `yaml:"consolidation"`
	Embedding     *EmbeddingConfig     `yaml:"embedding"`
	LLM           *LLMConfig           `yaml:"llm"`
	Identity      *IdentityConfig      `yaml:"identity"`
	Dispatcher    *DispatcherConfig    `yaml:"dispatcher"`
	Retention     *RetentionConfig     `yaml:"retention"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load memoryd.yaml from configDir (missing file is not an error — an
//     all-defaults Config is returned)
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge user-defined sections over built-in defaults
//  5. Validate all configuration
//  6. Return Config ready for use
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	log.Info("Configuration initialized successfully",
		"consolidation_summary_threshold_days", cfg.Consolidation.SummaryThresholdDays,
		"embedding_backend", cfg.Embedding.Backend,
		"llm_backend", cfg.LLM.Backend,
		"identity_mode", cfg.Identity.Mode)

	return cfg, nil
}

func load(configDir string) (*Config, error) {
	yamlCfg, err := loadMemorydYAML(configDir)
	if err != nil {
		return nil, err
	}

	consolidation := DefaultConsolidationConfig()
	if yamlCfg.Consolidation != nil {
		if err := mergo.Merge(consolidation, yamlCfg.Consolidation, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge consolidation config: %w", err)
		}
	}

	embedding := DefaultEmbeddingConfig()
	if yamlCfg.Embedding != nil {
		if err := mergo.Merge(embedding, yamlCfg.Embedding, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge embedding config: %w", err)
		}
	}

	llmCfg := DefaultLLMConfig()
	if yamlCfg.LLM != nil {
		if err := mergo.Merge(llmCfg, yamlCfg.LLM, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge llm config: %w", err)
		}
	}

	identity := DefaultIdentityConfig()
	if yamlCfg.Identity != nil {
		if err := mergo.Merge(identity, yamlCfg.Identity, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge identity config: %w", err)
		}
	}

	dispatcher := DefaultDispatcherConfig()
	if yamlCfg.Dispatcher != nil {
		if err := mergo.Merge(dispatcher, yamlCfg.Dispatcher, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge dispatcher config: %w", err)
		}
	}

	retention := DefaultRetentionConfig()
	if yamlCfg.Retention != nil {
		if err := mergo.Merge(retention, yamlCfg.Retention, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge retention config: %w", err)
		}
	}

	return &Config{
		configDir:     configDir,
		Consolidation: consolidation,
		Embedding:     embedding,
		LLM:           llmCfg,
		Identity:      identity,
		Dispatcher:    dispatcher,
		Retention:     retention,
	}, nil
}

// validate performs comprehensive validation on loaded configuration
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

func loadMemorydYAML(configDir string) (*memorydYAMLConfig, error) {
	var cfg memorydYAMLConfig

	path := filepath.Join(configDir, "memoryd.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No user config: every section falls back to built-in defaults.
			return &cfg, nil
		}
		return nil, NewLoadError("memoryd.yaml", err)
	}

	// Expand environment variables using shell-style ${VAR}/$VAR syntax.
	// Missing variables expand to empty string; validation catches
	// required fields left empty by that.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, NewLoadError("memoryd.yaml", fmt.Errorf("%w: %v", ErrInvalidYAML, err))
	}

	return &cfg, nil
}
