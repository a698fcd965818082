package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// QdrantConfig contains connection details for a Qdrant record store.
type QdrantConfig struct {
	URL         string `yaml:"url"`
	APIKey      string `yaml:"api_key"`
	Collection  string `yaml:"collection"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// StoreConfig selects and configures the record store implementation.
type StoreConfig struct {
	Type   string        `yaml:"type"`
	Qdrant *QdrantConfig `yaml:"qdrant,omitempty"`
}

// EmbedderConfig configures the OpenAI-compatible embeddings endpoint.
type EmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// LLMConfig configures the chat-completion endpoint used for semantic
// answer synthesis. Synthesis is skipped when the key env is unset;
// retrieval still works without it.
type LLMConfig struct {
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	MaxTokens   int     `yaml:"max_tokens"`
	TimeoutSecs int     `yaml:"timeout_secs"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Store     StoreConfig    `yaml:"store"`
	Embedder  EmbedderConfig `yaml:"embedder"`
	LLM       LLMConfig      `yaml:"llm"`
	Timezone  string         `yaml:"timezone"`
	DataDir   string         `yaml:"data_dir"`
	BatchSize int            `yaml:"batch_size"`
}

// Load reads a config from the given path. A missing file yields defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{}
	applyConfigDefaults(cfg)
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Store.Type == "" {
		cfg.Store.Type = "qdrant"
	}
	if cfg.Store.Type == "qdrant" {
		if cfg.Store.Qdrant == nil {
			cfg.Store.Qdrant = &QdrantConfig{}
		}
		if cfg.Store.Qdrant.URL == "" {
			cfg.Store.Qdrant.URL = "http://localhost:6333"
		}
		if cfg.Store.Qdrant.Collection == "" {
			cfg.Store.Qdrant.Collection = "smartmeter_master"
		}
		if cfg.Store.Qdrant.TimeoutSecs == 0 {
			cfg.Store.Qdrant.TimeoutSecs = 15
		}
	}
	if cfg.Embedder.BaseURL == "" {
		cfg.Embedder.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Embedder.APIKeyEnv == "" {
		cfg.Embedder.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder.Model = "text-embedding-3-small"
	}
	if cfg.Embedder.TimeoutSecs == 0 {
		cfg.Embedder.TimeoutSecs = 30
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://integrate.api.nvidia.com/v1"
	}
	if cfg.LLM.APIKeyEnv == "" {
		cfg.LLM.APIKeyEnv = "NVIDIA_API_KEY"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "openai/gpt-oss-120b"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.2
	}
	if cfg.LLM.TopP == 0 {
		cfg.LLM.TopP = 0.7
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.LLM.TimeoutSecs == 0 {
		cfg.LLM.TimeoutSecs = 60
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "Europe/Amsterdam"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "sample_logs"
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 1000
	}
}
