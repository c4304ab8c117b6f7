package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for photomatch.
type Config struct {
	Index     IndexConfig     `yaml:"index"`
	Search    SearchConfig    `yaml:"search"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Import    ImportConfig    `yaml:"import"`
}

// IndexConfig holds similarity-index storage configuration.
type IndexConfig struct {
	Path      string `yaml:"path"`      // bbolt database file, relative to the working dir
	Ephemeral bool   `yaml:"ephemeral"` // keep the index in memory, persist nothing
}

// SearchConfig holds search configuration.
type SearchConfig struct {
	TopK int `yaml:"top_k"` // candidate window for the cosine scan
}

// EmbeddingConfig holds embedding provider configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "local", "openai", "mock"
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`    // OpenAI-compatible endpoint root
	APIKeyEnv string `yaml:"api_key_env"` // environment variable for the API key
	Dimension int    `yaml:"dimension"`
}

// ImportConfig holds batch-registration configuration.
type ImportConfig struct {
	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Path: filepath.Join(".photomatch", "index.db"),
		},
		Search: SearchConfig{
			TopK: 10,
		},
		Embedding: EmbeddingConfig{
			Provider:  "local",
			Model:     "clip-vit-base-patch32",
			BaseURL:   "http://localhost:8080/v1",
			APIKeyEnv: "",
			Dimension: 512,
		},
		Import: ImportConfig{
			Includes: []string{"**/*.jpg", "**/*.jpeg", "**/*.png", "**/*.gif", "**/*.bmp", "**/*.tif", "**/*.tiff", "**/*.webp"},
			Excludes: []string{"**/.*/**"},
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for
// photomatch.yaml, then .photomatch/config.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "photomatch.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".photomatch", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IndexDBPath resolves the index database path against dir.
func IndexDBPath(dir string, c *Config) string {
	if filepath.IsAbs(c.Index.Path) {
		return c.Index.Path
	}
	return filepath.Join(dir, c.Index.Path)
}

// EnsureDataDir ensures the directory holding the index database exists.
func EnsureDataDir(dbPath string) error {
	return os.MkdirAll(filepath.Dir(dbPath), 0755)
}
