package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Search.TopK != 10 {
		t.Errorf("expected top_k 10, got %d", cfg.Search.TopK)
	}
	if cfg.Embedding.Provider != "local" {
		t.Errorf("expected local provider, got %s", cfg.Embedding.Provider)
	}
	if cfg.Embedding.Dimension != 512 {
		t.Errorf("expected 512 dimensions, got %d", cfg.Embedding.Dimension)
	}
	if len(cfg.Import.Includes) == 0 {
		t.Error("expected default include globs")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Search.TopK != 10 {
		t.Errorf("expected defaults, got top_k %d", cfg.Search.TopK)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photomatch.yaml")
	data := `
search:
  top_k: 25
embedding:
  provider: mock
index:
  ephemeral: true
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Search.TopK != 25 {
		t.Errorf("expected top_k 25, got %d", cfg.Search.TopK)
	}
	if cfg.Embedding.Provider != "mock" {
		t.Errorf("expected mock provider, got %s", cfg.Embedding.Provider)
	}
	if !cfg.Index.Ephemeral {
		t.Error("expected ephemeral index")
	}
	// Untouched sections keep their defaults.
	if cfg.Embedding.Model != "clip-vit-base-patch32" {
		t.Errorf("expected default model, got %s", cfg.Embedding.Model)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("search: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Search.TopK != 10 {
		t.Errorf("expected defaults in an empty dir, got top_k %d", cfg.Search.TopK)
	}

	nested := filepath.Join(dir, ".photomatch")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(nested, "config.yaml"), []byte("search:\n  top_k: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Search.TopK != 5 {
		t.Errorf("expected nested config, got top_k %d", cfg.Search.TopK)
	}

	// A root-level photomatch.yaml wins over the nested file.
	if err := os.WriteFile(filepath.Join(dir, "photomatch.yaml"), []byte("search:\n  top_k: 7\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err = LoadFromDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Search.TopK != 7 {
		t.Errorf("expected root config to win, got top_k %d", cfg.Search.TopK)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photomatch.yaml")

	cfg := DefaultConfig()
	cfg.Search.TopK = 42
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Search.TopK != 42 {
		t.Errorf("expected top_k 42 after round trip, got %d", loaded.Search.TopK)
	}
}

func TestIndexDBPath(t *testing.T) {
	cfg := DefaultConfig()
	got := IndexDBPath("/data", cfg)
	want := filepath.Join("/data", ".photomatch", "index.db")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	cfg.Index.Path = "/abs/index.db"
	if got := IndexDBPath("/data", cfg); got != "/abs/index.db" {
		t.Errorf("absolute paths must pass through, got %s", got)
	}
}
