package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"photomatch/config"
	"photomatch/internal/adapter/embedding"
	"photomatch/internal/adapter/memindex"
	"photomatch/internal/adapter/store"
	"photomatch/internal/port"
	"photomatch/internal/usecase"
)

var (
	cfgFile   string
	cfg       *config.Config
	rootDir   string
	ephemeral bool
)

var rootCmd = &cobra.Command{
	Use:   "photomatch",
	Short: "Find which registered account most likely appears in a photo",
	Long: `photomatch keeps a durable index of account photos and ranks the
registered accounts against a query photo by fusing embedding similarity,
perceptual-hash similarity, event metadata and registration frequency.

Example usage:
  photomatch register photo.jpg --name "Alice" --handle @alice --event "TGS 2026"
  photomatch search query.jpg --event "TGS 2026"
  photomatch stats`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./photomatch.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory (default is current directory)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep the index in memory, persist nothing")
}

// openIndex builds the configured SimilarityIndex. The bbolt file opens
// lazily, so this never touches disk by itself.
func openIndex() (port.SimilarityIndex, error) {
	if ephemeral || cfg.Index.Ephemeral {
		return memindex.NewMemoryIndex(), nil
	}

	dbPath := config.IndexDBPath(rootDir, cfg)
	if err := config.EnsureDataDir(dbPath); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	return store.NewBoltIndex(dbPath), nil
}

func buildEmbedder() (port.Embedder, error) {
	ec := cfg.Embedding
	switch ec.Provider {
	case "mock":
		return embedding.NewMockEmbedder(ec.Dimension), nil
	case "openai", "local", "":
		return embedding.NewHTTPEmbedder(ec.BaseURL, ec.Model, ec.APIKeyEnv, ec.Dimension)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", ec.Provider)
	}
}

func buildEngine() (*usecase.Engine, port.SimilarityIndex, error) {
	idx, err := openIndex()
	if err != nil {
		return nil, nil, err
	}
	emb, err := buildEmbedder()
	if err != nil {
		return nil, nil, err
	}
	return usecase.NewEngine(idx, emb, cfg.Search.TopK), idx, nil
}
