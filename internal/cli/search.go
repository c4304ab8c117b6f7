package cli

import (
	"encoding/json"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"photomatch/internal/adapter/imageio"
	"photomatch/internal/domain"
)

var (
	searchEvent string
	searchTopK  int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <image>",
	Short: "Rank registered accounts against a query photo",
	Long: `Search the index for the accounts most likely appearing in the query
photo. Results fuse embedding similarity, perceptual-hash similarity,
event metadata and registration frequency into one ranked list.

Examples:
  photomatch search query.jpg
  photomatch search query.jpg --event "TGS 2026" --top-k 5 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringVar(&searchEvent, "event", "", "event tag of the query photo")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "candidate window (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	img, err := imageio.Load(args[0])
	if err != nil {
		return err
	}

	if searchTopK > 0 {
		cfg.Search.TopK = searchTopK
	}

	engine, idx, err := buildEngine()
	if err != nil {
		return err
	}
	defer idx.Close()

	var bar *progressbar.ProgressBar
	if !searchJSON {
		bar = progressbar.NewOptions(100,
			progressbar.OptionSetDescription("Searching"),
			progressbar.OptionSetWidth(40),
		)
	}
	onProgress := func(p domain.SearchProgress) {
		if bar != nil {
			bar.Describe(p.Message)
			bar.Set(p.Percent)
		}
	}

	candidates, err := engine.Search(img, searchEvent, onProgress)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if bar != nil {
		fmt.Println()
	}

	if searchJSON {
		output, _ := json.MarshalIndent(candidates, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(candidates) == 0 {
		fmt.Println("No candidates found.")
		return nil
	}

	fmt.Printf("Top %d candidate accounts:\n\n", len(candidates))
	for i, c := range candidates {
		fmt.Printf("%d. %s (%s)  total %.3f\n", i+1, c.AccountName, c.AccountHandle, c.TotalScore)
		fmt.Printf("   embedding %.3f  hash %.3f  metadata %.2f  frequency %.2f  images %d\n",
			c.EmbeddingScore, c.HashScore, c.MetadataScore, c.FrequencyScore, c.ImageCount)
	}
	return nil
}
