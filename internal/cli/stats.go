package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	statsHandle string
	statsJSON   bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index and provider state",
	Long: `Show how many images and distinct accounts the index holds and
whether the embedding provider is ready.

Examples:
  photomatch stats
  photomatch stats --handle @alice`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringVar(&statsHandle, "handle", "", "list registered images of one account")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
}

func runStats(cmd *cobra.Command, args []string) error {
	engine, idx, err := buildEngine()
	if err != nil {
		return err
	}
	defer idx.Close()

	if statsHandle != "" {
		recs, err := idx.GetByAccountHandle(statsHandle)
		if err != nil {
			return err
		}
		if statsJSON {
			output, _ := json.MarshalIndent(recs, "", "  ")
			fmt.Println(string(output))
			return nil
		}
		if len(recs) == 0 {
			fmt.Printf("No images registered for %s\n", statsHandle)
			return nil
		}
		fmt.Printf("%d images registered for %s:\n", len(recs), statsHandle)
		for _, r := range recs {
			event := r.EventTag
			if event == "" {
				event = "-"
			}
			fmt.Printf("  %s  %s  event: %s  registered: %s\n",
				r.ID, r.PerceptualHash, event, r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	}

	st, err := engine.Stats()
	if err != nil {
		return err
	}

	if statsJSON {
		output, _ := json.MarshalIndent(st, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	fmt.Printf("Images indexed:    %d\n", st.TotalImages)
	fmt.Printf("Distinct accounts: %d\n", st.UniqueAccountCount)
	fmt.Printf("Embedding model:   %s\n", st.Model)
	fmt.Printf("Provider ready:    %v\n", st.EmbedderReady)

	accounts, err := idx.UniqueAccounts()
	if err != nil {
		return err
	}
	if len(accounts) > 0 {
		fmt.Println("\nTop accounts by registrations:")
		for i, a := range accounts {
			if i >= 10 {
				break
			}
			fmt.Printf("  %3d  %s (%s)\n", a.Count, a.Name, a.Handle)
		}
	}
	return nil
}
