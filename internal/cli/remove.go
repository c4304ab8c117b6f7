package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearYes bool

var removeCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Delete one registered image by id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := openIndex()
		if err != nil {
			return err
		}
		defer idx.Close()

		if err := idx.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", args[0])
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every registered image",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			return fmt.Errorf("refusing to clear the index without --yes")
		}

		idx, err := openIndex()
		if err != nil {
			return err
		}
		defer idx.Close()

		if err := idx.Clear(); err != nil {
			return err
		}
		fmt.Println("Index cleared.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "confirm clearing the index")
}
