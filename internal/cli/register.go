package cli

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"photomatch/internal/adapter/fs"
	"photomatch/internal/adapter/imageio"
)

var (
	registerName   string
	registerHandle string
	registerEvent  string
)

var registerCmd = &cobra.Command{
	Use:   "register <image-or-directory>",
	Short: "Register confirmed photos of an account",
	Long: `Register one image, or every matching image under a directory, as
confirmed photos of the given account. Registered photos become search
candidates immediately.

Examples:
  photomatch register photo.jpg --name "Alice" --handle @alice
  photomatch register ./shoots/tgs --name "Alice" --handle @alice --event "TGS 2026"`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().StringVar(&registerName, "name", "", "account display name (required)")
	registerCmd.Flags().StringVar(&registerHandle, "handle", "", "account handle (required)")
	registerCmd.Flags().StringVar(&registerEvent, "event", "", "event tag, e.g. \"TGS 2026\"")
	registerCmd.MarkFlagRequired("name")
	registerCmd.MarkFlagRequired("handle")
}

func runRegister(cmd *cobra.Command, args []string) error {
	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	engine, idx, err := buildEngine()
	if err != nil {
		return err
	}
	defer idx.Close()

	if !info.IsDir() {
		img, err := imageio.Load(path)
		if err != nil {
			return err
		}
		id, err := engine.Register(img, registerName, registerHandle, registerEvent)
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		fmt.Printf("Registered %s as %s (%s): %s\n", path, registerHandle, registerName, id)
		return nil
	}

	walker := fs.NewWalker(cfg.Import.Includes, cfg.Import.Excludes)
	files, err := walker.Walk(path)
	if err != nil {
		return fmt.Errorf("failed to scan directory: %w", err)
	}
	if len(files) == 0 {
		fmt.Println("No matching images found.")
		return nil
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("Registering"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
	)

	registered := 0
	var failures []string
	for _, f := range files {
		img, err := imageio.Load(f.Path)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", f.Path, err))
			bar.Add(1)
			continue
		}
		if _, err := engine.Register(img, registerName, registerHandle, registerEvent); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", f.Path, err))
			bar.Add(1)
			continue
		}
		registered++
		bar.Add(1)
	}
	fmt.Println()

	fmt.Printf("Registered %d/%d images for %s (%s)\n", registered, len(files), registerHandle, registerName)
	for _, f := range failures {
		fmt.Fprintf(os.Stderr, "  failed: %s\n", f)
	}
	if registered == 0 && len(failures) > 0 {
		return fmt.Errorf("no images registered")
	}
	return nil
}
