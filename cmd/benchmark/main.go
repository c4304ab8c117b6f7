// Benchmark seeds an in-memory index with synthetic records and measures
// the brute-force search pipeline at increasing corpus sizes. Useful for
// sanity-checking the linear-scan design point before an event.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"photomatch/internal/adapter/embedding"
	"photomatch/internal/adapter/memindex"
	"photomatch/internal/domain"
	"photomatch/internal/usecase"
)

func main() {
	sizes := flag.String("sizes", "100,500,1000,5000", "comma-separated corpus sizes")
	dimension := flag.Int("dim", 512, "embedding dimension")
	topK := flag.Int("k", 10, "candidate window")
	accounts := flag.Int("accounts", 50, "distinct accounts to spread records over")
	flag.Parse()

	embedder := embedding.NewMockEmbedder(*dimension)

	fmt.Println("SEARCH PIPELINE BENCHMARK")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Dimension: %d  TopK: %d  Accounts: %d\n\n", *dimension, *topK, *accounts)

	for _, field := range strings.Split(*sizes, ",") {
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(field), "%d", &n); err != nil || n <= 0 {
			fmt.Fprintf(os.Stderr, "skipping invalid size %q\n", field)
			continue
		}

		idx := memindex.NewMemoryIndex()
		engine := usecase.NewEngine(idx, embedder, *topK)

		rng := rand.New(rand.NewSource(42))
		var query domain.Image
		for i := 0; i < n; i++ {
			img := syntheticImage(rng)
			if i == 0 {
				query = img
			}
			handle := fmt.Sprintf("@account%03d", i%*accounts)
			if _, err := engine.Register(img, handle[1:], handle, "benchmark"); err != nil {
				fmt.Fprintf(os.Stderr, "register failed: %v\n", err)
				os.Exit(1)
			}
		}

		start := time.Now()
		candidates, err := engine.Search(query, "benchmark", nil)
		elapsed := time.Since(start)
		if err != nil {
			fmt.Fprintf(os.Stderr, "search failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("corpus %6d  search %10s  candidates %3d  top %.3f\n",
			n, elapsed.Round(time.Microsecond), len(candidates), candidates[0].TotalScore)
	}
}

// syntheticImage generates a small random bitmap; content does not
// matter, only that each one hashes and embeds to distinct values.
func syntheticImage(rng *rand.Rand) domain.Image {
	const w, h = 64, 64
	pix := make([]uint8, 4*w*h)
	rng.Read(pix)
	for i := 3; i < len(pix); i += 4 {
		pix[i] = 255
	}
	return domain.Image{Width: w, Height: h, Pix: pix}
}
