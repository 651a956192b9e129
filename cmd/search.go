package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/kamusis/pricematch/internal/catalog"
	"github.com/kamusis/pricematch/internal/config"
	"github.com/kamusis/pricematch/internal/embeddings"
	"github.com/kamusis/pricematch/internal/search"
	searchindex "github.com/kamusis/pricematch/internal/search/index"
	"github.com/spf13/cobra"
)

var (
	flagSearchIndex bool
	flagSearchK     int
	flagSearchLimit int
	flagSearchForce bool
)

var searchCmd = &cobra.Command{
	Use:   "search <image>",
	Short: "Find catalog products that look like an image, cheapest first",
	Long: `Find the catalog photos most similar to <image> and list their products
sorted by ascending price. Products without a price are listed last.

The catalog index (~/.pricematch/index) is built on first use and refreshed
whenever the catalog folder changes. Use --index to rebuild it explicitly.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&flagSearchIndex, "index", false, "Build/update the catalog index and exit")
	searchCmd.Flags().IntVar(&flagSearchK, "k", 0, "Number of similar photos to consider (default from config, 10)")
	searchCmd.Flags().IntVar(&flagSearchLimit, "limit", 0, "Maximum number of products to show (0 = all)")
	searchCmd.Flags().BoolVar(&flagSearchForce, "force", false, "Re-embed every catalog photo even if unchanged")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	prov, err := loadProvider()
	if err != nil {
		return err
	}
	opts, err := buildOptions(cfg, flagSearchForce)
	if err != nil {
		return err
	}

	if flagSearchIndex {
		return runSearchIndex(prov, opts)
	}
	if len(args) == 0 {
		return cmd.Help()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	// Skipped photos are reported through the logger while the index builds.
	store, err := searchindex.NewCache(searchindex.StoreLoader(prov, opts)).Get(ctx)
	if err != nil {
		return err
	}
	slog.Debug("catalog index ready", "dir", opts.OutDir, "model", prov.ModelID(), "entries", store.Len())

	md, err := catalog.LoadMetadata(ctx, cfg.MetadataFile)
	if err != nil {
		return err
	}
	if md.Len() == 0 {
		slog.Debug("no catalog metadata, showing defaults", "file", cfg.MetadataFile)
	}

	img, err := embeddings.LoadImage(args[0])
	if err != nil {
		return fmt.Errorf("cannot read query image: %w", err)
	}

	k := cfg.EffectiveTopK()
	if flagSearchK > 0 {
		k = flagSearchK
	}
	limit := cfg.MaxResults
	if cmd.Flags().Changed("limit") {
		limit = flagSearchLimit
	}
	r := &search.Retriever{Store: store, Metadata: md, TopK: k, MaxResults: limit}

	results, err := r.SimilarImage(ctx, prov, img)
	if err != nil {
		if errors.Is(err, embeddings.ErrNoSignal) || errors.Is(err, searchindex.ErrZeroVector) {
			return fmt.Errorf("query image %s has no usable content: %w", args[0], err)
		}
		return err
	}

	fmt.Printf("\npricematch search %q\n\n", args[0])
	writeResults(os.Stdout, results)
	return nil
}

func runSearchIndex(prov embeddings.Provider, opts searchindex.BuildOptions) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	printInfo("", fmt.Sprintf("building catalog index using %s", prov.ModelID()))
	res, err := searchindex.Install(ctx, prov, opts)
	if err != nil {
		return err
	}
	printBuildSummary(res, opts.OutDir)
	return nil
}

// loadProvider builds the embeddings provider from ~/.pricematch/.env and the environment.
func loadProvider() (embeddings.Provider, error) {
	embCfg, err := embeddings.LoadConfig()
	if err != nil {
		return nil, err
	}
	return embeddings.NewFromConfig(embCfg)
}

// buildOptions maps the config onto index build options.
func buildOptions(cfg *config.Config, force bool) (searchindex.BuildOptions, error) {
	if cfg.CatalogDir == "" {
		return searchindex.BuildOptions{}, fmt.Errorf("catalog_dir is not configured")
	}
	indexDir, err := cfg.EffectiveIndexDir()
	if err != nil {
		return searchindex.BuildOptions{}, err
	}
	return searchindex.BuildOptions{
		CatalogDir: cfg.CatalogDir,
		OutDir:     indexDir,
		Extensions: cfg.EffectiveImageExtensions(),
		Force:      force,
		Logger:     slog.Default(),
	}, nil
}

func printBuildSummary(res *searchindex.BuildResult, dir string) {
	printOK("", fmt.Sprintf("catalog index written: %s (%d photos: %d embedded, %d reused)",
		dir, len(res.Index.Entries), res.Embedded, res.Reused))
	if len(res.Skipped) == 0 {
		return
	}
	printBullet(fmt.Sprintf("Skipped photos (%d):", len(res.Skipped)))
	for _, s := range res.Skipped {
		printSkip(s.File, s.Reason)
	}
}

// formatPrice renders a price for display; absent prices read "no price".
func formatPrice(p catalog.Price) string {
	if !p.Valid() {
		return "no price"
	}
	return p.String()
}

// writeResults prints ranked products as a numbered table.
func writeResults(w io.Writer, results []search.RankedResult) {
	fmt.Fprintf(w, "Results (%d found):\n", len(results))
	if len(results) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for i, r := range results {
		score := ""
		if r.Scored {
			score = fmt.Sprintf("[%.3f]", r.Similarity)
		}
		fmt.Fprintf(tw, "  %d.\t%s\t%s\t%s\n", i+1, r.Item.DisplayName(), formatPrice(r.Item.Price), score)
		link := r.Item.URL
		if link == "" {
			link = catalog.PlaceholderURL
		}
		fmt.Fprintf(tw, "  \t  link: %s\n", link)
		if r.Image != "" {
			fmt.Fprintf(tw, "  \t  photo: %s\n", r.Image)
		}
	}
	_ = tw.Flush()
}
