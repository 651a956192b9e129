package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kamusis/pricematch/internal/catalog"
	"github.com/kamusis/pricematch/internal/search"
	"github.com/spf13/cobra"
)

var (
	flagFilterSource string
	flagFilterWhere  []string
	flagFilterLimit  int
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter a tabular product catalog by attributes, cheapest first",
	Long: `Keep the catalog rows whose fields contain every --where value
(case-insensitive substring match) and list them by ascending price.

The catalog is a CSV file or http(s) URL with a header row: key, name,
url/link and price are recognized, every other column is an attribute.
Without --source, filter_source from the config is used, falling back to
the metadata file.

Predicates may also be given as field=value arguments.

Examples:
  pricematch filter --where color=red --where type=sneaker
  pricematch filter color=red type=sneaker
  pricematch filter --source https://shop.example/catalog.csv --where design=stripe`,
	Args: cobra.ArbitraryArgs,
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().StringVar(&flagFilterSource, "source", "", "Catalog CSV path or URL (default from config)")
	filterCmd.Flags().StringArrayVar(&flagFilterWhere, "where", nil, "Attribute predicate field=value (repeatable)")
	filterCmd.Flags().IntVar(&flagFilterLimit, "limit", 0, "Maximum number of products to show (0 = config max_results)")
	rootCmd.AddCommand(filterCmd)
}

func runFilter(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	preds, err := filterPredicates(args, flagFilterWhere)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	source := flagFilterSource
	if source == "" {
		source = cfg.FilterSource
	}

	var items []catalog.Item
	if source != "" {
		var warnings []catalog.Warning
		items, warnings, err = catalog.OpenCatalog(ctx, nil, source)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			printWarn("", w.String())
		}
	} else {
		md, err := catalog.LoadMetadata(ctx, cfg.MetadataFile)
		if err != nil {
			return err
		}
		if md.Len() == 0 {
			return fmt.Errorf("no catalog to filter: set --source or filter_source, or add %s", cfg.MetadataFile)
		}
		source = cfg.MetadataFile
		items = md.Items()
	}

	r := &search.Retriever{MaxResults: cfg.MaxResults}
	results := r.FilterCatalog(items, preds, flagFilterLimit)

	fmt.Printf("\npricematch filter %s\n\n", source)
	writeResults(os.Stdout, results)
	return nil
}

// filterPredicates merges positional field=value args with --where values.
// A field given in both keeps the --where value.
func filterPredicates(args, where []string) (search.Predicates, error) {
	pairs := make([]string, 0, len(args)+len(where))
	pairs = append(pairs, args...)
	pairs = append(pairs, where...)
	return search.ParsePredicates(pairs)
}
