package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kamusis/pricematch/internal/catalog"
	"github.com/kamusis/pricematch/internal/search"
	"github.com/spf13/cobra"
)

var (
	flagPricesOut    string
	flagPricesSQLite string
	flagPricesLimit  int
)

var pricesCmd = &cobra.Command{
	Use:   "prices <dir>",
	Short: "Merge price lists from a folder into one list sorted by price",
	Long: `Read every .csv and .txt price list directly inside <dir> and write one
CSV (name,price,url,source) sorted by ascending price, unpriced rows last.

CSV files may have a header (name, price, url/link) or plain name,price[,url]
rows. Text files hold one "name price" pair per line, separated by a tab, a
comma or whitespace; lines starting with # are ignored. Rows whose price
cannot be read are kept without a price and reported as warnings.

With --sqlite the merged list is also written to a SQLite database usable as
metadata_file for 'pricematch search'.`,
	Args: cobra.ExactArgs(1),
	RunE: runPrices,
}

func init() {
	pricesCmd.Flags().StringVarP(&flagPricesOut, "output", "o", "", "Write the CSV to this file instead of stdout")
	pricesCmd.Flags().StringVar(&flagPricesSQLite, "sqlite", "", "Also write the merged list to this SQLite database")
	pricesCmd.Flags().IntVar(&flagPricesLimit, "limit", 0, "Keep only the N cheapest rows (0 = all)")
	rootCmd.AddCommand(pricesCmd)
}

func runPrices(_ *cobra.Command, args []string) error {
	items, warnings, err := catalog.AggregateDir(args[0])
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "  %s  %s\n", iconWarn, w.String())
	}
	items = search.SortItemsByPrice(items, flagPricesLimit)

	var w io.Writer = os.Stdout
	if flagPricesOut != "" {
		f, err := os.Create(flagPricesOut)
		if err != nil {
			return fmt.Errorf("cannot create %s: %w", flagPricesOut, err)
		}
		defer f.Close()
		w = f
	}
	if err := catalog.WriteCSV(w, items); err != nil {
		return fmt.Errorf("cannot write CSV: %w", err)
	}

	if flagPricesOut != "" {
		printOK("", fmt.Sprintf("%d row(s) written: %s", len(items), flagPricesOut))
	}
	if flagPricesSQLite != "" {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := catalog.WriteMetadataSQLite(ctx, flagPricesSQLite, items); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("%d row(s) written: %s", len(items), flagPricesSQLite))
	}
	return nil
}
