package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/kamusis/pricematch/internal/importer"
	"github.com/spf13/cobra"
)

var flagImportLabel string

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Copy product photos from a folder into the catalog",
	Long: `Copy every supported photo under <dir> into the catalog folder.

Photos already in the catalog with identical content are skipped. A photo
whose name is taken by a different image is stored as
<name>.conflict-<label><ext> for review; 'pricematch doctor fix' removes
those copies once resolved.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&flagImportLabel, "label", "", "Label used in conflict file names (default: source folder name)")
	rootCmd.AddCommand(importCmd)
}

func runImport(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	label := flagImportLabel
	if label == "" {
		label = filepath.Base(src)
	}

	printSection("Import")
	res, err := importer.ImportImages(src, cfg.CatalogDir, label, importer.Options{
		Extensions: cfg.EffectiveImageExtensions(),
		Excludes:   cfg.Excludes,
	})
	if err != nil {
		return fmt.Errorf("import from %s failed: %w", src, err)
	}
	printImportResult(res)
	if res.Imported > 0 {
		printInfo("", "run 'pricematch search --index' to refresh the catalog index")
	}
	return nil
}

func printImportResult(res *importer.Result) {
	printOK("", fmt.Sprintf("%d photo(s) imported", res.Imported-len(res.Conflicts)))
	if res.Skipped > 0 {
		printSkip("", fmt.Sprintf("%d identical photo(s) already in the catalog", res.Skipped))
	}
	if res.Unsupported > 0 {
		printSkip("", fmt.Sprintf("%d file(s) with unsupported extensions ignored", res.Unsupported))
	}
	if len(res.Conflicts) == 0 {
		return
	}
	printBullet(fmt.Sprintf("Conflicts (%d):", len(res.Conflicts)))
	for _, c := range res.Conflicts {
		printWarn(c.Label, fmt.Sprintf("%s kept; incoming photo saved as %s", filepath.Base(c.Original), filepath.Base(c.Conflict)))
	}
}
