package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/kamusis/pricematch/internal/catalog"
	searchindex "github.com/kamusis/pricematch/internal/search/index"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catalog, metadata and index state",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	exts := cfg.EffectiveImageExtensions()

	fmt.Println("=== Catalog ===")
	photos, catalogErr := searchindex.DiscoverImages(cfg.CatalogDir, exts)
	if catalogErr != nil {
		printErr("", catalogErr.Error())
	} else {
		printOK("", fmt.Sprintf("%d photo(s) in %s", len(photos), cfg.CatalogDir))
	}

	fmt.Println("\n=== Metadata ===")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	md, err := catalog.LoadMetadata(ctx, cfg.MetadataFile)
	switch {
	case err != nil:
		printErr("", err.Error())
	case md.Len() == 0:
		printMiss("", fmt.Sprintf("no records (%s)", emptyAsNA(cfg.MetadataFile)))
	default:
		printOK("", fmt.Sprintf("%d record(s) in %s", md.Len(), cfg.MetadataFile))
	}

	fmt.Println("\n=== Index ===")
	indexDir, err := cfg.EffectiveIndexDir()
	if err != nil {
		return err
	}
	idx, err := searchindex.Load(indexDir)
	if err != nil {
		printMiss("", fmt.Sprintf("no index at %s (run 'pricematch search --index')", indexDir))
		return nil
	}
	m := idx.Manifest
	printOK("", fmt.Sprintf("%d photo(s) indexed with %s (dim %d), built %s", len(idx.Entries), m.ModelID, m.Dim, m.CreatedAt))
	if n := len(m.Skipped); n > 0 {
		printWarn("", fmt.Sprintf("%d photo(s) skipped at build time (see 'pricematch doctor')", n))
	}
	if catalogErr == nil {
		stale, err := searchindex.Stale(idx, cfg.CatalogDir, exts)
		switch {
		case err != nil:
			printErr("", err.Error())
		case stale:
			printInfo("", "catalog changed since the last build; the next search rebuilds the index")
		default:
			printOK("", "index matches the catalog")
		}
	}
	return nil
}
