package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kamusis/pricematch/internal/catalog"
	"github.com/kamusis/pricematch/internal/config"
	"github.com/kamusis/pricematch/internal/embeddings"
	"github.com/kamusis/pricematch/internal/importer"
	searchindex "github.com/kamusis/pricematch/internal/search/index"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that pricematch's config, catalog, metadata, embeddings provider and
index are usable. Run this command when something seems wrong, or before
filing a bug report.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.AddCommand(doctorFixCmd)
	rootCmd.AddCommand(doctorCmd)
}

var doctorFixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Automatically fix detected issues",
	Long: `Fix detected issues in the pricematch environment.

Currently fixes:
  - Unresolved import conflicts: deletes all .conflict-* photos from the catalog

Run 'pricematch doctor' first to see what will be fixed.`,
	RunE: runDoctorFix,
}

func runDoctorFix(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	printSection("pricematch doctor fix")

	fmt.Println("\n[ Unresolved conflicts ]")
	conflicts, err := importer.FindConflicts(cfg.CatalogDir)
	if err != nil {
		return fmt.Errorf("cannot scan catalog: %w", err)
	}
	if len(conflicts) == 0 {
		printOK("", "no conflict photos found — nothing to fix")
		return nil
	}

	var failed int
	for _, p := range conflicts {
		name := filepath.Base(p)
		if err := os.Remove(p); err != nil {
			printErr("", fmt.Sprintf("cannot delete %s: %v", name, err))
			failed++
		} else {
			printOK("", fmt.Sprintf("deleted %s", name))
		}
	}

	fmt.Println()
	if failed > 0 {
		return fmt.Errorf("%d file(s) could not be deleted", failed)
	}
	printOK("", fmt.Sprintf("%d conflict photo(s) removed.", len(conflicts)))
	return nil
}

func runDoctor(_ *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("pricematch doctor")
	fmt.Println()

	// ── Check 1: config.yaml is valid ─────────────────────────────────────────
	fmt.Println("[ config.yaml ]")
	cfgPath, _ := config.ConfigPath()
	cfg, loadErr := config.Load()
	switch {
	case errors.Is(loadErr, os.ErrNotExist):
		failD("%s not found — run 'pricematch init' first", cfgPath)
	case loadErr != nil:
		failD("cannot parse config: %v", loadErr)
	default:
		printOK("", fmt.Sprintf("valid YAML: %s", cfgPath))
		if cfg.CatalogDir == "" {
			failD("catalog_dir is empty")
		}
	}
	fmt.Println()

	// ── Check 2: catalog folder ───────────────────────────────────────────────
	fmt.Println("[ Catalog ]")
	if loadErr == nil {
		photos, err := searchindex.DiscoverImages(cfg.CatalogDir, cfg.EffectiveImageExtensions())
		switch {
		case err != nil:
			failD("%v", err)
		case len(photos) == 0:
			printWarn("", fmt.Sprintf("no photos in %s — run 'pricematch import <dir>'", cfg.CatalogDir))
		default:
			printOK("", fmt.Sprintf("%d photo(s) in %s", len(photos), cfg.CatalogDir))
		}
	} else {
		printWarn("", "skipped (config not loaded)")
	}
	fmt.Println()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// ── Check 3: metadata ─────────────────────────────────────────────────────
	fmt.Println("[ Metadata ]")
	if loadErr == nil {
		md, err := catalog.LoadMetadata(ctx, cfg.MetadataFile)
		switch {
		case err != nil:
			failD("cannot load metadata: %v", err)
		case md.Len() == 0:
			printWarn("", "no metadata records — results will show keys without prices")
		default:
			printOK("", fmt.Sprintf("%d record(s) in %s", md.Len(), cfg.MetadataFile))
		}
	} else {
		printWarn("", "skipped (config not loaded)")
	}
	fmt.Println()

	// ── Check 4: embeddings provider ──────────────────────────────────────────
	fmt.Println("[ Embeddings ]")
	prov, provErr := loadProvider()
	if provErr != nil {
		failD("embeddings provider not usable: %v", provErr)
	} else {
		printOK("", fmt.Sprintf("provider ready: %s", prov.ModelID()))
	}
	fmt.Println()

	// ── Check 5: index ────────────────────────────────────────────────────────
	fmt.Println("[ Index ]")
	if loadErr == nil {
		checkIndex(cfg, prov, failD)
	} else {
		printWarn("", "skipped (config not loaded)")
	}
	fmt.Println()

	// ── Check 6: unresolved import conflicts ──────────────────────────────────
	fmt.Println("[ Unresolved conflicts ]")
	if loadErr == nil {
		conflicts, err := importer.FindConflicts(cfg.CatalogDir)
		switch {
		case err != nil && !os.IsNotExist(err):
			failD("cannot scan catalog: %v", err)
		case len(conflicts) == 0:
			printOK("", "no unresolved conflict photos found")
		default:
			for _, c := range conflicts {
				printWarn("", filepath.Base(c))
			}
			printWarn("", fmt.Sprintf("%d unresolved conflict photo(s) in the catalog.", len(conflicts)))
			fmt.Println("     Review them and delete the ones you no longer need,")
			fmt.Println("     or run 'pricematch doctor fix' to delete them all.")
			allOK = false
		}
	} else {
		printWarn("", "skipped (config not loaded)")
	}
	fmt.Println()

	// ── Summary ───────────────────────────────────────────────────────────────
	fmt.Println("===================")
	if allOK {
		fmt.Println("✓  All checks passed. pricematch is ready to use.")
	} else {
		fmt.Fprintln(os.Stderr, "✗  One or more checks failed. See details above.")
		return fmt.Errorf("doctor found issues")
	}
	return nil
}

func checkIndex(cfg *config.Config, prov embeddings.Provider, failD func(string, ...any)) {
	indexDir, err := cfg.EffectiveIndexDir()
	if err != nil {
		failD("%v", err)
		return
	}
	idx, err := searchindex.Load(indexDir)
	if err != nil {
		printMiss("", fmt.Sprintf("no index yet at %s (built on first search)", indexDir))
		return
	}
	if _, err := idx.Store(cfg.CatalogDir); err != nil {
		failD("index at %s is corrupt: %v — run 'pricematch search --index --force'", indexDir, err)
		return
	}
	printOK("", fmt.Sprintf("%d photo(s) indexed with %s", len(idx.Entries), idx.Manifest.ModelID))
	if prov != nil && prov.ModelID() != idx.Manifest.ModelID {
		printWarn("", fmt.Sprintf("index was built with %s but the provider is %s; the next search rebuilds it",
			idx.Manifest.ModelID, prov.ModelID()))
	}
	for _, s := range idx.Manifest.Skipped {
		printSkip(s.File, s.Reason)
	}
}
