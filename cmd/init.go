package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kamusis/pricematch/internal/config"
	"github.com/kamusis/pricematch/internal/importer"
	"github.com/spf13/cobra"
)

// defaultMetadata is written as the metadata file on first init.
const defaultMetadata = `# Catalog metadata, keyed by photo file name without extension.
# Missing entries show the key as name, "#" as link and no price.
#
# bag-001:
#   name: Leather tote bag
#   url: https://shop.example/bag-001
#   price: 32000
{}
`

var flagInitCatalog string

var initCmd = &cobra.Command{
	Use:   "init [photos-dir]",
	Short: "Create ~/.pricematch and optionally import existing product photos",
	Long: `Initialize pricematch at ~/.pricematch/: config.yaml, a .env template for
the embeddings provider, an empty metadata file and the catalog folder.

When [photos-dir] is given its photos are imported into the catalog folder.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&flagInitCatalog, "catalog", "", "Catalog folder to use instead of ~/.pricematch/catalog")
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, args []string) error {
	// ── 1. Resolve ~/.pricematch directory ────────────────────────────────────
	homeDir, err := config.HomeDir()
	if err != nil {
		return err
	}
	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", homeDir, err)
	}
	printOK("", fmt.Sprintf("pricematch directory ready: %s", homeDir))

	// ── 2. Write config.yaml if missing ───────────────────────────────────────
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return err
		}
		if flagInitCatalog != "" {
			dir, err := config.ExpandPath(flagInitCatalog)
			if err != nil {
				return err
			}
			if cfg.CatalogDir, err = filepath.Abs(dir); err != nil {
				return err
			}
		}
		if err := config.Save(cfg); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
		if flagInitCatalog != "" {
			printWarn("", "--catalog ignored; edit catalog_dir in the existing config instead")
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// ── 3. .env template, catalog folder, metadata file ───────────────────────
	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}
	if p, err := config.DotEnvPath(); err == nil {
		printOK("", fmt.Sprintf("Embeddings settings: %s", p))
	}

	if err := os.MkdirAll(cfg.CatalogDir, 0o755); err != nil {
		return fmt.Errorf("cannot create catalog dir: %w", err)
	}
	printOK("", fmt.Sprintf("Catalog folder ready: %s", cfg.CatalogDir))

	if cfg.MetadataFile != "" {
		if _, err := os.Stat(cfg.MetadataFile); os.IsNotExist(err) {
			if err := os.WriteFile(cfg.MetadataFile, []byte(defaultMetadata), 0o644); err != nil {
				return fmt.Errorf("cannot write metadata file: %w", err)
			}
			printOK("", fmt.Sprintf("Metadata file written: %s", cfg.MetadataFile))
		} else {
			printSkip("", fmt.Sprintf("Metadata file already exists: %s", cfg.MetadataFile))
		}
	}

	// ── 4. Import existing photos ─────────────────────────────────────────────
	if len(args) == 1 {
		src, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		printSection("Import Existing Photos")
		res, err := importer.ImportImages(src, cfg.CatalogDir, filepath.Base(src), importer.Options{
			Extensions: cfg.EffectiveImageExtensions(),
			Excludes:   cfg.Excludes,
		})
		if err != nil {
			return fmt.Errorf("import from %s failed: %w", src, err)
		}
		printImportResult(res)
	}

	fmt.Println("\n✓  pricematch init complete. Run 'pricematch search --index' to build the catalog index.")
	return nil
}
