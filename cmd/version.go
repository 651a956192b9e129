package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/kamusis/pricematch/internal/config"
	"github.com/kamusis/pricematch/internal/embeddings"
	searchindex "github.com/kamusis/pricematch/internal/search/index"
	"github.com/spf13/cobra"
)

// Set with -ldflags "-X github.com/kamusis/pricematch/cmd.version=...".
var (
	version   = "dev"
	commit    = ""
	buildDate = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show pricematch version, build and embeddings information",
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(_ *cobra.Command, _ []string) error {
	prov, err := loadProvider()
	writeVersion(os.Stdout, prov, err)
	return nil
}

// writeVersion prints build details and the embeddings model the current
// environment resolves to. A provider error is shown instead of the model.
func writeVersion(w io.Writer, prov embeddings.Provider, provErr error) {
	fmt.Fprintf(w, "pricematch %s\n", version)
	fmt.Fprintf(w, "Commit:       %s\n", emptyAsNA(commit))
	fmt.Fprintf(w, "Build Date:   %s\n", emptyAsNA(buildDate))
	fmt.Fprintf(w, "Go Version:   %s (%s/%s)\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Fprintf(w, "Index Format: v%d\n", searchindex.FormatVersion)
	fmt.Fprintf(w, "Top-K:        %d (default)\n", config.DefaultTopK)
	if provErr != nil {
		fmt.Fprintf(w, "Embeddings:   unavailable (%v)\n", provErr)
		return
	}
	fmt.Fprintf(w, "Embeddings:   %s (dim %d)\n", prov.ModelID(), prov.Dim())
}

func emptyAsNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
