package index

import (
	"context"

	"github.com/kamusis/pricematch/internal/embeddings"
)

// Open returns the index installed in opts.OutDir, rebuilding it first when it
// is missing or unreadable, was built with another model, no longer matches
// the catalog, or opts.Force is set. The BuildResult is nil when the installed
// index was used as is.
func Open(ctx context.Context, prov embeddings.Provider, opts BuildOptions) (*Index, *BuildResult, error) {
	log := opts.logger()
	if !opts.Force {
		idx, err := Load(opts.OutDir)
		switch {
		case err != nil:
			log.Debug("index not loadable, rebuilding", "dir", opts.OutDir, "err", err)
		case idx.Manifest.ModelID != prov.ModelID():
			log.Info("index model changed, rebuilding", "index", idx.Manifest.ModelID, "provider", prov.ModelID())
		default:
			stale, err := Stale(idx, opts.CatalogDir, opts.extensions())
			if err != nil {
				return nil, nil, err
			}
			if !stale {
				return idx, nil, nil
			}
			log.Info("catalog changed, rebuilding index", "dir", opts.CatalogDir)
		}
	}

	res, err := Install(ctx, prov, opts)
	if err != nil {
		return nil, nil, err
	}
	return res.Index, res, nil
}
