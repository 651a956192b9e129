package index

// Stale reports whether the images in catalogDir no longer match idx: a file
// was added or removed, or its size or modification time changed. Files the
// build skipped count as known so they do not force a rebuild on every run.
func Stale(idx *Index, catalogDir string, exts []string) (bool, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	files, err := DiscoverImages(catalogDir, exts)
	if err != nil {
		return false, err
	}

	type stamp struct {
		size    int64
		modTime int64
	}
	known := make(map[string]stamp, len(idx.Entries)+len(idx.Manifest.Skipped))
	for _, e := range idx.Entries {
		known[e.File] = stamp{e.Size, e.ModTime}
	}
	for _, s := range idx.Manifest.Skipped {
		known[s.File] = stamp{s.Size, s.ModTime}
	}
	if len(files) != len(known) {
		return true, nil
	}
	for _, f := range files {
		st, ok := known[f.Name]
		if !ok || st.size != f.Size || st.modTime != f.ModTime {
			return true, nil
		}
	}
	return false, nil
}
