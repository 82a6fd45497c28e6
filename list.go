package sgf

import (
	"github.com/BenjamenMeyer/saved-game-format/internal/archive"
	"github.com/BenjamenMeyer/saved-game-format/internal/container"
)

// ListEntries returns the path of every entry in the container, in file order.
// Duplicate paths are listed as often as they occur.
func ListEntries(path string, opts ...Option) ([]string, error) {
	cfg := newConfig(opts)

	paths := []string{}
	err := withReader(path, cfg, func(r *archive.Reader, _ *container.Handle) error {
		for e, err := range r.Entries() {
			if err != nil {
				return err
			}
			paths = append(paths, e.Path())
			cfg.report(ProgressEvent{Stage: StageListing, Path: e.Path(), EntriesDone: len(paths)})
		}
		return nil
	})
	if err != nil {
		return nil, &OpError{Op: "list", Path: path, Err: err}
	}

	cfg.log().Info("listed container", "path", path, "entries", len(paths))
	return paths, nil
}

// HasEntry reports whether the container holds an entry named name.
// The scan stops at the first match.
func HasEntry(path, name string, opts ...Option) (bool, error) {
	cfg := newConfig(opts)

	found := false
	err := withReader(path, cfg, func(r *archive.Reader, _ *container.Handle) error {
		for e, err := range r.Entries() {
			if err != nil {
				return err
			}
			if e.Path() == name {
				found = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return false, &OpError{Op: "lookup", Path: path, Err: err}
	}
	return found, nil
}
