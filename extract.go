package sgf

import (
	"bytes"

	"github.com/BenjamenMeyer/saved-game-format/internal/archive"
	"github.com/BenjamenMeyer/saved-game-format/internal/container"
)

// ExtractEntry returns the content of the entry named name.
//
// The name must match exactly. When several entries share the name their
// contents are concatenated in file order. A missing entry yields an empty,
// non-nil buffer and no error; use ListEntries or HasEntry to tell it apart
// from an empty entry.
func ExtractEntry(path, name string, opts ...Option) ([]byte, error) {
	cfg := newConfig(opts)

	out := bytes.NewBuffer(make([]byte, 0))
	matches := 0
	err := withReader(path, cfg, func(r *archive.Reader, _ *container.Handle) error {
		done := 0
		for e, err := range r.Entries() {
			if err != nil {
				return err
			}
			done++
			if e.Path() != name {
				continue
			}
			matches++
			for blk, err := range e.Blocks() {
				if err != nil {
					return err
				}
				out.Write(blk.Data)
			}
			cfg.report(ProgressEvent{Stage: StageExtracting, Path: name, EntriesDone: done, BytesDone: uint64(out.Len())}) //nolint:gosec // Len is non-negative
		}
		return nil
	})
	if err != nil {
		return nil, &OpError{Op: "extract", Path: path, Err: err}
	}

	if matches == 0 {
		cfg.log().Info("entry not present", "path", path, "entry", name)
	} else {
		cfg.log().Info("extracted entry", "path", path, "entry", name, "matches", matches, "bytes", out.Len())
	}
	return out.Bytes(), nil
}
