package sgf

import (
	"fmt"

	"github.com/BenjamenMeyer/saved-game-format/internal/archive"
	"github.com/BenjamenMeyer/saved-game-format/internal/container"
)

// RewriteReport describes a completed rewrite.
type RewriteReport struct {
	// Entries is the number of entries written to the output.
	Entries int

	// Replaced is the number of entries whose content was substituted.
	// Zero means the target was absent and the output is a plain copy.
	Replaced int

	// Blocks is the number of data blocks forwarded from the input.
	Blocks int

	// MaxBlock is the largest forwarded block in bytes. It bounds the data
	// held in memory for any non-target entry.
	MaxBlock int

	// BytesIn is the number of container bytes read from the input.
	BytesIn uint64

	// BytesOut is the number of container bytes written to the output.
	BytesOut uint64

	// WriteErrors holds the write failures tolerated under ShortWriteLenient.
	WriteErrors []error
}

// Suspect reports whether write failures were tolerated during the rewrite.
// A suspect output should not replace the original container.
func (r *RewriteReport) Suspect() bool {
	return len(r.WriteErrors) > 0
}

// RewriteEntry copies the container at in to out, replacing the content of
// every entry named name with data.
//
// Entries keep their order and metadata; only the size of replaced entries
// changes. Other entries are streamed one block at a time and are never
// buffered whole. The data of replaced entries is skipped, not read.
//
// The output is always bzip2-compressed GNU tar. If no entry matches, the
// output is a re-encoded copy of the input and no error is returned.
//
// A nil error means success. On failure the output file is left partially
// written and must not be used.
func RewriteEntry(in, out, name string, data []byte, opts ...Option) (*RewriteReport, error) {
	cfg := newConfig(opts)

	if out == "" {
		return nil, &OpError{Op: "rewrite", Path: out, Err: ErrInvalidPath}
	}
	if container.SamePath(in, out) {
		return nil, &OpError{Op: "rewrite", Path: out, Err: ErrSamePath}
	}

	report := &RewriteReport{}
	err := withReader(in, cfg, func(r *archive.Reader, src *container.Handle) error {
		dst, err := container.Open(out, container.WriteTruncate, cfg.logger)
		if err != nil {
			return err
		}
		defer dst.Close() //nolint:errcheck // closed explicitly on success

		w, err := archive.NewWriter(dst, cfg.writerOptions()...)
		if err != nil {
			return err
		}
		if err := copyEntries(r, w, name, data, report, cfg); err != nil {
			_ = w.Abort() //nolint:errcheck // output is already unusable
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
		if err := dst.Close(); err != nil {
			return fmt.Errorf("%w: %w", ErrArchiveWrite, err)
		}

		report.WriteErrors = w.Errors()
		report.BytesIn = src.BytesRead()
		report.BytesOut = dst.BytesWritten()
		return nil
	})
	if err != nil {
		cfg.log().Error("rewrite failed, output left partially written", "input", in, "output", out, "error", err)
		return nil, &OpError{Op: "rewrite", Path: in, Err: err}
	}

	if report.Suspect() {
		cfg.log().Warn("rewrite finished with write errors", "output", out, "errors", len(report.WriteErrors))
	}
	cfg.log().Info("rewrote container",
		"input", in,
		"output", out,
		"entry", name,
		"entries", report.Entries,
		"replaced", report.Replaced,
		"blocks", report.Blocks,
		"bytes_in", report.BytesIn,
		"bytes_out", report.BytesOut)
	return report, nil
}

// copyEntries streams every entry from r to w, substituting data for the
// content of entries named name.
func copyEntries(r *archive.Reader, w *archive.Writer, name string, data []byte, report *RewriteReport, cfg *config) error {
	var bytesDone uint64
	for e, err := range r.Entries() {
		if err != nil {
			return err
		}

		if e.Path() == name {
			if err := w.WriteEntry(e.Header(), data); err != nil {
				return err
			}
			report.Replaced++
			bytesDone += uint64(len(data))
			cfg.log().Info("entry replaced", "entry", name, "old_size", e.Size(), "new_size", len(data))
		} else {
			if err := w.WriteHeader(e.Header()); err != nil {
				return err
			}
			for blk, err := range e.Blocks() {
				if err != nil {
					return err
				}
				if _, err := w.WriteData(blk.Data); err != nil {
					return err
				}
				report.Blocks++
				report.MaxBlock = max(report.MaxBlock, len(blk.Data))
				bytesDone += uint64(len(blk.Data))
			}
		}

		report.Entries++
		cfg.report(ProgressEvent{Stage: StageRewriting, Path: e.Path(), EntriesDone: report.Entries, BytesDone: bytesDone})
	}
	return nil
}
