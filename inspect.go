package sgf

import (
	"archive/tar"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/BenjamenMeyer/saved-game-format/internal/archive"
	"github.com/BenjamenMeyer/saved-game-format/internal/container"
)

// EntryInfo describes one entry of a container.
type EntryInfo struct {
	Path     string
	Size     int64
	Mode     fs.FileMode
	ModTime  time.Time
	Typeflag byte

	// Digest is the sha256 digest of the entry content.
	Digest digest.Digest
}

// IsDir reports whether the entry is a directory.
func (e EntryInfo) IsDir() bool { return e.Typeflag == tar.TypeDir }

// InspectResult describes a container and its entries.
type InspectResult struct {
	// Filter is the compression filter detected on the container.
	Filter string

	// Size is the container length in bytes, or -1 if it could not be probed.
	Size int64

	// Entries lists every entry in file order.
	Entries []EntryInfo
}

// Inspect reads every entry of the container and digests its content.
// Content is streamed block by block; no entry is held in memory.
func Inspect(path string, opts ...Option) (*InspectResult, error) {
	cfg := newConfig(opts)

	result := &InspectResult{Size: -1}
	err := withReader(path, cfg, func(r *archive.Reader, h *container.Handle) error {
		if size, ok := h.Size(); ok {
			result.Size = size
		}
		result.Filter = r.Filter().String()

		var bytesDone uint64
		for e, err := range r.Entries() {
			if err != nil {
				return err
			}
			hasher := sha256.New()
			for blk, err := range e.Blocks() {
				if err != nil {
					return err
				}
				hasher.Write(blk.Data)
				bytesDone += uint64(len(blk.Data))
			}
			hdr := e.Header()
			result.Entries = append(result.Entries, EntryInfo{
				Path:     hdr.Name,
				Size:     hdr.Size,
				Mode:     hdr.FileInfo().Mode(),
				ModTime:  hdr.ModTime,
				Typeflag: hdr.Typeflag,
				Digest:   digest.NewDigestFromEncoded(digest.SHA256, hex.EncodeToString(hasher.Sum(nil))),
			})
			cfg.report(ProgressEvent{Stage: StageInspecting, Path: hdr.Name, EntriesDone: len(result.Entries), BytesDone: bytesDone})
		}
		return nil
	})
	if err != nil {
		return nil, &OpError{Op: "inspect", Path: path, Err: err}
	}
	return result, nil
}
