// Package container owns the file handle behind a saved-game container.
//
// A Handle is opened per operation and must be closed on every exit path;
// Close is idempotent so callers can defer it and still check the error of
// an explicit close on the success path.
package container

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

var (
	// ErrOpen is returned when a container cannot be opened or validated.
	ErrOpen = errors.New("container: open failed")

	// ErrInvalidPath is returned when a container path is empty.
	ErrInvalidPath = errors.New("container: invalid path")

	// ErrClosed is returned when a closed handle is used.
	ErrClosed = errors.New("container: handle closed")
)

// Mode selects how a container is opened.
type Mode uint8

const (
	// Read opens an existing container for reading.
	Read Mode = iota
	// WriteTruncate creates the container or truncates an existing one.
	WriteTruncate
)

// String returns the name of the mode.
func (m Mode) String() string {
	switch m {
	case Read:
		return "read"
	case WriteTruncate:
		return "write-truncate"
	default:
		return "unknown"
	}
}

// Handle is an open container file with byte-offset positioning.
type Handle struct {
	f      *os.File
	path   string
	mode   Mode
	size   int64
	read   uint64
	wrote  uint64
	logger *slog.Logger
}

// Open opens the container at path in the given mode.
//
// The total byte length is probed by seeking to the end and back. A failed
// probe is logged and leaves Size unknown; it never fails the open.
func Open(path string, mode Mode, logger *slog.Logger) (*Handle, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: %w", ErrOpen, ErrInvalidPath)
	}

	var (
		f   *os.File
		err error
	)
	switch mode {
	case Read:
		f, err = os.Open(path)
	case WriteTruncate:
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644) //nolint:gosec // saved games are user files
	default:
		return nil, fmt.Errorf("%w: %s: unsupported mode %d", ErrOpen, path, mode)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}

	h := &Handle{f: f, path: path, mode: mode, size: -1, logger: logger}
	h.probeSize()
	h.log().Debug("container opened", "path", path, "mode", mode.String(), "size", h.size)
	return h, nil
}

func (h *Handle) probeSize() {
	end, err := h.f.Seek(0, io.SeekEnd)
	if err != nil {
		h.log().Warn("container size probe failed", "path", h.path, "error", err)
		return
	}
	if _, err := h.f.Seek(0, io.SeekStart); err != nil {
		h.log().Warn("container rewind failed", "path", h.path, "error", err)
		return
	}
	h.size = end
}

// log returns the logger, falling back to a discard logger if nil.
func (h *Handle) log() *slog.Logger {
	if h.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return h.logger
}

// Path returns the path the handle was opened with.
func (h *Handle) Path() string { return h.path }

// Mode returns the mode the handle was opened with.
func (h *Handle) Mode() Mode { return h.mode }

// Size returns the byte length observed at open time.
// The second result is false when the probe failed.
func (h *Handle) Size() (int64, bool) {
	return h.size, h.size >= 0
}

// BytesRead returns the number of bytes read through the handle.
func (h *Handle) BytesRead() uint64 { return h.read }

// BytesWritten returns the number of bytes written through the handle.
func (h *Handle) BytesWritten() uint64 { return h.wrote }

// Read implements io.Reader.
func (h *Handle) Read(p []byte) (int, error) {
	if h.f == nil {
		return 0, ErrClosed
	}
	n, err := h.f.Read(p)
	h.read += uint64(n) //nolint:gosec // n is non-negative per io.Reader
	return n, err
}

// Write implements io.Writer.
func (h *Handle) Write(p []byte) (int, error) {
	if h.f == nil {
		return 0, ErrClosed
	}
	n, err := h.f.Write(p)
	h.wrote += uint64(n) //nolint:gosec // n is non-negative per io.Writer
	return n, err
}

// Seek implements io.Seeker over raw container byte offsets.
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	if h.f == nil {
		return 0, ErrClosed
	}
	return h.f.Seek(offset, whence)
}

// Close releases the file. Calling Close more than once returns nil.
func (h *Handle) Close() error {
	if h.f == nil {
		return nil
	}
	f := h.f
	h.f = nil
	h.log().Debug("container closed", "path", h.path, "bytes_read", h.read, "bytes_written", h.wrote)
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", h.path, err)
	}
	return nil
}

// Validate checks that path names an existing regular container file.
func Validate(path string) error {
	if path == "" {
		return ErrInvalidPath
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpen, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrOpen, path)
	}
	return nil
}

// SamePath reports whether a and b refer to the same container file.
// Paths that do not exist yet are compared by their cleaned absolute form.
func SamePath(a, b string) bool {
	ai, aerr := os.Stat(a)
	bi, berr := os.Stat(b)
	if aerr == nil && berr == nil {
		return os.SameFile(ai, bi)
	}
	absA, err := filepath.Abs(a)
	if err != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
