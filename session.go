package sgf

import (
	"github.com/BenjamenMeyer/saved-game-format/internal/archive"
	"github.com/BenjamenMeyer/saved-game-format/internal/container"
)

// withReader validates and opens the container at path, wraps it in an
// archive reader and runs fn. The reader and the handle are released on
// every return path.
func withReader(path string, cfg *config, fn func(*archive.Reader, *container.Handle) error) error {
	if err := container.Validate(path); err != nil {
		return err
	}
	h, err := container.Open(path, container.Read, cfg.logger)
	if err != nil {
		return err
	}
	defer h.Close() //nolint:errcheck // read-only handle

	if size, ok := h.Size(); ok {
		cfg.log().Debug("container size", "path", path, "bytes", size)
	}

	ropts, err := cfg.readerOptions()
	if err != nil {
		return err
	}
	r, err := archive.NewReader(h, ropts...)
	if err != nil {
		return err
	}
	defer r.Close() //nolint:errcheck // decoder release only

	cfg.log().Debug("reading container", "path", path, "filter", r.Filter().String())
	return fn(r, h)
}

// Validate reports whether path names an existing container file.
// It returns ErrInvalidPath for an empty path and ErrOpen otherwise.
func Validate(path string) error {
	return container.Validate(path)
}
