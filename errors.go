package sgf

import (
	"errors"

	"github.com/BenjamenMeyer/saved-game-format/internal/archive"
	"github.com/BenjamenMeyer/saved-game-format/internal/container"
	"github.com/BenjamenMeyer/saved-game-format/internal/document"
	"github.com/BenjamenMeyer/saved-game-format/internal/filter"
)

// Errors re-exported from the internal packages.
var (
	// ErrOpen is returned when a container cannot be opened. It is not retried.
	ErrOpen = container.ErrOpen

	// ErrInvalidPath is returned when a container path is empty.
	ErrInvalidPath = container.ErrInvalidPath

	// ErrArchiveRead is returned when the input archive is malformed or
	// unsupported. It ends the operation.
	ErrArchiveRead = archive.ErrRead

	// ErrArchiveWrite is returned for write-side framing failures.
	ErrArchiveWrite = archive.ErrWrite

	// ErrShortWrite is returned under ShortWriteStrict when an entry received
	// fewer bytes than its header declared. It matches ErrArchiveWrite.
	ErrShortWrite = archive.ErrShortWrite

	// ErrKeyNotFound is returned when updating a key the document lacks.
	ErrKeyNotFound = document.ErrKeyNotFound

	// ErrNotObject is returned when a member document is not a JSON object.
	ErrNotObject = document.ErrNotObject

	// ErrUnknownFilter is returned for an unrecognized WithInputFilter name.
	ErrUnknownFilter = filter.ErrUnknown
)

// Sentinel errors specific to the sgf package.
var (
	// ErrSamePath is returned when a rewrite targets its own input.
	ErrSamePath = errors.New("sgf: output path is the input path")

	// ErrEntryNotFound is returned by UpdateDocument when the member is absent.
	ErrEntryNotFound = errors.New("sgf: entry not found")
)

// OpError records the operation and container that failed.
type OpError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	return "sgf: " + e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }
