// Package archive streams tar-family entries out of a filtered container and
// writes them back under the fixed output policy.
//
// Reading is single-pass: each Entry exposes a one-shot sequence of data
// blocks that becomes unavailable as soon as the Reader advances. Writing
// always produces a bzip2-filtered GNU tar stream, whatever the input used.
package archive

import (
	"archive/tar"
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/BenjamenMeyer/saved-game-format/internal/filter"
)

// DefaultBlockSize is the data block size used when none is configured.
const DefaultBlockSize = 64 << 10

var (
	// ErrRead is returned when the archive stream is malformed, unsupported,
	// or the underlying container fails. It terminates the Reader.
	ErrRead = errors.New("archive: read failed")

	// ErrEntryPassed is returned when blocks are requested from an entry the
	// Reader has already advanced past.
	ErrEntryPassed = errors.New("archive: reader advanced past entry")
)

// Block is one chunk of an entry's data.
//
// Data aliases the Reader's internal buffer and is valid only until the next
// call to NextBlock or Next.
type Block struct {
	Data   []byte
	Offset int64
}

// ReadStats summarizes what a Reader has produced so far.
type ReadStats struct {
	Entries  int
	Blocks   int
	MaxBlock int
	Bytes    int64
}

// Reader yields the entries of a container in file order.
type Reader struct {
	dec    io.ReadCloser
	tr     *tar.Reader
	filter filter.Filter
	buf    []byte
	cur    *Entry
	err    error
	stats  ReadStats
	logger *slog.Logger
}

// ReaderOption configures a Reader.
type ReaderOption func(*readerConfig)

type readerConfig struct {
	blockSize        int
	maxDecoderMemory uint64
	logger           *slog.Logger
	filter           filter.Filter
	forceFilter      bool
}

// WithBlockSize sets the largest data block handed out per NextBlock call.
// Values <= 0 use DefaultBlockSize.
func WithBlockSize(n int) ReaderOption {
	return func(c *readerConfig) {
		c.blockSize = n
	}
}

// WithMaxDecoderMemory limits the memory used by a zstd decoder.
func WithMaxDecoderMemory(limit uint64) ReaderOption {
	return func(c *readerConfig) {
		c.maxDecoderMemory = limit
	}
}

// WithFilter skips detection and decodes the input with f.
func WithFilter(f filter.Filter) ReaderOption {
	return func(c *readerConfig) {
		c.filter = f
		c.forceFilter = true
	}
}

// WithReaderLogger sets the logger for diagnostics.
func WithReaderLogger(logger *slog.Logger) ReaderOption {
	return func(c *readerConfig) {
		c.logger = logger
	}
}

// NewReader sniffs the compression filter of r and prepares to read the
// archive inside it. Closing the Reader releases the decoder, not r.
func NewReader(r io.Reader, opts ...ReaderOption) (*Reader, error) {
	cfg := readerConfig{blockSize: DefaultBlockSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.blockSize <= 0 {
		cfg.blockSize = DefaultBlockSize
	}

	br := bufio.NewReader(r)
	f := cfg.filter
	if !cfg.forceFilter {
		var err error
		if f, err = filter.Detect(br); err != nil {
			return nil, fmt.Errorf("%w: detect filter: %w", ErrRead, err)
		}
	}
	dec, err := filter.NewReader(f, br, filter.WithMaxDecoderMemory(cfg.maxDecoderMemory))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	ar := &Reader{
		dec:    dec,
		tr:     tar.NewReader(dec),
		filter: f,
		buf:    make([]byte, cfg.blockSize),
		logger: cfg.logger,
	}
	ar.log().Debug("archive filter selected", "filter", f.String(), "forced", cfg.forceFilter)
	return ar, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (r *Reader) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.logger
}

// Filter returns the compression filter detected on the input.
func (r *Reader) Filter() filter.Filter { return r.filter }

// Stats returns counters for the entries and blocks read so far.
func (r *Reader) Stats() ReadStats { return r.stats }

// Next advances to the next entry. It returns io.EOF at the end of the
// archive. Unread data of the previous entry is skipped, not buffered.
//
// Any other error wraps ErrRead and is returned by every later call.
func (r *Reader) Next() (*Entry, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.cur != nil {
		r.cur.passed = true
		r.cur = nil
	}
	for {
		hdr, err := r.tr.Next()
		if errors.Is(err, io.EOF) {
			r.err = io.EOF
			return nil, io.EOF
		}
		if err != nil {
			return nil, r.fail(fmt.Errorf("next header: %w", err))
		}
		if hdr.Typeflag == tar.TypeXGlobalHeader {
			// Archive-wide pax metadata, not a member.
			r.log().Debug("skipping pax global header", "name", hdr.Name)
			continue
		}
		r.stats.Entries++
		r.cur = &Entry{hdr: hdr, r: r}
		r.log().Debug("entry", "path", hdr.Name, "size", hdr.Size, "type", string(hdr.Typeflag))
		return r.cur, nil
	}
}

// Entries returns an iterator over the remaining entries.
// Iteration stops after the first error is yielded.
func (r *Reader) Entries() iter.Seq2[*Entry, error] {
	return func(yield func(*Entry, error) bool) {
		for {
			e, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(e, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the decoder.
func (r *Reader) Close() error {
	if r.cur != nil {
		r.cur.passed = true
		r.cur = nil
	}
	if r.err == nil {
		r.err = fmt.Errorf("%w: reader closed", ErrRead)
	}
	if r.dec == nil {
		return nil
	}
	dec := r.dec
	r.dec = nil
	return dec.Close()
}

func (r *Reader) fail(err error) error {
	r.err = fmt.Errorf("%w: %w", ErrRead, err)
	r.log().Warn("archive read failed", "error", err)
	return r.err
}

func (r *Reader) readBlock(e *Entry) (Block, error) {
	if r.err != nil && !errors.Is(r.err, io.EOF) {
		return Block{}, r.err
	}
	var (
		n   int
		err error
	)
	for n < len(r.buf) && err == nil {
		var nn int
		nn, err = r.tr.Read(r.buf[n:])
		n += nn
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return Block{}, r.fail(fmt.Errorf("entry %q: %w", e.hdr.Name, err))
	}
	if errors.Is(err, io.EOF) {
		e.done = true
	}
	if n == 0 {
		return Block{}, io.EOF
	}

	blk := Block{Data: r.buf[:n], Offset: e.offset}
	e.offset += int64(n)
	r.stats.Blocks++
	r.stats.Bytes += int64(n)
	if n > r.stats.MaxBlock {
		r.stats.MaxBlock = n
	}
	return blk, nil
}

// Entry is the header of one archive member together with its data blocks.
type Entry struct {
	hdr    *tar.Header
	r      *Reader
	offset int64
	done   bool
	passed bool
}

// Path returns the member path exactly as stored in the archive.
func (e *Entry) Path() string { return e.hdr.Name }

// Size returns the declared data size.
func (e *Entry) Size() int64 { return e.hdr.Size }

// Header returns a copy of the structural metadata of the entry.
func (e *Entry) Header() *tar.Header {
	hdr := *e.hdr
	if e.hdr.PAXRecords != nil {
		hdr.PAXRecords = make(map[string]string, len(e.hdr.PAXRecords))
		for k, v := range e.hdr.PAXRecords {
			hdr.PAXRecords[k] = v
		}
	}
	return &hdr
}

// NextBlock returns the next data block of the entry. It returns io.EOF once
// the entry's data is exhausted and ErrEntryPassed once the Reader has moved
// on to a later entry.
func (e *Entry) NextBlock() (Block, error) {
	if e.passed {
		return Block{}, ErrEntryPassed
	}
	if e.done {
		return Block{}, io.EOF
	}
	return e.r.readBlock(e)
}

// Blocks returns an iterator over the remaining data blocks.
// Iteration stops after the first error is yielded.
func (e *Entry) Blocks() iter.Seq2[Block, error] {
	return func(yield func(Block, error) bool) {
		for {
			blk, err := e.NextBlock()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(blk, err) || err != nil {
				return
			}
		}
	}
}
