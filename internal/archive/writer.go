package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/BenjamenMeyer/saved-game-format/internal/filter"
)

// Output policy. The writer never mirrors the input's filter or format.
const (
	OutputFilter = filter.Bzip2
	OutputFormat = tar.FormatGNU
)

var (
	// ErrWrite is returned for write-side framing failures.
	ErrWrite = errors.New("archive: write failed")

	// ErrShortWrite is returned when an entry received fewer bytes than its
	// header declared.
	ErrShortWrite = fmt.Errorf("%w: short write", ErrWrite)
)

// ShortWritePolicy decides what happens when an entry write comes up short.
type ShortWritePolicy uint8

const (
	// ShortWriteLenient records and logs the failure, zero-pads the entry so
	// the archive framing stays valid, and continues with the next entry.
	ShortWriteLenient ShortWritePolicy = iota

	// ShortWriteStrict returns the failure to the caller.
	ShortWriteStrict
)

var policyNames = [...]string{
	ShortWriteLenient: "lenient",
	ShortWriteStrict:  "strict",
}

// String returns the name of the policy.
func (p ShortWritePolicy) String() string {
	if int(p) < len(policyNames) {
		return policyNames[p]
	}
	return "unknown"
}

// ParseShortWritePolicy returns the policy named by s.
func ParseShortWritePolicy(s string) (ShortWritePolicy, error) {
	token := strings.ToLower(strings.TrimSpace(s))
	for p, name := range policyNames {
		if name == token {
			return ShortWritePolicy(p), nil //nolint:gosec // bounded by len(policyNames)
		}
	}
	return ShortWriteLenient, fmt.Errorf("unknown short write policy %q", s)
}

// WriteStats summarizes what a Writer has produced so far.
type WriteStats struct {
	Entries int
	Bytes   int64
}

// Writer emits entries as a bzip2-filtered GNU tar stream.
type Writer struct {
	enc    io.WriteCloser
	tw     *tar.Writer
	policy ShortWritePolicy
	cur    *openEntry
	errs   []error
	stats  WriteStats
	closed bool
	logger *slog.Logger
}

type openEntry struct {
	path      string
	remaining int64
	broken    bool
}

// WriterOption configures a Writer.
type WriterOption func(*writerConfig)

type writerConfig struct {
	level  int
	policy ShortWritePolicy
	logger *slog.Logger
}

// WithCompressionLevel sets the bzip2 level (1-9). Zero uses the default.
func WithCompressionLevel(level int) WriterOption {
	return func(c *writerConfig) {
		c.level = level
	}
}

// WithShortWritePolicy sets how short writes are handled.
func WithShortWritePolicy(p ShortWritePolicy) WriterOption {
	return func(c *writerConfig) {
		c.policy = p
	}
}

// WithWriterLogger sets the logger for diagnostics.
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) {
		c.logger = logger
	}
}

// NewWriter prepares to write an archive to w. Closing the Writer finishes
// the archive and flushes the encoder but does not close w.
func NewWriter(w io.Writer, opts ...WriterOption) (*Writer, error) {
	var cfg writerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	enc, err := filter.NewWriter(OutputFilter, w, cfg.level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}
	return &Writer{
		enc:    enc,
		tw:     tar.NewWriter(enc),
		policy: cfg.policy,
		logger: cfg.logger,
	}, nil
}

// log returns the logger, falling back to a discard logger if nil.
func (w *Writer) log() *slog.Logger {
	if w.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.logger
}

// Errors returns the write failures recorded under the lenient policy.
// A non-empty result means the output should not be trusted.
func (w *Writer) Errors() []error {
	return append([]error(nil), w.errs...)
}

// Stats returns counters for the entries and bytes written so far.
func (w *Writer) Stats() WriteStats { return w.stats }

// WriteHeader closes the previous entry and opens a new one described by hdr.
// The header is converted to the output format; hdr itself is not modified.
func (w *Writer) WriteHeader(hdr *tar.Header) error {
	if w.closed {
		return fmt.Errorf("%w: writer closed", ErrWrite)
	}
	if err := w.finishEntry(); err != nil {
		return err
	}

	out := outputHeader(hdr)
	w.stats.Entries++
	w.cur = &openEntry{path: out.Name, remaining: dataSize(out)}
	if err := w.tw.WriteHeader(out); err != nil {
		w.cur.broken = true
		return w.record(fmt.Errorf("%w: header %q: %w", ErrWrite, out.Name, err))
	}
	return nil
}

// WriteData appends p to the open entry. It may be called any number of times
// per entry. Under the lenient policy a short write is recorded and nil is
// returned; under the strict policy it is returned as ErrShortWrite.
func (w *Writer) WriteData(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("%w: writer closed", ErrWrite)
	}
	if w.cur == nil {
		return 0, fmt.Errorf("%w: data written before header", ErrWrite)
	}
	if w.cur.broken {
		return 0, nil
	}

	n, err := w.tw.Write(p)
	w.cur.remaining -= int64(n)
	w.stats.Bytes += int64(n)
	if n == len(p) && err == nil {
		return n, nil
	}
	if err == nil {
		err = io.ErrShortWrite
	}
	return n, w.record(fmt.Errorf("%w: entry %q accepted %d of %d bytes: %w", ErrShortWrite, w.cur.path, n, len(p), err))
}

// WriteEntry writes hdr with its size set to len(data), followed by data.
// Header-only types keep a zero size; data given for them is a short write.
func (w *Writer) WriteEntry(hdr *tar.Header, data []byte) error {
	h := *hdr
	h.Size = int64(len(data))
	if headerOnly(h.Typeflag) {
		h.Size = 0
	}
	if err := w.WriteHeader(&h); err != nil {
		return err
	}
	_, err := w.WriteData(data)
	return err
}

// Close finishes the open entry, writes the archive trailer and flushes the
// encoder. Failures here are always returned regardless of policy.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	finishErr := w.finishEntry()
	w.closed = true

	var errs []error
	if finishErr != nil {
		errs = append(errs, finishErr)
	}
	if err := w.tw.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%w: finish archive: %w", ErrWrite, err))
	}
	if err := w.enc.Close(); err != nil {
		errs = append(errs, fmt.Errorf("%w: flush %s encoder: %w", ErrWrite, OutputFilter, err))
	}
	return errors.Join(errs...)
}

// Abort ends the Writer after a failure. The open entry is left short and no
// end-of-archive trailer is written, so the output does not read back as a
// complete archive. Bytes already accepted are flushed through the encoder.
// Abort after Close, or a second Abort, does nothing.
func (w *Writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if e := w.cur; e != nil {
		w.cur = nil
		w.log().Warn("archive aborted", "entry", e.path, "missing_bytes", e.remaining)
	}
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("%w: flush %s encoder: %w", ErrWrite, OutputFilter, err)
	}
	return nil
}

// finishEntry settles the size bookkeeping of the open entry. Missing bytes
// are a short write; under the lenient policy they are zero-filled.
func (w *Writer) finishEntry() error {
	e := w.cur
	w.cur = nil
	if e == nil || e.broken || e.remaining <= 0 {
		return nil
	}

	err := w.record(fmt.Errorf("%w: entry %q missing %d bytes", ErrShortWrite, e.path, e.remaining))
	if err != nil {
		return err
	}
	if _, perr := io.CopyN(w.tw, zeroReader{}, e.remaining); perr != nil {
		return w.record(fmt.Errorf("%w: pad entry %q: %w", ErrWrite, e.path, perr))
	}
	return nil
}

// record applies the short-write policy to err.
func (w *Writer) record(err error) error {
	w.errs = append(w.errs, err)
	if w.policy == ShortWriteStrict {
		return err
	}
	w.log().Warn("archive write failed, continuing", "error", err)
	return nil
}

// outputHeader converts hdr to the GNU output format. Pax records cannot be
// carried by GNU headers and are dropped; user and group names are clipped to
// the GNU field width.
func outputHeader(hdr *tar.Header) *tar.Header {
	out := *hdr
	out.Format = OutputFormat
	out.PAXRecords = nil
	out.Xattrs = nil //nolint:staticcheck // cleared so it cannot force pax
	if out.Typeflag == tar.TypeGNUSparse {
		out.Typeflag = tar.TypeReg
	}
	out.Uname = clip(out.Uname, gnuNameWidth)
	out.Gname = clip(out.Gname, gnuNameWidth)
	return &out
}

const gnuNameWidth = 32

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// headerOnly mirrors archive/tar: these types carry no data.
func headerOnly(typeflag byte) bool {
	switch typeflag {
	case tar.TypeLink, tar.TypeSymlink, tar.TypeChar, tar.TypeBlock, tar.TypeDir, tar.TypeFifo:
		return true
	}
	return false
}

func dataSize(hdr *tar.Header) int64 {
	if headerOnly(hdr.Typeflag) {
		return 0
	}
	return hdr.Size
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}
