package sgf

import (
	"log/slog"
	"strings"

	"github.com/BenjamenMeyer/saved-game-format/internal/archive"
	"github.com/BenjamenMeyer/saved-game-format/internal/filter"
)

// ShortWritePolicy decides whether a short entry write aborts a rewrite.
type ShortWritePolicy = archive.ShortWritePolicy

const (
	// ShortWriteLenient logs and records short writes, pads the entry and
	// keeps going. The report is then marked suspect. This is the default.
	ShortWriteLenient = archive.ShortWriteLenient

	// ShortWriteStrict aborts the rewrite on the first short write.
	ShortWriteStrict = archive.ShortWriteStrict
)

// ParseShortWritePolicy returns the policy named "lenient" or "strict".
var ParseShortWritePolicy = archive.ParseShortWritePolicy

// AutoFilter selects filter detection in WithInputFilter.
const AutoFilter = "auto"

// DefaultBlockSize is the data block size used when none is configured.
const DefaultBlockSize = archive.DefaultBlockSize

// Option configures an operation.
type Option func(*config)

type config struct {
	logger           *slog.Logger
	blockSize        int
	compressionLevel int
	shortWritePolicy ShortWritePolicy
	maxDecoderMemory uint64
	inputFilter      string
	progress         ProgressFunc
}

func newConfig(opts []Option) *config {
	cfg := &config{blockSize: DefaultBlockSize}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLogger sets the logger for diagnostics. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithBlockSize sets the size of the data blocks streamed from the input.
// Peak memory while copying an entry is bounded by this value.
// Values <= 0 use DefaultBlockSize.
func WithBlockSize(n int) Option {
	return func(c *config) {
		if n <= 0 {
			n = DefaultBlockSize
		}
		c.blockSize = n
	}
}

// WithCompressionLevel sets the bzip2 level (1-9) for rewritten containers.
// Zero uses the bzip2 default.
func WithCompressionLevel(level int) Option {
	return func(c *config) {
		c.compressionLevel = level
	}
}

// WithShortWritePolicy sets how a rewrite reacts to short entry writes.
func WithShortWritePolicy(p ShortWritePolicy) Option {
	return func(c *config) {
		c.shortWritePolicy = p
	}
}

// WithMaxDecoderMemory limits the memory used when decoding zstd input.
// Set limit to 0 to disable the limit.
func WithMaxDecoderMemory(limit uint64) Option {
	return func(c *config) {
		c.maxDecoderMemory = limit
	}
}

// WithInputFilter forces the compression filter of input containers instead
// of detecting it. Names are none, gzip, bzip2, xz, zstd and lz4. An empty
// name or "auto" keeps detection. An unknown name fails the operation.
func WithInputFilter(name string) Option {
	return func(c *config) {
		c.inputFilter = name
	}
}

// WithProgress sets a callback that receives an event per processed entry.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// log returns the logger, falling back to a discard logger if nil.
func (c *config) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

func (c *config) report(ev ProgressEvent) {
	if c.progress != nil {
		c.progress(ev)
	}
}

func (c *config) readerOptions() ([]archive.ReaderOption, error) {
	opts := []archive.ReaderOption{
		archive.WithBlockSize(c.blockSize),
		archive.WithMaxDecoderMemory(c.maxDecoderMemory),
		archive.WithReaderLogger(c.logger),
	}
	if c.inputFilter == "" || strings.EqualFold(c.inputFilter, AutoFilter) {
		return opts, nil
	}
	f, err := filter.Parse(c.inputFilter)
	if err != nil {
		return nil, err
	}
	return append(opts, archive.WithFilter(f)), nil
}

func (c *config) writerOptions() []archive.WriterOption {
	return []archive.WriterOption{
		archive.WithCompressionLevel(c.compressionLevel),
		archive.WithShortWritePolicy(c.shortWritePolicy),
		archive.WithWriterLogger(c.logger),
	}
}
