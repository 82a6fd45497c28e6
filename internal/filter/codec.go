package filter

import (
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// ReaderOption configures decoder construction.
type ReaderOption func(*readerConfig)

type readerConfig struct {
	maxDecoderMemory uint64
}

// WithMaxDecoderMemory limits the memory a zstd decoder may allocate.
// Zero disables the limit.
func WithMaxDecoderMemory(limit uint64) ReaderOption {
	return func(c *readerConfig) {
		c.maxDecoderMemory = limit
	}
}

// NewReader wraps r with a decoder for f.
// The returned reader must be closed; closing it does not close r.
func NewReader(f Filter, r io.Reader, opts ...ReaderOption) (io.ReadCloser, error) {
	var cfg readerConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	switch f {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		return zr, nil
	case Bzip2:
		br, err := bzip2.NewReader(r, nil)
		if err != nil {
			return nil, fmt.Errorf("open bzip2 stream: %w", err)
		}
		return br, nil
	case Xz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open xz stream: %w", err)
		}
		return io.NopCloser(xr), nil
	case Zstd:
		dopts := []zstd.DOption{zstd.WithDecoderConcurrency(1)}
		if cfg.maxDecoderMemory != 0 {
			dopts = append(dopts, zstd.WithDecoderMaxMemory(cfg.maxDecoderMemory))
		}
		dec, err := zstd.NewReader(r, dopts...)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		return dec.IOReadCloser(), nil
	case Lz4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknown, f)
	}
}

// NewWriter wraps w with an encoder for f at the given level.
// A level of zero selects the filter's default. Closing the returned writer
// flushes the encoder but does not close w.
func NewWriter(f Filter, w io.Writer, level int) (io.WriteCloser, error) {
	switch f {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		if level == 0 {
			level = gzip.DefaultCompression
		}
		zw, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return nil, fmt.Errorf("create gzip encoder: %w", err)
		}
		return zw, nil
	case Bzip2:
		if level == 0 {
			level = bzip2.DefaultCompression
		}
		bw, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: level})
		if err != nil {
			return nil, fmt.Errorf("create bzip2 encoder: %w", err)
		}
		return bw, nil
	case Xz:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("create xz encoder: %w", err)
		}
		return xw, nil
	case Zstd:
		eopts := []zstd.EOption{zstd.WithEncoderConcurrency(1), zstd.WithLowerEncoderMem(true)}
		if level != 0 {
			eopts = append(eopts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		}
		enc, err := zstd.NewWriter(w, eopts...)
		if err != nil {
			return nil, fmt.Errorf("create zstd encoder: %w", err)
		}
		return enc, nil
	case Lz4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknown, f)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
