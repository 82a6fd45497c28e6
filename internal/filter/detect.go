package filter

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// signature matches the leading bytes of a compressed stream.
type signature struct {
	filter Filter
	match  func(head []byte) bool
}

var (
	gzipMagic  = []byte{0x1f, 0x8b, 0x08}
	bzip2Magic = []byte("BZh")
	xzMagic    = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
	zstdMagic  = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic   = []byte{0x04, 0x22, 0x4d, 0x18}

	// A bzip2 stream opens with a block or, when empty, the end-of-stream marker.
	bzip2Block = []byte{0x31, 0x41, 0x59, 0x26, 0x53, 0x59}
	bzip2End   = []byte{0x17, 0x72, 0x45, 0x38, 0x50, 0x90}
)

// signatures lists every compressed filter. Streams matching none of them
// are passed through as plain archives.
var signatures = []signature{
	{filter: Gzip, match: prefix(gzipMagic)},
	{filter: Bzip2, match: isBzip2},
	{filter: Xz, match: prefix(xzMagic)},
	{filter: Zstd, match: prefix(zstdMagic)},
	{filter: Lz4, match: prefix(lz4Magic)},
}

func prefix(magic []byte) func([]byte) bool {
	return func(head []byte) bool { return bytes.HasPrefix(head, magic) }
}

// isBzip2 checks "BZh", the block size digit and the first block marker.
func isBzip2(head []byte) bool {
	if len(head) < 10 || !bytes.HasPrefix(head, bzip2Magic) {
		return false
	}
	if head[3] < '1' || head[3] > '9' {
		return false
	}
	marker := head[4:10]
	return bytes.Equal(marker, bzip2Block) || bytes.Equal(marker, bzip2End)
}

// A plain tar member header carries "ustar" at this offset. Its first bytes
// are the member name, which may collide with a compression magic.
const (
	tarMagicOffset = 257
	tarBlockSize   = 512
)

var tarMagic = []byte("ustar")

// Detect sniffs the filter of the stream behind br without consuming any bytes.
func Detect(br *bufio.Reader) (Filter, error) {
	head, err := br.Peek(tarBlockSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return None, err
	}
	if isTarHeader(head) {
		return None, nil
	}
	for _, sig := range signatures {
		if sig.match(head) {
			return sig.filter, nil
		}
	}
	return None, nil
}

func isTarHeader(head []byte) bool {
	if len(head) < tarBlockSize {
		return false
	}
	return bytes.HasPrefix(head[tarMagicOffset:], tarMagic)
}
