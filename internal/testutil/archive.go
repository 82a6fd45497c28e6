package testutil

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BenjamenMeyer/saved-game-format/internal/filter"
)

// ModTime is the modification time stamped on every synthetic entry.
var ModTime = time.Unix(1_700_000_000, 0).UTC()

// Entry describes one member of a synthetic archive.
type Entry struct {
	Path string
	Data []byte

	// Typeflag defaults to tar.TypeReg.
	Typeflag byte

	// Mode defaults to 0o644.
	Mode int64

	// PAX records are only written when the archive format is PAX.
	PAX map[string]string
}

// BuildArchive encodes entries as a tar stream of the given format wrapped
// in filter f.
func BuildArchive(tb testing.TB, f filter.Filter, format tar.Format, entries []Entry) []byte {
	tb.Helper()

	var buf bytes.Buffer
	cw, err := filter.NewWriter(f, &buf, 0)
	require.NoError(tb, err)

	tw := tar.NewWriter(cw)
	for _, e := range entries {
		require.NoError(tb, tw.WriteHeader(header(e, format)))
		if len(e.Data) > 0 {
			_, err := tw.Write(e.Data)
			require.NoError(tb, err)
		}
	}
	require.NoError(tb, tw.Close())
	require.NoError(tb, cw.Close())
	return buf.Bytes()
}

// WriteArchive builds an archive and writes it to dir/name, returning the path.
func WriteArchive(tb testing.TB, dir, name string, f filter.Filter, entries []Entry) string {
	tb.Helper()

	path := filepath.Join(dir, name)
	require.NoError(tb, os.WriteFile(path, BuildArchive(tb, f, tar.FormatUnknown, entries), 0o644))
	return path
}

// ReadEntries decodes an archive with the standard library and returns each
// member's path and content in file order.
func ReadEntries(tb testing.TB, r *tar.Reader) (paths []string, data [][]byte) {
	tb.Helper()

	for {
		hdr, err := r.Next()
		if err != nil {
			require.ErrorIs(tb, err, io.EOF)
			return paths, data
		}
		var content bytes.Buffer
		_, err = io.Copy(&content, r)
		require.NoError(tb, err)
		paths = append(paths, hdr.Name)
		data = append(data, content.Bytes())
	}
}

// Pattern returns n deterministic bytes that do not repeat on short cycles.
func Pattern(n int) []byte {
	out := make([]byte, n)
	var x uint32 = 2463534242
	for i := range out {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		out[i] = byte(x)
	}
	return out
}

func header(e Entry, format tar.Format) *tar.Header {
	if e.Typeflag == tar.TypeXGlobalHeader {
		return &tar.Header{
			Typeflag:   tar.TypeXGlobalHeader,
			Name:       e.Path,
			PAXRecords: e.PAX,
			Format:     tar.FormatPAX,
		}
	}
	typeflag := e.Typeflag
	if typeflag == 0 {
		typeflag = tar.TypeReg
	}
	mode := e.Mode
	if mode == 0 {
		mode = 0o644
	}
	hdr := &tar.Header{
		Typeflag: typeflag,
		Name:     e.Path,
		Mode:     mode,
		Size:     int64(len(e.Data)),
		ModTime:  ModTime,
		Uname:    "player",
		Gname:    "player",
		Format:   format,
	}
	if format == tar.FormatPAX && len(e.PAX) > 0 {
		hdr.PAXRecords = e.PAX
	}
	if typeflag == tar.TypeDir {
		hdr.Size = 0
	}
	return hdr
}
