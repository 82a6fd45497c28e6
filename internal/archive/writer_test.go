package archive

import (
	"archive/tar"
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BenjamenMeyer/saved-game-format/internal/filter"
	"github.com/BenjamenMeyer/saved-game-format/internal/testutil"
)

// openOutput decodes a writer's output with the standard library, checking
// the output policy on the way.
func openOutput(t *testing.T, raw []byte) *tar.Reader {
	t.Helper()

	br := bufio.NewReader(bytes.NewReader(raw))
	f, err := filter.Detect(br)
	require.NoError(t, err)
	require.Equal(t, OutputFilter, f)

	dec, err := filter.NewReader(f, br)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dec.Close() })
	return tar.NewReader(dec)
}

func TestWriter_EmitsBzip2GNU(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	w, err := NewWriter(&out)
	require.NoError(t, err)

	require.NoError(t, w.WriteEntry(&tar.Header{Name: "a.json", Mode: 0o644, ModTime: testutil.ModTime}, []byte(`{"a":1}`)))
	require.NoError(t, w.WriteHeader(&tar.Header{Name: "b.bin", Mode: 0o644, Size: 6, ModTime: testutil.ModTime}))
	_, err = w.WriteData([]byte("abc"))
	require.NoError(t, err)
	_, err = w.WriteData([]byte("def"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.Empty(t, w.Errors())
	assert.Equal(t, WriteStats{Entries: 2, Bytes: 13}, w.Stats())

	tr := openOutput(t, out.Bytes())
	hdr, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, tar.FormatGNU, hdr.Format)
	assert.Equal(t, "a.json", hdr.Name)
	content, err := io.ReadAll(tr)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(content))

	hdr, err = tr.Next()
	require.NoError(t, err)
	assert.Equal(t, "b.bin", hdr.Name)
	content, err = io.ReadAll(tr)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(content))

	_, err = tr.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestWriter_NormalizesPaxInput(t *testing.T) {
	t.Parallel()

	long := "saves/" + string(bytes.Repeat([]byte("x"), 150)) + ".json"
	hdr := &tar.Header{
		Name:       long,
		Mode:       0o600,
		Size:       2,
		ModTime:    testutil.ModTime,
		Uname:      string(bytes.Repeat([]byte("u"), 40)),
		PAXRecords: map[string]string{"SGF.origin": "pax"},
		Format:     tar.FormatPAX,
	}

	var out bytes.Buffer
	w, err := NewWriter(&out)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(hdr))
	_, err = w.WriteData([]byte("{}"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// The caller's header is left alone.
	assert.Equal(t, tar.FormatPAX, hdr.Format)
	assert.NotNil(t, hdr.PAXRecords)

	tr := openOutput(t, out.Bytes())
	got, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, long, got.Name)
	assert.Equal(t, tar.FormatGNU, got.Format)
	assert.Len(t, got.Uname, gnuNameWidth)
	assert.Empty(t, got.PAXRecords)
}

func TestWriter_HeaderOnlyTypes(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	w, err := NewWriter(&out)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(&tar.Header{Name: "dir/", Typeflag: tar.TypeDir, Mode: 0o755}))
	require.NoError(t, w.WriteHeader(&tar.Header{Name: "link", Typeflag: tar.TypeSymlink, Linkname: "dir/"}))
	require.NoError(t, w.Close())
	assert.Empty(t, w.Errors())

	paths, _ := testutil.ReadEntries(t, openOutput(t, out.Bytes()))
	assert.Equal(t, []string{"dir/", "link"}, paths)
}

func TestWriter_ReplacingHeaderOnlyEntryKeepsZeroSize(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	w, err := NewWriter(&out)
	require.NoError(t, err)
	require.NoError(t, w.WriteEntry(&tar.Header{Name: "d/", Typeflag: tar.TypeDir, Mode: 0o755}, []byte("hello")))
	require.NoError(t, w.WriteEntry(&tar.Header{Name: "after.txt", Mode: 0o644}, []byte("ok")))
	require.NoError(t, w.Close())

	errs := w.Errors()
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrShortWrite)

	tr := openOutput(t, out.Bytes())
	hdr, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, "d/", hdr.Name)
	assert.Equal(t, byte(tar.TypeDir), hdr.Typeflag)
	assert.Zero(t, hdr.Size)

	hdr, err = tr.Next()
	require.NoError(t, err)
	assert.Equal(t, "after.txt", hdr.Name)
	content, err := io.ReadAll(tr)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(content))
}

func TestWriter_AbortLeavesIncompleteArchive(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	w, err := NewWriter(&out)
	require.NoError(t, err)

	require.NoError(t, w.WriteEntry(&tar.Header{Name: "a.json", Mode: 0o644}, []byte(`{}`)))
	require.NoError(t, w.WriteHeader(&tar.Header{Name: "b.bin", Mode: 0o644, Size: 4096}))
	_, err = w.WriteData([]byte("abc"))
	require.NoError(t, err)

	require.NoError(t, w.Abort())
	require.NoError(t, w.Abort())
	require.NoError(t, w.Close())
	assert.Empty(t, w.Errors(), "abort does not pad the open entry")

	err = w.WriteHeader(&tar.Header{Name: "c", Mode: 0o644})
	require.ErrorIs(t, err, ErrWrite)

	tr := openOutput(t, out.Bytes())
	hdr, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, "a.json", hdr.Name)

	hdr, err = tr.Next()
	require.NoError(t, err)
	assert.Equal(t, "b.bin", hdr.Name)
	_, err = io.ReadAll(tr)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestWriter_LenientShortWritePadsAndContinues(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	w, err := NewWriter(&out)
	require.NoError(t, err)

	require.NoError(t, w.WriteHeader(&tar.Header{Name: "short.bin", Mode: 0o644, Size: 8}))
	_, err = w.WriteData([]byte("abc"))
	require.NoError(t, err)
	require.NoError(t, w.WriteEntry(&tar.Header{Name: "next.bin", Mode: 0o644}, []byte("ok")))
	require.NoError(t, w.Close())

	errs := w.Errors()
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrShortWrite)
	require.ErrorIs(t, errs[0], ErrWrite)

	paths, data := testutil.ReadEntries(t, openOutput(t, out.Bytes()))
	assert.Equal(t, []string{"short.bin", "next.bin"}, paths)
	assert.Equal(t, []byte("abc\x00\x00\x00\x00\x00"), data[0])
	assert.Equal(t, []byte("ok"), data[1])
}

func TestWriter_LenientOverlongWrite(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	w, err := NewWriter(&out)
	require.NoError(t, err)

	require.NoError(t, w.WriteHeader(&tar.Header{Name: "a", Mode: 0o644, Size: 2}))
	n, err := w.WriteData([]byte("abcd"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.NoError(t, w.Close())

	errs := w.Errors()
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrShortWrite)
}

func TestWriter_StrictShortWriteFails(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	w, err := NewWriter(&out, WithShortWritePolicy(ShortWriteStrict))
	require.NoError(t, err)

	require.NoError(t, w.WriteHeader(&tar.Header{Name: "short.bin", Mode: 0o644, Size: 8}))
	_, err = w.WriteData([]byte("abc"))
	require.NoError(t, err)

	err = w.WriteHeader(&tar.Header{Name: "next.bin", Mode: 0o644})
	require.ErrorIs(t, err, ErrShortWrite)
	require.Len(t, w.Errors(), 1)
}

func TestWriter_StrictShortWriteOnClose(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	w, err := NewWriter(&out, WithShortWritePolicy(ShortWriteStrict))
	require.NoError(t, err)

	require.NoError(t, w.WriteHeader(&tar.Header{Name: "short.bin", Mode: 0o644, Size: 8}))
	require.ErrorIs(t, w.Close(), ErrShortWrite)
	require.NoError(t, w.Close())
}

func TestWriter_DataBeforeHeader(t *testing.T) {
	t.Parallel()

	w, err := NewWriter(io.Discard)
	require.NoError(t, err)
	_, err = w.WriteData([]byte("x"))
	require.ErrorIs(t, err, ErrWrite)
}

func TestWriter_UseAfterClose(t *testing.T) {
	t.Parallel()

	w, err := NewWriter(io.Discard)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	require.ErrorIs(t, w.WriteHeader(&tar.Header{Name: "a"}), ErrWrite)
	_, err = w.WriteData([]byte("x"))
	require.ErrorIs(t, err, ErrWrite)
}

func TestWriter_InvalidLevel(t *testing.T) {
	t.Parallel()

	_, err := NewWriter(io.Discard, WithCompressionLevel(99))
	require.ErrorIs(t, err, ErrWrite)
}

func TestShortWritePolicy_Parse(t *testing.T) {
	t.Parallel()

	p, err := ParseShortWritePolicy("Strict")
	require.NoError(t, err)
	assert.Equal(t, ShortWriteStrict, p)
	assert.Equal(t, "strict", p.String())

	p, err = ParseShortWritePolicy("lenient")
	require.NoError(t, err)
	assert.Equal(t, ShortWriteLenient, p)

	_, err = ParseShortWritePolicy("abort")
	require.Error(t, err)
	assert.Equal(t, "unknown", ShortWritePolicy(7).String())
}
