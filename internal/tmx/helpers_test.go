package tmx

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dyuri/tmxread/internal/diag"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/require"
)

// gidText packs gids little-endian, optionally compresses them and returns
// the base64 text of a <data> element.
func gidText(t *testing.T, compression string, gids ...uint32) string {
	t.Helper()
	raw := make([]byte, len(gids)*4)
	for i, g := range gids {
		binary.LittleEndian.PutUint32(raw[i*4:], g)
	}

	var buf bytes.Buffer
	switch compression {
	case "gzip":
		w := gzip.NewWriter(&buf)
		_, err := w.Write(raw)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		raw = buf.Bytes()
	case "zlib":
		w := zlib.NewWriter(&buf)
		_, err := w.Write(raw)
		require.NoError(t, err)
		require.NoError(t, w.Close())
		raw = buf.Bytes()
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeSheet writes a PNG of len(colors) square tiles laid out in one row.
func writeSheet(t *testing.T, path string, size int, colors ...color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size*len(colors), size))
	for i, c := range colors {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				img.SetNRGBA(i*size+x, y, c)
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func hasEntry(sink *diag.Sink, sev diag.Severity, fragment string) bool {
	for _, e := range sink.Entries() {
		if e.Severity == sev && strings.Contains(e.Message, fragment) {
			return true
		}
	}
	return false
}

func readString(t *testing.T, doc string) (*Reader, error) {
	t.Helper()
	r := NewReader(nil)
	_, err := r.ReadMap(strings.NewReader(doc))
	return r, err
}
