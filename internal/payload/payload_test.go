package payload

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"io"
	"strings"
	"testing"

	"github.com/dyuri/tmxread/internal/model"
	"github.com/dyuri/tmxread/internal/xmltree"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeGIDs(gids []uint32) []byte {
	buf := make([]byte, len(gids)*4)
	for i, g := range gids {
		binary.LittleEndian.PutUint32(buf[i*4:], g)
	}
	return buf
}

func compress(t *testing.T, compression string, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	switch compression {
	case CompressionGzip:
		w = gzip.NewWriter(&buf)
	case CompressionZlib:
		w = zlib.NewWriter(&buf)
	case CompressionZstd:
		zw, err := zstd.NewWriter(&buf)
		require.NoError(t, err)
		w = zw
	default:
		return raw
	}
	_, err := w.Write(raw)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestDecodeGIDs(t *testing.T) {
	gids := []uint32{1, 2, 0, 4, 0x10000, 7}

	for _, comp := range []string{CompressionNone, CompressionGzip, CompressionZlib, CompressionZstd} {
		t.Run("compression="+comp, func(t *testing.T) {
			text := "\n   " + base64.StdEncoding.EncodeToString(compress(t, comp, encodeGIDs(gids))) + "\n  "
			got, err := DecodeGIDs(text, comp, 3, 2)
			require.NoError(t, err)
			assert.Equal(t, gids, got)
		})
	}
}

func TestDecodeGIDsCompressionIsCaseInsensitive(t *testing.T) {
	text := base64.StdEncoding.EncodeToString(compress(t, CompressionGzip, encodeGIDs([]uint32{9})))
	got, err := DecodeGIDs(text, "GZIP", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{9}, got)
}

func TestDecodeGIDsRoundTripFraming(t *testing.T) {
	for n := 0; n < 9; n++ {
		gids := make([]uint32, n)
		for i := range gids {
			gids[i] = uint32(i*977 + 1)
		}
		raw := encodeGIDs(gids)
		text := base64.StdEncoding.EncodeToString(raw)

		got, err := DecodeGIDs(text, CompressionNone, n, 1)
		if n == 0 {
			assert.ErrorIs(t, err, ErrEmpty)
			continue
		}
		require.NoError(t, err)
		again := encodeGIDs(got)
		assert.Len(t, again, (len(raw)+3)/4*4)
		assert.Equal(t, raw, again)
	}
}

func TestDecodeGIDsTruncated(t *testing.T) {
	raw := encodeGIDs([]uint32{5, 6})
	raw = append(raw, 0x03, 0x01) // half a cell
	text := base64.StdEncoding.EncodeToString(raw)

	got, err := DecodeGIDs(text, CompressionNone, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{5, 6, 0x0103, 0}, got)
}

func TestDecodeGIDsErrors(t *testing.T) {
	_, err := DecodeGIDs("", CompressionNone, 1, 1)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = DecodeGIDs("!!!not base64", CompressionNone, 1, 1)
	assert.Error(t, err)

	text := base64.StdEncoding.EncodeToString(encodeGIDs([]uint32{1}))
	got, err := DecodeGIDs(text, "lzma", 1, 1)
	assert.ErrorIs(t, err, ErrUnknownCompression)
	assert.Equal(t, []uint32{0}, got)

	_, err = DecodeGIDs(text, CompressionGzip, 1, 1)
	assert.Error(t, err)
}

func TestPlainGIDs(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []uint32
	}{
		{"exact", `<data><tile gid="1"/><tile gid="2"/><tile gid="0"/><tile gid="4"/></data>`, []uint32{1, 2, 0, 4}},
		{"short", `<data><tile gid="3"/></data>`, []uint32{3, 0, 0, 0}},
		{"surplus", `<data><tile gid="1"/><tile gid="1"/><tile gid="1"/><tile gid="1"/><tile gid="9"/></data>`, []uint32{1, 1, 1, 1}},
		{"missing gid", `<data><tile/><Tile gid="2"/><other/></data>`, []uint32{0, 2, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := xmltree.Parse(strings.NewReader(tt.doc))
			require.NoError(t, err)
			got, err := PlainGIDs(root, 2, 2)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlainGIDsBadValue(t *testing.T) {
	tests := []struct {
		name string
		gid  string
	}{
		{"not a number", "one"},
		{"above 32 bits", "4294967297"},
		{"far above 32 bits", "99999999999999999999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := xmltree.Parse(strings.NewReader(`<data><tile gid="` + tt.gid + `"/></data>`))
			require.NoError(t, err)
			_, err = PlainGIDs(root, 1, 1)
			var attrErr *xmltree.AttrError
			require.ErrorAs(t, err, &attrErr)
			assert.Equal(t, "gid", attrErr.Name)
		})
	}
}

func TestPlainGIDsRange(t *testing.T) {
	root, err := xmltree.Parse(strings.NewReader(`<data><tile gid="4294967295"/><tile gid="-1"/></data>`))
	require.NoError(t, err)
	got, err := PlainGIDs(root, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{4294967295, 0}, got)
}

func TestOversizedGrid(t *testing.T) {
	root, err := xmltree.Parse(strings.NewReader(`<data/>`))
	require.NoError(t, err)

	_, err = PlainGIDs(root, 3037000500, 3037000500)
	assert.ErrorIs(t, err, model.ErrGridTooLarge)

	text := base64.StdEncoding.EncodeToString(encodeGIDs([]uint32{1}))
	_, err = DecodeGIDs(text, CompressionNone, model.MaxCells, 2)
	assert.ErrorIs(t, err, model.ErrGridTooLarge)
}

func TestDecodeBase64(t *testing.T) {
	data, err := DecodeBase64("  aGVs\n bG8=\t")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = DecodeBase64(" \n ")
	assert.ErrorIs(t, err, ErrEmpty)
}
