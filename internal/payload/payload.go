// Package payload decodes the tile-grid and image payloads embedded in map
// documents.
//
// A grid payload is a stream of 32-bit little-endian global tile ids, one
// per cell in row-major order. It is carried either as base64 text,
// optionally compressed, or as a list of child elements with a gid
// attribute.
package payload

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dyuri/tmxread/internal/model"
	"github.com/dyuri/tmxread/internal/xmltree"
	"github.com/elliotwutingfeng/asciiset"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Supported values of the data element's compression attribute.
const (
	CompressionNone = ""
	CompressionGzip = "gzip"
	CompressionZlib = "zlib"
	CompressionZstd = "zstd"
)

var (
	ErrUnknownCompression = errors.New("unknown compression")
	ErrEmpty              = errors.New("empty payload")
)

var whitespace, _ = asciiset.MakeASCIISet(" \t\r\n\v\f")

// cleanBase64 drops the whitespace documents wrap long payloads with.
func cleanBase64(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x80 && whitespace.Contains(byte(r)) {
			return -1
		}
		return r
	}, s)
}

// DecodeBase64 decodes a base64 text blob.
func DecodeBase64(text string) ([]byte, error) {
	clean := cleanBase64(text)
	if clean == "" {
		return nil, ErrEmpty
	}
	data, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return data, nil
}

// DecodeGIDs decodes a base64 grid payload into exactly width*height ids.
//
// A short stream leaves the unread cells as 0. When decompression fails
// part way, the ids read so far are returned together with the error.
// Grids larger than model.MaxCells are rejected before decoding.
func DecodeGIDs(text, compression string, width, height int) ([]uint32, error) {
	n, err := cellCount(width, height)
	if err != nil {
		return nil, err
	}
	gids := make([]uint32, n)

	raw, err := DecodeBase64(text)
	if err != nil {
		return gids, err
	}

	r, err := decompress(compression, raw)
	if err != nil {
		return gids, err
	}
	defer r.Close()

	buf := make([]byte, n*4)
	read, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		err = fmt.Errorf("read %s stream: %w", compression, err)
	} else {
		err = nil
	}

	for i := 0; i < n && i*4 < read; i++ {
		gids[i] = binary.LittleEndian.Uint32(buf[i*4 : i*4+4])
	}
	return gids, err
}

func decompress(compression string, raw []byte) (io.ReadCloser, error) {
	src := bytes.NewReader(raw)

	switch strings.ToLower(compression) {
	case CompressionNone:
		return io.NopCloser(src), nil
	case CompressionGzip:
		zr, err := gzip.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		return zr, nil
	case CompressionZlib:
		zr, err := zlib.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("open zlib stream: %w", err)
		}
		return zr, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCompression, compression)
	}
}

// PlainGIDs collects the gid attributes of the <tile> children of a data
// element, row-major, into exactly width*height ids. Missing entries stay
// 0, surplus entries are ignored and a tile without a gid is empty.
func PlainGIDs(data xmltree.Node, width, height int) ([]uint32, error) {
	n, err := cellCount(width, height)
	if err != nil {
		return nil, err
	}
	gids := make([]uint32, n)

	i := 0
	for _, c := range data.Children() {
		if i >= n {
			break
		}
		if !xmltree.Is(c, "tile") {
			continue
		}
		gid, err := plainGID(c)
		if err != nil {
			return gids, err
		}
		gids[i] = gid
		i++
	}
	return gids, nil
}

// plainGID reads the gid of a <tile> child. Absent and negative values
// are empty cells; values that do not fit 32 bits are rejected.
func plainGID(c xmltree.Node) (uint32, error) {
	v, ok := c.Attr("gid")
	if !ok {
		return 0, nil
	}
	gid, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err == nil && gid > math.MaxUint32 {
		err = strconv.ErrRange
	}
	if err != nil {
		return 0, &xmltree.AttrError{Tag: c.Tag(), Name: "gid", Value: v, Err: err}
	}
	if gid <= 0 {
		return 0, nil
	}
	return uint32(gid), nil
}

// cellCount sizes a grid; negative sizes give an empty grid.
func cellCount(width, height int) (int, error) {
	if width < 0 || height < 0 {
		return 0, nil
	}
	n, ok := model.CellCount(width, height)
	if !ok {
		return 0, fmt.Errorf("%w: %dx%d", model.ErrGridTooLarge, width, height)
	}
	return n, nil
}
