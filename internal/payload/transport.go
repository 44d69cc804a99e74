package payload

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// transports maps a whole-file compression suffix to its stream opener.
var transports = []struct {
	suffix string
	open   func(io.Reader) (io.Reader, func(), error)
}{
	{".gz", func(r io.Reader) (io.Reader, func(), error) {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { zr.Close() }, nil
	}},
	{".zst", func(r io.Reader) (io.Reader, func(), error) {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, zr.Close, nil
	}},
	{".xz", func(r io.Reader) (io.Reader, func(), error) {
		zr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, nil, nil
	}},
	{".lz4", func(r io.Reader) (io.Reader, func(), error) {
		return lz4.NewReader(r), nil, nil
	}},
}

// StripTransport removes a transport suffix from name, if present.
func StripTransport(name string) (string, bool) {
	lower := strings.ToLower(name)
	for _, t := range transports {
		if strings.HasSuffix(lower, t.suffix) {
			return name[:len(name)-len(t.suffix)], true
		}
	}
	return name, false
}

type transportReader struct {
	io.Reader
	release func()
}

func (t *transportReader) Close() error {
	if t.release != nil {
		t.release()
	}
	return nil
}

// OpenTransport wraps r in a decompressor chosen by the suffix of name.
// Names without a known suffix pass through unchanged. Closing the result
// releases the decompressor but not r.
func OpenTransport(name string, r io.Reader) (io.ReadCloser, error) {
	lower := strings.ToLower(name)
	for _, t := range transports {
		if !strings.HasSuffix(lower, t.suffix) {
			continue
		}
		zr, release, err := t.open(r)
		if err != nil {
			return nil, fmt.Errorf("open %s transport: %w", t.suffix, err)
		}
		return &transportReader{Reader: zr, release: release}, nil
	}
	return io.NopCloser(r), nil
}
