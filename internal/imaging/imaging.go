// Package imaging provides the image services the map reader relies on:
// decoding encoded bytes to a pixel grid, cutting a tile sheet into tiles
// and keying a colour out to transparency.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"strconv"
	"strings"
)

// Decoder turns encoded image bytes into a pixel grid.
type Decoder interface {
	Decode(data []byte) (image.Image, error)
}

// StdDecoder decodes any format registered with the image package.
type StdDecoder struct{}

func (StdDecoder) Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Load reads an encoded image from r and decodes it.
func Load(dec Decoder, r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return dec.Decode(data)
}

// Cutter slices a tile sheet into tile-sized images.
type Cutter interface {
	Cut(sheet image.Image) []image.Image
}

// GridCutter cuts a sheet on a regular grid, row by row.
type GridCutter struct {
	TileWidth  int
	TileHeight int
	Spacing    int // Gap between neighbouring tiles
	Margin     int // Border around the whole sheet
}

// Cut returns one image per complete cell; partial cells at the right and
// bottom edges are dropped.
func (c GridCutter) Cut(sheet image.Image) []image.Image {
	if sheet == nil || c.TileWidth <= 0 || c.TileHeight <= 0 {
		return nil
	}

	b := sheet.Bounds()
	var tiles []image.Image
	for y := b.Min.Y + c.Margin; y+c.TileHeight <= b.Max.Y-c.Margin; y += c.TileHeight + c.Spacing {
		for x := b.Min.X + c.Margin; x+c.TileWidth <= b.Max.X-c.Margin; x += c.TileWidth + c.Spacing {
			tile := image.NewNRGBA(image.Rect(0, 0, c.TileWidth, c.TileHeight))
			draw.Draw(tile, tile.Bounds(), sheet, image.Pt(x, y), draw.Src)
			tiles = append(tiles, tile)
		}
	}
	return tiles
}

// ColorKey returns a copy of img where every pixel matching key's RGB
// channels is fully transparent.
func ColorKey(img image.Image, key color.NRGBA) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)

	for i := 0; i+3 < len(out.Pix); i += 4 {
		if out.Pix[i] == key.R && out.Pix[i+1] == key.G && out.Pix[i+2] == key.B {
			out.Pix[i+3] = 0
		}
	}
	return out
}

// ParseHexColor parses an RGB colour like "ff00ff" or "#ff00ff".
func ParseHexColor(s string) (color.NRGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) > 6 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	return color.NRGBA{
		R: byte(v >> 16),
		G: byte(v >> 8),
		B: byte(v),
		A: 255,
	}, nil
}
