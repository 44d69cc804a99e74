package model

import "errors"

// MaxCells bounds the number of cells of a single grid.
const MaxCells = 1 << 24

// ErrGridTooLarge reports grid dimensions beyond MaxCells.
var ErrGridTooLarge = errors.New("grid exceeds maximum cell count")

// CellCount returns width*height. It reports false for negative sizes and
// for products beyond MaxCells.
func CellCount(width, height int) (int, bool) {
	if width < 0 || height < 0 {
		return 0, false
	}
	if width == 0 || height == 0 {
		return 0, true
	}
	if width > MaxCells/height {
		return 0, false
	}
	return width * height, true
}

// Layer is a paintable unit of a map: a TileLayer or an ObjectGroup.
type Layer interface {
	Info() *LayerInfo
}

// LayerInfo holds the attributes shared by every layer kind.
type LayerInfo struct {
	Name       string
	X, Y       int // Offset
	Width      int
	Height     int
	Visible    bool
	Opacity    float64 // 0.0 transparent .. 1.0 opaque
	Properties Properties
}

func newLayerInfo(width, height int) LayerInfo {
	return LayerInfo{
		Width:      width,
		Height:     height,
		Visible:    true,
		Opacity:    1.0,
		Properties: make(Properties),
	}
}

// TileLayer is a row-major grid of tile references.
type TileLayer struct {
	LayerInfo
	cells []*Tile
}

// NewTileLayer creates a grid with every cell empty. Sizes CellCount
// rejects give a 0x0 layer.
func NewTileLayer(width, height int) *TileLayer {
	n, ok := CellCount(width, height)
	if !ok {
		width, height = 0, 0
	}
	return &TileLayer{
		LayerInfo: newLayerInfo(width, height),
		cells:     make([]*Tile, n),
	}
}

func (l *TileLayer) Info() *LayerInfo { return &l.LayerInfo }

// TileAt returns the tile at (x, y), or nil when empty or out of bounds.
func (l *TileLayer) TileAt(x, y int) *Tile {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return nil
	}
	return l.cells[y*l.Width+x]
}

// SetTileAt assigns a cell; out-of-bounds writes are ignored.
func (l *TileLayer) SetTileAt(x, y int, t *Tile) {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return
	}
	l.cells[y*l.Width+x] = t
}

// Count returns the number of non-empty cells.
func (l *TileLayer) Count() int {
	n := 0
	for _, c := range l.cells {
		if c != nil {
			n++
		}
	}
	return n
}

// ObjectGroup is a layer of free-form objects.
type ObjectGroup struct {
	LayerInfo
	Objects []*MapObject
}

// NewObjectGroup creates an empty group sized like its map.
func NewObjectGroup(width, height int) *ObjectGroup {
	return &ObjectGroup{
		LayerInfo: newLayerInfo(width, height),
		Objects:   make([]*MapObject, 0),
	}
}

func (g *ObjectGroup) Info() *LayerInfo { return &g.LayerInfo }

// BindObject appends obj to the group.
func (g *ObjectGroup) BindObject(obj *MapObject) {
	g.Objects = append(g.Objects, obj)
}

// MapObject is a free-form object placed on an ObjectGroup.
type MapObject struct {
	ID       int
	Name     string
	Type     string
	X, Y     float64
	Width    float64
	Height   float64
	Rotation float64
	GID      int
	Visible  bool
	Image    string // Image source path

	Properties Properties
}

// NewMapObject creates a visible object with no properties.
func NewMapObject() *MapObject {
	return &MapObject{
		Visible:    true,
		Properties: make(Properties),
	}
}
