// Package model holds the in-memory representation of a tile map: its
// geometry, tilesets, layers and free-form objects. It is filled in by the
// document reader and consumed by editors and engines; nothing here knows
// about the on-disk format.
package model

import (
	"strings"
)

// Map is the root of a loaded document. It owns every tileset and layer.
type Map struct {
	Width       int // Width in cells
	Height      int // Height in cells
	TileWidth   int // Default cell width in pixels
	TileHeight  int // Default cell height in pixels
	Orientation Orientation
	Tilesets    []*Tileset // Registration order
	Layers      []Layer    // Paint order, bottom to top
	Properties  Properties
	Filename    string // Source file, empty when read from a stream
}

// NewMap creates an empty map with the given dimensions.
func NewMap(width, height int) *Map {
	return &Map{
		Width:      width,
		Height:     height,
		Tilesets:   make([]*Tileset, 0),
		Layers:     make([]Layer, 0),
		Properties: make(Properties),
	}
}

// AddTileset registers a tileset. Later layers resolve GIDs against it.
func (m *Map) AddTileset(ts *Tileset) {
	m.Tilesets = append(m.Tilesets, ts)
}

// AddLayer appends a layer on top of the existing ones.
func (m *Map) AddLayer(l Layer) {
	m.Layers = append(m.Layers, l)
}

// TilesetForGID returns the first registered tileset whose GID range
// contains gid. Overlapping ranges resolve to the earliest registration.
// GID 0 never matches.
func (m *Map) TilesetForGID(gid int) *Tileset {
	if gid <= 0 {
		return nil
	}
	for _, ts := range m.Tilesets {
		if ts.ContainsGID(gid) {
			return ts
		}
	}
	return nil
}

// TileForGID resolves a global id to a tile, or nil for an empty cell.
func (m *Map) TileForGID(gid int) *Tile {
	ts := m.TilesetForGID(gid)
	if ts == nil {
		return nil
	}
	return ts.Tile(gid - ts.FirstGID)
}

// Orientation is the projection a map is drawn with.
type Orientation int

const (
	Orthogonal Orientation = iota // Square grid, the default
	Isometric                     // Diamond grid
	Hexagonal                     // Hex grid
	Oblique                       // Skewed grid
	Shifted                       // Staggered rows
)

var orientationNames = [...]string{
	Orthogonal: "orthogonal",
	Isometric:  "isometric",
	Hexagonal:  "hexagonal",
	Oblique:    "oblique",
	Shifted:    "shifted",
}

func (o Orientation) String() string {
	if o < 0 || int(o) >= len(orientationNames) {
		return "unknown"
	}
	return orientationNames[o]
}

// ParseOrientation matches an orientation keyword case-insensitively.
func ParseOrientation(s string) (Orientation, bool) {
	for i, name := range orientationNames {
		if strings.EqualFold(s, name) {
			return Orientation(i), true
		}
	}
	return Orthogonal, false
}

// Properties are custom key/value pairs attached to maps, layers, tiles
// and objects. Later assignments overwrite earlier ones.
type Properties map[string]string

// Set stores value under name.
func (p Properties) Set(name, value string) {
	p[name] = value
}
