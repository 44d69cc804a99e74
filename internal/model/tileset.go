package model

import (
	"image"
	"image/color"
	"time"
)

// MaxLocalID is the highest tile or image id a tileset stores.
const MaxLocalID = 1<<20 - 1

// Tileset is a named collection of tiles sharing one geometry.
type Tileset struct {
	Name       string
	Source     string // External file it was loaded from, if any
	FirstGID   int    // Start of this tileset's range in the map's GID space
	TileWidth  int
	TileHeight int
	Spacing    int
	BaseDir    string // Overrides the document directory for image lookups

	TransparentColor *color.NRGBA // Colour keyed out of the sheet image
	ImageFilename    string       // Sheet image the tiles were cut from
	Properties       Properties

	tiles  []*Tile // Indexed by local id; holes are nil
	images []image.Image
}

// NewTileset creates an empty tileset starting at GID 1.
func NewTileset() *Tileset {
	return &Tileset{
		FirstGID:   1,
		Properties: make(Properties),
		tiles:      make([]*Tile, 0),
		images:     make([]image.Image, 0),
	}
}

// AddTile stores t at its local id, taking ownership of it. A negative id
// is replaced with the next free slot at the end of the tileset. It
// reports false, storing nothing, when the id is above MaxLocalID.
func (ts *Tileset) AddTile(t *Tile) bool {
	if t.ID < 0 {
		t.ID = len(ts.tiles)
	}
	if t.ID > MaxLocalID {
		return false
	}
	for len(ts.tiles) <= t.ID {
		ts.tiles = append(ts.tiles, nil)
	}
	ts.tiles[t.ID] = t
	t.Tileset = ts
	return true
}

// Tile returns the tile with the given local id, or nil.
func (ts *Tileset) Tile(id int) *Tile {
	if id < 0 || id >= len(ts.tiles) {
		return nil
	}
	return ts.tiles[id]
}

// Tiles returns the sparse tile table indexed by local id.
func (ts *Tileset) Tiles() []*Tile {
	return ts.tiles
}

// MaxTileID is the highest local id in use, or -1 for an empty tileset.
func (ts *Tileset) MaxTileID() int {
	for i := len(ts.tiles) - 1; i >= 0; i-- {
		if ts.tiles[i] != nil {
			return i
		}
	}
	return -1
}

// Size counts the tiles actually present.
func (ts *Tileset) Size() int {
	n := 0
	for _, t := range ts.tiles {
		if t != nil {
			n++
		}
	}
	return n
}

// ContainsGID reports whether gid falls in [FirstGID, FirstGID+MaxTileID].
func (ts *Tileset) ContainsGID(gid int) bool {
	last := ts.MaxTileID()
	return last >= 0 && gid >= ts.FirstGID && gid-ts.FirstGID <= last
}

// AddImage appends a shared image and returns its id.
func (ts *Tileset) AddImage(img image.Image) int {
	ts.images = append(ts.images, img)
	return len(ts.images) - 1
}

// SetImage stores img under an explicit id, growing the list as needed.
// Ids outside [0, MaxLocalID] report false and store nothing.
func (ts *Tileset) SetImage(id int, img image.Image) bool {
	if id < 0 || id > MaxLocalID {
		return false
	}
	for len(ts.images) <= id {
		ts.images = append(ts.images, nil)
	}
	ts.images[id] = img
	return true
}

// Image returns the shared image with the given id, or nil.
func (ts *Tileset) Image(id int) image.Image {
	if id < 0 || id >= len(ts.images) {
		return nil
	}
	return ts.images[id]
}

// Images returns all shared images in id order.
func (ts *Tileset) Images() []image.Image {
	return ts.images
}

// TileKind tells a static tile from an animated one.
type TileKind int

const (
	StaticTile   TileKind = iota // Single image
	AnimatedTile                 // Cycles through Frames
)

// Tile is one entry of a tileset.
type Tile struct {
	ID         int // Local id within the owning tileset
	Kind       TileKind
	ImageID    int // Index into the tileset's images, -1 for none
	Properties Properties
	Frames     []Frame // Only for AnimatedTile
	Tileset    *Tileset
}

// NewTile creates a static tile without an image.
func NewTile(id int) *Tile {
	return &Tile{
		ID:         id,
		Kind:       StaticTile,
		ImageID:    -1,
		Properties: make(Properties),
	}
}

// NewAnimatedTile creates an animated tile with no frames yet.
func NewAnimatedTile(id int) *Tile {
	t := NewTile(id)
	t.Kind = AnimatedTile
	t.Frames = make([]Frame, 0)
	return t
}

// Animated reports whether the tile cycles frames.
func (t *Tile) Animated() bool {
	return t.Kind == AnimatedTile
}

// Image returns the tile's image from its tileset.
func (t *Tile) Image() image.Image {
	if t.Tileset == nil {
		return nil
	}
	return t.Tileset.Image(t.ImageID)
}

// Frame is one step of a tile animation.
type Frame struct {
	TileID   int
	Duration time.Duration
}
