package tmx

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/dyuri/tmxread/internal/imaging"
	"github.com/dyuri/tmxread/internal/model"
	"github.com/dyuri/tmxread/internal/payload"
	"github.com/dyuri/tmxread/internal/xmltree"
)

// resolveTileset builds the tileset a <tileset> element describes, either
// inline or by loading the external file it references. m supplies the
// default cell size and may be nil.
func (r *Reader) resolveTileset(n xmltree.Node, m *model.Map) (*model.Tileset, error) {
	firstGID, err := xmltree.Int(n, "firstgid", 1)
	if err != nil {
		return nil, err
	}

	dir := r.BaseDir
	basedir, hasBaseDir := n.Attr("basedir")
	if hasBaseDir {
		dir = basedir
	}

	source, external := n.Attr("source")
	if !external {
		return r.inlineTileset(n, m, dir, firstGID)
	}

	path := resolvePath(dir, source)
	if !strings.EqualFold(filepath.Ext(source), ".tsx") {
		r.Diag.Warn("tileset files should end in .tsx! (%s)", source)
	}

	ts, err := r.loadTilesetFile(path)
	if err != nil {
		r.Diag.Error("Could not load external tileset file %s: %v", path, err)
		r.Diag.Error("tileset %s was not loaded correctly!", source)
		ts = model.NewTileset()
		ts.Source = path
	}
	ts.FirstGID = firstGID
	return ts, nil
}

// loadTilesetFile reads an external tileset document. References inside it
// resolve against its own directory.
func (r *Reader) loadTilesetFile(path string) (*model.Tileset, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}
	if r.loading[key] {
		return nil, fmt.Errorf("tileset %s references itself", path)
	}
	r.loading[key] = true
	defer delete(r.loading, key)

	f, err := r.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	root, err := xmltree.Parse(f)
	if err != nil {
		return nil, err
	}

	saved := r.BaseDir
	r.BaseDir = filepath.Dir(path)
	defer func() { r.BaseDir = saved }()

	r.Log.WithField("path", path).Debug("loading external tileset")
	return r.tilesetDocument(root, path)
}

// tilesetDocument builds the first <tileset> of a tileset document. Only
// one tileset per file is supported.
func (r *Reader) tilesetDocument(root xmltree.Node, filename string) (*model.Tileset, error) {
	n := findTileset(root)
	if n == nil {
		return nil, ErrNoTileset
	}

	if _, nested := n.Attr("source"); nested {
		r.Diag.Warn("Recursive external Tilesets are not supported.")
	}
	ts, err := r.resolveTileset(n, nil)
	if err != nil {
		return nil, err
	}
	if filename != "" {
		ts.Source = filename
	}
	return ts, nil
}

func findTileset(n xmltree.Node) xmltree.Node {
	if xmltree.Is(n, "tileset") {
		return n
	}
	for _, c := range n.Children() {
		if found := findTileset(c); found != nil {
			return found
		}
	}
	return nil
}

func (r *Reader) inlineTileset(n xmltree.Node, m *model.Map, dir string, firstGID int) (*model.Tileset, error) {
	defWidth, defHeight := 0, 0
	if m != nil {
		defWidth, defHeight = m.TileWidth, m.TileHeight
	}

	ts := model.NewTileset()
	ts.FirstGID = firstGID
	ts.Name = xmltree.String(n, "name", "")
	ts.BaseDir = xmltree.String(n, "basedir", "")

	var err error
	if ts.TileWidth, err = xmltree.Int(n, "tilewidth", defWidth); err != nil {
		return nil, err
	}
	if ts.TileHeight, err = xmltree.Int(n, "tileheight", defHeight); err != nil {
		return nil, err
	}
	if ts.Spacing, err = xmltree.Int(n, "spacing", 0); err != nil {
		return nil, err
	}

	// Explicit <tile> elements win over tiles cut from a sheet image.
	hasTiles := xmltree.Has(n, "tile")

	for _, child := range n.Children() {
		switch {
		case xmltree.Is(child, "tile"):
			tile, err := r.buildTile(ts, child, dir)
			if err != nil {
				return nil, err
			}
			if !ts.AddTile(tile) {
				r.Diag.Warn("Tile id %d exceeds %d; tile dropped", tile.ID, model.MaxLocalID)
			}

		case xmltree.Is(child, "image"):
			src, hasSrc := child.Attr("source")
			_, hasID := child.Attr("id")
			if hasSrc && !hasID {
				r.importSheet(ts, child, resolvePath(dir, src), !hasTiles)
				continue
			}
			id, err := xmltree.Int(child, "id", -1)
			if err != nil {
				return nil, err
			}
			if id > model.MaxLocalID {
				r.Diag.Warn("Image id %d exceeds %d; image dropped", id, model.MaxLocalID)
				continue
			}
			img := r.loadImage(child, dir)
			if id < 0 {
				ts.AddImage(img)
			} else {
				ts.SetImage(id, img)
			}

		case xmltree.Is(child, "property"), xmltree.Is(child, "properties"):
			r.readProperty(child, ts.Properties)
		}
	}

	return ts, nil
}

// importSheet cuts a whole-tileset image into tile images. With createTiles
// unset the images are registered but no tiles are numbered from them.
func (r *Reader) importSheet(ts *model.Tileset, n xmltree.Node, path string, createTiles bool) {
	sheet, err := r.loadImageFile(path)
	if err != nil {
		r.Diag.Error("%v (%s)", err, path)
		return
	}

	if trans, ok := n.Attr("trans"); ok {
		key, err := imaging.ParseHexColor(trans)
		if err != nil {
			r.Diag.Warn("Ignoring transparent colour on %s: %v", path, err)
		} else {
			sheet = imaging.ColorKey(sheet, key)
			ts.TransparentColor = &key
		}
	}

	pieces := r.NewCutter(ts.TileWidth, ts.TileHeight, ts.Spacing).Cut(sheet)
	if len(pieces) == 0 {
		r.Diag.Warn("No %dx%d tiles could be cut from %s", ts.TileWidth, ts.TileHeight, path)
	}

	for _, piece := range pieces {
		id := ts.AddImage(piece)
		if createTiles {
			tile := model.NewTile(-1)
			tile.ImageID = id
			ts.AddTile(tile)
		}
	}
	ts.ImageFilename = path
}

// buildTile constructs a static or animated tile from a <tile> element.
func (r *Reader) buildTile(ts *model.Tileset, n xmltree.Node, dir string) (*model.Tile, error) {
	var tile *model.Tile
	if xmltree.Has(n, "animation") {
		tile = model.NewAnimatedTile(-1)
	} else {
		tile = model.NewTile(-1)
	}
	bind(r, n, tileFields, tile)

	for _, child := range n.Children() {
		switch {
		case xmltree.Is(child, "image"):
			id, err := xmltree.Int(child, "id", -1)
			if err != nil {
				return nil, err
			}
			if id > model.MaxLocalID {
				r.Diag.Warn("Tile %d: image id %d exceeds %d; ignored", tile.ID, id, model.MaxLocalID)
				continue
			}
			if id < 0 {
				id = ts.AddImage(r.loadImage(child, dir))
			}
			tile.ImageID = id

		case xmltree.Is(child, "property"), xmltree.Is(child, "properties"):
			r.readProperty(child, tile.Properties)

		case xmltree.Is(child, "animation"):
			// Frames are not decoded; the tile keeps its animated kind.
			r.Diag.Info("Animation frames of tile %d are not decoded", tile.ID)
		}
	}
	return tile, nil
}

// loadImage loads an <image> from its source file or inline base64 data.
// Failures are reported and yield nil.
func (r *Reader) loadImage(n xmltree.Node, dir string) image.Image {
	if src, ok := n.Attr("source"); ok {
		path := resolvePath(dir, src)
		img, err := r.loadImageFile(path)
		if err != nil {
			r.Diag.Error("%v (%s)", err, path)
			return nil
		}
		return img
	}

	for _, child := range n.Children() {
		if !xmltree.Is(child, "data") {
			continue
		}
		raw, err := payload.DecodeBase64(child.Text())
		if errors.Is(err, payload.ErrEmpty) {
			r.Diag.Warn("image <data> tag enclosed no data. (empty data tag)")
			return nil
		}
		if err != nil {
			r.Diag.Error("Inline image: %v", err)
			return nil
		}
		img, err := r.Decoder.Decode(raw)
		if err != nil {
			r.Diag.Error("Inline image: %v", err)
			return nil
		}
		return img
	}

	r.Diag.Warn("<image> has neither a source nor <data>; no image loaded")
	return nil
}

func (r *Reader) loadImageFile(path string) (image.Image, error) {
	f, err := r.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return imaging.Load(r.Decoder, f)
}
