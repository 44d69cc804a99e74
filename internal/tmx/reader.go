// Package tmx reads tile-map documents (.tmx) and tileset documents (.tsx)
// into the model package's types.
//
// Structural problems that leave no usable map (a wrong root element, no
// map size, unreadable syntax) are returned as errors. Everything else is
// reported to the Reader's diagnostics sink and replaced with an empty
// substitute so the rest of the document still loads.
package tmx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dyuri/tmxread/internal/diag"
	"github.com/dyuri/tmxread/internal/imaging"
	"github.com/dyuri/tmxread/internal/model"
	"github.com/dyuri/tmxread/internal/payload"
	"github.com/dyuri/tmxread/internal/xmltree"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Filter lists the file patterns the reader understands.
const Filter = "*.tmx,*.tmx.gz,*.tsx"

var (
	ErrNotMap       = errors.New("not a valid tmx map file")
	ErrNoDimensions = errors.New("could not determine map size")
	ErrNoTileset    = errors.New("no tileset element found")
)

// Reader decodes documents. Its sink, base directory and loading state are
// per instance: use one Reader per goroutine.
type Reader struct {
	Diag      *diag.Sink
	Decoder   imaging.Decoder
	NewCutter func(tileWidth, tileHeight, spacing int) imaging.Cutter
	Open      func(path string) (io.ReadCloser, error) // Every file access goes through Open
	BaseDir   string                                   // Directory relative references resolve against
	ID        string                                   // Run identifier attached to log lines
	Log       *logrus.Entry

	loading map[string]bool // External tilesets currently being read
}

// NewReader creates a Reader reporting to sink. A nil sink gets a fresh one.
func NewReader(sink *diag.Sink) *Reader {
	if sink == nil {
		sink = diag.NewSink()
	}
	id := uuid.New().String()
	return &Reader{
		Diag:      sink,
		Decoder:   imaging.StdDecoder{},
		NewCutter: gridCutter,
		Open:      openFile,
		BaseDir:   ".",
		ID:        id,
		Log:       logrus.WithField("run", id),
		loading:   make(map[string]bool),
	}
}

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

func gridCutter(tileWidth, tileHeight, spacing int) imaging.Cutter {
	return imaging.GridCutter{TileWidth: tileWidth, TileHeight: tileHeight, Spacing: spacing}
}

// ReadMapFile reads a map from disk. Files ending in a transport suffix
// such as .gz are decompressed first.
func (r *Reader) ReadMapFile(path string) (*model.Map, error) {
	f, err := r.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open map: %w", err)
	}
	defer f.Close()

	src, err := payload.OpenTransport(path, f)
	if err != nil {
		return nil, fmt.Errorf("read map %s: %w", path, err)
	}
	defer src.Close()

	saved := r.BaseDir
	r.BaseDir = filepath.Dir(path)
	defer func() { r.BaseDir = saved }()

	m, err := r.ReadMap(src)
	if err != nil {
		return nil, fmt.Errorf("read map %s: %w", path, err)
	}
	m.Filename = path
	return m, nil
}

// ReadMap reads a map document from src, resolving relative references
// against r.BaseDir.
func (r *Reader) ReadMap(src io.Reader) (*model.Map, error) {
	root, err := xmltree.Parse(src)
	if err != nil {
		return nil, err
	}
	r.Log.WithField("base", r.BaseDir).Debug("building map")
	m, err := r.buildMap(root)
	if err != nil {
		return nil, err
	}

	l := r.Log.WithField("diagnostics", r.Diag.Len())
	if r.Diag.HasErrors() {
		l.Warn("map loaded with errors")
	} else {
		l.Debug("map loaded")
	}
	return m, nil
}

// ReadTilesetFile reads a standalone tileset document from disk.
func (r *Reader) ReadTilesetFile(path string) (*model.Tileset, error) {
	ts, err := r.loadTilesetFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tileset %s: %w", path, err)
	}
	return ts, nil
}

// ReadTileset reads a standalone tileset document from src.
func (r *Reader) ReadTileset(src io.Reader) (*model.Tileset, error) {
	root, err := xmltree.Parse(src)
	if err != nil {
		return nil, err
	}
	return r.tilesetDocument(root, "")
}

// Accept reports whether path names a document this package can read.
func Accept(path string) bool {
	name, wrapped := payload.StripTransport(strings.ToLower(path))
	if wrapped {
		return strings.HasSuffix(name, ".tmx")
	}
	return strings.HasSuffix(name, ".tmx") || strings.HasSuffix(name, ".tsx")
}

func (r *Reader) buildMap(root xmltree.Node) (*model.Map, error) {
	if root.Tag() != "map" {
		return nil, fmt.Errorf("%w: root element is <%s>", ErrNotMap, root.Tag())
	}

	width, height, err := r.mapSize(root)
	if err != nil {
		return nil, err
	}
	if err := checkGrid(root, width, height); err != nil {
		return nil, err
	}
	m := model.NewMap(width, height)

	tileWidth, err := xmltree.Int(root, "tilewidth", 0)
	if err != nil {
		return nil, err
	}
	tileHeight, err := xmltree.Int(root, "tileheight", 0)
	if err != nil {
		return nil, err
	}
	if tileWidth > 0 {
		m.TileWidth = tileWidth
	}
	if tileHeight > 0 {
		m.TileHeight = tileHeight
	}

	if o, ok := root.Attr("orientation"); ok {
		orientation, known := model.ParseOrientation(o)
		if !known {
			r.Diag.Warn("Unknown orientation '%s'", o)
		}
		m.Orientation = orientation
	}

	for _, child := range root.Children() {
		switch {
		case xmltree.Is(child, "tileset"):
			ts, err := r.resolveTileset(child, m)
			if err != nil {
				return nil, err
			}
			m.AddTileset(ts)

		case xmltree.Is(child, "property"), xmltree.Is(child, "properties"):
			r.readProperty(child, m.Properties)

		case xmltree.Is(child, "layer"):
			l, err := r.buildTileLayer(child, m)
			if err != nil {
				return nil, err
			}
			m.AddLayer(l)

		case xmltree.Is(child, "objectgroup"):
			m.AddLayer(r.buildObjectGroup(child, m))
		}
	}

	return m, nil
}

// mapSize reads the map size from the root attributes, falling back to a
// legacy <dimensions> child.
func (r *Reader) mapSize(root xmltree.Node) (int, int, error) {
	width, err := xmltree.Int(root, "width", 0)
	if err != nil {
		return 0, 0, err
	}
	height, err := xmltree.Int(root, "height", 0)
	if err != nil {
		return 0, 0, err
	}
	if width > 0 && height > 0 {
		return width, height, nil
	}

	for _, child := range root.Children() {
		if !xmltree.Is(child, "dimensions") {
			continue
		}
		w, err := xmltree.Int(child, "width", 0)
		if err != nil {
			return 0, 0, err
		}
		h, err := xmltree.Int(child, "height", 0)
		if err != nil {
			return 0, 0, err
		}
		if w > 0 && h > 0 {
			return w, h, nil
		}
	}
	return 0, 0, ErrNoDimensions
}

// readProperty stores a <property> element, or every property inside a
// <properties> wrapper, into props.
func (r *Reader) readProperty(n xmltree.Node, props model.Properties) {
	if xmltree.Is(n, "properties") {
		for _, c := range n.Children() {
			if xmltree.Is(c, "property") {
				r.readProperty(c, props)
			}
		}
		return
	}

	name, ok := n.Attr("name")
	if !ok {
		r.Diag.Warn("<%s> without a name ignored", n.Tag())
		return
	}
	value, ok := n.Attr("value")
	if !ok {
		value = n.Text()
	}
	props.Set(name, value)
}

var errNegativeSize = errors.New("size must not be negative")

// checkGrid rejects dimensions whose cell grid could not be allocated.
func checkGrid(n xmltree.Node, width, height int) error {
	if _, ok := model.CellCount(width, height); ok {
		return nil
	}

	name, value := "width", width
	cause := fmt.Errorf("%w: %dx%d", model.ErrGridTooLarge, width, height)
	switch {
	case width < 0:
		cause = errNegativeSize
	case height < 0:
		name, value, cause = "height", height, errNegativeSize
	}
	return &xmltree.AttrError{Tag: n.Tag(), Name: name, Value: strconv.Itoa(value), Err: cause}
}

// resolvePath turns a document reference into a local path. Absolute paths
// and file: locators are kept, anything else is joined to base.
func resolvePath(base, ref string) string {
	switch {
	case strings.HasPrefix(ref, "file://"):
		return filepath.FromSlash(strings.TrimPrefix(ref, "file://"))
	case strings.HasPrefix(ref, "file:"):
		return filepath.FromSlash(strings.TrimPrefix(ref, "file:"))
	case filepath.IsAbs(ref), strings.Contains(ref, "://"):
		return ref
	default:
		return filepath.Join(base, filepath.FromSlash(ref))
	}
}
