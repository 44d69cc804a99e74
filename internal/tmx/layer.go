package tmx

import (
	"strings"

	"github.com/dyuri/tmxread/internal/model"
	"github.com/dyuri/tmxread/internal/payload"
	"github.com/dyuri/tmxread/internal/xmltree"
)

// buildTileLayer reads a <layer> element. Its size defaults to the map's.
func (r *Reader) buildTileLayer(n xmltree.Node, m *model.Map) (*model.TileLayer, error) {
	width, err := xmltree.Int(n, "width", m.Width)
	if err != nil {
		return nil, err
	}
	height, err := xmltree.Int(n, "height", m.Height)
	if err != nil {
		return nil, err
	}
	if err := checkGrid(n, width, height); err != nil {
		return nil, err
	}
	l := model.NewTileLayer(width, height)

	if l.X, err = xmltree.Int(n, "x", 0); err != nil {
		return nil, err
	}
	if l.Y, err = xmltree.Int(n, "y", 0); err != nil {
		return nil, err
	}
	visible, err := xmltree.Int(n, "visible", 1)
	if err != nil {
		return nil, err
	}
	l.Visible = visible != 0
	if l.Opacity, err = xmltree.Float(n, "opacity", 1.0); err != nil {
		return nil, err
	}
	l.Name = xmltree.String(n, "name", "")

	seenData := false
	for _, child := range n.Children() {
		switch {
		case xmltree.Is(child, "data"):
			if seenData {
				r.Diag.Warn("Layer '%s' has more than one <data> element; extra ignored", l.Name)
				continue
			}
			seenData = true
			if err := r.fillLayer(l, child, m); err != nil {
				return nil, err
			}

		case xmltree.Is(child, "property"), xmltree.Is(child, "properties"):
			r.readProperty(child, l.Properties)
		}
	}

	return l, nil
}

// fillLayer decodes a <data> element and resolves every id against the
// map's tilesets. Cells whose id matches no tileset are left empty.
func (r *Reader) fillLayer(l *model.TileLayer, data xmltree.Node, m *model.Map) error {
	var gids []uint32
	encoding, _ := data.Attr("encoding")

	switch {
	case strings.EqualFold(encoding, "base64"):
		if strings.TrimSpace(data.Text()) == "" {
			r.Diag.Warn("layer <data> tag enclosed no data. (empty data tag)")
			return nil
		}
		var err error
		gids, err = payload.DecodeGIDs(data.Text(), xmltree.String(data, "compression", ""), l.Width, l.Height)
		if err != nil {
			r.Diag.Error("Layer '%s': %v", l.Name, err)
		}

	case encoding == "":
		var err error
		gids, err = payload.PlainGIDs(data, l.Width, l.Height)
		if err != nil {
			return err
		}

	default:
		r.Diag.Warn("Layer '%s': unsupported encoding '%s'", l.Name, encoding)
		return nil
	}

	unresolved := 0
	for i, gid := range gids {
		if gid == 0 {
			continue
		}
		tile := m.TileForGID(int(gid))
		if tile == nil {
			unresolved++
			continue
		}
		l.SetTileAt(i%l.Width, i/l.Width, tile)
	}
	if unresolved > 0 {
		r.Diag.Warn("Layer '%s': %d cells reference tiles that no tileset provides", l.Name, unresolved)
	}
	return nil
}

// buildObjectGroup reads an <objectgroup> and the objects inside it.
func (r *Reader) buildObjectGroup(n xmltree.Node, m *model.Map) *model.ObjectGroup {
	g := model.NewObjectGroup(m.Width, m.Height)
	bind(r, n, groupFields, g)

	for _, child := range n.Children() {
		switch {
		case xmltree.Is(child, "object"):
			g.BindObject(r.buildObject(child))
		case xmltree.Is(child, "property"), xmltree.Is(child, "properties"):
			r.readProperty(child, g.Properties)
		}
	}
	return g
}

func (r *Reader) buildObject(n xmltree.Node) *model.MapObject {
	obj := model.NewMapObject()
	bind(r, n, objectFields, obj)

	for _, child := range n.Children() {
		if xmltree.Is(child, "property") || xmltree.Is(child, "properties") {
			r.readProperty(child, obj.Properties)
		}
	}
	return obj
}
