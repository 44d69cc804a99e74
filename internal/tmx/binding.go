package tmx

import (
	"strconv"
	"strings"

	"github.com/dyuri/tmxread/internal/model"
	"github.com/dyuri/tmxread/internal/xmltree"
)

// setter converts one attribute value and stores it on the target.
type setter[T any] func(target T, value string) error

// fieldTable maps lower-cased attribute names to setters.
type fieldTable[T any] map[string]setter[T]

// bind applies every attribute of n to target through table. Attributes
// without an entry, and values that fail to convert, are reported and
// dropped; binding never fails as a whole.
func bind[T any](r *Reader, n xmltree.Node, table fieldTable[T], target T) {
	for _, a := range n.Attrs() {
		set, ok := table[strings.ToLower(a.Name)]
		if !ok {
			r.Diag.Warn("Unsupported attribute '%s' on <%s> tag", a.Name, n.Tag())
			continue
		}
		if err := set(target, a.Value); err != nil {
			r.Diag.Warn("Invalid value %q for attribute '%s' on <%s> tag: %v", a.Value, a.Name, n.Tag(), err)
		}
	}
}

func setInt(dst *int, v string) error {
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	*dst = i
	return nil
}

func setFloat(dst *float64, v string) error {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return err
	}
	*dst = f
	return nil
}

// setBool accepts 1/0 as well as true/false.
func setBool(dst *bool, v string) error {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return err
	}
	*dst = b
	return nil
}

func setString(dst *string, v string) error {
	*dst = v
	return nil
}

var objectFields = fieldTable[*model.MapObject]{
	"id":       func(o *model.MapObject, v string) error { return setInt(&o.ID, v) },
	"name":     func(o *model.MapObject, v string) error { return setString(&o.Name, v) },
	"type":     func(o *model.MapObject, v string) error { return setString(&o.Type, v) },
	"x":        func(o *model.MapObject, v string) error { return setFloat(&o.X, v) },
	"y":        func(o *model.MapObject, v string) error { return setFloat(&o.Y, v) },
	"width":    func(o *model.MapObject, v string) error { return setFloat(&o.Width, v) },
	"height":   func(o *model.MapObject, v string) error { return setFloat(&o.Height, v) },
	"rotation": func(o *model.MapObject, v string) error { return setFloat(&o.Rotation, v) },
	"gid":      func(o *model.MapObject, v string) error { return setInt(&o.GID, v) },
	"visible":  func(o *model.MapObject, v string) error { return setBool(&o.Visible, v) },
	"image":    func(o *model.MapObject, v string) error { return setString(&o.Image, v) },
}

var groupFields = fieldTable[*model.ObjectGroup]{
	"name":    func(g *model.ObjectGroup, v string) error { return setString(&g.Name, v) },
	"x":       func(g *model.ObjectGroup, v string) error { return setInt(&g.X, v) },
	"y":       func(g *model.ObjectGroup, v string) error { return setInt(&g.Y, v) },
	"width":   func(g *model.ObjectGroup, v string) error { return setInt(&g.Width, v) },
	"height":  func(g *model.ObjectGroup, v string) error { return setInt(&g.Height, v) },
	"visible": func(g *model.ObjectGroup, v string) error { return setBool(&g.Visible, v) },
	"opacity": func(g *model.ObjectGroup, v string) error { return setFloat(&g.Opacity, v) },
}

var tileFields = fieldTable[*model.Tile]{
	"id": func(t *model.Tile, v string) error { return setInt(&t.ID, v) },
}
