// Package export turns a loaded map into a flat summary that can be
// written as JSON, YAML or MessagePack.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dyuri/tmxread/internal/diag"
	"github.com/dyuri/tmxread/internal/model"
	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Supported output formats.
const (
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatMsgpack = "msgpack"
)

// Summary describes a map without its pixel data.
type Summary struct {
	File        string            `json:"file,omitempty" yaml:"file,omitempty" msgpack:"file,omitempty"`
	Width       int               `json:"width" yaml:"width" msgpack:"width"`
	Height      int               `json:"height" yaml:"height" msgpack:"height"`
	TileWidth   int               `json:"tile_width" yaml:"tile_width" msgpack:"tile_width"`
	TileHeight  int               `json:"tile_height" yaml:"tile_height" msgpack:"tile_height"`
	Orientation string            `json:"orientation" yaml:"orientation" msgpack:"orientation"`
	Properties  map[string]string `json:"properties,omitempty" yaml:"properties,omitempty" msgpack:"properties,omitempty"`
	Tilesets    []TilesetSummary  `json:"tilesets" yaml:"tilesets" msgpack:"tilesets"`
	Layers      []LayerSummary    `json:"layers" yaml:"layers" msgpack:"layers"`
	Diagnostics []string          `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
}

// TilesetSummary describes one tileset.
type TilesetSummary struct {
	Name       string `json:"name" yaml:"name" msgpack:"name"`
	FirstGID   int    `json:"first_gid" yaml:"first_gid" msgpack:"first_gid"`
	Tiles      int    `json:"tiles" yaml:"tiles" msgpack:"tiles"`
	Images     int    `json:"images" yaml:"images" msgpack:"images"`
	TileWidth  int    `json:"tile_width" yaml:"tile_width" msgpack:"tile_width"`
	TileHeight int    `json:"tile_height" yaml:"tile_height" msgpack:"tile_height"`
	Source     string `json:"source,omitempty" yaml:"source,omitempty" msgpack:"source,omitempty"`
	Image      string `json:"image,omitempty" yaml:"image,omitempty" msgpack:"image,omitempty"`
}

// LayerSummary describes one layer. GIDs is row-major and only set for
// tile layers; Objects only for object groups.
type LayerSummary struct {
	Kind       string            `json:"kind" yaml:"kind" msgpack:"kind"`
	Name       string            `json:"name" yaml:"name" msgpack:"name"`
	X          int               `json:"x" yaml:"x" msgpack:"x"`
	Y          int               `json:"y" yaml:"y" msgpack:"y"`
	Width      int               `json:"width" yaml:"width" msgpack:"width"`
	Height     int               `json:"height" yaml:"height" msgpack:"height"`
	Visible    bool              `json:"visible" yaml:"visible" msgpack:"visible"`
	Opacity    float64           `json:"opacity" yaml:"opacity" msgpack:"opacity"`
	Properties map[string]string `json:"properties,omitempty" yaml:"properties,omitempty" msgpack:"properties,omitempty"`
	GIDs       []int             `json:"gids,omitempty" yaml:"gids,flow,omitempty" msgpack:"gids,omitempty"`
	Objects    []ObjectSummary   `json:"objects,omitempty" yaml:"objects,omitempty" msgpack:"objects,omitempty"`
}

// ObjectSummary describes one object of an object group.
type ObjectSummary struct {
	ID      int     `json:"id" yaml:"id" msgpack:"id"`
	Name    string  `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	Type    string  `json:"type,omitempty" yaml:"type,omitempty" msgpack:"type,omitempty"`
	X       float64 `json:"x" yaml:"x" msgpack:"x"`
	Y       float64 `json:"y" yaml:"y" msgpack:"y"`
	Width   float64 `json:"width" yaml:"width" msgpack:"width"`
	Height  float64 `json:"height" yaml:"height" msgpack:"height"`
	GID     int     `json:"gid,omitempty" yaml:"gid,omitempty" msgpack:"gid,omitempty"`
	Visible bool    `json:"visible" yaml:"visible" msgpack:"visible"`
}

// FromMap summarises m together with the diagnostics of its read.
func FromMap(m *model.Map, entries []diag.Entry) *Summary {
	s := &Summary{
		File:        m.Filename,
		Width:       m.Width,
		Height:      m.Height,
		TileWidth:   m.TileWidth,
		TileHeight:  m.TileHeight,
		Orientation: m.Orientation.String(),
		Properties:  copyProps(m.Properties),
		Tilesets:    make([]TilesetSummary, 0, len(m.Tilesets)),
		Layers:      make([]LayerSummary, 0, len(m.Layers)),
	}
	for _, ts := range m.Tilesets {
		s.Tilesets = append(s.Tilesets, FromTileset(ts))
	}
	for _, l := range m.Layers {
		s.Layers = append(s.Layers, fromLayer(l))
	}
	for _, e := range entries {
		s.Diagnostics = append(s.Diagnostics, e.String())
	}
	return s
}

// FromTileset summarises a single tileset.
func FromTileset(ts *model.Tileset) TilesetSummary {
	return TilesetSummary{
		Name:       ts.Name,
		FirstGID:   ts.FirstGID,
		Tiles:      ts.Size(),
		Images:     len(ts.Images()),
		TileWidth:  ts.TileWidth,
		TileHeight: ts.TileHeight,
		Source:     ts.Source,
		Image:      ts.ImageFilename,
	}
}

func fromLayer(l model.Layer) LayerSummary {
	info := l.Info()
	ls := LayerSummary{
		Name:       info.Name,
		X:          info.X,
		Y:          info.Y,
		Width:      info.Width,
		Height:     info.Height,
		Visible:    info.Visible,
		Opacity:    info.Opacity,
		Properties: copyProps(info.Properties),
	}

	switch layer := l.(type) {
	case *model.TileLayer:
		ls.Kind = "tiles"
		ls.GIDs = make([]int, 0, layer.Width*layer.Height)
		for y := 0; y < layer.Height; y++ {
			for x := 0; x < layer.Width; x++ {
				ls.GIDs = append(ls.GIDs, GID(layer.TileAt(x, y)))
			}
		}
	case *model.ObjectGroup:
		ls.Kind = "objects"
		for _, o := range layer.Objects {
			ls.Objects = append(ls.Objects, ObjectSummary{
				ID:      o.ID,
				Name:    o.Name,
				Type:    o.Type,
				X:       o.X,
				Y:       o.Y,
				Width:   o.Width,
				Height:  o.Height,
				GID:     o.GID,
				Visible: o.Visible,
			})
		}
	default:
		ls.Kind = "unknown"
	}
	return ls
}

// GID maps a tile back to its global id, 0 for an empty cell.
func GID(t *model.Tile) int {
	if t == nil || t.Tileset == nil {
		return 0
	}
	return t.Tileset.FirstGID + t.ID
}

func copyProps(p model.Properties) map[string]string {
	if len(p) == 0 {
		return nil
	}
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Encode writes v to w in the given format.
func Encode(w io.Writer, format string, v interface{}) error {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(v)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
