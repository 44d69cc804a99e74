package tmx

import (
	"errors"
	"strings"
	"testing"

	"github.com/dyuri/tmxread/internal/diag"
	"github.com/dyuri/tmxread/internal/model"
	"github.com/dyuri/tmxread/internal/xmltree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLayer(t *testing.T, body string) (*Reader, *model.Map) {
	t.Helper()
	r := NewReader(nil)
	m, err := r.ReadMap(strings.NewReader(`<map width="2" height="2">` + fourTiles + body + `</map>`))
	require.NoError(t, err)
	return r, m
}

func TestTileLayerAttributes(t *testing.T) {
	_, m := readLayer(t, `<layer name="a"/><layer name="b" opacity="0.5" visible="0" x="3" y="-1" width="4" height="1"/>`)
	require.Len(t, m.Layers, 2)

	a := m.Layers[0].(*model.TileLayer)
	assert.Equal(t, 1.0, a.Opacity)
	assert.True(t, a.Visible)
	assert.Equal(t, 2, a.Width)
	assert.Equal(t, 2, a.Height)

	b := m.Layers[1].(*model.TileLayer)
	assert.Equal(t, 0.5, b.Opacity)
	assert.False(t, b.Visible)
	assert.Equal(t, 3, b.X)
	assert.Equal(t, -1, b.Y)
	assert.Equal(t, 4, b.Width)
	assert.Equal(t, 1, b.Height)
}

func TestTileLayerVisibleNonZero(t *testing.T) {
	_, m := readLayer(t, `<layer visible="2"/>`)
	assert.True(t, m.Layers[0].Info().Visible)
}

func TestTileLayerBadOpacityIsFatal(t *testing.T) {
	r := NewReader(nil)
	_, err := r.ReadMap(strings.NewReader(`<map width="1" height="1"><layer opacity="half"/></map>`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opacity")
}

func TestTileLayerPlainData(t *testing.T) {
	r, m := readLayer(t, `<layer><data><tile gid="4"/><tile/><tile gid="1"/></data>
  <properties><property name="z" value="1"/></properties></layer>`)

	l := m.Layers[0].(*model.TileLayer)
	assert.Equal(t, 3, l.TileAt(0, 0).ID)
	assert.Nil(t, l.TileAt(1, 0))
	assert.Equal(t, 0, l.TileAt(0, 1).ID)
	assert.Nil(t, l.TileAt(1, 1))
	assert.Equal(t, 2, l.Count())
	assert.Equal(t, "1", l.Properties["z"])
	assert.Equal(t, 0, r.Diag.Len())
}

func TestTileLayerUnresolvedGIDs(t *testing.T) {
	r, m := readLayer(t, `<layer name="x"><data><tile gid="9"/><tile gid="1"/><tile gid="70"/></data></layer>`)

	l := m.Layers[0].(*model.TileLayer)
	assert.Nil(t, l.TileAt(0, 0))
	assert.NotNil(t, l.TileAt(1, 0))
	assert.Equal(t, 1, r.Diag.Count(diag.Warn))
	assert.True(t, hasEntry(r.Diag, diag.Warn, "Layer 'x': 2 cells"))
}

func TestTileLayerEmptyBase64(t *testing.T) {
	r, m := readLayer(t, `<layer><data encoding="base64">   </data></layer>`)
	assert.Equal(t, 0, m.Layers[0].(*model.TileLayer).Count())
	assert.True(t, hasEntry(r.Diag, diag.Warn, "layer <data> tag enclosed no data. (empty data tag)"))
}

func TestTileLayerTruncatedStream(t *testing.T) {
	text := gidText(t, "", 1, 2, 3)
	r, m := readLayer(t, `<layer><data encoding="BASE64">`+text+`</data></layer>`)

	l := m.Layers[0].(*model.TileLayer)
	assert.Equal(t, 3, l.Count())
	assert.Nil(t, l.TileAt(1, 1))
	assert.False(t, r.Diag.HasErrors())
}

func TestTileLayerCorruptCompression(t *testing.T) {
	r, m := readLayer(t, `<layer><data encoding="base64" compression="gzip">AAAAAA==</data></layer>`)
	assert.Equal(t, 0, m.Layers[0].(*model.TileLayer).Count())
	assert.True(t, r.Diag.HasErrors())
}

func TestTileLayerUnsupportedEncoding(t *testing.T) {
	r, m := readLayer(t, `<layer name="c"><data encoding="csv">1,2,3,4</data></layer>`)
	assert.Equal(t, 0, m.Layers[0].(*model.TileLayer).Count())
	assert.True(t, hasEntry(r.Diag, diag.Warn, "unsupported encoding 'csv'"))
}

func TestTileLayerExtraData(t *testing.T) {
	r, m := readLayer(t, `<layer name="d"><data><tile gid="1"/></data><data><tile gid="2"/></data></layer>`)
	l := m.Layers[0].(*model.TileLayer)
	assert.Equal(t, 0, l.TileAt(0, 0).ID)
	assert.True(t, hasEntry(r.Diag, diag.Warn, "more than one <data>"))
}

func TestObjectGroup(t *testing.T) {
	r, m := readLayer(t, `<objectgroup name="things" opacity="0.25" color="#fff">
  <object id="7" name="door" type="portal" x="1.5" y="2" width="16" height="8" visible="0" Rotation="90" shape="box">
    <property name="target" value="cellar"/>
  </object>
  <object gid="3" visible="maybe"/>
  <property name="layer" value="objects"/>
</objectgroup>`)

	require.Len(t, m.Layers, 1)
	g, ok := m.Layers[0].(*model.ObjectGroup)
	require.True(t, ok)
	assert.Equal(t, "things", g.Name)
	assert.Equal(t, 0.25, g.Opacity)
	assert.Equal(t, 2, g.Width)
	assert.Equal(t, "objects", g.Properties["layer"])
	require.Len(t, g.Objects, 2)

	door := g.Objects[0]
	assert.Equal(t, 7, door.ID)
	assert.Equal(t, "door", door.Name)
	assert.Equal(t, "portal", door.Type)
	assert.Equal(t, 1.5, door.X)
	assert.Equal(t, 2.0, door.Y)
	assert.Equal(t, 16.0, door.Width)
	assert.Equal(t, 8.0, door.Height)
	assert.Equal(t, 90.0, door.Rotation)
	assert.False(t, door.Visible)
	assert.Equal(t, "cellar", door.Properties["target"])

	tile := g.Objects[1]
	assert.Equal(t, 3, tile.GID)
	assert.True(t, tile.Visible, "bad value leaves the default")

	assert.True(t, hasEntry(r.Diag, diag.Warn, "Unsupported attribute 'color' on <objectgroup> tag"))
	assert.True(t, hasEntry(r.Diag, diag.Warn, "Unsupported attribute 'shape' on <object> tag"))
	assert.True(t, hasEntry(r.Diag, diag.Warn, `Invalid value "maybe" for attribute 'visible'`))
	assert.Equal(t, 3, r.Diag.Count(diag.Warn))
}

func TestOversizedGridsAreRejected(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		tag  string
		attr string
		want error
	}{
		{"layer", `<map width="2" height="2"><layer width="3037000500" height="3037000500"><data/></layer></map>`,
			"layer", "width", model.ErrGridTooLarge},
		{"map", `<map width="3037000500" height="3037000500"/>`, "map", "width", model.ErrGridTooLarge},
		{"legacy dimensions", `<map><dimensions width="100000" height="100000"/></map>`, "map", "width", model.ErrGridTooLarge},
		{"negative height", `<map width="2" height="2"><layer width="4" height="-1"/></map>`, "layer", "height", errNegativeSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() { _, err = readString(t, tt.doc) })
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var attrErr *xmltree.AttrError
			require.True(t, errors.As(err, &attrErr))
			assert.Equal(t, tt.tag, attrErr.Tag)
			assert.Equal(t, tt.attr, attrErr.Name)
		})
	}
}

func TestPlainGIDOutOfRange(t *testing.T) {
	_, err := readString(t, `<map width="1" height="1">`+fourTiles+
		`<layer><data><tile gid="4294967297"/></data></layer></map>`)
	require.Error(t, err)

	var attrErr *xmltree.AttrError
	require.True(t, errors.As(err, &attrErr))
	assert.Equal(t, "gid", attrErr.Name)
	assert.Equal(t, "4294967297", attrErr.Value)
}
