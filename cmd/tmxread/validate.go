package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dyuri/tmxread/internal/diag"
	"github.com/dyuri/tmxread/internal/model"
)

// validator collects problems reported by the reader and found on the
// loaded map.
type validator struct {
	strict   bool
	errors   []string
	warnings []string
	notes    []string
	file     string
}

func newValidator(strict bool) *validator {
	return &validator{
		strict:   strict,
		errors:   make([]string, 0),
		warnings: make([]string, 0),
	}
}

func (v *validator) error(msg string, args ...interface{}) {
	v.errors = append(v.errors, fmt.Sprintf(msg, args...))
}

func (v *validator) warning(msg string, args ...interface{}) {
	v.warnings = append(v.warnings, fmt.Sprintf(msg, args...))
}

func (v *validator) hasErrors() bool {
	return len(v.errors) > 0
}

func (v *validator) hasWarnings() bool {
	return len(v.warnings) > 0
}

func (v *validator) addDiagnostics(entries []diag.Entry) {
	for _, e := range entries {
		switch e.Severity {
		case diag.Error:
			v.error("%s", e.Message)
		case diag.Warn:
			v.warning("%s", e.Message)
		default:
			v.notes = append(v.notes, e.Message)
		}
	}
}

func (v *validator) validate(m *model.Map, file string) {
	v.file = file

	v.validateTilesets(m.Tilesets)
	v.validateLayers(m)
}

func (v *validator) validateTilesets(tilesets []*model.Tileset) {
	if len(tilesets) == 0 {
		v.warning("No tilesets defined")
		return
	}

	for i, ts := range tilesets {
		if ts.Size() == 0 {
			v.warning("Tileset %d (%s) has no tiles", i, ts.Name)
			continue
		}
		if ts.FirstGID < 1 {
			v.error("Tileset %d (%s): invalid firstgid %d", i, ts.Name, ts.FirstGID)
		}

		// Earlier registrations win, so a later overlapping range is
		// partly unreachable.
		last := ts.FirstGID + ts.MaxTileID()
		for j := 0; j < i; j++ {
			prev := tilesets[j]
			if prev.Size() == 0 {
				continue
			}
			prevLast := prev.FirstGID + prev.MaxTileID()
			if ts.FirstGID <= prevLast && prev.FirstGID <= last {
				v.warning("Tileset %d (%s): GIDs %d-%d overlap tileset %d (%s)",
					i, ts.Name, ts.FirstGID, last, j, prev.Name)
			}
		}
	}
}

func (v *validator) validateLayers(m *model.Map) {
	if len(m.Layers) == 0 {
		v.warning("No layers defined")
		return
	}

	for i, l := range m.Layers {
		info := l.Info()
		if info.Opacity < 0 || info.Opacity > 1 {
			v.warning("Layer %d (%s): opacity %.2f outside 0-1", i, info.Name, info.Opacity)
		}

		switch layer := l.(type) {
		case *model.TileLayer:
			if layer.Width != m.Width || layer.Height != m.Height {
				v.warning("Layer %d (%s): size %dx%d differs from map %dx%d",
					i, info.Name, layer.Width, layer.Height, m.Width, m.Height)
			}
			if layer.Count() == 0 {
				v.warning("Layer %d (%s) is empty", i, info.Name)
			}
		case *model.ObjectGroup:
			for _, o := range layer.Objects {
				if o.GID != 0 && m.TileForGID(o.GID) == nil {
					v.warning("Layer %d (%s): object %d uses unknown gid %d", i, info.Name, o.ID, o.GID)
				}
			}
		}
	}
}

func (v *validator) printResults(w io.Writer) {
	fmt.Fprintf(w, "Validating: %s\n", v.file)
	fmt.Fprintln(w, strings.Repeat("=", 50))

	for _, note := range v.notes {
		fmt.Fprintf(w, "  i %s\n", note)
	}

	if len(v.errors) == 0 && len(v.warnings) == 0 {
		fmt.Fprintln(w, "✓ Valid map - no issues found")
		return
	}

	if len(v.errors) > 0 {
		fmt.Fprintf(w, "\nErrors (%d):\n", len(v.errors))
		for _, err := range v.errors {
			fmt.Fprintf(w, "  ✗ %s\n", err)
		}
	}

	if len(v.warnings) > 0 {
		fmt.Fprintf(w, "\nWarnings (%d):\n", len(v.warnings))
		for _, warn := range v.warnings {
			fmt.Fprintf(w, "  ⚠ %s\n", warn)
		}
	}

	fmt.Fprintln(w)
	if len(v.errors) > 0 {
		fmt.Fprintf(w, "Validation failed: %d error(s)", len(v.errors))
		if len(v.warnings) > 0 {
			fmt.Fprintf(w, ", %d warning(s)", len(v.warnings))
		}
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "Validation passed with %d warning(s)\n", len(v.warnings))
		if v.strict {
			fmt.Fprintln(w, "(use without --strict to ignore warnings)")
		}
	}
}
