// Package tmxread provides functions for loading TMX tile maps and TSX
// tilesets.
//
// This package can be used as a library to read maps programmatically.
// Problems that still leave a usable map are returned as diagnostics next
// to the map instead of failing the read.
//
// Example usage:
//
//	m, diags, err := tmxread.ReadMapFile("levels/intro.tmx", nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, d := range diags {
//	    log.Println(d)
//	}
package tmxread

import (
	"encoding/xml"
	"errors"
	"io"
	"io/fs"

	"github.com/dyuri/tmxread/internal/diag"
	"github.com/dyuri/tmxread/internal/model"
	"github.com/dyuri/tmxread/internal/tmx"
	"github.com/dyuri/tmxread/internal/xmltree"
	"github.com/sirupsen/logrus"
)

// Options tune a single read. A nil *Options uses the defaults.
type Options struct {
	// BaseDir resolves relative references of documents read from a
	// stream. File reads always use the file's own directory.
	BaseDir string

	// Logger, when set, receives every diagnostic as a log line.
	Logger *logrus.Entry
}

func newReader(opts *Options) *tmx.Reader {
	sink := diag.NewSink()
	r := tmx.NewReader(sink)
	if opts == nil {
		return r
	}
	if opts.BaseDir != "" {
		r.BaseDir = opts.BaseDir
	}
	if opts.Logger != nil {
		r.Log = opts.Logger.WithField("run", r.ID)
		sink.WithLogger(r.Log)
	}
	return r
}

// ReadMapFile reads a map from disk. Compressed files such as .tmx.gz are
// unpacked transparently.
//
// Example:
//
//	m, diags, err := ReadMapFile("world.tmx", &Options{Logger: logrus.NewEntry(logrus.StandardLogger())})
func ReadMapFile(path string, opts *Options) (*model.Map, []diag.Entry, error) {
	r := newReader(opts)
	m, err := r.ReadMapFile(path)
	return m, r.Diag.Entries(), wrap(err)
}

// ReadMap reads a map document from src.
func ReadMap(src io.Reader, opts *Options) (*model.Map, []diag.Entry, error) {
	r := newReader(opts)
	m, err := r.ReadMap(src)
	return m, r.Diag.Entries(), wrap(err)
}

// ReadTilesetFile reads a standalone tileset document from disk.
func ReadTilesetFile(path string, opts *Options) (*model.Tileset, []diag.Entry, error) {
	r := newReader(opts)
	ts, err := r.ReadTilesetFile(path)
	return ts, r.Diag.Entries(), wrap(err)
}

// ReadTileset reads a standalone tileset document from src.
func ReadTileset(src io.Reader, opts *Options) (*model.Tileset, []diag.Entry, error) {
	r := newReader(opts)
	ts, err := r.ReadTileset(src)
	return ts, r.Diag.Entries(), wrap(err)
}

// Accept reports whether path looks like a document this package reads.
func Accept(path string) bool {
	return tmx.Accept(path)
}

// Filter returns the file patterns for an open-file dialog.
func Filter() string {
	return tmx.Filter
}

// Common errors
var (
	ErrInvalidFormat = &Error{Code: "invalid_format", Message: "invalid map document"}
	ErrNoDimensions  = &Error{Code: "no_dimensions", Message: "map size missing"}
	ErrIO            = &Error{Code: "io", Message: "cannot read document"}
)

// Error represents a tmxread error
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code, so callers can test against
// the exported values.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// wrap classifies a reader failure.
func wrap(err error) error {
	if err == nil {
		return nil
	}

	var (
		attrErr *xmltree.AttrError
		synErr  *xml.SyntaxError
		pathErr *fs.PathError
	)
	switch {
	case errors.Is(err, tmx.ErrNoDimensions):
		return &Error{Code: ErrNoDimensions.Code, Message: ErrNoDimensions.Message, Cause: err}
	case errors.Is(err, tmx.ErrNotMap), errors.Is(err, tmx.ErrNoTileset),
		errors.As(err, &attrErr), errors.As(err, &synErr):
		return &Error{Code: ErrInvalidFormat.Code, Message: ErrInvalidFormat.Message, Cause: err}
	case errors.As(err, &pathErr):
		return &Error{Code: ErrIO.Code, Message: ErrIO.Message, Cause: err}
	default:
		return &Error{Code: ErrInvalidFormat.Code, Message: ErrInvalidFormat.Message, Cause: err}
	}
}
