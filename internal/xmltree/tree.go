// Package xmltree exposes a parsed document as a minimal tree of nodes:
// a tag name, attribute lookup, ordered children and character data.
// Builders walk this capability instead of a concrete DOM.
package xmltree

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// Node is the read-only view builders operate on.
type Node interface {
	Tag() string
	Attr(name string) (string, bool)
	Attrs() []Attr
	Children() []Node
	Text() string
}

// Attr is a single attribute in document order.
type Attr struct {
	Name  string
	Value string
}

// Element is the in-memory Node implementation produced by Parse.
type Element struct {
	Name     string
	AttrList []Attr
	Kids     []*Element
	CharData string
}

func (e *Element) Tag() string { return e.Name }

// Attr looks up an attribute by its exact stored name.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.AttrList {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

func (e *Element) Attrs() []Attr { return e.AttrList }

func (e *Element) Children() []Node {
	out := make([]Node, len(e.Kids))
	for i, k := range e.Kids {
		out[i] = k
	}
	return out
}

// Text returns the concatenated character data directly inside the element.
func (e *Element) Text() string { return e.CharData }

// Is compares a node's tag case-insensitively.
func Is(n Node, tag string) bool {
	return strings.EqualFold(n.Tag(), tag)
}

// Has reports whether any direct child of n carries the given tag.
func Has(n Node, tag string) bool {
	for _, c := range n.Children() {
		if Is(c, tag) {
			return true
		}
	}
	return false
}

// Parse reads a whole document and returns its root element. Comments and
// processing instructions are dropped. Documents declaring a non-UTF-8
// encoding are transcoded on the fly.
func Parse(r io.Reader) (*Element, error) {
	d := xml.NewDecoder(r)
	d.CharsetReader = charsetReader

	var root *Element
	var stack []*Element

	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &Element{Name: t.Name.Local}
			for _, a := range t.Attr {
				el.AttrList = append(el.AttrList, Attr{Name: a.Name.Local, Value: a.Value})
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("parse document: multiple root elements")
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.Kids = append(parent.Kids, el)
			}
			stack = append(stack, el)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].CharData += string(t)
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("parse document: no root element")
	}
	return root, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", label, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return transcode(enc, input), nil
}

func transcode(enc encoding.Encoding, r io.Reader) io.Reader {
	return enc.NewDecoder().Reader(r)
}
