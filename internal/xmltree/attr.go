package xmltree

import (
	"fmt"
	"strconv"
	"strings"
)

// AttrError reports an attribute whose value could not be converted.
type AttrError struct {
	Tag   string
	Name  string
	Value string
	Err   error
}

func (e *AttrError) Error() string {
	return fmt.Sprintf("<%s> attribute %s=%q: %v", e.Tag, e.Name, e.Value, e.Err)
}

func (e *AttrError) Unwrap() error {
	return e.Err
}

// String returns the attribute value or def when absent.
func String(n Node, name, def string) string {
	if v, ok := n.Attr(name); ok {
		return v
	}
	return def
}

// Int parses an integer attribute, returning def when absent.
func Int(n Node, name string, def int) (int, error) {
	v, ok := n.Attr(name)
	if !ok {
		return def, nil
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, &AttrError{Tag: n.Tag(), Name: name, Value: v, Err: err}
	}
	return i, nil
}

// Float parses a floating point attribute, returning def when absent.
func Float(n Node, name string, def float64) (float64, error) {
	v, ok := n.Attr(name)
	if !ok {
		return def, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def, &AttrError{Tag: n.Tag(), Name: name, Value: v, Err: err}
	}
	return f, nil
}
