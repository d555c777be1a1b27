// Package manifest decodes the canonical project manifest (pyproject.toml) into a
// read-only nested document addressed by dotted paths such as "tool.poetry.version".
package manifest

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"git.home.luguber.info/inful/metasync/internal/foundation/errors"
)

// DefaultFileName is the manifest looked up in a project root.
const DefaultFileName = "pyproject.toml"

// Document is a decoded manifest. Values are the types produced by the TOML
// decoder: string, int64, float64, bool, time values, []any and map[string]any.
type Document struct {
	path string
	data map[string]any
}

// Load reads and decodes the manifest at path.
func Load(path string) (*Document, error) {
	// #nosec G304 - manifest path is provided by the operator
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewError(errors.CategoryNotFound, "manifest not found").
				WithContext("path", path).
				Build()
		}
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to read manifest").
			WithContext("path", path).
			Build()
	}

	doc, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	doc.path = path
	return doc, nil
}

// Parse decodes manifest bytes.
func Parse(raw []byte) (*Document, error) {
	data := make(map[string]any)
	if err := toml.Unmarshal(raw, &data); err != nil {
		return nil, errors.WrapError(err, errors.CategoryManifest, "failed to decode manifest").Build()
	}
	return &Document{data: data}, nil
}

// FromMap wraps an already decoded mapping.
func FromMap(data map[string]any) *Document {
	if data == nil {
		data = make(map[string]any)
	}
	return &Document{data: data}
}

// Path returns the file the document was loaded from, if any.
func (d *Document) Path() string {
	return d.path
}

// Lookup walks a dotted path through nested tables.
func (d *Document) Lookup(dotted string) (any, bool) {
	if d == nil || dotted == "" {
		return nil, false
	}
	var current any = d.data
	for _, segment := range strings.Split(dotted, ".") {
		table, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = table[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Has reports whether a dotted path resolves to a value.
func (d *Document) Has(dotted string) bool {
	_, ok := d.Lookup(dotted)
	return ok
}

// String resolves a dotted path to a string. Non-string scalars are formatted.
func (d *Document) String(dotted string) (string, bool) {
	v, ok := d.Lookup(dotted)
	if !ok {
		return "", false
	}
	return Stringify(v), true
}

// Strings resolves a dotted path to a list of strings. A single scalar yields a
// one-element list.
func (d *Document) Strings(dotted string) ([]string, bool) {
	v, ok := d.Lookup(dotted)
	if !ok {
		return nil, false
	}
	items, isList := v.([]any)
	if !isList {
		return []string{Stringify(v)}, true
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, Stringify(item))
	}
	return out, true
}

// Table resolves a dotted path to a nested table.
func (d *Document) Table(dotted string) (map[string]any, bool) {
	v, ok := d.Lookup(dotted)
	if !ok {
		return nil, false
	}
	table, ok := v.(map[string]any)
	return table, ok
}

// Int resolves a dotted path to an integer, accepting numeric strings.
func (d *Document) Int(dotted string) (int, bool) {
	v, ok := d.Lookup(dotted)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return int(n), true
	case int:
		return n, true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}

// Stringify renders a decoded value as plain text; lists are joined with ", ".
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(val)
	}
}
