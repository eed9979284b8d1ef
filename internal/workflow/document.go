// Package workflow models vFlow workflow documents: the JSON files a catalog
// is built from. Only the "_meta" envelope and the runtime flags are
// interpreted; every other key is carried as raw JSON.
package workflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	// Ext is the file extension of workflow documents.
	Ext = ".json"

	// MetaKey is the top-level key of the metadata envelope.
	MetaKey = "_meta"
)

// ErrInvalidUTF8 is returned by Parse for content that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("content is not valid UTF-8")

// Runtime flags reflecting local app state. They are forced to false before publishing.
const (
	FlagEnabled    = "isEnabled"
	FlagFavorite   = "isFavorite"
	FlagWasEnabled = "wasEnabledBeforePermissionsLost"
)

// RuntimeFlags lists the flags cleared by Normalize.
var RuntimeFlags = []string{FlagEnabled, FlagFavorite, FlagWasEnabled}

// _meta field names.
const (
	MetaID          = "id"
	MetaName        = "name"
	MetaDescription = "description"
	MetaAuthor      = "author"
	MetaVersion     = "version"
	MetaLevel       = "vFlowLevel"
	MetaHomepage    = "homepage"
	MetaTags        = "tags"
	MetaUpdatedAt   = "updated_at"
)

// RequiredMetaFields are the _meta keys every workflow must declare, in report order.
var RequiredMetaFields = []string{MetaID, MetaName, MetaDescription, MetaAuthor, MetaVersion, MetaLevel}

// Document is a parsed workflow file. Top-level keys keep their file order
// and values are kept raw, so a rewrite only touches what Set changes.
type Document struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{values: make(map[string]json.RawMessage)}
}

// Parse decodes a workflow file. The content must be UTF-8 and the top-level
// value must be a JSON object. A repeated key keeps its first position and
// its last value.
func Parse(data []byte) (*Document, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidUTF8
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("top-level value is %s, want an object", describeToken(tok))
	}

	doc := NewDocument()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		doc.Set(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after top-level object")
	}
	return doc, nil
}

func describeToken(tok json.Token) string {
	switch tok.(type) {
	case nil:
		return "null"
	case json.Delim:
		return "an array"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	default:
		return "a number"
	}
}

// Get returns the raw value of a top-level key.
func (d *Document) Get(key string) (json.RawMessage, bool) {
	raw, ok := d.values[key]
	return raw, ok
}

// Set stores a top-level value. New keys are appended after existing ones.
func (d *Document) Set(key string, raw json.RawMessage) {
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = raw
}

// Keys returns the top-level keys in document order.
func (d *Document) Keys() []string {
	return slices.Clone(d.keys)
}

// Len returns the number of top-level keys.
func (d *Document) Len() int {
	return len(d.keys)
}

// HasMeta reports whether the document declares a _meta key at all.
func (d *Document) HasMeta() bool {
	_, ok := d.values[MetaKey]
	return ok
}

// Meta returns the _meta envelope. ok is false when _meta is absent or is not an object.
func (d *Document) Meta() (meta Meta, ok bool) {
	raw, exists := d.values[MetaKey]
	if !exists {
		return nil, false
	}
	if err := json.Unmarshal(raw, &meta); err != nil || meta == nil {
		return nil, false
	}
	return meta, true
}

// Clone returns a shallow copy. Raw values are shared; they are never mutated in place.
func (d *Document) Clone() *Document {
	return &Document{
		keys:   slices.Clone(d.keys),
		values: maps.Clone(d.values),
	}
}

// Encode renders the document the way it is stored on disk: keys in
// document order, two-space indent, no HTML escaping, trailing newline.
func Encode(doc *Document) ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, key := range doc.keys {
		if i > 0 {
			compact.WriteByte(',')
		}
		k, err := encodeString(key)
		if err != nil {
			return nil, err
		}
		compact.Write(k)
		compact.WriteByte(':')
		if err := json.Compact(&compact, doc.values[key]); err != nil {
			return nil, fmt.Errorf("value of %q: %w", key, err)
		}
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func encodeString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Stem returns the filename without directory and without the .json extension.
func Stem(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), Ext)
}

// Meta is the "_meta" envelope of a workflow document.
type Meta map[string]json.RawMessage

// Has reports whether key is present. A JSON null counts as present.
func (m Meta) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Missing returns the required fields absent from m, in RequiredMetaFields order.
func (m Meta) Missing() []string {
	var missing []string
	for _, f := range RequiredMetaFields {
		if !m.Has(f) {
			missing = append(missing, f)
		}
	}
	return missing
}

// String returns the value of key when it is a JSON string.
func (m Meta) String(key string) (string, bool) {
	raw, ok := m[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || isNull(raw) {
		return "", false
	}
	return s, true
}

// Int returns the value of key when it is an integral JSON number.
func (m Meta) Int(key string) (int, bool) {
	raw, ok := m[key]
	if !ok || isNull(raw) {
		return 0, false
	}
	// json.Number would also accept a quoted "2"
	if t := bytes.TrimSpace(raw); len(t) > 0 && t[0] == '"' {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		// Accept 2.0 but not 2.5
		f, ferr := n.Float64()
		if ferr != nil || f != float64(int64(f)) {
			return 0, false
		}
		i = int64(f)
	}
	return int(i), true
}

// Strings returns the value of key when it is a JSON array of strings.
func (m Meta) Strings(key string) ([]string, bool) {
	raw, ok := m[key]
	if !ok || isNull(raw) {
		return nil, false
	}
	var vals []any
	if err := json.Unmarshal(raw, &vals); err != nil {
		return nil, false
	}
	ss := make([]string, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		ss = append(ss, s)
	}
	return ss, true
}

// Raw returns the undecoded value of key as text, for messages.
func (m Meta) Raw(key string) string {
	raw, ok := m[key]
	if !ok {
		return ""
	}
	return string(bytes.TrimSpace(raw))
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}
