// Package jsonstat decodes JSON-stat 2.0 documents into a permissive Envelope,
// narrows an Envelope into a strict Dataset or Collection, and encodes the
// strict types back to the wire format.
//
// Fields that can take several wire shapes (value, status, index, updated,
// link) are decoded into tagged variants that remember the shape they came
// from, so encoding reproduces it. Absent fields are nil and stay absent on
// output; they are never written as null.
//
// Everything in this package is synchronous and free of shared state.
package jsonstat

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// ─── Version / Class ──────────────────────────────────────────────────────────

// Version is the JSON-stat version tag. Only "2.0" is accepted.
type Version string

const Version2 Version = "2.0"

func (v Version) MarshalText() ([]byte, error) {
	if v != Version2 {
		return nil, fmt.Errorf("unknown version %q", string(v))
	}
	return []byte(v), nil
}

func (v *Version) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("version must be a string: %w", err)
	}
	return v.UnmarshalText([]byte(s))
}

func (v *Version) UnmarshalText(text []byte) error {
	if Version(text) != Version2 {
		return fmt.Errorf("unknown version %q", string(text))
	}
	*v = Version2
	return nil
}

// Class is the document class tag.
type Class string

const (
	ClassDataset    Class = "dataset"
	ClassDimension  Class = "dimension"
	ClassCollection Class = "collection"
)

// Valid reports whether c is one of the three known classes.
func (c Class) Valid() bool {
	switch c {
	case ClassDataset, ClassDimension, ClassCollection:
		return true
	}
	return false
}

func (c Class) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown class %q", string(c))
	}
	return []byte(c), nil
}

func (c *Class) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("class must be a string: %w", err)
	}
	return c.UnmarshalText([]byte(s))
}

func (c *Class) UnmarshalText(text []byte) error {
	if !Class(text).Valid() {
		return fmt.Errorf("unknown class %q", string(text))
	}
	*c = Class(text)
	return nil
}

// ─── Open metadata ────────────────────────────────────────────────────────────

// Extension carries provider-specific metadata. Its contents are not
// interpreted; numbers decode as json.Number so they re-encode exactly.
type Extension map[string]any

func (e *Extension) UnmarshalJSON(data []byte) error {
	m, err := decodeOpen(data)
	if err != nil {
		return err
	}
	*e = m
	return nil
}

// Units maps category keys to unit metadata. Decoded like Extension.
type Units map[string]any

func (u *Units) UnmarshalJSON(data []byte) error {
	m, err := decodeOpen(data)
	if err != nil {
		return err
	}
	*u = m
	return nil
}

// decodeOpen decodes an uninterpreted JSON object, keeping numbers as their
// literal text.
func decodeOpen(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errNotObject
	}
	return m, nil
}

// Role groups dimension identifiers by meaning. Advisory only.
type Role struct {
	Time   []string `json:"time"`
	Geo    []string `json:"geo"`
	Metric []string `json:"metric"`
}

func (r Role) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	if r.Time != nil {
		w.field("time", r.Time)
	}
	if r.Geo != nil {
		w.field("geo", r.Geo)
	}
	if r.Metric != nil {
		w.field("metric", r.Metric)
	}
	return w.bytes()
}

// ─── Envelope ─────────────────────────────────────────────────────────────────

// Envelope can hold every field that may appear in any document class.
// Version and Class are always set on a decoded Envelope; every other field
// is nil when the document did not carry it.
//
// An Envelope performs no cross-field validation. Pass it to ToDataset or
// ToCollection to obtain a checked representation.
type Envelope struct {
	Version   Version
	Class     Class
	Href      *string
	Label     *string
	Source    *string
	Updated   *Updated
	ID        []string
	Size      []uint32
	Role      *Role
	Value     *StatValue
	Status    *Status
	Dimension Dimensions
	Category  *Category
	Link      Links
	Note      []string
	Extension Extension
}

// Decode parses a JSON-stat document into an Envelope. It is all-or-nothing:
// on failure it returns a *ParseError and no Envelope.
func Decode(data []byte) (*Envelope, error) {
	o, err := parseObject(data)
	if err != nil {
		return nil, err
	}
	r := &reader{o: o}
	env := &Envelope{}

	r.require("version")
	r.get("version", &env.Version)
	r.require("class")
	r.get("class", &env.Class)
	env.Href = opt[string](r, "href")
	env.Label = opt[string](r, "label")
	env.Source = opt[string](r, "source")
	env.Updated = opt[Updated](r, "updated")
	r.get("id", &env.ID)
	r.get("size", &env.Size)
	env.Role = opt[Role](r, "role")
	env.Value = opt[StatValue](r, "value")
	env.Status = opt[Status](r, "status")
	r.get("dimension", &env.Dimension)
	env.Category = opt[Category](r, "category")
	r.get("link", &env.Link)
	r.get("note", &env.Note)
	r.get("extension", &env.Extension)

	if r.err != nil {
		return nil, r.err
	}
	return env, nil
}

// MarshalJSON writes the fields that are present, in conventional order.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	w.field("version", e.Version)
	w.field("class", e.Class)
	if e.Href != nil {
		w.field("href", *e.Href)
	}
	if e.Label != nil {
		w.field("label", *e.Label)
	}
	if e.Source != nil {
		w.field("source", *e.Source)
	}
	if e.Updated != nil {
		w.field("updated", *e.Updated)
	}
	if e.ID != nil {
		w.field("id", e.ID)
	}
	if e.Size != nil {
		w.field("size", e.Size)
	}
	if e.Role != nil {
		w.field("role", *e.Role)
	}
	if e.Value != nil {
		w.field("value", *e.Value)
	}
	if e.Status != nil {
		w.field("status", *e.Status)
	}
	if e.Dimension != nil {
		w.field("dimension", e.Dimension)
	}
	if e.Category != nil {
		w.field("category", e.Category)
	}
	if e.Link != nil {
		w.field("link", e.Link)
	}
	if e.Note != nil {
		w.field("note", e.Note)
	}
	if e.Extension != nil {
		w.field("extension", e.Extension)
	}
	return w.bytes()
}

// Fields lists the names of the optional members present on e, in the
// order MarshalJSON writes them.
func (e *Envelope) Fields() []string {
	var out []string
	add := func(name string, present bool) {
		if present {
			out = append(out, name)
		}
	}
	add("href", e.Href != nil)
	add("label", e.Label != nil)
	add("source", e.Source != nil)
	add("updated", e.Updated != nil)
	add("id", e.ID != nil)
	add("size", e.Size != nil)
	add("role", e.Role != nil)
	add("value", e.Value != nil)
	add("status", e.Status != nil)
	add("dimension", e.Dimension != nil)
	add("category", e.Category != nil)
	add("link", e.Link != nil)
	add("note", e.Note != nil)
	add("extension", e.Extension != nil)
	return out
}

var _ json.Marshaler = (*Envelope)(nil)
