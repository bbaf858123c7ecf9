package jsonstat

import (
	"strconv"

	json "github.com/goccy/go-json"
)

// Category describes the categories of one dimension. Every member is
// optional; a nil map means the member was absent, an empty map that it was
// present but empty.
type Category struct {
	Index       *Index
	Label       map[string]string
	Child       map[string][]string
	Coordinates map[string][]float64
	Unit        Units
}

func (c *Category) UnmarshalJSON(data []byte) error {
	o, err := parseObject(data)
	if err != nil {
		return err
	}
	r := &reader{o: o}
	var out Category
	out.Index = opt[Index](r, "index")
	r.get("label", &out.Label)
	r.get("child", &out.Child)
	r.get("coordinates", &out.Coordinates)
	r.get("unit", &out.Unit)
	if r.err != nil {
		return r.err
	}
	*c = out
	return nil
}

func (c Category) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	if c.Index != nil {
		w.field("index", *c.Index)
	}
	if c.Label != nil {
		w.field("label", c.Label)
	}
	if c.Child != nil {
		w.field("child", c.Child)
	}
	if c.Coordinates != nil {
		w.field("coordinates", c.Coordinates)
	}
	if c.Unit != nil {
		w.field("unit", c.Unit)
	}
	return w.bytes()
}

// Dimension is one classificatory axis: its categories plus optional display
// metadata. It appears inside a dataset's dimension map, or standalone as the
// body of a class "dimension" document.
type Dimension struct {
	Category  Category
	Label     *string
	Class     *Class
	Href      *string
	Note      []string
	Extension Extension
}

func (d *Dimension) UnmarshalJSON(data []byte) error {
	o, err := parseObject(data)
	if err != nil {
		return err
	}
	r := &reader{o: o}
	var out Dimension
	r.require("category")
	r.get("category", &out.Category)
	out.Label = opt[string](r, "label")
	out.Class = opt[Class](r, "class")
	out.Href = opt[string](r, "href")
	r.get("note", &out.Note)
	r.get("extension", &out.Extension)
	if r.err != nil {
		return r.err
	}
	*d = out
	return nil
}

func (d Dimension) MarshalJSON() ([]byte, error) {
	w := newObjectWriter()
	if d.Class != nil {
		w.field("class", *d.Class)
	}
	if d.Href != nil {
		w.field("href", *d.Href)
	}
	if d.Label != nil {
		w.field("label", *d.Label)
	}
	w.field("category", d.Category)
	if d.Note != nil {
		w.field("note", d.Note)
	}
	if d.Extension != nil {
		w.field("extension", d.Extension)
	}
	return w.bytes()
}

// Keys returns the category keys in their resolved order. Without an index,
// a dimension whose label map holds a single category is ordered by that
// one key; otherwise the order is unknown and Keys returns nil.
func (d *Dimension) Keys() []string {
	if d.Category.Index != nil {
		return d.Category.Index.Order()
	}
	if len(d.Category.Label) == 1 {
		for k := range d.Category.Label {
			return []string{k}
		}
	}
	return nil
}

// LabelOf returns the label of category key, falling back to the key.
func (d *Dimension) LabelOf(key string) string {
	if l, ok := d.Category.Label[key]; ok {
		return l
	}
	return key
}

// DecodeDimension decodes a standalone dimension document. Members that
// belong to the document rather than the dimension (version, updated...) are
// ignored; use Decode to see them.
func DecodeDimension(data []byte) (*Dimension, error) {
	d := &Dimension{}
	if err := d.UnmarshalJSON(data); err != nil {
		if _, ok := err.(*ParseError); ok {
			return nil, err
		}
		return nil, &ParseError{Offset: -1, Err: err}
	}
	return d, nil
}

// Dimensions maps dimension identifiers to their descriptions.
type Dimensions map[string]*Dimension

func (m *Dimensions) UnmarshalJSON(data []byte) error {
	o, err := parseObject(data)
	if err != nil {
		return err
	}
	out := make(Dimensions, len(o))
	for id, raw := range o {
		d := &Dimension{}
		if isNull(raw) {
			return atPath(id, ErrRequired)
		}
		if err := d.UnmarshalJSON(raw); err != nil {
			return atPath(id, err)
		}
		out[id] = d
	}
	*m = out
	return nil
}

// ─── Links ────────────────────────────────────────────────────────────────────

// Links maps a relation name ("item", "alternate", ...) to its ordered links.
type Links map[string][]Link

func (l *Links) UnmarshalJSON(data []byte) error {
	o, err := parseObject(data)
	if err != nil {
		return err
	}
	out := make(Links, len(o))
	for rel, raw := range o {
		if isNull(raw) {
			return atPath(rel, ErrNull)
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return atPath(rel, err)
		}
		links := make([]Link, len(items))
		for i, item := range items {
			if err := links[i].UnmarshalJSON(item); err != nil {
				return atPath(rel+"["+strconv.Itoa(i)+"]", err)
			}
		}
		out[rel] = links
	}
	*l = out
	return nil
}
