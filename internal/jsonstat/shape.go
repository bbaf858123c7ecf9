package jsonstat

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"
)

// Shape records which wire representation a polymorphic field used.
// The zero value means unresolved and cannot be encoded.
type Shape int

const (
	ShapeArray Shape = iota + 1
	ShapeScalar
	ShapeDictionary
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeScalar:
		return "scalar"
	case ShapeDictionary:
		return "dictionary"
	default:
		return "unresolved"
	}
}

// attempt is one candidate shape for resolve. try must leave its target
// untouched when it fails.
type attempt struct {
	shape Shape
	try   func(data []byte) error
}

// resolve tries attempts in order and returns the first shape that decodes.
// The order is the precedence: callers list their shapes deliberately.
func resolve(field string, data []byte, attempts ...attempt) (Shape, error) {
	tried := make([]string, 0, len(attempts))
	for _, a := range attempts {
		if err := a.try(data); err == nil {
			return a.shape, nil
		}
		tried = append(tried, a.shape.String())
	}
	return 0, &ShapeError{Field: field, Tried: tried}
}

// into decodes into *dst only when the whole value decodes. null never
// matches a shape, and neither does a list or mapping holding a null where
// its element type has no null.
func into[T any](dst *T) func([]byte) error {
	return func(data []byte) error {
		if isNull(data) {
			return errNull
		}
		if err := noNulls("", data, reflect.TypeFor[T]()); err != nil {
			return err
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*dst = v
		return nil
	}
}

var errNull = errors.New("null")

func isNull(data []byte) bool {
	d := bytes.TrimSpace(data)
	return len(d) == 0 || bytes.Equal(d, []byte("null"))
}

// ─── StatValue ────────────────────────────────────────────────────────────────

// Cell is one observation. Valid is false for a missing observation, which
// is encoded as null and is distinct from a present zero.
type Cell struct {
	Value float64
	Valid bool
}

// Num returns a present observation.
func Num(v float64) Cell { return Cell{Value: v, Valid: true} }

func (c Cell) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		*c = Cell{}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*c = Cell{Value: f, Valid: true}
	return nil
}

// StatValue holds a dataset's observations either densely, in cell order,
// or sparsely, keyed by the decimal cell position.
// Decode precedence: array, then dictionary.
type StatValue struct {
	Shape Shape
	Array []Cell
	Dict  map[string]float64
}

// Len returns the number of entries carried on the wire.
func (v StatValue) Len() int {
	if v.Shape == ShapeDictionary {
		return len(v.Dict)
	}
	return len(v.Array)
}

// At returns the observation at flat cell position i.
// ok is false when the position carries no observation.
func (v StatValue) At(i int) (Cell, bool) {
	switch v.Shape {
	case ShapeArray:
		if i < 0 || i >= len(v.Array) || !v.Array[i].Valid {
			return Cell{}, false
		}
		return v.Array[i], true
	case ShapeDictionary:
		f, ok := v.Dict[strconv.Itoa(i)]
		if !ok {
			return Cell{}, false
		}
		return Num(f), true
	}
	return Cell{}, false
}

func (v *StatValue) UnmarshalJSON(data []byte) error {
	var out StatValue
	shape, err := resolve("value", data,
		attempt{ShapeArray, into(&out.Array)},
		attempt{ShapeDictionary, into(&out.Dict)},
	)
	if err != nil {
		return err
	}
	out.Shape = shape
	*v = out
	return nil
}

func (v StatValue) MarshalJSON() ([]byte, error) {
	switch v.Shape {
	case ShapeArray:
		if v.Array == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Array)
	case ShapeDictionary:
		if v.Dict == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.Dict)
	}
	return nil, fmt.Errorf("value: cannot encode %s shape", v.Shape)
}

// ─── Status ───────────────────────────────────────────────────────────────────

// Status annotates observations: one code for the whole dataset, one per cell
// in order, or a sparse mapping from cell position to code.
// Decode precedence: array, scalar, dictionary.
type Status struct {
	Shape  Shape
	Array  []string
	Scalar string
	Dict   map[string]string
}

// At returns the status code that applies to flat cell position i.
func (s Status) At(i int) (string, bool) {
	switch s.Shape {
	case ShapeArray:
		if i < 0 || i >= len(s.Array) {
			return "", false
		}
		return s.Array[i], true
	case ShapeScalar:
		return s.Scalar, true
	case ShapeDictionary:
		code, ok := s.Dict[strconv.Itoa(i)]
		return code, ok
	}
	return "", false
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var out Status
	shape, err := resolve("status", data,
		attempt{ShapeArray, into(&out.Array)},
		attempt{ShapeScalar, into(&out.Scalar)},
		attempt{ShapeDictionary, into(&out.Dict)},
	)
	if err != nil {
		return err
	}
	out.Shape = shape
	*s = out
	return nil
}

func (s Status) MarshalJSON() ([]byte, error) {
	switch s.Shape {
	case ShapeArray:
		if s.Array == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(s.Array)
	case ShapeScalar:
		return json.Marshal(s.Scalar)
	case ShapeDictionary:
		if s.Dict == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(s.Dict)
	}
	return nil, fmt.Errorf("status: cannot encode %s shape", s.Shape)
}

// ─── Index ────────────────────────────────────────────────────────────────────

// Index orders a dimension's categories, either as a list (position = rank)
// or as a mapping from category key to rank.
// Decode precedence: array, then dictionary.
type Index struct {
	Shape Shape
	Array []string
	Dict  map[string]uint32
}

// Order returns the category keys sorted by rank. Equal ranks in the
// dictionary shape are ordered by key.
func (x Index) Order() []string {
	switch x.Shape {
	case ShapeArray:
		return append([]string(nil), x.Array...)
	case ShapeDictionary:
		keys := make([]string, 0, len(x.Dict))
		for k := range x.Dict {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			ri, rj := x.Dict[keys[i]], x.Dict[keys[j]]
			if ri != rj {
				return ri < rj
			}
			return keys[i] < keys[j]
		})
		return keys
	}
	return nil
}

// Rank returns the position of key in the resolved order.
func (x Index) Rank(key string) (int, bool) {
	for i, k := range x.Order() {
		if k == key {
			return i, true
		}
	}
	return 0, false
}

// Len returns the number of categories indexed.
func (x Index) Len() int {
	if x.Shape == ShapeDictionary {
		return len(x.Dict)
	}
	return len(x.Array)
}

func (x *Index) UnmarshalJSON(data []byte) error {
	var out Index
	shape, err := resolve("index", data,
		attempt{ShapeArray, into(&out.Array)},
		attempt{ShapeDictionary, into(&out.Dict)},
	)
	if err != nil {
		return err
	}
	out.Shape = shape
	*x = out
	return nil
}

func (x Index) MarshalJSON() ([]byte, error) {
	switch x.Shape {
	case ShapeArray:
		if x.Array == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(x.Array)
	case ShapeDictionary:
		if x.Dict == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(x.Dict)
	}
	return nil, fmt.Errorf("index: cannot encode %s shape", x.Shape)
}
