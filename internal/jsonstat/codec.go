package jsonstat

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// ─── Decoding ─────────────────────────────────────────────────────────────────

// object is a JSON object whose members have not been decoded yet.
type object map[string]json.RawMessage

var errNotObject = errors.New("expected a JSON object")

// parseObject splits data into its members. Syntax errors carry the byte
// offset reported by the decoder.
func parseObject(data []byte) (object, error) {
	if d := bytes.TrimSpace(data); len(d) > 0 && d[0] != '{' && json.Valid(d) {
		return nil, &ParseError{Offset: -1, Err: errNotObject}
	}
	var o object
	if err := json.Unmarshal(data, &o); err != nil {
		var se *json.SyntaxError
		if errors.As(err, &se) {
			return nil, &ParseError{Offset: se.Offset, Err: err}
		}
		return nil, &ParseError{Offset: -1, Err: errNotObject}
	}
	if o == nil {
		return nil, &ParseError{Offset: -1, Err: errNotObject}
	}
	return o, nil
}

// member returns the raw value of key. A member set to null counts as absent.
func (o object) member(key string) (json.RawMessage, bool) {
	raw, ok := o[key]
	if !ok || isNull(raw) {
		return nil, false
	}
	return raw, true
}

// reader decodes members of one object and keeps the first failure,
// prefixed with the member's path. Later calls are no-ops once it fails.
type reader struct {
	o   object
	err error
}

func (r *reader) has(key string) bool {
	_, ok := r.o.member(key)
	return ok
}

// require fails when key is absent.
func (r *reader) require(key string) {
	if r.err == nil && !r.has(key) {
		r.err = &ParseError{Path: key, Offset: -1, Err: ErrRequired}
	}
}

// get decodes key into dst when present. Types with their own UnmarshalJSON
// are called directly so their typed errors reach the caller unchanged.
func (r *reader) get(key string, dst any) {
	if r.err != nil {
		return
	}
	raw, ok := r.o.member(key)
	if !ok {
		return
	}
	var err error
	if u, ok := dst.(json.Unmarshaler); ok {
		err = u.UnmarshalJSON(raw)
	} else {
		if err := noNulls(key, raw, reflect.TypeOf(dst).Elem()); err != nil {
			r.err = err
			return
		}
		err = json.Unmarshal(raw, dst)
	}
	if err != nil {
		r.err = atPath(key, err)
	}
}

// opt decodes key into a new T, or returns nil when key is absent or
// decoding failed.
func opt[T any](r *reader, key string) *T {
	if r.err != nil || !r.has(key) {
		return nil
	}
	v := new(T)
	r.get(key, v)
	if r.err != nil {
		return nil
	}
	return v
}

// ─── Null elements ────────────────────────────────────────────────────────────

// ErrNull is wrapped by a ParseError when a typed list or mapping holds null.
var ErrNull = errors.New("null is not a permitted value")

var unmarshalerType = reflect.TypeFor[json.Unmarshaler]()

// acceptsNull reports whether a value of type t decides for itself what null
// means: open values, pointers and types with their own decoder.
func acceptsNull(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Pointer:
		return true
	}
	return reflect.PointerTo(t).Implements(unmarshalerType)
}

// noNulls fails when data holds a null anywhere a value of type t would be
// decoded to its zero value. Struct members set to null count as absent, as
// they do on the envelope. Data the decoder will reject anyway is left to it.
func noNulls(path string, data []byte, t reflect.Type) error {
	if acceptsNull(t) {
		return nil
	}
	if isNull(data) {
		return &ParseError{Path: path, Offset: -1, Err: ErrNull}
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if acceptsNull(t.Elem()) {
			return nil
		}
		var items []json.RawMessage
		if json.Unmarshal(data, &items) != nil {
			return nil
		}
		for i, item := range items {
			if err := noNulls(path+"["+strconv.Itoa(i)+"]", item, t.Elem()); err != nil {
				return err
			}
		}
	case reflect.Map:
		if acceptsNull(t.Elem()) {
			return nil
		}
		var members map[string]json.RawMessage
		if json.Unmarshal(data, &members) != nil {
			return nil
		}
		for _, k := range slices.Sorted(maps.Keys(members)) {
			if err := noNulls(joinPath(path, k), members[k], t.Elem()); err != nil {
				return err
			}
		}
	case reflect.Struct:
		var members map[string]json.RawMessage
		if json.Unmarshal(data, &members) != nil {
			return nil
		}
		for i := range t.NumField() {
			f := t.Field(i)
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" {
				name = f.Name
			}
			raw, ok := members[name]
			if !ok || isNull(raw) {
				continue
			}
			if err := noNulls(joinPath(path, name), raw, f.Type); err != nil {
				return err
			}
		}
	}
	return nil
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// ─── Encoding ─────────────────────────────────────────────────────────────────

// objectWriter builds a JSON object one member at a time, so that only
// members the caller chooses to write appear in the output.
type objectWriter struct {
	buf bytes.Buffer
	n   int
	err error
}

func newObjectWriter() *objectWriter {
	w := &objectWriter{}
	w.buf.WriteByte('{')
	return w
}

func (w *objectWriter) field(key string, v any) {
	if w.err != nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		w.err = fmt.Errorf("%s: %w", key, err)
		return
	}
	k, err := json.Marshal(key)
	if err != nil {
		w.err = err
		return
	}
	if w.n > 0 {
		w.buf.WriteByte(',')
	}
	w.buf.Write(k)
	w.buf.WriteByte(':')
	w.buf.Write(b)
	w.n++
}

func (w *objectWriter) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	w.buf.WriteByte('}')
	return w.buf.Bytes(), nil
}
