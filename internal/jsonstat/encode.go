package jsonstat

import (
	"bytes"

	json "github.com/goccy/go-json"
)

// Document is a strict representation that can be encoded: *Dataset,
// *Collection or *Dimension.
type Document interface {
	json.Marshaler
	document()
}

func (*Dataset) document()    {}
func (*Collection) document() {}
func (*Dimension) document()  {}

// Encode writes doc in wire form. Each polymorphic field keeps the shape it
// was decoded with and members that are absent on doc are omitted.
func Encode(doc Document) ([]byte, error) {
	return doc.MarshalJSON()
}

// EncodeIndent is Encode with indentation, for human consumption.
func EncodeIndent(doc Document, prefix, indent string) ([]byte, error) {
	b, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, prefix, indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func classOf(env *Envelope) Class {
	if env == nil {
		return ""
	}
	return env.Class
}
