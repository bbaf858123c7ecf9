package jsonstat

import (
	"errors"

	json "github.com/goccy/go-json"
)

// Link is one cross-reference. Exactly one of JSONStat and Other is set.
type Link struct {
	JSONStat *JSONStatLink
	Other    *TypedLink
}

// JSONStatLink points at another JSON-stat resource. All members are optional.
type JSONStatLink struct {
	Class     *Class    `json:"class"`
	Href      *string   `json:"href"`
	Label     *string   `json:"label"`
	Extension Extension `json:"extension"`
}

// TypedLink points at a non-JSON-stat resource identified by media type.
type TypedLink struct {
	Type string `json:"type"`
	Href string `json:"href"`
}

// Shape names reported in a *ShapeError for links.
const (
	linkShapeJSONStat = "jsonstat"
	linkShapeTyped    = "typed"
)

// jsonStatMembers are the members only the JSON-stat link shape defines.
var jsonStatMembers = []string{"class", "label", "extension"}

// UnmarshalJSON resolves the two link shapes, which share no discriminating
// member. The JSON-stat shape is tried first. It is set aside in favour of
// the typed shape only when the object has both type and href and none of
// class, label or extension, or when the JSON-stat shape fails to decode.
func (l *Link) UnmarshalJSON(data []byte) error {
	shapeErr := &ShapeError{Field: "link", Tried: []string{linkShapeJSONStat, linkShapeTyped}}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil || members == nil {
		return shapeErr
	}

	var js JSONStatLink
	jsErr := decodeJSONStatLink(members, &js)
	if jsErr == nil && !prefersTyped(members) {
		*l = Link{JSONStat: &js}
		return nil
	}

	var typed TypedLink
	if err := json.Unmarshal(data, &typed); err == nil && hasString(members, "type") && hasString(members, "href") {
		*l = Link{Other: &typed}
		return nil
	}
	if jsErr == nil {
		*l = Link{JSONStat: &js}
		return nil
	}
	return shapeErr
}

func decodeJSONStatLink(members map[string]json.RawMessage, js *JSONStatLink) error {
	r := &reader{o: object(members)}
	js.Class = opt[Class](r, "class")
	js.Href = opt[string](r, "href")
	js.Label = opt[string](r, "label")
	r.get("extension", &js.Extension)
	return r.err
}

func prefersTyped(members map[string]json.RawMessage) bool {
	if _, ok := members["type"]; !ok {
		return false
	}
	if _, ok := members["href"]; !ok {
		return false
	}
	for _, k := range jsonStatMembers {
		if _, ok := members[k]; ok {
			return false
		}
	}
	return true
}

func hasString(members map[string]json.RawMessage, key string) bool {
	raw, ok := members[key]
	if !ok {
		return false
	}
	var s string
	return json.Unmarshal(raw, &s) == nil
}

var errEmptyLink = errors.New("link has neither shape set")

func (l Link) MarshalJSON() ([]byte, error) {
	switch {
	case l.JSONStat != nil:
		js := l.JSONStat
		w := newObjectWriter()
		if js.Class != nil {
			w.field("class", *js.Class)
		}
		if js.Href != nil {
			w.field("href", *js.Href)
		}
		if js.Label != nil {
			w.field("label", *js.Label)
		}
		if js.Extension != nil {
			w.field("extension", js.Extension)
		}
		return w.bytes()
	case l.Other != nil:
		w := newObjectWriter()
		w.field("type", l.Other.Type)
		w.field("href", l.Other.Href)
		return w.bytes()
	}
	return nil, errEmptyLink
}

// Href returns the link target regardless of shape.
func (l Link) Href() string {
	switch {
	case l.JSONStat != nil && l.JSONStat.Href != nil:
		return *l.JSONStat.Href
	case l.Other != nil:
		return l.Other.Href
	}
	return ""
}
