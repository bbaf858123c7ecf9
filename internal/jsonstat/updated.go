package jsonstat

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
)

// DateLayout is the calendar-date form of the updated field.
const DateLayout = "2006-01-02"

// UpdatedKind records which form an Updated timestamp took on the wire.
type UpdatedKind int

const (
	UpdatedDate UpdatedKind = iota + 1
	UpdatedDateTime
)

func (k UpdatedKind) String() string {
	switch k {
	case UpdatedDate:
		return "date"
	case UpdatedDateTime:
		return "date-time"
	default:
		return "unresolved"
	}
}

// Updated is the document's last-modified timestamp: either a calendar date
// or an RFC 3339 date-time with a UTC offset. A DateTime keeps the offset it
// was given.
type Updated struct {
	Kind UpdatedKind
	Time time.Time
}

// ParseUpdated resolves s by trying the calendar date first and the
// offset-aware date-time second. A date-time without an offset is rejected.
func ParseUpdated(s string) (Updated, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Updated{Kind: UpdatedDate, Time: t}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Updated{Kind: UpdatedDateTime, Time: t}, nil
	}
	return Updated{}, &ShapeError{Field: "updated", Tried: []string{UpdatedDate.String(), UpdatedDateTime.String()}}
}

// String formats u in the form it was decoded from.
func (u Updated) String() string {
	switch u.Kind {
	case UpdatedDate:
		return u.Time.Format(DateLayout)
	case UpdatedDateTime:
		return u.Time.Format(time.RFC3339Nano)
	}
	return ""
}

func (u *Updated) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &ShapeError{Field: "updated", Tried: []string{UpdatedDate.String(), UpdatedDateTime.String()}}
	}
	parsed, err := ParseUpdated(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

func (u Updated) MarshalJSON() ([]byte, error) {
	if u.Kind != UpdatedDate && u.Kind != UpdatedDateTime {
		return nil, fmt.Errorf("updated: cannot encode %s timestamp", u.Kind)
	}
	return json.Marshal(u.String())
}
