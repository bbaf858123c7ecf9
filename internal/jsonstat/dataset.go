package jsonstat

import (
	"math"
	"strconv"
)

// Dataset is a checked class "dataset" document. ID lists the dimensions in
// axis order and Size their cardinalities, so len(ID) == len(Size). When
// Value is array-shaped it holds exactly one entry per cell.
type Dataset struct {
	Version   Version
	Href      *string
	Label     *string
	Source    *string
	Updated   *Updated
	ID        []string
	Size      []uint32
	Role      *Role
	Value     StatValue
	Status    *Status
	Dimension Dimensions
	Link      Links
	Note      []string
	Extension Extension
}

// ToDataset narrows env to a Dataset. Checks run in a fixed order and the
// first violation is returned:
//
//  1. class must be "dataset"                        (ClassMismatch)
//  2. category must be absent                        (ForbiddenField)
//  3. id, size, value and dimension must be present  (MissingField)
//  4. len(id) == len(size), and an array-shaped value
//     has one entry per cell                         (InvariantViolation)
//
// On failure env is left as it was, so the caller may try another
// converter. On success the fields are moved into the Dataset and env is
// reset to its zero value.
func ToDataset(env *Envelope) (*Dataset, error) {
	if env == nil || env.Class != ClassDataset {
		return nil, classMismatch(ClassDataset, classOf(env))
	}
	if env.Category != nil {
		return nil, forbiddenField(ClassDataset, "category")
	}
	switch {
	case env.ID == nil:
		return nil, missingField(ClassDataset, "id")
	case env.Size == nil:
		return nil, missingField(ClassDataset, "size")
	case env.Value == nil:
		return nil, missingField(ClassDataset, "value")
	case env.Dimension == nil:
		return nil, missingField(ClassDataset, "dimension")
	}
	if len(env.ID) != len(env.Size) {
		return nil, invariant(ClassDataset, "size", "id has %d entries, size has %d", len(env.ID), len(env.Size))
	}
	if env.Value.Shape == ShapeArray {
		cells, ok := CellCount(env.Size)
		if !ok || uint64(len(env.Value.Array)) != cells {
			return nil, invariant(ClassDataset, "value", "%d values for %s cells", len(env.Value.Array), cellCountString(cells, ok))
		}
	}

	ds := &Dataset{
		Version:   env.Version,
		Href:      env.Href,
		Label:     env.Label,
		Source:    env.Source,
		Updated:   env.Updated,
		ID:        env.ID,
		Size:      env.Size,
		Role:      env.Role,
		Value:     *env.Value,
		Status:    env.Status,
		Dimension: env.Dimension,
		Link:      env.Link,
		Note:      env.Note,
		Extension: env.Extension,
	}
	*env = Envelope{}
	return ds, nil
}

// CellCount returns the product of size. ok is false on overflow.
func CellCount(size []uint32) (uint64, bool) {
	n := uint64(1)
	for _, s := range size {
		if s != 0 && n > math.MaxUint64/uint64(s) {
			return 0, false
		}
		n *= uint64(s)
	}
	return n, true
}

func cellCountString(n uint64, ok bool) string {
	if !ok {
		return "an overflowing number of"
	}
	return strconv.FormatUint(n, 10)
}

// envelope returns d in its generic form for encoding.
func (d *Dataset) envelope() *Envelope {
	v := d.Version
	if v == "" {
		v = Version2
	}
	value := d.Value
	return &Envelope{
		Version:   v,
		Class:     ClassDataset,
		Href:      d.Href,
		Label:     d.Label,
		Source:    d.Source,
		Updated:   d.Updated,
		ID:        d.ID,
		Size:      d.Size,
		Role:      d.Role,
		Value:     &value,
		Status:    d.Status,
		Dimension: d.Dimension,
		Link:      d.Link,
		Note:      d.Note,
		Extension: d.Extension,
	}
}

func (d *Dataset) MarshalJSON() ([]byte, error) { return d.envelope().MarshalJSON() }
