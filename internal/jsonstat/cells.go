package jsonstat

import (
	"iter"
	"strconv"
)

// CellRef locates one cell of a dataset.
type CellRef struct {
	Position  int      // flat, row-major position
	Keys      []string // one category key per dimension, in ID order
	Value     Cell     // Valid is false when no observation is recorded
	Status    string
	HasStatus bool
}

// MaxAxisKeys bounds the positional keys Axes generates for one dimension.
const MaxAxisKeys = 10000

// axis returns the declared category keys of dimension i and its size.
// keys is nil when the dimension is missing from the dimension map or its
// keys do not match its size; such an axis is addressed by position.
func (d *Dataset) axis(i int) (keys []string, n int) {
	if i < len(d.Size) {
		n = int(d.Size[i])
	}
	if dim, ok := d.Dimension[d.ID[i]]; ok {
		if k := dim.Keys(); len(k) == n {
			return k, n
		}
	}
	return nil, n
}

// Axes returns the category keys of every dimension in ID order. A dimension
// without usable keys gets positional keys "0".."n-1", truncated to
// MaxAxisKeys; Size still reports the full cardinality.
func (d *Dataset) Axes() [][]string {
	axes := make([][]string, len(d.ID))
	for i := range d.ID {
		keys, n := d.axis(i)
		if keys == nil {
			keys = make([]string, min(n, MaxAxisKeys))
			for k := range keys {
				keys[k] = strconv.Itoa(k)
			}
		}
		axes[i] = keys
	}
	return axes
}

// Cells enumerates every cell in row-major order: the last dimension in ID
// varies fastest. Values are passed through as decoded.
func (d *Dataset) Cells() iter.Seq[CellRef] {
	return func(yield func(CellRef) bool) {
		total, ok := CellCount(d.Size)
		if !ok {
			return
		}
		named := make([][]string, len(d.ID))
		sizes := make([]int, len(d.ID))
		for i := range d.ID {
			named[i], sizes[i] = d.axis(i)
		}
		pos := make([]int, len(d.ID))
		for p := 0; uint64(p) < total; p++ {
			keys := make([]string, len(pos))
			for i, at := range pos {
				if named[i] != nil {
					keys[i] = named[i][at]
				} else {
					keys[i] = strconv.Itoa(at)
				}
			}
			ref := CellRef{Position: p, Keys: keys}
			ref.Value, _ = d.Value.At(p)
			if d.Status != nil {
				ref.Status, ref.HasStatus = d.Status.At(p)
			}
			if !yield(ref) {
				return
			}
			for i := len(pos) - 1; i >= 0; i-- {
				pos[i]++
				if pos[i] < sizes[i] {
					break
				}
				pos[i] = 0
			}
		}
	}
}
