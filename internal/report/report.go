// Package report turns decoded JSON-stat documents into the display types of
// package model.
package report

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/derickschaefer/jstat/internal/jsonstat"
	"github.com/derickschaefer/jstat/internal/model"
)

// Kind returns the Result kind for a narrowed document.
func Kind(doc jsonstat.Document) string {
	switch doc.(type) {
	case *jsonstat.Dataset:
		return model.KindDataset
	case *jsonstat.Collection:
		return model.KindCollection
	default:
		return model.KindDimension
	}
}

// ─── Summaries ────────────────────────────────────────────────────────────────

// Summarize describes doc, which was read from source.
func Summarize(source string, doc jsonstat.Document) *model.Summary {
	switch d := doc.(type) {
	case *jsonstat.Dataset:
		return summarizeDataset(source, d)
	case *jsonstat.Collection:
		return &model.Summary{
			Source:    source,
			Class:     string(jsonstat.ClassCollection),
			Label:     deref(d.Label),
			Href:      deref(d.Href),
			Publisher: deref(d.Source),
			Updated:   updated(d.Updated),
			Links:     countLinks(d.Link),
			Notes:     d.Note,
		}
	case *jsonstat.Dimension:
		return &model.Summary{
			Source:     source,
			Class:      string(jsonstat.ClassDimension),
			Label:      deref(d.Label),
			Href:       deref(d.Href),
			Categories: len(d.Keys()),
			Notes:      d.Note,
		}
	}
	return &model.Summary{Source: source}
}

func summarizeDataset(source string, d *jsonstat.Dataset) *model.Summary {
	s := &model.Summary{
		Source:     source,
		Class:      string(jsonstat.ClassDataset),
		Label:      deref(d.Label),
		Href:       deref(d.Href),
		Publisher:  deref(d.Source),
		Updated:    updated(d.Updated),
		Dimensions: d.ID,
		Size:       d.Size,
		Values:     d.Value.Len(),
		ValueShape: d.Value.Shape.String(),
		Links:      countLinks(d.Link),
		Notes:      d.Note,
	}
	if n, ok := jsonstat.CellCount(d.Size); ok {
		s.Cells = n
	}
	if d.Status != nil {
		s.StatusShape = d.Status.Shape.String()
	}
	if d.Role != nil {
		s.Roles = map[string][]string{}
		for name, ids := range map[string][]string{"time": d.Role.Time, "geo": d.Role.Geo, "metric": d.Role.Metric} {
			if len(ids) > 0 {
				s.Roles[name] = ids
			}
		}
	}
	return s
}

// ─── Dimensions ───────────────────────────────────────────────────────────────

// Dimensions describes every axis of ds in ID order. An axis with no entry in
// the dimension map gets positional keys.
func Dimensions(ds *jsonstat.Dataset) []model.DimensionInfo {
	axes := ds.Axes()
	out := make([]model.DimensionInfo, len(ds.ID))
	for i, id := range ds.ID {
		info := model.DimensionInfo{ID: id, Keys: axes[i], Role: roleOf(ds.Role, id)}
		if i < len(ds.Size) {
			info.Size = ds.Size[i]
		}
		dim := ds.Dimension[id]
		info.Labels = labels(dim, axes[i])
		if dim != nil {
			info.Label = deref(dim.Label)
			if dim.Category.Index != nil {
				info.IndexShape = dim.Category.Index.Shape.String()
			}
		}
		out[i] = info
	}
	return out
}

// Dimension describes a standalone dimension document.
func Dimension(id string, d *jsonstat.Dimension) model.DimensionInfo {
	keys := d.Keys()
	info := model.DimensionInfo{
		ID:     id,
		Label:  deref(d.Label),
		Size:   uint32(len(keys)),
		Keys:   keys,
		Labels: labels(d, keys),
	}
	if d.Category.Index != nil {
		info.IndexShape = d.Category.Index.Shape.String()
	}
	return info
}

func roleOf(r *jsonstat.Role, id string) string {
	if r == nil {
		return ""
	}
	for name, ids := range map[string][]string{"time": r.Time, "geo": r.Geo, "metric": r.Metric} {
		for _, x := range ids {
			if x == id {
				return name
			}
		}
	}
	return ""
}

func labels(d *jsonstat.Dimension, keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		if d == nil {
			out[i] = k
		} else {
			out[i] = d.LabelOf(k)
		}
	}
	return out
}

// ─── Cells ────────────────────────────────────────────────────────────────────

// Cells flattens ds into one row per cell, in row-major order. limit bounds
// the number of rows returned; zero means no bound.
func Cells(ds *jsonstat.Dataset, limit int) *model.CellTable {
	t := &model.CellTable{Dimensions: ds.ID}
	dims := make([]*jsonstat.Dimension, len(ds.ID))
	for i, id := range ds.ID {
		dims[i] = ds.Dimension[id]
	}
	for c := range ds.Cells() {
		if limit > 0 && len(t.Rows) >= limit {
			break
		}
		row := model.CellRow{
			Position: c.Position,
			Keys:     c.Keys,
			Labels:   make([]string, len(c.Keys)),
			Status:   c.Status,
		}
		for i, k := range c.Keys {
			if dims[i] != nil {
				row.Labels[i] = dims[i].LabelOf(k)
			} else {
				row.Labels[i] = k
			}
		}
		if c.Value.Valid {
			v := c.Value.Value
			row.Value = &v
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// ─── Links ────────────────────────────────────────────────────────────────────

// Links lists the links of every relation, or only of rel when it is not
// empty. Relations are sorted by name; links keep document order.
func Links(links jsonstat.Links, rel string) []model.LinkRow {
	rels := make([]string, 0, len(links))
	for r := range links {
		if rel == "" || r == rel {
			rels = append(rels, r)
		}
	}
	sort.Strings(rels)

	out := []model.LinkRow{}
	for _, r := range rels {
		for i, l := range links[r] {
			row := model.LinkRow{Relation: r, Position: i, Href: l.Href()}
			switch {
			case l.JSONStat != nil:
				row.Shape = "jsonstat"
				if l.JSONStat.Class != nil {
					row.Class = string(*l.JSONStat.Class)
				}
				row.Label = deref(l.JSONStat.Label)
			case l.Other != nil:
				row.Shape = "typed"
				row.Type = l.Other.Type
			}
			out = append(out, row)
		}
	}
	return out
}

// LinksOf returns the link map of a narrowed document.
func LinksOf(doc jsonstat.Document) jsonstat.Links {
	switch d := doc.(type) {
	case *jsonstat.Dataset:
		return d.Link
	case *jsonstat.Collection:
		return d.Link
	}
	return nil
}

func countLinks(l jsonstat.Links) int {
	n := 0
	for _, ls := range l {
		n += len(ls)
	}
	return n
}

// ─── Inspection ───────────────────────────────────────────────────────────────

// Inspect reports which members env carries and the shapes its polymorphic
// members resolved to. It does not modify env.
func Inspect(source string, env *jsonstat.Envelope) *model.EnvelopeReport {
	r := &model.EnvelopeReport{
		Source:  source,
		Version: string(env.Version),
		Class:   string(env.Class),
	}
	add := func(name string, present bool, shape, detail string) {
		f := model.FieldReport{Name: name, Present: present}
		if present {
			f.Shape, f.Detail = shape, detail
		}
		r.Fields = append(r.Fields, f)
	}
	add("href", env.Href != nil, "", deref(env.Href))
	add("label", env.Label != nil, "", deref(env.Label))
	add("source", env.Source != nil, "", deref(env.Source))
	if env.Updated != nil {
		add("updated", true, env.Updated.Kind.String(), env.Updated.String())
	} else {
		add("updated", false, "", "")
	}
	add("id", env.ID != nil, "", entries(len(env.ID)))
	add("size", env.Size != nil, "", entries(len(env.Size)))
	add("role", env.Role != nil, "", "")
	if env.Value != nil {
		add("value", true, env.Value.Shape.String(), entries(env.Value.Len()))
	} else {
		add("value", false, "", "")
	}
	if env.Status != nil {
		add("status", true, env.Status.Shape.String(), statusDetail(env.Status))
	} else {
		add("status", false, "", "")
	}
	add("dimension", env.Dimension != nil, "", entries(len(env.Dimension)))
	if env.Category != nil && env.Category.Index != nil {
		add("category", true, "index "+env.Category.Index.Shape.String(), entries(env.Category.Index.Len()))
	} else {
		add("category", env.Category != nil, "", "")
	}
	add("link", env.Link != nil, "", entries(countLinks(env.Link)))
	add("note", env.Note != nil, "", entries(len(env.Note)))
	add("extension", env.Extension != nil, "", entries(len(env.Extension)))
	return r
}

func statusDetail(s *jsonstat.Status) string {
	switch s.Shape {
	case jsonstat.ShapeScalar:
		return strconv.Quote(s.Scalar)
	case jsonstat.ShapeArray:
		return entries(len(s.Array))
	default:
		return entries(len(s.Dict))
	}
}

func entries(n int) string {
	if n == 1 {
		return "1 entry"
	}
	return fmt.Sprintf("%d entries", n)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func updated(u *jsonstat.Updated) string {
	if u == nil {
		return ""
	}
	return u.String()
}
