// Package model defines the display-oriented types jstat commands return and
// the result envelope every command wraps them in. Renderers switch on
// Result.Kind to format output.
package model

import (
	"time"
)

// ─── Document Summaries ───────────────────────────────────────────────────────

// Summary describes one decoded document: a dataset, a collection, or a
// standalone dimension. Fields that do not apply to the class are left empty.
type Summary struct {
	Source      string              `json:"source" yaml:"source"`
	Class       string              `json:"class" yaml:"class"`
	Label       string              `json:"label,omitempty" yaml:"label,omitempty"`
	Href        string              `json:"href,omitempty" yaml:"href,omitempty"`
	Publisher   string              `json:"publisher,omitempty" yaml:"publisher,omitempty"`
	Updated     string              `json:"updated,omitempty" yaml:"updated,omitempty"`
	Dimensions  []string            `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
	Size        []uint32            `json:"size,omitempty" yaml:"size,omitempty"`
	Cells       uint64              `json:"cells,omitempty" yaml:"cells,omitempty"`
	Values      int                 `json:"values,omitempty" yaml:"values,omitempty"`
	ValueShape  string              `json:"value_shape,omitempty" yaml:"value_shape,omitempty"`
	StatusShape string              `json:"status_shape,omitempty" yaml:"status_shape,omitempty"`
	Roles       map[string][]string `json:"roles,omitempty" yaml:"roles,omitempty"`
	Categories  int                 `json:"categories,omitempty" yaml:"categories,omitempty"`
	Links       int                 `json:"links,omitempty" yaml:"links,omitempty"`
	Notes       []string            `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// ─── Dataset Contents ─────────────────────────────────────────────────────────

// DimensionInfo describes one axis of a dataset, or a standalone dimension.
type DimensionInfo struct {
	ID         string   `json:"id" yaml:"id"`
	Label      string   `json:"label,omitempty" yaml:"label,omitempty"`
	Size       uint32   `json:"size" yaml:"size"`
	Role       string   `json:"role,omitempty" yaml:"role,omitempty"`
	Keys       []string `json:"keys" yaml:"keys"`
	Labels     []string `json:"labels" yaml:"labels"`
	IndexShape string   `json:"index_shape,omitempty" yaml:"index_shape,omitempty"`
}

// CellRow is one cell of a dataset. Value is nil when no observation is
// recorded for the cell.
type CellRow struct {
	Position int      `json:"position" yaml:"position"`
	Keys     []string `json:"keys" yaml:"keys"`
	Labels   []string `json:"labels" yaml:"labels"`
	Value    *float64 `json:"value" yaml:"value"`
	Status   string   `json:"status,omitempty" yaml:"status,omitempty"`
}

// CellTable is a dataset flattened to one row per cell. Dimensions holds the
// column headers, in ID order.
type CellTable struct {
	Dimensions []string  `json:"dimensions" yaml:"dimensions"`
	Rows       []CellRow `json:"rows" yaml:"rows"`
}

// LinkRow is one entry of a document's link map.
type LinkRow struct {
	Relation string `json:"relation" yaml:"relation"`
	Position int    `json:"position" yaml:"position"`
	Shape    string `json:"shape" yaml:"shape"` // jsonstat | typed
	Class    string `json:"class,omitempty" yaml:"class,omitempty"`
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Href     string `json:"href,omitempty" yaml:"href,omitempty"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty"`
}

// ─── Inspection ───────────────────────────────────────────────────────────────

// FieldReport says whether a top-level member was present and, for
// polymorphic members, which shape it resolved to.
type FieldReport struct {
	Name    string `json:"name" yaml:"name"`
	Present bool   `json:"present" yaml:"present"`
	Shape   string `json:"shape,omitempty" yaml:"shape,omitempty"`
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// EnvelopeReport is the generic view of a document before narrowing.
type EnvelopeReport struct {
	Source  string        `json:"source" yaml:"source"`
	Version string        `json:"version" yaml:"version"`
	Class   string        `json:"class" yaml:"class"`
	Narrows string        `json:"narrows_to,omitempty" yaml:"narrows_to,omitempty"`
	Problem string        `json:"problem,omitempty" yaml:"problem,omitempty"`
	Fields  []FieldReport `json:"fields" yaml:"fields"`
}

// CheckRow is the outcome of decoding and narrowing one source.
type CheckRow struct {
	Source     string `json:"source" yaml:"source"`
	Class      string `json:"class,omitempty" yaml:"class,omitempty"`
	OK         bool   `json:"ok" yaml:"ok"`
	Cached     bool   `json:"cached" yaml:"cached"`
	Bytes      int    `json:"bytes" yaml:"bytes"`
	DurationMs int64  `json:"duration_ms" yaml:"duration_ms"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}

// CacheEntry is one document held in the local store.
type CacheEntry struct {
	Source    string    `json:"source" yaml:"source"`
	Class     string    `json:"class,omitempty" yaml:"class,omitempty"`
	Bytes     int       `json:"bytes" yaml:"bytes"`
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// ─── Result Envelope ─────────────────────────────────────────────────────────

// ResultStats carries performance and cache metadata for a command result.
type ResultStats struct {
	CacheHit   bool  `json:"cache_hit" yaml:"cache_hit"`
	DurationMs int64 `json:"duration_ms" yaml:"duration_ms"`
	Items      int   `json:"items" yaml:"items"`
}

// Result is the uniform envelope returned by every command.
// The Data field holds the typed payload; Kind identifies what is in it.
type Result struct {
	Kind        string      `json:"kind" yaml:"kind"`
	GeneratedAt time.Time   `json:"generated_at" yaml:"generated_at"`
	Command     string      `json:"command" yaml:"command"`
	Data        interface{} `json:"data" yaml:"data"`
	Warnings    []string    `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Stats       ResultStats `json:"stats" yaml:"stats"`
}

// Kind constants for Result.Kind.
const (
	KindDataset    = "dataset"    // *Summary
	KindCollection = "collection" // *Summary
	KindDimension  = "dimension"  // *Summary
	KindDimensions = "dimensions" // []DimensionInfo
	KindCells      = "cells"      // *CellTable
	KindLinks      = "links"      // []LinkRow
	KindEnvelope   = "envelope"   // *EnvelopeReport
	KindCheck      = "check"      // []CheckRow
	KindCache      = "cache"      // []CacheEntry
)
