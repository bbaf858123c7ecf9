package render_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/derickschaefer/jstat/internal/model"
	"github.com/derickschaefer/jstat/internal/render"
)

// ─── Fixtures ─────────────────────────────────────────────────────────────────

func f(v float64) *float64 { return &v }

func cellsResult() *model.Result {
	return &model.Result{
		Kind:        model.KindCells,
		GeneratedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Command:     "cells tuvalu.json",
		Data: &model.CellTable{
			Dimensions: []string{"sex"},
			Rows: []model.CellRow{
				{Position: 0, Keys: []string{"M"}, Labels: []string{"men"}, Value: f(4729)},
				{Position: 1, Keys: []string{"F"}, Labels: []string{"women"}, Status: "m"},
			},
		},
		Stats: model.ResultStats{Items: 2},
	}
}

func summaryResult() *model.Result {
	return &model.Result{
		Kind: model.KindDataset,
		Data: &model.Summary{
			Source:     "tuvalu.json",
			Class:      "dataset",
			Label:      "Population | Tuvalu",
			Dimensions: []string{"metric", "sex"},
			Size:       []uint32{1, 3},
			Cells:      3,
			Values:     3,
			ValueShape: "array",
		},
	}
}

func render1(t *testing.T, r *model.Result, format string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := render.Render(&buf, r, format); err != nil {
		t.Fatalf("Render(%s): %v", format, err)
	}
	return buf.String()
}

// ─── Formats ──────────────────────────────────────────────────────────────────

func TestRenderCSVCells(t *testing.T) {
	got := render1(t, cellsResult(), render.FormatCSV)
	want := "sex,value,status\nmen,4729,\nwomen,.,m\n"
	if got != want {
		t.Errorf("csv:\n  expected %q\n  got      %q", want, got)
	}
}

func TestRenderTSVUsesTabs(t *testing.T) {
	got := render1(t, cellsResult(), render.FormatTSV)
	if !strings.HasPrefix(got, "sex\tvalue\tstatus\n") {
		t.Errorf("tsv header: got %q", got)
	}
}

func TestRenderTableSummary(t *testing.T) {
	got := render1(t, summaryResult(), render.FormatTable)
	for _, want := range []string{"FIELD", "tuvalu.json", "metric, sex", "1 x 3", "3 (array)"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Publisher") {
		t.Error("empty fields should be left out of the summary table")
	}
}

func TestRenderMarkdownEscapesPipes(t *testing.T) {
	got := render1(t, summaryResult(), render.FormatMD)
	if !strings.HasPrefix(got, "| FIELD | VALUE |\n|---|---|\n") {
		t.Errorf("markdown header: got %q", got)
	}
	if !strings.Contains(got, `Population \| Tuvalu`) {
		t.Errorf("pipes should be escaped:\n%s", got)
	}
}

func TestRenderJSONEnvelope(t *testing.T) {
	got := render1(t, cellsResult(), render.FormatJSON)
	var decoded struct {
		Kind string `json:"kind"`
		Data struct {
			Rows []struct {
				Value *float64 `json:"value"`
			} `json:"rows"`
		} `json:"data"`
	}
	if err := json.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, got)
	}
	if decoded.Kind != model.KindCells {
		t.Errorf("kind: expected cells, got %q", decoded.Kind)
	}
	if len(decoded.Data.Rows) != 2 || decoded.Data.Rows[1].Value != nil {
		t.Errorf("missing cell should encode as null: %s", got)
	}
}

func TestRenderJSONLOneRecordPerRow(t *testing.T) {
	got := render1(t, cellsResult(), render.FormatJSONL)
	lines := strings.Split(strings.TrimSpace(got), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", len(lines), got)
	}
	if !strings.Contains(lines[1], `"value":null`) {
		t.Errorf("second record should carry a null value: %s", lines[1])
	}
}

func TestRenderYAML(t *testing.T) {
	got := render1(t, summaryResult(), render.FormatYAML)
	var decoded map[string]any
	if err := yaml.Unmarshal([]byte(got), &decoded); err != nil {
		t.Fatalf("invalid yaml: %v\n%s", err, got)
	}
	if decoded["kind"] != "dataset" {
		t.Errorf("kind: expected dataset, got %v", decoded["kind"])
	}
	if !strings.Contains(got, "value_shape: array") {
		t.Errorf("yaml should use field tags:\n%s", got)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := render.Render(&buf, cellsResult(), "xml"); err == nil {
		t.Error("unknown format should fail")
	}
	if render.ValidFormat("xml") || !render.ValidFormat("yaml") {
		t.Error("ValidFormat disagrees with Formats")
	}
}

func TestRenderCSVNeedsTabularKind(t *testing.T) {
	var buf bytes.Buffer
	r := &model.Result{Kind: "other", Data: map[string]int{"a": 1}}
	if err := render.Render(&buf, r, render.FormatCSV); err == nil {
		t.Error("csv of a non-tabular result should fail")
	}
	// table falls back to JSON
	if err := render.Render(&buf, r, render.FormatTable); err != nil {
		t.Errorf("table fallback: %v", err)
	}
}

// ─── Footer ───────────────────────────────────────────────────────────────────

func TestPrintFooter(t *testing.T) {
	r := cellsResult()
	r.Warnings = []string{"cache disabled"}
	r.Stats.CacheHit = true

	var buf bytes.Buffer
	render.PrintFooter(&buf, r, false)
	if !strings.Contains(buf.String(), "cache disabled") {
		t.Error("warnings should always print")
	}
	if strings.Contains(buf.String(), "items") {
		t.Error("stats should print only when verbose")
	}

	buf.Reset()
	render.PrintFooter(&buf, r, true)
	if !strings.Contains(buf.String(), "2 items") || !strings.Contains(buf.String(), "cache]") {
		t.Errorf("verbose footer: got %q", buf.String())
	}
}
