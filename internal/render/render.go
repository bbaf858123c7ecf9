// Package render converts Result values into human-readable or machine-parseable
// output. Tabular formats share one row view per Kind; the top-level Render
// dispatcher selects based on the format string.
package render

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/derickschaefer/jstat/internal/model"
	"github.com/derickschaefer/jstat/internal/util"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatMD    = "md"
	FormatYAML  = "yaml"
)

// Formats lists every accepted --format value.
var Formats = []string{FormatTable, FormatJSON, FormatJSONL, FormatCSV, FormatTSV, FormatMD, FormatYAML}

// ValidFormat reports whether f is one of Formats.
func ValidFormat(f string) bool {
	for _, v := range Formats {
		if v == f {
			return true
		}
	}
	return false
}

// Render writes result to w in the specified format.
func Render(w io.Writer, result *model.Result, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatJSONL:
		return renderJSONL(w, result)
	case FormatYAML:
		return renderYAML(w, result)
	case FormatCSV:
		return renderDelimited(w, result, ',')
	case FormatTSV:
		return renderDelimited(w, result, '\t')
	case FormatMD:
		return renderMarkdown(w, result)
	case FormatTable, "":
		return renderTable(w, result)
	default:
		return fmt.Errorf("unknown format %q (valid: %s)", format, strings.Join(Formats, "|"))
	}
}

// ─── JSON / JSONL / YAML ──────────────────────────────────────────────────────

func renderJSON(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// renderJSONL writes one record per row for list-shaped kinds, and the bare
// payload on a single line otherwise.
func renderJSONL(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	var records []any
	switch data := result.Data.(type) {
	case *model.CellTable:
		for _, r := range data.Rows {
			records = append(records, r)
		}
	case []model.LinkRow:
		for _, r := range data {
			records = append(records, r)
		}
	case []model.DimensionInfo:
		for _, r := range data {
			records = append(records, r)
		}
	case []model.CheckRow:
		for _, r := range data {
			records = append(records, r)
		}
	case []model.CacheEntry:
		for _, r := range data {
			records = append(records, r)
		}
	default:
		return enc.Encode(result.Data)
	}
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

func renderYAML(w io.Writer, result *model.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return err
	}
	return enc.Close()
}

// ─── Rows ─────────────────────────────────────────────────────────────────────

// rows returns the tabular view of result: a header and one row per item.
func rows(result *model.Result) ([]string, [][]string, error) {
	switch data := result.Data.(type) {
	case *model.Summary:
		return []string{"FIELD", "VALUE"}, summaryRows(data), nil
	case *model.CellTable:
		return cellRows(data)
	case []model.DimensionInfo:
		out := make([][]string, len(data))
		for i, d := range data {
			out[i] = []string{d.ID, d.Label, strconv.FormatUint(uint64(d.Size), 10), d.Role, categoryList(d)}
		}
		return []string{"ID", "LABEL", "SIZE", "ROLE", "CATEGORIES"}, out, nil
	case []model.LinkRow:
		out := make([][]string, len(data))
		for i, l := range data {
			kind := l.Class
			if l.Shape == "typed" {
				kind = l.Type
			}
			out[i] = []string{l.Relation, strconv.Itoa(l.Position), l.Shape, kind, l.Label, l.Href}
		}
		return []string{"REL", "#", "SHAPE", "CLASS/TYPE", "LABEL", "HREF"}, out, nil
	case *model.EnvelopeReport:
		out := make([][]string, len(data.Fields))
		for i, f := range data.Fields {
			present := "-"
			if f.Present {
				present = "yes"
			}
			out[i] = []string{f.Name, present, f.Shape, f.Detail}
		}
		return []string{"MEMBER", "PRESENT", "SHAPE", "DETAIL"}, out, nil
	case []model.CheckRow:
		out := make([][]string, len(data))
		for i, c := range data {
			status := "ok"
			if !c.OK {
				status = "FAIL"
			}
			out[i] = []string{c.Source, c.Class, status, util.HumanBytes(int64(c.Bytes)), fmt.Sprintf("%dms", c.DurationMs), c.Error}
		}
		return []string{"SOURCE", "CLASS", "STATUS", "SIZE", "TIME", "ERROR"}, out, nil
	case []model.CacheEntry:
		out := make([][]string, len(data))
		for i, e := range data {
			out[i] = []string{e.Source, e.Class, util.HumanBytes(int64(e.Bytes)), e.FetchedAt.Format(time.RFC3339)}
		}
		return []string{"SOURCE", "CLASS", "SIZE", "FETCHED"}, out, nil
	default:
		return nil, nil, fmt.Errorf("no tabular view for %s results", result.Kind)
	}
}

func summaryRows(s *model.Summary) [][]string {
	var out [][]string
	add := func(k, v string) {
		if v != "" {
			out = append(out, []string{k, v})
		}
	}
	add("Source", s.Source)
	add("Class", s.Class)
	add("Label", s.Label)
	add("Href", s.Href)
	add("Publisher", s.Publisher)
	add("Updated", s.Updated)
	add("Dimensions", strings.Join(s.Dimensions, ", "))
	if len(s.Size) > 0 {
		sizes := make([]string, len(s.Size))
		for i, n := range s.Size {
			sizes[i] = strconv.FormatUint(uint64(n), 10)
		}
		add("Size", strings.Join(sizes, " x "))
		add("Cells", strconv.FormatUint(s.Cells, 10))
	}
	if s.ValueShape != "" {
		add("Values", fmt.Sprintf("%d (%s)", s.Values, s.ValueShape))
	}
	add("Status", s.StatusShape)
	if len(s.Roles) > 0 {
		names := make([]string, 0, len(s.Roles))
		for k := range s.Roles {
			names = append(names, k)
		}
		sort.Strings(names)
		parts := make([]string, len(names))
		for i, k := range names {
			parts[i] = k + "=" + strings.Join(s.Roles[k], ",")
		}
		add("Roles", strings.Join(parts, "; "))
	}
	if s.Categories > 0 {
		add("Categories", strconv.Itoa(s.Categories))
	}
	if s.Links > 0 {
		add("Links", strconv.Itoa(s.Links))
	}
	add("Notes", util.Truncate(strings.Join(s.Notes, " / "), 200))
	return out
}

func cellRows(t *model.CellTable) ([]string, [][]string, error) {
	header := make([]string, 0, len(t.Dimensions)+2)
	for _, d := range t.Dimensions {
		header = append(header, strings.ToUpper(d))
	}
	header = append(header, "VALUE", "STATUS")

	out := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]string, 0, len(header))
		row = append(row, r.Labels...)
		row = append(row, util.FormatCell(r.Value), r.Status)
		out[i] = row
	}
	return header, out, nil
}

func categoryList(d model.DimensionInfo) string {
	parts := make([]string, len(d.Keys))
	for i, k := range d.Keys {
		if i < len(d.Labels) && d.Labels[i] != k {
			parts[i] = k + " (" + d.Labels[i] + ")"
		} else {
			parts[i] = k
		}
	}
	return util.Truncate(strings.Join(parts, ", "), 80)
}

// ─── Table ────────────────────────────────────────────────────────────────────

func renderTable(w io.Writer, result *model.Result) error {
	header, data, err := rows(result)
	if err != nil {
		// Fallback: JSON
		return renderJSON(w, result)
	}
	if src := sourceOf(result); src != "" {
		fmt.Fprintf(w, "%s\n\n", src)
	}
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	if result.Kind == model.KindCells {
		align := make([]int, len(header))
		align[len(align)-2] = tablewriter.ALIGN_RIGHT
		tw.SetColumnAlignment(align)
	}
	tw.AppendBulk(data)
	tw.Render()
	return nil
}

// sourceOf returns a heading for results that carry a document source the
// table itself does not show.
func sourceOf(result *model.Result) string {
	switch data := result.Data.(type) {
	case *model.EnvelopeReport:
		s := fmt.Sprintf("%s  (version %s, class %s)", data.Source, data.Version, data.Class)
		if data.Narrows != "" {
			s += "\nnarrows to " + data.Narrows
		}
		if data.Problem != "" {
			s += "\n" + data.Problem
		}
		return s
	}
	return ""
}

// ─── CSV / TSV ────────────────────────────────────────────────────────────────

func renderDelimited(w io.Writer, result *model.Result, sep rune) error {
	header, data, err := rows(result)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = sep
	lower := make([]string, len(header))
	for i, h := range header {
		lower[i] = strings.ToLower(h)
	}
	_ = cw.Write(lower)
	_ = cw.WriteAll(data)
	cw.Flush()
	return cw.Error()
}

// ─── Markdown ─────────────────────────────────────────────────────────────────

func renderMarkdown(w io.Writer, result *model.Result) error {
	header, data, err := rows(result)
	if err != nil {
		return renderJSON(w, result)
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(header, " | "))
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	fmt.Fprintf(w, "|%s|\n", strings.Join(sep, "|"))
	for _, r := range data {
		cells := make([]string, len(r))
		for i, c := range r {
			cells[i] = mdEscape(c)
		}
		fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
	}
	return nil
}

// ─── Warnings / Stats Footer ─────────────────────────────────────────────────

// PrintFooter writes warnings and stats to w when verbose mode is on.
func PrintFooter(w io.Writer, result *model.Result, verbose bool) {
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠  %s\n", warn)
	}
	if verbose {
		src := "live"
		if result.Stats.CacheHit {
			src = "cache"
		}
		fmt.Fprintf(w, "\n[%s • %d items • %dms • %s]\n",
			result.GeneratedAt.Format(time.RFC3339),
			result.Stats.Items,
			result.Stats.DurationMs,
			src,
		)
	}
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
