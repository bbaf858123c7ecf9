package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/derickschaefer/jstat/internal/app"
	"github.com/derickschaefer/jstat/internal/jsonstat"
	"github.com/derickschaefer/jstat/internal/model"
	"github.com/derickschaefer/jstat/internal/render"
	"github.com/derickschaefer/jstat/internal/report"
)

// resolveFormat returns the effective format string, falling back to "table".
func resolveFormat(cfgFormat string) string {
	if globalFlags.Format != "" {
		return globalFlags.Format
	}
	if cfgFormat != "" {
		return cfgFormat
	}
	return render.FormatTable
}

// outputWriter returns the writer selected by --out, or def when it is unset.
// The returned close function must always be called.
func outputWriter(def io.Writer) (io.Writer, func() error, error) {
	if globalFlags.Out == "" {
		return def, func() error { return nil }, nil
	}
	f, err := os.Create(globalFlags.Out)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

// emit renders result in the resolved format and prints the footer.
func emit(cmd *cobra.Command, deps *app.Deps, result *model.Result) error {
	if deps.Config.Quiet {
		return nil
	}
	format := resolveFormat(deps.Config.Format)
	if !render.ValidFormat(format) {
		return fmt.Errorf("unknown format %q", format)
	}
	w, closeFn, err := outputWriter(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := render.Render(w, result, format); err != nil {
		closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}
	render.PrintFooter(cmd.ErrOrStderr(), result, deps.Config.Verbose)
	return nil
}

// loadDocument fetches src (through the store when cacheable) and narrows
// it to a dataset, collection or standalone dimension.
func loadDocument(ctx context.Context, deps *app.Deps, src string) (jsonstat.Document, *app.Loaded, error) {
	loaded, err := deps.Load(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	doc, err := app.Narrow(loaded.Body)
	if err != nil {
		return nil, loaded, fmt.Errorf("%s: %w", src, err)
	}
	return doc, loaded, nil
}

// loadDataset is loadDocument for commands that only make sense on datasets.
func loadDataset(ctx context.Context, deps *app.Deps, src string) (*jsonstat.Dataset, *app.Loaded, error) {
	doc, loaded, err := loadDocument(ctx, deps, src)
	if err != nil {
		return nil, nil, err
	}
	ds, ok := doc.(*jsonstat.Dataset)
	if !ok {
		return nil, nil, fmt.Errorf("%s is a %s, not a dataset", src, report.Kind(doc))
	}
	return ds, loaded, nil
}

// newResult wraps data in a Result envelope, carrying over the load's cache
// state and warnings.
func newResult(kind, command string, data any, items int, loaded *app.Loaded, start time.Time) *model.Result {
	r := &model.Result{
		Kind:        kind,
		GeneratedAt: time.Now(),
		Command:     command,
		Data:        data,
		Stats: model.ResultStats{
			Items:      items,
			DurationMs: time.Since(start).Milliseconds(),
		},
	}
	if loaded != nil {
		r.Warnings = loaded.Warnings
		r.Stats.CacheHit = loaded.CacheHit
	}
	return r
}

// printSimpleTable renders a simple table with headers using tablewriter.
// The add callback is called with row values as variadic strings.
func printSimpleTable(w io.Writer, headers []string, fill func(add func(...string))) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)

	fill(func(cols ...string) {
		tw.Append(cols)
	})
	tw.Render()
}
