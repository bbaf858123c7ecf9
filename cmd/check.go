package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/jstat/internal/app"
	"github.com/derickschaefer/jstat/internal/model"
	"github.com/derickschaefer/jstat/internal/report"
	"github.com/derickschaefer/jstat/internal/util"
)

var checkCmd = &cobra.Command{
	Use:   "check <source...>",
	Short: "Decode and validate many documents concurrently",
	Long: `Fetch, decode and narrow every source, in parallel up to --concurrency.
One row is printed per source, in the order given, with the class it narrowed
to or the first error found. Repeated sources are checked once; in
particular standard input ("-") is read at most once.

The command exits non-zero when any source fails.`,
	Example: `  jstat check oecd.json canada.json galicia.json
  jstat check data/*.json --format csv
  jstat check collection.json --concurrency 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()

		start := time.Now()
		sources := uniqueSources(args)
		rows := batchCheck(cmd.Context(), deps, sources)

		var errs util.MultiError
		for _, r := range rows {
			if !r.OK {
				errs.Add(fmt.Errorf("%s: %s", r.Source, r.Error))
			}
		}

		result := newResult(model.KindCheck, "check "+strings.Join(sources, " "), rows, len(rows), nil, start)
		if err := emit(cmd, deps, result); err != nil {
			return err
		}
		if n := len(errs.Errors); n > 0 {
			if deps.Config.Quiet {
				return errs.Err()
			}
			return fmt.Errorf("%d of %d sources failed", n, len(rows))
		}
		return nil
	},
}

// uniqueSources drops blank and repeated sources while preserving order.
// Standard input can only be consumed once, so at most one "-" survives.
func uniqueSources(srcs []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(srcs))
	for _, s := range srcs {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// batchCheck loads and narrows srcs concurrently. It respects
// deps.Config.Concurrency and returns rows in source order. srcs must come
// from uniqueSources: each source is read by its own goroutine, and a "-"
// listed twice would race for standard input.
func batchCheck(ctx context.Context, deps *app.Deps, srcs []string) []model.CheckRow {
	concurrency := deps.Config.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}

	sem := make(chan struct{}, concurrency)
	rows := make([]model.CheckRow, len(srcs))
	var wg sync.WaitGroup

	for i, src := range srcs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			rows[i] = checkOne(ctx, deps, src)
		}()
	}
	wg.Wait()
	return rows
}

func checkOne(ctx context.Context, deps *app.Deps, src string) model.CheckRow {
	start := time.Now()
	row := model.CheckRow{Source: src}

	loaded, err := deps.Load(ctx, src)
	if err != nil {
		row.Error = err.Error()
		row.DurationMs = time.Since(start).Milliseconds()
		return row
	}
	row.Cached = loaded.CacheHit
	row.Bytes = len(loaded.Body)

	doc, err := app.Narrow(loaded.Body)
	if err != nil {
		row.Error = err.Error()
	} else {
		row.OK = true
		row.Class = report.Kind(doc)
	}
	row.DurationMs = time.Since(start).Milliseconds()
	return row
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
