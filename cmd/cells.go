package cmd

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/jstat/internal/jsonstat"
	"github.com/derickschaefer/jstat/internal/model"
	"github.com/derickschaefer/jstat/internal/report"
)

// ─── cells ────────────────────────────────────────────────────────────────────

var cellsLimit int

var cellsCmd = &cobra.Command{
	Use:   "cells <source>",
	Short: "List every cell of a dataset with its category labels",
	Long: `Flatten a dataset into one row per cell. Cells are listed in row-major
order: the last dimension in the dataset's id list varies fastest.

Cells with no observation show "." in tabular formats and null in JSON.`,
	Example: `  jstat cells oecd.json
  jstat cells oecd.json --limit 20
  jstat cells galicia.json --format csv --out galicia.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cellsLimit < 0 {
			return fmt.Errorf("--limit must not be negative")
		}
		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()

		start := time.Now()
		ds, loaded, err := loadDataset(cmd.Context(), deps, args[0])
		if err != nil {
			return err
		}

		table := report.Cells(ds, cellsLimit)
		result := newResult(model.KindCells, fmt.Sprintf("cells %s", args[0]), table, len(table.Rows), loaded, start)
		if n, ok := jsonstat.CellCount(ds.Size); ok && cellsLimit > 0 && n > uint64(cellsLimit) {
			result.Warnings = append(result.Warnings, fmt.Sprintf("showing %d of %d cells", cellsLimit, n))
		}
		return emit(cmd, deps, result)
	},
}

// ─── dims ─────────────────────────────────────────────────────────────────────

var dimsCmd = &cobra.Command{
	Use:   "dims <source>",
	Short: "List the dimensions of a dataset, or a standalone dimension",
	Long: `List a dataset's dimensions in id order with their size, role and
categories. Categories are shown in index order with their labels.

Given a standalone dimension document, its single dimension is listed.`,
	Example: `  jstat dims oecd.json
  jstat dims oecd.json --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()

		start := time.Now()
		doc, loaded, err := loadDocument(cmd.Context(), deps, args[0])
		if err != nil {
			return err
		}

		var dims []model.DimensionInfo
		switch d := doc.(type) {
		case *jsonstat.Dataset:
			dims = report.Dimensions(d)
		case *jsonstat.Dimension:
			dims = []model.DimensionInfo{report.Dimension(dimensionName(loaded.Source.Name), d)}
		default:
			return fmt.Errorf("%s is a collection and has no dimensions; try 'jstat links'", args[0])
		}

		result := newResult(model.KindDimensions, fmt.Sprintf("dims %s", args[0]), dims, len(dims), loaded, start)
		return emit(cmd, deps, result)
	},
}

// dimensionName derives an id for a standalone dimension from its source,
// which is the only place one can come from.
func dimensionName(src string) string {
	if src == "-" {
		return "stdin"
	}
	base := path.Base(strings.ReplaceAll(src, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

func init() {
	rootCmd.AddCommand(cellsCmd)
	rootCmd.AddCommand(dimsCmd)

	cellsCmd.Flags().IntVar(&cellsLimit, "limit", 0, "maximum number of cells to list (0 = all)")
}
