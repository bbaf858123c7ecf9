package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/jstat/internal/report"
)

// ─── get ──────────────────────────────────────────────────────────────────────

var getCmd = &cobra.Command{
	Use:   "get <source>",
	Short: "Decode a document and summarize it",
	Long: `Decode a JSON-stat document and narrow it to the class it declares:
a dataset, a collection, or a standalone dimension. The summary shows the
document's label, publisher, update time, and its shape (dimension ids and
sizes, the number of cells and how values are laid out).

A document that declares a class but breaks that class's rules is reported
with the first rule it breaks.`,
	Example: `  jstat get oecd.json
  jstat get https://json-stat.org/samples/galicia.json --format json
  curl -s https://example.org/data.json | jstat get -`,
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

		summary := report.Summarize(loaded.Source.Location, doc)
		result := newResult(report.Kind(doc), fmt.Sprintf("get %s", args[0]), summary, 1, loaded, start)
		return emit(cmd, deps, result)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
