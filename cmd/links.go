package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/jstat/internal/jsonstat"
	"github.com/derickschaefer/jstat/internal/model"
	"github.com/derickschaefer/jstat/internal/report"
)

var linksRel string

var linksCmd = &cobra.Command{
	Use:   "links <source>",
	Short: "List the links of a collection or dataset",
	Long: `List a document's links grouped by relation. Relations are sorted by
name; links within a relation keep the order the document gives them, so
the items of a collection appear in collection order.

Each link is either a JSON-stat reference (class, label, href) or a typed
link to another resource (type, href).`,
	Example: `  jstat links collection.json
  jstat links collection.json --rel item --format jsonl
  jstat links oecd.json --rel alternate`,
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
		if _, ok := doc.(*jsonstat.Dimension); ok {
			return fmt.Errorf("%s is a standalone dimension and carries no links", args[0])
		}

		rows := report.Links(report.LinksOf(doc), linksRel)
		result := newResult(model.KindLinks, fmt.Sprintf("links %s", args[0]), rows, len(rows), loaded, start)
		if len(rows) == 0 {
			if linksRel != "" {
				result.Warnings = append(result.Warnings, fmt.Sprintf("no %q links", linksRel))
			} else {
				result.Warnings = append(result.Warnings, "document has no links")
			}
		}
		return emit(cmd, deps, result)
	},
}

func init() {
	rootCmd.AddCommand(linksCmd)

	linksCmd.Flags().StringVar(&linksRel, "rel", "", "only list links of this relation (e.g. item)")
	_ = linksCmd.RegisterFlagCompletionFunc("rel", fixedCompletion([]string{"item", "alternate", "related", "self", "up"}))
}
