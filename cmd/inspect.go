package cmd

import (
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/derickschaefer/jstat/internal/app"
	"github.com/derickschaefer/jstat/internal/jsonstat"
	"github.com/derickschaefer/jstat/internal/model"
	"github.com/derickschaefer/jstat/internal/report"
)

var inspectDump bool

// dumper prints decoded envelopes without pointer addresses so dumps of the
// same document compare equal.
var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <source>",
	Short: "Show which members a document carries and how they decoded",
	Long: `Decode a document without narrowing it and report, for every top-level
member, whether it is present and which shape it resolved to: value and
status as array or dictionary (status also as a single string), category
indexes as array or dictionary, and updated as a date or a date-time.

The report then says whether the document narrows to the class it declares,
and if not, the first rule it breaks.

--dump prints the decoded envelope as a Go value instead.`,
	Example: `  jstat inspect oecd.json
  jstat inspect broken.json --format json
  jstat inspect oecd.json --dump`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()

		start := time.Now()
		loaded, err := deps.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		env, err := jsonstat.Decode(loaded.Body)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		if inspectDump {
			w, closeFn, err := outputWriter(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			dumper.Fdump(w, env)
			return closeFn()
		}

		rep := report.Inspect(loaded.Source.Location, env)
		doc, err := app.NarrowEnvelope(env, loaded.Body)
		if err != nil {
			rep.Problem = err.Error()
		} else {
			rep.Narrows = report.Kind(doc)
		}

		result := newResult(model.KindEnvelope, fmt.Sprintf("inspect %s", args[0]), rep, len(rep.Fields), loaded, start)
		return emit(cmd, deps, result)
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().BoolVar(&inspectDump, "dump", false, "print the decoded envelope as a Go value")
}
