package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/jstat/internal/jsonstat"
)

var encodeCompact bool

var encodeCmd = &cobra.Command{
	Use:   "encode <source>",
	Short: "Decode, narrow and re-encode a document",
	Long: `Decode a document, narrow it to its class, and write it back out as
JSON-stat. Each member keeps the shape it was read with (an array value stays
an array, a dictionary status stays a dictionary) and members the source did
not carry are left out, so the output decodes to the same document.

Output is indented unless --compact is given. --format does not apply.`,
	Example: `  jstat encode oecd.json
  jstat encode oecd.json --compact --out oecd.min.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps(cmd)
		if err != nil {
			return err
		}
		defer deps.Close()

		doc, loaded, err := loadDocument(cmd.Context(), deps, args[0])
		if err != nil {
			return err
		}

		var b []byte
		if encodeCompact {
			b, err = jsonstat.Encode(doc)
		} else {
			b, err = jsonstat.EncodeIndent(doc, "", "  ")
		}
		if err != nil {
			return fmt.Errorf("encoding %s: %w", args[0], err)
		}

		w, closeFn, err := outputWriter(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", b); err != nil {
			closeFn()
			return err
		}
		if err := closeFn(); err != nil {
			return err
		}
		for _, warn := range loaded.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠  %s\n", warn)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)

	encodeCmd.Flags().BoolVar(&encodeCompact, "compact", false, "write without indentation")
}
