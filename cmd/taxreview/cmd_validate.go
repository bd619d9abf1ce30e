package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"taxreview/internal/derive"
	"taxreview/internal/document"
	"taxreview/internal/ingest"
)

func (a *app) validateCmd() *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "validate <file.json>",
		Short: "Check that a file loads as a tax record",
		Long: `Runs the same checks as opening the file in the review screen and
reports OK, or the reason the file was rejected. Exits 1 on rejection.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := ingest.LoadFile(args[0])
			if err != nil {
				return fmt.Errorf("invalid %s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "OK %s: %s - %s (%d reduced rates, %d exemptions, %d sources)\n",
				args[0], rec.Jurisdiction.Name, derive.HumanizeLabel(rec.Vertical.Label),
				len(rec.Provision.ReducedRates), len(rec.Provision.Exemptions), len(derive.Sources(rec.Sources)))
			if dump {
				fmt.Fprint(out, document.Build(rec, time.Time{}).PlainText())
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "Print the full document outline")
	return cmd
}
