package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"taxreview/internal/config"
	"taxreview/internal/ingest"
	"taxreview/internal/pdf"
)

func (a *app) exportCmd() *cobra.Command {
	var outDir, engine string
	cmd := &cobra.Command{
		Use:   "export <file.json>",
		Short: "Export a record to an A4 PDF without opening the review screen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir != "" {
				a.cfg.Export.Dir = outDir
			}
			if engine != "" {
				if !oneOf(engine, config.ValidEngines) {
					return fmt.Errorf("invalid engine %q (valid: %v)", engine, config.ValidEngines)
				}
				a.cfg.Export.Engine = engine
			}

			rec, err := ingest.LoadFile(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			exp, err := a.newExporter()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			res, err := exp.Export(ctx, rec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%d bytes, %s engine, %s)\n",
				res.Path, res.Bytes, res.Engine, res.Duration.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default from config)")
	cmd.Flags().StringVar(&engine, "engine", "", fmt.Sprintf("PDF engine: %s or %s", pdf.EngineNative, pdf.EngineChrome))
	return cmd
}

func oneOf(v string, valid []string) bool {
	for _, ok := range valid {
		if v == ok {
			return true
		}
	}
	return false
}
