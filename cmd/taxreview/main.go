// Command taxreview reviews tax determination records in the terminal and
// exports them as A4 PDF documents.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"taxreview/internal/config"
	"taxreview/internal/export"
	"taxreview/internal/logging"
	"taxreview/internal/pdf"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// app holds the state shared by every subcommand.
type app struct {
	configPath string
	verbose    bool
	logFile    string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "taxreview [file.json]",
		Short: "Review tax determination records and export them to PDF",
		Long: `taxreview loads a tax determination record (JSON with jurisdiction,
vertical and provision) and shows it as a navigable review screen.

Run with a file to open it directly, or without arguments and press o to
pick one. Press e on the review screen to export an A4 PDF.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runReview(cmd, args, false)
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath(), "Config file path")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&a.logFile, "log-file", "", "Write logs to this file")

	root.AddCommand(
		a.reviewCmd(),
		a.exportCmd(),
		a.validateCmd(),
		a.configCmd(),
		versionCmd(),
	)
	return root
}

// setup loads the config and initializes logging. The review screen logs
// only when a log file is configured so nothing is written over the UI.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}
	if a.logFile != "" {
		cfg.Logging.File = a.logFile
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config %s: %w", a.configPath, err)
	}
	a.cfg = cfg

	interactive := cmd.Name() == "review" || cmd.Name() == cmd.Root().Name()
	if err := logging.Init(logging.Options{
		Level:    cfg.Logging.Level,
		Format:   cfg.Logging.Format,
		File:     cfg.Logging.File,
		Disabled: interactive && cfg.Logging.File == "",
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.BootDebug("command %q with config %s", cmd.Name(), a.configPath)
	return nil
}

// newExporter builds the exporter for the configured engine.
func (a *app) newExporter() (*export.Exporter, error) {
	engine, err := pdf.New(a.cfg.Export.Engine, pdf.ChromeOptions{
		Bin:      a.cfg.Export.Chrome.Bin,
		Headless: a.cfg.Export.Chrome.Headless,
		Timeout:  a.cfg.Export.Chrome.GetTimeout(),
	})
	if err != nil {
		return nil, err
	}
	return export.New(engine, a.cfg.Export.Dir), nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taxreview %s\n", version)
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
