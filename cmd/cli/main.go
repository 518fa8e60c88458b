package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"datalens/app"
	"datalens/internal/api"
	"datalens/internal/config"
	"datalens/internal/dataset"
	"datalens/internal/metrics"
	"datalens/internal/session"
	"datalens/internal/visualization"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:          "datalens",
		Short:        "Profile CSV, Excel and JSON files and propose metrics, joins and charts",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newPalettesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type analyzeFlags struct {
	format           string
	output           string
	templates        string
	palette          string
	maxRows          int
	quoteAware       bool
	inferCardinality bool
}

func newAnalyzeCmd() *cobra.Command {
	var flags analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze [files...]",
		Short: "Analyze one or more data files as a single session",
		Long: `Parse every file, infer column types, evaluate derived metrics, detect
relationships between the files and select charts.

Example: datalens analyze customers.csv orders.json --format markdown`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, cfg, flags); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if flags.output != "" {
				f, err := os.Create(flags.output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", flags.output, err)
				}
				defer f.Close()
				out = f
			}
			return runAnalyze(cmd.Context(), cfg, args, flags.format, out)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "json", "Output format: json, yaml, markdown or html")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Write the report to a file instead of stdout")
	cmd.Flags().StringVar(&flags.templates, "templates", "", "Metric template set: core or extended")
	cmd.Flags().StringVar(&flags.palette, "palette", "", "Color palette: professional, vibrant, pastel or monochrome")
	cmd.Flags().IntVar(&flags.maxRows, "max-rows", 0, "Maximum rows read per file")
	cmd.Flags().BoolVar(&flags.quoteAware, "quote-aware", false, "Parse CSV with quoted fields")
	cmd.Flags().BoolVar(&flags.inferCardinality, "infer-cardinality", false, "Guess relationship cardinality from key uniqueness")

	return cmd
}

// applyFlags overrides configuration with explicitly set flags
func applyFlags(cmd *cobra.Command, cfg *config.Config, flags analyzeFlags) error {
	if cmd.Flags().Changed("templates") {
		cfg.Pipeline.MetricTemplates = flags.templates
	}
	if cmd.Flags().Changed("palette") {
		cfg.Pipeline.ColorPalette = flags.palette
	}
	if cmd.Flags().Changed("max-rows") {
		cfg.Pipeline.MaxRows = flags.maxRows
	}
	if cmd.Flags().Changed("quote-aware") {
		cfg.Pipeline.CSVQuoteAware = flags.quoteAware
	}
	if cmd.Flags().Changed("infer-cardinality") {
		cfg.Pipeline.InferCardinality = flags.inferCardinality
	}
	if _, ok := renderers[strings.ToLower(flags.format)]; !ok {
		return fmt.Errorf("unknown format %q (use json, yaml, markdown or html)", flags.format)
	}
	return cfg.Validate()
}

func runAnalyze(ctx context.Context, cfg *config.Config, paths []string, format string, out io.Writer) error {
	logger := cfg.Logger()
	defer logger.Sync()

	processor := dataset.NewProcessor(cfg.PipelineOptions(), logger)
	sessions := session.NewManager(processor.Discovery(), logger)
	svc := app.NewDatasetService(processor, sessions, api.NewLogNotifier(logger), logger)

	uploads := make([]dataset.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		uploads = append(uploads, dataset.Upload{Name: filepath.Base(p), Data: data})
	}

	sessionID := svc.CreateSession()
	outcomes := svc.Upload(ctx, sessionID, uploads)

	accepted := 0
	for _, o := range outcomes {
		if o.Err == nil {
			accepted++
		}
	}
	if accepted == 0 {
		return fmt.Errorf("no file could be analyzed: %s", outcomes[0].Error)
	}

	report, err := svc.Report(sessionID, cfg.Pipeline.ColorPalette)
	if err != nil {
		return err
	}
	return renderers[strings.ToLower(format)](out, report, outcomes)
}

func newPalettesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "palettes",
		Short: "List the available color palettes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range visualization.Palettes() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", p.Name, strings.Join(p.Colors, " "))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nmetric templates: %s, %s\n", metrics.TemplatesCore, metrics.TemplatesExtended)
			return nil
		},
	}
}
