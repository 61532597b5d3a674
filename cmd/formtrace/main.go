// Package main provides the CLI entry point for formtrace.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/ukaji3/formtrace-go/pkg/formtrace"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/config"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/logging"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/models"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/output"
	"github.com/ukaji3/formtrace-go/pkg/formtrace/parser"
)

type flags struct {
	configPath   string
	outcomesPath string
	outputPath   string
	format       string
	pretty       bool
	preserveRows bool
	sampleRow    int
	sheetsDir    string
	debug        bool
	logFormat    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var fl flags
	rootCmd := &cobra.Command{
		Use:   "formtrace [workbook.xlsx]",
		Short: "Trace formula dependencies in Excel workbooks",
		Long: `formtrace resolves the formulas of a workbook into header names,
orders its sheets by dependency, reports circular references and, given
validation outcomes, explains divergences through the dependency graph.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], fl)
		},
	}

	f := rootCmd.Flags()
	f.StringVar(&fl.configPath, "config", "", "Configuration file (YAML or JSON)")
	f.StringVar(&fl.outcomesPath, "outcomes", "", "Validation outcomes (.csv, .json, .yaml or .xlsx) for impact analysis")
	f.StringVarP(&fl.outputPath, "output", "o", "", "Output file path (default: stdout)")
	f.StringVar(&fl.format, "format", "", "Output format: json, yaml, xlsx (default: from output extension, else json)")
	f.BoolVar(&fl.pretty, "pretty", false, "Pretty-print JSON output")
	f.BoolVar(&fl.preserveRows, "preserve-rows", false, "Keep row numbers in translated formulas")
	f.IntVar(&fl.sampleRow, "sample-row", 0, "Row whose formulas represent each column (overrides config)")
	f.StringVar(&fl.sheetsDir, "sheets-dir", "", "Directory for per-sheet formula files")
	f.BoolVar(&fl.debug, "debug", false, "Enable debug logging")
	f.StringVar(&fl.logFormat, "log-format", "human", "Log format: human, json")
	return rootCmd
}

func run(cmd *cobra.Command, inputPath string, fl flags) error {
	cfg, err := config.Load(fl.configPath)
	if err != nil {
		return err
	}
	level := cfg.Level()
	if fl.debug {
		level = logging.LevelDebug
	}
	logger, err := logging.New(cmd.ErrOrStderr(), fl.logFormat, level)
	if err != nil {
		return err
	}

	opts := cfg.Options(logger)
	if fl.sampleRow > 0 {
		opts.SampleRow = fl.sampleRow
	}
	if fl.preserveRows {
		opts.Translate.PreserveRows = true
	}

	format, err := resolveFormat(fl.format, fl.outputPath)
	if err != nil {
		return err
	}
	if format == "xlsx" && fl.outputPath == "" {
		return fmt.Errorf("xlsx output needs --output")
	}

	analysis, err := formtrace.AnalyzeFile(cmd.Context(), inputPath, opts)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	report := output.Report{Analysis: analysis}
	if fl.outcomesPath != "" {
		outcomes, err := parser.LoadOutcomes(fl.outcomesPath)
		if err != nil {
			return fmt.Errorf("loading outcomes: %w", err)
		}
		impact := formtrace.AnalyzeImpact(analysis, outcomes, opts)
		report.Impact = &impact
	}

	if err := writeReport(cmd, report, format, fl); err != nil {
		return err
	}

	if fl.sheetsDir != "" {
		if err := writeSheetFiles(analysis, fl.sheetsDir, fl.pretty); err != nil {
			return fmt.Errorf("failed to write sheet files: %w", err)
		}
	}
	return nil
}

func resolveFormat(format, outputPath string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(outputPath)) {
		case ".yaml", ".yml":
			return "yaml", nil
		case ".xlsx":
			return "xlsx", nil
		default:
			return "json", nil
		}
	}
	switch format {
	case "json", "yaml", "xlsx":
		return format, nil
	default:
		return "", fmt.Errorf("invalid format: %s (must be json, yaml, or xlsx)", format)
	}
}

func writeReport(cmd *cobra.Command, report output.Report, format string, fl flags) error {
	if format == "xlsx" {
		if err := output.WriteWorkbook(fl.outputPath, report.Analysis, report.Impact); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	var data []byte
	var err error
	if format == "yaml" {
		data, err = output.ToYAML(report)
	} else {
		data, err = output.ToJSON(report, fl.pretty)
	}
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}

	if fl.outputPath != "" {
		if err := os.WriteFile(fl.outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	if fl.sheetsDir == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}
	return nil
}

// writeSheetFiles writes the resolved formulas of every sheet to
// <dir>/<sheet>.json.
func writeSheetFiles(a *models.Analysis, dir string, pretty bool) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	bySheet := make(map[string][]models.ResolvedFormula)
	for _, rf := range a.Formulas {
		bySheet[rf.SheetName] = append(bySheet[rf.SheetName], rf)
	}
	for _, sheet := range a.Graph.Sheets {
		formulas, ok := bySheet[sheet]
		if !ok {
			continue
		}
		data, err := output.ToJSON(formulas, pretty)
		if err != nil {
			return err
		}
		filename := filepath.Join(dir, sheet+".json")
		if err := os.WriteFile(filename, data, 0644); err != nil {
			return err
		}
	}
	return nil
}
