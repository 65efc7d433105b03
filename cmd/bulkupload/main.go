package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"rediqcli/internal/archive"
	"rediqcli/internal/bulkdata"
	"rediqcli/internal/config"
	"rediqcli/internal/exporter"
	"rediqcli/internal/infrastructure"
	"rediqcli/internal/validation"
)

const usage = `Usage: bulkupload <command> [arguments]

Commands:
  validate <input.zip> [--report FILE]
        Validate a bulk upload archive and print the report.
        --report exports the findings to a .csv or .xlsx file.

  subset <input.zip> <output.zip> <num_properties>
        Write an archive with the first N properties and only the
        line items and history rows reachable from them.

  split <input.zip> <output_prefix> <batch_size> [--output_dir DIR]
        Split the archive into batches of at most batch_size
        properties, one archive per batch, suffixed _1, _2, ...
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]
	if command == "help" || command == "-h" || command == "--help" {
		fmt.Print(usage)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	logger = logger.With(slog.String("run_id", infrastructure.NewRunID()))

	logger.Info("Starting bulk upload tool", slog.String("command", command))

	switch command {
	case "validate":
		err = runValidate(os.Args[2:], cfg, logger)
	case "subset":
		err = runSubset(os.Args[2:], cfg, logger)
	case "split":
		err = runSplit(os.Args[2:], cfg, logger)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("Command failed",
			slog.String("command", command),
			slog.String("error", err.Error()))
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// parseArgs parses a subcommand argument list where flags may follow the
// positional arguments, as in "split in.zip batch 4 --output_dir out".
func parseArgs(fs *flag.FlagSet, args []string, positional int) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	rest := fs.Args()
	if len(rest) > positional {
		if err := fs.Parse(rest[positional:]); err != nil {
			return nil, err
		}
		if fs.NArg() > 0 {
			return nil, fmt.Errorf("unexpected argument %q", fs.Arg(0))
		}
		rest = rest[:positional]
	}
	if len(rest) != positional {
		return nil, fmt.Errorf("expected %d arguments, got %d", positional, len(rest))
	}
	return rest, nil
}

func runValidate(args []string, cfg *config.Config, logger *slog.Logger) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	reportPath := fs.String("report", "", "export the validation report to a .csv or .xlsx file")
	pos, err := parseArgs(fs, args, 1)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	input := pos[0]

	fv := validation.NewFileValidator(logger)
	if err := fv.ValidateArchiveFile(input); err != nil {
		return err
	}

	ds, err := archive.Read(input)
	if err != nil {
		return err
	}

	report := bulkdata.NewValidator(cfg.Validation.BooleanLiterals, logger).Validate(ds)
	printReport(os.Stdout, report)

	if *reportPath != "" {
		if err := exporter.NewReportWriter(logger).Export(*reportPath, report); err != nil {
			return err
		}
	}

	if report.HasIssues() {
		return fmt.Errorf("validation failed with %d issues", len(report.Issues))
	}
	fmt.Println("Validation successful.")
	return nil
}

func runSubset(args []string, cfg *config.Config, logger *slog.Logger) error {
	fs := flag.NewFlagSet("subset", flag.ContinueOnError)
	pos, err := parseArgs(fs, args, 3)
	if err != nil {
		return fmt.Errorf("subset: %w", err)
	}
	input, output := pos[0], pos[1]
	count, err := strconv.Atoi(pos[2])
	if err != nil {
		return fmt.Errorf("invalid num_properties %q", pos[2])
	}

	fv := validation.NewFileValidator(logger)
	if err := fv.ValidateArchiveFile(input); err != nil {
		return err
	}
	if err := fv.ValidateOutputFile(output); err != nil {
		return err
	}

	ds, err := archive.Read(input)
	if err != nil {
		return err
	}
	if err := ds.RequireIDColumns(); err != nil {
		return err
	}

	subset, err := ds.Subset(count)
	if err != nil {
		return err
	}
	if err := archive.Write(output, subset, time.Now(), cfg.Output.DateFormat); err != nil {
		return err
	}

	logger.Info("Subset written",
		slog.String("output", output),
		slog.Int("properties", len(subset.Properties.Rows)),
		slog.Int("line_items", len(subset.LineItems.Rows)),
		slog.Int("history_entries", len(subset.History.Rows)))
	fmt.Printf("Wrote subset with %d properties to %s\n", len(subset.Properties.Rows), output)
	return nil
}

func runSplit(args []string, cfg *config.Config, logger *slog.Logger) error {
	fs := flag.NewFlagSet("split", flag.ContinueOnError)
	outputDir := fs.String("output_dir", ".", "directory for the output archives")
	pos, err := parseArgs(fs, args, 3)
	if err != nil {
		return fmt.Errorf("split: %w", err)
	}
	input, prefix := pos[0], pos[1]
	batchSize, err := strconv.Atoi(pos[2])
	if err != nil {
		return fmt.Errorf("invalid batch_size %q", pos[2])
	}

	fv := validation.NewFileValidator(logger)
	if err := fv.ValidateArchiveFile(input); err != nil {
		return err
	}

	ds, err := archive.Read(input)
	if err != nil {
		return err
	}
	if err := ds.RequireIDColumns(); err != nil {
		return err
	}

	batches, err := ds.SplitBatches(batchSize)
	if err != nil {
		return err
	}

	if err := fv.ValidateOutputDirectory(*outputDir); err != nil {
		return err
	}

	now := time.Now()
	for i, batch := range batches {
		path := filepath.Join(*outputDir, fmt.Sprintf("%s_%d.zip", prefix, i+1))
		if err := archive.Write(path, batch, now, cfg.Output.DateFormat); err != nil {
			return err
		}
		logger.Info("Batch archive written",
			slog.String("output", path),
			slog.Int("batch", i+1),
			slog.Int("properties", len(batch.Properties.Rows)))
	}

	fmt.Printf("Wrote %d archives with prefix %s to %s\n", len(batches), prefix, *outputDir)
	return nil
}

func printReport(w io.Writer, report *bulkdata.Report) {
	for _, row := range report.Counts.SummaryRows() {
		fmt.Fprintf(w, "%s: %s\n", row[0], row[1])
	}
	if !report.HasIssues() {
		return
	}
	fmt.Fprintf(w, "\nValidation issues (%d):\n", len(report.Issues))
	for _, issue := range report.Issues {
		fmt.Fprintf(w, " - [%s] %s\n", issue.Category, issue.Message)
	}
}
