package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/spiir-tools/beanimport/internal/domain"
	"github.com/spiir-tools/beanimport/internal/output"
	"github.com/spiir-tools/beanimport/internal/rules"
	"github.com/spiir-tools/beanimport/internal/scanner"
	"github.com/spiir-tools/beanimport/internal/spiir"
	"github.com/spiir-tools/beanimport/internal/sqlite"
	"github.com/spiir-tools/beanimport/internal/transform"
	"github.com/spiir-tools/beanimport/internal/ui"
	"github.com/spiir-tools/beanimport/internal/validate"
)

const version = "0.1.0"

var (
	versionFlag = flag.Bool("version", false, "Show version")

	inputPath = flag.String("input", "", "Spiir CSV file or directory of exports (required)")
	outputDir = flag.String("output", "", "Output directory for .bean files (required unless -dry-run)")
	dryRun    = flag.Bool("dry-run", false, "Parse and classify without writing files")
	verbose   = flag.Bool("verbose", false, "Show detailed progress logs")

	accountsFile = flag.String("accounts", "", "Classification tables file (default: embedded)")
	sqlitePath   = flag.String("sqlite", "", "Optionally mirror the ledger into a SQLite database")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `beanimport - Import Spiir bank exports into a beancount ledger

Usage:
  beanimport [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Import every export under a directory
  beanimport -input ~/finance/spiir -output ~/finance/ledger

  # Import a single file with custom tables
  beanimport -input primary_2024.csv -output ledger -accounts tables.yaml

  # Classify without writing, with details
  beanimport -input ~/finance/spiir -dry-run -verbose
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("beanimport version %s\n", version)
		os.Exit(0)
	}

	// Optional .env for local defaults; a missing file is fine.
	_ = godotenv.Load()
	if *inputPath == "" {
		*inputPath = os.Getenv("BEANIMPORT_INPUT")
	}
	if *outputDir == "" {
		*outputDir = os.Getenv("BEANIMPORT_OUTPUT")
	}

	if *inputPath == "" {
		fmt.Fprintf(os.Stderr, "Error: -input flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}
	if *outputDir == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Error: -output flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	if !*verbose {
		ui.Header("Spiir Import")
		ui.Step(1, 5, "Finding exports")
	}

	files, discovery, err := findExports(*inputPath)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no spiir exports found in %s\n\nPlease check:\n  - The path is correct\n  - Files are .csv exports with the Spiir header\n\nRun with -verbose to see which files were skipped", *inputPath)
	}
	if !*verbose {
		ui.Success(fmt.Sprintf("Found %d export files", len(files)))
	}

	if !*verbose {
		ui.Step(2, 5, "Parsing exports")
	}
	records, err := parseFiles(files, discovery)
	if err != nil {
		return err
	}
	if !*verbose {
		ui.Success(fmt.Sprintf("Parsed %d records", len(records)))
	} else {
		fmt.Fprintf(os.Stderr, "Parsed %d records from %d files\n", len(records), len(files))
	}

	if !*verbose {
		ui.Step(3, 5, "Classifying transactions")
	}
	tables, err := loadTables()
	if err != nil {
		return err
	}
	builder := transform.NewBuilder(rules.NewClassifier(tables))

	openings, err := builder.OpeningBalances(records)
	if err != nil {
		return err
	}
	txns, err := builder.BuildAll(records)
	if err != nil {
		return err
	}

	reportCoverage(txns)

	if !*verbose {
		ui.Step(4, 5, "Validating ledger")
	}
	opens, err := transform.CollectAccounts(openings, txns)
	if err != nil {
		return err
	}
	all := append(append([]domain.Transaction(nil), openings...), txns...)
	if err := reportValidation(validate.ValidateLedger(all, opens)); err != nil {
		return err
	}

	if *dryRun {
		fmt.Printf("Dry run complete. Would write %d transactions and %d opening balances.\n",
			len(txns), len(openings))
		return nil
	}

	if !*verbose {
		ui.Step(5, 5, "Writing ledger")
	}
	groups := transform.PartitionByYear(openings, txns)
	written, err := output.WriteLedger(*outputDir, groups, opens)
	if err != nil {
		return err
	}
	if *verbose {
		for _, name := range written {
			fmt.Fprintf(os.Stderr, "  Wrote %s\n", name)
		}
	} else {
		ui.Success(fmt.Sprintf("Wrote %d files to %s", len(written), *outputDir))
	}

	if *sqlitePath != "" {
		if err := mirrorToSQLite(ctx, all, opens); err != nil {
			return err
		}
	}

	return nil
}

// findExports resolves -input: a single file is used as-is (and any parse
// problem is fatal), a directory is scanned for exports by header.
func findExports(path string) (files []string, discovery bool, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, false, nil
	}

	result, err := scanner.New(path).Scan()
	if err != nil {
		return nil, true, err
	}
	if *verbose {
		for _, skipped := range result.Skipped {
			fmt.Fprintf(os.Stderr, "  Skipping %s: not a spiir export\n", skipped)
		}
	}
	return result.Matches, true, nil
}

func parseFiles(files []string, discovery bool) ([]spiir.Record, error) {
	parser := spiir.NewParser()

	var records []spiir.Record
	for _, path := range files {
		fileRecords, err := parseFile(parser, path)
		if err != nil {
			// In discovery mode a broken file aborts that file, not the
			// batch. A single named file failing is always fatal.
			if discovery {
				ui.Warning(fmt.Sprintf("Skipping %s: %v", path, err))
				continue
			}
			return nil, err
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "  Parsed %s: %d records\n", path, len(fileRecords))
		}
		records = append(records, fileRecords...)
	}
	return records, nil
}

func parseFile(parser *spiir.Parser, path string) (_ []spiir.Record, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()

	return parser.Parse(f, path)
}

func loadTables() (*rules.Tables, error) {
	if *accountsFile != "" {
		tables, err := rules.LoadFromFile(*accountsFile)
		if err != nil {
			return nil, err
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "Loaded classification tables from %s\n", *accountsFile)
		}
		return tables, nil
	}
	return rules.LoadEmbedded()
}

// reportCoverage counts transactions that ended in the fallback chain and
// warns when too many records carry no classification signal.
func reportCoverage(txns []domain.Transaction) {
	if len(txns) == 0 {
		return
	}

	fallbacks := 0
	for i := range txns {
		if transform.IsFallback(&txns[i]) {
			fallbacks++
		}
	}

	classified := len(txns) - fallbacks
	coverage := float64(classified) / float64(len(txns)) * 100
	if *verbose {
		fmt.Fprintf(os.Stderr, "Classification: %d/%d (%.1f%%), %d in fallback accounts\n",
			classified, len(txns), coverage, fallbacks)
	} else {
		ui.Info(fmt.Sprintf("Classification coverage: %s (%d/%d)",
			ui.BlueText("%.1f%%", coverage), classified, len(txns)))
	}
	if coverage < 80.0 {
		ui.Warning(fmt.Sprintf("Coverage %.1f%% below 80%% target (%d transactions in Expenses:Other)", coverage, fallbacks))
	}
}

func reportValidation(result *validate.ValidationResult) error {
	if result.HasErrors() {
		ui.Error(fmt.Sprintf("Validation failed with %d errors", len(result.Errors)))
		for i, e := range result.Errors {
			if i >= 5 && !*verbose {
				ui.Error(fmt.Sprintf("... and %d more errors (run with -verbose to see all)", len(result.Errors)-5))
				break
			}
			ui.Error(fmt.Sprintf("%s %s [%s]: %s", e.Entity, e.ID, e.Field, e.Message))
		}
		return fmt.Errorf("validation failed with %d errors", len(result.Errors))
	}

	if len(result.Warnings) > 0 {
		ui.Warning(fmt.Sprintf("Validation produced %d warnings", len(result.Warnings)))
		if *verbose {
			for _, w := range result.Warnings {
				fmt.Fprintf(os.Stderr, "  - %s %s [%s]: %s\n", w.Entity, w.ID, w.Field, w.Message)
			}
		}
	} else if !*verbose {
		ui.Success("Validation passed")
	}
	return nil
}

func mirrorToSQLite(ctx context.Context, txns []domain.Transaction, opens []domain.Open) (err error) {
	db, err := sqlite.Open(ctx, *sqlitePath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close database: %w", closeErr)
		}
	}()

	if err = db.EnsureSchema(ctx); err != nil {
		return err
	}
	result, err := db.ImportLedger(ctx, *inputPath, txns, opens)
	if err != nil {
		return err
	}
	ui.Success(fmt.Sprintf("Mirrored %d transactions to %s (batch %s)",
		result.Transactions, *sqlitePath, result.BatchID))
	return nil
}
