// Command claimsgen writes a synthetic claims dataset to a CSV file.
// It drives the same generator the web service uses, so the output is
// suitable for exercising the upload and detection endpoints.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"claimsight/internal/dataset"
	"claimsight/internal/generator"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		rows      int
		errorRate float64
		seed      int64
		out       string
	)

	cmd := &cobra.Command{
		Use:   "claimsgen",
		Short: "Generate a synthetic insurance claims CSV with injected anomalies",
		Long: `claimsgen produces a synthetic claims dataset with a configurable
fraction of injected anomalies (duplicates, missing values, inconsistencies
and outliers). A fixed seed makes the output reproducible.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), rows, errorRate, seed, out, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 10000, "number of claim rows to generate")
	cmd.Flags().Float64Var(&errorRate, "error-rate", 0.15, "fraction of rows with injected anomalies (0..1)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one from the clock)")
	cmd.Flags().StringVar(&out, "out", "claims.csv", "output CSV path")
	return cmd
}

func run(ctx context.Context, rows int, errorRate float64, seed int64, out string, stdout io.Writer) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	gen := generator.NewGenerator(logger)
	table, injected, err := gen.Generate(ctx, generator.Params{
		Rows:      rows,
		ErrorRate: errorRate,
		Seed:      seed,
	})
	if err != nil {
		return fmt.Errorf("generate claims: %w", err)
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()

	if err := writeTableCSV(f, table); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	logger.Info("dataset written",
		slog.String("path", out),
		slog.Int("rows", table.NumRows()),
		slog.Int("columns", len(table.Columns())))

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(injected)
}

func writeTableCSV(w io.Writer, table *dataset.Table) error {
	cw := csv.NewWriter(w)
	columns := table.Columns()
	if err := cw.Write(columns); err != nil {
		return err
	}
	record := make([]string, len(columns))
	for row := 0; row < table.NumRows(); row++ {
		for i, col := range columns {
			record[i] = table.At(row, col).String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
