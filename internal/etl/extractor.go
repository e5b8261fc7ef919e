package etl

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"claimsight/internal/dataset"
	"claimsight/internal/errors"
)

// naTokens are cell spellings ingested as missing values.
var naTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"n/a":  {},
	"NaN":  {},
	"nan":  {},
	"NULL": {},
	"null": {},
	"None": {},
	"<NA>": {},
}

// ExpectedClaimColumns is the advisory claims schema. Extraction succeeds
// without these columns; their absence is only reported.
var ExpectedClaimColumns = []string{
	"claim_id", "patient_name", "dob", "zip_code",
	"claim_date", "claim_amount", "payer_id",
	"diagnosis_code", "procedure_code",
}

// Extractor reads CSV and XLSX sources into a Table. Every cell is ingested
// as a string or missing value; type coercion happens downstream in the
// transformer and preparer.
type Extractor struct {
	expectedColumns []string
	logger          *slog.Logger
}

// NewExtractor creates an extractor wired for claims data.
func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		expectedColumns: ExpectedClaimColumns,
		logger:          logger.With(slog.String("component", "extractor")),
	}
}

// ExtractFile reads a dataset file, dispatching on the file extension.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (*dataset.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewStorageError(fmt.Sprintf("failed to open dataset file %s", path), err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return e.ExtractCSV(ctx, f)
	case ".xlsx":
		return e.ExtractXLSX(ctx, f)
	default:
		return nil, errors.NewParsingError(fmt.Sprintf("cannot read %s", filepath.Base(path)), errors.ErrUnsupportedFormat)
	}
}

// ExtractCSV reads header-first CSV data into a Table. A UTF-8 byte order
// mark on the header is tolerated, duplicate header names are renamed with
// numeric suffixes, and blank headers get positional names.
func (e *Extractor) ExtractCSV(ctx context.Context, r io.Reader) (*dataset.Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.NewParsingError("csv file has no header row", errors.ErrEmptyDataset)
	}
	if err != nil {
		return nil, errors.NewParsingError("failed to read csv header", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")

	table, err := dataset.New(uniqueColumnNames(header))
	if err != nil {
		return nil, errors.NewParsingError("invalid csv header", err)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewParsingError("failed to read csv record", err)
		}
		if err := table.AppendRow(e.toValues(record, table.NumCols())); err != nil {
			return nil, errors.NewParsingError("malformed csv record", err)
		}
	}

	return e.finish(ctx, table)
}

// ExtractXLSX reads the first sheet of a workbook into a Table. Rows whose
// cells are all blank are dropped; short rows are padded with missing cells.
func (e *Extractor) ExtractXLSX(ctx context.Context, r io.Reader) (*dataset.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.NewParsingError("workbook has no sheets", errors.ErrEmptyDataset)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.NewParsingError(fmt.Sprintf("failed to read sheet %s", sheets[0]), err)
	}
	if len(rows) == 0 {
		return nil, errors.NewParsingError("workbook sheet has no header row", errors.ErrEmptyDataset)
	}

	table, err := dataset.New(uniqueColumnNames(rows[0]))
	if err != nil {
		return nil, errors.NewParsingError("invalid workbook header", err)
	}

	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		if err := table.AppendRow(e.toValues(row, table.NumCols())); err != nil {
			return nil, errors.NewParsingError("malformed workbook row", err)
		}
	}

	return e.finish(ctx, table)
}

// finish rejects empty extractions and logs the advisory schema check.
func (e *Extractor) finish(ctx context.Context, table *dataset.Table) (*dataset.Table, error) {
	if table.NumRows() == 0 {
		return nil, errors.NewParsingError("file contains no data rows", errors.ErrEmptyDataset)
	}

	var missing []string
	for _, column := range e.expectedColumns {
		if !table.HasColumn(column) {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		e.logger.WarnContext(ctx, "expected columns not found",
			slog.Any("missing_columns", missing),
			slog.Any("available_columns", table.Columns()))
	}

	e.logger.InfoContext(ctx, "extracted dataset",
		slog.Int("rows", table.NumRows()),
		slog.Int("columns", table.NumCols()))

	return table, nil
}

// toValues converts raw string cells to Values, padding short rows to width.
func (e *Extractor) toValues(record []string, width int) []dataset.Value {
	values := make([]dataset.Value, width)
	for i := range values {
		if i >= len(record) {
			values[i] = dataset.Missing()
			continue
		}
		if _, na := naTokens[record[i]]; na {
			values[i] = dataset.Missing()
			continue
		}
		values[i] = dataset.String(record[i])
	}
	return values
}

// uniqueColumnNames resolves header collisions the way a spreadsheet import
// does: blank headers become "Unnamed: N" and repeated names get a ".N"
// suffix, so "claim_id, claim_id" reads as "claim_id, claim_id.1".
func uniqueColumnNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			base := name
			for {
				name = base + "." + strconv.Itoa(n)
				if _, taken := seen[name]; !taken {
					break
				}
				n++
			}
			seen[base] = n + 1
		}
		seen[name] = 1
		names[i] = name
	}
	return names
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
