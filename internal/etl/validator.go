package etl

import (
	"fmt"
	"log/slog"
	"strings"

	"claimsight/internal/dataset"
)

// Column type labels reported by format validation. These are looser,
// share-based guesses for upload feedback; detection uses its own stricter
// role classification.
const (
	ColumnTypeNumeric    = "numeric"
	ColumnTypeDate       = "date"
	ColumnTypeIdentifier = "id"
	ColumnTypeText       = "text"
)

// Validation reports the structural health of an extracted table. Issues
// make the table unusable and fail the upload; warnings are informational.
type Validation struct {
	Valid             bool              `json:"valid"`
	Issues            []string          `json:"issues"`
	Warnings          []string          `json:"warnings"`
	RowCount          int               `json:"row_count"`
	ColumnCount       int               `json:"column_count"`
	ColumnTypes       map[string]string `json:"column_types,omitempty"`
	NumericColumns    []string          `json:"numeric_columns,omitempty"`
	IdentifierColumns []string          `json:"id_columns,omitempty"`
}

// Validator performs format validation on extracted tables.
type Validator struct {
	// NumericShare is the fraction of rows that must coerce to numbers for
	// a column to be called numeric. DateShare and IdentifierShare work the
	// same way for date parses and distinct values.
	NumericShare    float64
	DateShare       float64
	IdentifierShare float64
	MinRows         int

	logger *slog.Logger
}

// NewValidator creates a validator with the standard thresholds.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		NumericShare:    0.8,
		DateShare:       0.5,
		IdentifierShare: 0.9,
		MinRows:         10,
		logger:          logger.With(slog.String("component", "validator")),
	}
}

// DetectColumnTypes guesses a type label per column. Shares are computed
// against the total row count, so sparse columns lean toward text.
func (v *Validator) DetectColumnTypes(t *dataset.Table) map[string]string {
	types := make(map[string]string, t.NumCols())
	rows := t.NumRows()

	for _, column := range t.Columns() {
		if rows == 0 {
			types[column] = ColumnTypeText
			continue
		}

		var numbers, dates int
		distinct := make(map[string]struct{})
		for _, cell := range t.Column(column) {
			if cell.IsMissing() {
				continue
			}
			if _, ok := dataset.ToFloat(cell); ok {
				numbers++
			}
			if _, ok := dataset.ToTime(cell); ok {
				dates++
			}
			distinct[dataset.ValueKey(cell)] = struct{}{}
		}

		switch {
		case float64(numbers)/float64(rows) > v.NumericShare:
			types[column] = ColumnTypeNumeric
		case float64(dates)/float64(rows) > v.DateShare:
			types[column] = ColumnTypeDate
		case float64(len(distinct))/float64(rows) > v.IdentifierShare:
			types[column] = ColumnTypeIdentifier
		default:
			types[column] = ColumnTypeText
		}
	}

	return types
}

// Validate checks an extracted table and reports issues and warnings.
func (v *Validator) Validate(t *dataset.Table) Validation {
	report := Validation{
		Issues:   []string{},
		Warnings: []string{},
	}

	if t.NumRows() == 0 {
		report.Issues = append(report.Issues, "dataset is empty")
		return report
	}

	report.RowCount = t.NumRows()
	report.ColumnCount = t.NumCols()

	if collided := collidedHeaders(t); len(collided) > 0 {
		report.Issues = append(report.Issues,
			fmt.Sprintf("duplicate header names: %s", strings.Join(collided, ", ")))
	}

	if t.NumRows() < v.MinRows {
		report.Warnings = append(report.Warnings, "Very few rows (< 10) - results may not be reliable")
	}

	report.ColumnTypes = v.DetectColumnTypes(t)

	for _, column := range t.Columns() {
		switch report.ColumnTypes[column] {
		case ColumnTypeNumeric:
			report.NumericColumns = append(report.NumericColumns, column)
		case ColumnTypeIdentifier:
			report.IdentifierColumns = append(report.IdentifierColumns, column)
		}
	}

	if len(report.NumericColumns) == 0 {
		report.Warnings = append(report.Warnings, "No numeric columns detected - statistical and ML anomaly detection will be limited")
	}
	if len(report.IdentifierColumns) == 0 {
		report.Warnings = append(report.Warnings, "No ID column detected - duplicate detection will check entire rows")
	}

	report.Valid = len(report.Issues) == 0
	return report
}

// collidedHeaders finds columns renamed by extraction. A name carrying a
// numeric ".N" suffix whose base name is also a column marks a source
// header collision.
func collidedHeaders(t *dataset.Table) []string {
	var bases []string
	seen := make(map[string]struct{})
	for _, column := range t.Columns() {
		dot := strings.LastIndex(column, ".")
		if dot <= 0 || dot == len(column)-1 {
			continue
		}
		if !allDigits(column[dot+1:]) {
			continue
		}
		base := column[:dot]
		if !t.HasColumn(base) {
			continue
		}
		if _, dup := seen[base]; !dup {
			seen[base] = struct{}{}
			bases = append(bases, base)
		}
	}
	return bases
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
