package etl

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"claimsight/internal/dataset"
)

// Transformer cleans extracted claims data into a standard shape: dates are
// normalized, zip codes reduced to five digits, names stripped to a letter
// charset, and amounts coerced to numbers. Values that cannot be cleaned
// keep their original form so the detectors can flag them.
type Transformer struct {
	DateColumns  []string
	ZipColumn    string
	NameColumn   string
	AmountColumn string

	logger *slog.Logger
}

// TransformSummary describes the effect of a cleaning pass.
type TransformSummary struct {
	RowsProcessed    int            `json:"rows_processed"`
	ColumnsProcessed int            `json:"columns_processed"`
	MissingBefore    map[string]int `json:"missing_values_before"`
	MissingAfter     map[string]int `json:"missing_values_after"`
}

// NewTransformer creates a transformer wired for claims data.
func NewTransformer(logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{
		DateColumns:  []string{"dob", "claim_date"},
		ZipColumn:    "zip_code",
		NameColumn:   "patient_name",
		AmountColumn: "claim_amount",
		logger:       logger.With(slog.String("component", "transformer")),
	}
}

// Transform returns a cleaned copy of the table. The input is not modified.
func (tr *Transformer) Transform(ctx context.Context, t *dataset.Table) (*dataset.Table, error) {
	out, err := dataset.New(t.Columns())
	if err != nil {
		return nil, err
	}

	dateColumns := make(map[string]struct{}, len(tr.DateColumns))
	for _, column := range tr.DateColumns {
		dateColumns[column] = struct{}{}
	}

	columns := t.Columns()
	for i := 0; i < t.NumRows(); i++ {
		row := t.Row(i)
		for j, column := range columns {
			row[j] = tr.cleanCell(column, row[j], dateColumns)
		}
		if err := out.AppendRow(row); err != nil {
			return nil, err
		}
	}

	tr.logger.InfoContext(ctx, "transformed dataset",
		slog.Int("rows", out.NumRows()),
		slog.Int("columns", out.NumCols()))

	return out, nil
}

// Summary compares missing-value counts before and after a cleaning pass.
func (tr *Transformer) Summary(before, after *dataset.Table) TransformSummary {
	return TransformSummary{
		RowsProcessed:    after.NumRows(),
		ColumnsProcessed: after.NumCols(),
		MissingBefore:    missingCounts(before),
		MissingAfter:     missingCounts(after),
	}
}

func (tr *Transformer) cleanCell(column string, cell dataset.Value, dateColumns map[string]struct{}) dataset.Value {
	if cell.IsMissing() {
		return cell
	}

	if _, isDate := dateColumns[column]; isDate {
		return cleanDate(cell)
	}
	switch column {
	case tr.ZipColumn:
		return cleanZip(cell)
	case tr.NameColumn:
		return cleanName(cell)
	case tr.AmountColumn:
		return cleanAmount(cell)
	}

	return trimCell(cell)
}

// cleanDate normalizes parseable dates. Unparseable values are kept as-is
// so the consistency rules see them.
func cleanDate(cell dataset.Value) dataset.Value {
	if ts, ok := dataset.ToTime(cell); ok {
		return dataset.Time(ts)
	}
	return trimCell(cell)
}

// cleanZip reduces a zip to exactly five digits: non-digits are stripped,
// long runs truncated, short runs left-padded with zeros. A value with no
// digits at all becomes missing rather than a fabricated "00000".
func cleanZip(cell dataset.Value) dataset.Value {
	var digits strings.Builder
	for _, r := range cell.String() {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	s := digits.String()
	switch {
	case s == "":
		return dataset.Missing()
	case len(s) > 5:
		return dataset.String(s[:5])
	case len(s) < 5:
		return dataset.String(strings.Repeat("0", 5-len(s)) + s)
	default:
		return dataset.String(s)
	}
}

// cleanName strips characters outside letters, spaces, and hyphens, then
// title-cases and collapses whitespace. Names reduced to nothing become
// missing.
func cleanName(cell dataset.Value) dataset.Value {
	text, ok := cell.Text()
	if !ok {
		text = cell.String()
	}

	var kept strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) || r == ' ' || r == '-' {
			kept.WriteRune(r)
		}
	}

	titled := titleCase(kept.String())
	collapsed := strings.Join(strings.Fields(titled), " ")
	if collapsed == "" {
		return dataset.Missing()
	}
	return dataset.String(collapsed)
}

// cleanAmount coerces to a number; anything unparseable becomes missing.
func cleanAmount(cell dataset.Value) dataset.Value {
	if f, ok := dataset.ToFloat(cell); ok {
		return dataset.Number(f)
	}
	return dataset.Missing()
}

func trimCell(cell dataset.Value) dataset.Value {
	if text, ok := cell.Text(); ok {
		return dataset.String(strings.TrimSpace(text))
	}
	return cell
}

// titleCase uppercases the first letter of every word, where words break on
// any non-letter rune.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
		} else {
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}

func missingCounts(t *dataset.Table) map[string]int {
	counts := make(map[string]int, t.NumCols())
	for _, column := range t.Columns() {
		n := 0
		for _, cell := range t.Column(column) {
			if cell.IsMissing() {
				n++
			}
		}
		counts[column] = n
	}
	return counts
}
