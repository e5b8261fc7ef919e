package etl

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"claimsight/internal/dataset"
)

// Derived column names added by preparation when their inputs are present.
const (
	ColumnAge            = "age"
	ColumnDaysSinceClaim = "days_since_claim"
)

// ColumnStats is the numeric profile of one column, in the shape of a
// describe() row: count of usable values plus distribution summary.
type ColumnStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"25%"`
	Median float64 `json:"50%"`
	Q75    float64 `json:"75%"`
	Max    float64 `json:"max"`
}

// DatasetSummary profiles a prepared table for upload feedback.
type DatasetSummary struct {
	TotalRows     int                    `json:"total_rows"`
	TotalColumns  int                    `json:"total_columns"`
	Columns       []string               `json:"columns"`
	MissingValues map[string]int         `json:"missing_values"`
	MissingTotal  int                    `json:"missing_total"`
	NumericStats  map[string]ColumnStats `json:"numeric_stats"`
}

// Preparer runs the final pre-detection pass: role-driven type coercion and
// derived feature columns. Coercion failures become missing cells, never
// errors, so dirty rows reach the detectors instead of aborting the run.
type Preparer struct {
	DobColumn       string
	ClaimDateColumn string

	// Now is the reference time for days_since_claim; the zero value means
	// the wall clock. Tests pin it.
	Now time.Time

	classifier *dataset.Classifier
	logger     *slog.Logger
}

// NewPreparer creates a preparer wired for claims data.
func NewPreparer(logger *slog.Logger) *Preparer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Preparer{
		DobColumn:       "dob",
		ClaimDateColumn: "claim_date",
		classifier:      dataset.NewClassifier(),
		logger:          logger.With(slog.String("component", "preparer")),
	}
}

// Prepare returns a coerced copy of the table with derived columns appended.
// The input table is not modified.
func (p *Preparer) Prepare(ctx context.Context, t *dataset.Table) (*dataset.Table, *dataset.Schema, error) {
	out, err := dataset.New(t.Columns())
	if err != nil {
		return nil, nil, err
	}

	columns := t.Columns()
	roles := p.coercionRoles(t)
	for i := 0; i < t.NumRows(); i++ {
		row := t.Row(i)
		for j, column := range columns {
			row[j] = coerceCell(row[j], roles[column])
		}
		if err := out.AppendRow(row); err != nil {
			return nil, nil, err
		}
	}

	derived := p.addDerivedColumns(out)

	// The strict kind-based classification runs on the coerced copy, where
	// numeric and date cells finally carry their real kinds. Derived
	// columns pick up roles here too.
	schema := p.classifier.Classify(out)

	p.logger.InfoContext(ctx, "prepared dataset",
		slog.Int("rows", out.NumRows()),
		slog.Int("columns", out.NumCols()),
		slog.Any("derived_columns", derived))

	return out, schema, nil
}

// coercionRoles decides which columns to coerce, by content rather than by
// cell kind: extraction delivers strings, so a column counts numeric when
// every non-missing cell parses as a number, and a date when the column is
// date-named or every non-missing cell is already a date.
func (p *Preparer) coercionRoles(t *dataset.Table) map[string]dataset.Role {
	dateNamed := make(map[string]struct{}, len(p.classifier.DateColumns))
	for _, name := range p.classifier.DateColumns {
		dateNamed[name] = struct{}{}
	}

	roles := make(map[string]dataset.Role, t.NumCols())
	for _, column := range t.Columns() {
		if _, named := dateNamed[column]; named {
			roles[column] = dataset.RoleDate
			continue
		}
		nonMissing := 0
		numbers := 0
		times := 0
		zeroPadded := false
		for _, cell := range t.Column(column) {
			if cell.IsMissing() {
				continue
			}
			nonMissing++
			if _, ok := cell.Time(); ok {
				times++
				continue
			}
			if _, ok := dataset.ToFloat(cell); ok {
				numbers++
				if s, ok := cell.Text(); ok && leadingZero(s) {
					zeroPadded = true
				}
			}
		}
		if zeroPadded {
			// Zero-padded codes (zips, padded ids) would lose digits as
			// floats; keep them textual.
			roles[column] = dataset.RoleText
			continue
		}
		switch {
		case nonMissing > 0 && times == nonMissing:
			roles[column] = dataset.RoleDate
		case nonMissing > 0 && numbers == nonMissing:
			roles[column] = dataset.RoleNumeric
		default:
			roles[column] = dataset.RoleText
		}
	}
	return roles
}

// leadingZero reports whether a numeric spelling starts with a redundant
// zero, e.g. "00123" but not "0", "0.5", or "-0.5".
func leadingZero(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "-")
	return len(s) > 1 && s[0] == '0' && s[1] != '.'
}

// addDerivedColumns appends age and days_since_claim when their source
// columns exist. Rows whose dates do not parse get missing derived cells.
func (p *Preparer) addDerivedColumns(t *dataset.Table) []string {
	var added []string

	hasDob := t.HasColumn(p.DobColumn)
	hasClaimDate := t.HasColumn(p.ClaimDateColumn)

	if hasDob && hasClaimDate {
		ages := make([]dataset.Value, t.NumRows())
		for i := range ages {
			dob, okDob := dataset.ToTime(t.At(i, p.DobColumn))
			claim, okClaim := dataset.ToTime(t.At(i, p.ClaimDateColumn))
			if !okDob || !okClaim {
				ages[i] = dataset.Missing()
				continue
			}
			years := claim.Sub(dob).Hours() / 24 / 365.25
			ages[i] = dataset.Number(math.Round(years*10) / 10)
		}
		if err := t.AddColumn(ColumnAge, ages); err == nil {
			added = append(added, ColumnAge)
		}
	}

	if hasClaimDate {
		now := p.Now
		if now.IsZero() {
			now = time.Now()
		}
		days := make([]dataset.Value, t.NumRows())
		for i := range days {
			claim, ok := dataset.ToTime(t.At(i, p.ClaimDateColumn))
			if !ok {
				days[i] = dataset.Missing()
				continue
			}
			days[i] = dataset.Number(math.Floor(now.Sub(claim).Hours() / 24))
		}
		if err := t.AddColumn(ColumnDaysSinceClaim, days); err == nil {
			added = append(added, ColumnDaysSinceClaim)
		}
	}

	return added
}

// Summarize profiles a prepared table: per-column missing counts and a
// describe block for every numeric column in the schema.
func (p *Preparer) Summarize(t *dataset.Table, schema *dataset.Schema) DatasetSummary {
	summary := DatasetSummary{
		TotalRows:     t.NumRows(),
		TotalColumns:  t.NumCols(),
		Columns:       t.Columns(),
		MissingValues: make(map[string]int, t.NumCols()),
		NumericStats:  make(map[string]ColumnStats),
	}

	for _, column := range t.Columns() {
		missing := 0
		for _, cell := range t.Column(column) {
			if cell.IsMissing() {
				missing++
			}
		}
		summary.MissingValues[column] = missing
		summary.MissingTotal += missing
	}

	for _, column := range schema.NumericColumns() {
		var values []float64
		for _, cell := range t.Column(column) {
			if f, ok := dataset.ToFloat(cell); ok && !math.IsInf(f, 0) {
				values = append(values, f)
			}
		}
		if len(values) == 0 {
			continue
		}
		summary.NumericStats[column] = describeColumn(values)
	}

	return summary
}

func describeColumn(values []float64) ColumnStats {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean := 0.0
	for _, v := range sorted {
		mean += v
	}
	mean /= float64(len(sorted))

	std := 0.0
	if len(sorted) > 1 {
		sumSq := 0.0
		for _, v := range sorted {
			d := v - mean
			sumSq += d * d
		}
		std = math.Sqrt(sumSq / float64(len(sorted)-1))
	}

	return ColumnStats{
		Count:  len(sorted),
		Mean:   mean,
		Std:    std,
		Min:    sorted[0],
		Q25:    interpolatedQuantile(sorted, 0.25),
		Median: interpolatedQuantile(sorted, 0.50),
		Q75:    interpolatedQuantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
	}
}

// interpolatedQuantile returns the linearly interpolated quantile of a
// sorted slice, matching the statistical detector's quartile convention.
func interpolatedQuantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	index := q * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// coerceCell converts a cell to its column's role type. Text cells in
// numeric columns parse to numbers; text in date columns parses to dates;
// failures fall back to missing for numerics and the original value for
// dates, where the consistency rules want to see the bad spelling.
func coerceCell(cell dataset.Value, role dataset.Role) dataset.Value {
	if cell.IsMissing() {
		return cell
	}
	switch role {
	case dataset.RoleNumeric:
		if f, ok := dataset.ToFloat(cell); ok {
			return dataset.Number(f)
		}
		return dataset.Missing()
	case dataset.RoleDate:
		if ts, ok := dataset.ToTime(cell); ok {
			return dataset.Time(ts)
		}
		return cell
	default:
		return cell
	}
}
