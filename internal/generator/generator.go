package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"claimsight/internal/dataset"
)

// Row count and error rate bounds enforced by Generate.
const (
	MinRows = 1000
	MaxRows = 5000

	DefaultRows      = 3000
	DefaultErrorRate = 0.15
)

var firstNames = []string{
	"John", "Jane", "Michael", "Sarah", "David", "Emily", "Robert", "Jessica",
	"William", "Ashley", "James", "Amanda", "Christopher", "Melissa", "Daniel",
}

var lastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
	"Rodriguez", "Martinez", "Hernandez", "Lopez", "Wilson", "Anderson", "Thomas",
}

var badZips = []string{"123", "123456789", "ABCDE", "12-34"}
var badNames = []string{"12345", "John@Doe", "A", ""}

// Params controls one generation run. Zero values fall back to the package
// defaults; Rows is clamped to [MinRows, MaxRows] and ErrorRate to [0, 1].
type Params struct {
	Rows      int     `json:"rows"`
	ErrorRate float64 `json:"error_rate"`
	Seed      int64   `json:"seed,omitempty"`
}

// InjectionSummary counts the errors planted into a generated dataset.
type InjectionSummary struct {
	Duplicates      int `json:"duplicates"`
	MissingValues   int `json:"missing_values"`
	Inconsistencies int `json:"inconsistencies"`
	Outliers        int `json:"outliers"`
}

// Generator synthesizes claims datasets with a controlled share of planted
// anomalies, for demos and detector exercising. A fixed seed reproduces the
// exact same table.
type Generator struct {
	// BaseDate anchors dates: births fall 18 to 80 years before it, claim
	// dates within two years after it.
	BaseDate time.Time

	logger *slog.Logger
}

// NewGenerator creates a generator with the standard date anchor.
func NewGenerator(logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		BaseDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		logger:   logger.With(slog.String("component", "generator")),
	}
}

// Generate builds a claims table with planted errors. A zero seed derives
// one from the clock, so repeated unseeded calls differ.
func (g *Generator) Generate(ctx context.Context, params Params) (*dataset.Table, InjectionSummary, error) {
	rows := params.Rows
	if rows == 0 {
		rows = DefaultRows
	}
	rows = clampInt(rows, MinRows, MaxRows)

	errorRate := params.ErrorRate
	if errorRate == 0 {
		errorRate = DefaultErrorRate
	}
	errorRate = math.Min(math.Max(errorRate, 0), 1)

	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	table, err := dataset.New([]string{
		"claim_id", "patient_name", "dob", "zip_code", "claim_date",
		"claim_amount", "payer_id", "diagnosis_code", "procedure_code",
	})
	if err != nil {
		return nil, InjectionSummary{}, err
	}

	for i := 0; i < rows; i++ {
		if err := table.AppendRow(g.cleanRow(rng, i)); err != nil {
			return nil, InjectionSummary{}, err
		}
	}

	summary := g.injectErrors(rng, table, rows, errorRate)

	g.logger.InfoContext(ctx, "generated dataset",
		slog.Int("rows", rows),
		slog.Float64("error_rate", errorRate),
		slog.Int64("seed", seed),
		slog.Int("duplicates", summary.Duplicates),
		slog.Int("missing", summary.MissingValues),
		slog.Int("inconsistencies", summary.Inconsistencies),
		slog.Int("outliers", summary.Outliers))

	return table, summary, nil
}

// cleanRow produces one well-formed claim.
func (g *Generator) cleanRow(rng *rand.Rand, i int) []dataset.Value {
	yearsAgo := 18 + rng.Intn(63)
	dob := g.BaseDate.AddDate(0, 0, -(yearsAgo*365 + rng.Intn(366)))
	claimDate := g.BaseDate.AddDate(0, 0, rng.Intn(731))

	amount := rng.NormFloat64()*2000 + 5000
	amount = math.Max(100, math.Round(amount*100)/100)

	return []dataset.Value{
		dataset.String(fmt.Sprintf("CLM%06d", i+1)),
		dataset.String(firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))]),
		dataset.String(dob.Format(dataset.DateLayout)),
		dataset.String(fmt.Sprintf("%d", 10000+rng.Intn(90000))),
		dataset.String(claimDate.Format(dataset.DateLayout)),
		dataset.Number(amount),
		dataset.String(fmt.Sprintf("PAY%03d", 1+rng.Intn(10))),
		dataset.String(fmt.Sprintf("ICD%d.%d", 10+rng.Intn(90), 10+rng.Intn(90))),
		dataset.String(fmt.Sprintf("CPT%d", 10000+rng.Intn(90000))),
	}
}

// injectErrors plants anomalies in place. The error budget splits 30%
// duplicated ids, 40% missing fields, 30% rule violations, plus an extra
// 20% of extreme amounts for the outlier detectors.
func (g *Generator) injectErrors(rng *rand.Rand, table *dataset.Table, rows int, errorRate float64) InjectionSummary {
	budget := float64(rows) * errorRate
	summary := InjectionSummary{
		Duplicates:      int(budget * 0.3),
		MissingValues:   int(budget * 0.4),
		Inconsistencies: int(budget * 0.3),
		Outliers:        int(budget * 0.2),
	}

	for _, idx := range sampleRows(rng, rows, summary.Duplicates) {
		source := rng.Intn(rows)
		table.Set(idx, "claim_id", table.At(source, "claim_id"))
	}

	missingTargets := []string{"zip_code", "dob", "patient_name", "payer_id", "diagnosis_code"}
	for _, idx := range sampleRows(rng, rows, summary.MissingValues) {
		table.Set(idx, missingTargets[rng.Intn(len(missingTargets))], dataset.Missing())
	}

	for _, idx := range sampleRows(rng, rows, summary.Inconsistencies) {
		switch rng.Intn(4) {
		case 0:
			// Date spelled outside the accepted layouts, often an
			// impossible calendar day.
			table.Set(idx, "dob", dataset.String(fmt.Sprintf("%d/%d/%d",
				1+rng.Intn(12), 1+rng.Intn(31), 1900+rng.Intn(121))))
		case 1:
			table.Set(idx, "zip_code", dataset.String(badZips[rng.Intn(len(badZips))]))
		case 2:
			table.Set(idx, "patient_name", dataset.String(badNames[rng.Intn(len(badNames))]))
		default:
			future := time.Now().AddDate(1, 0, 0)
			table.Set(idx, "dob", dataset.String(future.Format(dataset.DateLayout)))
		}
	}

	for _, idx := range sampleRows(rng, rows, summary.Outliers) {
		var amount float64
		if rng.Float64() > 0.5 {
			amount = 100000 + rng.Float64()*900000
		} else {
			amount = -100 - rng.Float64()*9900
		}
		table.Set(idx, "claim_amount", dataset.Number(amount))
	}

	return summary
}

// sampleRows picks n distinct row ids.
func sampleRows(rng *rand.Rand, rows, n int) []int {
	if n > rows {
		n = rows
	}
	perm := rng.Perm(rows)
	return perm[:n]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
