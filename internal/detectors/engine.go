package detectors

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"claimsight/internal/dataset"
)

// Config carries the detection thresholds injected at construction. There is
// no runtime reconfiguration mid-run.
type Config struct {
	ZScoreThreshold float64
	IQRMultiplier   float64
	Contamination   float64
	Trees           int
	Neighbors       int
	Seed            int64
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		ZScoreThreshold: 3.0,
		IQRMultiplier:   1.5,
		Contamination:   0.1,
		Trees:           100,
		Neighbors:       20,
		Seed:            42,
	}
}

// Engine runs every detector family over a table and unions their findings
// into one report. The detector families share no mutable state, so they run
// in parallel and join only at the union step.
type Engine struct {
	classifier  *dataset.Classifier
	duplicates  *DuplicateDetector
	missing     *MissingDetector
	consistency *ConsistencyDetector
	statistical *StatisticalDetector
	ml          *MLDetector
	logger      *slog.Logger

	// OnProgress, when set, is invoked once per completed detector family
	// with the family name and its anomalous-row count. Families run in
	// parallel, so the callback must be safe for concurrent use.
	OnProgress func(family string, anomalies int)
}

// Detector family names reported through OnProgress and the results API.
const (
	FamilyDuplicates  = "duplicates"
	FamilyMissing     = "missing_values"
	FamilyConsistency = "inconsistencies"
	FamilyStatistical = "statistical"
	FamilyML          = "ml"
)

// NewEngine builds an engine from the given thresholds.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	statistical := NewStatisticalDetector()
	statistical.ZScoreThreshold = cfg.ZScoreThreshold
	statistical.IQRMultiplier = cfg.IQRMultiplier

	ml := NewMLDetector()
	ml.Contamination = cfg.Contamination
	if cfg.Trees > 0 {
		ml.Trees = cfg.Trees
	}
	if cfg.Neighbors > 0 {
		ml.Neighbors = cfg.Neighbors
	}
	ml.Seed = cfg.Seed

	return &Engine{
		classifier:  dataset.NewClassifier(),
		duplicates:  NewDuplicateDetector(),
		missing:     NewMissingDetector(),
		consistency: NewConsistencyDetector(),
		statistical: statistical,
		ml:          ml,
		logger:      logger.With(slog.String("component", "detection_engine")),
	}
}

func (e *Engine) progress(family string, anomalies int) {
	if e.OnProgress != nil {
		e.OnProgress(family, anomalies)
	}
}

// DetectAll runs all detector families over the table and aggregates their
// row sets. Column roles are classified once and threaded into every
// detector. Statistical and ML detection are skipped when the table has no
// numeric columns, producing nil sections. A fixed ML seed makes repeated
// runs over the same table yield the same anomaly set.
func (e *Engine) DetectAll(ctx context.Context, t *dataset.Table) (*Report, error) {
	start := time.Now()
	schema := e.classifier.Classify(t)
	numericColumns := schema.NumericColumns()

	report := &Report{}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.Duplicates = e.duplicates.Detect(t, schema)
		e.progress(FamilyDuplicates, len(report.Duplicates.RowIDs))
		return nil
	})
	g.Go(func() error {
		report.Missing = e.missing.Detect(t)
		e.progress(FamilyMissing, len(report.Missing.RowIDs))
		return nil
	})
	g.Go(func() error {
		report.Inconsistency = e.consistency.Detect(t, schema)
		e.progress(FamilyConsistency, len(report.Inconsistency.RowIDs))
		return nil
	})
	if len(numericColumns) > 0 {
		g.Go(func() error {
			statistical := e.statistical.Detect(t, numericColumns)
			report.Statistical = &statistical
			e.progress(FamilyStatistical, len(statistical.RowIDs))
			return nil
		})
		g.Go(func() error {
			ml := e.ml.Detect(t, numericColumns)
			report.ML = &ml
			e.progress(FamilyML, len(ml.RowIDs))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	union := make(map[int]struct{})
	addAll := func(ids []int) {
		for _, id := range ids {
			union[id] = struct{}{}
		}
	}
	addAll(report.Duplicates.RowIDs)
	addAll(report.Missing.RowIDs)
	addAll(report.Inconsistency.RowIDs)
	if report.Statistical != nil {
		addAll(report.Statistical.RowIDs)
	}
	if report.ML != nil {
		addAll(report.ML.RowIDs)
	}

	summary := Summary{
		TotalRows:          t.NumRows(),
		TotalAnomalies:     len(union),
		RowIDs:             dataset.SortedRowIDs(union),
		DuplicateCount:     report.Duplicates.IdentifierCount,
		MissingCount:       report.Missing.RowCount,
		InconsistencyCount: report.Inconsistency.RowCount,
	}
	if t.NumRows() > 0 {
		summary.AnomalyRate = float64(summary.TotalAnomalies) / float64(t.NumRows())
	}
	if report.Statistical != nil {
		summary.StatisticalCount = report.Statistical.TotalAnomalies
	}
	if report.ML != nil {
		summary.MLCount = report.ML.Count
	}
	report.Summary = summary

	e.logger.InfoContext(ctx, "detection run completed",
		slog.Int("total_rows", summary.TotalRows),
		slog.Int("total_anomalies", summary.TotalAnomalies),
		slog.Float64("anomaly_rate", summary.AnomalyRate),
		slog.Int("numeric_columns", len(numericColumns)),
		slog.Duration("duration", time.Since(start)))

	return report, nil
}

// AnomalyRecords projects exactly the rows named by the report's anomaly
// set out of the original table, preserving their data and ids. It is a
// pure projection; nothing is re-computed.
func (e *Engine) AnomalyRecords(t *dataset.Table, report *Report) (*dataset.Table, []int) {
	return t.Select(report.Summary.RowIDs)
}
