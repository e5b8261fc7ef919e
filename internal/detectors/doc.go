// Package detectors provides anomaly detection over claim tables.
//
// This package contains five detector families and their aggregator:
//
// DuplicateDetector: Full-row duplicate counting plus repeated-value
// detection inside identifier columns, flagging every occurrence.
//
// MissingDetector: Per-column missing counts and percentages with a flagged
// set of rows carrying at least one missing cell.
//
// ConsistencyDetector: Rule-based validity checks for date formats, zip
// codes, patient names, impossible date pairs, and negative amounts.
//
// StatisticalDetector: Per-numeric-column Z-score and IQR outlier tests,
// unioned per column and across columns.
//
// MLDetector: Isolation forest and local outlier factor over a standardized
// feature matrix, each degrading to a zeroed result on failure.
//
// Engine: Runs all families in parallel over one table, normalizes every
// outcome to a set of stable row ids, unions them, and builds the summary.
//
// Example usage:
//
//	engine := detectors.NewEngine(detectors.DefaultConfig(), logger)
//
//	report, err := engine.DetectAll(ctx, table)
//	if err != nil {
//		return err
//	}
//
//	records, rowIDs := engine.AnomalyRecords(table, report)
package detectors
