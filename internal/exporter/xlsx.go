package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"claimsight/internal/dataset"
	"claimsight/internal/detectors"
)

const (
	anomaliesSheet = "Anomalies"
	summarySheet   = "Summary"
)

// WriteXLSX writes the report's anomalous rows as an Excel workbook with an
// Anomalies sheet and a Summary sheet carrying the run totals.
func WriteXLSX(w io.Writer, table *dataset.Table, report *detectors.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), anomaliesSheet)
	if err := writeAnomaliesSheet(f, table, report); err != nil {
		return err
	}
	if err := writeSummarySheet(f, report); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeAnomaliesSheet(f *excelize.File, table *dataset.Table, report *detectors.Report) error {
	header := exportHeader(table)
	cells := make([]interface{}, len(header))
	for i, name := range header {
		cells[i] = name
	}
	if err := setRow(f, anomaliesSheet, 1, cells); err != nil {
		return err
	}

	sources := rowSources(report)
	records, ids := table.Select(report.Summary.RowIDs)
	for i := 0; i < records.NumRows(); i++ {
		record := exportRecord(records, i, ids[i], sources)
		cells := make([]interface{}, len(record))
		for j, cell := range record {
			cells[j] = cell
		}
		if err := setRow(f, anomaliesSheet, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, report *detectors.Report) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	summary := report.Summary
	rows := [][]interface{}{
		{"metric", "value"},
		{"total_rows", summary.TotalRows},
		{"total_anomalies", summary.TotalAnomalies},
		{"anomaly_rate", summary.AnomalyRate},
		{"duplicate_count", summary.DuplicateCount},
		{"missing_value_count", summary.MissingCount},
		{"inconsistency_count", summary.InconsistencyCount},
		{"statistical_anomaly_count", summary.StatisticalCount},
		{"ml_anomaly_count", summary.MLCount},
	}
	for i, row := range rows {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
