// Package exporter renders detection results for download. Anomalous rows
// are projected out of the stored table and written with their row ids and
// the detector families that flagged them.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"claimsight/internal/dataset"
	"claimsight/internal/detectors"
)

// WriteCSV writes the report's anomalous rows as CSV. A UTF-8 BOM is
// prefixed so Excel recognizes the encoding.
func WriteCSV(w io.Writer, table *dataset.Table, report *detectors.Report) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(exportHeader(table)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	sources := rowSources(report)
	records, ids := table.Select(report.Summary.RowIDs)
	for i := 0; i < records.NumRows(); i++ {
		if err := writer.Write(exportRecord(records, i, ids[i], sources)); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}

	return writer.Error()
}

func exportHeader(table *dataset.Table) []string {
	header := []string{"row_id"}
	header = append(header, table.Columns()...)
	return append(header, "flagged_by")
}

func exportRecord(records *dataset.Table, row, rowID int, sources map[int][]string) []string {
	record := []string{strconv.Itoa(rowID)}
	for _, column := range records.Columns() {
		record = append(record, records.At(row, column).String())
	}
	return append(record, strings.Join(sources[rowID], "|"))
}

// rowSources maps each anomalous row id to the detector families that
// flagged it, in a fixed family order.
func rowSources(report *detectors.Report) map[int][]string {
	sources := make(map[int][]string)
	add := func(family string, ids []int) {
		for _, id := range ids {
			sources[id] = append(sources[id], family)
		}
	}
	add(detectors.FamilyDuplicates, report.Duplicates.RowIDs)
	add(detectors.FamilyMissing, report.Missing.RowIDs)
	add(detectors.FamilyConsistency, report.Inconsistency.RowIDs)
	if report.Statistical != nil {
		add(detectors.FamilyStatistical, report.Statistical.RowIDs)
	}
	if report.ML != nil {
		add(detectors.FamilyML, report.ML.RowIDs)
	}
	return sources
}
