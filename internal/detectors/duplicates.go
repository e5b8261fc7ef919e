package detectors

import (
	"claimsight/internal/dataset"
)

// DuplicateDetector finds fully duplicated rows and repeated values inside
// identifier columns. When the table carries the canonical identifier column
// it is checked exclusively; otherwise every identifier candidate from the
// schema is checked separately.
type DuplicateDetector struct {
	// IdentifierColumn is the canonical id column. Empty disables the
	// shortcut and always falls back to schema candidates.
	IdentifierColumn string
}

// NewDuplicateDetector returns a detector wired for claims data.
func NewDuplicateDetector() *DuplicateDetector {
	return &DuplicateDetector{IdentifierColumn: "claim_id"}
}

// Detect scans the table. Repeated identifier values flag every occurrence,
// not just the later ones. Missing cells compare equal to each other, so two
// rows with a blank identifier count as colliding.
func (d *DuplicateDetector) Detect(t *dataset.Table, schema *dataset.Schema) DuplicateReport {
	report := DuplicateReport{
		Columns: make(map[string]ColumnDuplicates),
		RowIDs:  []int{},
	}

	// Full-row duplicates: rows repeating an earlier row, all columns equal.
	seen := make(map[string]struct{}, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		key := t.RowKey(i)
		if _, dup := seen[key]; dup {
			report.FullRowCount++
			continue
		}
		seen[key] = struct{}{}
	}

	columns := d.identifierColumns(t, schema)

	union := make(map[int]struct{})
	for _, column := range columns {
		flagged := flagRepeatedValues(t, column)
		if len(flagged) == 0 {
			continue
		}
		report.Columns[column] = ColumnDuplicates{
			Count:  len(flagged),
			RowIDs: flagged,
		}
		for _, id := range flagged {
			union[id] = struct{}{}
		}
	}
	report.RowIDs = dataset.SortedRowIDs(union)

	if d.IdentifierColumn != "" && t.HasColumn(d.IdentifierColumn) {
		report.IdentifierCount = report.Columns[d.IdentifierColumn].Count
	} else {
		for _, col := range report.Columns {
			report.IdentifierCount += col.Count
		}
	}
	return report
}

func (d *DuplicateDetector) identifierColumns(t *dataset.Table, schema *dataset.Schema) []string {
	if d.IdentifierColumn != "" && t.HasColumn(d.IdentifierColumn) {
		return []string{d.IdentifierColumn}
	}
	return schema.IdentifierCandidates()
}

// flagRepeatedValues returns the ids of every row whose value in the column
// occurs more than once, in ascending order.
func flagRepeatedValues(t *dataset.Table, column string) []int {
	occurrences := make(map[string]int)
	cells := t.Column(column)
	for _, cell := range cells {
		occurrences[dataset.ValueKey(cell)]++
	}

	var flagged []int
	for i, cell := range cells {
		if occurrences[dataset.ValueKey(cell)] > 1 {
			flagged = append(flagged, i)
		}
	}
	return flagged
}
