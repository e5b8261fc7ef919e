package detectors

import (
	"time"
	"unicode"

	"claimsight/internal/dataset"
)

// ConsistencyDetector runs rule-based validity checks. Rules are independent
// and additive: a row can trigger several rules but counts once in the
// flagged set. Rules whose column is absent from the table are skipped
// silently.
type ConsistencyDetector struct {
	ZipColumn    string
	NameColumn   string
	AmountColumn string
	BirthColumn  string
	ClaimColumn  string
}

// NewConsistencyDetector returns a detector wired for claims data.
func NewConsistencyDetector() *ConsistencyDetector {
	return &ConsistencyDetector{
		ZipColumn:    "zip_code",
		NameColumn:   "patient_name",
		AmountColumn: "claim_amount",
		BirthColumn:  "dob",
		ClaimColumn:  "claim_date",
	}
}

// Detect applies every rule. Date parsing never raises; an unparseable
// present value is the invalid-format case, and date-pair rules simply skip
// rows that do not parse.
func (d *ConsistencyDetector) Detect(t *dataset.Table, schema *dataset.Schema) ConsistencyReport {
	report := ConsistencyReport{
		Findings: []RuleFinding{},
		RowIDs:   []int{},
	}
	union := make(map[int]struct{})

	record := func(column, rule string, rowIDs []int) {
		if len(rowIDs) == 0 {
			return
		}
		report.Findings = append(report.Findings, RuleFinding{
			Column: column,
			Rule:   rule,
			Count:  len(rowIDs),
			RowIDs: rowIDs,
		})
		for _, id := range rowIDs {
			union[id] = struct{}{}
		}
	}

	for _, column := range schema.DateColumns() {
		record(column, RuleInvalidDate, d.invalidDates(t, column))
	}
	if t.HasColumn(d.ZipColumn) {
		record(d.ZipColumn, RuleInvalidZip, d.invalidZips(t))
	}
	if t.HasColumn(d.NameColumn) {
		record(d.NameColumn, RuleInvalidName, d.invalidNames(t))
	}
	if t.HasColumn(d.BirthColumn) {
		record(d.BirthColumn, RuleFutureBirthDate, d.futureBirthDates(t))
	}
	if t.HasColumn(d.BirthColumn) && t.HasColumn(d.ClaimColumn) {
		record(d.ClaimColumn, RuleClaimBeforeBirth, d.claimsBeforeBirth(t))
	}
	if t.HasColumn(d.AmountColumn) {
		record(d.AmountColumn, RuleNegativeAmount, d.negativeAmounts(t))
	}

	report.RowIDs = dataset.SortedRowIDs(union)
	report.RowCount = len(report.RowIDs)
	return report
}

func (d *ConsistencyDetector) invalidDates(t *dataset.Table, column string) []int {
	var flagged []int
	for i, cell := range t.Column(column) {
		if cell.IsMissing() {
			continue
		}
		if _, ok := dataset.ToTime(cell); !ok {
			flagged = append(flagged, i)
		}
	}
	return flagged
}

func (d *ConsistencyDetector) invalidZips(t *dataset.Table) []int {
	var flagged []int
	for i, cell := range t.Column(d.ZipColumn) {
		if cell.IsMissing() {
			continue
		}
		if !validZip(cell) {
			flagged = append(flagged, i)
		}
	}
	return flagged
}

// validZip accepts exactly five ASCII digits as a string. Numeric cells fail
// on purpose: a zip stored as a number has already lost leading zeros.
func validZip(cell dataset.Value) bool {
	s, ok := cell.Text()
	if !ok || len(s) != 5 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (d *ConsistencyDetector) invalidNames(t *dataset.Table) []int {
	var flagged []int
	for i, cell := range t.Column(d.NameColumn) {
		if cell.IsMissing() {
			continue
		}
		if !validName(cell) {
			flagged = append(flagged, i)
		}
	}
	return flagged
}

// validName accepts strings longer than one character made of letters,
// spaces, and hyphens, with at least one letter.
func validName(cell dataset.Value) bool {
	s, ok := cell.Text()
	if !ok {
		return false
	}
	runes := []rune(s)
	if len(runes) <= 1 {
		return false
	}
	letters := 0
	for _, r := range runes {
		switch {
		case r == ' ' || r == '-':
		case unicode.IsLetter(r):
			letters++
		default:
			return false
		}
	}
	return letters > 0
}

func (d *ConsistencyDetector) futureBirthDates(t *dataset.Table) []int {
	now := time.Now()
	var flagged []int
	for i, cell := range t.Column(d.BirthColumn) {
		if born, ok := dataset.ToTime(cell); ok && born.After(now) {
			flagged = append(flagged, i)
		}
	}
	return flagged
}

func (d *ConsistencyDetector) claimsBeforeBirth(t *dataset.Table) []int {
	births := t.Column(d.BirthColumn)
	claims := t.Column(d.ClaimColumn)
	var flagged []int
	for i := range claims {
		born, okBorn := dataset.ToTime(births[i])
		claimed, okClaimed := dataset.ToTime(claims[i])
		if okBorn && okClaimed && claimed.Before(born) {
			flagged = append(flagged, i)
		}
	}
	return flagged
}

func (d *ConsistencyDetector) negativeAmounts(t *dataset.Table) []int {
	var flagged []int
	for i, cell := range t.Column(d.AmountColumn) {
		if amount, ok := dataset.ToFloat(cell); ok && amount < 0 {
			flagged = append(flagged, i)
		}
	}
	return flagged
}
