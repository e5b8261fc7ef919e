package detectors

// Rule type tags reported by the consistency detector. One row may trigger
// several rules; the flagged-row set counts it once.
const (
	RuleInvalidDate      = "invalid_date_format"
	RuleInvalidZip       = "invalid_zip_format"
	RuleInvalidName      = "invalid_name_format"
	RuleFutureBirthDate  = "future_dob"
	RuleClaimBeforeBirth = "claim_before_dob"
	RuleNegativeAmount   = "negative_amount"
)

// ColumnDuplicates describes duplicate values inside one identifier column.
// RowIDs carries every occurrence, first ones included.
type ColumnDuplicates struct {
	Count  int   `json:"count"`
	RowIDs []int `json:"indices"`
}

// DuplicateReport is the duplicate detector's output. FullRowCount counts
// rows that repeat an earlier row across all columns (first occurrences not
// counted); those rows are reported but only identifier collisions feed
// RowIDs.
type DuplicateReport struct {
	FullRowCount    int                         `json:"duplicate_rows"`
	Columns         map[string]ColumnDuplicates `json:"duplicate_ids"`
	RowIDs          []int                       `json:"duplicate_indices"`
	IdentifierCount int                         `json:"duplicate_claim_ids"`
}

// MissingReport is the missing-value detector's output. RowCount counts rows
// with at least one missing cell, whatever the number of missing columns.
type MissingReport struct {
	Counts      map[string]int     `json:"missing_counts"`
	Percentages map[string]float64 `json:"missing_percentages"`
	RowCount    int                `json:"rows_with_missing"`
	RowIDs      []int              `json:"missing_indices"`
	Columns     []string           `json:"columns_with_missing"`
}

// RuleFinding is one triggered consistency rule on one column.
type RuleFinding struct {
	Column string `json:"column"`
	Rule   string `json:"type"`
	Count  int    `json:"count"`
	RowIDs []int  `json:"indices"`
}

// ConsistencyReport is the inconsistency detector's output. RowIDs is the
// union across rules, so RowCount can be smaller than the sum of finding
// counts.
type ConsistencyReport struct {
	Findings []RuleFinding `json:"inconsistencies"`
	RowCount int           `json:"total_inconsistent_rows"`
	RowIDs   []int         `json:"inconsistent_indices"`
}

// ColumnOutliers is the per-column detail kept by the statistical detector.
type ColumnOutliers struct {
	Column      string `json:"column"`
	Method      string `json:"method"`
	ZScoreCount int    `json:"z_score_count"`
	IQRCount    int    `json:"iqr_count"`
	TotalCount  int    `json:"total_count"`
	RowIDs      []int  `json:"anomaly_indices"`
}

// StatisticalReport is the statistical detector's output. ZScore and IQR
// hold per-column flagged rows for every checked column; RowIDs is the union
// of both methods across all columns.
type StatisticalReport struct {
	ZScore         map[string][]int `json:"z_score_anomalies"`
	IQR            map[string][]int `json:"iqr_anomalies"`
	RowIDs         []int            `json:"anomaly_indices"`
	Details        []ColumnOutliers `json:"anomaly_details"`
	TotalAnomalies int              `json:"total_anomalies"`
	AnomalyRate    float64          `json:"anomaly_rate"`
	ColumnsChecked int              `json:"columns_checked"`
}

// ModelResult is one ML model's outcome. A failed model reports zero
// anomalies and an all-zero score vector with the failure message retained
// in Error, so one degenerate model never blanks out the run.
type ModelResult struct {
	Model    string    `json:"model"`
	RowIDs   []int     `json:"anomaly_indices"`
	Scores   []float64 `json:"scores"`
	Features []string  `json:"feature_columns,omitempty"`
	Count    int       `json:"num_anomalies"`
	Error    string    `json:"error,omitempty"`
}

// Failed reports whether the model fell back to the zeroed result.
func (r ModelResult) Failed() bool {
	return r.Error != ""
}

// MLReport is the ML detector's output: both models plus the union of their
// flagged rows.
type MLReport struct {
	IsolationForest ModelResult `json:"isolation_forest"`
	LOF             ModelResult `json:"lof"`
	RowIDs          []int       `json:"anomaly_indices"`
	Count           int         `json:"num_combined_anomalies"`
	AnomalyRate     float64     `json:"anomaly_rate"`
}

// Summary is the aggregate view of a detection run.
type Summary struct {
	TotalRows          int     `json:"total_rows"`
	TotalAnomalies     int     `json:"total_anomalies"`
	AnomalyRate        float64 `json:"anomaly_rate"`
	RowIDs             []int   `json:"anomaly_indices"`
	DuplicateCount     int     `json:"duplicate_count"`
	MissingCount       int     `json:"missing_value_count"`
	InconsistencyCount int     `json:"inconsistency_count"`
	StatisticalCount   int     `json:"statistical_anomaly_count"`
	MLCount            int     `json:"ml_anomaly_count"`
}

// Report is the complete result of one detection run over one table. It is
// built once and never mutated; Statistical and ML are nil when the table
// has no numeric columns.
type Report struct {
	Duplicates    DuplicateReport    `json:"duplicates"`
	Missing       MissingReport      `json:"missing_values"`
	Inconsistency ConsistencyReport  `json:"inconsistencies"`
	Statistical   *StatisticalReport `json:"statistical,omitempty"`
	ML            *MLReport          `json:"ml,omitempty"`
	Summary       Summary            `json:"summary"`
}
