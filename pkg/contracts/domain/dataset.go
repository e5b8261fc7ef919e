package domain

import "time"

// DatasetInfo is the wire description of a stored dataset.
type DatasetInfo struct {
	ID          string    `json:"dataset_id"`
	Source      string    `json:"source"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	Fingerprint string    `json:"fingerprint"`
	StoredAt    time.Time `json:"stored_at"`
}

// ColumnProfile is the wire description of one column: its detected role
// and distinct-value ratio.
type ColumnProfile struct {
	Name       string  `json:"name"`
	Role       string  `json:"role"`
	Uniqueness float64 `json:"uniqueness"`
}

// UploadResult is the response body of a successful upload or generation.
// Validation and Summary carry the ETL layer's reports verbatim.
type UploadResult struct {
	Dataset    DatasetInfo     `json:"dataset"`
	Columns    []ColumnProfile `json:"column_profiles,omitempty"`
	Validation interface{}     `json:"validation,omitempty"`
	Summary    interface{}     `json:"data_summary,omitempty"`
	Injected   interface{}     `json:"injected_errors,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
}
