// Package api contains API contract definitions for the claimsight service.
// Version v1 represents the current stable API version.
package api

// DetectRequest selects the dataset a detection run targets. An empty
// DatasetID falls back to the most recently stored dataset; unknown ids
// resolve to a not-found error in the store.
type DetectRequest struct {
	DatasetID string `json:"dataset_id,omitempty" query:"dataset_id"`
}

// ResultsRequest selects the detection results to return or export.
// Unsupported formats are rejected by the detection service.
type ResultsRequest struct {
	DatasetID string `json:"dataset_id,omitempty" query:"dataset_id"`
	Format    string `json:"format,omitempty" query:"format"`
}

// GenerateRequest controls synthetic dataset generation. Rows outside the
// service bounds are clamped, not rejected.
type GenerateRequest struct {
	Rows      int     `json:"rows,omitempty" query:"rows"`
	ErrorRate float64 `json:"error_rate,omitempty" query:"error_rate"`
	Seed      int64   `json:"seed,omitempty" query:"seed"`
}
