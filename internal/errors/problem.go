package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Data-layer errors (using errors package for sentinel errors)
var (
	ErrNoDatasets        = errors.New("no datasets available")
	ErrDatasetMissing    = errors.New("dataset not found")
	ErrNoResults         = errors.New("no detection results available")
	ErrResultsMissing    = errors.New("detection results not found")
	ErrEmptyDataset      = errors.New("dataset is empty")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrInvalidUpload     = errors.New("invalid upload payload")
)

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Additional fields for extensibility
	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON custom marshaler to include extensions
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{})

	// Add standard fields
	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status

	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}

	// Add extensions
	for k, v := range pd.Extensions {
		data[k] = v
	}

	// Use standard JSON marshaling
	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// MapDataError maps data-layer sentinel errors to HTTP problem details
func MapDataError(err error, traceID string) render.Renderer {
	instance := fmt.Sprintf("/api#trace-%s", traceID)

	// Check if it's an APIError from errors.go
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.ErrorCode == "DATASET_NOT_FOUND" {
			return NewProblemDetails(
				http.StatusNotFound,
				TypeDataNotFound,
				"Dataset Not Found",
				"No dataset with this identifier is stored. Upload or generate a dataset first.",
				instance,
			).WithExtension("trace_id", traceID).
				WithExtension("error_code", "DATASET_NOT_FOUND")
		}
	}

	switch {
	case errors.Is(err, ErrNoDatasets):
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeDataNotFound,
			"No Data Available",
			"No data available. Please upload a file first.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "NO_DATASETS")

	case errors.Is(err, ErrDatasetMissing):
		return NewProblemDetails(
			http.StatusNotFound,
			TypeDataNotFound,
			"Dataset Not Found",
			"No dataset with this identifier is stored.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "DATASET_NOT_FOUND")

	case errors.Is(err, ErrNoResults):
		return NewProblemDetails(
			http.StatusNotFound,
			TypeDataNotFound,
			"No Results Available",
			"No detection results available. Run detection first.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "NO_RESULTS")

	case errors.Is(err, ErrResultsMissing):
		return NewProblemDetails(
			http.StatusNotFound,
			TypeDataNotFound,
			"Results Not Found",
			"No detection results found for this dataset.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "RESULTS_NOT_FOUND")

	case errors.Is(err, ErrEmptyDataset):
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeDataCorrupted,
			"Empty Dataset",
			"The uploaded file contains no data rows.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "EMPTY_DATASET")

	case errors.Is(err, ErrUnsupportedFormat):
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeValidation,
			"Unsupported File Format",
			"Only CSV and XLSX files are supported.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "UNSUPPORTED_FORMAT")

	case errors.Is(err, ErrInvalidUpload):
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeValidation,
			"Invalid Upload",
			"The request does not contain a readable file part.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INVALID_UPLOAD")

	default:
		// Generic error
		return NewProblemDetails(
			http.StatusInternalServerError,
			TypeInternal,
			"Internal Server Error",
			"An unexpected error occurred while processing your request.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INTERNAL_ERROR")
	}
}
