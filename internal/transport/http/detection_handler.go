package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"claimsight/internal/detectors"
	apierrors "claimsight/internal/errors"
	"claimsight/internal/store"
	api "claimsight/pkg/contracts/api/v1"
)

// DetectionHandler handles detection runs and result retrieval.
type DetectionHandler struct {
	service      DetectionServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDetectionHandler creates a detection handler.
func NewDetectionHandler(service DetectionServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DetectionHandler {
	return &DetectionHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "detection_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the detection routes.
func (h *DetectionHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/detect", h.Detect)
	r.Get("/results", h.Results)
	r.Get("/results/export", h.Export)

	return r
}

// DetectResponse is the body of a successful detection run.
type DetectResponse struct {
	DatasetID  string            `json:"dataset_id"`
	DetectedAt time.Time         `json:"detected_at"`
	Summary    detectors.Summary `json:"summary"`
}

// ResultsResponse carries a stored report plus the anomalous-record
// projection.
type ResultsResponse struct {
	DatasetID      string                   `json:"dataset_id"`
	DetectedAt     time.Time                `json:"detected_at"`
	Report         *detectors.Report        `json:"report"`
	AnomalyRecords []map[string]interface{} `json:"anomaly_records"`
}

// Detect handles POST /api/detect. An omitted dataset_id targets the most
// recently stored dataset.
func (h *DetectionHandler) Detect(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	req := api.DetectRequest{DatasetID: r.URL.Query().Get("dataset_id")}

	h.logger.InfoContext(r.Context(), "detection requested",
		slog.String("dataset_id", req.DatasetID),
		slog.String("request_id", reqID))

	entry, err := h.service.Detect(r.Context(), req.DatasetID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "detection failed",
			slog.String("error", err.Error()),
			slog.String("dataset_id", req.DatasetID),
			slog.String("request_id", reqID))
		render.Render(w, r, apierrors.MapDataError(err, reqID))
		return
	}

	render.JSON(w, r, DetectResponse{
		DatasetID:  entry.ID,
		DetectedAt: entry.DetectedAt,
		Summary:    entry.Report.Summary,
	})
}

// Results handles GET /api/results: the stored report with the anomalous
// rows projected out of the dataset.
func (h *DetectionHandler) Results(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	req := api.ResultsRequest{DatasetID: r.URL.Query().Get("dataset_id")}

	entry, err := h.service.Results(r.Context(), req.DatasetID)
	if err != nil {
		render.Render(w, r, apierrors.MapDataError(err, reqID))
		return
	}

	render.JSON(w, r, ResultsResponse{
		DatasetID:      entry.ID,
		DetectedAt:     entry.DetectedAt,
		Report:         entry.Report,
		AnomalyRecords: anomalyRecords(entry),
	})
}

// Export handles GET /api/results/export, streaming the anomalous rows as
// a CSV or XLSX download.
func (h *DetectionHandler) Export(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	req := api.ResultsRequest{
		DatasetID: r.URL.Query().Get("dataset_id"),
		Format:    r.URL.Query().Get("format"),
	}

	body, filename, err := h.service.Export(r.Context(), req.DatasetID, req.Format)
	if err != nil {
		render.Render(w, r, apierrors.MapDataError(err, reqID))
		return
	}

	contentType := "text/csv; charset=utf-8"
	if req.Format == "xlsx" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func anomalyRecords(entry *store.Entry) []map[string]interface{} {
	records, ids := entry.Table.Select(entry.Report.Summary.RowIDs)
	out := make([]map[string]interface{}, 0, records.NumRows())
	for i := 0; i < records.NumRows(); i++ {
		record := make(map[string]interface{}, records.NumCols()+1)
		record["row_id"] = ids[i]
		for column, value := range records.RowMap(i) {
			record[column] = value
		}
		out = append(out, record)
	}
	return out
}
