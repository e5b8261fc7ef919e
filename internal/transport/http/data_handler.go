package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "claimsight/internal/errors"
	"claimsight/internal/generator"
	api "claimsight/pkg/contracts/api/v1"
)

// DataHandler handles dataset ingestion: file uploads and synthetic
// generation.
type DataHandler struct {
	service        DataServiceInterface
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewDataHandler creates a data handler. maxUploadBytes bounds the accepted
// request body.
func NewDataHandler(service DataServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "data_handler")),
		errorHandler:   errorHandler,
	}
}

// Routes returns the ingestion routes.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/upload", h.Upload)
	r.Post("/generate", h.Generate)

	return r
}

// Upload handles POST /api/upload. The dataset arrives as the multipart
// part named "file".
func (h *DataHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.logger.WarnContext(r.Context(), "multipart parse failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))
		render.Render(w, r, apierrors.MapDataError(apierrors.ErrInvalidUpload, reqID))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		render.Render(w, r, apierrors.MapDataError(apierrors.ErrInvalidUpload, reqID))
		return
	}
	defer file.Close()

	h.logger.InfoContext(r.Context(), "upload received",
		slog.String("filename", header.Filename),
		slog.Int64("size", header.Size),
		slog.String("request_id", reqID))

	result, err := h.service.Upload(r.Context(), file, header.Filename)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "upload failed",
			slog.String("error", err.Error()),
			slog.String("filename", header.Filename),
			slog.String("request_id", reqID))
		render.Render(w, r, apierrors.MapDataError(err, reqID))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// Generate handles POST /api/generate. Parameters arrive as query params;
// out-of-range values are clamped by the generator, not rejected.
func (h *DataHandler) Generate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	params, err := parseGenerateParams(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "generation requested",
		slog.Int("rows", params.Rows),
		slog.Float64("error_rate", params.ErrorRate),
		slog.String("request_id", reqID))

	result, err := h.service.Generate(r.Context(), params)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "generation failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))
		render.Render(w, r, apierrors.MapDataError(err, reqID))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

func parseGenerateParams(r *http.Request) (generator.Params, error) {
	var req api.GenerateRequest

	if raw := r.URL.Query().Get("rows"); raw != "" {
		rows, err := strconv.Atoi(raw)
		if err != nil {
			return generator.Params{}, apierrors.ErrValidation("rows", "rows must be an integer")
		}
		req.Rows = rows
	}
	if raw := r.URL.Query().Get("error_rate"); raw != "" {
		rate, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return generator.Params{}, apierrors.ErrValidation("error_rate", "error_rate must be a number")
		}
		req.ErrorRate = rate
	}
	if raw := r.URL.Query().Get("seed"); raw != "" {
		seed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return generator.Params{}, apierrors.ErrValidation("seed", "seed must be an integer")
		}
		req.Seed = seed
	}

	return generator.Params{
		Rows:      req.Rows,
		ErrorRate: req.ErrorRate,
		Seed:      req.Seed,
	}, nil
}
