package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimsight/internal/dataset"
	"claimsight/internal/detectors"
	apierrors "claimsight/internal/errors"
	"claimsight/internal/store"
)

type fakeDetectionService struct {
	entry     *store.Entry
	err       error
	body      []byte
	filename  string
	gotID     string
	gotFormat string
}

func (f *fakeDetectionService) Detect(ctx context.Context, datasetID string) (*store.Entry, error) {
	f.gotID = datasetID
	return f.entry, f.err
}

func (f *fakeDetectionService) Results(ctx context.Context, datasetID string) (*store.Entry, error) {
	f.gotID = datasetID
	return f.entry, f.err
}

func (f *fakeDetectionService) Export(ctx context.Context, datasetID, format string) ([]byte, string, error) {
	f.gotID = datasetID
	f.gotFormat = format
	return f.body, f.filename, f.err
}

func detectionEntry(t *testing.T) *store.Entry {
	t.Helper()
	table, err := dataset.New([]string{"claim_id", "claim_amount"})
	require.NoError(t, err)
	require.NoError(t, table.AppendRow([]dataset.Value{dataset.String("CLM1"), dataset.Number(100)}))
	require.NoError(t, table.AppendRow([]dataset.Value{dataset.String("CLM1"), dataset.Number(100)}))

	return &store.Entry{
		ID:         "ds-1",
		Table:      table,
		DetectedAt: time.Now(),
		Report: &detectors.Report{
			Duplicates: detectors.DuplicateReport{RowIDs: []int{0, 1}},
			Summary: detectors.Summary{
				TotalRows:      2,
				TotalAnomalies: 2,
				AnomalyRate:    1.0,
				RowIDs:         []int{0, 1},
			},
		},
	}
}

func newDetectionHandler(svc *fakeDetectionService) *DetectionHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDetectionHandler(svc, logger, apierrors.NewErrorHandler(logger, false))
}

func TestDetectionHandlerDetect(t *testing.T) {
	svc := &fakeDetectionService{entry: detectionEntry(t)}
	handler := newDetectionHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/detect?dataset_id=ds-1", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ds-1", svc.gotID)
	assert.Contains(t, rec.Body.String(), `"total_anomalies":2`)
}

func TestDetectionHandlerDetectUnknownDataset(t *testing.T) {
	svc := &fakeDetectionService{err: apierrors.ErrDatasetMissing}
	handler := newDetectionHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/detect?dataset_id=nope", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "DATASET_NOT_FOUND")
}

func TestDetectionHandlerDetectNoDatasets(t *testing.T) {
	svc := &fakeDetectionService{err: apierrors.ErrNoDatasets}
	handler := newDetectionHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/detect", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectionHandlerResults(t *testing.T) {
	svc := &fakeDetectionService{entry: detectionEntry(t)}
	handler := newDetectionHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/results", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"anomaly_records"`)
	assert.Contains(t, body, `"row_id":0`)
	assert.Contains(t, body, `"claim_id":"CLM1"`)
}

func TestDetectionHandlerResultsNotDetected(t *testing.T) {
	svc := &fakeDetectionService{err: apierrors.ErrNoResults}
	handler := newDetectionHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/results", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NO_RESULTS")
}

func TestDetectionHandlerExportCSV(t *testing.T) {
	svc := &fakeDetectionService{body: []byte("row_id,claim_id\n"), filename: "anomalies_ds1.csv"}
	handler := newDetectionHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/results/export?format=csv", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", svc.gotFormat)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "anomalies_ds1.csv")
}

func TestDetectionHandlerExportXLSX(t *testing.T) {
	svc := &fakeDetectionService{body: []byte{0x50, 0x4B}, filename: "anomalies_ds1.xlsx"}
	handler := newDetectionHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/results/export?format=xlsx", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get("Content-Type"))
}

func TestDetectionHandlerExportUnsupportedFormat(t *testing.T) {
	svc := &fakeDetectionService{err: apierrors.ErrUnsupportedFormat}
	handler := newDetectionHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/results/export?format=pdf", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNSUPPORTED_FORMAT")
}
