package app

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimsight/internal/config"
	"claimsight/internal/infrastructure"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:    "claimsight-test",
		ServiceVersion: "test",
		Environment:    "test",
		TraceExporter:  "none",
		MetricExporter: "none",
	}, logger)
	require.NoError(t, err)

	metrics, err := infrastructure.CreateDetectionMetrics(providers.Meter)
	require.NoError(t, err)

	app := &Application{
		Config:        config.Default(),
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
	}
	app.initializeServices()
	app.setupRouter()
	app.createServer()

	t.Cleanup(func() {
		app.WebSocketHub.Stop()
		app.Store.Close()
	})
	return app
}

func TestApplicationHealthEndpoint(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestApplicationGenerateDetectResultsFlow(t *testing.T) {
	app := newTestApplication(t)

	// Generate a dataset.
	req := httptest.NewRequest(http.MethodPost, "/api/generate?rows=1000&error_rate=0.2&seed=17", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var generated struct {
		Dataset struct {
			ID string `json:"dataset_id"`
		} `json:"dataset"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &generated))
	require.NotEmpty(t, generated.Dataset.ID)

	// Run detection over it.
	req = httptest.NewRequest(http.MethodPost, "/api/detect?dataset_id="+generated.Dataset.ID, nil)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var detected struct {
		Summary struct {
			TotalAnomalies int `json:"total_anomalies"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detected))
	assert.Greater(t, detected.Summary.TotalAnomalies, 0)

	// Fetch the results.
	req = httptest.NewRequest(http.MethodGet, "/api/results", nil)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"anomaly_records"`)

	// Export them as CSV.
	req = httptest.NewRequest(http.MethodGet, "/api/results/export?format=csv", nil)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestApplicationDetectWithoutDatasets(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodPost, "/api/detect", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "NO_DATASETS")
}

func TestApplicationResultsBeforeDetection(t *testing.T) {
	app := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/results", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
