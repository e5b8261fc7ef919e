package errors

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMiddleware(t *testing.T) *ErrorMiddleware {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	handler := NewErrorHandler(logger, false)
	return NewErrorMiddleware(handler, logger)
}

func TestErrorMiddleware_PassesThroughSuccess(t *testing.T) {
	m := newTestMiddleware(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true}`))
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)

	m.Handler(next).ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestErrorMiddleware_PreservesRequestBody(t *testing.T) {
	m := newTestMiddleware(t)

	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = string(body)
		w.WriteHeader(http.StatusBadRequest)
	})

	payload := `{"rows":99}`
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(payload))
	r.ContentLength = int64(len(payload))

	m.Handler(next).ServeHTTP(w, r)

	assert.Equal(t, payload, seen, "middleware must replay the captured body to the handler")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestErrorMiddleware_RecoversPanic(t *testing.T) {
	m := newTestMiddleware(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("upload handler exploded")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/upload", nil)

	m.Handler(next).ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, TypeInternal, body["type"])
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	handler := NewErrorHandler(logger, false)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/results", nil)

	RecoveryMiddleware(handler)(next).ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSanitizeRequestBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		redacted []string
		kept     []string
	}{
		{
			name:     "patient identifiers redacted",
			body:     `{"patient_name":"John Smith","dob":"1980-03-15","claim_amount":5000}`,
			redacted: []string{"patient_name", "dob"},
			kept:     []string{`"claim_amount":5000`},
		},
		{
			name:     "credentials redacted",
			body:     `{"api_key":"sk-123","password":"hunter2","rows":3000}`,
			redacted: []string{"api_key", "password"},
			kept:     []string{`"rows":3000`},
		},
		{
			name: "non-json left untouched",
			body: "rows=3000&error_rate=0.15",
			kept: []string{"rows=3000&error_rate=0.15"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeRequestBody(tt.body)
			for _, field := range tt.redacted {
				assert.Contains(t, got, `"`+field+`":"[REDACTED]"`)
			}
			for _, fragment := range tt.kept {
				assert.Contains(t, got, fragment)
			}
		})
	}
}
