package http

import (
	"context"
	"io"

	"claimsight/internal/generator"
	"claimsight/internal/services"
	"claimsight/internal/store"
	"claimsight/pkg/contracts/domain"
)

// DataServiceInterface is the ingestion surface the data handler needs.
type DataServiceInterface interface {
	Upload(ctx context.Context, r io.Reader, filename string) (*domain.UploadResult, error)
	Generate(ctx context.Context, params generator.Params) (*domain.UploadResult, error)
}

// DetectionServiceInterface is the detection surface the detection handler
// needs.
type DetectionServiceInterface interface {
	Detect(ctx context.Context, datasetID string) (*store.Entry, error)
	Results(ctx context.Context, datasetID string) (*store.Entry, error)
	Export(ctx context.Context, datasetID, format string) ([]byte, string, error)
}

// HealthServiceInterface is the health surface the health handler needs.
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}
