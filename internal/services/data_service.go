package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"claimsight/internal/dataset"
	apierrors "claimsight/internal/errors"
	"claimsight/internal/etl"
	"claimsight/internal/generator"
	"claimsight/internal/infrastructure"
	"claimsight/internal/store"
	"claimsight/pkg/contracts/domain"
)

// DataService ingests datasets: uploaded files run through the full ETL
// pipeline, synthetic datasets come from the generator. Both end up in the
// store, keyed by dataset id.
type DataService struct {
	extractor   *etl.Extractor
	validator   *etl.Validator
	transformer *etl.Transformer
	preparer    *etl.Preparer
	generator   *generator.Generator
	store       *store.Store
	metrics     *infrastructure.DetectionMetrics
	logger      *slog.Logger
}

// NewDataService wires the ETL stages around the given store. Metrics may
// be nil, in which case ingestion counters are skipped.
func NewDataService(st *store.Store, metrics *infrastructure.DetectionMetrics, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataService{
		extractor:   etl.NewExtractor(logger),
		validator:   etl.NewValidator(logger),
		transformer: etl.NewTransformer(logger),
		preparer:    etl.NewPreparer(logger),
		generator:   generator.NewGenerator(logger),
		store:       st,
		metrics:     metrics,
		logger:      logger.With(slog.String("component", "data_service")),
	}
}

// Upload runs one uploaded file through extract, validate, transform and
// prepare, then stores the result. Validation issues abort the upload;
// warnings ride along in the response.
func (s *DataService) Upload(ctx context.Context, r io.Reader, filename string) (*domain.UploadResult, error) {
	table, err := s.extract(ctx, r, filename)
	if err != nil {
		return nil, err
	}

	validation := s.validator.Validate(table)
	if !validation.Valid {
		s.logger.WarnContext(ctx, "upload rejected by validation",
			slog.String("filename", filename),
			slog.Any("issues", validation.Issues))
		return nil, fmt.Errorf("%w: %s", apierrors.ErrInvalidUpload, strings.Join(validation.Issues, "; "))
	}

	cleaned, err := s.transformer.Transform(ctx, table)
	if err != nil {
		return nil, apierrors.NewParsingError("transform failed", err)
	}

	prepared, schema, err := s.preparer.Prepare(ctx, cleaned)
	if err != nil {
		return nil, apierrors.NewParsingError("prepare failed", err)
	}

	entry := s.store.Put(prepared, schema, "upload")
	if s.metrics != nil {
		s.metrics.UploadsTotal.Add(ctx, 1)
	}

	s.logger.InfoContext(ctx, "dataset uploaded",
		slog.String("dataset_id", entry.ID),
		slog.String("filename", filename),
		slog.Int("rows", prepared.NumRows()),
		slog.Int("columns", prepared.NumCols()))

	summary := s.preparer.Summarize(prepared, schema)
	result := s.buildResult(entry)
	result.Validation = validation
	result.Summary = summary
	result.Warnings = validation.Warnings
	return result, nil
}

// Generate synthesizes a claims dataset with planted errors and stores it.
func (s *DataService) Generate(ctx context.Context, params generator.Params) (*domain.UploadResult, error) {
	table, injected, err := s.generator.Generate(ctx, params)
	if err != nil {
		return nil, apierrors.NewDetectionError("generation failed", err)
	}

	prepared, schema, err := s.preparer.Prepare(ctx, table)
	if err != nil {
		return nil, apierrors.NewParsingError("prepare failed", err)
	}

	entry := s.store.Put(prepared, schema, "generated")
	if s.metrics != nil {
		s.metrics.GeneratedTotal.Add(ctx, 1)
	}

	s.logger.InfoContext(ctx, "dataset generated",
		slog.String("dataset_id", entry.ID),
		slog.Int("rows", prepared.NumRows()),
		slog.Int("duplicates", injected.Duplicates),
		slog.Int("missing_values", injected.MissingValues),
		slog.Int("inconsistencies", injected.Inconsistencies),
		slog.Int("outliers", injected.Outliers))

	result := s.buildResult(entry)
	result.Summary = s.preparer.Summarize(prepared, schema)
	result.Injected = injected
	return result, nil
}

// Dataset resolves a dataset by id, or the most recent one when id is
// empty.
func (s *DataService) Dataset(ctx context.Context, id string) (*store.Entry, error) {
	return s.store.Resolve(id)
}

func (s *DataService) extract(ctx context.Context, r io.Reader, filename string) (*dataset.Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return s.extractor.ExtractCSV(ctx, r)
	case ".xlsx", ".xlsm":
		return s.extractor.ExtractXLSX(ctx, r)
	default:
		return nil, fmt.Errorf("%w: %q", apierrors.ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

func (s *DataService) buildResult(entry *store.Entry) *domain.UploadResult {
	result := &domain.UploadResult{
		Dataset: domain.DatasetInfo{
			ID:          entry.ID,
			Source:      entry.Source,
			Rows:        entry.Table.NumRows(),
			Columns:     entry.Table.NumCols(),
			Fingerprint: entry.Fingerprint,
			StoredAt:    entry.StoredAt,
		},
	}
	for _, column := range entry.Schema.Columns() {
		result.Columns = append(result.Columns, domain.ColumnProfile{
			Name:       column,
			Role:       entry.Schema.Role(column).String(),
			Uniqueness: entry.Schema.Uniqueness(column),
		})
	}
	return result
}
