package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"claimsight/internal/detectors"
	apierrors "claimsight/internal/errors"
	"claimsight/internal/exporter"
	"claimsight/internal/infrastructure"
	"claimsight/internal/store"
	"claimsight/pkg/contracts/events"
)

// SnapshotBroadcaster pushes detection-run snapshots to subscribers. The
// websocket hub implements it; tests substitute a recorder.
type SnapshotBroadcaster interface {
	BroadcastSnapshot(snapshot events.DetectionSnapshot, traceID string)
}

// DetectionService runs detection over stored datasets and serves the
// resulting reports and exports.
type DetectionService struct {
	cfg     detectors.Config
	store   *store.Store
	hub     SnapshotBroadcaster
	metrics *infrastructure.DetectionMetrics
	logger  *slog.Logger
}

// NewDetectionService wires a detection service. Hub and metrics may be
// nil; progress snapshots and counters are then skipped.
func NewDetectionService(st *store.Store, cfg detectors.Config, hub SnapshotBroadcaster, metrics *infrastructure.DetectionMetrics, logger *slog.Logger) *DetectionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DetectionService{
		cfg:     cfg,
		store:   st,
		hub:     hub,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "detection_service")),
	}
}

// Detect runs every detector family over the dataset and attaches the
// report to its store entry. An empty datasetID targets the most recently
// stored dataset. Progress snapshots are pushed as each family completes.
func (s *DetectionService) Detect(ctx context.Context, datasetID string) (*store.Entry, error) {
	entry, err := s.store.Resolve(datasetID)
	if err != nil {
		return nil, err
	}
	if entry.Table.NumRows() == 0 {
		return nil, apierrors.ErrEmptyDataset
	}

	run := &detectionRun{
		hub:     s.hub,
		traceID: infrastructure.GetTraceID(ctx),
		snapshot: events.DetectionSnapshot{
			RunID:     uuid.New().String(),
			DatasetID: entry.ID,
			Status:    events.RunStatusStarted,
			TotalRows: entry.Table.NumRows(),
			StartedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
	run.broadcast()

	engine := detectors.NewEngine(s.cfg, s.logger)
	engine.OnProgress = run.familyDone

	start := time.Now()
	report, err := engine.DetectAll(ctx, entry.Table)
	if err != nil {
		run.failed(err)
		if s.metrics != nil {
			s.metrics.RecordDetectionRun(ctx, time.Since(start), 0, false)
		}
		return nil, apierrors.NewDetectionError("detection run failed", err)
	}

	if err := s.store.AttachReport(entry.ID, report); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordDetectionRun(ctx, time.Since(start), report.Summary.TotalAnomalies, true)
	}

	run.completed(report)

	s.logger.InfoContext(ctx, "detection completed",
		slog.String("dataset_id", entry.ID),
		slog.String("run_id", run.snapshot.RunID),
		slog.Int("total_anomalies", report.Summary.TotalAnomalies),
		slog.Duration("duration", time.Since(start)))

	return s.store.Get(entry.ID)
}

// Results returns the entry carrying the requested report. An empty
// datasetID returns the most recently detected dataset.
func (s *DetectionService) Results(ctx context.Context, datasetID string) (*store.Entry, error) {
	return s.store.LatestReport(datasetID)
}

// Export renders the anomaly records of a detection report in the given
// format and returns the file body with a download filename.
func (s *DetectionService) Export(ctx context.Context, datasetID, format string) ([]byte, string, error) {
	entry, err := s.store.LatestReport(datasetID)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	var filename string
	switch format {
	case "", "csv":
		filename = exportFilename(entry.ID, "csv")
		err = exporter.WriteCSV(&buf, entry.Table, entry.Report)
	case "xlsx":
		filename = exportFilename(entry.ID, "xlsx")
		err = exporter.WriteXLSX(&buf, entry.Table, entry.Report)
	default:
		return nil, "", fmt.Errorf("%w: %q", apierrors.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, "", apierrors.NewStorageError("export failed", err)
	}

	if s.metrics != nil {
		s.metrics.ExportsTotal.Add(ctx, 1)
	}
	s.logger.InfoContext(ctx, "results exported",
		slog.String("dataset_id", entry.ID),
		slog.String("filename", filename),
		slog.Int("bytes", buf.Len()))

	return buf.Bytes(), filename, nil
}

func exportFilename(datasetID, ext string) string {
	id := datasetID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("anomalies_%s.%s", id, ext)
}

// detectionRun tracks one run's snapshot across concurrently completing
// detector families.
type detectionRun struct {
	mu       sync.Mutex
	hub      SnapshotBroadcaster
	traceID  string
	snapshot events.DetectionSnapshot
}

func (r *detectionRun) familyDone(family string, anomalies int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot.Status = events.RunStatusRunning
	r.snapshot.Detectors = append(r.snapshot.Detectors, events.DetectorState{
		Name:      family,
		Completed: true,
		Anomalies: anomalies,
	})
	r.snapshot.UpdatedAt = time.Now()
	r.broadcastLocked()
}

func (r *detectionRun) completed(report *detectors.Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot.Status = events.RunStatusCompleted
	r.snapshot.TotalAnomalies = report.Summary.TotalAnomalies
	r.snapshot.AnomalyRate = report.Summary.AnomalyRate
	r.snapshot.UpdatedAt = time.Now()
	r.broadcastLocked()
}

func (r *detectionRun) failed(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot.Status = events.RunStatusFailed
	r.snapshot.Error = err.Error()
	r.snapshot.UpdatedAt = time.Now()
	r.broadcastLocked()
}

func (r *detectionRun) broadcast() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked()
}

func (r *detectionRun) broadcastLocked() {
	if r.hub != nil {
		r.hub.BroadcastSnapshot(r.snapshot, r.traceID)
	}
}
