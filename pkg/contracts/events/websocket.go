// Package events contains the WebSocket event contract for the claimsight
// service. Clients subscribe once and receive detection-run snapshots.
package events

import "time"

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Core detection message - the primary event type
	MessageTypeDetectionSnapshot MessageType = "detection:snapshot"

	// System messages
	MessageTypeSystemStatus MessageType = "system:status"

	// Connection messages
	MessageTypeConnect    MessageType = "connect"
	MessageTypeDisconnect MessageType = "disconnect"
	MessageTypeError      MessageType = "error"
)

// Detection run statuses carried by snapshots.
const (
	RunStatusStarted   = "started"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Message is the envelope for every WebSocket message.
type Message struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// DetectorState reports one detector family inside a snapshot.
type DetectorState struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
	Anomalies int    `json:"anomalies"`
}

// DetectionSnapshot is the payload pushed while a detection run progresses.
// One snapshot is sent when the run starts, one per completed detector
// family, and a final one with the run's totals.
type DetectionSnapshot struct {
	RunID          string          `json:"run_id"`
	DatasetID      string          `json:"dataset_id"`
	Status         string          `json:"status"`
	Detectors      []DetectorState `json:"detectors"`
	TotalRows      int             `json:"total_rows"`
	TotalAnomalies int             `json:"total_anomalies"`
	AnomalyRate    float64         `json:"anomaly_rate"`
	StartedAt      time.Time       `json:"started_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Error          string          `json:"error,omitempty"`
}
