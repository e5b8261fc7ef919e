package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimsight/pkg/contracts/events"
)

func newTestClient(hub *Hub, buffer int) *Client {
	return &Client{
		hub:         hub,
		send:        make(chan []byte, buffer),
		id:          "test-client",
		connectedAt: time.Now(),
		logger:      hub.logger,
	}
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for hub.ClientCount() != want {
		select {
		case <-deadline:
			t.Fatalf("client count never reached %d (got %d)", want, hub.ClientCount())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestHubRegisterAndUnregister(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Stop()

	client := newTestClient(hub, 4)
	hub.Register(client)
	waitForClients(t, hub, 1)

	// Connect message is queued on registration.
	select {
	case data := <-client.send:
		var msg events.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, events.MessageTypeConnect, msg.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no connect message received")
	}

	hub.unregister <- client
	waitForClients(t, hub, 0)
}

func TestHubBroadcastSnapshot(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Stop()

	client := newTestClient(hub, 4)
	hub.Register(client)
	waitForClients(t, hub, 1)
	<-client.send // discard connect message

	hub.BroadcastSnapshot(events.DetectionSnapshot{
		RunID:          "run-1",
		DatasetID:      "ds-1",
		Status:         events.RunStatusCompleted,
		TotalRows:      100,
		TotalAnomalies: 7,
		AnomalyRate:    0.07,
	}, "trace-123")

	select {
	case data := <-client.send:
		var msg events.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, events.MessageTypeDetectionSnapshot, msg.Type)
		assert.Equal(t, "trace-123", msg.TraceID)

		payload, err := json.Marshal(msg.Data)
		require.NoError(t, err)
		var snapshot events.DetectionSnapshot
		require.NoError(t, json.Unmarshal(payload, &snapshot))
		assert.Equal(t, "run-1", snapshot.RunID)
		assert.Equal(t, 7, snapshot.TotalAnomalies)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot received")
	}
}

func TestHubDropsSlowConsumer(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Stop()

	// Buffer of one fills with the connect message; the broadcast cannot be
	// queued so the hub must disconnect the client.
	client := newTestClient(hub, 1)
	hub.Register(client)
	waitForClients(t, hub, 1)

	hub.BroadcastSnapshot(events.DetectionSnapshot{RunID: "run-slow"}, "")
	waitForClients(t, hub, 0)
}

func TestHubStats(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	defer hub.Stop()

	client := newTestClient(hub, 4)
	hub.Register(client)
	waitForClients(t, hub, 1)

	stats := hub.Stats()
	assert.Equal(t, 1, stats["active_clients"])
	assert.Equal(t, int64(1), stats["total_connections"])
}

func TestHubStopIsIdempotent(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	hub.Stop()
	hub.Stop()
	assert.Equal(t, 0, hub.ClientCount())
}
