package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimsight/internal/store"
)

type staticClientCounter int

func (c staticClientCounter) ClientCount() int { return int(c) }

func TestHealthServiceHealthCheck(t *testing.T) {
	st := store.New(4, 0)
	t.Cleanup(st.Close)

	hs := NewHealthService("1.2.3", st, staticClientCounter(2), nil)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	require.Contains(t, status.Services, "store")
	require.Contains(t, status.Services, "websocket")
}

func TestHealthServiceDegradedWithoutHub(t *testing.T) {
	st := store.New(4, 0)
	t.Cleanup(st.Close)

	hs := NewHealthService("1.2.3", st, nil, nil)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "degraded", status.Status)

	ready := hs.ReadinessCheck(context.Background())
	assert.Equal(t, "not_ready", ready.Status)
}

func TestHealthServiceLiveness(t *testing.T) {
	hs := NewHealthService("1.2.3", nil, nil, nil)

	status := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", status.Status)
	assert.Contains(t, status.Runtime, "go_version")
}

func TestHealthServiceVersion(t *testing.T) {
	hs := NewHealthService("1.2.3", nil, nil, nil)

	info := hs.Version()
	assert.Equal(t, "1.2.3", info["version"])
	assert.NotEmpty(t, info["go_version"])
}
