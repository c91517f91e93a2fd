package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/liveflow/donor-service/internal/config"
	"github.com/liveflow/donor-service/internal/events"
	"github.com/liveflow/donor-service/internal/observability"
)

func TestNotificationService_PostsEventsToWebhook(t *testing.T) {
	received := make(chan map[string]any, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, string(events.EventDonorAssigned), r.Header.Get("X-Event-Type"))
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		_ = json.Unmarshal(raw, &body)
		received <- body
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	metrics := observability.NewMetrics()
	svc := NewNotificationService(nil, zap.NewNop(), metrics, config.NotificationConfig{WebhookURL: server.URL, TimeoutSeconds: 2})

	event := events.NewEvent(events.EventDonorAssigned, "req-1", "d@example.com", events.BloodRequestPayload{RegistererEmail: "o@example.com"})
	require.NoError(t, svc.handle(context.Background(), event))

	body := <-received
	assert.Equal(t, "donor_assigned", body["type"])
	assert.Equal(t, "req-1", body["subject"])
	assert.Equal(t, int64(1), metrics.Snapshot().Events["donor_assigned|ok"])
}

func TestNotificationService_WebhookFailureSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	metrics := observability.NewMetrics()
	svc := NewNotificationService(nil, zap.NewNop(), metrics, config.NotificationConfig{WebhookURL: server.URL})

	err := svc.handle(context.Background(), events.NewEvent(events.EventDonationRecorded, "d-1", "", nil))
	assert.Error(t, err)
	assert.Equal(t, int64(1), metrics.Snapshot().Events["donation_recorded|failed"])
}

func TestNotificationService_NoWebhookConfigured(t *testing.T) {
	svc := NewNotificationService(nil, zap.NewNop(), nil, config.NotificationConfig{})
	for _, eventType := range events.AllEventTypes {
		assert.NoError(t, svc.handle(context.Background(), events.NewEvent(eventType, "s", "", nil)))
	}
}

func TestNotificationService_RegistersEveryEventType(t *testing.T) {
	dispatcher := events.NewQueueDispatcher(len(events.AllEventTypes), zap.NewNop())
	svc := NewNotificationService(dispatcher, zap.NewNop(), observability.NewMetrics(), config.NotificationConfig{})
	svc.RegisterHandlers()

	for _, eventType := range events.AllEventTypes {
		require.NoError(t, dispatcher.Publish(context.Background(), events.NewEvent(eventType, "s", "", nil)))
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, dispatcher.Run(ctx))

	snap := svc.metrics.Snapshot()
	for _, eventType := range events.AllEventTypes {
		assert.Equal(t, int64(1), snap.Events[string(eventType)+"|ok"], eventType)
	}
}
