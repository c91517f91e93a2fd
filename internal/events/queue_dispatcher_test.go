package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestQueueDispatcher_PublishDoesNotWaitForHandlers(t *testing.T) {
	d := NewQueueDispatcher(4, zap.NewNop())
	release := make(chan struct{})
	delivered := make(chan EventType, 4)
	d.Subscribe(EventDonorAssigned, func(_ context.Context, e Event) error {
		<-release
		delivered <- e.Type
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = d.Run(ctx)
	}()

	published := make(chan error, 1)
	go func() {
		published <- d.Publish(context.Background(), NewEvent(EventDonorAssigned, "req-1", "a@example.com", nil))
	}()
	select {
	case err := <-published:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow handler")
	}

	close(release)
	select {
	case got := <-delivered:
		assert.Equal(t, EventDonorAssigned, got)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
	cancel()
	<-done
}

func TestQueueDispatcher_FullQueue(t *testing.T) {
	d := NewQueueDispatcher(1, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, d.Publish(ctx, NewEvent(EventDonationRecorded, "pi_1", "", nil)))
	assert.ErrorIs(t, d.Publish(ctx, NewEvent(EventDonationRecorded, "pi_2", "", nil)), ErrQueueFull)
}

func TestQueueDispatcher_DrainsOnShutdown(t *testing.T) {
	d := NewQueueDispatcher(8, zap.NewNop())
	var got []string
	d.Subscribe(EventUserRoleChanged, func(_ context.Context, e Event) error {
		got = append(got, e.Subject)
		return nil
	})
	for _, subject := range []string{"a@example.com", "b@example.com"} {
		require.NoError(t, d.Publish(context.Background(), NewEvent(EventUserRoleChanged, subject, "admin@example.com", nil)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, d.Run(ctx))
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, got)
}
