package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/liveflow/donor-service/internal/events"
	"github.com/liveflow/donor-service/internal/service"
)

// runner is implemented by dispatchers that consume events asynchronously.
type runner interface {
	Run(ctx context.Context) error
}

// StartNotificationWorker registers notification handlers and, for
// asynchronous dispatchers, starts the consume loop. The returned channel is
// closed once the loop has stopped.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, dispatcher events.Dispatcher, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if notificationService == nil {
		close(done)
		return done
	}
	notificationService.RegisterHandlers()

	r, ok := dispatcher.(runner)
	if !ok {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("event consumer stopped", zap.Error(err))
		}
	}()
	return done
}
