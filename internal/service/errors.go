package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/liveflow/donor-service/internal/events"
	"github.com/liveflow/donor-service/internal/repository"
	apperrors "github.com/liveflow/donor-service/pkg/util"
)

// storeError maps repository sentinels onto the error taxonomy. Anything
// unrecognised is a failure of the store itself.
func storeError(err error, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrMalformedID):
		return apperrors.NewMalformedID(id)
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("document", map[string]any{"id": id})
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict("document already exists", map[string]any{"id": id})
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return apperrors.NewUpstreamFailure("store", err)
}

// publisher emits events without letting dispatch failures reach the caller.
type publisher struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

func (p publisher) publish(ctx context.Context, event events.Event) {
	if p.dispatcher == nil {
		return
	}
	if err := p.dispatcher.Publish(ctx, event); err != nil {
		p.logger.Warn("event publish failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err),
		)
	}
}
