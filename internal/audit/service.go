package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"reestr/pkg/requestcontext"
)

// Publisher mirrors an event to an external sink.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Service stamps and records audit events. A store failure is logged and
// swallowed so the operation being audited is never rolled back by it.
type Service struct {
	store     Store
	publisher Publisher
	logger    *slog.Logger
}

func NewService(store Store, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, publisher: publisher, logger: logger}
}

// Record fills in the event identity, timestamp and request correlation,
// then persists and optionally publishes it.
func (s *Service) Record(ctx context.Context, event Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.At.IsZero() {
		event.At = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if err := s.store.Append(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to append audit event",
			"action", event.Action,
			"error", err,
		)
	}
	if s.publisher != nil {
		s.publisher.Publish(ctx, event)
	}
}

// Recent returns up to limit events, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]Event, error) {
	return s.store.ListRecent(ctx, limit)
}
