package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/domain"
	"github.com/Manishnemade12/Intelligent-Loan-Approval-System/pkg/requestcontext"
)

// Publisher records audit events: synchronously to the store, then
// best-effort to the optional Kafka sink.
type Publisher struct {
	store  Store
	sink   *KafkaSink
	logger *slog.Logger
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithKafkaSink mirrors recorded events onto Kafka.
func WithKafkaSink(sink *KafkaSink) Option {
	return func(p *Publisher) {
		p.sink = sink
	}
}

// NewPublisher creates a publisher writing to the given store.
func NewPublisher(store Store, logger *slog.Logger, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Record fills in event identity and request metadata, appends to the store
// and mirrors to Kafka. Returns the store error; transitions that have
// already committed log it rather than failing.
func (p *Publisher) Record(ctx context.Context, event Event) error {
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = requestcontext.Now(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "audit trail append failed",
			"action", string(event.Action),
			"application_id", event.ApplicationID.String(),
			"error", err,
		)
		return err
	}

	if p.sink != nil {
		p.sink.Publish(ctx, event)
	}
	return nil
}

// Trail returns the recorded events for one application, oldest first.
func (p *Publisher) Trail(ctx context.Context, id domain.ApplicationID) ([]Event, error) {
	return p.store.ListByApplication(ctx, id)
}
