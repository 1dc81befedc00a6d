package service

import (
	"context"

	"ai-study-assistant-be/internal/entity"
	"ai-study-assistant-be/pkg/events"
)

// EventPublisher is satisfied by the NATS publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IPublisherService interface {
	PublishSessionSynthesized(ctx context.Context, session *entity.StudySession) error
}

type publisherService struct {
	publisher EventPublisher
}

// NewPublisherService returns nil when no bus is configured so callers can skip publishing.
func NewPublisherService(publisher EventPublisher) IPublisherService {
	if publisher == nil {
		return nil
	}
	return &publisherService{publisher: publisher}
}

func (p *publisherService) PublishSessionSynthesized(ctx context.Context, session *entity.StudySession) error {
	return p.publisher.Publish(ctx, events.SessionSynthesized(
		session.Id.String(),
		session.Title,
		len(session.Units),
		session.UnitsFallback || session.OutlineFallback,
	))
}
