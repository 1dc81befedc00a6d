package service

import (
	"context"

	"ai-study-assistant-be/internal/dto"
	"ai-study-assistant-be/internal/pkg/logger"
	"ai-study-assistant-be/pkg/apperror"
	"ai-study-assistant-be/pkg/events"
	pktNats "ai-study-assistant-be/pkg/nats"
)

const consumerDurable = "study-material-consumer"

type EventSubscriber interface {
	Subscribe(ctx context.Context, subject, durableName string, handler pktNats.EventHandler) error
}

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber EventSubscriber
	study      IStudyService
	logger     logger.ILogger
}

func NewConsumerService(subscriber EventSubscriber, study IStudyService, log logger.ILogger) IConsumerService {
	return &consumerService{subscriber: subscriber, study: study, logger: log}
}

// Consume synthesizes sessions for material uploaded through other services.
// It returns once the subscription is established.
func (cs *consumerService) Consume(ctx context.Context) error {
	return cs.subscriber.Subscribe(ctx, pktNats.Subject(events.TypeMaterialUploaded), consumerDurable, cs.handle)
}

func (cs *consumerService) handle(ctx context.Context, event events.Event) error {
	material, err := events.MaterialUploadedFrom(event)
	if err != nil {
		cs.logger.Warn("NATS", "Ignoring invalid material event", map[string]interface{}{"error": err})
		return nil
	}

	res, err := cs.study.CreateFromText(ctx, &dto.CreateTextSessionRequest{
		Title:    material.Title,
		Text:     material.Text,
		MimeType: material.MimeType,
	})
	if err != nil {
		switch apperror.KindOf(err) {
		case apperror.KindValidation, apperror.KindExtraction, apperror.KindParse:
			// Redelivery cannot fix bad input.
			cs.logger.Warn("NATS", "Material rejected", map[string]interface{}{"title": material.Title, "error": err})
			return nil
		}
		return err
	}

	cs.logger.Info("NATS", "Material synthesized from event", map[string]interface{}{"session_id": res.Id, "units": len(res.Units)})
	return nil
}
