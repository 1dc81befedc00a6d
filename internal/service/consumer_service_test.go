package service

import (
	"context"
	"errors"
	"testing"

	"ai-study-assistant-be/internal/pkg/logger"
	"ai-study-assistant-be/pkg/events"
	"ai-study-assistant-be/pkg/llm"
	pktNats "ai-study-assistant-be/pkg/nats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingSubscriber struct {
	subject string
	handler pktNats.EventHandler
}

func (c *capturingSubscriber) Subscribe(_ context.Context, subject, _ string, handler pktNats.EventHandler) error {
	c.subject = subject
	c.handler = handler
	return nil
}

func TestConsumerService_HandlesMaterialEvents(t *testing.T) {
	pub := &fakePublisher{}
	sub := &capturingSubscriber{}
	cs := NewConsumerService(sub, newTestService(t, studyBackend(), pub), logger.NewNopLogger())

	require.NoError(t, cs.Consume(context.Background()))
	assert.Equal(t, "events.material.uploaded", sub.subject)

	evt := events.MaterialUploaded{Title: "Bio", Text: material, MimeType: "text/plain"}.Event()
	require.NoError(t, sub.handler(context.Background(), evt))
	assert.Equal(t, 1, pub.count())

	// Bad input is acknowledged, not redelivered.
	assert.NoError(t, sub.handler(context.Background(), events.BaseEvent{Type: events.TypeMaterialUploaded, Data: map[string]interface{}{}}))
	bad := events.MaterialUploaded{Text: "x", MimeType: "application/pdf"}.Event()
	assert.NoError(t, sub.handler(context.Background(), bad))
}

func TestConsumerService_BackendDownIsRetried(t *testing.T) {
	sub := &capturingSubscriber{}
	cs := NewConsumerService(sub, newTestService(t, &llm.MockProvider{Err: errors.New("down")}, nil), logger.NewNopLogger())
	require.NoError(t, cs.Consume(context.Background()))

	evt := events.MaterialUploaded{Title: "Bio", Text: material}.Event()
	assert.Error(t, sub.handler(context.Background(), evt))
}
