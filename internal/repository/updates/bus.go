// Package updates fans record changes out to in-process watchers.
package updates

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-study-assistant-be/internal/repository/contract"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const topicPrefix = "record."

type Bus struct {
	pubSub *gochannel.GoChannel
}

func NewBus() *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 16},
			watermill.NewStdLogger(false, false),
		),
	}
}

func Topic(key string) string {
	return topicPrefix + key
}

// Publish announces a new version of key. A nil record announces a delete.
func (b *Bus) Publish(key string, record contract.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record update: %w", err)
	}
	return b.pubSub.Publish(Topic(key), message.NewMessage(watermill.NewUUID(), payload))
}

// Subscribe registers for updates of key before returning, so callers can take a
// snapshot afterwards without missing a change. The channel closes when ctx is done.
func (b *Bus) Subscribe(ctx context.Context, key string) (<-chan contract.Record, error) {
	messages, err := b.pubSub.Subscribe(ctx, Topic(key))
	if err != nil {
		return nil, err
	}

	out := make(chan contract.Record)
	go func() {
		defer close(out)
		for msg := range messages {
			var record contract.Record
			if err := json.Unmarshal(msg.Payload, &record); err != nil {
				msg.Ack()
				continue
			}
			select {
			case out <- record:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()
	return out, nil
}

// Watch is the common StreamUpdates loop shared by stores that publish on a Bus.
func (b *Bus) Watch(ctx context.Context, key string, snapshot func() (contract.Record, bool, error), callback func(contract.Record)) error {
	updates, err := b.Subscribe(ctx, key)
	if err != nil {
		return err
	}

	if rec, found, err := snapshot(); err != nil {
		return err
	} else if found {
		callback(rec)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case rec, ok := <-updates:
			if !ok {
				return nil
			}
			callback(rec)
		}
	}
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}
