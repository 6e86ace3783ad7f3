// Package kafka moves worker events across processes over a Kafka topic.
// Records are keyed by worker ID so every event for one worker lands on the
// same partition and is consumed in order.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"crafted/internal/events"
)

// Producer publishes events to the client's default produce topic.
type Producer struct {
	client *kgo.Client
}

func NewProducer(client *kgo.Client) *Producer {
	return &Producer{client: client}
}

func (p *Producer) Publish(ctx context.Context, event events.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	record := &kgo.Record{
		Key:   []byte(event.WorkerID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce %s for worker %s: %w", event.Type, event.WorkerID, err)
	}
	return nil
}
