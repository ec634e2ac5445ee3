package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Domenick1991/equb/internal/domain"
	"github.com/segmentio/kafka-go"
)

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload interface{}) error
}

// ActivityPublisher sends activity feed entries to a topic, keyed by user
// so one member's feed stays ordered within a partition.
type ActivityPublisher struct {
	producer Publisher
	topic    string
}

func NewActivityPublisher(producer Publisher, topic string) *ActivityPublisher {
	return &ActivityPublisher{producer: producer, topic: topic}
}

func (p *ActivityPublisher) Record(ctx context.Context, activity domain.Activity) error {
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	return p.producer.Publish(ctx, p.topic, strconv.FormatInt(activity.UserID, 10), activity)
}

func DecodeActivity(msg kafka.Message) (domain.Activity, error) {
	var activity domain.Activity
	if err := json.Unmarshal(msg.Value, &activity); err != nil {
		return domain.Activity{}, fmt.Errorf("decode activity at offset %d: %w", msg.Offset, err)
	}
	if activity.UserID <= 0 || activity.Type == "" {
		return domain.Activity{}, fmt.Errorf("activity at offset %d is missing user or type", msg.Offset)
	}
	return activity, nil
}
