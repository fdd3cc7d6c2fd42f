package notification

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/task-mgmt/task-api/internal/task"
)

type EventHandler interface {
	HandleEvent(ctx context.Context, event task.TaskEvent) error
}

// Consumer reads task events from Kafka until its context is cancelled.
type Consumer struct {
	reader  *kafka.Reader
	handler EventHandler
}

func NewKafkaConsumer(brokers []string, topic, groupID string, handler EventHandler) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})

	return &Consumer{
		reader:  reader,
		handler: handler,
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	slog.Info("kafka consumer started",
		slog.String("topic", c.reader.Config().Topic),
		slog.String("group", c.reader.Config().GroupID),
	)

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.Error("read message failed", slog.Any("error", err))
			continue
		}

		var event task.TaskEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			slog.Error("malformed task event", slog.Any("error", err))
			continue
		}

		if err := c.handler.HandleEvent(ctx, event); err != nil {
			slog.Error("handle event failed",
				slog.String("task_id", event.TaskID),
				slog.Any("error", err),
			)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
