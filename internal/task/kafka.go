package task

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// TaskEvent is published to Kafka whenever a task is created, updated or
// deleted. Consumers (see internal/notification) decode the same shape.
type TaskEvent struct {
	TaskID    string    `json:"task_id"`
	Action    string    `json:"action"`
	Status    string    `json:"status,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	ActionCreated = "task.created"
	ActionUpdated = "task.updated"
	ActionDeleted = "task.deleted"
)

type EventProducer interface {
	SendTaskEvent(ctx context.Context, event TaskEvent) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(brokers []string, topic string) EventProducer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}

	return &kafkaProducer{writer: writer}
}

func (p *kafkaProducer) SendTaskEvent(ctx context.Context, event TaskEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	message := kafka.Message{
		Key:   []byte(event.TaskID),
		Value: value,
		Time:  event.Timestamp,
	}

	return p.writer.WriteMessages(ctx, message)
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}
