package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/task-mgmt/task-api/internal/cfg"
	"github.com/task-mgmt/task-api/internal/notification"
)

func main() {
	conf, err := cfg.Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: conf.Logger.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if len(conf.Kafka.Brokers) == 0 {
		log.Fatal("TASKAPI_KAFKA_BROKERS must be set")
	}
	if conf.Kafka.Topic == "" {
		log.Fatal("TASKAPI_KAFKA_TOPIC must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := notification.NewLogNotifier(logger)
	handler := notification.NewEventHandler(notifier)
	consumer := notification.NewKafkaConsumer(conf.Kafka.Brokers, conf.Kafka.Topic, conf.Kafka.GroupID, handler)
	defer consumer.Close()

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("consumer error", slog.Any("error", err))
	}

	slog.Info("notifier stopped")
}
