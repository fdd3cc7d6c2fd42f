package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	sloghttp "github.com/samber/slog-http"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/task-mgmt/task-api/internal/cfg"
	"github.com/task-mgmt/task-api/internal/task"
)

const shutdownTimeout = 10 * time.Second

func main() {
	conf, err := cfg.Parse()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: conf.Logger.SlogLevel(),
	}))
	slog.SetDefault(logger)

	db := mustConnectDB(conf.Database)
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to access sql DB: %v", err)
	}
	defer sqlDB.Close()

	if err := task.Migrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	var cache *task.Cache
	if conf.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
		})
		defer client.Close()
		cache = task.NewCache(client, conf.Redis.CacheTTL)
		slog.Info("task cache enabled", slog.String("addr", conf.Redis.Addr))
	}

	var producer task.EventProducer
	if len(conf.Kafka.Brokers) > 0 {
		producer = task.NewKafkaProducer(conf.Kafka.Brokers, conf.Kafka.Topic)
		defer producer.Close()
		slog.Info("task events enabled", slog.String("topic", conf.Kafka.Topic))
	}

	repo := task.NewRepository(db)
	service := task.NewTaskService(repo, cache, producer)
	handler := task.NewHandler(service, db)

	server := &http.Server{
		Addr:    conf.HTTP.Address,
		Handler: applyMiddleware(handler, conf, logger),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		slog.Info("http server listening", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		slog.Error("server error", slog.Any("error", err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", slog.Any("error", err))
	}
	slog.Info("task service stopped")
}

func mustConnectDB(conf cfg.Database) *gorm.DB {
	var dialector gorm.Dialector
	switch conf.Driver {
	case "postgres":
		dialector = postgres.Open(conf.PostgresDSN())
	case "sqlite":
		dialector = sqlite.Open(conf.DSN)
	default:
		log.Fatalf("unsupported database driver: %q", conf.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("failed to init sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(conf.MaxOpenConns)
	sqlDB.SetMaxIdleConns(conf.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db
}

func applyMiddleware(h http.Handler, conf *cfg.Config, logger *slog.Logger) http.Handler {
	handler := h
	handler = task.RequestSizeLimitMiddleware(conf.HTTP.MaxBodySize)(handler)
	handler = task.CORSMiddleware(conf.HTTP.AllowedOrigins)(handler)
	handler = task.SecurityHeadersMiddleware(handler)
	handler = sloghttp.Recovery(handler)
	handler = sloghttp.New(logger)(handler)
	return handler
}
