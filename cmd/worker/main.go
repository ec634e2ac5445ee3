package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/equb/config"
	"github.com/Domenick1991/equb/internal/kafka"
	"github.com/Domenick1991/equb/internal/logger"
	"github.com/Domenick1991/equb/internal/metrics"
	"github.com/Domenick1991/equb/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	kafkaGo "github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Setup(cfg.Log); err != nil {
		log.Fatalf("setup logger: %v", err)
	}
	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatal("worker needs kafka.brokers")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	activities := repository.NewActivityRepository(pool)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.ActivityTopic)
	defer consumer.Close()

	log.WithFields(log.Fields{"topic": cfg.Kafka.ActivityTopic, "group": cfg.Kafka.GroupID}).Info("activity worker started")

	err = consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
		activity, err := kafka.DecodeActivity(msg)
		if err != nil {
			// a malformed event can never succeed, skip it
			log.WithError(err).Warn("drop activity event")
			metrics.ActivityEvent("decode", false)
			return nil
		}
		err = insertWithRetry(ctx, cfg.Worker.InsertAttempts, func(ctx context.Context) error {
			return activities.Insert(ctx, activity)
		})
		metrics.ActivityEvent("persist", err == nil)
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("consumer stopped: %v", err)
	}
	log.Info("activity worker stopped")
}

func insertWithRetry(ctx context.Context, attempts int, insert func(context.Context) error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = insert(ctx); err == nil {
			return nil
		}
		log.WithError(err).WithField("attempt", i+1).Warn("persist activity failed")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(i+1) * 500 * time.Millisecond):
		}
	}
	return err
}
