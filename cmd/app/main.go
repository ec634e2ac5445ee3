package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/equb/config"
	"github.com/Domenick1991/equb/internal/bootstrap"
	"github.com/Domenick1991/equb/internal/cache"
	"github.com/Domenick1991/equb/internal/kafka"
	"github.com/Domenick1991/equb/internal/logger"
	"github.com/Domenick1991/equb/internal/repository"
	"github.com/Domenick1991/equb/internal/service/reservation"
	"github.com/Domenick1991/equb/internal/service/tickets"
	"github.com/Domenick1991/equb/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := newPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	receipts, err := storage.NewLocalStore(cfg.Storage.ReceiptDir)
	if err != nil {
		log.Fatalf("receipt storage: %v", err)
	}

	redisCache := cache.NewRedisCache(cfg.Redis)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	ticketRepo := repository.NewTicketRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	ticketService := tickets.NewTicketService(ticketRepo, redisCache, tickets.PageLimits{
		PoolSize:     cfg.Equb.TicketPoolSize,
		DefaultLimit: cfg.Equb.BoardPageLimit,
		MaxLimit:     cfg.Equb.BoardPageMaxLimit,
	})
	if _, err := ticketService.InitPool(ctx); err != nil {
		log.Fatalf("init ticket pool: %v", err)
	}

	opts := []reservation.ReservationServiceOption{reservation.WithBoardInvalidator(redisCache)}
	if len(cfg.Kafka.Brokers) > 0 {
		opts = append(opts, reservation.WithActivitySink(kafka.NewActivityPublisher(producer, cfg.Kafka.ActivityTopic)))
	} else {
		log.Warn("no kafka brokers configured, activity feed disabled")
	}
	reservationService := reservation.NewReservationService(
		repository.NewStore(pool),
		ticketRepo,
		paymentRepo,
		receipts,
		reservation.Limits{
			PoolSize:            cfg.Equb.TicketPoolSize,
			MaxReceiptBytes:     cfg.Equb.MaxReceiptBytes,
			AllowedReceiptTypes: cfg.Equb.AllowedReceiptTypes,
		},
		opts...,
	)

	health := []bootstrap.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "redis", Check: redisCache.Ping},
	}
	if len(cfg.Kafka.Brokers) > 0 {
		health = append(health, bootstrap.HealthCheck{Name: "kafka", Check: producer.CheckConnection})
	}

	if err := bootstrap.Run(ctx, cfg, bootstrap.Dependencies{
		Tickets:     ticketService,
		Reservation: reservationService,
		Settings:    repository.NewSettingsRepository(pool),
		Receipts:    receipts,
		Health:      health,
	}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func newPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, err
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	return pgxpool.NewWithConfig(ctx, poolCfg)
}
