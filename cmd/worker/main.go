package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/food-rescue-orders/internal/config"
	kafkax "github.com/ariefcatur/food-rescue-orders/internal/kafka"
	"github.com/ariefcatur/food-rescue-orders/internal/logging"
	"github.com/ariefcatur/food-rescue-orders/internal/notify"
	"github.com/ariefcatur/food-rescue-orders/internal/orders"
	"github.com/ariefcatur/food-rescue-orders/internal/postgres"
	"github.com/ariefcatur/food-rescue-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName+"-worker")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, int32(cfg.PostgresMaxConns))
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notify.Service{
		Repo:  &notify.Repo{DB: db},
		Redis: rdb,
		Log:   log,
	}

	consumers := map[string]kafkax.Handler{
		orders.TopicNotifications:  svc.HandleNotification,
		orders.TopicOrderCompleted: svc.HandleOrderCompleted,
	}

	var wg sync.WaitGroup
	for topic, h := range consumers {
		c := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.WorkerGroup, topic, cfg.WorkerConcurrency, log)
		wg.Add(1)
		go func(topic string, h kafkax.Handler) {
			defer wg.Done()
			log.Info("consumer started",
				zap.String("group", cfg.WorkerGroup),
				zap.String("topic", topic),
				zap.Int("workers", cfg.WorkerConcurrency))
			if err := c.Start(ctx, h); err != nil {
				log.Error("consumer exit", zap.String("topic", topic), zap.Error(err))
				cancel()
			}
		}(topic, h)
	}

	if cfg.SweepInterval > 0 {
		sweeper := &orders.Service{Store: &orders.Repo{DB: db}, Log: log}
		wg.Add(1)
		go func() {
			defer wg.Done()
			sweep(ctx, sweeper, cfg.SweepInterval, log)
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down worker")
	cancel()
	wg.Wait()
}

// sweep marks lapsed reservations EXPIRED every interval until ctx ends.
func sweep(ctx context.Context, svc *orders.Service, interval time.Duration, log *zap.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := svc.SweepExpired(ctx); err != nil && ctx.Err() == nil {
				log.Error("reservation sweep", zap.Error(err))
			}
		}
	}
}
