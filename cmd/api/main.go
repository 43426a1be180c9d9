package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/food-rescue-orders/internal/config"
	"github.com/ariefcatur/food-rescue-orders/internal/httpx"
	kafkax "github.com/ariefcatur/food-rescue-orders/internal/kafka"
	"github.com/ariefcatur/food-rescue-orders/internal/logging"
	"github.com/ariefcatur/food-rescue-orders/internal/notify"
	"github.com/ariefcatur/food-rescue-orders/internal/orders"
	"github.com/ariefcatur/food-rescue-orders/internal/paybox"
	"github.com/ariefcatur/food-rescue-orders/internal/postgres"
	"github.com/ariefcatur/food-rescue-orders/internal/qrcode"
	"github.com/ariefcatur/food-rescue-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName)
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
	if cfg.AutoMigrate {
		if err := postgres.Migrate(ctx, db, log); err != nil {
			log.Fatal("migrate", zap.Error(err))
		}
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	events := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderEvents, 1024, log)
	notes := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicNotifications, 1024, log)
	completions := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCompleted, 1024, log)
	producers := []*kafkax.Producer{events, notes, completions}
	for _, p := range producers {
		p.Start(ctx)
	}
	pub := &notify.Publisher{
		Events:        events,
		Notifications: notes,
		Completions:   completions,
		ServiceName:   cfg.ServiceName,
		Log:           log,
	}

	repo := &orders.Repo{DB: db}
	svc := &orders.Service{
		Store: repo,
		Merchants: &paybox.Resolver{
			Default:  paybox.Credentials{MerchantID: cfg.PayBox.MerchantID, SecretKey: cfg.PayBox.SecretKey},
			Accounts: repo,
		},
		Codes:    &qrcode.FileStore{Dir: cfg.QRCodeDir, URLPrefix: cfg.QRCodeURLPrefix},
		Notifier: pub,
		Impact:   pub,
		Events:   pub,
		Settings: orders.Settings{
			FeeRate:                 cfg.Settlement.FeeRate(),
			ReservationTimeout:      cfg.Settlement.ReservationTimeout,
			ReleaseOnPaymentFailure: cfg.Settlement.ReleaseOnPaymentFailure,
			PickupCodePrefix:        cfg.Settlement.PickupCodePrefix,
			PayBox: paybox.Settings{
				PaymentURL:      cfg.PayBox.PaymentURL,
				SuccessURL:      cfg.PayBox.SuccessURL,
				FailureURL:      cfg.PayBox.FailureURL,
				ResultURL:       cfg.PayBox.ResultURL,
				Currency:        cfg.PayBox.Currency,
				LifetimeSeconds: cfg.PayBox.LifetimeSeconds,
			},
		},
		Log: log,
	}

	router := httpx.NewRouter(log)
	h := &httpx.Handler{Orders: svc, Redis: rdb, Log: log}
	h.Register(router)
	router.Handle(cfg.QRCodeURLPrefix+"/*", middleware.NoCache(http.StripPrefix(cfg.QRCodeURLPrefix, http.FileServer(http.Dir(cfg.QRCodeDir)))))

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	for _, p := range producers {
		p.Close() // flush inbox and close writer
	}
	for _, p := range producers {
		p.WaitClosed()
	}
}
