package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/empowher/marketplace/internal/config"
	"github.com/empowher/marketplace/internal/httpx"
	kafkax "github.com/empowher/marketplace/internal/kafka"
	"github.com/empowher/marketplace/internal/market"
	"github.com/empowher/marketplace/internal/memstore"
	"github.com/empowher/marketplace/internal/obs"
	"github.com/empowher/marketplace/internal/pgstore"
	"github.com/empowher/marketplace/internal/postgres"
	"github.com/empowher/marketplace/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := obs.NewLogger(cfg.ServiceName)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	var store market.Store
	if cfg.MemStore {
		store = memstore.New()
		log.Info("using in-memory store")
	} else {
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("db connect", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			log.Error("db schema", "err", err)
			os.Exit(1)
		}
		store = pgstore.New(db)
	}

	// Redis (optional in mem mode)
	var rdb *redis.Client
	if !cfg.MemStore {
		rdb = redisx.New(cfg.RedisAddr)
		defer rdb.Close()
	}

	// Event publishers
	var events market.Publisher = market.NopPublisher{}
	var producers []*kafkax.Producer
	if !cfg.MemStore {
		created := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderCreated, 1024, log)
		created.Start()
		status := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderStatus, 1024, log)
		status.Start()
		producers = append(producers, created, status)
		events = &market.KafkaPublisher{Created: created, Status: status}
	}

	svc := market.NewService(store, events, log, cfg.ServiceName)

	router := httpx.NewRouter(obs.NewServerMetrics("api"))
	(&httpx.ProductsHandler{Service: svc, Log: log}).RegisterPublic(router)
	router.Group(func(r chi.Router) {
		r.Use(httpx.RequireIdentity)
		(&httpx.OrdersHandler{Service: svc, Redis: rdb, Log: log}).Register(r)
		(&httpx.CartHandler{Service: svc, Log: log}).Register(r)
		(&httpx.NotificationsHandler{Service: svc, Redis: rdb, Log: log}).Register(r)
		(&httpx.ProductsHandler{Service: svc, Log: log}).Register(r)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	for _, p := range producers {
		p.Close()
	}
	for _, p := range producers {
		p.WaitClosed()
	}
}
