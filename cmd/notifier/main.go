package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/empowher/marketplace/internal/config"
	kafkax "github.com/empowher/marketplace/internal/kafka"
	"github.com/empowher/marketplace/internal/market"
	"github.com/empowher/marketplace/internal/notifier"
	"github.com/empowher/marketplace/internal/obs"
	"github.com/empowher/marketplace/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := obs.NewLogger(cfg.ServiceName + "-notifier")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &notifier.Service{Redis: rdb, Log: log, Name: "notifier"}

	group := getenv("NOTIFIER_GROUP", "notifier-svc")
	workers := atoiOr(os.Getenv("NOTIFIER_WORKERS"), 4)

	created := kafkax.NewConsumer(cfg.KafkaBrokers, group, market.TopicOrderCreated, workers, log)
	status := kafkax.NewConsumer(cfg.KafkaBrokers, group, market.TopicOrderStatus, workers, log)

	go func() {
		log.Info("consumer started", "topic", market.TopicOrderCreated, "group", group, "workers", workers)
		if err := created.Start(ctx, svc.HandleOrderCreated); err != nil {
			log.Error("consumer exit", "topic", market.TopicOrderCreated, "err", err)
			cancel()
		}
	}()
	go func() {
		log.Info("consumer started", "topic", market.TopicOrderStatus, "group", group, "workers", workers)
		if err := status.Start(ctx, svc.HandleStatusChanged); err != nil {
			log.Error("consumer exit", "topic", market.TopicOrderStatus, "err", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumers")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil || i <= 0 {
		return def
	}
	return i
}
