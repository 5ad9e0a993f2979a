package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/minhvt/aquastore/internal/config"
	kafkax "github.com/minhvt/aquastore/internal/kafka"
	"github.com/minhvt/aquastore/internal/orders"
	"github.com/minhvt/aquastore/internal/redisx"
	"github.com/minhvt/aquastore/internal/statuscache"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &statuscache.Service{
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-worker",
	}

	group := getenv("WORKER_GROUP", "aquastore-worker")
	workers := mustAtoi(os.Getenv("WORKER_COUNT"), 8)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicOrderStatus, workers)

	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Printf("status consumer started: group=%s topic=%s workers=%d", group, orders.TopicOrderStatus, workers)
		if err := cons.Start(ctx, svc.HandleOrderStatus); err != nil {
			log.Printf("consumer exit: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	<-done
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
