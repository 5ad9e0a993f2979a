package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/minhvt/aquastore/internal/cart"
	"github.com/minhvt/aquastore/internal/catalog"
	"github.com/minhvt/aquastore/internal/config"
	"github.com/minhvt/aquastore/internal/httpx"
	"github.com/minhvt/aquastore/internal/inventory"
	kafkax "github.com/minhvt/aquastore/internal/kafka"
	"github.com/minhvt/aquastore/internal/orders"
	"github.com/minhvt/aquastore/internal/postgres"
	"github.com/minhvt/aquastore/internal/redisx"
	"github.com/minhvt/aquastore/internal/reviews"
	"github.com/minhvt/aquastore/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	pPlaced := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	pPlaced.Start(ctx)
	pCancelled := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCancelled, 1024)
	pCancelled.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatus, 1024)
	pStatus.Start(ctx)
	pStock := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicInventoryChanged, 1024)
	pStock.Start(ctx)

	// Repos & handlers
	pricing := orders.Pricing{
		FreeShippingThresholdCents: cfg.FreeShippingThresholdCents,
		ShippingFeeCents:           cfg.ShippingFeeCents,
	}
	h := httpx.Handlers{
		Auth: &httpx.AuthHandler{
			Users:  &users.Repo{DB: db},
			Secret: []byte(cfg.JWTSecret),
		},
		Catalog: &httpx.CatalogHandler{
			Products:          &catalog.Repo{DB: db},
			Audit:             &inventory.Repo{DB: db},
			InventoryProducer: pStock,
			Service:           cfg.ServiceName,
		},
		Cart: &httpx.CartHandler{Store: &cart.Repo{DB: db}},
		Orders: &httpx.OrdersHandler{
			Store:             &orders.Repo{DB: db, Pricing: pricing},
			PlacedProducer:    pPlaced,
			CancelledProducer: pCancelled,
			StatusProducer:    pStatus,
			Redis:             rdb,
			Service:           cfg.ServiceName,
		},
		Reviews:   &httpx.ReviewsHandler{Store: &reviews.Repo{DB: db}},
		JWTSecret: []byte(cfg.JWTSecret),
	}
	router := httpx.NewRouter()
	h.Mount(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	// flush buffered events before exiting
	producers := []*kafkax.Producer{pPlaced, pCancelled, pStatus, pStock}
	for _, p := range producers {
		p.Close()
	}
	for _, p := range producers {
		p.WaitClosed()
	}
	cancel()
}
