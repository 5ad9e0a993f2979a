// Package statuscache consumes order status events and keeps the Redis
// read cache warm, so status lookups rarely touch the database.
package statuscache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/minhvt/aquastore/internal/kafka"
	"github.com/minhvt/aquastore/internal/orders"
	"github.com/minhvt/aquastore/internal/redisx"
)

type Service struct {
	Redis       *redis.Client
	ServiceName string
}

// HandleOrderStatus is wired as the consumer handler for the order
// status topic. Events are deduplicated by event id; replays are no-ops.
func (s *Service) HandleOrderStatus(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderStatus {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.OrderStatusPayload](env.Payload)
	if err != nil {
		return err
	}

	body, _ := json.Marshal(map[string]string{"status": string(p.Status), "user_id": p.UserID})
	key := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)
	if err := s.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err(); err != nil {
		return err
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	slog.Info("order status cached",
		slog.String("order_id", p.OrderID),
		slog.String("status", string(p.Status)))
	return nil
}
