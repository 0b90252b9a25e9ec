// Package notifier consumes order events and keeps the redis read-side
// (status cache, unread counts) in step with what the API wrote.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/empowher/marketplace/internal/kafka"
	"github.com/empowher/marketplace/internal/market"
	"github.com/empowher/marketplace/internal/redisx"
)

type Service struct {
	Redis *redis.Client
	Log   *slog.Logger
	Name  string
}

// seen dedups on event id so a redelivered message is a no-op.
func (s *Service) seen(ctx context.Context, eventID string) bool {
	key := fmt.Sprintf(redisx.KeyDedup, s.Name, eventID)
	exists, _ := redisx.Exists(ctx, s.Redis, key)
	if exists {
		return true
	}
	_ = s.Redis.Set(ctx, key, "1", redisx.TTLDedup).Err()
	return false
}

func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env market.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != market.EventOrderCreated {
		return nil
	}
	if s.seen(ctx, env.EventID) {
		return nil
	}
	p, err := kafkax.UnwrapPayload[market.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}

	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)
	_ = s.Redis.Set(ctx, statusKey, `{"status":"pending"}`, redisx.TTLStatusCache).Err()

	// New seller notifications were written with the order; their cached
	// unread counts are stale now.
	for _, sellerID := range p.SellerIDs {
		_ = s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyUnreadCount, sellerID)).Err()
	}
	s.Log.Info("order created event", "order_id", p.OrderID, "order_ref", p.OrderRef, "sellers", len(p.SellerIDs))
	return nil
}

func (s *Service) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	var env market.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != market.EventOrderStatusChanged {
		return nil
	}
	if s.seen(ctx, env.EventID) {
		return nil
	}
	p, err := kafkax.UnwrapPayload[market.OrderStatusChangedPayload](env.Payload)
	if err != nil {
		return err
	}

	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, p.OrderID)
	_ = s.Redis.Set(ctx, statusKey, fmt.Sprintf(`{"status":%q}`, p.To), redisx.TTLStatusCache).Err()
	_ = s.Redis.Del(ctx, fmt.Sprintf(redisx.KeyUnreadCount, p.BuyerID)).Err()
	s.Log.Info("order status event", "order_id", p.OrderID, "from", p.From, "to", p.To)
	return nil
}
