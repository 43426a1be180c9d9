package notify

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/food-rescue-orders/internal/kafka"
	"github.com/ariefcatur/food-rescue-orders/internal/orders"
	"github.com/ariefcatur/food-rescue-orders/internal/redisx"
)

// Store is what the worker persists into.
type Store interface {
	InsertNotification(ctx context.Context, n orders.Notification) error
	RecordImpact(ctx context.Context, orderID, userID string, meals int) (bool, error)
}

// Service holds the consumer handlers run by the worker.
type Service struct {
	Repo  Store
	Redis *redis.Client
	Log   *zap.Logger
}

// HandleNotification persists one notification event. Redeliveries of the
// same event id are dropped.
func (s *Service) HandleNotification(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		s.Log.Warn("dropping undecodable notification", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventNotification {
		return nil
	}
	n, err := kafkax.UnwrapPayload[orders.Notification](env.Payload)
	if err != nil {
		s.Log.Warn("dropping notification", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	return s.once(ctx, "notifications", env.EventID, func() error {
		if err := s.Repo.InsertNotification(ctx, n); err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
		s.Log.Debug("notification stored",
			zap.String("user_id", n.UserID),
			zap.String("type", string(n.Type)),
			zap.String("related_id", n.RelatedID))
		return nil
	})
}

// HandleOrderCompleted runs impact accounting for a completed order, at most
// once per order id.
func (s *Service) HandleOrderCompleted(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.UnmarshalEnvelope(m.Value)
	if err != nil {
		s.Log.Warn("dropping undecodable completion", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventOrderCompleted {
		return nil
	}
	p, err := kafkax.UnwrapPayload[orders.OrderCompletedPayload](env.Payload)
	if err != nil || p.OrderID == "" {
		s.Log.Warn("dropping completion", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}

	return s.once(ctx, "impact", p.OrderID, func() error {
		applied, err := s.Repo.RecordImpact(ctx, p.OrderID, p.BuyerID, p.MealCount)
		if err != nil {
			return fmt.Errorf("record impact: %w", err)
		}
		s.Log.Info("impact recorded",
			zap.String("order_id", p.OrderID),
			zap.String("buyer_id", p.BuyerID),
			zap.Int("meals", p.MealCount),
			zap.String("co2_kg", CO2Saved(p.MealCount).String()),
			zap.Bool("applied", applied))
		return nil
	})
}

// once claims id for consumer in Redis before running fn and releases the
// claim when fn fails so the redelivery can retry.
func (s *Service) once(ctx context.Context, consumer, id string, fn func() error) error {
	claimed, err := redisx.Claim(ctx, s.Redis, consumer, id)
	if err != nil {
		return fmt.Errorf("dedup claim: %w", err)
	}
	if !claimed {
		s.Log.Debug("duplicate delivery skipped", zap.String("consumer", consumer), zap.String("id", id))
		return nil
	}
	if err := fn(); err != nil {
		if uerr := redisx.Unclaim(ctx, s.Redis, consumer, id); uerr != nil {
			s.Log.Warn("dedup release", zap.String("id", id), zap.Error(uerr))
		}
		return err
	}
	return nil
}
