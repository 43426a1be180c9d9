// Package notify carries user notifications, impact accounting and order
// lifecycle events from the settlement workflow to the worker over Kafka,
// and holds the worker-side handlers that persist them.
package notify

import (
	"context"
	"strconv"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/food-rescue-orders/internal/kafka"
	"github.com/ariefcatur/food-rescue-orders/internal/orders"
)

// Sink is the write side of one topic. *kafka.Producer satisfies it.
type Sink interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Publisher implements orders.Notifier, orders.ImpactRecorder and
// orders.EventPublisher on top of three topic sinks.
type Publisher struct {
	Events        Sink // order.events
	Notifications Sink // order.notifications
	Completions   Sink // order.completed
	ServiceName   string
	Log           *zap.Logger
}

var (
	_ orders.Notifier       = (*Publisher)(nil)
	_ orders.ImpactRecorder = (*Publisher)(nil)
	_ orders.EventPublisher = (*Publisher)(nil)
)

func (p *Publisher) Publish(_ context.Context, eventType, orderID string, payload any) {
	if err := p.send(p.Events, eventType, orderID, payload); err != nil {
		p.Log.Error("publish event", zap.String("event_type", eventType), zap.String("order_id", orderID), zap.Error(err))
	}
}

func (p *Publisher) Notify(_ context.Context, n orders.Notification) {
	if err := p.send(p.Notifications, orders.EventNotification, n.RelatedID, n); err != nil {
		p.Log.Error("publish notification", zap.String("user_id", n.UserID), zap.Error(err))
	}
}

// RecordMeals hands impact accounting to the worker. Delivery is at least
// once; the worker dedups by order id.
func (p *Publisher) RecordMeals(_ context.Context, orderID, buyerID string, meals int) error {
	return p.send(p.Completions, orders.EventOrderCompleted, orderID,
		orders.OrderCompletedPayload{OrderID: orderID, BuyerID: buyerID, MealCount: meals})
}

func (p *Publisher) send(sink Sink, eventType, orderID string, payload any) error {
	env, err := kafkax.Wrap(p.ServiceName, eventType, orderID, payload)
	if err != nil {
		return err
	}
	sink.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(env),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte(strconv.Itoa(env.EventVersion))},
	)
	return nil
}
