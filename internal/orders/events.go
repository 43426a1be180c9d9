package orders

import (
	"context"
	"encoding/json"
	"time"
)

const (
	EventOrderCreated       = "OrderCreated"
	EventOrderPaid          = "OrderPaid"
	EventPaymentFailed      = "PaymentFailed"
	EventOrderStatusChanged = "OrderStatusChanged"
	EventOrderCompleted     = "OrderCompleted"
	EventNotification       = "Notification"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // one of the consts above
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

type ItemPrice struct {
	FoodItemID     string `json:"food_item_id"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type OrderCreatedPayload struct {
	OrderID    string      `json:"order_id"`
	BuyerID    string      `json:"buyer_id"`
	Items      []ItemPrice `json:"items"`
	TotalCents int64       `json:"total_cents"`
}

type OrderPaidPayload struct {
	OrderID     string `json:"order_id"`
	PaymentID   string `json:"payment_id"`
	AmountCents int64  `json:"amount_cents"`
	PickupCode  string `json:"pickup_code"`
}

type PaymentFailedPayload struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

type OrderStatusChangedPayload struct {
	OrderID string `json:"order_id"`
	From    Status `json:"from"`
	To      Status `json:"to"`
	ActorID string `json:"actor_id"`
}

type OrderCompletedPayload struct {
	OrderID   string `json:"order_id"`
	BuyerID   string `json:"buyer_id"`
	MealCount int    `json:"meal_count"`
}

type NotificationType string

const (
	NotifyOrderCreated   NotificationType = "order_created"
	NotifyOrderConfirmed NotificationType = "order_confirmed"
	NotifyOrderReady     NotificationType = "order_ready"
	NotifyOrderCompleted NotificationType = "order_completed"
)

type Notification struct {
	UserID      string           `json:"user_id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	RelatedID   string           `json:"related_id,omitempty"`
	RelatedType string           `json:"related_type,omitempty"`
}

// Notifier delivers user-facing notifications. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// ImpactRecorder accounts rescued meals for a buyer once per completed order.
type ImpactRecorder interface {
	RecordMeals(ctx context.Context, orderID, buyerID string, meals int) error
}

// EventPublisher emits order lifecycle events keyed by order id.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, orderID string, payload any)
}

// CodeEncoder renders a pickup code into a stored visual artifact and returns
// its public path.
type CodeEncoder interface {
	Encode(ctx context.Context, code string) (string, error)
}
