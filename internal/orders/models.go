package orders

import "time"

type FoodItem struct {
	ID                 string     `json:"id"`
	RestaurantID       string     `json:"restaurant_id"`
	Name               string     `json:"name"`
	PriceCents         int64      `json:"price_cents"`
	OriginalPriceCents *int64     `json:"original_price_cents,omitempty"`
	TotalQuantity      int        `json:"total_quantity"` // portions ever created, minus confirmed sales
	IsAvailable        bool       `json:"is_available"`   // manual override by the restaurant
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Discount is derived from the original price; nil when there is no discount.
func (f FoodItem) Discount() *int {
	if f.OriginalPriceCents == nil || *f.OriginalPriceCents <= f.PriceCents || *f.OriginalPriceCents == 0 {
		return nil
	}
	d := int((*f.OriginalPriceCents - f.PriceCents) * 100 / *f.OriginalPriceCents)
	return &d
}

type ReservationStatus string

const (
	ReservationActive    ReservationStatus = "ACTIVE"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationExpired   ReservationStatus = "EXPIRED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

type Reservation struct {
	ID          string            `json:"id"`
	BuyerID     string            `json:"buyer_id"`
	FoodItemID  string            `json:"food_item_id"`
	OrderID     string            `json:"order_id"`
	OrderLineID string            `json:"order_line_id"`
	Quantity    int               `json:"quantity"`
	Status      ReservationStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

// Live reports whether the reservation still holds catalog quantity at now.
func (r Reservation) Live(now time.Time) bool {
	return r.Status == ReservationActive && r.ExpiresAt.After(now)
}

type Order struct {
	ID               string      `json:"id"`
	BuyerID          string      `json:"buyer_id"`
	Status           Status      `json:"status"`
	SubtotalCents    int64       `json:"subtotal_cents"`
	PlatformFeeCents int64       `json:"platform_fee_cents"`
	TotalCents       int64       `json:"total_cents"` // always equals SubtotalCents
	PickupCode       *string     `json:"pickup_code,omitempty"`
	QRCodePath       *string     `json:"qr_code_path,omitempty"`
	Notes            string      `json:"notes,omitempty"`
	Lines            []OrderLine `json:"lines"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
	PaidAt           *time.Time  `json:"paid_at,omitempty"`
	CompletedAt      *time.Time  `json:"completed_at,omitempty"`
}

// RestaurantIDs returns the distinct restaurants referenced by the order lines,
// in line order.
func (o *Order) RestaurantIDs() []string {
	seen := make(map[string]bool, len(o.Lines))
	out := make([]string, 0, len(o.Lines))
	for _, l := range o.Lines {
		if l.RestaurantID == "" || seen[l.RestaurantID] {
			continue
		}
		seen[l.RestaurantID] = true
		out = append(out, l.RestaurantID)
	}
	return out
}

// MealCount is the number of portions in the order.
func (o *Order) MealCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// OrderLine fields are a snapshot taken at creation time and never change.
type OrderLine struct {
	ID                   string `json:"id"`
	OrderID              string `json:"order_id"`
	FoodItemID           string `json:"food_item_id"`
	FoodName             string `json:"food_name"`
	RestaurantID         string `json:"restaurant_id"`
	Quantity             int    `json:"quantity"`
	UnitPriceCents       int64  `json:"unit_price_cents"`
	LineSubtotalCents    int64  `json:"line_subtotal_cents"`
	RestaurantShareCents int64  `json:"restaurant_share_cents"`
	PlatformShareCents   int64  `json:"platform_share_cents"`
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentSuccess  PaymentStatus = "SUCCESS"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Terminal reports whether the payment outcome is already settled.
func (s PaymentStatus) Terminal() bool {
	return s != PaymentPending
}

const PaymentMethodPayBox = "paybox"

type Payment struct {
	ID                    string        `json:"id"`
	OrderID               string        `json:"order_id"`
	BuyerID               string        `json:"buyer_id"`
	Method                string        `json:"method"`
	Status                PaymentStatus `json:"status"`
	AmountCents           int64         `json:"amount_cents"`
	ExternalPaymentID     string        `json:"external_payment_id"`
	ExternalTransactionID *string       `json:"external_transaction_id,omitempty"`
	RawCallbackPayload    *string       `json:"-"`
	FailureReason         *string       `json:"failure_reason,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
	PaidAt                *time.Time    `json:"paid_at,omitempty"`
}

// FoodAvailability is the listing view of a catalog item.
type FoodAvailability struct {
	FoodItem
	AvailableQuantity int  `json:"available_quantity"`
	InStock           bool `json:"in_stock"`
	DiscountPercent   *int `json:"discount_percent,omitempty"`
}
