package orders

import (
	"context"
	"time"
)

// Store is the persistence boundary of the settlement workflow. Reads outside
// InTx see committed state only; every write happens inside InTx.
type Store interface {
	// InTx runs fn in a single transaction. A non-nil error from fn rolls
	// back everything fn wrote.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	GetOrder(ctx context.Context, id string) (*Order, error)
	ListOrdersByBuyer(ctx context.Context, buyerID string) ([]Order, error)
	GetPaymentByOrder(ctx context.Context, orderID string) (*Payment, error)
	GetFoodItem(ctx context.Context, id string) (*FoodItem, error)
	ListFoodItems(ctx context.Context) ([]FoodItem, error)
	HeldQuantities(ctx context.Context, foodIDs []string, now time.Time) (map[string]int, error)
	ExpireReservations(ctx context.Context, now time.Time) (int64, error)
}

// Tx is the write side. Lock* methods take row locks held until the
// transaction ends, which is what serializes concurrent checkouts of the same
// food item and duplicate callbacks for the same order.
type Tx interface {
	LockFoodItems(ctx context.Context, ids []string) (map[string]FoodItem, error)
	HeldQuantities(ctx context.Context, foodIDs []string, now time.Time) (map[string]int, error)
	DecrementFoodQuantity(ctx context.Context, foodID string, qty int) error

	InsertOrder(ctx context.Context, o *Order) error
	LockOrder(ctx context.Context, id string) (*Order, error)
	LockOrderByPickupCode(ctx context.Context, code string) (*Order, error)
	UpdateOrder(ctx context.Context, o *Order) error

	InsertReservations(ctx context.Context, rs []Reservation) error
	OrderReservations(ctx context.Context, orderID string) ([]Reservation, error)
	SetReservationStatus(ctx context.Context, id string, status ReservationStatus) error

	LockPaymentByOrder(ctx context.Context, orderID string) (*Payment, error)
	InsertPayment(ctx context.Context, p *Payment) error
	UpdatePayment(ctx context.Context, p *Payment) error
}
