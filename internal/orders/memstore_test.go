package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory Store. InTx holds one global lock for the whole
// transaction, which stands in for the row locks of the Postgres store, and
// restores a snapshot when fn fails.
type memStore struct {
	mu           sync.Mutex
	foods        map[string]FoodItem
	orders       map[string]Order
	reservations map[string]Reservation
	payments     map[string]Payment // by order id
}

func newMemStore(foods ...FoodItem) *memStore {
	s := &memStore{
		foods:        map[string]FoodItem{},
		orders:       map[string]Order{},
		reservations: map[string]Reservation{},
		payments:     map[string]Payment{},
	}
	for _, f := range foods {
		s.foods[f.ID] = f
	}
	return s
}

type memSnapshot struct {
	foods        map[string]FoodItem
	orders       map[string]Order
	reservations map[string]Reservation
	payments     map[string]Payment
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		foods:        make(map[string]FoodItem, len(s.foods)),
		orders:       make(map[string]Order, len(s.orders)),
		reservations: make(map[string]Reservation, len(s.reservations)),
		payments:     make(map[string]Payment, len(s.payments)),
	}
	for k, v := range s.foods {
		snap.foods[k] = v
	}
	for k, v := range s.orders {
		snap.orders[k] = cloneOrder(v)
	}
	for k, v := range s.reservations {
		snap.reservations[k] = v
	}
	for k, v := range s.payments {
		snap.payments[k] = v
	}
	return snap
}

func cloneOrder(o Order) Order {
	o.Lines = append([]OrderLine(nil), o.Lines...)
	return o
}

func (s *memStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&memTx{s: s}); err != nil {
		s.foods, s.orders, s.reservations, s.payments = snap.foods, snap.orders, snap.reservations, snap.payments
		return err
	}
	return nil
}

func (s *memStore) GetOrder(_ context.Context, id string) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order(id)
}

func (s *memStore) order(id string) (*Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
	}
	c := cloneOrder(o)
	return &c, nil
}

func (s *memStore) ListOrdersByBuyer(_ context.Context, buyerID string) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.BuyerID == buyerID {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) GetPaymentByOrder(_ context.Context, orderID string) (*Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payment(orderID)
}

func (s *memStore) payment(orderID string) (*Payment, error) {
	p, ok := s.payments[orderID]
	if !ok {
		return nil, fmt.Errorf("%w: payment", ErrNotFound)
	}
	return &p, nil
}

func (s *memStore) GetFoodItem(_ context.Context, id string) (*FoodItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.foods[id]
	if !ok {
		return nil, fmt.Errorf("%w: food item %s", ErrNotFound, id)
	}
	return &f, nil
}

func (s *memStore) ListFoodItems(context.Context) ([]FoodItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FoodItem, 0, len(s.foods))
	for _, f := range s.foods {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) HeldQuantities(_ context.Context, foodIDs []string, now time.Time) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held(foodIDs, now), nil
}

func (s *memStore) held(foodIDs []string, now time.Time) map[string]int {
	want := make(map[string]bool, len(foodIDs))
	for _, id := range foodIDs {
		want[id] = true
	}
	out := map[string]int{}
	for _, r := range s.reservations {
		if want[r.FoodItemID] && r.Live(now) {
			out[r.FoodItemID] += r.Quantity
		}
	}
	return out
}

func (s *memStore) ExpireReservations(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, r := range s.reservations {
		if r.Status == ReservationActive && !r.ExpiresAt.After(now) {
			r.Status = ReservationExpired
			s.reservations[id] = r
			n++
		}
	}
	return n, nil
}

// reservationsOf returns the order's reservations sorted by line id.
func (s *memStore) reservationsOf(orderID string) []Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderReservations(orderID)
}

func (s *memStore) orderReservations(orderID string) []Reservation {
	var out []Reservation
	for _, r := range s.reservations {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderLineID < out[j].OrderLineID })
	return out
}

func (s *memStore) counts() (orders, reservations, payments int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders), len(s.reservations), len(s.payments)
}

type memTx struct{ s *memStore }

func (t *memTx) LockFoodItems(_ context.Context, ids []string) (map[string]FoodItem, error) {
	out := map[string]FoodItem{}
	for _, id := range ids {
		if f, ok := t.s.foods[id]; ok {
			out[id] = f
		}
	}
	return out, nil
}

func (t *memTx) HeldQuantities(_ context.Context, foodIDs []string, now time.Time) (map[string]int, error) {
	return t.s.held(foodIDs, now), nil
}

func (t *memTx) DecrementFoodQuantity(_ context.Context, foodID string, qty int) error {
	f, ok := t.s.foods[foodID]
	if !ok {
		return fmt.Errorf("%w: food item %s", ErrNotFound, foodID)
	}
	f.TotalQuantity -= qty
	t.s.foods[foodID] = f
	return nil
}

func (t *memTx) InsertOrder(_ context.Context, o *Order) error {
	if _, dup := t.s.orders[o.ID]; dup {
		return fmt.Errorf("%w: order %s", ErrConflict, o.ID)
	}
	t.s.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (t *memTx) LockOrder(_ context.Context, id string) (*Order, error) {
	return t.s.order(id)
}

func (t *memTx) LockOrderByPickupCode(_ context.Context, code string) (*Order, error) {
	for id, o := range t.s.orders {
		if o.PickupCode != nil && *o.PickupCode == code {
			return t.s.order(id)
		}
	}
	return nil, fmt.Errorf("%w: pickup code", ErrNotFound)
}

func (t *memTx) UpdateOrder(_ context.Context, o *Order) error {
	if o.PickupCode != nil {
		for id, other := range t.s.orders {
			if id != o.ID && other.PickupCode != nil && *other.PickupCode == *o.PickupCode {
				return fmt.Errorf("%w: pickup code", ErrConflict)
			}
		}
	}
	if _, ok := t.s.orders[o.ID]; !ok {
		return fmt.Errorf("%w: order %s", ErrNotFound, o.ID)
	}
	t.s.orders[o.ID] = cloneOrder(*o)
	return nil
}

func (t *memTx) InsertReservations(_ context.Context, rs []Reservation) error {
	for _, r := range rs {
		t.s.reservations[r.ID] = r
	}
	return nil
}

func (t *memTx) OrderReservations(_ context.Context, orderID string) ([]Reservation, error) {
	return t.s.orderReservations(orderID), nil
}

func (t *memTx) SetReservationStatus(_ context.Context, id string, status ReservationStatus) error {
	r, ok := t.s.reservations[id]
	if !ok {
		return fmt.Errorf("%w: reservation %s", ErrNotFound, id)
	}
	r.Status = status
	t.s.reservations[id] = r
	return nil
}

func (t *memTx) LockPaymentByOrder(_ context.Context, orderID string) (*Payment, error) {
	return t.s.payment(orderID)
}

func (t *memTx) InsertPayment(_ context.Context, p *Payment) error {
	if _, dup := t.s.payments[p.OrderID]; dup {
		return fmt.Errorf("%w: payment for %s", ErrConflict, p.OrderID)
	}
	t.s.payments[p.OrderID] = *p
	return nil
}

func (t *memTx) UpdatePayment(_ context.Context, p *Payment) error {
	t.s.payments[p.OrderID] = *p
	return nil
}
