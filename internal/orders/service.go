package orders

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ariefcatur/food-rescue-orders/internal/metrics"
	"github.com/ariefcatur/food-rescue-orders/internal/paybox"
)

// Settings are the workflow parameters injected at construction.
type Settings struct {
	FeeRate                 decimal.Decimal
	ReservationTimeout      time.Duration
	ReleaseOnPaymentFailure bool
	PickupCodePrefix        string
	PayBox                  paybox.Settings
}

// MerchantResolver picks the processor account for a restaurant.
type MerchantResolver interface {
	Resolve(ctx context.Context, restaurantID string) (paybox.Credentials, error)
}

// Service coordinates catalog holds, order creation, payment reconciliation
// and the post-payment status transitions.
type Service struct {
	Store     Store
	Merchants MerchantResolver
	Codes     CodeEncoder
	Notifier  Notifier
	Impact    ImpactRecorder
	Events    EventPublisher
	Settings  Settings
	Log       *zap.Logger
	Now       func() time.Time
}

type LineInput struct {
	FoodItemID string `json:"food_id"`
	Quantity   int    `json:"quantity"`
}

type CreateOrderInput struct {
	Lines []LineInput `json:"items"`
	Notes string      `json:"notes"`
}

type PaymentRedirect struct {
	PaymentURL string `json:"payment_url"`
	PaymentID  string `json:"payment_id"`
}

type PickupInfo struct {
	PickupCode string `json:"pickup_code"`
	QRCodeURL  string `json:"qr_code_url"`
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// CreateOrder validates every line against live availability and persists the
// order, its lines and one ACTIVE reservation per line atomically. The food
// rows are locked for the duration so two buyers cannot both pass the check
// for the same last portions.
func (s *Service) CreateOrder(ctx context.Context, p Principal, in CreateOrderInput) (*Order, error) {
	if err := Authorize(p, ActionCreateOrder, nil); err != nil {
		return nil, err
	}
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: order has no items", ErrInvalidInput)
	}
	ids := make([]string, 0, len(in.Lines))
	for _, l := range in.Lines {
		if l.FoodItemID == "" || l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: invalid quantity %d for food item %q", ErrInvalidInput, l.Quantity, l.FoodItemID)
		}
		ids = append(ids, l.FoodItemID)
	}
	ids = dedupSorted(ids)

	now := s.now()
	order := &Order{
		ID:        uuid.NewString(),
		BuyerID:   p.ID,
		Status:    StatusPending,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.Store.InTx(ctx, func(tx Tx) error {
		items, err := tx.LockFoodItems(ctx, ids)
		if err != nil {
			return err
		}
		held, err := tx.HeldQuantities(ctx, ids, now)
		if err != nil {
			return err
		}

		// lines for the same item compete for the same stock
		requested := make(map[string]int, len(ids))
		order.Lines = make([]OrderLine, 0, len(in.Lines))
		for _, l := range in.Lines {
			item, ok := items[l.FoodItemID]
			if !ok {
				return fmt.Errorf("%w: food item %s", ErrNotFound, l.FoodItemID)
			}
			avail := available(item.TotalQuantity, held[item.ID]+requested[item.ID])
			if !item.IsAvailable {
				return &InsufficientStockError{FoodItemID: item.ID, Name: item.Name, Requested: l.Quantity, Available: avail, Disabled: true}
			}
			if l.Quantity > avail {
				return &InsufficientStockError{FoodItemID: item.ID, Name: item.Name, Requested: l.Quantity, Available: avail}
			}
			requested[item.ID] += l.Quantity

			split := SplitLine(item.PriceCents, l.Quantity, s.Settings.FeeRate)
			order.Lines = append(order.Lines, OrderLine{
				ID:                   uuid.NewString(),
				OrderID:              order.ID,
				FoodItemID:           item.ID,
				FoodName:             item.Name,
				RestaurantID:         item.RestaurantID,
				Quantity:             l.Quantity,
				UnitPriceCents:       item.PriceCents,
				LineSubtotalCents:    split.SubtotalCents,
				RestaurantShareCents: split.RestaurantCents,
				PlatformShareCents:   split.PlatformCents,
			})
			order.SubtotalCents += split.SubtotalCents
		}
		order.PlatformFeeCents = PlatformFee(order.SubtotalCents, s.Settings.FeeRate)
		order.TotalCents = order.SubtotalCents

		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}

		expires := now.Add(s.Settings.ReservationTimeout)
		rs := make([]Reservation, 0, len(order.Lines))
		for _, l := range order.Lines {
			rs = append(rs, Reservation{
				ID:          uuid.NewString(),
				BuyerID:     p.ID,
				FoodItemID:  l.FoodItemID,
				OrderID:     order.ID,
				OrderLineID: l.ID,
				Quantity:    l.Quantity,
				Status:      ReservationActive,
				CreatedAt:   now,
				ExpiresAt:   expires,
			})
		}
		return tx.InsertReservations(ctx, rs)
	})
	if err != nil {
		if errors.Is(err, ErrInsufficientStock) {
			metrics.RecordStockRejection()
		}
		return nil, err
	}

	metrics.RecordOrderCreated()
	s.log().Info("order created",
		zap.String("order_id", order.ID),
		zap.String("buyer_id", order.BuyerID),
		zap.Int64("total_cents", order.TotalCents),
		zap.Int("lines", len(order.Lines)))

	items := make([]ItemPrice, 0, len(order.Lines))
	for _, l := range order.Lines {
		items = append(items, ItemPrice{FoodItemID: l.FoodItemID, Qty: l.Quantity, UnitPriceCents: l.UnitPriceCents})
	}
	s.publish(ctx, EventOrderCreated, order.ID, OrderCreatedPayload{
		OrderID: order.ID, BuyerID: order.BuyerID, Items: items, TotalCents: order.TotalCents,
	})
	return order, nil
}

// InitiatePayment opens (or reopens) the order's single payment and returns
// the signed redirect to the processor.
func (s *Service) InitiatePayment(ctx context.Context, p Principal, orderID string) (*PaymentRedirect, error) {
	var (
		order   *Order
		payment *Payment
	)
	err := s.Store.InTx(ctx, func(tx Tx) error {
		var err error
		order, err = tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := Authorize(p, ActionPayOrder, order); err != nil {
			return err
		}
		if order.Status != StatusPending {
			return fmt.Errorf("%w: order %s is %s, not PENDING", ErrInvalidState, order.ID, order.Status)
		}

		payment, err = tx.LockPaymentByOrder(ctx, order.ID)
		switch {
		case err == nil:
			if payment.Status.Terminal() {
				return fmt.Errorf("%w: payment for order %s already %s", ErrConflict, order.ID, payment.Status)
			}
			return nil
		case !errors.Is(err, ErrNotFound):
			return err
		}

		now := s.now()
		payment = &Payment{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			BuyerID:     order.BuyerID,
			Method:      PaymentMethodPayBox,
			Status:      PaymentPending,
			AmountCents: order.TotalCents,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		payment.ExternalPaymentID = ExternalPaymentID(s.Settings.PickupCodePrefix, order.ID, payment.ID)
		return tx.InsertPayment(ctx, payment)
	})
	if err != nil {
		return nil, err
	}

	creds, err := s.Merchants.Resolve(ctx, firstRestaurant(order))
	if err != nil {
		return nil, err
	}
	redirect := s.Settings.PayBox.RedirectURL(creds, paybox.Request{
		OrderID:     order.ID,
		Amount:      WholeUnits(order.TotalCents),
		Description: fmt.Sprintf("Order #%s - %s Food Rescue", order.ID, s.Settings.PickupCodePrefix),
		BuyerID:     order.BuyerID,
		BuyerEmail:  p.Email,
	})

	s.log().Info("payment initiated",
		zap.String("order_id", order.ID),
		zap.String("payment_id", payment.ID),
		zap.String("merchant_id", creds.MerchantID))
	return &PaymentRedirect{PaymentURL: redirect, PaymentID: payment.ID}, nil
}

// HandlePaymentCallback reconciles a processor result with the order. It is
// safe to call repeatedly with the same payload: once the payment is settled
// later callbacks change nothing. Nothing is written unless the signature
// verifies.
func (s *Service) HandlePaymentCallback(ctx context.Context, fields url.Values) error {
	if fields.Get(paybox.SignatureField) == "" {
		metrics.RecordCallback("bad_signature")
		return fmt.Errorf("%w: missing signature", ErrBadSignature)
	}
	cb, err := paybox.ParseCallback(fields)
	if err != nil {
		metrics.RecordCallback("malformed")
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// the secret depends on which merchant the order was charged through
	known, err := s.Store.GetOrder(ctx, cb.OrderID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	creds, err := s.Merchants.Resolve(ctx, firstRestaurant(known))
	if err != nil {
		return err
	}
	if !paybox.Verify(fields, creds.SecretKey) {
		metrics.RecordCallback("bad_signature")
		s.log().Warn("payment callback signature mismatch", zap.String("order_id", cb.OrderID))
		return fmt.Errorf("%w: signature mismatch", ErrBadSignature)
	}
	if known == nil {
		metrics.RecordCallback("unknown_order")
		s.log().Warn("payment callback for unknown order", zap.String("order_id", cb.OrderID))
		return fmt.Errorf("%w: order %s", ErrNotFound, cb.OrderID)
	}

	var (
		order     *Order
		payment   *Payment
		duplicate bool
	)
	err = s.Store.InTx(ctx, func(tx Tx) error {
		var err error
		order, err = tx.LockOrder(ctx, cb.OrderID)
		if err != nil {
			return err
		}
		payment, err = tx.LockPaymentByOrder(ctx, order.ID)
		if err != nil {
			return fmt.Errorf("payment for order %s: %w", order.ID, err)
		}
		if payment.Status.Terminal() {
			duplicate = true
			return nil
		}

		now := s.now()
		raw := fields.Encode()
		payment.RawCallbackPayload = &raw
		if cb.TransactionID != "" {
			payment.ExternalTransactionID = &cb.TransactionID
		}
		payment.UpdatedAt = now
		order.UpdatedAt = now

		if cb.Success {
			return s.settlePaid(ctx, tx, order, payment, now)
		}
		return s.settleFailed(ctx, tx, order, payment, cb.FailureDescription)
	})
	if err != nil {
		metrics.RecordCallback("error")
		return err
	}
	if duplicate {
		metrics.RecordCallback("duplicate")
		s.log().Info("duplicate payment callback ignored",
			zap.String("order_id", order.ID),
			zap.String("payment_status", string(payment.Status)))
		return nil
	}

	if cb.Success {
		metrics.RecordCallback("success")
		metrics.RecordTransition(string(StatusPaid))
		s.log().Info("order paid", zap.String("order_id", order.ID), zap.String("payment_id", payment.ID))
		s.attachQRCode(ctx, order)
		s.publish(ctx, EventOrderPaid, order.ID, OrderPaidPayload{
			OrderID: order.ID, PaymentID: payment.ID, AmountCents: payment.AmountCents, PickupCode: deref(order.PickupCode),
		})
		s.notify(ctx, Notification{
			UserID:  order.BuyerID,
			Type:    NotifyOrderConfirmed,
			Title:   "Payment Successful!",
			Message: fmt.Sprintf("Your order #%s has been confirmed. Use the pickup code to collect your order.", order.ID),
		}, order.ID)
		for _, rid := range order.RestaurantIDs() {
			s.notify(ctx, Notification{
				UserID:  rid,
				Type:    NotifyOrderCreated,
				Title:   "New Order Received",
				Message: fmt.Sprintf("You have a new order #%s. Please prepare it for pickup.", order.ID),
			}, order.ID)
		}
		return nil
	}

	metrics.RecordCallback("failure")
	metrics.RecordTransition(string(StatusCancelled))
	s.log().Info("payment failed", zap.String("order_id", order.ID), zap.String("reason", deref(payment.FailureReason)))
	s.publish(ctx, EventPaymentFailed, order.ID, PaymentFailedPayload{OrderID: order.ID, Reason: deref(payment.FailureReason)})
	return nil
}

func (s *Service) settlePaid(ctx context.Context, tx Tx, order *Order, payment *Payment, now time.Time) error {
	if !CanTransition(order.Status, StatusPaid) {
		return fmt.Errorf("%w: order %s is %s", ErrInvalidState, order.ID, order.Status)
	}
	payment.Status = PaymentSuccess
	payment.PaidAt = &now
	order.Status = StatusPaid
	order.PaidAt = &now

	// the order id inside the code makes it unique by construction
	code, err := NewPickupCode(s.Settings.PickupCodePrefix, order.ID)
	if err != nil {
		return err
	}
	order.PickupCode = &code

	// A sweep may already have marked a lapsed hold EXPIRED; the sale still
	// consumes it either way.
	rs, err := tx.OrderReservations(ctx, order.ID)
	if err != nil {
		return err
	}
	for _, r := range rs {
		if r.Status != ReservationActive && r.Status != ReservationExpired {
			continue
		}
		if !r.Live(now) {
			s.log().Warn("confirming reservation past its hold window",
				zap.String("order_id", order.ID),
				zap.String("reservation_id", r.ID),
				zap.Time("expired_at", r.ExpiresAt))
		}
		if err := tx.SetReservationStatus(ctx, r.ID, ReservationConfirmed); err != nil {
			return err
		}
		if err := tx.DecrementFoodQuantity(ctx, r.FoodItemID, r.Quantity); err != nil {
			return err
		}
	}

	if err := tx.UpdatePayment(ctx, payment); err != nil {
		return err
	}
	return tx.UpdateOrder(ctx, order)
}

func (s *Service) settleFailed(ctx context.Context, tx Tx, order *Order, payment *Payment, reason string) error {
	if reason == "" {
		reason = "Payment failed"
	}
	payment.Status = PaymentFailed
	payment.FailureReason = &reason
	if CanTransition(order.Status, StatusCancelled) {
		order.Status = StatusCancelled
	}

	if s.Settings.ReleaseOnPaymentFailure {
		rs, err := tx.OrderReservations(ctx, order.ID)
		if err != nil {
			return err
		}
		for _, r := range rs {
			if r.Status == ReservationActive {
				if err := tx.SetReservationStatus(ctx, r.ID, ReservationCancelled); err != nil {
					return err
				}
			}
		}
	}

	if err := tx.UpdatePayment(ctx, payment); err != nil {
		return err
	}
	return tx.UpdateOrder(ctx, order)
}

// UpdateOrderStatus lets an owning restaurant move a paid order through
// preparation: PAID->CONFIRMED, PAID->READY, CONFIRMED->READY.
func (s *Service) UpdateOrderStatus(ctx context.Context, p Principal, orderID string, to Status) (*Order, error) {
	var (
		order *Order
		from  Status
	)
	err := s.Store.InTx(ctx, func(tx Tx) error {
		var err error
		order, err = tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if err := Authorize(p, ActionUpdateStatus, order); err != nil {
			return err
		}
		from = order.Status
		if !CanRestaurantTransition(from, to) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}
		order.Status = to
		order.UpdatedAt = s.now()
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition(string(to))
	s.log().Info("order status updated",
		zap.String("order_id", order.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("restaurant_id", p.ID))
	s.publish(ctx, EventOrderStatusChanged, order.ID, OrderStatusChangedPayload{OrderID: order.ID, From: from, To: to, ActorID: p.ID})

	n := Notification{UserID: order.BuyerID}
	switch to {
	case StatusConfirmed:
		n.Type, n.Title = NotifyOrderConfirmed, "Order Confirmed"
		n.Message = fmt.Sprintf("The restaurant confirmed your order #%s.", order.ID)
	case StatusReady:
		n.Type, n.Title = NotifyOrderReady, "Order Ready"
		n.Message = fmt.Sprintf("Your order #%s is ready for pickup.", order.ID)
	}
	s.notify(ctx, n, order.ID)
	return order, nil
}

// VerifyPickup completes the order identified by a scanned pickup code.
// Scanning an already completed order succeeds without side effects.
func (s *Service) VerifyPickup(ctx context.Context, p Principal, code string) (*Order, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty pickup code", ErrInvalidInput)
	}
	return s.complete(ctx, p, ActionVerifyPickup, func(tx Tx) (*Order, error) {
		return tx.LockOrderByPickupCode(ctx, code)
	})
}

// CompleteOrder is the manual completion path open to the buyer and to an
// owning restaurant.
func (s *Service) CompleteOrder(ctx context.Context, p Principal, orderID string) (*Order, error) {
	return s.complete(ctx, p, ActionCompleteOrder, func(tx Tx) (*Order, error) {
		return tx.LockOrder(ctx, orderID)
	})
}

func (s *Service) complete(ctx context.Context, p Principal, action Action, load func(Tx) (*Order, error)) (*Order, error) {
	var (
		order *Order
		fresh bool
	)
	err := s.Store.InTx(ctx, func(tx Tx) error {
		var err error
		order, err = load(tx)
		if err != nil {
			return err
		}
		if err := Authorize(p, action, order); err != nil {
			return err
		}
		if order.Status == StatusCompleted {
			return nil
		}
		if !CanTransition(order.Status, StatusCompleted) {
			return fmt.Errorf("%w: order %s is %s", ErrInvalidState, order.ID, order.Status)
		}
		now := s.now()
		order.Status = StatusCompleted
		order.CompletedAt = &now
		order.UpdatedAt = now
		fresh = true
		return tx.UpdateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	if !fresh {
		s.log().Info("order already completed", zap.String("order_id", order.ID))
		return order, nil
	}

	meals := order.MealCount()
	metrics.RecordTransition(string(StatusCompleted))
	s.log().Info("order completed", zap.String("order_id", order.ID), zap.Int("meals", meals), zap.String("actor_id", p.ID))

	s.publish(ctx, EventOrderCompleted, order.ID, OrderCompletedPayload{OrderID: order.ID, BuyerID: order.BuyerID, MealCount: meals})
	if s.Impact != nil {
		if err := s.Impact.RecordMeals(ctx, order.ID, order.BuyerID, meals); err != nil {
			s.log().Error("impact accounting failed", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	s.notify(ctx, Notification{
		UserID:  order.BuyerID,
		Type:    NotifyOrderCompleted,
		Title:   "Order Completed!",
		Message: fmt.Sprintf("Thank you for rescuing %d meal(s)! You've saved %.1fkg of CO2.", meals, float64(meals)*CO2KgPerMeal),
	}, order.ID)
	for _, rid := range order.RestaurantIDs() {
		s.notify(ctx, Notification{
			UserID:  rid,
			Type:    NotifyOrderCompleted,
			Title:   "Order Picked Up",
			Message: fmt.Sprintf("Order #%s has been successfully picked up by the customer.", order.ID),
		}, order.ID)
	}
	return order, nil
}

// CO2KgPerMeal is the CO2 estimate per rescued portion.
const CO2KgPerMeal = 0.18

func (s *Service) GetOrder(ctx context.Context, p Principal, orderID string) (*Order, error) {
	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, ActionViewOrder, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) ListOrders(ctx context.Context, p Principal) ([]Order, error) {
	if err := Authorize(p, ActionCreateOrder, nil); err != nil {
		return nil, err
	}
	return s.Store.ListOrdersByBuyer(ctx, p.ID)
}

// PickupInfo returns the buyer's pickup code and QR artifact once paid.
func (s *Service) PickupInfo(ctx context.Context, p Principal, orderID string) (*PickupInfo, error) {
	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(p, ActionViewPickup, o); err != nil {
		return nil, err
	}
	if o.PickupCode == nil {
		return nil, fmt.Errorf("%w: order not paid yet", ErrInvalidState)
	}
	if o.QRCodePath == nil {
		s.attachQRCode(ctx, o)
	}
	return &PickupInfo{PickupCode: *o.PickupCode, QRCodeURL: deref(o.QRCodePath)}, nil
}

func (s *Service) GetPayment(ctx context.Context, p Principal, orderID string) (*Payment, error) {
	pay, err := s.Store.GetPaymentByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p.ID == "" || (pay.BuyerID != p.ID && p.Role != RoleAdmin) {
		return nil, fmt.Errorf("%w: not authorized to view this payment", ErrForbidden)
	}
	return pay, nil
}

func (s *Service) ListFoodItems(ctx context.Context) ([]FoodAvailability, error) {
	items, err := s.Store.ListFoodItems(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	held, err := s.Store.HeldQuantities(ctx, ids, s.now())
	if err != nil {
		return nil, err
	}
	out := make([]FoodAvailability, 0, len(items))
	for _, it := range items {
		out = append(out, describe(it, held[it.ID]))
	}
	return out, nil
}

func (s *Service) GetFoodItem(ctx context.Context, id string) (*FoodAvailability, error) {
	item, err := s.Store.GetFoodItem(ctx, id)
	if err != nil {
		return nil, err
	}
	held, err := s.Store.HeldQuantities(ctx, []string{id}, s.now())
	if err != nil {
		return nil, err
	}
	fa := describe(*item, held[id])
	return &fa, nil
}

// SweepExpired marks lapsed ACTIVE reservations EXPIRED. Availability does
// not depend on it; it only keeps stored statuses honest.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.Store.ExpireReservations(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.RecordExpired(n)
		s.log().Info("reservations expired", zap.Int64("count", n))
	}
	return n, nil
}

// attachQRCode renders a committed pickup code and records the image path.
// A failure is logged; the next PickupInfo tries again.
func (s *Service) attachQRCode(ctx context.Context, order *Order) {
	if s.Codes == nil || order.PickupCode == nil {
		return
	}
	code := *order.PickupCode
	path, err := s.Codes.Encode(ctx, code)
	if err != nil {
		s.log().Error("encode pickup code", zap.String("order_id", order.ID), zap.Error(err))
		return
	}
	err = s.Store.InTx(ctx, func(tx Tx) error {
		o, err := tx.LockOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		if o.PickupCode == nil || *o.PickupCode != code {
			return fmt.Errorf("%w: pickup code of order %s changed", ErrConflict, order.ID)
		}
		o.QRCodePath = &path
		return tx.UpdateOrder(ctx, o)
	})
	if err != nil {
		s.log().Error("store qr code path", zap.String("order_id", order.ID), zap.Error(err))
		return
	}
	order.QRCodePath = &path
}

func (s *Service) log() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) notify(ctx context.Context, n Notification, orderID string) {
	if s.Notifier == nil || n.UserID == "" || n.Type == "" {
		return
	}
	n.RelatedID, n.RelatedType = orderID, "order"
	s.Notifier.Notify(ctx, n)
}

func (s *Service) publish(ctx context.Context, eventType, orderID string, payload any) {
	if s.Events == nil {
		return
	}
	s.Events.Publish(ctx, eventType, orderID, payload)
}

// firstRestaurant is the restaurant whose merchant account settles the order.
func firstRestaurant(o *Order) string {
	if o == nil || len(o.Lines) == 0 {
		return ""
	}
	return o.Lines[0].RestaurantID
}

func dedupSorted(ids []string) []string {
	sort.Strings(ids)
	out := ids[:0]
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			out = append(out, id)
		}
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
