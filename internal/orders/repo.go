package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ariefcatur/food-rescue-orders/internal/paybox"
)

// Repo is the Postgres Store. It also serves per-restaurant merchant accounts.
type Repo struct{ DB DB }

var (
	_ Store                = (*Repo)(nil)
	_ Tx                   = (*pgTx)(nil)
	_ paybox.AccountLookup = (*Repo)(nil)
)

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// DB is the part of *pgxpool.Pool the repository uses.
type DB interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

const (
	foodColumns  = `id, restaurant_id, name, price_cents, original_price_cents, total_quantity, is_available, expires_at, created_at, updated_at`
	orderColumns = `id, buyer_id, status, subtotal_cents, platform_fee_cents, total_cents, pickup_code, qr_code_path, notes, created_at, updated_at, paid_at, completed_at`
	lineColumns  = `id, order_id, food_item_id, food_name, restaurant_id, quantity, unit_price_cents, line_subtotal_cents, restaurant_share_cents, platform_share_cents`
	payColumns   = `id, order_id, buyer_id, method, status, amount_cents, external_payment_id, external_transaction_id, raw_callback_payload, failure_reason, created_at, updated_at, paid_at`
)

func (r *Repo) InTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repo) GetOrder(ctx context.Context, id string) (*Order, error) {
	return loadOrder(ctx, r.DB, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id)
}

func (r *Repo) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE buyer_id=$1 ORDER BY created_at DESC`, buyerID)
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Order, error) {
		o, err := scanOrder(row)
		if err != nil {
			return Order{}, err
		}
		return *o, nil
	})
	if err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Lines, err = orderLines(ctx, r.DB, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repo) GetPaymentByOrder(ctx context.Context, orderID string) (*Payment, error) {
	return scanPayment(r.DB.QueryRow(ctx, `SELECT `+payColumns+` FROM payments WHERE order_id=$1`, orderID))
}

func (r *Repo) GetFoodItem(ctx context.Context, id string) (*FoodItem, error) {
	f, err := scanFood(r.DB.QueryRow(ctx, `SELECT `+foodColumns+` FROM food_items WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "food item "+id)
	}
	return &f, nil
}

func (r *Repo) ListFoodItems(ctx context.Context) ([]FoodItem, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+foodColumns+` FROM food_items ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (FoodItem, error) { return scanFood(row) })
}

func (r *Repo) HeldQuantities(ctx context.Context, foodIDs []string, now time.Time) (map[string]int, error) {
	return heldQuantities(ctx, r.DB, foodIDs, now)
}

func (r *Repo) ExpireReservations(ctx context.Context, now time.Time) (int64, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE reservations SET status='EXPIRED'
		WHERE status='ACTIVE' AND expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

// MerchantAccount implements paybox.AccountLookup.
func (r *Repo) MerchantAccount(ctx context.Context, restaurantID string) (paybox.Credentials, bool, error) {
	var c paybox.Credentials
	err := r.DB.QueryRow(ctx, `
		SELECT merchant_id, secret_key FROM restaurant_payment_accounts
		WHERE restaurant_id=$1`, restaurantID).Scan(&c.MerchantID, &c.SecretKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return paybox.Credentials{}, false, nil
	}
	if err != nil {
		return paybox.Credentials{}, false, err
	}
	return c, true, nil
}

func loadOrder(ctx context.Context, q querier, sql string, arg any) (*Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, sql, arg))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("order %v", arg))
	}
	if o.Lines, err = orderLines(ctx, q, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func orderLines(ctx context.Context, q querier, orderID string) ([]OrderLine, error) {
	rows, err := q.Query(ctx, `SELECT `+lineColumns+` FROM order_lines WHERE order_id=$1 ORDER BY position`, orderID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (OrderLine, error) {
		var l OrderLine
		err := row.Scan(&l.ID, &l.OrderID, &l.FoodItemID, &l.FoodName, &l.RestaurantID, &l.Quantity,
			&l.UnitPriceCents, &l.LineSubtotalCents, &l.RestaurantShareCents, &l.PlatformShareCents)
		return l, err
	})
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var status string
	err := row.Scan(&o.ID, &o.BuyerID, &status, &o.SubtotalCents, &o.PlatformFeeCents, &o.TotalCents,
		&o.PickupCode, &o.QRCodePath, &o.Notes, &o.CreatedAt, &o.UpdatedAt, &o.PaidAt, &o.CompletedAt)
	if err != nil {
		return nil, err
	}
	o.Status = Status(status)
	return &o, nil
}

func scanFood(row pgx.Row) (FoodItem, error) {
	var f FoodItem
	err := row.Scan(&f.ID, &f.RestaurantID, &f.Name, &f.PriceCents, &f.OriginalPriceCents,
		&f.TotalQuantity, &f.IsAvailable, &f.ExpiresAt, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	var status string
	err := row.Scan(&p.ID, &p.OrderID, &p.BuyerID, &p.Method, &status, &p.AmountCents, &p.ExternalPaymentID,
		&p.ExternalTransactionID, &p.RawCallbackPayload, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt, &p.PaidAt)
	if err != nil {
		return nil, notFound(err, "payment")
	}
	p.Status = PaymentStatus(status)
	return &p, nil
}

// notFound maps pgx.ErrNoRows onto ErrNotFound and leaves other errors alone.
func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

// conflict maps unique violations onto ErrConflict.
func conflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}
