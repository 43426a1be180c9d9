package orders

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
)

type pgTx struct{ tx pgx.Tx }

// LockFoodItems locks the rows in id order so concurrent checkouts touching
// overlapping items cannot deadlock.
func (t *pgTx) LockFoodItems(ctx context.Context, ids []string) (map[string]FoodItem, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	rows, err := t.tx.Query(ctx, `SELECT `+foodColumns+` FROM food_items WHERE id = ANY($1) ORDER BY id FOR UPDATE`, sorted)
	if err != nil {
		return nil, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (FoodItem, error) { return scanFood(row) })
	if err != nil {
		return nil, err
	}
	out := make(map[string]FoodItem, len(items))
	for _, f := range items {
		out[f.ID] = f
	}
	return out, nil
}

func (t *pgTx) HeldQuantities(ctx context.Context, foodIDs []string, now time.Time) (map[string]int, error) {
	return heldQuantities(ctx, t.tx, foodIDs, now)
}

// DecrementFoodQuantity does not clamp: a sale confirmed by the processor is
// recorded even if it drives the count negative.
func (t *pgTx) DecrementFoodQuantity(ctx context.Context, foodID string, qty int) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE food_items SET total_quantity = total_quantity - $2, updated_at = now()
		WHERE id=$1`, foodID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("%w: food item %s", ErrNotFound, foodID)
	}
	return nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o *Order) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders(`+orderColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		o.ID, o.BuyerID, string(o.Status), o.SubtotalCents, o.PlatformFeeCents, o.TotalCents,
		o.PickupCode, o.QRCodePath, o.Notes, o.CreatedAt, o.UpdatedAt, o.PaidAt, o.CompletedAt)
	if err != nil {
		return conflict(err)
	}

	batch := &pgx.Batch{}
	for i, l := range o.Lines {
		batch.Queue(`
			INSERT INTO order_lines(`+lineColumns+`, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
			l.ID, l.OrderID, l.FoodItemID, l.FoodName, l.RestaurantID, l.Quantity,
			l.UnitPriceCents, l.LineSubtotalCents, l.RestaurantShareCents, l.PlatformShareCents, i)
	}
	return t.tx.SendBatch(ctx, batch).Close()
}

func (t *pgTx) LockOrder(ctx context.Context, id string) (*Order, error) {
	return loadOrder(ctx, t.tx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, id)
}

func (t *pgTx) LockOrderByPickupCode(ctx context.Context, code string) (*Order, error) {
	return loadOrder(ctx, t.tx, `SELECT `+orderColumns+` FROM orders WHERE pickup_code=$1 FOR UPDATE`, code)
}

// UpdateOrder writes the mutable columns; lines and money are immutable.
func (t *pgTx) UpdateOrder(ctx context.Context, o *Order) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE orders
		SET status=$2, pickup_code=$3, qr_code_path=$4, updated_at=$5, paid_at=$6, completed_at=$7
		WHERE id=$1`,
		o.ID, string(o.Status), o.PickupCode, o.QRCodePath, o.UpdatedAt, o.PaidAt, o.CompletedAt)
	if err != nil {
		return conflict(err)
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("%w: order %s", ErrNotFound, o.ID)
	}
	return nil
}

func (t *pgTx) LockPaymentByOrder(ctx context.Context, orderID string) (*Payment, error) {
	return scanPayment(t.tx.QueryRow(ctx, `SELECT `+payColumns+` FROM payments WHERE order_id=$1 FOR UPDATE`, orderID))
}

func (t *pgTx) InsertPayment(ctx context.Context, p *Payment) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO payments(`+payColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.OrderID, p.BuyerID, p.Method, string(p.Status), p.AmountCents, p.ExternalPaymentID,
		p.ExternalTransactionID, p.RawCallbackPayload, p.FailureReason, p.CreatedAt, p.UpdatedAt, p.PaidAt)
	return conflict(err)
}

func (t *pgTx) UpdatePayment(ctx context.Context, p *Payment) error {
	_, err := t.tx.Exec(ctx, `
		UPDATE payments
		SET status=$2, external_transaction_id=$3, raw_callback_payload=$4, failure_reason=$5, updated_at=$6, paid_at=$7
		WHERE id=$1`,
		p.ID, string(p.Status), p.ExternalTransactionID, p.RawCallbackPayload, p.FailureReason, p.UpdatedAt, p.PaidAt)
	return err
}
