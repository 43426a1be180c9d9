package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// heldQuantities sums live holds per food item. Expiry is judged against now,
// not against the stored status, so an unswept reservation stops holding
// stock the moment its window closes.
func heldQuantities(ctx context.Context, q querier, foodIDs []string, now time.Time) (map[string]int, error) {
	out := make(map[string]int, len(foodIDs))
	if len(foodIDs) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `
		SELECT food_item_id, COALESCE(SUM(quantity), 0)
		FROM reservations
		WHERE food_item_id = ANY($1) AND status='ACTIVE' AND expires_at > $2
		GROUP BY food_item_id`, foodIDs, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

func (t *pgTx) InsertReservations(ctx context.Context, rs []Reservation) error {
	batch := &pgx.Batch{}
	for _, r := range rs {
		batch.Queue(`
			INSERT INTO reservations(id, buyer_id, food_item_id, order_id, order_line_id, quantity, status, created_at, expires_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			r.ID, r.BuyerID, r.FoodItemID, r.OrderID, r.OrderLineID, r.Quantity, string(r.Status), r.CreatedAt, r.ExpiresAt)
	}
	return t.tx.SendBatch(ctx, batch).Close()
}

func (t *pgTx) OrderReservations(ctx context.Context, orderID string) ([]Reservation, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, buyer_id, food_item_id, order_id, order_line_id, quantity, status, created_at, expires_at
		FROM reservations WHERE order_id=$1 ORDER BY created_at, id FOR UPDATE`, orderID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Reservation, error) {
		var r Reservation
		var status string
		err := row.Scan(&r.ID, &r.BuyerID, &r.FoodItemID, &r.OrderID, &r.OrderLineID, &r.Quantity, &status, &r.CreatedAt, &r.ExpiresAt)
		r.Status = ReservationStatus(status)
		return r, err
	})
}

func (t *pgTx) SetReservationStatus(ctx context.Context, id string, status ReservationStatus) error {
	ct, err := t.tx.Exec(ctx, `UPDATE reservations SET status=$2 WHERE id=$1`, id, string(status))
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return fmt.Errorf("%w: reservation %s", ErrNotFound, id)
	}
	return nil
}
