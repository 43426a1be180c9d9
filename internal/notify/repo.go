package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ariefcatur/food-rescue-orders/internal/orders"
)

var co2PerMeal = decimal.NewFromFloat(orders.CO2KgPerMeal)

// CO2Saved estimates the kilograms of CO2 saved by rescuing meals portions.
func CO2Saved(meals int) decimal.Decimal {
	return decimal.NewFromInt(int64(meals)).Mul(co2PerMeal).Round(2)
}

// DB is the part of *pgxpool.Pool the worker writes through.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Repo struct{ DB DB }

func (r *Repo) InsertNotification(ctx context.Context, n orders.Notification) error {
	_, err := r.DB.Exec(ctx, `
		INSERT INTO notifications(id, user_id, type, title, message, related_id, related_type)
		VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),NULLIF($7,''))`,
		uuid.NewString(), n.UserID, string(n.Type), n.Title, n.Message, n.RelatedID, n.RelatedType)
	return err
}

// RecordImpact adds one completed order to the buyer's totals. The
// impact_orders row makes it a no-op for an order already counted; applied is
// false in that case.
func (r *Repo) RecordImpact(ctx context.Context, orderID, userID string, meals int) (applied bool, err error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		INSERT INTO impact_orders(order_id, user_id, meals)
		VALUES ($1,$2,$3)
		ON CONFLICT (order_id) DO NOTHING`, orderID, userID, meals)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO user_impacts(user_id, meals_rescued, co2_saved, total_orders, updated_at)
		VALUES ($1, $2, $3, 1, now())
		ON CONFLICT (user_id) DO UPDATE SET
			meals_rescued = user_impacts.meals_rescued + EXCLUDED.meals_rescued,
			co2_saved     = user_impacts.co2_saved + EXCLUDED.co2_saved,
			total_orders  = user_impacts.total_orders + 1,
			updated_at    = now()`,
		userID, meals, CO2Saved(meals).String()); err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}
