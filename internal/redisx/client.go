package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// Claim marks id as processed by consumer. It returns false when another
// delivery already claimed it.
func Claim(ctx context.Context, rdb *redis.Client, consumer, id string) (bool, error) {
	return rdb.SetNX(ctx, fmt.Sprintf(KeyDedup, consumer, id), time.Now().UTC().Format(time.RFC3339), TTLDedup).Result()
}

// Unclaim releases a claim so a failed delivery can be retried.
func Unclaim(ctx context.Context, rdb *redis.Client, consumer, id string) error {
	return rdb.Del(ctx, fmt.Sprintf(KeyDedup, consumer, id)).Err()
}

// IdempotentOrder returns the order id previously created under key, if any.
func IdempotentOrder(ctx context.Context, rdb *redis.Client, buyerID, key string) (string, bool, error) {
	id, err := rdb.Get(ctx, fmt.Sprintf(KeyIdemOrderCreate, buyerID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func RememberOrder(ctx context.Context, rdb *redis.Client, buyerID, key, orderID string) error {
	return rdb.Set(ctx, fmt.Sprintf(KeyIdemOrderCreate, buyerID, key), orderID, TTLIdempotency).Err()
}

// CachedStatus carries the order's parties so a cache hit can still be
// authorized without a database read.
type CachedStatus struct {
	Status        string    `json:"status"`
	UpdatedAt     time.Time `json:"updated_at"`
	BuyerID       string    `json:"buyer_id"`
	RestaurantIDs []string  `json:"restaurant_ids,omitempty"`
}

func GetStatus(ctx context.Context, rdb *redis.Client, orderID string) (*CachedStatus, error) {
	b, err := rdb.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var cs CachedStatus
	if err := json.Unmarshal(b, &cs); err != nil {
		return nil, err
	}
	if cs.Status == "" {
		return nil, nil
	}
	return &cs, nil
}

// SetStatus caches cs unless the key already holds something newer: a status
// written after cs.UpdatedAt, or an invalidation marker left by DropStatus
// after cs was read. A concurrent writer winning the race is not an error.
func SetStatus(ctx context.Context, rdb *redis.Client, orderID string, cs CachedStatus) error {
	key := fmt.Sprintf(KeyOrderStatus, orderID)
	b, err := json.Marshal(cs)
	if err != nil {
		return err
	}
	err = rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var prev CachedStatus
			if json.Unmarshal(cur, &prev) == nil && prev.UpdatedAt.After(cs.UpdatedAt) {
				return nil
			}
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, b, TTLStatusCache)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// DropStatus replaces the cached status with an invalidation marker stamped
// now, so a reader that loaded the order before the change cannot put the
// old status back.
func DropStatus(ctx context.Context, rdb *redis.Client, orderID string) error {
	b, err := json.Marshal(CachedStatus{UpdatedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return rdb.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), b, TTLInvalidation).Err()
}
