package paybox

import (
	"context"
	"fmt"
)

type Credentials struct {
	MerchantID string
	SecretKey  string
}

func (c Credentials) Valid() bool { return c.MerchantID != "" && c.SecretKey != "" }

// AccountLookup finds a restaurant's own merchant account. ok is false when
// the restaurant has none configured.
type AccountLookup interface {
	MerchantAccount(ctx context.Context, restaurantID string) (creds Credentials, ok bool, err error)
}

// Resolver picks the merchant account an order is charged through: the
// restaurant's own when it has one, the platform default otherwise.
type Resolver struct {
	Default  Credentials
	Accounts AccountLookup
}

func (r *Resolver) Resolve(ctx context.Context, restaurantID string) (Credentials, error) {
	if restaurantID != "" && r.Accounts != nil {
		creds, ok, err := r.Accounts.MerchantAccount(ctx, restaurantID)
		if err != nil {
			return Credentials{}, fmt.Errorf("merchant account for %s: %w", restaurantID, err)
		}
		if ok && creds.Valid() {
			return creds, nil
		}
	}
	return r.Default, nil
}
