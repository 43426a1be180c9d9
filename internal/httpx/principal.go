package httpx

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ariefcatur/food-rescue-orders/internal/orders"
)

// Identity is resolved upstream; the gateway forwards it in these headers.
const (
	HeaderUserID       = "X-User-ID"
	HeaderUserRole     = "X-User-Role"
	HeaderUserApproved = "X-User-Approved"
	HeaderUserEmail    = "X-User-Email"
)

type principalKey struct{}

// RequirePrincipal rejects requests without a caller identity and stores the
// principal in the request context.
func RequirePrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderUserID)
		if id == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing " + HeaderUserID})
			return
		}
		approved, _ := strconv.ParseBool(r.Header.Get(HeaderUserApproved))
		p := orders.Principal{
			ID:       id,
			Role:     orders.Role(r.Header.Get(HeaderUserRole)),
			Approved: approved,
			Email:    r.Header.Get(HeaderUserEmail),
		}
		if p.Role == "" {
			p.Role = orders.RoleBuyer
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), principalKey{}, p)))
	})
}

func principalFrom(ctx context.Context) orders.Principal {
	p, _ := ctx.Value(principalKey{}).(orders.Principal)
	return p
}
