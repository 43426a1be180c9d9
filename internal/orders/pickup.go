package orders

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// NewPickupCode renders {prefix}-{orderID}-{8 upper-case hex chars}.
func NewPickupCode(prefix, orderID string) (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("pickup code entropy: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", prefix, orderID, strings.ToUpper(hex.EncodeToString(b[:]))), nil
}

// ExternalPaymentID is the processor-facing identifier of a payment.
func ExternalPaymentID(prefix, orderID, paymentID string) string {
	return fmt.Sprintf("%s-%s-%s", prefix, orderID, paymentID)
}
