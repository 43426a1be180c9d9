package paybox

import (
	"errors"
	"net/url"
	"strconv"
)

// Settings are the processor endpoints shared by every merchant.
type Settings struct {
	PaymentURL      string
	SuccessURL      string
	FailureURL      string
	ResultURL       string
	Currency        string
	LifetimeSeconds int
}

// Request is one redirect to the hosted payment page.
type Request struct {
	OrderID     string
	Amount      int64 // whole currency units
	Description string
	BuyerID     string
	BuyerEmail  string
}

// Values renders the signed form of req for merchant creds.
func (s Settings) Values(creds Credentials, req Request) url.Values {
	v := url.Values{}
	v.Set("pg_merchant_id", creds.MerchantID)
	v.Set("pg_order_id", req.OrderID)
	v.Set("pg_amount", strconv.FormatInt(req.Amount, 10))
	v.Set("pg_description", req.Description)
	v.Set("pg_currency", s.Currency)
	v.Set("pg_lifetime", strconv.Itoa(s.LifetimeSeconds))
	v.Set("pg_success_url", s.SuccessURL)
	v.Set("pg_failure_url", s.FailureURL)
	v.Set("pg_result_url", s.ResultURL)
	v.Set("pg_user_id", req.BuyerID)
	if req.BuyerEmail != "" {
		v.Set("pg_user_contact_email", req.BuyerEmail)
	}
	v.Set(SignatureField, Sign(v, creds.SecretKey))
	return v
}

// RedirectURL is the hosted payment page URL the buyer is sent to.
func (s Settings) RedirectURL(creds Credentials, req Request) string {
	return s.PaymentURL + "?" + s.Values(creds, req).Encode()
}

var ErrMalformedCallback = errors.New("malformed callback")

// Callback is the result notification PayBox posts to pg_result_url.
type Callback struct {
	OrderID            string
	TransactionID      string
	Success            bool
	FailureDescription string
	Fields             url.Values
}

// ParseCallback extracts the fields the settlement workflow acts on. It does
// not verify the signature.
func ParseCallback(fields url.Values) (Callback, error) {
	cb := Callback{
		OrderID:            fields.Get("pg_order_id"),
		TransactionID:      fields.Get("pg_payment_id"),
		FailureDescription: fields.Get("pg_failure_description"),
		Fields:             fields,
	}
	if cb.OrderID == "" {
		return cb, ErrMalformedCallback
	}
	switch fields.Get("pg_result") {
	case "1":
		cb.Success = true
	case "0":
	default:
		return cb, ErrMalformedCallback
	}
	return cb, nil
}
