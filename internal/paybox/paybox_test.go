package paybox

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignSortsByFieldNameAndSkipsSignature(t *testing.T) {
	fields := url.Values{
		"pg_result":   {"1"},
		"pg_amount":   {"42"},
		"pg_order_id": {"ord-1"},
		"pg_sig":      {"ignored"},
	}

	assert.Equal(t, "eb4cacbb286af112b428cf47a286a1f3", Sign(fields, "s3cret"))
}

func TestVerify(t *testing.T) {
	fields := url.Values{
		"pg_result":   {"1"},
		"pg_amount":   {"42"},
		"pg_order_id": {"ord-1"},
	}
	fields.Set(SignatureField, Sign(fields, "s3cret"))

	tests := []struct {
		name   string
		mutate func(v url.Values)
		secret string
		want   bool
	}{
		{name: "valid", mutate: func(url.Values) {}, secret: "s3cret", want: true},
		{name: "upperCaseHex", mutate: func(v url.Values) { v.Set(SignatureField, "EB4CACBB286AF112B428CF47A286A1F3") }, secret: "s3cret", want: true},
		{name: "wrongSecret", mutate: func(url.Values) {}, secret: "other", want: false},
		{name: "tamperedField", mutate: func(v url.Values) { v.Set("pg_result", "0") }, secret: "s3cret", want: false},
		{name: "addedField", mutate: func(v url.Values) { v.Set("pg_extra", "x") }, secret: "s3cret", want: false},
		{name: "missingSignature", mutate: func(v url.Values) { v.Del(SignatureField) }, secret: "s3cret", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := url.Values{}
			for k, vs := range fields {
				v[k] = append([]string(nil), vs...)
			}
			tt.mutate(v)
			assert.Equal(t, tt.want, Verify(v, tt.secret))
		})
	}
}

func TestSettingsValuesAreSigned(t *testing.T) {
	s := Settings{
		PaymentURL:      "https://pay.example/payment.php",
		SuccessURL:      "https://app.example/ok",
		FailureURL:      "https://app.example/fail",
		ResultURL:       "https://api.example/payments/callback",
		Currency:        "KZT",
		LifetimeSeconds: 600,
	}
	creds := Credentials{MerchantID: "m-1", SecretKey: "k"}

	v := s.Values(creds, Request{OrderID: "o-1", Amount: 2500, Description: "Order #o-1", BuyerID: "u-1", BuyerEmail: "a@b.c"})

	assert.Equal(t, "m-1", v.Get("pg_merchant_id"))
	assert.Equal(t, "2500", v.Get("pg_amount"))
	assert.Equal(t, "600", v.Get("pg_lifetime"))
	assert.Equal(t, "KZT", v.Get("pg_currency"))
	assert.Equal(t, "a@b.c", v.Get("pg_user_contact_email"))
	assert.True(t, Verify(v, "k"))

	u, err := url.Parse(s.RedirectURL(creds, Request{OrderID: "o-1", Amount: 1}))
	require.NoError(t, err)
	assert.Equal(t, "pay.example", u.Host)
	assert.True(t, Verify(u.Query(), "k"))
}

func TestParseCallback(t *testing.T) {
	cb, err := ParseCallback(url.Values{"pg_order_id": {"o-1"}, "pg_payment_id": {"tx-9"}, "pg_result": {"1"}})
	require.NoError(t, err)
	assert.True(t, cb.Success)
	assert.Equal(t, "o-1", cb.OrderID)
	assert.Equal(t, "tx-9", cb.TransactionID)

	cb, err = ParseCallback(url.Values{"pg_order_id": {"o-1"}, "pg_result": {"0"}, "pg_failure_description": {"declined"}})
	require.NoError(t, err)
	assert.False(t, cb.Success)
	assert.Equal(t, "declined", cb.FailureDescription)

	_, err = ParseCallback(url.Values{"pg_result": {"1"}})
	assert.ErrorIs(t, err, ErrMalformedCallback)

	_, err = ParseCallback(url.Values{"pg_order_id": {"o-1"}, "pg_result": {"maybe"}})
	assert.ErrorIs(t, err, ErrMalformedCallback)
}

type stubAccounts map[string]Credentials

func (s stubAccounts) MerchantAccount(_ context.Context, restaurantID string) (Credentials, bool, error) {
	if restaurantID == "broken" {
		return Credentials{}, false, errors.New("db down")
	}
	c, ok := s[restaurantID]
	return c, ok, nil
}

func TestResolver(t *testing.T) {
	def := Credentials{MerchantID: "platform", SecretKey: "pk"}
	r := &Resolver{Default: def, Accounts: stubAccounts{
		"r-own":     {MerchantID: "own", SecretKey: "ok"},
		"r-partial": {MerchantID: "half"},
	}}
	ctx := context.Background()

	got, err := r.Resolve(ctx, "r-own")
	require.NoError(t, err)
	assert.Equal(t, "own", got.MerchantID)

	got, err = r.Resolve(ctx, "r-partial")
	require.NoError(t, err)
	assert.Equal(t, def, got)

	got, err = r.Resolve(ctx, "r-none")
	require.NoError(t, err)
	assert.Equal(t, def, got)

	got, err = r.Resolve(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, def, got)

	_, err = r.Resolve(ctx, "broken")
	assert.Error(t, err)
}
