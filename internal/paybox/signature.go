// Package paybox talks to the PayBox payment processor: it signs redirect
// requests, verifies result callbacks and resolves which merchant account an
// order is charged through.
package paybox

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

const SignatureField = "pg_sig"

// Sign computes md5(v1;v2;...;vN;secret) over every field except pg_sig,
// with values ordered by field name. Only the first value of a repeated
// field takes part.
func Sign(fields url.Values, secret string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == SignatureField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	for _, k := range keys {
		parts = append(parts, fields.Get(k))
	}
	parts = append(parts, secret)

	sum := md5.Sum([]byte(strings.Join(parts, ";")))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the signature and compares it in constant time.
func Verify(fields url.Values, secret string) bool {
	got := fields.Get(SignatureField)
	if got == "" {
		return false
	}
	want := Sign(fields, secret)
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(got)), []byte(want)) == 1
}
