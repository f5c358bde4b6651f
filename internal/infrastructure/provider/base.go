// Package provider holds the payment gateway adapters and the registry that
// builds them from stored settings.
package provider

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
)

func requireConfig(cfg payment.ProviderConfig) error {
	return payment.ValidateConfig(cfg)
}

func hmacSHA256Hex(key, message string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func sha512Hex(message string) string {
	sum := sha512.Sum512([]byte(message))
	return hex.EncodeToString(sum[:])
}

// signaturesEqual compares two hex digests byte for byte in constant time.
// Case is significant: gateways send lower-case hex.
func signaturesEqual(computed, supplied string) bool {
	return hmac.Equal([]byte(computed), []byte(supplied))
}

// canonicalQuery joins params as key=value pairs sorted by key, separated by
// &. Keys and values are query-escaped so no value can smuggle in a pair.
func canonicalQuery(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

// parseAmount reads a gateway amount in the unit it was sent in. Gateways may
// echo "1250" as "1250.00"; any non-zero fraction is refused.
func parseAmount(s string) (int64, error) {
	whole, frac, _ := strings.Cut(strings.TrimSpace(s), ".")
	if strings.Trim(frac, "0") != "" {
		return 0, fmt.Errorf("amount %q is not a whole number of units", s)
	}
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("amount %q is not a valid amount", s)
	}
	return n, nil
}
