package provider_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infrastructure/provider"
)

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// renderMetadata prints one key=value per line, sorted by key.
func renderMetadata(m map[string]string) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k + "=" + m[k] + "\n")
	}
	return []byte(b.String())
}

func toAny(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func bakeryOrder() payment.InitiateRequest {
	return payment.InitiateRequest{
		OrderID:  "ord-42",
		Amount:   1250,
		Currency: "INR",
		Customer: payment.Customer{ID: "cust-7", Name: "Asha", Email: "asha@example.com"},
	}
}

type fakeStripeGateway struct {
	createFn func(context.Context, provider.StripeIntentParams) (*provider.StripeIntent, error)
	getFn    func(context.Context, string) (*provider.StripeIntent, error)
}

func (f *fakeStripeGateway) CreateIntent(ctx context.Context, p provider.StripeIntentParams) (*provider.StripeIntent, error) {
	return f.createFn(ctx, p)
}

func (f *fakeStripeGateway) GetIntent(ctx context.Context, id string) (*provider.StripeIntent, error) {
	return f.getFn(ctx, id)
}

type fakeRazorpayPayments struct {
	fetchFn func(string) (map[string]interface{}, error)
}

func (f *fakeRazorpayPayments) Fetch(id string, _ map[string]interface{}, _ map[string]string) (map[string]interface{}, error) {
	if f.fetchFn == nil {
		return nil, errors.New("not stubbed")
	}
	return f.fetchFn(id)
}
