package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infrastructure/provider"
)

func newRazorpay(t *testing.T, payments provider.RazorpayPayments) *provider.Razorpay {
	t.Helper()
	r, err := provider.NewRazorpay(payment.RazorpayConfig{KeyID: "rzp_test", KeySecret: "rzp_secret"}, payments)
	require.NoError(t, err)
	return r
}

func TestRazorpaySignature_KnownVector(t *testing.T) {
	assert.Equal(t,
		"c6eb120fa80c0c6243742de1c91a42723e32ba83b58020ed1dce37d8096bd28e",
		provider.RazorpaySignature("rzp_secret", "order_Abc123", "pay_Xyz789"),
	)
}

func TestRazorpay_InitiateReturnsCheckoutFields(t *testing.T) {
	r := newRazorpay(t, &fakeRazorpayPayments{})

	resp := r.InitiatePayment(context.Background(), payment.InitiateRequest{
		OrderID:  "ord-5",
		Amount:   500,
		Currency: "INR",
		Customer: payment.Customer{ID: "c1", Name: "Ravi"},
	})

	require.True(t, resp.Success)
	assert.Equal(t, "rzp_test", resp.KeyID)
	assert.Equal(t, "ord-5", resp.OrderID)
	assert.EqualValues(t, 500, resp.Amount)
	assert.Empty(t, resp.ClientSecret)
}

func TestRazorpay_VerifyExactSignature(t *testing.T) {
	r := newRazorpay(t, &fakeRazorpayPayments{})
	good := provider.RazorpaySignature("rzp_secret", "order_Abc123", "pay_Xyz789")

	resp := r.VerifyPayment(context.Background(), payment.VerifyRequest{
		PaymentID: "pay_Xyz789",
		OrderID:   "ord-5",
		Metadata: map[string]any{
			"razorpay_signature": good,
			"razorpay_order_id":  "order_Abc123",
		},
	})
	require.True(t, resp.Success)
	require.True(t, resp.Verified)
	assert.Equal(t, payment.StatusSuccess, resp.Status)

	tampered := []string{
		good[:len(good)-1] + "0",
		provider.RazorpaySignature("other_secret", "order_Abc123", "pay_Xyz789"),
		provider.RazorpaySignature("rzp_secret", "order_Abc123", "pay_Other"),
		"",
	}
	for _, sig := range tampered {
		if sig == good {
			continue
		}
		resp := r.VerifyPayment(context.Background(), payment.VerifyRequest{
			PaymentID: "pay_Xyz789",
			Metadata: map[string]any{
				"razorpay_signature": sig,
				"razorpay_order_id":  "order_Abc123",
			},
		})
		assert.False(t, resp.Verified, "signature %q must not verify", sig)
	}
}

func TestRazorpay_VerifyMissingMetadata(t *testing.T) {
	r := newRazorpay(t, &fakeRazorpayPayments{})

	resp := r.VerifyPayment(context.Background(), payment.VerifyRequest{
		PaymentID: "pay_1",
		Metadata:  map[string]any{"razorpay_order_id": "order_1"},
	})

	assert.False(t, resp.Success)
	assert.False(t, resp.Verified)
	assert.Contains(t, resp.Error, "razorpay_signature")
}

func TestRazorpay_LookupStatus(t *testing.T) {
	statuses := map[string]payment.Status{
		"captured":   payment.StatusSuccess,
		"failed":     payment.StatusFailed,
		"authorized": payment.StatusPending,
	}

	for gatewayStatus, want := range statuses {
		r := newRazorpay(t, &fakeRazorpayPayments{
			fetchFn: func(id string) (map[string]interface{}, error) {
				return map[string]interface{}{"id": id, "status": gatewayStatus}, nil
			},
		})
		got, err := r.LookupStatus(context.Background(), "pay_1")
		require.NoError(t, err)
		assert.Equal(t, want, got, gatewayStatus)
	}

	r := newRazorpay(t, &fakeRazorpayPayments{
		fetchFn: func(string) (map[string]interface{}, error) { return nil, errors.New("401") },
	})
	_, err := r.LookupStatus(context.Background(), "pay_1")
	require.Error(t, err)
}
