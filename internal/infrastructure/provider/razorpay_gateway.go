package provider

import (
	razorpay "github.com/razorpay/razorpay-go"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
)

// RazorpayPayments is the payments resource of the Razorpay API client.
type RazorpayPayments interface {
	Fetch(paymentID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

func NewRazorpayPayments(cfg payment.RazorpayConfig) RazorpayPayments {
	return razorpay.NewClient(cfg.KeyID, cfg.KeySecret).Payment
}
