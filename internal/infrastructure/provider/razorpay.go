package provider

import (
	"context"
	"fmt"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
)

// Razorpay orders are created by the browser checkout SDK, so initiation only
// hands the client what it needs and verification checks the signature the
// checkout returns.
type Razorpay struct {
	keyID     string
	keySecret string
	payments  RazorpayPayments
}

func NewRazorpay(cfg payment.RazorpayConfig, payments RazorpayPayments) (*Razorpay, error) {
	if err := requireConfig(cfg); err != nil {
		return nil, err
	}
	if payments == nil {
		payments = NewRazorpayPayments(cfg)
	}
	return &Razorpay{keyID: cfg.KeyID, keySecret: cfg.KeySecret, payments: payments}, nil
}

func (r *Razorpay) Name() payment.ProviderID { return payment.ProviderRazorpay }

func (r *Razorpay) InitiatePayment(_ context.Context, req payment.InitiateRequest) payment.InitiateResponse {
	return payment.InitiateResponse{
		Success:  true,
		OrderID:  req.OrderID,
		KeyID:    r.keyID,
		Amount:   req.Amount,
		Currency: req.Currency,
	}
}

func (r *Razorpay) VerifyPayment(_ context.Context, req payment.VerifyRequest) payment.VerifyResponse {
	signature, ok := payment.MetadataString(req.Metadata, "razorpay_signature")
	if !ok {
		return payment.VerifyFailure("razorpay: razorpay_signature is required")
	}
	gatewayOrderID, ok := payment.MetadataString(req.Metadata, "razorpay_order_id")
	if !ok {
		return payment.VerifyFailure("razorpay: razorpay_order_id is required")
	}
	if req.PaymentID == "" {
		return payment.VerifyFailure("razorpay: payment id is required")
	}

	expected := RazorpaySignature(r.keySecret, gatewayOrderID, req.PaymentID)
	if !signaturesEqual(expected, signature) {
		return payment.VerifyResponse{
			Success:   true,
			Verified:  false,
			PaymentID: req.PaymentID,
			Error:     "razorpay: signature mismatch",
		}
	}

	return payment.VerifyResponse{
		Success:   true,
		Verified:  true,
		PaymentID: req.PaymentID,
		Status:    payment.StatusSuccess,
	}
}

func (r *Razorpay) LookupStatus(_ context.Context, paymentID string) (payment.Status, error) {
	body, err := r.payments.Fetch(paymentID, nil, nil)
	if err != nil {
		return "", fmt.Errorf("razorpay: fetch payment %s: %w", paymentID, err)
	}
	status, _ := body["status"].(string)
	switch status {
	case "captured":
		return payment.StatusSuccess, nil
	case "failed":
		return payment.StatusFailed, nil
	default:
		return payment.StatusPending, nil
	}
}

// RazorpaySignature is HMAC-SHA256(secret, orderID|paymentID) in hex, the
// value Razorpay checkout returns as razorpay_signature.
func RazorpaySignature(secret, orderID, paymentID string) string {
	return hmacSHA256Hex(secret, orderID+"|"+paymentID)
}
