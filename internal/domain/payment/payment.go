package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
)

type ProviderID string

const (
	ProviderStripe   ProviderID = "stripe"
	ProviderRazorpay ProviderID = "razorpay"
	ProviderPayU     ProviderID = "payu"
	ProviderPaytm    ProviderID = "paytm"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusPending Status = "pending"
)

var (
	ErrInvalidRequest = errors.New("invalid payment request")
	ErrInvalidAmount  = errors.New("amount must be a positive integer in the smallest currency unit")
)

// Provider is the contract every gateway adapter implements. Expected
// business failures are reported inside the responses, never as panics or
// Go errors.
type Provider interface {
	Name() ProviderID
	InitiatePayment(ctx context.Context, req InitiateRequest) InitiateResponse
	VerifyPayment(ctx context.Context, req VerifyRequest) VerifyResponse
}

// StatusLookup is implemented by adapters that can ask the gateway for the
// current state of a payment.
type StatusLookup interface {
	LookupStatus(ctx context.Context, paymentID string) (Status, error)
}

type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type InitiateRequest struct {
	OrderID  string            `json:"orderId"`
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Customer Customer          `json:"customer"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate checks the request shape and normalises the currency code to its
// upper-case ISO 4217 form.
func (r *InitiateRequest) Validate() error {
	if strings.TrimSpace(r.OrderID) == "" {
		return fmt.Errorf("%w: orderId is required", ErrInvalidRequest)
	}
	if r.Amount <= 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrInvalidAmount)
	}
	unit, err := currency.ParseISO(r.Currency)
	if err != nil {
		return fmt.Errorf("%w: unknown currency %q", ErrInvalidRequest, r.Currency)
	}
	r.Currency = unit.String()
	if strings.TrimSpace(r.Customer.ID) == "" {
		return fmt.Errorf("%w: customer.id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Customer.Name) == "" {
		return fmt.Errorf("%w: customer.name is required", ErrInvalidRequest)
	}
	return nil
}

type InitiateResponse struct {
	Success      bool              `json:"success"`
	PaymentID    string            `json:"paymentId,omitempty"`
	ClientSecret string            `json:"clientSecret,omitempty"`
	OrderID      string            `json:"orderId,omitempty"`
	KeyID        string            `json:"keyId,omitempty"`
	Amount       int64             `json:"amount,omitempty"`
	Currency     string            `json:"currency,omitempty"`
	RedirectURL  string            `json:"redirectUrl,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// InitiateFailure builds a failed response; no payment-identifying field is
// ever set alongside an error.
func InitiateFailure(msg string) InitiateResponse {
	return InitiateResponse{Success: false, Error: msg}
}

type VerifyRequest struct {
	PaymentID string         `json:"paymentId"`
	OrderID   string         `json:"orderId"`
	Provider  ProviderID     `json:"provider,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type VerifyResponse struct {
	Success   bool   `json:"success"`
	Verified  bool   `json:"verified"`
	PaymentID string `json:"paymentId,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Status    Status `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

// VerifyFailure reports that verification could not run at all.
func VerifyFailure(msg string) VerifyResponse {
	return VerifyResponse{Success: false, Verified: false, Error: msg}
}

// MetadataString reads a callback parameter as text. JSON numbers are
// rendered without exponent so they sign the same way the gateway sent them.
func MetadataString(m map[string]any, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, t != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return fmt.Sprint(t), true
	}
}
