package provider

import (
	"context"
	"strconv"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
)

const defaultPayUURL = "https://secure.payu.in/_payment"

// PayU posts the customer to a hosted page. The request is signed with a
// salted SHA-512 hash; the callback carries a reverse hash over the outcome.
type PayU struct {
	merchantKey string
	salt        string
	baseURL     string
	successURL  string
	failureURL  string
}

func NewPayU(cfg payment.PayUConfig) (*PayU, error) {
	if err := requireConfig(cfg); err != nil {
		return nil, err
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultPayUURL
	}
	return &PayU{
		merchantKey: cfg.MerchantKey,
		salt:        cfg.Salt,
		baseURL:     baseURL,
		successURL:  cfg.SuccessURL,
		failureURL:  cfg.FailureURL,
	}, nil
}

func (p *PayU) Name() payment.ProviderID { return payment.ProviderPayU }

func (p *PayU) InitiatePayment(_ context.Context, req payment.InitiateRequest) payment.InitiateResponse {
	amount := strconv.FormatInt(req.Amount, 10)
	hash := PayURequestHash(p.merchantKey, p.salt, req.OrderID, amount, req.Currency, req.Customer.Name)

	metadata := map[string]string{
		"key":       p.merchantKey,
		"txnid":     req.OrderID,
		"amount":    amount,
		"currency":  req.Currency,
		"firstname": req.Customer.Name,
		"hash":      hash,
	}
	setIfPresent(metadata, "email", req.Customer.Email)
	setIfPresent(metadata, "phone", req.Customer.Phone)
	setIfPresent(metadata, "surl", p.successURL)
	setIfPresent(metadata, "furl", p.failureURL)

	return payment.InitiateResponse{
		Success:     true,
		OrderID:     req.OrderID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		RedirectURL: p.baseURL,
		Metadata:    metadata,
	}
}

func (p *PayU) VerifyPayment(_ context.Context, req payment.VerifyRequest) payment.VerifyResponse {
	hash, ok := payment.MetadataString(req.Metadata, "hash")
	if !ok {
		return payment.VerifyFailure("payu: hash is required")
	}
	status, ok := payment.MetadataString(req.Metadata, "status")
	if !ok {
		return payment.VerifyFailure("payu: status is required")
	}
	amount, ok := payment.MetadataString(req.Metadata, "amount")
	if !ok {
		return payment.VerifyFailure("payu: amount is required")
	}
	txnID, ok := payment.MetadataString(req.Metadata, "txnid")
	if !ok {
		txnID = req.OrderID
	}
	currency, _ := payment.MetadataString(req.Metadata, "currency")
	firstName, _ := payment.MetadataString(req.Metadata, "firstname")

	parsed, err := parseAmount(amount)
	if err != nil {
		return payment.VerifyFailure("payu: " + err.Error())
	}

	if txnID != req.OrderID {
		return payment.VerifyResponse{Success: true, PaymentID: req.PaymentID, Error: "payu: txnid does not match order"}
	}

	expected := PayUResponseHash(p.merchantKey, p.salt, status, txnID, amount, currency, firstName)
	if !signaturesEqual(expected, hash) {
		return payment.VerifyResponse{Success: true, PaymentID: req.PaymentID, Error: "payu: hash mismatch"}
	}

	return payment.VerifyResponse{
		Success:   true,
		Verified:  true,
		PaymentID: req.PaymentID,
		Amount:    parsed,
		Currency:  currency,
		Status:    payuStatus(status),
	}
}

// PayURequestHash signs the hosted-page request:
// SHA512(key|txnid|amount|currency|firstname + salt).
func PayURequestHash(key, salt, txnID, amount, currency, firstName string) string {
	return sha512Hex(key + "|" + txnID + "|" + amount + "|" + currency + "|" + firstName + salt)
}

// PayUResponseHash is the reverse hash PayU sends back with the outcome:
// SHA512(salt|status|firstname|currency|amount|txnid|key).
func PayUResponseHash(key, salt, status, txnID, amount, currency, firstName string) string {
	return sha512Hex(salt + "|" + status + "|" + firstName + "|" + currency + "|" + amount + "|" + txnID + "|" + key)
}

func payuStatus(status string) payment.Status {
	switch status {
	case "success":
		return payment.StatusSuccess
	case "failure", "failed":
		return payment.StatusFailed
	default:
		return payment.StatusPending
	}
}

func setIfPresent(m map[string]string, key, value string) {
	if value != "" {
		m[key] = value
	}
}
