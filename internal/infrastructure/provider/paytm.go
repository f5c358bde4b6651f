package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
)

const (
	defaultPaytmURL      = "https://securegw.paytm.in/order/process"
	defaultPaytmWebsite  = "WEBSTAGING"
	defaultPaytmIndustry = "Retail"
	defaultPaytmChannel  = "WEB"
	paytmChecksumKey     = "CHECKSUMHASH"
)

// Request and response checksums are computed in separate domains so a
// checksum handed out at initiation never verifies as a gateway response.
const (
	paytmRequestDomain  = "paytm-request"
	paytmResponseDomain = "paytm-response"
)

type Paytm struct {
	merchantID   string
	merchantKey  string
	website      string
	industryType string
	channelID    string
	callbackURL  string
	baseURL      string
}

func NewPaytm(cfg payment.PaytmConfig) (*Paytm, error) {
	if err := requireConfig(cfg); err != nil {
		return nil, err
	}
	return &Paytm{
		merchantID:   cfg.MerchantID,
		merchantKey:  cfg.MerchantKey,
		website:      orDefault(cfg.Website, defaultPaytmWebsite),
		industryType: orDefault(cfg.IndustryType, defaultPaytmIndustry),
		channelID:    orDefault(cfg.ChannelID, defaultPaytmChannel),
		callbackURL:  cfg.CallbackURL,
		baseURL:      orDefault(cfg.BaseURL, defaultPaytmURL),
	}, nil
}

func (p *Paytm) Name() payment.ProviderID { return payment.ProviderPaytm }

func (p *Paytm) InitiatePayment(_ context.Context, req payment.InitiateRequest) payment.InitiateResponse {
	params := p.requestParams(req)
	checksum := PaytmRequestChecksum(p.merchantKey, params)

	metadata := make(map[string]string, len(params)+1)
	for k, v := range params {
		metadata[k] = v
	}
	metadata[paytmChecksumKey] = checksum

	redirect := fmt.Sprintf("%s?mid=%s&orderId=%s", p.baseURL, url.QueryEscape(p.merchantID), url.QueryEscape(req.OrderID))

	return payment.InitiateResponse{
		Success:     true,
		OrderID:     req.OrderID,
		Amount:      req.Amount,
		Currency:    req.Currency,
		RedirectURL: redirect,
		Metadata:    metadata,
	}
}

func (p *Paytm) requestParams(req payment.InitiateRequest) map[string]string {
	params := map[string]string{
		"MID":              p.merchantID,
		"ORDER_ID":         req.OrderID,
		"CUST_ID":          req.Customer.ID,
		"TXN_AMOUNT":       strconv.FormatInt(req.Amount, 10),
		"CHANNEL_ID":       p.channelID,
		"WEBSITE":          p.website,
		"INDUSTRY_TYPE_ID": p.industryType,
	}
	setIfPresent(params, "CALLBACK_URL", p.callbackURL)
	return params
}

func (p *Paytm) VerifyPayment(_ context.Context, req payment.VerifyRequest) payment.VerifyResponse {
	checksum, ok := payment.MetadataString(req.Metadata, paytmChecksumKey)
	if !ok {
		return payment.VerifyFailure("paytm: CHECKSUMHASH is required")
	}
	status, ok := payment.MetadataString(req.Metadata, "STATUS")
	if !ok {
		return payment.VerifyFailure("paytm: STATUS is required")
	}

	params := make(map[string]string, len(req.Metadata))
	for k := range req.Metadata {
		if k == paytmChecksumKey {
			continue
		}
		v, _ := payment.MetadataString(req.Metadata, k)
		params[k] = v
	}

	paymentID := req.PaymentID
	if paymentID == "" {
		paymentID = params["TXNID"]
	}
	reject := func(msg string) payment.VerifyResponse {
		return payment.VerifyResponse{Success: true, PaymentID: paymentID, Error: msg}
	}

	for _, key := range []string{"MID", "ORDERID", "TXNAMOUNT"} {
		if params[key] == "" {
			return payment.VerifyFailure("paytm: " + key + " is required")
		}
	}
	amount, err := parseAmount(params["TXNAMOUNT"])
	if err != nil {
		return payment.VerifyFailure("paytm: " + err.Error())
	}

	if params["MID"] != p.merchantID {
		return reject("paytm: merchant id mismatch")
	}
	if params["ORDERID"] != req.OrderID {
		return reject("paytm: order id mismatch")
	}
	if !signaturesEqual(PaytmResponseChecksum(p.merchantKey, params), checksum) {
		return reject("paytm: checksum mismatch")
	}

	return payment.VerifyResponse{
		Success:   true,
		Verified:  true,
		PaymentID: paymentID,
		Amount:    amount,
		Currency:  params["CURRENCY"],
		Status:    paytmStatus(status),
	}
}

// PaytmRequestChecksum signs the parameters posted to the hosted page.
func PaytmRequestChecksum(merchantKey string, params map[string]string) string {
	return paytmChecksum(merchantKey, paytmRequestDomain, params)
}

// PaytmResponseChecksum is the checksum expected on a gateway response.
func PaytmResponseChecksum(merchantKey string, params map[string]string) string {
	return paytmChecksum(merchantKey, paytmResponseDomain, params)
}

// paytmChecksum is HMAC-SHA256, keyed by the merchant key, over the domain
// and the sorted, escaped key=value&... form of params.
func paytmChecksum(merchantKey, domain string, params map[string]string) string {
	return hmacSHA256Hex(merchantKey, domain+"\n"+canonicalQuery(params))
}

func paytmStatus(status string) payment.Status {
	switch status {
	case "TXN_SUCCESS":
		return payment.StatusSuccess
	case "TXN_FAILURE":
		return payment.StatusFailed
	default:
		return payment.StatusPending
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
