package httpapi

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
)

// Form field names gateways use for the order and payment ids.
var (
	callbackOrderKeys   = []string{"orderId", "txnid", "ORDERID", "ORDER_ID"}
	callbackPaymentKeys = []string{"paymentId", "mihpayid", "TXNID", "razorpay_payment_id"}
)

// routingKeys are ours, not the gateway's, and never reach the verifier.
var routingKeys = []string{"orderId", "paymentId", "provider"}

func parseCallback(r *http.Request) (payment.VerifyRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return payment.VerifyRequest{}, fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		return callbackFromForm(r.URL.Query(), r.PostForm)
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			return payment.VerifyRequest{}, fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		return callbackFromForm(r.URL.Query(), r.PostForm)
	}

	var body callbackRequest
	if err := decodeBody(r, callbackLoader, &body); err != nil {
		return payment.VerifyRequest{}, err
	}
	return payment.VerifyRequest{
		PaymentID: body.PaymentID,
		OrderID:   body.OrderID,
		Provider:  body.Provider,
		Metadata:  body.Metadata,
	}, nil
}

func callbackFromForm(query, form url.Values) (payment.VerifyRequest, error) {
	lookup := func(keys []string) string {
		for _, k := range keys {
			if v := form.Get(k); v != "" {
				return v
			}
			if v := query.Get(k); v != "" {
				return v
			}
		}
		return ""
	}

	req := payment.VerifyRequest{
		OrderID:   lookup(callbackOrderKeys),
		PaymentID: lookup(callbackPaymentKeys),
		Provider:  payment.ProviderID(lookup([]string{"provider"})),
		Metadata:  make(map[string]any, len(form)),
	}
	if req.OrderID == "" {
		return payment.VerifyRequest{}, fmt.Errorf("%w: no order id in callback", errMalformedBody)
	}

	for k := range form {
		req.Metadata[k] = form.Get(k)
	}
	for _, k := range routingKeys {
		delete(req.Metadata, k)
	}
	return req, nil
}
