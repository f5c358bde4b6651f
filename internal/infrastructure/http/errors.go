package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	paymentApplication "github.com/rcarvalho-pb/bakery_payments-go/internal/application/payment"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/order"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
)

var errMalformedBody = errors.New("malformed request body")

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps service errors to HTTP status codes. Anything unknown,
// including a stored config that no longer builds an adapter, is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errMalformedBody),
		errors.Is(err, payment.ErrInvalidRequest),
		errors.Is(err, paymentApplication.ErrAmountMismatch),
		errors.Is(err, paymentApplication.ErrPaymentsUnavailable),
		errors.Is(err, paymentApplication.ErrProviderMismatch),
		errors.Is(err, paymentApplication.ErrLookupUnsupported),
		errors.Is(err, payment.ErrUnsupportedProvider):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, paymentApplication.ErrAlreadyPaid),
		errors.Is(err, order.ErrPaymentConflict),
		errors.Is(err, order.ErrPaymentIDInUse):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// clientMessage hides server-side detail unless the deployment opts in.
func (h *PaymentHandler) clientMessage(status int, err error) string {
	if status < http.StatusInternalServerError || h.ExposeErrors {
		return err.Error()
	}
	return http.StatusText(status)
}

func (h *PaymentHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	fields := map[string]any{
		"path":   r.URL.Path,
		"status": status,
		"error":  err.Error(),
	}
	if status >= http.StatusInternalServerError {
		h.logger().Error("request failed", fields)
	} else {
		h.logger().Info("request rejected", fields)
	}
	writeJSON(w, status, errorBody{Error: h.clientMessage(status, err)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
