package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/xeipuuv/gojsonschema"

	paymentApplication "github.com/rcarvalho-pb/bakery_payments-go/internal/application/payment"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infra/logging"
)

const maxBodyBytes = 1 << 20

const (
	genericInitiateError = "payment could not be started"
	genericVerifyError   = "payment could not be verified"
)

type PaymentHandler struct {
	Service      *paymentApplication.Service
	Logger       logging.Logger
	ExposeErrors bool
}

func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	var req payment.InitiateRequest
	if err := decodeBody(r, initiateLoader, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	resp, err := h.Service.Initiate(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if !resp.Success {
		if !h.ExposeErrors {
			resp.Error = genericInitiateError
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type verifyResponseBody struct {
	paymentApplication.VerifyOutcome
	Error string `json:"error,omitempty"`
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req payment.VerifyRequest
	if err := decodeBody(r, verifyLoader, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	outcome, err := h.Service.Verify(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	body := verifyResponseBody{VerifyOutcome: outcome, Error: h.verifyError(outcome)}
	switch {
	case outcome.PersistErr != nil:
		body.Error = paymentApplication.ErrPersistFailed.Error()
		writeJSON(w, http.StatusInternalServerError, body)
	case !outcome.Success:
		writeJSON(w, http.StatusBadRequest, body)
	default:
		writeJSON(w, http.StatusOK, body)
	}
}

type callbackRequest struct {
	PaymentID string             `json:"paymentId"`
	OrderID   string             `json:"orderId"`
	Status    string             `json:"status"`
	Provider  payment.ProviderID `json:"provider"`
	Metadata  map[string]any     `json:"metadata"`
}

type callbackResponseBody struct {
	Received bool `json:"received"`
	verifyResponseBody
}

// Callback answers gateways with 200 whatever the outcome, so they do not
// retry a notification the service has already judged.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	req, err := parseCallback(r)
	if err != nil {
		h.logger().Warn("callback rejected", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusOK, callbackResponseBody{
			verifyResponseBody: verifyResponseBody{Error: h.clientMessage(http.StatusBadRequest, err)},
		})
		return
	}

	outcome, err := h.Service.Callback(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		h.logger().Warn("callback not applied", map[string]any{
			"order_id": req.OrderID,
			"status":   status,
			"error":    err.Error(),
		})
		writeJSON(w, http.StatusOK, callbackResponseBody{
			Received:           true,
			verifyResponseBody: verifyResponseBody{Error: h.clientMessage(status, err)},
		})
		return
	}

	body := verifyResponseBody{VerifyOutcome: outcome, Error: h.verifyError(outcome)}
	if outcome.PersistErr != nil {
		body.Error = paymentApplication.ErrPersistFailed.Error()
	}
	writeJSON(w, http.StatusOK, callbackResponseBody{Received: true, verifyResponseBody: body})
}

func (h *PaymentHandler) Settings(w http.ResponseWriter, r *http.Request) {
	view, err := h.Service.Settings(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *PaymentHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req paymentApplication.UpdateSettingsRequest
	if err := decodeBody(r, updateSettingsLoader, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	view, err := h.Service.UpdateSettings(r.Context(), req)
	var cfgErr *payment.ConfigError
	if errors.As(err, &cfgErr) || errors.Is(err, payment.ErrInvalidConfig) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if caller, ok := CallerFrom(r.Context()); ok {
		h.logger().Info("payment settings changed", map[string]any{
			"by":       caller.Subject,
			"provider": string(view.Provider),
			"version":  view.Version,
		})
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *PaymentHandler) Providers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"providers": h.Service.SupportedProviders()})
}

func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentId")

	status, err := h.Service.LookupStatus(r.Context(), paymentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paymentId": paymentID, "status": status})
}

func (h *PaymentHandler) verifyError(outcome paymentApplication.VerifyOutcome) string {
	if outcome.Error == "" || h.ExposeErrors {
		return outcome.Error
	}
	return genericVerifyError
}

func (h *PaymentHandler) logger() logging.Logger {
	if h.Logger == nil {
		return logging.Nop{}
	}
	return h.Logger
}

func decodeBody(r *http.Request, schema gojsonschema.JSONLoader, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if err := validateJSONSchema(schema, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}
