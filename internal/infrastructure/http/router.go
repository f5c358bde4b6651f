package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rcarvalho-pb/bakery_payments-go/internal/infra/logging"
)

type RouterConfig struct {
	Handler   *PaymentHandler
	Auth      *Authenticator
	Limiter   *IPLimiter
	Logger    logging.Logger
	Readiness func() error

	// TrustProxy rewrites the client address from X-Forwarded-For and
	// X-Real-IP. Enable only behind a proxy that overwrites those headers.
	TrustProxy bool
}

func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop{}
	}
	h := cfg.Handler

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if cfg.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(limitBody)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if cfg.Readiness != nil {
			if err := cfg.Readiness(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/payment", func(r chi.Router) {
		r.With(cfg.Limiter.Middleware).Post("/callback", h.Callback)

		r.Group(func(r chi.Router) {
			r.Use(cfg.Auth.Authenticate)

			r.Post("/initiate", h.Initiate)
			r.Post("/verify", h.Verify)
			r.Get("/providers", h.Providers)

			r.Group(func(r chi.Router) {
				r.Use(RequireAdmin)

				r.Get("/settings", h.Settings)
				r.Post("/update", h.UpdateSettings)
				r.Get("/status/{paymentId}", h.Status)
			})
		})
	})

	return r
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("http request", map[string]any{
				"request_id":  middleware.GetReqID(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"duration_ms": time.Since(start).Milliseconds(),
			})
		})
	}
}
