package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpapi "github.com/rcarvalho-pb/bakery_payments-go/internal/infrastructure/http"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the payment HTTP API and outbox dispatcher",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.open()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if len(a.cfg.Auth.JWTSecret) == 0 {
		a.logger.Warn("auth.jwt_secret is empty; authenticated endpoints will reject every request", nil)
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Handler: &httpapi.PaymentHandler{
			Service:      a.service,
			Logger:       a.logger,
			ExposeErrors: a.cfg.HTTP.ExposeErrors,
		},
		Auth:       &httpapi.Authenticator{Secret: []byte(a.cfg.Auth.JWTSecret), Issuer: a.cfg.Auth.Issuer},
		Limiter:    httpapi.NewIPLimiter(a.cfg.Callback.RatePerSecond, a.cfg.Callback.Burst),
		Logger:     a.logger,
		Readiness:  a.ready,
		TrustProxy: a.cfg.HTTP.TrustProxy,
	})

	srv := &http.Server{
		Addr:         a.cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  a.cfg.HTTP.ReadTimeout,
		WriteTimeout: a.cfg.HTTP.WriteTimeout,
	}

	dispatchCtx, cancelDispatch := context.WithCancel(ctx)
	defer cancelDispatch()
	go a.dispatcher.Run(dispatchCtx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", map[string]any{"addr": srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	a.logger.Info("shutting down", map[string]any{"metrics": a.metrics.Snapshot()})
	return srv.Shutdown(shutdownCtx)
}
