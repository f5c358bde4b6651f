package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	orderApplication "github.com/rcarvalho-pb/bakery_payments-go/internal/application/order"
	paymentApplication "github.com/rcarvalho-pb/bakery_payments-go/internal/application/payment"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/config"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/event"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/order"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/domain/payment"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infra/logging"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infrastructure/eventbus"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infrastructure/outbox"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infrastructure/persistence/inmemory"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infrastructure/persistence/sqlstore"
	"github.com/rcarvalho-pb/bakery_payments-go/internal/infrastructure/provider"
)

// openDB is replaced in tests with a cgo-free driver.
var openDB = sqlstore.Open

type app struct {
	cfg        *config.Config
	db         *sql.DB
	logger     logging.Logger
	metrics    *metrics.Counters
	service    *paymentApplication.Service
	bus        *eventbus.InMemoryBus
	dispatcher *outbox.Dispatcher
}

func newApp(cfg *config.Config, logOut io.Writer) (*app, error) {
	a := &app{
		cfg:     cfg,
		logger:  logging.NewJSONLogger(logOut, cfg.Log.Level),
		metrics: &metrics.Counters{},
		bus:     eventbus.NewInMemoryBus(),
	}

	var (
		settings   payment.SettingsRepository
		orders     order.Repository
		outboxRepo outbox.Repository
	)

	if cfg.Database.Driver == config.DriverMemory {
		settings = inmemory.NewSettingsRepository()
		orders = inmemory.NewOrderRepository(nil)
		outboxRepo = inmemory.NewOutboxRepository()
	} else {
		db, err := openDB(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		if err := sqlstore.RunMigrations(db, cfg.Database.Driver); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		settings = sqlstore.NewSettingsRepository(db)
		orders = sqlstore.NewOrderRepository(db, nil)
		outboxRepo = outbox.NewSQLRepository(db)
	}

	a.service = &paymentApplication.Service{
		SettingsRepo: settings,
		Orders:       orders,
		Factory:      provider.NewFactory(),
		Recorder:     &outbox.Recorder{Repo: outboxRepo},
		Logger:       a.logger,
		Metrics:      a.metrics,
	}

	settled := &orderApplication.PaymentEventHandler{
		Repo:    orders,
		Logger:  a.logger,
		Metrics: a.metrics,
	}
	a.bus.Subscribe(event.PaymentCompleted, settled.Handle)
	a.bus.Subscribe(event.PaymentFailed, settled.Handle)

	a.dispatcher = &outbox.Dispatcher{
		Repo:         outboxRepo,
		EventBus:     a.bus,
		Logger:       a.logger,
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
	}

	return a, nil
}

func (a *app) ready() error {
	if a.db == nil {
		return nil
	}
	return a.db.PingContext(context.Background())
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
