// Package service holds the bookstore's business rules. Services talk to
// persistence only through repository.Store and report failures as the error
// kinds declared in the database package.
package service

import (
	"time"

	"github.com/safar/go-bookstore/internal/events"
	"github.com/safar/go-bookstore/internal/metrics"
	"github.com/safar/go-bookstore/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

type Services struct {
	Accounts *AccountService
	Catalog  *CatalogService
	Cart     *CartService
	Orders   *OrderService
	Reports  *ReportService
}

type options struct {
	publisher  events.Publisher
	metrics    *metrics.Metrics
	now        func() time.Time
	bcryptCost int
}

type Option func(*options)

func WithPublisher(p events.Publisher) Option {
	return func(o *options) { o.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock sets the time used for report dates.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithBcryptCost(cost int) Option {
	return func(o *options) { o.bcryptCost = cost }
}

func New(store repository.Store, opts ...Option) *Services {
	o := options{
		publisher:  events.NewNoopPublisher(),
		now:        func() time.Time { return time.Now().UTC() },
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Services{
		Accounts: NewAccountService(store, o.bcryptCost),
		Catalog:  NewCatalogService(store),
		Cart:     NewCartService(store),
		Orders:   NewOrderService(store, o.publisher, o.metrics, o.now),
		Reports:  NewReportService(store),
	}
}
