// Package memory is an in-process implementation of the repository contracts,
// used for tests and for running the API without PostgreSQL.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/safar/go-bookstore/internal/models"
	"github.com/safar/go-bookstore/internal/repository"
)

type state struct {
	seq            int64
	books          map[int64]models.Book
	categories     map[int64]models.Category
	bookCategories map[int64]map[int64]struct{}
	accounts       map[int64]models.Account
	cartLines      map[int64]models.CartLine
	orders         map[int64]models.Order
	reports        map[int64]models.Report
}

func newState() *state {
	return &state{
		books:          make(map[int64]models.Book),
		categories:     make(map[int64]models.Category),
		bookCategories: make(map[int64]map[int64]struct{}),
		accounts:       make(map[int64]models.Account),
		cartLines:      make(map[int64]models.CartLine),
		orders:         make(map[int64]models.Order),
		reports:        make(map[int64]models.Report),
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *state) clone() *state {
	c := newState()
	c.seq = s.seq
	for id, b := range s.books {
		c.books[id] = b
	}
	for id, cat := range s.categories {
		c.categories[id] = cat
	}
	for bookID, set := range s.bookCategories {
		copied := make(map[int64]struct{}, len(set))
		for id := range set {
			copied[id] = struct{}{}
		}
		c.bookCategories[bookID] = copied
	}
	for id, a := range s.accounts {
		c.accounts[id] = a
	}
	for id, l := range s.cartLines {
		c.cartLines[id] = l
	}
	for id, o := range s.orders {
		c.orders[id] = cloneOrder(o)
	}
	for id, r := range s.reports {
		c.reports[id] = r
	}
	return c
}

func cloneOrder(o models.Order) models.Order {
	if o.AccountID != nil {
		id := *o.AccountID
		o.AccountID = &id
	}
	if o.Lines != nil {
		o.Lines = append([]models.OrderLine(nil), o.Lines...)
	}
	return o
}

// ErrReadOnly is returned by writes issued inside ReadTx.
var ErrReadOnly = errors.New("memory: write in read-only transaction")

// Store serialises every operation behind one mutex. InTx works on a copy of
// the state and publishes it only when fn succeeds.
type Store struct {
	mu    sync.Mutex
	st    *state
	clock func() time.Time
	*view
}

var _ repository.Store = (*Store)(nil)

type Option func(*Store)

// WithClock overrides the timestamp source for created rows.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.clock = now
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		st:    newState(),
		clock: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.view = &view{store: s}
	return s
}

func (s *Store) InTx(ctx context.Context, fn func(repository.Scope) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.st.clone()
	if err := fn(&view{store: s, tx: working}); err != nil {
		return err
	}

	s.st = working
	return nil
}

func (s *Store) ReadTx(ctx context.Context, fn func(repository.Scope) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(&view{store: s, tx: s.st, readOnly: true})
}

// view binds repositories either to the live state or to a transaction copy.
type view struct {
	store    *Store
	tx       *state
	readOnly bool
}

func (v *view) do(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.tx != nil {
		return fn(v.tx)
	}

	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

func (v *view) write(ctx context.Context, fn func(st *state) error) error {
	if v.readOnly {
		return ErrReadOnly
	}
	return v.do(ctx, fn)
}

func (v *view) now() time.Time {
	return v.store.clock()
}

func (v *view) Books() repository.Books           { return &bookRepo{v: v} }
func (v *view) Categories() repository.Categories { return &categoryRepo{v: v} }
func (v *view) Accounts() repository.Accounts     { return &accountRepo{v: v} }
func (v *view) Carts() repository.Carts           { return &cartRepo{v: v} }
func (v *view) Orders() repository.Orders         { return &orderRepo{v: v} }
func (v *view) Reports() repository.Reports       { return &reportRepo{v: v} }

func paginate[T any](items []T, page, pageSize int) *repository.OffsetPage[T] {
	total := int64(len(items))
	start := (page - 1) * pageSize
	if start < 0 || start > len(items) {
		start = len(items)
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return repository.NewOffsetPage(append([]T(nil), items[start:end]...), total, page, pageSize)
}
