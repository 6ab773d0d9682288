package service

import (
	"context"
	"testing"
	"time"

	"github.com/safar/go-bookstore/internal/events/eventstest"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/safar/go-bookstore/internal/store/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	store    *memory.Store
	svc      *Services
	recorder *eventstest.Recorder
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.New(),
		recorder: &eventstest.Recorder{},
		now:      time.Date(2024, 1, 5, 15, 30, 0, 0, time.UTC),
	}
	f.svc = New(f.store,
		WithPublisher(f.recorder),
		WithClock(func() time.Time { return f.now }),
		WithBcryptCost(bcrypt.MinCost),
	)
	return f
}

func (f *fixture) customer(t *testing.T, username string) *AccountView {
	t.Helper()
	account, err := f.svc.Accounts.Register(context.Background(), RegisterInput{
		Username: username,
		Password: "secret-" + username,
		Name:     "Name " + username,
		Email:    username + "@example.com",
		Phone:    "555-0100",
		Address:  "1 Main St",
	})
	require.NoError(t, err)
	return account
}

func (f *fixture) book(t *testing.T, title string, price string, stock int, categoryIDs ...int64) *BookDetail {
	t.Helper()
	book, err := f.svc.Catalog.CreateBook(context.Background(), BookInput{
		Title:  title,
		Author: "Author " + title,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
	}, categoryIDs)
	require.NoError(t, err)
	return book
}

func (f *fixture) stock(t *testing.T, bookID int64) int {
	t.Helper()
	book, err := f.store.Books().Get(context.Background(), bookID)
	require.NoError(t, err)
	return book.Stock
}

// placeOrder fills the cart and checks out using the account profile.
func (f *fixture) placeOrder(t *testing.T, accountID int64, items map[int64]int) *OrderView {
	t.Helper()
	ctx := context.Background()
	for bookID, qty := range items {
		_, err := f.svc.Cart.AddToCart(ctx, accountID, bookID, qty)
		require.NoError(t, err)
	}
	order, err := f.svc.Orders.Checkout(ctx, accountID, CheckoutRequest{UseAccountInfo: true})
	require.NoError(t, err)
	return order
}

func (f *fixture) approve(t *testing.T, orderID int64) *models.Order {
	t.Helper()
	order, err := f.svc.Orders.ApproveOrder(context.Background(), orderID)
	require.NoError(t, err)
	return order
}
