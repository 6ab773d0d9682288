package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/events"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.customer(t, "alice")
	a := f.book(t, "Plenty", "10", 5)
	b := f.book(t, "Scarce", "20", 1)

	_, err := f.svc.Cart.AddToCart(ctx, account.ID, a.ID, 3)
	require.NoError(t, err)
	_, err = f.svc.Cart.AddToCart(ctx, account.ID, b.ID, 1)
	require.NoError(t, err)
	// Merged quantity exceeds stock; only checkout notices.
	_, err = f.svc.Cart.AddToCart(ctx, account.ID, b.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.Orders.Checkout(ctx, account.ID, CheckoutRequest{UseAccountInfo: true})
	require.ErrorIs(t, err, database.ErrOutOfStock)

	var stockErr *database.StockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, []string{"Scarce"}, stockErr.Titles)

	assert.Equal(t, 5, f.stock(t, a.ID))
	assert.Equal(t, 1, f.stock(t, b.ID))

	cart, err := f.svc.Cart.GetCart(ctx, account.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, a.ID, cart.Items[0].BookID)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	orders, err := f.svc.Orders.ListOrders(ctx, account.ID, "", 0)
	require.NoError(t, err)
	assert.Empty(t, orders.Items)
	assert.Empty(t, f.recorder.Types())
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	account := f.customer(t, "bob")

	_, err := f.svc.Orders.Checkout(context.Background(), account.ID, CheckoutRequest{UseAccountInfo: true})
	assert.ErrorIs(t, err, database.ErrEmptyCart)
}

func TestCheckoutCreatesPendingOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.customer(t, "carol")
	a := f.book(t, "First", "12.50", 4)
	b := f.book(t, "Second", "3", 10)

	order := f.placeOrder(t, account.ID, map[int64]int{a.ID: 2, b.ID: 5})

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, strings.HasPrefix(order.OrderNumber, "ORD-20240105-"), order.OrderNumber)
	assert.True(t, decimal.RequireFromString("40").Equal(order.TotalPrice), order.TotalPrice.String())
	require.NotNil(t, order.AccountID)
	assert.Equal(t, account.ID, *order.AccountID)
	assert.Equal(t, models.ContactInfo{
		Name:    account.Name,
		Email:   account.Email,
		Phone:   account.Phone,
		Address: account.Address,
	}, order.Contact)
	require.Len(t, order.Lines, 2)

	assert.Equal(t, 2, f.stock(t, a.ID))
	assert.Equal(t, 5, f.stock(t, b.ID))

	cart, err := f.svc.Cart.GetCart(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	assert.Equal(t, []events.EventType{events.OrderCreated}, f.recorder.Types())
}

func TestCheckoutSurvivesPublishFailure(t *testing.T) {
	f := newFixture(t)
	f.recorder.Err = errors.New("broker down")
	account := f.customer(t, "erin")
	book := f.book(t, "Only", "8", 3)

	order := f.placeOrder(t, account.ID, map[int64]int{book.ID: 1})

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, 2, f.stock(t, book.ID))
	assert.Empty(t, f.recorder.Types())
}

func TestCheckoutSnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.customer(t, "dave")
	book := f.book(t, "Snapshot", "10", 5)

	order := f.placeOrder(t, account.ID, map[int64]int{book.ID: 1})

	newPrice := decimal.RequireFromString("99")
	_, err := f.svc.Catalog.UpdateBook(ctx, book.ID, BookPatch{Price: &newPrice})
	require.NoError(t, err)

	got, err := f.svc.Orders.GetOrder(ctx, account.ID, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(got.Lines[0].Price))
	assert.Equal(t, "Snapshot", got.Lines[0].Title)
}

func TestCheckoutWithSuppliedContact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.customer(t, "erin")
	book := f.book(t, "Gift", "5", 5)

	_, err := f.svc.Cart.AddToCart(ctx, account.ID, book.ID, 1)
	require.NoError(t, err)

	_, err = f.svc.Orders.Checkout(ctx, account.ID, CheckoutRequest{
		Contact: models.ContactInfo{Name: "Friend", Address: "2 Side St"},
	})
	require.ErrorIs(t, err, database.ErrValidation)

	order, err := f.svc.Orders.Checkout(ctx, account.ID, CheckoutRequest{
		Contact: models.ContactInfo{Name: " Friend ", Phone: "555-0199", Address: "2 Side St"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Friend", order.Contact.Name)
	assert.Equal(t, "555-0199", order.Contact.Phone)
	assert.Empty(t, order.Contact.Email)
}

func TestOrderTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.customer(t, "frank")
	book := f.book(t, "Flow", "10", 20)

	t.Run("complete requires approval", func(t *testing.T) {
		order := f.placeOrder(t, account.ID, map[int64]int{book.ID: 1})

		_, err := f.svc.Orders.MarkSuccess(ctx, account.ID, order.ID, "great")
		assert.ErrorIs(t, err, database.ErrInvalidTransition)

		f.approve(t, order.ID)
		_, err = f.svc.Orders.ApproveOrder(ctx, order.ID)
		assert.ErrorIs(t, err, database.ErrInvalidTransition)

		done, err := f.svc.Orders.MarkSuccess(ctx, account.ID, order.ID, "great")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCompleted, done.Status)

		_, err = f.svc.Orders.RejectOrder(ctx, account.ID, order.ID)
		assert.ErrorIs(t, err, database.ErrInvalidTransition)
		_, err = f.svc.Orders.RejectOrderByAdmin(ctx, order.ID)
		assert.ErrorIs(t, err, database.ErrInvalidTransition)
	})

	t.Run("pending can be canceled", func(t *testing.T) {
		order := f.placeOrder(t, account.ID, map[int64]int{book.ID: 2})

		canceled, err := f.svc.Orders.RejectOrder(ctx, account.ID, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCanceled, canceled.Status)

		_, err = f.svc.Orders.ApproveOrder(ctx, order.ID)
		assert.ErrorIs(t, err, database.ErrInvalidTransition)
	})

	t.Run("approved can be canceled by admin", func(t *testing.T) {
		order := f.placeOrder(t, account.ID, map[int64]int{book.ID: 1})
		f.approve(t, order.ID)

		canceled, err := f.svc.Orders.RejectOrderByAdmin(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCanceled, canceled.Status)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.svc.Orders.ApproveOrder(ctx, 9999)
		assert.ErrorIs(t, err, database.ErrOrderNotFound)
	})
}

func TestCancelDoesNotRestock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.customer(t, "gina")
	book := f.book(t, "Kept", "10", 5)

	order := f.placeOrder(t, account.ID, map[int64]int{book.ID: 2})
	_, err := f.svc.Orders.RejectOrder(ctx, account.ID, order.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, f.stock(t, book.ID))
}

func TestOrderOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.customer(t, "hank")
	other := f.customer(t, "ivy")
	book := f.book(t, "Mine", "10", 5)

	order := f.placeOrder(t, owner.ID, map[int64]int{book.ID: 1})

	_, err := f.svc.Orders.RejectOrder(ctx, other.ID, order.ID)
	assert.ErrorIs(t, err, database.ErrForbidden)

	_, err = f.svc.Orders.GetOrder(ctx, other.ID, order.ID)
	assert.ErrorIs(t, err, database.ErrForbidden)

	_, err = f.svc.Orders.UpdateOrderName(ctx, other.ID, order.ID, "Thief")
	assert.ErrorIs(t, err, database.ErrForbidden)

	f.approve(t, order.ID)
	_, err = f.svc.Orders.MarkSuccess(ctx, other.ID, order.ID, "")
	assert.ErrorIs(t, err, database.ErrForbidden)

	got, err := f.svc.Orders.GetOrderByAdmin(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusApproved, got.Status)
}

func TestMarkSuccessWritesReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.customer(t, "jill")
	a := f.book(t, "Left", "10", 5)
	b := f.book(t, "Right", "20", 5)

	order := f.placeOrder(t, account.ID, map[int64]int{a.ID: 2, b.ID: 1})
	f.approve(t, order.ID)

	_, err := f.svc.Orders.MarkSuccess(ctx, account.ID, order.ID, "  loved it ")
	require.NoError(t, err)

	reports, err := f.store.Reports().ForOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	for _, r := range reports {
		assert.Equal(t, "loved it", r.CustomerReview)
		assert.True(t, f.now.Equal(r.OrderDate))
	}

	reviews, err := f.svc.Reports.GetBookReviews(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, account.Name, reviews[0].CustomerName)
	assert.Equal(t, 2, reviews[0].Quantity)

	assert.Equal(t, []events.EventType{
		events.OrderCreated,
		events.OrderApproved,
		events.OrderCompleted,
	}, f.recorder.Types())
}

func TestUpdateOrderContact(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	account := f.customer(t, "kate")
	book := f.book(t, "Address", "10", 5)

	order := f.placeOrder(t, account.ID, map[int64]int{book.ID: 1})

	updated, err := f.svc.Orders.UpdateOrderAddress(ctx, account.ID, order.ID, " 9 New Rd ")
	require.NoError(t, err)
	assert.Equal(t, "9 New Rd", updated.Contact.Address)
	assert.Equal(t, account.Name, updated.Contact.Name)

	updated, err = f.svc.Orders.UpdateOrderPhone(ctx, account.ID, order.ID, "555-0111")
	require.NoError(t, err)
	assert.Equal(t, "555-0111", updated.Contact.Phone)
	assert.Equal(t, "9 New Rd", updated.Contact.Address)

	_, err = f.svc.Orders.UpdateOrderEmail(ctx, account.ID, order.ID, "  ")
	assert.ErrorIs(t, err, database.ErrValidation)

	_, err = f.svc.Orders.UpdateOrderContact(ctx, account.ID, order.ID, ContactPatch{})
	assert.ErrorIs(t, err, database.ErrValidation)

	f.approve(t, order.ID)
	_, err = f.svc.Orders.UpdateOrderName(ctx, account.ID, order.ID, "Late")
	assert.ErrorIs(t, err, database.ErrInvalidTransition)

	got, err := f.svc.Orders.GetOrder(ctx, account.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, account.Name, got.Contact.Name)
	assert.Contains(t, f.recorder.Types(), events.OrderContactUpdated)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.customer(t, "alice")
	bob := f.customer(t, "bob")
	book := f.book(t, "Many", "1", 100)

	var ids []int64
	for i := 0; i < 5; i++ {
		order := f.placeOrder(t, alice.ID, map[int64]int{book.ID: 1})
		ids = append(ids, order.ID)
	}
	f.placeOrder(t, bob.ID, map[int64]int{book.ID: 1})

	first, err := f.svc.Orders.ListOrders(ctx, alice.ID, "", 3)
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	assert.True(t, first.HasMore)
	assert.Equal(t, ids[4], first.Items[0].ID)

	second, err := f.svc.Orders.ListOrders(ctx, alice.ID, first.NextCursor, 3)
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.False(t, second.HasMore)
	assert.Equal(t, ids[0], second.Items[1].ID)

	_, err = f.svc.Orders.ListOrders(ctx, alice.ID, "", 101)
	assert.ErrorIs(t, err, database.ErrValidation)
	_, err = f.svc.Orders.ListOrders(ctx, alice.ID, "not-a-cursor", 3)
	assert.ErrorIs(t, err, database.ErrValidation)

	all, err := f.svc.Orders.ListAllOrders(ctx, 1, 4)
	require.NoError(t, err)
	assert.Len(t, all.Items, 4)
	assert.Equal(t, int64(6), all.Total)

	_, err = f.svc.Orders.ListAllOrders(ctx, 0, 4)
	assert.ErrorIs(t, err, database.ErrValidation)
}

func TestListAllOrdersHugePage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Orders.ListAllOrders(ctx, math.MaxInt64/50+1, 100)
	assert.ErrorIs(t, err, database.ErrValidation)

	_, err = f.svc.Catalog.ListBooks(ctx, BookQuery{Page: math.MaxInt, PageSize: 20})
	assert.ErrorIs(t, err, database.ErrValidation)
}
