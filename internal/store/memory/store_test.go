package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/safar/go-bookstore/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBook(t *testing.T, s *Store, title string, price int64, stock int) *models.Book {
	t.Helper()
	book := &models.Book{Title: title, Author: "A. Writer", Price: decimal.NewFromInt(price), Stock: stock}
	require.NoError(t, s.Books().Create(context.Background(), book))
	return book
}

func TestInTxDiscardsChangesOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	book := newBook(t, s, "Atomic", 10, 5)

	boom := errors.New("boom")
	err := s.InTx(ctx, func(tx repository.Scope) error {
		require.NoError(t, tx.Books().DecrementStock(ctx, book.ID, 5))
		_, err := tx.Carts().Add(ctx, 1, book.ID, 1)
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	after, err := s.Books().Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, after.Stock)

	lines, err := s.Carts().Lines(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestInTxPublishesChangesOnSuccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	book := newBook(t, s, "Committed", 10, 5)

	require.NoError(t, s.InTx(ctx, func(tx repository.Scope) error {
		return tx.Books().DecrementStock(ctx, book.ID, 2)
	}))

	after, err := s.Books().Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, after.Stock)
	assert.Equal(t, 2, after.Version)
}

func TestReadTxRejectsWrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	book := newBook(t, s, "Snapshot", 10, 5)

	err := s.ReadTx(ctx, func(tx repository.Scope) error {
		current, err := tx.Books().Get(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, current.Stock)

		_, err = tx.Carts().Add(ctx, 1, book.ID, 1)
		assert.ErrorIs(t, err, ErrReadOnly)
		return tx.Books().DecrementStock(ctx, book.ID, 1)
	})
	require.ErrorIs(t, err, ErrReadOnly)

	after, err := s.Books().Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, after.Stock)
}

func TestDecrementStockNeverNegative(t *testing.T) {
	s := New()
	ctx := context.Background()
	book := newBook(t, s, "Scarce", 10, 1)

	assert.ErrorIs(t, s.Books().DecrementStock(ctx, book.ID, 2), database.ErrOutOfStock)

	after, err := s.Books().Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.Stock)
}

func TestBookUniquenessIsCaseInsensitive(t *testing.T) {
	s := New()
	ctx := context.Background()
	newBook(t, s, "Dune", 10, 1)

	err := s.Books().Create(ctx, &models.Book{Title: "dune", Author: "a. WRITER", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, database.ErrConflict)

	require.NoError(t, s.Categories().Create(ctx, &models.Category{Name: "Poetry"}))
	assert.ErrorIs(t, s.Categories().Create(ctx, &models.Category{Name: "POETRY"}), database.ErrDuplicateCategory)
}

func TestCartAddMergesQuantities(t *testing.T) {
	s := New()
	ctx := context.Background()
	book := newBook(t, s, "Merge", 10, 10)

	for i := 0; i < 3; i++ {
		_, err := s.Carts().Add(ctx, 7, book.ID, 2)
		require.NoError(t, err)
	}

	lines, err := s.Carts().Lines(ctx, 7)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 6, lines[0].Quantity)

	assert.ErrorIs(t, s.Carts().Remove(ctx, 8, lines[0].ID), database.ErrCartLineNotFound)
	require.NoError(t, s.Carts().Remove(ctx, 7, lines[0].ID))
}

func TestDeleteBookCascadesAndGuards(t *testing.T) {
	s := New()
	ctx := context.Background()
	cat := &models.Category{Name: "Drama"}
	require.NoError(t, s.Categories().Create(ctx, cat))

	sold := newBook(t, s, "Sold", 10, 10)
	require.NoError(t, s.Orders().Create(ctx, &models.Order{
		OrderNumber: "ORD-1",
		Status:      models.OrderStatusPending,
		Lines:       []models.OrderLine{{BookID: sold.ID, Quantity: 1, Price: sold.Price}},
	}))
	assert.ErrorIs(t, s.Books().Delete(ctx, sold.ID), database.ErrBookInUse)

	unsold := newBook(t, s, "Unsold", 10, 10)
	require.NoError(t, s.Books().SetCategories(ctx, unsold.ID, []int64{cat.ID}))
	_, err := s.Carts().Add(ctx, 3, unsold.ID, 1)
	require.NoError(t, err)

	require.NoError(t, s.Books().Delete(ctx, unsold.ID))
	lines, err := s.Carts().Lines(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, lines)

	page, err := s.Books().List(ctx, repository.BookFilter{CategoryID: cat.ID, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestListBooksSortAndSearch(t *testing.T) {
	s := New()
	ctx := context.Background()
	newBook(t, s, "Go in Action", 10, 1)
	newBook(t, s, "The Go Programming Language", 40, 1)
	newBook(t, s, "Rust in Action", 30, 1)

	page, err := s.Books().List(ctx, repository.BookFilter{Search: "GO", Sort: repository.SortPriceAsc, Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Go in Action", page.Items[0].Title)

	second, err := s.Books().List(ctx, repository.BookFilter{Sort: repository.SortTitle, Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), second.Total)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "The Go Programming Language", second.Items[0].Title)
}

func TestListOrdersByAccountCursor(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s := New(WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))
	ctx := context.Background()

	owner := int64(11)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Orders().Create(ctx, &models.Order{AccountID: &owner, Status: models.OrderStatusPending}))
	}
	require.NoError(t, s.Orders().Create(ctx, &models.Order{Status: models.OrderStatusPending}))

	page1, err := s.Orders().ListByAccount(ctx, owner, "", 3)
	require.NoError(t, err)
	require.Len(t, page1.Items, 3)
	assert.True(t, page1.HasMore)
	assert.True(t, page1.Items[0].OrderDate.After(page1.Items[1].OrderDate))

	page2, err := s.Orders().ListByAccount(ctx, owner, page1.NextCursor, 3)
	require.NoError(t, err)
	assert.Len(t, page2.Items, 2)
	assert.False(t, page2.HasMore)

	all, err := s.Orders().List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(6), all.Total)
}

func TestListByAccountFirstPageWithClockAhead(t *testing.T) {
	ahead := time.Now().Add(72 * time.Hour)
	s := New(WithClock(func() time.Time { return ahead }))
	ctx := context.Background()

	owner := int64(12)
	require.NoError(t, s.Orders().Create(ctx, &models.Order{AccountID: &owner, Status: models.OrderStatusPending}))

	page, err := s.Orders().ListByAccount(ctx, owner, "", 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestPaginatePastEnd(t *testing.T) {
	items := []int{1, 2, 3}

	page := paginate(items, 3, 2)
	assert.Empty(t, page.Items)
	assert.Equal(t, int64(3), page.Total)

	// An offset that overflowed int must not be used as a slice index.
	assert.NotPanics(t, func() {
		page = paginate(items, int(^uint(0)>>1)/50+1, 100)
	})
	assert.Empty(t, page.Items)
}

func TestDailyRevenueGroupsByUTCDate(t *testing.T) {
	s := New()
	ctx := context.Background()

	day := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	for _, r := range []models.Report{
		{OrderID: 1, BookID: 1, Quantity: 2, Price: decimal.NewFromInt(10), OrderDate: day},
		{OrderID: 1, BookID: 2, Quantity: 1, Price: decimal.NewFromInt(20), OrderDate: day.Add(3 * time.Hour)},
		{OrderID: 2, BookID: 2, Quantity: 1, Price: decimal.NewFromInt(20), OrderDate: day.AddDate(0, 0, 1)},
		{OrderID: 3, BookID: 2, Quantity: 1, Price: decimal.NewFromInt(20), OrderDate: day.AddDate(0, 2, 0)},
	} {
		report := r
		require.NoError(t, s.Reports().Create(ctx, &report))
	}

	rows, err := s.Reports().DailyRevenue(ctx,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.True(t, decimal.NewFromInt(40).Equal(rows[0].TotalPrice))
	assert.Equal(t, 3, rows[0].TotalQuantity)
	assert.Equal(t, 1, rows[0].OrderCount)
	assert.Equal(t, 6, rows[1].Date.Day())
}

func TestCanceledContextFailsFast(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Books().Get(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.InTx(ctx, func(repository.Scope) error { return nil }), context.Canceled)
}
