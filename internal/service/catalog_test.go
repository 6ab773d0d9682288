package service

import (
	"context"
	"testing"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func categoryIDs(detail *BookDetail) []int64 {
	ids := make([]int64, 0, len(detail.Categories))
	for _, c := range detail.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestCreateBookCategoriesRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var ids []int64
	for _, name := range []string{"Fiction", "History", "Science"} {
		c, err := f.svc.Catalog.CreateCategory(ctx, CategoryInput{Name: name})
		require.NoError(t, err)
		ids = append(ids, c.ID)
	}

	created := f.book(t, "Cosmos", "19.99", 4, ids[2], ids[0], ids[2])

	got, err := f.svc.Catalog.GetBook(ctx, created.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{ids[0], ids[2]}, categoryIDs(got))
	assert.Empty(t, got.Reviews)

	_, err = f.svc.Catalog.CreateBook(ctx, BookInput{
		Title: "Other", Author: "X", Price: decimal.NewFromInt(1),
	}, []int64{9999})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestCreateBookValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.book(t, "Dune", "10", 1)

	tests := []struct {
		name string
		in   BookInput
		kind error
	}{
		{"empty title", BookInput{Author: "A", Price: decimal.NewFromInt(1)}, database.ErrValidation},
		{"empty author", BookInput{Title: "T", Price: decimal.NewFromInt(1)}, database.ErrValidation},
		{"zero price", BookInput{Title: "T", Author: "A"}, database.ErrValidation},
		{"negative stock", BookInput{Title: "T", Author: "A", Price: decimal.NewFromInt(1), Stock: -1}, database.ErrValidation},
		{"sub-cent price", BookInput{Title: "T", Author: "A", Price: decimal.RequireFromString("10.005")}, database.ErrValidation},
		{"price too large", BookInput{Title: "T", Author: "A", Price: decimal.RequireFromString("10000000000")}, database.ErrValidation},
		{"duplicate", BookInput{Title: " dune ", Author: "AUTHOR DUNE", Price: decimal.NewFromInt(1)}, database.ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Catalog.CreateBook(ctx, tt.in, nil)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestBookPriceScale(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	book := f.book(t, "Trailing", "10.500", 1)
	assert.True(t, decimal.RequireFromString("10.5").Equal(book.Price), book.Price.String())

	f.book(t, "Largest", "9999999999.99", 1)

	price := decimal.RequireFromString("3.999")
	_, err := f.svc.Catalog.UpdateBook(ctx, book.ID, BookPatch{Price: &price})
	assert.ErrorIs(t, err, database.ErrValidation)

	stored, err := f.svc.Catalog.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10.5").Equal(stored.Price), stored.Price.String())
}

func TestUpdateBookPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book := f.book(t, "Emma", "12.00", 3)
	f.book(t, "Persuasion", "9.00", 3)

	price := decimal.RequireFromString("14.50")
	updated, err := f.svc.Catalog.UpdateBook(ctx, book.ID, BookPatch{Price: &price})
	require.NoError(t, err)
	assert.True(t, price.Equal(updated.Price))
	assert.Equal(t, "Emma", updated.Title)
	assert.Equal(t, 2, updated.Version)

	clash := "Persuasion"
	author := "Author Persuasion"
	_, err = f.svc.Catalog.UpdateBook(ctx, book.ID, BookPatch{Title: &clash, Author: &author})
	assert.ErrorIs(t, err, database.ErrConflict)

	negative := -5
	_, err = f.svc.Catalog.UpdateBook(ctx, book.ID, BookPatch{Stock: &negative})
	assert.ErrorIs(t, err, database.ErrValidation)

	_, err = f.svc.Catalog.UpdateBook(ctx, 9999, BookPatch{})
	assert.ErrorIs(t, err, database.ErrBookNotFound)
}

func TestListBooksQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	golang, err := f.svc.Catalog.CreateCategory(ctx, CategoryInput{Name: "Go"})
	require.NoError(t, err)
	f.book(t, "Go in Action", "30", 1, golang.ID)
	f.book(t, "Learning Go", "45", 1, golang.ID)
	f.book(t, "Rust in Action", "40", 1)

	page, err := f.svc.Catalog.ListBooks(ctx, BookQuery{Page: 1, PageSize: 10, CategoryID: golang.ID, Sort: repository.SortPriceDesc})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Learning Go", page.Items[0].Title)

	page, err = f.svc.Catalog.ListBooks(ctx, BookQuery{Page: 1, PageSize: 10, Search: "action", Sort: repository.SortPriceAsc})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Go in Action", page.Items[0].Title)

	_, err = f.svc.Catalog.ListBooks(ctx, BookQuery{Page: 1, PageSize: 101})
	assert.ErrorIs(t, err, database.ErrValidation)
	_, err = f.svc.Catalog.ListBooks(ctx, BookQuery{Page: 1, PageSize: 10, Sort: "random"})
	assert.ErrorIs(t, err, database.ErrValidation)
	_, err = f.svc.Catalog.ListBooks(ctx, BookQuery{Page: 1, PageSize: 10, CategoryID: 9999})
	assert.ErrorIs(t, err, database.ErrCategoryNotFound)
}

func TestCheckStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book := f.book(t, "Scarce", "10", 2)

	ok, err := f.svc.Catalog.CheckStock(ctx, book.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.Catalog.CheckStock(ctx, book.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.svc.Catalog.CheckStock(ctx, book.ID, 0)
	assert.ErrorIs(t, err, database.ErrValidation)
}

func TestCategoryLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	poetry, err := f.svc.Catalog.CreateCategory(ctx, CategoryInput{Name: "Poetry"})
	require.NoError(t, err)
	_, err = f.svc.Catalog.CreateCategory(ctx, CategoryInput{Name: "POETRY"})
	assert.ErrorIs(t, err, database.ErrConflict)
	_, err = f.svc.Catalog.CreateCategory(ctx, CategoryInput{Name: " "})
	assert.ErrorIs(t, err, database.ErrValidation)

	desc := "Verse"
	updated, err := f.svc.Catalog.UpdateCategory(ctx, poetry.ID, CategoryPatch{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Verse", updated.Description)

	book := f.book(t, "Odes", "5", 1, poetry.ID)
	require.NoError(t, f.svc.Catalog.DeleteCategory(ctx, poetry.ID))

	detail, err := f.svc.Catalog.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Categories)

	assert.ErrorIs(t, f.svc.Catalog.DeleteCategory(ctx, poetry.ID), database.ErrCategoryNotFound)
}

func TestDeleteBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.customer(t, "reader")

	sold := f.book(t, "Sold", "10", 5)
	f.placeOrder(t, customer.ID, map[int64]int{sold.ID: 1})
	assert.ErrorIs(t, f.svc.Catalog.DeleteBook(ctx, sold.ID), database.ErrBookInUse)

	unsold := f.book(t, "Unsold", "10", 5)
	require.NoError(t, f.svc.Catalog.DeleteBook(ctx, unsold.ID))
	_, err := f.svc.Catalog.GetBook(ctx, unsold.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
