// Package repository declares the persistence contracts the services depend on.
// Every repository is bound to the scope it was obtained from: either the
// connection pool or a single transaction inside Store.InTx.
package repository

import (
	"context"
	"time"

	"github.com/safar/go-bookstore/internal/models"
)

type BookSort string

const (
	SortNewest    BookSort = ""
	SortPriceAsc  BookSort = "price_asc"
	SortPriceDesc BookSort = "price_desc"
	SortTitle     BookSort = "title"
)

func (s BookSort) Valid() bool {
	switch s {
	case SortNewest, SortPriceAsc, SortPriceDesc, SortTitle:
		return true
	}
	return false
}

type BookFilter struct {
	Search     string
	CategoryID int64
	Sort       BookSort
	Page       int
	PageSize   int
}

type Books interface {
	Create(ctx context.Context, book *models.Book) error
	Get(ctx context.Context, id int64) (*models.Book, error)
	// GetForUpdate locks the row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*models.Book, error)
	// Update writes every mutable column if book.Version still matches, then bumps it.
	Update(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter BookFilter) (*OffsetPage[models.Book], error)
	// DecrementStock fails with ErrOutOfStock instead of letting stock go negative.
	DecrementStock(ctx context.Context, id int64, quantity int) error
	SetCategories(ctx context.Context, bookID int64, categoryIDs []int64) error
}

type Categories interface {
	Create(ctx context.Context, category *models.Category) error
	Get(ctx context.Context, id int64) (*models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id int64) error
	ForBook(ctx context.Context, bookID int64) ([]models.Category, error)
}

type Accounts interface {
	Create(ctx context.Context, account *models.Account) error
	Get(ctx context.Context, id int64) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	List(ctx context.Context, page, pageSize int) (*OffsetPage[models.Account], error)
	UpdateProfile(ctx context.Context, account *models.Account) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
}

type Carts interface {
	Lines(ctx context.Context, accountID int64) ([]models.CartLine, error)
	Line(ctx context.Context, accountID, bookID int64) (*models.CartLine, error)
	// Add merges quantity into an existing (account, book) line.
	Add(ctx context.Context, accountID, bookID int64, quantity int) (*models.CartLine, error)
	SetQuantity(ctx context.Context, accountID, bookID int64, quantity int) error
	Remove(ctx context.Context, accountID, lineID int64) error
	RemoveBooks(ctx context.Context, accountID int64, bookIDs []int64) error
	Clear(ctx context.Context, accountID int64) error
}

type Orders interface {
	// Create inserts the order and its lines, filling in ids and timestamps.
	Create(ctx context.Context, order *models.Order) error
	Get(ctx context.Context, id int64) (*models.Order, error)
	GetForUpdate(ctx context.Context, id int64) (*models.Order, error)
	UpdateStatus(ctx context.Context, id int64, status models.OrderStatus, version int) error
	UpdateContact(ctx context.Context, id int64, contact models.ContactInfo, version int) error
	ListByAccount(ctx context.Context, accountID int64, cursor string, limit int) (*CursorPage[models.Order], error)
	List(ctx context.Context, page, pageSize int) (*OffsetPage[models.Order], error)
}

type Reports interface {
	Create(ctx context.Context, report *models.Report) error
	ForOrder(ctx context.Context, orderID int64) ([]models.Report, error)
	// DailyRevenue groups reports with from <= order_date < to by UTC calendar date.
	DailyRevenue(ctx context.Context, from, to time.Time) ([]models.DailyRevenue, error)
	ReviewsForBook(ctx context.Context, bookID int64) ([]models.BookReview, error)
}

type Scope interface {
	Books() Books
	Categories() Categories
	Accounts() Accounts
	Carts() Carts
	Orders() Orders
	Reports() Reports
}

type Store interface {
	Scope
	// InTx runs fn in one transaction. Nothing fn wrote survives if it returns an error.
	InTx(ctx context.Context, fn func(Scope) error) error
	// ReadTx runs fn against one consistent snapshot. Writes inside fn fail.
	ReadTx(ctx context.Context, fn func(Scope) error) error
}
