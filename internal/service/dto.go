package service

import (
	"time"

	"github.com/safar/go-bookstore/internal/models"
	"github.com/shopspring/decimal"
)

type AccountView struct {
	ID        int64       `json:"id"`
	Username  string      `json:"username"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone"`
	Address   string      `json:"address"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

func toAccountView(a *models.Account) *AccountView {
	return &AccountView{
		ID:        a.ID,
		Username:  a.Username,
		Name:      a.Name,
		Email:     a.Email,
		Phone:     a.Phone,
		Address:   a.Address,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}

type BookDetail struct {
	models.Book
	Categories []models.Category   `json:"categories"`
	Reviews    []models.BookReview `json:"reviews"`
}

func toBookDetail(book *models.Book, categories []models.Category, reviews []models.BookReview) *BookDetail {
	if categories == nil {
		categories = []models.Category{}
	}
	if reviews == nil {
		reviews = []models.BookReview{}
	}
	return &BookDetail{Book: *book, Categories: categories, Reviews: reviews}
}

type CartItem struct {
	LineID   int64           `json:"line_id"`
	BookID   int64           `json:"book_id"`
	Title    string          `json:"title"`
	Author   string          `json:"author"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
	AddedAt  time.Time       `json:"added_at"`
}

type CartView struct {
	AccountID     int64           `json:"account_id"`
	Items         []CartItem      `json:"items"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

func toCartView(accountID int64, lines []models.CartLine, books map[int64]*models.Book) *CartView {
	view := &CartView{AccountID: accountID, Items: make([]CartItem, 0, len(lines))}
	for _, line := range lines {
		book := books[line.BookID]
		subtotal := book.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		view.Items = append(view.Items, CartItem{
			LineID:   line.ID,
			BookID:   line.BookID,
			Title:    book.Title,
			Author:   book.Author,
			Price:    book.Price,
			Stock:    book.Stock,
			Quantity: line.Quantity,
			Subtotal: subtotal,
			AddedAt:  line.CreatedAt,
		})
		view.TotalQuantity += line.Quantity
		view.TotalPrice = view.TotalPrice.Add(subtotal)
	}
	return view
}

type OrderLineView struct {
	BookID   int64           `json:"book_id"`
	Title    string          `json:"title"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// OrderView leaves out reports; they are read through the book review listing.
type OrderView struct {
	ID          int64              `json:"id"`
	OrderNumber string             `json:"order_number"`
	AccountID   *int64             `json:"account_id,omitempty"`
	Contact     models.ContactInfo `json:"contact"`
	OrderDate   time.Time          `json:"order_date"`
	Status      models.OrderStatus `json:"status"`
	TotalPrice  decimal.Decimal    `json:"total_price"`
	Lines       []OrderLineView    `json:"lines"`
}

func toOrderView(order *models.Order, titles map[int64]string) *OrderView {
	view := &OrderView{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		AccountID:   order.AccountID,
		Contact:     order.Contact,
		OrderDate:   order.OrderDate,
		Status:      order.Status,
		TotalPrice:  order.TotalPrice,
		Lines:       make([]OrderLineView, 0, len(order.Lines)),
	}
	for _, line := range order.Lines {
		view.Lines = append(view.Lines, OrderLineView{
			BookID:   line.BookID,
			Title:    titles[line.BookID],
			Quantity: line.Quantity,
			Price:    line.Price,
			Subtotal: line.Subtotal(),
		})
	}
	return view
}

type RevenueReport struct {
	From          time.Time             `json:"from"`
	To            time.Time             `json:"to"`
	Days          []models.DailyRevenue `json:"days"`
	TotalPrice    decimal.Decimal       `json:"total_price"`
	TotalQuantity int                   `json:"total_quantity"`
	OrderCount    int                   `json:"order_count"`
}
