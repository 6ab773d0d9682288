package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleAdmin    Role = "Admin"
	RoleCustomer Role = "Customer"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCustomer
}

type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Address      string    `json:"address"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

type Book struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
}

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type CartLine struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	BookID    int64     `json:"book_id"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

// Report is written once per order line when an order is completed.
type Report struct {
	ID             int64           `json:"id"`
	OrderID        int64           `json:"order_id"`
	BookID         int64           `json:"book_id"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	OrderDate      time.Time       `json:"order_date"`
	CustomerReview string          `json:"customer_review,omitempty"`
}

type BookReview struct {
	OrderID      int64     `json:"order_id"`
	CustomerName string    `json:"customer_name"`
	Quantity     int       `json:"quantity"`
	Review       string    `json:"review"`
	OrderDate    time.Time `json:"order_date"`
}

// DailyRevenue is one row of the revenue report.
type DailyRevenue struct {
	Date          time.Time       `json:"date"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	TotalQuantity int             `json:"total_quantity"`
	OrderCount    int             `json:"order_count"`
}
