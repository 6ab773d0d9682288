package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusApproved  OrderStatus = "Approved"
	OrderStatusCanceled  OrderStatus = "Canceled"
	OrderStatusCompleted OrderStatus = "Completed"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusApproved, OrderStatusCanceled},
	OrderStatusApproved:  {OrderStatusCanceled, OrderStatusCompleted},
	OrderStatusCanceled:  nil,
	OrderStatusCompleted: nil,
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(orderTransitions[s]) == 0
}

type ContactInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type Order struct {
	ID          int64           `json:"id"`
	OrderNumber string          `json:"order_number"`
	AccountID   *int64          `json:"account_id,omitempty"`
	Contact     ContactInfo     `json:"contact"`
	OrderDate   time.Time       `json:"order_date"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Status      OrderStatus     `json:"status"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
	Lines       []OrderLine     `json:"lines,omitempty"`
}

// OwnedBy is false for guest orders.
func (o *Order) OwnedBy(accountID int64) bool {
	return o.AccountID != nil && *o.AccountID == accountID
}

type OrderLine struct {
	ID       int64           `json:"id"`
	OrderID  int64           `json:"order_id"`
	BookID   int64           `json:"book_id"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
