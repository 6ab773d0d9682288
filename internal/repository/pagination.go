package repository

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"time"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type CursorPage[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

type OffsetPage[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

func NewOffsetPage[T any](items []T, total int64, page, pageSize int) *OffsetPage[T] {
	if items == nil {
		items = []T{}
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &OffsetPage[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

func CheckPage(page, pageSize int) error {
	if page < 1 {
		return database.Validationf("page must be at least 1")
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return database.Validationf("page size must be between 1 and %d", MaxPageSize)
	}
	// (page-1)*pageSize must fit in an int.
	if page-1 > math.MaxInt/pageSize {
		return database.Validationf("page is out of range")
	}
	return nil
}

type OrderCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        int64     `json:"id"`
}

func EncodeCursor(cursor OrderCursor) string {
	data, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor returns the zero cursor for an empty string, meaning the first
// page starting from the newest order.
func DecodeCursor(encoded string) (OrderCursor, error) {
	var cursor OrderCursor
	if encoded == "" {
		return cursor, nil
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return cursor, database.Validationf("invalid cursor")
	}

	if err := json.Unmarshal(data, &cursor); err != nil {
		return cursor, database.Validationf("invalid cursor")
	}
	return cursor, nil
}

// PageOrders trims a result fetched with limit+1 rows into a page.
func PageOrders(orders []models.Order, limit int) *CursorPage[models.Order] {
	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}
	if orders == nil {
		orders = []models.Order{}
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		last := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{CreatedAt: last.OrderDate, ID: last.ID})
	}

	return &CursorPage[models.Order]{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}
}

func (c OrderCursor) IsZero() bool {
	return c.ID == 0 && c.CreatedAt.IsZero()
}

// Before reports whether an order sorts strictly after the cursor in
// newest-first order. Every order is after the zero cursor.
func (c OrderCursor) Before(order models.Order) bool {
	if c.IsZero() {
		return true
	}
	if order.OrderDate.Equal(c.CreatedAt) {
		return order.ID < c.ID
	}
	return order.OrderDate.Before(c.CreatedAt)
}
