package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/safar/go-bookstore/internal/repository"
)

const orderColumns = `id, order_number, account_id, customer_name, customer_email, customer_phone,
	customer_address, order_date, total_price, status, updated_at, version`

type orderRepo struct {
	q DBTX
}

func scanOrder(row rowScanner, order *models.Order) error {
	var accountID sql.NullInt64
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&accountID,
		&order.Contact.Name,
		&order.Contact.Email,
		&order.Contact.Phone,
		&order.Contact.Address,
		&order.OrderDate,
		&order.TotalPrice,
		&order.Status,
		&order.UpdatedAt,
		&order.Version,
	)
	if err != nil {
		return err
	}

	order.AccountID = nil
	if accountID.Valid {
		id := accountID.Int64
		order.AccountID = &id
	}
	return nil
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	var accountID sql.NullInt64
	if order.AccountID != nil {
		accountID = sql.NullInt64{Int64: *order.AccountID, Valid: true}
	}

	err := r.q.QueryRowContext(ctx,
		`INSERT INTO orders (order_number, account_id, customer_name, customer_email, customer_phone,
		                     customer_address, order_date, total_price, status, updated_at, version)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), $7, $8, NOW(), 1)
		 RETURNING id, order_date, updated_at, version`,
		order.OrderNumber, accountID, order.Contact.Name, order.Contact.Email, order.Contact.Phone,
		order.Contact.Address, order.TotalPrice, order.Status,
	).Scan(&order.ID, &order.OrderDate, &order.UpdatedAt, &order.Version)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		err := r.q.QueryRowContext(ctx,
			`INSERT INTO order_lines (order_id, book_id, quantity, price)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`,
			line.OrderID, line.BookID, line.Quantity, line.Price,
		).Scan(&line.ID)
		if err != nil {
			return fmt.Errorf("create order line: %w", err)
		}
	}

	return nil
}

func (r *orderRepo) Get(ctx context.Context, id int64) (*models.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *orderRepo) get(ctx context.Context, query string, id int64) (*models.Order, error) {
	order := &models.Order{}
	if err := scanOrder(r.q.QueryRowContext(ctx, query, id), order); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, `
		SELECT id, order_id, book_id, quantity, price
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("get order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line models.OrderLine
		if err := rows.Scan(&line.ID, &line.OrderID, &line.BookID, &line.Quantity, &line.Price); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		order.Lines = append(order.Lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return order, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus, version int) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE orders
		 SET status = $1, updated_at = NOW(), version = version + 1
		 WHERE id = $2 AND version = $3`,
		status, id, version)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return rowsAffected(result, database.ErrOptimisticLockFailed)
}

func (r *orderRepo) UpdateContact(ctx context.Context, id int64, contact models.ContactInfo, version int) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE orders
		 SET customer_name = $1, customer_email = $2, customer_phone = $3, customer_address = $4,
		     updated_at = NOW(), version = version + 1
		 WHERE id = $5 AND version = $6`,
		contact.Name, contact.Email, contact.Phone, contact.Address, id, version)
	if err != nil {
		return fmt.Errorf("update order contact: %w", err)
	}
	return rowsAffected(result, database.ErrOptimisticLockFailed)
}

func (r *orderRepo) ListByAccount(ctx context.Context, accountID int64, cursor string, limit int) (*repository.CursorPage[models.Order], error) {
	cursorData, err := repository.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	if cursorData.IsZero() {
		orders, err = r.list(ctx, `
			SELECT `+orderColumns+`
			FROM orders
			WHERE account_id = $1
			ORDER BY order_date DESC, id DESC
			LIMIT $2`, accountID, limit+1)
	} else {
		orders, err = r.list(ctx, `
			SELECT `+orderColumns+`
			FROM orders
			WHERE account_id = $1
			  AND (order_date, id) < ($2, $3)
			ORDER BY order_date DESC, id DESC
			LIMIT $4`, accountID, cursorData.CreatedAt, cursorData.ID, limit+1)
	}
	if err != nil {
		return nil, err
	}

	return repository.PageOrders(orders, limit), nil
}

func (r *orderRepo) List(ctx context.Context, page, pageSize int) (*repository.OffsetPage[models.Order], error) {
	var total int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&total); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	offset := (page - 1) * pageSize
	orders, err := r.list(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY order_date DESC, id DESC
		LIMIT $1 OFFSET $2`, pageSize, offset)
	if err != nil {
		return nil, err
	}

	return repository.NewOffsetPage(orders, total, page, pageSize), nil
}

func (r *orderRepo) list(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var order models.Order
		if err := scanOrder(rows, &order); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return orders, nil
}
