package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
)

type cartRepo struct {
	q DBTX
}

func (r *cartRepo) Lines(ctx context.Context, accountID int64) ([]models.CartLine, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, account_id, book_id, quantity, created_at
		FROM cart_lines
		WHERE account_id = $1
		ORDER BY created_at, id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		var line models.CartLine
		if err := rows.Scan(&line.ID, &line.AccountID, &line.BookID, &line.Quantity, &line.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return lines, nil
}

func (r *cartRepo) Line(ctx context.Context, accountID, bookID int64) (*models.CartLine, error) {
	line := &models.CartLine{}
	err := r.q.QueryRowContext(ctx, `
		SELECT id, account_id, book_id, quantity, created_at
		FROM cart_lines
		WHERE account_id = $1 AND book_id = $2`, accountID, bookID,
	).Scan(&line.ID, &line.AccountID, &line.BookID, &line.Quantity, &line.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrCartLineNotFound
		}
		return nil, fmt.Errorf("get cart line: %w", err)
	}
	return line, nil
}

func (r *cartRepo) Add(ctx context.Context, accountID, bookID int64, quantity int) (*models.CartLine, error) {
	line := &models.CartLine{}
	err := r.q.QueryRowContext(ctx, `
		INSERT INTO cart_lines (account_id, book_id, quantity, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (account_id, book_id)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity
		RETURNING id, account_id, book_id, quantity, created_at`,
		accountID, bookID, quantity,
	).Scan(&line.ID, &line.AccountID, &line.BookID, &line.Quantity, &line.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("add cart line: %w", err)
	}
	return line, nil
}

func (r *cartRepo) SetQuantity(ctx context.Context, accountID, bookID int64, quantity int) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE cart_lines SET quantity = $1 WHERE account_id = $2 AND book_id = $3`,
		quantity, accountID, bookID)
	if err != nil {
		return fmt.Errorf("update cart quantity: %w", err)
	}
	return rowsAffected(result, database.ErrCartLineNotFound)
}

func (r *cartRepo) Remove(ctx context.Context, accountID, lineID int64) error {
	result, err := r.q.ExecContext(ctx,
		`DELETE FROM cart_lines WHERE id = $1 AND account_id = $2`, lineID, accountID)
	if err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	return rowsAffected(result, database.ErrCartLineNotFound)
}

func (r *cartRepo) RemoveBooks(ctx context.Context, accountID int64, bookIDs []int64) error {
	if len(bookIDs) == 0 {
		return nil
	}
	_, err := r.q.ExecContext(ctx,
		`DELETE FROM cart_lines WHERE account_id = $1 AND book_id = ANY($2::BIGINT[])`,
		accountID, pq.Array(bookIDs))
	if err != nil {
		return fmt.Errorf("remove cart books: %w", err)
	}
	return nil
}

func (r *cartRepo) Clear(ctx context.Context, accountID int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM cart_lines WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
