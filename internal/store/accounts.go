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

const accountColumns = `id, username, password_hash, name, email, phone, address, role, created_at`

type accountRepo struct {
	q DBTX
}

func scanAccount(row rowScanner, a *models.Account) error {
	return row.Scan(
		&a.ID,
		&a.Username,
		&a.PasswordHash,
		&a.Name,
		&a.Email,
		&a.Phone,
		&a.Address,
		&a.Role,
		&a.CreatedAt,
	)
}

func (r *accountRepo) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (username, password_hash, name, email, phone, address, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING ` + accountColumns

	err := scanAccount(r.q.QueryRowContext(ctx, query,
		account.Username, account.PasswordHash, account.Name, account.Email,
		account.Phone, account.Address, account.Role), account)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return database.ErrUsernameTaken
		}
		return fmt.Errorf("create account: %w", err)
	}

	return nil
}

func (r *accountRepo) Get(ctx context.Context, id int64) (*models.Account, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *accountRepo) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return r.get(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username)
}

func (r *accountRepo) get(ctx context.Context, query string, arg any) (*models.Account, error) {
	account := &models.Account{}
	if err := scanAccount(r.q.QueryRowContext(ctx, query, arg), account); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

func (r *accountRepo) List(ctx context.Context, page, pageSize int) (*repository.OffsetPage[models.Account], error) {
	var total int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count accounts: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.q.QueryContext(ctx, query, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var account models.Account
		if err := scanAccount(rows, &account); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return repository.NewOffsetPage(accounts, total, page, pageSize), nil
}

func (r *accountRepo) UpdateProfile(ctx context.Context, account *models.Account) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE accounts SET name = $1, email = $2, phone = $3, address = $4 WHERE id = $5`,
		account.Name, account.Email, account.Phone, account.Address, account.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return rowsAffected(result, database.ErrAccountNotFound)
}

func (r *accountRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE accounts SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return rowsAffected(result, database.ErrAccountNotFound)
}
