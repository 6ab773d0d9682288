package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
)

type categoryRepo struct {
	q DBTX
}

func (r *categoryRepo) Create(ctx context.Context, category *models.Category) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO categories (name, description, created_at)
		 VALUES ($1, $2, NOW())
		 RETURNING id, created_at`,
		category.Name, category.Description).Scan(&category.ID, &category.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return database.ErrDuplicateCategory
		}
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *categoryRepo) Get(ctx context.Context, id int64) (*models.Category, error) {
	category := &models.Category{}
	err := r.q.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM categories WHERE id = $1`, id,
	).Scan(&category.ID, &category.Name, &category.Description, &category.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

func (r *categoryRepo) List(ctx context.Context) ([]models.Category, error) {
	return r.query(ctx, `SELECT id, name, description, created_at FROM categories ORDER BY LOWER(name), id`)
}

func (r *categoryRepo) ForBook(ctx context.Context, bookID int64) ([]models.Category, error) {
	return r.query(ctx, `
		SELECT c.id, c.name, c.description, c.created_at
		FROM categories c
		JOIN book_categories bc ON bc.category_id = c.id
		WHERE bc.book_id = $1
		ORDER BY c.id`, bookID)
}

func (r *categoryRepo) query(ctx context.Context, query string, args ...any) ([]models.Category, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return categories, nil
}

func (r *categoryRepo) Update(ctx context.Context, category *models.Category) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE categories SET name = $1, description = $2 WHERE id = $3`,
		category.Name, category.Description, category.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return database.ErrDuplicateCategory
		}
		return fmt.Errorf("update category: %w", err)
	}
	return rowsAffected(result, database.ErrCategoryNotFound)
}

func (r *categoryRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return rowsAffected(result, database.ErrCategoryNotFound)
}
