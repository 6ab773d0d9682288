package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/safar/go-bookstore/internal/repository"
)

const bookColumns = `id, title, author, price, stock, description, created_at, updated_at, version`

type bookRepo struct {
	q DBTX
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner, book *models.Book) error {
	return row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Price,
		&book.Stock,
		&book.Description,
		&book.CreatedAt,
		&book.UpdatedAt,
		&book.Version,
	)
}

func (r *bookRepo) Create(ctx context.Context, book *models.Book) error {
	query := `
		INSERT INTO books (title, author, price, stock, description, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW(), 1)
		RETURNING ` + bookColumns

	err := scanBook(r.q.QueryRowContext(ctx, query,
		book.Title, book.Author, book.Price, book.Stock, book.Description), book)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return database.ErrDuplicateBook
		}
		return fmt.Errorf("create book: %w", err)
	}

	return nil
}

func (r *bookRepo) Get(ctx context.Context, id int64) (*models.Book, error) {
	return r.get(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id)
}

func (r *bookRepo) GetForUpdate(ctx context.Context, id int64) (*models.Book, error) {
	return r.get(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1 FOR UPDATE`, id)
}

func (r *bookRepo) get(ctx context.Context, query string, id int64) (*models.Book, error) {
	book := &models.Book{}
	if err := scanBook(r.q.QueryRowContext(ctx, query, id), book); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrBookNotFound
		}
		return nil, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

func (r *bookRepo) Update(ctx context.Context, book *models.Book) error {
	query := `
		UPDATE books
		SET title = $1, author = $2, price = $3, stock = $4, description = $5,
		    updated_at = NOW(), version = version + 1
		WHERE id = $6 AND version = $7
		RETURNING updated_at, version`

	err := r.q.QueryRowContext(ctx, query,
		book.Title, book.Author, book.Price, book.Stock, book.Description, book.ID, book.Version,
	).Scan(&book.UpdatedAt, &book.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.ErrOptimisticLockFailed
		}
		if database.IsUniqueViolation(err) {
			return database.ErrDuplicateBook
		}
		return fmt.Errorf("update book: %w", err)
	}

	return nil
}

func (r *bookRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return database.ErrBookInUse
		}
		return fmt.Errorf("delete book: %w", err)
	}
	return rowsAffected(result, database.ErrBookNotFound)
}

func (r *bookRepo) List(ctx context.Context, filter repository.BookFilter) (*repository.OffsetPage[models.Book], error) {
	var (
		where []string
		args  []any
	)
	if filter.Search != "" {
		args = append(args, filter.Search)
		where = append(where, fmt.Sprintf(`b.title ILIKE '%%' || $%d || '%%'`, len(args)))
	}
	if filter.CategoryID != 0 {
		args = append(args, filter.CategoryID)
		where = append(where, fmt.Sprintf(
			`EXISTS (SELECT 1 FROM book_categories bc WHERE bc.book_id = b.id AND bc.category_id = $%d)`, len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM books b `+whereClause, args...).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count books: %w", err)
	}

	orderBy := "b.created_at DESC, b.id DESC"
	switch filter.Sort {
	case repository.SortPriceAsc:
		orderBy = "b.price ASC, b.id ASC"
	case repository.SortPriceDesc:
		orderBy = "b.price DESC, b.id ASC"
	case repository.SortTitle:
		orderBy = "LOWER(b.title) ASC, b.id ASC"
	}

	offset := (filter.Page - 1) * filter.PageSize
	args = append(args, filter.PageSize, offset)
	query := fmt.Sprintf(`
		SELECT b.id, b.title, b.author, b.price, b.stock, b.description, b.created_at, b.updated_at, b.version
		FROM books b
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`, whereClause, orderBy, len(args)-1, len(args))

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var book models.Book
		if err := scanBook(rows, &book); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return repository.NewOffsetPage(books, total, filter.Page, filter.PageSize), nil
}

func (r *bookRepo) DecrementStock(ctx context.Context, id int64, quantity int) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE books
		 SET stock = stock - $1,
		     updated_at = NOW(),
		     version = version + 1
		 WHERE id = $2
		   AND stock >= $1`,
		quantity, id)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	return rowsAffected(result, database.ErrOutOfStock)
}

func (r *bookRepo) SetCategories(ctx context.Context, bookID int64, categoryIDs []int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM book_categories WHERE book_id = $1`, bookID); err != nil {
		return fmt.Errorf("clear book categories: %w", err)
	}

	if len(categoryIDs) == 0 {
		return nil
	}

	_, err := r.q.ExecContext(ctx,
		`INSERT INTO book_categories (book_id, category_id)
		 SELECT $1, UNNEST($2::BIGINT[])
		 ON CONFLICT DO NOTHING`,
		bookID, pq.Array(categoryIDs))
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return database.ErrCategoryNotFound
		}
		return fmt.Errorf("set book categories: %w", err)
	}

	return nil
}
