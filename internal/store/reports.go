package store

import (
	"context"
	"fmt"
	"time"

	"github.com/safar/go-bookstore/internal/models"
)

type reportRepo struct {
	q DBTX
}

func (r *reportRepo) Create(ctx context.Context, report *models.Report) error {
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO reports (order_id, book_id, quantity, price, order_date, customer_review)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		report.OrderID, report.BookID, report.Quantity, report.Price, report.OrderDate, report.CustomerReview,
	).Scan(&report.ID)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	return nil
}

func (r *reportRepo) ForOrder(ctx context.Context, orderID int64) ([]models.Report, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, order_id, book_id, quantity, price, order_date, customer_review
		FROM reports
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		var rep models.Report
		err := rows.Scan(&rep.ID, &rep.OrderID, &rep.BookID, &rep.Quantity, &rep.Price, &rep.OrderDate, &rep.CustomerReview)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, rep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return reports, nil
}

func (r *reportRepo) DailyRevenue(ctx context.Context, from, to time.Time) ([]models.DailyRevenue, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT (order_date AT TIME ZONE 'UTC')::DATE AS day,
		       SUM(price * quantity),
		       SUM(quantity),
		       COUNT(DISTINCT order_id)
		FROM reports
		WHERE order_date >= $1 AND order_date < $2
		GROUP BY day
		ORDER BY day`, from, to)
	if err != nil {
		return nil, fmt.Errorf("daily revenue: %w", err)
	}
	defer rows.Close()

	summaries := []models.DailyRevenue{}
	for rows.Next() {
		var s models.DailyRevenue
		if err := rows.Scan(&s.Date, &s.TotalPrice, &s.TotalQuantity, &s.OrderCount); err != nil {
			return nil, fmt.Errorf("scan daily revenue: %w", err)
		}
		s.Date = time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), 0, 0, 0, 0, time.UTC)
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return summaries, nil
}

func (r *reportRepo) ReviewsForBook(ctx context.Context, bookID int64) ([]models.BookReview, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT r.order_id,
		       COALESCE(a.name, 'Anonymous'),
		       r.quantity,
		       r.customer_review,
		       r.order_date
		FROM reports r
		JOIN orders o ON o.id = r.order_id
		LEFT JOIN accounts a ON a.id = o.account_id
		WHERE r.book_id = $1
		ORDER BY r.order_date DESC, r.id DESC`, bookID)
	if err != nil {
		return nil, fmt.Errorf("list book reviews: %w", err)
	}
	defer rows.Close()

	reviews := []models.BookReview{}
	for rows.Next() {
		var rv models.BookReview
		if err := rows.Scan(&rv.OrderID, &rv.CustomerName, &rv.Quantity, &rv.Review, &rv.OrderDate); err != nil {
			return nil, fmt.Errorf("scan book review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return reviews, nil
}
