package service

import (
	"context"
	"time"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/safar/go-bookstore/internal/repository"
	"github.com/shopspring/decimal"
)

type ReportService struct {
	store repository.Store
}

func NewReportService(store repository.Store) *ReportService {
	return &ReportService{store: store}
}

func utcDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// GetRevenueReport summarises completed sales per calendar day (UTC) for the
// closed range [start, end].
func (s *ReportService) GetRevenueReport(ctx context.Context, start, end time.Time) (*RevenueReport, error) {
	from, to := utcDay(start), utcDay(end)
	if from.After(to) {
		return nil, database.ErrInvalidRange
	}

	days, err := s.store.Reports().DailyRevenue(ctx, from, to.AddDate(0, 0, 1))
	if err != nil {
		return nil, database.Persist("revenue report", err)
	}

	report := &RevenueReport{From: from, To: to, Days: days, TotalPrice: decimal.Zero}
	for _, d := range days {
		report.TotalPrice = report.TotalPrice.Add(d.TotalPrice)
		report.TotalQuantity += d.TotalQuantity
		report.OrderCount += d.OrderCount
	}
	return report, nil
}

func (s *ReportService) GetBookReviews(ctx context.Context, bookID int64) ([]models.BookReview, error) {
	if _, err := s.store.Books().Get(ctx, bookID); err != nil {
		return nil, database.Persist("get book", err)
	}

	reviews, err := s.store.Reports().ReviewsForBook(ctx, bookID)
	if err != nil {
		return nil, database.Persist("book reviews", err)
	}
	return reviews, nil
}
