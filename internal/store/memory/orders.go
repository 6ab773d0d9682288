package memory

import (
	"context"
	"sort"
	"time"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/safar/go-bookstore/internal/repository"
	"github.com/shopspring/decimal"
)

type orderRepo struct {
	v *view
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	return r.v.write(ctx, func(st *state) error {
		now := r.v.now()
		order.ID = st.nextID()
		order.OrderDate = now
		order.UpdatedAt = now
		order.Version = 1
		for i := range order.Lines {
			order.Lines[i].ID = st.nextID()
			order.Lines[i].OrderID = order.ID
		}
		st.orders[order.ID] = cloneOrder(*order)
		return nil
	})
}

func (r *orderRepo) Get(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.v.do(ctx, func(st *state) error {
		found, ok := st.orders[id]
		if !ok {
			return database.ErrOrderNotFound
		}
		order = cloneOrder(found)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepo) GetForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	return r.Get(ctx, id)
}

func (r *orderRepo) update(ctx context.Context, id int64, version int, apply func(*models.Order)) error {
	return r.v.write(ctx, func(st *state) error {
		order, ok := st.orders[id]
		if !ok || order.Version != version {
			return database.ErrOptimisticLockFailed
		}
		apply(&order)
		order.UpdatedAt = r.v.now()
		order.Version++
		st.orders[id] = order
		return nil
	})
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id int64, status models.OrderStatus, version int) error {
	return r.update(ctx, id, version, func(o *models.Order) {
		o.Status = status
	})
}

func (r *orderRepo) UpdateContact(ctx context.Context, id int64, contact models.ContactInfo, version int) error {
	return r.update(ctx, id, version, func(o *models.Order) {
		o.Contact = contact
	})
}

func (r *orderRepo) ListByAccount(ctx context.Context, accountID int64, cursor string, limit int) (*repository.CursorPage[models.Order], error) {
	after, err := repository.DecodeCursor(cursor)
	if err != nil {
		return nil, err
	}

	orders, err := r.sorted(ctx, func(o models.Order) bool {
		return o.OwnedBy(accountID) && after.Before(o)
	})
	if err != nil {
		return nil, err
	}

	if len(orders) > limit+1 {
		orders = orders[:limit+1]
	}
	return repository.PageOrders(orders, limit), nil
}

func (r *orderRepo) List(ctx context.Context, page, pageSize int) (*repository.OffsetPage[models.Order], error) {
	orders, err := r.sorted(ctx, func(models.Order) bool { return true })
	if err != nil {
		return nil, err
	}
	return paginate(orders, page, pageSize), nil
}

// sorted returns matching orders newest first, without their lines.
func (r *orderRepo) sorted(ctx context.Context, match func(models.Order) bool) ([]models.Order, error) {
	var orders []models.Order
	err := r.v.do(ctx, func(st *state) error {
		for _, o := range st.orders {
			if match(o) {
				o = cloneOrder(o)
				o.Lines = nil
				orders = append(orders, o)
			}
		}
		return nil
	})

	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].OrderDate.After(orders[j].OrderDate)
		}
		return orders[i].ID > orders[j].ID
	})
	return orders, err
}

type reportRepo struct {
	v *view
}

func (r *reportRepo) Create(ctx context.Context, report *models.Report) error {
	return r.v.write(ctx, func(st *state) error {
		report.ID = st.nextID()
		st.reports[report.ID] = *report
		return nil
	})
}

func (r *reportRepo) ForOrder(ctx context.Context, orderID int64) ([]models.Report, error) {
	reports := []models.Report{}
	err := r.v.do(ctx, func(st *state) error {
		for _, rep := range st.reports {
			if rep.OrderID == orderID {
				reports = append(reports, rep)
			}
		}
		return nil
	})
	sort.Slice(reports, func(i, j int) bool { return reports[i].ID < reports[j].ID })
	return reports, err
}

func (r *reportRepo) DailyRevenue(ctx context.Context, from, to time.Time) ([]models.DailyRevenue, error) {
	byDay := make(map[time.Time]*models.DailyRevenue)
	orders := make(map[time.Time]map[int64]struct{})

	err := r.v.do(ctx, func(st *state) error {
		for _, rep := range st.reports {
			if rep.OrderDate.Before(from) || !rep.OrderDate.Before(to) {
				continue
			}

			utc := rep.OrderDate.UTC()
			day := time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
			summary, ok := byDay[day]
			if !ok {
				summary = &models.DailyRevenue{Date: day}
				byDay[day] = summary
				orders[day] = make(map[int64]struct{})
			}

			summary.TotalPrice = summary.TotalPrice.Add(rep.Price.Mul(decimalQty(rep.Quantity)))
			summary.TotalQuantity += rep.Quantity
			orders[day][rep.OrderID] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summaries := make([]models.DailyRevenue, 0, len(byDay))
	for day, s := range byDay {
		s.OrderCount = len(orders[day])
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Date.Before(summaries[j].Date) })
	return summaries, nil
}

func (r *reportRepo) ReviewsForBook(ctx context.Context, bookID int64) ([]models.BookReview, error) {
	type entry struct {
		id     int64
		review models.BookReview
	}
	var entries []entry

	err := r.v.do(ctx, func(st *state) error {
		for _, rep := range st.reports {
			if rep.BookID != bookID {
				continue
			}

			name := "Anonymous"
			if order, ok := st.orders[rep.OrderID]; ok && order.AccountID != nil {
				if account, ok := st.accounts[*order.AccountID]; ok {
					name = account.Name
				}
			}

			entries = append(entries, entry{id: rep.ID, review: models.BookReview{
				OrderID:      rep.OrderID,
				CustomerName: name,
				Quantity:     rep.Quantity,
				Review:       rep.CustomerReview,
				OrderDate:    rep.OrderDate,
			}})
		}
		return nil
	})

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.review.OrderDate.Equal(b.review.OrderDate) {
			return a.review.OrderDate.After(b.review.OrderDate)
		}
		return a.id > b.id
	})

	reviews := make([]models.BookReview, 0, len(entries))
	for _, e := range entries {
		reviews = append(reviews, e.review)
	}
	return reviews, err
}

func decimalQty(q int) decimal.Decimal {
	return decimal.NewFromInt(int64(q))
}
