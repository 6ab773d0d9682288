package memory

import (
	"context"
	"sort"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
)

type cartRepo struct {
	v *view
}

func findLine(st *state, accountID, bookID int64) (models.CartLine, bool) {
	for _, line := range st.cartLines {
		if line.AccountID == accountID && line.BookID == bookID {
			return line, true
		}
	}
	return models.CartLine{}, false
}

func (r *cartRepo) Lines(ctx context.Context, accountID int64) ([]models.CartLine, error) {
	lines := []models.CartLine{}
	err := r.v.do(ctx, func(st *state) error {
		for _, line := range st.cartLines {
			if line.AccountID == accountID {
				lines = append(lines, line)
			}
		}
		return nil
	})
	sort.Slice(lines, func(i, j int) bool {
		if !lines[i].CreatedAt.Equal(lines[j].CreatedAt) {
			return lines[i].CreatedAt.Before(lines[j].CreatedAt)
		}
		return lines[i].ID < lines[j].ID
	})
	return lines, err
}

func (r *cartRepo) Line(ctx context.Context, accountID, bookID int64) (*models.CartLine, error) {
	var line models.CartLine
	err := r.v.do(ctx, func(st *state) error {
		found, ok := findLine(st, accountID, bookID)
		if !ok {
			return database.ErrCartLineNotFound
		}
		line = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *cartRepo) Add(ctx context.Context, accountID, bookID int64, quantity int) (*models.CartLine, error) {
	var line models.CartLine
	err := r.v.write(ctx, func(st *state) error {
		existing, ok := findLine(st, accountID, bookID)
		if ok {
			existing.Quantity += quantity
			line = existing
		} else {
			line = models.CartLine{
				ID:        st.nextID(),
				AccountID: accountID,
				BookID:    bookID,
				Quantity:  quantity,
				CreatedAt: r.v.now(),
			}
		}
		st.cartLines[line.ID] = line
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (r *cartRepo) SetQuantity(ctx context.Context, accountID, bookID int64, quantity int) error {
	return r.v.write(ctx, func(st *state) error {
		line, ok := findLine(st, accountID, bookID)
		if !ok {
			return database.ErrCartLineNotFound
		}
		line.Quantity = quantity
		st.cartLines[line.ID] = line
		return nil
	})
}

func (r *cartRepo) Remove(ctx context.Context, accountID, lineID int64) error {
	return r.v.write(ctx, func(st *state) error {
		line, ok := st.cartLines[lineID]
		if !ok || line.AccountID != accountID {
			return database.ErrCartLineNotFound
		}
		delete(st.cartLines, lineID)
		return nil
	})
}

func (r *cartRepo) RemoveBooks(ctx context.Context, accountID int64, bookIDs []int64) error {
	drop := make(map[int64]struct{}, len(bookIDs))
	for _, id := range bookIDs {
		drop[id] = struct{}{}
	}
	return r.v.write(ctx, func(st *state) error {
		for id, line := range st.cartLines {
			if _, ok := drop[line.BookID]; ok && line.AccountID == accountID {
				delete(st.cartLines, id)
			}
		}
		return nil
	})
}

func (r *cartRepo) Clear(ctx context.Context, accountID int64) error {
	return r.v.write(ctx, func(st *state) error {
		for id, line := range st.cartLines {
			if line.AccountID == accountID {
				delete(st.cartLines, id)
			}
		}
		return nil
	})
}
