package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/safar/go-bookstore/internal/repository"
)

type bookRepo struct {
	v *view
}

func duplicateBook(st *state, book *models.Book) bool {
	for id, other := range st.books {
		if id != book.ID &&
			strings.EqualFold(other.Title, book.Title) &&
			strings.EqualFold(other.Author, book.Author) {
			return true
		}
	}
	return false
}

func (r *bookRepo) Create(ctx context.Context, book *models.Book) error {
	return r.v.write(ctx, func(st *state) error {
		if duplicateBook(st, book) {
			return database.ErrDuplicateBook
		}

		now := r.v.now()
		book.ID = st.nextID()
		book.CreatedAt = now
		book.UpdatedAt = now
		book.Version = 1
		st.books[book.ID] = *book
		return nil
	})
}

func (r *bookRepo) Get(ctx context.Context, id int64) (*models.Book, error) {
	var book models.Book
	err := r.v.do(ctx, func(st *state) error {
		found, ok := st.books[id]
		if !ok {
			return database.ErrBookNotFound
		}
		book = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetForUpdate needs no row lock: a transaction holds the store mutex.
func (r *bookRepo) GetForUpdate(ctx context.Context, id int64) (*models.Book, error) {
	return r.Get(ctx, id)
}

func (r *bookRepo) Update(ctx context.Context, book *models.Book) error {
	return r.v.write(ctx, func(st *state) error {
		current, ok := st.books[book.ID]
		if !ok || current.Version != book.Version {
			return database.ErrOptimisticLockFailed
		}
		if duplicateBook(st, book) {
			return database.ErrDuplicateBook
		}

		book.CreatedAt = current.CreatedAt
		book.UpdatedAt = r.v.now()
		book.Version++
		st.books[book.ID] = *book
		return nil
	})
}

func (r *bookRepo) Delete(ctx context.Context, id int64) error {
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.books[id]; !ok {
			return database.ErrBookNotFound
		}
		for _, order := range st.orders {
			for _, line := range order.Lines {
				if line.BookID == id {
					return database.ErrBookInUse
				}
			}
		}
		for _, report := range st.reports {
			if report.BookID == id {
				return database.ErrBookInUse
			}
		}

		delete(st.books, id)
		delete(st.bookCategories, id)
		for lineID, line := range st.cartLines {
			if line.BookID == id {
				delete(st.cartLines, lineID)
			}
		}
		return nil
	})
}

func (r *bookRepo) List(ctx context.Context, filter repository.BookFilter) (*repository.OffsetPage[models.Book], error) {
	var page *repository.OffsetPage[models.Book]
	err := r.v.do(ctx, func(st *state) error {
		search := strings.ToLower(filter.Search)

		var books []models.Book
		for _, book := range st.books {
			if search != "" && !strings.Contains(strings.ToLower(book.Title), search) {
				continue
			}
			if filter.CategoryID != 0 {
				if _, ok := st.bookCategories[book.ID][filter.CategoryID]; !ok {
					continue
				}
			}
			books = append(books, book)
		}

		sort.Slice(books, bookLess(books, filter.Sort))
		page = paginate(books, filter.Page, filter.PageSize)
		return nil
	})
	return page, err
}

func bookLess(books []models.Book, by repository.BookSort) func(i, j int) bool {
	return func(i, j int) bool {
		a, b := books[i], books[j]
		switch by {
		case repository.SortPriceAsc:
			if !a.Price.Equal(b.Price) {
				return a.Price.LessThan(b.Price)
			}
			return a.ID < b.ID
		case repository.SortPriceDesc:
			if !a.Price.Equal(b.Price) {
				return a.Price.GreaterThan(b.Price)
			}
			return a.ID < b.ID
		case repository.SortTitle:
			at, bt := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if at != bt {
				return at < bt
			}
			return a.ID < b.ID
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		}
	}
}

func (r *bookRepo) DecrementStock(ctx context.Context, id int64, quantity int) error {
	return r.v.write(ctx, func(st *state) error {
		book, ok := st.books[id]
		if !ok || book.Stock < quantity {
			return database.ErrOutOfStock
		}
		book.Stock -= quantity
		book.UpdatedAt = r.v.now()
		book.Version++
		st.books[id] = book
		return nil
	})
}

func (r *bookRepo) SetCategories(ctx context.Context, bookID int64, categoryIDs []int64) error {
	return r.v.write(ctx, func(st *state) error {
		set := make(map[int64]struct{}, len(categoryIDs))
		for _, id := range categoryIDs {
			if _, ok := st.categories[id]; !ok {
				return database.ErrCategoryNotFound
			}
			set[id] = struct{}{}
		}
		st.bookCategories[bookID] = set
		return nil
	})
}

type categoryRepo struct {
	v *view
}

func duplicateCategory(st *state, category *models.Category) bool {
	for id, other := range st.categories {
		if id != category.ID && strings.EqualFold(other.Name, category.Name) {
			return true
		}
	}
	return false
}

func (r *categoryRepo) Create(ctx context.Context, category *models.Category) error {
	return r.v.write(ctx, func(st *state) error {
		if duplicateCategory(st, category) {
			return database.ErrDuplicateCategory
		}
		category.ID = st.nextID()
		category.CreatedAt = r.v.now()
		st.categories[category.ID] = *category
		return nil
	})
}

func (r *categoryRepo) Get(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	err := r.v.do(ctx, func(st *state) error {
		found, ok := st.categories[id]
		if !ok {
			return database.ErrCategoryNotFound
		}
		category = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) List(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := r.v.do(ctx, func(st *state) error {
		for _, c := range st.categories {
			categories = append(categories, c)
		}
		return nil
	})
	sort.Slice(categories, func(i, j int) bool {
		a, b := strings.ToLower(categories[i].Name), strings.ToLower(categories[j].Name)
		if a != b {
			return a < b
		}
		return categories[i].ID < categories[j].ID
	})
	return categories, err
}

func (r *categoryRepo) ForBook(ctx context.Context, bookID int64) ([]models.Category, error) {
	categories := []models.Category{}
	err := r.v.do(ctx, func(st *state) error {
		for id := range st.bookCategories[bookID] {
			if c, ok := st.categories[id]; ok {
				categories = append(categories, c)
			}
		}
		return nil
	})
	sort.Slice(categories, func(i, j int) bool { return categories[i].ID < categories[j].ID })
	return categories, err
}

func (r *categoryRepo) Update(ctx context.Context, category *models.Category) error {
	return r.v.write(ctx, func(st *state) error {
		current, ok := st.categories[category.ID]
		if !ok {
			return database.ErrCategoryNotFound
		}
		if duplicateCategory(st, category) {
			return database.ErrDuplicateCategory
		}
		current.Name = category.Name
		current.Description = category.Description
		st.categories[category.ID] = current
		return nil
	})
}

func (r *categoryRepo) Delete(ctx context.Context, id int64) error {
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.categories[id]; !ok {
			return database.ErrCategoryNotFound
		}
		delete(st.categories, id)
		for _, set := range st.bookCategories {
			delete(set, id)
		}
		return nil
	})
}
