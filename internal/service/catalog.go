package service

import (
	"context"
	"sort"
	"strings"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/safar/go-bookstore/internal/repository"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type CatalogService struct {
	store  repository.Store
	logger *log.Entry
}

func NewCatalogService(store repository.Store) *CatalogService {
	return &CatalogService{
		store:  store,
		logger: log.WithField("component", "catalog-service"),
	}
}

type BookInput struct {
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description"`
}

type BookPatch struct {
	Title       *string          `json:"title"`
	Author      *string          `json:"author"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	Description *string          `json:"description"`
}

type BookQuery struct {
	Page       int
	PageSize   int
	Search     string
	CategoryID int64
	Sort       repository.BookSort
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CategoryPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// maxPrice matches the NUMERIC(12, 2) price columns.
var maxPrice = decimal.New(1, 10)

func validateBook(book *models.Book) error {
	book.Title = strings.TrimSpace(book.Title)
	book.Author = strings.TrimSpace(book.Author)
	book.Description = strings.TrimSpace(book.Description)

	switch {
	case book.Title == "":
		return database.Validationf("title is required")
	case book.Author == "":
		return database.Validationf("author is required")
	case !book.Price.IsPositive():
		return database.Validationf("price must be greater than zero")
	case !book.Price.Equal(book.Price.Round(2)):
		return database.Validationf("price cannot have more than two decimal places")
	case book.Price.GreaterThanOrEqual(maxPrice):
		return database.Validationf("price must be less than %s", maxPrice)
	case book.Stock < 0:
		return database.Validationf("stock cannot be negative")
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s *CatalogService) CreateBook(ctx context.Context, in BookInput, categoryIDs []int64) (*BookDetail, error) {
	book := &models.Book{
		Title:       in.Title,
		Author:      in.Author,
		Price:       in.Price,
		Stock:       in.Stock,
		Description: in.Description,
	}
	if err := validateBook(book); err != nil {
		return nil, err
	}

	var categories []models.Category
	err := s.store.InTx(ctx, func(tx repository.Scope) error {
		if err := tx.Books().Create(ctx, book); err != nil {
			return err
		}
		if err := tx.Books().SetCategories(ctx, book.ID, uniqueIDs(categoryIDs)); err != nil {
			return err
		}

		var err error
		categories, err = tx.Categories().ForBook(ctx, book.ID)
		return err
	})
	if err != nil {
		return nil, database.Persist("create book", err)
	}

	s.logger.WithFields(log.Fields{
		"book_id": book.ID,
		"title":   book.Title,
	}).Info("book created")

	return toBookDetail(book, categories, nil), nil
}

func (s *CatalogService) GetBook(ctx context.Context, id int64) (*BookDetail, error) {
	var detail *BookDetail
	err := s.store.ReadTx(ctx, func(tx repository.Scope) error {
		book, err := tx.Books().Get(ctx, id)
		if err != nil {
			return err
		}

		categories, err := tx.Categories().ForBook(ctx, id)
		if err != nil {
			return err
		}

		reviews, err := tx.Reports().ReviewsForBook(ctx, id)
		if err != nil {
			return err
		}

		detail = toBookDetail(book, categories, reviews)
		return nil
	})
	if err != nil {
		return nil, database.Persist("get book", err)
	}
	return detail, nil
}

func (s *CatalogService) UpdateBook(ctx context.Context, id int64, patch BookPatch) (*models.Book, error) {
	var book *models.Book
	err := s.store.InTx(ctx, func(tx repository.Scope) error {
		var err error
		book, err = tx.Books().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if patch.Title != nil {
			book.Title = *patch.Title
		}
		if patch.Author != nil {
			book.Author = *patch.Author
		}
		if patch.Price != nil {
			book.Price = *patch.Price
		}
		if patch.Stock != nil {
			book.Stock = *patch.Stock
		}
		if patch.Description != nil {
			book.Description = *patch.Description
		}
		if err := validateBook(book); err != nil {
			return err
		}

		return tx.Books().Update(ctx, book)
	})
	if err != nil {
		return nil, database.Persist("update book", err)
	}

	return book, nil
}

func (s *CatalogService) SetBookCategories(ctx context.Context, bookID int64, categoryIDs []int64) ([]models.Category, error) {
	var categories []models.Category
	err := s.store.InTx(ctx, func(tx repository.Scope) error {
		if _, err := tx.Books().GetForUpdate(ctx, bookID); err != nil {
			return err
		}
		if err := tx.Books().SetCategories(ctx, bookID, uniqueIDs(categoryIDs)); err != nil {
			return err
		}

		var err error
		categories, err = tx.Categories().ForBook(ctx, bookID)
		return err
	})
	if err != nil {
		return nil, database.Persist("set book categories", err)
	}
	return categories, nil
}

func (s *CatalogService) DeleteBook(ctx context.Context, id int64) error {
	if err := s.store.Books().Delete(ctx, id); err != nil {
		return database.Persist("delete book", err)
	}
	s.logger.WithField("book_id", id).Info("book deleted")
	return nil
}

func (s *CatalogService) ListBooks(ctx context.Context, q BookQuery) (*repository.OffsetPage[models.Book], error) {
	if err := repository.CheckPage(q.Page, q.PageSize); err != nil {
		return nil, err
	}
	if !q.Sort.Valid() {
		return nil, database.Validationf("unknown sort order %q", q.Sort)
	}

	if q.CategoryID != 0 {
		if _, err := s.store.Categories().Get(ctx, q.CategoryID); err != nil {
			return nil, database.Persist("get category", err)
		}
	}

	page, err := s.store.Books().List(ctx, repository.BookFilter{
		Search:     strings.TrimSpace(q.Search),
		CategoryID: q.CategoryID,
		Sort:       q.Sort,
		Page:       q.Page,
		PageSize:   q.PageSize,
	})
	if err != nil {
		return nil, database.Persist("list books", err)
	}
	return page, nil
}

// CheckStock reports whether quantity copies of the book are currently available.
func (s *CatalogService) CheckStock(ctx context.Context, bookID int64, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, database.Validationf("quantity must be greater than zero")
	}

	book, err := s.store.Books().Get(ctx, bookID)
	if err != nil {
		return false, database.Persist("get book", err)
	}
	return book.Stock >= quantity, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	category := &models.Category{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}
	if category.Name == "" {
		return nil, database.Validationf("category name is required")
	}

	if err := s.store.Categories().Create(ctx, category); err != nil {
		return nil, database.Persist("create category", err)
	}
	return category, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	category, err := s.store.Categories().Get(ctx, id)
	if err != nil {
		return nil, database.Persist("get category", err)
	}
	return category, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.Categories().List(ctx)
	if err != nil {
		return nil, database.Persist("list categories", err)
	}
	return categories, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, patch CategoryPatch) (*models.Category, error) {
	var category *models.Category
	err := s.store.InTx(ctx, func(tx repository.Scope) error {
		var err error
		category, err = tx.Categories().Get(ctx, id)
		if err != nil {
			return err
		}

		applyString(&category.Name, patch.Name)
		applyString(&category.Description, patch.Description)
		if category.Name == "" {
			return database.Validationf("category name is required")
		}

		return tx.Categories().Update(ctx, category)
	})
	if err != nil {
		return nil, database.Persist("update category", err)
	}
	return category, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.Categories().Delete(ctx, id); err != nil {
		return database.Persist("delete category", err)
	}
	return nil
}
