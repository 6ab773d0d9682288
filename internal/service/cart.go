package service

import (
	"context"
	"errors"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/safar/go-bookstore/internal/repository"
	log "github.com/sirupsen/logrus"
)

// MaxLineQuantity caps the quantity of a single cart line, including the
// total reached when AddToCart merges into an existing line.
const MaxLineQuantity = 99

type CartService struct {
	store  repository.Store
	logger *log.Entry
}

func NewCartService(store repository.Store) *CartService {
	return &CartService{
		store:  store,
		logger: log.WithField("component", "cart-service"),
	}
}

// AddToCart checks the requested quantity, not the merged total, against stock.
// Checkout re-checks the merged quantity under a row lock.
func (s *CartService) AddToCart(ctx context.Context, accountID, bookID int64, quantity int) (*models.CartLine, error) {
	if err := checkLineQuantity(quantity); err != nil {
		return nil, err
	}

	var line *models.CartLine
	err := s.store.InTx(ctx, func(tx repository.Scope) error {
		if _, err := tx.Accounts().Get(ctx, accountID); err != nil {
			return err
		}

		book, err := tx.Books().Get(ctx, bookID)
		if err != nil {
			return err
		}
		if book.Stock < quantity {
			return &database.StockError{Titles: []string{book.Title}}
		}

		existing, err := tx.Carts().Line(ctx, accountID, bookID)
		switch {
		case errors.Is(err, database.ErrNotFound):
		case err != nil:
			return err
		case existing.Quantity+quantity > MaxLineQuantity:
			return database.Validationf("cart already holds %d of %q, at most %d allowed",
				existing.Quantity, book.Title, MaxLineQuantity)
		}

		line, err = tx.Carts().Add(ctx, accountID, bookID, quantity)
		return err
	})
	if err != nil {
		return nil, database.Persist("add to cart", err)
	}

	s.logger.WithFields(log.Fields{
		"account_id": accountID,
		"book_id":    bookID,
		"quantity":   line.Quantity,
	}).Debug("cart line updated")

	return line, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, accountID, bookID int64, quantity int) error {
	if err := checkLineQuantity(quantity); err != nil {
		return err
	}

	err := s.store.InTx(ctx, func(tx repository.Scope) error {
		if _, err := tx.Carts().Line(ctx, accountID, bookID); err != nil {
			return err
		}

		book, err := tx.Books().Get(ctx, bookID)
		if err != nil {
			return err
		}
		if book.Stock < quantity {
			return &database.StockError{Titles: []string{book.Title}}
		}

		return tx.Carts().SetQuantity(ctx, accountID, bookID, quantity)
	})
	return database.Persist("update cart quantity", err)
}

func (s *CartService) RemoveLine(ctx context.Context, accountID, lineID int64) error {
	return database.Persist("remove cart line", s.store.Carts().Remove(ctx, accountID, lineID))
}

// GetCart returns an empty view, not an error, when the cart has no lines.
func (s *CartService) GetCart(ctx context.Context, accountID int64) (*CartView, error) {
	var view *CartView
	err := s.store.ReadTx(ctx, func(tx repository.Scope) error {
		if _, err := tx.Accounts().Get(ctx, accountID); err != nil {
			return err
		}

		lines, err := tx.Carts().Lines(ctx, accountID)
		if err != nil {
			return err
		}

		books := make(map[int64]*models.Book, len(lines))
		for _, line := range lines {
			book, err := tx.Books().Get(ctx, line.BookID)
			if err != nil {
				return err
			}
			books[line.BookID] = book
		}

		view = toCartView(accountID, lines, books)
		return nil
	})
	if err != nil {
		return nil, database.Persist("get cart", err)
	}
	return view, nil
}

func checkLineQuantity(quantity int) error {
	if quantity < 1 || quantity > MaxLineQuantity {
		return database.Validationf("quantity must be between 1 and %d", MaxLineQuantity)
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, accountID int64) error {
	return database.Persist("clear cart", s.store.Carts().Clear(ctx, accountID))
}
