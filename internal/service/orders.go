package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/events"
	"github.com/safar/go-bookstore/internal/metrics"
	"github.com/safar/go-bookstore/internal/models"
	"github.com/safar/go-bookstore/internal/repository"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type OrderService struct {
	store     repository.Store
	publisher events.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
	logger    *log.Entry
}

func NewOrderService(store repository.Store, publisher events.Publisher, m *metrics.Metrics, now func() time.Time) *OrderService {
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &OrderService{
		store:     store,
		publisher: publisher,
		metrics:   m,
		now:       now,
		logger:    log.WithField("component", "order-service"),
	}
}

type CheckoutRequest struct {
	// UseAccountInfo copies the contact details from the account profile
	// instead of Contact.
	UseAccountInfo bool               `json:"use_account_info"`
	Contact        models.ContactInfo `json:"contact"`
}

type ContactPatch struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func generateOrderNumber(at time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("ORD-%s-%s", at.Format("20060102"), id[:10])
}

func checkContact(c models.ContactInfo) (models.ContactInfo, error) {
	c = models.ContactInfo{
		Name:    strings.TrimSpace(c.Name),
		Email:   strings.TrimSpace(c.Email),
		Phone:   strings.TrimSpace(c.Phone),
		Address: strings.TrimSpace(c.Address),
	}
	switch {
	case c.Name == "":
		return c, database.Validationf("recipient name is required")
	case c.Phone == "":
		return c, database.Validationf("phone number is required")
	case c.Address == "":
		return c, database.Validationf("shipping address is required")
	}
	return c, nil
}

// Checkout turns the account's cart into a Pending order. Stock is re-checked
// on locked rows; if any line is short nothing is written except the removal
// of the short lines from the cart, and a *database.StockError names them.
func (s *OrderService) Checkout(ctx context.Context, accountID int64, req CheckoutRequest) (*OrderView, error) {
	started := time.Now()

	if !req.UseAccountInfo {
		contact, err := checkContact(req.Contact)
		if err != nil {
			return nil, err
		}
		req.Contact = contact
	}

	var (
		order     *models.Order
		titles    map[int64]string
		shortages []int64
	)

	err := s.store.InTx(ctx, func(tx repository.Scope) error {
		shortages = nil

		account, err := tx.Accounts().Get(ctx, accountID)
		if err != nil {
			return err
		}

		lines, err := tx.Carts().Lines(ctx, accountID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return database.ErrEmptyCart
		}

		// Lock in a stable order so concurrent checkouts cannot deadlock.
		sort.Slice(lines, func(i, j int) bool { return lines[i].BookID < lines[j].BookID })

		books := make(map[int64]*models.Book, len(lines))
		var short []string
		for _, line := range lines {
			book, err := tx.Books().GetForUpdate(ctx, line.BookID)
			if err != nil {
				return err
			}
			books[line.BookID] = book
			if book.Stock < line.Quantity {
				short = append(short, book.Title)
				shortages = append(shortages, line.BookID)
			}
		}
		if len(short) > 0 {
			return &database.StockError{Titles: short}
		}

		contact := req.Contact
		if req.UseAccountInfo {
			contact = models.ContactInfo{
				Name:    account.Name,
				Email:   account.Email,
				Phone:   account.Phone,
				Address: account.Address,
			}
		}

		order = &models.Order{
			OrderNumber: generateOrderNumber(s.now()),
			AccountID:   &account.ID,
			Contact:     contact,
			Status:      models.OrderStatusPending,
			TotalPrice:  decimal.Zero,
		}
		titles = make(map[int64]string, len(lines))

		for _, line := range lines {
			book := books[line.BookID]
			if err := tx.Books().DecrementStock(ctx, book.ID, line.Quantity); err != nil {
				return err
			}

			orderLine := models.OrderLine{BookID: book.ID, Quantity: line.Quantity, Price: book.Price}
			order.Lines = append(order.Lines, orderLine)
			order.TotalPrice = order.TotalPrice.Add(orderLine.Subtotal())
			titles[book.ID] = book.Title
		}

		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}
		return tx.Carts().Clear(ctx, accountID)
	})

	if err != nil {
		var stockErr *database.StockError
		switch {
		case errors.As(err, &stockErr):
			s.metrics.ObserveCheckout(metrics.OutcomeOutOfStock, started)
			if rmErr := s.removeShortLines(ctx, accountID, shortages); rmErr != nil {
				return nil, rmErr
			}
			s.logger.WithFields(log.Fields{
				"account_id": accountID,
				"titles":     stockErr.Titles,
			}).Warn("checkout aborted: insufficient stock")
			return nil, stockErr
		case errors.Is(err, database.ErrEmptyCart):
			s.metrics.ObserveCheckout(metrics.OutcomeEmptyCart, started)
		default:
			s.metrics.ObserveCheckout(metrics.OutcomeError, started)
		}
		return nil, database.Persist("checkout", err)
	}

	s.metrics.ObserveCheckout(metrics.OutcomeSuccess, started)
	s.metrics.OrderTransition(string(models.OrderStatusPending))
	s.logger.WithFields(log.Fields{
		"account_id":   accountID,
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"total":        order.TotalPrice.StringFixed(2),
	}).Info("order placed")
	s.publish(ctx, events.OrderCreated, order)

	return toOrderView(order, titles), nil
}

func (s *OrderService) removeShortLines(ctx context.Context, accountID int64, bookIDs []int64) error {
	err := s.store.InTx(ctx, func(tx repository.Scope) error {
		return tx.Carts().RemoveBooks(ctx, accountID, bookIDs)
	})
	return database.Persist("remove out-of-stock cart lines", err)
}

func invalidTransition(order *models.Order, to models.OrderStatus) error {
	return fmt.Errorf("%w: order %s is %s and cannot become %s",
		database.ErrInvalidTransition, order.OrderNumber, order.Status, to)
}

// transition moves an order to status `to` on a locked row. A nil caller means
// an administrator; otherwise the caller must own the order. after runs in the
// same transaction once the status is written.
func (s *OrderService) transition(
	ctx context.Context,
	op string,
	orderID int64,
	caller *int64,
	to models.OrderStatus,
	after func(tx repository.Scope, order *models.Order) error,
) (*models.Order, error) {
	var order *models.Order
	err := s.store.InTx(ctx, func(tx repository.Scope) error {
		var err error
		order, err = tx.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if caller != nil && !order.OwnedBy(*caller) {
			return database.ErrOrderNotOwned
		}
		if !order.Status.CanTransitionTo(to) {
			return invalidTransition(order, to)
		}

		if err := tx.Orders().UpdateStatus(ctx, order.ID, to, order.Version); err != nil {
			return err
		}
		order.Status = to
		order.Version++

		if after != nil {
			return after(tx, order)
		}
		return nil
	})
	if err != nil {
		return nil, database.Persist(op, err)
	}

	s.metrics.OrderTransition(string(to))
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"status":   to,
	}).Info("order status changed")

	return order, nil
}

func (s *OrderService) ApproveOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.transition(ctx, "approve order", orderID, nil, models.OrderStatusApproved, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.OrderApproved, order)
	return order, nil
}

func (s *OrderService) RejectOrder(ctx context.Context, accountID, orderID int64) (*models.Order, error) {
	order, err := s.transition(ctx, "reject order", orderID, &accountID, models.OrderStatusCanceled, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.OrderCanceled, order)
	return order, nil
}

func (s *OrderService) RejectOrderByAdmin(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.transition(ctx, "reject order", orderID, nil, models.OrderStatusCanceled, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.OrderCanceled, order)
	return order, nil
}

// MarkSuccess completes an approved order and writes one report per order line
// carrying the customer's review.
func (s *OrderService) MarkSuccess(ctx context.Context, accountID, orderID int64, review string) (*models.Order, error) {
	review = strings.TrimSpace(review)

	order, err := s.transition(ctx, "complete order", orderID, &accountID, models.OrderStatusCompleted,
		func(tx repository.Scope, order *models.Order) error {
			completedAt := s.now()
			for _, line := range order.Lines {
				report := &models.Report{
					OrderID:        order.ID,
					BookID:         line.BookID,
					Quantity:       line.Quantity,
					Price:          line.Price,
					OrderDate:      completedAt,
					CustomerReview: review,
				}
				if err := tx.Reports().Create(ctx, report); err != nil {
					return err
				}
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	s.metrics.AddRevenue(order.TotalPrice.InexactFloat64())
	s.publish(ctx, events.OrderCompleted, order)
	return order, nil
}

// UpdateOrderContact edits the delivery details of a Pending order. Only the
// fields set in patch change.
func (s *OrderService) UpdateOrderContact(ctx context.Context, accountID, orderID int64, patch ContactPatch) (*models.Order, error) {
	if patch.Name == nil && patch.Email == nil && patch.Phone == nil && patch.Address == nil {
		return nil, database.Validationf("nothing to update")
	}

	var order *models.Order
	err := s.store.InTx(ctx, func(tx repository.Scope) error {
		var err error
		order, err = tx.Orders().GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.OwnedBy(accountID) {
			return database.ErrOrderNotOwned
		}
		if order.Status != models.OrderStatusPending {
			return fmt.Errorf("%w: order %s is %s, contact details can only change while Pending",
				database.ErrInvalidTransition, order.OrderNumber, order.Status)
		}

		contact := order.Contact
		for _, field := range []struct {
			name  string
			value *string
			dst   *string
		}{
			{"name", patch.Name, &contact.Name},
			{"email", patch.Email, &contact.Email},
			{"phone", patch.Phone, &contact.Phone},
			{"address", patch.Address, &contact.Address},
		} {
			if field.value == nil {
				continue
			}
			v := strings.TrimSpace(*field.value)
			if v == "" {
				return database.Validationf("%s cannot be empty", field.name)
			}
			*field.dst = v
		}

		if err := tx.Orders().UpdateContact(ctx, order.ID, contact, order.Version); err != nil {
			return err
		}
		order.Contact = contact
		order.Version++
		return nil
	})
	if err != nil {
		return nil, database.Persist("update order contact", err)
	}

	s.publish(ctx, events.OrderContactUpdated, order)
	return order, nil
}

func (s *OrderService) UpdateOrderName(ctx context.Context, accountID, orderID int64, name string) (*models.Order, error) {
	return s.UpdateOrderContact(ctx, accountID, orderID, ContactPatch{Name: &name})
}

func (s *OrderService) UpdateOrderPhone(ctx context.Context, accountID, orderID int64, phone string) (*models.Order, error) {
	return s.UpdateOrderContact(ctx, accountID, orderID, ContactPatch{Phone: &phone})
}

func (s *OrderService) UpdateOrderEmail(ctx context.Context, accountID, orderID int64, email string) (*models.Order, error) {
	return s.UpdateOrderContact(ctx, accountID, orderID, ContactPatch{Email: &email})
}

func (s *OrderService) UpdateOrderAddress(ctx context.Context, accountID, orderID int64, address string) (*models.Order, error) {
	return s.UpdateOrderContact(ctx, accountID, orderID, ContactPatch{Address: &address})
}

func (s *OrderService) GetOrder(ctx context.Context, accountID, orderID int64) (*OrderView, error) {
	order, err := s.store.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, database.Persist("get order", err)
	}
	if !order.OwnedBy(accountID) {
		return nil, database.ErrOrderNotOwned
	}
	return s.view(ctx, order)
}

func (s *OrderService) GetOrderByAdmin(ctx context.Context, orderID int64) (*OrderView, error) {
	order, err := s.store.Orders().Get(ctx, orderID)
	if err != nil {
		return nil, database.Persist("get order", err)
	}
	return s.view(ctx, order)
}

func (s *OrderService) view(ctx context.Context, order *models.Order) (*OrderView, error) {
	titles := make(map[int64]string, len(order.Lines))
	for _, line := range order.Lines {
		book, err := s.store.Books().Get(ctx, line.BookID)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				continue
			}
			return nil, database.Persist("get order book", err)
		}
		titles[line.BookID] = book.Title
	}
	return toOrderView(order, titles), nil
}

// ListOrders pages through one account's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, accountID int64, cursor string, limit int) (*repository.CursorPage[models.Order], error) {
	if limit == 0 {
		limit = repository.DefaultPageSize
	}
	if limit < 0 || limit > repository.MaxPageSize {
		return nil, database.Validationf("limit must be between 1 and %d", repository.MaxPageSize)
	}

	page, err := s.store.Orders().ListByAccount(ctx, accountID, cursor, limit)
	if err != nil {
		return nil, database.Persist("list orders", err)
	}
	return page, nil
}

func (s *OrderService) ListAllOrders(ctx context.Context, page, pageSize int) (*repository.OffsetPage[models.Order], error) {
	if err := repository.CheckPage(page, pageSize); err != nil {
		return nil, err
	}

	result, err := s.store.Orders().List(ctx, page, pageSize)
	if err != nil {
		return nil, database.Persist("list all orders", err)
	}
	return result, nil
}

// publish never fails the caller: the order change is already committed.
func (s *OrderService) publish(ctx context.Context, eventType events.EventType, order *models.Order) {
	if err := s.publisher.Publish(ctx, events.NewOrderEvent(eventType, order)); err != nil {
		s.metrics.EventPublishFailed()
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"type":     eventType,
		}).Warn("failed to publish order event")
	}
}
