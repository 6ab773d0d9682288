// Package api serves the bookstore over HTTP/JSON. Callers identify
// themselves with the X-Account-ID header; admin routes additionally require
// the account to hold the Admin role.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/safar/go-bookstore/internal/service"
	"github.com/safar/go-bookstore/internal/version"
	log "github.com/sirupsen/logrus"
)

const (
	AccountHeader = "X-Account-ID"
	maxBodyBytes  = 1 << 20
)

type Server struct {
	svc      *service.Services
	gatherer prometheus.Gatherer
	logger   *log.Entry
}

type Option func(*Server)

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

func NewServer(svc *service.Services, opts ...Option) *Server {
	s := &Server{
		svc:      svc,
		gatherer: prometheus.DefaultGatherer,
		logger:   log.WithField("component", "http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	mux.HandleFunc("POST /accounts", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /accounts/me", s.customer(s.handleGetMe))
	mux.HandleFunc("PATCH /accounts/me", s.customer(s.handleUpdateMe))
	mux.HandleFunc("PUT /accounts/me/password", s.customer(s.handleChangePassword))

	mux.HandleFunc("GET /books", s.handleListBooks)
	mux.HandleFunc("GET /books/{id}", s.handleGetBook)
	mux.HandleFunc("GET /books/{id}/stock", s.handleCheckStock)
	mux.HandleFunc("GET /books/{id}/reviews", s.handleBookReviews)
	mux.HandleFunc("GET /categories", s.handleListCategories)
	mux.HandleFunc("GET /categories/{id}", s.handleGetCategory)

	mux.HandleFunc("GET /cart", s.customer(s.handleGetCart))
	mux.HandleFunc("DELETE /cart", s.customer(s.handleClearCart))
	mux.HandleFunc("POST /cart/items", s.customer(s.handleAddToCart))
	mux.HandleFunc("PUT /cart/items/{bookID}", s.customer(s.handleUpdateCartItem))
	mux.HandleFunc("DELETE /cart/items/{lineID}", s.customer(s.handleRemoveCartLine))

	mux.HandleFunc("POST /orders", s.customer(s.handleCheckout))
	mux.HandleFunc("GET /orders", s.customer(s.handleListOrders))
	mux.HandleFunc("GET /orders/{id}", s.customer(s.handleGetOrder))
	mux.HandleFunc("PATCH /orders/{id}/contact", s.customer(s.handleUpdateOrderContact))
	mux.HandleFunc("POST /orders/{id}/cancel", s.customer(s.handleCancelOrder))
	mux.HandleFunc("POST /orders/{id}/complete", s.customer(s.handleCompleteOrder))

	mux.HandleFunc("GET /admin/accounts", s.admin(s.handleListAccounts))
	mux.HandleFunc("POST /admin/books", s.admin(s.handleCreateBook))
	mux.HandleFunc("PATCH /admin/books/{id}", s.admin(s.handleUpdateBook))
	mux.HandleFunc("PUT /admin/books/{id}/categories", s.admin(s.handleSetBookCategories))
	mux.HandleFunc("DELETE /admin/books/{id}", s.admin(s.handleDeleteBook))
	mux.HandleFunc("POST /admin/categories", s.admin(s.handleCreateCategory))
	mux.HandleFunc("PATCH /admin/categories/{id}", s.admin(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /admin/categories/{id}", s.admin(s.handleDeleteCategory))
	mux.HandleFunc("GET /admin/orders", s.admin(s.handleListAllOrders))
	mux.HandleFunc("GET /admin/orders/{id}", s.admin(s.handleAdminGetOrder))
	mux.HandleFunc("POST /admin/orders/{id}/approve", s.admin(s.handleApproveOrder))
	mux.HandleFunc("POST /admin/orders/{id}/reject", s.admin(s.handleRejectOrder))
	mux.HandleFunc("GET /admin/reports/revenue", s.admin(s.handleRevenueReport))
	mux.HandleFunc("GET /admin/reports/revenue/export", s.admin(s.handleRevenueExport))

	return s.logRequests(limitBody(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

type accountKey struct{}

func accountFrom(ctx context.Context) int64 {
	id, _ := ctx.Value(accountKey{}).(int64)
	return id
}

// customer requires a parseable X-Account-ID header.
func (s *Server) customer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(AccountHeader)
		if raw == "" {
			respondError(w, http.StatusUnauthorized, "missing "+AccountHeader+" header")
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondError(w, http.StatusUnauthorized, "invalid "+AccountHeader+" header")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), accountKey{}, id)))
	}
}

func (s *Server) admin(next http.HandlerFunc) http.HandlerFunc {
	return s.customer(func(w http.ResponseWriter, r *http.Request) {
		if err := s.svc.Accounts.RequireAdmin(r.Context(), accountFrom(r.Context())); err != nil {
			respondServiceError(w, r, err)
			return
		}
		next(w, r)
	})
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry := s.logger.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(started),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Warn("request completed")
			return
		}
		entry.Debug("request completed")
	})
}
