package api

import (
	"net/http"
	"time"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/export"
	"github.com/safar/go-bookstore/internal/service"
)

const dateLayout = "2006-01-02"

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req service.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, r, err)
		return
	}

	order, err := s.svc.Orders.Checkout(r.Context(), accountFrom(r.Context()), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	page, err := s.svc.Orders.ListOrders(r.Context(), accountFrom(r.Context()), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	order, err := s.svc.Orders.GetOrder(r.Context(), accountFrom(r.Context()), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleUpdateOrderContact(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	var patch service.ContactPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondServiceError(w, r, err)
		return
	}

	order, err := s.svc.Orders.UpdateOrderContact(r.Context(), accountFrom(r.Context()), id, patch)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	order, err := s.svc.Orders.RejectOrder(r.Context(), accountFrom(r.Context()), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleCompleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	var req struct {
		Review string `json:"review"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			respondServiceError(w, r, err)
			return
		}
	}

	order, err := s.svc.Orders.MarkSuccess(r.Context(), accountFrom(r.Context()), id, req.Review)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleListAllOrders(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := pageParams(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	result, err := s.svc.Orders.ListAllOrders(r.Context(), page, pageSize)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleAdminGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	order, err := s.svc.Orders.GetOrderByAdmin(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleApproveOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	order, err := s.svc.Orders.ApproveOrder(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) handleRejectOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	order, err := s.svc.Orders.RejectOrderByAdmin(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (s *Server) revenueReport(r *http.Request) (*service.RevenueReport, error) {
	q := r.URL.Query()
	from, err := time.Parse(dateLayout, q.Get("from"))
	if err != nil {
		return nil, database.Validationf("from must be a date (YYYY-MM-DD)")
	}
	to, err := time.Parse(dateLayout, q.Get("to"))
	if err != nil {
		return nil, database.Validationf("to must be a date (YYYY-MM-DD)")
	}
	return s.svc.Reports.GetRevenueReport(r.Context(), from, to)
}

func (s *Server) handleRevenueReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.revenueReport(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleRevenueExport(w http.ResponseWriter, r *http.Request) {
	report, err := s.revenueReport(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", "attachment; filename="+export.RevenueFilename(report))
	if err := export.WriteRevenue(w, report); err != nil {
		s.logger.WithError(err).Error("Failed to write revenue workbook")
	}
}
