package api

import (
	"net/http"
)

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := s.svc.Cart.GetCart(r.Context(), accountFrom(r.Context()))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookID   int64 `json:"book_id"`
		Quantity int   `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, r, err)
		return
	}
	if err := checkCartQuantity(req.Quantity); err != nil {
		respondServiceError(w, r, err)
		return
	}

	line, err := s.svc.Cart.AddToCart(r.Context(), accountFrom(r.Context()), req.BookID, req.Quantity)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, line)
}

func (s *Server) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	bookID, err := pathID(r, "bookID")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, r, err)
		return
	}
	if err := checkCartQuantity(req.Quantity); err != nil {
		respondServiceError(w, r, err)
		return
	}

	if err := s.svc.Cart.UpdateQuantity(r.Context(), accountFrom(r.Context()), bookID, req.Quantity); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveCartLine(w http.ResponseWriter, r *http.Request) {
	lineID, err := pathID(r, "lineID")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	if err := s.svc.Cart.RemoveLine(r.Context(), accountFrom(r.Context()), lineID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Cart.Clear(r.Context(), accountFrom(r.Context())); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
