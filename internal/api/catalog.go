package api

import (
	"net/http"

	"github.com/safar/go-bookstore/internal/repository"
	"github.com/safar/go-bookstore/internal/service"
)

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := pageParams(r)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	categoryID, err := queryInt64(r, "category_id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	q := r.URL.Query()
	result, err := s.svc.Catalog.ListBooks(r.Context(), service.BookQuery{
		Page:       page,
		PageSize:   pageSize,
		Search:     q.Get("search"),
		CategoryID: categoryID,
		Sort:       repository.BookSort(q.Get("sort")),
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	book, err := s.svc.Catalog.GetBook(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, book)
}

func (s *Server) handleCheckStock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	qty, err := queryInt(r, "quantity", 1)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	ok, err := s.svc.Catalog.CheckStock(r.Context(), id, qty)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"book_id":   id,
		"quantity":  qty,
		"available": ok,
	})
}

func (s *Server) handleBookReviews(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	reviews, err := s.svc.Reports.GetBookReviews(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, reviews)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		service.BookInput
		CategoryIDs []int64 `json:"category_ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, r, err)
		return
	}

	book, err := s.svc.Catalog.CreateBook(r.Context(), req.BookInput, req.CategoryIDs)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, book)
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	var patch service.BookPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondServiceError(w, r, err)
		return
	}

	book, err := s.svc.Catalog.UpdateBook(r.Context(), id, patch)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, book)
}

func (s *Server) handleSetBookCategories(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	var req struct {
		CategoryIDs []int64 `json:"category_ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, r, err)
		return
	}

	categories, err := s.svc.Catalog.SetBookCategories(r.Context(), id, req.CategoryIDs)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	if err := s.svc.Catalog.DeleteBook(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.svc.Catalog.ListCategories(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	category, err := s.svc.Catalog.GetCategory(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryInput
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, r, err)
		return
	}

	category, err := s.svc.Catalog.CreateCategory(r.Context(), req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, category)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	var patch service.CategoryPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondServiceError(w, r, err)
		return
	}

	category, err := s.svc.Catalog.UpdateCategory(r.Context(), id, patch)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, category)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	if err := s.svc.Catalog.DeleteCategory(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
