package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/safar/go-bookstore/internal/database"
	"github.com/safar/go-bookstore/internal/repository"
	"github.com/safar/go-bookstore/internal/service"
	log "github.com/sirupsen/logrus"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("Error encoding JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch database.Kind(err) {
	case database.ErrValidation, database.ErrInvalidRange:
		return http.StatusBadRequest
	case database.ErrNotFound:
		return http.StatusNotFound
	case database.ErrConflict, database.ErrOutOfStock, database.ErrInvalidTransition:
		return http.StatusConflict
	case database.ErrForbidden:
		return http.StatusForbidden
	case database.ErrEmptyCart:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError hides infrastructure details from the client and logs them.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		respondError(w, status, "internal server error")
		return
	}

	var stockErr *database.StockError
	if errors.As(err, &stockErr) {
		respondJSON(w, status, map[string]interface{}{
			"error":  err.Error(),
			"titles": stockErr.Titles,
		})
		return
	}

	respondError(w, status, err.Error())
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return database.Validationf("invalid request body: %v", err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, database.Validationf("invalid %s", name)
	}
	return id, nil
}

// queryInt returns def when the parameter is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, database.Validationf("%s must be an integer", name)
	}
	return v, nil
}

func queryInt64(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, database.Validationf("%s must be an integer", name)
	}
	return v, nil
}

func checkCartQuantity(qty int) error {
	if qty < 1 || qty > service.MaxLineQuantity {
		return database.Validationf("quantity must be between 1 and %d", service.MaxLineQuantity)
	}
	return nil
}

func pageParams(r *http.Request) (int, int, error) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		return 0, 0, err
	}
	pageSize, err := queryInt(r, "page_size", repository.DefaultPageSize)
	if err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}
