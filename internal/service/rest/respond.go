package rest

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

// pageFromQuery извлекает нормализованные параметры страницы из query string.
func pageFromQuery(r *http.Request) domain.Page {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return domain.Page{Page: page, Limit: limit}.Normalize()
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"message": msg})
}

// minorToDecimal переводит минорные единицы в десятичную сумму контракта (20.00).
func minorToDecimal(minor int64) float64 {
	return float64(minor) / 100
}

// decimalToMinor переводит десятичную сумму запроса в минорные единицы.
func decimalToMinor(v float64) int64 {
	return int64(math.Round(v * 100))
}

// respondError переводит доменную ошибку в HTTP-ответ. Неожиданные ошибки
// логируются с контекстом и наружу уходят непрозрачными.
func respondError(logger *log.Entry, w http.ResponseWriter, err error) {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message":   insufficient.Error(),
			"book":      insufficient.Title,
			"available": insufficient.Available,
			"requested": insufficient.Requested,
		})
		return
	}

	var transition *domain.InvalidTransitionError
	if errors.As(err, &transition) {
		writeMessage(w, http.StatusBadRequest, transition.Error())
		return
	}

	switch {
	case domain.IsNotFound(err):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrBookISBNTaken),
		errors.Is(err, domain.ErrCustomerEmailTaken),
		errors.Is(err, domain.ErrUserEmailTaken):
		writeMessage(w, http.StatusConflict, err.Error())
	case domain.IsValidation(err):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		logger.WithError(err).Error("request failed")
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}
