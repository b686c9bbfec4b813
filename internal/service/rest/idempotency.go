package rest

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyTTL       = 24 * time.Hour
)

// responseRecorder перехватывает статус и тело ответа для кэширования.
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}

// withIdempotency оборачивает обработчик семантикой Idempotency-Key: первый
// запрос с ключом выполняется и кэшируется, повтор с тем же телом получает
// сохранённый ответ, повтор с другим телом отклоняется.
func (h *OrdersHandler) withIdempotency(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(idempotencyKeyHeader)
		if h.idempotency == nil || key == "" {
			next(w, r)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		reqHash := hashRequest(r.Method, r.URL.Path, body)

		record, err := h.idempotency.CreateProcessing(key, reqHash, time.Now().UTC().Add(idempotencyTTL))
		if err != nil {
			h.replayIdempotency(w, err, record)
			return
		}

		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		if rec.status >= http.StatusBadRequest {
			if markErr := h.idempotency.MarkFailed(key, rec.body.Bytes(), rec.status); markErr != nil {
				h.logger.WithError(markErr).WithField("idempotency_key", key).Warn("failed to store idempotent failure response")
			}
			return
		}
		if markErr := h.idempotency.MarkDone(key, rec.body.Bytes(), rec.status); markErr != nil {
			h.logger.WithError(markErr).WithField("idempotency_key", key).Warn("failed to store idempotent success response")
		}
	}
}

func (h *OrdersHandler) replayIdempotency(w http.ResponseWriter, createErr error, record domain.IdempotencyRecord) {
	switch {
	case errors.Is(createErr, domain.ErrIdempotencyHashMismatch):
		writeMessage(w, http.StatusConflict, "idempotency key is already used with different request payload")
	case errors.Is(createErr, domain.ErrIdempotencyKeyAlreadyExists):
		switch record.Status {
		case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
			if len(record.ResponseBody) == 0 {
				writeMessage(w, http.StatusInternalServerError, "idempotency cache is empty")
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(record.HTTPStatus)
			_, _ = w.Write(record.ResponseBody)
		case domain.IdempotencyStatusProcessing:
			writeMessage(w, http.StatusConflict, "request with the same idempotency key is already processing")
		default:
			writeMessage(w, http.StatusInternalServerError, "unknown idempotency record status")
		}
	default:
		h.logger.WithError(createErr).Warn("failed to create idempotency record")
		writeMessage(w, http.StatusInternalServerError, "failed to initialize idempotency request")
	}
}

func hashRequest(method, path string, body []byte) string {
	sum := sha256.New()
	sum.Write([]byte(method))
	sum.Write([]byte{0})
	sum.Write([]byte(path))
	sum.Write([]byte{0})
	sum.Write(body)
	return hex.EncodeToString(sum.Sum(nil))
}
