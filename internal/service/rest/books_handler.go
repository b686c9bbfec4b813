package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
	"github.com/vladislavdragonenkov/bookstore/internal/redisx"
)

// BooksHandler обслуживает каталог /api/books.
type BooksHandler struct {
	books  domain.BookRepository
	cache  *redisx.BookCache
	logger *log.Entry
}

type createBookRequest struct {
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	ISBN          string  `json:"isbn"`
	Genre         string  `json:"genre"`
	Price         float64 `json:"price"`
	StockQuantity int32   `json:"stockQuantity"`
	PublishedYear int32   `json:"publishedYear"`
	Description   string  `json:"description"`
}

type updateBookRequest struct {
	Title         *string  `json:"title"`
	Author        *string  `json:"author"`
	Genre         *string  `json:"genre"`
	Price         *float64 `json:"price"`
	StockQuantity *int32   `json:"stockQuantity"`
	PublishedYear *int32   `json:"publishedYear"`
	Description   *string  `json:"description"`
}

// Register вешает маршруты каталога на роутер.
func (h *BooksHandler) Register(r chi.Router) {
	r.Post("/books", h.create)
	r.Get("/books", h.list)
	r.Get("/books/{id}", h.get)
	r.Patch("/books/{id}", h.update)
	r.Delete("/books/{id}", h.delete)
}

func (h *BooksHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	now := time.Now().UTC()
	book := domain.Book{
		ID:            uuid.NewString(),
		Title:         req.Title,
		Author:        req.Author,
		ISBN:          req.ISBN,
		Genre:         req.Genre,
		PriceMinor:    decimalToMinor(req.Price),
		StockQuantity: req.StockQuantity,
		PublishedYear: req.PublishedYear,
		Description:   req.Description,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if errs := book.Validate(); len(errs) > 0 {
		respondError(h.logger, w, errors.Join(errs...))
		return
	}

	if err := h.books.Create(book); err != nil {
		respondError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Book created successfully",
		"book":    toBookView(book),
	})
}

func (h *BooksHandler) list(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	q := r.URL.Query()

	filter := domain.BookFilter{
		Search: q.Get("search"),
		Genre:  q.Get("genre"),
	}
	if v, err := strconv.ParseFloat(q.Get("minPrice"), 64); err == nil {
		filter.MinPriceMinor = decimalToMinor(v)
	}
	if v, err := strconv.ParseFloat(q.Get("maxPrice"), 64); err == nil {
		filter.MaxPriceMinor = decimalToMinor(v)
	}

	books, total, err := h.books.List(filter, page)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	views := make([]bookView, 0, len(books))
	for _, b := range books {
		views = append(views, toBookView(b))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"books": views,
		"pagination": paginationView{
			Page:  page.Page,
			Limit: page.Limit,
			Total: total,
			Pages: page.Pages(total),
		},
	})
}

func (h *BooksHandler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if book, ok := h.cache.Get(r.Context(), id); ok {
		writeJSON(w, http.StatusOK, map[string]any{"book": toBookView(book)})
		return
	}

	book, err := h.books.Get(id)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}
	h.cache.Set(r.Context(), book)

	writeJSON(w, http.StatusOK, map[string]any{"book": toBookView(book)})
}

func (h *BooksHandler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	book, err := h.books.Get(id)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	if req.Title != nil {
		book.Title = *req.Title
	}
	if req.Author != nil {
		book.Author = *req.Author
	}
	if req.Genre != nil {
		book.Genre = *req.Genre
	}
	if req.Price != nil {
		book.PriceMinor = decimalToMinor(*req.Price)
	}
	if req.StockQuantity != nil {
		book.StockQuantity = *req.StockQuantity
	}
	if req.PublishedYear != nil {
		book.PublishedYear = *req.PublishedYear
	}
	if req.Description != nil {
		book.Description = *req.Description
	}
	book.UpdatedAt = time.Now().UTC()

	if errs := book.Validate(); len(errs) > 0 {
		respondError(h.logger, w, errors.Join(errs...))
		return
	}
	if err := h.books.Update(book); err != nil {
		respondError(h.logger, w, err)
		return
	}
	h.cache.Invalidate(r.Context(), id)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Book updated successfully",
		"book":    toBookView(book),
	})
}

func (h *BooksHandler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.books.Delete(id); err != nil {
		respondError(h.logger, w, err)
		return
	}
	h.cache.Invalidate(r.Context(), id)

	writeJSON(w, http.StatusOK, map[string]string{"message": "Book deleted successfully"})
}
