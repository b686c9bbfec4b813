package rest

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
	"github.com/vladislavdragonenkov/bookstore/internal/service/orders"
)

// OrdersHandler обслуживает /api/orders.
type OrdersHandler struct {
	orders      *orders.Service
	customers   domain.CustomerRepository
	books       domain.BookRepository
	idempotency domain.IdempotencyRepository
	logger      *log.Entry
}

type createOrderRequest struct {
	CustomerID string `json:"customerId"`
	Books      []struct {
		BookID   string `json:"bookId"`
		Quantity int32  `json:"quantity"`
	} `json:"books"`
	ShippingAddress *addressView `json:"shippingAddress,omitempty"`
	Notes           string       `json:"notes,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// Register вешает маршруты заказов на роутер.
func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.withIdempotency(h.create))
	r.Get("/orders", h.list)
	r.Get("/orders/{id}", h.get)
	r.Get("/orders/{id}/timeline", h.timeline)
	r.Patch("/orders/{id}/status", h.updateStatus)
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	in := orders.CreateOrderInput{
		CustomerID: req.CustomerID,
		Notes:      req.Notes,
	}
	for _, b := range req.Books {
		in.Lines = append(in.Lines, orders.LineInput{BookID: b.BookID, Qty: b.Quantity})
	}
	if req.ShippingAddress != nil {
		in.ShippingAddress = &domain.Address{
			Street:  req.ShippingAddress.Street,
			City:    req.ShippingAddress.City,
			State:   req.ShippingAddress.State,
			ZipCode: req.ShippingAddress.ZipCode,
			Country: req.ShippingAddress.Country,
		}
	}

	order, err := h.orders.CreateOrder(in)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Order created successfully",
		"order":   h.orderView(order),
	})
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": h.orderView(order)})
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	filter := domain.OrderFilter{
		Status:     domain.OrderStatus(r.URL.Query().Get("status")),
		CustomerID: r.URL.Query().Get("customerId"),
	}

	list, total, err := h.orders.List(filter, page)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	views := make([]orderView, 0, len(list))
	for _, order := range list {
		views = append(views, h.orderView(order))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"orders": views,
		"pagination": paginationView{
			Page:  page.Page,
			Limit: page.Limit,
			Total: total,
			Pages: page.Pages(total),
		},
	})
}

func (h *OrdersHandler) timeline(w http.ResponseWriter, r *http.Request) {
	events, err := h.orders.Timeline(chi.URLParam(r, "id"))
	if err != nil {
		respondError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"timeline": toTimelineView(events)})
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	order, err := h.orders.UpdateStatus(chi.URLParam(r, "id"), domain.OrderStatus(req.Status))
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Order status updated successfully",
		"order":   h.orderView(order),
	})
}

// orderView собирает ответное представление заказа: клиент и книги
// подтягиваются справочно. Если карточка книги уже удалена из каталога,
// позиция остаётся со снапшотом цены и идентификатором.
func (h *OrdersHandler) orderView(order domain.Order) orderView {
	view := orderView{
		ID:              order.ID,
		Status:          string(order.Status),
		TotalAmount:     minorToDecimal(order.AmountMinor),
		ShippingAddress: toAddressView(order.ShippingAddress),
		Notes:           order.Notes,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}

	if customer, err := h.customers.Get(order.CustomerID); err == nil {
		view.Customer = customerSummaryView{
			ID:    customer.ID,
			Name:  customer.Name,
			Email: customer.Email,
			Phone: customer.Phone,
		}
	} else {
		view.Customer = customerSummaryView{ID: order.CustomerID}
	}

	view.Books = make([]orderLineView, 0, len(order.Lines))
	for _, line := range order.Lines {
		summary := bookSummaryView{ID: line.BookID, Price: minorToDecimal(line.PriceMinor)}
		if book, err := h.books.Get(line.BookID); err == nil {
			summary.Title = book.Title
			summary.Author = book.Author
		}
		view.Books = append(view.Books, orderLineView{
			Book:        summary,
			Quantity:    line.Qty,
			PriceAtTime: minorToDecimal(line.PriceMinor),
		})
	}

	return view
}
