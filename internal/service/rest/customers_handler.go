package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
	"github.com/vladislavdragonenkov/bookstore/internal/service/orders"
)

// CustomersHandler обслуживает справочник /api/customers.
type CustomersHandler struct {
	customers domain.CustomerRepository
	orders    *orders.Service
	logger    *log.Entry
}

type createCustomerRequest struct {
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Phone   string      `json:"phone"`
	Address addressView `json:"address"`
}

type updateCustomerRequest struct {
	Name    *string      `json:"name"`
	Phone   *string      `json:"phone"`
	Address *addressView `json:"address"`
}

// Register вешает маршруты справочника клиентов на роутер.
func (h *CustomersHandler) Register(r chi.Router) {
	r.Post("/customers", h.create)
	r.Get("/customers", h.list)
	r.Get("/customers/{id}", h.get)
	r.Patch("/customers/{id}", h.update)
	r.Delete("/customers/{id}", h.delete)
}

func (h *CustomersHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	now := time.Now().UTC()
	customer := domain.Customer{
		ID:    uuid.NewString(),
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Address: domain.Address{
			Street:  req.Address.Street,
			City:    req.Address.City,
			State:   req.Address.State,
			ZipCode: req.Address.ZipCode,
			Country: req.Address.Country,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if errs := customer.Validate(); len(errs) > 0 {
		respondError(h.logger, w, errors.Join(errs...))
		return
	}

	if err := h.customers.Create(customer); err != nil {
		respondError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Customer created successfully",
		"customer": toCustomerView(customer),
	})
}

func (h *CustomersHandler) list(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)

	customers, total, err := h.customers.List(r.URL.Query().Get("search"), page)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	views := make([]customerView, 0, len(customers))
	for _, c := range customers {
		views = append(views, toCustomerView(c))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"customers": views,
		"pagination": paginationView{
			Page:  page.Page,
			Limit: page.Limit,
			Total: total,
			Pages: page.Pages(total),
		},
	})
}

// get возвращает клиента вместе с его заказами.
func (h *CustomersHandler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	customer, err := h.customers.Get(id)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	orderList, _, err := h.orders.List(
		domain.OrderFilter{CustomerID: id},
		domain.Page{Limit: 100}.Normalize(),
	)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	orderViews := make([]map[string]any, 0, len(orderList))
	for _, order := range orderList {
		orderViews = append(orderViews, map[string]any{
			"id":          order.ID,
			"status":      string(order.Status),
			"totalAmount": minorToDecimal(order.AmountMinor),
			"createdAt":   order.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"customer": toCustomerView(customer),
		"orders":   orderViews,
	})
}

func (h *CustomersHandler) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid json body")
		return
	}

	customer, err := h.customers.Get(id)
	if err != nil {
		respondError(h.logger, w, err)
		return
	}

	// Email намеренно неизменяем: он служит естественным ключом справочника.
	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.Phone != nil {
		customer.Phone = *req.Phone
	}
	if req.Address != nil {
		customer.Address = domain.Address{
			Street:  req.Address.Street,
			City:    req.Address.City,
			State:   req.Address.State,
			ZipCode: req.Address.ZipCode,
			Country: req.Address.Country,
		}
	}
	customer.UpdatedAt = time.Now().UTC()

	if errs := customer.Validate(); len(errs) > 0 {
		respondError(h.logger, w, errors.Join(errs...))
		return
	}
	if err := h.customers.Update(customer); err != nil {
		respondError(h.logger, w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Customer updated successfully",
		"customer": toCustomerView(customer),
	})
}

func (h *CustomersHandler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.Delete(chi.URLParam(r, "id")); err != nil {
		respondError(h.logger, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Customer deleted successfully"})
}
