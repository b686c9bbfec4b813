package rest

import (
	"time"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

// Представления ответов. Деньги наружу уходят десятичными числами (20.00),
// внутри домена они живут в минорных единицах.

type addressView struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

type bookView struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	ISBN          string    `json:"isbn"`
	Genre         string    `json:"genre,omitempty"`
	Price         float64   `json:"price"`
	StockQuantity int32     `json:"stockQuantity"`
	PublishedYear int32     `json:"publishedYear,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type bookSummaryView struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Price  float64 `json:"price"`
}

type customerView struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone,omitempty"`
	Address   addressView `json:"address"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type customerSummaryView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type orderLineView struct {
	Book        bookSummaryView `json:"book"`
	Quantity    int32           `json:"quantity"`
	PriceAtTime float64         `json:"priceAtTime"`
}

type orderView struct {
	ID              string              `json:"id"`
	Customer        customerSummaryView `json:"customer"`
	Books           []orderLineView     `json:"books"`
	TotalAmount     float64             `json:"totalAmount"`
	Status          string              `json:"status"`
	ShippingAddress addressView         `json:"shippingAddress"`
	Notes           string              `json:"notes,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// userView не содержит хэша пароля: наружу уходят только открытые атрибуты.
type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type paginationView struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type timelineEventView struct {
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurredAt"`
}

func toAddressView(a domain.Address) addressView {
	return addressView{
		Street:  a.Street,
		City:    a.City,
		State:   a.State,
		ZipCode: a.ZipCode,
		Country: a.Country,
	}
}

func toBookView(b domain.Book) bookView {
	return bookView{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		ISBN:          b.ISBN,
		Genre:         b.Genre,
		Price:         minorToDecimal(b.PriceMinor),
		StockQuantity: b.StockQuantity,
		PublishedYear: b.PublishedYear,
		Description:   b.Description,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func toCustomerView(c domain.Customer) customerView {
	return customerView{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   toAddressView(c.Address),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toUserView(u domain.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toTimelineView(events []domain.TimelineEvent) []timelineEventView {
	out := make([]timelineEventView, 0, len(events))
	for _, ev := range events {
		out = append(out, timelineEventView{
			Type:     ev.Type,
			Reason:   ev.Reason,
			Occurred: ev.Occurred,
		})
	}
	return out
}
