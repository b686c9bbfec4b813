package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

// customerRepositoryInMemory — in-memory справочник клиентов.
type customerRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Customer
}

// NewCustomerRepository возвращает in-memory реализацию CustomerRepository.
func NewCustomerRepository() domain.CustomerRepository {
	return &customerRepositoryInMemory{
		items: make(map[string]domain.Customer),
	}
}

// Create сохраняет нового клиента, проверяя уникальность email.
func (r *customerRepositoryInMemory) Create(customer domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if strings.EqualFold(existing.Email, customer.Email) {
			return domain.ErrCustomerEmailTaken
		}
	}
	r.items[customer.ID] = customer
	return nil
}

// Get возвращает клиента или ErrCustomerNotFound.
func (r *customerRepositoryInMemory) Get(id string) (domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	customer, ok := r.items[id]
	if !ok {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return customer, nil
}

// List возвращает страницу клиентов; search матчится по имени и email.
func (r *customerRepositoryInMemory) List(search string, page domain.Page) ([]domain.Customer, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	page = page.Normalize()
	needle := strings.ToLower(search)

	matched := make([]domain.Customer, 0, len(r.items))
	for _, customer := range r.items {
		if needle != "" &&
			!strings.Contains(strings.ToLower(customer.Name), needle) &&
			!strings.Contains(strings.ToLower(customer.Email), needle) {
			continue
		}
		matched = append(matched, customer)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	return pageSlice(matched, page), total, nil
}

// Update перезаписывает атрибуты клиента, если он существует.
func (r *customerRepositoryInMemory) Update(customer domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[customer.ID]; !ok {
		return domain.ErrCustomerNotFound
	}
	r.items[customer.ID] = customer
	return nil
}

// Delete удаляет клиента.
func (r *customerRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrCustomerNotFound
	}
	delete(r.items, id)
	return nil
}

var _ domain.CustomerRepository = (*customerRepositoryInMemory)(nil)
