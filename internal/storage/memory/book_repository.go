package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

// bookRepositoryInMemory — in-memory реализация каталога для разработки и тестов.
// Условный декремент стока выполняется под общим мьютексом, что даёт ту же
// атомарность, что и одиночный UPDATE в PostgreSQL.
type bookRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Book
}

// NewBookRepository возвращает in-memory репозиторий каталога.
func NewBookRepository() domain.BookRepository {
	return &bookRepositoryInMemory{
		items: make(map[string]domain.Book),
	}
}

// Create сохраняет новую книгу, проверяя уникальность ISBN.
func (r *bookRepositoryInMemory) Create(book domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.ISBN == book.ISBN {
			return domain.ErrBookISBNTaken
		}
	}
	r.items[book.ID] = book
	return nil
}

// Get возвращает книгу или ErrBookNotFound.
func (r *bookRepositoryInMemory) Get(id string) (domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	book, ok := r.items[id]
	if !ok {
		return domain.Book{}, domain.ErrBookNotFound
	}
	return book, nil
}

// List возвращает страницу каталога под фильтром, новые записи первыми.
func (r *bookRepositoryInMemory) List(filter domain.BookFilter, page domain.Page) ([]domain.Book, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	page = page.Normalize()

	matched := make([]domain.Book, 0, len(r.items))
	for _, book := range r.items {
		if !matchBook(book, filter) {
			continue
		}
		matched = append(matched, book)
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

// Update перезаписывает атрибуты книги, если она существует.
func (r *bookRepositoryInMemory) Update(book domain.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[book.ID]; !ok {
		return domain.ErrBookNotFound
	}
	r.items[book.ID] = book
	return nil
}

// Delete удаляет книгу из каталога.
func (r *bookRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrBookNotFound
	}
	delete(r.items, id)
	return nil
}

// DecrementStock списывает qty, только если остатка хватает. Проверка и запись
// выполняются под одним захватом мьютекса.
func (r *bookRepositoryInMemory) DecrementStock(id string, qty int32) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	book, ok := r.items[id]
	if !ok {
		return false, domain.ErrBookNotFound
	}
	if book.StockQuantity < qty {
		return false, nil
	}

	book.StockQuantity -= qty
	book.UpdatedAt = time.Now().UTC()
	r.items[id] = book
	return true, nil
}

// IncrementStock возвращает qty на остаток.
func (r *bookRepositoryInMemory) IncrementStock(id string, qty int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	book, ok := r.items[id]
	if !ok {
		return domain.ErrBookNotFound
	}

	book.StockQuantity += qty
	book.UpdatedAt = time.Now().UTC()
	r.items[id] = book
	return nil
}

func matchBook(book domain.Book, filter domain.BookFilter) bool {
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(book.Title), needle) &&
			!strings.Contains(strings.ToLower(book.Author), needle) &&
			!strings.Contains(strings.ToLower(book.ISBN), needle) {
			return false
		}
	}
	if filter.Genre != "" && book.Genre != filter.Genre {
		return false
	}
	if filter.MinPriceMinor > 0 && book.PriceMinor < filter.MinPriceMinor {
		return false
	}
	if filter.MaxPriceMinor > 0 && book.PriceMinor > filter.MaxPriceMinor {
		return false
	}
	return true
}

var _ domain.BookRepository = (*bookRepositoryInMemory)(nil)
