package inventory

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

// Ledger управляет резервированием стока каталога. Резерв выполняется одним
// атомарным условным декрементом хранилища; никакого read-then-write, который
// допускал бы гонку между конкурентными заказами.
type Ledger struct {
	books  domain.BookRepository
	logger *log.Entry

	// mu сериализует Release по токенам, гарантируя идемпотентность
	// повторного освобождения.
	mu sync.Mutex
}

// NewLedger создаёт ledger поверх репозитория каталога.
func NewLedger(books domain.BookRepository, logger *log.Entry) *Ledger {
	if logger == nil {
		logger = log.WithField("component", "inventory-ledger")
	}
	return &Ledger{
		books:  books,
		logger: logger,
	}
}

// Reserve атомарно списывает qty экземпляров книги. При нехватке стока
// возвращает InsufficientStockError с актуальным остатком.
func (l *Ledger) Reserve(bookID string, qty int32) (*domain.Reservation, error) {
	if qty < 1 {
		return nil, domain.ErrLineQtyInvalid
	}

	ok, err := l.books.DecrementStock(bookID, qty)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Остаток читаем только для деталей ошибки; решение о нехватке
		// уже принято атомарным декрементом.
		book, getErr := l.books.Get(bookID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, &domain.InsufficientStockError{
			BookID:    bookID,
			Title:     book.Title,
			Available: book.StockQuantity,
			Requested: qty,
		}
	}

	res := &domain.Reservation{
		ID:        uuid.NewString(),
		BookID:    bookID,
		Qty:       qty,
		Status:    domain.ReservationStatusReserved,
		CreatedAt: time.Now().UTC(),
	}

	l.logger.WithFields(log.Fields{
		"reservation_id": res.ID,
		"book_id":        bookID,
		"qty":            qty,
	}).Debug("stock reserved")

	return res, nil
}

// Release возвращает резерв на склад. Идемпотентен: повторный вызов для того же
// токена ничего не меняет.
func (l *Ledger) Release(res *domain.Reservation) error {
	if res == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if res.Released() {
		return nil
	}

	if err := l.books.IncrementStock(res.BookID, res.Qty); err != nil {
		return fmt.Errorf("release reservation %s: %w", res.ID, err)
	}
	res.Status = domain.ReservationStatusReleased

	l.logger.WithFields(log.Fields{
		"reservation_id": res.ID,
		"book_id":        res.BookID,
		"qty":            res.Qty,
	}).Debug("stock released")

	return nil
}

// Restock возвращает qty на остаток без токена резерва. Используется при
// отмене уже созданного заказа.
func (l *Ledger) Restock(bookID string, qty int32) error {
	if qty < 1 {
		return domain.ErrLineQtyInvalid
	}
	return l.books.IncrementStock(bookID, qty)
}

var _ domain.InventoryLedger = (*Ledger)(nil)
