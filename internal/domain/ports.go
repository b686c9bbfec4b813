package domain

import "time"

// Page описывает параметры страничной выборки.
type Page struct {
	Page  int
	Limit int
}

// Normalize приводит параметры к рабочим значениям (page >= 1, limit по умолчанию 10).
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	return p
}

// Offset возвращает смещение выборки для нормализованной страницы.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pages возвращает число страниц под total записей.
func (p Page) Pages(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

// BookFilter задаёт условия выборки каталога. Search матчится по title/author/isbn
// без учёта регистра. Ценовые границы <= 0 трактуются как не заданные.
type BookFilter struct {
	Search        string
	Genre         string
	MinPriceMinor int64
	MaxPriceMinor int64
}

// OrderFilter задаёт условия выборки заказов.
type OrderFilter struct {
	Status     OrderStatus
	CustomerID string
}

// BookRepository описывает требования к хранилищу каталога (Catalog Store).
type BookRepository interface {
	// Create сохраняет новую книгу; ErrBookISBNTaken при дубликате ISBN.
	Create(book Book) error
	// Get возвращает книгу или ErrBookNotFound.
	Get(id string) (Book, error)
	// List возвращает страницу каталога и общее число записей под фильтром.
	List(filter BookFilter, page Page) ([]Book, int, error)
	// Update перезаписывает атрибуты книги; ErrBookNotFound, если её нет.
	Update(book Book) error
	// Delete удаляет книгу; ErrBookNotFound, если её нет.
	Delete(id string) error
	// DecrementStock выполняет атомарный условный декремент: списывает qty,
	// только если остатка хватает. Возвращает false без ошибки при нехватке.
	// Никогда не реализуется как отдельные чтение и запись.
	DecrementStock(id string, qty int32) (bool, error)
	// IncrementStock возвращает qty на остаток (компенсация резерва).
	IncrementStock(id string, qty int32) error
}

// CustomerRepository описывает требования к справочнику клиентов.
type CustomerRepository interface {
	Create(customer Customer) error
	Get(id string) (Customer, error)
	List(search string, page Page) ([]Customer, int, error)
	Update(customer Customer) error
	Delete(id string) error
}

// UserRepository хранит учётные записи сотрудников.
type UserRepository interface {
	// Create сохраняет учётную запись; ErrUserEmailTaken при занятом email.
	Create(user User) error
	// Get возвращает учётную запись или ErrUserNotFound.
	Get(id string) (User, error)
	// GetByEmail ищет учётную запись по email без учёта регистра.
	GetByEmail(email string) (User, error)
	// List возвращает страницу учётных записей (новые первыми).
	List(page Page) ([]User, int, error)
}

// OrderRepository описывает требования к хранилищу заказов (Order Store).
type OrderRepository interface {
	// Create сохраняет новый заказ вместе с позициями атомарно.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound.
	Get(id string) (Order, error)
	// List возвращает страницу заказов (новые первыми) и общее число под фильтром.
	List(filter OrderFilter, page Page) ([]Order, int, error)
	// UpdateStatus меняет статус условно: запись происходит только если текущий
	// статус равен from. Возвращает ErrOrderStatusConflict, если статус успел
	// измениться, и ErrOrderNotFound, если заказа нет.
	UpdateStatus(id string, from, to OrderStatus) error
}

// InventoryLedger управляет резервированием стока. Единственная точка,
// через которую ядро заказов мутирует остатки каталога.
type InventoryLedger interface {
	// Reserve атомарно списывает qty экземпляров книги и возвращает токен резерва.
	// Ошибки: ErrBookNotFound, *InsufficientStockError.
	Reserve(bookID string, qty int32) (*Reservation, error)
	// Release возвращает резерв на склад. Идемпотентен: повторный вызов
	// для того же токена ничего не меняет.
	Release(res *Reservation) error
	// Restock возвращает qty на остаток без токена (ресток при отмене заказа).
	Restock(bookID string, qty int32) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// TimelineRepository хранит события жизненного цикла заказа.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(key, requestHash string, expiresAt time.Time) (IdempotencyRecord, error)
	Get(key string) (IdempotencyRecord, error)
	MarkDone(key string, responseBody []byte, httpStatus int) error
	MarkFailed(key string, responseBody []byte, httpStatus int) error
	DeleteExpired(before time.Time, limit int) (int, error)
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
