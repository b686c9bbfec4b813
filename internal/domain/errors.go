package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка отсутствующего идентификатора клиента в запросе на заказ.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отсутствия хотя бы одной книги в заказе.
	ErrLinesRequired = errors.New("order must contain at least one book")
	// Ошибка при некорректном количестве в позиции заказа (< 1).
	ErrLineQtyInvalid = errors.New("line quantity must be at least 1")
	// Ошибка отсутствующего идентификатора книги в позиции заказа.
	ErrLineBookRequired = errors.New("line book_id is required")
	// Ошибка, если снапшот цены позиции отрицательный.
	ErrLinePriceInvalid = errors.New("line price must be non-negative")
	// Ошибка отрицательной суммы заказа.
	ErrAmountNegative = errors.New("total amount must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrAmountMismatch = errors.New("order amount does not match lines sum")
	// Ошибка отсутствующего нового статуса при обновлении заказа.
	ErrStatusRequired = errors.New("status is required")
	// Ошибка неизвестного значения статуса заказа.
	ErrStatusUnknown = errors.New("unknown order status")

	// Ошибки валидации каталога.
	ErrBookTitleRequired  = errors.New("book title is required")
	ErrBookAuthorRequired = errors.New("book author is required")
	ErrBookISBNRequired   = errors.New("book isbn is required")
	ErrBookGenreRequired  = errors.New("book genre is required")
	ErrBookPriceInvalid   = errors.New("book price must be non-negative")
	ErrBookStockInvalid   = errors.New("book stock must be non-negative")

	// Ошибки валидации клиента.
	ErrCustomerNameRequired  = errors.New("customer name is required")
	ErrCustomerEmailRequired = errors.New("customer email is required")
	ErrCustomerPhoneRequired = errors.New("customer phone is required")

	// Ошибки валидации учётной записи.
	ErrUserNameRequired     = errors.New("user name is required")
	ErrUserEmailRequired    = errors.New("user email is required")
	ErrUserPasswordRequired = errors.New("user password is required")
	ErrUserRoleUnknown      = errors.New("unknown user role")

	// ErrBookNotFound возвращается, если книга отсутствует в каталоге.
	ErrBookNotFound = errors.New("book not found")
	// ErrCustomerNotFound возвращается, если клиент не найден в справочнике.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrUserNotFound возвращается, если учётная запись не найдена.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserEmailTaken сигнализирует о попытке создать учётную запись с занятым email.
	ErrUserEmailTaken = errors.New("email already in use")
	// ErrBookISBNTaken сигнализирует о попытке создать книгу с занятым ISBN.
	ErrBookISBNTaken = errors.New("book with this isbn already exists")
	// ErrCustomerEmailTaken сигнализирует о попытке занять уже используемый email.
	ErrCustomerEmailTaken = errors.New("email already in use")
	// ErrOrderStatusConflict — текущий статус заказа изменился между проверкой и записью.
	ErrOrderStatusConflict = errors.New("order status changed concurrently")

	// ErrStockCompensation — компенсация резерва не удалась, сток рассинхронизирован.
	// Требует ручного вмешательства оператора.
	ErrStockCompensation = errors.New("stock compensation failed")

	// Ошибки idempotency-слоя.
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyHashMismatch        = errors.New("idempotency key is used with different request")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// InsufficientStockError возвращается Inventory Ledger, когда стока книги
// не хватает под запрошенное количество. Несёт детали для ответа клиенту.
type InsufficientStockError struct {
	BookID    string
	Title     string
	Available int32
	Requested int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for book %s: available %d, requested %d",
		e.BookID, e.Available, e.Requested)
}

// InvalidTransitionError возвращается, когда запрошенный переход статуса
// не разрешён машиной состояний заказа.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// IsInsufficientStock проверяет, является ли ошибка нехваткой стока.
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}

// IsInvalidTransition проверяет, является ли ошибка запрещённым переходом статуса.
func IsInvalidTransition(err error) bool {
	var target *InvalidTransitionError
	return errors.As(err, &target)
}

// IsValidation проверяет, относится ли ошибка к классу ошибок валидации входа.
func IsValidation(err error) bool {
	for _, sentinel := range []error{
		ErrCustomerRequired, ErrLinesRequired, ErrLineQtyInvalid, ErrLineBookRequired,
		ErrLinePriceInvalid, ErrAmountNegative, ErrAmountMismatch,
		ErrStatusRequired, ErrStatusUnknown,
		ErrBookTitleRequired, ErrBookAuthorRequired, ErrBookISBNRequired,
		ErrBookGenreRequired, ErrBookPriceInvalid, ErrBookStockInvalid,
		ErrCustomerNameRequired, ErrCustomerEmailRequired, ErrCustomerPhoneRequired,
		ErrUserNameRequired, ErrUserEmailRequired, ErrUserPasswordRequired, ErrUserRoleUnknown,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// IsNotFound проверяет, относится ли ошибка к классу "не найдено".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBookNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
