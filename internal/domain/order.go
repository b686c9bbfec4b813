package domain

import "time"

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, сток зарезервирован, обработка не началась.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing — заказ взят в обработку.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered — заказ доставлен клиенту; терминальный статус.
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled — заказ отменён; терминальный статус.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// statusTransitions перечисляет разрешённые переходы. Переход в тот же статус
// и любой переход из терминального статуса запрещены.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

// Terminal сообщает, является ли статус конечным.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransition проверяет допустимость перехода from -> to.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// CheckTransition возвращает типизированную ошибку для запрещённого перехода.
func CheckTransition(from, to OrderStatus) error {
	if !to.Valid() {
		return ErrStatusUnknown
	}
	if !CanTransition(from, to) {
		return &InvalidTransitionError{From: from, To: to}
	}
	return nil
}

// Address — почтовый адрес клиента или доставки.
type Address struct {
	Street  string
	City    string
	State   string
	ZipCode string
	Country string
}

// Empty сообщает, заполнен ли адрес хотя бы частично.
func (a Address) Empty() bool {
	return a == Address{}
}

// OrderLine представляет одну позицию заказа.
type OrderLine struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID string
	// BookID — ссылка на книгу каталога.
	BookID string
	// Qty — количество экземпляров.
	Qty int32
	// PriceMinor — снапшот цены за единицу на момент оформления заказа,
	// в минимальных денежных единицах. Больше никогда не перечитывается.
	PriceMinor int64
	// CreatedAt фиксирует момент добавления позиции в заказ.
	CreatedAt time.Time
}

// Order агрегирует состояние заказа и его позиции. Состав позиций и снапшоты
// цен после создания неизменяемы; меняется только статус.
type Order struct {
	ID              string
	CustomerID      string
	Status          OrderStatus
	AmountMinor     int64
	Lines           []OrderLine
	ShippingAddress Address
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ComputeTotal возвращает сумму заказа как Σ(qty * price) по позициям.
// Чистая функция: вызывается билдером заказа перед сохранением, никаких
// неявных пересчётов на хуках персистентности.
func (o *Order) ComputeTotal() int64 {
	var total int64
	for _, line := range o.Lines {
		total += int64(line.Qty) * line.PriceMinor
	}
	return total
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == "" {
		errs = append(errs, ErrCustomerRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	if o.AmountMinor < 0 {
		errs = append(errs, ErrAmountNegative)
	}

	for _, line := range o.Lines {
		if line.BookID == "" {
			errs = append(errs, ErrLineBookRequired)
		}
		if line.Qty < 1 {
			errs = append(errs, ErrLineQtyInvalid)
		}
		if line.PriceMinor < 0 {
			errs = append(errs, ErrLinePriceInvalid)
		}
	}
	// Сверяем сумму заказа с суммой позиций.
	if o.ComputeTotal() != o.AmountMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}
