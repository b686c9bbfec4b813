package orders

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
	"github.com/vladislavdragonenkov/bookstore/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/bookstore/internal/metrics"
)

// LineInput — одна запрошенная позиция при создании заказа.
type LineInput struct {
	BookID string
	Qty    int32
}

// CreateOrderInput — параметры создания заказа.
type CreateOrderInput struct {
	CustomerID      string
	Lines           []LineInput
	ShippingAddress *domain.Address
	Notes           string
}

// Service — билдер заказов: валидация, резервирование стока через ledger,
// снапшот цен и атомарная запись заказа. Падение на любой позиции включает
// компенсацию: все уже состоявшиеся резервы возвращаются на склад,
// наружу не видно ни списанного стока без заказа, ни полузаказа.
type Service struct {
	orders    domain.OrderRepository
	books     domain.BookRepository
	customers domain.CustomerRepository
	ledger    domain.InventoryLedger
	outbox    domain.OutboxRepository
	timeline  domain.TimelineRepository
	logger    *log.Entry
	metrics   *metrics.OrderMetrics
}

// NewService создаёт рабочий экземпляр билдера заказов.
func NewService(
	orders domain.OrderRepository,
	books domain.BookRepository,
	customers domain.CustomerRepository,
	ledger domain.InventoryLedger,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) *Service {
	svc := newService(orders, books, customers, ledger, outbox, timeline, logger)
	svc.metrics = metrics.NewOrderMetrics()
	return svc
}

// NewServiceWithoutMetrics создаёт билдер без метрик (для тестов).
func NewServiceWithoutMetrics(
	orders domain.OrderRepository,
	books domain.BookRepository,
	customers domain.CustomerRepository,
	ledger domain.InventoryLedger,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) *Service {
	return newService(orders, books, customers, ledger, outbox, timeline, logger)
}

func newService(
	orders domain.OrderRepository,
	books domain.BookRepository,
	customers domain.CustomerRepository,
	ledger domain.InventoryLedger,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.WithField("component", "orders")
	}
	return &Service{
		orders:    orders,
		books:     books,
		customers: customers,
		ledger:    ledger,
		outbox:    outbox,
		timeline:  timeline,
		logger:    logger,
	}
}

// CreateOrder выполняет полный цикл оформления заказа. Последовательность
// резервов детерминирована: позиции обрабатываются в порядке запроса,
// компенсация идёт в обратном порядке.
func (s *Service) CreateOrder(in CreateOrderInput) (domain.Order, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordCreateDuration(time.Since(start))
		}
	}()

	if err := validateInput(in); err != nil {
		s.recordFailure("validation")
		return domain.Order{}, err
	}

	customer, err := s.customers.Get(in.CustomerID)
	if err != nil {
		s.recordFailure("customer_not_found")
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	reservations := make([]*domain.Reservation, 0, len(in.Lines))
	lines := make([]domain.OrderLine, 0, len(in.Lines))

	for _, li := range in.Lines {
		book, err := s.books.Get(li.BookID)
		if err != nil {
			return domain.Order{}, s.abortCreate(reservations, "book_not_found", err)
		}

		res, err := s.ledger.Reserve(book.ID, li.Qty)
		if err != nil {
			reason := "reserve_failed"
			if domain.IsInsufficientStock(err) {
				reason = "insufficient_stock"
			}
			return domain.Order{}, s.abortCreate(reservations, reason, err)
		}
		reservations = append(reservations, res)

		// Снапшот цены делается в момент резерва и больше не перечитывается.
		lines = append(lines, domain.OrderLine{
			ID:         uuid.NewString(),
			BookID:     book.ID,
			Qty:        li.Qty,
			PriceMinor: book.PriceMinor,
			CreatedAt:  now,
		})
	}

	shipping := customer.Address
	if in.ShippingAddress != nil && !in.ShippingAddress.Empty() {
		shipping = *in.ShippingAddress
	}

	order := domain.Order{
		ID:              uuid.NewString(),
		CustomerID:      customer.ID,
		Status:          domain.OrderStatusPending,
		Lines:           lines,
		ShippingAddress: shipping,
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	// Сумма считается явно перед сохранением, без хуков персистентности.
	order.AmountMinor = order.ComputeTotal()

	if err := s.orders.Create(order); err != nil {
		return domain.Order{}, s.abortCreate(reservations, "persist_failed",
			fmt.Errorf("persist order: %w", err))
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}
	s.appendTimeline(order.ID, domain.TimelineEventOrderCreated, "", now)
	s.emitEvent(&order, kafka.EventTypeOrderCreated, map[string]interface{}{
		"customer_id":  order.CustomerID,
		"amount_minor": order.AmountMinor,
		"lines_count":  len(order.Lines),
	})

	s.logger.WithFields(log.Fields{
		"order_id":     order.ID,
		"customer_id":  order.CustomerID,
		"amount_minor": order.AmountMinor,
	}).Info("order created")

	return order, nil
}

// Get возвращает заказ по идентификатору.
func (s *Service) Get(id string) (domain.Order, error) {
	return s.orders.Get(id)
}

// List возвращает страницу заказов и общее число под фильтром.
func (s *Service) List(filter domain.OrderFilter, page domain.Page) ([]domain.Order, int, error) {
	return s.orders.List(filter, page)
}

// Timeline возвращает события аудита заказа; ErrOrderNotFound, если заказа нет.
func (s *Service) Timeline(id string) ([]domain.TimelineEvent, error) {
	if _, err := s.orders.Get(id); err != nil {
		return nil, err
	}
	return s.timeline.List(id)
}

// UpdateStatus переводит заказ в новый статус, если переход разрешён машиной
// состояний. Запись условная: при конкурентном изменении статус перечитывается
// и переход проверяется заново.
func (s *Service) UpdateStatus(id string, next domain.OrderStatus) (domain.Order, error) {
	if next == "" {
		return domain.Order{}, domain.ErrStatusRequired
	}

	const maxAttempts = 3
	for attempt := 0; attempt < maxAttempts; attempt++ {
		order, err := s.orders.Get(id)
		if err != nil {
			return domain.Order{}, err
		}

		if err := domain.CheckTransition(order.Status, next); err != nil {
			return domain.Order{}, err
		}

		if err := s.orders.UpdateStatus(id, order.Status, next); err != nil {
			if errors.Is(err, domain.ErrOrderStatusConflict) && attempt < maxAttempts-1 {
				s.logger.WithFields(log.Fields{
					"order_id": id,
					"attempt":  attempt + 1,
				}).Warn("status conflict detected, retrying")
				continue
			}
			return domain.Order{}, err
		}

		now := time.Now().UTC()
		order.Status = next
		order.UpdatedAt = now

		if s.metrics != nil {
			s.metrics.RecordStatusTransition(string(next))
		}

		if next == domain.OrderStatusCancelled {
			s.restockCancelled(&order)
			s.appendTimeline(order.ID, domain.TimelineEventOrderCancelled, "order cancelled", now)
			s.emitEvent(&order, kafka.EventTypeOrderCancelled, map[string]interface{}{
				"customer_id": order.CustomerID,
			})
		} else {
			s.appendTimeline(order.ID, domain.TimelineEventOrderStatusChanged, "", now)
			s.emitEvent(&order, kafka.EventTypeOrderStatusChanged, map[string]interface{}{
				"status": string(next),
			})
		}

		return order, nil
	}

	return domain.Order{}, domain.ErrOrderStatusConflict
}

func validateInput(in CreateOrderInput) error {
	if in.CustomerID == "" {
		return domain.ErrCustomerRequired
	}
	if len(in.Lines) == 0 {
		return domain.ErrLinesRequired
	}
	for _, li := range in.Lines {
		if li.BookID == "" {
			return domain.ErrLineBookRequired
		}
		if li.Qty < 1 {
			return domain.ErrLineQtyInvalid
		}
	}
	return nil
}

// abortCreate откатывает уже состоявшиеся резервы и возвращает причину сбоя.
// Если компенсация сама упала, сток рассинхронизирован: это фатальная
// инфраструктурная ошибка, она вытесняет исходную.
func (s *Service) abortCreate(reservations []*domain.Reservation, reason string, cause error) error {
	s.recordFailure(reason)

	if len(reservations) == 0 {
		return cause
	}
	if s.metrics != nil {
		s.metrics.RecordCompensation()
	}

	for i := len(reservations) - 1; i >= 0; i-- {
		if err := s.ledger.Release(reservations[i]); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"reservation_id": reservations[i].ID,
				"book_id":        reservations[i].BookID,
				"qty":            reservations[i].Qty,
			}).Error("compensation failed, stock is inconsistent")
			return fmt.Errorf("%w: %v (original failure: %v)", domain.ErrStockCompensation, err, cause)
		}
	}

	return cause
}

// restockCancelled возвращает позиции отменённого заказа на склад.
// Ошибка рестока не отменяет уже состоявшийся переход статуса: она логируется
// для оператора.
func (s *Service) restockCancelled(order *domain.Order) {
	for _, line := range order.Lines {
		if err := s.ledger.Restock(line.BookID, line.Qty); err != nil {
			s.logger.WithError(err).WithFields(log.Fields{
				"order_id": order.ID,
				"book_id":  line.BookID,
				"qty":      line.Qty,
			}).Error("restock on cancellation failed")
		}
	}
}

func (s *Service) recordFailure(reason string) {
	if s.metrics != nil {
		s.metrics.RecordOrderFailed(reason)
	}
}

func (s *Service) appendTimeline(orderID, eventType, reason string, occurred time.Time) {
	if s.timeline == nil {
		return
	}
	event := domain.TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Reason:   reason,
		Occurred: occurred,
	}
	if err := s.timeline.Append(event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": orderID,
			"event":    eventType,
		}).Warn("append timeline event failed")
	} else if s.metrics != nil {
		s.metrics.RecordTimelineEvent()
	}
}

func (s *Service) emitEvent(order *domain.Order, eventType kafka.EventType, payload map[string]interface{}) {
	if s.outbox == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	payload["order_id"] = order.ID
	payload["ts"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Error("marshal event failed")
		return
	}

	msg := domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     string(eventType),
		Payload:       data,
	}
	if _, err := s.outbox.Enqueue(msg); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"order_id": order.ID,
			"event":    eventType,
		}).Error("enqueue event failed")
	} else if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
}
