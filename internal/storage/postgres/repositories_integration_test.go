package postgres

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

func seedIntegrationBook(t *testing.T, repo domain.BookRepository, stock int32) domain.Book {
	t.Helper()

	now := time.Now().UTC()
	book := domain.Book{
		ID:            uuid.NewString(),
		Title:         "Интеграционная книга",
		Author:        "Автор",
		ISBN:          uuid.NewString(),
		Genre:         "fiction",
		PriceMinor:    2000,
		StockQuantity: stock,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, repo.Create(book))
	return book
}

func seedIntegrationCustomer(t *testing.T, repo domain.CustomerRepository) domain.Customer {
	t.Helper()

	now := time.Now().UTC()
	customer := domain.Customer{
		ID:        uuid.NewString(),
		Name:      "Интеграционный клиент",
		Email:     uuid.NewString() + "@example.com",
		Phone:     "+7-900-000-00-00",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(customer))
	return customer
}

func TestBookRepositoryIntegration_ConditionalDecrement(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewBookRepository(store)

	book := seedIntegrationBook(t, repo, 5)

	ok, err := repo.DecrementStock(book.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	// Второе списание на 3 не проходит и не трогает остаток.
	ok, err = repo.DecrementStock(book.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.Get(book.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), got.StockQuantity)

	require.NoError(t, repo.IncrementStock(book.ID, 3))
	got, err = repo.Get(book.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(5), got.StockQuantity)
}

func TestBookRepositoryIntegration_ConcurrentDecrement(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewBookRepository(store)

	book := seedIntegrationBook(t, repo, 5)

	const workers = 4
	results := make([]bool, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = repo.DecrementStock(book.ID, 3)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	succeeded := 0
	for _, ok := range results {
		if ok {
			succeeded++
		}
	}
	assert.Equal(t, 1, succeeded)

	got, err := repo.Get(book.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), got.StockQuantity)
}

func TestBookRepositoryIntegration_UniqueISBN(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewBookRepository(store)

	book := seedIntegrationBook(t, repo, 1)

	dup := book
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, repo.Create(dup), domain.ErrBookISBNTaken)
}

func TestOrderRepositoryIntegration_CreateAndStatus(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	books := NewBookRepository(store)
	customers := NewCustomerRepository(store)
	orders := NewOrderRepository(store)

	book := seedIntegrationBook(t, books, 10)
	customer := seedIntegrationCustomer(t, customers)

	now := time.Now().UTC()
	order := domain.Order{
		ID:         uuid.NewString(),
		CustomerID: customer.ID,
		Status:     domain.OrderStatusPending,
		Lines: []domain.OrderLine{{
			ID:         uuid.NewString(),
			BookID:     book.ID,
			Qty:        3,
			PriceMinor: 2000,
			CreatedAt:  now,
		}},
		ShippingAddress: domain.Address{Street: "ул. Тестовая, 1", City: "Москва", Country: "RU"},
		Notes:           "позвонить перед доставкой",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	order.AmountMinor = order.ComputeTotal()
	require.NoError(t, orders.Create(order))

	got, err := orders.Get(order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), got.AmountMinor)
	require.Len(t, got.Lines, 1)
	assert.Equal(t, int32(3), got.Lines[0].Qty)
	assert.Equal(t, "Москва", got.ShippingAddress.City)

	// Условный переход статуса: повтор со старым from получает конфликт.
	require.NoError(t, orders.UpdateStatus(order.ID, domain.OrderStatusPending, domain.OrderStatusProcessing))
	err = orders.UpdateStatus(order.ID, domain.OrderStatusPending, domain.OrderStatusProcessing)
	assert.ErrorIs(t, err, domain.ErrOrderStatusConflict)

	err = orders.UpdateStatus(uuid.NewString(), domain.OrderStatusPending, domain.OrderStatusProcessing)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	list, total, err := orders.List(domain.OrderFilter{CustomerID: customer.ID}, domain.Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, domain.OrderStatusProcessing, list[0].Status)
}

func TestOrderRepositoryIntegration_LineOrderPreserved(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	books := NewBookRepository(store)
	customers := NewCustomerRepository(store)
	orders := NewOrderRepository(store)

	customer := seedIntegrationCustomer(t, customers)

	// Все позиции создаются с одним и тем же временем: порядок обязан
	// пережить round-trip независимо от created_at и случайных UUID.
	now := time.Now().UTC()
	lines := make([]domain.OrderLine, 0, 5)
	wantBookIDs := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		book := seedIntegrationBook(t, books, 10)
		lines = append(lines, domain.OrderLine{
			ID:         uuid.NewString(),
			BookID:     book.ID,
			Qty:        int32(i + 1),
			PriceMinor: 2000,
			CreatedAt:  now,
		})
		wantBookIDs = append(wantBookIDs, book.ID)
	}

	order := domain.Order{
		ID:         uuid.NewString(),
		CustomerID: customer.ID,
		Status:     domain.OrderStatusPending,
		Lines:      lines,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	order.AmountMinor = order.ComputeTotal()
	require.NoError(t, orders.Create(order))

	got, err := orders.Get(order.ID)
	require.NoError(t, err)
	require.Len(t, got.Lines, len(lines))
	for i, line := range got.Lines {
		assert.Equal(t, wantBookIDs[i], line.BookID, "line %d", i)
		assert.Equal(t, int32(i+1), line.Qty, "line %d", i)
	}
}

func TestOutboxRepositoryIntegration_Lifecycle(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewOutboxRepository(store)

	msg, err := repo.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   uuid.NewString(),
		EventType:     "order.created",
		Payload:       []byte(`{"ok":true}`),
	})
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)

	pending, err := repo.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	stats, err := repo.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.PendingCount)
	assert.False(t, stats.OldestPendingAt.IsZero())

	require.NoError(t, repo.MarkSent(msg.ID))

	pending, err = repo.PullPending(10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestIdempotencyRepositoryIntegration_Flow(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewIdempotencyRepository(store)

	key := uuid.NewString()
	record, err := repo.CreateProcessing(key, "hash-1", time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.IdempotencyStatusProcessing, record.Status)

	_, err = repo.CreateProcessing(key, "hash-1", time.Now().UTC().Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrIdempotencyKeyAlreadyExists)

	_, err = repo.CreateProcessing(key, "hash-2", time.Now().UTC().Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrIdempotencyHashMismatch)

	require.NoError(t, repo.MarkDone(key, []byte(`{"order":"x"}`), 201))

	got, err := repo.Get(key)
	require.NoError(t, err)
	assert.Equal(t, domain.IdempotencyStatusDone, got.Status)
	assert.Equal(t, 201, got.HTTPStatus)
	assert.JSONEq(t, `{"order":"x"}`, string(got.ResponseBody))

	// Просроченные записи вычищаются батчем.
	expiredKey := uuid.NewString()
	_, err = repo.CreateProcessing(expiredKey, "hash-3", time.Now().UTC().Add(-time.Minute))
	require.NoError(t, err)

	deleted, err := repo.DeleteExpired(time.Now().UTC(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	_, err = repo.Get(expiredKey)
	assert.ErrorIs(t, err, domain.ErrIdempotencyKeyNotFound)
}

func TestUserRepositoryIntegration_CreateAndLookup(t *testing.T) {
	store := openStoreForIntegrationTest(t)
	repo := NewUserRepository(store)

	now := time.Now().UTC()
	user := domain.User{
		ID:           uuid.NewString(),
		Name:         "Интеграционный админ",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "$2a$10$fake-hash-for-integration",
		Role:         domain.UserRoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(user))

	// Email уникален без учёта регистра.
	dup := user
	dup.ID = uuid.NewString()
	dup.Email = strings.ToUpper(user.Email)
	assert.ErrorIs(t, repo.Create(dup), domain.ErrUserEmailTaken)

	got, err := repo.Get(user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserRoleAdmin, got.Role)
	assert.Equal(t, user.PasswordHash, got.PasswordHash)

	byEmail, err := repo.GetByEmail(strings.ToUpper(user.Email))
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.GetByEmail("nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	users, total, err := repo.List(domain.Page{Page: 1, Limit: 100})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, 1)
	assert.NotEmpty(t, users)
}

func TestMigratorIntegration_UpDownStatus(t *testing.T) {
	store := openStoreForIntegrationTest(t)

	version, count, err := store.MigrationStatus(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(5), version)
	assert.Equal(t, 5, count)

	require.NoError(t, store.MigrateDown(t.Context(), 1))
	version, count, err = store.MigrationStatus(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(4), version)
	assert.Equal(t, 4, count)

	require.NoError(t, store.MigrateUp(t.Context(), 0))
	version, _, err = store.MigrationStatus(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(5), version)
}
