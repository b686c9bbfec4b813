package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

func seedOrder(t *testing.T, repo domain.OrderRepository, id, customerID string, status domain.OrderStatus, createdAt time.Time) domain.Order {
	t.Helper()

	order := domain.Order{
		ID:         id,
		CustomerID: customerID,
		Status:     status,
		Lines: []domain.OrderLine{
			{ID: id + "-l1", BookID: "book-1", Qty: 1, PriceMinor: 10000},
		},
		AmountMinor: 10000,
		CreatedAt:   createdAt,
	}
	require.NoError(t, repo.Create(order))
	return order
}

func TestOrderRepository_CreateAndGet(t *testing.T) {
	repo := NewOrderRepository()
	order := seedOrder(t, repo, "o1", "c1", domain.OrderStatusPending, time.Now().UTC())

	got, err := repo.Get("o1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.Len(t, got.Lines, 1)

	_, err = repo.Get("missing")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	// Повторный ID отклоняется.
	assert.Error(t, repo.Create(order))
}

func TestOrderRepository_GetReturnsCopy(t *testing.T) {
	repo := NewOrderRepository()
	seedOrder(t, repo, "o1", "c1", domain.OrderStatusPending, time.Now().UTC())

	got, err := repo.Get("o1")
	require.NoError(t, err)
	got.Lines[0].PriceMinor = 999

	fresh, err := repo.Get("o1")
	require.NoError(t, err)
	assert.Equal(t, int64(10000), fresh.Lines[0].PriceMinor)
}

func TestOrderRepository_ConditionalUpdateStatus(t *testing.T) {
	repo := NewOrderRepository()
	seedOrder(t, repo, "o1", "c1", domain.OrderStatusPending, time.Now().UTC())

	require.NoError(t, repo.UpdateStatus("o1", domain.OrderStatusPending, domain.OrderStatusProcessing))

	// Ожидаемый статус устарел: конфликт, состояние не меняется.
	err := repo.UpdateStatus("o1", domain.OrderStatusPending, domain.OrderStatusCancelled)
	assert.ErrorIs(t, err, domain.ErrOrderStatusConflict)

	got, err := repo.Get("o1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, got.Status)

	err = repo.UpdateStatus("missing", domain.OrderStatusPending, domain.OrderStatusProcessing)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderRepository_ListFiltersAndPagination(t *testing.T) {
	repo := NewOrderRepository()
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		customer := "c1"
		status := domain.OrderStatusPending
		if i%2 == 1 {
			customer = "c2"
			status = domain.OrderStatusShipped
		}
		seedOrder(t, repo, fmt.Sprintf("o%d", i), customer, status, base.Add(time.Duration(i)*time.Second))
	}

	t.Run("by status", func(t *testing.T) {
		list, total, err := repo.List(domain.OrderFilter{Status: domain.OrderStatusShipped}, domain.Page{})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		assert.Len(t, list, 2)
	})

	t.Run("by customer", func(t *testing.T) {
		list, total, err := repo.List(domain.OrderFilter{CustomerID: "c1"}, domain.Page{})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		for _, order := range list {
			assert.Equal(t, "c1", order.CustomerID)
		}
	})

	t.Run("newest first with pagination", func(t *testing.T) {
		list, total, err := repo.List(domain.OrderFilter{}, domain.Page{Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, total)
		require.Len(t, list, 2)
		assert.Equal(t, "o4", list[0].ID)
		assert.Equal(t, "o3", list[1].ID)

		list, _, err = repo.List(domain.OrderFilter{}, domain.Page{Page: 3, Limit: 2})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "o0", list[0].ID)
	})
}
