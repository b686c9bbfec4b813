package inventory_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
	"github.com/vladislavdragonenkov/bookstore/internal/service/inventory"
	"github.com/vladislavdragonenkov/bookstore/internal/storage/memory"
)

func seedBook(t *testing.T, repo domain.BookRepository, stock int32) domain.Book {
	t.Helper()

	now := time.Now().UTC()
	book := domain.Book{
		ID:            "book-1",
		Title:         "The Go Programming Language",
		Author:        "Donovan, Kernighan",
		ISBN:          "978-0134190440",
		Genre:         "programming",
		PriceMinor:    2000,
		StockQuantity: stock,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, repo.Create(book))
	return book
}

func TestLedgerReserve_Ok(t *testing.T) {
	repo := memory.NewBookRepository()
	book := seedBook(t, repo, 5)
	ledger := inventory.NewLedger(repo, nil)

	res, err := ledger.Reserve(book.ID, 3)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, book.ID, res.BookID)
	assert.Equal(t, int32(3), res.Qty)
	assert.Equal(t, domain.ReservationStatusReserved, res.Status)

	stored, err := repo.Get(book.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), stored.StockQuantity)
}

func TestLedgerReserve_InsufficientStock(t *testing.T) {
	repo := memory.NewBookRepository()
	book := seedBook(t, repo, 2)
	ledger := inventory.NewLedger(repo, nil)

	res, err := ledger.Reserve(book.ID, 3)
	require.Nil(t, res)

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int32(2), insufficient.Available)
	assert.Equal(t, int32(3), insufficient.Requested)
	assert.Equal(t, book.Title, insufficient.Title)

	// Неудавшийся резерв не трогает остаток.
	stored, err := repo.Get(book.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), stored.StockQuantity)
}

func TestLedgerReserve_BookNotFound(t *testing.T) {
	ledger := inventory.NewLedger(memory.NewBookRepository(), nil)

	_, err := ledger.Reserve("missing", 1)
	assert.True(t, errors.Is(err, domain.ErrBookNotFound))
}

func TestLedgerReserve_QtyInvalid(t *testing.T) {
	repo := memory.NewBookRepository()
	book := seedBook(t, repo, 5)
	ledger := inventory.NewLedger(repo, nil)

	_, err := ledger.Reserve(book.ID, 0)
	assert.True(t, errors.Is(err, domain.ErrLineQtyInvalid))
}

func TestLedgerRelease_Idempotent(t *testing.T) {
	repo := memory.NewBookRepository()
	book := seedBook(t, repo, 5)
	ledger := inventory.NewLedger(repo, nil)

	res, err := ledger.Reserve(book.ID, 4)
	require.NoError(t, err)

	require.NoError(t, ledger.Release(res))
	// Повторное освобождение того же токена ничего не меняет.
	require.NoError(t, ledger.Release(res))
	require.NoError(t, ledger.Release(res))

	stored, err := repo.Get(book.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(5), stored.StockQuantity)
	assert.True(t, res.Released())
}

// Конкурентные резервы 2Q > S: ровно один успех, сток не уходит в минус.
func TestLedgerReserve_ConcurrentContention(t *testing.T) {
	repo := memory.NewBookRepository()
	book := seedBook(t, repo, 5)
	ledger := inventory.NewLedger(repo, nil)

	const workers = 2
	const qty = 3

	var wg sync.WaitGroup
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = ledger.Reserve(book.ID, qty)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	insufficient := 0
	for _, err := range results {
		switch {
		case err == nil:
			succeeded++
		case domain.IsInsufficientStock(err):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, insufficient)

	stored, err := repo.Get(book.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(5-qty), stored.StockQuantity)
}

func TestLedgerRestock(t *testing.T) {
	repo := memory.NewBookRepository()
	book := seedBook(t, repo, 1)
	ledger := inventory.NewLedger(repo, nil)

	require.NoError(t, ledger.Restock(book.ID, 4))

	stored, err := repo.Get(book.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(5), stored.StockQuantity)
}
