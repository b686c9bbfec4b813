package rest

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
	"github.com/vladislavdragonenkov/bookstore/internal/service/inventory"
	"github.com/vladislavdragonenkov/bookstore/internal/service/orders"
	"github.com/vladislavdragonenkov/bookstore/internal/storage/memory"
)

// newAuthEnv собирает роутер с включённой аутентификацией и одним админом.
func newAuthEnv(t *testing.T) (*env, string) {
	t.Helper()

	books := memory.NewBookRepository()
	customers := memory.NewCustomerRepository()
	ordersRepo := memory.NewOrderRepository()
	users := memory.NewUserRepository()
	ledger := inventory.NewLedger(books, nil)

	svc := orders.NewServiceWithoutMetrics(
		ordersRepo, books, customers, ledger,
		memory.NewOutboxRepository(), memory.NewTimelineRepository(), nil,
	)

	auth := NewAuthenticator("test-secret", time.Hour)
	router := NewRouter(Deps{
		Orders:      svc,
		Books:       books,
		Customers:   customers,
		Users:       users,
		Auth:        auth,
		Idempotency: memory.NewIdempotencyRepository(),
	})

	e := &env{router: router, books: books, customers: customers}

	// Первый админ заводится напрямую через репозиторий: API требует токен.
	seedAdmin(t, users)

	rec, body := e.do(t, http.MethodPost, "/api/login", map[string]any{
		"email": "admin@example.com", "password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := body["token"].(string)
	require.NotEmpty(t, token)

	return e, token
}

func seedAdmin(t *testing.T, users domain.UserRepository) {
	t.Helper()

	hash := mustHashPassword(t, "correct-horse")
	now := time.Now().UTC()
	require.NoError(t, users.Create(domain.User{
		ID:           "admin-1",
		Name:         "Store Admin",
		Email:        "admin@example.com",
		PasswordHash: hash,
		Role:         domain.UserRoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}))
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()

	// MinCost, чтобы не тормозить юнит-тесты.
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestLoginEndpoint(t *testing.T) {
	e, _ := newAuthEnv(t)

	t.Run("wrong password", func(t *testing.T) {
		rec, _ := e.do(t, http.MethodPost, "/api/login", map[string]any{
			"email": "admin@example.com", "password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown email gets the same answer", func(t *testing.T) {
		rec, body := e.do(t, http.MethodPost, "/api/login", map[string]any{
			"email": "ghost@example.com", "password": "whatever",
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid credentials", body["message"])
	})
}

func TestAuthProtectsAPI(t *testing.T) {
	e, token := newAuthEnv(t)

	t.Run("no token", func(t *testing.T) {
		rec, _ := e.do(t, http.MethodGet, "/api/books", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec, _ := e.do(t, http.MethodGet, "/api/books", nil,
			"Authorization", "Bearer not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admin token passes", func(t *testing.T) {
		rec, _ := e.do(t, http.MethodGet, "/api/books", nil,
			"Authorization", "Bearer "+token)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("login stays public", func(t *testing.T) {
		rec, _ := e.do(t, http.MethodPost, "/api/login", map[string]any{
			"email": "admin@example.com", "password": "correct-horse",
		})
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestUsersEndpoints(t *testing.T) {
	e, adminToken := newAuthEnv(t)

	rec, body := e.do(t, http.MethodPost, "/api/users", map[string]any{
		"name": "Кассир", "email": "cashier@example.com", "password": "s3cret",
	}, "Authorization", "Bearer "+adminToken)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := body["user"].(map[string]any)
	userID := created["id"].(string)
	assert.Equal(t, "user", created["role"])
	assert.NotContains(t, rec.Body.String(), "password")

	t.Run("duplicate email", func(t *testing.T) {
		rec, _ := e.do(t, http.MethodPost, "/api/users", map[string]any{
			"name": "Клон", "email": "CASHIER@example.com", "password": "s3cret",
		}, "Authorization", "Bearer "+adminToken)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("validation", func(t *testing.T) {
		rec, _ := e.do(t, http.MethodPost, "/api/users", map[string]any{
			"email": "no-name@example.com",
		}, "Authorization", "Bearer "+adminToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown role", func(t *testing.T) {
		rec, _ := e.do(t, http.MethodPost, "/api/users", map[string]any{
			"name": "Кто-то", "email": "x@example.com", "password": "p", "role": "superuser",
		}, "Authorization", "Bearer "+adminToken)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list and get", func(t *testing.T) {
		rec, body := e.do(t, http.MethodGet, "/api/users", nil,
			"Authorization", "Bearer "+adminToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, body["users"].([]any), 2)

		rec, body = e.do(t, http.MethodGet, "/api/users/"+userID, nil,
			"Authorization", "Bearer "+adminToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "cashier@example.com", body["user"].(map[string]any)["email"])
	})

	t.Run("non-admin cannot touch catalog or users", func(t *testing.T) {
		rec, body := e.do(t, http.MethodPost, "/api/login", map[string]any{
			"email": "cashier@example.com", "password": "s3cret",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		cashierToken := body["token"].(string)

		rec, _ = e.do(t, http.MethodGet, "/api/books", nil,
			"Authorization", "Bearer "+cashierToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec, _ = e.do(t, http.MethodPost, "/api/users", map[string]any{
			"name": "Ещё один", "email": "one-more@example.com", "password": "p",
		}, "Authorization", "Bearer "+cashierToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		// Просмотр учётных записей доступен любой аутентифицированной роли.
		rec, _ = e.do(t, http.MethodGet, "/api/users", nil,
			"Authorization", "Bearer "+cashierToken)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestExpiredTokenRejected(t *testing.T) {
	e, _ := newAuthEnv(t)

	expired := NewAuthenticator("test-secret", -time.Minute)
	token, err := expired.IssueToken(domain.User{ID: "admin-1", Role: domain.UserRoleAdmin})
	require.NoError(t, err)

	rec, _ := e.do(t, http.MethodGet, "/api/books", nil,
		"Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
