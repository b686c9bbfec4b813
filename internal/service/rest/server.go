package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
	"github.com/vladislavdragonenkov/bookstore/internal/redisx"
	"github.com/vladislavdragonenkov/bookstore/internal/service/orders"
)

// Deps — зависимости HTTP-слоя. Auth и Users опциональны: без них API
// работает в открытом режиме, с ними все маршруты требуют токен.
type Deps struct {
	Orders      *orders.Service
	Books       domain.BookRepository
	Customers   domain.CustomerRepository
	Users       domain.UserRepository
	Auth        *Authenticator
	Idempotency domain.IdempotencyRepository
	BookCache   *redisx.BookCache
	Logger      *log.Entry
}

// NewRouter собирает chi-роутер со всеми обработчиками сервиса.
func NewRouter(deps Deps) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = log.WithField("component", "rest")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	oh := &OrdersHandler{
		orders:      deps.Orders,
		customers:   deps.Customers,
		books:       deps.Books,
		idempotency: deps.Idempotency,
		logger:      logger.WithField("handler", "orders"),
	}
	bh := &BooksHandler{
		books:  deps.Books,
		cache:  deps.BookCache,
		logger: logger.WithField("handler", "books"),
	}
	ch := &CustomersHandler{
		customers: deps.Customers,
		orders:    deps.Orders,
		logger:    logger.WithField("handler", "customers"),
	}

	authEnabled := deps.Auth != nil && deps.Users != nil
	var uh *UsersHandler
	if authEnabled {
		uh = &UsersHandler{
			users:  deps.Users,
			auth:   deps.Auth,
			logger: logger.WithField("handler", "users"),
		}
	}

	r.Route("/api", func(r chi.Router) {
		if authEnabled {
			r.Post("/login", uh.login)
		}

		r.Group(func(r chi.Router) {
			if authEnabled {
				r.Use(deps.Auth.Authenticate)
				uh.Register(r)
			}

			r.Group(func(r chi.Router) {
				if authEnabled {
					r.Use(deps.Auth.RequireRole(domain.UserRoleAdmin))
					uh.RegisterAdmin(r)
				}
				oh.Register(r)
				bh.Register(r)
				ch.Register(r)
			})
		})
	})

	return r
}
