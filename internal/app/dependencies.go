package app

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
	"github.com/vladislavdragonenkov/bookstore/internal/redisx"
	"github.com/vladislavdragonenkov/bookstore/internal/service/inventory"
	"github.com/vladislavdragonenkov/bookstore/internal/service/orders"
	"github.com/vladislavdragonenkov/bookstore/internal/storage/memory"
	"github.com/vladislavdragonenkov/bookstore/internal/storage/postgres"
)

// Dependencies — собранный граф зависимостей сервиса.
type Dependencies struct {
	Books       domain.BookRepository
	Customers   domain.CustomerRepository
	Orders      domain.OrderRepository
	Users       domain.UserRepository
	Outbox      domain.OutboxRepository
	Timeline    domain.TimelineRepository
	Idempotency domain.IdempotencyRepository

	Ledger       *inventory.Ledger
	OrderService *orders.Service

	Store     *postgres.Store
	Redis     *redis.Client
	BookCache *redisx.BookCache

	Logger *log.Entry
}

// NewDependencies собирает зависимости по конфигурации: постгрес при заданном
// DSN (с прогоном миграций), иначе in-memory хранилище; Redis-кэш каталога —
// опционально.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	if cfg.PostgresDSN != "" {
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		deps.Store = store
		deps.Books = postgres.NewBookRepository(store)
		deps.Customers = postgres.NewCustomerRepository(store)
		deps.Orders = postgres.NewOrderRepository(store)
		deps.Users = postgres.NewUserRepository(store)
		deps.Outbox = postgres.NewOutboxRepository(store)
		deps.Timeline = postgres.NewTimelineRepository(store)
		deps.Idempotency = postgres.NewIdempotencyRepository(store)
		logger.Info("using postgres storage")
	} else {
		deps.Books = memory.NewBookRepository()
		deps.Customers = memory.NewCustomerRepository()
		deps.Orders = memory.NewOrderRepository()
		deps.Users = memory.NewUserRepository()
		deps.Outbox = memory.NewOutboxRepository()
		deps.Timeline = memory.NewTimelineRepository()
		deps.Idempotency = memory.NewIdempotencyRepository()
		logger.Info("using in-memory storage")
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.WithError(err).Warn("redis unreachable, continuing without book cache")
			_ = client.Close()
		} else {
			deps.Redis = client
			deps.BookCache = redisx.NewBookCache(client, cfg.BookCacheTTL, logger.WithField("component", "book-cache"))
			logger.WithField("addr", cfg.RedisAddr).Info("redis book cache enabled")
		}
	}

	deps.Ledger = inventory.NewLedger(deps.Books, logger.WithField("component", "inventory-ledger"))
	deps.OrderService = orders.NewService(
		deps.Orders,
		deps.Books,
		deps.Customers,
		deps.Ledger,
		deps.Outbox,
		deps.Timeline,
		logger.WithField("component", "orders"),
	)

	return deps, nil
}

// Close освобождает внешние подключения.
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close redis client")
		}
	}
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			d.Logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}
