package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

const bookKeyPattern = "bookstore:book:%s"

// BookCache — read-through кэш каталожных карточек поверх Redis.
// Nil-указатель безопасен: все методы превращаются в no-op, чтобы сервис
// работал без Redis в конфигурации.
type BookCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *log.Entry
}

// NewBookCache создаёт кэш с заданным TTL.
func NewBookCache(client *redis.Client, ttl time.Duration, logger *log.Entry) *BookCache {
	if logger == nil {
		logger = log.WithField("component", "book-cache")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &BookCache{client: client, ttl: ttl, logger: logger}
}

// Get возвращает книгу из кэша; false — промах или недоступный Redis.
func (c *BookCache) Get(ctx context.Context, id string) (domain.Book, bool) {
	if c == nil || c.client == nil {
		return domain.Book{}, false
	}

	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("book_id", id).Warn("cache read failed")
		}
		return domain.Book{}, false
	}

	var book domain.Book
	if err := json.Unmarshal(raw, &book); err != nil {
		c.logger.WithError(err).WithField("book_id", id).Warn("cache entry corrupted, dropping")
		c.Invalidate(ctx, id)
		return domain.Book{}, false
	}
	return book, true
}

// Set кладёт книгу в кэш. Ошибки записи не фатальны.
func (c *BookCache) Set(ctx context.Context, book domain.Book) {
	if c == nil || c.client == nil {
		return
	}

	raw, err := json.Marshal(book)
	if err != nil {
		c.logger.WithError(err).WithField("book_id", book.ID).Warn("cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, c.key(book.ID), raw, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("book_id", book.ID).Warn("cache write failed")
	}
}

// Invalidate выбрасывает запись из кэша (вызывается на любой записи каталога).
func (c *BookCache) Invalidate(ctx context.Context, id string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, c.key(id)).Err(); err != nil {
		c.logger.WithError(err).WithField("book_id", id).Warn("cache invalidation failed")
	}
}

func (c *BookCache) key(id string) string {
	return fmt.Sprintf(bookKeyPattern, id)
}
