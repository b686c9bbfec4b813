package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

// userRepositoryInMemory — in-memory хранилище учётных записей.
type userRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.User
}

// NewUserRepository возвращает in-memory реализацию UserRepository.
func NewUserRepository() domain.UserRepository {
	return &userRepositoryInMemory{
		items: make(map[string]domain.User),
	}
}

// Create сохраняет учётную запись, проверяя уникальность email.
func (r *userRepositoryInMemory) Create(user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.ErrUserEmailTaken
		}
	}
	r.items[user.ID] = user
	return nil
}

// Get возвращает учётную запись или ErrUserNotFound.
func (r *userRepositoryInMemory) Get(id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.items[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// GetByEmail ищет учётную запись по email без учёта регистра.
func (r *userRepositoryInMemory) GetByEmail(email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.items {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

// List возвращает страницу учётных записей, новые первыми.
func (r *userRepositoryInMemory) List(page domain.Page) ([]domain.User, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	page = page.Normalize()

	users := make([]domain.User, 0, len(r.items))
	for _, user := range r.items {
		users = append(users, user)
	}

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID > users[j].ID
	})

	total := len(users)
	return pageSlice(users, page), total, nil
}

var _ domain.UserRepository = (*userRepositoryInMemory)(nil)
