package memory

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
)

func seedUser(t *testing.T, repo domain.UserRepository, id string, role domain.UserRole, createdAt time.Time) domain.User {
	t.Helper()

	user := domain.User{
		ID:           id,
		Name:         "Сотрудник " + id,
		Email:        fmt.Sprintf("%s@example.com", id),
		PasswordHash: "hash-" + id,
		Role:         role,
		CreatedAt:    createdAt,
	}
	require.NoError(t, repo.Create(user))
	return user
}

func TestUserRepository_EmailUniqueness(t *testing.T) {
	repo := NewUserRepository()
	seedUser(t, repo, "u1", domain.UserRoleAdmin, time.Now().UTC())

	err := repo.Create(domain.User{
		ID:    "u2",
		Email: "U1@EXAMPLE.COM",
	})
	assert.ErrorIs(t, err, domain.ErrUserEmailTaken)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	repo := NewUserRepository()
	user := seedUser(t, repo, "u1", domain.UserRoleUser, time.Now().UTC())

	got, err := repo.GetByEmail("U1@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.PasswordHash, got.PasswordHash)

	_, err = repo.GetByEmail("nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = repo.Get("missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserRepository_ListNewestFirst(t *testing.T) {
	repo := NewUserRepository()
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		seedUser(t, repo, fmt.Sprintf("u%d", i), domain.UserRoleUser, base.Add(time.Duration(i)*time.Minute))
	}

	users, total, err := repo.List(domain.Page{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, users, 2)
	assert.Equal(t, "u4", users[0].ID)
	assert.Equal(t, "u3", users[1].ID)

	users, _, err = repo.List(domain.Page{Page: 3, Limit: 2})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "u0", users[0].ID)
}
