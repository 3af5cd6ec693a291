package memstorage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carboni123/nanobanana/internal/domain/user"
	"github.com/carboni123/nanobanana/internal/ierr"
)

// UserRepository is an in-memory user.Repository used by tests.
type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*user.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users: make(map[uuid.UUID]*user.User),
	}
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) Create(_ context.Context, u *user.User) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil, ierr.ErrEmailTaken
		}
	}

	now := time.Now().UTC()
	created := *u
	created.ID = uuid.New()
	created.CreatedAt = now
	created.UpdatedAt = now
	r.users[created.ID] = &created

	out := created
	return &out, nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			out := *u
			return &out, nil
		}
	}
	return nil, ierr.ErrUserNotFound
}

func (r *UserRepository) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ierr.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return ierr.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	return nil
}
