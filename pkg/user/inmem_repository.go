package user

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository implements Repository using in-memory storage
type InMemoryRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]User
	now   func() time.Time
}

// NewInMemoryRepository creates a new in-memory user repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users: make(map[uuid.UUID]User),
		now:   time.Now,
	}
}

func (r *InMemoryRepository) GetUser(ctx context.Context, filter Filter) (User, error) {
	if filter.empty() {
		return User{}, ErrEmptyFilter
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if filter.matches(u) {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (r *InMemoryRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.DeletedAt == nil && u.Email == params.Email && u.Provider == params.Provider {
			return User{}, ErrDuplicateUser
		}
	}

	status := params.Status
	if status == "" {
		status = StatusPending
	}
	u := User{
		ID:                 uuid.New(),
		Name:               params.Name,
		Email:              params.Email,
		PasswordHash:       params.PasswordHash,
		Status:             status,
		Provider:           params.Provider,
		ProviderIdentifier: params.ProviderIdentifier,
		MfaKey:             params.MfaKey,
		UserPicture:        params.UserPicture,
		CreatedAt:          r.now().UTC(),
	}
	r.users[u.ID] = u
	return u, nil
}

func (r *InMemoryRepository) UpdateUser(ctx context.Context, id uuid.UUID, params UpdateUserParams) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return User{}, ErrUserNotFound
	}

	if params.Name != nil {
		u.Name = *params.Name
	}
	if params.PasswordHash != nil {
		u.PasswordHash = *params.PasswordHash
	}
	if params.Status != nil {
		u.Status = *params.Status
	}
	if params.MfaEnabled != nil {
		u.MfaEnabled = *params.MfaEnabled
	}
	if params.MfaMethod != nil {
		u.MfaMethod = *params.MfaMethod
	}
	if params.MfaEnabledAt != nil {
		at := *params.MfaEnabledAt
		u.MfaEnabledAt = &at
	}
	if params.UserPicture != nil {
		u.UserPicture = *params.UserPicture
	}
	if u.MfaEnabled && !u.MfaMethod.Valid() {
		return User{}, ErrMfaMethodRequired
	}
	now := r.now().UTC()
	u.UpdatedAt = &now

	r.users[id] = u
	return u, nil
}

// DeleteUser soft-deletes a user.
func (r *InMemoryRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return ErrUserNotFound
	}
	now := r.now().UTC()
	u.DeletedAt = &now
	r.users[id] = u
	return nil
}
