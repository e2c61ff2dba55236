// Package passcode keeps the one live emailed passcode of each user.
package passcode

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-account/pkg/cache"
)

// Namespace is the cache key prefix for passcodes.
const Namespace = "user-login-passcode"

// Store holds passcodes in a cache, keyed by user ID under Namespace.
type Store struct {
	cache cache.Cache
}

// NewStore returns a Store that prefixes every key of c with Namespace.
func NewStore(c cache.Cache) *Store {
	return &Store{cache: cache.Prefixed(c, Namespace)}
}

// Get returns the live passcode, if any.
func (s *Store) Get(ctx context.Context, userID uuid.UUID) (string, bool, error) {
	code, ok, err := s.cache.Get(ctx, userID.String())
	if err != nil {
		return "", false, fmt.Errorf("failed to get passcode for user %s: %w", userID, err)
	}
	return code, ok, nil
}

// Set replaces any existing passcode: the old entry is deleted before the new one is written.
func (s *Store) Set(ctx context.Context, userID uuid.UUID, code string, ttl time.Duration) error {
	if err := s.Delete(ctx, userID); err != nil {
		return err
	}
	if err := s.cache.Set(ctx, userID.String(), code, ttl); err != nil {
		return fmt.Errorf("failed to set passcode for user %s: %w", userID, err)
	}
	return nil
}

// Delete removes the passcode of userID. Deleting a missing passcode is not an error.
func (s *Store) Delete(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.cache.Delete(ctx, userID.String()); err != nil {
		return fmt.Errorf("failed to delete passcode for user %s: %w", userID, err)
	}
	return nil
}
