package user

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDatabase(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithInitScripts(filepath.Join("../../migrations", "account_db.sql")),
		postgres.WithDatabase("account_db"),
		postgres.WithUsername("account"),
		postgres.WithPassword("pwd"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connString)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgresRepository(t *testing.T) {
	pool := setupTestDatabase(t)
	repo := NewPostgresRepository(pool)
	ctx := context.Background()

	created, err := repo.CreateUser(ctx, CreateUserParams{
		Name:         "Ana",
		Email:        "ana@example.com",
		PasswordHash: "hash",
		Provider:     ProviderAPI,
		MfaKey:       &MfaKey{Secret: "SECRET", URL: "otpauth://totp/simple-account:ana"},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, created.Status)
	assert.Equal(t, "hash", created.PasswordHash)
	require.NotNil(t, created.MfaKey)
	assert.Equal(t, "SECRET", created.MfaKey.Secret)
	assert.Empty(t, created.UserPicture)

	t.Run("Duplicate", func(t *testing.T) {
		_, err := repo.CreateUser(ctx, CreateUserParams{Name: "Ana", Email: "ana@example.com", Provider: ProviderAPI})
		assert.ErrorIs(t, err, ErrDuplicateUser)
	})

	t.Run("OAuthUserWithoutPassword", func(t *testing.T) {
		u, err := repo.CreateUser(ctx, CreateUserParams{
			Name:               "Ana",
			Email:              "ana@example.com",
			Provider:           ProviderGoogle,
			Status:             StatusActive,
			ProviderIdentifier: "g-123",
			UserPicture:        "https://lh3.googleusercontent.com/a/pic",
		})
		require.NoError(t, err)
		assert.Empty(t, u.PasswordHash)
		assert.Nil(t, u.MfaKey)
		assert.Equal(t, "g-123", u.ProviderIdentifier)
	})

	t.Run("GetUser", func(t *testing.T) {
		got, err := repo.GetUser(ctx, Filter{Email: "ana@example.com", Provider: ProviderAPI})
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)

		_, err = repo.GetUser(ctx, Filter{Email: "ana@example.com", Status: StatusActive, Provider: ProviderAPI})
		assert.ErrorIs(t, err, ErrUserNotFound)

		_, err = repo.GetUser(ctx, Filter{UserID: uuid.New()})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("UpdateUser", func(t *testing.T) {
		status := StatusActive
		picture := "users/1/avatar.png"
		updated, err := repo.UpdateUser(ctx, created.ID, UpdateUserParams{Status: &status, UserPicture: &picture})
		require.NoError(t, err)
		assert.Equal(t, StatusActive, updated.Status)
		assert.Equal(t, picture, updated.UserPicture)
		assert.Equal(t, "hash", updated.PasswordHash)
		assert.NotNil(t, updated.UpdatedAt)

		enabled := true
		_, err = repo.UpdateUser(ctx, created.ID, UpdateUserParams{MfaEnabled: &enabled})
		assert.ErrorIs(t, err, ErrMfaMethodRequired)

		method := MfaMethodApp
		now := time.Now()
		updated, err = repo.UpdateUser(ctx, created.ID, UpdateUserParams{MfaEnabled: &enabled, MfaMethod: &method, MfaEnabledAt: &now})
		require.NoError(t, err)
		assert.True(t, updated.MfaEnabled)
		assert.Equal(t, MfaMethodApp, updated.MfaMethod)
		assert.NotNil(t, updated.MfaEnabledAt)

		cleared := ""
		updated, err = repo.UpdateUser(ctx, created.ID, UpdateUserParams{UserPicture: &cleared})
		require.NoError(t, err)
		assert.Empty(t, updated.UserPicture)
	})

	t.Run("SoftDelete", func(t *testing.T) {
		require.NoError(t, repo.DeleteUser(ctx, created.ID))
		_, err := repo.GetUser(ctx, Filter{UserID: created.ID})
		assert.ErrorIs(t, err, ErrUserNotFound)

		name := "Other"
		_, err = repo.UpdateUser(ctx, created.ID, UpdateUserParams{Name: &name})
		assert.ErrorIs(t, err, ErrUserNotFound)

		// the email is free again once the old row is soft-deleted
		_, err = repo.CreateUser(ctx, CreateUserParams{Name: "Ana", Email: "ana@example.com", Provider: ProviderAPI})
		assert.NoError(t, err)
	})
}
