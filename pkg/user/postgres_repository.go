package user

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `
	id, name, email, password, status, provider, provider_identifier,
	mfa_enabled, mfa_key, mfa_method, mfa_enabled_at, user_picture,
	created_at, updated_at, deleted_at`

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
)

// PostgresRepository implements Repository on the users table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL user repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
	}
}

func scanUser(row pgx.Row) (User, error) {
	var (
		u                  User
		password           *string
		providerIdentifier *string
		mfaKey             []byte
		mfaMethod          *string
		userPicture        *string
	)
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&password,
		&u.Status,
		&u.Provider,
		&providerIdentifier,
		&u.MfaEnabled,
		&mfaKey,
		&mfaMethod,
		&u.MfaEnabledAt,
		&userPicture,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.DeletedAt,
	)
	if err != nil {
		return User{}, err
	}
	if password != nil {
		u.PasswordHash = *password
	}
	if providerIdentifier != nil {
		u.ProviderIdentifier = *providerIdentifier
	}
	if mfaMethod != nil {
		u.MfaMethod = MfaMethod(*mfaMethod)
	}
	if userPicture != nil {
		u.UserPicture = *userPicture
	}
	if len(mfaKey) > 0 {
		var key MfaKey
		if err := json.Unmarshal(mfaKey, &key); err != nil {
			return User{}, fmt.Errorf("failed to decode mfa_key: %w", err)
		}
		u.MfaKey = &key
	}
	return u, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicateUser
		case pgCheckViolation:
			if pgErr.ConstraintName == "users_mfa_method_required" {
				return ErrMfaMethodRequired
			}
		}
	}
	return err
}

func (r *PostgresRepository) GetUser(ctx context.Context, filter Filter) (User, error) {
	if filter.empty() {
		return User{}, ErrEmptyFilter
	}

	conds := []string{"deleted_at IS NULL"}
	args := []any{}
	add := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.UserID != uuid.Nil {
		add("id", filter.UserID)
	}
	if filter.Email != "" {
		add("email", filter.Email)
	}
	if filter.Status != "" {
		add("status", string(filter.Status))
	}
	if filter.Provider != "" {
		add("provider", string(filter.Provider))
	}

	query := "SELECT " + userColumns + " FROM users WHERE " + strings.Join(conds, " AND ") + " LIMIT 1"
	u, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) CreateUser(ctx context.Context, params CreateUserParams) (User, error) {
	var mfaKey []byte
	if params.MfaKey != nil {
		var err error
		mfaKey, err = json.Marshal(params.MfaKey)
		if err != nil {
			return User{}, fmt.Errorf("failed to encode mfa_key: %w", err)
		}
	}
	status := params.Status
	if status == "" {
		status = StatusPending
	}

	query := `
		INSERT INTO users (
			name, email, password, status, provider, provider_identifier, mfa_key, user_picture
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		) RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query,
		params.Name,
		params.Email,
		nullable(params.PasswordHash),
		string(status),
		string(params.Provider),
		nullable(params.ProviderIdentifier),
		mfaKey,
		nullable(params.UserPicture),
	))
	if err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return User{}, mapped
		}
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) UpdateUser(ctx context.Context, id uuid.UUID, params UpdateUserParams) (User, error) {
	sets := []string{}
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if params.Name != nil {
		set("name", *params.Name)
	}
	if params.PasswordHash != nil {
		set("password", nullable(*params.PasswordHash))
	}
	if params.Status != nil {
		set("status", string(*params.Status))
	}
	if params.MfaEnabled != nil {
		set("mfa_enabled", *params.MfaEnabled)
	}
	if params.MfaMethod != nil {
		set("mfa_method", nullable(string(*params.MfaMethod)))
	}
	if params.MfaEnabledAt != nil {
		set("mfa_enabled_at", params.MfaEnabledAt.UTC())
	}
	if params.UserPicture != nil {
		set("user_picture", nullable(*params.UserPicture))
	}
	sets = append(sets, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d AND deleted_at IS NULL RETURNING %s",
		strings.Join(sets, ", "), len(args), userColumns)

	u, err := scanUser(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		if mapped := mapWriteError(err); mapped != err {
			return User{}, mapped
		}
		return User{}, fmt.Errorf("failed to update user %s: %w", id, err)
	}
	return u, nil
}

// DeleteUser soft-deletes a user.
func (r *PostgresRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete user %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
