// Package user holds the account record and its repositories.
package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUser     = errors.New("user with this email and provider already exists")
	ErrEmptyFilter       = errors.New("user filter must set at least one field")
	ErrMfaMethodRequired = errors.New("mfa method is required when mfa is enabled")
)

type Status string

const (
	StatusPending     Status = "PENDING"
	StatusActive      Status = "ACTIVE"
	StatusDeactivated Status = "DEACTIVATED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusDeactivated:
		return true
	}
	return false
}

type Provider string

const (
	ProviderAPI      Provider = "API"
	ProviderGoogle   Provider = "GOOGLE"
	ProviderFacebook Provider = "FACEBOOK"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderAPI, ProviderGoogle, ProviderFacebook:
		return true
	}
	return false
}

// MfaMethod is the second factor a user enrolled; empty means none.
type MfaMethod string

const (
	MfaMethodNone  MfaMethod = ""
	MfaMethodEmail MfaMethod = "EMAIL"
	MfaMethodApp   MfaMethod = "APP"
)

func (m MfaMethod) Valid() bool {
	return m == MfaMethodEmail || m == MfaMethodApp
}

// MfaKey is the TOTP enrollment of a user.
type MfaKey struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

type User struct {
	ID                 uuid.UUID
	Name               string
	Email              string
	PasswordHash       string
	Status             Status
	Provider           Provider
	ProviderIdentifier string
	MfaEnabled         bool
	MfaMethod          MfaMethod
	MfaKey             *MfaKey
	MfaEnabledAt       *time.Time
	UserPicture        string
	CreatedAt          time.Time
	UpdatedAt          *time.Time
	DeletedAt          *time.Time
}

// CanChangePassword reports whether the user manages a local password.
func (u User) CanChangePassword() bool {
	return u.Provider == ProviderAPI
}

// Filter selects a single user. Zero fields are ignored; soft-deleted users never match.
type Filter struct {
	UserID   uuid.UUID
	Email    string
	Status   Status
	Provider Provider
}

func (f Filter) empty() bool {
	return f.UserID == uuid.Nil && f.Email == "" && f.Status == "" && f.Provider == ""
}

func (f Filter) matches(u User) bool {
	if u.DeletedAt != nil {
		return false
	}
	if f.UserID != uuid.Nil && u.ID != f.UserID {
		return false
	}
	if f.Email != "" && u.Email != f.Email {
		return false
	}
	if f.Status != "" && u.Status != f.Status {
		return false
	}
	if f.Provider != "" && u.Provider != f.Provider {
		return false
	}
	return true
}

type CreateUserParams struct {
	Name               string
	Email              string
	PasswordHash       string
	Status             Status
	Provider           Provider
	ProviderIdentifier string
	MfaKey             *MfaKey
	UserPicture        string
}

// UpdateUserParams is a partial update: nil fields are left untouched.
// A non-nil empty UserPicture clears the picture.
type UpdateUserParams struct {
	Name         *string
	PasswordHash *string
	Status       *Status
	MfaEnabled   *bool
	MfaMethod    *MfaMethod
	MfaEnabledAt *time.Time
	UserPicture  *string
}

// Repository persists users.
type Repository interface {
	GetUser(ctx context.Context, filter Filter) (User, error)
	CreateUser(ctx context.Context, params CreateUserParams) (User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, params UpdateUserParams) (User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var titleCaser = cases.Title(language.Und)

// CapitalizeName upper-cases the first letter of every word.
func CapitalizeName(name string) string {
	return titleCaser.String(strings.Join(strings.Fields(name), " "))
}
