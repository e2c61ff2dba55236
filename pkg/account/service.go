// Package account orchestrates the user lifecycle: registration, the login
// flows with their MFA gate and lockout, password recovery and profile edits.
package account

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-account/pkg/attempts"
	"github.com/tendant/simple-account/pkg/credential"
	"github.com/tendant/simple-account/pkg/errors"
	"github.com/tendant/simple-account/pkg/i18n"
	"github.com/tendant/simple-account/pkg/mfa"
	"github.com/tendant/simple-account/pkg/notification"
	"github.com/tendant/simple-account/pkg/session"
	"github.com/tendant/simple-account/pkg/storage"
	"github.com/tendant/simple-account/pkg/token"
	"github.com/tendant/simple-account/pkg/user"
)

// ActionTokenExpiry is the lifetime of confirm-account and reset-password tokens.
const ActionTokenExpiry = 24 * time.Hour

type Mailer interface {
	SendAccountConfirmation(ctx context.Context, to notification.Recipient, lang i18n.Lang, token string) error
	SendPasswordReset(ctx context.Context, to notification.Recipient, lang i18n.Lang, token string) error
}

// Deps are the collaborators of Service. Storage may be nil when avatar
// uploads are disabled.
type Deps struct {
	Users    user.Repository
	Verifier *credential.Verifier
	MFA      *mfa.Engine
	Ledger   *attempts.Ledger
	Tokens   *token.Service
	Sessions *session.Issuer
	Mailer   Mailer
	Keys     credential.KeyGenerator
	Storage  storage.ObjectStorage
}

type Service struct {
	Deps
	cdnURL string
	now    func() time.Time
}

type Option func(*Service)

// WithCdnURL sets the base URL stored avatar keys are mounted on.
func WithCdnURL(cdnURL string) Option {
	return func(s *Service) { s.cdnURL = cdnURL }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(deps Deps, opts ...Option) *Service {
	s := &Service{Deps: deps, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoginResult holds either a session or an MFA challenge.
type LoginResult struct {
	Session   *session.AuthPayload
	Challenge *mfa.Challenge
}

// MarshalJSON encodes whichever half is set.
func (r LoginResult) MarshalJSON() ([]byte, error) {
	if r.Challenge != nil {
		return json.Marshal(r.Challenge)
	}
	return json.Marshal(r.Session)
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

type ForgotPasswordResult struct {
	Email   string `json:"email"`
	Success bool   `json:"success"`
}

// Upload is a new avatar file.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ProfileUpdate carries the fields to change; nil fields are left alone.
// RemovePicture clears the avatar when no new Picture is given.
type ProfileUpdate struct {
	Name          *string
	MfaEnabled    *bool
	MfaMethod     *user.MfaMethod
	Picture       *Upload
	RemovePicture bool
}

func (s *Service) getUser(ctx context.Context, userID uuid.UUID) (user.User, error) {
	u, err := s.Users.GetUser(ctx, user.Filter{UserID: userID})
	if err != nil {
		if stderrors.Is(err, user.ErrUserNotFound) {
			return user.User{}, errors.UserNotFound()
		}
		return user.User{}, errors.InternalWrap(err, "failed to load user")
	}
	return u, nil
}

func (s *Service) issue(u user.User) (session.AuthPayload, error) {
	payload, err := s.Sessions.Issue(u)
	if err != nil {
		return session.AuthPayload{}, errors.InternalWrap(err, "failed to issue session")
	}
	return payload, nil
}

// Login checks a password. A user under an active block gets ExceededAttempts
// even with the right password, and the attempt still counts so the block
// escalates; an unknown email is not counted.
func (s *Service) Login(ctx context.Context, email, password string, lang i18n.Lang) (LoginResult, error) {
	u, verr := s.Verifier.VerifyPassword(ctx, email, password)
	if verr != nil && !stderrors.Is(verr, credential.ErrInvalidCredentials) {
		return LoginResult{}, errors.InternalWrap(verr, "failed to verify credentials")
	}
	if u.ID == uuid.Nil {
		return LoginResult{}, errors.InvalidCredentials()
	}

	rec, err := s.Ledger.GetAttempts(ctx, u.ID)
	if err != nil {
		return LoginResult{}, errors.InternalWrap(err, "failed to load attempts")
	}
	if rec.Blocked() || verr != nil {
		return LoginResult{}, s.Ledger.ClassifyFailure(ctx, u.ID, attempts.OperationLogin, rec.Increment())
	}

	return s.completeLogin(ctx, u, lang)
}

func (s *Service) LoginWithGoogle(ctx context.Context, code string, lang i18n.Lang) (LoginResult, error) {
	u, err := s.Verifier.VerifyGoogle(ctx, code)
	if err != nil {
		return LoginResult{}, err
	}
	return s.completeLogin(ctx, u, lang)
}

func (s *Service) LoginWithFacebook(ctx context.Context, facebookUserID, accessToken string, lang i18n.Lang) (LoginResult, error) {
	u, err := s.Verifier.VerifyFacebook(ctx, facebookUserID, accessToken)
	if err != nil {
		return LoginResult{}, err
	}
	return s.completeLogin(ctx, u, lang)
}

// completeLogin runs the MFA gate after a successful primary factor.
func (s *Service) completeLogin(ctx context.Context, u user.User, lang i18n.Lang) (LoginResult, error) {
	challenge, err := s.MFA.Begin(ctx, u, lang)
	if err != nil {
		return LoginResult{}, err
	}
	if challenge != nil {
		return LoginResult{Challenge: challenge}, nil
	}

	if err := s.Ledger.DeleteAttempts(ctx, u.ID); err != nil {
		return LoginResult{}, errors.InternalWrap(err, "failed to clear attempts")
	}
	payload, err := s.issue(u)
	if err != nil {
		return LoginResult{}, err
	}
	slog.Info("User logged in", "userId", u.ID, "provider", u.Provider)
	return LoginResult{Session: &payload}, nil
}

func (s *Service) ValidatePasscode(ctx context.Context, userID uuid.UUID, code string) (session.AuthPayload, error) {
	return s.MFA.Validate(ctx, userID, code)
}

// Register creates a PENDING API user and mails a confirmation link. Mail
// failures are logged and do not undo the registration.
func (s *Service) Register(ctx context.Context, in RegisterInput, lang i18n.Lang) (user.DTO, error) {
	email := user.NormalizeEmail(in.Email)

	_, err := s.Users.GetUser(ctx, user.Filter{Email: email, Provider: user.ProviderAPI})
	if err == nil {
		return user.DTO{}, errors.UserAlreadyExists(email)
	}
	if !stderrors.Is(err, user.ErrUserNotFound) {
		return user.DTO{}, errors.InternalWrap(err, "failed to check existing user")
	}

	var hash string
	if in.Password != "" {
		hash, err = credential.HashPassword(in.Password)
		if err != nil {
			return user.DTO{}, errors.InternalWrap(err, "failed to register user")
		}
	}
	key, err := s.Keys.GenerateKey(email)
	if err != nil {
		return user.DTO{}, errors.InternalWrap(err, "failed to generate mfa key")
	}

	u, err := s.Users.CreateUser(ctx, user.CreateUserParams{
		Name:         user.CapitalizeName(in.Name),
		Email:        email,
		PasswordHash: hash,
		Status:       user.StatusPending,
		Provider:     user.ProviderAPI,
		MfaKey:       &user.MfaKey{Secret: key.Secret, URL: key.URL},
	})
	if err != nil {
		if stderrors.Is(err, user.ErrDuplicateUser) {
			return user.DTO{}, errors.UserAlreadyExists(email)
		}
		return user.DTO{}, errors.InternalWrap(err, "failed to create user")
	}
	slog.Info("User registered", "userId", u.ID)

	if u.Email != "" {
		s.sendConfirmation(ctx, u, lang)
	}
	return user.ToDTO(u, s.cdnURL), nil
}

func (s *Service) sendConfirmation(ctx context.Context, u user.User, lang i18n.Lang) {
	tok, err := s.Tokens.Sign(token.Claims{
		UserID: u.ID.String(),
		Email:  u.Email,
		Type:   token.TypeConfirmAccount,
	}, ActionTokenExpiry)
	if err != nil {
		slog.Error("Failed to sign confirmation token", "userId", u.ID, "err", err)
		return
	}
	to := notification.Recipient{Email: u.Email, Name: u.Name}
	if err := s.Mailer.SendAccountConfirmation(ctx, to, lang, tok); err != nil {
		slog.Error("Failed to send confirmation email", "userId", u.ID, "err", err)
	}
}

// ConfirmAccount activates the user named by a CONFIRM_ACCOUNT token.
func (s *Service) ConfirmAccount(ctx context.Context, tok string) (session.AuthPayload, error) {
	claims, err := s.Tokens.VerifyType(tok, token.TypeConfirmAccount)
	if err != nil {
		return session.AuthPayload{}, err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return session.AuthPayload{}, errors.InvalidToken()
	}

	active := user.StatusActive
	u, err := s.Users.UpdateUser(ctx, userID, user.UpdateUserParams{Status: &active})
	if err != nil {
		if stderrors.Is(err, user.ErrUserNotFound) {
			return session.AuthPayload{}, errors.InvalidToken()
		}
		return session.AuthPayload{}, errors.InternalWrap(err, "failed to activate user")
	}
	slog.Info("Account confirmed", "userId", u.ID)
	return s.issue(u)
}

// ForgotPassword always reports success. A reset link is mailed only when an
// API user with that email exists.
func (s *Service) ForgotPassword(ctx context.Context, email string, lang i18n.Lang) ForgotPasswordResult {
	result := ForgotPasswordResult{Email: email, Success: true}

	u, err := s.Users.GetUser(ctx, user.Filter{Email: user.NormalizeEmail(email), Provider: user.ProviderAPI})
	if err != nil {
		if !stderrors.Is(err, user.ErrUserNotFound) {
			slog.Error("Failed to look up user for password reset", "err", err)
		}
		return result
	}

	tok, err := s.Tokens.Sign(token.Claims{
		UserID: u.ID.String(),
		Email:  u.Email,
		Type:   token.TypeForgotPassword,
	}, ActionTokenExpiry)
	if err != nil {
		slog.Error("Failed to sign reset token", "userId", u.ID, "err", err)
		return result
	}
	to := notification.Recipient{Email: u.Email, Name: u.Name}
	if err := s.Mailer.SendPasswordReset(ctx, to, lang, tok); err != nil {
		slog.Error("Failed to send password reset email", "userId", u.ID, "err", err)
	}
	return result
}

// ResetPassword sets a new password from a FORGOT_PASSWORD token and activates the user.
func (s *Service) ResetPassword(ctx context.Context, tok, newPassword string) (session.AuthPayload, error) {
	claims, err := s.Tokens.VerifyType(tok, token.TypeForgotPassword)
	if err != nil {
		return session.AuthPayload{}, err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return session.AuthPayload{}, errors.InvalidToken()
	}

	u, err := s.Users.GetUser(ctx, user.Filter{UserID: userID, Email: claims.Email, Provider: user.ProviderAPI})
	if err != nil {
		if stderrors.Is(err, user.ErrUserNotFound) {
			return session.AuthPayload{}, errors.InvalidToken()
		}
		return session.AuthPayload{}, errors.InternalWrap(err, "failed to load user")
	}

	hash, err := credential.HashPassword(newPassword)
	if err != nil {
		return session.AuthPayload{}, errors.InternalWrap(err, "failed to reset password")
	}
	active := user.StatusActive
	u, err = s.Users.UpdateUser(ctx, u.ID, user.UpdateUserParams{PasswordHash: &hash, Status: &active})
	if err != nil {
		return session.AuthPayload{}, errors.InternalWrap(err, "failed to update password")
	}
	slog.Info("Password reset", "userId", u.ID)
	return s.issue(u)
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) (bool, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return false, err
	}
	if !u.CanChangePassword() {
		return false, errors.ForbiddenPasswordChange()
	}
	if !credential.CheckPassword(u.PasswordHash, oldPassword) {
		return false, errors.InvalidCredentials()
	}

	hash, err := credential.HashPassword(newPassword)
	if err != nil {
		return false, errors.InternalWrap(err, "failed to change password")
	}
	if _, err := s.Users.UpdateUser(ctx, u.ID, user.UpdateUserParams{PasswordHash: &hash}); err != nil {
		return false, errors.InternalWrap(err, "failed to update password")
	}
	slog.Info("Password changed", "userId", u.ID)
	return true, nil
}

func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (user.DTO, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return user.DTO{}, err
	}
	return user.ToDTO(u, s.cdnURL), nil
}

// UpdateProfile applies a partial update. A replaced or removed avatar that
// lives in our bucket is deleted after the user row is written.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (user.DTO, error) {
	u, err := s.getUser(ctx, userID)
	if err != nil {
		return user.DTO{}, err
	}

	var params user.UpdateUserParams
	if in.Name != nil {
		name := user.CapitalizeName(*in.Name)
		params.Name = &name
	}
	if err := s.mergeMfa(u, in, &params); err != nil {
		return user.DTO{}, err
	}

	previous := u.UserPicture
	var uploaded string
	switch {
	case in.Picture != nil:
		uploaded, err = s.uploadAvatar(ctx, u.ID, in.Picture)
		if err != nil {
			return user.DTO{}, err
		}
		params.UserPicture = &uploaded
	case in.RemovePicture:
		empty := ""
		params.UserPicture = &empty
	}

	updated, err := s.Users.UpdateUser(ctx, u.ID, params)
	if err != nil {
		if uploaded != "" {
			s.deleteObject(ctx, uploaded)
		}
		if stderrors.Is(err, user.ErrMfaMethodRequired) {
			return user.DTO{}, errors.InvalidArgument(err.Error())
		}
		if stderrors.Is(err, user.ErrUserNotFound) {
			return user.DTO{}, errors.UserNotFound()
		}
		return user.DTO{}, errors.InternalWrap(err, "failed to update user")
	}

	if params.UserPicture != nil && previous != "" && previous != *params.UserPicture && !storage.IsExternal(previous) {
		s.deleteObject(ctx, previous)
	}
	return user.ToDTO(updated, s.cdnURL), nil
}

func (s *Service) mergeMfa(u user.User, in ProfileUpdate, params *user.UpdateUserParams) error {
	if in.MfaEnabled == nil && in.MfaMethod == nil {
		return nil
	}
	enabled := u.MfaEnabled
	if in.MfaEnabled != nil {
		enabled = *in.MfaEnabled
	}
	method := u.MfaMethod
	if in.MfaMethod != nil {
		method = *in.MfaMethod
		if method != user.MfaMethodNone && !method.Valid() {
			return errors.InvalidArgument(fmt.Sprintf("unknown mfa method %q", method))
		}
	}
	if enabled && !method.Valid() {
		return errors.InvalidArgument("mfaMethod is required when mfaEnabled is true")
	}
	if enabled && u.MfaKey == nil {
		return errors.MfaNotEnabled()
	}

	params.MfaEnabled = &enabled
	params.MfaMethod = &method
	if enabled && !u.MfaEnabled {
		now := s.now().UTC()
		params.MfaEnabledAt = &now
	}
	return nil
}

func (s *Service) uploadAvatar(ctx context.Context, userID uuid.UUID, up *Upload) (string, error) {
	if s.Storage == nil {
		return "", errors.UploadFailed(fmt.Errorf("object storage is not configured"))
	}
	key := storage.AvatarKey(userID, up.Filename)
	if err := s.Storage.Upload(ctx, key, up.Body, up.ContentType); err != nil {
		slog.Error("Failed to upload avatar", "userId", userID, "err", err)
		return "", errors.UploadFailed(err)
	}
	return key, nil
}

func (s *Service) deleteObject(ctx context.Context, key string) {
	if s.Storage == nil {
		return
	}
	if err := s.Storage.Delete(ctx, key); err != nil {
		slog.Warn("Failed to delete stored object", "key", key, "err", err)
	}
}
