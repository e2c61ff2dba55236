// Package credential checks the primary login factor: a local password or an
// identity asserted by Google or Facebook.
package credential

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-account/pkg/errors"
	"github.com/tendant/simple-account/pkg/oauth"
	"github.com/tendant/simple-account/pkg/totp"
	"github.com/tendant/simple-account/pkg/user"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for a wrong password and for an unknown email alike.
var ErrInvalidCredentials = stderrors.New("invalid credentials")

// ErrDeactivated is returned when an external login resolves to a deactivated user.
var ErrDeactivated = stderrors.New("user is deactivated")

// KeyGenerator issues MFA enrollment keys for new users.
type KeyGenerator interface {
	GenerateKey(label string) (totp.Key, error)
}

type Verifier struct {
	users    user.Repository
	keys     KeyGenerator
	google   oauth.Provider
	facebook oauth.Provider
}

type Option func(*Verifier)

func WithGoogle(p oauth.Provider) Option {
	return func(v *Verifier) { v.google = p }
}

func WithFacebook(p oauth.Provider) Option {
	return func(v *Verifier) { v.facebook = p }
}

func NewVerifier(users user.Repository, keys KeyGenerator, opts ...Option) *Verifier {
	v := &Verifier{users: users, keys: keys}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var (
	placeholderOnce sync.Once
	placeholderHash []byte
)

// placeholder is compared against when there is no stored hash, so unknown
// emails cost the same bcrypt work as known ones.
func placeholder() []byte {
	placeholderOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
		if err != nil {
			panic(fmt.Sprintf("credential: placeholder hash: %v", err))
		}
		placeholderHash = hash
	})
	return placeholderHash
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares password to hash. An empty hash always fails but still pays for a compare.
func CheckPassword(hash, password string) bool {
	stored := []byte(hash)
	if hash == "" {
		stored = placeholder()
	}
	err := bcrypt.CompareHashAndPassword(stored, []byte(password))
	return err == nil && hash != ""
}

// VerifyPassword authenticates an ACTIVE API user. On a wrong password the
// user is returned together with ErrInvalidCredentials so the caller can count
// the attempt; an unknown email returns a zero User.
func (v *Verifier) VerifyPassword(ctx context.Context, email, password string) (user.User, error) {
	u, err := v.users.GetUser(ctx, user.Filter{
		Email:    user.NormalizeEmail(email),
		Status:   user.StatusActive,
		Provider: user.ProviderAPI,
	})
	found := true
	if err != nil {
		if !stderrors.Is(err, user.ErrUserNotFound) {
			return user.User{}, fmt.Errorf("failed to look up user: %w", err)
		}
		found = false
	}

	if !CheckPassword(u.PasswordHash, password) {
		if !found {
			return user.User{}, ErrInvalidCredentials
		}
		return u, ErrInvalidCredentials
	}
	return u, nil
}

// VerifyGoogle exchanges an authorization code and resolves the local user.
func (v *Verifier) VerifyGoogle(ctx context.Context, code string) (user.User, error) {
	if v.google == nil {
		return user.User{}, errors.FailedGoogleLogin(fmt.Errorf("google login is not configured"))
	}
	identity, err := v.google.Authenticate(ctx, code, "")
	if err != nil {
		return user.User{}, errors.FailedGoogleLogin(err)
	}
	u, err := v.resolveExternal(ctx, user.ProviderGoogle, identity)
	if stderrors.Is(err, ErrDeactivated) {
		return user.User{}, errors.FailedGoogleLogin(err)
	}
	return u, err
}

// VerifyFacebook checks a client-side access token for facebookUserID and resolves the local user.
func (v *Verifier) VerifyFacebook(ctx context.Context, facebookUserID, accessToken string) (user.User, error) {
	if v.facebook == nil {
		return user.User{}, errors.FailedFacebookLogin(fmt.Errorf("facebook login is not configured"))
	}
	identity, err := v.facebook.Authenticate(ctx, accessToken, facebookUserID)
	if err != nil {
		return user.User{}, errors.FailedFacebookLogin(err)
	}
	u, err := v.resolveExternal(ctx, user.ProviderFacebook, identity)
	if stderrors.Is(err, ErrDeactivated) {
		return user.User{}, errors.FailedFacebookLogin(err)
	}
	return u, err
}

// resolveExternal returns the existing (email, provider) user or creates an
// ACTIVE one from the identity. Existing users are not synced; a deactivated
// one gets ErrDeactivated.
func (v *Verifier) resolveExternal(ctx context.Context, provider user.Provider, identity *oauth.Identity) (user.User, error) {
	email := user.NormalizeEmail(identity.Email)

	u, err := v.users.GetUser(ctx, user.Filter{Email: email, Provider: provider})
	if err == nil {
		if u.Status == user.StatusDeactivated {
			slog.Warn("Rejected external login of deactivated user", "userId", u.ID, "provider", provider)
			return user.User{}, ErrDeactivated
		}
		return u, nil
	}
	if !stderrors.Is(err, user.ErrUserNotFound) {
		return user.User{}, fmt.Errorf("failed to look up %s user: %w", provider, err)
	}

	key, err := v.keys.GenerateKey(email)
	if err != nil {
		return user.User{}, err
	}
	u, err = v.users.CreateUser(ctx, user.CreateUserParams{
		Name:               user.CapitalizeName(identity.Name),
		Email:              email,
		Status:             user.StatusActive,
		Provider:           provider,
		ProviderIdentifier: identity.ExternalID,
		MfaKey:             &user.MfaKey{Secret: key.Secret, URL: key.URL},
		UserPicture:        identity.Picture,
	})
	if err != nil {
		if stderrors.Is(err, user.ErrDuplicateUser) {
			// Lost a race with a concurrent first login.
			return v.users.GetUser(ctx, user.Filter{Email: email, Provider: provider})
		}
		return user.User{}, fmt.Errorf("failed to create %s user: %w", provider, err)
	}
	slog.Info("Created user from external provider", "userId", u.ID, "provider", provider)
	return u, nil
}
