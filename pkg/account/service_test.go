package account

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-account/pkg/attempts"
	"github.com/tendant/simple-account/pkg/cache"
	"github.com/tendant/simple-account/pkg/credential"
	apperrors "github.com/tendant/simple-account/pkg/errors"
	"github.com/tendant/simple-account/pkg/i18n"
	"github.com/tendant/simple-account/pkg/mfa"
	"github.com/tendant/simple-account/pkg/notification"
	"github.com/tendant/simple-account/pkg/oauth"
	"github.com/tendant/simple-account/pkg/passcode"
	"github.com/tendant/simple-account/pkg/session"
	"github.com/tendant/simple-account/pkg/storage"
	"github.com/tendant/simple-account/pkg/token"
	"github.com/tendant/simple-account/pkg/totp"
	"github.com/tendant/simple-account/pkg/user"
)

type stubProvider struct {
	identity *oauth.Identity
	err      error
}

func (s *stubProvider) Authenticate(ctx context.Context, credential, id string) (*oauth.Identity, error) {
	return s.identity, s.err
}

type failingStorage struct{}

func (failingStorage) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	return errors.New("bucket unavailable")
}

func (failingStorage) Delete(ctx context.Context, key string) error { return nil }

type fixture struct {
	svc      *Service
	users    *user.InMemoryRepository
	ledger   *attempts.Ledger
	tokens   *token.Service
	codes    *totp.Engine
	notifier *notification.MockNotifier
	storage  *storage.MemoryStorage
	google   *stubProvider
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	notifier := &notification.MockNotifier{}
	mailer, err := notification.NewMailer(notifier, "https://app.example.com")
	require.NoError(t, err)

	f := &fixture{
		now:      time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		users:    user.NewInMemoryRepository(),
		tokens:   token.NewService("test-secret"),
		codes:    totp.NewEngine("test"),
		notifier: notifier,
		storage:  storage.NewMemoryStorage(),
		google: &stubProvider{identity: &oauth.Identity{
			ExternalID: "g-1", Email: "gina@example.com", Name: "gina g", Picture: "https://lh3.googleusercontent.com/x",
		}},
	}
	// The cache follows f.now so tests can step through TTLs.
	c := cache.NewMemoryCache().WithClock(func() time.Time { return f.now })
	f.ledger = attempts.NewLedger(c, 3)

	sessions := session.NewIssuer(f.tokens, 0, "https://cdn.example.com")
	verifier := credential.NewVerifier(f.users, f.codes, credential.WithGoogle(f.google), credential.WithFacebook(&stubProvider{err: errors.New("nope")}))
	engine := mfa.NewEngine(f.users, f.ledger, passcode.NewStore(c), f.codes, mailer, sessions)

	f.svc = NewService(Deps{
		Users:    f.users,
		Verifier: verifier,
		MFA:      engine,
		Ledger:   f.ledger,
		Tokens:   f.tokens,
		Sessions: sessions,
		Mailer:   mailer,
		Keys:     f.codes,
		Storage:  f.storage,
	}, WithCdnURL("https://cdn.example.com"))
	return f
}

// activeUser registers and confirms a user with password "secret1".
func (f *fixture) activeUser(t *testing.T, email string) user.User {
	t.Helper()
	ctx := context.Background()
	dto, err := f.svc.Register(ctx, RegisterInput{Name: "ana silva", Email: email, Password: "secret1"}, i18n.English)
	require.NoError(t, err)
	active := user.StatusActive
	u, err := f.users.UpdateUser(ctx, dto.UserID, user.UpdateUserParams{Status: &active})
	require.NoError(t, err)
	return u
}

func (f *fixture) enableMfa(t *testing.T, u user.User, method user.MfaMethod) user.User {
	t.Helper()
	enabled := true
	u, err := f.users.UpdateUser(context.Background(), u.ID, user.UpdateUserParams{MfaEnabled: &enabled, MfaMethod: &method})
	require.NoError(t, err)
	return u
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	dto, err := f.svc.Register(ctx, RegisterInput{Name: "ana  silva", Email: " Ana@Example.COM ", Password: "secret1"}, i18n.Portuguese)
	require.NoError(t, err)
	assert.Equal(t, "Ana Silva", dto.Name)
	assert.Equal(t, "ana@example.com", dto.Email)
	assert.Equal(t, user.StatusPending, dto.Status)
	assert.Equal(t, user.ProviderAPI, dto.Provider)
	assert.False(t, dto.MfaEnabled)
	require.NotNil(t, dto.MfaKey)

	stored, err := f.users.GetUser(ctx, user.Filter{UserID: dto.UserID})
	require.NoError(t, err)
	assert.True(t, credential.CheckPassword(stored.PasswordHash, "secret1"))

	n, ok := f.notifier.Last(notification.AccountConfirmation)
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", n.Data.To)
	link := n.Data.Data["confirmAccountLink"]
	require.True(t, strings.HasPrefix(link, "https://app.example.com/confirm-account?token="))
	claims, err := f.tokens.VerifyType(strings.TrimPrefix(link, "https://app.example.com/confirm-account?token="), token.TypeConfirmAccount)
	require.NoError(t, err)
	assert.Equal(t, dto.UserID.String(), claims.UserID)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "Other", Email: "ana@example.com", Password: "secret2"}, i18n.English)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUserAlreadyExists))
}

func TestRegisterSurvivesMailFailure(t *testing.T) {
	f := newFixture(t)
	f.notifier.Err = errors.New("smtp down")

	dto, err := f.svc.Register(context.Background(), RegisterInput{Name: "Bo", Email: "bo@example.com", Password: "secret1"}, i18n.English)
	require.NoError(t, err)

	_, err = f.users.GetUser(context.Background(), user.Filter{UserID: dto.UserID})
	assert.NoError(t, err)
}

func TestRegisterHashFailure(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Name: "Ana", Email: "ana@example.com", Password: strings.Repeat("x", 73),
	}, i18n.English)
	require.True(t, apperrors.IsCode(err, apperrors.ErrCodeInternal))
	assert.Equal(t, 1, strings.Count(err.Error(), "failed to hash password"), err.Error())
	assert.Contains(t, err.Error(), "failed to register user")
}

func TestConfirmAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dto, err := f.svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Password: "secret1"}, i18n.English)
	require.NoError(t, err)

	confirm, err := f.tokens.Sign(token.Claims{UserID: dto.UserID.String(), Email: dto.Email, Type: token.TypeConfirmAccount}, ActionTokenExpiry)
	require.NoError(t, err)

	payload, err := f.svc.ConfirmAccount(ctx, confirm)
	require.NoError(t, err)
	assert.Equal(t, dto.UserID.String(), payload.UserID)

	u, err := f.users.GetUser(ctx, user.Filter{UserID: dto.UserID})
	require.NoError(t, err)
	assert.Equal(t, user.StatusActive, u.Status)

	t.Run("WrongType", func(t *testing.T) {
		reset, err := f.tokens.Sign(token.Claims{UserID: dto.UserID.String(), Type: token.TypeForgotPassword}, time.Hour)
		require.NoError(t, err)
		_, err = f.svc.ConfirmAccount(ctx, reset)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidToken))
	})

	t.Run("UnknownUser", func(t *testing.T) {
		ghost, err := f.tokens.Sign(token.Claims{UserID: uuid.NewString(), Type: token.TypeConfirmAccount}, time.Hour)
		require.NoError(t, err)
		_, err = f.svc.ConfirmAccount(ctx, ghost)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidToken))
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := f.svc.ConfirmAccount(ctx, "not-a-token")
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidToken))
	})
}

func TestLoginWithoutMfa(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.activeUser(t, "ana@example.com")
	require.NoError(t, f.ledger.SetAttempts(ctx, u.ID, attempts.Record{Attempts: 2}, 0))

	res, err := f.svc.Login(ctx, "ana@example.com", "secret1", i18n.English)
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	assert.Nil(t, res.Challenge)
	assert.Equal(t, u.ID.String(), res.Session.UserID)

	rec, err := f.ledger.GetAttempts(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, attempts.Record{}, rec)
}

func TestLoginWithAppMfa(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.enableMfa(t, f.activeUser(t, "ana@example.com"), user.MfaMethodApp)

	res, err := f.svc.Login(ctx, "ana@example.com", "secret1", i18n.English)
	require.NoError(t, err)
	assert.Nil(t, res.Session)
	assert.Equal(t, &mfa.Challenge{UserID: u.ID, Email: u.Email, RequirePasscode: true, Method: user.MfaMethodApp}, res.Challenge)

	code, err := f.codes.GenerateCode(u.MfaKey.Secret, 0)
	require.NoError(t, err)
	payload, err := f.svc.ValidatePasscode(ctx, u.ID, code)
	require.NoError(t, err)
	assert.NotEmpty(t, payload.Token)
}

func TestLoginWithEmailMfa(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.enableMfa(t, f.activeUser(t, "ana@example.com"), user.MfaMethodEmail)

	res, err := f.svc.Login(ctx, "ana@example.com", "secret1", i18n.English)
	require.NoError(t, err)
	require.NotNil(t, res.Challenge)
	assert.Equal(t, user.MfaMethodEmail, res.Challenge.Method)

	n, ok := f.notifier.Last(notification.Passcode)
	require.True(t, ok)
	payload, err := f.svc.ValidatePasscode(ctx, u.ID, n.Data.Data["passcode"])
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), payload.UserID)
}

func TestLoginLockout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.activeUser(t, "ana@example.com")

	for i := 1; i <= 2; i++ {
		_, err := f.svc.Login(ctx, "ana@example.com", "wrong", i18n.English)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidCredentials), "attempt %d: %v", i, err)
	}

	_, err := f.svc.Login(ctx, "ana@example.com", "wrong", i18n.English)
	require.True(t, apperrors.IsCode(err, apperrors.ErrCodeExceededAttempts))
	assert.Equal(t, "1m", apperrors.GetDetails(err)["time"])

	// Correct password during the cooldown is still refused, and counted.
	_, err = f.svc.Login(ctx, "ana@example.com", "secret1", i18n.English)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeExceededAttempts))

	rec, err := f.ledger.GetAttempts(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, attempts.Record{Attempts: 4, AttemptsBlockPeriod: attempts.Block1m}, rec)
}

func TestLoginLockoutEscalates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.activeUser(t, "ana@example.com")

	tests := []struct {
		password string
		advance  time.Duration
		code     apperrors.ErrorCode
		period   string
	}{
		{"wrong", 0, apperrors.ErrCodeInvalidCredentials, ""},
		{"wrong", 0, apperrors.ErrCodeInvalidCredentials, ""},
		{"wrong", 0, apperrors.ErrCodeExceededAttempts, "1m"},
		{"wrong", 30 * time.Second, apperrors.ErrCodeExceededAttempts, "1m"},
		{"wrong", 0, apperrors.ErrCodeExceededAttempts, "1m"},
		{"wrong", 0, apperrors.ErrCodeExceededAttempts, "5m"},
		// The 1m cooldown is over but the record now lives for 5m.
		{"secret1", 61 * time.Second, apperrors.ErrCodeExceededAttempts, "5m"},
	}
	for i, tt := range tests {
		f.now = f.now.Add(tt.advance)
		_, err := f.svc.Login(ctx, "ana@example.com", tt.password, i18n.English)
		require.True(t, apperrors.IsCode(err, tt.code), "attempt %d: %v", i+1, err)
		if tt.period != "" {
			assert.Equal(t, tt.period, apperrors.GetDetails(err)["time"], "attempt %d", i+1)
		}
	}

	rec, err := f.ledger.GetAttempts(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, attempts.Record{Attempts: 7, AttemptsBlockPeriod: attempts.Block5m}, rec)

	f.now = f.now.Add(5*time.Minute + time.Second)
	res, err := f.svc.Login(ctx, "ana@example.com", "secret1", i18n.English)
	require.NoError(t, err)
	require.NotNil(t, res.Session)
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Login(context.Background(), "ghost@example.com", "secret1", i18n.English)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidCredentials))
}

func TestLoginPendingUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Register(ctx, RegisterInput{Name: "P", Email: "p@example.com", Password: "secret1"}, i18n.English)
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "p@example.com", "secret1", i18n.English)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidCredentials))
}

func TestLoginWithGoogle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.LoginWithGoogle(ctx, "code", i18n.English)
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	assert.Equal(t, "gina@example.com", res.Session.Email)
	assert.Equal(t, "https://lh3.googleusercontent.com/x", res.Session.UserPicture)

	f.google.err = errors.New("bad code")
	_, err = f.svc.LoginWithGoogle(ctx, "code", i18n.English)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeFailedGoogleLogin))

	_, err = f.svc.LoginWithFacebook(ctx, "fb", "tok", i18n.English)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeFailedFacebookLogin))
}

func TestForgotAndResetPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.activeUser(t, "ana@example.com")

	res := f.svc.ForgotPassword(ctx, "ghost@example.com", i18n.English)
	assert.Equal(t, ForgotPasswordResult{Email: "ghost@example.com", Success: true}, res)
	_, sent := f.notifier.Last(notification.PasswordReset)
	assert.False(t, sent)

	res = f.svc.ForgotPassword(ctx, "ana@example.com", i18n.English)
	assert.True(t, res.Success)
	n, ok := f.notifier.Last(notification.PasswordReset)
	require.True(t, ok)
	resetToken := strings.TrimPrefix(n.Data.Data["createNewPasswordLink"], "https://app.example.com/reset-password?token=")

	payload, err := f.svc.ResetPassword(ctx, resetToken, "newsecret")
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), payload.UserID)

	_, err = f.svc.Login(ctx, "ana@example.com", "newsecret", i18n.English)
	assert.NoError(t, err)

	confirm, err := f.tokens.Sign(token.Claims{UserID: u.ID.String(), Email: u.Email, Type: token.TypeConfirmAccount}, time.Hour)
	require.NoError(t, err)
	_, err = f.svc.ResetPassword(ctx, confirm, "x")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidToken))

	mismatched, err := f.tokens.Sign(token.Claims{UserID: u.ID.String(), Email: "other@example.com", Type: token.TypeForgotPassword}, time.Hour)
	require.NoError(t, err)
	_, err = f.svc.ResetPassword(ctx, mismatched, "x")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidToken))
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.activeUser(t, "ana@example.com")

	_, err := f.svc.ChangePassword(ctx, u.ID, "wrong", "newsecret")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidCredentials))

	ok, err := f.svc.ChangePassword(ctx, u.ID, "secret1", "newsecret")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.svc.Login(ctx, "ana@example.com", "newsecret", i18n.English)
	assert.NoError(t, err)

	_, err = f.svc.ChangePassword(ctx, uuid.New(), "a", "b")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUserNotFound))

	res, err := f.svc.LoginWithGoogle(ctx, "code", i18n.English)
	require.NoError(t, err)
	_, err = f.svc.ChangePassword(ctx, uuid.MustParse(res.Session.UserID), "", "newsecret")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeForbiddenPasswordChange))
}

func TestGetUser(t *testing.T) {
	f := newFixture(t)
	u := f.activeUser(t, "ana@example.com")

	dto, err := f.svc.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, dto.UserID)
	assert.Nil(t, dto.MfaMethod)

	_, err = f.svc.GetUser(context.Background(), uuid.New())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUserNotFound))
}

func ptr[T any](v T) *T { return &v }

func TestUpdateProfileMfa(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.activeUser(t, "ana@example.com")

	_, err := f.svc.UpdateProfile(ctx, u.ID, ProfileUpdate{MfaEnabled: ptr(true)})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument))

	_, err = f.svc.UpdateProfile(ctx, u.ID, ProfileUpdate{MfaMethod: ptr(user.MfaMethod("SMS"))})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeInvalidArgument))

	dto, err := f.svc.UpdateProfile(ctx, u.ID, ProfileUpdate{
		Name:       ptr("ana maria"),
		MfaEnabled: ptr(true),
		MfaMethod:  ptr(user.MfaMethodApp),
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", dto.Name)
	assert.True(t, dto.MfaEnabled)
	require.NotNil(t, dto.MfaMethod)
	assert.Equal(t, user.MfaMethodApp, *dto.MfaMethod)

	stored, err := f.users.GetUser(ctx, user.Filter{UserID: u.ID})
	require.NoError(t, err)
	assert.NotNil(t, stored.MfaEnabledAt)

	dto, err = f.svc.UpdateProfile(ctx, u.ID, ProfileUpdate{MfaEnabled: ptr(false)})
	require.NoError(t, err)
	assert.False(t, dto.MfaEnabled)
}

func TestUpdateProfilePicture(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.activeUser(t, "ana@example.com")

	dto, err := f.svc.UpdateProfile(ctx, u.ID, ProfileUpdate{Picture: &Upload{
		Filename: "me.PNG", ContentType: "image/png", Body: bytes.NewReader([]byte("png-1")),
	}})
	require.NoError(t, err)
	first, err := f.users.GetUser(ctx, user.Filter{UserID: u.ID})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first.UserPicture, "users/"+u.ID.String()+"/avatar-"))
	assert.True(t, strings.HasSuffix(first.UserPicture, ".png"))
	assert.Equal(t, "https://cdn.example.com/"+first.UserPicture, dto.UserPicture)
	data, contentType, err := f.storage.Object(first.UserPicture)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-1"), data)
	assert.Equal(t, "image/png", contentType)

	_, err = f.svc.UpdateProfile(ctx, u.ID, ProfileUpdate{Picture: &Upload{
		Filename: "me2.jpg", ContentType: "image/jpeg", Body: bytes.NewReader([]byte("jpg-2")),
	}})
	require.NoError(t, err)
	_, _, err = f.storage.Object(first.UserPicture)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
	second, err := f.users.GetUser(ctx, user.Filter{UserID: u.ID})
	require.NoError(t, err)

	dto, err = f.svc.UpdateProfile(ctx, u.ID, ProfileUpdate{RemovePicture: true})
	require.NoError(t, err)
	assert.Empty(t, dto.UserPicture)
	_, _, err = f.storage.Object(second.UserPicture)
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestUpdateProfileUploadFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.activeUser(t, "ana@example.com")
	f.svc.Storage = failingStorage{}

	_, err := f.svc.UpdateProfile(ctx, u.ID, ProfileUpdate{Picture: &Upload{Filename: "a.png", Body: bytes.NewReader(nil)}})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUploadFailed))

	_, err = f.svc.UpdateProfile(ctx, uuid.New(), ProfileUpdate{Name: ptr("x")})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeUserNotFound))
}
