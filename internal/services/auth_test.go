package services

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/zahnovia-backend/internal/data/repos"
	"github.com/yungbote/zahnovia-backend/internal/data/repos/testutil"
	types "github.com/yungbote/zahnovia-backend/internal/domain"
	"github.com/yungbote/zahnovia-backend/internal/platform/ctxutil"
	"github.com/yungbote/zahnovia-backend/internal/platform/tokenstore"
)

type recordingNotifier struct {
	mu           sync.Mutex
	verification map[string]string
	reset        map[string]string
	admin        []string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{verification: map[string]string{}, reset: map[string]string{}}
}

func (n *recordingNotifier) SendVerification(_ context.Context, u *types.User, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verification[u.Email] = token
	return nil
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, u *types.User, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reset[u.Email] = token
	return nil
}

func (n *recordingNotifier) SendAdminRegistration(_ context.Context, u *types.User, _ *types.ManufacturerProfile) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.admin = append(n.admin, u.Email)
	return nil
}

type authFixture struct {
	db       *gorm.DB
	notifier *recordingNotifier
	svc      AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	n := newRecordingNotifier()
	svc := NewAuthService(db, log,
		repos.NewUserRepo(db, log),
		repos.NewProfileRepo(db, log),
		repos.NewUserTokenRepo(db, log),
		tokenstore.NewMemory(),
		n,
		AuthConfig{JWTSecretKey: "test-secret", AccessTTL: 15 * time.Minute, RefreshTTL: 24 * time.Hour},
		nil,
	)
	return &authFixture{db: db, notifier: n, svc: svc}
}

func registration(email string) RegisterInput {
	return RegisterInput{
		Email:       email,
		Password:    "sicheres-passwort",
		FirstName:   "Max",
		LastName:    "Mustermann",
		CompanyName: "Dentallabor Mustermann",
	}
}

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, registration("  Max@Example.com "))
	require.NoError(t, err)
	require.Equal(t, "max@example.com", u.Email)
	require.NotEqual(t, "sicheres-passwort", u.Password)

	var p types.ManufacturerProfile
	require.NoError(t, f.db.Where("user_id = ?", u.ID).First(&p).Error)
	require.Equal(t, "Dentallabor Mustermann", p.CompanyName)
	require.Equal(t, "max@example.com", p.Email)
	require.False(t, p.ProfileCompleted)

	require.NotEmpty(t, f.notifier.verification["max@example.com"])
	require.Equal(t, []string{"max@example.com"}, f.notifier.admin)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, registration("dup@example.com"))
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, registration("DUP@example.com"))
	ae := requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	require.Contains(t, ae.Fields, "email")
	require.Equal(t, int64(1), countRows(t, f.db, &types.User{}))
}

func TestRegisterPasswordRules(t *testing.T) {
	f := newAuthFixture(t)
	for _, pw := range []string{"kurz", "1234567890"} {
		in := registration("pw@example.com")
		in.Password = pw
		_, err := f.svc.Register(context.Background(), in)
		ae := requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
		require.Contains(t, ae.Fields, "password", pw)
	}
	require.Zero(t, countRows(t, f.db, &types.User{}))
}

func TestLoginRequiresVerifiedEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, registration("verify@example.com"))
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "verify@example.com", "falsch-falsch")
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_credentials")

	_, err = f.svc.Login(ctx, "verify@example.com", "sicheres-passwort")
	requireAPIError(t, err, http.StatusForbidden, "email_not_verified")

	token := f.notifier.verification["verify@example.com"]
	require.NoError(t, f.svc.VerifyEmail(ctx, token))
	requireAPIError(t, f.svc.VerifyEmail(ctx, token), http.StatusBadRequest, "invalid_link")

	var p types.ManufacturerProfile
	require.NoError(t, f.db.First(&p).Error)
	require.True(t, p.EmailVerified)

	pair, err := f.svc.Login(ctx, "Verify@Example.com", "sicheres-passwort")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	require.Equal(t, int((15 * time.Minute).Seconds()), pair.ExpiresIn)
}

func loggedIn(t *testing.T, f *authFixture, email string) *TokenPair {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Register(ctx, registration(email))
	require.NoError(t, err)
	require.NoError(t, f.svc.VerifyEmail(ctx, f.notifier.verification[email]))
	pair, err := f.svc.Login(ctx, email, "sicheres-passwort")
	require.NoError(t, err)
	return pair
}

func TestSessionLifecycle(t *testing.T) {
	f := newAuthFixture(t)
	pair := loggedIn(t, f, "session@example.com")

	ctx, err := f.svc.SetContextFromToken(context.Background(), pair.AccessToken)
	require.NoError(t, err)
	rd := ctxutil.GetRequestData(ctx)
	require.NotNil(t, rd)
	require.Equal(t, pair.AccessToken, rd.TokenString)

	_, err = f.svc.SetContextFromToken(context.Background(), pair.RefreshToken)
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_token")

	require.NoError(t, f.svc.Logout(ctx))
	_, err = f.svc.SetContextFromToken(context.Background(), pair.AccessToken)
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_token")
}

func TestRefreshRotatesTokens(t *testing.T) {
	f := newAuthFixture(t)
	pair := loggedIn(t, f, "refresh@example.com")
	ctx := context.Background()

	next, err := f.svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.AccessToken, next.AccessToken)

	_, err = f.svc.Refresh(ctx, pair.RefreshToken)
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_token")
	_, err = f.svc.SetContextFromToken(ctx, pair.AccessToken)
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_token")

	_, err = f.svc.SetContextFromToken(ctx, next.AccessToken)
	require.NoError(t, err)
}

func TestPasswordResetRevokesSessions(t *testing.T) {
	f := newAuthFixture(t)
	pair := loggedIn(t, f, "reset@example.com")
	ctx := context.Background()

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "unknown@example.com"))
	require.Empty(t, f.notifier.reset)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "reset@example.com"))
	token := f.notifier.reset["reset@example.com"]
	require.NotEmpty(t, token)

	err := f.svc.ConfirmPasswordReset(ctx, token, "12345678")
	requireAPIError(t, err, http.StatusBadRequest, "validation_failed")

	require.NoError(t, f.svc.ConfirmPasswordReset(ctx, token, "neues-passwort"))
	requireAPIError(t, f.svc.ConfirmPasswordReset(ctx, token, "noch-ein-passwort"), http.StatusBadRequest, "invalid_link")

	_, err = f.svc.SetContextFromToken(ctx, pair.AccessToken)
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_token")

	_, err = f.svc.Login(ctx, "reset@example.com", "sicheres-passwort")
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_credentials")
	_, err = f.svc.Login(ctx, "reset@example.com", "neues-passwort")
	require.NoError(t, err)
}

func TestTokensFromAnotherKeyAreRejected(t *testing.T) {
	f := newAuthFixture(t)
	pair := loggedIn(t, f, "key@example.com")

	db := f.db
	log := testutil.Logger(t)
	other := NewAuthService(db, log, repos.NewUserRepo(db, log), repos.NewProfileRepo(db, log), repos.NewUserTokenRepo(db, log),
		tokenstore.NewMemory(), newRecordingNotifier(),
		AuthConfig{JWTSecretKey: "another-secret", AccessTTL: time.Minute, RefreshTTL: time.Hour}, nil)

	_, err := other.SetContextFromToken(context.Background(), pair.AccessToken)
	requireAPIError(t, err, http.StatusUnauthorized, "invalid_token")
}
