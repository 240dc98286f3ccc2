package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/zahnovia-backend/internal/data/repos"
	types "github.com/yungbote/zahnovia-backend/internal/domain"
	"github.com/yungbote/zahnovia-backend/internal/platform/apierr"
	"github.com/yungbote/zahnovia-backend/internal/platform/ctxutil"
	"github.com/yungbote/zahnovia-backend/internal/platform/dbctx"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
	"github.com/yungbote/zahnovia-backend/internal/platform/tokenstore"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	// linkTTL bounds verification and password-reset links.
	linkTTL = 24 * time.Hour
)

var (
	errInvalidCredentials = apierr.New(http.StatusUnauthorized, "invalid_credentials", errors.New("E-Mail-Adresse oder Passwort ist falsch"))
	errEmailNotVerified   = apierr.New(http.StatusForbidden, "email_not_verified", errors.New("Bitte bestätigen Sie zuerst Ihre E-Mail-Adresse"))
	errInvalidToken       = apierr.New(http.StatusUnauthorized, "invalid_token", errors.New("invalid or expired token"))
	errInvalidLink        = apierr.New(http.StatusBadRequest, "invalid_link", errors.New("Der Link ist ungültig oder abgelaufen"))
)

type RegisterInput struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=128,password"`
	FirstName   string `json:"first_name" validate:"required,max=150"`
	LastName    string `json:"last_name" validate:"required,max=150"`
	CompanyName string `json:"company_name" validate:"max=200"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*types.User, error)
	Login(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context) error
	VerifyEmail(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, password string) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
	GetRefreshTTL() time.Duration
}

type AuthConfig struct {
	JWTSecretKey string
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	profileRepo   repos.ProfileRepo
	userTokenRepo repos.UserTokenRepo
	links         tokenstore.Store
	notifier      AccountNotifier
	cfg           AuthConfig
	now           Clock
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	profileRepo repos.ProfileRepo,
	userTokenRepo repos.UserTokenRepo,
	links tokenstore.Store,
	notifier AccountNotifier,
	cfg AuthConfig,
	now Clock,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	if now == nil {
		now = SystemClock
	}
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		profileRepo:   profileRepo,
		userTokenRepo: userTokenRepo,
		links:         links,
		notifier:      notifier,
		cfg:           cfg,
		now:           now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the user and its manufacturer profile in one transaction,
// then mails the verification link. Mail problems are logged, not returned.
func (as *authService) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	in.Email = normalizeEmail(in.Email)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	if err := validateInput(in); err != nil {
		return nil, err
	}

	exists, err := as.userRepo.EmailExists(dbctx.Context{Ctx: ctx}, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, fieldError("email", "Ein Konto mit dieser E-Mail-Adresse existiert bereits.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		Email:     in.Email,
		Password:  string(hash),
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	profile := &types.ManufacturerProfile{
		CompanyName: in.CompanyName,
		Email:       in.Email,
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := as.userRepo.Create(inner, []*types.User{user}); err != nil {
			return err
		}
		profile.UserID = user.ID
		return as.profileRepo.Create(inner, profile)
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fieldError("email", "Ein Konto mit dieser E-Mail-Adresse existiert bereits.")
	}
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	as.log.Info("User registered", "user_id", user.ID)

	if token, err := as.links.Issue(ctx, tokenstore.PurposeVerifyEmail, user.ID, linkTTL); err != nil {
		as.log.Warn("Issue verification token failed", "user_id", user.ID, "error", err)
	} else if err := as.notifier.SendVerification(ctx, user, token); err != nil {
		as.log.Warn("Send verification email failed", "user_id", user.ID, "error", err)
	}
	if err := as.notifier.SendAdminRegistration(ctx, user, profile); err != nil {
		as.log.Warn("Send admin notification failed", "user_id", user.ID, "error", err)
	}
	return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, errInvalidCredentials
	}
	user, err := as.userRepo.GetByEmail(dbctx.Context{Ctx: ctx}, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, errInvalidCredentials
	}
	if !user.EmailVerified() && !user.IsStaff {
		return nil, errEmailNotVerified
	}

	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := as.issueSession(dbctx.Context{Ctx: ctx, Tx: tx}, user.ID)
		pair = p
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	as.log.Info("User logged in", "user_id", user.ID)
	return pair, nil
}

// Refresh rotates both tokens of the session the refresh token belongs to.
func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := as.parseToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, errInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errInvalidToken
	}

	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		found, err := as.userTokenRepo.GetByRefreshTokens(inner, []string{refreshToken})
		if err != nil {
			return err
		}
		if len(found) == 0 || found[0].UserID != userID {
			return errInvalidToken
		}
		if err := as.userTokenRepo.DeleteByIDs(inner, []uuid.UUID{found[0].ID}); err != nil {
			return err
		}
		pair, err = as.issueSession(inner, userID)
		return err
	})
	if err != nil {
		if _, ok := apierr.As(err); ok {
			return nil, err
		}
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	return pair, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return errUnauthorized
	}
	if err := as.userTokenRepo.DeleteByAccessTokens(dbctx.Context{Ctx: ctx}, []string{rd.TokenString}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (as *authService) VerifyEmail(ctx context.Context, token string) error {
	userID, err := as.links.Consume(ctx, tokenstore.PurposeVerifyEmail, strings.TrimSpace(token))
	if errors.Is(err, tokenstore.ErrNotFound) {
		return errInvalidLink
	}
	if err != nil {
		return fmt.Errorf("consume verification token: %w", err)
	}
	now := as.now().UTC()
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := as.userRepo.MarkEmailVerified(inner, userID, now); err != nil {
			return err
		}
		return as.profileRepo.MarkEmailVerified(inner, userID)
	})
	if err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	as.log.Info("Email verified", "user_id", userID)
	return nil
}

// RequestPasswordReset never reveals whether the address is registered.
func (as *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := as.userRepo.GetByEmail(dbctx.Context{Ctx: ctx}, normalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	token, err := as.links.Issue(ctx, tokenstore.PurposePasswordReset, user.ID, linkTTL)
	if err != nil {
		as.log.Warn("Issue reset token failed", "user_id", user.ID, "error", err)
		return nil
	}
	if err := as.notifier.SendPasswordReset(ctx, user, token); err != nil {
		as.log.Warn("Send password reset email failed", "user_id", user.ID, "error", err)
	}
	return nil
}

type passwordInput struct {
	Password string `json:"password" validate:"required,min=8,max=128,password"`
}

// ConfirmPasswordReset sets the new password and ends every session.
func (as *authService) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	if err := validateInput(passwordInput{Password: password}); err != nil {
		return err
	}
	userID, err := as.links.Consume(ctx, tokenstore.PurposePasswordReset, strings.TrimSpace(token))
	if errors.Is(err, tokenstore.ErrNotFound) {
		return errInvalidLink
	}
	if err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctx, Tx: tx}
		if err := as.userRepo.UpdatePassword(inner, userID, string(hash)); err != nil {
			return err
		}
		return as.userTokenRepo.DeleteByUserIDs(inner, []uuid.UUID{userID})
	})
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	as.log.Info("Password reset", "user_id", userID)
	return nil
}

// SetContextFromToken accepts only access tokens whose session row still
// exists.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims, err := as.parseToken(tokenString, tokenTypeAccess)
	if err != nil {
		return nil, errInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errInvalidToken
	}
	found, err := as.userTokenRepo.GetByAccessTokens(dbctx.Context{Ctx: ctx}, []string{tokenString})
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(found) == 0 || found[0].UserID != userID {
		return nil, errInvalidToken
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	}), nil
}

func (as *authService) GetAccessTTL() time.Duration  { return as.cfg.AccessTTL }
func (as *authService) GetRefreshTTL() time.Duration { return as.cfg.RefreshTTL }

type tokenClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

func (as *authService) issueSession(dbc dbctx.Context, userID uuid.UUID) (*TokenPair, error) {
	now := as.now()
	access, err := as.signToken(userID, tokenTypeAccess, now, as.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := as.signToken(userID, tokenTypeRefresh, now, as.cfg.RefreshTTL)
	if err != nil {
		return nil, err
	}
	if _, err := as.userTokenRepo.Create(dbc, []*types.UserToken{{
		UserID:       userID,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    now.Add(as.cfg.RefreshTTL).UTC(),
	}}); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(as.cfg.AccessTTL.Seconds()),
	}, nil
}

func (as *authService) signToken(userID uuid.UUID, typ string, now time.Time, ttl time.Duration) (string, error) {
	claims := tokenClaims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(as.cfg.JWTSecretKey))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", typ, err)
	}
	return signed, nil
}

func (as *authService) parseToken(tokenString, typ string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(as.cfg.JWTSecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(as.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("expected %s token, got %q", typ, claims.Type)
	}
	return claims, nil
}
