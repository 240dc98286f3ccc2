package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/zahnovia-backend/internal/http/middleware"
	"github.com/yungbote/zahnovia-backend/internal/http/response"
	"github.com/yungbote/zahnovia-backend/internal/platform/apierr"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
	"github.com/yungbote/zahnovia-backend/internal/services"
)

const refreshTokenCookie = "refresh_token"

var errMissingRefreshToken = apierr.New(http.StatusUnauthorized, "invalid_token", errors.New("missing refresh token"))

// CookieConfig controls the session cookies set next to the JSON tokens.
type CookieConfig struct {
	Domain string
	Secure bool
}

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
	cookies     CookieConfig
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{log: log.With("handler", "AuthHandler"), authService: authService, cookies: cookies}
}

// POST /api/register
func (ah *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if !bindJSON(c, &req) {
		return
	}
	user, err := ah.authService.Register(c.Request.Context(), req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"user":    user,
		"message": "Registrierung erfolgreich. Bitte bestätigen Sie Ihre E-Mail-Adresse über den zugesandten Link.",
	})
}

// POST /api/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	tokens, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	ah.setSessionCookies(c, tokens)
	response.RespondOK(c, tokens)
}

// POST /api/refresh
// The refresh token comes from the body or, failing that, the cookie.
func (ah *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	token := strings.TrimSpace(req.RefreshToken)
	if token == "" {
		token, _ = c.Cookie(refreshTokenCookie)
	}
	if token == "" {
		response.RespondAPIError(c, errMissingRefreshToken)
		return
	}
	tokens, err := ah.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	ah.setSessionCookies(c, tokens)
	response.RespondOK(c, tokens)
}

// POST /api/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	if err := ah.authService.Logout(c.Request.Context()); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	ah.clearSessionCookies(c)
	response.RespondOK(c, gin.H{"ok": true})
}

// POST /api/verify-email
func (ah *AuthHandler) VerifyEmail(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := ah.authService.VerifyEmail(c.Request.Context(), req.Token); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"message": "Ihre E-Mail-Adresse wurde bestätigt. Sie können sich jetzt anmelden."})
}

// POST /api/password-reset
// Always 200 so the endpoint does not reveal which addresses exist.
func (ah *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := ah.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		ah.log.Warn("Password reset request failed", "error", err)
	}
	response.RespondOK(c, gin.H{
		"message": "Falls ein Konto mit dieser E-Mail-Adresse existiert, wurde ein Link zum Zurücksetzen des Passworts gesendet.",
	})
}

// POST /api/password-reset/confirm
func (ah *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}
	if err := ah.authService.ConfirmPasswordReset(c.Request.Context(), req.Token, req.Password); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	ah.clearSessionCookies(c)
	response.RespondOK(c, gin.H{"message": "Ihr Passwort wurde geändert. Bitte melden Sie sich neu an."})
}

func (ah *AuthHandler) setSessionCookies(c *gin.Context, tokens *services.TokenPair) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, tokens.AccessToken, seconds(ah.authService.GetAccessTTL()), "/", ah.cookies.Domain, ah.cookies.Secure, true)
	c.SetCookie(refreshTokenCookie, tokens.RefreshToken, seconds(ah.authService.GetRefreshTTL()), "/api", ah.cookies.Domain, ah.cookies.Secure, true)
}

func (ah *AuthHandler) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.AccessTokenCookie, "", -1, "/", ah.cookies.Domain, ah.cookies.Secure, true)
	c.SetCookie(refreshTokenCookie, "", -1, "/api", ah.cookies.Domain, ah.cookies.Secure, true)
}

func seconds(d time.Duration) int { return int(d / time.Second) }
