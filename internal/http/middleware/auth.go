package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/zahnovia-backend/internal/http/response"
	"github.com/yungbote/zahnovia-backend/internal/platform/apierr"
	"github.com/yungbote/zahnovia-backend/internal/platform/ctxutil"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
	"github.com/yungbote/zahnovia-backend/internal/services"
)

// AccessTokenCookie is read when no Authorization header is sent.
const AccessTokenCookie = "access_token"

var (
	errMissingToken = apierr.New(http.StatusUnauthorized, "unauthorized",
		errors.New("Anmeldung erforderlich."))
	errInvalidSession = apierr.New(http.StatusUnauthorized, "unauthorized",
		errors.New("Sitzung abgelaufen. Bitte erneut anmelden."))
	errProfileIncomplete = apierr.New(http.StatusForbidden, "profile_incomplete",
		errors.New("Bitte vervollständigen Sie zuerst Ihr Herstellerprofil."))
)

type AuthMiddleware struct {
	log            *logger.Logger
	authService    services.AuthService
	profileService services.ProfileService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService, profileService services.ProfileService) *AuthMiddleware {
	middlewareLogger := log.With("middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, authService: authService, profileService: profileService}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractTokenFromAll(c)
		if tokenString == "" {
			response.AbortAPIError(c, errMissingToken)
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("Token rejected", "path", c.FullPath(), "error", err)
			response.AbortAPIError(c, errInvalidSession)
			return
		}
		if ctxutil.UserID(ctx) == uuid.Nil {
			response.AbortAPIError(c, errInvalidSession)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireCompleteProfile must run after RequireAuth. Staff pass without a
// completed manufacturer profile.
func (am *AuthMiddleware) RequireCompleteProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := am.profileService.CanAccess(c.Request.Context(), ctxutil.UserID(c.Request.Context()))
		if err != nil {
			am.log.Error("Profile check failed", "error", err)
			response.AbortAPIError(c, err)
			return
		}
		if !ok {
			response.AbortAPIError(c, errProfileIncomplete)
			return
		}
		c.Next()
	}
}

func extractTokenFromAll(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie != "" {
		return cookie
	}
	return c.Query("token")
}
