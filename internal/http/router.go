package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/zahnovia-backend/internal/http/handlers"
	httpMW "github.com/yungbote/zahnovia-backend/internal/http/middleware"
	"github.com/yungbote/zahnovia-backend/internal/observability"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	Metrics        *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler        *httpH.AuthHandler
	ProfileHandler     *httpH.ProfileHandler
	DeclarationHandler *httpH.DeclarationHandler
	PresetHandler      *httpH.PresetHandler
	ArchiveHandler     *httpH.ArchiveHandler
	HealthHandler      *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 32 << 20
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/register", cfg.AuthHandler.Register)
			api.POST("/login", cfg.AuthHandler.Login)
			api.POST("/refresh", cfg.AuthHandler.Refresh)
			api.POST("/verify-email", cfg.AuthHandler.VerifyEmail)
			api.POST("/password-reset", cfg.AuthHandler.RequestPasswordReset)
			api.POST("/password-reset/confirm", cfg.AuthHandler.ConfirmPasswordReset)
		}
	}

	if cfg.AuthMiddleware == nil {
		return r
	}

	// Signed in, profile may still be incomplete.
	protected := api.Group("")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		if cfg.AuthHandler != nil {
			protected.POST("/logout", cfg.AuthHandler.Logout)
		}
		if cfg.ProfileHandler != nil {
			protected.GET("/profile", cfg.ProfileHandler.GetProfile)
			protected.PUT("/profile", cfg.ProfileHandler.UpdateProfile)
		}
	}

	guarded := protected.Group("")
	guarded.Use(cfg.AuthMiddleware.RequireCompleteProfile())
	{
		if cfg.ProfileHandler != nil {
			guarded.GET("/dashboard", cfg.ProfileHandler.Dashboard)
		}

		// Declarations
		if h := cfg.DeclarationHandler; h != nil {
			guarded.GET("/declarations", h.List)
			guarded.POST("/declarations", h.Create)
			guarded.POST("/declarations/parse-reference-pdf", h.ParseReferencePDF)
			guarded.GET("/declarations/:id", h.Get)
			guarded.PUT("/declarations/:id", h.Update)
			guarded.DELETE("/declarations/:id", h.Delete)
			guarded.GET("/declarations/:id/preview", h.Preview)
			guarded.POST("/declarations/:id/pdf", h.RegeneratePDF)
		}

		// Material presets
		if h := cfg.PresetHandler; h != nil {
			guarded.GET("/material-presets", h.List)
			guarded.POST("/material-presets", h.Create)
			guarded.PATCH("/material-presets/:id", h.SetActive)
			guarded.DELETE("/material-presets/:id", h.Delete)
		}

		// Archive
		if h := cfg.ArchiveHandler; h != nil {
			guarded.GET("/archive", h.List)
			guarded.POST("/archive", h.Upload)
			guarded.GET("/archive/:id", h.Get)
			guarded.DELETE("/archive/:id", h.Delete)
		}
	}

	return r
}
