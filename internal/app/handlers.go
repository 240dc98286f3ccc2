package app

import (
	"gorm.io/gorm"

	httpx "github.com/yungbote/zahnovia-backend/internal/http"
	httpH "github.com/yungbote/zahnovia-backend/internal/http/handlers"
	httpMW "github.com/yungbote/zahnovia-backend/internal/http/middleware"
	"github.com/yungbote/zahnovia-backend/internal/observability"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

func wireRouterConfig(db *gorm.DB, log *logger.Logger, cfg Config, s Services, metrics *observability.Metrics) httpx.RouterConfig {
	log.Info("Wiring handlers...")
	cookies := httpH.CookieConfig{Domain: cfg.Auth.CookieDomain, Secure: cfg.Auth.CookieSecure}
	return httpx.RouterConfig{
		Log:                log,
		ServiceName:        cfg.ServiceName,
		AllowedOrigins:     cfg.AllowedOrigins,
		Metrics:            metrics,
		AuthMiddleware:     httpMW.NewAuthMiddleware(log, s.Auth, s.Profile),
		AuthHandler:        httpH.NewAuthHandler(log, s.Auth, cookies),
		ProfileHandler:     httpH.NewProfileHandler(s.Profile, s.Dashboard),
		DeclarationHandler: httpH.NewDeclarationHandler(log, s.Declaration, s.Extraction, cfg.MaxUploadBytes),
		PresetHandler:      httpH.NewPresetHandler(s.Preset),
		ArchiveHandler:     httpH.NewArchiveHandler(s.Archive, cfg.MaxUploadBytes),
		HealthHandler:      httpH.NewHealthHandler(db),
	}
}
