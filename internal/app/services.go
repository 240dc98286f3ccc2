package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/zahnovia-backend/internal/modules/declarations/document"
	"github.com/yungbote/zahnovia-backend/internal/modules/declarations/extraction"
	"github.com/yungbote/zahnovia-backend/internal/observability"
	"github.com/yungbote/zahnovia-backend/internal/platform/gcp"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
	"github.com/yungbote/zahnovia-backend/internal/platform/mailer"
	"github.com/yungbote/zahnovia-backend/internal/platform/pdftext"
	"github.com/yungbote/zahnovia-backend/internal/platform/tokenstore"
	"github.com/yungbote/zahnovia-backend/internal/services"
)

type Services struct {
	Auth        services.AuthService
	Profile     services.ProfileService
	Dashboard   services.DashboardService
	Declaration services.DeclarationService
	Extraction  services.ExtractionService
	Preset      services.PresetService
	Archive     services.ArchiveService

	// closers release external clients on shutdown.
	closers []func() error
}

func wireServices(ctx context.Context, db *gorm.DB, log *logger.Logger, cfg Config, r Repos, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")
	var out Services

	loc, err := services.LoadLocation(cfg.TimeZone)
	if err != nil {
		return out, err
	}
	creds := gcp.CredentialsFromEnv()

	store, rootFolderID, err := resolveCloudStore(ctx, log, cfg.Storage, creds)
	if err != nil {
		return out, err
	}
	storage := services.StorageConfig{
		RootFolderID: rootFolderID,
		Timeout:      cfg.Storage.Timeout,
		Metrics:      metrics,
	}

	mail, err := mailer.New(ctx, log, cfg.Mail, creds)
	if err != nil {
		return out, fmt.Errorf("init mailer: %w", err)
	}
	notifier := services.NewAccountNotifier(log, mail, services.NotifierConfig{
		FrontendURL: cfg.FrontendURL,
		AdminEmail:  cfg.AdminEmail,
		Location:    loc,
	})

	var links tokenstore.Store
	if cfg.Redis.Addr != "" {
		log.Info("Using redis token store", "addr", cfg.Redis.Addr)
		links = tokenstore.NewRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	} else {
		log.Warn("REDIS_ADDR not set; verification links live in process memory")
		links = tokenstore.NewMemory()
	}

	var ocr pdftext.OCR
	if cfg.DocumentAI.Enabled() {
		docOCR, err := gcp.NewDocumentOCR(ctx, log, cfg.DocumentAI, creds)
		if err != nil {
			return out, fmt.Errorf("init document ai: %w", err)
		}
		out.closers = append(out.closers, docOCR.Close)
		ocr = docOCR
	} else {
		log.Info("Document AI not configured; scanned reference PDFs yield no fields")
	}

	renderer, err := document.NewRenderer(log, cfg.FontPath)
	if err != nil {
		return out, fmt.Errorf("init renderer: %w", err)
	}

	out.Auth = services.NewAuthService(db, log, r.User, r.Profile, r.UserToken, links, notifier, services.AuthConfig{
		JWTSecretKey: cfg.Auth.JWTSecretKey,
		AccessTTL:    cfg.Auth.AccessTokenTTL,
		RefreshTTL:   cfg.Auth.RefreshTokenTTL,
	}, nil)
	out.Profile = services.NewProfileService(log, r.User, r.Profile)
	out.Dashboard = services.NewDashboardService(log, r.Declaration, r.Preset, r.Archive, loc, nil)
	out.Declaration = services.NewDeclarationService(db, log, r.Declaration, r.Preset, r.Profile, renderer, store,
		services.DeclarationConfig{Location: loc, Storage: storage}, nil)
	out.Extraction = services.NewExtractionService(log, pdftext.New(log, ocr), extraction.New())
	out.Preset = services.NewPresetService(db, log, r.Preset)
	out.Archive = services.NewArchiveService(log, r.Archive, store, storage)
	return out, nil
}

func (s Services) Close() {
	for _, c := range s.closers {
		_ = c()
	}
}
