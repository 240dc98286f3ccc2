package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/zahnovia-backend/internal/data/repos"
	types "github.com/yungbote/zahnovia-backend/internal/domain"
	"github.com/yungbote/zahnovia-backend/internal/platform/dbctx"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

const recentDeclarations = 5

type Dashboard struct {
	TotalDeclarations    int64                `json:"total_declarations"`
	DeclarationsThisYear int64                `json:"declarations_this_year"`
	ActivePresets        int64                `json:"active_presets"`
	ArchivedDocuments    int64                `json:"archived_documents"`
	Recent               []*types.Declaration `json:"recent_declarations"`
}

type DashboardService interface {
	Get(ctx context.Context) (*Dashboard, error)
}

type dashboardService struct {
	log             *logger.Logger
	declarationRepo repos.DeclarationRepo
	presetRepo      repos.MaterialPresetRepo
	documentRepo    repos.ArchivedDocumentRepo
	loc             *time.Location
	now             Clock
}

func NewDashboardService(
	log *logger.Logger,
	declarationRepo repos.DeclarationRepo,
	presetRepo repos.MaterialPresetRepo,
	documentRepo repos.ArchivedDocumentRepo,
	loc *time.Location,
	now Clock,
) DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = SystemClock
	}
	return &dashboardService{
		log:             log.With("service", "DashboardService"),
		declarationRepo: declarationRepo,
		presetRepo:      presetRepo,
		documentRepo:    documentRepo,
		loc:             loc,
		now:             now,
	}
}

// Get runs the independent counts concurrently.
func (ds *dashboardService) Get(ctx context.Context) (*Dashboard, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	local := ds.now().In(ds.loc)
	yearStart := time.Date(local.Year(), time.January, 1, 0, 0, 0, 0, ds.loc).UTC()

	out := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)
	dbc := dbctx.Context{Ctx: gctx}

	g.Go(func() (err error) {
		out.TotalDeclarations, err = ds.declarationRepo.CountByUser(dbc, userID, nil)
		return err
	})
	g.Go(func() (err error) {
		out.DeclarationsThisYear, err = ds.declarationRepo.CountByUser(dbc, userID, &yearStart)
		return err
	})
	g.Go(func() (err error) {
		out.ActivePresets, err = ds.presetRepo.CountActive(dbc, userID)
		return err
	})
	g.Go(func() (err error) {
		out.ArchivedDocuments, err = ds.documentRepo.Count(dbc, userID)
		return err
	})
	g.Go(func() (err error) {
		out.Recent, _, err = ds.declarationRepo.List(dbc, userID, recentDeclarations, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load dashboard: %w", err)
	}
	return out, nil
}
