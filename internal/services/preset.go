package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/zahnovia-backend/internal/data/repos"
	types "github.com/yungbote/zahnovia-backend/internal/domain"
	"github.com/yungbote/zahnovia-backend/internal/domain/declaration"
	"github.com/yungbote/zahnovia-backend/internal/platform/dbctx"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

const ceStatusDefault = "Ja"

type PresetInput struct {
	Name                 string `json:"name" validate:"max=200"`
	Material             string `json:"material" validate:"required,max=200"`
	Manufacturer         string `json:"manufacturer" validate:"max=200"`
	Composition          string `json:"composition" validate:"max=500"`
	LotNumber            string `json:"lot_number" validate:"max=100"`
	CEStatus             string `json:"ce_status" validate:"omitempty,oneof=Ja Nein"`
	DeviceIdentification string `json:"device_identification" validate:"max=200"`
}

type PresetService interface {
	Create(ctx context.Context, in PresetInput) (*types.MaterialPreset, error)
	List(ctx context.Context, activeOnly bool) ([]*types.MaterialPreset, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type presetService struct {
	db         *gorm.DB
	log        *logger.Logger
	presetRepo repos.MaterialPresetRepo
}

func NewPresetService(db *gorm.DB, log *logger.Logger, presetRepo repos.MaterialPresetRepo) PresetService {
	return &presetService{db: db, log: log.With("service", "PresetService"), presetRepo: presetRepo}
}

func (ps *presetService) Create(ctx context.Context, in PresetInput) (*types.MaterialPreset, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Material = strings.TrimSpace(in.Material)
	in.Manufacturer = strings.TrimSpace(in.Manufacturer)
	in.Composition = strings.TrimSpace(in.Composition)
	in.LotNumber = strings.TrimSpace(in.LotNumber)
	in.CEStatus = strings.TrimSpace(in.CEStatus)
	in.DeviceIdentification = strings.TrimSpace(in.DeviceIdentification)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.CEStatus == "" {
		in.CEStatus = ceStatusDefault
	}
	if in.Name == "" {
		in.Name = declaration.DefaultPresetName(in.Material, in.Manufacturer)
	}

	p := &types.MaterialPreset{
		UserID:               userID,
		Name:                 in.Name,
		Material:             in.Material,
		Manufacturer:         in.Manufacturer,
		Composition:          in.Composition,
		LotNumber:            in.LotNumber,
		CEStatus:             in.CEStatus,
		DeviceIdentification: in.DeviceIdentification,
		IsActive:             true,
	}
	if err := ps.presetRepo.Create(dbctx.Context{Ctx: ctx}, p); err != nil {
		return nil, fmt.Errorf("create preset: %w", err)
	}
	ps.log.Info("Preset created", "user_id", userID, "preset_id", p.ID)
	return p, nil
}

func (ps *presetService) List(ctx context.Context, activeOnly bool) ([]*types.MaterialPreset, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	presets, err := ps.presetRepo.List(dbctx.Context{Ctx: ctx}, userID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	return presets, nil
}

func (ps *presetService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}
	if err := ps.presetRepo.SetActive(dbctx.Context{Ctx: ctx}, userID, id, active); err != nil {
		return notFound(err, "preset")
	}
	return nil
}

// Delete is owner-scoped. Material items that used the preset keep their
// copied values and lose only the reference.
func (ps *presetService) Delete(ctx context.Context, id uuid.UUID) error {
	userID, err := requestUserID(ctx)
	if err != nil {
		return err
	}
	err = ps.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return ps.presetRepo.Delete(dbctx.Context{Ctx: ctx, Tx: tx}, userID, id)
	})
	if err != nil {
		return notFound(err, "preset")
	}
	ps.log.Info("Preset deleted", "user_id", userID, "preset_id", id)
	return nil
}
