package declarations

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/zahnovia-backend/internal/domain"
	"github.com/yungbote/zahnovia-backend/internal/platform/dbctx"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

type MaterialPresetRepo interface {
	Create(dbc dbctx.Context, preset *types.MaterialPreset) error
	List(dbc dbctx.Context, userID uuid.UUID, activeOnly bool) ([]*types.MaterialPreset, error)
	GetByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.MaterialPreset, error)
	SetActive(dbc dbctx.Context, userID, id uuid.UUID, active bool) error
	CountActive(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	// Delete removes the preset and clears references from material items.
	Delete(dbc dbctx.Context, userID, id uuid.UUID) error
}

type materialPresetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMaterialPresetRepo(db *gorm.DB, baseLog *logger.Logger) MaterialPresetRepo {
	return &materialPresetRepo{db: db, log: baseLog.With("repo", "MaterialPresetRepo")}
}

func (r *materialPresetRepo) Create(dbc dbctx.Context, preset *types.MaterialPreset) error {
	return dbc.Or(r.db).WithContext(dbc.Ctx).Create(preset).Error
}

func (r *materialPresetRepo) List(dbc dbctx.Context, userID uuid.UUID, activeOnly bool) ([]*types.MaterialPreset, error) {
	q := dbc.Or(r.db).WithContext(dbc.Ctx).Where("user_id = ?", userID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	results := []*types.MaterialPreset{}
	if err := q.Order("name ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *materialPresetRepo) GetByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.MaterialPreset, error) {
	results := []*types.MaterialPreset{}
	if len(ids) == 0 {
		return results, nil
	}
	if err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *materialPresetRepo) SetActive(dbc dbctx.Context, userID, id uuid.UUID, active bool) error {
	res := dbc.Or(r.db).WithContext(dbc.Ctx).
		Model(&types.MaterialPreset{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *materialPresetRepo) CountActive(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Model(&types.MaterialPreset{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&n).Error
	return n, err
}

func (r *materialPresetRepo) Delete(dbc dbctx.Context, userID, id uuid.UUID) error {
	transaction := dbc.Or(r.db).WithContext(dbc.Ctx)
	res := transaction.Where("id = ? AND user_id = ?", id, userID).Delete(&types.MaterialPreset{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return transaction.Model(&types.MaterialItem{}).
		Where("preset_id = ?", id).
		Update("preset_id", nil).Error
}
