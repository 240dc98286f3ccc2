package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/zahnovia-backend/internal/domain"
	"github.com/yungbote/zahnovia-backend/internal/platform/dbctx"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

type ProfileRepo interface {
	Create(dbc dbctx.Context, profile *types.ManufacturerProfile) error
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.ManufacturerProfile, error)
	Save(dbc dbctx.Context, profile *types.ManufacturerProfile) error
	MarkEmailVerified(dbc dbctx.Context, userID uuid.UUID) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	return &profileRepo{db: db, log: baseLog.With("repo", "ProfileRepo")}
}

func (r *profileRepo) Create(dbc dbctx.Context, profile *types.ManufacturerProfile) error {
	return dbc.Or(r.db).WithContext(dbc.Ctx).Create(profile).Error
}

func (r *profileRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.ManufacturerProfile, error) {
	var p types.ManufacturerProfile
	if err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes every column, including zero values.
func (r *profileRepo) Save(dbc dbctx.Context, profile *types.ManufacturerProfile) error {
	return dbc.Or(r.db).WithContext(dbc.Ctx).Save(profile).Error
}

func (r *profileRepo) MarkEmailVerified(dbc dbctx.Context, userID uuid.UUID) error {
	res := dbc.Or(r.db).WithContext(dbc.Ctx).
		Model(&types.ManufacturerProfile{}).
		Where("user_id = ?", userID).
		Update("email_verified", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
