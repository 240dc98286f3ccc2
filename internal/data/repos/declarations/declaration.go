package declarations

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/zahnovia-backend/internal/domain"
	"github.com/yungbote/zahnovia-backend/internal/platform/dbctx"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

type DeclarationRepo interface {
	// Create inserts the parent row only; children go through CreateItems.
	Create(dbc dbctx.Context, d *types.Declaration) error
	CreateItems(dbc dbctx.Context, work []types.WorkItem, materials []types.MaterialItem) error
	ReplaceItems(dbc dbctx.Context, declarationID uuid.UUID, work []types.WorkItem, materials []types.MaterialItem) error
	UpdateFields(dbc dbctx.Context, d *types.Declaration) error
	SetPDF(dbc dbctx.Context, id uuid.UUID, url *string, fileID string) error

	// LatestNumber returns the highest number with the given prefix for the
	// owner, or "" when there is none.
	LatestNumber(dbc dbctx.Context, userID uuid.UUID, prefix string) (string, error)

	GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*types.Declaration, error)
	List(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]*types.Declaration, int64, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID, since *time.Time) (int64, error)
	Delete(dbc dbctx.Context, userID, id uuid.UUID) error
}

type declarationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeclarationRepo(db *gorm.DB, baseLog *logger.Logger) DeclarationRepo {
	return &declarationRepo{db: db, log: baseLog.With("repo", "DeclarationRepo")}
}

func (r *declarationRepo) Create(dbc dbctx.Context, d *types.Declaration) error {
	return dbc.Or(r.db).WithContext(dbc.Ctx).Omit(clause.Associations).Create(d).Error
}

func (r *declarationRepo) CreateItems(dbc dbctx.Context, work []types.WorkItem, materials []types.MaterialItem) error {
	transaction := dbc.Or(r.db).WithContext(dbc.Ctx)
	if len(work) > 0 {
		if err := transaction.Create(&work).Error; err != nil {
			return err
		}
	}
	if len(materials) > 0 {
		if err := transaction.Omit("Preset").Create(&materials).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *declarationRepo) ReplaceItems(dbc dbctx.Context, declarationID uuid.UUID, work []types.WorkItem, materials []types.MaterialItem) error {
	transaction := dbc.Or(r.db).WithContext(dbc.Ctx)
	if err := transaction.Where("declaration_id = ?", declarationID).Delete(&types.WorkItem{}).Error; err != nil {
		return err
	}
	if err := transaction.Where("declaration_id = ?", declarationID).Delete(&types.MaterialItem{}).Error; err != nil {
		return err
	}
	return r.CreateItems(dbc, work, materials)
}

// UpdateFields writes the editable header columns. The number is never
// touched.
func (r *declarationRepo) UpdateFields(dbc dbctx.Context, d *types.Declaration) error {
	res := dbc.Or(r.db).WithContext(dbc.Ctx).
		Model(&types.Declaration{}).
		Where("id = ? AND user_id = ?", d.ID, d.UserID).
		Updates(map[string]interface{}{
			"job_number":       d.JobNumber,
			"patient_name":     d.PatientName,
			"manufacture_date": d.ManufactureDate,
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *declarationRepo) SetPDF(dbc dbctx.Context, id uuid.UUID, url *string, fileID string) error {
	return dbc.Or(r.db).WithContext(dbc.Ctx).
		Model(&types.Declaration{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"pdf_url":     url,
			"pdf_file_id": fileID,
		}).Error
}

func (r *declarationRepo) LatestNumber(dbc dbctx.Context, userID uuid.UUID, prefix string) (string, error) {
	var numbers []string
	if err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Model(&types.Declaration{}).
		Where("user_id = ? AND number LIKE ?", userID, prefix+"%").
		Order("LENGTH(number) DESC").
		Order("number DESC").
		Limit(1).
		Pluck("number", &numbers).Error; err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

func (r *declarationRepo) GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*types.Declaration, error) {
	var d types.Declaration
	if err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Preload("WorkItems", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		Preload("MaterialItems", func(db *gorm.DB) *gorm.DB { return db.Order("line_number ASC") }).
		Where("id = ? AND user_id = ?", id, userID).
		First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *declarationRepo) List(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]*types.Declaration, int64, error) {
	transaction := dbc.Or(r.db).WithContext(dbc.Ctx)

	var total int64
	if err := transaction.Model(&types.Declaration{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	results := []*types.Declaration{}
	q := transaction.Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *declarationRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID, since *time.Time) (int64, error) {
	q := dbc.Or(r.db).WithContext(dbc.Ctx).Model(&types.Declaration{}).Where("user_id = ?", userID)
	if since != nil {
		q = q.Where("created_at >= ?", *since)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Delete removes the declaration and every child row. Foreign keys are not
// created by the migrations, so the children are removed explicitly.
func (r *declarationRepo) Delete(dbc dbctx.Context, userID, id uuid.UUID) error {
	transaction := dbc.Or(r.db).WithContext(dbc.Ctx)

	var count int64
	if err := transaction.Model(&types.Declaration{}).Where("id = ? AND user_id = ?", id, userID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	if err := transaction.Where("declaration_id = ?", id).Delete(&types.WorkItem{}).Error; err != nil {
		return err
	}
	if err := transaction.Where("declaration_id = ?", id).Delete(&types.MaterialItem{}).Error; err != nil {
		return err
	}
	return transaction.Where("id = ? AND user_id = ?", id, userID).Delete(&types.Declaration{}).Error
}
