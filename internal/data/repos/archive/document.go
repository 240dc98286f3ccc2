package archive

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/zahnovia-backend/internal/domain"
	"github.com/yungbote/zahnovia-backend/internal/platform/dbctx"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

type ListFilter struct {
	Category types.ArchiveCategory
	Year     int
	Limit    int
	Offset   int
}

type DocumentRepo interface {
	Create(dbc dbctx.Context, doc *types.ArchivedDocument) error
	GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*types.ArchivedDocument, error)
	GetByHash(dbc dbctx.Context, userID uuid.UUID, hash string) (*types.ArchivedDocument, error)
	List(dbc dbctx.Context, userID uuid.UUID, f ListFilter) ([]*types.ArchivedDocument, int64, error)
	Count(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	Delete(dbc dbctx.Context, userID, id uuid.UUID) error
}

type documentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	return &documentRepo{db: db, log: baseLog.With("repo", "ArchivedDocumentRepo")}
}

func (r *documentRepo) Create(dbc dbctx.Context, doc *types.ArchivedDocument) error {
	return dbc.Or(r.db).WithContext(dbc.Ctx).Create(doc).Error
}

func (r *documentRepo) GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*types.ArchivedDocument, error) {
	var doc types.ArchivedDocument
	if err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) GetByHash(dbc dbctx.Context, userID uuid.UUID, hash string) (*types.ArchivedDocument, error) {
	var doc types.ArchivedDocument
	if err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Where("user_id = ? AND content_hash = ?", userID, hash).
		First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) List(dbc dbctx.Context, userID uuid.UUID, f ListFilter) ([]*types.ArchivedDocument, int64, error) {
	q := dbc.Or(r.db).WithContext(dbc.Ctx).Model(&types.ArchivedDocument{}).Where("user_id = ?", userID)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Year > 0 {
		from := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		q = q.Where("uploaded_at >= ? AND uploaded_at < ?", from, from.AddDate(1, 0, 0))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	results := []*types.ArchivedDocument{}
	q = q.Order("uploaded_at DESC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *documentRepo) Count(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.Or(r.db).WithContext(dbc.Ctx).
		Model(&types.ArchivedDocument{}).
		Where("user_id = ?", userID).
		Count(&n).Error
	return n, err
}

func (r *documentRepo) Delete(dbc dbctx.Context, userID, id uuid.UUID) error {
	res := dbc.Or(r.db).WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&types.ArchivedDocument{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
