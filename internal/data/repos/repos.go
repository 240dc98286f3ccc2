package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/zahnovia-backend/internal/data/repos/archive"
	"github.com/yungbote/zahnovia-backend/internal/data/repos/auth"
	"github.com/yungbote/zahnovia-backend/internal/data/repos/declarations"
	"github.com/yungbote/zahnovia-backend/internal/data/repos/user"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type ProfileRepo = user.ProfileRepo
type UserTokenRepo = auth.UserTokenRepo

type DeclarationRepo = declarations.DeclarationRepo
type MaterialPresetRepo = declarations.MaterialPresetRepo

type ArchivedDocumentRepo = archive.DocumentRepo
type ArchiveListFilter = archive.ListFilter

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }
func NewProfileRepo(db *gorm.DB, log *logger.Logger) ProfileRepo {
	return user.NewProfileRepo(db, log)
}
func NewUserTokenRepo(db *gorm.DB, log *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, log)
}
func NewDeclarationRepo(db *gorm.DB, log *logger.Logger) DeclarationRepo {
	return declarations.NewDeclarationRepo(db, log)
}
func NewMaterialPresetRepo(db *gorm.DB, log *logger.Logger) MaterialPresetRepo {
	return declarations.NewMaterialPresetRepo(db, log)
}
func NewArchivedDocumentRepo(db *gorm.DB, log *logger.Logger) ArchivedDocumentRepo {
	return archive.NewDocumentRepo(db, log)
}
