package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/zahnovia-backend/internal/data/repos"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

type Repos struct {
	User        repos.UserRepo
	Profile     repos.ProfileRepo
	UserToken   repos.UserTokenRepo
	Declaration repos.DeclarationRepo
	Preset      repos.MaterialPresetRepo
	Archive     repos.ArchivedDocumentRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:        repos.NewUserRepo(db, log),
		Profile:     repos.NewProfileRepo(db, log),
		UserToken:   repos.NewUserTokenRepo(db, log),
		Declaration: repos.NewDeclarationRepo(db, log),
		Preset:      repos.NewMaterialPresetRepo(db, log),
		Archive:     repos.NewArchivedDocumentRepo(db, log),
	}
}
