package domain

import (
	"github.com/yungbote/zahnovia-backend/internal/domain/archive"
	"github.com/yungbote/zahnovia-backend/internal/domain/auth"
	"github.com/yungbote/zahnovia-backend/internal/domain/declaration"
	"github.com/yungbote/zahnovia-backend/internal/domain/user"
)

type (
	User                = user.User
	ManufacturerProfile = user.ManufacturerProfile
	UserToken           = auth.UserToken

	Declaration    = declaration.Declaration
	WorkItem       = declaration.WorkItem
	MaterialItem   = declaration.MaterialItem
	MaterialPreset = declaration.MaterialPreset

	ArchivedDocument = archive.Document
	ArchiveCategory  = archive.Category
)

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&User{},
		&UserToken{},
		&ManufacturerProfile{},
		&MaterialPreset{},
		&Declaration{},
		&WorkItem{},
		&MaterialItem{},
		&ArchivedDocument{},
	}
}
