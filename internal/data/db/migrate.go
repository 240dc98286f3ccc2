package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/zahnovia-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return err
	}
	return EnsureIndexes(db)
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Running auto migrations")
	return AutoMigrateAll(s.db)
}

// EnsureIndexes creates the listing indexes gorm tags cannot express.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_declaration_user_created ON declaration (user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_archived_document_user_uploaded ON archived_document (user_id, uploaded_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_material_preset_user_active ON material_preset (user_id, is_active)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure index: %w", err)
		}
	}
	return nil
}
