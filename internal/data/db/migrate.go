package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/catalog-backend/internal/domain/catalog"
)

// AutoMigrateAll creates or updates the catalog tables. Categories come first
// because items reference them.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&catalog.Category{},
		&catalog.Item{},
	)
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating catalog tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}
