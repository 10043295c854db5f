package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/catalog-backend/internal/data/repos/catalog"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

type Repos struct {
	Item     catalog.ItemRepo
	Category catalog.CategoryRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Item:     catalog.NewItemRepo(db, log),
		Category: catalog.NewCategoryRepo(db, log),
	}
}
