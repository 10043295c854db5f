package app

import (
	domain "github.com/yungbote/catalog-backend/internal/domain/catalog"
	"github.com/yungbote/catalog-backend/internal/platform/cache"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
	"github.com/yungbote/catalog-backend/internal/services"
)

type Services struct {
	Validator   *services.Validator
	Broadcaster services.Broadcaster
	Categories  services.CategoryService
	Items       services.ItemService

	ItemCache     *cache.Store[*domain.Item]
	CategoryCache *cache.Store[*domain.Category]
}

func wireServices(log *logger.Logger, cfg Config, repos Repos, out services.Enqueuer) Services {
	log.Info("Wiring services...")
	itemCache := cache.New[*domain.Item]("items", cfg.CacheTTL, (*domain.Item).Clone, log)
	categoryCache := cache.New[*domain.Category]("categories", cfg.CacheTTL, (*domain.Category).Clone, log)

	validator := services.NewValidator(repos.Item, repos.Category)
	broadcaster := services.NewBroadcaster(log, out)
	categories := services.NewCategoryService(log, repos.Category, validator, categoryCache, broadcaster)
	items := services.NewItemService(log, repos.Item, validator, categories, itemCache, broadcaster)

	return Services{
		Validator:     validator,
		Broadcaster:   broadcaster,
		Categories:    categories,
		Items:         items,
		ItemCache:     itemCache,
		CategoryCache: categoryCache,
	}
}
