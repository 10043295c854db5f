package app

import (
	"github.com/yungbote/catalog-backend/internal/data/db"
	"github.com/yungbote/catalog-backend/internal/http/handlers"
	"github.com/yungbote/catalog-backend/internal/platform/blob"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

type Handlers struct {
	Item     *handlers.ItemHandler
	Category *handlers.CategoryHandler
	Storage  *handlers.StorageHandler
	Realtime *handlers.RealtimeHandler
	Health   *handlers.HealthHandler
}

func wireHandlers(log *logger.Logger, services Services, rt Realtime, store blob.Store, dbs *db.Service) Handlers {
	log.Info("Wiring handlers...")
	h := Handlers{
		Item:     handlers.NewItemHandler(services.Items),
		Category: handlers.NewCategoryHandler(services.Categories),
		Realtime: handlers.NewRealtimeHandler(rt.WS, rt.SSE),
		Health:   handlers.NewHealthHandler(dbs),
	}
	if store != nil {
		h.Storage = handlers.NewStorageHandler(store)
	}
	return h
}
