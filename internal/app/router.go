package app

import (
	httpserver "github.com/yungbote/catalog-backend/internal/http"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, h Handlers) *httpserver.Server {
	return httpserver.NewServer(httpserver.RouterConfig{
		Log:             log,
		ServiceName:     cfg.Otel.ServiceName,
		CORSOrigins:     cfg.CORSOrigins,
		EnableTraces:    cfg.Otel.Enabled,
		ItemHandler:     h.Item,
		CategoryHandler: h.Category,
		StorageHandler:  h.Storage,
		RealtimeHandler: h.Realtime,
		HealthHandler:   h.Health,
	})
}
