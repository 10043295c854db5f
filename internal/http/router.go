package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/catalog-backend/internal/http/handlers"
	httpMW "github.com/yungbote/catalog-backend/internal/http/middleware"
	"github.com/yungbote/catalog-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log          *logger.Logger
	ServiceName  string
	CORSOrigins  []string
	EnableTraces bool

	ItemHandler     *httpH.ItemHandler
	CategoryHandler *httpH.CategoryHandler
	StorageHandler  *httpH.StorageHandler
	RealtimeHandler *httpH.RealtimeHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.EnableTraces {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	// Realtime (WebSocket)
	if cfg.RealtimeHandler != nil {
		r.GET("/ws/v1/items", cfg.RealtimeHandler.WebSocket)
	}

	api := r.Group("/api")
	{
		// Items
		if cfg.ItemHandler != nil {
			api.GET("/items", cfg.ItemHandler.List)
			api.GET("/items/:id", cfg.ItemHandler.Get)
			api.POST("/items", cfg.ItemHandler.Create)
			api.PUT("/items/:id", cfg.ItemHandler.Update)
			api.PATCH("/items/:id", cfg.ItemHandler.Update)
			api.DELETE("/items/:id", cfg.ItemHandler.Delete)
		}

		// Categories
		if cfg.CategoryHandler != nil {
			api.GET("/categories", cfg.CategoryHandler.List)
			api.GET("/categories/:id", cfg.CategoryHandler.Get)
			api.POST("/categories", cfg.CategoryHandler.Create)
			api.PUT("/categories/:id", cfg.CategoryHandler.Update)
			api.PATCH("/categories/:id", cfg.CategoryHandler.Update)
			api.DELETE("/categories/:id", cfg.CategoryHandler.Delete)
		}

		// Storage
		if cfg.StorageHandler != nil {
			api.GET("/storage", cfg.StorageHandler.List)
			api.POST("/storage", cfg.StorageHandler.Upload)
			api.GET("/storage/:filename", cfg.StorageHandler.Serve)
			api.DELETE("/storage/:filename", cfg.StorageHandler.Delete)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			api.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
		}
	}

	return r
}
