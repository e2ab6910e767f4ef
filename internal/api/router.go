package api

import (
	"github.com/gin-gonic/gin"
	"github.com/schnitzlab/curator/internal/api/handler"
	"github.com/schnitzlab/curator/internal/api/middleware"
	"github.com/schnitzlab/curator/internal/config"
	"github.com/schnitzlab/curator/internal/logger"
	"github.com/schnitzlab/curator/internal/service"
)

// RouterDeps bundles everything the router wires into handlers.
type RouterDeps struct {
	Catalog   *service.CatalogService
	Queue     *service.QueueService
	Cooccur   *service.CooccurrenceService
	Pipeline  *service.Pipeline
	Corrector service.TitleCorrector
	Logger    *logger.Logger
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(cfg *config.Config, deps *RouterDeps) *gin.Engine {
	// Set Gin mode
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(deps.Logger))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	sourceHandler := handler.NewSourceHandler(deps.Catalog, deps.Cooccur)
	tagHandler := handler.NewTagHandler(deps.Catalog, deps.Cooccur)
	statsHandler := handler.NewStatsHandler(deps.Catalog)
	adminSourceHandler := handler.NewAdminSourceHandler(deps.Catalog, deps.Corrector)
	adminQueryHandler := handler.NewAdminQueryHandler(deps.Queue, deps.Pipeline)

	// Health check
	r.GET("/health", healthHandler.Health)

	// Public API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Sources
		v1.GET("/sources", sourceHandler.ListSources)
		v1.GET("/sources/:id", sourceHandler.GetSource)
		v1.GET("/sources/:id/similar", sourceHandler.SimilarSources)

		// Tags
		v1.GET("/tags", tagHandler.ListTags)
		v1.GET("/tags/:tag/related", tagHandler.RelatedTags)

		// Stats
		v1.GET("/stats", statsHandler.GetStats)
	}

	// Admin routes, bearer-token guarded
	admin := v1.Group("/admin", middleware.AdminAuth(cfg.Admin.Token))
	{
		admin.POST("/sources", adminSourceHandler.CreateSource)
		admin.DELETE("/sources", adminSourceHandler.DeleteAllSources)
		admin.POST("/sources/preview", adminSourceHandler.PreviewSource) // More specific route before :id
		admin.PUT("/sources/:id", adminSourceHandler.UpdateSource)
		admin.DELETE("/sources/:id", adminSourceHandler.DeleteSource)
		admin.POST("/sources/:id/correct-title", adminSourceHandler.CorrectTitle)

		admin.GET("/queries", adminQueryHandler.ListQueries)
		admin.POST("/queries", adminQueryHandler.CreateQuery)
		admin.POST("/queries/generate", adminQueryHandler.GenerateQueries) // More specific route before :id
		admin.PUT("/queries/:id", adminQueryHandler.UpdateQuery)
		admin.DELETE("/queries/:id", adminQueryHandler.DeleteQuery)
		admin.POST("/queries/:id/process", adminQueryHandler.ProcessQuery)
		admin.POST("/queries/:id/cancel", adminQueryHandler.CancelQuery)
		admin.GET("/queries/:id/status", adminQueryHandler.QueryStatus)
	}

	return r
}
