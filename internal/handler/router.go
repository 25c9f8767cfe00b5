package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/glowtrack/glowtrack-api/internal/middleware"
	"github.com/glowtrack/glowtrack-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth         *AuthHandler
	Photos       *PhotoHandler
	Achievements *AchievementHandler
	Analyses     *AnalysisHandler
	Records      *RecordHandler
	Reports      *ReportHandler
	Metrics      *MetricsHandler
}

// RegisterRoutes mounts all API routes under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService, metrics *service.MetricsService) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.Metrics(metrics))

	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)

	// Signed links carry their own authorization.
	api.GET("/files", h.Photos.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))

	protected.GET("/auth/me", h.Auth.Profile)

	protected.POST("/photos", h.Photos.Capture)
	protected.GET("/photos", h.Photos.List)
	protected.GET("/photos/:id", h.Photos.Get)
	protected.PATCH("/photos/:id", h.Photos.Update)
	protected.DELETE("/photos/:id", h.Photos.Delete)
	protected.GET("/photos/:id/url", h.Photos.SignedURL)

	// Analysis endpoints are optional (ENABLE_ANALYSIS).
	if h.Analyses != nil {
		protected.POST("/photos/:id/analyses", h.Analyses.Analyze)
		protected.GET("/photos/:id/analyses", h.Analyses.ByPhoto)
		protected.GET("/analyses/latest", h.Analyses.Latest)
		protected.GET("/analyses/:id", h.Analyses.Get)
	}

	protected.GET("/achievements", h.Achievements.List)
	protected.GET("/achievements/unlocked", h.Achievements.Unlocked)

	protected.POST("/records", h.Records.Create)
	protected.GET("/records", h.Records.List)
	protected.GET("/records/:id", h.Records.Get)
	protected.DELETE("/records/:id", h.Records.Delete)

	protected.GET("/storage/stats", h.Photos.Stats)
	protected.GET("/storage/info", h.Photos.StorageInfo)
	protected.POST("/storage/cleanup", h.Photos.Cleanup)

	protected.GET("/reports/photo-history", h.Reports.PhotoHistory)
	protected.GET("/reports/progress", h.Reports.ProgressSummary)

	protected.GET("/metrics/snapshot", h.Metrics.Snapshot)
}
