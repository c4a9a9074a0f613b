package http

import (
	"github.com/gin-gonic/gin"

	"github.com/campuskit/reserve/internal/admin"
	"github.com/campuskit/reserve/internal/auth"
	"github.com/campuskit/reserve/internal/booking"
	"github.com/campuskit/reserve/internal/database"
	"github.com/campuskit/reserve/internal/database/resources"
	"github.com/campuskit/reserve/internal/demo"
)

// RouterConfig carries all router dependencies to keep wiring explicit
// and testable.
type RouterConfig struct {
	Database       *database.Database
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	BookingService *booking.Service
	AdminService   *admin.Service
	ResourceStore  *resources.Repository
	AuditLogger    AuditLogger
	AuditReader    AuditReader
	DemoMode       bool
	Version        string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(demo.NewMiddleware(cfg.DemoMode).Handler())

	health := NewHealthController(cfg.Database, cfg.Version)
	users := NewUsersController(cfg.AuthService, cfg.AuditLogger)
	resourcesController := NewResourcesController(cfg.ResourceStore, cfg.AuditLogger)
	bookings := NewBookingsController(cfg.BookingService, cfg.AuditLogger)
	adminController := NewAdminController(cfg.AdminService, cfg.AuditLogger, cfg.AuditReader)

	requireAuth := cfg.AuthMiddleware.RequireAuth()
	requireAdmin := cfg.AuthMiddleware.RequireAdmin()

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	api := router.Group("/api")

	// User endpoints
	api.POST("/users", users.Register)
	api.POST("/users/login", users.Login)
	api.GET("/users/profile", requireAuth, users.GetProfile)
	api.PUT("/users/profile", requireAuth, users.UpdateProfile)
	api.PUT("/users/change-password", requireAuth, users.ChangePassword)

	// Resource endpoints: browsing is public, mutation is admin-only
	api.GET("/resources", resourcesController.List)
	api.GET("/resources/:id", resourcesController.Get)
	api.POST("/resources", requireAuth, requireAdmin, resourcesController.Create)
	api.PUT("/resources/:id", requireAuth, requireAdmin, resourcesController.Update)
	api.DELETE("/resources/:id", requireAuth, requireAdmin, resourcesController.Delete)

	// Booking endpoints
	api.POST("/bookings", requireAuth, bookings.Create)
	api.GET("/bookings/my-bookings", requireAuth, bookings.ListMine)
	api.GET("/bookings", requireAuth, requireAdmin, bookings.ListAll)
	api.GET("/bookings/:id", requireAuth, bookings.Get)
	api.DELETE("/bookings/:id", requireAuth, bookings.Cancel)
	api.PUT("/bookings/:id/status", requireAuth, requireAdmin, bookings.UpdateStatus)

	// Admin endpoints
	adminGroup := api.Group("/admin", requireAuth, requireAdmin)
	adminGroup.GET("/stats", adminController.Stats)
	adminGroup.GET("/users", adminController.ListUsers)
	adminGroup.DELETE("/users/:id", adminController.DeleteUser)
	adminGroup.PUT("/users/:id/role", adminController.SetRole)
	adminGroup.GET("/audit", adminController.AuditLog)

	return router
}
