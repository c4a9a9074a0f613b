// Package entrypoint wires the application together and manages the
// HTTP server lifecycle.
package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/reserve/internal/admin"
	auditservice "github.com/campuskit/reserve/internal/audit"
	"github.com/campuskit/reserve/internal/auth"
	"github.com/campuskit/reserve/internal/booking"
	"github.com/campuskit/reserve/internal/config"
	"github.com/campuskit/reserve/internal/database"
	auditdb "github.com/campuskit/reserve/internal/database/audit"
	"github.com/campuskit/reserve/internal/database/bookings"
	"github.com/campuskit/reserve/internal/database/resources"
	"github.com/campuskit/reserve/internal/database/users"
	"github.com/campuskit/reserve/internal/entities"
	http_controllers "github.com/campuskit/reserve/internal/http"
	"github.com/campuskit/reserve/internal/scheduler"
	"github.com/campuskit/reserve/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background workers before the HTTP listener
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Reserve v%s", version)

	if cfg.Auth.JWTSecret == "" {
		log.Fatalf("AUTH_JWT_SECRET is not set")
	}

	if cfg.Demo.Enabled {
		log.Printf("Demo mode enabled: write operations are disabled")
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Repositories
	userRepo := users.NewRepository(db.DB)
	resourceRepo := resources.NewRepository(db.DB)
	bookingRepo := bookings.NewRepository(db.DB)
	auditRepo := auditdb.NewRepository(db.DB)

	// Services
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenLifetime)
	authService := auth.NewService(userRepo, tokenManager, cfg.Auth)
	authMiddleware := auth.NewMiddleware(authService)
	bookingService := booking.NewService(db.DB, bookingRepo, resourceRepo)
	adminService := admin.NewService(db.DB, userRepo, resourceRepo, bookingRepo)
	auditService := auditservice.NewService(auditRepo)

	if err := seedAdmin(authService, userRepo, cfg.Bootstrap); err != nil {
		log.Fatalf("Failed to seed admin account: %v", err)
	}

	// Task queue for background maintenance
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var maintenance *scheduler.MaintenanceScheduler
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewExpireBookingsQueue(bookingService),
			tasks.NewCleanupAuditEventsQueue(auditRepo),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		maintenance = scheduler.NewMaintenanceScheduler(taskClient, cfg.Maintenance, cfg.Audit)
		if err := maintenance.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start maintenance scheduler: %v", err)
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		BookingService: bookingService,
		AdminService:   adminService,
		ResourceStore:  resourceRepo,
		AuditLogger:    auditService,
		AuditReader:    auditService,
		DemoMode:       cfg.Demo.Enabled,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

// seedAdmin creates the bootstrap administrator account when configured
// and no user with that username exists yet.
func seedAdmin(authService *auth.Service, userRepo *users.Repository, cfg config.Bootstrap) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		count, err := userRepo.Count()
		if err != nil {
			return err
		}
		if count == 0 {
			log.Printf("No users found. Set ADMIN_USERNAME/ADMIN_PASSWORD/ADMIN_EMAIL to bootstrap an administrator.")
		}
		return nil
	}

	if _, err := userRepo.GetByUsername(cfg.AdminUsername); err == nil {
		return nil
	} else if !errors.Is(err, database.ErrNotFound) {
		return err
	}

	email := cfg.AdminEmail
	if email == "" {
		email = cfg.AdminUsername + "@localhost.local"
	}

	_, err := authService.Register(auth.RegisterInput{
		Username: cfg.AdminUsername,
		Password: cfg.AdminPassword,
		Email:    email,
		Role:     entities.UserRoleAdmin,
	})
	if err != nil {
		return err
	}

	log.Printf("Created bootstrap administrator %q", cfg.AdminUsername)
	return nil
}
