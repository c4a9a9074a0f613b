// Package scheduler enqueues periodic maintenance tasks on cron
// schedules.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/campuskit/reserve/internal/config"
	"github.com/campuskit/reserve/internal/tasks"
)

// MaintenanceScheduler periodically enqueues booking expiry and audit
// cleanup tasks.
type MaintenanceScheduler struct {
	taskClient *tasks.Client
	cfg        config.Maintenance
	audit      config.Audit

	cron       *cron.Cron
	mu         sync.Mutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewMaintenanceScheduler creates a new scheduler instance.
func NewMaintenanceScheduler(taskClient *tasks.Client, cfg config.Maintenance, auditCfg config.Audit) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		taskClient: taskClient,
		cfg:        cfg,
		audit:      auditCfg,
		cron:       cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if maintenance is enabled.
func (s *MaintenanceScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.cfg.Enabled || s.taskClient == nil {
		log.Printf("Maintenance scheduler: disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.cfg.ExpirySchedule, func() {
		if _, err := s.taskClient.Add(tasks.ExpireBookingsTask{}).Save(); err != nil {
			log.Printf("Failed to enqueue booking expiry task: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid booking expiry schedule '%s': %w", s.cfg.ExpirySchedule, err)
	}

	_, err = s.cron.AddFunc(s.cfg.AuditSchedule, func() {
		task := tasks.CleanupAuditEventsTask{RetentionDays: s.audit.RetentionDays}
		if _, err := s.taskClient.Add(task).Save(); err != nil {
			log.Printf("Failed to enqueue audit cleanup task: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid audit cleanup schedule '%s': %w", s.cfg.AuditSchedule, err)
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Maintenance scheduler: started (expiry '%s', audit cleanup '%s')",
		s.cfg.ExpirySchedule, s.cfg.AuditSchedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *MaintenanceScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	if s.cancelFunc != nil {
		s.cancelFunc()
	}

	s.isRunning = false
	log.Printf("Maintenance scheduler: stopped")
}
