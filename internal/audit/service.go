// Package audit records security- and administration-relevant actions.
package audit

import (
	"log"

	"github.com/campuskit/reserve/internal/database/audit"
	"github.com/campuskit/reserve/internal/entities"
)

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(event *entities.AuditEvent) error {
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	go func() {
		if err := s.repo.LogEvent(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// LogAction records an event for an action against an entity. A nil err
// marks the event successful; otherwise the message is captured.
func (s *Service) LogAction(userID uint, eventType entities.AuditEventType, action, description, entityType string, entityID *uint, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   eventType,
		Action:      action,
		Description: description,
		EntityType:  entityType,
		EntityID:    entityID,
		Status:      entities.AuditStatusSuccess,
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(event)
}

// Events returns paginated audit events, most recent first.
func (s *Service) Events(userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(userID, limit, offset)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
