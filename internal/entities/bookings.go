package entities

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "Pending"
	BookingStatusConfirmed BookingStatus = "Confirmed"
	BookingStatusCancelled BookingStatus = "Cancelled"
)

// ValidBookingStatus reports whether s is a known booking status.
func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

type Booking struct {
	ID         uint          `gorm:"primaryKey" json:"id"`
	UserID     uint          `gorm:"index" json:"user_id"`
	ResourceID uint          `gorm:"index" json:"resource_id"`
	StartTime  time.Time     `gorm:"index" json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Purpose    string        `gorm:"size:500" json:"purpose,omitempty"`
	Status     BookingStatus `gorm:"size:20;default:'Pending'" json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`

	// Display fields filled by join queries, not persisted columns.
	ResourceName string `gorm:"->;-:migration" json:"resource_name,omitempty"`
	Username     string `gorm:"->;-:migration" json:"username,omitempty"`
}

// Overlaps reports whether the booking's [start, end) interval intersects
// the given one. Touching endpoints do not count as an overlap.
func (b Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

// Active reports whether the booking still occupies its time slot.
func (b Booking) Active() bool {
	return b.Status != BookingStatusCancelled
}
