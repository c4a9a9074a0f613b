package entities

import "time"

// ResourceStatus is an administrative flag. Time-slot availability is
// always derived from the booking overlap query; the booking path never
// writes this field. "Booked" is retained for administrator use.
type ResourceStatus string

const (
	ResourceStatusAvailable   ResourceStatus = "Available"
	ResourceStatusBooked      ResourceStatus = "Booked"
	ResourceStatusMaintenance ResourceStatus = "Maintenance"
)

// ValidResourceStatus reports whether s is a known resource status.
func ValidResourceStatus(s ResourceStatus) bool {
	switch s {
	case ResourceStatusAvailable, ResourceStatusBooked, ResourceStatusMaintenance:
		return true
	}
	return false
}

type Resource struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"index;size:255" json:"name"`
	Category    string         `gorm:"index;size:100" json:"category"`
	Description string         `gorm:"type:text" json:"description,omitempty"`
	Status      ResourceStatus `gorm:"size:20;default:'Available'" json:"status"`
	Location    string         `gorm:"size:255" json:"location,omitempty"`
	Capacity    int            `json:"capacity,omitempty"`
	ImageURL    string         `gorm:"size:2048" json:"image_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
