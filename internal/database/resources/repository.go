// Package resources provides database operations for bookable resources.
package resources

import (
	"errors"

	"gorm.io/gorm"

	"github.com/campuskit/reserve/internal/database"
	"github.com/campuskit/reserve/internal/entities"
)

// Repository handles all resource database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new resource repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new resource record.
func (r *Repository) Create(resource *entities.Resource) error {
	return r.db.Create(resource).Error
}

// GetByID retrieves a resource by ID.
func (r *Repository) GetByID(id uint) (*entities.Resource, error) {
	var resource entities.Resource
	err := r.db.First(&resource, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &resource, nil
}

// GetAll returns all resources, optionally filtered by category.
func (r *Repository) GetAll(category string) ([]entities.Resource, error) {
	var resources []entities.Resource
	query := r.db.Order("id ASC")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	err := query.Find(&resources).Error
	return resources, err
}

// Update applies the supplied fields to a resource and returns the result.
// Unspecified fields are left unchanged.
func (r *Repository) Update(id uint, updates map[string]any) (*entities.Resource, error) {
	result := r.db.Model(&entities.Resource{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, database.ErrNotFound
	}
	return r.GetByID(id)
}

// Delete removes a resource by ID.
func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Resource{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return database.ErrNotFound
	}
	return nil
}

// Count returns the total number of resources.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Resource{}).Count(&count).Error
	return count, err
}

// CountByCategory returns resource counts grouped by category.
func (r *Repository) CountByCategory() (map[string]int64, error) {
	type row struct {
		Category string
		Count    int64
	}
	var rows []row
	err := r.db.Model(&entities.Resource{}).
		Select("category, COUNT(*) as count").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Category] = rw.Count
	}
	return counts, nil
}
