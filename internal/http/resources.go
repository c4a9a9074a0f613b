package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/reserve/internal/auth"
	"github.com/campuskit/reserve/internal/database"
	"github.com/campuskit/reserve/internal/database/resources"
	"github.com/campuskit/reserve/internal/entities"
)

// ResourcesController exposes resource browsing and admin-only CRUD.
type ResourcesController struct {
	store *resources.Repository
	audit AuditLogger
}

func NewResourcesController(store *resources.Repository, auditLogger AuditLogger) *ResourcesController {
	return &ResourcesController{store: store, audit: auditLogger}
}

// List returns all resources, optionally filtered by category.
// GET /api/resources
func (rc *ResourcesController) List(c *gin.Context) {
	items, err := rc.store.GetAll(c.Query("category"))
	if err != nil {
		respondInternalError(c, err, "list resources")
		return
	}
	if items == nil {
		items = []entities.Resource{}
	}
	c.JSON(http.StatusOK, items)
}

// Get returns a single resource.
// GET /api/resources/:id
func (rc *ResourcesController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	resource, err := rc.store.GetByID(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondNotFound(c, "resource")
			return
		}
		respondInternalError(c, err, "get resource")
		return
	}
	c.JSON(http.StatusOK, resource)
}

type createResourceRequest struct {
	Name        string `json:"name" binding:"required"`
	Category    string `json:"category" binding:"required"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Location    string `json:"location"`
	Capacity    int    `json:"capacity"`
	ImageURL    string `json:"image_url"`
}

// Create adds a new resource.
// POST /api/resources (admin)
func (rc *ResourcesController) Create(c *gin.Context) {
	var req createResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name and category are required")
		return
	}

	status := entities.ResourceStatus(req.Status)
	if req.Status == "" {
		status = entities.ResourceStatusAvailable
	}
	if !entities.ValidResourceStatus(status) {
		respondBadRequest(c, "invalid resource status")
		return
	}

	resource := &entities.Resource{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Status:      status,
		Location:    req.Location,
		Capacity:    req.Capacity,
		ImageURL:    req.ImageURL,
	}
	if err := rc.store.Create(resource); err != nil {
		respondInternalError(c, err, "create resource")
		return
	}

	rc.audit.LogAction(auth.GetUserID(c), entities.AuditEventResource, "resource_create",
		"created resource "+resource.Name, "resource", &resource.ID, nil)

	respondCreated(c, resource)
}

type updateResourceRequest struct {
	Name        *string `json:"name"`
	Category    *string `json:"category"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Location    *string `json:"location"`
	Capacity    *int    `json:"capacity"`
	ImageURL    *string `json:"image_url"`
}

// Update applies a partial update to a resource.
// PUT /api/resources/:id (admin)
func (rc *ResourcesController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateResourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Status != nil {
		status := entities.ResourceStatus(*req.Status)
		if !entities.ValidResourceStatus(status) {
			respondBadRequest(c, "invalid resource status")
			return
		}
		updates["status"] = status
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Capacity != nil {
		updates["capacity"] = *req.Capacity
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if len(updates) == 0 {
		respondBadRequest(c, "no fields to update")
		return
	}

	resource, err := rc.store.Update(id, updates)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondNotFound(c, "resource")
			return
		}
		respondInternalError(c, err, "update resource")
		return
	}

	rc.audit.LogAction(auth.GetUserID(c), entities.AuditEventResource, "resource_update",
		"updated resource "+resource.Name, "resource", &resource.ID, nil)

	c.JSON(http.StatusOK, resource)
}

// Delete removes a resource.
// DELETE /api/resources/:id (admin)
func (rc *ResourcesController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := rc.store.Delete(id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondNotFound(c, "resource")
			return
		}
		respondInternalError(c, err, "delete resource")
		return
	}

	rc.audit.LogAction(auth.GetUserID(c), entities.AuditEventResource, "resource_delete",
		"deleted resource", "resource", &id, nil)

	respondSuccess(c, "resource deleted")
}
