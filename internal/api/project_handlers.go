package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aetherforge/aetherforge/internal/storage/postgres"
)

const (
	defaultGalleryLimit = 12
	maxGalleryLimit     = 100
)

type projectResponse struct {
	ID          string          `json:"id"`
	UserID      int64           `json:"userId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	IsPublic    bool            `json:"isPublic"`
	MoodParams  json.RawMessage `json:"moodParams"`
	PaletteData json.RawMessage `json:"paletteData"`
	ImageURLs   json.RawMessage `json:"imageUrls"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func toProjectResponse(p *postgres.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		UserID:      p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		IsPublic:    p.IsPublic,
		MoodParams:  p.MoodParams,
		PaletteData: p.PaletteData,
		ImageURLs:   p.ImageURLs,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProjectResponses(projects []*postgres.Project) []projectResponse {
	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	return out
}

type createProjectRequest struct {
	Name        string          `json:"name" binding:"required,max=128"`
	Description string          `json:"description"`
	IsPublic    bool            `json:"isPublic"`
	MoodParams  json.RawMessage `json:"moodParams"`
	PaletteData json.RawMessage `json:"paletteData"`
	ImageURLs   json.RawMessage `json:"imageUrls"`
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Project name is required."})
		return
	}

	created, err := s.deps.Projects.Create(c.Request.Context(), &postgres.Project{
		OwnerID:     callerID(c),
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		MoodParams:  req.MoodParams,
		PaletteData: req.PaletteData,
		ImageURLs:   req.ImageURLs,
	})
	if err != nil {
		s.logger.Error("project creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error creating project."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Project created successfully",
		"project": toProjectResponse(created),
	})
}

func (s *Server) handleListProjects(c *gin.Context) {
	projects, err := s.deps.Projects.ListByOwner(c.Request.Context(), callerID(c))
	if err != nil {
		s.logger.Error("project listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error fetching projects."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": toProjectResponses(projects)})
}

func (s *Server) handleGetProject(c *gin.Context) {
	project, err := s.deps.Projects.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, postgres.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Project not found."})
			return
		}
		s.logger.Error("project lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error fetching project."})
		return
	}

	// Non-owners may only see public projects.
	if project.OwnerID != callerID(c) && !project.IsPublic {
		c.JSON(http.StatusForbidden, gin.H{"message": "Access denied."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"project": toProjectResponse(project)})
}

type updateProjectRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	IsPublic    *bool           `json:"isPublic"`
	MoodParams  json.RawMessage `json:"moodParams"`
	PaletteData json.RawMessage `json:"paletteData"`
	ImageURLs   json.RawMessage `json:"imageUrls"`
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid project payload."})
		return
	}

	project, err := s.deps.Projects.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, postgres.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Project not found."})
			return
		}
		s.logger.Error("project lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error updating project."})
		return
	}

	// Only the owner may modify a project, public or not.
	if project.OwnerID != callerID(c) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Access denied."})
		return
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.IsPublic != nil {
		project.IsPublic = *req.IsPublic
	}
	if req.MoodParams != nil {
		project.MoodParams = req.MoodParams
	}
	if req.PaletteData != nil {
		project.PaletteData = req.PaletteData
	}
	if req.ImageURLs != nil {
		project.ImageURLs = req.ImageURLs
	}

	updated, err := s.deps.Projects.Update(c.Request.Context(), project)
	if err != nil {
		if errors.Is(err, postgres.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Project not found."})
			return
		}
		s.logger.Error("project update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error updating project."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project updated successfully",
		"project": toProjectResponse(updated),
	})
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	project, err := s.deps.Projects.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, postgres.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Project not found."})
			return
		}
		s.logger.Error("project lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error deleting project."})
		return
	}

	if project.OwnerID != callerID(c) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Access denied."})
		return
	}

	if err := s.deps.Projects.Delete(c.Request.Context(), project.ID); err != nil && !errors.Is(err, postgres.ErrProjectNotFound) {
		s.logger.Error("project deletion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error deleting project."})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

func (s *Server) handlePublicProjects(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultGalleryLimit)))
	if err != nil || limit < 1 {
		limit = defaultGalleryLimit
	}
	if limit > maxGalleryLimit {
		limit = maxGalleryLimit
	}
	offset := (page - 1) * limit

	ctx := c.Request.Context()
	projects, err := s.deps.Projects.ListPublic(ctx, limit, offset)
	if err != nil {
		s.logger.Error("public project listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error fetching public projects."})
		return
	}
	total, err := s.deps.Projects.CountPublic(ctx)
	if err != nil {
		s.logger.Error("public project count failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error fetching public projects."})
		return
	}

	totalPages := (total + limit - 1) / limit
	c.JSON(http.StatusOK, gin.H{
		"projects": toProjectResponses(projects),
		"pagination": gin.H{
			"currentPage":   page,
			"totalPages":    totalPages,
			"totalProjects": total,
			"hasNext":       offset+len(projects) < total,
			"hasPrev":       page > 1,
		},
	})
}
