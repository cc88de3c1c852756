package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aetherforge/aetherforge/internal/storage/postgres"
)

const (
	defaultUserPageLimit = 20
	maxUserPageLimit     = 100
	recentActivityLimit  = 5
)

type adminUserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toAdminUserResponse(acct postgres.Account) adminUserResponse {
	return adminUserResponse{
		ID:        acct.ID,
		Username:  acct.Username,
		Role:      acct.Role,
		CreatedAt: acct.CreatedAt,
	}
}

func (s *Server) handleListUsers(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultUserPageLimit)))
	if err != nil || limit < 1 {
		limit = defaultUserPageLimit
	}
	if limit > maxUserPageLimit {
		limit = maxUserPageLimit
	}
	search := c.Query("search")
	offset := (page - 1) * limit

	ctx := c.Request.Context()
	accounts, err := s.deps.Accounts.List(ctx, search, limit, offset)
	if err != nil {
		s.logger.Error("user listing failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error fetching users."})
		return
	}
	total, err := s.deps.Accounts.Count(ctx, search)
	if err != nil {
		s.logger.Error("user count failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error fetching users."})
		return
	}

	users := make([]adminUserResponse, 0, len(accounts))
	for _, acct := range accounts {
		users = append(users, toAdminUserResponse(acct))
	}

	totalPages := (total + limit - 1) / limit
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"pagination": gin.H{
			"currentPage": page,
			"totalPages":  totalPages,
			"totalUsers":  total,
			"hasNext":     offset+len(users) < total,
			"hasPrev":     page > 1,
		},
	})
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user id."})
		return
	}

	if id == callerID(c) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot delete your own account"})
		return
	}

	// The projects table cascades on account deletion, so the user's
	// boards disappear with the account.
	if err := s.deps.Accounts.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, postgres.ErrAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found."})
			return
		}
		s.logger.Error("user deletion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error deleting user."})
		return
	}

	s.logger.Info("user deleted",
		zap.Int64("user_id", id),
		zap.Int64("admin_id", callerID(c)),
		zap.String("admin", callerUsername(c)),
	)
	c.JSON(http.StatusOK, gin.H{"message": "User and associated projects deleted successfully"})
}

type recentProjectResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	UserID        int64     `json:"userId"`
	OwnerUsername string    `json:"ownerUsername"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (s *Server) handleDashboard(c *gin.Context) {
	ctx := c.Request.Context()

	totalUsers, err := s.deps.Accounts.Count(ctx, "")
	if err != nil {
		s.logger.Error("dashboard user count failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error fetching dashboard stats."})
		return
	}
	totalProjects, err := s.deps.Projects.CountAll(ctx)
	if err != nil {
		s.logger.Error("dashboard project count failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error fetching dashboard stats."})
		return
	}
	publicProjects, err := s.deps.Projects.CountPublic(ctx)
	if err != nil {
		s.logger.Error("dashboard public count failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error fetching dashboard stats."})
		return
	}

	recentAccounts, err := s.deps.Accounts.List(ctx, "", recentActivityLimit, 0)
	if err != nil {
		s.logger.Error("dashboard recent users failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error fetching dashboard stats."})
		return
	}
	recentProjects, err := s.deps.Projects.ListRecent(ctx, recentActivityLimit)
	if err != nil {
		s.logger.Error("dashboard recent projects failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error fetching dashboard stats."})
		return
	}

	users := make([]adminUserResponse, 0, len(recentAccounts))
	for _, acct := range recentAccounts {
		users = append(users, toAdminUserResponse(acct))
	}
	projects := make([]recentProjectResponse, 0, len(recentProjects))
	for _, rp := range recentProjects {
		projects = append(projects, recentProjectResponse{
			ID:            rp.ID,
			Name:          rp.Name,
			UserID:        rp.OwnerID,
			OwnerUsername: rp.OwnerUsername,
			CreatedAt:     rp.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"stats": gin.H{
			"totalUsers":     totalUsers,
			"totalProjects":  totalProjects,
			"publicProjects": publicProjects,
		},
		"recentActivity": gin.H{
			"users":    users,
			"projects": projects,
		},
	})
}
