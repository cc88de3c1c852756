package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aetherforge/aetherforge/internal/storage/postgres"
)

type credentialsRequest struct {
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func toUserResponse(acct postgres.Account) userResponse {
	return userResponse{ID: acct.ID, Username: acct.Username, Role: acct.Role}
}

func (s *Server) handleRegister(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required."})
		return
	}

	acct, err := s.deps.Accounts.Create(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, postgres.ErrAccountExists) {
			c.JSON(http.StatusConflict, gin.H{"message": "Username is already taken."})
			return
		}
		s.logger.Error("account creation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error creating account."})
		return
	}

	token, err := s.deps.Tokens.Generate(acct.ID, acct.Username, acct.Role)
	if err != nil {
		s.logger.Error("token generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error creating account."})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"token":   token,
		"user":    toUserResponse(acct),
	})
}

func (s *Server) handleLogin(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required."})
		return
	}

	acct, err := s.deps.Accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, postgres.ErrAccountNotFound) || errors.Is(err, postgres.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid username or password."})
			return
		}
		s.logger.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error logging in."})
		return
	}

	token, err := s.deps.Tokens.Generate(acct.ID, acct.Username, acct.Role)
	if err != nil {
		s.logger.Error("token generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error logging in."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged in successfully",
		"token":   token,
		"user":    toUserResponse(acct),
	})
}

func (s *Server) handleProfile(c *gin.Context) {
	acct, err := s.deps.Accounts.GetByID(c.Request.Context(), callerID(c))
	if err != nil {
		if errors.Is(err, postgres.ErrAccountNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid token."})
			return
		}
		s.logger.Error("profile lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error fetching profile."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(acct)})
}
