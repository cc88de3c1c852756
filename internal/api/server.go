// Package api exposes the REST surface: account registration and login,
// project CRUD with a public gallery, the generative suggestion
// endpoints, and the websocket upgrade route.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aetherforge/aetherforge/internal/ai"
	"github.com/aetherforge/aetherforge/internal/auth"
	"github.com/aetherforge/aetherforge/internal/config"
	"github.com/aetherforge/aetherforge/internal/storage/postgres"
)

// AccountStore is the account persistence surface the API consumes.
type AccountStore interface {
	Create(ctx context.Context, username, password string) (postgres.Account, error)
	Authenticate(ctx context.Context, username, password string) (postgres.Account, error)
	GetByID(ctx context.Context, id int64) (postgres.Account, error)
	List(ctx context.Context, search string, limit, offset int) ([]postgres.Account, error)
	Count(ctx context.Context, search string) (int, error)
	Delete(ctx context.Context, id int64) error
}

// ProjectStore is the project persistence surface the API consumes.
type ProjectStore interface {
	Create(ctx context.Context, p *postgres.Project) (*postgres.Project, error)
	GetByID(ctx context.Context, id string) (*postgres.Project, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*postgres.Project, error)
	ListPublic(ctx context.Context, limit, offset int) ([]*postgres.Project, error)
	CountPublic(ctx context.Context) (int, error)
	CountAll(ctx context.Context) (int, error)
	ListRecent(ctx context.Context, limit int) ([]postgres.RecentProject, error)
	Update(ctx context.Context, p *postgres.Project) (*postgres.Project, error)
	Delete(ctx context.Context, id string) error
}

// Chatter answers free-form design questions.
type Chatter interface {
	Chat(ctx context.Context, message string) string
}

// Deps bundles the collaborating components the API routes over.
type Deps struct {
	Accounts  AccountStore
	Projects  ProjectStore
	Tokens    *auth.Manager
	Palettes  *ai.Library
	Queries   *ai.QueryGenerator
	Assistant Chatter
	// Websocket handles GET /ws; nil disables the route.
	Websocket http.Handler
	// Health reports backend dependency health for GET /health.
	Health func(ctx context.Context) error
}

// Server wires the gin engine and serves it over HTTP.
type Server struct {
	cfg    config.HTTPConfig
	logger *zap.Logger
	deps   Deps
	engine *gin.Engine
	srv    *http.Server
}

// NewServer creates the API server and registers all routes.
//
// Precondition: logger, deps.Accounts, deps.Projects, and deps.Tokens must be non-nil.
func NewServer(cfg config.HTTPConfig, logger *zap.Logger, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(requestLogger(logger), gin.Recovery())

	s := &Server{
		cfg:    cfg,
		logger: logger,
		deps:   deps,
		engine: engine,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	authRoutes := s.engine.Group("/api/auth")
	authRoutes.POST("/register", s.handleRegister)
	authRoutes.POST("/login", s.handleLogin)
	authRoutes.GET("/profile", s.requireAuth(), s.handleProfile)

	projects := s.engine.Group("/api/projects", s.requireAuth())
	projects.POST("", s.handleCreateProject)
	projects.GET("", s.handleListProjects)
	projects.GET("/public", s.handlePublicProjects)
	projects.GET("/:id", s.handleGetProject)
	projects.PUT("/:id", s.handleUpdateProject)
	projects.DELETE("/:id", s.handleDeleteProject)

	admin := s.engine.Group("/api/admin", s.requireAuth(), s.requireAdmin())
	admin.GET("/users", s.handleListUsers)
	admin.DELETE("/users/:id", s.handleDeleteUser)
	admin.GET("/dashboard", s.handleDashboard)

	aiRoutes := s.engine.Group("/api/ai", s.requireAuth())
	aiRoutes.POST("/palette", s.handleGeneratePalette)
	aiRoutes.POST("/image-query", s.handleGenerateImageQuery)
	aiRoutes.POST("/chat", s.handleChat)

	if s.deps.Websocket != nil {
		s.engine.GET("/ws", gin.WrapH(s.deps.Websocket))
	}
}

// Handler returns the routed handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves HTTP until Stop is called.
//
// Postcondition: Blocks until shutdown; returns nil on graceful close.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.engine,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	s.logger.Info("http server listening", zap.String("addr", s.cfg.Addr()))
	if err := s.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests within the configured grace period.
func (s *Server) Stop() {
	if s.srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGrace)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown incomplete", zap.Error(err))
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	status := http.StatusOK
	detail := "ok"
	if s.deps.Health != nil {
		if err := s.deps.Health(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			detail = err.Error()
		}
	}
	c.JSON(status, gin.H{"status": detail})
}

// requestLogger logs each request with zap the way the rest of the
// system logs: structured fields, elapsed duration.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
}
