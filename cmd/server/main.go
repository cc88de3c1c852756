// Package main provides the AetherForge backend binary: the REST API,
// the websocket collaboration gateway, and their shared PostgreSQL pool.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/aetherforge/aetherforge/internal/ai"
	"github.com/aetherforge/aetherforge/internal/api"
	"github.com/aetherforge/aetherforge/internal/auth"
	"github.com/aetherforge/aetherforge/internal/collab"
	"github.com/aetherforge/aetherforge/internal/config"
	"github.com/aetherforge/aetherforge/internal/observability"
	"github.com/aetherforge/aetherforge/internal/server"
	"github.com/aetherforge/aetherforge/internal/storage/postgres"
	"github.com/aetherforge/aetherforge/internal/ws"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	palettesDir := flag.String("palettes-dir", "", "path to palette YAML files; overrides config")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *palettesDir != "" {
		cfg.Content.PalettesDir = *palettesDir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting aetherforge server",
		zap.String("http_addr", cfg.HTTP.Addr()),
	)

	// Load palette presets
	contentStart := time.Now()
	palettes, err := ai.LoadLibrary(cfg.Content.PalettesDir)
	if err != nil {
		logger.Fatal("loading palettes", zap.Error(err))
	}
	logger.Info("palettes loaded",
		zap.Strings("moods", palettes.Moods()),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	// Connect to PostgreSQL
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)

	accounts := postgres.NewAccountRepository(pool.DB())
	projects := postgres.NewProjectRepository(pool.DB())
	tokens := auth.NewManager(cfg.Auth)

	// Collaboration core and websocket edge
	gateway := collab.NewGateway(
		collab.NewRegistry(),
		collab.NewTracker(nil),
		observability.Component(logger, "collab"),
		cfg.Websocket.SendBuffer,
		nil,
	)
	wsServer := ws.NewServer(cfg.Websocket, gateway, observability.Component(logger, "ws"))

	apiServer := api.NewServer(cfg.HTTP, observability.Component(logger, "api"), api.Deps{
		Accounts:  accounts,
		Projects:  projects,
		Tokens:    tokens,
		Palettes:  palettes,
		Queries:   ai.NewQueryGenerator(nil),
		Assistant: ai.NewAssistant(cfg.AI, observability.Component(logger, "ai")),
		Websocket: wsServer.Handler(),
		Health: func(ctx context.Context) error {
			return pool.Health(ctx, 5*time.Second)
		},
	})

	// Stopped in reverse order: http drains before the pool closes.
	lifecycle := server.NewLifecycle(logger)
	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error { return nil },
		StopFn:  pool.Close,
	})
	lifecycle.Add("http", apiServer)

	logger.Info("initialization complete",
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}
