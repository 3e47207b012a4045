package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"notaminda/internal/auth"
	"notaminda/internal/capabilities"
	"notaminda/internal/config"
	"notaminda/internal/handler"
	"notaminda/internal/middleware"
	"notaminda/internal/notify"
	"notaminda/internal/repository/postgres"
	"notaminda/internal/service/generation"
	"notaminda/internal/service/llm"
	"notaminda/internal/service/mindmap"
	"notaminda/internal/service/node"
	"notaminda/internal/worker"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Create JWT verifier
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected")

	// Create table names
	tables := postgres.NewTableNames(cfg.TablePrefix)

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	mindMapRepo := postgres.NewMindMapRepository(repoConfig)
	nodeRepo := postgres.NewNodeRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool)

	// Initialize capability registry
	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize capability registry: %v", err)
	}
	logger.Info("capability registry initialized")

	// LLM client factory and background infrastructure
	llmFactory := llm.NewOpenAIFactory()
	sender := notify.NewSocketSender(cfg.SocketURL, logger)
	notePool := worker.NewPool(cfg.MaxNoteStreams, logger)

	// Create services
	mindMapService := mindmap.NewService(mindMapRepo, nodeRepo, txManager, logger)
	nodeService := node.NewService(nodeRepo, mindMapRepo, logger)
	childrenService := generation.NewChildrenService(nodeRepo, mindMapRepo, llmFactory, capabilityRegistry, cfg, logger)
	noteService := generation.NewNoteService(nodeRepo, mindMapRepo, llmFactory, sender, notePool, cfg, logger)

	// Create handlers
	mindMapHandler := handler.NewMindMapHandler(mindMapService, logger)
	nodeHandler := handler.NewNodeHandler(nodeService, logger)
	generationHandler := handler.NewGenerationHandler(childrenService, noteService, logger)
	modelsHandler := handler.NewModelsHandler(cfg, logger, capabilityRegistry)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", mindMapHandler.HealthCheck)

	// Mind map routes
	mux.HandleFunc("POST /api/mindmaps", mindMapHandler.CreateMindMap)
	mux.HandleFunc("GET /api/mindmaps", mindMapHandler.ListMindMaps)
	mux.HandleFunc("GET /api/mindmaps/{id}", mindMapHandler.GetMindMap)
	mux.HandleFunc("PATCH /api/mindmaps/{id}", mindMapHandler.UpdateMindMap)
	mux.HandleFunc("DELETE /api/mindmaps/{id}", mindMapHandler.DeleteMindMap)

	// Public read routes (no auth)
	mux.HandleFunc("GET /api/public/mindmaps/{id}", mindMapHandler.GetPublicMindMap)
	mux.HandleFunc("GET /api/public/nodes/{id}", nodeHandler.GetPublicNode)

	// Node routes
	mux.HandleFunc("POST /api/nodes", nodeHandler.CreateNode)
	mux.HandleFunc("GET /api/nodes/{id}", nodeHandler.GetNode)
	mux.HandleFunc("PATCH /api/nodes/{id}", nodeHandler.UpdateNode)
	mux.HandleFunc("DELETE /api/nodes/{id}", nodeHandler.DeleteNode)

	// Generation routes
	mux.HandleFunc("POST /api/nodes/{id}/auto-generate-children", generationHandler.GenerateChildren)
	mux.HandleFunc("POST /api/nodes/{id}/auto-generate-note", generationHandler.GenerateNote)
	mux.HandleFunc("POST /api/verify-ai-key", generationHandler.VerifyAIKey)

	// Model capabilities route
	mux.HandleFunc("GET /api/models", modelsHandler.ListModels)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	root = middleware.Auth(jwtVerifier, logger)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
