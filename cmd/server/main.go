package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"skiff/internal/catalog"
	"skiff/internal/config"
	"skiff/internal/domain"
	"skiff/internal/domain/models"
	"skiff/internal/domain/repositories"
	"skiff/internal/handler"
	"skiff/internal/middleware"
	"skiff/internal/observability"
	"skiff/internal/repository/sqlite"
	serviceLLM "skiff/internal/service/llm"
	"skiff/internal/service/llm/providers/anthropic"
	"skiff/internal/service/llm/providers/lorem"
	"skiff/internal/upload"
)

// devUserEmail identifies the single development principal until a real
// auth layer lands.
const devUserEmail = "dev@skiff.local"

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

	var logOutput io.Writer = os.Stdout
	if dir := os.Getenv("LOG_DIR"); dir != "" {
		logFile, err := config.SetupLogFile(dir, 10)
		if err != nil {
			log.Fatalf("Failed to create log file: %v", err)
		}
		defer logFile.Close()
		logOutput = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOutput, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger) // Set as default logger

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"database", cfg.DatabasePath,
	)

	// Open the embedded database and bootstrap the schema
	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	logger.Info("database opened", "path", cfg.DatabasePath)

	// Create repositories
	repoConfig := &sqlite.RepositoryConfig{
		DB:     db,
		Logger: logger,
	}
	userRepo := sqlite.NewUserRepository(repoConfig)
	chatRepo := sqlite.NewChatRepository(repoConfig)
	messageRepo := sqlite.NewMessageRepository(repoConfig)
	voteRepo := sqlite.NewVoteRepository(repoConfig)
	documentRepo := sqlite.NewDocumentRepository(repoConfig)
	suggestionRepo := sqlite.NewSuggestionRepository(repoConfig)
	streamRepo := sqlite.NewStreamRepository(repoConfig)

	// Load the model catalog
	modelCatalog, err := catalog.Load()
	if err != nil {
		log.Fatalf("Failed to load model catalog: %v", err)
	}
	logger.Info("model catalog loaded", "models", len(modelCatalog.Models()))

	// Setup LLM providers. The lorem provider always registers so the server
	// works without credentials; Anthropic registers on top when a key is set.
	providers := serviceLLM.NewProviderRegistry()
	providers.Register(lorem.NewProvider())
	if cfg.AnthropicAPIKey != "" {
		anthropicProvider, err := anthropic.NewProvider(cfg.AnthropicAPIKey)
		if err != nil {
			log.Fatalf("Failed to setup Anthropic provider: %v", err)
		}
		providers.Register(anthropicProvider)
		logger.Info("anthropic provider registered")
	} else {
		logger.Warn("ANTHROPIC_API_KEY not set, only the lorem provider is available")
	}

	titleModel := cfg.TitleModel
	if cfg.AnthropicAPIKey == "" {
		titleModel = "lorem-fast"
	}
	titles := serviceLLM.NewTitleGenerator(providers, titleModel)

	// Stream registry keeps finished streams around briefly so reconnecting
	// clients can fetch what they missed
	streamRegistry := serviceLLM.NewStreamRegistry(time.Minute, 5*time.Minute)
	go streamRegistry.StartCleanup(context.Background())

	turnService := serviceLLM.NewTurnService(&serviceLLM.TurnServiceConfig{
		Logger:      logger,
		Chats:       chatRepo,
		Messages:    messageRepo,
		Streams:     streamRepo,
		Documents:   documentRepo,
		Suggestions: suggestionRepo,
		Providers:   providers,
		Registry:    streamRegistry,
		Catalog:     modelCatalog,
		Titles:      titles,
	})

	// Upload store
	uploadStore, err := upload.NewStore(cfg.UploadsDir, "/uploads")
	if err != nil {
		log.Fatalf("Failed to create upload store: %v", err)
	}

	// Resolve the development principal
	principal, err := resolvePrincipal(context.Background(), userRepo)
	if err != nil {
		log.Fatalf("Failed to resolve dev user: %v", err)
	}
	logger.Info("dev principal resolved", "user_id", principal.UserID)

	// Create handlers
	chatHandler := handler.NewChatHandler(turnService, streamRegistry, chatRepo, messageRepo, streamRepo, nil, logger)
	historyHandler := handler.NewHistoryHandler(chatRepo, logger)
	voteHandler := handler.NewVoteHandler(voteRepo, chatRepo, logger)
	documentHandler := handler.NewDocumentHandler(documentRepo, logger)
	suggestionHandler := handler.NewSuggestionHandler(suggestionRepo, logger)
	filesHandler := handler.NewFilesHandler(uploadStore, logger)
	modelsHandler := handler.NewModelsHandler(modelCatalog, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// route registers a handler wrapped with request metrics labeled by the
	// route pattern rather than the raw path
	route := func(pattern string, fn http.HandlerFunc) {
		_, path, found := strings.Cut(pattern, " ")
		if !found {
			path = pattern
		}
		mux.Handle(pattern, observability.InstrumentHandler(path, fn))
	}

	// Health check
	route("GET /api/health", handler.Health)

	// Chat routes
	route("POST /api/chat", chatHandler.CreateStream)
	route("GET /api/chat/{id}", chatHandler.GetChat)
	route("GET /api/chat/{id}/messages", chatHandler.GetMessages)
	route("GET /api/chat/{id}/stream", chatHandler.ResumeStream)
	route("DELETE /api/chat", chatHandler.DeleteChat)
	route("PATCH /api/chat/{id}/visibility", chatHandler.UpdateVisibility)
	route("DELETE /api/messages/{id}/trailing", chatHandler.DeleteTrailingMessages)

	// History routes
	route("GET /api/history", historyHandler.GetHistory)
	route("DELETE /api/history", historyHandler.DeleteHistory)

	// Document routes
	route("GET /api/document", documentHandler.GetDocument)
	route("POST /api/document", documentHandler.SaveDocument)
	route("DELETE /api/document", documentHandler.DeleteVersionsAfter)

	// Suggestion routes
	route("GET /api/suggestions", suggestionHandler.GetSuggestions)

	// Vote routes
	route("GET /api/vote", voteHandler.GetVotes)
	route("PATCH /api/vote", voteHandler.PatchVote)

	// File routes
	route("POST /api/files/upload", filesHandler.Upload)
	route("GET /uploads/{filename}", filesHandler.Serve)

	// Model catalog
	route("GET /api/models", modelsHandler.ListModels)

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	// Build middleware chain
	var httpHandler http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Principal → Routes
	httpHandler = middleware.Principal(principal)(httpHandler)
	httpHandler = middleware.Recovery(logger)(httpHandler)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "Last-Event-ID"},
		AllowCredentials: true,
	})
	httpHandler = corsHandler.Handler(httpHandler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled to allow long-lived SSE streams
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// resolvePrincipal finds or creates the development user every request acts
// as.
func resolvePrincipal(ctx context.Context, users repositories.UserRepository) (models.Principal, error) {
	user, err := users.GetUserByEmail(ctx, devUserEmail)
	if errors.Is(err, domain.ErrNotFound) {
		user, err = users.CreateUser(ctx, devUserEmail, "dev")
	}
	if err != nil {
		return models.Principal{}, err
	}
	return models.Principal{UserID: user.ID, Email: user.Email}, nil
}
