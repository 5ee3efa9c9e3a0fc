package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/JO-HEEJIN/interview-mate-sub000/adapters"
	"github.com/JO-HEEJIN/interview-mate-sub000/adapters/embedding"
	"github.com/JO-HEEJIN/interview-mate-sub000/adapters/knowledge"
	"github.com/JO-HEEJIN/interview-mate-sub000/adapters/llm"
	adaptermongo "github.com/JO-HEEJIN/interview-mate-sub000/adapters/mongo"
	"github.com/JO-HEEJIN/interview-mate-sub000/adapters/stt"
	"github.com/JO-HEEJIN/interview-mate-sub000/domain/repositories"
	"github.com/JO-HEEJIN/interview-mate-sub000/internal/api"
	"github.com/JO-HEEJIN/interview-mate-sub000/internal/auth"
	"github.com/JO-HEEJIN/interview-mate-sub000/internal/config"
	"github.com/JO-HEEJIN/interview-mate-sub000/internal/matcher"
	"github.com/JO-HEEJIN/interview-mate-sub000/internal/orchestrator"
	"github.com/JO-HEEJIN/interview-mate-sub000/internal/segmenter"
	"github.com/JO-HEEJIN/interview-mate-sub000/internal/synthesizer"
	"github.com/JO-HEEJIN/interview-mate-sub000/internal/websocket"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	// Providers; mocks when no API keys are configured so the server runs
	// locally without credentials.
	var speechToText repositories.SpeechToText
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" {
		speechToText = stt.NewGoogleSpeechToText()
	} else {
		logger.Warn("GOOGLE_APPLICATION_CREDENTIALS not set, using mock transcription")
		speechToText = stt.NewMockSpeechToText(logger)
	}

	var generator repositories.AnswerGenerator
	if cfg.GeminiAPIKey != "" {
		generator, err = llm.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, logger)
		if err != nil {
			logger.Fatal("Failed to initialize answer generator", zap.Error(err))
		}
	} else {
		logger.Warn("GEMINI_API_KEY not set, using mock generator")
		generator = llm.NewMockGenerator()
	}

	var embedder repositories.Embedder
	if cfg.OpenAIAPIKey != "" {
		embedder, err = embedding.NewOpenAIEmbedder(cfg.OpenAIAPIKey, logger)
		if err != nil {
			logger.Fatal("Failed to initialize embedder", zap.Error(err))
		}
	} else {
		logger.Warn("OPENAI_API_KEY not set, using mock embedder")
		embedder = embedding.NewMockEmbedder()
	}

	// Knowledge base: context-loaded items in memory, persisted items in
	// Postgres when configured.
	var backing repositories.KnowledgeStore
	if cfg.PostgresURI != "" {
		store, err := knowledge.NewPostgresStore(cfg.PostgresURI, logger)
		if err != nil {
			logger.Fatal("Failed to connect to Postgres", zap.Error(err))
		}
		defer store.Close()
		backing = store
	}
	knowledgeStore := knowledge.NewUnionStore(backing, embedder, logger)

	// Practice history: Mongo when configured, otherwise in memory.
	var sessionRepo repositories.SessionRepository
	if cfg.MongoURI != "" {
		client, err := adaptermongo.NewClient(cfg.MongoURI, cfg.MongoDB, logger)
		if err != nil {
			logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			client.Close(ctx)
		}()
		sessionRepo = adaptermongo.NewSessionRepository(client.Database)
	} else {
		logger.Warn("MONGO_URI not set, practice history kept in memory")
		sessionRepo = adapters.NewMemorySessionRepository()
	}

	match := matcher.New(embedder, knowledgeStore, cfg.SimilarityThreshold, cfg.MaxSearchResults, logger)
	synth := synthesizer.New(generator, logger)

	sessions := func(userID string) *orchestrator.Orchestrator {
		return orchestrator.New(userID, orchestrator.Deps{
			Logger:       logger,
			SpeechToText: speechToText,
			Matcher:      match,
			Synthesizer:  synth,
			Records:      sessionRepo,
			Loader:       knowledgeStore,
			AudioConfig: repositories.AudioConfig{
				SampleRate: cfg.SampleRate,
				Encoding:   cfg.Encoding,
				Language:   cfg.Language,
			},
			SegmenterConf: segmenter.Config{
				SilenceWindow:   cfg.SilenceWindow,
				SilenceLevel:    cfg.SilenceLevel,
				MaxBufferFrames: cfg.MaxBufferFrames,
			},
		})
	}

	hub := websocket.NewHub(sessions, logger)
	go hub.Run()

	authSvc := auth.NewService(cfg.JWTSecret, 24*time.Hour)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	api.InitRoutes(e, hub, authSvc, logger)

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started",
		zap.String("port", cfg.Port),
		zap.Float64("similarityThreshold", cfg.SimilarityThreshold))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
