package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wellness-backend/internal/config"
	"wellness-backend/internal/crypto"
	"wellness-backend/internal/gemini"
	"wellness-backend/internal/groq"
	"wellness-backend/internal/handler"
	"wellness-backend/internal/llm"
	"wellness-backend/internal/middleware"
	"wellness-backend/internal/models"
	"wellness-backend/internal/mood"
	"wellness-backend/internal/realtime"
	"wellness-backend/internal/recorder"
	"wellness-backend/internal/repository"
	"wellness-backend/internal/service"
	"wellness-backend/internal/telegram_bot"
	"wellness-backend/internal/translate"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.Log.Format)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Storage
	db, err := repository.NewDB(cfg.Database.Type, cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.MigrateDB(db, logger); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	historyCipher, err := crypto.NewCipher(cfg.Storage.EncryptionKey)
	if err != nil {
		logger.Fatal("Failed to initialize history encryption", zap.Error(err))
	}
	if !historyCipher.Enabled() {
		logger.Warn("storage.encryption_key is empty, chat history is stored in plain text")
	}

	exchangeRepo := repository.NewExchangeRepository(db, historyCipher, logger)
	trainingRepo := repository.NewTrainingRepository(db, logger)
	userRepo := repository.NewUserRepository(db, logger)

	// Language bridge
	translator, err := translate.New(ctx, cfg.Translation.Provider, cfg.Translation.URL, cfg.Translation.APIKey)
	if err != nil {
		logger.Fatal("Failed to initialize translator", zap.Error(err))
	}
	bridge := translate.NewBridge(translator, cfg.Translation.Timeout, logger)

	// Generative backends
	var primary, secondary llm.GenerativeBackend
	if cfg.LLM.Primary.APIKey != "" {
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:            cfg.LLM.Primary.APIKey,
			ModelName:         cfg.LLM.Primary.ModelName,
			SystemInstruction: llm.SystemInstruction,
		}, logger)
		if err != nil {
			logger.Warn("Primary backend unavailable", zap.Error(err))
		} else {
			defer client.Close()
			primary = llm.NewRateLimitedBackend(client, cfg.LLM.Primary.RequestsPerMinute)
		}
	} else {
		logger.Warn("llm.primary.api_key is empty, primary backend disabled")
	}

	if cfg.LLM.Secondary.APIKey != "" {
		client, err := groq.NewClient(groq.Config{
			APIKey:            cfg.LLM.Secondary.APIKey,
			BaseURL:           cfg.LLM.Secondary.BaseURL,
			ModelName:         cfg.LLM.Secondary.ModelName,
			SystemInstruction: llm.SystemInstruction,
		}, logger)
		if err != nil {
			logger.Warn("Secondary backend unavailable", zap.Error(err))
		} else {
			secondary = llm.NewRateLimitedBackend(client, cfg.LLM.Secondary.RequestsPerMinute)
		}
	}

	selector := llm.NewSelector(cfg.LLM.Timeout, logger,
		llm.Tier{Backend: primary, Source: models.SourcePrimary},
		llm.Tier{Backend: secondary, Source: models.SourceSecondary},
	)

	// Mood extraction
	var moodBackend mood.StructuredBackend
	if cfg.Mood.Enabled && cfg.Mood.Gemini.APIKey != "" {
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:            cfg.Mood.Gemini.APIKey,
			ModelName:         cfg.Mood.Gemini.ModelName,
			SystemInstruction: mood.Instruction,
			JSONMode:          true,
			Temperature:       0.2,
		}, logger)
		if err != nil {
			logger.Warn("Mood backend unavailable", zap.Error(err))
		} else {
			defer client.Close()
			moodBackend = client
		}
	}
	extractor := mood.NewExtractor(moodBackend, cfg.Mood.Timeout, logger)

	// Background persistence
	rec := recorder.New(recorder.Config{
		Workers:      cfg.Recorder.Workers,
		QueueSize:    cfg.Recorder.QueueSize,
		WriteTimeout: cfg.Recorder.WriteTimeout,
	}, exchangeRepo, trainingRepo, logger)

	var hub *realtime.Hub
	deps := service.Deps{
		Bridge:       bridge,
		Generator:    selector,
		Mood:         extractor,
		Recorder:     rec,
		Exchanges:    exchangeRepo,
		Users:        userRepo,
		HistoryLimit: cfg.LLM.HistoryLimit,
	}
	if cfg.Realtime.Enabled {
		hub = realtime.NewHub(logger)
		deps.Publisher = hub
	}
	pipeline := service.NewPipeline(deps, logger)

	// Telegram bot (optional)
	bot, err := telegram_bot.NewBot(cfg.Telegram.Enabled, cfg.Telegram.BotToken, pipeline, logger)
	if err != nil {
		logger.Warn("Failed to initialize Telegram bot, continuing without it", zap.Error(err))
		bot = nil
	}
	if bot != nil {
		go func() {
			if err := bot.Start(ctx); err != nil {
				logger.Error("Telegram bot failed", zap.Error(err))
			}
		}()
	}

	// HTTP
	if cfg.Log.Format == "json" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.CORS(cfg.Server.CORSOrigins))

	apiHandler := handler.NewHandler(pipeline, selector, exchangeRepo, trainingRepo, userRepo, hub, logger)
	apiHandler.RegisterRoutes(router, middleware.AdminAuth([]byte(cfg.Admin.JWTSecret), logger))

	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Wellness backend is running",
		zap.String("address", serverAddr),
		zap.String("database", cfg.Database.Type),
		zap.String("translation", cfg.Translation.Provider),
		zap.Bool("primary", primary != nil),
		zap.Bool("secondary", secondary != nil),
		zap.Bool("mood", moodBackend != nil),
		zap.Bool("realtime", hub != nil),
		zap.Bool("telegram", bot != nil))

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := rec.Close(shutdownCtx); err != nil {
		logger.Error("Recorder did not drain", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(format string) (*zap.Logger, error) {
	if format == "json" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
