package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"takeint/internal/handlers"
	"takeint/internal/jobs"
	"takeint/internal/metrics"
	"takeint/internal/models"
	"takeint/internal/notify"
	"takeint/internal/repositories"
	"takeint/internal/routers"
	"takeint/internal/scoring"
	_ "takeint/internal/scoring/gemini"
	"takeint/internal/services"
	"takeint/internal/session"
	"takeint/internal/voice"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Helper functions for environment variables
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// initDatabase initializes the PostgreSQL database connection
func initDatabase() (*gorm.DB, error) {
	host := getEnv("POSTGRES_HOST", "localhost")
	user := getEnv("POSTGRES_USER", "postgres")
	password := getEnv("POSTGRES_PASSWORD", "postgres")
	dbname := getEnv("POSTGRES_DB", "takeint")
	port := getEnv("POSTGRES_PORT", "5432")
	sslmode := getEnv("POSTGRES_SSLMODE", "disable")

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, password, dbname, port, sslmode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Interview{}, &models.FeedbackReport{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	db, err := initDatabase()
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: getEnv("REDIS_ADDR", "localhost:6379"),
	})

	scorer, err := scoring.NewProvider(getEnv("SCORING_PROVIDER", "gemini"))
	if err != nil {
		logger.Fatal("failed to initialize scoring provider", zap.Error(err))
	}
	logger.Info("scoring provider ready", zap.String("provider", scorer.GetProviderName()))

	var notifier services.Notifier
	if smtpCfg, err := notify.LoadSMTP(); err != nil {
		logger.Warn("SMTP not configured, scheduling notifications disabled", zap.Error(err))
	} else {
		notifier = notify.NewMailer(smtpCfg)
	}

	interviews := &repositories.InterviewRepository{DB: db}
	users := &repositories.UserRepository{DB: db}
	reports := &repositories.FeedbackRepository{DB: db}

	visibility := &services.Visibility{Interviews: interviews}
	scheduler := &services.Scheduler{
		Interviews: interviews,
		Users:      users,
		Notifier:   notifier,
		Window:     getEnvDuration("SCHEDULE_WINDOW_DEFAULT", services.DefaultScheduleWindow),
		Logger:     logger.Named("scheduler"),
	}
	finalizer := &services.Finalizer{
		Interviews:     interviews,
		Scorer:         scorer,
		ScoringTimeout: getEnvDuration("SCORING_TIMEOUT", 90*time.Second),
		Logger:         logger.Named("finalizer"),
	}

	registry := session.NewRegistry(rdb, logger.Named("sessions"))

	voiceURL := getEnv("VOICE_GATEWAY_URL", "")
	voiceToken := os.Getenv("VOICE_GATEWAY_TOKEN")
	if voiceURL == "" {
		logger.Warn("VOICE_GATEWAY_URL not set, live sessions will fail to connect")
	}
	newChannel := func() voice.Channel {
		return voice.NewWSChannel(voiceURL, voiceToken, logger.Named("voice"))
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	interviewHandler := &handlers.InterviewHandler{
		Interviews: interviews,
		Visibility: visibility,
		Scheduler:  scheduler,
	}
	sessionHandler := &handlers.SessionHandler{
		Interviews: interviews,
		Visibility: visibility,
		Finalizer:  finalizer,
		Registry:   registry,
		NewChannel: newChannel,
		Logger:     logger.Named("session"),
	}
	reportHandler := &handlers.ReportHandler{Reports: reports}
	healthHandler := &handlers.HealthHandler{DB: db, Redis: rdb, Scorer: scorer}

	exporterJob := jobs.NewReportExporterJob(reports, &jobs.ExporterConfig{
		Schedule:      getEnv("REPORT_EXPORT_SCHEDULE", "0 2 * * *"),
		ExportDir:     getEnv("REPORT_EXPORT_DIR", "./exports"),
		ExportEnabled: getEnv("REPORT_EXPORT_ENABLED", "false") == "true",
		LookbackDays:  getEnvInt("REPORT_EXPORT_LOOKBACK_DAYS", 1),
	}, logger.Named("exporter"))
	if err := exporterJob.Start(); err != nil {
		logger.Error("failed to start report exporter job", zap.Error(err))
	}

	router := chi.NewRouter()

	// cors middleware
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{getEnv("CORS_ORIGIN", "http://localhost:3000")},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))
	router.Use(chimiddleware.RequestID, chimiddleware.RealIP, chimiddleware.Logger, chimiddleware.Recoverer, chimiddleware.Timeout(60*time.Second))
	router.Use(metrics.Middleware())

	routers.HealthRoutes(router, healthHandler)
	routers.InterviewRoutes(router, jwtSecret, interviewHandler, sessionHandler)
	routers.ReportRoutes(router, jwtSecret, reportHandler)
	router.Handle("/metrics", metrics.Handler())

	serverAddr := ":" + getEnv("PORT", "8080")
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("takeint service starting", zap.String("addr", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// wait for interrupt signal to gracefully shutdown the server
	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownChan

	logger.Info("takeint service shutting down...")

	exporterJob.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// hang up live sessions before the HTTP listener goes away
	registry.Shutdown(ctx)

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("takeint service exited")
}
