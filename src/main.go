package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xerikson-cyber/Sirij-BOT/logger"
	"github.com/xerikson-cyber/Sirij-BOT/src/config"
	"github.com/xerikson-cyber/Sirij-BOT/src/db"
	"github.com/xerikson-cyber/Sirij-BOT/src/rabbitmq"
	"github.com/xerikson-cyber/Sirij-BOT/src/repository"
	"github.com/xerikson-cyber/Sirij-BOT/src/router"
	"github.com/xerikson-cyber/Sirij-BOT/src/service"
)

func main() {
	cfg := loadConfig()
	setupLogging()
	appLog := logger.New(cfg.LogLevel)

	database, err := db.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	sessionTimeout := time.Duration(cfg.SessionTimeoutMinutes) * time.Minute
	sessionRepo := repository.NewSessionRepository(database, sessionTimeout)
	briefingRepo := repository.NewBriefingRepository(database)

	var publisher service.EventPublisher
	if cfg.RabbitURL != "" {
		amqpPublisher, err := rabbitmq.NewAMQPPublisher(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		defer amqpPublisher.Close()
		publisher = amqpPublisher
	} else {
		appLog.Warn("RABBITMQ_URL not set, event publishing disabled")
	}

	photos := service.NewPhotoService(cfg.PhotoStoragePath, cfg.PhotoMaxSizeMB, appLog)
	finalizer := service.NewFinalizer(briefingRepo, publisher, cfg.BriefingExchange, appLog)
	conversation := service.NewConversationService(sessionRepo, photos, finalizer, appLog)
	briefings := service.NewBriefingService(briefingRepo, appLog)

	stopCleanup := startSessionCleanup(sessionRepo, sessionTimeout, appLog)
	defer stopCleanup()

	engine, err := router.Router{
		Logger:       appLog,
		Conversation: conversation,
		Briefings:    briefings,
	}.SetUpRouter()
	if err != nil {
		log.Fatalf("Failed to set up router: %v", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler: engine,
	}
	startServerWithGracefulShutdown(server, cfg)
}

func loadConfig() config.GlobalConfig {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

func setupLogging() {
	slogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(slogger)
}

// startSessionCleanup sweeps expired dialog sessions in the background
// and returns a stop function.
func startSessionCleanup(sessions *repository.SessionRepository, timeout time.Duration, appLog *logrus.Logger) func() {
	interval := timeout / 4
	if interval < time.Minute {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				removed, err := sessions.CleanExpired(ctx)
				cancel()
				if err != nil {
					appLog.WithError(err).Warn("session cleanup sweep failed")
					continue
				}
				if removed > 0 {
					appLog.WithField("removed", removed).Info("expired sessions cleaned")
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		ticker.Stop()
		close(done)
	}
}

func startServerWithGracefulShutdown(server *http.Server, cfg config.GlobalConfig) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("Starting server", "host", cfg.Host, "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	slog.Info("Shutting down server...")

	if err := server.Shutdown(context.Background()); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return
	}

	slog.Info("Server exited gracefully")
}
