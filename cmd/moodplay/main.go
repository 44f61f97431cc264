package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"moodplay/internal/config"
	"moodplay/internal/database"
	"moodplay/internal/server"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := "./config.toml"

	// Initialize basic logger for startup
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	// Load .env first so the config layer can pick up secrets
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			logger.WithError(err).Warn("Could not load .env file")
		}
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.WithError(err).Fatal("Error loading configuration")
	}

	applyLogging(logger, &cfg.Logging)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).Fatal("Error initializing database")
	}
	defer db.Close()

	// Create the server
	musicServer, err := server.NewMusicServer(cfg, db, logger)
	if err != nil {
		logger.WithError(err).Fatal("Error creating server")
	}

	// Watch the config file so logging level changes apply without restart
	watcher := config.NewWatcher(configPath, logger)
	if err := watcher.Start(); err != nil {
		logger.WithError(err).Warn("Config watcher not available")
	} else {
		defer watcher.Stop()
	}

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		if err := musicServer.Start(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for shutdown signal
	<-c

	logger.Info("Received shutdown signal")
	musicServer.Shutdown()
}

// applyLogging configures the shared logger from configuration.
func applyLogging(logger *logrus.Logger, cfg *config.LoggingConfig) {
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logger.SetLevel(level)
	}
	if cfg.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
}
