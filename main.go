package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"miniblog/internal/config"
	"miniblog/internal/logger"
	"miniblog/internal/mail"
	"miniblog/internal/server"

	"go.uber.org/zap"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	// --- Wire database, session store, mailer and avatar storage ---
	app, err := server.Build(context.Background(), cfg)
	if err != nil {
		logger.Fatal("Failed to build application", zap.Error(err))
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("Error releasing resources", zap.Error(err))
		}
	}()

	// --- Mail relay ---
	// Drains the mail queue. Delivery is logged; an SMTP relay would plug in here.
	if app.MailQueue != nil {
		relay := mail.LogMailer{From: cfg.Mail.From}
		err := app.MailQueue.ConsumeMail(func(msg mail.Message) error {
			return relay.Send(context.Background(), msg.To, msg.Subject, msg.Body)
		})
		if err != nil {
			logger.Error("Failed to start mail queue consumer", zap.Error(err))
		} else {
			logger.Info("Mail queue consumer started")
		}
	}

	// --- Start HTTP Server ---
	logger.Info("Starting server", zap.String("port", cfg.Server.Port), zap.String("environment", cfg.Server.Environment))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Fiber.Listen(cfg.Server.Port); err != nil {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Shutting down server...")

	if err := app.Fiber.Shutdown(); err != nil {
		logger.Error("Error during Fiber shutdown", zap.Error(err))
	}

	logger.Info("Server gracefully stopped")
}
