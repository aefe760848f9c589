package server

import (
	"context"
	"errors"
	"fmt"

	"miniblog/internal/config"
	"miniblog/internal/logger"
	"miniblog/internal/mail"
	"miniblog/internal/repositories"
	"miniblog/internal/services"
	"miniblog/internal/storage"
	"miniblog/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App is a fully wired application together with the resources it owns.
type App struct {
	Fiber *fiber.App
	DB    *gorm.DB
	// MailQueue is set when mail is relayed through RabbitMQ.
	MailQueue *rabbitmq.Client

	closers []func() error
}

// Build connects every backing service named in cfg and assembles the app.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	db, err := repositories.OpenDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	a.DB = db
	a.onClose(func() error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	sessionStore, err := a.sessionStore(cfg.Redis)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	mailer, err := a.mailer(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	avatarStore, avatarDir, err := avatarStore(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	userRepo := repositories.NewGORMUserRepository(db)
	postRepo := repositories.NewGORMPostRepository(db)

	authService := services.NewAuthService(userRepo, cfg.Auth.BcryptCost)
	tokens := services.NewResetTokenService(cfg.Auth.SecretKey, cfg.Auth.ResetTokenTTL)

	svc := Services{
		Auth:     authService,
		Sessions: services.NewSessionService(sessionStore, userRepo, cfg.Auth.SessionTTL, cfg.Auth.RememberTTL),
		Resets:   services.NewPasswordResetService(userRepo, authService, tokens, mailer, cfg.Server.PublicURL, cfg.Auth.ResetTokenTTL),
		Posts:    services.NewPostService(postRepo, userRepo, cfg.Posts.PageSize),
		Avatars:  services.NewAvatarService(avatarStore),
	}

	a.Fiber = NewApp(svc, Options{
		LoginRateLimit: cfg.Server.LoginRateLimit,
		SecureCookies:  cfg.Server.IsProduction(),
		AvatarDir:      avatarDir,
		AccessLog:      true,
		Ping:           pingDB(db),
	})
	return a, nil
}

func (a *App) sessionStore(cfg config.RedisConfig) (repositories.SessionStore, error) {
	if cfg.URL == "" {
		logger.Warn("REDIS_URL not set, sessions are kept in memory")
		return repositories.NewMemorySessionStore(), nil
	}

	store, err := repositories.NewRedisSessionStore(cfg.URL)
	if err != nil {
		return nil, err
	}
	a.onClose(store.Close)
	logger.Info("using redis session store")
	return store, nil
}

func (a *App) mailer(cfg *config.Config) (services.Mailer, error) {
	if cfg.RabbitMQ.URL == "" {
		logger.Warn("RABBITMQ_URL not set, outbound mail is only logged")
		return mail.LogMailer{From: cfg.Mail.From}, nil
	}

	client, err := rabbitmq.NewClient(rabbitmq.Config{
		URL:  cfg.RabbitMQ.URL,
		From: cfg.Mail.From,
	})
	if err != nil {
		return nil, err
	}
	a.MailQueue = client
	a.onClose(client.Close)
	return client, nil
}

// avatarStore returns the MinIO store when configured, otherwise a store on
// the local disk together with the directory to serve it from.
func avatarStore(ctx context.Context, cfg *config.Config) (storage.Store, string, error) {
	if cfg.MinIO.Enabled() {
		store, err := storage.NewMinioStore(ctx, cfg.MinIO)
		if err != nil {
			return nil, "", err
		}
		logger.Info("storing avatars in minio", zap.String("bucket", cfg.MinIO.Bucket))
		return store, "", nil
	}

	store, err := storage.NewFileStore(afero.NewOsFs(), cfg.Avatar.Dir, AvatarURLPrefix)
	if err != nil {
		return nil, "", err
	}
	return store, cfg.Avatar.Dir, nil
}

func pingDB(db *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases every resource in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("failed to release resources: %w", errors.Join(errs...))
	}
	return nil
}
