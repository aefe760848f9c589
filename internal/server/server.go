// Package server assembles the Fiber application from its services.
package server

import (
	"context"
	"time"

	"miniblog/internal/handlers"
	"miniblog/internal/metrics"
	"miniblog/internal/middleware"
	"miniblog/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AvatarURLPrefix is where locally stored avatars are served from.
const AvatarURLPrefix = "/static/profile_pictures"

// Services are the domain services the routes call into.
type Services struct {
	Auth     *services.AuthService
	Sessions *services.SessionService
	Resets   *services.PasswordResetService
	Posts    *services.PostService
	Avatars  *services.AvatarService
}

// Options tune the HTTP surface.
type Options struct {
	// LoginRateLimit is the number of login and reset requests allowed per
	// client IP per minute. Zero disables the limit.
	LoginRateLimit int
	SecureCookies  bool
	// AvatarDir is served at AvatarURLPrefix when set.
	AvatarDir string
	// AccessLog enables the request logger middleware.
	AccessLog bool
	// Ping reports backing store health for /health. Optional.
	Ping func(ctx context.Context) error
}

// NewApp builds the Fiber app with every route registered.
func NewApp(svc Services, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    8 * 1024 * 1024,
	})

	if opts.AccessLog {
		app.Use(logger.New())
	}
	app.Use(metrics.Middleware())

	app.Get("/health", healthHandler(opts.Ping))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	if opts.AvatarDir != "" {
		app.Static(AvatarURLPrefix, opts.AvatarDir)
	}

	app.Use(middleware.LoadSession(svc.Sessions))

	authHandler := handlers.NewAuthHandler(svc.Auth, svc.Sessions, svc.Resets, opts.SecureCookies)
	accountHandler := handlers.NewAccountHandler(svc.Auth, svc.Avatars)
	postHandler := handlers.NewPostHandler(svc.Posts)

	authHandler.RegisterRoutes(app, rateLimit(opts.LoginRateLimit))
	accountHandler.RegisterRoutes(app)
	postHandler.RegisterRoutes(app)

	return app
}

func rateLimit(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "Too many requests, please try again later",
			})
		},
	})
}

func healthHandler(ping func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := "healthy"
		code := fiber.StatusOK
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				status = "unhealthy"
				code = fiber.StatusServiceUnavailable
			}
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}
