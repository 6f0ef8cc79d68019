package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/wichananm65/cooking-timer/internal/config"
)

const shutdownTimeout = 5 * time.Second

// RouteRegistrar is implemented by feature handlers.
type RouteRegistrar interface {
	RegisterPublicRoutes(app *fiber.App)
}

// New builds the fiber app. static may be nil, in which case /static is not
// mounted.
func New(cfg config.Config, page RouteRegistrar, static http.FileSystem) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "cooktimer",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	// requestLogger wraps recover so recovered panics are still logged
	app.Use(requestLogger)
	app.Use(recover.New())
	setupCORS(app, cfg.CORSOrigins)

	if static != nil {
		app.Use("/static", filesystem.New(filesystem.Config{Root: static}))
	}

	page.RegisterPublicRoutes(app)
	return app
}

// Run serves app on addr until ctx is cancelled, then shuts down gracefully.
// The listener is bound before serving starts so a cancel that arrives early
// still stops the server.
func Run(ctx context.Context, app *fiber.App, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("starting server")
		errc <- app.Listener(ln)
	}()

	select {
	case err := <-errc:
		ln.Close()
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	errShutdown := app.ShutdownWithContext(shutdownCtx)
	// serving may not have begun yet, in which case shutdown had nothing to close
	if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) && errShutdown == nil {
		errShutdown = err
	}
	if err := <-errc; err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", addr, err)
	}
	if errShutdown != nil {
		return fmt.Errorf("shutdown: %w", errShutdown)
	}
	return nil
}

func setupCORS(app *fiber.App, origins string) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,HEAD",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
}

func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	id := c.Get(fiber.HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(fiber.HeaderXRequestID, id)

	err := c.Next()
	// the error handler has not run yet, so derive the status the client will see
	status := c.Response().StatusCode()
	if err != nil {
		status = fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
	}

	log.Info().
		Str("request_id", id).
		Str("method", c.Method()).
		Str("url", c.OriginalURL()).
		Int("status", status).
		Dur("latency", time.Since(start)).
		Msg("request")
	return err
}

func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if !errors.As(err, &fe) || fe.Code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return fiber.DefaultErrorHandler(c, err)
}
