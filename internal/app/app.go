package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/vancomm/minefield/internal/config"
	"github.com/vancomm/minefield/internal/database"
	"github.com/vancomm/minefield/internal/middleware"
)

type App struct {
	logger     *slog.Logger
	router     *http.ServeMux
	db         *pgxpool.Pool
	jwt        *config.JWT
	ws         *config.WebSocket
	game       *config.Game
	origins    []string
	migrations fs.FS
}

func New(logger *slog.Logger, migrations fs.FS) *App {
	router := http.NewServeMux()

	app := &App{
		logger:     logger,
		router:     router,
		migrations: migrations,
	}

	return app
}

// load reads the configuration and connects to the database.
func (a *App) load(ctx context.Context) error {
	var err error

	if a.jwt, err = config.NewJWT(); err != nil {
		return err
	}
	if a.game, err = config.NewGame(); err != nil {
		return err
	}
	a.origins = config.AllowedOrigins()
	if a.ws, err = config.NewWebSocket(a.origins); err != nil {
		return err
	}

	db, migrator, err := database.ConnectAndMigrate(ctx, a.migrations)
	if err != nil {
		return fmt.Errorf("unable to connect to db: %w", err)
	}
	if srcErr, dbErr := migrator.Close(); srcErr != nil || dbErr != nil {
		a.logger.Warn("unable to close migrator",
			slog.Any("source error", srcErr), slog.Any("db error", dbErr))
	}
	a.db = db

	return nil
}

func (a *App) Handler() http.Handler {
	var h http.Handler = a.router
	if base := config.BasePath(); base != "" {
		h = http.StripPrefix(base, h)
	}
	return middleware.Wrap(
		h,
		middleware.Auth(a.logger, a.jwt),
		middleware.Cors(a.origins),
		middleware.Logging(a.logger),
	)
}

// Start serves until ctx is cancelled, then shuts the server down.
func (a *App) Start(ctx context.Context) error {
	if err := a.load(ctx); err != nil {
		return err
	}
	defer a.db.Close()

	a.loadRoutes()

	addr := config.Addr()
	server := &http.Server{
		Addr:    addr,
		Handler: a.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("server listening",
			slog.String("addr", addr),
			slog.String("base path", config.BasePath()),
			slog.String("difficulty", string(a.game.Difficulty)),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("unable to listen and serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*30)
		defer cancel()
		a.logger.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
