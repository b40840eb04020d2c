package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/linklytics/internal/capture"
	"github.com/vadimbarashkov/linklytics/internal/config"
	repository "github.com/vadimbarashkov/linklytics/internal/database/postgres"
	"github.com/vadimbarashkov/linklytics/internal/service"
	"github.com/vadimbarashkov/linklytics/pkg/postgres"
	"golang.org/x/sync/errgroup"

	api "github.com/vadimbarashkov/linklytics/internal/api/http"
)

// Run wires the application together and blocks until ctx is cancelled or a
// component fails.
func Run(ctx context.Context, cfg *config.Config) error {
	const op = "app.Run"

	db, err := postgres.New(
		ctx,
		cfg.Postgres.DSN(),
		postgres.WithConnMaxIdleTime(cfg.Postgres.ConnMaxIdleTime),
		postgres.WithConnMaxLifetime(cfg.Postgres.ConnMaxLifetime),
		postgres.WithMaxIdleConns(cfg.Postgres.MaxIdleConns),
		postgres.WithMaxOpenConns(cfg.Postgres.MaxOpenConns),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to connect to database: %w", op, err)
	}
	defer db.Close()

	if err := postgres.RunMigrations("file://migrations", cfg.Postgres.DSN()); err != nil {
		return fmt.Errorf("%s: failed to run migrations: %w", op, err)
	}

	logger := httplog.NewLogger("linklytics", httplog.Options{
		JSON:    cfg.Env == config.EnvProd,
		Concise: cfg.Env != config.EnvProd,
	})

	linkRepo := repository.NewLinkRepository(db)
	clickRepo := repository.NewClickEventRepository(db)
	userRepo := repository.NewUserRepository(db)

	recorder := capture.NewRecorder(clickRepo, logger.Logger,
		capture.WithQueueSize(cfg.Capture.QueueSize),
		capture.WithWriteTimeout(cfg.Capture.WriteTimeout),
	)
	defer recorder.Close()

	linkSvc := service.NewLinkService(linkRepo, clickRepo)
	analyticsSvc := service.NewAnalyticsService(clickRepo, linkRepo)
	redirectSvc := service.NewRedirectService(linkRepo, recorder)

	router := api.NewRouter(api.Config{
		Logger:            logger,
		Links:             linkSvc,
		Analytics:         analyticsSvc,
		Redirect:          redirectSvc,
		Users:             userRepo,
		JWTSecret:         cfg.Auth.JWTSecret,
		ErrorRedirectPath: cfg.ErrorRedirectPath,
		ShortDomain:       cfg.ShortDomain,
	})

	server := &http.Server{
		Addr:           cfg.HTTPServer.Addr(),
		Handler:        router,
		ReadTimeout:    cfg.HTTPServer.ReadTimeout,
		WriteTimeout:   cfg.HTTPServer.WriteTimeout,
		IdleTimeout:    cfg.HTTPServer.IdleTimeout,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		switch cfg.Env {
		case config.EnvProd:
			err = server.ListenAndServeTLS(cfg.HTTPServer.CertFile, cfg.HTTPServer.KeyFile)
		default:
			err = server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("%s: server error occurred: %w", op, err)
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("%s: failed to shutdown server: %w", op, err)
		}

		return nil
	})

	return g.Wait()
}
