// Package server wires the document bridge together: storage backend,
// callback journal, services and the public and internal HTTP listeners.
// It handles graceful shutdown on SIGINT, SIGTERM and SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/officebridge/internal/logging"
	"github.com/dmitrijs2005/officebridge/internal/netx"
	"github.com/dmitrijs2005/officebridge/internal/server/api"
	"github.com/dmitrijs2005/officebridge/internal/server/config"
	"github.com/dmitrijs2005/officebridge/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/officebridge/internal/server/services"
	"github.com/dmitrijs2005/officebridge/internal/server/storage"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	documents *services.DocumentService
	sessions  *services.SessionService
	callbacks *services.CallbackService
}

// NewApp connects to the configured store and, when a DSN is set, to the
// journal database, applying pending migrations.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel, c.LogPlaintext)

	store, err := storage.NewFromConfig(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	var db *sql.DB
	rm := repomanager.NewInMemoryRepositoryManager()
	if c.DatabaseDSN != "" {
		db, err = repomanager.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		rm = repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db migrations error: %w", err)
		}
	} else {
		logger.Warn(ctx, "DATABASE_DSN is not set, callback journal is kept in memory")
	}

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		documents: services.NewDocumentService(store),
		sessions:  services.NewSessionService(store, c),
		callbacks: services.NewCallbackService(store, db, rm, netx.NewHTTPClient(), c),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startServer(ctx context.Context, cancelFunc context.CancelFunc, s *api.Server) {
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves both listeners until a signal arrives or one of them fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.config.StorageBackend)

	app.initSignalHandler(cancelFunc)

	public := api.NewServer("public_http", app.config.ServerAddr,
		api.NewRouter(app.documents, app.callbacks), app.logger, app.config.ShutdownTimeout)
	internal := api.NewServer("internal_http", app.config.InternalAddr,
		api.NewInternalRouter(app.sessions), app.logger, app.config.ShutdownTimeout)

	var wg sync.WaitGroup

	for _, s := range []*api.Server{public, internal} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startServer(ctx, cancelFunc, s)
		}()
	}

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close failed", "error", err)
		}
	}

	app.logger.Info(ctx, "App stopped")
}
