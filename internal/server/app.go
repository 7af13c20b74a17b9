// Package server initializes and runs the marketplace coordination server.
// It opens the entity store, runs schema migrations, wires the domain
// services onto the TCP transport, and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"auboutique/internal/logging"
	"auboutique/internal/server/config"
	"auboutique/internal/server/messages"
	"auboutique/internal/server/products"
	"auboutique/internal/server/ratings"
	"auboutique/internal/server/repomanager"
	"auboutique/internal/server/tcp"
	"auboutique/internal/server/users"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *tcp.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	var (
		db *sql.DB
		rm repomanager.RepositoryManager
	)

	if cfg.DatabaseDSN == "memory" {
		rm = repomanager.NewMemoryRepositoryManager()
	} else {
		var err error
		db, rm, err = repomanager.Open(cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		if err := rm.RunMigrations(context.Background(), db); err != nil {
			return nil, fmt.Errorf("db migration error: %w", err)
		}
	}

	userRepo := rm.Users(db)
	productRepo := rm.Products(db)

	us := users.NewService(userRepo, cfg.EmailDomain)
	ps := products.NewService(productRepo, us)
	rs := ratings.NewService(rm.Ratings(db), productRepo)
	ms := messages.NewService(rm.Messages(db), us)

	handlers := tcp.NewHandlers(us, ps, rs, ms, logger)
	srv := tcp.NewServer(cfg.EndpointAddr, handlers, logger, cfg.ReadTimeout, cfg.WriteTimeout)

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, err.Error())
		}
	}

	app.logger.Info(ctx, "App stopped")
}
