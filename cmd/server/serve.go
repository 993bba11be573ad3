package main

import (
	"context"
	"database/sql"
	"fmt"
	"os/signal"
	"syscall"

	"padaria/internal/commons"
	"padaria/internal/config"
	"padaria/internal/infrastructure/logger"
	"padaria/internal/infrastructure/mysql"
	"padaria/internal/infrastructure/rabbitmq"
	menurepo "padaria/internal/menu/repository"
	"padaria/internal/order"
	"padaria/internal/server"
	"padaria/internal/storefront"
	"padaria/internal/storefront/controller"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type serveOptions struct {
	*rootOptions
	SeedFile string
}

func newServeCommand(opts *serveOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.SeedFile, "seed", "", "YAML fixture loaded into the store before serving")

	return cmd
}

func runServe(ctx context.Context, opts *serveOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	zapLogger, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer zapLogger.Sync()

	store, releaseStore, err := openStore(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("opening remote store", zap.Error(err))
	}
	defer releaseStore()

	var db *sql.DB
	if cfg.Database.Enabled {
		db, err = mysql.NewConnection(ctx, cfg.Database)
		if err != nil {
			zapLogger.Fatal("connecting to audit database", zap.Error(err))
		}
		defer db.Close()
		if err := mysql.Migrate(ctx, db); err != nil {
			zapLogger.Fatal("migrating audit database", zap.Error(err))
		}
		zapLogger.Info("audit database connected")
	}

	var broker *rabbitmq.Broker
	if cfg.Broker.URL != "" {
		broker, err = rabbitmq.NewBroker(cfg.Broker.URL)
		if err != nil {
			zapLogger.Fatal("connecting to rabbitmq", zap.Error(err))
		}
		defer broker.Close()
		zapLogger.Info("rabbitmq connected")
	}

	orderModule := order.NewModule(db, broker, cfg, zapLogger)
	manager, catalog := storefront.NewModule(store, orderModule, cfg, zapLogger)

	if opts.SeedFile != "" {
		seed, err := commons.LoadSeed(opts.SeedFile)
		if err != nil {
			return err
		}
		menu := menurepo.NewRemoteMenuRepository(store, zapLogger)
		if _, err := storefront.Seed(ctx, catalog, menu, seed, zapLogger); err != nil {
			return err
		}
	}

	ctrl := controller.NewController(manager, catalog, orderModule.Lifecycle, zapLogger)
	router := server.NewRouter(ctrl, zapLogger)
	srv := server.New(cfg.Server, router, zapLogger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go manager.Run(ctx)

	err = srv.ListenAndRun(ctx)
	manager.CloseAll()
	if err != nil {
		return err
	}

	zapLogger.Info("server stopped gracefully")
	return nil
}
