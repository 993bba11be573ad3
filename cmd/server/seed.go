package main

import (
	"context"
	"fmt"

	bakeryrepo "padaria/internal/bakery/repository"
	"padaria/internal/commons"
	"padaria/internal/config"
	"padaria/internal/infrastructure/logger"
	menurepo "padaria/internal/menu/repository"
	"padaria/internal/storefront"

	"github.com/spf13/cobra"
)

type seedOptions struct {
	*rootOptions
	File string
}

func newSeedCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &seedOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load bakeries and menus from a YAML fixture",
		Long: `Load bakeries and their menus from a YAML fixture into the configured store.

Examples:
  padaria seed --file seed.yaml
  STORE_DRIVER=mongo MONGO_URI=mongodb://localhost:27017/?replicaSet=rs0 padaria seed --file seed.yaml`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.File, "file", "", "path to the YAML fixture (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func runSeed(ctx context.Context, opts *seedOptions, cmd *cobra.Command) error {
	seed, err := commons.LoadSeed(opts.File)
	if err != nil {
		return err
	}

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
		return fmt.Errorf("opening remote store: %w", err)
	}
	defer releaseStore()

	retry := commons.RetryPolicy{MaxAttempts: cfg.Writes.MaxAttempts, BaseBackoff: cfg.Writes.BaseBackoff}
	catalog := storefront.NewCatalog(bakeryrepo.NewRemoteBakeryRepository(store, zapLogger), retry, zapLogger)
	menu := menurepo.NewRemoteMenuRepository(store, zapLogger)

	result, err := storefront.Seed(ctx, catalog, menu, seed, zapLogger)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d bakeries and %d menu items\n", result.Bakeries, result.MenuItems)
	return nil
}
