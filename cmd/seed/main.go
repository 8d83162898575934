package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"subsavvy/internal/config"
	pg "subsavvy/internal/infra/db/postgres"
	"subsavvy/internal/infra/logging"
	"subsavvy/internal/usecase"
)

var (
	cfgFile  string
	seedFile string
	dryRun   bool

	rootCmd = &cobra.Command{
		Use:   "seed",
		Short: "Load the service catalog and telecom bundles into Postgres",
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "path to config yaml")
	rootCmd.PersistentFlags().StringVar(&seedFile, "file", "deploy/seed/seed.yaml", "seed data file")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "validate the seed file without writing")

	rootCmd.AddCommand(applyCmd("all", "Load catalog services and bundles", true, true))
	rootCmd.AddCommand(applyCmd("catalog", "Load catalog services only", true, false))
	rootCmd.AddCommand(applyCmd("bundles", "Load bundles only", false, true))
}

func applyCmd(use, short string, catalog, bundles bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := loadSeed(seedFile)
			if err != nil {
				return err
			}
			if !catalog {
				data.Catalog = nil
			}
			if !bundles {
				data.Bundles = nil
			}
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d catalog services, %d bundles (dry run)\n", seedFile, len(data.Catalog), len(data.Bundles))
				return nil
			}

			cfg, err := config.Load(cfgFile, false)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := logging.New(cfg.Log, cfg.Runtime.Dev)

			pool, err := pg.Connect(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("postgres: %w", err)
			}
			defer pool.Close()

			bundleUC := usecase.NewBundleUseCase(pg.NewBundleRepo(pool), pg.NewSubscriptionRepo(pool), logger)
			res, err := apply(cmd.Context(), data, pg.NewTxManager(pool), pg.NewCatalogRepo(pool), bundleUC)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d catalog services, %d bundles\n", res.Catalog, res.Bundles)
			return nil
		},
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
