package main

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/aptfolio/defitrack/internal/api"
	"github.com/aptfolio/defitrack/internal/asset"
	"github.com/aptfolio/defitrack/internal/config"
	"github.com/aptfolio/defitrack/internal/database"
	"github.com/aptfolio/defitrack/internal/discovery"
	"github.com/aptfolio/defitrack/internal/domain"
	"github.com/aptfolio/defitrack/internal/export"
	"github.com/aptfolio/defitrack/internal/indexer"
	"github.com/aptfolio/defitrack/internal/price"
	"github.com/aptfolio/defitrack/internal/snapshot"
	"github.com/aptfolio/defitrack/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	app := &cli.App{
		Name:  "defitrack",
		Usage: "Aptos DeFi portfolio tracker",
		Commands: []*cli.Command{
			serveCommand(),
			positionsCommand(),
			statsCommand(),
			snapshotCommand(),
			exportCommand(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// services bundles the live portfolio pipeline shared by every command.
type services struct {
	assets    *asset.Service
	prices    *price.Service
	portfolio *discovery.Service
}

func buildServices(cfg config.Config) *services {
	indexerClient := indexer.NewClient(cfg.FullnodeURL, cfg.IndexerURL, cfg.FullnodeRetryMax, cfg.FullnodeRetryDelay)
	primary := price.NewClient(cfg.PriceAPIURL, cfg.PriceAPIKey)
	secondary := price.NewSecondaryClient(cfg.SecondaryPriceURL, cfg.SecondaryPriceDelay, cfg.SecondaryRetryMax)
	priceSvc := price.NewService(primary, secondary)
	assetSvc := asset.NewService(indexerClient, priceSvc)
	return &services{
		assets:    assetSvc,
		prices:    priceSvc,
		portfolio: discovery.NewService(indexerClient, assetSvc, priceSvc),
	}
}

// corePriceAssets are kept warm by the price worker so interactive requests
// rarely pay for a cold lookup.
var corePriceAssets = []string{
	domain.APTAddress,
	"0xf22bede237a07e121b56d91a491eb7bcdfd1f5907926a9e58338f964a01b17fa::asset::USDC",
	"0xf22bede237a07e121b56d91a491eb7bcdfd1f5907926a9e58338f964a01b17fa::asset::USDT",
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API with background snapshot and price workers",
		Action: func(c *cli.Context) error {
			ctx := c.Context
			cfg := config.Load()
			svcs := buildServices(cfg)

			var snapshotSvc *snapshot.Service
			if cfg.DatabaseURL != "" {
				pool, err := database.Connect(ctx, cfg.DatabaseURL)
				if err != nil {
					return fmt.Errorf("connecting to database: %w", err)
				}
				defer pool.Close()

				migrationsSub, err := fs.Sub(migrationsFS, "migrations")
				if err != nil {
					return fmt.Errorf("creating migrations sub-fs: %w", err)
				}
				if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
					return fmt.Errorf("running migrations: %w", err)
				}

				snapshotRepo := snapshot.NewPgRepository(pool)
				snapshotSvc = snapshot.NewService(svcs.portfolio, snapshotRepo)

				var hook worker.AfterSnapshotHook
				if cfg.SpreadsheetID != "" && cfg.SheetsCredentialsEnv != "" {
					writer, err := export.NewSheetsWriter(ctx, cfg.SpreadsheetID, cfg.SheetsCredentialsEnv)
					if err != nil {
						return fmt.Errorf("creating sheets writer: %w", err)
					}
					hook = export.NewService(snapshotRepo, writer)
				}

				if len(cfg.TrackedWallets) > 0 {
					snapshotWorker := worker.NewSnapshotWorker(snapshotSvc, cfg.TrackedWallets, cfg.SnapshotInterval, hook)
					go snapshotWorker.Run(ctx)
				}
			} else {
				slog.Warn("DATABASE_URL not set, snapshot endpoints and workers disabled")
			}

			priceWorker := worker.NewPriceWorker(svcs.prices, corePriceAssets, 5*time.Minute)
			go priceWorker.Run(ctx)

			if cfg.APIToken == "" {
				slog.Warn("API_TOKEN not set, generate endpoint is unprotected")
			}

			var snapshotAPI api.SnapshotService
			if snapshotSvc != nil {
				snapshotAPI = snapshotSvc
			}
			srv := api.NewServer(cfg.HTTPPort, svcs.portfolio, svcs.assets, snapshotAPI, cfg.APIToken)

			go func() {
				slog.Info("HTTP server listening", "port", cfg.HTTPPort)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					slog.Error("HTTP server error", "error", err)
				}
			}()

			<-ctx.Done()
			slog.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server shutdown error", "error", err)
			}
			return nil
		},
	}
}

func positionsCommand() *cli.Command {
	return &cli.Command{
		Name:      "positions",
		Usage:     "print a wallet's DeFi positions as JSON",
		ArgsUsage: "<address>",
		Action: func(c *cli.Context) error {
			address := c.Args().First()
			if address == "" {
				return fmt.Errorf("wallet address is required")
			}

			svcs := buildServices(config.Load())
			positions, err := svcs.portfolio.GetDeFiPositions(c.Context, address)
			if err != nil {
				return err
			}
			return printJSON(positions)
		},
	}
}

func statsCommand() *cli.Command {
	return &cli.Command{
		Name:      "stats",
		Usage:     "print a wallet's aggregated DeFi stats as JSON",
		ArgsUsage: "<address>",
		Action: func(c *cli.Context) error {
			address := c.Args().First()
			if address == "" {
				return fmt.Errorf("wallet address is required")
			}

			svcs := buildServices(config.Load())
			stats, err := svcs.portfolio.GetDeFiStats(c.Context, address)
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
}

func snapshotCommand() *cli.Command {
	return &cli.Command{
		Name:      "snapshot",
		Usage:     "capture and store a snapshot for a wallet",
		ArgsUsage: "<address>",
		Action: func(c *cli.Context) error {
			address := c.Args().First()
			if address == "" {
				return fmt.Errorf("wallet address is required")
			}

			ctx := c.Context
			cfg := config.Load()
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for snapshots")
			}

			pool, err := database.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer pool.Close()

			migrationsSub, err := fs.Sub(migrationsFS, "migrations")
			if err != nil {
				return fmt.Errorf("creating migrations sub-fs: %w", err)
			}
			if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
				return fmt.Errorf("running migrations: %w", err)
			}

			svcs := buildServices(cfg)
			snapshotSvc := snapshot.NewService(svcs.portfolio, snapshot.NewPgRepository(pool))

			data, err := snapshotSvc.Generate(ctx, address, time.Now().UTC())
			if err != nil {
				return err
			}
			slog.Info("snapshot stored",
				"wallet", address,
				"positions", data.Stats.TotalPositions,
				"tvl", data.Stats.TotalValueLocked)
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "write a wallet's portfolio report to an .xlsx workbook",
		ArgsUsage: "<address>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "out",
				Value: "portfolio.xlsx",
				Usage: "output workbook path",
			},
		},
		Action: func(c *cli.Context) error {
			address := c.Args().First()
			if address == "" {
				return fmt.Errorf("wallet address is required")
			}

			ctx := c.Context
			svcs := buildServices(config.Load())
			stats, err := svcs.portfolio.GetDeFiStats(ctx, address)
			if err != nil {
				return err
			}
			positions, err := svcs.portfolio.GetDeFiPositions(ctx, address)
			if err != nil {
				return err
			}

			writer := export.NewXlsxWriter(c.String("out"))
			report := export.Report{
				Summary: export.Summary{
					Wallet:         stats.Wallet,
					TotalPositions: stats.TotalPositions,
					TotalValue:     stats.TotalValueLocked,
					TopProtocols:   stats.TopProtocols,
				},
				Rows: export.BuildRows(address, positions),
			}
			if err := writer.Write(ctx, report); err != nil {
				return err
			}
			slog.Info("report written", "path", c.String("out"), "rows", len(report.Rows))
			return nil
		},
	}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
