// Package main is the entry point for the structured product evaluation
// service. It wires the databases, market data clients, evaluation engine,
// HTTP API, and background sync jobs, then runs until shutdown.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"notewatch/internal/clientdata"
	"notewatch/internal/clients/eodhd"
	"notewatch/internal/clients/exchangerate"
	"notewatch/internal/config"
	"notewatch/internal/database"
	"notewatch/internal/modules/charts"
	chartshandlers "notewatch/internal/modules/charts/handlers"
	"notewatch/internal/modules/currency"
	currencyhandlers "notewatch/internal/modules/currency/handlers"
	"notewatch/internal/modules/evaluation"
	evaluationhandlers "notewatch/internal/modules/evaluation/handlers"
	"notewatch/internal/modules/marketdata"
	marketdatahandlers "notewatch/internal/modules/marketdata/handlers"
	"notewatch/internal/modules/products"
	productshandlers "notewatch/internal/modules/products/handlers"
	"notewatch/internal/scheduler"
	"notewatch/internal/server"
	"notewatch/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Msg("Starting product evaluation service")

	// Databases
	productsDB := mustOpenDB(log, database.Config{
		Path:    filepath.Join(cfg.DataDir, "products.db"),
		Name:    "products",
		Profile: database.ProfileStandard,
	})
	defer productsDB.Close()

	historyDB := mustOpenDB(log, database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Name:    "history",
		Profile: database.ProfileStandard,
	})
	defer historyDB.Close()

	clientDataDB := mustOpenDB(log, database.Config{
		Path:    filepath.Join(cfg.DataDir, "client_data.db"),
		Name:    "client_data",
		Profile: database.ProfileCache,
	})
	defer clientDataDB.Close()

	// Repositories
	productRepo := products.NewRepository(productsDB.Conn(), log)
	historyRepo := marketdata.NewHistoryRepository(historyDB.Conn(), log)
	cacheRepo := clientdata.NewRepository(clientDataDB.Conn())

	// Market data clients and currency services
	var priceClient marketdata.PriceClient
	var historyProvider scheduler.HistoryProvider
	if cfg.EODHDAPIToken != "" {
		eodhdClient := eodhd.NewClient(cfg.EODHDAPIToken, log)
		priceClient = eodhdClient
		historyProvider = eodhdClient
	} else {
		log.Warn().Msg("No market data token configured, running from cached data only")
	}

	quoteService := marketdata.NewQuoteService(priceClient, cacheRepo, log)
	rateClient := exchangerate.NewClient(cacheRepo, log)
	normalizer := currency.NewNormalizer(log)
	exchangeService := currency.NewExchangeService(rateClient, log)

	// Evaluation engine
	resolver := evaluation.NewResolver(historyRepo, quoteService, normalizer, log)
	scanner := evaluation.NewScanner(historyRepo, normalizer, log)
	orionCalc := evaluation.NewOrionCalculator(scanner, log)
	participationCalc := evaluation.NewParticipationCalculator(log)
	evalService := evaluation.NewService(resolver, orionCalc, participationCalc, nil, log)

	chartService := charts.NewService(historyRepo, normalizer, log)

	// HTTP server
	srv := server.New(server.Config{
		Log:          log,
		Port:         cfg.Port,
		DevMode:      cfg.DevMode,
		DataDir:      cfg.DataDir,
		ProductsDB:   productsDB,
		HistoryDB:    historyDB,
		ClientDataDB: clientDataDB,
		Modules: []server.RouteRegistrar{
			evaluationhandlers.NewHandler(productRepo, evalService, log),
			productshandlers.NewHandler(productRepo, log),
			marketdatahandlers.NewHandler(historyRepo, quoteService, log),
			chartshandlers.NewHandler(productRepo, chartService, log),
			currencyhandlers.NewHandler(exchangeService, log),
		},
	})

	// Background jobs
	sched := scheduler.New(log)
	cleanupJob := clientdata.NewCleanupJob(cacheRepo, log)
	if err := sched.AddJob("0 0 3 * * *", cleanupJob); err != nil {
		log.Error().Err(err).Msg("Failed to register cleanup job")
	}
	if historyProvider != nil {
		syncJob := scheduler.NewHistorySyncJob(productRepo, historyRepo, historyProvider, log)
		if err := sched.AddJob("0 30 2 * * *", syncJob); err != nil {
			log.Error().Err(err).Msg("Failed to register history sync job")
		}
		go func() {
			if err := sched.RunNow(syncJob); err != nil {
				log.Error().Err(err).Msg("Initial history sync failed")
			}
		}()
	}
	sched.Start()

	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	log.Info().Msg("Shutdown complete")
}

// mustOpenDB opens and migrates a database, exiting on failure.
func mustOpenDB(log zerolog.Logger, cfg database.Config) *database.DB {
	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("database", cfg.Name).Msg("Failed to open database")
	}
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Str("database", cfg.Name).Msg("Failed to migrate database")
	}
	return db
}
