// Package app wires configuration, storage, clients, and services into a
// single application container used by cmd/stockdeck-server.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/stockdeck/internal/cache"
	"github.com/bobmcallan/stockdeck/internal/clients/yahoo"
	"github.com/bobmcallan/stockdeck/internal/common"
	"github.com/bobmcallan/stockdeck/internal/interfaces"
	"github.com/bobmcallan/stockdeck/internal/services/activity"
	"github.com/bobmcallan/stockdeck/internal/services/profile"
	"github.com/bobmcallan/stockdeck/internal/services/stockdata"
	"github.com/bobmcallan/stockdeck/internal/storage/surrealdb"
)

// App holds all initialized clients, services, and storage.
type App struct {
	Config      *common.Config
	Logger      *common.Logger
	Storage     interfaces.StorageManager
	YahooClient interfaces.MarketDataClient
	StockData   interfaces.StockDataService
	Profile     interfaces.ProfileService
	Activity    interfaces.ActivityService
	StockCache  *cache.Cache
	StartupTime time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, logging, storage, clients, and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	// Get binary directory for self-contained operation
	binDir := getBinaryDir()

	// Load configuration - check provided path, STOCKDECK_CONFIG, then binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("STOCKDECK_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "stockdeck.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/stockdeck.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := common.NewLogger(config.Logging.Level)

	// Initialize storage
	storageManager, err := surrealdb.NewManager(logger, config)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Initialize the market data client
	yahooClient := yahoo.NewClient(
		yahoo.WithBaseURL(config.Clients.Yahoo.BaseURL),
		yahoo.WithLogger(logger),
		yahoo.WithRateLimit(config.Clients.Yahoo.RateLimit),
		yahoo.WithTimeout(config.Clients.Yahoo.GetTimeout()),
		yahoo.WithConcurrency(config.Clients.Yahoo.Concurrency),
	)

	// Initialize services
	stockDataService := stockdata.NewService(yahooClient, logger)
	profileService := profile.NewService(storageManager, logger)
	activityService := activity.NewService(storageManager, logger)

	a := &App{
		Config:      config,
		Logger:      logger,
		Storage:     storageManager,
		YahooClient: yahooClient,
		StockData:   stockDataService,
		Profile:     profileService,
		Activity:    activityService,
		StockCache:  cache.New(),
		StartupTime: startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.Storage != nil {
		a.Storage.Close()
		a.Storage = nil
	}
}
