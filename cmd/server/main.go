package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/yard-planner/backend/internal/api"
	"github.com/yard-planner/backend/internal/config"
	"github.com/yard-planner/backend/internal/logging"
	"github.com/yard-planner/backend/internal/parser"
	"github.com/yard-planner/backend/internal/session"
	"github.com/yard-planner/backend/internal/settings"
	"github.com/yard-planner/backend/internal/storage"
	"github.com/yard-planner/backend/internal/web"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const defaultConfigName = "YardPlanner.config"

var (
	configPath string
	seedPath   string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "yard-server",
	Short:         "Container yard planner server",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			return nil
		}
		exePath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}
		configPath = filepath.Join(filepath.Dir(exePath), defaultConfigName)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "XML config file (default: next to the executable)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&seedPath, "seed", "", "Default seed fixture (overrides Yard/SeedFile)")
	rootCmd.AddCommand(validateSeedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Advanced.LogLevel = logLevel
	}
	if seedPath != "" {
		cfg.Yard.SeedFile = seedPath
	}

	log, err := logging.New(cfg.Advanced.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	embeddedMode := web.HasEmbeddedFiles()

	seedStore, err := storage.NewLocalStore(cfg.GetSeedsDir())
	if err != nil {
		return fmt.Errorf("failed to initialize seed storage: %w", err)
	}

	prefs, err := openPrefStore(cfg, log)
	if err != nil {
		return err
	}
	defer prefs.Close()

	sessions, err := session.NewManager(session.Options{
		Layout:        cfg.YardLayout(),
		ToastDuration: cfg.ToastDuration(),
		MaxSessions:   cfg.Yard.MaxSessions,
		Logger:        log.Named("session"),
	})
	if err != nil {
		return err
	}

	catalog := api.NewSeedCatalog(seedStore, parser.GetGlobalRegistry(), loadDefaultSeed(cfg.Yard.SeedFile, log), log.Named("seeds"))

	handlers := api.NewHandlers(&api.Dependencies{
		Sessions:     sessions,
		Seeds:        seedStore,
		Catalog:      catalog,
		Settings:     settings.NewService(prefs, log.Named("settings")),
		Version:      Version,
		MaxMessageKB: cfg.Advanced.WebSocketMaxMessageSize,
		MaxSeedKB:    cfg.Storage.MaxSeedSizeKB,
		Logger:       log,
	})

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.SetupMiddleware(e, api.MiddlewareConfig{
		RequestLogging: cfg.Advanced.EnableRequestLogging,
		RequestTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		BodyLimit:      cfg.Server.BodyLimit,
		EnableCORS:     cfg.Server.EnableCORS,
		AllowOrigins:   cfg.Server.AllowOrigins,
		Embedded:       embeddedMode,
		Logger:         log.Named("http"),
	})
	api.RegisterRoutes(e, handlers)

	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			log.Warn("failed to register static routes", zap.Error(err))
		} else {
			log.Info("serving embedded frontend from binary")
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, embeddedMode)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sessions.Run(gctx, cfg.CleanupInterval(), cfg.SessionTimeout())
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openPrefStore returns the DuckDB-backed store when persistence is enabled
// and an in-memory one otherwise.
func openPrefStore(cfg *config.AppConfig, log *zap.Logger) (storage.PrefStore, error) {
	if !cfg.Storage.EnablePersistence {
		log.Info("preferences are kept in memory")
		return storage.NewMemoryPrefStore(), nil
	}
	store, err := storage.NewDuckPrefStore(cfg.Storage.PreferencesDB, storage.DuckOptions{
		Threads:     cfg.Advanced.DuckDBThreads,
		MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
	}, log.Named("prefs"))
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences database: %w", err)
	}
	return store, nil
}

// loadDefaultSeed reads the configured fixture. A missing or broken file
// leaves the yard empty.
func loadDefaultSeed(path string, log *zap.Logger) session.Seed {
	name := filepath.Base(path)
	fixture, err := parser.LoadSeedFile(path)
	if err != nil {
		log.Warn("default seed not loaded, starting with an empty yard", zap.String("path", path), zap.Error(err))
		return session.Seed{Name: name}
	}
	log.Info("default seed loaded", zap.String("path", path), zap.Int("containers", len(fixture.Containers)))
	return session.Seed{Name: name, Records: fixture.Containers}
}

func printBanner(cfg *config.AppConfig, embedded bool) {
	mode := "Development"
	if embedded {
		mode = "Embedded"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Container Yard Planner                          ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embedded {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}
}
