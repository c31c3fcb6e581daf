package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/alsk1992/Flip-God-sub007/internal/api/handlers"
	"github.com/alsk1992/Flip-God-sub007/internal/api/middleware"
	"github.com/alsk1992/Flip-God-sub007/internal/config"
	"github.com/alsk1992/Flip-God-sub007/internal/engine"
	"github.com/alsk1992/Flip-God-sub007/internal/marketplace"
	"github.com/alsk1992/Flip-God-sub007/internal/notify"
	"github.com/alsk1992/Flip-God-sub007/internal/store"
	"github.com/alsk1992/Flip-God-sub007/pkg/logger"
	domain "github.com/alsk1992/Flip-God-sub007/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server and repricing daemon",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.NewPostgresStore(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer st.Close()

	registry := buildRegistry(cfg)

	var notifier notify.Notifier = notify.NewNoop()
	if cfg.Notifications.Discord.Enabled {
		notifier = notify.NewDiscordNotifier(cfg.Notifications.Discord.WebhookURL)
		log.Info("discord notifications enabled")
	}

	eng := engine.NewEngine(st, registry, notifier, engine.WithLogger(log))
	daemon := engine.NewDaemon(st, eng, log)

	maintenance, err := engine.NewMaintenance(st, log)
	if err != nil {
		return fmt.Errorf("setting up maintenance jobs: %w", err)
	}

	e := buildServer(cfg, log, st, daemon)

	maintenance.Start()
	if err := daemon.Start(ctx); err != nil {
		return fmt.Errorf("starting daemon: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", "addr", addr)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutting down server", "err", err)
	}
	if err := daemon.Stop(); err != nil && !errors.Is(err, engine.ErrDaemonNotRunning) {
		log.Error("stopping daemon", "err", err)
	}
	<-maintenance.Stop().Done()

	log.Info("stopped")
	return nil
}

// buildRegistry wires one marketplace client per configured platform behind
// a shared rate limiter. When marketplaces disagree on limits, the strictest
// setting wins; the daily quota is shared across all platforms.
func buildRegistry(cfg *config.Config) *marketplace.Registry {
	rps := 0.0
	burst := 0
	daily := 0
	for _, mc := range cfg.Marketplaces {
		if rps == 0 || mc.RateLimit.PerSecond < rps {
			rps = mc.RateLimit.PerSecond
		}
		if burst == 0 || mc.RateLimit.Burst < burst {
			burst = mc.RateLimit.Burst
		}
		if mc.RateLimit.DailyLimit > 0 && (daily == 0 || mc.RateLimit.DailyLimit < daily) {
			daily = mc.RateLimit.DailyLimit
		}
	}

	registry := marketplace.NewRegistry(marketplace.NewRateLimiter(rps, burst, daily))
	for name, mc := range cfg.Marketplaces {
		platform := domain.Platform(name)
		registry.Register(platform, marketplace.NewHTTPClient(mc.BaseURL, mc.APIKey, platform))
	}
	return registry
}

func buildServer(cfg *config.Config, log *slog.Logger, st store.Store, daemon *engine.Daemon) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Recovery(log))
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(st)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("flip-god", Version))
	handlers.RegisterRuleRoutes(api, handlers.NewRulesHandler(st))
	handlers.RegisterCrossPlatformRoutes(api, handlers.NewCrossPlatformHandler(st))
	handlers.RegisterConfigRoutes(api, handlers.NewConfigsHandler(st))
	handlers.RegisterListingRoutes(api, handlers.NewListingsHandler(st))
	handlers.RegisterHistoryRoutes(api, handlers.NewHistoryHandler(st))
	handlers.RegisterDaemonRoutes(api, handlers.NewDaemonHandler(daemon))
	handlers.RegisterCycleRoutes(api, handlers.NewCyclesHandler(st))
	handlers.RegisterSystemStateRoutes(api, handlers.NewSystemStateHandler(st))

	return e
}
