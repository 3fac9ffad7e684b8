package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wlconsole/wlconsole/internal/api"
	"github.com/wlconsole/wlconsole/internal/backend"
	"github.com/wlconsole/wlconsole/internal/config"
	"github.com/wlconsole/wlconsole/internal/console"
	"github.com/wlconsole/wlconsole/internal/metrics"
	"github.com/wlconsole/wlconsole/internal/prefs"
	"github.com/wlconsole/wlconsole/internal/source"
	"github.com/wlconsole/wlconsole/internal/stats"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "configs/wlconsole.yaml", "path to configuration file")
	flag.Parse()

	slog.Info("whitelist console starting...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("configuration loaded", "path", *configPath, "backend", cfg.Backend.Redacted().BaseURL)

	be, err := backend.New(cfg.Backend.BaseURL,
		backend.WithTimeout(cfg.Backend.Timeout),
		backend.WithSessionCookie(cfg.Backend.SessionCookie))
	if err != nil {
		slog.Error("failed to create backend client", "err", err)
		os.Exit(1)
	}

	m := metrics.New()
	n := console.NewNotifier(cfg.Console.NotificationTTL)
	opts := []console.Option{
		console.WithPageSize(cfg.Console.PageSize),
		console.WithMetrics(m),
		console.WithDefaultExpirationDays(cfg.Console.DefaultExpirationDays),
	}

	clients := console.NewClientManager(source.NewClientPage(be), be, n, opts...)
	whitelist := console.NewWhitelistManager(source.NewWhitelistPage(be), be, prefs.Open(cfg.Console.PrefsPath), n, opts...)

	// Initial load; failures are logged and the screens start empty.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.Timeout)
	if err := clients.Init(ctx); err != nil {
		slog.Warn("initial client load failed", "err", err)
	}
	if err := whitelist.Reload(ctx); err != nil {
		slog.Warn("initial whitelist load failed", "err", err)
	}
	cancel()

	poller := stats.NewPoller(be, m, cfg.Console.StatsInterval)
	poller.Start()

	apiServer := api.NewServer(clients, whitelist, poller, n, m, cfg.Listen)
	if err := apiServer.Start(cfg.Listen.APIPort); err != nil {
		slog.Error("failed to start API server", "err", err)
		os.Exit(1)
	}

	// Page size and API key follow the file; backend and listen address need a restart.
	pageSize, baseURL := cfg.Console.PageSize, cfg.Backend.BaseURL
	configWatcher, err := config.NewWatcher(*configPath, func(newCfg *config.Config) {
		slog.Info("reloading configuration...")
		if newCfg.Console.PageSize != pageSize {
			pageSize = newCfg.Console.PageSize
			clients.SetPageSize(pageSize)
			whitelist.SetPageSize(pageSize)
		}
		apiServer.SetListenConfig(newCfg.Listen)
		if newCfg.Backend.BaseURL != baseURL {
			slog.Warn("backend base_url changed, restart to apply")
		}
	})
	if err != nil {
		slog.Warn("config hot-reload not available", "err", err)
	}

	slog.Info("whitelist console ready",
		"api_bind", cfg.Listen.APIBind,
		"api_port", cfg.Listen.APIPort,
		"whitelist_tab", whitelist.Tab())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down...", "signal", sig)

	done := make(chan struct{})
	go func() {
		if configWatcher != nil {
			configWatcher.Stop()
		}
		apiServer.Stop()
		poller.Stop()
		n.Close()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("whitelist console stopped")
	case <-time.After(shutdownTimeout):
		slog.Error("shutdown timed out, forcing exit", "timeout", shutdownTimeout)
		os.Exit(1)
	}
}
