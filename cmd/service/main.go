package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/hellojohn-projects/internal/app"
	"github.com/dropDatabas3/hellojohn-projects/internal/config"
	"github.com/dropDatabas3/hellojohn-projects/internal/http/controllers/health"
	projectsctl "github.com/dropDatabas3/hellojohn-projects/internal/http/controllers/projects"
	mw "github.com/dropDatabas3/hellojohn-projects/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-projects/internal/http/router"
	"github.com/dropDatabas3/hellojohn-projects/internal/observability/logger"
)

func main() {
	// .env opcional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️  .env: %v", err)
	}

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config (optional)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.Log.Level,
		ServiceName: "hellojohn-projects",
	})
	defer logger.Sync() //nolint:errcheck
	lg := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := app.Build(ctx, cfg)
	if err != nil {
		lg.Fatal("wiring failed", logger.Err(err))
	}
	defer c.Close()

	httpMetrics, err := mw.NewHTTPMetrics(c.Registry)
	if err != nil {
		lg.Fatal("http metrics", logger.Err(err))
	}

	var cachePinger health.Pinger
	if c.Cache != nil {
		cachePinger = c.Cache
	}

	handler := router.New(router.Deps{
		Projects:       projectsctl.NewController(c.Provisioner, c.Email, cfg.Server.MaxBodyBytes),
		Health:         health.NewController(c.Store, cachePinger),
		Issuer:         c.Issuer,
		Metrics:        httpMetrics,
		MetricsHandler: promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("http server listening", logger.String("addr", cfg.Server.Addr), logger.Driver(c.Store.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		lg.Info("shutting down", logger.String("timeout", cfg.Server.ShutdownTimeout.String()))
		shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shCtx)
	})

	if err := g.Wait(); err != nil {
		lg.Error("server stopped with error", logger.Err(err))
		return
	}
	lg.Info("bye")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default()
	}
	return config.Load(path)
}
