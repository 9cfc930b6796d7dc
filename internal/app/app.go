// Package app arma el grafo de dependencias compartido por cmd/service y
// cmd/projectsctl a partir de la configuración.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellojohn-projects/internal/cache"
	"github.com/dropDatabas3/hellojohn-projects/internal/config"
	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-projects/internal/email"
	jwtx "github.com/dropDatabas3/hellojohn-projects/internal/jwt"
	"github.com/dropDatabas3/hellojohn-projects/internal/metrics"
	"github.com/dropDatabas3/hellojohn-projects/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-projects/internal/projects"
	"github.com/dropDatabas3/hellojohn-projects/internal/security/secretbox"
	"github.com/dropDatabas3/hellojohn-projects/internal/store"
	"github.com/dropDatabas3/hellojohn-projects/migrations/postgres"

	// Adapters registrados vía init()
	_ "github.com/dropDatabas3/hellojohn-projects/internal/store/adapters/memory"
	_ "github.com/dropDatabas3/hellojohn-projects/internal/store/adapters/pg"
)

// viewCachePurpose propósito HKDF de la sub-clave que sella las vistas cacheadas.
const viewCachePurpose = "projects/view_cache"

type Container struct {
	Config      *config.Config
	Store       repository.Store
	Cache       cache.Client // nil con cache.kind=off
	Provisioner *projects.Provisioner
	Email       *email.Service
	Issuer      *jwtx.Issuer
	Registry    *prometheus.Registry
}

// Build abre store y cache, aplica migraciones si corresponde y construye
// los servicios. Close libera lo abierto.
func Build(ctx context.Context, cfg *config.Config) (*Container, error) {
	log := logger.L().With(logger.Component("app"))

	scfg := store.Config{
		Driver:           cfg.Storage.Driver,
		DSN:              cfg.Storage.DSN,
		SecretsMasterKey: cfg.Security.SecretBoxMasterKey,
	}
	scfg.Postgres.MaxOpenConns = cfg.Storage.Postgres.MaxOpenConns
	scfg.Postgres.MaxIdleConns = cfg.Storage.Postgres.MaxIdleConns

	st, err := store.Open(ctx, scfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	c := &Container{Config: cfg, Store: st}

	if cfg.Flags.Migrate || st.Name() == "postgres" {
		if err := c.Migrate(ctx); err != nil {
			c.Close()
			return nil, err
		}
	}

	if cfg.Cache.Kind != "off" {
		host, port := cfg.RedisHostPort()
		cc, err := cache.New(cache.Config{
			Driver:   cfg.Cache.Kind,
			Host:     host,
			Port:     port,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Prefix:   cfg.Cache.Redis.Prefix,
		})
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("open cache: %w", err)
		}
		c.Cache = cc
	}

	c.Registry = prometheus.NewRegistry()
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.NewRecorder(c.Registry)
	if err != nil {
		c.Close()
		return nil, err
	}
	if ps, ok := st.(interface{ Pool() *pgxpool.Pool }); ok {
		c.Registry.MustRegister(metrics.NewPoolCollector(ps.Pool))
	}

	opts := []projects.Option{projects.WithRecorder(rec)}
	if c.Cache != nil {
		box, err := secretbox.New(cfg.Security.SecretBoxMasterKey, viewCachePurpose)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("view cache sealer: %w", err)
		}
		opts = append(opts, projects.WithViewCache(c.Cache, cfg.ViewTTL(), projects.SealWith(box)))
	}
	c.Provisioner = projects.NewProvisioner(st, opts...)

	c.Email = email.NewService(st, email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromEmail: cfg.SMTP.From,
		FromName:  cfg.SMTP.FromName,
		TLSMode:   cfg.SMTP.TLS,
	})
	c.Issuer = NewIssuer(cfg)

	log.Info("app wired",
		logger.Driver(st.Name()),
		logger.String("cache", cfg.Cache.Kind),
		zap.Bool("smtp_configured", cfg.SMTP.Host != ""),
	)
	return c, nil
}

// NewIssuer construye el emisor/validador de tokens de owner.
func NewIssuer(cfg *config.Config) *jwtx.Issuer {
	return jwtx.NewIssuer(cfg.Auth.Issuer, cfg.Auth.JWTSecret)
}

// Migrate aplica las migraciones embebidas. No-op para memory.
func (c *Container) Migrate(ctx context.Context) error {
	res, err := store.Migrate(ctx, c.Store, store.NewMigrator(postgres.FS, postgres.Dir))
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.L().Info("migrations done",
		logger.Driver(c.Store.Name()),
		logger.Int("applied", len(res.Applied)),
		logger.Int("skipped", len(res.Skipped)),
		logger.Duration(res.Duration),
	)
	return nil
}

// Close cierra cache y store.
func (c *Container) Close() {
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			logger.L().Warn("cache close", logger.Err(err))
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			logger.L().Warn("store close", logger.Err(err))
		}
	}
}
