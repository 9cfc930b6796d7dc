package store

import (
	"context"
	"strings"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
)

// Config configuración de alto nivel del store (ver config.Storage).
type Config struct {
	Driver   string
	DSN      string
	Postgres struct {
		MaxOpenConns, MaxIdleConns int
	}
	SecretsMasterKey string
}

// NormalizeDriver mapea alias de driver a su nombre canónico.
func NormalizeDriver(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "postgres", "pg", "postgresql":
		return "postgres"
	case "memory", "mem", "":
		return "memory"
	default:
		return strings.ToLower(d)
	}
}

// Open abre el Store del driver configurado. El adapter debe estar
// registrado (import con blank identifier del paquete del adapter).
func Open(ctx context.Context, cfg Config) (repository.Store, error) {
	return OpenAdapter(ctx, AdapterConfig{
		Name:             NormalizeDriver(cfg.Driver),
		DSN:              cfg.DSN,
		MaxOpenConns:     cfg.Postgres.MaxOpenConns,
		MaxIdleConns:     cfg.Postgres.MaxIdleConns,
		SecretsMasterKey: cfg.SecretsMasterKey,
	})
}
