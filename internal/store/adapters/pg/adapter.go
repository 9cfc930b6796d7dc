// Package pg implementa el Store de proyectos sobre PostgreSQL (pgx/v5).
// Todas las escrituras de una transacción comparten un pgx.Tx con
// aislamiento read committed; los owners se actualizan con row lock.
package pg

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-projects/internal/security/secretbox"
	"github.com/dropDatabas3/hellojohn-projects/internal/store"
)

func init() {
	store.RegisterAdapter(&postgresAdapter{})
}

// Propósitos HKDF de las sub-claves de secretbox.
const (
	purposeOAuthSecret  = "projects/oauth_client_secret"
	purposeSMTPPassword = "projects/smtp_password"
)

// postgresAdapter implementa store.Adapter para PostgreSQL.
type postgresAdapter struct{}

func (a *postgresAdapter) Name() string { return "postgres" }

func (a *postgresAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (repository.Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}

	// Configurar pool
	if cfg.MaxOpenConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	} else {
		poolCfg.MaxConns = 10
	}
	if cfg.MaxIdleConns > 0 {
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
	} else {
		poolCfg.MinConns = 2
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: create pool: %w", err)
	}

	// Verificar conexión
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping failed: %w", err)
	}

	s, err := New(pool, cfg.SecretsMasterKey)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Store implementa repository.Store sobre un pgxpool.
type Store struct {
	pool  *pgxpool.Pool
	oauth *secretbox.Box // nil = secretos en claro
	smtp  *secretbox.Box
}

var (
	_ repository.Store = (*Store)(nil)
	_ store.Migratable = (*Store)(nil)
)

// New crea un Store sobre un pool existente. masterKey vacía desactiva el
// sellado de secretos.
func New(pool *pgxpool.Pool, masterKey string) (*Store, error) {
	oauth, err := secretbox.New(masterKey, purposeOAuthSecret)
	if err != nil {
		return nil, fmt.Errorf("pg: secrets master key: %w", err)
	}
	smtp, err := secretbox.New(masterKey, purposeSMTPPassword)
	if err != nil {
		return nil, fmt.Errorf("pg: secrets master key: %w", err)
	}
	return &Store{pool: pool, oauth: oauth, smtp: smtp}, nil
}

func (s *Store) Name() string { return "postgres" }

var txOptions = pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

// InTx abre una transacción read committed; rollback si fn falla.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, txOptions, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{s: s, tx: tx})
	})
}

func (s *Store) Projects() repository.ProjectRepository {
	return &projectRepo{s: s, q: s.pool, pool: s.pool}
}

func (s *Store) Owners() repository.OwnerRepository {
	return &ownerRepo{q: s.pool, pool: s.pool}
}

func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Pool expone el pool (CLI / tests).
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

// Migrate aplica las migraciones sobre una conexión dedicada del pool.
func (s *Store) Migrate(ctx context.Context, m *store.Migrator) (*store.MigrationResult, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("pg: acquire: %w", err)
	}
	defer conn.Release()
	return m.Run(ctx, conn)
}

// ─── Transacción ───

type pgTx struct {
	s  *Store
	tx pgx.Tx
}

func (t *pgTx) Projects() repository.ProjectRepository { return &projectRepo{s: t.s, q: t.tx} }
func (t *pgTx) Owners() repository.OwnerRepository     { return &ownerRepo{q: t.tx} }

// querier lo satisfacen *pgxpool.Pool y pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// atomic ejecuta fn en la transacción del repo o, fuera de ella, en una
// transacción propia (pool != nil).
func atomic(ctx context.Context, q querier, pool *pgxpool.Pool, fn func(q querier) error) error {
	if pool == nil {
		return fn(q)
	}
	return pgx.BeginTxFunc(ctx, pool, txOptions, func(tx pgx.Tx) error { return fn(tx) })
}
