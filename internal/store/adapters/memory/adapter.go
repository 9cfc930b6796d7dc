// Package memory implementa un Store transaccional en memoria.
//
// Las transacciones se serializan con un mutex y corren sobre una copia del
// estado; el commit reemplaza el estado publicado y el rollback descarta la
// copia. Aplica las mismas restricciones unique que el esquema postgres.
// Pensado para desarrollo local y tests.
package memory

import (
	"context"
	"sync"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-projects/internal/store"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(ctx context.Context, cfg store.AdapterConfig) (repository.Store, error) {
	return New(), nil
}

// Store implementa repository.Store en memoria.
type Store struct {
	txMu sync.Mutex // serializa escritores

	mu     sync.RWMutex // protege committed
	state  *state
	closed bool
}

var _ repository.Store = (*Store)(nil)

// New crea un Store vacío.
func New() *Store {
	return &Store{state: newState()}
}

func (s *Store) Name() string { return "memory" }

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// InTx ejecuta fn sobre una copia del estado. Commit si fn retorna nil.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	if s.isClosed() {
		return repository.ErrNoDatabase
	}

	t := &memTx{st: s.snapshot().clone()}
	err := fn(ctx, t)
	t.done = true
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = t.st
	s.mu.Unlock()
	return nil
}

// Projects retorna un repositorio fuera de transacción. Las escrituras
// corren cada una en su propia transacción.
func (s *Store) Projects() repository.ProjectRepository { return &projectRepo{s: s} }

// Owners retorna el repositorio de owners fuera de transacción.
func (s *Store) Owners() repository.OwnerRepository { return &ownerRepo{s: s} }

func (s *Store) Ping(ctx context.Context) error {
	if s.isClosed() {
		return repository.ErrNoDatabase
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// ProjectCount retorna la cantidad de proyectos committeados.
func (s *Store) ProjectCount() int {
	return len(s.snapshot().projects)
}

// ─── Transacción ───

type memTx struct {
	st   *state
	done bool
}

func (t *memTx) Projects() repository.ProjectRepository { return &projectRepo{tx: t} }
func (t *memTx) Owners() repository.OwnerRepository     { return &ownerRepo{tx: t} }

// write ejecuta fn sobre el estado de la transacción abierta, o abre una
// transacción propia si el repo no está ligado a ninguna.
func write(ctx context.Context, s *Store, t *memTx, fn func(st *state) error) error {
	if t != nil {
		if t.done {
			return repository.ErrTxDone
		}
		return fn(t.st)
	}
	return s.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return fn(tx.(*memTx).st)
	})
}

// read retorna el estado visible: el de la transacción o el committeado.
func read(s *Store, t *memTx) (*state, error) {
	if t != nil {
		if t.done {
			return nil, repository.ErrTxDone
		}
		return t.st, nil
	}
	if s.isClosed() {
		return nil, repository.ErrNoDatabase
	}
	return s.snapshot(), nil
}
