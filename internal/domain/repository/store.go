package repository

import "context"

// Tx expone los repositorios ligados a una transacción abierta.
// No debe usarse después de que la función de InTx retorne.
type Tx interface {
	Projects() ProjectRepository
	Owners() OwnerRepository
}

// Store es el límite transaccional hacia el almacenamiento relacional.
type Store interface {
	// Name retorna el nombre del driver ("postgres", "memory").
	Name() string

	// InTx ejecuta fn dentro de una transacción. Si fn retorna error se hace
	// rollback completo; si retorna nil se hace commit.
	InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error

	// Projects retorna un repositorio fuera de transacción (lecturas).
	Projects() ProjectRepository

	// Owners retorna el repositorio de owners fuera de transacción.
	Owners() OwnerRepository

	Ping(ctx context.Context) error
	Close() error
}
