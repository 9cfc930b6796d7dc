package repository

import "context"

// ManagedProjectIDsKey es la key del server metadata que lista los proyectos
// administrados por un owner.
const ManagedProjectIDsKey = "managedProjectIds"

// OwnerUser es una cuenta del namespace interno que administra proyectos.
type OwnerUser struct {
	ID        string
	ProjectID string // siempre InternalProjectID
	// ManagedProjectIDs es la vista tipada de ServerMetadata["managedProjectIds"].
	ManagedProjectIDs []string
	// ServerMetadata contiene el resto de keys libres (sin managedProjectIds).
	ServerMetadata map[string]any
}

// OwnerRepository define operaciones sobre los owners del namespace interno.
type OwnerRepository interface {
	// Get busca un owner. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, userID string) (*OwnerUser, error)

	// Create inserta un owner (seed / tests). ErrConflict si ya existe.
	Create(ctx context.Context, u *OwnerUser) error

	// AppendManagedProject agrega projectID a managedProjectIds de forma atómica,
	// sin duplicar y sin tocar el resto del metadata.
	// Retorna ErrNotFound si el owner no existe.
	AppendManagedProject(ctx context.Context, userID, projectID string) error
}
