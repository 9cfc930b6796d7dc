package pg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
)

// ─── OwnerRepository ───

type ownerRepo struct {
	q    querier
	pool *pgxpool.Pool // nil dentro de InTx
}

func (r *ownerRepo) Get(ctx context.Context, userID string) (*repository.OwnerUser, error) {
	var raw []byte
	err := r.q.QueryRow(ctx,
		`SELECT server_metadata FROM owner_user WHERE project_id = $1 AND id = $2`,
		repository.InternalProjectID, userID).Scan(&raw)
	if err != nil {
		return nil, mapErr("get owner", err)
	}

	meta := map[string]any{}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("pg: decode owner metadata: %w", err)
	}

	u := &repository.OwnerUser{ID: userID, ProjectID: repository.InternalProjectID}
	if ids, ok := meta[repository.ManagedProjectIDsKey].([]any); ok {
		for _, v := range ids {
			if s, ok := v.(string); ok {
				u.ManagedProjectIDs = append(u.ManagedProjectIDs, s)
			}
		}
	}
	delete(meta, repository.ManagedProjectIDsKey)
	u.ServerMetadata = meta
	return u, nil
}

func (r *ownerRepo) Create(ctx context.Context, u *repository.OwnerUser) error {
	meta := make(map[string]any, len(u.ServerMetadata)+1)
	for k, v := range u.ServerMetadata {
		meta[k] = v
	}
	managed := u.ManagedProjectIDs
	if managed == nil {
		managed = []string{}
	}
	meta[repository.ManagedProjectIDsKey] = managed

	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("pg: encode owner metadata: %w", err)
	}
	_, err = r.q.Exec(ctx,
		`INSERT INTO owner_user (project_id, id, server_metadata) VALUES ($1, $2, $3)`,
		repository.InternalProjectID, u.ID, raw)
	return mapErr("create owner", err)
}

// AppendManagedProject bloquea la fila del owner y agrega projectID al array
// managedProjectIds solo si no estaba; el resto de keys queda intacto.
func (r *ownerRepo) AppendManagedProject(ctx context.Context, userID, projectID string) error {
	return atomic(ctx, r.q, r.pool, func(q querier) error {
		var locked string
		err := q.QueryRow(ctx,
			`SELECT id FROM owner_user WHERE project_id = $1 AND id = $2 FOR UPDATE`,
			repository.InternalProjectID, userID).Scan(&locked)
		if err != nil {
			return mapErr("lock owner", err)
		}

		_, err = q.Exec(ctx, `
			UPDATE owner_user
			SET server_metadata = jsonb_set(
				server_metadata,
				'{managedProjectIds}',
				COALESCE(server_metadata->'managedProjectIds', '[]'::jsonb) || to_jsonb($3::text)
			)
			WHERE project_id = $1 AND id = $2
			  AND NOT (COALESCE(server_metadata->'managedProjectIds', '[]'::jsonb) ? $3)`,
			repository.InternalProjectID, userID, projectID)
		return mapErr("append managed project", err)
	})
}
