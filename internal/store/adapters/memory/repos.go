package memory

import (
	"context"
	"fmt"
	"slices"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
)

// ─── ProjectRepository ───

type projectRepo struct {
	s  *Store
	tx *memTx
}

func (r *projectRepo) write(ctx context.Context, fn func(st *state) error) error {
	return write(ctx, r.s, r.tx, fn)
}

func (r *projectRepo) CreateProject(ctx context.Context, p *repository.Project) error {
	if p.ID == "" || p.Config.ID == "" {
		return fmt.Errorf("%w: project and config id are required", repository.ErrInvalidInput)
	}
	return r.write(ctx, func(st *state) error {
		if _, ok := st.projects[p.ID]; ok {
			return fmt.Errorf("%w: project %s already exists", repository.ErrConflict, p.ID)
		}
		if _, ok := st.configs[p.Config.ID]; ok {
			return fmt.Errorf("%w: config %s already exists", repository.ErrConflict, p.Config.ID)
		}
		row := *p
		row.UserCount = 0
		row.Config = repository.ProjectConfig{
			ID:                                  p.Config.ID,
			SignUpEnabled:                       p.Config.SignUpEnabled,
			AllowLocalhost:                      p.Config.AllowLocalhost,
			CreateTeamOnSignUp:                  p.Config.CreateTeamOnSignUp,
			ClientTeamCreationEnabled:           p.Config.ClientTeamCreationEnabled,
			ClientUserDeletionEnabled:           p.Config.ClientUserDeletionEnabled,
			LegacyGlobalJWTSigning:              p.Config.LegacyGlobalJWTSigning,
			TeamCreatorDefaultSystemPermissions: slices.Clone(p.Config.TeamCreatorDefaultSystemPermissions),
			TeamMemberDefaultSystemPermissions:  slices.Clone(p.Config.TeamMemberDefaultSystemPermissions),
		}
		st.projects[p.ID] = row
		st.configs[p.Config.ID] = p.ID
		return nil
	})
}

func requireConfig(st *state, configID string) error {
	if _, ok := st.configs[configID]; !ok {
		return fmt.Errorf("%w: config %s", repository.ErrNotFound, configID)
	}
	return nil
}

func (r *projectRepo) AddDomain(ctx context.Context, configID string, d repository.Domain) error {
	return r.write(ctx, func(st *state) error {
		if err := requireConfig(st, configID); err != nil {
			return err
		}
		for _, existing := range st.domains[configID] {
			if existing.Domain == d.Domain {
				return fmt.Errorf("%w: domain %s already configured", repository.ErrConflict, d.Domain)
			}
		}
		st.domains[configID] = appendRow(st.domains[configID], d)
		return nil
	})
}

func (r *projectRepo) AddOAuthProvider(ctx context.Context, configID string, p repository.OAuthProviderConfig) error {
	return r.write(ctx, func(st *state) error {
		if err := requireConfig(st, configID); err != nil {
			return err
		}
		for _, existing := range st.providers[configID] {
			if existing.ID == p.ID {
				return fmt.Errorf("%w: oauth provider %s already configured", repository.ErrConflict, p.ID)
			}
		}
		st.providers[configID] = appendRow(st.providers[configID], copyProvider(p))
		return nil
	})
}

func (r *projectRepo) SetEmailService(ctx context.Context, configID string, e repository.EmailServiceConfig) error {
	return r.write(ctx, func(st *state) error {
		if err := requireConfig(st, configID); err != nil {
			return err
		}
		if _, ok := st.email[configID]; ok {
			return fmt.Errorf("%w: email service already configured for %s", repository.ErrConflict, configID)
		}
		st.email[configID] = copyEmail(e)
		return nil
	})
}

func (r *projectRepo) AddAuthMethod(ctx context.Context, configID string, m repository.AuthMethodConfig) error {
	return r.write(ctx, func(st *state) error {
		if err := requireConfig(st, configID); err != nil {
			return err
		}
		for _, existing := range st.methods[configID] {
			if existing.ID == m.ID {
				return fmt.Errorf("%w: auth method %s already exists", repository.ErrConflict, m.ID)
			}
		}
		if m.OAuth != nil && !hasProvider(st, configID, m.OAuth.OAuthProviderConfigID) {
			return fmt.Errorf("%w: auth method references unknown provider %s", repository.ErrInvalidInput, m.OAuth.OAuthProviderConfigID)
		}
		st.methods[configID] = appendRow(st.methods[configID], copyMethod(m))
		return nil
	})
}

func (r *projectRepo) AddConnectedAccount(ctx context.Context, configID string, c repository.ConnectedAccountConfig) error {
	return r.write(ctx, func(st *state) error {
		if err := requireConfig(st, configID); err != nil {
			return err
		}
		if !hasProvider(st, configID, c.OAuthProviderConfigID) {
			return fmt.Errorf("%w: connected account references unknown provider %s", repository.ErrInvalidInput, c.OAuthProviderConfigID)
		}
		st.accounts[configID] = appendRow(st.accounts[configID], c)
		return nil
	})
}

func hasProvider(st *state, configID, providerID string) bool {
	for _, p := range st.providers[configID] {
		if p.ID == providerID {
			return true
		}
	}
	return false
}

func (r *projectRepo) AddPermission(ctx context.Context, projectID, configID string, p repository.Permission) error {
	return r.write(ctx, func(st *state) error {
		if err := requireConfig(st, configID); err != nil {
			return err
		}
		if st.configs[configID] != projectID {
			return fmt.Errorf("%w: config %s does not belong to project %s", repository.ErrInvalidInput, configID, projectID)
		}
		known := make(map[string]bool, len(st.perms[configID]))
		for _, existing := range st.perms[configID] {
			if existing.QueryableID == p.QueryableID {
				return fmt.Errorf("%w: permission %s already exists", repository.ErrConflict, p.QueryableID)
			}
			known[existing.DBID] = true
		}
		for _, e := range p.Parents {
			switch {
			case (e.ParentPermissionDBID == nil) == (e.ParentSystemPermission == nil):
				return fmt.Errorf("%w: permission edge must reference exactly one parent", repository.ErrInvalidInput)
			case e.ParentSystemPermission != nil && !e.ParentSystemPermission.Valid():
				return fmt.Errorf("%w: unknown system permission %s", repository.ErrInvalidInput, *e.ParentSystemPermission)
			case e.ParentPermissionDBID != nil && !known[*e.ParentPermissionDBID]:
				return fmt.Errorf("%w: unknown parent permission %s", repository.ErrInvalidInput, *e.ParentPermissionDBID)
			}
		}
		st.perms[configID] = appendRow(st.perms[configID], copyPermission(p))
		return nil
	})
}

func (r *projectRepo) LoadGraph(ctx context.Context, projectID string) (*repository.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st, err := read(r.s, r.tx)
	if err != nil {
		return nil, err
	}
	row, ok := st.projects[projectID]
	if !ok {
		return nil, repository.ErrNotFound
	}

	p := row
	cfg := &p.Config
	id := cfg.ID
	cfg.TeamCreatorDefaultSystemPermissions = slices.Clone(row.Config.TeamCreatorDefaultSystemPermissions)
	cfg.TeamMemberDefaultSystemPermissions = slices.Clone(row.Config.TeamMemberDefaultSystemPermissions)
	cfg.Domains = slices.Clone(st.domains[id])
	for _, op := range st.providers[id] {
		cfg.OAuthProviders = append(cfg.OAuthProviders, copyProvider(op))
	}
	for _, m := range st.methods[id] {
		cfg.AuthMethods = append(cfg.AuthMethods, copyMethod(m))
	}
	cfg.ConnectedAccounts = slices.Clone(st.accounts[id])
	for _, perm := range st.perms[id] {
		cfg.Permissions = append(cfg.Permissions, copyPermission(perm))
	}
	if e, ok := st.email[id]; ok {
		ec := copyEmail(e)
		cfg.EmailService = &ec
	}
	return &p, nil
}

// ─── OwnerRepository ───

type ownerRepo struct {
	s  *Store
	tx *memTx
}

func (r *ownerRepo) Get(ctx context.Context, userID string) (*repository.OwnerUser, error) {
	st, err := read(r.s, r.tx)
	if err != nil {
		return nil, err
	}
	u, ok := st.owners[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := copyOwner(u)
	return &c, nil
}

func (r *ownerRepo) Create(ctx context.Context, u *repository.OwnerUser) error {
	if u.ID == "" {
		return fmt.Errorf("%w: owner id is required", repository.ErrInvalidInput)
	}
	return write(ctx, r.s, r.tx, func(st *state) error {
		if _, ok := st.owners[u.ID]; ok {
			return fmt.Errorf("%w: owner %s already exists", repository.ErrConflict, u.ID)
		}
		row := copyOwner(*u)
		row.ProjectID = repository.InternalProjectID
		delete(row.ServerMetadata, repository.ManagedProjectIDsKey)
		st.owners[u.ID] = row
		return nil
	})
}

// AppendManagedProject corre bajo el lock de escritura del store, así que el
// read-modify-write es atómico respecto de otras transacciones.
func (r *ownerRepo) AppendManagedProject(ctx context.Context, userID, projectID string) error {
	return write(ctx, r.s, r.tx, func(st *state) error {
		u, ok := st.owners[userID]
		if !ok {
			return repository.ErrNotFound
		}
		if slices.Contains(u.ManagedProjectIDs, projectID) {
			return nil
		}
		u = copyOwner(u)
		u.ManagedProjectIDs = append(u.ManagedProjectIDs, projectID)
		st.owners[userID] = u
		return nil
	})
}
