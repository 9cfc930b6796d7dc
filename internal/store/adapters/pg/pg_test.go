package pg

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-projects/internal/projects"
	"github.com/dropDatabas3/hellojohn-projects/internal/security/secretbox"
	"github.com/dropDatabas3/hellojohn-projects/internal/store"
	"github.com/dropDatabas3/hellojohn-projects/migrations/postgres"
)

const testMasterKey = "0123456789abcdef0123456789abcdef"

var (
	containerOnce sync.Once
	containerDSN  string
	containerErr  error
)

// startPostgres levanta un postgres efímero una sola vez por paquete.
// PG_TEST_DSN permite apuntar a una base existente.
func startPostgres(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration tests skipped in -short mode")
	}
	if dsn := os.Getenv("PG_TEST_DSN"); dsn != "" {
		return dsn
	}

	containerOnce.Do(func() {
		ctx := context.Background()
		req := testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "projects",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		}
		cont, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
		})
		if err != nil {
			containerErr = err
			return
		}
		host, err := cont.Host(ctx)
		if err != nil {
			containerErr = err
			return
		}
		port, err := cont.MappedPort(ctx, "5432/tcp")
		if err != nil {
			containerErr = err
			return
		}
		containerDSN = fmt.Sprintf("postgres://test:test@%s:%s/projects?sslmode=disable", host, port.Port())
	})
	if containerErr != nil {
		t.Skipf("docker not available: %v", containerErr)
	}
	return containerDSN
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	dsn := startPostgres(t)

	s, err := store.OpenAdapter(ctx, store.AdapterConfig{Name: "postgres", DSN: dsn, SecretsMasterKey: testMasterKey})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	pgs := s.(*Store)
	_, err = store.Migrate(ctx, pgs, store.NewMigrator(postgres.FS, postgres.Dir))
	require.NoError(t, err)
	return pgs
}

// uniq evita colisiones entre tests que comparten la base.
func uniq(t *testing.T, id string) string {
	return strings.ReplaceAll(t.Name(), "/", "_") + "-" + id
}

func TestMigrate_IsIdempotent(t *testing.T) {
	s := newTestStore(t)
	res, err := store.Migrate(context.Background(), s, store.NewMigrator(postgres.FS, postgres.Dir))
	require.NoError(t, err)
	assert.Empty(t, res.Applied)
	assert.Contains(t, res.Skipped, 1)
}

func TestProjectGraph_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	pid, cid := uniq(t, "p"), uniq(t, "c")
	tenant := "tenant-1"

	err := s.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		repo := tx.Projects()
		p := &repository.Project{ID: pid, DisplayName: "Acme", Description: "d", Config: repository.ProjectConfig{
			ID:                                 cid,
			SignUpEnabled:                      true,
			AllowLocalhost:                     true,
			TeamMemberDefaultSystemPermissions: []repository.SystemPermission{repository.SystemPermissionReadMembers},
		}}
		require.NoError(t, repo.CreateProject(ctx, p))
		require.NoError(t, repo.AddDomain(ctx, cid, repository.Domain{Domain: "https://b.acme.com", HandlerPath: "/h"}))
		require.NoError(t, repo.AddDomain(ctx, cid, repository.Domain{Domain: "https://a.acme.com", HandlerPath: "/h"}))
		require.NoError(t, repo.AddOAuthProvider(ctx, cid, repository.OAuthProviderConfig{
			ID: "google", Shared: &repository.SharedOAuthProviderConfig{Type: "GOOGLE"},
		}))
		require.NoError(t, repo.AddOAuthProvider(ctx, cid, repository.OAuthProviderConfig{
			ID: "microsoft", Standard: &repository.StandardOAuthProviderConfig{
				Type: "MICROSOFT", ClientID: "cid", ClientSecret: "s3cret", MicrosoftTenantID: &tenant,
			},
		}))
		require.NoError(t, repo.SetEmailService(ctx, cid, repository.EmailServiceConfig{
			Standard: &repository.StandardEmailServiceConfig{
				Host: "smtp.acme.com", Port: 587, Username: "u", Password: "pw", SenderEmail: "a@acme.com", SenderName: "Acme",
			},
		}))
		require.NoError(t, repo.AddAuthMethod(ctx, cid, repository.AuthMethodConfig{
			ID: "m1", Enabled: true, OAuth: &repository.OAuthAuthMethod{OAuthProviderConfigID: "google"},
		}))
		require.NoError(t, repo.AddAuthMethod(ctx, cid, repository.AuthMethodConfig{
			ID: "m2", Enabled: true, OTP: &repository.OTPAuthMethod{ContactChannelType: repository.ContactChannelEmail},
		}))
		require.NoError(t, repo.AddAuthMethod(ctx, cid, repository.AuthMethodConfig{
			ID: "m3", Enabled: false, Password: &repository.PasswordAuthMethod{},
		}))
		require.NoError(t, repo.AddConnectedAccount(ctx, cid, repository.ConnectedAccountConfig{
			ID: "ca1", Enabled: true, OAuthProviderConfigID: "google",
		}))
		require.NoError(t, repo.AddPermission(ctx, pid, cid, repository.Permission{
			DBID: uniq(t, "perm"), QueryableID: "member", Scope: repository.PermissionScopeTeam,
			IsDefaultTeamMemberPermission: true,
			Parents:                       []repository.PermissionEdge{repository.SystemParent(repository.SystemPermissionReadMembers)},
		}))
		return nil
	})
	require.NoError(t, err)

	g, err := s.Projects().LoadGraph(ctx, pid)
	require.NoError(t, err)

	assert.Equal(t, "Acme", g.DisplayName)
	assert.Equal(t, 0, g.UserCount)
	assert.True(t, g.Config.SignUpEnabled)
	assert.Equal(t, []repository.SystemPermission{repository.SystemPermissionReadMembers}, g.Config.TeamMemberDefaultSystemPermissions)
	assert.Equal(t, "https://b.acme.com", g.Config.Domains[0].Domain, "insertion order preserved")

	require.Len(t, g.Config.OAuthProviders, 2)
	ms := g.Config.OAuthProviders[1].Standard
	require.NotNil(t, ms)
	assert.Equal(t, "s3cret", ms.ClientSecret)
	assert.Equal(t, tenant, *ms.MicrosoftTenantID)
	assert.Nil(t, ms.FacebookConfigID)

	require.NotNil(t, g.Config.EmailService.Standard)
	assert.Nil(t, g.Config.EmailService.Shared)
	assert.Equal(t, 587, g.Config.EmailService.Standard.Port)
	assert.Equal(t, "pw", g.Config.EmailService.Standard.Password)

	require.Len(t, g.Config.AuthMethods, 3)
	assert.Equal(t, "google", g.Config.AuthMethods[0].OAuth.OAuthProviderConfigID)
	assert.Equal(t, repository.ContactChannelEmail, g.Config.AuthMethods[1].OTP.ContactChannelType)
	assert.NotNil(t, g.Config.AuthMethods[2].Password)
	assert.False(t, g.Config.AuthMethods[2].Enabled)

	require.Len(t, g.Config.ConnectedAccounts, 1)
	require.Len(t, g.Config.Permissions, 1)
	perm := g.Config.Permissions[0]
	assert.True(t, perm.IsDefaultTeamMemberPermission)
	require.Len(t, perm.Parents, 1)
	assert.Equal(t, repository.SystemPermissionReadMembers, *perm.Parents[0].ParentSystemPermission)
}

func TestSecretsAreSealedAtRest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	pid, cid := uniq(t, "p"), uniq(t, "c")

	repo := s.Projects()
	require.NoError(t, repo.CreateProject(ctx, &repository.Project{ID: pid, DisplayName: "Acme", Config: repository.ProjectConfig{ID: cid}}))
	require.NoError(t, repo.AddOAuthProvider(ctx, cid, repository.OAuthProviderConfig{
		ID: "github", Standard: &repository.StandardOAuthProviderConfig{Type: "GITHUB", ClientID: "id", ClientSecret: "plain"},
	}))

	var stored string
	require.NoError(t, s.Pool().QueryRow(ctx,
		`SELECT client_secret FROM standard_oauth_provider_config WHERE config_id = $1`, cid).Scan(&stored))
	assert.True(t, strings.HasPrefix(stored, secretbox.Prefix))
	assert.NotContains(t, stored, "plain")
}

func TestInTx_RollsBackOnConflict(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	pid, cid := uniq(t, "p"), uniq(t, "c")

	err := s.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		repo := tx.Projects()
		if err := repo.CreateProject(ctx, &repository.Project{ID: pid, DisplayName: "Acme", Config: repository.ProjectConfig{ID: cid}}); err != nil {
			return err
		}
		d := repository.Domain{Domain: "https://dup.acme.com", HandlerPath: "/h"}
		if err := repo.AddDomain(ctx, cid, d); err != nil {
			return err
		}
		return repo.AddDomain(ctx, cid, d)
	})
	require.ErrorIs(t, err, repository.ErrConflict)

	_, err = s.Projects().LoadGraph(ctx, pid)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

type anomalyCounter struct{ kinds []projects.AnomalyKind }

func (a *anomalyCounter) ProjectProvisioned(string)              {}
func (a *anomalyCounter) InvariantViolation(string)              {}
func (a *anomalyCounter) OwnerAnomaly(kind projects.AnomalyKind) { a.kinds = append(a.kinds, kind) }

func TestProvision_MissingOwnerStillCommits(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	owner, ghost := uniq(t, "owner"), uniq(t, "ghost")
	require.NoError(t, s.Owners().Create(ctx, &repository.OwnerUser{ID: owner, ProjectID: repository.InternalProjectID}))

	rec := &anomalyCounter{}
	p := projects.NewProvisioner(s, projects.WithRecorder(rec))
	view, err := p.Create(ctx, []string{ghost, owner}, projects.CreateProjectRequest{DisplayName: "Acme"})
	require.NoError(t, err, "a missing owner must not abort the transaction")
	assert.Equal(t, []projects.AnomalyKind{projects.AnomalyOwnerNotFound}, rec.kinds)

	g, err := s.Projects().LoadGraph(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", g.DisplayName)

	u, err := s.Owners().Get(ctx, owner)
	require.NoError(t, err)
	assert.Contains(t, u.ManagedProjectIDs, view.ID)

	_, err = s.Owners().Get(ctx, ghost)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPermissionEdge_RejectsUnknownParent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	pid, cid := uniq(t, "p"), uniq(t, "c")
	repo := s.Projects()
	require.NoError(t, repo.CreateProject(ctx, &repository.Project{ID: pid, DisplayName: "Acme", Config: repository.ProjectConfig{ID: cid}}))

	err := repo.AddPermission(ctx, pid, cid, repository.Permission{
		DBID: uniq(t, "perm"), QueryableID: "editor", Scope: repository.PermissionScopeTeam,
		Parents: []repository.PermissionEdge{repository.CustomParent("missing")},
	})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)

	err = repo.AddPermission(ctx, pid, cid, repository.Permission{
		DBID: uniq(t, "perm2"), QueryableID: "bad", Scope: repository.PermissionScopeTeam,
		Parents: []repository.PermissionEdge{repository.SystemParent("NOT_A_PERMISSION")},
	})
	assert.ErrorIs(t, err, repository.ErrInvalidInput)
}

func TestOwners_AppendManagedProject(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	uid := uniq(t, "u")

	require.NoError(t, s.Owners().Create(ctx, &repository.OwnerUser{
		ID:             uid,
		ServerMetadata: map[string]any{"theme": "dark"},
	}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Owners().AppendManagedProject(ctx, uid, fmt.Sprintf("p%d", i)))
		}()
	}
	wg.Wait()
	require.NoError(t, s.Owners().AppendManagedProject(ctx, uid, "p0"))

	u, err := s.Owners().Get(ctx, uid)
	require.NoError(t, err)
	assert.Len(t, u.ManagedProjectIDs, 8)
	assert.Equal(t, map[string]any{"theme": "dark"}, u.ServerMetadata)

	assert.ErrorIs(t, s.Owners().AppendManagedProject(ctx, uniq(t, "ghost"), "p1"), repository.ErrNotFound)
}
