package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
)

// ─── ProjectRepository ───

type projectRepo struct {
	s    *Store
	q    querier
	pool *pgxpool.Pool // nil dentro de InTx
}

func (r *projectRepo) atomic(ctx context.Context, fn func(q querier) error) error {
	return atomic(ctx, r.q, r.pool, fn)
}

func (r *projectRepo) CreateProject(ctx context.Context, p *repository.Project) error {
	if p.ID == "" || p.Config.ID == "" {
		return fmt.Errorf("%w: project and config id are required", repository.ErrInvalidInput)
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	updated := p.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	c := p.Config

	return r.atomic(ctx, func(q querier) error {
		_, err := q.Exec(ctx, `
			INSERT INTO project (id, display_name, description, is_production_mode, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			p.ID, p.DisplayName, p.Description, p.IsProductionMode, created, updated)
		if err != nil {
			return mapErr("insert project", err)
		}

		_, err = q.Exec(ctx, `
			INSERT INTO project_config (
				id, project_id, sign_up_enabled, allow_localhost, create_team_on_sign_up,
				client_team_creation_enabled, client_user_deletion_enabled, legacy_global_jwt_signing,
				team_creator_default_system_permissions, team_member_default_system_permissions
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			c.ID, p.ID, c.SignUpEnabled, c.AllowLocalhost, c.CreateTeamOnSignUp,
			c.ClientTeamCreationEnabled, c.ClientUserDeletionEnabled, c.LegacyGlobalJWTSigning,
			systemPermissionNames(c.TeamCreatorDefaultSystemPermissions),
			systemPermissionNames(c.TeamMemberDefaultSystemPermissions))
		return mapErr("insert project_config", err)
	})
}

func (r *projectRepo) AddDomain(ctx context.Context, configID string, d repository.Domain) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO project_domain (config_id, domain, handler_path) VALUES ($1, $2, $3)`,
		configID, d.Domain, d.HandlerPath)
	return mapErr("insert domain", err)
}

func (r *projectRepo) AddOAuthProvider(ctx context.Context, configID string, p repository.OAuthProviderConfig) error {
	var sealed string
	if p.Standard != nil {
		var err error
		if sealed, err = r.s.oauth.Seal(p.Standard.ClientSecret); err != nil {
			return fmt.Errorf("pg: seal client secret: %w", err)
		}
	}

	return r.atomic(ctx, func(q querier) error {
		if _, err := q.Exec(ctx,
			`INSERT INTO oauth_provider_config (config_id, id) VALUES ($1, $2)`,
			configID, p.ID); err != nil {
			return mapErr("insert oauth_provider_config", err)
		}
		if p.Shared != nil {
			if _, err := q.Exec(ctx,
				`INSERT INTO shared_oauth_provider_config (config_id, id, type) VALUES ($1, $2, $3)`,
				configID, p.ID, p.Shared.Type); err != nil {
				return mapErr("insert shared_oauth_provider_config", err)
			}
		}
		if s := p.Standard; s != nil {
			if _, err := q.Exec(ctx, `
				INSERT INTO standard_oauth_provider_config
					(config_id, id, type, client_id, client_secret, facebook_config_id, microsoft_tenant_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				configID, p.ID, s.Type, s.ClientID, sealed, s.FacebookConfigID, s.MicrosoftTenantID); err != nil {
				return mapErr("insert standard_oauth_provider_config", err)
			}
		}
		return nil
	})
}

func (r *projectRepo) SetEmailService(ctx context.Context, configID string, e repository.EmailServiceConfig) error {
	var sealed string
	if e.Standard != nil {
		var err error
		if sealed, err = r.s.smtp.Seal(e.Standard.Password); err != nil {
			return fmt.Errorf("pg: seal smtp password: %w", err)
		}
	}

	return r.atomic(ctx, func(q querier) error {
		if _, err := q.Exec(ctx,
			`INSERT INTO email_service_config (config_id) VALUES ($1)`, configID); err != nil {
			return mapErr("insert email_service_config", err)
		}
		if e.Shared != nil {
			if _, err := q.Exec(ctx,
				`INSERT INTO shared_email_service_config (config_id) VALUES ($1)`, configID); err != nil {
				return mapErr("insert shared_email_service_config", err)
			}
		}
		if s := e.Standard; s != nil {
			if _, err := q.Exec(ctx, `
				INSERT INTO standard_email_service_config
					(config_id, host, port, username, password, sender_email, sender_name)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				configID, s.Host, s.Port, s.Username, sealed, s.SenderEmail, s.SenderName); err != nil {
				return mapErr("insert standard_email_service_config", err)
			}
		}
		return nil
	})
}

func (r *projectRepo) AddAuthMethod(ctx context.Context, configID string, m repository.AuthMethodConfig) error {
	return r.atomic(ctx, func(q querier) error {
		if _, err := q.Exec(ctx,
			`INSERT INTO auth_method_config (config_id, id, enabled) VALUES ($1, $2, $3)`,
			configID, m.ID, m.Enabled); err != nil {
			return mapErr("insert auth_method_config", err)
		}

		var (
			table string
			args  = []any{configID, m.ID}
			extra string
		)
		switch {
		case m.OAuth != nil:
			table, extra = "oauth_auth_method", ", oauth_provider_config_id"
			args = append(args, m.OAuth.OAuthProviderConfigID)
		case m.OTP != nil:
			table, extra = "otp_auth_method", ", contact_channel_type"
			args = append(args, string(m.OTP.ContactChannelType))
		case m.Password != nil:
			table = "password_auth_method"
		case m.Passkey != nil:
			table = "passkey_auth_method"
		default:
			return fmt.Errorf("%w: auth method %s has no mechanism", repository.ErrInvalidInput, m.ID)
		}

		placeholders := "$1, $2"
		if extra != "" {
			placeholders += ", $3"
		}
		sql := fmt.Sprintf(`INSERT INTO %s (config_id, auth_method_config_id%s) VALUES (%s)`, table, extra, placeholders)
		_, err := q.Exec(ctx, sql, args...)
		return mapErr("insert "+table, err)
	})
}

func (r *projectRepo) AddConnectedAccount(ctx context.Context, configID string, c repository.ConnectedAccountConfig) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO connected_account_config (config_id, id, enabled, oauth_provider_config_id)
		VALUES ($1, $2, $3, $4)`,
		configID, c.ID, c.Enabled, c.OAuthProviderConfigID)
	return mapErr("insert connected_account_config", err)
}

func (r *projectRepo) AddPermission(ctx context.Context, projectID, configID string, p repository.Permission) error {
	for _, e := range p.Parents {
		if e.ParentSystemPermission != nil && !e.ParentSystemPermission.Valid() {
			return fmt.Errorf("%w: unknown system permission %s", repository.ErrInvalidInput, *e.ParentSystemPermission)
		}
	}
	scope := p.Scope
	if scope == "" {
		scope = repository.PermissionScopeTeam
	}

	return r.atomic(ctx, func(q querier) error {
		if _, err := q.Exec(ctx, `
			INSERT INTO permission (
				db_id, project_id, config_id, queryable_id, description, scope,
				is_default_team_creator_permission, is_default_team_member_permission
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			p.DBID, projectID, configID, p.QueryableID, p.Description, string(scope),
			p.IsDefaultTeamCreatorPermission, p.IsDefaultTeamMemberPermission); err != nil {
			return mapErr("insert permission", err)
		}

		for _, e := range p.Parents {
			var system *string
			if e.ParentSystemPermission != nil {
				v := string(*e.ParentSystemPermission)
				system = &v
			}
			if _, err := q.Exec(ctx, `
				INSERT INTO permission_edge (child_permission_db_id, parent_permission_db_id, parent_system_permission)
				VALUES ($1, $2, $3)`,
				p.DBID, e.ParentPermissionDBID, system); err != nil {
				return mapErr("insert permission_edge", err)
			}
		}
		return nil
	})
}

// ─── LoadGraph ───

func (r *projectRepo) LoadGraph(ctx context.Context, projectID string) (*repository.Project, error) {
	var (
		p                     repository.Project
		creatorSys, memberSys []string
		userCount             int64
	)
	c := &p.Config
	err := r.q.QueryRow(ctx, `
		SELECT p.id, p.display_name, p.description, p.is_production_mode, p.created_at, p.updated_at,
		       (SELECT COUNT(*) FROM project_user u WHERE u.project_id = p.id),
		       c.id, c.sign_up_enabled, c.allow_localhost, c.create_team_on_sign_up,
		       c.client_team_creation_enabled, c.client_user_deletion_enabled, c.legacy_global_jwt_signing,
		       c.team_creator_default_system_permissions, c.team_member_default_system_permissions
		FROM project p
		JOIN project_config c ON c.project_id = p.id
		WHERE p.id = $1`, projectID).Scan(
		&p.ID, &p.DisplayName, &p.Description, &p.IsProductionMode, &p.CreatedAt, &p.UpdatedAt,
		&userCount,
		&c.ID, &c.SignUpEnabled, &c.AllowLocalhost, &c.CreateTeamOnSignUp,
		&c.ClientTeamCreationEnabled, &c.ClientUserDeletionEnabled, &c.LegacyGlobalJWTSigning,
		&creatorSys, &memberSys,
	)
	if err != nil {
		return nil, mapErr("load project", err)
	}
	p.UserCount = int(userCount)
	c.TeamCreatorDefaultSystemPermissions = toSystemPermissions(creatorSys)
	c.TeamMemberDefaultSystemPermissions = toSystemPermissions(memberSys)

	loaders := []func(context.Context, *repository.ProjectConfig) error{
		r.loadDomains,
		r.loadProviders,
		r.loadEmail,
		r.loadAuthMethods,
		r.loadConnectedAccounts,
		r.loadPermissions,
	}
	for _, load := range loaders {
		if err := load(ctx, c); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func (r *projectRepo) loadDomains(ctx context.Context, c *repository.ProjectConfig) error {
	rows, err := r.q.Query(ctx,
		`SELECT domain, handler_path FROM project_domain WHERE config_id = $1 ORDER BY position`, c.ID)
	if err != nil {
		return mapErr("load domains", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d repository.Domain
		if err := rows.Scan(&d.Domain, &d.HandlerPath); err != nil {
			return mapErr("scan domain", err)
		}
		c.Domains = append(c.Domains, d)
	}
	return mapErr("load domains", rows.Err())
}

func (r *projectRepo) loadProviders(ctx context.Context, c *repository.ProjectConfig) error {
	rows, err := r.q.Query(ctx, `
		SELECT o.id, s.type, st.type, st.client_id, st.client_secret, st.facebook_config_id, st.microsoft_tenant_id
		FROM oauth_provider_config o
		LEFT JOIN shared_oauth_provider_config s ON s.config_id = o.config_id AND s.id = o.id
		LEFT JOIN standard_oauth_provider_config st ON st.config_id = o.config_id AND st.id = o.id
		WHERE o.config_id = $1
		ORDER BY o.position`, c.ID)
	if err != nil {
		return mapErr("load oauth providers", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			op                           repository.OAuthProviderConfig
			sharedType, stdType          *string
			clientID, clientSecret       *string
			facebookCfg, microsoftTenant *string
		)
		if err := rows.Scan(&op.ID, &sharedType, &stdType, &clientID, &clientSecret, &facebookCfg, &microsoftTenant); err != nil {
			return mapErr("scan oauth provider", err)
		}
		if sharedType != nil {
			op.Shared = &repository.SharedOAuthProviderConfig{Type: *sharedType}
		}
		if stdType != nil {
			secret, err := r.s.oauth.Open(deref(clientSecret))
			if err != nil {
				return fmt.Errorf("pg: open client secret for %s: %w", op.ID, err)
			}
			op.Standard = &repository.StandardOAuthProviderConfig{
				Type:              *stdType,
				ClientID:          deref(clientID),
				ClientSecret:      secret,
				FacebookConfigID:  facebookCfg,
				MicrosoftTenantID: microsoftTenant,
			}
		}
		c.OAuthProviders = append(c.OAuthProviders, op)
	}
	return mapErr("load oauth providers", rows.Err())
}

func (r *projectRepo) loadEmail(ctx context.Context, c *repository.ProjectConfig) error {
	var (
		shared                               bool
		host, user, pass, senderEmail, sName *string
		port                                 *int32
	)
	err := r.q.QueryRow(ctx, `
		SELECT s.config_id IS NOT NULL, st.host, st.port, st.username, st.password, st.sender_email, st.sender_name
		FROM email_service_config e
		LEFT JOIN shared_email_service_config s ON s.config_id = e.config_id
		LEFT JOIN standard_email_service_config st ON st.config_id = e.config_id
		WHERE e.config_id = $1`, c.ID).Scan(&shared, &host, &port, &user, &pass, &senderEmail, &sName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil // sin email config; Flatten lo reporta
	}
	if err != nil {
		return mapErr("load email service", err)
	}

	e := &repository.EmailServiceConfig{}
	if shared {
		e.Shared = &repository.SharedEmailServiceConfig{}
	}
	if host != nil {
		password, err := r.s.smtp.Open(deref(pass))
		if err != nil {
			return fmt.Errorf("pg: open smtp password: %w", err)
		}
		e.Standard = &repository.StandardEmailServiceConfig{
			Host:        *host,
			Port:        int(derefInt(port)),
			Username:    deref(user),
			Password:    password,
			SenderEmail: deref(senderEmail),
			SenderName:  deref(sName),
		}
	}
	c.EmailService = e
	return nil
}

func (r *projectRepo) loadAuthMethods(ctx context.Context, c *repository.ProjectConfig) error {
	rows, err := r.q.Query(ctx, `
		SELECT a.id, a.enabled, oa.oauth_provider_config_id, ot.contact_channel_type,
		       pw.config_id IS NOT NULL, pk.config_id IS NOT NULL
		FROM auth_method_config a
		LEFT JOIN oauth_auth_method oa ON oa.config_id = a.config_id AND oa.auth_method_config_id = a.id
		LEFT JOIN otp_auth_method ot ON ot.config_id = a.config_id AND ot.auth_method_config_id = a.id
		LEFT JOIN password_auth_method pw ON pw.config_id = a.config_id AND pw.auth_method_config_id = a.id
		LEFT JOIN passkey_auth_method pk ON pk.config_id = a.config_id AND pk.auth_method_config_id = a.id
		WHERE a.config_id = $1
		ORDER BY a.position`, c.ID)
	if err != nil {
		return mapErr("load auth methods", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			m                 repository.AuthMethodConfig
			providerID, otpCh *string
			password, passkey bool
		)
		if err := rows.Scan(&m.ID, &m.Enabled, &providerID, &otpCh, &password, &passkey); err != nil {
			return mapErr("scan auth method", err)
		}
		if providerID != nil {
			m.OAuth = &repository.OAuthAuthMethod{OAuthProviderConfigID: *providerID}
		}
		if otpCh != nil {
			m.OTP = &repository.OTPAuthMethod{ContactChannelType: repository.ContactChannelType(*otpCh)}
		}
		if password {
			m.Password = &repository.PasswordAuthMethod{}
		}
		if passkey {
			m.Passkey = &repository.PasskeyAuthMethod{}
		}
		c.AuthMethods = append(c.AuthMethods, m)
	}
	return mapErr("load auth methods", rows.Err())
}

func (r *projectRepo) loadConnectedAccounts(ctx context.Context, c *repository.ProjectConfig) error {
	rows, err := r.q.Query(ctx, `
		SELECT id, enabled, oauth_provider_config_id
		FROM connected_account_config
		WHERE config_id = $1
		ORDER BY position`, c.ID)
	if err != nil {
		return mapErr("load connected accounts", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ca repository.ConnectedAccountConfig
		if err := rows.Scan(&ca.ID, &ca.Enabled, &ca.OAuthProviderConfigID); err != nil {
			return mapErr("scan connected account", err)
		}
		c.ConnectedAccounts = append(c.ConnectedAccounts, ca)
	}
	return mapErr("load connected accounts", rows.Err())
}

func (r *projectRepo) loadPermissions(ctx context.Context, c *repository.ProjectConfig) error {
	rows, err := r.q.Query(ctx, `
		SELECT db_id, queryable_id, description, scope,
		       is_default_team_creator_permission, is_default_team_member_permission
		FROM permission
		WHERE config_id = $1
		ORDER BY position`, c.ID)
	if err != nil {
		return mapErr("load permissions", err)
	}
	index := map[string]int{}
	for rows.Next() {
		var (
			p     repository.Permission
			scope string
		)
		if err := rows.Scan(&p.DBID, &p.QueryableID, &p.Description, &scope,
			&p.IsDefaultTeamCreatorPermission, &p.IsDefaultTeamMemberPermission); err != nil {
			rows.Close()
			return mapErr("scan permission", err)
		}
		p.Scope = repository.PermissionScope(scope)
		index[p.DBID] = len(c.Permissions)
		c.Permissions = append(c.Permissions, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return mapErr("load permissions", err)
	}
	if len(c.Permissions) == 0 {
		return nil
	}

	edges, err := r.q.Query(ctx, `
		SELECT e.child_permission_db_id, e.parent_permission_db_id, e.parent_system_permission
		FROM permission_edge e
		JOIN permission p ON p.db_id = e.child_permission_db_id
		WHERE p.config_id = $1
		ORDER BY e.id`, c.ID)
	if err != nil {
		return mapErr("load permission edges", err)
	}
	defer edges.Close()
	for edges.Next() {
		var (
			child          string
			parent, system *string
		)
		if err := edges.Scan(&child, &parent, &system); err != nil {
			return mapErr("scan permission edge", err)
		}
		i, ok := index[child]
		if !ok {
			continue
		}
		edge := repository.PermissionEdge{ParentPermissionDBID: parent}
		if system != nil {
			sp := repository.SystemPermission(*system)
			edge.ParentSystemPermission = &sp
		}
		c.Permissions[i].Parents = append(c.Permissions[i].Parents, edge)
	}
	return mapErr("load permission edges", edges.Err())
}

// ─── helpers ───

func systemPermissionNames(in []repository.SystemPermission) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		out = append(out, string(p))
	}
	return out
}

func toSystemPermissions(in []string) []repository.SystemPermission {
	if len(in) == 0 {
		return nil
	}
	out := make([]repository.SystemPermission, 0, len(in))
	for _, s := range in {
		out = append(out, repository.SystemPermission(s))
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}
