package projects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dropDatabas3/hellojohn-projects/internal/cache"
	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-projects/internal/observability/logger"
)

const componentProvisioner = "projects.provisioner"

// Resultados de aprovisionamiento (label "result" en métricas).
const (
	ResultOK         = "ok"
	ResultValidation = "validation"
	ResultInvariant  = "invariant"
	ResultError      = "error"
)

// Recorder recibe los eventos observables del provisioner.
// internal/metrics provee la implementación Prometheus.
type Recorder interface {
	ProjectProvisioned(result string)
	OwnerAnomaly(kind AnomalyKind)
	InvariantViolation(recordKind string)
}

type nopRecorder struct{}

func (nopRecorder) ProjectProvisioned(string) {}
func (nopRecorder) OwnerAnomaly(AnomalyKind)  {}
func (nopRecorder) InvariantViolation(string) {}

// Provisioner crea proyectos de forma atómica y sirve la vista plana.
type Provisioner struct {
	store    repository.Store
	recorder Recorder
	now      func() time.Time
	newID    func() string

	viewCache cache.Client
	viewTTL   time.Duration
	viewOpts  []CacheOption
	views     *CachedReader
}

// Option configura un Provisioner.
type Option func(*Provisioner)

// WithRecorder registra métricas/anomalías en r.
func WithRecorder(r Recorder) Option {
	return func(p *Provisioner) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithClock reemplaza time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(p *Provisioner) { p.now = now }
}

// WithIDGenerator reemplaza uuid.NewString (tests).
func WithIDGenerator(gen func() string) Option {
	return func(p *Provisioner) { p.newID = gen }
}

// WithViewCache habilita el cache de vistas planas sobre c. Pasar
// SealWith para cachear también vistas con secretos.
func WithViewCache(c cache.Client, ttl time.Duration, opts ...CacheOption) Option {
	return func(p *Provisioner) {
		p.viewCache = c
		p.viewTTL = ttl
		p.viewOpts = opts
	}
}

// NewProvisioner crea un Provisioner sobre store.
func NewProvisioner(store repository.Store, opts ...Option) *Provisioner {
	p := &Provisioner{
		store:    store,
		recorder: nopRecorder{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.viewCache != nil {
		p.views = NewCachedReader(p.viewCache, p.viewTTL, p.load, p.viewOpts...)
	}
	return p
}

// Create ejecuta la transacción de aprovisionamiento y retorna la vista del
// proyecto recién creado, releída dentro de la misma transacción.
// ValidationError / InvariantViolation / errores del store hacen rollback
// completo. Owners inexistentes solo generan anomalías.
func (p *Provisioner) Create(ctx context.Context, ownerIDs []string, req CreateProjectRequest) (*ProjectView, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(componentProvisioner),
		logger.Op("Provisioner.Create"),
	)

	var (
		view      *ProjectView
		anomalies []NonFatalAnomaly
	)
	err := p.store.InTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		graph, err := p.expand(req)
		if err != nil {
			return err
		}
		if err := writeGraph(ctx, tx.Projects(), graph); err != nil {
			return err
		}

		anomalies, err = LinkOwners(ctx, tx.Owners(), graph.ID, ownerIDs)
		if err != nil {
			return err
		}

		stored, err := tx.Projects().LoadGraph(ctx, graph.ID)
		if err != nil {
			return fmt.Errorf("reload project: %w", err)
		}
		view, err = Flatten(stored)
		return err
	})

	result := classify(err)
	p.recorder.ProjectProvisioned(result)
	if err != nil {
		p.logFailure(log, result, err)
		return nil, err
	}

	for _, a := range anomalies {
		p.recorder.OwnerAnomaly(a.Kind)
		log.Warn("owner link skipped",
			logger.ProjectID(view.ID),
			logger.Record(a.Record),
			logger.String("anomaly", string(a.Kind)),
			logger.String("reason", a.Reason),
		)
	}

	if p.views != nil {
		p.views.Put(ctx, view)
	}

	log.Info("project provisioned",
		logger.ProjectID(view.ID),
		logger.ConfigID(view.Config.ID),
		logger.Count(len(ownerIDs)),
		logger.Int("anomalies", len(anomalies)),
	)
	return view, nil
}

// Get retorna la vista plana de un proyecto (cache → store → Flatten).
// repository.ErrNotFound si no existe.
func (p *Provisioner) Get(ctx context.Context, projectID string) (*ProjectView, error) {
	if p.views != nil {
		return p.views.Get(ctx, projectID)
	}
	return p.load(ctx, projectID)
}

func (p *Provisioner) load(ctx context.Context, projectID string) (*ProjectView, error) {
	graph, err := p.store.Projects().LoadGraph(ctx, projectID)
	if err != nil {
		return nil, err
	}
	view, err := Flatten(graph)
	if err != nil {
		var iv *InvariantViolation
		if errors.As(err, &iv) {
			p.recorder.InvariantViolation(iv.RecordKind())
			logger.From(ctx).Error("malformed project graph",
				logger.Component(componentProvisioner),
				logger.Op("Provisioner.Get"),
				logger.ProjectID(projectID),
				logger.Record(iv.Record),
				logger.Err(err),
			)
		}
		return nil, err
	}
	return view, nil
}

func (p *Provisioner) logFailure(log *zap.Logger, result string, err error) {
	switch result {
	case ResultValidation:
		log.Info("project rejected", logger.Err(err))
	case ResultInvariant:
		var iv *InvariantViolation
		errors.As(err, &iv)
		p.recorder.InvariantViolation(iv.RecordKind())
		log.Error("invariant violation during provisioning", logger.Record(iv.Record), logger.Err(err))
	default:
		log.Error("project provisioning failed", logger.Err(err))
	}
}

func classify(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case IsValidation(err):
		return ResultValidation
	case IsInvariant(err):
		return ResultInvariant
	default:
		return ResultError
	}
}

// ─── expand: request plano → grafo normalizado ───

func (p *Provisioner) expand(req CreateProjectRequest) (*repository.Project, error) {
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		return nil, validationf("display_name", "is required")
	}
	in := req.Config
	if in == nil {
		in = &CreateConfigRequest{}
	}

	now := p.now().UTC()
	proj := &repository.Project{
		ID:               p.newID(),
		DisplayName:      name,
		Description:      req.Description,
		IsProductionMode: boolOr(req.IsProductionMode, false),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	cfg := &proj.Config
	cfg.ID = p.newID()
	cfg.SignUpEnabled = boolOr(in.SignUpEnabled, true)
	cfg.AllowLocalhost = boolOr(in.AllowLocalhost, true)
	cfg.CreateTeamOnSignUp = boolOr(in.CreateTeamOnSignUp, false)
	cfg.ClientTeamCreationEnabled = boolOr(in.ClientTeamCreationEnabled, false)
	cfg.ClientUserDeletionEnabled = boolOr(in.ClientUserDeletionEnabled, false)
	cfg.LegacyGlobalJWTSigning = boolOr(in.LegacyGlobalJWTSigning, false)

	for _, d := range in.Domains {
		cfg.Domains = append(cfg.Domains, repository.Domain{Domain: d.Domain, HandlerPath: d.HandlerPath})
	}

	providers, err := expandProviders(in.OAuthProviders)
	if err != nil {
		return nil, err
	}
	cfg.OAuthProviders = providers

	email, err := expandEmail(in.EmailConfig)
	if err != nil {
		return nil, err
	}
	cfg.EmailService = email

	methods, accounts, err := p.expandAuthMethods(cfg.ID, in, providers)
	if err != nil {
		return nil, err
	}
	cfg.AuthMethods = methods
	cfg.ConnectedAccounts = accounts

	cfg.Permissions = DefaultPermissions(proj.ID, cfg.ID)
	return proj, nil
}

func expandProviders(in []OAuthProviderInput) ([]repository.OAuthProviderConfig, error) {
	out := make([]repository.OAuthProviderConfig, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for i, op := range in {
		field := fmt.Sprintf("config.oauth_providers[%d]", i)
		if _, dup := seen[op.ID]; dup {
			return nil, validationf(field+".id", "duplicate provider %q", op.ID)
		}
		seen[op.ID] = struct{}{}

		row := repository.OAuthProviderConfig{ID: op.ID}
		switch op.Type {
		case KindShared:
			if !IsSharedProvider(op.ID) {
				return nil, validationf(field+".id", "provider %q is not available as shared", op.ID)
			}
			row.Shared = &repository.SharedOAuthProviderConfig{Type: strings.ToUpper(op.ID)}
		case KindStandard:
			if !IsStandardProvider(op.ID) {
				return nil, validationf(field+".id", "provider %q is not available as standard", op.ID)
			}
			if op.ClientID == nil || *op.ClientID == "" {
				return nil, validationf(field+".client_id", "is required for standard providers")
			}
			if op.ClientSecret == nil || *op.ClientSecret == "" {
				return nil, validationf(field+".client_secret", "is required for standard providers")
			}
			row.Standard = &repository.StandardOAuthProviderConfig{
				Type:              strings.ToUpper(op.ID),
				ClientID:          *op.ClientID,
				ClientSecret:      *op.ClientSecret,
				FacebookConfigID:  op.FacebookConfigID,
				MicrosoftTenantID: op.MicrosoftTenantID,
			}
		default:
			return nil, validationf(field+".type", "must be %q or %q, got %q", KindShared, KindStandard, op.Type)
		}
		out = append(out, row)
	}
	return out, nil
}

func expandEmail(in *EmailConfigInput) (*repository.EmailServiceConfig, error) {
	if in == nil {
		return &repository.EmailServiceConfig{Shared: &repository.SharedEmailServiceConfig{}}, nil
	}
	switch in.Type {
	case KindShared:
		return &repository.EmailServiceConfig{Shared: &repository.SharedEmailServiceConfig{}}, nil
	case KindStandard:
		const f = "config.email_config."
		switch {
		case in.Host == nil || *in.Host == "":
			return nil, validationf(f+"host", "is required")
		case in.Port == nil:
			return nil, validationf(f+"port", "is required")
		case *in.Port < 1 || *in.Port > 65535:
			return nil, validationf(f+"port", "must be between 1 and 65535, got %d", *in.Port)
		case in.Username == nil || *in.Username == "":
			return nil, validationf(f+"username", "is required")
		case in.Password == nil || *in.Password == "":
			return nil, validationf(f+"password", "is required")
		case in.SenderEmail == nil || *in.SenderEmail == "":
			return nil, validationf(f+"sender_email", "is required")
		case in.SenderName == nil || *in.SenderName == "":
			return nil, validationf(f+"sender_name", "is required")
		}
		return &repository.EmailServiceConfig{Standard: &repository.StandardEmailServiceConfig{
			Host:        *in.Host,
			Port:        *in.Port,
			Username:    *in.Username,
			Password:    *in.Password,
			SenderEmail: *in.SenderEmail,
			SenderName:  *in.SenderName,
		}}, nil
	default:
		return nil, validationf("config.email_config.type", "must be %q or %q, got %q", KindShared, KindStandard, in.Type)
	}
}

// expandAuthMethods arma un auth method por proveedor creado (y su connected
// account gemelo), más OTP / password / passkey según el request.
func (p *Provisioner) expandAuthMethods(configID string, in *CreateConfigRequest, providers []repository.OAuthProviderConfig) ([]repository.AuthMethodConfig, []repository.ConnectedAccountConfig, error) {
	enabledByID := make(map[string]bool, len(in.OAuthProviders))
	for _, op := range in.OAuthProviders {
		enabledByID[op.ID] = op.Enabled
	}

	methods := make([]repository.AuthMethodConfig, 0, len(providers)+3)
	accounts := make([]repository.ConnectedAccountConfig, 0, len(providers))
	for _, prov := range providers {
		enabled, ok := enabledByID[prov.ID]
		if !ok {
			return nil, nil, invariantf("oauth_provider_config:"+configID+"/"+prov.ID,
				"provider created without a matching request entry")
		}
		methods = append(methods, repository.AuthMethodConfig{
			ID:      p.newID(),
			Enabled: enabled,
			OAuth:   &repository.OAuthAuthMethod{OAuthProviderConfigID: prov.ID},
		})
		accounts = append(accounts, repository.ConnectedAccountConfig{
			ID:                    p.newID(),
			Enabled:               enabled,
			OAuthProviderConfigID: prov.ID,
		})
	}

	if boolOr(in.MagicLinkEnabled, false) {
		methods = append(methods, repository.AuthMethodConfig{
			ID:      p.newID(),
			Enabled: true,
			OTP:     &repository.OTPAuthMethod{ContactChannelType: repository.ContactChannelEmail},
		})
	}
	if boolOr(in.CredentialEnabled, true) {
		methods = append(methods, repository.AuthMethodConfig{
			ID:       p.newID(),
			Enabled:  true,
			Password: &repository.PasswordAuthMethod{},
		})
	}
	if boolOr(in.PasskeyEnabled, false) {
		methods = append(methods, repository.AuthMethodConfig{
			ID:      p.newID(),
			Enabled: true,
			Passkey: &repository.PasskeyAuthMethod{},
		})
	}
	return methods, accounts, nil
}

// writeGraph persiste el grafo en orden: proyecto+config, dominios,
// proveedores, email, auth methods, connected accounts, permisos.
func writeGraph(ctx context.Context, repo repository.ProjectRepository, proj *repository.Project) error {
	cfg := proj.Config
	if err := repo.CreateProject(ctx, proj); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	for _, d := range cfg.Domains {
		if err := repo.AddDomain(ctx, cfg.ID, d); err != nil {
			return fmt.Errorf("add domain %s: %w", d.Domain, err)
		}
	}
	for _, op := range cfg.OAuthProviders {
		if err := repo.AddOAuthProvider(ctx, cfg.ID, op); err != nil {
			return fmt.Errorf("add oauth provider %s: %w", op.ID, err)
		}
	}
	if err := repo.SetEmailService(ctx, cfg.ID, *cfg.EmailService); err != nil {
		return fmt.Errorf("set email service: %w", err)
	}
	for _, m := range cfg.AuthMethods {
		if err := repo.AddAuthMethod(ctx, cfg.ID, m); err != nil {
			return fmt.Errorf("add auth method: %w", err)
		}
	}
	for _, c := range cfg.ConnectedAccounts {
		if err := repo.AddConnectedAccount(ctx, cfg.ID, c); err != nil {
			return fmt.Errorf("add connected account: %w", err)
		}
	}
	for _, perm := range cfg.Permissions {
		if err := repo.AddPermission(ctx, proj.ID, cfg.ID, perm); err != nil {
			return fmt.Errorf("add permission %s: %w", perm.QueryableID, err)
		}
	}
	return nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
