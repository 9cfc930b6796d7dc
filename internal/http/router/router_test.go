package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-projects/internal/email"
	"github.com/dropDatabas3/hellojohn-projects/internal/http/controllers/health"
	projectsctl "github.com/dropDatabas3/hellojohn-projects/internal/http/controllers/projects"
	"github.com/dropDatabas3/hellojohn-projects/internal/http/helpers"
	mw "github.com/dropDatabas3/hellojohn-projects/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-projects/internal/http/router"
	jwtx "github.com/dropDatabas3/hellojohn-projects/internal/jwt"
	"github.com/dropDatabas3/hellojohn-projects/internal/projects"
	"github.com/dropDatabas3/hellojohn-projects/internal/store/adapters/memory"
)

const testSecret = "router-test-secret"

type fakeMailer struct {
	variant string
	err     error

	projectID string
	to        string
}

func (f *fakeMailer) SendTest(_ context.Context, projectID, to string) (string, error) {
	f.projectID, f.to = projectID, to
	return f.variant, f.err
}

type env struct {
	handler http.Handler
	store   *memory.Store
	issuer  *jwtx.Issuer
	mailer  *fakeMailer
}

func newEnv(t *testing.T) *env {
	t.Helper()
	s := memory.New()
	reg := prometheus.NewRegistry()
	httpMetrics, err := mw.NewHTTPMetrics(reg)
	require.NoError(t, err)

	issuer := jwtx.NewIssuer("hellojohn", testSecret)
	mailer := &fakeMailer{variant: "shared"}
	prov := projects.NewProvisioner(s)

	h := router.New(router.Deps{
		Projects:       projectsctl.NewController(prov, mailer, helpers.DefaultMaxBody),
		Health:         health.NewController(s, nil),
		Issuer:         issuer,
		Metrics:        httpMetrics,
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})
	return &env{handler: h, store: s, issuer: issuer, mailer: mailer}
}

func (e *env) token(t *testing.T, owner string) string {
	t.Helper()
	tok, err := e.issuer.Issue(owner, time.Hour)
	require.NoError(t, err)
	return tok
}

func (e *env) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeErrCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code  string `json:"code"`
		Field string `json:"field"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Code
}

func seedOwner(t *testing.T, s *memory.Store, id string) {
	t.Helper()
	require.NoError(t, s.Owners().Create(context.Background(), &repository.OwnerUser{
		ID:        id,
		ProjectID: repository.InternalProjectID,
	}))
}

func TestCreateAndGetProject(t *testing.T) {
	e := newEnv(t)
	seedOwner(t, e.store, "owner-1")
	tok := e.token(t, "owner-1")

	rr := e.do(t, http.MethodPost, "/v2/projects", tok, map[string]any{
		"display_name": "Acme",
		"config": map[string]any{
			"oauth_providers": []map[string]any{
				{"id": "google", "type": "shared", "enabled": true},
			},
		},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created projects.ProjectView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "Acme", created.DisplayName)
	assert.Equal(t, "/v2/projects/"+created.ID, rr.Header().Get("Location"))
	require.Len(t, created.Config.EnabledOAuthProviders, 1)
	assert.Equal(t, "shared", created.Config.EmailConfig.Type)

	owner, err := e.store.Owners().Get(context.Background(), "owner-1")
	require.NoError(t, err)
	assert.Contains(t, owner.ManagedProjectIDs, created.ID)

	rr = e.do(t, http.MethodGet, "/v2/projects/"+created.ID, tok, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var got projects.ProjectView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, created, got)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestCreateProject_Errors(t *testing.T) {
	e := newEnv(t)
	tok := e.token(t, "owner-1")

	tests := []struct {
		name     string
		body     any
		wantCode int
		wantErr  string
	}{
		{
			name:     "unknown shared provider",
			body:     map[string]any{"display_name": "x", "config": map[string]any{"oauth_providers": []map[string]any{{"id": "myspace", "type": "shared", "enabled": true}}}},
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "standard email missing fields",
			body:     map[string]any{"display_name": "x", "config": map[string]any{"email_config": map[string]any{"type": "standard", "host": "smtp.acme.com"}}},
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "unknown field",
			body:     map[string]any{"display_name": "x", "nope": true},
			wantCode: http.StatusBadRequest,
			wantErr:  "INVALID_JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := e.do(t, http.MethodPost, "/v2/projects", tok, tt.body)
			require.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
			assert.Equal(t, tt.wantErr, decodeErrCode(t, rr))
		})
	}
	assert.Zero(t, e.store.ProjectCount())
}

func TestProjects_RequireOwnerToken(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, http.MethodGet, "/v2/projects/abc", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("WWW-Authenticate"))

	other := jwtx.NewIssuer("hellojohn", "other-secret")
	bad, err := other.Issue("owner-1", time.Hour)
	require.NoError(t, err)
	rr = e.do(t, http.MethodGet, "/v2/projects/abc", bad, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetProject_NotFound(t *testing.T) {
	e := newEnv(t)
	rr := e.do(t, http.MethodGet, "/v2/projects/missing", e.token(t, "o"), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "PROJECT_NOT_FOUND", decodeErrCode(t, rr))
}

func TestTestEmail(t *testing.T) {
	tests := []struct {
		name     string
		mailErr  error
		wantCode int
	}{
		{name: "sent", wantCode: http.StatusOK},
		{name: "project missing", mailErr: repository.ErrNotFound, wantCode: http.StatusNotFound},
		{name: "platform smtp missing", mailErr: email.ErrPlatformSMTPNotConfigured, wantCode: http.StatusServiceUnavailable},
		{name: "bad recipient", mailErr: &projects.ValidationError{Field: "to", Reason: "invalid email"}, wantCode: http.StatusBadRequest},
		{name: "smtp failure", mailErr: errors.New("dial tcp: refused"), wantCode: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.mailer.err = tt.mailErr

			rr := e.do(t, http.MethodPost, "/v2/projects/p1/email/test", e.token(t, "o"), map[string]string{"to": "dev@acme.com"})
			require.Equal(t, tt.wantCode, rr.Code, rr.Body.String())
			assert.Equal(t, "p1", e.mailer.projectID)
			assert.Equal(t, "dev@acme.com", e.mailer.to)

			if tt.wantCode == http.StatusOK {
				var resp projectsctl.TestEmailResponse
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, projectsctl.TestEmailResponse{Status: "sent", Variant: "shared"}, resp)
			}
		})
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var hr health.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &hr))
	assert.Equal(t, "ok", hr.Status)
	assert.Equal(t, "up", hr.Components["store"])

	require.NoError(t, e.store.Close())
	rr = e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	rr = e.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `http_requests_total{method="GET",path="/healthz",status="200"} 1`)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	e := newEnv(t)

	rr := e.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_FOUND", decodeErrCode(t, rr))

	rr = e.do(t, http.MethodDelete, "/healthz", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
