// Package router arma el chi.Router de la API de proyectos.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/hellojohn-projects/internal/http/controllers/health"
	"github.com/dropDatabas3/hellojohn-projects/internal/http/controllers/projects"
	httperrors "github.com/dropDatabas3/hellojohn-projects/internal/http/errors"
	mw "github.com/dropDatabas3/hellojohn-projects/internal/http/middlewares"
	jwtx "github.com/dropDatabas3/hellojohn-projects/internal/jwt"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Projects *projects.Controller
	Health   *health.Controller
	Issuer   *jwtx.Issuer

	// Opcionales
	Metrics        *mw.HTTPMetrics
	MetricsHandler http.Handler
}

// New construye el handler raíz.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithMetrics(deps.Metrics),
	)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// ===========================================================================
	// Operational
	// ===========================================================================
	if deps.Health != nil {
		r.Get("/healthz", deps.Health.Healthz)
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// ===========================================================================
	// Projects (owner token requerido)
	// ===========================================================================
	r.Route("/v2/projects", func(r chi.Router) {
		r.Use(mw.RequireOwner(deps.Issuer))
		r.Post("/", deps.Projects.Create)
		r.Get("/{id}", deps.Projects.Get)
		r.Post("/{id}/email/test", deps.Projects.TestEmail)
	})

	return r
}
