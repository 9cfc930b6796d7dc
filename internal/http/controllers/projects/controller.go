// Package projects contiene el controller HTTP de proyectos.
package projects

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-projects/internal/email"
	httperrors "github.com/dropDatabas3/hellojohn-projects/internal/http/errors"
	"github.com/dropDatabas3/hellojohn-projects/internal/http/helpers"
	mw "github.com/dropDatabas3/hellojohn-projects/internal/http/middlewares"
	"github.com/dropDatabas3/hellojohn-projects/internal/observability/logger"
	"github.com/dropDatabas3/hellojohn-projects/internal/projects"
)

// Service es lo que el controller necesita del provisioner.
type Service interface {
	Create(ctx context.Context, ownerIDs []string, req projects.CreateProjectRequest) (*projects.ProjectView, error)
	Get(ctx context.Context, projectID string) (*projects.ProjectView, error)
}

// EmailTester envía el email de prueba de un proyecto.
type EmailTester interface {
	SendTest(ctx context.Context, projectID, to string) (string, error)
}

// Controller maneja /v2/projects.
type Controller struct {
	service Service
	mail    EmailTester
	maxBody int64
}

// NewController crea el controller. mail puede ser nil (endpoint deshabilitado).
func NewController(service Service, mail EmailTester, maxBody int64) *Controller {
	return &Controller{service: service, mail: mail, maxBody: maxBody}
}

// Create maneja POST /v2/projects. El owner autenticado queda como owner
// del proyecto.
func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ProjectsController.Create"))

	var req projects.CreateProjectRequest
	if err := helpers.ReadJSON(w, r, c.maxBody, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	ownerID := mw.GetOwnerID(ctx)
	view, err := c.service.Create(ctx, []string{ownerID}, req)
	if err != nil {
		log.Debug("create project failed", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	w.Header().Set("Location", "/v2/projects/"+view.ID)
	helpers.WriteJSON(w, http.StatusCreated, view)
}

// Get maneja GET /v2/projects/{id}.
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ProjectsController.Get"))

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	view, err := c.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httperrors.WriteError(w, httperrors.ErrProjectNotFound.WithCause(err))
			return
		}
		log.Debug("get project failed", logger.ProjectID(id), logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, view)
}

// TestEmailRequest body de POST /v2/projects/{id}/email/test.
type TestEmailRequest struct {
	To string `json:"to"`
}

// TestEmailResponse respuesta del email de prueba.
type TestEmailResponse struct {
	Status  string `json:"status"`
	Variant string `json:"variant"`
}

// TestEmail maneja POST /v2/projects/{id}/email/test.
func (c *Controller) TestEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ProjectsController.TestEmail"))

	if c.mail == nil {
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithDetail("email sending is not configured"))
		return
	}

	var req TestEmailRequest
	if err := helpers.ReadJSON(w, r, c.maxBody, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	variant, err := c.mail.SendTest(ctx, id, req.To)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		httperrors.WriteError(w, httperrors.ErrProjectNotFound.WithCause(err))
		return
	case errors.Is(err, email.ErrPlatformSMTPNotConfigured):
		httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithDetail("platform smtp is not configured").WithCause(err))
		return
	case projects.IsValidation(err), projects.IsInvariant(err):
		httperrors.WriteError(w, err)
		return
	default:
		log.Warn("test email failed", logger.ProjectID(id), logger.Err(err))
		httperrors.WriteError(w, &httperrors.AppError{
			Code:       "EMAIL_SEND_FAILED",
			Message:    "No se pudo enviar el email de prueba.",
			HTTPStatus: http.StatusBadGateway,
			Err:        err,
		})
		return
	}

	helpers.WriteJSON(w, http.StatusOK, TestEmailResponse{Status: "sent", Variant: variant})
}
