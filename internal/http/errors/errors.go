// Package errors define el catálogo AppError de la API y su serialización.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dropDatabas3/hellojohn-projects/internal/domain/repository"
	"github.com/dropDatabas3/hellojohn-projects/internal/projects"
)

// errorResponse structura interna para la serialización JSON.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Field   string `json:"field,omitempty"`
}

// FromError convierte errores de las capas inferiores en AppError.
// Lo que no se reconoce es un 500 que conserva la causa.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var verr *projects.ValidationError
	if errors.As(err, &verr) {
		return ErrValidation.WithDetail(verr.Reason).WithField(verr.Field).WithCause(err)
	}
	var inv *projects.InvariantViolation
	if errors.As(err, &inv) {
		// el record identifica la fila rota; no se expone el detalle interno
		return ErrInvariantViolation.WithDetail(inv.RecordKind()).WithCause(err)
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound.WithCause(err)
	case errors.Is(err, repository.ErrConflict):
		return ErrConflict.WithCause(err)
	case errors.Is(err, repository.ErrInvalidInput):
		return ErrInvalidInput.WithCause(err)
	case errors.Is(err, repository.ErrNoDatabase):
		return ErrServiceUnavailable.WithCause(err)
	}
	return ErrInternalServerError.WithCause(err)
}

// WriteError escribe una respuesta HTTP basada en el error proporcionado.
func WriteError(w http.ResponseWriter, err error) {
	appErr := FromError(err)

	resp := errorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Detail:  appErr.Detail,
		Field:   appErr.Field,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}
