package projects

import (
	"errors"
	"fmt"
)

// ValidationError indica input del caller malformado o incompleto.
// Se expone al caller como request rechazado; la transacción hace rollback.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

func validationf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InvariantViolation indica un bug de consistencia interna del grafo
// (ambas o ninguna variante, email config ausente, etc). Nunca se repara.
type InvariantViolation struct {
	// Record identifica el registro dueño, ej: "email_service_config:<configID>".
	Record string
	Reason string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s: %s", e.Record, e.Reason)
}

// RecordKind retorna el tipo de registro (prefijo antes de ':').
func (e *InvariantViolation) RecordKind() string {
	for i := 0; i < len(e.Record); i++ {
		if e.Record[i] == ':' {
			return e.Record[:i]
		}
	}
	return e.Record
}

func invariantf(record, format string, args ...any) *InvariantViolation {
	return &InvariantViolation{Record: record, Reason: fmt.Sprintf(format, args...)}
}

// AnomalyKind clasifica anomalías no fatales.
type AnomalyKind string

const AnomalyOwnerNotFound AnomalyKind = "owner_not_found"

// NonFatalAnomaly se registra para observabilidad; nunca aborta el aprovisionamiento.
type NonFatalAnomaly struct {
	Kind   AnomalyKind
	Record string
	Reason string
}

func (a NonFatalAnomaly) String() string {
	return fmt.Sprintf("%s: %s: %s", a.Kind, a.Record, a.Reason)
}

// IsValidation reporta si err (o alguno de sus wrapped) es un ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsInvariant reporta si err (o alguno de sus wrapped) es un InvariantViolation.
func IsInvariant(err error) bool {
	var v *InvariantViolation
	return errors.As(err, &v)
}
