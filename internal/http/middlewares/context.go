package middlewares

import "context"

// =================================================================================
// CONTEXT KEYS
// =================================================================================

type ctxKey string

const (
	// ctxOwnerIDKey guarda el owner id (sub) del token
	ctxOwnerIDKey ctxKey = "owner_id"
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
)

// WithOwnerID inyecta el owner id en el contexto.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ctxOwnerIDKey, ownerID)
}

func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetOwnerID obtiene el owner autenticado. "" si RequireOwner no corrió.
func GetOwnerID(ctx context.Context) string {
	v, _ := ctx.Value(ctxOwnerIDKey).(string)
	return v
}

// GetRequestID obtiene el request ID del contexto.
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(ctxRequestIDKey).(string)
	return v
}
