package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/hellojohn-projects/internal/http/errors"
	jwtx "github.com/dropDatabas3/hellojohn-projects/internal/jwt"
	"github.com/dropDatabas3/hellojohn-projects/internal/observability/logger"
)

// =================================================================================
// AUTHENTICATION
// =================================================================================

// RequireOwner valida Authorization: Bearer <JWT> y guarda el owner (sub) en
// el contexto. Sin token o con token inválido responde 401.
func RequireOwner(issuer *jwtx.Issuer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ah := strings.TrimSpace(r.Header.Get("Authorization"))
			if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token", error_description="missing bearer token"`)
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}
			raw := strings.TrimSpace(ah[len("Bearer "):])

			ownerID, err := issuer.Parse(raw)
			if err != nil {
				logger.From(r.Context()).Debug("owner token rejected", logger.Err(err))
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				errors.WriteError(w, errors.ErrTokenInvalid.WithCause(err))
				return
			}

			ctx := WithOwnerID(r.Context(), ownerID)
			ctx = logger.WithFields(ctx, logger.OwnerID(ownerID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
