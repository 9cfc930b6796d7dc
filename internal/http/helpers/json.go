package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/hellojohn-projects/internal/http/errors"
)

// DefaultMaxBody límite de body cuando el caller no configura uno.
const DefaultMaxBody int64 = 1 << 20

// ReadJSON valida Content-Type, limita el body a maxBytes y decodifica en v
// rechazando campos desconocidos. Retorna un *AppError listo para WriteError.
func ReadJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.Contains(ct, "application/json") {
		return httperrors.ErrUnsupportedMediaType
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBody
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return httperrors.ErrBodyTooLarge.WithCause(err)
		case errors.Is(err, io.EOF):
			return httperrors.ErrInvalidJSON.WithDetail("empty body")
		default:
			return httperrors.ErrInvalidJSON.WithDetail(err.Error()).WithCause(err)
		}
	}
	if dec.More() {
		return httperrors.ErrInvalidJSON.WithDetail("trailing data after JSON object")
	}
	return nil
}

// WriteJSON escribe una respuesta JSON estándar.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
