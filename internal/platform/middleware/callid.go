package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// HeaderCallID carries the correlation id used across NAV services.
const HeaderCallID = "Nav-Call-Id"

type contextKeyCallID struct{}

// CallID ensures every request carries a correlation id, generating one when
// the caller did not send it, and echoes it on the response.
func CallID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		callID := r.Header.Get(HeaderCallID)
		if callID == "" {
			callID = uuid.NewString()
		}
		w.Header().Set(HeaderCallID, callID)
		ctx := context.WithValue(r.Context(), contextKeyCallID{}, callID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetCallID retrieves the correlation id from the context.
func GetCallID(ctx context.Context) string {
	callID, ok := ctx.Value(contextKeyCallID{}).(string)
	if !ok {
		return ""
	}
	return callID
}
