package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator
type JWTClaims struct {
	Subject         string
	AuthorizedParty string
}

// Context keys for storing authenticated caller information
type contextKeySubject struct{}
type contextKeyAuthorizedParty struct{}

var (
	ContextKeySubject         = contextKeySubject{}
	ContextKeyAuthorizedParty = contextKeyAuthorizedParty{}
)

// GetSubject retrieves the authenticated subject from the context
func GetSubject(ctx context.Context) string {
	subject, ok := ctx.Value(ContextKeySubject).(string)
	if !ok {
		return ""
	}
	return subject
}

// GetAuthorizedParty retrieves the calling client id from the context
func GetAuthorizedParty(ctx context.Context) string {
	azp, ok := ctx.Value(ContextKeyAuthorizedParty).(string)
	if !ok {
		return ""
	}
	return azp
}

// Validator validates HS256 signed tokens and enforces an authorized-party
// allow-list when one is configured.
type Validator struct {
	signingKey     []byte
	allowedClients map[string]bool
}

func NewValidator(signingKey string, allowedClients []string) *Validator {
	allowed := make(map[string]bool, len(allowedClients))
	for _, c := range allowedClients {
		allowed[c] = true
	}
	return &Validator{signingKey: []byte(signingKey), allowedClients: allowed}
}

type tokenClaims struct {
	AuthorizedParty string `json:"azp"`
	jwt.RegisteredClaims
}

// ValidateToken parses and verifies one bearer token.
func (v *Validator) ValidateToken(tokenString string) (*JWTClaims, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	if len(v.allowedClients) > 0 && !v.allowedClients[claims.AuthorizedParty] {
		return nil, fmt.Errorf("client %q is not authorized", claims.AuthorizedParty)
	}
	return &JWTClaims{
		Subject:         claims.Subject,
		AuthorizedParty: claims.AuthorizedParty,
	}, nil
}

func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			if after, ok := strings.CutPrefix(authHeader, bearerPrefix); ok {
				claims, err := validator.ValidateToken(after)
				if err != nil {
					ctx := r.Context()
					logger.WarnContext(ctx, "unauthorized access - invalid token",
						"error", err,
						"callId", GetCallID(ctx),
					)
					writeUnauthorized(w, "Invalid or expired token")
					return
				}

				ctx := r.Context()
				ctx = context.WithValue(ctx, ContextKeySubject, claims.Subject)
				ctx = context.WithValue(ctx, ContextKeyAuthorizedParty, claims.AuthorizedParty)

				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			ctx := r.Context()
			logger.WarnContext(ctx, "unauthorized access - missing token",
				"callId", GetCallID(ctx),
			)
			writeUnauthorized(w, "Missing or invalid Authorization header")
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":"unauthorized","error_description":%q}`, description)
}
