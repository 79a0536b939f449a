package auth

import (
	"net/http"
	"strings"
)

// Middleware provides HTTP middleware for bearer-token validation.
type Middleware struct {
	Issuer *Issuer
}

// NewMiddleware constructs a middleware around an issuer.
func NewMiddleware(issuer *Issuer) Middleware {
	return Middleware{Issuer: issuer}
}

// Wrap wraps an http.Handler with authentication. Requests without a valid
// bearer token receive 401; claims are attached to the request context.
func (m Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.parseRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		ctx := WithClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m Middleware) parseRequest(r *http.Request) (*Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrMissingToken
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return nil, ErrInvalidToken
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return m.Issuer.ParseAccess(token)
}
