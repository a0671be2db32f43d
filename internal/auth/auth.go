// Package auth is the identity provider: it verifies HS256 bearer tokens and
// carries the resulting domain.Session through the request context.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pkordes/wanderlust/backend/internal/domain"
)

// Verifier signs and verifies session tokens. The token subject is the user id.
type Verifier struct {
	secret []byte
	now    func() time.Time
}

// NewVerifier constructs a Verifier for the given HMAC secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret), now: time.Now}
}

// Issue signs a token for userID valid for ttl.
func (v *Verifier) Issue(userID string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("auth.Verifier.Issue: %w", err)
	}
	return signed, nil
}

// Verify parses token and returns its session. Expired, malformed and wrongly
// signed tokens all fail with domain.ErrNotAuthenticated.
func (v *Verifier) Verify(token string) (domain.Session, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return domain.Session{}, fmt.Errorf("auth.Verifier.Verify: %w: %w", domain.ErrNotAuthenticated, err)
	}
	if !parsed.Valid {
		return domain.Session{}, fmt.Errorf("auth.Verifier.Verify: %w: invalid token", domain.ErrNotAuthenticated)
	}
	if claims.Subject == "" {
		return domain.Session{}, fmt.Errorf("auth.Verifier.Verify: %w: missing subject", domain.ErrNotAuthenticated)
	}
	return domain.Session{UserID: claims.Subject}, nil
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s domain.Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// SessionFrom returns the session stored in ctx, or the zero Session.
func SessionFrom(ctx context.Context) domain.Session {
	s, _ := ctx.Value(contextKey{}).(domain.Session)
	return s
}

// CurrentUserID returns the signed-in user's id, or "" when anonymous.
func CurrentUserID(ctx context.Context) string {
	return SessionFrom(ctx).UserID
}

// ErrorWriter renders an authentication failure. handler.WriteError satisfies it.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// Middleware attaches the session of a valid "Authorization: Bearer" token to
// the request context. Requests without the header pass through anonymous;
// a present but invalid token is rejected through writeErr.
func Middleware(v *Verifier, writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeErr(w, r, err)
				return
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}
			s, err := v.Verify(token)
			if err != nil {
				writeErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// bearerToken reads the Authorization header. EventSource cannot set headers,
// so GET requests may pass the token as the access_token query parameter.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		if r.Method == http.MethodGet {
			return strings.TrimSpace(r.URL.Query().Get("access_token")), nil
		}
		return "", nil
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", fmt.Errorf("auth.Middleware: %w: expected a bearer token", domain.ErrNotAuthenticated)
	}
	return token, nil
}

// Require rejects anonymous requests with domain.ErrNotAuthenticated.
func Require(writeErr ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !SessionFrom(r.Context()).Authenticated() {
				writeErr(w, r, fmt.Errorf("auth.Require: %w", domain.ErrNotAuthenticated))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
