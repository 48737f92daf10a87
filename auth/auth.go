package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/go-deliberations/httpx"
	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const (
	actorCtxKey   = ctxKey("actor")
	authErrCtxKey = ctxKey("auth_error")
	DefaultTTL    = time.Hour
	bearerScheme  = "Bearer"
	signingMethod = "HS256"
)

var (
	ErrMissingSecret = errors.New("auth: signing secret is empty")
	ErrInvalidToken  = errors.New("auth: invalid or expired token")
	ErrMissingToken  = errors.New("auth: missing token")
)

// Actor is the verified identity performing a request.
// It is rebuilt from the bearer credential on every call and never cached.
type Actor struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// Claims is the signed credential payload.
type Claims struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// UserVerifier is an optional callback confirming that a credential's user still exists.
type UserVerifier func(ctx context.Context, uid uint) bool

// Issuer signs and verifies credentials with a shared HMAC secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. A zero ttl means one hour.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a credential for a.
func (i *Issuer) Issue(a Actor) (string, error) {
	now := i.now()
	claims := Claims{
		ID:       a.ID,
		Username: a.Username,
		IsAdmin:  a.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verify checks signature and expiry and returns the embedded actor.
func (i *Issuer) Verify(tokenString string) (Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{signingMethod}), jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.ID == 0 {
		return Actor{}, ErrInvalidToken
	}
	return Actor{ID: claims.ID, Username: claims.Username, IsAdmin: claims.IsAdmin}, nil
}

// WithActor stores the verified actor in context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey, a)
}

// ActorFromContext extracts the verified actor.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorCtxKey).(Actor)
	if !ok || a.ID == 0 {
		return Actor{}, false
	}
	return a, true
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], bearerScheme) {
		return "", true
	}
	return strings.TrimSpace(parts[1]), true
}

// Middleware attaches the actor to the request context when a valid bearer
// credential is present. It never rejects; RequireAuth does.
func Middleware(iss *Issuer, verify UserVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok, present := bearerToken(r)
			if !present {
				next.ServeHTTP(w, r)
				return
			}
			actor, err := iss.Verify(tok)
			if err == nil && verify != nil && !verify(r.Context(), actor.ID) {
				err = ErrInvalidToken
			}
			ctx := r.Context()
			if err != nil {
				ctx = context.WithValue(ctx, authErrCtxKey, err)
			} else {
				ctx = WithActor(ctx, actor)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth returns 401 when no verified actor is attached.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ActorFromContext(r.Context()); !ok {
			code := "token_missing"
			if _, failed := r.Context().Value(authErrCtxKey).(error); failed {
				code = "token_invalid"
			}
			httpx.JSONError(w, r, http.StatusUnauthorized, code, nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin returns 401 without an actor and 403 when the actor is not an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a, _ := ActorFromContext(r.Context())
		if !a.IsAdmin {
			httpx.JSONError(w, r, http.StatusForbidden, "admin_required", nil)
			return
		}
		next.ServeHTTP(w, r)
	}))
}
