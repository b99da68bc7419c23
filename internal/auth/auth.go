package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avasquez/catador/internal/models"
	"github.com/avasquez/catador/internal/services"
)

const (
	CookieName    = "catador_session"
	SessionExpiry = 24 * time.Hour
)

type contextKey string

const actorKey contextKey = "actor"

// Cocoa-themed words for password generation
var cocoaWords = []string{
	"cacao", "criollo", "forastero", "trinitario", "nacional",
	"nibs", "husk", "pod", "harvest", "ferment",
	"roast", "conche", "arriba", "fino", "aroma",
	"bean", "liquor", "truffle", "ganache",
}

type session struct {
	actor  services.Actor
	expiry time.Time
}

// Auth handles session authentication for the contest roles
type Auth struct {
	password string
	sessions map[string]session
	mu       sync.RWMutex
}

// New creates a new Auth instance with the given password
func New(password string) *Auth {
	return &Auth{
		password: password,
		sessions: make(map[string]session),
	}
}

// GeneratePassword creates a random 3-word password
func GeneratePassword() string {
	words := make([]string, 3)
	for i := range words {
		idx := randomInt(len(cocoaWords))
		words[i] = cocoaWords[idx]
	}
	return strings.Join(words, "-")
}

// Login validates the password and opens a session for the given identity
func (a *Auth) Login(password string, actor services.Actor) (string, bool) {
	if password != a.password {
		return "", false
	}

	token := generateToken()
	a.mu.Lock()
	a.sessions[token] = session{
		actor:  actor,
		expiry: time.Now().Add(SessionExpiry),
	}
	a.mu.Unlock()

	return token, true
}

// Logout invalidates a session token
func (a *Auth) Logout(token string) {
	a.mu.Lock()
	delete(a.sessions, token)
	a.mu.Unlock()
}

// ValidateSession returns the actor bound to a session token
func (a *Auth) ValidateSession(token string) (services.Actor, bool) {
	a.mu.RLock()
	s, exists := a.sessions[token]
	a.mu.RUnlock()

	if !exists {
		return services.Actor{}, false
	}

	if time.Now().After(s.expiry) {
		a.mu.Lock()
		delete(a.sessions, token)
		a.mu.Unlock()
		return services.Actor{}, false
	}

	return s.actor, true
}

// ActorFromRequest extracts and validates the session from a request
func (a *Auth) ActorFromRequest(r *http.Request) (services.Actor, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return services.Actor{}, false
	}
	return a.ValidateSession(cookie.Value)
}

// RequireAuth middleware for API endpoints (returns 401)
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := a.ActorFromRequest(r)
		if !ok {
			unauthorized(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireRole middleware that additionally checks the session role (returns 403)
func (a *Auth) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := a.ActorFromRequest(r)
			if !ok {
				unauthorized(w)
				return
			}
			allowed := false
			for _, role := range roles {
				if actor.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte(`{"code":"FORBIDDEN","error":"Insufficient role"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// WithActor stores an actor in the context
func WithActor(ctx context.Context, actor services.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext retrieves the actor placed by the auth middleware
func ActorFromContext(ctx context.Context) (services.Actor, bool) {
	actor, ok := ctx.Value(actorKey).(services.Actor)
	return actor, ok
}

// SetSessionCookie sets the session cookie on the response
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(SessionExpiry.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"code":"UNAUTHORIZED","error":"Unauthorized - please log in"}`))
}

// generateToken creates a random session token
func generateToken() string {
	bytes := make([]byte, 32)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// randomInt returns a random int in [0, max)
func randomInt(max int) int {
	bytes := make([]byte, 1)
	rand.Read(bytes)
	return int(bytes[0]) % max
}
