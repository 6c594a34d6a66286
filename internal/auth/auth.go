package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"oriani/internal/config"
	"oriani/internal/logging"
	"oriani/internal/models"
)

type contextKey string

const (
	// SessionName is the name of the cookie carrying the page session.
	SessionName = "access_token"

	identityKey     = contextKey("identity")
	sessionTokenKey = "token"
)

// UserRepository persists the admin user.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, email, passwordHash string) (*models.User, error)
}

// AuthService checks the configured admin credentials and binds tokens to
// requests, either as a bearer header (API) or a session cookie (pages).
type AuthService struct {
	users         UserRepository
	tokens        *TokenService
	store         *sessions.CookieStore
	adminEmail    string
	adminPassword string

	createMu sync.Mutex
}

func NewAuthService(users UserRepository, cfg config.SecurityConfig) (*AuthService, error) {
	tokens, err := NewTokenService(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.TokenLifetime())
	if err != nil {
		return nil, err
	}

	key := sha256.Sum256([]byte("session:" + cfg.JWTSecret))
	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(int(tokens.Lifetime().Seconds()))

	return &AuthService{
		users:         users,
		tokens:        tokens,
		store:         store,
		adminEmail:    cfg.AdminEmail,
		adminPassword: cfg.AdminPassword,
	}, nil
}

// Authenticate checks email and password against the configured admin
// credentials. The admin user record is created on the first success; a
// failed attempt never reads or writes the store.
func (a *AuthService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	if a.adminEmail == "" || a.adminPassword == "" {
		return nil, models.ErrMisconfigured
	}
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(a.adminEmail)) == 1
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.adminPassword)) == 1
	if !emailOK || !passwordOK {
		return nil, models.ErrInvalidCredentials
	}

	a.createMu.Lock()
	defer a.createMu.Unlock()

	user, err := a.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user, err = a.users.Create(ctx, email, string(hash))
	if err != nil {
		return nil, err
	}
	logging.Ctx(ctx).Info().Str("user_id", user.ID).Msg("admin user created")
	return user, nil
}

// Login authenticates and issues a token for the admin identity.
func (a *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := a.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	return a.tokens.Issue(user.Email)
}

// Session binding

func (a *AuthService) StartSession(w http.ResponseWriter, r *http.Request, token string) error {
	session, _ := a.store.Get(r, SessionName)
	session.Values[sessionTokenKey] = token
	return session.Save(r, w)
}

func (a *AuthService) EndSession(w http.ResponseWriter, r *http.Request) error {
	session, _ := a.store.Get(r, SessionName)
	session.Values = make(map[interface{}]interface{})
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// SessionIdentity returns the identity of a valid session cookie.
func (a *AuthService) SessionIdentity(r *http.Request) (string, bool) {
	session, err := a.store.Get(r, SessionName)
	if err != nil {
		return "", false
	}
	token, _ := session.Values[sessionTokenKey].(string)
	return a.tokens.Verify(token)
}

// Middleware

// RequireBearer rejects requests without a valid bearer token with 401 and
// a Bearer challenge.
func (a *AuthService) RequireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, found := bearerToken(r)
		if !found {
			unauthorized(w, "Not authenticated")
			return
		}
		identity, ok := a.tokens.Verify(token)
		if !ok {
			logging.Ctx(r.Context()).Debug().Str("path", r.URL.Path).Msg("rejected bearer token")
			unauthorized(w, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// RequireSession redirects requests without a valid session cookie to the
// login page.
func (a *AuthService) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := a.SessionIdentity(r)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// Context helpers

func WithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

func IdentityFromContext(ctx context.Context) string {
	identity, _ := ctx.Value(identityKey).(string)
	return identity
}
