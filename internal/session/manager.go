package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sakif/tenderboard/internal/model"
	"github.com/sakif/tenderboard/internal/repository"
)

// CookieName is the browser cookie carrying the opaque session ID.
const CookieName = "session"

// DefaultTTL is the session lifetime when the caller doesn't configure one.
const DefaultTTL = 7 * 24 * time.Hour

// Manager ties the pieces of session handling together: it mints session
// IDs, talks to the Store, sets and clears the cookie, and rehydrates the
// user record for authenticated requests.
//
// Only the user ID is stored per session. The full user row is re-read from
// the database on each request, so profile changes (a linked Google account,
// a new avatar) are visible immediately rather than frozen at login time.
type Manager struct {
	store Store
	users repository.UserRepository
	ttl   time.Duration

	// Secure marks the cookie HTTPS-only. Leave false for local dev.
	Secure bool
}

// NewManager creates a session Manager. ttl <= 0 selects DefaultTTL.
func NewManager(store Store, users repository.UserRepository, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		store: store,
		users: users,
		ttl:   ttl,
	}
}

// Login establishes a fresh session for the user and sets the cookie.
//
// SESSION FIXATION:
// Any session ID the browser presented before authenticating is destroyed
// first, and a brand-new random ID is issued. If we kept the pre-login ID,
// an attacker who planted a known ID in the victim's browser (e.g. via a
// crafted link) would hold a valid authenticated session the moment the
// victim logs in.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, user *model.User) error {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		if err := m.store.Destroy(r.Context(), cookie.Value); err != nil {
			return fmt.Errorf("session: rotating old session: %w", err)
		}
	}

	id := uuid.NewString()
	if err := m.store.Set(r.Context(), id, user.ID, m.ttl); err != nil {
		return fmt.Errorf("session: storing session: %w", err)
	}

	// HttpOnly keeps the ID away from page script; SameSite=Lax keeps the
	// cookie off cross-site POSTs while still sent on normal navigation.
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// Logout destroys the presented session server-side and tells the browser to
// drop the cookie. Logging out with no session is a no-op, not an error.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		if err := m.store.Destroy(r.Context(), cookie.Value); err != nil {
			return fmt.Errorf("session: destroying session: %w", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // delete immediately
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// CurrentUser resolves the request's session to a full user record.
// Returns (nil, nil) for anonymous requests — a missing or expired session
// is a normal state, not an error. A non-nil error means the store or the
// database actually failed.
func (m *Manager) CurrentUser(r *http.Request) (*model.User, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	userID, err := m.store.Get(r.Context(), cookie.Value)
	if err == ErrNoSession {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: looking up session: %w", err)
	}

	user, err := m.users.GetByID(r.Context(), userID)
	if err != nil {
		// The session points at a user row that's gone — treat as anonymous
		// rather than erroring forever until the cookie expires.
		return nil, nil
	}

	return user, nil
}

// contextKey is an unexported type for this package's context keys, so no
// other package can read or shadow the values we stash in the request
// context.
type contextKey string

const userKey contextKey = "user"

// RequireAuth is a middleware that gates a route behind a valid session.
//
// Anonymous requests get a bare 401 with no explanation — whether the cookie
// was absent, expired, or fabricated is nobody's business but ours. On
// success the hydrated user lands in the request context for the handler.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.CurrentUser(r)
		if err != nil {
			http.Error(w, `{"error":"internal_error","message":"An internal error occurred"}`, http.StatusInternalServerError)
			return
		}
		if user == nil {
			http.Error(w, `{"error":"unauthorized","message":"authentication required"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext retrieves the authenticated user placed in the context by
// RequireAuth. ok is false on routes that aren't behind the middleware.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}
