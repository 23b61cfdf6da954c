package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"

	"github.com/sakif/tenderboard/internal/apperror"
	"github.com/sakif/tenderboard/internal/auth"
	"github.com/sakif/tenderboard/internal/service"
	"github.com/sakif/tenderboard/internal/session"
)

// AuthHandler exposes the authentication endpoints: the Google OAuth flow,
// local register/login, email verification, logout and /api/me.
//
// It translates HTTP to service calls and back — all identity rules live in
// service.AuthService, all session mechanics in session.Manager.
type AuthHandler struct {
	google   *auth.GoogleProvider
	authSvc  *service.AuthService
	sessions *session.Manager
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected;
// google may be nil when OAuth is not configured (routes are then not
// registered — see server.setupRoutes).
func NewAuthHandler(
	google *auth.GoogleProvider,
	authSvc *service.AuthService,
	sessions *session.Manager,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		google:   google,
		authSvc:  authSvc,
		sessions: sessions,
		logger:   logger,
	}
}

// HandleGoogleLogin redirects the browser to Google's authorization page.
//
// HTTP: GET /auth/google
//
// A random state value goes into a short-lived cookie before the redirect;
// the callback checks it to make sure the flow was started here and not by
// a cross-site attacker.
func (h *AuthHandler) HandleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.google.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGoogleCallback completes the OAuth login flow.
//
// HTTP: GET /auth/google/callback?code=xxx&state=yyy
//
// Flow: verify the state cookie, exchange the code for a Google profile,
// resolve it to a user row (create/link/fetch), establish the session,
// redirect home.
func (h *AuthHandler) HandleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("google callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("google callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// The user may have denied the authorization request.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("google callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	gUser, err := h.google.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("google callback: exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	user, err := h.authSvc.ResolveGoogle(r.Context(), gUser)
	if err != nil {
		h.logger.Error("google callback: resolving user failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	if err := h.sessions.Login(w, r, user); err != nil {
		h.logger.Error("google callback: session failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// registerRequest is the body of POST /auth/register.
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// HandleRegister creates an unverified local account.
//
// HTTP: POST /auth/register
//
// 200 with a message on success (the account exists either way once the
// insert went through — a failed verification mail only changes the
// message), 400 for validation problems and duplicate emails.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	result, err := h.authSvc.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	msg := "Registration successful. Check your email to verify your account."
	if !result.EmailSent {
		msg = "Registration successful, but the verification email could not be sent. Please contact support."
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// HandleVerify redeems an email verification token.
//
// HTTP: GET /auth/verify/{token}
//
// Responds in plain text — this URL is opened from an email client, not by
// the dashboard's JavaScript.
func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	_, err := h.authSvc.Verify(r.Context(), token)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte("Invalid or expired verification token."))
			return
		}
		h.logger.Error("verify: redeeming token failed", slog.String("error", err.Error()))
		http.Error(w, "Error verifying account", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Account verified! You can now log in."))
}

// loginRequest is the body of POST /auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin authenticates a local account and establishes a session.
//
// HTTP: POST /auth/login
//
// Every credential failure — unknown email, wrong password, federated-only
// account, unverified account — comes back as 400 with the service's
// message. The first two share one message on purpose.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	user, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			// The dashboard's login form expects 400 + the message; the 401
			// status is reserved for missing sessions on API routes.
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: appErr.Message})
			return
		}
		h.logger.Error("login failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	if err := h.sessions.Login(w, r, user); err != nil {
		h.logger.Error("login: session failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "login successful",
		"user":    user,
	})
}

// HandleLogout destroys the session and sends the browser home.
//
// HTTP: GET /auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		h.logger.Error("logout failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleMe reports who is logged in, if anyone.
//
// HTTP: GET /api/me
//
// Always 200 — the dashboard calls this on load to decide which UI to show,
// so "anonymous" is an answer, not an error.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.sessions.CurrentUser(r)
	if err != nil {
		h.logger.Error("me: session lookup failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	if user == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"authenticated": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"user":          user,
	})
}
