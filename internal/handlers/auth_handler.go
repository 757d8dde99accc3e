package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jphacks/tk-b-2510/internal/middleware"
	"github.com/jphacks/tk-b-2510/internal/models"
	"github.com/jphacks/tk-b-2510/internal/observability"
	"github.com/jphacks/tk-b-2510/internal/services"
)

// AuthHandler handles signup, login and session endpoints
type AuthHandler struct {
	authService   *services.AuthService
	secureCookies bool
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *services.AuthService, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		secureCookies: secureCookies,
	}
}

// Signup creates an account and opens the first session
// @Summary Sign up
// @Description Create a new account. The response carries the access token and the same token is set as a session cookie for browsers.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.SignupRequest true "Signup request"
// @Success 201 {object} models.LoginResponse "Account created"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 409 {object} models.ErrorResponse "Email already registered"
// @Router /api/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	resp, err := h.authService.Signup(r.Context(), req, clientIP(r), r.UserAgent())
	if err != nil {
		switch err {
		case models.ErrEmailExists:
			h.respondError(w, http.StatusConflict, err.Error())
		case models.ErrPasswordMismatch, models.ErrPasswordTooShort, models.ErrInvalidEmail, models.ErrEmptyEmail:
			h.respondError(w, http.StatusBadRequest, err.Error())
		default:
			observability.Errorf("Signup failed: %v", err)
			h.respondError(w, http.StatusInternalServerError, "Failed to create account.")
		}
		return
	}

	h.setSessionCookie(w, resp)
	h.respondJSON(w, http.StatusCreated, resp)
}

// Login verifies credentials and opens a session
// @Summary Log in
// @Description Verify credentials and open a new session.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.LoginResponse "Logged in"
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Router /api/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	resp, err := h.authService.Login(r.Context(), req, clientIP(r), r.UserAgent())
	if err != nil {
		switch err {
		case models.ErrInvalidCredentials:
			h.respondError(w, http.StatusUnauthorized, err.Error())
		default:
			observability.Errorf("Login failed: %v", err)
			h.respondError(w, http.StatusInternalServerError, "Failed to log in.")
		}
		return
	}

	h.setSessionCookie(w, resp)
	h.respondJSON(w, http.StatusOK, resp)
}

// Logout invalidates the current session
// @Summary Log out
// @Description Invalidate the current session and clear the session cookie.
// @Tags auth
// @Success 204 "Logged out"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /api/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	if session != nil {
		if err := h.authService.Logout(r.Context(), session.ID); err != nil {
			observability.Warnf("Failed to invalidate session: %v", err)
		}
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Session returns the current session and its user
// @Summary Current session
// @Description Returns the authenticated user and session expiry.
// @Tags auth
// @Produce json
// @Success 200 {object} models.SessionInfo "Session info"
// @Failure 401 {object} models.ErrorResponse "Unauthorized"
// @Router /api/session [get]
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSessionFromContext(r.Context())
	user := middleware.GetUserFromContext(r.Context())

	h.respondJSON(w, http.StatusOK, models.SessionInfo{
		ExpiresAt:      session.ExpiresAt,
		LastActivityAt: session.LastActivityAt,
		User:           user.ToResponse(),
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, resp *models.LoginResponse) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    resp.AccessToken,
		Path:     "/",
		Expires:  resp.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func clientIP(r *http.Request) string {
	return r.RemoteAddr
}

func (h *AuthHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *AuthHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}
