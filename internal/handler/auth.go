package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/ujian/internal/model"
	"github.com/pavelanni/ujian/internal/store"
)

const sessionCookieName = "session"

// sessionToken reads the token from the session cookie or a Bearer header.
func sessionToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// requireAuth is middleware that checks for a valid session token.
func (h *Handler) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			writeError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		authSess, err := h.store.GetAuthSession(r.Context(), token)
		if err != nil {
			slog.Error("failed to get auth session", "error", err)
			writeError(w, r, http.StatusInternalServerError, "InternalError")
			return
		}
		if authSess == nil {
			writeError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := h.store.GetUserByID(r.Context(), authSess.UserID)
		if err != nil || user == nil || !user.Active {
			writeError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := model.ContextWithUser(r.Context(), user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole returns middleware that checks the user has one of the allowed roles.
func requireRole(allowed ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				writeError(w, r, http.StatusUnauthorized, "Unauthorized")
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, r, http.StatusForbidden, "Forbidden")
		})
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "CredentialsRequired")
		return
	}

	user, err := h.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	if user == nil || !user.Active {
		writeError(w, r, http.StatusUnauthorized, "LoginError")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, r, http.StatusUnauthorized, "LoginError")
		return
	}

	token, err := h.store.CreateAuthSession(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to create auth session", "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}

	expires := time.Now().Add(store.AuthSessionTTL)
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.config.SecureCookies,
	})
	slog.Info("user logged in", "username", user.Username)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires, User: user})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := h.store.DeleteAuthSession(r.Context(), token); err != nil {
			slog.Warn("failed to delete auth session", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
	})
	writeError(w, r, http.StatusOK, "LoggedOut")
}

type participantLoginRequest struct {
	Email      string `json:"email"`
	AccessCode string `json:"kode_akses"`
	ExamID     int64  `json:"exam_id,omitempty"`
}

type participantLoginResponse struct {
	ParticipantID int64  `json:"peserta_id"`
	ExamID        int64  `json:"exam_id"`
	Name          string `json:"name"`
}

// handleParticipantLogin checks an email and access code pair and returns the
// identifiers the client sends with its submission.
func (h *Handler) handleParticipantLogin(w http.ResponseWriter, r *http.Request) {
	var req participantLoginRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Email == "" || req.AccessCode == "" {
		writeError(w, r, http.StatusBadRequest, "AccessCodeError")
		return
	}

	candidates, err := h.store.ParticipantsByEmail(r.Context(), req.Email)
	if err != nil {
		slog.Error("failed to look up participant", "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.AccessCode))
	for _, p := range candidates {
		if req.ExamID != 0 && p.ExamID != req.ExamID {
			continue
		}
		if p.AccessCodeHash == "" {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(p.AccessCodeHash), []byte(code)) == nil {
			writeJSON(w, http.StatusOK, participantLoginResponse{
				ParticipantID: p.ID,
				ExamID:        p.ExamID,
				Name:          p.Name,
			})
			return
		}
	}
	writeError(w, r, http.StatusUnauthorized, "AccessCodeError")
}
