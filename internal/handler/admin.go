package handler

import (
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	appI18n "github.com/pavelanni/ujian/internal/i18n"
	"github.com/pavelanni/ujian/internal/model"
)

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		slog.Error("failed to list users", "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

type createUserRequest struct {
	Username    string         `json:"username"`
	DisplayName string         `json:"display_name"`
	Password    string         `json:"password"`
	Role        model.UserRole `json:"role"`
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Username == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "CredentialsRequired")
		return
	}
	if req.Role == "" {
		req.Role = model.UserRoleAdmin
	}
	if req.Role != model.UserRoleAdmin && req.Role != model.UserRoleViewer {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Message: appI18n.Td(r.Context(), "InvalidRole", map[string]any{"Role": req.Role}),
		})
		return
	}

	existing, err := h.store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	if existing != nil {
		writeError(w, r, http.StatusConflict, "UsernameTaken")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.Username
	}

	u := model.User{
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		PasswordHash: string(hash),
		Role:         req.Role,
		Active:       true,
	}
	id, err := h.store.CreateUser(r.Context(), u)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	created, err := h.store.GetUserByID(r.Context(), id)
	if err != nil || created == nil {
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleToggleUserActive(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "userID")
	if !ok {
		writeError(w, r, http.StatusNotFound, "NotFound")
		return
	}
	if current := model.UserFromContext(r.Context()); current != nil && current.ID == id {
		writeError(w, r, http.StatusForbidden, "Forbidden")
		return
	}

	u, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		slog.Error("failed to get user", "id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	if u == nil {
		writeError(w, r, http.StatusNotFound, "NotFound")
		return
	}

	if err := h.store.ToggleUserActive(r.Context(), id); err != nil {
		slog.Error("failed to toggle user active", "id", id, "error", err)
		writeError(w, r, http.StatusInternalServerError, "InternalError")
		return
	}
	u.Active = !u.Active
	slog.Info("toggled user", "id", id, "active", u.Active)
	writeJSON(w, http.StatusOK, u)
}
