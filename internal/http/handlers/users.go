package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/soultie/soultie-be/internal/http/respond"
	"github.com/soultie/soultie-be/internal/models"
	"github.com/soultie/soultie-be/internal/models/dto"
	"github.com/soultie/soultie-be/internal/storage"
)

// UserHandler serves the admin account-management endpoints.
type UserHandler struct {
	users  storage.UserStore
	logger *slog.Logger
}

func NewUserHandler(users storage.UserStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

func (h *UserHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /manageusers", h.list)
	mux.HandleFunc("PATCH /userupdate/{id}", h.updateRole)
	mux.HandleFunc("PATCH /userupdatepremium/{id}", h.updateMembership)
	mux.HandleFunc("PATCH /biodataupdate/{email}", h.updateMembershipByEmail)
}

func (h *UserHandler) list(w http.ResponseWriter, r *http.Request) {
	offset, limit, page := pageWindow(r, 10, 50)
	opts := storage.ListUsersOptions{
		Offset: offset,
		Limit:  limit,
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	}

	users, total, err := h.users.ListUsers(r.Context(), opts)
	if err != nil {
		h.logger.Error("list users", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch users")
		return
	}

	respond.JSON(w, http.StatusOK, struct {
		Success    bool           `json:"success"`
		Data       []models.User  `json:"data"`
		Pagination dto.Pagination `json:"pagination"`
	}{
		Success: true,
		Data:    users,
		Pagination: dto.Pagination{
			CurrentPage:  page,
			TotalPages:   totalPages(total, limit),
			TotalItems:   total,
			ItemsPerPage: limit,
			HasNextPage:  int64(page*limit) < total,
			HasPrevPage:  page > 1,
		},
	})
}

func (h *UserHandler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req dto.RoleUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Role != models.RoleNormal && req.Role != models.RoleAdmin {
		respond.Error(w, http.StatusBadRequest, "role must be normal or admin")
		return
	}

	changed, err := h.users.UpdateRole(r.Context(), id, req.Role)
	if err != nil {
		h.logger.Error("update role", "id", id, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to update role")
		return
	}
	if !changed {
		respond.Error(w, http.StatusNotFound, "user not found")
		return
	}
	respond.OK(w, http.StatusOK, "role updated", nil)
}

func (h *UserHandler) updateMembership(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}
	var req dto.MembershipUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Type != models.TierStandard && req.Type != models.TierPremium {
		respond.Error(w, http.StatusBadRequest, "type must be standard or premium")
		return
	}

	changed, err := h.users.UpdateType(r.Context(), id, req.Type)
	if err != nil {
		h.logger.Error("update membership", "id", id, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to update membership")
		return
	}
	if !changed {
		respond.Error(w, http.StatusNotFound, "user not found")
		return
	}
	respond.OK(w, http.StatusOK, "membership updated", nil)
}

func (h *UserHandler) updateMembershipByEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.PathValue("email")))
	var req dto.MembershipUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Type != models.TierStandard && req.Type != models.TierPremium {
		respond.Error(w, http.StatusBadRequest, "type must be standard or premium")
		return
	}

	changed, err := h.users.UpdateTypeByEmail(r.Context(), email, req.Type)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("update membership", "email", email, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to update membership")
		return
	}
	if !changed {
		respond.Error(w, http.StatusNotFound, "user not found")
		return
	}
	respond.OK(w, http.StatusOK, "membership updated", nil)
}
