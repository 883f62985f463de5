package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/soultie/soultie-be/internal/auth"
	"github.com/soultie/soultie-be/internal/http/respond"
	"github.com/soultie/soultie-be/internal/models"
	"github.com/soultie/soultie-be/internal/models/dto"
	"github.com/soultie/soultie-be/internal/storage"
)

const minPasswordLength = 8

// AuthHandler serves registration, login, and identity lookups.
type AuthHandler struct {
	users  storage.UserStore
	tokens *auth.TokenManager
	logger *slog.Logger
}

func NewAuthHandler(users storage.UserStore, tokens *auth.TokenManager, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, logger: logger}
}

func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("GET /user/{email}", h.userByEmail)
	mux.HandleFunc("GET /users/admin/{email}", h.adminCheck)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		respond.Error(w, http.StatusBadRequest, "name and email are required")
		return
	}
	if len(req.Password) < minPasswordLength {
		respond.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.logger.Error("hash password", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	user, err := h.users.CreateUser(r.Context(), models.User{
		Name:         req.Name,
		Email:        req.Email,
		Photo:        req.Photo,
		Type:         models.TierStandard,
		Role:         models.RoleNormal,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "an account with this email already exists")
			return
		}
		h.logger.Error("create user", "email", req.Email, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to register user")
		return
	}
	respond.OK(w, http.StatusCreated, "user registered", user)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.users.FindByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.logger.Error("find user", "email", req.Email, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		h.logger.Error("generate token", "email", req.Email, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	respond.JSON(w, http.StatusOK, dto.LoginResponse{Token: token, User: user})
}

func (h *AuthHandler) userByEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.PathValue("email")))
	user, err := h.users.FindByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("find user", "email", email, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// adminCheck reports whether the account named in the path is an
// admin. The caller must present a token for that same account.
func (h *AuthHandler) adminCheck(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.PathValue("email")))

	claims, ok := h.bearerClaims(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "missing or invalid token")
		return
	}
	if !strings.EqualFold(claims.Email, email) {
		respond.Error(w, http.StatusForbidden, "forbidden access")
		return
	}

	user, err := h.users.FindByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("find user", "email", email, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to check admin status")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"admin": user.IsAdmin()})
}

func (h *AuthHandler) bearerClaims(r *http.Request) (auth.Claims, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return auth.Claims{}, false
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return auth.Claims{}, false
	}
	claims, err := h.tokens.Verify(strings.TrimSpace(token))
	if err != nil {
		return auth.Claims{}, false
	}
	return claims, true
}
