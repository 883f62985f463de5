package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/soultie/soultie-be/internal/http/respond"
	"github.com/soultie/soultie-be/internal/models"
	"github.com/soultie/soultie-be/internal/storage"
)

// FavouriteHandler serves the bookmark endpoints.
type FavouriteHandler struct {
	favourites storage.FavouriteStore
	logger     *slog.Logger
}

func NewFavouriteHandler(favourites storage.FavouriteStore, logger *slog.Logger) *FavouriteHandler {
	return &FavouriteHandler{favourites: favourites, logger: logger}
}

func (h *FavouriteHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /favourites", h.add)
	mux.HandleFunc("GET /favourites/{email}", h.listByEmail)
	mux.HandleFunc("DELETE /favourites/{id}", h.remove)
}

func (h *FavouriteHandler) add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserEmail    string `json:"userEmail"`
		BiodataID    int64  `json:"biodataId"`
		Name         string `json:"name"`
		Occupation   string `json:"occupation"`
		PermanentDiv string `json:"permanentDivision"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserEmail = strings.ToLower(strings.TrimSpace(req.UserEmail))
	if req.UserEmail == "" || req.BiodataID == 0 {
		respond.Error(w, http.StatusBadRequest, "userEmail and biodataId are required")
		return
	}

	favourite, err := h.favourites.Insert(r.Context(), models.Favourite{
		UserEmail:    req.UserEmail,
		BiodataID:    req.BiodataID,
		Name:         req.Name,
		Occupation:   req.Occupation,
		PermanentDiv: req.PermanentDiv,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, "biodata is already in favourites")
			return
		}
		h.logger.Error("insert favourite", "email", req.UserEmail, "biodataId", req.BiodataID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to add favourite")
		return
	}
	respond.OK(w, http.StatusCreated, "favourite added", favourite)
}

func (h *FavouriteHandler) listByEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.PathValue("email")))
	favourites, err := h.favourites.ListByEmail(r.Context(), email)
	if err != nil {
		h.logger.Error("list favourites", "email", email, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch favourites")
		return
	}
	respond.JSON(w, http.StatusOK, favourites)
}

// remove deletes by biodata sequence id, matching what the frontend
// sends on the favourites page.
func (h *FavouriteHandler) remove(w http.ResponseWriter, r *http.Request) {
	biodataID, err := pathInt64(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid biodata id")
		return
	}

	deleted, err := h.favourites.DeleteByBiodataID(r.Context(), biodataID)
	if err != nil {
		h.logger.Error("delete favourite", "biodataId", biodataID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to delete favourite")
		return
	}
	if !deleted {
		respond.Error(w, http.StatusNotFound, "favourite not found")
		return
	}
	respond.OK(w, http.StatusOK, "favourite removed", nil)
}
