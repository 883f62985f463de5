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

// StoryHandler serves the success-story surface. Each biodata may
// appear in at most one story, so creation checks the pairing and
// both individual ids before inserting.
type StoryHandler struct {
	stories storage.StoryStore
	logger  *slog.Logger
}

func NewStoryHandler(stories storage.StoryStore, logger *slog.Logger) *StoryHandler {
	return &StoryHandler{stories: stories, logger: logger}
}

func (h *StoryHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /success", h.create)
	mux.HandleFunc("GET /success", h.list)
}

func (h *StoryHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.StoryCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.SelfBiodata = strings.TrimSpace(req.SelfBiodata)
	req.PartnerBiodata = strings.TrimSpace(req.PartnerBiodata)
	if req.SelfBiodata == "" || req.PartnerBiodata == "" {
		respond.Error(w, http.StatusBadRequest, "both selfBiodata and partnerBiodata are required")
		return
	}

	ctx := r.Context()
	if _, err := h.stories.FindPairing(ctx, req.SelfBiodata, req.PartnerBiodata); err == nil {
		respond.Error(w, http.StatusConflict, "this biodata combination already exists in success stories")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		h.logger.Error("check story pairing", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to add success story")
		return
	}
	for _, biodata := range []string{req.SelfBiodata, req.PartnerBiodata} {
		if _, err := h.stories.FindInvolving(ctx, biodata); err == nil {
			respond.Error(w, http.StatusConflict, "biodata "+biodata+" is already associated with another success story")
			return
		} else if !errors.Is(err, storage.ErrNotFound) {
			h.logger.Error("check story membership", "biodata", biodata, "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to add success story")
			return
		}
	}

	story, err := h.stories.Insert(ctx, models.SuccessStory{
		SelfBiodata:    req.SelfBiodata,
		PartnerBiodata: req.PartnerBiodata,
		CoupleImage:    req.CoupleImage,
		MarriageDate:   req.MarriageDate,
		Rating:         req.Rating,
		ShortStory:     req.ShortStory,
	})
	if err != nil {
		h.logger.Error("insert story", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to add success story")
		return
	}

	respond.JSON(w, http.StatusCreated, struct {
		Success    bool                `json:"success"`
		Message    string              `json:"message"`
		InsertedID int64               `json:"insertedId"`
		Data       models.SuccessStory `json:"data"`
	}{
		Success:    true,
		Message:    "success story added successfully",
		InsertedID: story.ID,
		Data:       story,
	})
}

func (h *StoryHandler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	// Limit -1 returns every story on one page.
	limit := queryInt(r, "limit", 6)
	if limit < 1 && limit != -1 {
		limit = 6
	}

	opts := storage.ListStoriesOptions{
		Limit:     limit,
		Search:    strings.TrimSpace(query.Get("search")),
		SortField: strings.TrimSpace(query.Get("sortBy")),
		SortOrder: strings.TrimSpace(query.Get("sortOrder")),
	}
	if limit != -1 {
		opts.Offset = (page - 1) * limit
	}

	stories, total, err := h.stories.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("list stories", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch success stories")
		return
	}

	pagination := dto.StoryPagination{
		CurrentPage:  page,
		TotalStories: total,
		Showing:      len(stories),
	}
	if limit == -1 {
		pagination.TotalPages = 1
		pagination.Limit = int(total)
	} else {
		pagination.TotalPages = totalPages(total, limit)
		pagination.Limit = limit
		pagination.HasNext = page < pagination.TotalPages
		pagination.HasPrev = page > 1
	}

	respond.JSON(w, http.StatusOK, dto.StoryListResponse{
		Success:    true,
		Data:       stories,
		Pagination: pagination,
	})
}
