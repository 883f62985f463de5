package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/soultie/soultie-be/internal/http/respond"
	"github.com/soultie/soultie-be/internal/match"
	"github.com/soultie/soultie-be/internal/models"
	"github.com/soultie/soultie-be/internal/models/dto"
	"github.com/soultie/soultie-be/internal/storage"
)

// BiodataHandler serves the profile surface: upsert, lookups, the
// filtered listing, and the similarity recommendations.
type BiodataHandler struct {
	biodatas storage.BiodataStore
	matcher  *match.Service
	logger   *slog.Logger
}

func NewBiodataHandler(biodatas storage.BiodataStore, matcher *match.Service, logger *slog.Logger) *BiodataHandler {
	return &BiodataHandler{biodatas: biodatas, matcher: matcher, logger: logger}
}

func (h *BiodataHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("PUT /biodatas", h.upsert)
	mux.HandleFunc("GET /biodatas", h.list)
	mux.HandleFunc("GET /biodatas/filter-options", h.filterOptions)
	mux.HandleFunc("GET /view-biodatas/{email}", h.byEmail)
	mux.HandleFunc("GET /biodatas/{id}", h.byID)
	mux.HandleFunc("GET /biodatas/{id}/similar", h.similar)
	mux.HandleFunc("GET /premium-biodatas", h.premiumList)
	mux.HandleFunc("PATCH /biodataupdatepremium/{id}", h.updatePremiumStatus)
}

func (h *BiodataHandler) upsert(w http.ResponseWriter, r *http.Request) {
	var req dto.BiodataUpsertRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.ContactEmail = strings.ToLower(strings.TrimSpace(req.ContactEmail))
	if req.ContactEmail == "" {
		respond.Error(w, http.StatusBadRequest, "contactEmail is required")
		return
	}
	biodataType := strings.ToLower(strings.TrimSpace(req.BiodataType))
	if biodataType != models.TypeMale && biodataType != models.TypeFemale {
		respond.Error(w, http.StatusBadRequest, "biodataType must be male or female")
		return
	}

	biodata, isNew, err := h.biodatas.Upsert(r.Context(), models.Biodata{
		Name:              strings.TrimSpace(req.Name),
		Photo:             req.Photo,
		BiodataType:       biodataType,
		BirthDate:         req.BirthDate,
		Height:            req.Height,
		Weight:            req.Weight,
		Age:               req.Age,
		Occupation:        req.Occupation,
		Race:              req.Race,
		FatherName:        req.FatherName,
		MotherName:        req.MotherName,
		PermanentDivision: req.PermanentDivision,
		PresentDivision:   req.PresentDivision,
		PartnerAge:        req.PartnerAge,
		PartnerHeight:     req.PartnerHeight,
		PartnerWeight:     req.PartnerWeight,
		ContactEmail:      req.ContactEmail,
		MobileNumber:      req.MobileNumber,
	})
	if err != nil {
		h.logger.Error("upsert biodata", "email", req.ContactEmail, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to process biodata")
		return
	}

	message := "biodata updated successfully"
	if isNew {
		message = "biodata created successfully"
	}
	respond.JSON(w, http.StatusOK, dto.BiodataUpsertResponse{
		Success:   true,
		Message:   message,
		BiodataID: biodata.BiodataID,
		IsNew:     isNew,
	})
}

func (h *BiodataHandler) list(w http.ResponseWriter, r *http.Request) {
	offset, limit, page := pageWindow(r, 8, 50)
	query := r.URL.Query()
	opts := storage.ListBiodatasOptions{
		Offset:        offset,
		Limit:         limit,
		BiodataType:   strings.ToLower(strings.TrimSpace(query.Get("biodataType"))),
		MinAge:        strings.TrimSpace(query.Get("minAge")),
		MaxAge:        strings.TrimSpace(query.Get("maxAge")),
		Division:      strings.TrimSpace(query.Get("division")),
		Race:          strings.TrimSpace(query.Get("race")),
		Occupation:    strings.TrimSpace(query.Get("occupation")),
		PremiumStatus: strings.ToLower(strings.TrimSpace(query.Get("premiumStatus"))),
		SortField:     strings.TrimSpace(query.Get("sortBy")),
		SortOrder:     strings.TrimSpace(query.Get("order")),
	}

	biodatas, total, err := h.biodatas.List(r.Context(), opts)
	if err != nil {
		h.logger.Error("list biodatas", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch biodatas")
		return
	}

	respond.JSON(w, http.StatusOK, dto.BiodataListResponse{
		Success: true,
		Data:    biodatas,
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

func (h *BiodataHandler) filterOptions(w http.ResponseWriter, r *http.Request) {
	divisions, races, occupations, err := h.biodatas.FilterValues(r.Context())
	if err != nil {
		h.logger.Error("fetch filter values", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch filter options")
		return
	}

	respond.JSON(w, http.StatusOK, struct {
		Success       bool              `json:"success"`
		FilterOptions dto.FilterOptions `json:"filterOptions"`
	}{
		Success: true,
		FilterOptions: dto.FilterOptions{
			Divisions:    divisions,
			Races:        races,
			Occupations:  occupations,
			BiodataTypes: []string{models.TypeMale, models.TypeFemale},
			Statuses:     []string{models.PremiumNormal, models.PremiumRequested, models.PremiumApproved},
			AgeRanges: []dto.AgeRange{
				{Label: "18-25", Min: 18, Max: 25},
				{Label: "26-30", Min: 26, Max: 30},
				{Label: "31-35", Min: 31, Max: 35},
				{Label: "36-40", Min: 36, Max: 40},
				{Label: "41-50", Min: 41, Max: 50},
				{Label: "50+", Min: 50, Max: 100},
			},
		},
	})
}

func (h *BiodataHandler) byEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.PathValue("email")))
	biodata, err := h.biodatas.FindByContactEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "biodata not found for this email")
			return
		}
		h.logger.Error("find biodata", "email", email, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch biodata")
		return
	}
	respond.JSON(w, http.StatusOK, biodata)
}

func (h *BiodataHandler) byID(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid biodata id")
		return
	}
	biodata, err := h.biodatas.FindByKey(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "biodata not found")
			return
		}
		h.logger.Error("find biodata", "id", id, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch biodata")
		return
	}
	respond.JSON(w, http.StatusOK, biodata)
}

func (h *BiodataHandler) similar(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid biodata id")
		return
	}
	limit := queryInt(r, "limit", 0)

	similar, criteria, err := h.matcher.FindSimilar(r.Context(), id, limit)
	if err != nil {
		switch {
		case errors.Is(err, match.ErrBiodataNotFound):
			respond.Error(w, http.StatusNotFound, "biodata not found")
		case errors.Is(err, match.ErrInsufficientData):
			respond.Error(w, http.StatusBadRequest, "invalid biodata values for comparison")
		default:
			h.logger.Error("find similar biodatas", "id", id, "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to fetch similar biodatas")
		}
		return
	}

	respond.JSON(w, http.StatusOK, dto.SimilarBiodatasResponse{
		Success: true,
		Data:    similar,
		Count:   len(similar),
		Criteria: dto.SimilarityCriteria{
			BiodataType: criteria.BiodataType,
			AgeRange:    criteria.AgeRange,
			HeightRange: criteria.HeightRange,
			WeightRange: criteria.WeightRange,
		},
	})
}

func (h *BiodataHandler) premiumList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sortField := strings.TrimSpace(query.Get("sortBy"))
	sortOrder := strings.TrimSpace(query.Get("order"))

	biodatas, err := h.biodatas.ListPremiumOwned(r.Context(), sortField, sortOrder)
	if err != nil {
		h.logger.Error("list premium biodatas", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch premium biodatas")
		return
	}
	respond.JSON(w, http.StatusOK, struct {
		Success bool             `json:"success"`
		Data    []models.Biodata `json:"data"`
		Count   int              `json:"count"`
	}{Success: true, Data: biodatas, Count: len(biodatas)})
}

func (h *BiodataHandler) updatePremiumStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid biodata id")
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	switch status {
	case models.PremiumNormal, models.PremiumRequested, models.PremiumApproved:
	default:
		respond.Error(w, http.StatusBadRequest,
			fmt.Sprintf("status must be %s, %s, or %s", models.PremiumNormal, models.PremiumRequested, models.PremiumApproved))
		return
	}

	changed, err := h.biodatas.UpdatePremiumStatus(r.Context(), id, status)
	if err != nil {
		h.logger.Error("update premium status", "id", id, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to update premium status")
		return
	}
	if !changed {
		respond.Error(w, http.StatusNotFound, "biodata not found")
		return
	}
	respond.OK(w, http.StatusOK, "premium status updated", nil)
}
