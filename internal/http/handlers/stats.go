package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/soultie/soultie-be/internal/http/respond"
	"github.com/soultie/soultie-be/internal/models"
	"github.com/soultie/soultie-be/internal/storage"
)

// StatsHandler serves the aggregate counters for the home and admin
// dashboards.
type StatsHandler struct {
	stores storage.Stores
	logger *slog.Logger
}

func NewStatsHandler(stores storage.Stores, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{stores: stores, logger: logger}
}

func (h *StatsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /progress-info", h.progressInfo)
	mux.HandleFunc("GET /admin-info", h.adminInfo)
}

type siteCounts struct {
	Biodata     int64 `json:"biodata"`
	MaleData    int64 `json:"maleData"`
	FemaleData  int64 `json:"femaleData"`
	PremiumData int64 `json:"premiumData"`
}

type progressInfo struct {
	siteCounts
	UserData    int64  `json:"userData"`
	Success     int64  `json:"success"`
	LastUpdated string `json:"lastUpdated"`
}

type adminInfo struct {
	Revenue float64 `json:"revenue"`
	siteCounts
	LastUpdated string `json:"lastUpdated"`
}

type statsResponse[T any] struct {
	Success bool `json:"success"`
	Data    T    `json:"data"`
}

func (h *StatsHandler) counts(r *http.Request) (siteCounts, error) {
	ctx := r.Context()
	total, err := h.stores.Biodatas().CountBiodatas(ctx)
	if err != nil {
		return siteCounts{}, err
	}
	male, err := h.stores.Biodatas().CountBiodatasByType(ctx, models.TypeMale)
	if err != nil {
		return siteCounts{}, err
	}
	female, err := h.stores.Biodatas().CountBiodatasByType(ctx, models.TypeFemale)
	if err != nil {
		return siteCounts{}, err
	}
	premium, err := h.stores.Users().CountUsersByType(ctx, models.TierPremium)
	if err != nil {
		return siteCounts{}, err
	}
	return siteCounts{Biodata: total, MaleData: male, FemaleData: female, PremiumData: premium}, nil
}

func (h *StatsHandler) progressInfo(w http.ResponseWriter, r *http.Request) {
	counts, err := h.counts(r)
	if err != nil {
		h.logger.Error("fetch progress stats", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch statistics")
		return
	}
	users, err := h.stores.Users().CountUsers(r.Context())
	if err != nil {
		h.logger.Error("count users", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch statistics")
		return
	}
	stories, err := h.stores.Stories().CountStories(r.Context())
	if err != nil {
		h.logger.Error("count stories", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch statistics")
		return
	}

	respond.JSON(w, http.StatusOK, statsResponse[progressInfo]{
		Success: true,
		Data: progressInfo{
			siteCounts:  counts,
			UserData:    users,
			Success:     stories,
			LastUpdated: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (h *StatsHandler) adminInfo(w http.ResponseWriter, r *http.Request) {
	counts, err := h.counts(r)
	if err != nil {
		h.logger.Error("fetch admin stats", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch admin statistics")
		return
	}
	revenue, err := h.stores.Payments().TotalRevenue(r.Context())
	if err != nil {
		h.logger.Error("sum revenue", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch admin statistics")
		return
	}

	respond.JSON(w, http.StatusOK, statsResponse[adminInfo]{
		Success: true,
		Data: adminInfo{
			Revenue:     revenue,
			siteCounts:  counts,
			LastUpdated: time.Now().UTC().Format(time.RFC3339),
		},
	})
}
