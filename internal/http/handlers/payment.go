package handlers

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/soultie/soultie-be/internal/access"
	"github.com/soultie/soultie-be/internal/http/respond"
	"github.com/soultie/soultie-be/internal/models"
	"github.com/soultie/soultie-be/internal/models/dto"
	"github.com/soultie/soultie-be/internal/payments"
	"github.com/soultie/soultie-be/internal/storage"
)

// PaymentHandler serves the contact-unlock workflow: charge intents,
// request submission, status transitions, and the request listings.
type PaymentHandler struct {
	gateway payments.Gateway
	service *access.Service
	logger  *slog.Logger
}

func NewPaymentHandler(gateway payments.Gateway, service *access.Service, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{gateway: gateway, service: service, logger: logger}
}

func (h *PaymentHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /create-payment-intent", h.createIntent)
	mux.HandleFunc("POST /payment", h.submit)
	mux.HandleFunc("GET /check-biodata-access", h.checkAccess)
	mux.HandleFunc("PUT /payment/update-status", h.updateStatus)
	mux.HandleFunc("GET /payments/status", h.status)
	mux.HandleFunc("GET /payments", h.list)
	mux.HandleFunc("GET /payment/{email}", h.listForAccount)
	mux.HandleFunc("GET /reqbiodatas-payment/{biodataId}", h.biodataForPayment)
	mux.HandleFunc("DELETE /payment-delete/{id}", h.remove)
}

func (h *PaymentHandler) createIntent(w http.ResponseWriter, r *http.Request) {
	var req dto.PaymentIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Price <= 0 {
		respond.Error(w, http.StatusBadRequest, "price must be greater than zero")
		return
	}

	intent, err := h.gateway.CreateIntent(r.Context(), int64(math.Round(req.Price*100)))
	if err != nil {
		h.logger.Error("create payment intent", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to create payment intent")
		return
	}
	respond.JSON(w, http.StatusOK, dto.PaymentIntentResponse{
		Success:      true,
		ClientSecret: intent.ClientSecret,
	})
}

func (h *PaymentHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req dto.SubmitPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.UserEmail = strings.ToLower(strings.TrimSpace(req.UserEmail))
	req.TransactionID = strings.TrimSpace(req.TransactionID)
	if req.UserEmail == "" || req.BiodataID == 0 || req.TransactionID == "" {
		respond.Error(w, http.StatusBadRequest, "userEmail, biodataId, and transactionId are required")
		return
	}

	payment, err := h.service.Submit(r.Context(), req.UserEmail, req.BiodataID, req.TransactionID, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, access.ErrUserNotFound):
			respond.Error(w, http.StatusNotFound, "user not found")
		case errors.Is(err, access.ErrBiodataNotFound):
			respond.Error(w, http.StatusNotFound, "biodata not found")
		case errors.Is(err, access.ErrAlreadyGranted):
			respond.Error(w, http.StatusBadRequest, "access already granted for this biodata")
		case errors.Is(err, access.ErrRequestExists):
			respond.Error(w, http.StatusBadRequest, "payment request already exists for this biodata")
		default:
			h.logger.Error("submit payment", "email", req.UserEmail, "biodataId", req.BiodataID, "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to process payment")
		}
		return
	}

	respond.JSON(w, http.StatusCreated, dto.SubmitPaymentResponse{
		Success:    true,
		InsertedID: payment.ID,
		Message:    "payment submitted and access request recorded",
	})
}

func (h *PaymentHandler) checkAccess(w http.ResponseWriter, r *http.Request) {
	userEmail, biodataID, ok := h.accessQuery(w, r)
	if !ok {
		return
	}

	result, err := h.service.CheckAccess(r.Context(), userEmail, biodataID)
	if err != nil {
		switch {
		case errors.Is(err, access.ErrUserNotFound):
			respond.JSON(w, http.StatusNotFound, dto.AccessCheckResponse{Message: "user not found"})
		case errors.Is(err, access.ErrBiodataNotFound):
			respond.JSON(w, http.StatusNotFound, dto.AccessCheckResponse{Message: "biodata not found"})
		default:
			h.logger.Error("check biodata access", "email", userEmail, "biodataId", biodataID, "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to check biodata access")
		}
		return
	}

	respond.JSON(w, http.StatusOK, dto.AccessCheckResponse{
		Success:           true,
		HasAccess:         result.HasAccess,
		HasPendingRequest: result.HasPendingRequest,
		AccessType:        result.AccessType,
		IsPremium:         result.IsPremium,
		Message:           accessMessage(result),
	})
}

func accessMessage(result access.AccessResult) string {
	switch {
	case result.IsPremium:
		return "premium user, full access granted"
	case result.HasAccess:
		return "access granted"
	case result.HasPendingRequest:
		return "payment pending approval"
	default:
		return "no access"
	}
}

func (h *PaymentHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req dto.StatusUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PaymentID == 0 {
		respond.Error(w, http.StatusBadRequest, "paymentId is required")
		return
	}

	result, err := h.service.Transition(r.Context(), req.PaymentID, strings.ToLower(strings.TrimSpace(req.NewStatus)))
	if err != nil {
		switch {
		case errors.Is(err, access.ErrInvalidStatus):
			respond.Error(w, http.StatusBadRequest, "invalid status: must be pending, approved, or rejected")
		case errors.Is(err, access.ErrPaymentNotFound):
			respond.Error(w, http.StatusNotFound, "payment not found")
		case errors.Is(err, access.ErrBiodataNotFound):
			respond.Error(w, http.StatusNotFound, "biodata not found")
		default:
			h.logger.Error("update payment status", "paymentId", req.PaymentID, "error", err)
			respond.Error(w, http.StatusInternalServerError, "failed to update payment status")
		}
		return
	}

	message := "payment status updated"
	if result.NoChange {
		message = "payment already has this status"
	}
	respond.JSON(w, http.StatusOK, dto.StatusUpdateResponse{
		Success: true,
		Message: message,
		Data: dto.TransitionResult{
			PaymentID:       result.Payment.ID,
			OldStatus:       result.OldStatus,
			NewStatus:       result.NewStatus,
			BiodataID:       result.Payment.BiodataID,
			UserID:          result.UserID,
			PaymentModified: result.PaymentModified,
			BiodataModified: result.BiodataModified,
			ArraysUpdated: dto.MembershipSets{
				HasRequest: result.HasRequest,
				HasAccess:  result.HasAccess,
			},
		},
	})
}

// status reports the ledger entry for an (account, biodata) pair. A
// missing account, biodata, or entry is a successful "no payment"
// response so the client can poll without special-casing.
func (h *PaymentHandler) status(w http.ResponseWriter, r *http.Request) {
	userEmail, biodataID, ok := h.accessQuery(w, r)
	if !ok {
		return
	}

	payment, err := h.service.Status(r.Context(), userEmail, biodataID)
	if err != nil {
		h.logger.Error("check payment status", "email", userEmail, "biodataId", biodataID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to check payment status")
		return
	}
	if payment == nil {
		respond.JSON(w, http.StatusOK, dto.PaymentStatusResponse{
			Success: true,
			Message: "no payment found",
		})
		return
	}

	respond.JSON(w, http.StatusOK, dto.PaymentStatusResponse{
		Success:           true,
		HasPendingPayment: payment.Status == models.StatusPending,
		IsApproved:        payment.Status == models.StatusApproved,
		Payment:           payment,
		Message:           "payment status: " + payment.Status,
	})
}

func (h *PaymentHandler) list(w http.ResponseWriter, r *http.Request) {
	offset, limit, page := pageWindow(r, 10, 50)
	query := r.URL.Query()
	opts := storage.ListPaymentsOptions{
		Offset: offset,
		Limit:  limit,
		Status: strings.ToLower(strings.TrimSpace(query.Get("status"))),
	}
	populate := query.Get("populate") != "false"

	requests, total, err := h.service.ListRequests(r.Context(), opts, populate)
	if err != nil {
		h.logger.Error("list payments", "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch payment requests")
		return
	}

	data := make([]dto.PopulatedPayment, 0, len(requests))
	for _, request := range requests {
		data = append(data, toPopulatedPayment(request))
	}

	respond.JSON(w, http.StatusOK, struct {
		Success    bool                   `json:"success"`
		Data       []dto.PopulatedPayment `json:"data"`
		Pagination dto.Pagination         `json:"pagination"`
	}{
		Success: true,
		Data:    data,
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

func (h *PaymentHandler) listForAccount(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.PathValue("email")))

	requests, err := h.service.RequestsForAccount(r.Context(), email)
	if err != nil {
		if errors.Is(err, access.ErrUserNotFound) {
			respond.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("list payments for account", "email", email, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch contact requests")
		return
	}

	data := make([]dto.PopulatedPayment, 0, len(requests))
	for _, request := range requests {
		data = append(data, toPopulatedPayment(request))
	}
	respond.JSON(w, http.StatusOK, struct {
		Success bool                   `json:"success"`
		Data    []dto.PopulatedPayment `json:"data"`
	}{Success: true, Data: data})
}

func (h *PaymentHandler) biodataForPayment(w http.ResponseWriter, r *http.Request) {
	biodataID, err := pathInt64(r, "biodataId")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid biodata id")
		return
	}

	biodata, err := h.service.BiodataBySequenceID(r.Context(), biodataID)
	if err != nil {
		if errors.Is(err, access.ErrBiodataNotFound) {
			respond.Error(w, http.StatusNotFound, "biodata not found")
			return
		}
		h.logger.Error("fetch biodata for payment", "biodataId", biodataID, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch biodata")
		return
	}

	respond.JSON(w, http.StatusOK, struct {
		Success bool `json:"success"`
		models.Biodata
	}{Success: true, Biodata: biodata})
}

func (h *PaymentHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid payment id")
		return
	}

	if err := h.service.Remove(r.Context(), id); err != nil {
		if errors.Is(err, access.ErrPaymentNotFound) {
			respond.Error(w, http.StatusNotFound, "payment not found")
			return
		}
		h.logger.Error("delete payment", "paymentId", id, "error", err)
		respond.Error(w, http.StatusInternalServerError, "failed to delete payment")
		return
	}

	respond.JSON(w, http.StatusOK, struct {
		Success      bool `json:"success"`
		DeletedCount int  `json:"deletedCount"`
	}{Success: true, DeletedCount: 1})
}

// accessQuery parses the userEmail/biodataId query pair shared by the
// access-check and status endpoints.
func (h *PaymentHandler) accessQuery(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	query := r.URL.Query()
	userEmail := strings.ToLower(strings.TrimSpace(query.Get("userEmail")))
	biodataID := int64(queryInt(r, "biodataId", 0))
	if userEmail == "" || biodataID == 0 {
		respond.Error(w, http.StatusBadRequest, "user email and biodata id are required")
		return "", 0, false
	}
	return userEmail, biodataID, true
}

func toPopulatedPayment(request access.PopulatedRequest) dto.PopulatedPayment {
	populated := dto.PopulatedPayment{Payment: request.Payment}
	if request.User != nil {
		populated.User = &dto.UserSummary{
			Name:  request.User.Name,
			Email: request.User.Email,
		}
	}
	if request.Biodata != nil {
		populated.Biodata = &dto.BiodataSummary{
			ID:           request.Biodata.ID,
			BiodataID:    request.Biodata.BiodataID,
			Name:         request.Biodata.Name,
			ContactEmail: request.Biodata.ContactEmail,
			MobileNumber: request.Biodata.MobileNumber,
			Photo:        request.Biodata.Photo,
		}
	}
	return populated
}
