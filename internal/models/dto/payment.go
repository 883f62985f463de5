package dto

import "github.com/soultie/soultie-be/internal/models"

type PaymentIntentRequest struct {
	Price float64 `json:"price"`
}

type PaymentIntentResponse struct {
	Success      bool   `json:"success"`
	ClientSecret string `json:"clientSecret"`
}

type SubmitPaymentRequest struct {
	UserEmail     string  `json:"userEmail"`
	BiodataID     int64   `json:"biodataId"`
	TransactionID string  `json:"transactionId"`
	Amount        float64 `json:"amount"`
}

type SubmitPaymentResponse struct {
	Success    bool   `json:"success"`
	InsertedID int64  `json:"insertedId"`
	Message    string `json:"message"`
}

type AccessCheckResponse struct {
	Success           bool   `json:"success"`
	HasAccess         bool   `json:"hasAccess"`
	HasPendingRequest bool   `json:"hasPendingRequest"`
	AccessType        string `json:"accessType"`
	IsPremium         bool   `json:"isPremium"`
	Message           string `json:"message,omitempty"`
}

type StatusUpdateRequest struct {
	PaymentID int64  `json:"paymentId"`
	NewStatus string `json:"newStatus"`
}

type StatusUpdateResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Data    TransitionResult `json:"data"`
}

type TransitionResult struct {
	PaymentID       int64          `json:"paymentId"`
	OldStatus       string         `json:"oldStatus"`
	NewStatus       string         `json:"newStatus"`
	BiodataID       int64          `json:"biodataId"`
	UserID          string         `json:"userId"`
	PaymentModified bool           `json:"paymentModified"`
	BiodataModified bool           `json:"biodataModified"`
	ArraysUpdated   MembershipSets `json:"arraysUpdated"`
}

type MembershipSets struct {
	HasRequest []string `json:"hasRequest"`
	HasAccess  []string `json:"hasAccess"`
}

type PaymentStatusResponse struct {
	Success           bool            `json:"success"`
	HasPendingPayment bool            `json:"hasPendingPayment"`
	IsApproved        bool            `json:"isApproved,omitempty"`
	Payment           *models.Payment `json:"payment"`
	Message           string          `json:"message,omitempty"`
}

// PopulatedPayment is a ledger entry joined with summaries of the
// requesting account and target biodata for listing endpoints.
type PopulatedPayment struct {
	models.Payment
	User    *UserSummary    `json:"user,omitempty"`
	Biodata *BiodataSummary `json:"biodata,omitempty"`
}

type UserSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type BiodataSummary struct {
	ID           int64  `json:"_id,omitempty"`
	BiodataID    int64  `json:"biodataId"`
	Name         string `json:"name"`
	ContactEmail string `json:"contactEmail"`
	MobileNumber string `json:"mobileNumber,omitempty"`
	Photo        string `json:"photo,omitempty"`
}
