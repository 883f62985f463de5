package models

import "time"

// Access-request statuses. The lifecycle starts at pending; approved
// and rejected may both move back to pending or be deleted.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// ValidStatus reports whether s is one of the three request statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Payment is the ledger entry for one account's attempt to unlock one
// biodata's contact details. UserID and BiodataID reference internal
// store keys, not the biodata's public sequence id.
type Payment struct {
	ID            int64      `json:"_id"`
	UserID        int64      `json:"userId"`
	BiodataID     int64      `json:"biodataId"`
	TransactionID string     `json:"transactionId"`
	Amount        float64    `json:"amount"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	ApprovedAt    *time.Time `json:"approvedAt,omitempty"`
	RejectedAt    *time.Time `json:"rejectedAt,omitempty"`
}
