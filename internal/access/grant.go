// Package access owns the lifecycle of contact-unlock requests: a
// payment-backed ledger entry per (account, biodata) pair whose status
// is mirrored into the target biodata's hasRequest/hasAccess sets.
package access

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/soultie/soultie-be/internal/models"
	"github.com/soultie/soultie-be/internal/storage"
)

var (
	// ErrUserNotFound indicates the requesting account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrBiodataNotFound indicates the target biodata does not exist.
	ErrBiodataNotFound = errors.New("biodata not found")
	// ErrPaymentNotFound indicates the ledger entry does not exist.
	ErrPaymentNotFound = errors.New("payment not found")
	// ErrRequestExists indicates the pair already has a ledger entry.
	ErrRequestExists = errors.New("payment request already exists for this biodata")
	// ErrAlreadyGranted indicates the account already has approved access.
	ErrAlreadyGranted = errors.New("access already granted for this biodata")
	// ErrInvalidStatus indicates a status outside pending/approved/rejected.
	ErrInvalidStatus = errors.New("invalid status: must be pending, approved, or rejected")
)

// Notifier receives grant transitions for out-of-band delivery. A nil
// Notifier is valid and drops events.
type Notifier interface {
	GrantTransition(ctx context.Context, event TransitionEvent)
}

// TransitionEvent describes a completed status change.
type TransitionEvent struct {
	PaymentID int64     `json:"paymentId"`
	UserID    int64     `json:"userId"`
	BiodataID int64     `json:"biodataId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	At        time.Time `json:"at"`
}

// AccessTypes reported by CheckAccess.
const (
	AccessNone    = "none"
	AccessPaid    = "paid"
	AccessPending = "pending"
	AccessPremium = "premium"
)

// AccessResult is the outcome of a CheckAccess query.
type AccessResult struct {
	HasAccess         bool
	HasPendingRequest bool
	AccessType        string
	IsPremium         bool
}

// TransitionResult reports what a Transition changed.
type TransitionResult struct {
	Payment         models.Payment
	OldStatus       string
	NewStatus       string
	UserID          string
	PaymentModified bool
	BiodataModified bool
	HasRequest      []string
	HasAccess       []string
	NoChange        bool
}

// PopulatedRequest is a ledger entry joined with its account and
// biodata records; either pointer is nil if the reference dangles.
type PopulatedRequest struct {
	Payment models.Payment
	User    *models.User
	Biodata *models.Biodata
}

// Service is the access-grant state machine. All multi-record
// operations run inside the store's transaction boundary.
type Service struct {
	stores   storage.Stores
	notifier Notifier
	nowFn    func() time.Time
}

// NewService constructs the state machine over the given stores.
func NewService(stores storage.Stores, notifier Notifier) *Service {
	return &Service{
		stores:   stores,
		notifier: notifier,
		nowFn:    time.Now,
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (s *Service) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Submit records a new access request: a pending ledger entry plus the
// account id added to the biodata's hasRequest set.
func (s *Service) Submit(ctx context.Context, userEmail string, biodataID int64, transactionID string, amount float64) (models.Payment, error) {
	var created models.Payment
	err := s.stores.InTx(ctx, func(st storage.Stores) error {
		user, err := st.Users().FindByEmail(ctx, userEmail)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("find user: %w", err)
		}
		biodata, err := st.Biodatas().FindBySequenceID(ctx, biodataID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrBiodataNotFound
			}
			return fmt.Errorf("find biodata: %w", err)
		}

		accountID := formatID(user.ID)
		if biodata.GrantsAccessTo(accountID) {
			return ErrAlreadyGranted
		}
		if _, err := st.Payments().FindByUserAndBiodata(ctx, user.ID, biodata.ID); err == nil {
			return ErrRequestExists
		} else if !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("check existing payment: %w", err)
		}

		created, err = st.Payments().Insert(ctx, models.Payment{
			UserID:        user.ID,
			BiodataID:     biodata.ID,
			TransactionID: transactionID,
			Amount:        amount,
			Status:        models.StatusPending,
		})
		if err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				return ErrRequestExists
			}
			return fmt.Errorf("insert payment: %w", err)
		}

		hasRequest := addMember(normalizeSet(biodata.HasRequest), accountID)
		if _, err := st.Biodatas().ReplaceAccessSets(ctx, biodata.ID, hasRequest, normalizeSet(biodata.HasAccess)); err != nil {
			return fmt.Errorf("update biodata sets: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Payment{}, err
	}
	return created, nil
}

// Transition moves a request to targetStatus, keeping the biodata's
// membership sets in step. Re-applying the current status is a no-op
// that reports zero modifications.
func (s *Service) Transition(ctx context.Context, paymentID int64, targetStatus string) (TransitionResult, error) {
	if !models.ValidStatus(targetStatus) {
		return TransitionResult{}, ErrInvalidStatus
	}

	var result TransitionResult
	err := s.stores.InTx(ctx, func(st storage.Stores) error {
		payment, err := st.Payments().FindByID(ctx, paymentID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("find payment: %w", err)
		}

		accountID := formatID(payment.UserID)
		result = TransitionResult{
			Payment:   payment,
			OldStatus: payment.Status,
			NewStatus: targetStatus,
			UserID:    accountID,
		}
		if payment.Status == targetStatus {
			result.NoChange = true
			return nil
		}

		biodata, err := st.Biodatas().FindByKey(ctx, payment.BiodataID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrBiodataNotFound
			}
			return fmt.Errorf("find biodata: %w", err)
		}

		hasRequest := normalizeSet(biodata.HasRequest)
		hasAccess := normalizeSet(biodata.HasAccess)

		switch targetStatus {
		case models.StatusApproved:
			hasRequest = removeMember(hasRequest, accountID)
			hasAccess = addMember(hasAccess, accountID)
		case models.StatusRejected:
			hasRequest = removeMember(hasRequest, accountID)
		case models.StatusPending:
			if payment.Status == models.StatusApproved {
				hasAccess = removeMember(hasAccess, accountID)
			}
			hasRequest = addMember(hasRequest, accountID)
		}

		biodataModified, err := st.Biodatas().ReplaceAccessSets(ctx, biodata.ID, hasRequest, hasAccess)
		if err != nil {
			return fmt.Errorf("update biodata sets: %w", err)
		}

		now := s.nowFn()
		var approvedAt, rejectedAt *time.Time
		switch targetStatus {
		case models.StatusApproved:
			approvedAt = &now
		case models.StatusRejected:
			rejectedAt = &now
		}
		paymentModified, err := st.Payments().UpdateStatus(ctx, paymentID, targetStatus, approvedAt, rejectedAt)
		if err != nil {
			return fmt.Errorf("update payment status: %w", err)
		}

		updated, err := st.Payments().FindByID(ctx, paymentID)
		if err == nil {
			result.Payment = updated
		}
		result.PaymentModified = paymentModified
		result.BiodataModified = biodataModified
		result.HasRequest = hasRequest
		result.HasAccess = hasAccess
		return nil
	})
	if err != nil {
		return TransitionResult{}, err
	}

	if !result.NoChange && s.notifier != nil {
		s.notifier.GrantTransition(ctx, TransitionEvent{
			PaymentID: result.Payment.ID,
			UserID:    result.Payment.UserID,
			BiodataID: result.Payment.BiodataID,
			OldStatus: result.OldStatus,
			NewStatus: result.NewStatus,
			At:        s.nowFn(),
		})
	}
	return result, nil
}

// CheckAccess reports the account's access relationship to a biodata.
// Premium accounts are granted unconditionally.
func (s *Service) CheckAccess(ctx context.Context, userEmail string, biodataID int64) (AccessResult, error) {
	user, err := s.stores.Users().FindByEmail(ctx, userEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return AccessResult{AccessType: AccessNone}, ErrUserNotFound
		}
		return AccessResult{}, fmt.Errorf("find user: %w", err)
	}

	if user.IsPremium() {
		return AccessResult{
			HasAccess:  true,
			AccessType: AccessPremium,
			IsPremium:  true,
		}, nil
	}

	biodata, err := s.stores.Biodatas().FindBySequenceID(ctx, biodataID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return AccessResult{AccessType: AccessNone}, ErrBiodataNotFound
		}
		return AccessResult{}, fmt.Errorf("find biodata: %w", err)
	}

	accountID := formatID(user.ID)
	result := AccessResult{
		HasAccess:         biodata.GrantsAccessTo(accountID),
		HasPendingRequest: biodata.HasRequestFrom(accountID),
		AccessType:        AccessNone,
	}
	if result.HasAccess {
		result.AccessType = AccessPaid
	} else if result.HasPendingRequest {
		result.AccessType = AccessPending
	}
	return result, nil
}

// Status looks up the ledger entry for an (account, biodata) pair. A
// missing account, biodata, or entry yields a nil payment, not an
// error; callers poll this before and after submitting.
func (s *Service) Status(ctx context.Context, userEmail string, biodataID int64) (*models.Payment, error) {
	user, err := s.stores.Users().FindByEmail(ctx, userEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	biodata, err := s.stores.Biodatas().FindBySequenceID(ctx, biodataID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find biodata: %w", err)
	}
	payment, err := s.stores.Payments().FindByUserAndBiodata(ctx, user.ID, biodata.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &payment, nil
}

// Remove deletes a ledger entry and strips the account id from the
// biodata set matching its last status. Rejected entries strip both
// sets: a prior partial failure may have left the id stranded.
func (s *Service) Remove(ctx context.Context, paymentID int64) error {
	return s.stores.InTx(ctx, func(st storage.Stores) error {
		payment, err := st.Payments().FindByID(ctx, paymentID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrPaymentNotFound
			}
			return fmt.Errorf("find payment: %w", err)
		}

		if _, err := st.Payments().Delete(ctx, paymentID); err != nil {
			return fmt.Errorf("delete payment: %w", err)
		}

		biodata, err := st.Biodatas().FindByKey(ctx, payment.BiodataID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				// Biodata already gone; nothing to strip.
				return nil
			}
			return fmt.Errorf("find biodata: %w", err)
		}

		accountID := formatID(payment.UserID)
		hasRequest := normalizeSet(biodata.HasRequest)
		hasAccess := normalizeSet(biodata.HasAccess)
		switch payment.Status {
		case models.StatusPending:
			hasRequest = removeMember(hasRequest, accountID)
		case models.StatusApproved:
			hasAccess = removeMember(hasAccess, accountID)
		case models.StatusRejected:
			hasRequest = removeMember(hasRequest, accountID)
			hasAccess = removeMember(hasAccess, accountID)
		}
		if _, err := st.Biodatas().ReplaceAccessSets(ctx, biodata.ID, hasRequest, hasAccess); err != nil {
			return fmt.Errorf("update biodata sets: %w", err)
		}
		return nil
	})
}

// BiodataBySequenceID fetches the full biodata record for the payment
// page, including the private contact fields.
func (s *Service) BiodataBySequenceID(ctx context.Context, biodataID int64) (models.Biodata, error) {
	biodata, err := s.stores.Biodatas().FindBySequenceID(ctx, biodataID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Biodata{}, ErrBiodataNotFound
		}
		return models.Biodata{}, fmt.Errorf("find biodata: %w", err)
	}
	return biodata, nil
}

// RequestsForAccount lists the account's ledger entries with their
// biodata records attached.
func (s *Service) RequestsForAccount(ctx context.Context, userEmail string) ([]PopulatedRequest, error) {
	user, err := s.stores.Users().FindByEmail(ctx, userEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	payments, err := s.stores.Payments().ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, payments, false, true), nil
}

// ListRequests lists ledger entries for the admin view, optionally
// populating account and biodata summaries.
func (s *Service) ListRequests(ctx context.Context, opts storage.ListPaymentsOptions, populate bool) ([]PopulatedRequest, int64, error) {
	payments, total, err := s.stores.Payments().List(ctx, opts)
	if err != nil {
		return nil, 0, err
	}
	return s.populate(ctx, payments, populate, populate), total, nil
}

func (s *Service) populate(ctx context.Context, payments []models.Payment, withUser, withBiodata bool) []PopulatedRequest {
	requests := make([]PopulatedRequest, 0, len(payments))
	for _, payment := range payments {
		request := PopulatedRequest{Payment: payment}
		if withUser {
			if user, err := s.stores.Users().FindByID(ctx, payment.UserID); err == nil {
				request.User = &user
			}
		}
		if withBiodata {
			if biodata, err := s.stores.Biodatas().FindByKey(ctx, payment.BiodataID); err == nil {
				request.Biodata = &biodata
			}
		}
		requests = append(requests, request)
	}
	return requests
}

// formatID normalizes account ids to one string representation so set
// membership checks never miss on a type mismatch.
func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// normalizeSet copies a set with every member trimmed, dropping empties
// and duplicates.
func normalizeSet(set []string) []string {
	out := make([]string, 0, len(set))
	for _, member := range set {
		member = strings.TrimSpace(member)
		if member == "" || contains(out, member) {
			continue
		}
		out = append(out, member)
	}
	return out
}

func addMember(set []string, id string) []string {
	if contains(set, id) {
		return set
	}
	return append(set, id)
}

func removeMember(set []string, id string) []string {
	out := set[:0]
	for _, member := range set {
		if member != id {
			out = append(out, member)
		}
	}
	return out
}

func contains(set []string, id string) bool {
	for _, member := range set {
		if member == id {
			return true
		}
	}
	return false
}
