package access

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/soultie/soultie-be/internal/models"
	"github.com/soultie/soultie-be/internal/storage/memory"
)

type recordingNotifier struct {
	events []TransitionEvent
}

func (r *recordingNotifier) GrantTransition(ctx context.Context, event TransitionEvent) {
	r.events = append(r.events, event)
}

func newFixture(t *testing.T) (*Service, *memory.Store, *recordingNotifier) {
	t.Helper()
	store := memory.NewStore()
	notifier := &recordingNotifier{}
	service := NewService(store, notifier)
	return service, store, notifier
}

func seedUser(t *testing.T, store *memory.Store, email, tier string) models.User {
	t.Helper()
	user, err := store.Users().CreateUser(context.Background(), models.User{
		Name:         "Test User",
		Email:        email,
		Type:         tier,
		Role:         models.RoleNormal,
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedBiodata(t *testing.T, store *memory.Store, contactEmail string) models.Biodata {
	t.Helper()
	biodata, _, err := store.Biodatas().Upsert(context.Background(), models.Biodata{
		Name:         "Profile Owner",
		BiodataType:  models.TypeFemale,
		Age:          "27",
		Height:       "1.60",
		Weight:       "55",
		ContactEmail: contactEmail,
	})
	if err != nil {
		t.Fatalf("seed biodata: %v", err)
	}
	return biodata
}

func TestSubmitRecordsPendingRequest(t *testing.T) {
	service, store, _ := newFixture(t)
	ctx := context.Background()
	user := seedUser(t, store, "buyer@example.com", models.TierStandard)
	biodata := seedBiodata(t, store, "owner@example.com")

	payment, err := service.Submit(ctx, user.Email, biodata.BiodataID, "txn_1", 5)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if payment.Status != models.StatusPending {
		t.Fatalf("expected pending status, got %q", payment.Status)
	}

	updated, err := store.Biodatas().FindByKey(ctx, biodata.ID)
	if err != nil {
		t.Fatalf("reload biodata: %v", err)
	}
	if !updated.HasRequestFrom("1") {
		t.Fatalf("expected account in hasRequest, got %v", updated.HasRequest)
	}
	if len(updated.HasAccess) != 0 {
		t.Fatalf("expected empty hasAccess, got %v", updated.HasAccess)
	}
}

func TestSubmitErrors(t *testing.T) {
	service, store, _ := newFixture(t)
	ctx := context.Background()
	user := seedUser(t, store, "buyer@example.com", models.TierStandard)
	biodata := seedBiodata(t, store, "owner@example.com")

	if _, err := service.Submit(ctx, "ghost@example.com", biodata.BiodataID, "txn_1", 5); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := service.Submit(ctx, user.Email, 999, "txn_1", 5); !errors.Is(err, ErrBiodataNotFound) {
		t.Fatalf("expected ErrBiodataNotFound, got %v", err)
	}

	if _, err := service.Submit(ctx, user.Email, biodata.BiodataID, "txn_1", 5); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := service.Submit(ctx, user.Email, biodata.BiodataID, "txn_2", 5); !errors.Is(err, ErrRequestExists) {
		t.Fatalf("expected ErrRequestExists on duplicate, got %v", err)
	}
}

func TestApproveMovesAccountBetweenSets(t *testing.T) {
	service, store, notifier := newFixture(t)
	ctx := context.Background()
	user := seedUser(t, store, "buyer@example.com", models.TierStandard)
	biodata := seedBiodata(t, store, "owner@example.com")

	approvedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service.WithClock(func() time.Time { return approvedAt })

	payment, err := service.Submit(ctx, user.Email, biodata.BiodataID, "txn_1", 5)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	result, err := service.Transition(ctx, payment.ID, models.StatusApproved)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if result.OldStatus != models.StatusPending || result.NewStatus != models.StatusApproved {
		t.Fatalf("unexpected statuses: %+v", result)
	}
	if !result.PaymentModified || !result.BiodataModified {
		t.Fatalf("expected both records modified: %+v", result)
	}

	updated, _ := store.Biodatas().FindByKey(ctx, biodata.ID)
	if !updated.GrantsAccessTo("1") {
		t.Fatalf("expected account in hasAccess, got %v", updated.HasAccess)
	}
	if updated.HasRequestFrom("1") {
		t.Fatalf("account should have left hasRequest, got %v", updated.HasRequest)
	}

	if result.Payment.ApprovedAt == nil || !result.Payment.ApprovedAt.Equal(approvedAt) {
		t.Fatalf("expected approvedAt %v, got %v", approvedAt, result.Payment.ApprovedAt)
	}
	if len(notifier.events) != 1 || notifier.events[0].NewStatus != models.StatusApproved {
		t.Fatalf("expected one approved event, got %+v", notifier.events)
	}
}

func TestTransitionSameStatusIsNoOp(t *testing.T) {
	service, store, notifier := newFixture(t)
	ctx := context.Background()
	user := seedUser(t, store, "buyer@example.com", models.TierStandard)
	biodata := seedBiodata(t, store, "owner@example.com")

	firstApproval := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service.WithClock(func() time.Time { return firstApproval })

	payment, err := service.Submit(ctx, user.Email, biodata.BiodataID, "txn_1", 5)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := service.Transition(ctx, payment.ID, models.StatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	service.WithClock(func() time.Time { return firstApproval.Add(48 * time.Hour) })
	result, err := service.Transition(ctx, payment.ID, models.StatusApproved)
	if err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if !result.NoChange {
		t.Fatal("expected NoChange on idempotent transition")
	}
	if result.PaymentModified || result.BiodataModified {
		t.Fatalf("no-op transition reported modifications: %+v", result)
	}

	reloaded, err := store.Payments().FindByID(ctx, payment.ID)
	if err != nil {
		t.Fatalf("reload payment: %v", err)
	}
	if reloaded.ApprovedAt == nil || !reloaded.ApprovedAt.Equal(firstApproval) {
		t.Fatalf("approvedAt changed on no-op: %v", reloaded.ApprovedAt)
	}
	if len(notifier.events) != 1 {
		t.Fatalf("no-op transition published an event: %+v", notifier.events)
	}
}

func TestFullLifecycleKeepsTimestamps(t *testing.T) {
	service, store, _ := newFixture(t)
	ctx := context.Background()
	user := seedUser(t, store, "buyer@example.com", models.TierStandard)
	biodata := seedBiodata(t, store, "owner@example.com")

	approvedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rejectedAt := approvedAt.Add(72 * time.Hour)

	payment, err := service.Submit(ctx, user.Email, biodata.BiodataID, "txn_1", 5)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	service.WithClock(func() time.Time { return approvedAt })
	if _, err := service.Transition(ctx, payment.ID, models.StatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := service.Transition(ctx, payment.ID, models.StatusPending); err != nil {
		t.Fatalf("back to pending: %v", err)
	}

	// After moving back to pending, access is revoked but the request
	// stands again.
	mid, _ := store.Biodatas().FindByKey(ctx, biodata.ID)
	if mid.GrantsAccessTo("1") {
		t.Fatalf("access should be revoked on pending, got %v", mid.HasAccess)
	}
	if !mid.HasRequestFrom("1") {
		t.Fatalf("request should be restored on pending, got %v", mid.HasRequest)
	}

	service.WithClock(func() time.Time { return rejectedAt })
	if _, err := service.Transition(ctx, payment.ID, models.StatusRejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	final, _ := store.Biodatas().FindByKey(ctx, biodata.ID)
	if final.GrantsAccessTo("1") || final.HasRequestFrom("1") {
		t.Fatalf("rejected account should be in neither set: access=%v request=%v",
			final.HasAccess, final.HasRequest)
	}

	reloaded, err := store.Payments().FindByID(ctx, payment.ID)
	if err != nil {
		t.Fatalf("reload payment: %v", err)
	}
	if reloaded.ApprovedAt == nil || !reloaded.ApprovedAt.Equal(approvedAt) {
		t.Fatalf("approvedAt lost across lifecycle: %v", reloaded.ApprovedAt)
	}
	if reloaded.RejectedAt == nil || !reloaded.RejectedAt.Equal(rejectedAt) {
		t.Fatalf("rejectedAt not recorded: %v", reloaded.RejectedAt)
	}
}

func TestTransitionValidation(t *testing.T) {
	service, store, _ := newFixture(t)
	ctx := context.Background()
	user := seedUser(t, store, "buyer@example.com", models.TierStandard)
	biodata := seedBiodata(t, store, "owner@example.com")
	payment, err := service.Submit(ctx, user.Email, biodata.BiodataID, "txn_1", 5)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, err := service.Transition(ctx, payment.ID, "cancelled"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := service.Transition(ctx, 999, models.StatusApproved); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestCheckAccess(t *testing.T) {
	service, store, _ := newFixture(t)
	ctx := context.Background()
	standard := seedUser(t, store, "standard@example.com", models.TierStandard)
	premium := seedUser(t, store, "premium@example.com", models.TierPremium)
	biodata := seedBiodata(t, store, "owner@example.com")

	// Premium bypasses the workflow without touching the biodata.
	result, err := service.CheckAccess(ctx, premium.Email, biodata.BiodataID)
	if err != nil {
		t.Fatalf("premium check: %v", err)
	}
	if !result.HasAccess || !result.IsPremium || result.AccessType != AccessPremium {
		t.Fatalf("premium account should have full access: %+v", result)
	}

	result, err = service.CheckAccess(ctx, standard.Email, biodata.BiodataID)
	if err != nil {
		t.Fatalf("standard check: %v", err)
	}
	if result.HasAccess || result.AccessType != AccessNone {
		t.Fatalf("standard account should start with no access: %+v", result)
	}

	payment, err := service.Submit(ctx, standard.Email, biodata.BiodataID, "txn_1", 5)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	result, _ = service.CheckAccess(ctx, standard.Email, biodata.BiodataID)
	if !result.HasPendingRequest || result.AccessType != AccessPending {
		t.Fatalf("expected pending access type: %+v", result)
	}

	if _, err := service.Transition(ctx, payment.ID, models.StatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	result, _ = service.CheckAccess(ctx, standard.Email, biodata.BiodataID)
	if !result.HasAccess || result.AccessType != AccessPaid {
		t.Fatalf("expected paid access type: %+v", result)
	}
}

func TestRemoveStripsMatchingSet(t *testing.T) {
	service, store, _ := newFixture(t)
	ctx := context.Background()
	user := seedUser(t, store, "buyer@example.com", models.TierStandard)
	biodata := seedBiodata(t, store, "owner@example.com")

	payment, err := service.Submit(ctx, user.Email, biodata.BiodataID, "txn_1", 5)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := service.Transition(ctx, payment.ID, models.StatusApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if err := service.Remove(ctx, payment.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	updated, _ := store.Biodatas().FindByKey(ctx, biodata.ID)
	if updated.GrantsAccessTo("1") || updated.HasRequestFrom("1") {
		t.Fatalf("removed account lingers in sets: access=%v request=%v",
			updated.HasAccess, updated.HasRequest)
	}
	if _, err := store.Payments().FindByID(ctx, payment.ID); err == nil {
		t.Fatal("payment should be deleted")
	}

	// The pair can resubmit once the old entry is gone.
	if _, err := service.Submit(ctx, user.Email, biodata.BiodataID, "txn_2", 5); err != nil {
		t.Fatalf("resubmit after removal: %v", err)
	}

	if err := service.Remove(ctx, 999); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
}

func TestStatusPoll(t *testing.T) {
	service, store, _ := newFixture(t)
	ctx := context.Background()
	user := seedUser(t, store, "buyer@example.com", models.TierStandard)
	biodata := seedBiodata(t, store, "owner@example.com")

	// Missing user, biodata, or payment all answer "no payment".
	payment, err := service.Status(ctx, "ghost@example.com", biodata.BiodataID)
	if err != nil || payment != nil {
		t.Fatalf("expected nil payment for unknown user, got %v, %v", payment, err)
	}
	payment, err = service.Status(ctx, user.Email, biodata.BiodataID)
	if err != nil || payment != nil {
		t.Fatalf("expected nil payment before submit, got %v, %v", payment, err)
	}

	submitted, err := service.Submit(ctx, user.Email, biodata.BiodataID, "txn_1", 5)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	payment, err = service.Status(ctx, user.Email, biodata.BiodataID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if payment == nil || payment.ID != submitted.ID || payment.Status != models.StatusPending {
		t.Fatalf("unexpected status payment: %+v", payment)
	}
}
