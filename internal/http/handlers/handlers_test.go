package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/soultie/soultie-be/internal/access"
	"github.com/soultie/soultie-be/internal/auth"
	"github.com/soultie/soultie-be/internal/match"
	"github.com/soultie/soultie-be/internal/models"
	"github.com/soultie/soultie-be/internal/payments"
	"github.com/soultie/soultie-be/internal/storage/memory"
)

type stubGateway struct {
	lastAmount int64
	err        error
}

func (g *stubGateway) CreateIntent(ctx context.Context, amountCents int64) (payments.Intent, error) {
	g.lastAmount = amountCents
	if g.err != nil {
		return payments.Intent{}, g.err
	}
	return payments.Intent{ClientSecret: "pi_test_secret"}, nil
}

type testEnv struct {
	mux     *http.ServeMux
	store   *memory.Store
	gateway *stubGateway
	tokens  *auth.TokenManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenManager("test-secret", "soultie-test", time.Hour)
	gateway := &stubGateway{}
	grants := access.NewService(store, nil)
	matcher := match.NewService(store.Biodatas())

	mux := http.NewServeMux()
	NewHealthHandler(time.Now()).Register(mux)
	NewAuthHandler(store.Users(), tokens, logger).Register(mux)
	NewUserHandler(store.Users(), logger).Register(mux)
	NewBiodataHandler(store.Biodatas(), matcher, logger).Register(mux)
	NewPaymentHandler(gateway, grants, logger).Register(mux)
	NewStoryHandler(store.Stories(), logger).Register(mux)
	NewFavouriteHandler(store.Favourites(), logger).Register(mux)
	NewStatsHandler(store, logger).Register(mux)

	return &testEnv{mux: mux, store: store, gateway: gateway, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func (e *testEnv) seedUser(t *testing.T, email, tier string) models.User {
	t.Helper()
	user, err := e.store.Users().CreateUser(context.Background(), models.User{
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

func (e *testEnv) seedBiodata(t *testing.T, contactEmail string) models.Biodata {
	t.Helper()
	biodata, _, err := e.store.Biodatas().Upsert(context.Background(), models.Biodata{
		Name:         "Profile Owner",
		BiodataType:  models.TypeFemale,
		Age:          "27",
		Height:       "1.60",
		Weight:       "55",
		ContactEmail: contactEmail,
		MobileNumber: "+8801700000000",
	})
	if err != nil {
		t.Fatalf("seed biodata: %v", err)
	}
	return biodata
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/register", map[string]string{
		"name":     "Amina",
		"email":    "amina@example.com",
		"password": "supersecret1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Short passwords are rejected before touching the store.
	rec = env.do(t, http.MethodPost, "/register", map[string]string{
		"name":     "Short",
		"email":    "short@example.com",
		"password": "short",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("short password: expected 400, got %d", rec.Code)
	}

	// Duplicate email conflicts.
	rec = env.do(t, http.MethodPost, "/register", map[string]string{
		"name":     "Amina Again",
		"email":    "amina@example.com",
		"password": "supersecret1",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate: expected 409, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/login", map[string]string{
		"email":    "amina@example.com",
		"password": "supersecret1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var login struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decodeBody(t, rec, &login)
	if login.Token == "" {
		t.Fatal("login response missing token")
	}
	if login.User.Email != "amina@example.com" {
		t.Fatalf("login returned wrong user: %+v", login.User)
	}

	rec = env.do(t, http.MethodPost, "/login", map[string]string{
		"email":    "amina@example.com",
		"password": "wrongpassword",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", rec.Code)
	}
}

func TestAdminCheckRequiresMatchingToken(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "admin@example.com", models.TierStandard)
	if _, err := env.store.Users().UpdateRole(context.Background(), user.ID, models.RoleAdmin); err != nil {
		t.Fatalf("promote user: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/users/admin/admin@example.com", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}

	token, err := env.tokens.Generate(user)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/users/admin/admin@example.com", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload map[string]bool
	decodeBody(t, rec, &payload)
	if !payload["admin"] {
		t.Fatalf("expected admin=true, got %v", payload)
	}

	// Token for a different account is rejected.
	other := env.seedUser(t, "other@example.com", models.TierStandard)
	otherToken, _ := env.tokens.Generate(other)
	req = httptest.NewRequest(http.MethodGet, "/users/admin/admin@example.com", nil)
	req.Header.Set("Authorization", "Bearer "+otherToken)
	rec = httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("mismatched token: expected 403, got %d", rec.Code)
	}
}

func TestBiodataUpsertAssignsSequenceOnce(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]string{
		"name":         "Rahim",
		"biodataType":  "male",
		"age":          "30",
		"height":       "1.75",
		"weight":       "70",
		"contactEmail": "rahim@example.com",
	}
	rec := env.do(t, http.MethodPut, "/biodatas", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("create: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		BiodataID int64 `json:"biodataId"`
		IsNew     bool  `json:"isNew"`
	}
	decodeBody(t, rec, &created)
	if !created.IsNew || created.BiodataID == 0 {
		t.Fatalf("unexpected create response: %+v", created)
	}

	body["age"] = "31"
	rec = env.do(t, http.MethodPut, "/biodatas", body)
	var updated struct {
		BiodataID int64 `json:"biodataId"`
		IsNew     bool  `json:"isNew"`
	}
	decodeBody(t, rec, &updated)
	if updated.IsNew {
		t.Fatal("second upsert should not report a new record")
	}
	if updated.BiodataID != created.BiodataID {
		t.Fatalf("sequence id changed on update: %d != %d", updated.BiodataID, created.BiodataID)
	}

	rec = env.do(t, http.MethodPut, "/biodatas", map[string]string{
		"name":         "No Type",
		"contactEmail": "notype@example.com",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing type: expected 400, got %d", rec.Code)
	}
}

func TestPaymentWorkflowOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "buyer@example.com", models.TierStandard)
	biodata := env.seedBiodata(t, "owner@example.com")

	rec := env.do(t, http.MethodPost, "/create-payment-intent", map[string]float64{"price": 5})
	if rec.Code != http.StatusOK {
		t.Fatalf("intent: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if env.gateway.lastAmount != 500 {
		t.Fatalf("expected 500 cents, got %d", env.gateway.lastAmount)
	}

	submit := map[string]any{
		"userEmail":     "buyer@example.com",
		"biodataId":     biodata.BiodataID,
		"transactionId": "pi_123",
		"amount":        5,
	}
	rec = env.do(t, http.MethodPost, "/payment", submit)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var submitted struct {
		InsertedID int64 `json:"insertedId"`
	}
	decodeBody(t, rec, &submitted)

	rec = env.do(t, http.MethodPost, "/payment", submit)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate submit: expected 400, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/check-biodata-access?userEmail=buyer@example.com&biodataId=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("check access: expected 200, got %d", rec.Code)
	}
	var check struct {
		HasAccess         bool   `json:"hasAccess"`
		HasPendingRequest bool   `json:"hasPendingRequest"`
		AccessType        string `json:"accessType"`
	}
	decodeBody(t, rec, &check)
	if check.HasAccess || !check.HasPendingRequest || check.AccessType != "pending" {
		t.Fatalf("unexpected access state: %+v", check)
	}

	rec = env.do(t, http.MethodPut, "/payment/update-status", map[string]any{
		"paymentId": submitted.InsertedID,
		"newStatus": "approved",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var statusUpdate struct {
		Data struct {
			OldStatus       string `json:"oldStatus"`
			NewStatus       string `json:"newStatus"`
			PaymentModified bool   `json:"paymentModified"`
			ArraysUpdated   struct {
				HasAccess []string `json:"hasAccess"`
			} `json:"arraysUpdated"`
		} `json:"data"`
	}
	decodeBody(t, rec, &statusUpdate)
	if statusUpdate.Data.OldStatus != "pending" || statusUpdate.Data.NewStatus != "approved" {
		t.Fatalf("unexpected transition: %+v", statusUpdate.Data)
	}
	if len(statusUpdate.Data.ArraysUpdated.HasAccess) != 1 {
		t.Fatalf("expected one account in hasAccess, got %v", statusUpdate.Data.ArraysUpdated.HasAccess)
	}

	rec = env.do(t, http.MethodGet, "/payments/status?userEmail=buyer@example.com&biodataId=1", nil)
	var status struct {
		IsApproved bool            `json:"isApproved"`
		Payment    *models.Payment `json:"payment"`
	}
	decodeBody(t, rec, &status)
	if !status.IsApproved || status.Payment == nil {
		t.Fatalf("unexpected status: %+v", status)
	}

	rec = env.do(t, http.MethodGet, "/payment/buyer@example.com", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("my requests: expected 200, got %d", rec.Code)
	}
	var mine struct {
		Data []struct {
			Status  string `json:"status"`
			Biodata *struct {
				ContactEmail string `json:"contactEmail"`
			} `json:"biodata"`
		} `json:"data"`
	}
	decodeBody(t, rec, &mine)
	if len(mine.Data) != 1 || mine.Data[0].Biodata == nil {
		t.Fatalf("expected one populated request, got %+v", mine.Data)
	}
	if mine.Data[0].Biodata.ContactEmail != "owner@example.com" {
		t.Fatalf("biodata not populated with contact email: %+v", mine.Data[0].Biodata)
	}

	rec = env.do(t, http.MethodDelete, "/payment-delete/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodGet, "/payments/status?userEmail=buyer@example.com&biodataId=1", nil)
	decodeBody(t, rec, &status)
	if status.Payment != nil {
		t.Fatalf("payment should be gone after delete, got %+v", status.Payment)
	}
}

func TestCheckAccessValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedBiodata(t, "owner@example.com")

	rec := env.do(t, http.MethodGet, "/check-biodata-access?biodataId=1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing email: expected 400, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodGet, "/check-biodata-access?userEmail=ghost@example.com&biodataId=1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown user: expected 404, got %d", rec.Code)
	}
}

func TestSimilarBiodatasEndpoint(t *testing.T) {
	env := newTestEnv(t)
	reference := env.seedBiodata(t, "ref@example.com")
	env.seedBiodata(t, "match@example.com")

	rec := env.do(t, http.MethodGet, "/biodatas/1/similar", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("similar: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var payload struct {
		Count    int `json:"count"`
		Criteria struct {
			BiodataType string `json:"biodataType"`
		} `json:"criteria"`
	}
	decodeBody(t, rec, &payload)
	if payload.Count != 1 {
		t.Fatalf("expected one similar biodata, got %d", payload.Count)
	}
	if payload.Criteria.BiodataType != reference.BiodataType {
		t.Fatalf("unexpected criteria: %+v", payload.Criteria)
	}

	rec = env.do(t, http.MethodGet, "/biodatas/999/similar", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing reference: expected 404, got %d", rec.Code)
	}
}

func TestSuccessStoryConflicts(t *testing.T) {
	env := newTestEnv(t)

	first := map[string]any{"selfBiodata": "1", "partnerBiodata": "2", "shortStory": "we met"}
	rec := env.do(t, http.MethodPost, "/success", first)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create story: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Same pairing reversed still conflicts.
	rec = env.do(t, http.MethodPost, "/success", map[string]any{"selfBiodata": "2", "partnerBiodata": "1"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("reversed pairing: expected 409, got %d", rec.Code)
	}

	// Either biodata appearing in any story conflicts.
	rec = env.do(t, http.MethodPost, "/success", map[string]any{"selfBiodata": "1", "partnerBiodata": "3"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("reused biodata: expected 409, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/success", map[string]any{"selfBiodata": "4"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing partner: expected 400, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/success?limit=-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list stories: expected 200, got %d", rec.Code)
	}
	var list struct {
		Data       []models.SuccessStory `json:"data"`
		Pagination struct {
			TotalPages int `json:"totalPages"`
		} `json:"pagination"`
	}
	decodeBody(t, rec, &list)
	if len(list.Data) != 1 || list.Pagination.TotalPages != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestFavourites(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{"userEmail": "amina@example.com", "biodataId": 7, "name": "Rahim"}
	rec := env.do(t, http.MethodPost, "/favourites", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add favourite: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodPost, "/favourites", body)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate favourite: expected 409, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/favourites/amina@example.com", nil)
	var favourites []models.Favourite
	decodeBody(t, rec, &favourites)
	if len(favourites) != 1 || favourites[0].BiodataID != 7 {
		t.Fatalf("unexpected favourites: %+v", favourites)
	}

	rec = env.do(t, http.MethodDelete, "/favourites/7", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete favourite: expected 200, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, "/favourites/7", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("delete missing favourite: expected 404, got %d", rec.Code)
	}
}

func TestStatsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "premium@example.com", models.TierPremium)
	env.seedBiodata(t, "owner@example.com")

	rec := env.do(t, http.MethodGet, "/progress-info", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("progress-info: expected 200, got %d", rec.Code)
	}
	var progress struct {
		Data struct {
			Biodata     int64 `json:"biodata"`
			FemaleData  int64 `json:"femaleData"`
			PremiumData int64 `json:"premiumData"`
			UserData    int64 `json:"userData"`
		} `json:"data"`
	}
	decodeBody(t, rec, &progress)
	if progress.Data.Biodata != 1 || progress.Data.FemaleData != 1 {
		t.Fatalf("unexpected biodata counts: %+v", progress.Data)
	}
	if progress.Data.PremiumData != 1 || progress.Data.UserData != 1 {
		t.Fatalf("unexpected account counts: %+v", progress.Data)
	}

	rec = env.do(t, http.MethodGet, "/admin-info", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin-info: expected 200, got %d", rec.Code)
	}
	var admin struct {
		Data struct {
			Revenue float64 `json:"revenue"`
		} `json:"data"`
	}
	decodeBody(t, rec, &admin)
	if admin.Data.Revenue != 0 {
		t.Fatalf("expected zero revenue, got %v", admin.Data.Revenue)
	}
}
