// Package memory provides an in-memory storage bundle used by unit
// tests and local development. It mirrors the Postgres store's
// behavior for everything the services rely on: sentinel errors,
// uniqueness rules, sequence-id assignment, and set replacement.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/soultie/soultie-be/internal/models"
	"github.com/soultie/soultie-be/internal/storage"
)

var _ storage.Stores = (*Store)(nil)

// Store holds all records behind one mutex.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users      map[int64]models.User
	biodatas   map[int64]models.Biodata
	payments   map[int64]models.Payment
	stories    map[int64]models.SuccessStory
	favourites map[int64]models.Favourite

	nextUserID      int64
	nextBiodataKey  int64
	nextSequenceID  int64
	nextPaymentID   int64
	nextStoryID     int64
	nextFavouriteID int64

	nowFn func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		users:      make(map[int64]models.User),
		biodatas:   make(map[int64]models.Biodata),
		payments:   make(map[int64]models.Payment),
		stories:    make(map[int64]models.SuccessStory),
		favourites: make(map[int64]models.Favourite),
		nowFn:      time.Now,
	}
}

// WithClock overrides the time source (used in tests).
func (s *Store) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

func (s *Store) Users() storage.UserStore           { return (*userStore)(s) }
func (s *Store) Biodatas() storage.BiodataStore     { return (*biodataStore)(s) }
func (s *Store) Payments() storage.PaymentStore     { return (*paymentStore)(s) }
func (s *Store) Stories() storage.StoryStore        { return (*storyStore)(s) }
func (s *Store) Favourites() storage.FavouriteStore { return (*favouriteStore)(s) }

// InTx serializes fn against other transactions. The memory store has
// no rollback; fn's writes land as they happen.
func (s *Store) InTx(ctx context.Context, fn func(storage.Stores) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s)
}

type userStore Store
type biodataStore Store
type paymentStore Store
type storyStore Store
type favouriteStore Store

// --- users ---

func (s *userStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	s.nextUserID++
	user.ID = s.nextUserID
	user.CreatedAt = s.nowFn()
	s.users[user.ID] = user
	return user, nil
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *userStore) FindByID(ctx context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *userStore) ListUsers(ctx context.Context, opts storage.ListUsersOptions) ([]models.User, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	term := strings.ToLower(strings.TrimSpace(opts.Search))
	var matched []models.User
	for _, user := range s.users {
		if term == "" || strings.Contains(strings.ToLower(user.Name), term) ||
			strings.Contains(strings.ToLower(user.Email), term) {
			matched = append(matched, user)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	total := int64(len(matched))
	return paginate(matched, opts.Offset, opts.Limit, 8), total, nil
}

func (s *userStore) UpdateRole(ctx context.Context, id int64, role string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok || user.Role == role {
		return false, nil
	}
	user.Role = role
	s.users[id] = user
	return true, nil
}

func (s *userStore) UpdateType(ctx context.Context, id int64, tier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok || user.Type == tier {
		return false, nil
	}
	user.Type = tier
	s.users[id] = user
	return true, nil
}

func (s *userStore) UpdateTypeByEmail(ctx context.Context, email, tier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, user := range s.users {
		if strings.EqualFold(user.Email, email) {
			if user.Type == tier {
				return false, nil
			}
			user.Type = tier
			s.users[id] = user
			return true, nil
		}
	}
	return false, nil
}

func (s *userStore) CountUsers(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.users)), nil
}

func (s *userStore) CountUsersByType(ctx context.Context, tier string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, user := range s.users {
		if user.Type == tier {
			total++
		}
	}
	return total, nil
}

// --- biodatas ---

func (s *biodataStore) Upsert(ctx context.Context, biodata models.Biodata) (models.Biodata, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.nowFn()
	for key, existing := range s.biodatas {
		if strings.EqualFold(existing.ContactEmail, biodata.ContactEmail) {
			biodata.ID = existing.ID
			biodata.BiodataID = existing.BiodataID
			biodata.PremiumStatus = existing.PremiumStatus
			biodata.HasAccess = existing.HasAccess
			biodata.HasRequest = existing.HasRequest
			biodata.CreatedAt = existing.CreatedAt
			biodata.UpdatedAt = now
			s.biodatas[key] = biodata
			return biodata, false, nil
		}
	}
	s.nextBiodataKey++
	s.nextSequenceID++
	biodata.ID = s.nextBiodataKey
	biodata.BiodataID = s.nextSequenceID
	if biodata.PremiumStatus == "" {
		biodata.PremiumStatus = models.PremiumNormal
	}
	if biodata.HasAccess == nil {
		biodata.HasAccess = []string{}
	}
	if biodata.HasRequest == nil {
		biodata.HasRequest = []string{}
	}
	biodata.CreatedAt = now
	biodata.UpdatedAt = now
	s.biodatas[biodata.ID] = biodata
	return biodata, true, nil
}

func (s *biodataStore) FindByKey(ctx context.Context, id int64) (models.Biodata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	biodata, ok := s.biodatas[id]
	if !ok {
		return models.Biodata{}, storage.ErrNotFound
	}
	return biodata, nil
}

func (s *biodataStore) FindBySequenceID(ctx context.Context, biodataID int64) (models.Biodata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, biodata := range s.biodatas {
		if biodata.BiodataID == biodataID {
			return biodata, nil
		}
	}
	return models.Biodata{}, storage.ErrNotFound
}

func (s *biodataStore) FindByContactEmail(ctx context.Context, email string) (models.Biodata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, biodata := range s.biodatas {
		if strings.EqualFold(biodata.ContactEmail, email) {
			return biodata, nil
		}
	}
	return models.Biodata{}, storage.ErrNotFound
}

func (s *biodataStore) List(ctx context.Context, opts storage.ListBiodatasOptions) ([]models.Biodata, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Biodata
	for _, biodata := range s.biodatas {
		if opts.BiodataType != "" && !strings.EqualFold(biodata.BiodataType, opts.BiodataType) {
			continue
		}
		if opts.Division != "" && biodata.PermanentDivision != opts.Division {
			continue
		}
		if opts.Race != "" && !strings.Contains(strings.ToLower(biodata.Race), strings.ToLower(opts.Race)) {
			continue
		}
		if opts.Occupation != "" && !strings.Contains(strings.ToLower(biodata.Occupation), strings.ToLower(opts.Occupation)) {
			continue
		}
		if opts.PremiumStatus != "" && !strings.EqualFold(biodata.PremiumStatus, opts.PremiumStatus) {
			continue
		}
		if !ageWithin(biodata.Age, opts.MinAge, opts.MaxAge) {
			continue
		}
		matched = append(matched, biodata)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].BiodataID > matched[j].BiodataID })
	total := int64(len(matched))
	limit := opts.Limit
	if limit > 50 {
		limit = 50
	}
	return paginate(matched, opts.Offset, limit, 8), total, nil
}

func (s *biodataStore) ListByType(ctx context.Context, biodataType string) ([]models.Biodata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Biodata
	for _, biodata := range s.biodatas {
		if biodata.BiodataType == biodataType {
			matched = append(matched, biodata)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].BiodataID < matched[j].BiodataID })
	return matched, nil
}

func (s *biodataStore) ListPremiumOwned(ctx context.Context, sortField, sortOrder string) ([]models.Biodata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	premium := make(map[string]bool)
	for _, user := range s.users {
		if user.IsPremium() {
			premium[strings.ToLower(user.Email)] = true
		}
	}
	var matched []models.Biodata
	for _, biodata := range s.biodatas {
		if premium[strings.ToLower(biodata.ContactEmail)] {
			matched = append(matched, biodata)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].BiodataID > matched[j].BiodataID })
	return matched, nil
}

func (s *biodataStore) ReplaceAccessSets(ctx context.Context, key int64, hasRequest, hasAccess []string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	biodata, ok := s.biodatas[key]
	if !ok {
		return false, nil
	}
	biodata.HasRequest = append([]string(nil), hasRequest...)
	biodata.HasAccess = append([]string(nil), hasAccess...)
	biodata.UpdatedAt = s.nowFn()
	s.biodatas[key] = biodata
	return true, nil
}

func (s *biodataStore) UpdatePremiumStatus(ctx context.Context, key int64, status string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	biodata, ok := s.biodatas[key]
	if !ok {
		return false, nil
	}
	biodata.PremiumStatus = status
	biodata.UpdatedAt = s.nowFn()
	s.biodatas[key] = biodata
	return true, nil
}

func (s *biodataStore) FilterValues(ctx context.Context) ([]string, []string, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	divisions := map[string]bool{}
	races := map[string]bool{}
	occupations := map[string]bool{}
	for _, biodata := range s.biodatas {
		if biodata.PermanentDivision != "" {
			divisions[biodata.PermanentDivision] = true
		}
		if biodata.Race != "" {
			races[biodata.Race] = true
		}
		if biodata.Occupation != "" {
			occupations[biodata.Occupation] = true
		}
	}
	return sortedKeys(divisions), sortedKeys(races), sortedKeys(occupations), nil
}

func (s *biodataStore) CountBiodatas(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.biodatas)), nil
}

func (s *biodataStore) CountBiodatasByType(ctx context.Context, biodataType string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, biodata := range s.biodatas {
		if biodata.BiodataType == biodataType {
			total++
		}
	}
	return total, nil
}

// --- payments ---

func (s *paymentStore) Insert(ctx context.Context, payment models.Payment) (models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.payments {
		if existing.UserID == payment.UserID && existing.BiodataID == payment.BiodataID {
			return models.Payment{}, storage.ErrAlreadyExists
		}
	}
	s.nextPaymentID++
	payment.ID = s.nextPaymentID
	now := s.nowFn()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	s.payments[payment.ID] = payment
	return payment, nil
}

func (s *paymentStore) FindByID(ctx context.Context, id int64) (models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[id]
	if !ok {
		return models.Payment{}, storage.ErrNotFound
	}
	return payment, nil
}

func (s *paymentStore) FindByUserAndBiodata(ctx context.Context, userID, biodataID int64) (models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, payment := range s.payments {
		if payment.UserID == userID && payment.BiodataID == biodataID {
			return payment, nil
		}
	}
	return models.Payment{}, storage.ErrNotFound
}

func (s *paymentStore) ListByUser(ctx context.Context, userID int64) ([]models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Payment
	for _, payment := range s.payments {
		if payment.UserID == userID {
			matched = append(matched, payment)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	return matched, nil
}

func (s *paymentStore) List(ctx context.Context, opts storage.ListPaymentsOptions) ([]models.Payment, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Payment
	for _, payment := range s.payments {
		if opts.Status != "" && opts.Status != "all" && payment.Status != opts.Status {
			continue
		}
		matched = append(matched, payment)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	total := int64(len(matched))
	return paginate(matched, opts.Offset, opts.Limit, 10), total, nil
}

func (s *paymentStore) UpdateStatus(ctx context.Context, id int64, status string, approvedAt, rejectedAt *time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payment, ok := s.payments[id]
	if !ok {
		return false, nil
	}
	payment.Status = status
	payment.UpdatedAt = s.nowFn()
	if approvedAt != nil {
		payment.ApprovedAt = approvedAt
	}
	if rejectedAt != nil {
		payment.RejectedAt = rejectedAt
	}
	s.payments[id] = payment
	return true, nil
}

func (s *paymentStore) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[id]; !ok {
		return false, nil
	}
	delete(s.payments, id)
	return true, nil
}

func (s *paymentStore) TotalRevenue(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var revenue float64
	for _, payment := range s.payments {
		revenue += payment.Amount
	}
	return revenue, nil
}

// --- stories ---

func (s *storyStore) Insert(ctx context.Context, story models.SuccessStory) (models.SuccessStory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextStoryID++
	story.ID = s.nextStoryID
	if story.CreatedAt.IsZero() {
		story.CreatedAt = s.nowFn()
	}
	s.stories[story.ID] = story
	return story, nil
}

func (s *storyStore) FindPairing(ctx context.Context, self, partner string) (models.SuccessStory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, story := range s.stories {
		if (story.SelfBiodata == self && story.PartnerBiodata == partner) ||
			(story.SelfBiodata == partner && story.PartnerBiodata == self) {
			return story, nil
		}
	}
	return models.SuccessStory{}, storage.ErrNotFound
}

func (s *storyStore) FindInvolving(ctx context.Context, biodata string) (models.SuccessStory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, story := range s.stories {
		if story.SelfBiodata == biodata || story.PartnerBiodata == biodata {
			return story, nil
		}
	}
	return models.SuccessStory{}, storage.ErrNotFound
}

func (s *storyStore) List(ctx context.Context, opts storage.ListStoriesOptions) ([]models.SuccessStory, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	term := strings.ToLower(strings.TrimSpace(opts.Search))
	var matched []models.SuccessStory
	for _, story := range s.stories {
		if term == "" || strings.Contains(strings.ToLower(story.ShortStory), term) ||
			strings.Contains(strings.ToLower(story.SelfBiodata), term) ||
			strings.Contains(strings.ToLower(story.PartnerBiodata), term) {
			matched = append(matched, story)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	total := int64(len(matched))
	if opts.Limit < 0 {
		return matched, total, nil
	}
	return paginate(matched, opts.Offset, opts.Limit, 6), total, nil
}

func (s *storyStore) CountStories(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.stories)), nil
}

// --- favourites ---

func (s *favouriteStore) Insert(ctx context.Context, favourite models.Favourite) (models.Favourite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.favourites {
		if strings.EqualFold(existing.UserEmail, favourite.UserEmail) && existing.BiodataID == favourite.BiodataID {
			return models.Favourite{}, storage.ErrAlreadyExists
		}
	}
	s.nextFavouriteID++
	favourite.ID = s.nextFavouriteID
	favourite.CreatedAt = s.nowFn()
	s.favourites[favourite.ID] = favourite
	return favourite, nil
}

func (s *favouriteStore) ListByEmail(ctx context.Context, email string) ([]models.Favourite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []models.Favourite
	for _, favourite := range s.favourites {
		if strings.EqualFold(favourite.UserEmail, email) {
			matched = append(matched, favourite)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	return matched, nil
}

func (s *favouriteStore) DeleteByBiodataID(ctx context.Context, biodataID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := false
	for id, favourite := range s.favourites {
		if favourite.BiodataID == biodataID {
			delete(s.favourites, id)
			deleted = true
		}
	}
	return deleted, nil
}

// --- helpers ---

func paginate[T any](items []T, offset, limit, defaultLimit int) []T {
	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func ageWithin(age, minAge, maxAge string) bool {
	if minAge == "" && maxAge == "" {
		return true
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(age), 64)
	if err != nil {
		return false
	}
	if minAge != "" {
		if min, err := strconv.ParseFloat(minAge, 64); err == nil && parsed < min {
			return false
		}
	}
	if maxAge != "" {
		if max, err := strconv.ParseFloat(maxAge, 64); err == nil && parsed > max {
			return false
		}
	}
	return true
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
