package storage

import (
	"context"
	"errors"
	"time"

	"github.com/soultie/soultie-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ListUsersOptions defines search and pagination for account listing.
type ListUsersOptions struct {
	Offset int
	Limit  int
	Search string
}

// ListBiodatasOptions defines filters, sorting, and pagination for
// biodata listing.
type ListBiodatasOptions struct {
	Offset        int
	Limit         int
	BiodataType   string
	MinAge        string
	MaxAge        string
	Division      string
	Race          string
	Occupation    string
	PremiumStatus string
	SortField     string
	SortOrder     string
}

// ListPaymentsOptions defines filters and pagination for the admin
// payment listing.
type ListPaymentsOptions struct {
	Offset int
	Limit  int
	Status string
}

// ListStoriesOptions defines search, sorting, and pagination for
// success-story listing. Limit -1 returns everything.
type ListStoriesOptions struct {
	Offset    int
	Limit     int
	Search    string
	SortField string
	SortOrder string
}

// UserStore captures persistence operations on accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	ListUsers(ctx context.Context, opts ListUsersOptions) ([]models.User, int64, error)
	UpdateRole(ctx context.Context, id int64, role string) (bool, error)
	UpdateType(ctx context.Context, id int64, tier string) (bool, error)
	UpdateTypeByEmail(ctx context.Context, email, tier string) (bool, error)
	CountUsers(ctx context.Context) (int64, error)
	CountUsersByType(ctx context.Context, tier string) (int64, error)
}

// BiodataStore captures persistence operations on biodata profiles.
type BiodataStore interface {
	// Upsert creates or updates the biodata keyed by contact email and
	// reports whether a new record was created. The sequence id and
	// createdAt of an existing record are never changed.
	Upsert(ctx context.Context, biodata models.Biodata) (models.Biodata, bool, error)
	FindByKey(ctx context.Context, id int64) (models.Biodata, error)
	FindBySequenceID(ctx context.Context, biodataID int64) (models.Biodata, error)
	FindByContactEmail(ctx context.Context, email string) (models.Biodata, error)
	List(ctx context.Context, opts ListBiodatasOptions) ([]models.Biodata, int64, error)
	// ListByType returns every biodata of the given type; the
	// similarity matcher scans these as candidates.
	ListByType(ctx context.Context, biodataType string) ([]models.Biodata, error)
	// ListPremiumOwned returns biodatas whose owning account holds the
	// premium tier.
	ListPremiumOwned(ctx context.Context, sortField, sortOrder string) ([]models.Biodata, error)
	// ReplaceAccessSets overwrites both membership sets in one write.
	ReplaceAccessSets(ctx context.Context, key int64, hasRequest, hasAccess []string) (bool, error)
	UpdatePremiumStatus(ctx context.Context, key int64, status string) (bool, error)
	FilterValues(ctx context.Context) (divisions, races, occupations []string, err error)
	CountBiodatas(ctx context.Context) (int64, error)
	CountBiodatasByType(ctx context.Context, biodataType string) (int64, error)
}

// PaymentStore captures persistence operations on access-request
// ledger entries.
type PaymentStore interface {
	Insert(ctx context.Context, payment models.Payment) (models.Payment, error)
	FindByID(ctx context.Context, id int64) (models.Payment, error)
	FindByUserAndBiodata(ctx context.Context, userID, biodataID int64) (models.Payment, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Payment, error)
	List(ctx context.Context, opts ListPaymentsOptions) ([]models.Payment, int64, error)
	// UpdateStatus sets the status and updatedAt, plus approvedAt or
	// rejectedAt when non-nil, and reports whether a row changed.
	UpdateStatus(ctx context.Context, id int64, status string, approvedAt, rejectedAt *time.Time) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	TotalRevenue(ctx context.Context) (float64, error)
}

// StoryStore captures persistence operations on success stories.
type StoryStore interface {
	Insert(ctx context.Context, story models.SuccessStory) (models.SuccessStory, error)
	// FindPairing matches the (self, partner) combination in either order.
	FindPairing(ctx context.Context, self, partner string) (models.SuccessStory, error)
	// FindInvolving matches any story containing the biodata in either role.
	FindInvolving(ctx context.Context, biodata string) (models.SuccessStory, error)
	List(ctx context.Context, opts ListStoriesOptions) ([]models.SuccessStory, int64, error)
	CountStories(ctx context.Context) (int64, error)
}

// FavouriteStore captures persistence operations on bookmarks.
type FavouriteStore interface {
	Insert(ctx context.Context, favourite models.Favourite) (models.Favourite, error)
	ListByEmail(ctx context.Context, email string) ([]models.Favourite, error)
	DeleteByBiodataID(ctx context.Context, biodataID int64) (bool, error)
}

// Stores bundles the record stores behind one handle. InTx runs fn
// against stores scoped to a single storage transaction where the
// backend supports one; the grant workflow uses it so its paired
// request/profile writes commit together.
type Stores interface {
	Users() UserStore
	Biodatas() BiodataStore
	Payments() PaymentStore
	Stories() StoryStore
	Favourites() FavouriteStore
	InTx(ctx context.Context, fn func(Stores) error) error
}
