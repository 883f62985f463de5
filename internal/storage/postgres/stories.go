package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/soultie/soultie-be/internal/models"
	"github.com/soultie/soultie-be/internal/storage"
)

var _ storage.StoryStore = (*storyStore)(nil)

// storyStore provides Postgres-backed persistence for success stories.
type storyStore struct {
	db querier
}

const storyColumns = `id, self_biodata, partner_biodata, couple_image, marriage_date, rating, short_story, created_at`

// Insert creates a success story.
func (s *storyStore) Insert(ctx context.Context, story models.SuccessStory) (models.SuccessStory, error) {
	const query = `
	INSERT INTO success_stories (self_biodata, partner_biodata, couple_image, marriage_date, rating, short_story)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING ` + storyColumns + `;`
	row := s.db.QueryRow(ctx, query, story.SelfBiodata, story.PartnerBiodata,
		story.CoupleImage, story.MarriageDate, story.Rating, story.ShortStory)
	created, err := scanStory(row)
	if err != nil {
		return models.SuccessStory{}, fmt.Errorf("insert story: %w", err)
	}
	return created, nil
}

// FindPairing fetches the story matching the couple in either order.
func (s *storyStore) FindPairing(ctx context.Context, self, partner string) (models.SuccessStory, error) {
	const query = `
	SELECT ` + storyColumns + ` FROM success_stories
	WHERE (self_biodata = $1 AND partner_biodata = $2)
	   OR (self_biodata = $2 AND partner_biodata = $1)
	LIMIT 1;`
	return scanStory(s.db.QueryRow(ctx, query, self, partner))
}

// FindInvolving fetches any story containing the biodata in either role.
func (s *storyStore) FindInvolving(ctx context.Context, biodata string) (models.SuccessStory, error) {
	const query = `
	SELECT ` + storyColumns + ` FROM success_stories
	WHERE self_biodata = $1 OR partner_biodata = $1
	LIMIT 1;`
	return scanStory(s.db.QueryRow(ctx, query, biodata))
}

// List returns success stories matching the search with a total count.
// A negative limit returns everything.
func (s *storyStore) List(ctx context.Context, opts storage.ListStoriesOptions) ([]models.SuccessStory, int64, error) {
	where := ""
	args := []any{}
	if term := strings.TrimSpace(opts.Search); term != "" {
		where = `WHERE short_story ILIKE $1 OR self_biodata ILIKE $1 OR partner_biodata ILIKE $1`
		args = append(args, "%"+term+"%")
	}

	var total int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM success_stories `+where+`;`, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count stories: %w", err)
	}

	paging := ""
	if opts.Limit >= 0 {
		limit := opts.Limit
		if limit == 0 {
			limit = 6
		}
		offset := opts.Offset
		if offset < 0 {
			offset = 0
		}
		paging = fmt.Sprintf("LIMIT %d OFFSET %d", limit, offset)
	}

	query := fmt.Sprintf(`SELECT %s FROM success_stories %s ORDER BY %s %s;`,
		storyColumns, where, storyOrderClause(opts.SortField, opts.SortOrder), paging)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	var stories []models.SuccessStory
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, 0, err
		}
		stories = append(stories, story)
	}
	return stories, total, rows.Err()
}

// CountStories returns the total number of success stories.
func (s *storyStore) CountStories(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM success_stories;`).Scan(&total)
	return total, err
}

func storyOrderClause(field, order string) string {
	col := "id"
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "rating":
		col = "rating"
	case "created_at", "createdat", "marriagedate":
		col = "created_at"
	}
	return col + " " + orderDirection(order)
}

func scanStory(row pgx.Row) (models.SuccessStory, error) {
	var story models.SuccessStory
	if err := row.Scan(&story.ID, &story.SelfBiodata, &story.PartnerBiodata,
		&story.CoupleImage, &story.MarriageDate, &story.Rating, &story.ShortStory, &story.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.SuccessStory{}, storage.ErrNotFound
		}
		return models.SuccessStory{}, err
	}
	return story, nil
}
