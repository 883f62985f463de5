package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/soultie/soultie-be/internal/models"
	"github.com/soultie/soultie-be/internal/storage"
)

var _ storage.FavouriteStore = (*favouriteStore)(nil)

// favouriteStore provides Postgres-backed persistence for bookmarks.
type favouriteStore struct {
	db querier
}

const favouriteColumns = `id, user_email, biodata_id, name, occupation, permanent_division, created_at`

// Insert bookmarks a biodata for an account.
func (s *favouriteStore) Insert(ctx context.Context, favourite models.Favourite) (models.Favourite, error) {
	const query = `
	INSERT INTO favourites (user_email, biodata_id, name, occupation, permanent_division)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + favouriteColumns + `;`
	row := s.db.QueryRow(ctx, query, favourite.UserEmail, favourite.BiodataID,
		favourite.Name, favourite.Occupation, favourite.PermanentDiv)
	created, err := scanFavourite(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Favourite{}, storage.ErrAlreadyExists
		}
		return models.Favourite{}, fmt.Errorf("insert favourite: %w", err)
	}
	return created, nil
}

// ListByEmail returns the account's bookmarks.
func (s *favouriteStore) ListByEmail(ctx context.Context, email string) ([]models.Favourite, error) {
	const query = `SELECT ` + favouriteColumns + ` FROM favourites WHERE user_email = $1 ORDER BY created_at DESC;`
	rows, err := s.db.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("list favourites: %w", err)
	}
	defer rows.Close()

	var favourites []models.Favourite
	for rows.Next() {
		favourite, err := scanFavourite(rows)
		if err != nil {
			return nil, err
		}
		favourites = append(favourites, favourite)
	}
	return favourites, rows.Err()
}

// DeleteByBiodataID removes bookmarks pointing at the biodata.
func (s *favouriteStore) DeleteByBiodataID(ctx context.Context, biodataID int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM favourites WHERE biodata_id = $1;`, biodataID)
	if err != nil {
		return false, fmt.Errorf("delete favourite: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanFavourite(row pgx.Row) (models.Favourite, error) {
	var favourite models.Favourite
	if err := row.Scan(&favourite.ID, &favourite.UserEmail, &favourite.BiodataID,
		&favourite.Name, &favourite.Occupation, &favourite.PermanentDiv, &favourite.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Favourite{}, storage.ErrNotFound
		}
		return models.Favourite{}, err
	}
	return favourite, nil
}
