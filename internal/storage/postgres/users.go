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

var _ storage.UserStore = (*userStore)(nil)

// userStore provides Postgres-backed persistence for accounts.
type userStore struct {
	db querier
}

const userColumns = `id, name, email, photo, type, role, password_hash, created_at`

// CreateUser inserts a new account row.
func (s *userStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
	INSERT INTO users (name, email, photo, type, role, password_hash)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING ` + userColumns + `;`
	row := s.db.QueryRow(ctx, query, user.Name, user.Email, user.Photo, user.Type, user.Role, user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByEmail fetches an account by email address.
func (s *userStore) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1;`
	return scanUser(s.db.QueryRow(ctx, query, email))
}

// FindByID fetches an account by its store key.
func (s *userStore) FindByID(ctx context.Context, id int64) (models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1;`
	return scanUser(s.db.QueryRow(ctx, query, id))
}

// ListUsers returns accounts matching the search term with a total count.
func (s *userStore) ListUsers(ctx context.Context, opts storage.ListUsersOptions) ([]models.User, int64, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 8
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	where := ""
	args := []any{}
	if term := strings.TrimSpace(opts.Search); term != "" {
		where = `WHERE name ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+term+"%")
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM users ` + where + `;`
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY id DESC LIMIT %d OFFSET %d;`,
		userColumns, where, limit, offset)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}
	return users, total, rows.Err()
}

// UpdateRole sets the administrative role of an account.
func (s *userStore) UpdateRole(ctx context.Context, id int64, role string) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1;`, id, role)
	if err != nil {
		return false, fmt.Errorf("update user role: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateType sets the membership tier of an account.
func (s *userStore) UpdateType(ctx context.Context, id int64, tier string) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE users SET type = $2 WHERE id = $1;`, id, tier)
	if err != nil {
		return false, fmt.Errorf("update user type: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateTypeByEmail sets the membership tier of the account owning the
// given email.
func (s *userStore) UpdateTypeByEmail(ctx context.Context, email, tier string) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE users SET type = $2 WHERE email = $1;`, email, tier)
	if err != nil {
		return false, fmt.Errorf("update user type by email: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// CountUsers returns the total number of accounts.
func (s *userStore) CountUsers(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users;`).Scan(&total)
	return total, err
}

// CountUsersByType returns the number of accounts holding the tier.
func (s *userStore) CountUsersByType(ctx context.Context, tier string) (int64, error) {
	var total int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE type = $1;`, tier).Scan(&total)
	return total, err
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.Photo, &user.Type, &user.Role, &user.PasswordHash, &user.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
