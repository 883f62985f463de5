package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/soultie/soultie-be/internal/storage"
)

// Ensure Store satisfies the storage bundle at compile time.
var _ storage.Stores = (*Store)(nil)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx,
// letting the same store methods run pooled or inside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store provides Postgres-backed persistence for all record types.
type Store struct {
	pool *pgxpool.Pool
	db   querier
}

// NewStore connects the pool and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool, db: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Users returns the account store.
func (s *Store) Users() storage.UserStore { return &userStore{db: s.db} }

// Biodatas returns the biodata store.
func (s *Store) Biodatas() storage.BiodataStore { return &biodataStore{db: s.db} }

// Payments returns the access-request ledger store.
func (s *Store) Payments() storage.PaymentStore { return &paymentStore{db: s.db} }

// Stories returns the success-story store.
func (s *Store) Stories() storage.StoryStore { return &storyStore{db: s.db} }

// Favourites returns the bookmark store.
func (s *Store) Favourites() storage.FavouriteStore { return &favouriteStore{db: s.db} }

// InTx runs fn against a transaction-scoped copy of the store. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(storage.Stores) error) error {
	if s.pool == nil {
		// Already inside a transaction; reuse it.
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&Store{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			photo TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT 'standard',
			role TEXT NOT NULL DEFAULT 'normal',
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE SEQUENCE IF NOT EXISTS biodata_public_id_seq;`,
		`CREATE TABLE IF NOT EXISTS biodatas (
			id BIGSERIAL PRIMARY KEY,
			biodata_id BIGINT UNIQUE NOT NULL DEFAULT nextval('biodata_public_id_seq'),
			name TEXT NOT NULL,
			photo TEXT NOT NULL DEFAULT '',
			biodata_type TEXT NOT NULL,
			birth_date TEXT NOT NULL DEFAULT '',
			height TEXT NOT NULL DEFAULT '',
			weight TEXT NOT NULL DEFAULT '',
			age TEXT NOT NULL DEFAULT '',
			occupation TEXT NOT NULL DEFAULT '',
			race TEXT NOT NULL DEFAULT '',
			father_name TEXT NOT NULL DEFAULT '',
			mother_name TEXT NOT NULL DEFAULT '',
			permanent_division TEXT NOT NULL DEFAULT '',
			present_division TEXT NOT NULL DEFAULT '',
			partner_age TEXT NOT NULL DEFAULT '',
			partner_height TEXT NOT NULL DEFAULT '',
			partner_weight TEXT NOT NULL DEFAULT '',
			contact_email TEXT UNIQUE NOT NULL,
			mobile_number TEXT NOT NULL DEFAULT '',
			premium_status TEXT NOT NULL DEFAULT 'normal',
			has_access TEXT[] NOT NULL DEFAULT '{}',
			has_request TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS payments (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			biodata_id BIGINT NOT NULL REFERENCES biodatas(id),
			transaction_id TEXT NOT NULL,
			amount NUMERIC(12,2) NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			approved_at TIMESTAMPTZ,
			rejected_at TIMESTAMPTZ
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS payments_user_biodata_unique_idx ON payments (user_id, biodata_id);`,
		`CREATE TABLE IF NOT EXISTS success_stories (
			id BIGSERIAL PRIMARY KEY,
			self_biodata TEXT NOT NULL,
			partner_biodata TEXT NOT NULL,
			couple_image TEXT NOT NULL DEFAULT '',
			marriage_date TEXT NOT NULL DEFAULT '',
			rating INT NOT NULL DEFAULT 0,
			short_story TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS favourites (
			id BIGSERIAL PRIMARY KEY,
			user_email TEXT NOT NULL,
			biodata_id BIGINT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			occupation TEXT NOT NULL DEFAULT '',
			permanent_division TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_email, biodata_id)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
