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

var _ storage.BiodataStore = (*biodataStore)(nil)

// biodataStore provides Postgres-backed persistence for biodatas.
type biodataStore struct {
	db querier
}

const biodataColumns = `id, biodata_id, name, photo, biodata_type, birth_date, height, weight, age,
	occupation, race, father_name, mother_name, permanent_division, present_division,
	partner_age, partner_height, partner_weight, contact_email, mobile_number,
	premium_status, has_access, has_request, created_at, updated_at`

// ageNumericExpr extracts a comparable number from the free-form age
// string, NULL when nothing numeric remains.
const ageNumericExpr = `NULLIF(regexp_replace(age, '[^0-9.]', '', 'g'), '')::numeric`

// Upsert creates or updates a biodata keyed by contact email. The
// public sequence id is assigned by the database on first insert and
// left untouched afterwards, as are created_at and premium_status.
func (s *biodataStore) Upsert(ctx context.Context, biodata models.Biodata) (models.Biodata, bool, error) {
	const query = `
	INSERT INTO biodatas (
		name, photo, biodata_type, birth_date, height, weight, age,
		occupation, race, father_name, mother_name, permanent_division, present_division,
		partner_age, partner_height, partner_weight, contact_email, mobile_number
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (contact_email) DO UPDATE SET
		name = EXCLUDED.name,
		photo = EXCLUDED.photo,
		biodata_type = EXCLUDED.biodata_type,
		birth_date = EXCLUDED.birth_date,
		height = EXCLUDED.height,
		weight = EXCLUDED.weight,
		age = EXCLUDED.age,
		occupation = EXCLUDED.occupation,
		race = EXCLUDED.race,
		father_name = EXCLUDED.father_name,
		mother_name = EXCLUDED.mother_name,
		permanent_division = EXCLUDED.permanent_division,
		present_division = EXCLUDED.present_division,
		partner_age = EXCLUDED.partner_age,
		partner_height = EXCLUDED.partner_height,
		partner_weight = EXCLUDED.partner_weight,
		mobile_number = EXCLUDED.mobile_number,
		updated_at = NOW()
	RETURNING ` + biodataColumns + `, (xmax = 0);`

	row := s.db.QueryRow(ctx, query,
		biodata.Name, biodata.Photo, biodata.BiodataType, biodata.BirthDate,
		biodata.Height, biodata.Weight, biodata.Age, biodata.Occupation, biodata.Race,
		biodata.FatherName, biodata.MotherName, biodata.PermanentDivision, biodata.PresentDivision,
		biodata.PartnerAge, biodata.PartnerHeight, biodata.PartnerWeight,
		biodata.ContactEmail, biodata.MobileNumber,
	)

	var stored models.Biodata
	var inserted bool
	if err := scanBiodataInto(row, &stored, &inserted); err != nil {
		return models.Biodata{}, false, fmt.Errorf("upsert biodata: %w", err)
	}
	return stored, inserted, nil
}

// FindByKey fetches a biodata by its internal store key.
func (s *biodataStore) FindByKey(ctx context.Context, id int64) (models.Biodata, error) {
	const query = `SELECT ` + biodataColumns + ` FROM biodatas WHERE id = $1;`
	return scanBiodata(s.db.QueryRow(ctx, query, id))
}

// FindBySequenceID fetches a biodata by its public sequence id.
func (s *biodataStore) FindBySequenceID(ctx context.Context, biodataID int64) (models.Biodata, error) {
	const query = `SELECT ` + biodataColumns + ` FROM biodatas WHERE biodata_id = $1;`
	return scanBiodata(s.db.QueryRow(ctx, query, biodataID))
}

// FindByContactEmail fetches a biodata by its owner's contact email.
func (s *biodataStore) FindByContactEmail(ctx context.Context, email string) (models.Biodata, error) {
	const query = `SELECT ` + biodataColumns + ` FROM biodatas WHERE contact_email = $1;`
	return scanBiodata(s.db.QueryRow(ctx, query, email))
}

// List returns biodatas matching the filters with a total count.
func (s *biodataStore) List(ctx context.Context, opts storage.ListBiodatasOptions) ([]models.Biodata, int64, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 8
	}
	if limit > 50 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if t := strings.ToLower(strings.TrimSpace(opts.BiodataType)); t != "" {
		conds = append(conds, `biodata_type = `+arg(t))
	}
	if opts.MinAge != "" {
		conds = append(conds, ageNumericExpr+` >= `+arg(opts.MinAge))
	}
	if opts.MaxAge != "" {
		conds = append(conds, ageNumericExpr+` <= `+arg(opts.MaxAge))
	}
	if opts.Division != "" {
		conds = append(conds, `permanent_division = `+arg(opts.Division))
	}
	if opts.Race != "" {
		conds = append(conds, `race ILIKE `+arg("%"+opts.Race+"%"))
	}
	if opts.Occupation != "" {
		conds = append(conds, `occupation ILIKE `+arg("%"+opts.Occupation+"%"))
	}
	if st := strings.ToLower(strings.TrimSpace(opts.PremiumStatus)); st != "" {
		conds = append(conds, `premium_status = `+arg(st))
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM biodatas `+where+`;`, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count biodatas: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM biodatas %s ORDER BY %s LIMIT %d OFFSET %d;`,
		biodataColumns, where, biodataOrderClause(opts.SortField, opts.SortOrder), limit, offset)
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list biodatas: %w", err)
	}
	defer rows.Close()

	biodatas, err := collectBiodatas(rows)
	if err != nil {
		return nil, 0, err
	}
	return biodatas, total, nil
}

// ListByType returns every biodata of the given type.
func (s *biodataStore) ListByType(ctx context.Context, biodataType string) ([]models.Biodata, error) {
	const query = `SELECT ` + biodataColumns + ` FROM biodatas WHERE biodata_type = $1;`
	rows, err := s.db.Query(ctx, query, biodataType)
	if err != nil {
		return nil, fmt.Errorf("list biodatas by type: %w", err)
	}
	defer rows.Close()
	return collectBiodatas(rows)
}

// ListPremiumOwned returns biodatas whose owning account is premium.
func (s *biodataStore) ListPremiumOwned(ctx context.Context, sortField, sortOrder string) ([]models.Biodata, error) {
	query := fmt.Sprintf(`
	SELECT %s FROM biodatas b
	JOIN users u ON b.contact_email = u.email
	WHERE u.type = $1
	ORDER BY %s;`, qualifyColumns(biodataColumns, "b"), premiumOrderClause(sortField, sortOrder))
	rows, err := s.db.Query(ctx, query, models.TierPremium)
	if err != nil {
		return nil, fmt.Errorf("list premium biodatas: %w", err)
	}
	defer rows.Close()
	return collectBiodatas(rows)
}

// ReplaceAccessSets overwrites both membership sets of a biodata.
func (s *biodataStore) ReplaceAccessSets(ctx context.Context, key int64, hasRequest, hasAccess []string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE biodatas SET has_request = $2, has_access = $3, updated_at = NOW() WHERE id = $1;`,
		key, hasRequest, hasAccess)
	if err != nil {
		return false, fmt.Errorf("replace access sets: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdatePremiumStatus sets the premium publication status of a biodata.
func (s *biodataStore) UpdatePremiumStatus(ctx context.Context, key int64, status string) (bool, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE biodatas SET premium_status = $2, updated_at = NOW() WHERE id = $1;`, key, status)
	if err != nil {
		return false, fmt.Errorf("update premium status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FilterValues returns the distinct non-empty divisions, races, and
// occupations across all biodatas.
func (s *biodataStore) FilterValues(ctx context.Context) ([]string, []string, []string, error) {
	divisions, err := s.distinctColumn(ctx, "permanent_division")
	if err != nil {
		return nil, nil, nil, err
	}
	races, err := s.distinctColumn(ctx, "race")
	if err != nil {
		return nil, nil, nil, err
	}
	occupations, err := s.distinctColumn(ctx, "occupation")
	if err != nil {
		return nil, nil, nil, err
	}
	return divisions, races, occupations, nil
}

// CountBiodatas returns the total number of biodatas.
func (s *biodataStore) CountBiodatas(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM biodatas;`).Scan(&total)
	return total, err
}

// CountBiodatasByType returns the number of biodatas of the given type.
func (s *biodataStore) CountBiodatasByType(ctx context.Context, biodataType string) (int64, error) {
	var total int64
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM biodatas WHERE biodata_type = $1;`, biodataType).Scan(&total)
	return total, err
}

func (s *biodataStore) distinctColumn(ctx context.Context, column string) ([]string, error) {
	query := fmt.Sprintf(`SELECT DISTINCT %s FROM biodatas WHERE %s <> '' ORDER BY %s;`, column, column, column)
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", column, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func biodataOrderClause(field, order string) string {
	col := "biodata_id"
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "age":
		col = ageNumericExpr
	case "created_at", "createdat":
		col = "created_at"
	case "biodata_id", "biodataid", "":
	}
	return col + " " + orderDirection(order) + " NULLS LAST"
}

// premiumOrderClause is biodataOrderClause with columns qualified for
// the joined premium listing.
func premiumOrderClause(field, order string) string {
	col := "b.biodata_id"
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "age":
		col = `NULLIF(regexp_replace(b.age, '[^0-9.]', '', 'g'), '')::numeric`
	case "created_at", "createdat":
		col = "b.created_at"
	}
	return col + " " + orderDirection(order) + " NULLS LAST"
}

func orderDirection(order string) string {
	if strings.EqualFold(strings.TrimSpace(order), "asc") {
		return "ASC"
	}
	return "DESC"
}

func qualifyColumns(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func collectBiodatas(rows pgx.Rows) ([]models.Biodata, error) {
	var biodatas []models.Biodata
	for rows.Next() {
		biodata, err := scanBiodata(rows)
		if err != nil {
			return nil, err
		}
		biodatas = append(biodatas, biodata)
	}
	return biodatas, rows.Err()
}

func scanBiodata(row pgx.Row) (models.Biodata, error) {
	var biodata models.Biodata
	if err := scanBiodataInto(row, &biodata, nil); err != nil {
		return models.Biodata{}, err
	}
	return biodata, nil
}

func scanBiodataInto(row pgx.Row, biodata *models.Biodata, inserted *bool) error {
	dest := []any{
		&biodata.ID, &biodata.BiodataID, &biodata.Name, &biodata.Photo, &biodata.BiodataType,
		&biodata.BirthDate, &biodata.Height, &biodata.Weight, &biodata.Age,
		&biodata.Occupation, &biodata.Race, &biodata.FatherName, &biodata.MotherName,
		&biodata.PermanentDivision, &biodata.PresentDivision,
		&biodata.PartnerAge, &biodata.PartnerHeight, &biodata.PartnerWeight,
		&biodata.ContactEmail, &biodata.MobileNumber, &biodata.PremiumStatus,
		&biodata.HasAccess, &biodata.HasRequest, &biodata.CreatedAt, &biodata.UpdatedAt,
	}
	if inserted != nil {
		dest = append(dest, inserted)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrNotFound
		}
		return err
	}
	if biodata.HasAccess == nil {
		biodata.HasAccess = []string{}
	}
	if biodata.HasRequest == nil {
		biodata.HasRequest = []string{}
	}
	return nil
}
