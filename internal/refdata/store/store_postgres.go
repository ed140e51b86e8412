package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"reestr/internal/refdata/models"
	id "reestr/pkg/domain"
	"reestr/pkg/platform/sentinel"
)

// Postgres persists reference data in PostgreSQL. Uniqueness is enforced by
// the schema's unique indexes; violations surface as sentinel.ErrConflict.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed reference-data store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const uniqueViolation = "23505"
const foreignKeyViolation = "23503"

func translatePQ(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return sentinel.ErrConflict
		case foreignKeyViolation:
			return sentinel.ErrNotFound
		}
	}
	return err
}

// --- Districts ---

func (s *Postgres) CreateDistrict(ctx context.Context, d *models.District) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO districts (id, name, code, created_at) VALUES ($1, $2, $3, $4)`,
		d.ID.String(), d.Name, d.Code, d.CreatedAt)
	if err != nil {
		if err = translatePQ(err); errors.Is(err, sentinel.ErrConflict) {
			return err
		}
		return fmt.Errorf("insert district: %w", err)
	}
	return nil
}

func (s *Postgres) FindDistrict(ctx context.Context, districtID id.DistrictID) (*models.District, error) {
	var d models.District
	var rawID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, code, created_at FROM districts WHERE id = $1`,
		districtID.String()).Scan(&rawID, &d.Name, &d.Code, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find district: %w", err)
	}
	d.ID, err = id.ParseDistrictID(rawID)
	if err != nil {
		return nil, fmt.Errorf("find district: %w", err)
	}
	return &d, nil
}

func (s *Postgres) ListDistricts(ctx context.Context) ([]models.District, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, code, created_at FROM districts ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list districts: %w", err)
	}
	defer rows.Close()

	var out []models.District
	for rows.Next() {
		var d models.District
		var rawID string
		if err := rows.Scan(&rawID, &d.Name, &d.Code, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan district: %w", err)
		}
		if d.ID, err = id.ParseDistrictID(rawID); err != nil {
			return nil, fmt.Errorf("scan district: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// --- Mahallas ---

func (s *Postgres) CreateMahalla(ctx context.Context, m *models.Mahalla) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mahallas (id, name, district_id, created_at) VALUES ($1, $2, $3, $4)`,
		m.ID.String(), m.Name, m.DistrictID.String(), m.CreatedAt)
	if err != nil {
		if err = translatePQ(err); errors.Is(err, sentinel.ErrConflict) || errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		return fmt.Errorf("insert mahalla: %w", err)
	}
	return nil
}

func (s *Postgres) FindMahalla(ctx context.Context, mahallaID id.MahallaID) (*models.Mahalla, error) {
	var m models.Mahalla
	var rawID, rawDistrict string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, district_id, created_at FROM mahallas WHERE id = $1`,
		mahallaID.String()).Scan(&rawID, &m.Name, &rawDistrict, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find mahalla: %w", err)
	}
	if m.ID, err = id.ParseMahallaID(rawID); err != nil {
		return nil, fmt.Errorf("find mahalla: %w", err)
	}
	if m.DistrictID, err = id.ParseDistrictID(rawDistrict); err != nil {
		return nil, fmt.Errorf("find mahalla: %w", err)
	}
	return &m, nil
}

func (s *Postgres) ListMahallasByDistrict(ctx context.Context, districtID id.DistrictID) ([]models.Mahalla, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, district_id, created_at FROM mahallas WHERE district_id = $1 ORDER BY name`,
		districtID.String())
	if err != nil {
		return nil, fmt.Errorf("list mahallas: %w", err)
	}
	defer rows.Close()

	var out []models.Mahalla
	for rows.Next() {
		var m models.Mahalla
		var rawID, rawDistrict string
		if err := rows.Scan(&rawID, &m.Name, &rawDistrict, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan mahalla: %w", err)
		}
		if m.ID, err = id.ParseMahallaID(rawID); err != nil {
			return nil, fmt.Errorf("scan mahalla: %w", err)
		}
		if m.DistrictID, err = id.ParseDistrictID(rawDistrict); err != nil {
			return nil, fmt.Errorf("scan mahalla: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// --- Crime categories ---

func (s *Postgres) CreateCrimeCategory(ctx context.Context, c *models.CrimeCategory) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO crime_categories (id, name, description, created_at) VALUES ($1, $2, $3, $4)`,
		c.ID.String(), c.Name, c.Description, c.CreatedAt)
	if err != nil {
		if err = translatePQ(err); errors.Is(err, sentinel.ErrConflict) {
			return err
		}
		return fmt.Errorf("insert crime category: %w", err)
	}
	return nil
}

func (s *Postgres) UpdateCrimeCategory(ctx context.Context, c *models.CrimeCategory) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE crime_categories SET name = $2, description = $3 WHERE id = $1`,
		c.ID.String(), c.Name, c.Description)
	if err != nil {
		if err = translatePQ(err); errors.Is(err, sentinel.ErrConflict) {
			return err
		}
		return fmt.Errorf("update crime category: %w", err)
	}
	return requireRowAffected(res, "crime category")
}

func (s *Postgres) DeleteCrimeCategory(ctx context.Context, categoryID id.CrimeCategoryID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM crime_categories WHERE id = $1`, categoryID.String())
	if err != nil {
		return fmt.Errorf("delete crime category: %w", err)
	}
	return requireRowAffected(res, "crime category")
}

func (s *Postgres) FindCrimeCategory(ctx context.Context, categoryID id.CrimeCategoryID) (*models.CrimeCategory, error) {
	var c models.CrimeCategory
	var rawID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM crime_categories WHERE id = $1`,
		categoryID.String()).Scan(&rawID, &c.Name, &c.Description, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find crime category: %w", err)
	}
	if c.ID, err = id.ParseCrimeCategoryID(rawID); err != nil {
		return nil, fmt.Errorf("find crime category: %w", err)
	}
	return &c, nil
}

func (s *Postgres) ListCrimeCategories(ctx context.Context) ([]models.CrimeCategory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM crime_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list crime categories: %w", err)
	}
	defer rows.Close()

	var out []models.CrimeCategory
	for rows.Next() {
		var c models.CrimeCategory
		var rawID string
		if err := rows.Scan(&rawID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan crime category: %w", err)
		}
		if c.ID, err = id.ParseCrimeCategoryID(rawID); err != nil {
			return nil, fmt.Errorf("scan crime category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Crime types ---

func (s *Postgres) CreateCrimeType(ctx context.Context, c *models.CrimeType) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO crime_types (id, name, description, category_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID.String(), c.Name, c.Description, categoryArg(c.CategoryID), c.CreatedAt)
	if err != nil {
		if err = translatePQ(err); errors.Is(err, sentinel.ErrConflict) || errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		return fmt.Errorf("insert crime type: %w", err)
	}
	return nil
}

func (s *Postgres) UpdateCrimeType(ctx context.Context, c *models.CrimeType) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE crime_types SET name = $2, description = $3, category_id = $4 WHERE id = $1`,
		c.ID.String(), c.Name, c.Description, categoryArg(c.CategoryID))
	if err != nil {
		if err = translatePQ(err); errors.Is(err, sentinel.ErrConflict) || errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		return fmt.Errorf("update crime type: %w", err)
	}
	return requireRowAffected(res, "crime type")
}

func (s *Postgres) DeleteCrimeType(ctx context.Context, typeID id.CrimeTypeID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM crime_types WHERE id = $1`, typeID.String())
	if err != nil {
		return fmt.Errorf("delete crime type: %w", err)
	}
	return requireRowAffected(res, "crime type")
}

func (s *Postgres) FindCrimeType(ctx context.Context, typeID id.CrimeTypeID) (*models.CrimeType, error) {
	var c models.CrimeType
	var rawID string
	var rawCategory sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, category_id, created_at FROM crime_types WHERE id = $1`,
		typeID.String()).Scan(&rawID, &c.Name, &c.Description, &rawCategory, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find crime type: %w", err)
	}
	if c.ID, err = id.ParseCrimeTypeID(rawID); err != nil {
		return nil, fmt.Errorf("find crime type: %w", err)
	}
	if rawCategory.Valid {
		catID, err := id.ParseCrimeCategoryID(rawCategory.String)
		if err != nil {
			return nil, fmt.Errorf("find crime type: %w", err)
		}
		c.CategoryID = &catID
	}
	return &c, nil
}

func (s *Postgres) ListCrimeTypes(ctx context.Context) ([]models.CrimeType, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, category_id, created_at FROM crime_types ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list crime types: %w", err)
	}
	defer rows.Close()

	var out []models.CrimeType
	for rows.Next() {
		var c models.CrimeType
		var rawID string
		var rawCategory sql.NullString
		if err := rows.Scan(&rawID, &c.Name, &c.Description, &rawCategory, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan crime type: %w", err)
		}
		if c.ID, err = id.ParseCrimeTypeID(rawID); err != nil {
			return nil, fmt.Errorf("scan crime type: %w", err)
		}
		if rawCategory.Valid {
			catID, err := id.ParseCrimeCategoryID(rawCategory.String)
			if err != nil {
				return nil, fmt.Errorf("scan crime type: %w", err)
			}
			c.CategoryID = &catID
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func categoryArg(categoryID *id.CrimeCategoryID) any {
	if categoryID == nil {
		return nil
	}
	return categoryID.String()
}

func requireRowAffected(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for %s: %w", entity, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
