package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"reestr/internal/person/models"
	id "reestr/pkg/domain"
	"reestr/pkg/platform/sentinel"
)

// Postgres persists persons in the persons table. Passport uniqueness is
// enforced by a unique index on (passport_serial, passport_number);
// violations surface as sentinel.ErrConflict.
type Postgres struct {
	db *sql.DB
}

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

const personColumns = `id, first_name, last_name, middle_name, birth_date,
	passport_serial, passport_number, car_info,
	district_id, district_name, mahalla_id, mahalla_name,
	crime_category_id, crime_category_name, crime_type_id, crime_type_name,
	additional_info, photo_url, fingerprint_url,
	in_process, processed_at, processed_by, processed_by_name,
	registered_by, registered_by_name, registered_by_phone, registered_at,
	updated_at`

func (s *Postgres) Create(ctx context.Context, p *models.Person) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO persons (`+personColumns+`) VALUES
		 ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		  $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)`,
		p.ID.String(), p.FirstName, p.LastName, p.MiddleName, p.BirthDate,
		p.PassportSerial, p.PassportNumber, p.CarInfo,
		p.DistrictID.String(), p.DistrictName, p.MahallaID.String(), p.MahallaName,
		p.CrimeCategoryID.String(), p.CrimeCategoryName, p.CrimeTypeID.String(), p.CrimeTypeName,
		p.AdditionalInfo, p.PhotoURL, p.FingerprintURL,
		p.InProcess, p.ProcessedAt, actorArg(p.ProcessedBy), p.ProcessedByName,
		p.RegisteredBy.String(), p.RegisteredByName, p.RegisteredByPhone, p.RegisteredAt,
		p.UpdatedAt)
	if err != nil {
		if err = translatePQ(err); errors.Is(err, sentinel.ErrConflict) || errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		return fmt.Errorf("insert person: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, p *models.Person) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE persons SET
		 first_name = $2, last_name = $3, middle_name = $4, birth_date = $5,
		 passport_serial = $6, passport_number = $7, car_info = $8,
		 district_id = $9, district_name = $10, mahalla_id = $11, mahalla_name = $12,
		 crime_category_id = $13, crime_category_name = $14,
		 crime_type_id = $15, crime_type_name = $16,
		 additional_info = $17, photo_url = $18, fingerprint_url = $19,
		 in_process = $20, processed_at = $21, processed_by = $22, processed_by_name = $23,
		 updated_at = $24
		 WHERE id = $1`,
		p.ID.String(), p.FirstName, p.LastName, p.MiddleName, p.BirthDate,
		p.PassportSerial, p.PassportNumber, p.CarInfo,
		p.DistrictID.String(), p.DistrictName, p.MahallaID.String(), p.MahallaName,
		p.CrimeCategoryID.String(), p.CrimeCategoryName, p.CrimeTypeID.String(), p.CrimeTypeName,
		p.AdditionalInfo, p.PhotoURL, p.FingerprintURL,
		p.InProcess, p.ProcessedAt, actorArg(p.ProcessedBy), p.ProcessedByName,
		p.UpdatedAt)
	if err != nil {
		if err = translatePQ(err); errors.Is(err, sentinel.ErrConflict) || errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		return fmt.Errorf("update person: %w", err)
	}
	return requireRowAffected(res)
}

func (s *Postgres) Delete(ctx context.Context, personID id.PersonID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, personID.String())
	if err != nil {
		return fmt.Errorf("delete person: %w", err)
	}
	return requireRowAffected(res)
}

func (s *Postgres) FindByID(ctx context.Context, personID id.PersonID) (*models.Person, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM persons WHERE id = $1`, personID.String())
	return scanPerson(row)
}

func (s *Postgres) List(ctx context.Context, scope models.Scope) ([]models.Person, error) {
	return s.Search(ctx, scope, models.SearchFilter{})
}

func (s *Postgres) ListInProcess(ctx context.Context, scope models.Scope) ([]models.Person, error) {
	where, args := scopeConditions(scope)
	where = append(where, "in_process")

	query := `SELECT ` + personColumns + ` FROM persons WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY processed_at DESC, id`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list persons in process: %w", err)
	}
	return collectPersons(rows)
}

// Search builds a WHERE clause from the scope first, then the filter, so
// a filter can narrow visibility but never widen it.
func (s *Postgres) Search(ctx context.Context, scope models.Scope, filter models.SearchFilter) ([]models.Person, error) {
	where, args := scopeConditions(scope)

	add := func(condition string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(condition, len(args)))
	}

	if filter.FirstName != "" {
		add(`first_name ILIKE '%%' || $%d || '%%'`, escapeLike(filter.FirstName))
	}
	if filter.LastName != "" {
		add(`last_name ILIKE '%%' || $%d || '%%'`, escapeLike(filter.LastName))
	}
	if filter.PassportSerial != "" {
		add(`passport_serial = upper($%d)`, filter.PassportSerial)
	}
	if filter.PassportNumber != "" {
		add(`passport_number LIKE '%%' || $%d || '%%'`, escapeLike(filter.PassportNumber))
	}
	if filter.DistrictID != nil {
		add(`district_id = $%d`, filter.DistrictID.String())
	}
	if filter.MahallaID != nil {
		add(`mahalla_id = $%d`, filter.MahallaID.String())
	}
	if filter.CrimeCategoryID != nil {
		add(`crime_category_id = $%d`, filter.CrimeCategoryID.String())
	}
	if filter.CrimeTypeID != nil {
		add(`crime_type_id = $%d`, filter.CrimeTypeID.String())
	}

	query := `SELECT ` + personColumns + ` FROM persons`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY registered_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search persons: %w", err)
	}
	return collectPersons(rows)
}

// escapeLike neutralizes LIKE metacharacters so filter terms match
// literally, the same way the in-memory store's substring checks do.
func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func scopeConditions(scope models.Scope) ([]string, []any) {
	var where []string
	var args []any
	if scope.DistrictID != nil {
		args = append(args, scope.DistrictID.String())
		where = append(where, fmt.Sprintf("district_id = $%d", len(args)))
	}
	if scope.RegisteredBy != nil {
		args = append(args, scope.RegisteredBy.String())
		where = append(where, fmt.Sprintf("registered_by = $%d", len(args)))
	}
	return where, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*models.Person, error) {
	var p models.Person
	var rawID, rawDistrict, rawMahalla, rawCategory, rawType, rawRegisteredBy string
	var rawProcessedBy sql.NullString
	var processedAt sql.NullTime
	var processedByName sql.NullString

	err := row.Scan(&rawID, &p.FirstName, &p.LastName, &p.MiddleName, &p.BirthDate,
		&p.PassportSerial, &p.PassportNumber, &p.CarInfo,
		&rawDistrict, &p.DistrictName, &rawMahalla, &p.MahallaName,
		&rawCategory, &p.CrimeCategoryName, &rawType, &p.CrimeTypeName,
		&p.AdditionalInfo, &p.PhotoURL, &p.FingerprintURL,
		&p.InProcess, &processedAt, &rawProcessedBy, &processedByName,
		&rawRegisteredBy, &p.RegisteredByName, &p.RegisteredByPhone, &p.RegisteredAt,
		&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan person: %w", err)
	}

	if p.ID, err = id.ParsePersonID(rawID); err != nil {
		return nil, fmt.Errorf("scan person: %w", err)
	}
	if p.DistrictID, err = id.ParseDistrictID(rawDistrict); err != nil {
		return nil, fmt.Errorf("scan person: %w", err)
	}
	if p.MahallaID, err = id.ParseMahallaID(rawMahalla); err != nil {
		return nil, fmt.Errorf("scan person: %w", err)
	}
	if p.CrimeCategoryID, err = id.ParseCrimeCategoryID(rawCategory); err != nil {
		return nil, fmt.Errorf("scan person: %w", err)
	}
	if p.CrimeTypeID, err = id.ParseCrimeTypeID(rawType); err != nil {
		return nil, fmt.Errorf("scan person: %w", err)
	}
	if p.RegisteredBy, err = id.ParseActorID(rawRegisteredBy); err != nil {
		return nil, fmt.Errorf("scan person: %w", err)
	}
	if processedAt.Valid {
		t := processedAt.Time
		p.ProcessedAt = &t
	}
	if rawProcessedBy.Valid {
		actorID, err := id.ParseActorID(rawProcessedBy.String)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		p.ProcessedBy = &actorID
	}
	p.ProcessedByName = processedByName.String
	return &p, nil
}

func collectPersons(rows *sql.Rows) ([]models.Person, error) {
	defer rows.Close()

	var out []models.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persons: %w", err)
	}
	return out, nil
}

func actorArg(actorID *id.ActorID) any {
	if actorID == nil {
		return nil
	}
	return actorID.String()
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
