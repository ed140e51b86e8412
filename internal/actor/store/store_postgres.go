package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"reestr/internal/actor/models"
	id "reestr/pkg/domain"
	"reestr/pkg/platform/sentinel"
)

// Postgres persists actors in the actors table. Login uniqueness is enforced
// by a unique index on lower(login); violations surface as
// sentinel.ErrConflict.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const uniqueViolation = "23505"

func translatePQ(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return sentinel.ErrConflict
	}
	return err
}

const actorColumns = `id, login, password_hash, full_name, phone_number, role,
	district_id, district_name, mahalla_id, mahalla_name, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, a *models.Actor) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO actors (`+actorColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		a.ID.String(), a.Login, a.PasswordHash, a.FullName, a.PhoneNumber, string(a.Role),
		districtArg(a.DistrictID), a.DistrictName, mahallaArg(a.MahallaID), a.MahallaName,
		a.CreatedAt, a.UpdatedAt)
	if err != nil {
		if err = translatePQ(err); errors.Is(err, sentinel.ErrConflict) {
			return err
		}
		return fmt.Errorf("insert actor: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, a *models.Actor) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE actors SET login = $2, password_hash = $3, full_name = $4,
		 phone_number = $5, role = $6, district_id = $7, district_name = $8,
		 mahalla_id = $9, mahalla_name = $10, updated_at = $11
		 WHERE id = $1`,
		a.ID.String(), a.Login, a.PasswordHash, a.FullName, a.PhoneNumber, string(a.Role),
		districtArg(a.DistrictID), a.DistrictName, mahallaArg(a.MahallaID), a.MahallaName,
		a.UpdatedAt)
	if err != nil {
		if err = translatePQ(err); errors.Is(err, sentinel.ErrConflict) {
			return err
		}
		return fmt.Errorf("update actor: %w", err)
	}
	return requireRowAffected(res)
}

func (s *Postgres) Delete(ctx context.Context, actorID id.ActorID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM actors WHERE id = $1`, actorID.String())
	if err != nil {
		return fmt.Errorf("delete actor: %w", err)
	}
	return requireRowAffected(res)
}

func (s *Postgres) FindByID(ctx context.Context, actorID id.ActorID) (*models.Actor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+actorColumns+` FROM actors WHERE id = $1`, actorID.String())
	return scanActor(row)
}

func (s *Postgres) FindByLogin(ctx context.Context, login string) (*models.Actor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+actorColumns+` FROM actors WHERE lower(login) = lower($1)`, login)
	return scanActor(row)
}

func (s *Postgres) List(ctx context.Context) ([]models.Actor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+actorColumns+` FROM actors ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	return collectActors(rows)
}

func (s *Postgres) ListByDistrict(ctx context.Context, districtID id.DistrictID) ([]models.Actor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+actorColumns+` FROM actors WHERE district_id = $1
		 ORDER BY created_at DESC, id`, districtID.String())
	if err != nil {
		return nil, fmt.Errorf("list actors by district: %w", err)
	}
	return collectActors(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActor(row rowScanner) (*models.Actor, error) {
	var a models.Actor
	var rawID, rawRole string
	var rawDistrict, rawMahalla sql.NullString
	var districtName, mahallaName sql.NullString

	err := row.Scan(&rawID, &a.Login, &a.PasswordHash, &a.FullName, &a.PhoneNumber, &rawRole,
		&rawDistrict, &districtName, &rawMahalla, &mahallaName, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan actor: %w", err)
	}

	a.ID, err = id.ParseActorID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan actor: %w", err)
	}
	a.Role = models.Role(rawRole)
	a.DistrictName = districtName.String
	a.MahallaName = mahallaName.String
	if rawDistrict.Valid {
		districtID, err := id.ParseDistrictID(rawDistrict.String)
		if err != nil {
			return nil, fmt.Errorf("scan actor: %w", err)
		}
		a.DistrictID = &districtID
	}
	if rawMahalla.Valid {
		mahallaID, err := id.ParseMahallaID(rawMahalla.String)
		if err != nil {
			return nil, fmt.Errorf("scan actor: %w", err)
		}
		a.MahallaID = &mahallaID
	}
	return &a, nil
}

func collectActors(rows *sql.Rows) ([]models.Actor, error) {
	defer rows.Close()

	var out []models.Actor
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actors: %w", err)
	}
	return out, nil
}

func districtArg(districtID *id.DistrictID) any {
	if districtID == nil {
		return nil
	}
	return districtID.String()
}

func mahallaArg(mahallaID *id.MahallaID) any {
	if mahallaID == nil {
		return nil
	}
	return mahallaID.String()
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
