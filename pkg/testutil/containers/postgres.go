//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// registry schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a PostgreSQL container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("reestr_test"),
		tcpostgres.WithUsername("reestr"),
		tcpostgres.WithPassword("reestr"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// TruncateTables clears the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx,
		fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")))
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS districts (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	code       TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS districts_name_key ON districts (lower(name));
CREATE UNIQUE INDEX IF NOT EXISTS districts_code_key ON districts (lower(code)) WHERE code <> '';

CREATE TABLE IF NOT EXISTS mahallas (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	district_id UUID NOT NULL REFERENCES districts (id),
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS mahallas_district_name_key ON mahallas (district_id, lower(name));

CREATE TABLE IF NOT EXISTS crime_categories (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS crime_categories_name_key ON crime_categories (lower(name));

CREATE TABLE IF NOT EXISTS crime_types (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category_id UUID REFERENCES crime_categories (id),
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS crime_types_category_name_key
	ON crime_types (coalesce(category_id::text, ''), lower(name));

CREATE TABLE IF NOT EXISTS actors (
	id            UUID PRIMARY KEY,
	login         TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	full_name     TEXT NOT NULL,
	phone_number  TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL,
	district_id   UUID REFERENCES districts (id),
	district_name TEXT,
	mahalla_id    UUID REFERENCES mahallas (id),
	mahalla_name  TEXT,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS actors_login_key ON actors (lower(login));

CREATE TABLE IF NOT EXISTS persons (
	id                  UUID PRIMARY KEY,
	first_name          TEXT NOT NULL,
	last_name           TEXT NOT NULL,
	middle_name         TEXT NOT NULL,
	birth_date          TEXT NOT NULL,
	passport_serial     TEXT NOT NULL,
	passport_number     TEXT NOT NULL,
	car_info            TEXT NOT NULL DEFAULT '',
	district_id         UUID NOT NULL REFERENCES districts (id),
	district_name       TEXT NOT NULL,
	mahalla_id          UUID NOT NULL REFERENCES mahallas (id),
	mahalla_name        TEXT NOT NULL,
	crime_category_id   UUID NOT NULL REFERENCES crime_categories (id),
	crime_category_name TEXT NOT NULL,
	crime_type_id       UUID NOT NULL REFERENCES crime_types (id),
	crime_type_name     TEXT NOT NULL,
	additional_info     TEXT NOT NULL DEFAULT '',
	photo_url           TEXT NOT NULL DEFAULT '',
	fingerprint_url     TEXT NOT NULL DEFAULT '',
	in_process          BOOLEAN NOT NULL DEFAULT FALSE,
	processed_at        TIMESTAMPTZ,
	processed_by        UUID,
	processed_by_name   TEXT,
	registered_by       UUID NOT NULL,
	registered_by_name  TEXT NOT NULL,
	registered_by_phone TEXT NOT NULL DEFAULT '',
	registered_at       TIMESTAMPTZ NOT NULL,
	updated_at          TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS persons_passport_key ON persons (passport_serial, passport_number);
CREATE INDEX IF NOT EXISTS persons_district_idx ON persons (district_id);
CREATE INDEX IF NOT EXISTS persons_registered_by_idx ON persons (registered_by);

CREATE TABLE IF NOT EXISTS audit_events (
	id         UUID PRIMARY KEY,
	at         TIMESTAMPTZ NOT NULL,
	action     TEXT NOT NULL,
	actor_id   TEXT NOT NULL DEFAULT '',
	actor_name TEXT NOT NULL DEFAULT '',
	subject    TEXT NOT NULL DEFAULT '',
	subject_id TEXT NOT NULL DEFAULT '',
	detail     TEXT NOT NULL DEFAULT '',
	request_id TEXT NOT NULL DEFAULT ''
);
`
