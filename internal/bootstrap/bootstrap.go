// Package bootstrap seeds an empty deployment with the initial super admin
// and the Namangan region reference data so a fresh instance is usable
// immediately.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	actormodels "reestr/internal/actor/models"
	refmodels "reestr/internal/refdata/models"
	id "reestr/pkg/domain"
	"reestr/pkg/platform/sentinel"
)

// ActorStore is the slice of the actor store seeding needs.
type ActorStore interface {
	Create(ctx context.Context, a *actormodels.Actor) error
	FindByLogin(ctx context.Context, login string) (*actormodels.Actor, error)
}

// RefDataStore is the slice of the reference-data store seeding needs.
type RefDataStore interface {
	CreateDistrict(ctx context.Context, d *refmodels.District) error
	ListDistricts(ctx context.Context) ([]refmodels.District, error)
	CreateMahalla(ctx context.Context, m *refmodels.Mahalla) error
	CreateCrimeCategory(ctx context.Context, c *refmodels.CrimeCategory) error
	CreateCrimeType(ctx context.Context, c *refmodels.CrimeType) error
}

const defaultAdminLogin = "admin"

var seedDistricts = []struct {
	name string
	code string
}{
	{"Namangan shahri", "NMS"},
	{"Chortoq", "CHQ"},
	{"Chust", "CHS"},
	{"Kosonsoy", "KSN"},
	{"Mingbuloq", "MBQ"},
	{"Namangan tumani", "NMT"},
	{"Norin", "NRN"},
	{"Pop", "POP"},
	{"Toʻraqoʻrgʻon", "TRQ"},
	{"Uchqoʻrgʻon", "UCH"},
	{"Uychi", "UYC"},
	{"Yangiqoʻrgʻon", "YNQ"},
}

var crimeCatalog = map[string][]string{
	"Mulkka qarshi jinoyatlar":  {"Oʻgʻrilik", "Talonchilik", "Firibgarlik"},
	"Shaxsga qarshi jinoyatlar": {"Bezorilik", "Tan jarohati yetkazish"},
	"Giyohvandlik":              {"Saqlash", "Tarqatish"},
}

// Seed populates reference data and the initial super admin when they are
// missing. It is idempotent: an already-seeded deployment is left alone.
func Seed(ctx context.Context, actors ActorStore, refdata RefDataStore, logger *slog.Logger) error {
	now := time.Now()

	if _, err := actors.FindByLogin(ctx, defaultAdminLogin); err == nil {
		logger.InfoContext(ctx, "bootstrap skipped, super admin already present")
		return nil
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return fmt.Errorf("check super admin: %w", err)
	}

	existing, err := refdata.ListDistricts(ctx)
	if err != nil {
		return fmt.Errorf("list districts: %w", err)
	}
	if len(existing) == 0 {
		for _, seed := range seedDistricts {
			district := &refmodels.District{
				ID:        id.NewDistrictID(),
				Name:      seed.name,
				Code:      seed.code,
				CreatedAt: now,
			}
			if err := district.Validate(); err != nil {
				return fmt.Errorf("seed district %q: %w", seed.name, err)
			}
			if err := refdata.CreateDistrict(ctx, district); err != nil {
				return fmt.Errorf("seed district %q: %w", seed.name, err)
			}
			// A starter mahalla per district; operators add the rest.
			mahalla := &refmodels.Mahalla{
				ID:         id.NewMahallaID(),
				Name:       "Markaziy",
				DistrictID: district.ID,
				CreatedAt:  now,
			}
			if err := refdata.CreateMahalla(ctx, mahalla); err != nil {
				return fmt.Errorf("seed mahalla for %q: %w", seed.name, err)
			}
		}

		for categoryName, typeNames := range crimeCatalog {
			category := &refmodels.CrimeCategory{
				ID:        id.NewCrimeCategoryID(),
				Name:      categoryName,
				CreatedAt: now,
			}
			if err := refdata.CreateCrimeCategory(ctx, category); err != nil {
				return fmt.Errorf("seed crime category %q: %w", categoryName, err)
			}
			for _, typeName := range typeNames {
				categoryID := category.ID
				crimeType := &refmodels.CrimeType{
					ID:         id.NewCrimeTypeID(),
					Name:       typeName,
					CategoryID: &categoryID,
					CreatedAt:  now,
				}
				if err := refdata.CreateCrimeType(ctx, crimeType); err != nil {
					return fmt.Errorf("seed crime type %q: %w", typeName, err)
				}
			}
		}
	}

	password := os.Getenv("REESTR_BOOTSTRAP_PASSWORD")
	if password == "" {
		password = "admin123"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash bootstrap password: %w", err)
	}

	admin := &actormodels.Actor{
		ID:           id.NewActorID(),
		Login:        defaultAdminLogin,
		PasswordHash: string(hash),
		FullName:     "System Administrator",
		Role:         actormodels.RoleSuperAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := actors.Create(ctx, admin); err != nil {
		return fmt.Errorf("seed super admin: %w", err)
	}

	logger.InfoContext(ctx, "bootstrap completed",
		"districts", len(seedDistricts),
		"admin_login", defaultAdminLogin,
	)
	return nil
}
