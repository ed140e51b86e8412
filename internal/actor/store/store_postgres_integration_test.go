//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reestr/internal/actor/models"
	"reestr/internal/actor/store"
	id "reestr/pkg/domain"
	"reestr/pkg/platform/sentinel"
	"reestr/pkg/testutil/containers"
)

type PostgresActorSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	district id.DistrictID
}

func TestPostgresActorSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresActorSuite))
}

func (s *PostgresActorSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresActorSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "persons", "actors", "mahallas", "districts"))

	s.district = id.NewDistrictID()
	_, err := s.postgres.DB.ExecContext(ctx,
		`INSERT INTO districts (id, name, code, created_at) VALUES ($1, $2, $3, $4)`,
		s.district.String(), "Norin", "NRN", time.Now())
	s.Require().NoError(err)
}

func (s *PostgresActorSuite) newActor(login string) *models.Actor {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Actor{
		ID:           id.NewActorID(),
		Login:        login,
		PasswordHash: "$2a$10$hash",
		FullName:     "Test Admin",
		PhoneNumber:  "+998901112233",
		Role:         models.RoleJQBAdmin,
		DistrictID:   &s.district,
		DistrictName: "Norin",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *PostgresActorSuite) TestRoundTrip() {
	ctx := context.Background()
	actor := s.newActor("roundtrip")
	s.Require().NoError(s.store.Create(ctx, actor))

	found, err := s.store.FindByID(ctx, actor.ID)
	s.Require().NoError(err)
	s.Equal(actor.Login, found.Login)
	s.Equal(models.RoleJQBAdmin, found.Role)
	s.Require().NotNil(found.DistrictID)
	s.Equal(s.district, *found.DistrictID)
	s.Nil(found.MahallaID)

	byLogin, err := s.store.FindByLogin(ctx, "ROUNDTRIP")
	s.Require().NoError(err)
	s.Equal(actor.ID, byLogin.ID)
}

func (s *PostgresActorSuite) TestConcurrentUniqueLoginViolation() {
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(ctx, s.newActor("raced"))
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one create should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load())
}

func (s *PostgresActorSuite) TestUpdateAndDelete() {
	ctx := context.Background()
	actor := s.newActor("mutable")
	s.Require().NoError(s.store.Create(ctx, actor))

	actor.FullName = "Renamed Admin"
	actor.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(s.store.Update(ctx, actor))

	found, err := s.store.FindByID(ctx, actor.ID)
	s.Require().NoError(err)
	s.Equal("Renamed Admin", found.FullName)

	s.Require().NoError(s.store.Delete(ctx, actor.ID))
	_, err = s.store.FindByID(ctx, actor.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().ErrorIs(s.store.Update(ctx, actor), sentinel.ErrNotFound)
}

func (s *PostgresActorSuite) TestListByDistrict() {
	ctx := context.Background()

	other := id.NewDistrictID()
	_, err := s.postgres.DB.ExecContext(ctx,
		`INSERT INTO districts (id, name, code, created_at) VALUES ($1, $2, $3, $4)`,
		other.String(), "Pop", "POP", time.Now())
	s.Require().NoError(err)

	inDistrict := s.newActor("indistrict")
	elsewhere := s.newActor("elsewhere")
	elsewhere.DistrictID = &other
	elsewhere.DistrictName = "Pop"

	s.Require().NoError(s.store.Create(ctx, inDistrict))
	s.Require().NoError(s.store.Create(ctx, elsewhere))

	scoped, err := s.store.ListByDistrict(ctx, s.district)
	s.Require().NoError(err)
	s.Require().Len(scoped, 1)
	s.Equal(inDistrict.ID, scoped[0].ID)
}
