package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"reestr/internal/person/models"
	id "reestr/pkg/domain"
	"reestr/pkg/platform/sentinel"
)

type PersonStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context

	districtA id.DistrictID
	districtB id.DistrictID
	inspector id.ActorID
}

func (s *PersonStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.districtA = id.NewDistrictID()
	s.districtB = id.NewDistrictID()
	s.inspector = id.NewActorID()
}

func TestPersonStoreSuite(t *testing.T) {
	suite.Run(t, new(PersonStoreSuite))
}

type personOpt func(*models.Person)

func (s *PersonStoreSuite) newPerson(serial, number string, opts ...personOpt) *models.Person {
	now := time.Now()
	p := &models.Person{
		ID:               id.NewPersonID(),
		FirstName:        "Abror",
		LastName:         "Karimov",
		MiddleName:       "Olimovich",
		BirthDate:        "1990-04-12",
		PassportSerial:   serial,
		PassportNumber:   number,
		DistrictID:       s.districtA,
		DistrictName:     "Norin",
		MahallaID:        id.NewMahallaID(),
		MahallaName:      "Guliston",
		CrimeCategoryID:  id.NewCrimeCategoryID(),
		CrimeTypeID:      id.NewCrimeTypeID(),
		RegisteredBy:     s.inspector,
		RegisteredByName: "Inspector One",
		RegisteredAt:     now,
		UpdatedAt:        now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func registeredAt(t time.Time) personOpt {
	return func(p *models.Person) { p.RegisteredAt = t }
}

func inDistrict(districtID id.DistrictID) personOpt {
	return func(p *models.Person) { p.DistrictID = districtID }
}

func registeredBy(actorID id.ActorID) personOpt {
	return func(p *models.Person) { p.RegisteredBy = actorID }
}

func (s *PersonStoreSuite) TestCreateAndFind() {
	p := s.newPerson("AA", "1234567")
	s.Require().NoError(s.store.Create(s.ctx, p))

	found, err := s.store.FindByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("Abror", found.FirstName)

	_, err = s.store.FindByID(s.ctx, id.NewPersonID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PersonStoreSuite) TestPassportUniqueness() {
	s.Require().NoError(s.store.Create(s.ctx, s.newPerson("AA", "1234567")))

	s.Run("same passport pair is rejected", func() {
		err := s.store.Create(s.ctx, s.newPerson("AA", "1234567"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("same number under another serial is fine", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newPerson("AB", "1234567")))
	})

	s.Run("update cannot steal another person's passport", func() {
		other := s.newPerson("AC", "7654321")
		s.Require().NoError(s.store.Create(s.ctx, other))

		other.PassportSerial = "AA"
		other.PassportNumber = "1234567"
		s.Require().ErrorIs(s.store.Update(s.ctx, other), sentinel.ErrConflict)
	})
}

func (s *PersonStoreSuite) TestListOrderingAndScope() {
	base := time.Now()
	oldest := s.newPerson("AA", "0000001", registeredAt(base.Add(-2*time.Hour)))
	middle := s.newPerson("AA", "0000002", registeredAt(base.Add(-time.Hour)), inDistrict(s.districtB))
	newest := s.newPerson("AA", "0000003", registeredAt(base), registeredBy(id.NewActorID()))

	for _, p := range []*models.Person{oldest, middle, newest} {
		s.Require().NoError(s.store.Create(s.ctx, p))
	}

	s.Run("unrestricted scope sees all, newest first", func() {
		all, err := s.store.List(s.ctx, models.Scope{})
		s.Require().NoError(err)
		s.Require().Len(all, 3)
		s.Equal(newest.ID, all[0].ID)
		s.Equal(oldest.ID, all[2].ID)
	})

	s.Run("district scope hides other districts", func() {
		scoped, err := s.store.List(s.ctx, models.Scope{DistrictID: &s.districtA})
		s.Require().NoError(err)
		s.Require().Len(scoped, 2)
		for _, p := range scoped {
			s.Equal(s.districtA, p.DistrictID)
		}
	})

	s.Run("ownership scope hides other registrars", func() {
		scoped, err := s.store.List(s.ctx, models.Scope{RegisteredBy: &s.inspector})
		s.Require().NoError(err)
		s.Require().Len(scoped, 2)
		for _, p := range scoped {
			s.Equal(s.inspector, p.RegisteredBy)
		}
	})
}

func (s *PersonStoreSuite) TestSearchPredicates() {
	target := s.newPerson("AB", "5550001")
	target.FirstName = "Dilshod"
	target.LastName = "Tursunov"
	other := s.newPerson("AA", "5550002")

	s.Require().NoError(s.store.Create(s.ctx, target))
	s.Require().NoError(s.store.Create(s.ctx, other))

	s.Run("first name substring, case-insensitive", func() {
		got, err := s.store.Search(s.ctx, models.Scope{}, models.SearchFilter{FirstName: "ilsho"})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(target.ID, got[0].ID)
	})

	s.Run("passport serial matches exactly, upper-cased", func() {
		got, err := s.store.Search(s.ctx, models.Scope{}, models.SearchFilter{PassportSerial: "ab"})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(target.ID, got[0].ID)
	})

	s.Run("passport number matches by substring", func() {
		got, err := s.store.Search(s.ctx, models.Scope{}, models.SearchFilter{PassportNumber: "555"})
		s.Require().NoError(err)
		s.Len(got, 2)
	})

	s.Run("predicates combine with AND", func() {
		got, err := s.store.Search(s.ctx, models.Scope{}, models.SearchFilter{
			LastName:       "tursunov",
			PassportNumber: "0002",
		})
		s.Require().NoError(err)
		s.Empty(got)
	})

	s.Run("filter cannot widen a scope", func() {
		outsider := id.NewActorID()
		got, err := s.store.Search(s.ctx, models.Scope{RegisteredBy: &outsider}, models.SearchFilter{PassportNumber: "555"})
		s.Require().NoError(err)
		s.Empty(got)
	})
}

func (s *PersonStoreSuite) TestInProcessListing() {
	actorID := id.NewActorID()
	base := time.Now()

	first := s.newPerson("AA", "7770001")
	first.ApplyAddToProcess(actorID, "Inspector", base.Add(-time.Hour))
	second := s.newPerson("AA", "7770002")
	second.ApplyAddToProcess(actorID, "Inspector", base)
	idle := s.newPerson("AA", "7770003")

	for _, p := range []*models.Person{first, second, idle} {
		s.Require().NoError(s.store.Create(s.ctx, p))
	}

	got, err := s.store.ListInProcess(s.ctx, models.Scope{})
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(second.ID, got[0].ID)
	s.Equal(first.ID, got[1].ID)
}

func (s *PersonStoreSuite) TestDelete() {
	p := s.newPerson("AA", "9990001")
	s.Require().NoError(s.store.Create(s.ctx, p))

	s.Require().NoError(s.store.Delete(s.ctx, p.ID))
	s.Require().ErrorIs(s.store.Delete(s.ctx, p.ID), sentinel.ErrNotFound)
}
