package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	actormodels "reestr/internal/actor/models"
	actorstore "reestr/internal/actor/store"
	"reestr/internal/audit"
	"reestr/internal/person/models"
	"reestr/internal/person/service"
	personstore "reestr/internal/person/store"
	"reestr/internal/platform/logger"
	refmodels "reestr/internal/refdata/models"
	refstore "reestr/internal/refdata/store"
	id "reestr/pkg/domain"
	dErrors "reestr/pkg/domain-errors"
	"reestr/pkg/requestcontext"
)

type auditRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *auditRecorder) Record(_ context.Context, event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *auditRecorder) last() (audit.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return audit.Event{}, false
	}
	return r.events[len(r.events)-1], true
}

type PersonServiceSuite struct {
	suite.Suite
	ctx     context.Context
	svc     *service.Service
	actors  *actorstore.InMemory
	persons *personstore.InMemory
	refdata *refstore.InMemory
	auditor *auditRecorder

	districtA id.DistrictID
	districtB id.DistrictID
	mahallaA1 id.MahallaID
	mahallaA2 id.MahallaID
	mahallaB1 id.MahallaID
	category  id.CrimeCategoryID
	crimeType id.CrimeTypeID

	super      *actormodels.Actor
	jqbA       *actormodels.Actor
	jqbB       *actormodels.Actor
	inspector1 *actormodels.Actor
	inspector2 *actormodels.Actor
}

func TestPersonServiceSuite(t *testing.T) {
	suite.Run(t, new(PersonServiceSuite))
}

func (s *PersonServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.actors = actorstore.NewInMemory()
	s.persons = personstore.NewInMemory()
	s.refdata = refstore.NewInMemory()
	s.auditor = &auditRecorder{}
	s.svc = service.New(s.persons, s.actors, s.refdata, s.auditor, nil, logger.New())

	now := time.Now()

	s.districtA = id.NewDistrictID()
	s.districtB = id.NewDistrictID()
	s.Require().NoError(s.refdata.CreateDistrict(s.ctx, &refmodels.District{
		ID: s.districtA, Name: "Norin", Code: "NRN", CreatedAt: now,
	}))
	s.Require().NoError(s.refdata.CreateDistrict(s.ctx, &refmodels.District{
		ID: s.districtB, Name: "Pop", Code: "POP", CreatedAt: now,
	}))

	s.mahallaA1 = id.NewMahallaID()
	s.mahallaA2 = id.NewMahallaID()
	s.mahallaB1 = id.NewMahallaID()
	s.Require().NoError(s.refdata.CreateMahalla(s.ctx, &refmodels.Mahalla{
		ID: s.mahallaA1, Name: "Guliston", DistrictID: s.districtA, CreatedAt: now,
	}))
	s.Require().NoError(s.refdata.CreateMahalla(s.ctx, &refmodels.Mahalla{
		ID: s.mahallaA2, Name: "Bogiston", DistrictID: s.districtA, CreatedAt: now,
	}))
	s.Require().NoError(s.refdata.CreateMahalla(s.ctx, &refmodels.Mahalla{
		ID: s.mahallaB1, Name: "Yangiobod", DistrictID: s.districtB, CreatedAt: now,
	}))

	s.category = id.NewCrimeCategoryID()
	s.crimeType = id.NewCrimeTypeID()
	s.Require().NoError(s.refdata.CreateCrimeCategory(s.ctx, &refmodels.CrimeCategory{
		ID: s.category, Name: "Theft", CreatedAt: now,
	}))
	s.Require().NoError(s.refdata.CreateCrimeType(s.ctx, &refmodels.CrimeType{
		ID: s.crimeType, Name: "Burglary", CategoryID: &s.category, CreatedAt: now,
	}))

	s.super = s.seedActor("super", actormodels.RoleSuperAdmin, nil, nil)
	s.jqbA = s.seedActor("jqb-a", actormodels.RoleJQBAdmin, &s.districtA, nil)
	s.jqbB = s.seedActor("jqb-b", actormodels.RoleJQBAdmin, &s.districtB, nil)
	s.inspector1 = s.seedActor("inspector1", actormodels.RoleMahallaInspector, &s.districtA, &s.mahallaA1)
	s.inspector2 = s.seedActor("inspector2", actormodels.RoleMahallaInspector, &s.districtA, &s.mahallaA1)
}

func (s *PersonServiceSuite) seedActor(login string, role actormodels.Role, districtID *id.DistrictID, mahallaID *id.MahallaID) *actormodels.Actor {
	now := time.Now()
	a := &actormodels.Actor{
		ID:           id.NewActorID(),
		Login:        login,
		PasswordHash: "hash",
		FullName:     "Actor " + login,
		PhoneNumber:  "+99890" + login,
		Role:         role,
		DistrictID:   districtID,
		MahallaID:    mahallaID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.Require().NoError(s.actors.Create(s.ctx, a))
	return a
}

var passportSeq = 0

func (s *PersonServiceSuite) registerInput() service.RegisterInput {
	passportSeq++
	return service.RegisterInput{
		FirstName:       "Abror",
		LastName:        "Karimov",
		MiddleName:      "Olimovich",
		BirthDate:       "1990-04-12",
		PassportSerial:  "aa",
		PassportNumber:  fmt.Sprintf("1%06d", passportSeq),
		DistrictID:      s.districtA,
		MahallaID:       s.mahallaA1,
		CrimeCategoryID: s.category,
		CrimeTypeID:     s.crimeType,
	}
}

func (s *PersonServiceSuite) register(actor *actormodels.Actor, mutate func(*service.RegisterInput)) *models.Person {
	input := s.registerInput()
	if mutate != nil {
		mutate(&input)
	}
	p, err := s.svc.Register(s.ctx, actor.ID, input)
	s.Require().NoError(err)
	return p
}

func (s *PersonServiceSuite) TestRegisterStampsAndForcesJurisdiction() {
	s.Run("inspector's own jurisdiction overrides the submitted one", func() {
		p := s.register(s.inspector1, func(in *service.RegisterInput) {
			in.DistrictID = s.districtB
			in.MahallaID = s.mahallaB1
		})
		s.Equal(s.districtA, p.DistrictID)
		s.Equal(s.mahallaA1, p.MahallaID)
		s.Equal("Norin", p.DistrictName)
		s.Equal("Guliston", p.MahallaName)
	})

	s.Run("registration stamps the registering actor", func() {
		p := s.register(s.inspector1, nil)
		s.Equal(s.inspector1.ID, p.RegisteredBy)
		s.Equal(s.inspector1.FullName, p.RegisteredByName)
		s.Equal(s.inspector1.PhoneNumber, p.RegisteredByPhone)
		s.False(p.RegisteredAt.IsZero())
	})

	s.Run("a new record is never in process", func() {
		p := s.register(s.super, nil)
		s.False(p.InProcess)
		s.Nil(p.ProcessedAt)
		s.Nil(p.ProcessedBy)
	})

	s.Run("passport serial is stored upper-cased", func() {
		p := s.register(s.super, func(in *service.RegisterInput) {
			in.PassportSerial = "ab"
		})
		s.Equal("AB", p.PassportSerial)
	})

	s.Run("JQB admin keeps the submitted mahalla within its district", func() {
		p := s.register(s.jqbA, func(in *service.RegisterInput) {
			in.MahallaID = s.mahallaA2
		})
		s.Equal(s.districtA, p.DistrictID)
		s.Equal(s.mahallaA2, p.MahallaID)
		s.Equal("Bogiston", p.MahallaName)
	})

	s.Run("denormalized crime names are resolved", func() {
		p := s.register(s.super, nil)
		s.Equal("Theft", p.CrimeCategoryName)
		s.Equal("Burglary", p.CrimeTypeName)
	})
}

func (s *PersonServiceSuite) TestRegisterValidation() {
	s.Run("missing first name", func() {
		input := s.registerInput()
		input.FirstName = " "
		_, err := s.svc.Register(s.ctx, s.super.ID, input)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("oversized passport serial", func() {
		input := s.registerInput()
		input.PassportSerial = "AAA"
		_, err := s.svc.Register(s.ctx, s.super.ID, input)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("mahalla outside the submitted district", func() {
		input := s.registerInput()
		input.MahallaID = s.mahallaB1
		_, err := s.svc.Register(s.ctx, s.super.ID, input)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate passport", func() {
		input := s.registerInput()
		_, err := s.svc.Register(s.ctx, s.super.ID, input)
		s.Require().NoError(err)

		_, err = s.svc.Register(s.ctx, s.super.ID, input)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(dErrors.ReasonDuplicate, dErrors.ReasonOf(err))
	})
}

func (s *PersonServiceSuite) TestReadVisibility() {
	// Registered by inspector2 in mahalla A1.
	p := s.register(s.inspector2, nil)

	s.Run("colleague in the same mahalla can read the single record", func() {
		got, err := s.svc.Get(s.ctx, s.inspector1.ID, p.ID)
		s.Require().NoError(err)
		s.Equal(p.ID, got.ID)
	})

	s.Run("but the colleague's list does not include it", func() {
		list, err := s.svc.List(s.ctx, s.inspector1.ID)
		s.Require().NoError(err)
		s.Empty(list)
	})

	s.Run("district admin of another district is refused", func() {
		_, err := s.svc.Get(s.ctx, s.jqbB.ID, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(dErrors.ReasonForbiddenJurisdiction, dErrors.ReasonOf(err))
	})

	s.Run("unknown person is not found", func() {
		_, err := s.svc.Get(s.ctx, s.super.ID, id.NewPersonID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *PersonServiceSuite) TestListScopes() {
	mine := s.register(s.inspector1, nil)
	s.register(s.inspector2, nil)
	outside := s.register(s.super, func(in *service.RegisterInput) {
		in.DistrictID = s.districtB
		in.MahallaID = s.mahallaB1
	})

	s.Run("super admin sees everything", func() {
		list, err := s.svc.List(s.ctx, s.super.ID)
		s.Require().NoError(err)
		s.Len(list, 3)
	})

	s.Run("district admin sees its district only", func() {
		list, err := s.svc.List(s.ctx, s.jqbA.ID)
		s.Require().NoError(err)
		s.Len(list, 2)
		for _, p := range list {
			s.Equal(s.districtA, p.DistrictID)
		}
	})

	s.Run("inspector sees own registrations only", func() {
		list, err := s.svc.List(s.ctx, s.inspector1.ID)
		s.Require().NoError(err)
		s.Require().Len(list, 1)
		s.Equal(mine.ID, list[0].ID)
	})

	s.Run("newest registrations come first", func() {
		list, err := s.svc.List(s.ctx, s.super.ID)
		s.Require().NoError(err)
		s.Equal(outside.ID, list[0].ID)
	})
}

func (s *PersonServiceSuite) TestSearchOverrides() {
	inA := s.register(s.jqbA, nil)
	s.register(s.super, func(in *service.RegisterInput) {
		in.DistrictID = s.districtB
		in.MahallaID = s.mahallaB1
	})

	s.Run("super admin may filter by district", func() {
		got, err := s.svc.Search(s.ctx, s.super.ID, models.SearchFilter{DistrictID: &s.districtA})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(inA.ID, got[0].ID)
	})

	s.Run("district admin's district filter is dropped, scope holds", func() {
		got, err := s.svc.Search(s.ctx, s.jqbA.ID, models.SearchFilter{DistrictID: &s.districtB})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(inA.ID, got[0].ID)
	})

	s.Run("district admin may narrow by mahalla", func() {
		got, err := s.svc.Search(s.ctx, s.jqbA.ID, models.SearchFilter{MahallaID: &s.mahallaA2})
		s.Require().NoError(err)
		s.Empty(got)
	})

	s.Run("inspector's mahalla filter is dropped", func() {
		mine := s.register(s.inspector1, nil)
		got, err := s.svc.Search(s.ctx, s.inspector1.ID, models.SearchFilter{MahallaID: &s.mahallaB1})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(mine.ID, got[0].ID)
	})
}

func (s *PersonServiceSuite) TestProcessLifecycle() {
	p := s.register(s.inspector1, nil)

	s.Run("inspector may not start processing", func() {
		_, err := s.svc.AddToProcess(s.ctx, s.inspector1.ID, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(dErrors.ReasonForbiddenRole, dErrors.ReasonOf(err))
	})

	s.Run("district admin starts processing with full stamps", func() {
		got, err := s.svc.AddToProcess(s.ctx, s.jqbA.ID, p.ID)
		s.Require().NoError(err)
		s.True(got.InProcess)
		s.Require().NotNil(got.ProcessedBy)
		s.Equal(s.jqbA.ID, *got.ProcessedBy)
		s.Equal(s.jqbA.FullName, got.ProcessedByName)
		s.NotNil(got.ProcessedAt)
	})

	s.Run("starting twice is a conflict, not a permission failure", func() {
		_, err := s.svc.AddToProcess(s.ctx, s.super.ID, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(dErrors.ReasonAlreadyInProcess, dErrors.ReasonOf(err))
	})

	s.Run("only super admin may clear the process", func() {
		_, err := s.svc.RemoveFromProcess(s.ctx, s.jqbA.ID, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("clearing resets all three stamps", func() {
		got, err := s.svc.RemoveFromProcess(s.ctx, s.super.ID, p.ID)
		s.Require().NoError(err)
		s.False(got.InProcess)
		s.Nil(got.ProcessedAt)
		s.Nil(got.ProcessedBy)
		s.Empty(got.ProcessedByName)
	})

	s.Run("clearing an idle record is a conflict", func() {
		_, err := s.svc.RemoveFromProcess(s.ctx, s.super.ID, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(dErrors.ReasonNotInProcess, dErrors.ReasonOf(err))
	})
}

func (s *PersonServiceSuite) TestInProcessListing() {
	first := s.register(s.jqbA, nil)
	second := s.register(s.jqbA, nil)
	s.register(s.jqbA, nil)

	base := time.Now()
	ctx1 := requestcontext.WithTime(s.ctx, base.Add(-time.Hour))
	_, err := s.svc.AddToProcess(ctx1, s.jqbA.ID, first.ID)
	s.Require().NoError(err)
	ctx2 := requestcontext.WithTime(s.ctx, base)
	_, err = s.svc.AddToProcess(ctx2, s.jqbA.ID, second.ID)
	s.Require().NoError(err)

	got, err := s.svc.ListInProcess(s.ctx, s.jqbA.ID)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(second.ID, got[0].ID)
	s.Equal(first.ID, got[1].ID)
}

func (s *PersonServiceSuite) TestUpdateOwnership() {
	byInspector2 := s.register(s.inspector2, nil)

	newName := "Dilshod"
	s.Run("inspector cannot edit a colleague's record", func() {
		_, err := s.svc.Update(s.ctx, s.inspector1.ID, byInspector2.ID, service.UpdateInput{FirstName: &newName})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(dErrors.ReasonForbiddenJurisdiction, dErrors.ReasonOf(err))
	})

	s.Run("inspector edits an own record", func() {
		mine := s.register(s.inspector1, nil)
		got, err := s.svc.Update(s.ctx, s.inspector1.ID, mine.ID, service.UpdateInput{FirstName: &newName})
		s.Require().NoError(err)
		s.Equal("Dilshod", got.FirstName)
	})

	s.Run("district admin cannot move a record out of its district", func() {
		_, err := s.svc.Update(s.ctx, s.jqbA.ID, byInspector2.ID, service.UpdateInput{
			DistrictID: &s.districtB,
			MahallaID:  &s.mahallaB1,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("registration stamps survive an update", func() {
		got, err := s.svc.Update(s.ctx, s.super.ID, byInspector2.ID, service.UpdateInput{FirstName: &newName})
		s.Require().NoError(err)
		s.Equal(s.inspector2.ID, got.RegisteredBy)
		s.Equal(s.inspector2.FullName, got.RegisteredByName)
	})
}

func (s *PersonServiceSuite) TestDelete() {
	p := s.register(s.jqbA, nil)

	s.Run("district admin may not delete", func() {
		err := s.svc.Delete(s.ctx, s.jqbA.ID, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		s.Equal(dErrors.ReasonForbiddenRole, dErrors.ReasonOf(err))
	})

	s.Run("super admin deletes and the deletion is audited", func() {
		s.Require().NoError(s.svc.Delete(s.ctx, s.super.ID, p.ID))

		_, err := s.svc.Get(s.ctx, s.super.ID, p.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		event, ok := s.auditor.last()
		s.Require().True(ok)
		s.Equal(audit.ActionPersonDeleted, event.Action)
		s.Equal(p.ID.String(), event.SubjectID)
	})
}
